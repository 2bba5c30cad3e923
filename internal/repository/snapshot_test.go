package repository

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"promo-data/internal/domain"
	"promo-data/internal/store"
)

// fakeKV 仅用于单元测试（内存 KV + TTL）
type fakeKV struct {
	mu   sync.Mutex
	data map[string]fakeKVItem
}

type fakeKVItem struct {
	value   string
	expires time.Time // zero = no ttl
}

func newFakeKV() *fakeKV { return &fakeKV{data: map[string]fakeKVItem{}} }

func (f *fakeKV) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.data[key]
	if !ok {
		return "", store.ErrMiss
	}
	if !item.expires.IsZero() && time.Now().After(item.expires) {
		delete(f.data, key)
		return "", store.ErrMiss
	}
	return item.value, nil
}

func (f *fakeKV) Set(_ context.Context, key string, value string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	var exp time.Time
	if ttl > 0 {
		exp = time.Now().Add(ttl)
	}
	f.data[key] = fakeKVItem{value: value, expires: exp}
	return nil
}

func (f *fakeKV) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.data, key)
	return nil
}

func sampleSnapshot() *domain.DeviceSnapshot {
	return &domain.DeviceSnapshot{
		LastUpdate:      time.Date(2025, 7, 1, 8, 30, 0, 0, time.UTC),
		TotalDevices:    3,
		MappedDevices:   2,
		UnmappedDevices: 1,
		KnownDevices:    []string{"A", "B", "C"},
	}
}

func TestFileSnapshotStore_MissingFileIsEmpty(t *testing.T) {
	s := NewFileSnapshotStore(filepath.Join(t.TempDir(), "snap.json"))
	snap, err := s.LoadSnapshot(context.Background())
	require.NoError(t, err)
	assert.True(t, snap.LastUpdate.IsZero())
	assert.Empty(t, snap.KnownDevices)
}

func TestFileSnapshotStore_RoundTripReplacesWholesale(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "snap.json")
	s := NewFileSnapshotStore(path)
	ctx := context.Background()

	require.NoError(t, s.SaveSnapshot(ctx, sampleSnapshot()))
	require.NoError(t, s.SaveSnapshot(ctx, &domain.DeviceSnapshot{TotalDevices: 1, KnownDevices: []string{"Z"}}))

	got, err := s.LoadSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, got.TotalDevices)
	assert.Equal(t, []string{"Z"}, got.KnownDevices)
	assert.True(t, got.LastUpdate.IsZero())

	// 不留临时文件
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFileSnapshotStore_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snap.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	_, err := NewFileSnapshotStore(path).LoadSnapshot(context.Background())
	assert.Error(t, err)
}

func TestKVSnapshotStore(t *testing.T) {
	kv := newFakeKV()
	s := NewKVSnapshotStore(kv)
	ctx := context.Background()

	empty, err := s.LoadSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.TotalDevices)

	want := sampleSnapshot()
	require.NoError(t, s.SaveSnapshot(ctx, want))
	raw, err := kv.Get(ctx, SnapshotKey)
	require.NoError(t, err)
	assert.Contains(t, raw, `"known_devices":["A","B","C"]`)

	got, err := s.LoadSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, want.KnownDevices, got.KnownDevices)
	assert.True(t, want.LastUpdate.Equal(got.LastUpdate))
}

func TestFileUploadStore(t *testing.T) {
	s := NewFileUploadStore(t.TempDir())

	assert.False(t, s.Exists("PROMO1", UploadSKU))
	_, err := s.Open("PROMO1", UploadSKU)
	assert.ErrorIs(t, err, ErrUploadNotFound)

	require.NoError(t, s.Save("PROMO1", UploadSKU, strings.NewReader("first")))
	require.NoError(t, s.Save("PROMO1", UploadSKU, bytes.NewBufferString("second")))
	assert.True(t, s.Exists("PROMO1", UploadSKU))
	assert.False(t, s.Exists("PROMO1", UploadTradeIn))

	rc, err := s.Open("PROMO1", UploadSKU)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	assert.Error(t, s.Save("PROMO1", "pdf", strings.NewReader("x")))
	assert.Error(t, s.Save("..", UploadSKU, strings.NewReader("x")))
}
