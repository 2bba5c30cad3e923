package service

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"promo-data/internal/devices"
	"promo-data/internal/metrics"
)

func newDeviceService(t *testing.T, dir string) *DeviceService {
	t.Helper()
	cfg := DeviceConfig{
		CatalogPath: filepath.Join(dir, "catalog.xlsx"),
		AliasPath:   filepath.Join(dir, "aliases", "marketing_aliases.csv"),
	}
	return NewDeviceService(cfg, devices.NewClassifier(), metrics.New(), zap.NewNop())
}

func TestDeviceService_SearchUnavailable(t *testing.T) {
	svc := newDeviceService(t, t.TempDir())

	out := svc.Search(context.Background(), "iPhone 15")
	assert.False(t, out.Available)
	assert.NotEmpty(t, out.Message)
	assert.Empty(t, out.Batch.Rows)
	assert.Empty(t, out.Batch.Summary)

	data, out, err := svc.ExportBatch(context.Background(), []string{"iPhone 15"})
	require.NoError(t, err)
	assert.Nil(t, data)
	assert.False(t, out.Available)
}

func TestDeviceService_RebuildThenBatchSearch(t *testing.T) {
	dir := t.TempDir()
	writeCatalog(t, dir, defaultCatalogRows()...)
	svc := newDeviceService(t, dir)
	ctx := context.Background()

	stats, err := svc.RebuildMapping(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Devices)
	assert.Equal(t, 2, stats.BaseModels)
	assert.Equal(t, 1, stats.Unmapped)
	assert.Greater(t, stats.Entries, 0)
	_, err = os.Stat(svc.cfg.AliasPath)
	require.NoError(t, err)

	out := svc.BatchSearch(ctx, []string{"iPhone 15", "Nonexistent Device XYZ", "S24 Ultra"})
	require.True(t, out.Available, out.Message)
	require.Len(t, out.Batch.Summary, 3)
	assert.Equal(t, devices.StatusFound, out.Batch.Summary[0].Status)
	assert.Equal(t, 2, out.Batch.Summary[0].DevicesFound)
	assert.Equal(t, devices.AliasSummary{Alias: "Nonexistent Device XYZ", Status: devices.StatusNoMapping}, out.Batch.Summary[1])
	assert.Equal(t, 1, out.Batch.Summary[2].DevicesFound)
	assert.Equal(t, []string{"Model(External)", "SKU Type", "Handset Brand", "SKU"}, out.Header)
}

func TestDeviceService_NoDevicesStatus(t *testing.T) {
	dir := t.TempDir()
	writeCatalog(t, dir, defaultCatalogRows()...)
	svc := newDeviceService(t, dir)
	require.NoError(t, os.MkdirAll(filepath.Dir(svc.cfg.AliasPath), 0o755))
	require.NoError(t, os.WriteFile(svc.cfg.AliasPath,
		[]byte("marketing_alias,manufacturer_name\nPixel 10,GGL PIXEL 10 128GB\n"), 0o644))

	out := svc.Search(context.Background(), "pixel 10")
	require.True(t, out.Available)
	assert.Equal(t, devices.StatusNoDevices, out.Batch.Summary[0].Status)
}

func TestDeviceService_ReloadsWhenAliasFileChanges(t *testing.T) {
	dir := t.TempDir()
	writeCatalog(t, dir, defaultCatalogRows()...)
	svc := newDeviceService(t, dir)
	require.NoError(t, os.MkdirAll(filepath.Dir(svc.cfg.AliasPath), 0o755))
	require.NoError(t, os.WriteFile(svc.cfg.AliasPath, []byte("marketing_alias,manufacturer_name\n"), 0o644))

	out := svc.Search(context.Background(), "Brick")
	assert.Equal(t, devices.StatusNoMapping, out.Batch.Summary[0].Status)

	require.NoError(t, os.WriteFile(svc.cfg.AliasPath,
		[]byte("marketing_alias,manufacturer_name\nBrick,NOK 3310 CLASSIC\n"), 0o644))
	later := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(svc.cfg.AliasPath, later, later))

	out = svc.Search(context.Background(), "Brick")
	assert.Equal(t, devices.StatusFound, out.Batch.Summary[0].Status)
}

func TestDeviceService_ExportBatch(t *testing.T) {
	dir := t.TempDir()
	writeCatalog(t, dir, defaultCatalogRows()...)
	svc := newDeviceService(t, dir)
	ctx := context.Background()
	_, err := svc.RebuildMapping(ctx)
	require.NoError(t, err)

	data, out, err := svc.ExportBatch(ctx, []string{"iPhone 15"})
	require.NoError(t, err)
	require.True(t, out.Available)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(devices.ResultsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Search_Term", rows[0][0])
	assert.Equal(t, "iPhone 15", rows[1][0])
}
