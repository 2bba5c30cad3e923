package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"promo-data/internal/devices"
	"promo-data/internal/domain"
	"promo-data/internal/store"
)

// SnapshotKey 快照在 KV 中的 key（不过期）
const SnapshotKey = "devices:snapshot"

// KVSnapshotStore 快照存 Redis，多实例部署时共享
type KVSnapshotStore struct {
	kv store.KV
}

func NewKVSnapshotStore(kv store.KV) *KVSnapshotStore {
	return &KVSnapshotStore{kv: kv}
}

var _ devices.SnapshotStore = (*KVSnapshotStore)(nil)

func (s *KVSnapshotStore) LoadSnapshot(ctx context.Context) (*domain.DeviceSnapshot, error) {
	raw, err := s.kv.Get(ctx, SnapshotKey)
	if err != nil {
		if errors.Is(err, store.ErrMiss) {
			return &domain.DeviceSnapshot{}, nil
		}
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	return decodeSnapshot([]byte(raw))
}

func (s *KVSnapshotStore) SaveSnapshot(ctx context.Context, snap *domain.DeviceSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := s.kv.Set(ctx, SnapshotKey, string(data), 0); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}
