package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"promo-data/internal/devices"
	"promo-data/internal/domain"
)

// FileSnapshotStore 设备快照存为单个 JSON 文件
// 整体替换：先写临时文件再 rename，读者不会看到写了一半的文件
type FileSnapshotStore struct {
	path string
}

func NewFileSnapshotStore(path string) *FileSnapshotStore {
	return &FileSnapshotStore{path: path}
}

var _ devices.SnapshotStore = (*FileSnapshotStore)(nil)

// LoadSnapshot 文件不存在时返回空快照（首次运行）
func (s *FileSnapshotStore) LoadSnapshot(_ context.Context) (*domain.DeviceSnapshot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &domain.DeviceSnapshot{}, nil
		}
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	return decodeSnapshot(data)
}

func (s *FileSnapshotStore) SaveSnapshot(_ context.Context, snap *domain.DeviceSnapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create snapshot dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".snapshot-*.json")
	if err != nil {
		return fmt.Errorf("failed to create snapshot temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}
	return nil
}

func decodeSnapshot(data []byte) (*domain.DeviceSnapshot, error) {
	snap := &domain.DeviceSnapshot{}
	if err := json.Unmarshal(data, snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	if snap.KnownDevices == nil {
		snap.KnownDevices = []string{}
	}
	return snap, nil
}
