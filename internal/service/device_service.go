package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"promo-data/internal/devices"
	"promo-data/internal/metrics"
)

// StatusUnavailable 目录或别名表不可用
const StatusUnavailable = "unavailable"

// DeviceConfig 设备目录与别名表位置
type DeviceConfig struct {
	CatalogPath string
	Catalog     devices.CatalogOptions
	AliasPath   string
}

// SearchOutcome 搜索结果。数据源不可用时 Available=false，Batch 为空
type SearchOutcome struct {
	Available bool                 `json:"available"`
	Message   string               `json:"message,omitempty"`
	Header    []string             `json:"header"`
	Batch     *devices.BatchResult `json:"batch"`
}

// DeviceService 营销别名搜索、别名表重建
type DeviceService struct {
	cfg        DeviceConfig
	classifier *devices.Classifier
	metrics    *metrics.Metrics
	logger     *zap.Logger

	mu         sync.Mutex
	resolver   *devices.Resolver
	header     []string
	catalogMod time.Time
	aliasMod   time.Time
}

func NewDeviceService(cfg DeviceConfig, classifier *devices.Classifier, m *metrics.Metrics, logger *zap.Logger) *DeviceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DeviceService{cfg: cfg, classifier: classifier, metrics: m, logger: logger}
}

// load 目录和别名表按修改时间缓存，文件更新后下次请求重新读取
func (s *DeviceService) load() (*devices.Resolver, []string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	catMod, err := devices.SourceModTime(s.cfg.CatalogPath)
	if err != nil {
		return nil, nil, err
	}
	aliasMod, err := devices.SourceModTime(s.cfg.AliasPath)
	if err != nil {
		return nil, nil, err
	}
	if s.resolver != nil && catMod.Equal(s.catalogMod) && aliasMod.Equal(s.aliasMod) {
		return s.resolver, s.header, nil
	}

	catalog, err := devices.LoadCatalog(s.cfg.CatalogPath, s.cfg.Catalog, s.logger)
	if err != nil {
		return nil, nil, err
	}
	index, err := devices.LoadAliasIndex(s.cfg.AliasPath, s.logger)
	if err != nil {
		return nil, nil, err
	}
	s.resolver = devices.NewResolver(index, catalog)
	s.header = catalog.Header
	s.catalogMod, s.aliasMod = catMod, aliasMod
	return s.resolver, s.header, nil
}

func (s *DeviceService) invalidate() {
	s.mu.Lock()
	s.resolver = nil
	s.mu.Unlock()
}

// Search 单个别名
func (s *DeviceService) Search(ctx context.Context, alias string) *SearchOutcome {
	return s.BatchSearch(ctx, []string{alias})
}

// BatchSearch 按输入顺序解析别名列表
func (s *DeviceService) BatchSearch(_ context.Context, aliases []string) *SearchOutcome {
	r, header, err := s.load()
	if err != nil {
		s.logger.Warn("device search unavailable", zap.Error(err))
		s.countSearch(StatusUnavailable, len(aliases))
		return &SearchOutcome{
			Message: err.Error(),
			Header:  []string{},
			Batch:   &devices.BatchResult{Rows: []devices.MatchedRow{}, Summary: []devices.AliasSummary{}},
		}
	}
	res := r.ResolveBatch(aliases)
	for status, n := range res.Counts() {
		s.countSearch(status, n)
	}
	return &SearchOutcome{Available: true, Header: header, Batch: res}
}

// ExportBatch 批量搜索并导出 xlsx（Results + Summary 两个 sheet）
func (s *DeviceService) ExportBatch(ctx context.Context, aliases []string) ([]byte, *SearchOutcome, error) {
	out := s.BatchSearch(ctx, aliases)
	if !out.Available {
		return nil, out, nil
	}
	data, err := devices.ExportBatch(out.Batch, out.Header)
	if err != nil {
		return nil, out, fmt.Errorf("export batch: %w", err)
	}
	return data, out, nil
}

// MappingStats 别名表重建结果
type MappingStats struct {
	Devices    int `json:"devices"`
	BaseModels int `json:"base_models"`
	Unmapped   int `json:"unmapped"`
	Entries    int `json:"entries"`
}

// RebuildMapping 从目录重新生成别名表并原子替换
func (s *DeviceService) RebuildMapping(_ context.Context) (*MappingStats, error) {
	catalog, err := devices.LoadCatalog(s.cfg.CatalogPath, s.cfg.Catalog, s.logger)
	if err != nil {
		return nil, err
	}
	models := catalog.Models()
	order, groups := devices.GroupByBaseModel(models, s.classifier)
	mapped := 0
	for _, g := range groups {
		mapped += len(g)
	}
	entries := devices.BuildAliasEntries(catalog, s.classifier)

	if err := writeAliasFile(s.cfg.AliasPath, func(f *os.File) error {
		return devices.WriteAliasCSV(f, entries)
	}); err != nil {
		return nil, err
	}
	s.invalidate()

	stats := &MappingStats{
		Devices:    len(models),
		BaseModels: len(order),
		Unmapped:   len(models) - mapped,
		Entries:    len(entries),
	}
	s.logger.Info("alias mapping rebuilt",
		zap.String("alias_path", s.cfg.AliasPath),
		zap.Int("devices", stats.Devices),
		zap.Int("base_models", stats.BaseModels),
		zap.Int("unmapped", stats.Unmapped),
		zap.Int("entries", stats.Entries),
	)
	return stats, nil
}

func writeAliasFile(path string, write func(f *os.File) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create alias dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".aliases-*.csv")
	if err != nil {
		return fmt.Errorf("create alias file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if err := write(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("write alias file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write alias file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace alias file: %w", err)
	}
	return nil
}

func (s *DeviceService) countSearch(status string, n int) {
	if s.metrics != nil && n > 0 {
		s.metrics.DeviceSearches.WithLabelValues(status).Add(float64(n))
	}
}
