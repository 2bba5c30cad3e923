package devices

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.uber.org/zap"

	"promo-data/internal/domain"
)

// SnapshotStore 检测快照的读写。
// 只允许一个写者：调用方保证同一时刻最多一次检测在运行。
type SnapshotStore interface {
	LoadSnapshot(ctx context.Context) (*domain.DeviceSnapshot, error)
	SaveSnapshot(ctx context.Context, snap *domain.DeviceSnapshot) error
}

// AlertPublisher 有新设备时的通知出口（可选）
type AlertPublisher interface {
	PublishDetection(ctx context.Context, d *Detection) error
}

// MappedDevice 新设备及其基础型号
type MappedDevice struct {
	Model     string `json:"model"`
	BaseModel string `json:"base_model"`
}

// Detection 一次检测的结果
type Detection struct {
	Changed    bool                     `json:"changed"`
	NewDevices []string                 `json:"new_devices"`
	Mappable   []MappedDevice           `json:"mappable"`
	Unmappable []string                 `json:"unmappable"`
	Review     []domain.CanonicalDevice `json:"-"`
	NewRows    []domain.CanonicalDevice `json:"-"`
	ReviewPath string                   `json:"review_path,omitempty"`
	Snapshot   domain.DeviceSnapshot    `json:"snapshot"`
}

// Detect 纯函数：对比目录与上次快照。
// 目录修改时间未晚于快照时间时直接返回未变化。
func Detect(catalog *Catalog, prev domain.DeviceSnapshot, c *Classifier) *Detection {
	if !prev.LastUpdate.IsZero() && !catalog.ModTime.After(prev.LastUpdate) {
		return &Detection{Snapshot: prev}
	}
	known := make(map[string]struct{}, len(prev.KnownDevices))
	for _, m := range prev.KnownDevices {
		known[m] = struct{}{}
	}

	current := catalog.Models()
	d := &Detection{Changed: true}
	for _, m := range current {
		if _, ok := known[m]; !ok {
			d.NewDevices = append(d.NewDevices, m)
		}
	}
	sort.Strings(d.NewDevices)

	unmapped := map[string]struct{}{}
	for _, m := range d.NewDevices {
		if base, ok := c.Classify(m); ok {
			d.Mappable = append(d.Mappable, MappedDevice{Model: m, BaseModel: base})
		} else {
			d.Unmappable = append(d.Unmappable, m)
			unmapped[m] = struct{}{}
		}
	}
	added := make(map[string]struct{}, len(d.NewDevices))
	for _, m := range d.NewDevices {
		added[m] = struct{}{}
	}
	for _, dev := range catalog.Devices {
		if _, ok := unmapped[dev.Model]; ok {
			d.Review = append(d.Review, dev)
		}
		if _, ok := added[dev.Model]; ok {
			d.NewRows = append(d.NewRows, dev)
		}
	}

	all := append([]string(nil), current...)
	sort.Strings(all)
	d.Snapshot = domain.DeviceSnapshot{
		LastUpdate:      catalog.ModTime,
		TotalDevices:    len(all),
		MappedDevices:   len(d.Mappable),
		UnmappedDevices: len(d.Unmappable),
		KnownDevices:    all,
	}
	return d
}

// DetectorConfig 检测器参数
type DetectorConfig struct {
	CatalogPath string
	Catalog     CatalogOptions
	ReviewDir   string
}

// Detector 读取目录、对比快照、保存新快照、导出待复核设备
type Detector struct {
	cfg        DetectorConfig
	store      SnapshotStore
	classifier *Classifier
	publisher  AlertPublisher
	logger     *zap.Logger
	now        func() time.Time
}

func NewDetector(cfg DetectorConfig, store SnapshotStore, classifier *Classifier, publisher AlertPublisher, logger *zap.Logger) *Detector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Detector{
		cfg:        cfg,
		store:      store,
		classifier: classifier,
		publisher:  publisher,
		logger:     logger,
		now:        time.Now,
	}
}

// Run 执行一次检测。目录未更新时不读取目录内容。
func (d *Detector) Run(ctx context.Context) (*Detection, error) {
	prev, err := d.store.LoadSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	if prev == nil {
		prev = &domain.DeviceSnapshot{}
	}

	mod, err := SourceModTime(d.cfg.CatalogPath)
	if err != nil {
		return nil, err
	}
	if !prev.LastUpdate.IsZero() && !mod.After(prev.LastUpdate) {
		d.logger.Debug("device catalog unchanged", zap.Time("mod_time", mod), zap.Time("last_update", prev.LastUpdate))
		return &Detection{Snapshot: *prev}, nil
	}

	catalog, err := LoadCatalog(d.cfg.CatalogPath, d.cfg.Catalog, d.logger)
	if err != nil {
		return nil, err
	}
	if len(catalog.Devices) == 0 {
		return nil, fmt.Errorf("device catalog %s has no eligible devices", d.cfg.CatalogPath)
	}

	det := Detect(catalog, *prev, d.classifier)
	if !det.Changed {
		return det, nil
	}

	if len(det.Review) > 0 && d.cfg.ReviewDir != "" {
		path, err := d.writeReview(catalog.Header, det.Review, det.NewRows)
		if err != nil {
			// 复核清单写失败不影响快照更新
			d.logger.Error("failed to write unmapped device review", zap.Error(err))
		} else {
			det.ReviewPath = path
		}
	}

	if err := d.store.SaveSnapshot(ctx, &det.Snapshot); err != nil {
		return nil, fmt.Errorf("save snapshot: %w", err)
	}

	d.logger.Info("new device detection finished",
		zap.Int("total_devices", det.Snapshot.TotalDevices),
		zap.Int("new_devices", len(det.NewDevices)),
		zap.Int("mapped_devices", det.Snapshot.MappedDevices),
		zap.Int("unmapped_devices", det.Snapshot.UnmappedDevices),
		zap.String("review_path", det.ReviewPath),
	)

	if d.publisher != nil && len(det.NewDevices) > 0 {
		if err := d.publisher.PublishDetection(ctx, det); err != nil {
			d.logger.Warn("failed to publish detection alert", zap.Error(err))
		}
	}
	return det, nil
}

func (d *Detector) writeReview(header []string, unmapped, added []domain.CanonicalDevice) (string, error) {
	data, err := ExportReview(header, unmapped, added)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(d.cfg.ReviewDir, 0o755); err != nil {
		return "", err
	}
	name := fmt.Sprintf("unmapped_devices_%s.xlsx", d.now().Format("20060102_150405"))
	path := filepath.Join(d.cfg.ReviewDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
