package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"promo-data/internal/devices"
	"promo-data/internal/metrics"
)

// ErrDetectionRunning 已有一次检测在运行
var ErrDetectionRunning = errors.New("device detection already running")

// MappingRebuilder 检测到可映射新设备后重建别名表
type MappingRebuilder interface {
	RebuildMapping(ctx context.Context) (*MappingStats, error)
}

// DetectionService 新设备检测。
// 快照是读-改-写，这里保证同一进程内同一时刻只有一次检测。
type DetectionService struct {
	detector  *devices.Detector
	rebuilder MappingRebuilder
	metrics   *metrics.Metrics
	logger   *zap.Logger

	mu      sync.Mutex
	running bool
	last    *devices.Detection
	lastErr error
	lastRun time.Time
}

func NewDetectionService(detector *devices.Detector, m *metrics.Metrics, logger *zap.Logger) *DetectionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DetectionService{detector: detector, metrics: m, logger: logger}
}

// WithMappingRebuild 有可映射新设备时自动重建别名表；nil 关闭
func (s *DetectionService) WithMappingRebuild(r MappingRebuilder) *DetectionService {
	s.rebuilder = r
	return s
}

// RunOnce 执行一次检测；已有检测在运行时返回 ErrDetectionRunning
func (s *DetectionService) RunOnce(ctx context.Context) (*devices.Detection, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil, ErrDetectionRunning
	}
	s.running = true
	s.mu.Unlock()

	det, err := s.detector.Run(ctx)
	if err == nil {
		s.rebuildMapping(ctx, det)
	}

	s.mu.Lock()
	s.running = false
	s.lastRun = time.Now()
	s.lastErr = err
	if err == nil {
		s.last = det
	}
	s.mu.Unlock()

	s.record(det, err)
	return det, err
}

// 重建失败不影响检测结果，快照已保存
func (s *DetectionService) rebuildMapping(ctx context.Context, det *devices.Detection) {
	if s.rebuilder == nil || det == nil || len(det.Mappable) == 0 {
		return
	}
	stats, err := s.rebuilder.RebuildMapping(ctx)
	if err != nil {
		s.logger.Warn("Alias mapping rebuild after detection failed",
			zap.Int("mappable", len(det.Mappable)), zap.Error(err))
		return
	}
	s.logger.Info("Alias mapping rebuilt after detection",
		zap.Int("mappable", len(det.Mappable)),
		zap.Int("entries", stats.Entries),
		zap.Int("base_models", stats.BaseModels))
}

func (s *DetectionService) record(det *devices.Detection, err error) {
	if s.metrics == nil {
		return
	}
	switch {
	case err != nil:
		s.metrics.DetectionRuns.WithLabelValues(metrics.OutcomeError).Inc()
	case !det.Changed:
		s.metrics.DetectionRuns.WithLabelValues(metrics.OutcomeSkip).Inc()
	default:
		s.metrics.DetectionRuns.WithLabelValues(metrics.OutcomeOK).Inc()
		s.metrics.UnmappedDevices.Set(float64(det.Snapshot.UnmappedDevices))
	}
}

// DetectionStatus 最近一次检测
type DetectionStatus struct {
	Running bool               `json:"running"`
	LastRun time.Time          `json:"last_run"`
	Error   string             `json:"error,omitempty"`
	Last    *devices.Detection `json:"last,omitempty"`
}

func (s *DetectionService) Status() DetectionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := DetectionStatus{Running: s.running, LastRun: s.lastRun, Last: s.last}
	if s.lastErr != nil {
		st.Error = s.lastErr.Error()
	}
	return st
}

// Start 定时检测，阻塞到 ctx 结束。启动时先执行一次。
func (s *DetectionService) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("Starting device detection loop", zap.Duration("interval", interval))
	s.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *DetectionService) tick(ctx context.Context) {
	if _, err := s.RunOnce(ctx); err != nil {
		if errors.Is(err, ErrDetectionRunning) {
			s.logger.Debug("skip scheduled detection, previous run still active")
			return
		}
		s.logger.Error("Scheduled device detection failed", zap.Error(err))
	}
}
