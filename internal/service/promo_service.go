package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"promo-data/internal/domain"
	"promo-data/internal/metrics"
	"promo-data/internal/repository"
	"promo-data/internal/sqlgen"
)

// MaxUploadBytes 单个上传文件上限
const MaxUploadBytes = 20 << 20

// ErrInvalidCode 促销 code 为空或含非法字符
var ErrInvalidCode = errors.New("invalid promotion code")

// PromoService 促销表单的读写与 SQL 生成
type PromoService struct {
	repo      repository.PromotionsRepository
	uploads   repository.UploadStore
	assembler *sqlgen.Assembler
	tickets   TicketLookup // 可为 nil
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

func NewPromoService(repo repository.PromotionsRepository, uploads repository.UploadStore, assembler *sqlgen.Assembler,
	tickets TicketLookup, m *metrics.Metrics, logger *zap.Logger) *PromoService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PromoService{
		repo:      repo,
		uploads:   uploads,
		assembler: assembler,
		tickets:   tickets,
		metrics:   m,
		logger:    logger,
	}
}

func normalizeCode(code string) (string, error) {
	code = strings.TrimSpace(code)
	if code == "" || strings.ContainsAny(code, "/\\'\"\n\r\t") {
		return "", ErrInvalidCode
	}
	return code, nil
}

// GetOrCreate 已存在则返回记录；否则返回带默认值的新记录（未保存）
func (s *PromoService) GetOrCreate(ctx context.Context, code string) (*domain.PromotionRecord, bool, error) {
	code, err := normalizeCode(code)
	if err != nil {
		return nil, false, err
	}
	rec, err := s.repo.GetPromotion(ctx, code)
	if err == nil {
		return rec, false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, false, err
	}
	return domain.NewPromotionRecord(code), true, nil
}

// Get 只读取，不存在返回 repository.ErrNotFound
func (s *PromoService) Get(ctx context.Context, code string) (*domain.PromotionRecord, error) {
	code, err := normalizeCode(code)
	if err != nil {
		return nil, err
	}
	return s.repo.GetPromotion(ctx, code)
}

// Save 保存表单；版本日志由存储层追加
func (s *PromoService) Save(ctx context.Context, rec *domain.PromotionRecord, userName string) error {
	if rec == nil {
		return fmt.Errorf("%w: empty record", ErrInvalidCode)
	}
	code, err := normalizeCode(rec.Code)
	if err != nil {
		return err
	}
	rec.Code = code
	if err := s.repo.SavePromotion(ctx, rec, strings.TrimSpace(userName)); err != nil {
		return fmt.Errorf("save promotion %s: %w", code, err)
	}
	s.logger.Info("promotion saved", zap.String("promo_code", code), zap.String("user", userName))
	return nil
}

func (s *PromoService) List(ctx context.Context) ([]*domain.PromotionRecord, error) {
	return s.repo.ListPromotions(ctx)
}

func (s *PromoService) Delete(ctx context.Context, code string) error {
	code, err := normalizeCode(code)
	if err != nil {
		return err
	}
	if err := s.repo.DeletePromotion(ctx, code); err != nil {
		return err
	}
	s.logger.Info("promotion deleted", zap.String("promo_code", code))
	return nil
}

// UploadSummary 上传文件解析结果
type UploadSummary struct {
	Kind    string `json:"kind"`
	Rows    int    `json:"rows"`
	Skipped int    `json:"skipped"`
}

// StoreUpload 先解析校验，通过后才落盘
func (s *PromoService) StoreUpload(ctx context.Context, code, kind string, r io.Reader) (*UploadSummary, error) {
	code, err := normalizeCode(code)
	if err != nil {
		return nil, err
	}
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(data) > MaxUploadBytes {
		return nil, fmt.Errorf("upload exceeds %d bytes", MaxUploadBytes)
	}

	sum := &UploadSummary{Kind: kind}
	switch kind {
	case repository.UploadSKU:
		up, err := sqlgen.ReadSKUUpload(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		sum.Rows, sum.Skipped = len(up.Rows), up.Skipped
	case repository.UploadTradeIn:
		devs, skipped, err := sqlgen.ReadTradeInUpload(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		sum.Rows, sum.Skipped = len(devs), skipped
	default:
		return nil, fmt.Errorf("unknown upload kind %q", kind)
	}

	if err := s.uploads.Save(code, kind, bytes.NewReader(data)); err != nil {
		return nil, err
	}
	s.logger.Info("upload stored",
		zap.String("promo_code", code),
		zap.String("kind", kind),
		zap.Int("rows", sum.Rows),
		zap.Int("skipped", sum.Skipped),
	)
	return sum, nil
}

// GenerateSQL 读取记录和上传文件，生成脚本；成功时缓存到记录上。
// 输入问题（校验失败、上传文件无法解析）体现在 Result 中，error 只用于存储故障。
func (s *PromoService) GenerateSQL(ctx context.Context, code string) (sqlgen.Result, error) {
	rec, err := s.Get(ctx, code)
	if err != nil {
		return sqlgen.Result{}, err
	}

	in, err := s.inputs(ctx, rec)
	if err != nil {
		s.count(metrics.OutcomeError)
		s.logger.Warn("SQL generation aborted", zap.String("promo_code", rec.Code), zap.Error(err))
		return sqlgen.Failure(err), nil
	}

	res := s.assembler.Assemble(rec, in)
	if !res.OK() {
		s.count(metrics.OutcomeError)
		return res, nil
	}
	s.count(metrics.OutcomeOK)
	if err := s.repo.SaveGeneratedSQL(ctx, rec.Code, res.Script); err != nil {
		return res, fmt.Errorf("cache generated sql: %w", err)
	}
	return res, nil
}

func (s *PromoService) inputs(ctx context.Context, rec *domain.PromotionRecord) (sqlgen.Inputs, error) {
	var in sqlgen.Inputs

	if rc, err := s.uploads.Open(rec.Code, repository.UploadSKU); err == nil {
		up, err := sqlgen.ReadSKUUpload(rc)
		rc.Close()
		if err != nil {
			return in, fmt.Errorf("SKU upload: %w", err)
		}
		in.SKUUpload = up
	} else if !errors.Is(err, repository.ErrUploadNotFound) {
		return in, err
	}

	if rc, err := s.uploads.Open(rec.Code, repository.UploadTradeIn); err == nil {
		devs, _, err := sqlgen.ReadTradeInUpload(rc)
		rc.Close()
		if err != nil {
			return in, fmt.Errorf("trade-in upload: %w", err)
		}
		in.TradeInDevices = devs
	} else if !errors.Is(err, repository.ErrUploadNotFound) {
		return in, err
	}

	// 工单系统查不到时回退到表单里的 requester
	if s.tickets != nil && !rec.TicketID.IsEmpty() {
		name, err := s.tickets.Reporter(ctx, rec.TicketID.Trim())
		if err != nil {
			s.logger.Debug("ticket reporter lookup failed", zap.String("ticket", rec.TicketID.Trim()), zap.Error(err))
		} else {
			in.RequesterName = name
		}
	}
	return in, nil
}

func (s *PromoService) count(outcome string) {
	if s.metrics != nil {
		s.metrics.SQLGenerations.WithLabelValues(outcome).Inc()
	}
}
