package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"promo-data/internal/domain"
)

// ErrNotFound 促销不存在
var ErrNotFound = errors.New("promotion not found")

const (
	actionCreated = "Created promo."
	actionUpdated = "Updated promo."
)

// PromotionsRepository 促销记录存储接口
// 记录以 JSON 文档整体保存；版本日志只追加不修改
type PromotionsRepository interface {
	// GetPromotion 按 code 读取
	GetPromotion(ctx context.Context, code string) (*domain.PromotionRecord, error)

	// ListPromotions 全部促销，按 code 倒序（不含版本日志）
	ListPromotions(ctx context.Context) ([]*domain.PromotionRecord, error)

	// SavePromotion 新建或覆盖，并追加一条版本日志
	SavePromotion(ctx context.Context, rec *domain.PromotionRecord, userName string) error

	// DeletePromotion 删除记录
	DeletePromotion(ctx context.Context, code string) error

	// SaveGeneratedSQL 缓存最近一次生成的脚本
	SaveGeneratedSQL(ctx context.Context, code, script string) error
}

// versionEntry 形如 "07/01/2025 3:04 PM - jdoe - Created promo."
func versionEntry(at time.Time, user, action string) string {
	if user == "" {
		user = "unknown"
	}
	return fmt.Sprintf("%s - %s - %s", at.Format("01/02/2006 3:04 PM"), user, action)
}
