package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"promo-data/internal/domain"
)

// MemoryPromotionsRepo DB 未启用时使用（本地开发 / 测试）
type MemoryPromotionsRepo struct {
	mu    sync.RWMutex
	items map[string]*domain.PromotionRecord
	now   func() time.Time
}

func NewMemoryPromotionsRepo() *MemoryPromotionsRepo {
	return &MemoryPromotionsRepo{
		items: map[string]*domain.PromotionRecord{},
		now:   time.Now,
	}
}

var _ PromotionsRepository = (*MemoryPromotionsRepo)(nil)

func (r *MemoryPromotionsRepo) GetPromotion(_ context.Context, code string) (*domain.PromotionRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.items[strings.TrimSpace(code)]
	if !ok {
		return nil, ErrNotFound
	}
	return rec.Clone(), nil
}

func (r *MemoryPromotionsRepo) ListPromotions(_ context.Context) ([]*domain.PromotionRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.PromotionRecord, 0, len(r.items))
	for _, rec := range r.items {
		c := rec.Clone()
		c.VersionHistory = nil
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code > out[j].Code })
	return out, nil
}

func (r *MemoryPromotionsRepo) SavePromotion(_ context.Context, rec *domain.PromotionRecord, userName string) error {
	code := strings.TrimSpace(rec.Code)
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	stored := rec.Clone()
	stored.Code = code
	if prev, ok := r.items[code]; ok {
		stored.CreatedAt = prev.CreatedAt
		stored.VersionHistory = append(append([]string{}, prev.VersionHistory...), versionEntry(now, userName, actionUpdated))
		if stored.GeneratedSQL == "" {
			stored.GeneratedSQL = prev.GeneratedSQL
		}
	} else {
		stored.CreatedAt = now
		stored.VersionHistory = []string{versionEntry(now, userName, actionCreated)}
	}
	stored.UpdatedAt = now
	r.items[code] = stored

	rec.CreatedAt = stored.CreatedAt
	rec.UpdatedAt = stored.UpdatedAt
	rec.VersionHistory = append([]string{}, stored.VersionHistory...)
	return nil
}

func (r *MemoryPromotionsRepo) DeletePromotion(_ context.Context, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	code = strings.TrimSpace(code)
	if _, ok := r.items[code]; !ok {
		return ErrNotFound
	}
	delete(r.items, code)
	return nil
}

func (r *MemoryPromotionsRepo) SaveGeneratedSQL(_ context.Context, code, script string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.items[strings.TrimSpace(code)]
	if !ok {
		return ErrNotFound
	}
	rec.GeneratedSQL = script
	rec.UpdatedAt = r.now()
	return nil
}
