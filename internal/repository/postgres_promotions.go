package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"promo-data/internal/domain"
)

// PromotionsSchema 建表语句（启动时执行，可重复执行）
const PromotionsSchema = `
CREATE TABLE IF NOT EXISTS promotions (
	code          TEXT PRIMARY KEY,
	record        JSONB NOT NULL,
	generated_sql TEXT,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS promotion_versions (
	id         BIGSERIAL PRIMARY KEY,
	code       TEXT NOT NULL,
	entry      TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_promotion_versions_code ON promotion_versions (code, id);
`

// PostgresPromotionsRepo 促销存储（JSONB 文档 + 追加式版本表）
type PostgresPromotionsRepo struct {
	db  *sql.DB
	now func() time.Time
}

func NewPostgresPromotionsRepo(db *sql.DB) *PostgresPromotionsRepo {
	return &PostgresPromotionsRepo{db: db, now: time.Now}
}

// 确保实现了接口
var _ PromotionsRepository = (*PostgresPromotionsRepo)(nil)

// EnsureSchema 创建表（如不存在）
func (r *PostgresPromotionsRepo) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, PromotionsSchema); err != nil {
		return fmt.Errorf("failed to create promotions schema: %w", err)
	}
	return nil
}

// document 存入 record 列的内容：不含版本日志、脚本缓存、时间戳（各有独立列）
func document(rec *domain.PromotionRecord) ([]byte, error) {
	c := rec.Clone()
	c.VersionHistory = nil
	c.GeneratedSQL = ""
	c.CreatedAt = time.Time{}
	c.UpdatedAt = time.Time{}
	return json.Marshal(c)
}

func (r *PostgresPromotionsRepo) GetPromotion(ctx context.Context, code string) (*domain.PromotionRecord, error) {
	code = strings.TrimSpace(code)
	query := `
		SELECT record, generated_sql, created_at, updated_at
		FROM promotions
		WHERE code = $1
	`
	var (
		doc       []byte
		generated sql.NullString
		rec       domain.PromotionRecord
	)
	err := r.db.QueryRowContext(ctx, query, code).Scan(&doc, &generated, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get promotion: %w", err)
	}
	createdAt, updatedAt := rec.CreatedAt, rec.UpdatedAt
	if err := json.Unmarshal(doc, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode promotion %s: %w", code, err)
	}
	rec.Code = code
	rec.CreatedAt, rec.UpdatedAt = createdAt, updatedAt
	rec.GeneratedSQL = generated.String

	history, err := r.history(ctx, code)
	if err != nil {
		return nil, err
	}
	rec.VersionHistory = history
	return &rec, nil
}

func (r *PostgresPromotionsRepo) history(ctx context.Context, code string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT entry FROM promotion_versions WHERE code = $1 ORDER BY id`, code)
	if err != nil {
		return nil, fmt.Errorf("failed to list promotion versions: %w", err)
	}
	defer rows.Close()
	out := []string{}
	for rows.Next() {
		var e string
		if err := rows.Scan(&e); err != nil {
			return nil, fmt.Errorf("failed to scan promotion version: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *PostgresPromotionsRepo) ListPromotions(ctx context.Context) ([]*domain.PromotionRecord, error) {
	query := `
		SELECT code, record, generated_sql, created_at, updated_at
		FROM promotions
		ORDER BY code DESC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list promotions: %w", err)
	}
	defer rows.Close()

	var out []*domain.PromotionRecord
	for rows.Next() {
		var (
			code      string
			doc       []byte
			generated sql.NullString
			createdAt time.Time
			updatedAt time.Time
		)
		if err := rows.Scan(&code, &doc, &generated, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan promotion: %w", err)
		}
		rec := &domain.PromotionRecord{}
		if err := json.Unmarshal(doc, rec); err != nil {
			return nil, fmt.Errorf("failed to decode promotion %s: %w", code, err)
		}
		rec.Code = code
		rec.GeneratedSQL = generated.String
		rec.CreatedAt, rec.UpdatedAt = createdAt, updatedAt
		out = append(out, rec)
	}
	return out, rows.Err()
}

// SavePromotion upsert + 版本日志，同一事务
func (r *PostgresPromotionsRepo) SavePromotion(ctx context.Context, rec *domain.PromotionRecord, userName string) error {
	code := strings.TrimSpace(rec.Code)
	doc, err := document(rec)
	if err != nil {
		return fmt.Errorf("failed to encode promotion: %w", err)
	}
	now := r.now()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var (
		inserted  bool
		createdAt time.Time
	)
	err = tx.QueryRowContext(ctx, `
		INSERT INTO promotions (code, record, created_at, updated_at)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (code)
		DO UPDATE SET record = EXCLUDED.record, updated_at = EXCLUDED.updated_at
		RETURNING (xmax = 0) AS inserted, created_at
	`, code, doc, now).Scan(&inserted, &createdAt)
	if err != nil {
		return fmt.Errorf("failed to save promotion: %w", err)
	}

	action := actionUpdated
	if inserted {
		action = actionCreated
	}
	entry := versionEntry(now, userName, action)
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO promotion_versions (code, entry, created_at) VALUES ($1, $2, $3)`,
		code, entry, now,
	); err != nil {
		return fmt.Errorf("failed to append promotion version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit promotion: %w", err)
	}

	rec.CreatedAt = createdAt
	rec.UpdatedAt = now
	rec.VersionHistory = append(rec.VersionHistory, entry)
	return nil
}

func (r *PostgresPromotionsRepo) DeletePromotion(ctx context.Context, code string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM promotions WHERE code = $1`, strings.TrimSpace(code))
	if err != nil {
		return fmt.Errorf("failed to delete promotion: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete promotion: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresPromotionsRepo) SaveGeneratedSQL(ctx context.Context, code, script string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE promotions SET generated_sql = $2, updated_at = $3 WHERE code = $1`,
		strings.TrimSpace(code), script, r.now(),
	)
	if err != nil {
		return fmt.Errorf("failed to save generated sql: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
