package devices

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"go.uber.org/zap"

	"promo-data/internal/domain"
)

// NormalizeAlias 别名匹配只做去空白 + 小写
func NormalizeAlias(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// AliasIndex 规范化别名 -> 目录型号列表（首次出现顺序，去重）
type AliasIndex struct {
	byAlias map[string][]string
	entries int
}

func NewAliasIndex(entries []domain.AliasEntry) *AliasIndex {
	ix := &AliasIndex{byAlias: make(map[string][]string)}
	for _, e := range entries {
		ix.add(e.Alias, e.Model)
	}
	return ix
}

func (ix *AliasIndex) add(alias, model string) bool {
	key := NormalizeAlias(alias)
	model = strings.TrimSpace(model)
	if key == "" || model == "" {
		return false
	}
	for _, m := range ix.byAlias[key] {
		if m == model {
			return true
		}
	}
	ix.byAlias[key] = append(ix.byAlias[key], model)
	ix.entries++
	return true
}

// Lookup 返回别名对应的型号；别名不存在时 ok=false
func (ix *AliasIndex) Lookup(alias string) ([]string, bool) {
	models, ok := ix.byAlias[NormalizeAlias(alias)]
	if !ok {
		return nil, false
	}
	return append([]string(nil), models...), true
}

// Len 别名数
func (ix *AliasIndex) Len() int { return len(ix.byAlias) }

// Entries 别名-型号对数
func (ix *AliasIndex) Entries() int { return ix.entries }

// LoadAliasIndex 读取别名 CSV（表头 marketing_alias, manufacturer_name）
func LoadAliasIndex(path string, logger *zap.Logger) (*AliasIndex, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &LoadError{Source: path, Err: ErrSourceNotFound}
		}
		return nil, &LoadError{Source: path, Err: err}
	}
	defer f.Close()

	ix, skipped, err := ReadAliasIndex(f)
	if err != nil {
		return nil, &LoadError{Source: path, Err: err}
	}
	logger.Info("alias index loaded",
		zap.String("source", path),
		zap.Int("aliases", ix.Len()),
		zap.Int("entries", ix.Entries()),
		zap.Int("skipped", skipped),
	)
	return ix, nil
}

// ReadAliasIndex 从流读取别名表，返回跳过的行数
func ReadAliasIndex(r io.Reader) (*AliasIndex, int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, 0, fmt.Errorf("%w: empty alias file", ErrMissingColumn)
		}
		return nil, 0, fmt.Errorf("read alias header: %w", err)
	}
	ai, mi := -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))) {
		case aliasHeader:
			ai = i
		case modelHeader:
			mi = i
		}
	}
	if ai < 0 || mi < 0 {
		return nil, 0, fmt.Errorf("%w: want %s,%s", ErrMissingColumn, aliasHeader, modelHeader)
	}

	ix := &AliasIndex{byAlias: make(map[string][]string)}
	skipped := 0
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			skipped++
			continue
		}
		if ai >= len(rec) || mi >= len(rec) || !ix.add(rec[ai], rec[mi]) {
			skipped++
		}
	}
	return ix, skipped, nil
}
