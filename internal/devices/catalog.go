package devices

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"promo-data/internal/domain"
)

const (
	ColModel   = "Model(External)"
	ColSKUType = "SKU Type"
	ColBrand   = "Handset Brand"

	// DefaultHeaderRow 目录文件前 7 行是说明，第 8 行是表头（1-based）
	DefaultHeaderRow = 8
)

var (
	DefaultSKUTypes = []string{"A-STOCK", "WARRANTY", "PRWARRANTY", "REFURB SKU"}
	DefaultBrands   = []string{"T-MOBILE", "SPRINT", "UNIVERSAL"}
)

// CatalogOptions 目录读取参数，零值使用默认
type CatalogOptions struct {
	HeaderRow int
	Sheet     string
	SKUTypes  []string
	Brands    []string
}

func (o CatalogOptions) withDefaults() CatalogOptions {
	if o.HeaderRow <= 0 {
		o.HeaderRow = DefaultHeaderRow
	}
	if len(o.SKUTypes) == 0 {
		o.SKUTypes = DefaultSKUTypes
	}
	if len(o.Brands) == 0 {
		o.Brands = DefaultBrands
	}
	return o
}

// LoadStats 读取统计
type LoadStats struct {
	Rows     int // data rows seen after the header
	Kept     int
	Filtered int // SKU type / brand not allowed
	Dropped  int // no model
	Skipped  int // malformed
}

// Catalog 过滤后的设备目录
type Catalog struct {
	Source  string
	ModTime time.Time
	Header  []string
	Devices []domain.CanonicalDevice
	Stats   LoadStats
}

// Models 去重后的型号，保持目录顺序
func (c *Catalog) Models() []string {
	seen := make(map[string]struct{}, len(c.Devices))
	out := make([]string, 0, len(c.Devices))
	for _, d := range c.Devices {
		if _, ok := seen[d.Model]; ok {
			continue
		}
		seen[d.Model] = struct{}{}
		out = append(out, d.Model)
	}
	return out
}

// SourceModTime 只读取文件修改时间，不解析内容
func SourceModTime(path string) (time.Time, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return time.Time{}, &LoadError{Source: path, Err: ErrSourceNotFound}
		}
		return time.Time{}, &LoadError{Source: path, Err: err}
	}
	return info.ModTime(), nil
}

// LoadCatalog 读取设备目录 xlsx
func LoadCatalog(path string, opts CatalogOptions, logger *zap.Logger) (*Catalog, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	mod, err := SourceModTime(path)
	if err != nil {
		return nil, err
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, &LoadError{Source: path, Err: err}
	}
	defer f.Close()

	c, err := readCatalog(f, opts, logger)
	if err != nil {
		return nil, &LoadError{Source: path, Err: err}
	}
	c.Source = path
	c.ModTime = mod
	logger.Info("device catalog loaded",
		zap.String("source", path),
		zap.Int("rows", c.Stats.Rows),
		zap.Int("kept", c.Stats.Kept),
		zap.Int("filtered", c.Stats.Filtered),
		zap.Int("dropped", c.Stats.Dropped),
		zap.Int("skipped", c.Stats.Skipped),
	)
	return c, nil
}

// ReadCatalog 从流读取目录（上传 / 测试）
func ReadCatalog(r io.Reader, opts CatalogOptions, logger *zap.Logger) (*Catalog, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &LoadError{Source: "catalog", Err: err}
	}
	defer f.Close()
	c, err := readCatalog(f, opts, logger)
	if err != nil {
		return nil, &LoadError{Source: "catalog", Err: err}
	}
	return c, nil
}

func readCatalog(f *excelize.File, opts CatalogOptions, logger *zap.Logger) (*Catalog, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts = opts.withDefaults()
	sheet := opts.Sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.Rows(sheet)
	if err != nil {
		return nil, fmt.Errorf("open sheet %q: %w", sheet, err)
	}
	defer rows.Close()

	skuTypes := upperSet(opts.SKUTypes)
	brands := upperSet(opts.Brands)

	c := &Catalog{}
	var idxModel, idxType, idxBrand int
	rowNum := 0
	for rows.Next() {
		rowNum++
		cols, err := rows.Columns()
		if rowNum < opts.HeaderRow {
			continue
		}
		if rowNum == opts.HeaderRow {
			if err != nil {
				return nil, fmt.Errorf("read header row %d: %w", rowNum, err)
			}
			c.Header = make([]string, len(cols))
			idx := map[string]int{}
			for i, h := range cols {
				h = strings.TrimSpace(h)
				c.Header[i] = h
				if _, dup := idx[h]; !dup {
					idx[h] = i
				}
			}
			var ok bool
			for _, need := range []struct {
				name string
				dst  *int
			}{{ColModel, &idxModel}, {ColSKUType, &idxType}, {ColBrand, &idxBrand}} {
				if *need.dst, ok = idx[need.name]; !ok {
					return nil, fmt.Errorf("%w: %q in header row %d", ErrMissingColumn, need.name, rowNum)
				}
			}
			continue
		}

		if err != nil {
			c.Stats.Skipped++
			logger.Debug("catalog row skipped", zap.Error(&RowSkipError{Row: rowNum, Reason: err.Error()}))
			continue
		}
		if isBlankRow(cols) {
			continue
		}
		c.Stats.Rows++
		model := cellAt(cols, idxModel)
		if model == "" {
			c.Stats.Dropped++
			continue
		}
		skuType := cellAt(cols, idxType)
		brand := cellAt(cols, idxBrand)
		if _, ok := skuTypes[strings.ToUpper(skuType)]; !ok {
			c.Stats.Filtered++
			continue
		}
		if _, ok := brands[strings.ToUpper(brand)]; !ok {
			c.Stats.Filtered++
			continue
		}
		raw := make(map[string]string, len(c.Header))
		for i, h := range c.Header {
			if h == "" {
				continue
			}
			raw[h] = cellAt(cols, i)
		}
		c.Devices = append(c.Devices, domain.CanonicalDevice{Model: model, SKUType: skuType, Brand: brand, Row: raw})
		c.Stats.Kept++
	}
	if err := rows.Error(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	if c.Header == nil {
		return nil, fmt.Errorf("%w: header row %d not found", ErrMissingColumn, opts.HeaderRow)
	}
	return c, nil
}

func cellAt(cols []string, i int) string {
	if i < len(cols) {
		return strings.TrimSpace(cols[i])
	}
	return ""
}

func isBlankRow(cols []string) bool {
	for _, c := range cols {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func upperSet(vs []string) map[string]struct{} {
	m := make(map[string]struct{}, len(vs))
	for _, v := range vs {
		m[strings.ToUpper(strings.TrimSpace(v))] = struct{}{}
	}
	return m
}
