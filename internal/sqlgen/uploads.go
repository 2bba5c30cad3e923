package sqlgen

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"promo-data/internal/domain"
)

const tradeInDeviceTable = "PROMO_TRADEIN_MK_MDL"

var tradeInDeviceColumns = append([]string{"MK_MDL_GRP_ID", "MAKE", "MODEL"}, auditColumns...)

// SKURow 上传表中的一个 SKU
type SKURow struct {
	SKU         string
	Description string
	Row         int // 1-based sheet row
}

// SKUUpload 解析后的 SKU 上传
type SKUUpload struct {
	Rows    []SKURow
	Skipped int
}

var skuHeaderWords = []string{"sku", "material", "item", "article"}

// maxSKUPreambleRows 数据前最多跳过的标题 / 表头行
const maxSKUPreambleRows = 5

// ReadSKUUpload 读取第一个 sheet 的前两列（SKU, 描述）。
// 数据前的行（标题、空行、表头）若任一列为空，或第一列包含表头关键字，则跳过；
// 两列都有值的关键字表头行之后即为数据。
func ReadSKUUpload(r io.Reader) (*SKUUpload, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open sku upload: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("read sku upload: %w", err)
	}
	up := &SKUUpload{}
	preamble := true
	for i, row := range rows {
		sku, desc := cell(row, 0), cell(row, 1)
		if preamble {
			if i < maxSKUPreambleRows && looksLikeSKUHeader(sku, desc) {
				if sku != "" && desc != "" {
					preamble = false
				}
				continue
			}
			preamble = false
		}
		if sku == "" {
			if desc != "" {
				up.Skipped++
			}
			continue
		}
		up.Rows = append(up.Rows, SKURow{SKU: sku, Description: desc, Row: i + 1})
	}
	return up, nil
}

func looksLikeSKUHeader(c0, c1 string) bool {
	if c0 == "" || c1 == "" {
		return true
	}
	l := strings.ToLower(c0)
	for _, w := range skuHeaderWords {
		if strings.Contains(l, w) {
			return true
		}
	}
	return false
}

func cell(row []string, i int) string {
	if i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}

// TradeInDevice trade-in 上传中的一台设备
type TradeInDevice struct {
	GroupID string
	Make    string
	Model   string
	Row     int
}

// ReadTradeInUpload 找到同时含 Make / Model 的表头行，逐行读取设备；MK_MDL_GRP_ID 列可选
func ReadTradeInUpload(r io.Reader) ([]TradeInDevice, int, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, 0, fmt.Errorf("open trade-in upload: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, 0, fmt.Errorf("read trade-in upload: %w", err)
	}

	headerRow := -1
	idx := map[string]int{}
	for i, row := range rows {
		m := map[string]int{}
		for j, h := range row {
			m[strings.ToUpper(strings.TrimSpace(h))] = j
		}
		_, hasMake := m["MAKE"]
		_, hasModel := m["MODEL"]
		if hasMake && hasModel {
			headerRow, idx = i, m
			break
		}
	}
	if headerRow < 0 {
		return nil, 0, &ValidationError{Field: "trade-in upload", Reason: "no header row with Make and Model columns"}
	}
	groupCol, hasGroup := idx["MK_MDL_GRP_ID"]

	var out []TradeInDevice
	skipped := 0
	for i := headerRow + 1; i < len(rows); i++ {
		row := rows[i]
		d := TradeInDevice{Make: cell(row, idx["MAKE"]), Model: cell(row, idx["MODEL"]), Row: i + 1}
		if hasGroup {
			d.GroupID = cell(row, groupCol)
		}
		if d.Make == "" && d.Model == "" {
			continue
		}
		if d.Make == "" || d.Model == "" {
			skipped++
			continue
		}
		out = append(out, d)
	}
	return out, skipped, nil
}

// TradeInDeviceInserts 为 trade-in 设备生成 make/model 组 INSERT。
// 行内未指定组时使用第一个填写了 make/model 组的 tier。
func (b *Builder) TradeInDeviceInserts(rec *domain.PromotionRecord, devs []TradeInDevice) ([]string, error) {
	if rec.TradeInGroupID.IsEmpty() || len(devs) == 0 {
		return nil, nil
	}
	audit, err := b.audit(rec)
	if err != nil {
		return nil, err
	}
	def := ""
	for _, t := range rec.TradeInTiers {
		if !t.MakeModelGroupID.IsEmpty() {
			def = t.MakeModelGroupID.Trim()
			break
		}
	}
	var out []string
	for _, d := range devs {
		group := d.GroupID
		if group == "" {
			group = def
		}
		if group == "" {
			return nil, invalid("trade-in upload", "row %d has no make/model group and no tier defines one", d.Row)
		}
		vals := []string{FormatValue(group), FormatValue(d.Make), FormatValue(d.Model)}
		vals = append(vals, audit...)
		out = append(out, insertStatement(tradeInDeviceTable, tradeInDeviceColumns, vals))
	}
	return out, nil
}
