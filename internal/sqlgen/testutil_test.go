package sqlgen

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"promo-data/internal/domain"
)

// sampleRecord 一个字段基本齐全的促销，用于生成测试
func sampleRecord() *domain.PromotionRecord {
	rec := domain.NewPromotionRecord("P0472022")
	rec.OperatorID = "16086"
	rec.BillFacingName = "2022 Samsung Trade P30"
	rec.OrbitID = "15233"
	rec.Owner = "Daniel Zhang"
	rec.PromoStartDate = "2025-07-01"
	rec.PromoEndDate = "2025-08-01"
	rec.PromoDuration = "24"
	rec.Amount = "730"
	rec.SKUGroupID = "SKU_P0472022"
	rec.TradeInGroupID = "TI_P0472022"
	rec.FinanceType = "EIP"
	rec.C2Reference = "https://c2.example.com/P0472022"
	return rec
}

// insertValues 拆出 VALUES (...) 中的各个值，忽略引号和括号内的逗号
func insertValues(t *testing.T, stmt string) []string {
	t.Helper()
	i := strings.Index(stmt, "VALUES (")
	require.GreaterOrEqual(t, i, 0, stmt)
	body := strings.TrimSuffix(stmt[i+len("VALUES ("):], ");")

	var (
		out   []string
		cur   strings.Builder
		quote bool
		depth int
	)
	for _, r := range body {
		switch {
		case r == '\'':
			quote = !quote
		case quote:
		case r == '(':
			depth++
		case r == ')':
			depth--
		case r == ',' && depth == 0:
			out = append(out, cur.String())
			cur.Reset()
			continue
		}
		cur.WriteRune(r)
	}
	return append(out, cur.String())
}

func valueOf(t *testing.T, stmt, column string) string {
	t.Helper()
	vals := insertValues(t, stmt)
	require.Len(t, vals, len(EligibilityColumns))
	for i, c := range EligibilityColumns {
		if c == column {
			return vals[i]
		}
	}
	t.Fatalf("unknown column %s", column)
	return ""
}

func xlsxReader(t *testing.T, rows [][]any) *bytes.Reader {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		r := row
		require.NoError(t, f.SetSheetRow("Sheet1", fmt.Sprintf("A%d", i+1), &r))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return bytes.NewReader(buf.Bytes())
}
