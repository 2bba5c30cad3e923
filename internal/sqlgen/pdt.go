package sqlgen

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// PDT 导出的一行：48 个 tab 分隔的列，日期格式 M/D/YYYY H:MM。
// 只用于 pdt-to-sql 命令，与表单记录的生成路径相互独立。

const pdtColumnCount = 48

type pdtDateKind int

const (
	pdtPlain pdtDateKind = iota
	pdtStart
	pdtEnd
)

type pdtField struct {
	column string
	index  int
	date   bool
	kind   pdtDateKind
}

// pdtLayout PDT 列下标 -> 资格规则列
var pdtLayout = []pdtField{
	{column: "PROMO_CODE", index: 0},
	{column: "PROMO_START_DATE", index: 1, date: true, kind: pdtStart},
	{column: "PROMO_END_DATE", index: 2, date: true, kind: pdtEnd},
	{column: "PROMO_DESCRIPTION", index: 4},
	{column: "PROMO_DURATION", index: 5},
	{column: "PROMO_AMOUNT", index: 6},
	{column: "EFFECTIVE_DATE", index: 7, date: true, kind: pdtStart},
	{column: "EXPIRATION_DATE", index: 8, date: true, kind: pdtEnd},
	{column: "SKU_GROUP_ID", index: 9},
	{column: "PRIM_SKU_GROUP_ID", index: 10},
	{column: "SOC_GROUP_ID", index: 11},
	{column: "ATST_GROUP_ID", index: 12},
	{column: "APPL_GROUP_ID", index: 13},
	{column: "DEVICE_ST_GROUP_ID", index: 14},
	{column: "FINANCE_TYPE", index: 15},
	{column: "ACT_LINE_REQ_IND", index: 16},
	{column: "APP_GRACE_GROUP_ID", index: 17},
	{column: "TRADE_IN_GRP_ID", index: 18},
	{column: "TRADE_IN_GRACE_PERIOD", index: 19},
	{column: "MAINT_ACT_LINE_CHK_IND", index: 20},
	{column: "MAINT_SOC_CHK_IND", index: 21},
	{column: "STORE_GRP_ID", index: 22},
	{column: "MARKET_GRP_ID", index: 23},
	{column: "LIMIT_PER_BAN", index: 24},
	{column: "TENURE_GROUP_ID", index: 25},
	{column: "PORTIN_GROUP_ID", index: 26},
	{column: "PROMO_PERC_DISC", index: 27},
	{column: "C2_LINK", index: 28},
	{column: "MIN_GSM_COUNT", index: 30},
	{column: "MAX_GSM_COUNT", index: 31},
	{column: "DISPLAY_PROMO", index: 32},
	{column: "TIERED_GRP_ID", index: 33},
	{column: "SEGMENT_GRP_ID", index: 34},
	{column: "BOLTON_TRADE_IN_GRP_ID", index: 35},
	{column: "PRODUCT_TYPE", index: 36},
	{column: "DVC_STS_GRP_ID", index: 37},
	{column: "CLAWBACK_IND", index: 38},
	{column: "FLOW_INDICATOR", index: 39},
	{column: "MPSS_LOOKBACK", index: 40},
	{column: "PR_DATE", index: 41, date: true},
	{column: "DISPLAY_PROMO_START_DATE", index: 41, date: true},
	{column: "DISPLAY_PROMO_END_DATE", index: 42, date: true},
	{column: "PROMO_GRACE_PERIOD", index: 43},
	{column: "LINE_ST_GROUP_ID", index: 44},
	{column: "DOCUMENT_ID", index: 45},
	{column: "NSEIP_DROP_IND", index: 46},
	{column: "DELAY_TIME", index: 47},
}

var numericColumns = map[string]bool{
	"OPERATOR_ID": true, "PROMO_DURATION": true, "PROMO_AMOUNT": true, "TRADE_IN_GRACE_PERIOD": true,
	"LIMIT_PER_BAN": true, "PROMO_PERC_DISC": true, "MIN_GSM_COUNT": true, "MAX_GSM_COUNT": true,
	"PROMO_GRACE_PERIOD": true, "DELAY_TIME": true, "MPSS_LOOKBACK": true,
}

// PDTRecord 已格式化为 SQL 字面量的列值
type PDTRecord struct {
	Values map[string]string
}

// Code returns the promotion code literal without quotes.
func (p *PDTRecord) Code() string {
	return strings.Trim(p.Values["PROMO_CODE"], "'")
}

// ParsePDTLine 解析一行 PDT 导出。列数不足的部分按 NULL 处理。
func ParsePDTLine(line string) (*PDTRecord, error) {
	line = strings.TrimRight(line, "\r\n")
	if strings.TrimSpace(line) == "" {
		return nil, invalid("pdt line", "empty")
	}
	cols := strings.Split(line, "\t")
	if len(cols) > pdtColumnCount {
		return nil, invalid("pdt line", "%d columns, want at most %d", len(cols), pdtColumnCount)
	}
	get := func(i int) string {
		if i >= len(cols) {
			return ""
		}
		v := strings.TrimSpace(cols[i])
		if strings.EqualFold(v, NullToken) {
			return ""
		}
		return v
	}

	p := &PDTRecord{Values: make(map[string]string, len(EligibilityColumns))}
	for _, f := range pdtLayout {
		v := get(f.index)
		switch {
		case f.date:
			p.Values[f.column] = pdtDate(v, f.kind)
		case numericColumns[f.column] && isNumeric(v):
			p.Values[f.column] = v
		default:
			p.Values[f.column] = FormatValue(v)
		}
	}
	if p.Values["PROMO_CODE"] == NullToken {
		return nil, invalid("pdt line", "missing promo code")
	}
	p.Values["OPERATOR_ID"] = pdtOperator(get(3))
	return p, nil
}

// pdtOperator 第 4 列形如 "NULL    16086"，取最后一个纯数字片段
func pdtOperator(s string) string {
	fields := strings.Fields(s)
	for i := len(fields) - 1; i >= 0; i-- {
		if isDigits(fields[i]) {
			return fields[i]
		}
	}
	return NullToken
}

func pdtDate(s string, kind pdtDateKind) string {
	if s == "" {
		return NullToken
	}
	t, err := time.Parse("1/2/2006 15:04", s)
	if err != nil {
		return NullToken
	}
	if t.Hour() == 0 && t.Minute() == 0 {
		switch kind {
		case pdtStart:
			t = t.Add(20 * time.Hour)
		case pdtEnd:
			t = t.Add(5 * time.Hour)
		}
	}
	return fmt.Sprintf("to_date('%s','MM/DD/YYYY HH24:MI:SS')", t.Format("01/02/2006 15:04:05"))
}

func isNumeric(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

// EligibilityFromPDT 用 PDT 列值生成资格规则 INSERT，列顺序与表单路径相同
func (b *Builder) EligibilityFromPDT(p *PDTRecord) string {
	vals := make([]string, len(EligibilityColumns))
	for i, col := range EligibilityColumns {
		switch col {
		case "RULE_ID":
			vals[i] = b.opts.RuleSequence
		case "SYS_CREATION_DATE":
			vals[i] = SysdateToken
		case "APPLICATION_ID":
			vals[i] = FormatValue(b.opts.ApplicationID)
		case "DL_SERVICE_CODE":
			vals[i] = FormatValue(b.opts.ServiceCode)
		default:
			v, ok := p.Values[col]
			if !ok {
				v = NullToken
			}
			vals[i] = v
		}
	}
	return insertStatement(eligibilityTable, EligibilityColumns, vals)
}
