package sqlgen

import (
	"math"
	"strconv"
	"strings"

	"promo-data/internal/domain"
)

// Options SQL 生成所需的常量，来自配置
type Options struct {
	ApplicationID       string // APPLICATION_ID, e.g. CPO
	ServiceCode         string // DL_SERVICE_CODE, e.g. USRST
	RuleSequence        string // RULE_ID expression
	C2BaseURL           string
	StandardCondition   string
	BrokenCondition     string
	DefaultSegmentLevel string
	LegacySKUPrefix     string
	TicketPrefix        string
	BrokenTradeConfig   string // PROMO_GLOBAL_CONFIG.CONFIG_NAME listing broken-trade promos
}

// DefaultOptions returns the production constants.
func DefaultOptions() Options {
	return Options{
		ApplicationID:       "CPO",
		ServiceCode:         "USRST",
		RuleSequence:        "PROMO_ELIGIBILITY_RULES_SEQ.NEXTVAL",
		C2BaseURL:           "",
		StandardCondition:   "STD",
		BrokenCondition:     "BRK",
		DefaultSegmentLevel: "BAN",
		LegacySKUPrefix:     "000000",
		TicketPrefix:        "RDC-",
		BrokenTradeConfig:   "BROKEN_TRADE_PROMOS",
	}
}

// Builder 生成各类 INSERT 语句。无内部可变状态，可并发使用。
type Builder struct {
	opts Options
}

func NewBuilder(opts Options) *Builder {
	def := DefaultOptions()
	if opts.ApplicationID == "" {
		opts.ApplicationID = def.ApplicationID
	}
	if opts.ServiceCode == "" {
		opts.ServiceCode = def.ServiceCode
	}
	if opts.RuleSequence == "" {
		opts.RuleSequence = def.RuleSequence
	}
	if opts.StandardCondition == "" {
		opts.StandardCondition = def.StandardCondition
	}
	if opts.BrokenCondition == "" {
		opts.BrokenCondition = def.BrokenCondition
	}
	if opts.DefaultSegmentLevel == "" {
		opts.DefaultSegmentLevel = def.DefaultSegmentLevel
	}
	if opts.LegacySKUPrefix == "" {
		opts.LegacySKUPrefix = def.LegacySKUPrefix
	}
	if opts.BrokenTradeConfig == "" {
		opts.BrokenTradeConfig = def.BrokenTradeConfig
	}
	return &Builder{opts: opts}
}

// Options returns the constants the builder was created with.
func (b *Builder) Options() Options { return b.opts }

// valueList 按列顺序收集 SQL 字面量，第一个错误之后的调用全部忽略
type valueList struct {
	vals []string
	err  error
}

func (l *valueList) raw(tok string) {
	if l.err != nil {
		return
	}
	l.vals = append(l.vals, tok)
}

func (l *valueList) text(v domain.Text) {
	l.raw(FormatValue(v))
}

func (l *valueList) integer(field string, v domain.Text) {
	if l.err != nil {
		return
	}
	tok, err := integerToken(field, v)
	if err != nil {
		l.err = err
		return
	}
	l.raw(tok)
}

func (l *valueList) number(field string, v domain.Text) {
	if l.err != nil {
		return
	}
	tok, err := numberToken(field, v)
	if err != nil {
		l.err = err
		return
	}
	l.raw(tok)
}

func (l *valueList) date(field string, v domain.Text, role DateRole) {
	if l.err != nil {
		return
	}
	if v.IsEmpty() {
		l.raw(NullToken)
		return
	}
	if _, err := ParseDate(v.Trim()); err != nil {
		l.err = invalid(field, "%v", err)
		return
	}
	l.raw(FormatDate(v.Trim(), role))
}

// integerToken 数值列：空 -> NULL，小数截断为整数，非数字报错
func integerToken(field string, v domain.Text) (string, error) {
	if v.IsEmpty() {
		return NullToken, nil
	}
	f, err := parseNumber(v)
	if err != nil {
		return "", invalid(field, "%q is not a number", v.Trim())
	}
	// 2^63 本身不在 int64 范围内
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return "", invalid(field, "%q is out of range", v.Trim())
	}
	return strconv.FormatInt(int64(f), 10), nil
}

func numberToken(field string, v domain.Text) (string, error) {
	if v.IsEmpty() {
		return NullToken, nil
	}
	f, err := parseNumber(v)
	if err != nil {
		return "", invalid(field, "%q is not a number", v.Trim())
	}
	return formatFloat(f), nil
}

func parseNumber(v domain.Text) (float64, error) {
	s := strings.TrimPrefix(v.Trim(), "$")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, strconv.ErrSyntax
	}
	return f, nil
}

// audit 子表共用的审计列值：SYS_CREATION_DATE, OPERATOR_ID, APPLICATION_ID, DL_SERVICE_CODE
func (b *Builder) audit(rec *domain.PromotionRecord) ([]string, error) {
	op, err := integerToken("operator_id", rec.OperatorID)
	if err != nil {
		return nil, err
	}
	return []string{SysdateToken, op, FormatValue(b.opts.ApplicationID), FormatValue(b.opts.ServiceCode)}, nil
}

var auditColumns = []string{"SYS_CREATION_DATE", "OPERATOR_ID", "APPLICATION_ID", "DL_SERVICE_CODE"}

func insertStatement(table string, cols, vals []string) string {
	return "INSERT INTO " + table + " (" + strings.Join(cols, ",") + ") VALUES (" + strings.Join(vals, ",") + ");"
}

// TicketNumber 脚本头部和 SKU 组描述使用的工单号
func (b *Builder) TicketNumber(rec *domain.PromotionRecord) string {
	if !rec.TicketID.IsEmpty() {
		return rec.TicketID.Trim()
	}
	if rec.OperatorID.IsEmpty() {
		return "N/A"
	}
	return b.opts.TicketPrefix + rec.OperatorID.Trim()
}
