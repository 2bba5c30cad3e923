package sqlgen

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"promo-data/internal/domain"
)

// Inputs 除促销记录以外的生成输入
type Inputs struct {
	SKUUpload      *SKUUpload
	TradeInDevices []TradeInDevice
	// RequesterName 覆盖记录中的 requester（如从工单系统查到的报告人）
	RequesterName string
}

// Result 生成结果。失败时 Script 只有一行 "-- ERROR: ..." 注释。
type Result struct {
	Script     string
	Err        error
	Statements int
}

// OK reports whether the script is executable.
func (r Result) OK() bool { return r.Err == nil }

// Failure 生成前就失败（如上传文件无法解析）时的结果
func Failure(err error) Result {
	return Result{Script: errorScript(err), Err: err}
}

// Assembler 把各 builder 的输出拼成一个可执行的脚本
type Assembler struct {
	*Builder
	logger *zap.Logger
}

func NewAssembler(opts Options, logger *zap.Logger) *Assembler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assembler{Builder: NewBuilder(opts), logger: logger}
}

type section struct {
	title string
	stmts []string
}

// Assemble 生成完整脚本。任何一步失败都不会产出部分 SQL。
func (a *Assembler) Assemble(rec *domain.PromotionRecord, in Inputs) Result {
	script, n, err := a.assemble(rec, in)
	if err != nil {
		code := ""
		if rec != nil {
			code = rec.Code
		}
		a.logger.Warn("SQL generation aborted", zap.String("promo_code", code), zap.Error(err))
		return Failure(err)
	}
	a.logger.Info("SQL generated", zap.String("promo_code", rec.Code), zap.Int("statements", n))
	return Result{Script: script, Statements: n}
}

func (a *Assembler) assemble(rec *domain.PromotionRecord, in Inputs) (string, int, error) {
	if rec == nil {
		return "", 0, invalid("record", "missing")
	}
	if rec.HasTradeInTierData() && rec.HasPricingTierData() {
		return "", 0, ErrMutualExclusion
	}

	elig, err := a.Eligibility(rec)
	if err != nil {
		return "", 0, err
	}
	skus, err := a.DeviceGroups(rec, in.SKUUpload)
	if err != nil {
		return "", 0, err
	}
	tradeIns, err := a.TradeInGroups(rec)
	if err != nil {
		return "", 0, err
	}
	tiered, err := a.TieredGroups(rec)
	if err != nil {
		return "", 0, err
	}
	tradeInDevices, err := a.TradeInDeviceInserts(rec, in.TradeInDevices)
	if err != nil {
		return "", 0, err
	}
	seg, err := a.SegmentGroup(rec)
	if err != nil {
		return "", 0, err
	}

	sections := []section{
		{"Eligibility rule", []string{elig}},
		{"SKU group", skus},
		{"Trade-in groups", tradeIns},
		{"Tiered pricing groups", tiered},
		{"Trade-in make/model groups", tradeInDevices},
		{"Segment group", nonEmpty(seg)},
	}
	if rec.IsBrokenTrade() {
		sections = append(sections, section{"Broken trade", []string{a.brokenTradeUpdate(rec)}})
	}

	header, err := a.header(rec, in)
	if err != nil {
		return "", 0, err
	}

	var sb strings.Builder
	sb.WriteString(header)
	sb.WriteString("BEGIN\n")
	n := 0
	for _, s := range sections {
		sb.WriteString("\n-- ")
		sb.WriteString(s.title)
		sb.WriteString("\n")
		if len(s.stmts) == 0 {
			sb.WriteString("-- (none)\n")
			continue
		}
		for _, st := range s.stmts {
			sb.WriteString(st)
			sb.WriteString("\n")
			n++
		}
	}
	sb.WriteString("\nEND;\n/\n")
	return sb.String(), n, nil
}

func nonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	return []string{s}
}

func (a *Assembler) brokenTradeUpdate(rec *domain.PromotionRecord) string {
	code := strings.ReplaceAll(strings.TrimSpace(rec.Code), "'", "''")
	return fmt.Sprintf("UPDATE PROMO_GLOBAL_CONFIG SET CONFIG_VALUE = CONFIG_VALUE || ',%s' WHERE CONFIG_NAME = %s;",
		code, FormatValue(a.opts.BrokenTradeConfig))
}

// header 脚本头：工单号、申请人、申请日期（开始日期前一天）、项目标题
func (a *Assembler) header(rec *domain.PromotionRecord, in Inputs) (string, error) {
	requestDate, launch := "N/A", "N/A"
	if !rec.PromoStartDate.IsEmpty() {
		start, err := ParseDate(rec.PromoStartDate.Trim())
		if err != nil {
			return "", invalid("promo_start_date", "%v", err)
		}
		day := start.AddDate(0, 0, -1)
		requestDate = day.Format("01/02/2006")
		launch = day.Format("01/02/2006") + " 8:00 PM"
	}
	requester := strings.TrimSpace(in.RequesterName)
	if requester == "" {
		requester = firstNonEmpty(rec.RequesterName, rec.Owner).Trim()
	}
	if requester == "" {
		requester = "N/A"
	}

	title := []string{strings.TrimSpace(rec.Code)}
	if !rec.OrbitID.IsEmpty() {
		title = append(title, "ORBIT "+rec.OrbitID.Trim())
	}
	if name := firstNonEmpty(rec.BillFacingName, rec.Description); !name.IsEmpty() {
		title = append(title, name.Trim())
	}
	title = append(title, "Launch "+launch)

	rule := "-- " + strings.Repeat("=", 70) + "\n"
	var sb strings.Builder
	sb.WriteString(rule)
	fmt.Fprintf(&sb, "-- Ticket       : %s\n", oneLine(a.TicketNumber(rec)))
	fmt.Fprintf(&sb, "-- Requested by : %s\n", oneLine(requester))
	fmt.Fprintf(&sb, "-- Request date : %s\n", requestDate)
	fmt.Fprintf(&sb, "-- Project      : %s\n", oneLine(strings.Join(title, " - ")))
	sb.WriteString(rule)
	return sb.String(), nil
}

// oneLine 头部字段不能跨行，否则后续内容会脱离注释
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// IsValidationError reports whether err is a user-correctable input problem.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve) || errors.Is(err, ErrMutualExclusion)
}
