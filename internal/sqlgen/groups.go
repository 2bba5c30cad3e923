package sqlgen

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"promo-data/internal/domain"
)

const (
	tradeInGroupTable = "PROMO_TRADEIN_GROUPS"
	tieredGroupTable  = "PROMO_TIERED_GROUPS"
	skuGroupTable     = "PROMO_SKU_GROUPS"
	segmentTable      = "PROMO_SEGMENT_GROUPS"

	maxDeviceListLen = 100
)

var (
	tradeInGroupColumns = append([]string{"TRADE_IN_GRP_ID", "TIER_NUM", "MK_MDL_GRP_ID", "TRADEIN_AMOUNT",
		"CONDITION_ID", "FMV_MIN", "FMV_MAX"}, append(auditColumns, "TRADEIN_GROUP_DESC")...)
	tieredGroupColumns = append([]string{"TIERED_GRP_ID", "TIER_NUM", "SKU_GROUP_ID", "TIER_AMOUNT"},
		append(auditColumns, "TIERED_GROUP_DESC")...)
	skuGroupColumns = append([]string{"SKU_GROUP_ID", "SKU", "SKU_DESC"},
		append(auditColumns, "SKU_GROUP_DESC")...)
	segmentColumns = append([]string{"SEGMENT_GRP_ID", "SEGMENT_NAME", "SUB_SEGMENT", "SEGMENT_LEVEL"},
		auditColumns...)
)

// TradeInGroups 每个同时填写了金额和 make/model 组的 tier 生成一条 INSERT。
// broken trade 时所有 tier 的 condition 强制为 broken condition。
func (b *Builder) TradeInGroups(rec *domain.PromotionRecord) ([]string, error) {
	if rec.TradeInGroupID.IsEmpty() {
		return nil, nil
	}
	audit, err := b.audit(rec)
	if err != nil {
		return nil, err
	}
	var out []string
	for i, tier := range rec.TradeInTiers {
		if tier.Amount.IsEmpty() || tier.MakeModelGroupID.IsEmpty() {
			continue
		}
		n := i + 1
		amount, err := numberToken(fmt.Sprintf("trade_in_tiers[%d].amount", n), tier.Amount)
		if err != nil {
			return nil, err
		}
		fmvMin, err := numberToken(fmt.Sprintf("trade_in_tiers[%d].fmv_min", n), tier.FMVMin)
		if err != nil {
			return nil, err
		}
		fmvMax, err := numberToken(fmt.Sprintf("trade_in_tiers[%d].fmv_max", n), tier.FMVMax)
		if err != nil {
			return nil, err
		}
		cond := b.opts.StandardCondition
		if !tier.ConditionID.IsEmpty() {
			cond = tier.ConditionID.Trim()
		}
		if rec.IsBrokenTrade() {
			cond = b.opts.BrokenCondition
		}
		vals := []string{
			FormatValue(rec.TradeInGroupID.Trim()),
			fmt.Sprint(n),
			FormatValue(tier.MakeModelGroupID.Trim()),
			amount,
			FormatValue(cond),
			fmvMin,
			fmvMax,
		}
		vals = append(vals, audit...)
		vals = append(vals, FormatValue(fmt.Sprintf("%s Trade-In Tier %d $%s", rec.Code, n, amount)))
		out = append(out, insertStatement(tradeInGroupTable, tradeInGroupColumns, vals))
	}
	return out, nil
}

// TieredGroups 每个同时填写了金额和 SKU 组的 pricing tier 生成一条 INSERT
func (b *Builder) TieredGroups(rec *domain.PromotionRecord) ([]string, error) {
	if rec.TieredGroupID.IsEmpty() {
		return nil, nil
	}
	audit, err := b.audit(rec)
	if err != nil {
		return nil, err
	}
	var out []string
	for i, tier := range rec.PricingTiers {
		if tier.Amount.IsEmpty() || tier.SKUGroupID.IsEmpty() {
			continue
		}
		n := i + 1
		amount, err := numberToken(fmt.Sprintf("pricing_tiers[%d].amount", n), tier.Amount)
		if err != nil {
			return nil, err
		}
		desc := fmt.Sprintf("Tier %d $%s", n, amount)
		if devices := deviceListSummary(tier.DeviceList.String()); devices != "" {
			desc += " - " + devices
		}
		vals := []string{
			FormatValue(rec.TieredGroupID.Trim()),
			fmt.Sprint(n),
			FormatValue(tier.SKUGroupID.Trim()),
			amount,
		}
		vals = append(vals, audit...)
		vals = append(vals, FormatValue(desc))
		out = append(out, insertStatement(tieredGroupTable, tieredGroupColumns, vals))
	}
	return out, nil
}

// deviceListSummary 自由文本设备列表（换行或逗号分隔）-> 逗号拼接，最多 100 个字符
func deviceListSummary(s string) string {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == '\n' || r == '\r' || r == ',' || r == ';' })
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			parts = append(parts, f)
		}
	}
	joined := strings.Join(parts, ", ")
	if utf8.RuneCountInString(joined) <= maxDeviceListLen {
		return joined
	}
	return string([]rune(joined)[:maxDeviceListLen])
}

// DeviceGroups 每个上传的 SKU 一条 INSERT；纯数字 SKU 额外生成带 legacy 前缀的一条
func (b *Builder) DeviceGroups(rec *domain.PromotionRecord, upload *SKUUpload) ([]string, error) {
	if rec.SKUGroupID.IsEmpty() || upload == nil || len(upload.Rows) == 0 {
		return nil, nil
	}
	audit, err := b.audit(rec)
	if err != nil {
		return nil, err
	}
	groupDesc := FormatValue(fmt.Sprintf("%s %s %s", rec.Code, b.TicketNumber(rec),
		firstNonEmpty(rec.BillFacingName, rec.Description).Trim()))
	groupID := FormatValue(rec.SKUGroupID.Trim())

	out := make([]string, 0, len(upload.Rows))
	emit := func(sku, desc string) {
		vals := []string{groupID, FormatValue(sku), FormatValue(desc)}
		vals = append(vals, audit...)
		vals = append(vals, groupDesc)
		out = append(out, insertStatement(skuGroupTable, skuGroupColumns, vals))
	}
	for _, row := range upload.Rows {
		emit(row.SKU, row.Description)
		if isDigits(row.SKU) {
			emit(b.opts.LegacySKUPrefix+row.SKU, row.Description)
		}
	}
	return out, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// SegmentGroup 分群 INSERT；没有分群组或分群名时返回空串
func (b *Builder) SegmentGroup(rec *domain.PromotionRecord) (string, error) {
	seg := rec.Segment
	if seg.GroupID.IsEmpty() || seg.Name.IsEmpty() {
		return "", nil
	}
	audit, err := b.audit(rec)
	if err != nil {
		return "", err
	}
	level := b.opts.DefaultSegmentLevel
	if !seg.Level.IsEmpty() {
		level = seg.Level.Trim()
	}
	vals := []string{
		FormatValue(seg.GroupID.Trim()),
		FormatValue(seg.Name.Trim()),
		FormatValue(seg.SubSegment),
		FormatValue(level),
	}
	vals = append(vals, audit...)
	return insertStatement(segmentTable, segmentColumns, vals), nil
}
