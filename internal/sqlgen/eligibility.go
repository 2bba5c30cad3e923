package sqlgen

import (
	"fmt"
	"strings"

	"promo-data/internal/domain"
)

const eligibilityTable = "PROMO_ELIGIBILITY_RULES"

// EligibilityColumns PROMO_ELIGIBILITY_RULES 的列顺序，下游装载依赖该顺序，不可调整
var EligibilityColumns = []string{
	"RULE_ID", "PROMO_CODE", "PROMO_START_DATE", "PROMO_END_DATE", "SYS_CREATION_DATE",
	"OPERATOR_ID", "APPLICATION_ID", "DL_SERVICE_CODE", "PROMO_DESCRIPTION", "PROMO_DURATION",
	"PROMO_AMOUNT", "EFFECTIVE_DATE", "EXPIRATION_DATE", "SKU_GROUP_ID", "PRIM_SKU_GROUP_ID",
	"SOC_GROUP_ID", "ATST_GROUP_ID", "APPL_GROUP_ID", "DEVICE_ST_GROUP_ID", "FINANCE_TYPE",
	"ACT_LINE_REQ_IND", "APP_GRACE_GROUP_ID", "TRADE_IN_GRP_ID", "TRADE_IN_GRACE_PERIOD",
	"MAINT_ACT_LINE_CHK_IND", "MAINT_SOC_CHK_IND", "STORE_GRP_ID", "MARKET_GRP_ID", "LIMIT_PER_BAN",
	"TENURE_GROUP_ID", "PORTIN_GROUP_ID", "PROMO_PERC_DISC", "C2_LINK", "MIN_GSM_COUNT",
	"MAX_GSM_COUNT", "DISPLAY_PROMO", "TIERED_GRP_ID", "SEGMENT_GRP_ID", "BOLTON_TRADE_IN_GRP_ID",
	"PRODUCT_TYPE", "PR_DATE", "PROMO_GRACE_PERIOD", "LINE_ST_GROUP_ID", "NSEIP_DROP_IND",
	"DELAY_TIME", "DISPLAY_PROMO_START_DATE", "DISPLAY_PROMO_END_DATE", "MPSS_LOOKBACK",
	"FLOW_INDICATOR", "DOCUMENT_ID", "DVC_STS_GRP_ID", "CLAWBACK_IND",
}

// Eligibility 生成唯一一条 PROMO_ELIGIBILITY_RULES INSERT
func (b *Builder) Eligibility(rec *domain.PromotionRecord) (string, error) {
	if rec == nil {
		return "", invalid("record", "missing")
	}
	code := strings.TrimSpace(rec.Code)
	if code == "" {
		return "", invalid("code", "required")
	}

	l := &valueList{}
	l.raw(b.opts.RuleSequence)
	l.text(domain.Text(code))
	l.date("promo_start_date", rec.PromoStartDate, RoleStart)
	l.date("promo_end_date", rec.PromoEndDate, RoleEnd)
	l.raw(SysdateToken)
	l.integer("operator_id", rec.OperatorID)
	l.raw(FormatValue(b.opts.ApplicationID))
	l.raw(FormatValue(b.opts.ServiceCode))
	l.text(firstNonEmpty(rec.BillFacingName, rec.Description))
	l.integer("promo_duration", rec.PromoDuration)
	l.integer("amount", rec.Amount)
	l.date("effective_date", firstNonEmpty(rec.EffectiveDate, rec.PromoStartDate), RoleStart)
	l.date("expiration_date", firstNonEmpty(rec.ExpirationDate, rec.PromoEndDate), RoleEnd)
	l.text(rec.SKUGroupID)
	l.text(rec.PrimSKUGroupID)
	l.text(rec.SOCGroupID)
	l.text(rec.ActivationTypeGroupID)
	l.text(rec.SalesApplicationGroup)
	l.text(rec.DeviceSalesTypeGroupID)
	l.text(rec.FinanceType)
	l.text(rec.ActiveLineRequired)
	l.text(rec.AppGraceGroupID)
	l.text(rec.TradeInGroupID)
	l.integer("trade_in_grace", rec.TradeInGrace)
	l.text(rec.MaintainActiveLine)
	l.text(rec.MaintainSOC)
	l.text(rec.StoreGroupID)
	l.text(rec.MarketGroupID)
	l.integer("limit_per_ban", rec.LimitPerBan)
	l.text(rec.TenureGroupID)
	l.text(rec.PortInGroupID)
	l.integer("discount", rec.Discount)
	l.raw(b.c2Link(rec.C2Reference))
	l.integer("min_gsm_count", rec.MinGSMCount)
	l.integer("max_gsm_count", rec.MaxGSMCount)
	l.text(rec.DisplayPromo)
	l.text(rec.TieredGroupID)
	l.text(rec.Segment.GroupID)
	l.text(rec.BoltOnTradeInGroupID)
	l.text(rec.ProductType)
	l.text(rec.PRDate)
	l.integer("promo_grace", rec.PromoGrace)
	l.text(rec.LineStatusGroupID)
	l.text(rec.NSEIPDrop)
	l.integer("delay_time", rec.DelayTime)
	l.date("display_start_date", firstNonEmpty(rec.DisplayStartDate, rec.PromoStartDate), RoleDisplay)
	l.date("display_end_date", firstNonEmpty(rec.DisplayEndDate, rec.PromoEndDate), RoleDisplay)
	l.integer("mpss_lookback", rec.MPSSLookback)
	l.text(rec.FlowIndicator)
	l.text(rec.DocumentID)
	l.text(rec.DeviceStatusGroupID)
	l.text(rec.Clawback)
	if l.err != nil {
		return "", l.err
	}
	if len(l.vals) != len(EligibilityColumns) {
		return "", fmt.Errorf("eligibility rule: %d values for %d columns", len(l.vals), len(EligibilityColumns))
	}
	return insertStatement(eligibilityTable, EligibilityColumns, l.vals), nil
}

// c2Link 完整 URL 原样使用，否则拼接到 C2 基地址之后
func (b *Builder) c2Link(ref domain.Text) string {
	if ref.IsEmpty() {
		return NullToken
	}
	r := ref.Trim()
	if strings.HasPrefix(r, "http://") || strings.HasPrefix(r, "https://") || b.opts.C2BaseURL == "" {
		return FormatValue(r)
	}
	return FormatValue(strings.TrimRight(b.opts.C2BaseURL, "/") + "/" + strings.TrimLeft(r, "/"))
}

func firstNonEmpty(vs ...domain.Text) domain.Text {
	for _, v := range vs {
		if !v.IsEmpty() {
			return v
		}
	}
	return ""
}
