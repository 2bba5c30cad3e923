package domain

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// MaxTiers 每个促销最多 4 个 tier（trade-in / pricing 共用）
const MaxTiers = 4

// Text 表单字段值：前端可能传字符串、数字或 null，统一按字符串保存
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*t = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}
	// number / bool
	*t = Text(b)
	return nil
}

func (t Text) String() string { return string(t) }

// Trim returns the value without surrounding whitespace.
func (t Text) Trim() string { return strings.TrimSpace(string(t)) }

// IsEmpty 空串、纯空白、或字面量 NULL 都视为未填写
func (t Text) IsEmpty() bool {
	s := t.Trim()
	return s == "" || strings.EqualFold(s, "NULL")
}

// IsTrue accepts Y/YES/TRUE/1 (case-insensitive).
func (t Text) IsTrue() bool {
	switch strings.ToUpper(t.Trim()) {
	case "Y", "YES", "TRUE", "1", "ON":
		return true
	}
	return false
}

// TradeInTier 一个 trade-in 档位
type TradeInTier struct {
	Amount           Text `json:"amount"`
	ConditionID      Text `json:"condition_id"`
	FMVMin           Text `json:"fmv_min"`
	FMVMax           Text `json:"fmv_max"`
	MakeModelGroupID Text `json:"mk_mdl_grp_id"`
}

func (t TradeInTier) hasData() bool {
	return !t.Amount.IsEmpty() || !t.ConditionID.IsEmpty() || !t.FMVMin.IsEmpty() ||
		!t.FMVMax.IsEmpty() || !t.MakeModelGroupID.IsEmpty()
}

// PricingTier 一个 tiered pricing 档位
type PricingTier struct {
	Amount     Text `json:"amount"`
	SKUGroupID Text `json:"sku_group_id"`
	DeviceList Text `json:"device_list"`
}

func (t PricingTier) hasData() bool {
	return !t.Amount.IsEmpty() || !t.SKUGroupID.IsEmpty() || !t.DeviceList.IsEmpty()
}

// SegmentInfo 客户分群
type SegmentInfo struct {
	Name       Text `json:"name"`
	SubSegment Text `json:"sub_segment"`
	GroupID    Text `json:"group_id"`
	Level      Text `json:"level"`
}

// PromotionRecord 一个促销的全部表单字段 + 元数据。
// JSON tag 与前端表单字段名一致，记录以 JSON 文档整体存储。
type PromotionRecord struct {
	Code           string `json:"code"`
	Owner          Text   `json:"owner"`
	RequesterName  Text   `json:"requester_name"`
	TicketID       Text   `json:"ticket_id"`
	BillFacingName Text   `json:"bill_facing_name"`
	OrbitID        Text   `json:"orbit_id"`
	Description    Text   `json:"description"`
	PromoNotes     Text   `json:"promo_notes"`
	OperatorID     Text   `json:"operator_id"`
	ProductType    Text   `json:"product_type"`
	AccountType    Text   `json:"account_type"`

	// dates, YYYY-MM-DD
	PromoStartDate   Text `json:"promo_start_date"`
	PromoEndDate     Text `json:"promo_end_date"`
	EffectiveDate    Text `json:"effective_date"`
	ExpirationDate   Text `json:"expiration_date"`
	CommEndDate      Text `json:"comm_end_date"`
	DisplayStartDate Text `json:"display_start_date"`
	DisplayEndDate   Text `json:"display_end_date"`
	PRDate           Text `json:"pr_date"`

	// numeric
	PromoDuration Text `json:"promo_duration"`
	Amount        Text `json:"amount"`
	Discount      Text `json:"discount"`
	TradeInGrace  Text `json:"trade_in_grace"`
	LimitPerBan   Text `json:"limit_per_ban"`
	MinGSMCount   Text `json:"min_gsm_count"`
	MaxGSMCount   Text `json:"max_gsm_count"`
	PromoGrace    Text `json:"promo_grace"`
	DelayTime     Text `json:"delay_time"`
	MPSSLookback  Text `json:"mpss_lookback"`

	// group references / indicators
	SKUGroupID             Text `json:"sku_group_id"`
	PrimSKUGroupID         Text `json:"prim_sku_group_id"`
	SOCGroupID             Text `json:"soc_group_id"`
	ActivationTypeGroupID  Text `json:"atst_group_id"`
	SalesApplicationGroup  Text `json:"appl_group_id"`
	DeviceSalesTypeGroupID Text `json:"device_st_group_id"`
	FinanceType            Text `json:"finance_type"`
	ActiveLineRequired     Text `json:"act_line_req_ind"`
	AppGraceGroupID        Text `json:"app_grace_group_id"`
	TradeInGroupID         Text `json:"trade_in_group_id"`
	MaintainActiveLine     Text `json:"maint_act_line_chk_ind"`
	MaintainSOC            Text `json:"maint_soc_chk_ind"`
	StoreGroupID           Text `json:"store_grp_id"`
	MarketGroupID          Text `json:"market_grp_id"`
	TenureGroupID          Text `json:"tenure_group_id"`
	PortInGroupID          Text `json:"portin_group_id"`
	C2Reference            Text `json:"c2_reference"`
	DisplayPromo           Text `json:"display_promo"`
	TieredGroupID          Text `json:"tiered_group_id"`
	BoltOnTradeInGroupID   Text `json:"bolton_trade_in_grp_id"`
	LineStatusGroupID      Text `json:"line_st_group_id"`
	NSEIPDrop              Text `json:"nseip_drop_ind"`
	FlowIndicator          Text `json:"flow_indicator"`
	DocumentID             Text `json:"document_id"`
	DeviceStatusGroupID    Text `json:"dvc_sts_grp_id"`
	Clawback               Text `json:"clawback_ind"`

	// 渠道/展示相关，不进入 SQL
	DCDWebCart  Text `json:"dcd_web_cart"`
	BOGO        Text `json:"bogo"`
	OnMenu      Text `json:"on_menu"`
	SKULink     Text `json:"sku_link"`
	TradeInLink Text `json:"tradein_link"`

	BrokenTrade  Text                 `json:"broken_trade"`
	TradeInTiers [MaxTiers]TradeInTier `json:"trade_in_tiers"`
	PricingTiers [MaxTiers]PricingTier `json:"pricing_tiers"`
	Segment      SegmentInfo          `json:"segment"`

	VersionHistory []string  `json:"version_history"`
	GeneratedSQL   string    `json:"generated_sql,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewPromotionRecord 新建促销的默认值
func NewPromotionRecord(code string) *PromotionRecord {
	return &PromotionRecord{
		Code:               code,
		StoreGroupID:       "*",
		MarketGroupID:      "*",
		ActiveLineRequired: "N",
		MaintainActiveLine: "N",
		MaintainSOC:        "N",
		NSEIPDrop:          "N",
		DisplayPromo:       "N",
		Clawback:           "N",
		BrokenTrade:        "N",
		VersionHistory:     []string{},
	}
}

// IsBrokenTrade reports whether trade-ins under this promotion accept broken devices.
func (r *PromotionRecord) IsBrokenTrade() bool { return r.BrokenTrade.IsTrue() }

// HasTradeInTierData 任一 trade-in tier 有任一字段已填写
func (r *PromotionRecord) HasTradeInTierData() bool {
	for _, t := range r.TradeInTiers {
		if t.hasData() {
			return true
		}
	}
	return false
}

// HasPricingTierData 任一 pricing tier 有任一字段已填写
func (r *PromotionRecord) HasPricingTierData() bool {
	for _, t := range r.PricingTiers {
		if t.hasData() {
			return true
		}
	}
	return false
}

// Clone returns a copy that shares no mutable state with r.
func (r *PromotionRecord) Clone() *PromotionRecord {
	if r == nil {
		return nil
	}
	c := *r
	c.VersionHistory = append([]string(nil), r.VersionHistory...)
	if c.VersionHistory == nil {
		c.VersionHistory = []string{}
	}
	return &c
}
