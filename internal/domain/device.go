package domain

import "time"

// CanonicalDevice 设备目录中的一行（已按 SKU 类型 / 品牌过滤）
// Row 保留原始列，仅用于结果导出
type CanonicalDevice struct {
	Model   string            `json:"model"`
	SKUType string            `json:"sku_type"`
	Brand   string            `json:"brand"`
	Row     map[string]string `json:"row,omitempty"`
}

// AliasEntry 营销别名 -> 目录型号
type AliasEntry struct {
	Alias string `json:"marketing_alias"`
	Model string `json:"manufacturer_name"`
}

// DeviceSnapshot 上一次新设备检测的结果。整体替换，不做增量合并。
type DeviceSnapshot struct {
	LastUpdate      time.Time `json:"last_update"`
	TotalDevices    int       `json:"total_devices"`
	MappedDevices   int       `json:"mapped_devices"`
	UnmappedDevices int       `json:"unmapped_devices"`
	KnownDevices    []string  `json:"known_devices"`
}
