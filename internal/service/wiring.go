package service

import (
	"promo-data/internal/config"
	"promo-data/internal/devices"
	"promo-data/internal/sqlgen"
)

// SQLOptions 配置 -> SQL 生成常量；未配置的项由 sqlgen 补默认值
func SQLOptions(cfg config.SQLConfig) sqlgen.Options {
	return sqlgen.Options{
		ApplicationID:       cfg.ApplicationID,
		ServiceCode:         cfg.ServiceCode,
		RuleSequence:        cfg.RuleSequence,
		C2BaseURL:           cfg.C2BaseURL,
		StandardCondition:   cfg.StandardCondition,
		BrokenCondition:     cfg.BrokenCondition,
		DefaultSegmentLevel: cfg.DefaultSegmentLevel,
		TicketPrefix:        cfg.TicketPrefix,
	}
}

// DeviceConfigFrom 目录 / 别名表位置
func DeviceConfigFrom(cfg config.CatalogConfig) DeviceConfig {
	return DeviceConfig{
		CatalogPath: cfg.Path,
		Catalog:     devices.CatalogOptions{HeaderRow: cfg.HeaderRow, Sheet: cfg.Sheet},
		AliasPath:   cfg.AliasPath,
	}
}

// DetectorConfigFrom 检测器参数
func DetectorConfigFrom(cfg config.CatalogConfig) devices.DetectorConfig {
	return devices.DetectorConfig{
		CatalogPath: cfg.Path,
		Catalog:     devices.CatalogOptions{HeaderRow: cfg.HeaderRow, Sheet: cfg.Sheet},
		ReviewDir:   cfg.ReviewDir,
	}
}

// NewClassifier 内置规则，加上 rulesPath 指定的自定义规则（可为空）
func NewClassifier(rulesPath string) (*devices.Classifier, error) {
	if rulesPath == "" {
		return devices.NewClassifier(), nil
	}
	rules, err := devices.LoadRuleFile(rulesPath)
	if err != nil {
		return nil, err
	}
	return devices.NewClassifier(rules...), nil
}
