package devices

import (
	"fmt"
	"strings"
)

// Rule 一条分类规则：型号（大写后）同时满足 AllOf、每组 AnyOf 至少命中一个、且不含任何 NoneOf。
// 规则按顺序匹配，越具体的规则越靠前。
type Rule struct {
	BaseModel string
	AllOf     []string
	AnyOf     [][]string
	NoneOf    []string
	// Skip 命中后保持原始字符串（不可映射）
	Skip bool
}

// Match reports whether the upper-cased model satisfies the rule.
func (r Rule) Match(upper string) bool {
	for _, s := range r.AllOf {
		if !strings.Contains(upper, s) {
			return false
		}
	}
	for _, group := range r.AnyOf {
		hit := false
		for _, s := range group {
			if strings.Contains(upper, s) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	for _, s := range r.NoneOf {
		if strings.Contains(upper, s) {
			return false
		}
	}
	return true
}

type matcher struct {
	baseModel string
	skip      bool
	match     func(upper string) bool
}

// Classifier 把目录型号归到营销基础型号。自定义规则优先于内置规则。
type Classifier struct {
	rules   []matcher
	aliases map[string][]string // custom base model -> aliases
}

// NewClassifier 内置规则表 + 可选自定义规则
func NewClassifier(custom ...CustomRule) *Classifier {
	c := &Classifier{aliases: map[string][]string{}}
	for _, cr := range custom {
		cr := cr
		c.rules = append(c.rules, matcher{baseModel: cr.BaseModel, skip: cr.Skip, match: cr.Match})
		if cr.BaseModel != "" && len(cr.Aliases) > 0 {
			c.aliases[cr.BaseModel] = append(c.aliases[cr.BaseModel], cr.Aliases...)
		}
	}
	for _, r := range DefaultRules() {
		r := r
		c.rules = append(c.rules, matcher{baseModel: r.BaseModel, skip: r.Skip, match: r.Match})
	}
	return c
}

// BaseModel 第一个命中规则的基础型号；无规则命中返回原始字符串（去首尾空白）
func (c *Classifier) BaseModel(raw string) string {
	s := strings.TrimSpace(raw)
	upper := strings.ToUpper(s)
	for _, m := range c.rules {
		if m.match(upper) {
			if m.skip {
				return s
			}
			return m.baseModel
		}
	}
	return s
}

// Classify returns the base model and whether the device is mappable.
// 结果等于原始字符串即视为不可映射。
func (c *Classifier) Classify(raw string) (string, bool) {
	base := c.BaseModel(raw)
	return base, base != strings.TrimSpace(raw)
}

// DefaultRules 内置规则表
func DefaultRules() []Rule {
	var rules []Rule

	// Samsung 按机型代码
	for _, s := range []struct{ code, base string }{
		{"S928U", "Samsung Galaxy S24 Ultra"},
		{"S926U", "Samsung Galaxy S24+"},
		{"S921U", "Samsung Galaxy S24"},
		{"S721U", "Samsung Galaxy S24 FE"},
		{"S938U", "Samsung Galaxy S25 Ultra"},
		{"S936U", "Samsung Galaxy S25+"},
		{"S931U", "Samsung Galaxy S25"},
		{"S731U", "Samsung Galaxy S25 FE"},
		{"S918U", "Samsung Galaxy S23 Ultra"},
		{"S916U", "Samsung Galaxy S23+"},
		{"S911U", "Samsung Galaxy S23"},
		{"S711U", "Samsung Galaxy S23 FE"},
		{"F741U", "Samsung Galaxy Z Flip6"},
		{"F766U", "Samsung Galaxy Z Flip7"},
		{"F956U", "Samsung Galaxy Z Fold6"},
		{"F966U", "Samsung Galaxy Z Fold7"},
	} {
		rules = append(rules, Rule{BaseModel: s.base, AllOf: []string{"SAM " + s.code}})
	}

	// Apple：Pro Max > Pro > Plus > Mini > 标准
	for _, gen := range []string{"15", "16", "14", "13"} {
		p := "APL IPHONE " + gen
		name := "Apple iPhone " + gen
		rules = append(rules,
			Rule{BaseModel: name + " Pro Max", AllOf: []string{p + " PRO MAX"}},
			Rule{BaseModel: name + " Pro", AllOf: []string{p + " PRO"}, NoneOf: []string{"MAX"}},
			Rule{BaseModel: name + " Plus", AllOf: []string{p + " PLUS"}},
		)
		if gen == "13" {
			rules = append(rules,
				Rule{BaseModel: name + " Mini", AllOf: []string{p + " MINI"}},
				Rule{BaseModel: name, AllOf: []string{p}, NoneOf: []string{"PRO", "MINI"}},
			)
			continue
		}
		rules = append(rules, Rule{BaseModel: name, AllOf: []string{p}, NoneOf: []string{"PRO", "PLUS"}})
	}

	// Google Pixel
	rules = append(rules,
		Rule{BaseModel: "Google Pixel 9 Pro XL", AllOf: []string{"GGL PIXEL 9 PRO XL"}},
		Rule{BaseModel: "Google Pixel 9 Pro", AllOf: []string{"GGL PIXEL 9 PRO"}, NoneOf: []string{"XL"}},
		Rule{BaseModel: "Google Pixel 9a", AllOf: []string{"GGL PIXEL 9A"}},
		Rule{BaseModel: "Google Pixel 9", AllOf: []string{"GGL PIXEL 9"}, NoneOf: []string{"PRO", "PIXEL 9A"}},
		Rule{BaseModel: "Google Pixel 8 Pro", AllOf: []string{"GGL PIXEL 8 PRO"}},
		Rule{BaseModel: "Google Pixel 8a", AllOf: []string{"GGL PIXEL 8A"}},
		Rule{BaseModel: "Google Pixel 8", AllOf: []string{"GGL PIXEL 8"}, NoneOf: []string{"PRO", "PIXEL 8A"}},
	)

	// T-Mobile REVVL
	rules = append(rules,
		Rule{BaseModel: "T-Mobile REVVL 8 Pro", AllOf: []string{"TMO REVVL 8 PRO"}},
		Rule{BaseModel: "T-Mobile REVVL 8", AllOf: []string{"TMO REVVL 8 5G"}, NoneOf: []string{"PRO"}},
		Rule{BaseModel: "T-Mobile REVVL 7 Pro", AllOf: []string{"TMO REVVL 7 PRO"}},
		Rule{BaseModel: "T-Mobile REVVL 7", AllOf: []string{"TMO REVVL 7 5G"}, NoneOf: []string{"PRO"}},
	)

	// 测试 / 占位机型不映射
	rules = append(rules, Rule{AllOf: []string{"DUMMY"}, Skip: true})

	// Motorola：型号前缀 MOT XTyy 表示年份 20yy
	years := []string{"25", "24", "23", "22"}
	for _, yy := range years {
		p, year := "MOT XT"+yy, "20"+yy
		rules = append(rules,
			Rule{BaseModel: fmt.Sprintf("Motorola Razr Ultra %s", year), AllOf: []string{p, "RAZR", "ULTRA"}},
			Rule{BaseModel: fmt.Sprintf("Motorola Razr+ %s", year), AllOf: []string{p, "RAZR"}, AnyOf: [][]string{{"RAZR+", "RAZR +"}}},
			Rule{BaseModel: fmt.Sprintf("Motorola Razr %s", year), AllOf: []string{p, "RAZR"}},
		)
	}
	for _, yy := range years {
		p, year := "MOT XT"+yy, "20"+yy
		rules = append(rules,
			Rule{BaseModel: fmt.Sprintf("Motorola Edge+ %s", year), AllOf: []string{p, "EDGE"}, AnyOf: [][]string{{"EDGE+", "EDGE +"}}},
			Rule{BaseModel: fmt.Sprintf("Motorola Edge %s", year), AllOf: []string{p, "EDGE"}},
		)
	}
	motoG := []string{"G ", "GPOWER", "G STYLUS", "GPLAY"}
	for _, yy := range years {
		p, year := "MOT XT"+yy, "20"+yy
		rules = append(rules,
			Rule{BaseModel: "Moto G Power " + year, AllOf: []string{p}, AnyOf: [][]string{motoG, {"GPOWER", "G POWER"}}},
			Rule{BaseModel: "Moto G Stylus " + year, AllOf: []string{p}, AnyOf: [][]string{motoG, {"G STYLUS", "GSTYLUS"}}},
			Rule{BaseModel: "Moto G Play " + year, AllOf: []string{p}, AnyOf: [][]string{motoG, {"GPLAY", "G PLAY"}}},
			Rule{BaseModel: "Moto G " + year, AllOf: []string{p}, AnyOf: [][]string{motoG}},
		)
	}
	return rules
}
