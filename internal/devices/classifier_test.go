package devices

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifier_BaseModel(t *testing.T) {
	c := NewClassifier()
	cases := map[string]string{
		"SAM S928U GALAXY S24 ULTRA 256GB": "Samsung Galaxy S24 Ultra",
		"SAM S926U GALAXY S24+ 256GB":      "Samsung Galaxy S24+",
		"SAM S721U GALAXY S24 FE":          "Samsung Galaxy S24 FE",
		"SAM S931U GALAXY S25 128GB":       "Samsung Galaxy S25",
		"SAM F766U GALAXY Z FLIP7":         "Samsung Galaxy Z Flip7",
		"sam s938u galaxy s25 ultra":       "Samsung Galaxy S25 Ultra",
		"APL IPHONE 15 PRO MAX 256GB":      "Apple iPhone 15 Pro Max",
		"APL IPHONE 15 PRO 128GB":          "Apple iPhone 15 Pro",
		"APL IPHONE 16 PLUS 128GB":         "Apple iPhone 16 Plus",
		"APL IPHONE 14 128GB MIDNIGHT":     "Apple iPhone 14",
		"APL IPHONE 13 MINI 128GB":         "Apple iPhone 13 Mini",
		"APL IPHONE 13 128GB":              "Apple iPhone 13",
		"GGL PIXEL 9 PRO XL 256GB":         "Google Pixel 9 Pro XL",
		"GGL PIXEL 9 PRO 128GB":            "Google Pixel 9 Pro",
		"GGL PIXEL 9A 128GB":               "Google Pixel 9a",
		"GGL PIXEL 9 128GB OBSIDIAN":       "Google Pixel 9",
		"GGL PIXEL 8A 128GB":               "Google Pixel 8a",
		"TMO REVVL 8 PRO 128GB":            "T-Mobile REVVL 8 Pro",
		"TMO REVVL 7 5G 64GB":              "T-Mobile REVVL 7",
		"MOT XT2553 RAZR ULTRA 512GB":      "Motorola Razr Ultra 2025",
		"MOT XT2451 RAZR+ 2024":            "Motorola Razr+ 2024",
		"MOT XT2453 RAZR 2024":             "Motorola Razr 2024",
		"MOT XT2301 EDGE + 256GB":          "Motorola Edge+ 2023",
		"MOT XT2405 EDGE 2024":             "Motorola Edge 2024",
		"MOT XT2415 G POWER 5G":            "Moto G Power 2024",
		"MOT XT2515 G STYLUS 5G":           "Moto G Stylus 2025",
		"MOT XT2213 GPLAY":                 "Moto G Play 2022",
		"MOT XT2417 G 5G":                  "Moto G 2024",
	}
	for raw, want := range cases {
		base, ok := c.Classify(raw)
		assert.True(t, ok, raw)
		assert.Equal(t, want, base, raw)
	}
}

func TestClassifier_UnmappableKeepsRaw(t *testing.T) {
	c := NewClassifier()
	for _, raw := range []string{"NOK 3310 CLASSIC", "DUMMY DEVICE 01", "MOT XT2417 PHONE"} {
		base, ok := c.Classify(raw)
		assert.False(t, ok, raw)
		assert.Equal(t, raw, base)
	}
	assert.Equal(t, "NOK 3310", c.BaseModel("  NOK 3310 "))
}

func TestRule_Match(t *testing.T) {
	r := Rule{AllOf: []string{"A"}, AnyOf: [][]string{{"B", "C"}}, NoneOf: []string{"D"}}
	assert.True(t, r.Match("AB"))
	assert.True(t, r.Match("AC"))
	assert.False(t, r.Match("A"))
	assert.False(t, r.Match("ABD"))
}

const customRulesYAML = `
rules:
  - base_model: Samsung Galaxy S26 Ultra
    when: model.contains("SAM S948U")
    aliases: [S26 Ultra, S26U]
  - skip: true
    when: model.startsWith("SAM S928U DEMO")
`

func TestCustomRules_EvaluatedFirst(t *testing.T) {
	rules, err := ParseRules([]byte(customRulesYAML))
	require.NoError(t, err)
	require.Len(t, rules, 2)

	c := NewClassifier(rules...)
	base, ok := c.Classify("sam s948u galaxy s26 ultra")
	assert.True(t, ok)
	assert.Equal(t, "Samsung Galaxy S26 Ultra", base)

	_, ok = c.Classify("SAM S928U DEMO UNIT")
	assert.False(t, ok, "skip rule shadows the built-in S24 Ultra rule")

	base, _ = c.Classify("SAM S928U GALAXY S24 ULTRA")
	assert.Equal(t, "Samsung Galaxy S24 Ultra", base)

	assert.Contains(t, c.Aliases("Samsung Galaxy S26 Ultra"), "S26U")
}

func TestParseRules_Errors(t *testing.T) {
	_, err := ParseRules([]byte("rules:\n  - base_model: X\n    when: model.contains(\n"))
	assert.Error(t, err)

	_, err = ParseRules([]byte("rules:\n  - when: model.contains(\"X\")\n"))
	assert.Error(t, err)

	_, err = ParseRules([]byte("rules:\n  - base_model: X\n"))
	assert.Error(t, err)

	_, err = ParseRules([]byte("rules: [\n"))
	assert.Error(t, err)
}

func TestLoadRuleFile_Missing(t *testing.T) {
	_, err := LoadRuleFile(t.TempDir() + "/rules.yaml")
	assert.True(t, IsNotFound(err))
}
