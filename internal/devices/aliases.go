package devices

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"sort"

	"promo-data/internal/domain"
)

var (
	reGalaxyS = regexp.MustCompile(`^Samsung Galaxy S(\d+)( Ultra|\+| FE)?$`)
	reGalaxyZ = regexp.MustCompile(`^Samsung Galaxy Z (Flip|Fold)(\d+)$`)
	reIPhone  = regexp.MustCompile(`^Apple iPhone (\d+)(?: (Pro Max|Pro|Plus|Mini))?$`)
	rePixel   = regexp.MustCompile(`^Google Pixel (\d+)(a| Pro XL| Pro)?$`)
	reREVVL   = regexp.MustCompile(`^T-Mobile REVVL (\d+)( Pro)?$`)
	reRazr    = regexp.MustCompile(`^Motorola Razr( Ultra|\+)? (\d{4})$`)
	reEdge    = regexp.MustCompile(`^Motorola Edge(\+)? (\d{4})$`)
	reMotoG   = regexp.MustCompile(`^Moto G(?: (Power|Stylus|Play))? (\d{4})$`)
)

// Aliases 基础型号的全部营销别名（含基础型号本身），去重并排序
func (c *Classifier) Aliases(base string) []string {
	set := map[string]struct{}{base: {}}
	for _, a := range builtinAliases(base) {
		set[a] = struct{}{}
	}
	for _, a := range c.aliases[base] {
		set[a] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for a := range set {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

func builtinAliases(base string) []string {
	if m := reGalaxyS.FindStringSubmatch(base); m != nil {
		s := "S" + m[1]
		switch m[2] {
		case " Ultra":
			return []string{"Samsung " + s + " Ultra", "Galaxy " + s + " Ultra", "Samsung " + s + "U", s + " Ultra", s + "U"}
		case "+":
			return []string{"Samsung " + s + "+", "Galaxy " + s + "+", "Samsung " + s + " Plus", "Galaxy " + s + " Plus", s + "+", s + " Plus"}
		case " FE":
			return []string{"Samsung " + s + " FE", "Galaxy " + s + " FE", "Samsung G" + s + " FE", "G" + s + " FE", s + " FE"}
		default:
			return []string{"Samsung " + s, "Galaxy " + s, "Samsung G" + s, "G" + s, s}
		}
	}
	if m := reGalaxyZ.FindStringSubmatch(base); m != nil {
		z := m[1] + m[2]
		return []string{"Samsung Z " + z, "Galaxy Z " + z, "Samsung Z" + z, "Z " + z, "Z" + z}
	}
	if m := reIPhone.FindStringSubmatch(base); m != nil {
		n, v := m[1], m[2]
		suffix := ""
		if v != "" {
			suffix = " " + v
		}
		out := []string{
			"iPhone " + n + suffix,
			"Apple iPhone" + n + suffix,
			"iPhone" + n + suffix,
			"i" + n + suffix,
		}
		switch v {
		case "Pro Max":
			out = append(out, "iPhone "+n+" ProMax")
		case "Plus":
			out = append(out, "iPhone "+n+"+")
		}
		return out
	}
	if m := rePixel.FindStringSubmatch(base); m != nil {
		n, v := m[1], m[2]
		out := []string{"Pixel " + n + v, "Google Pixel" + n + v, "Pixel" + n + v, "P" + n + v}
		switch v {
		case "":
			out = append(out, "Pixel "+n+" 5G")
		case " Pro XL":
			out = append(out, "Pixel "+n+" ProXL")
		case "a":
			out = append(out, "Pixel "+n+"A", "Google Pixel "+n+"A")
		}
		return out
	}
	if m := reREVVL.FindStringSubmatch(base); m != nil {
		n, v := m[1], m[2]
		return []string{"REVVL " + n + v, "TMO REVVL " + n + v, "REVVL" + n + v}
	}
	if m := reRazr.FindStringSubmatch(base); m != nil {
		year := m[2]
		var names []string
		switch m[1] {
		case " Ultra":
			names = []string{"Razr Ultra"}
		case "+":
			names = []string{"Razr+", "Razr Plus"}
		default:
			names = []string{"Razr"}
		}
		return motoVariants([]string{"Motorola ", "Moto ", ""}, names, year)
	}
	if m := reEdge.FindStringSubmatch(base); m != nil {
		names := []string{"Edge"}
		if m[1] == "+" {
			names = []string{"Edge+", "Edge Plus"}
		}
		return motoVariants([]string{"Motorola ", "Moto ", ""}, names, m[2])
	}
	if m := reMotoG.FindStringSubmatch(base); m != nil {
		name := "G"
		if m[1] != "" {
			name = "G " + m[1]
		}
		out := motoVariants([]string{"Moto ", "Motorola ", ""}, []string{name}, m[2])
		if m[1] == "" {
			// 单独的 "G" 无法区分任何机型
			out = removeString(out, "G")
		}
		return out
	}
	return nil
}

func motoVariants(prefixes, names []string, year string) []string {
	var out []string
	for _, n := range names {
		for _, p := range prefixes {
			out = append(out, p+n+" "+year, p+n)
		}
	}
	return out
}

func removeString(vs []string, s string) []string {
	out := vs[:0]
	for _, v := range vs {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}

// GroupByBaseModel 可映射设备按基础型号分组，基础型号按首次出现顺序
func GroupByBaseModel(models []string, c *Classifier) (order []string, groups map[string][]string) {
	groups = map[string][]string{}
	for _, m := range models {
		base, ok := c.Classify(m)
		if !ok {
			continue
		}
		if _, seen := groups[base]; !seen {
			order = append(order, base)
		}
		groups[base] = append(groups[base], m)
	}
	return order, groups
}

// BuildAliasEntries 每个基础型号的每个别名 × 该基础型号下的每个目录型号
func BuildAliasEntries(catalog *Catalog, c *Classifier) []domain.AliasEntry {
	order, groups := GroupByBaseModel(catalog.Models(), c)
	seen := map[domain.AliasEntry]struct{}{}
	var out []domain.AliasEntry
	for _, base := range order {
		for _, alias := range c.Aliases(base) {
			for _, model := range groups[base] {
				e := domain.AliasEntry{Alias: alias, Model: model}
				if _, dup := seen[e]; dup {
					continue
				}
				seen[e] = struct{}{}
				out = append(out, e)
			}
		}
	}
	return out
}

const (
	aliasHeader = "marketing_alias"
	modelHeader = "manufacturer_name"
)

// WriteAliasCSV 写出别名表（marketing_alias, manufacturer_name）
func WriteAliasCSV(w io.Writer, entries []domain.AliasEntry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{aliasHeader, modelHeader}); err != nil {
		return err
	}
	for _, e := range entries {
		if err := cw.Write([]string{e.Alias, e.Model}); err != nil {
			return fmt.Errorf("write alias %q: %w", e.Alias, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
