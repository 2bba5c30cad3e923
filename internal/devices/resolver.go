package devices

import (
	"sort"
	"strings"

	"promo-data/internal/domain"
)

// 批量搜索每个别名的状态
const (
	StatusFound     = "found"
	StatusNoMapping = "no mapping"
	StatusNoDevices = "no devices"
)

// Resolver 别名 -> 目录中的设备行
type Resolver struct {
	index   *AliasIndex
	catalog *Catalog
	byModel map[string][]int // normalized model -> catalog row indexes
}

func NewResolver(index *AliasIndex, catalog *Catalog) *Resolver {
	r := &Resolver{index: index, catalog: catalog, byModel: map[string][]int{}}
	for i, d := range catalog.Devices {
		k := NormalizeAlias(d.Model)
		r.byModel[k] = append(r.byModel[k], i)
	}
	return r
}

// Resolve 别名对应的全部目录行，按目录顺序；未知别名或无设备返回空
func (r *Resolver) Resolve(alias string) []domain.CanonicalDevice {
	models, ok := r.index.Lookup(alias)
	if !ok {
		return nil
	}
	return r.devicesFor(models)
}

func (r *Resolver) devicesFor(models []string) []domain.CanonicalDevice {
	var idx []int
	seen := map[string]struct{}{}
	for _, m := range models {
		k := NormalizeAlias(m)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		idx = append(idx, r.byModel[k]...)
	}
	if len(idx) == 0 {
		return nil
	}
	sort.Ints(idx)
	out := make([]domain.CanonicalDevice, 0, len(idx))
	for _, i := range idx {
		out = append(out, r.catalog.Devices[i])
	}
	return out
}

// MatchedRow 批量结果中的一行：搜索词 + 目录行
type MatchedRow struct {
	Alias  string
	Device domain.CanonicalDevice
}

// AliasSummary 单个搜索词的汇总
type AliasSummary struct {
	Alias        string `json:"search_term"`
	Status       string `json:"status"`
	DevicesFound int    `json:"devices_found"`
}

// BatchResult 批量搜索结果
type BatchResult struct {
	Rows    []MatchedRow
	Summary []AliasSummary
}

// Counts 每种状态的别名个数
func (b *BatchResult) Counts() map[string]int {
	out := map[string]int{StatusFound: 0, StatusNoMapping: 0, StatusNoDevices: 0}
	for _, s := range b.Summary {
		out[s.Status]++
	}
	return out
}

// ResolveBatch 逐个解析，汇总保持输入顺序
func (r *Resolver) ResolveBatch(aliases []string) *BatchResult {
	res := &BatchResult{}
	for _, a := range aliases {
		a = strings.TrimSpace(a)
		models, ok := r.index.Lookup(a)
		if !ok {
			res.Summary = append(res.Summary, AliasSummary{Alias: a, Status: StatusNoMapping})
			continue
		}
		devs := r.devicesFor(models)
		if len(devs) == 0 {
			res.Summary = append(res.Summary, AliasSummary{Alias: a, Status: StatusNoDevices})
			continue
		}
		for _, d := range devs {
			res.Rows = append(res.Rows, MatchedRow{Alias: a, Device: d})
		}
		res.Summary = append(res.Summary, AliasSummary{Alias: a, Status: StatusFound, DevicesFound: len(devs)})
	}
	return res
}

// ParseAliasList 每行一个别名，忽略空行
func ParseAliasList(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}
