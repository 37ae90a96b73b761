package normalize

import (
	"regexp"
	"strconv"

	"github.com/site-exporter/internal/collector"
	"github.com/site-exporter/pkg/config"
)

// numberPattern 数值提取：可选符号、可选整数位、可选小数部分，取首个匹配
var numberPattern = regexp.MustCompile(`[-+]?[0-9]*\.?[0-9]+`)

// Schema scrape 设备的固定位置映射：第 i 个值字段对应第 i 个后缀
type Schema struct {
	Suffixes []string
	Exclude  []string
}

// FromConfig 从配置构建 Schema
func FromConfig(cfg *config.ScrapeSchemaConfig) Schema {
	return Schema{
		Suffixes: append([]string(nil), cfg.Suffixes...),
		Exclude:  append([]string(nil), cfg.Exclude...),
	}
}

// ExclusionSet 站点前缀化的排除名集合（离散状态字段不作数值指标发布）
func (s Schema) ExclusionSet(site string) map[string]struct{} {
	set := make(map[string]struct{}, len(s.Exclude))
	for _, suffix := range s.Exclude {
		set[site+"_"+suffix] = struct{}{}
	}
	return set
}

// Normalize 原始字段 → 规范指标映射。
// 位置字段按 Schema 逐位取后缀（值比后缀少时静默截断尾部后缀，不算错误）；
// 具名字段直接用自带名。无数值匹配的字段丢弃，绝不带病转发。
// 键统一加 {site}_ 前缀，最后剔除排除集中的键
func Normalize(site string, fields []collector.Field, schema Schema, exclusions map[string]struct{}) map[string]float64 {
	out := make(map[string]float64, len(fields))
	pos := 0
	for _, f := range fields {
		suffix := f.Name
		if suffix == "" {
			if pos >= len(schema.Suffixes) {
				break
			}
			suffix = schema.Suffixes[pos]
			pos++
		}

		value, ok := extractNumber(f.Text)
		if !ok {
			// 解析失败只影响本字段，兄弟字段照常发布
			continue
		}
		out[site+"_"+suffix] = value
	}

	for name := range exclusions {
		delete(out, name)
	}
	return out
}

// extractNumber 取字段文本中第一个数值；无匹配视为缺值
func extractNumber(text string) (float64, bool) {
	m := numberPattern.FindString(text)
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
