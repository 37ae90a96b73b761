package config

import (
	"fmt"
	"strings"
)

//Validate 规则说明
//规则	说明
//站点名	非空、不重复、可作指标名前缀（字母/数字/下划线）
//设备	非空、站内不重复、kind 必须有对应映射模式
//scrape 后缀	非空、不重复；exclude 必须是后缀的子集
//snmp OID	名称不重复、OID 必须为点分数字格式

// Validate 清单与映射模式联合校验（清单里出现的 kind 必须有完整的模式定义）
func (inv *InventoryConfig) Validate(schemas *SchemaConfig) error {
	if err := valid.Struct(inv); err != nil {
		return err
	}

	usedKinds := map[string]bool{}
	seenSite := map[string]bool{}
	for _, site := range inv.Sites {
		if !validMetricToken(site.Name) {
			return fmt.Errorf("inventory: site name %q must contain only letters, digits and underscores", site.Name)
		}
		if seenSite[site.Name] {
			return fmt.Errorf("inventory: duplicate site name %q", site.Name)
		}
		seenSite[site.Name] = true

		seenDevice := map[string]bool{}
		for _, dev := range site.Devices {
			if seenDevice[dev.Name] {
				return fmt.Errorf("inventory: site %q has duplicate device name %q", site.Name, dev.Name)
			}
			seenDevice[dev.Name] = true
			if strings.TrimSpace(dev.Address) == "" {
				return fmt.Errorf("inventory: device %s/%s has empty address", site.Name, dev.Name)
			}
			usedKinds[dev.Kind] = true
		}
	}

	// 	清单用到的 kind 必须有模式，缺失属配置错误，启动期即拒绝
	if usedKinds["scrape"] {
		if err := schemas.Scrape.validate(); err != nil {
			return err
		}
	}
	if usedKinds["snmp"] {
		if err := validateOIDs(schemas.SNMP); err != nil {
			return err
		}
	}
	return inv.validateCatalog(schemas)
}

// validateCatalog 同一站点同时有 scrape 与 snmp 设备时，snmp 名不能与
// scrape 后缀撞车：普通后缀撞车会让两路读数写进同一个 gauge，
// 被排除的后缀撞车则会让 snmp 指标注册进目录却被排除集永久拦下
func (inv *InventoryConfig) validateCatalog(schemas *SchemaConfig) error {
	excluded := map[string]bool{}
	for _, ex := range schemas.Scrape.Exclude {
		excluded[ex] = true
	}
	suffixes := map[string]bool{}
	for _, suffix := range schemas.Scrape.Suffixes {
		suffixes[suffix] = true
	}
	for _, site := range inv.Sites {
		kinds := map[string]bool{}
		for _, dev := range site.Devices {
			kinds[dev.Kind] = true
		}
		if !kinds["scrape"] || !kinds["snmp"] {
			continue
		}
		for _, o := range schemas.SNMP {
			if !suffixes[o.Name] {
				continue
			}
			if excluded[o.Name] {
				return fmt.Errorf("inventory: site %q snmp name %q matches an excluded scrape suffix and could never be published", site.Name, o.Name)
			}
			return fmt.Errorf("inventory: site %q maps both schemas onto metric name %q", site.Name, o.Name)
		}
	}
	return nil
}

func (s *ScrapeSchemaConfig) validate() error {
	if err := valid.Struct(s); err != nil {
		return err
	}
	seen := map[string]bool{}
	for _, suffix := range s.Suffixes {
		if !validMetricToken(suffix) {
			return fmt.Errorf("schemas.scrape.suffixes: %q must contain only letters, digits and underscores", suffix)
		}
		if seen[suffix] {
			return fmt.Errorf("schemas.scrape.suffixes: duplicate entry %q", suffix)
		}
		seen[suffix] = true
	}
	// 	exclude 必须引用已声明的后缀，防止排除名写错却静默无效
	for _, ex := range s.Exclude {
		if !seen[ex] {
			return fmt.Errorf("schemas.scrape.exclude: %q is not a declared suffix", ex)
		}
	}
	return nil
}

func validateOIDs(oids []OIDConfig) error {
	if len(oids) == 0 {
		return fmt.Errorf("schemas.snmp: at least one OID required when snmp devices are configured")
	}
	seen := map[string]bool{}
	for _, o := range oids {
		if !validMetricToken(o.Name) {
			return fmt.Errorf("schemas.snmp: name %q must contain only letters, digits and underscores", o.Name)
		}
		if seen[o.Name] {
			return fmt.Errorf("schemas.snmp: duplicate name %q", o.Name)
		}
		seen[o.Name] = true
		if !validDottedOID(o.OID) {
			return fmt.Errorf("schemas.snmp: OID %q is not a dotted numeric identifier", o.OID)
		}
	}
	return nil
}

// validMetricToken 站点名与后缀会拼进 Prometheus 指标名，只放行安全字符
func validMetricToken(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if !(c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9') {
			return false
		}
	}
	// 	指标名不能以数字开头
	return !(s[0] >= '0' && s[0] <= '9')
}

func validDottedOID(s string) bool {
	s = strings.TrimPrefix(s, ".")
	if s == "" {
		return false
	}
	for _, part := range strings.Split(s, ".") {
		if part == "" {
			return false
		}
		for _, c := range part {
			if c < '0' || c > '9' {
				return false
			}
		}
	}
	return true
}
