package inventory

import (
	"fmt"

	"github.com/site-exporter/pkg/config"
)

// DeviceKind 协议类型（封闭集合，按类型派发采集器）
type DeviceKind string

const (
	KindScrape DeviceKind = "scrape" // 页面渲染采集
	KindSNMP   DeviceKind = "snmp"   // SNMP 查询采集
)

// Device 站点内的单个被监控设备
type Device struct {
	Name    string
	Kind    DeviceKind
	Address string
}

// Site 单个物理站点（设备有序，按清单顺序轮询）
type Site struct {
	Name    string
	Devices []Device
}

// Inventory 站点清单，启动时从配置加载一次，运行期只读
type Inventory struct {
	sites []Site
}

// Load 从配置构建清单（顺序保持配置文件中的声明顺序）
func Load(cfg *config.InventoryConfig) (*Inventory, error) {
	if len(cfg.Sites) == 0 {
		return nil, fmt.Errorf("inventory: no sites configured")
	}
	sites := make([]Site, 0, len(cfg.Sites))
	for _, sc := range cfg.Sites {
		devices := make([]Device, 0, len(sc.Devices))
		for _, dc := range sc.Devices {
			kind := DeviceKind(dc.Kind)
			switch kind {
			case KindScrape, KindSNMP:
			default:
				return nil, fmt.Errorf("inventory: device %s/%s has unknown kind %q", sc.Name, dc.Name, dc.Kind)
			}
			devices = append(devices, Device{
				Name:    dc.Name,
				Kind:    kind,
				Address: dc.Address,
			})
		}
		sites = append(sites, Site{Name: sc.Name, Devices: devices})
	}
	return &Inventory{sites: sites}, nil
}

// Sites 返回副本，避免外部修改
func (inv *Inventory) Sites() []Site {
	copied := make([]Site, len(inv.sites))
	copy(copied, inv.sites)
	return copied
}

// DeviceCount 清单内设备总数
func (inv *Inventory) DeviceCount() int {
	n := 0
	for _, s := range inv.sites {
		n += len(s.Devices)
	}
	return n
}
