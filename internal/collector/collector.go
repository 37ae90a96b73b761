package collector

import (
	"context"

	"github.com/site-exporter/internal/inventory"
)

// Field 一条原始读数。scrape 采集为位置序（Name 为空，由 schema 按位映射），
// snmp 采集自带声明名（OID 表里的指标后缀）
type Field struct {
	Name string
	Text string
}

// Collector 协议采集器核心接口（每种设备类型一个实现）
// 约定：出错时返回零字段（不回传半截结果）；采集期间占用的网络资源
// （浏览器会话/UDP套接字）不得跨一次采集 attempt 存活
type Collector interface {
	Name() string                                                                      // 采集器名称（唯一标识）
	Kind() inventory.DeviceKind                                                        // 服务的设备类型
	Collect(ctx context.Context, device inventory.Device, site string) ([]Field, error) // 采集一台设备
}
