package registers

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/site-exporter/internal/collector"
	"github.com/site-exporter/internal/inventory"
	"github.com/site-exporter/internal/metrics"
	"github.com/site-exporter/internal/normalize"
	"github.com/site-exporter/internal/poller"
	"github.com/site-exporter/internal/sink"
	"github.com/site-exporter/pkg/config"
	"github.com/site-exporter/pkg/logger"
)

// Module 采集器模块描述（开关控制 + 统一注册入口，新增协议只加一条）
type Module struct {
	Enabled bool
	Name    string
	NewFunc func() collector.Collector
}

// InitPromRegistry 组装全部采集面并启动轮询
// promReg	*prometheus.Registry	指标注册器，交给 HTTP endpoint 暴露 metrics 或做单元测试
// sched	*poller.Scheduler	轮询调度器，已在后台按周期运行
// nil	    error	            初始化成功时返回 nil，组装失败则返回具体错误
func InitPromRegistry(ctx context.Context, enableProcess bool, cfg *config.Config) (*prometheus.Registry, *poller.Scheduler, error) {
	// 1. 初始化Prometheus指标注册器（禁用Go指标）
	promReg := prometheus.NewRegistry()
	// 仅注册进程指标（可选），不注册Go指标
	if enableProcess {
		promReg.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	}

	reg := metrics.NewPromRegistry(promReg)
	factory := metrics.NewMetricFactory(reg)

	// 2. 加载清单与映射模式（启动时一次，运行期只读）
	inv, err := inventory.Load(&cfg.Inventory)
	if err != nil {
		return nil, nil, err
	}
	schema := normalize.FromConfig(&cfg.Schemas.Scrape)

	// 3. 目录预注册：规范指标名在首轮采集前全部就位，未注册名发布时拒绝
	names := CatalogNames(inv, schema, cfg.Schemas.SNMP)
	snk, err := sink.NewPromSink(reg, names)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("metric catalog registered",
		zap.Int("canonical_names", len(names)),
		zap.Int("sites", len(inv.Sites())))
	logger.Debug("metric catalog contents", zap.Strings("names", snk.Names()))

	// 4. 按清单里实际出现的设备类型启用采集器
	cols, err := RegisterCollectors(cfg, inv)
	if err != nil {
		logger.Error("failed to register collectors", zap.Error(err))
		return nil, nil, err
	}

	// 5. 调度器装配并后台启动
	sched, err := poller.NewScheduler(inv, cols, schema, snk, cfg.Poller.Interval, cfg.Poller.HostStats, factory)
	if err != nil {
		return nil, nil, err
	}
	go sched.Run(ctx)

	return promReg, sched, nil
}

// RegisterCollectors 采集器注册统一入口（扩展仅需在 modules 列表添加一条）
func RegisterCollectors(cfg *config.Config, inv *inventory.Inventory) ([]collector.Collector, error) {
	used := kindsInUse(inv)

	modules := []Module{
		{
			Enabled: used[inventory.KindScrape],
			Name:    "scrape",
			NewFunc: func() collector.Collector {
				return collector.NewScrapeCollector(cfg.Poller.Scrape)
			},
		},
		{
			Enabled: used[inventory.KindSNMP],
			Name:    "snmp",
			NewFunc: func() collector.Collector {
				return collector.NewSNMPCollector(cfg.Poller.SNMP, cfg.Schemas.SNMP)
			},
		},
	}

	var registered []collector.Collector
	for _, m := range modules {
		if m.Enabled {
			c := m.NewFunc()
			registered = append(registered, c)
			logger.Debug("registered collector", zap.String("name", m.Name))
		} else {
			logger.Debug("collector not needed by inventory", zap.String("name", m.Name))
		}
	}
	if len(registered) == 0 {
		return nil, fmt.Errorf("no collectors enabled; check inventory device kinds")
	}

	var enabledNames []string
	for _, c := range registered {
		enabledNames = append(enabledNames, c.Name())
	}
	logger.Debug("all enabled collectors registered", zap.Strings("enabled_collectors", enabledNames))

	return registered, nil
}

// CatalogNames 清单 × 映射模式 → 规范指标名全集。
// 排除集中的名字永不进目录；站点名作前缀，跨站点天然不冲突
func CatalogNames(inv *inventory.Inventory, schema normalize.Schema, oids []config.OIDConfig) []string {
	excluded := make(map[string]bool, len(schema.Exclude))
	for _, suffix := range schema.Exclude {
		excluded[suffix] = true
	}

	var names []string
	for _, site := range inv.Sites() {
		hasScrape, hasSNMP := false, false
		for _, dev := range site.Devices {
			switch dev.Kind {
			case inventory.KindScrape:
				hasScrape = true
			case inventory.KindSNMP:
				hasSNMP = true
			}
		}
		if hasScrape {
			for _, suffix := range schema.Suffixes {
				if !excluded[suffix] {
					names = append(names, site.Name+"_"+suffix)
				}
			}
		}
		if hasSNMP {
			for _, o := range oids {
				names = append(names, site.Name+"_"+o.Name)
			}
		}
	}
	return names
}

func kindsInUse(inv *inventory.Inventory) map[inventory.DeviceKind]bool {
	used := make(map[inventory.DeviceKind]bool)
	for _, site := range inv.Sites() {
		for _, dev := range site.Devices {
			used[dev.Kind] = true
		}
	}
	return used
}
