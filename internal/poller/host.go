package poller

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/site-exporter/internal/metrics"
)

// hostStats 采集端主机自身指标，每轮周期末刷新一次。
// 读取失败静默跳过：主机自观测不能影响设备轮询
type hostStats struct {
	cpuUsage  prometheus.Gauge
	load1     prometheus.Gauge
	load5     prometheus.Gauge
	memoryUse prometheus.Gauge
}

func newHostStats(factory *metrics.MetricFactory) *hostStats {
	return &hostStats{
		cpuUsage:  factory.NewHostCPUUsageRatio(),
		load1:     factory.NewHostLoad1(),
		load5:     factory.NewHostLoad5(),
		memoryUse: factory.NewHostMemoryUsedRatio(),
	}
}

func (h *hostStats) refresh() {
	if usage, err := cpu.Percent(0, false); err == nil && len(usage) > 0 {
		h.cpuUsage.Set(usage[0] / 100)
	}
	if avg, err := load.Avg(); err == nil {
		h.load1.Set(avg.Load1)
		h.load5.Set(avg.Load5)
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		h.memoryUse.Set(vm.UsedPercent / 100)
	}
}
