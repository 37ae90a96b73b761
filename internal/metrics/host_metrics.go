package metrics

import "github.com/prometheus/client_golang/prometheus"

// 采集端主机自身指标：headless 浏览器很吃资源，
// 运维需要在同一个 /metrics 里看到采集端是否快被拖垮

// NewHostCPUUsageRatio 主机CPU使用率
func (m *MetricFactory) NewHostCPUUsageRatio() prometheus.Gauge {
	g := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "exporter_host_cpu_usage_ratio",
		Help: "CPU usage ratio of the exporter host",
	})
	m.reg.MustRegister(g)
	return g
}

// NewHostLoad1 1分钟负载
func (m *MetricFactory) NewHostLoad1() prometheus.Gauge {
	g := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "exporter_host_load1",
		Help: "1 minute load average of the exporter host",
	})
	m.reg.MustRegister(g)
	return g
}

// NewHostLoad5 5分钟负载
func (m *MetricFactory) NewHostLoad5() prometheus.Gauge {
	g := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "exporter_host_load5",
		Help: "5 minute load average of the exporter host",
	})
	m.reg.MustRegister(g)
	return g
}

// NewHostMemoryUsedRatio 主机内存使用率
func (m *MetricFactory) NewHostMemoryUsedRatio() prometheus.Gauge {
	g := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "exporter_host_memory_used_ratio",
		Help: "Memory used ratio of the exporter host",
	})
	m.reg.MustRegister(g)
	return g
}
