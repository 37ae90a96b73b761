package metrics

import "github.com/prometheus/client_golang/prometheus"

// NewPollErrorsTotal 创建「设备采集错误总数」指标
// 指标类型：Counter - 仅支持单调递增，服务重启后会重置为0
// 标签说明：
//
//	site: 站点标识
//	device: 设备标识
//	reason: 错误分类（connectivity_timeout/protocol_error/structure_error/configuration_error）
func (m *MetricFactory) NewPollErrorsTotal() *prometheus.CounterVec {
	c := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "poll_errors_total",
		Help: "Total poll errors per device, by classified reason",
	}, []string{"site", "device", "reason"})
	m.reg.MustRegister(c)
	return c
}

// NewPollDurationSeconds 创建「单设备采集耗时分布」指标
// 远端链路延迟从亚秒到分钟级都有，分桶覆盖到渲染等待上限的量级
func (m *MetricFactory) NewPollDurationSeconds() *prometheus.HistogramVec {
	h := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "poll_duration_seconds",
		Help:    "Poll attempt duration per device",
		Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 20, 45, 90, 180},
	}, []string{"site", "device"})
	m.reg.MustRegister(h)
	return h
}

// NewCyclesTotal 完整轮询周期计数
func (m *MetricFactory) NewCyclesTotal() prometheus.Counter {
	c := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "poller_cycles_total",
		Help: "Completed full-roster poll cycles",
	})
	m.reg.MustRegister(c)
	return c
}

// NewCycleDurationSeconds 最近一轮周期耗时（慢设备会拉长实际采集周期，靠它观察漂移）
func (m *MetricFactory) NewCycleDurationSeconds() prometheus.Gauge {
	g := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "poller_cycle_duration_seconds",
		Help: "Duration of the most recent poll cycle",
	})
	m.reg.MustRegister(g)
	return g
}
