package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry 接口隔离 Prometheus 的默认实现，便于单测 mock，避免业务依赖具体实现
type Registry interface {
	prometheus.Registerer                          // 嵌入 Prometheus 官方注册器接口
	Register(collector prometheus.Collector) error // 自定义扩展方法
}

// promRegistry Prometheus 实现，内部包裹官方的 *prometheus.Registry
type promRegistry struct {
	registry *prometheus.Registry
}

// NewPromRegistry 创建 Prometheus 指标注册器
func NewPromRegistry(registry *prometheus.Registry) Registry {
	return &promRegistry{registry: registry}
}

// MustRegister 实现 prometheus.Registerer
func (p *promRegistry) MustRegister(collectors ...prometheus.Collector) {
	for _, c := range collectors {
		if err := p.registry.Register(c); err != nil {
			panic(err)
		}
	}
}

// Unregister 实现 prometheus.Registerer
func (p *promRegistry) Unregister(collector prometheus.Collector) bool {
	return p.registry.Unregister(collector)
}

// Register 实现自定义 Registry 接口
func (p *promRegistry) Register(collector prometheus.Collector) error {
	return p.registry.Register(collector)
}

// MetricFactory 指标工厂，统一创建采集器自身的可观测指标
type MetricFactory struct {
	reg Registry
}

// NewMetricFactory 创建指标工厂
func NewMetricFactory(reg Registry) *MetricFactory {
	return &MetricFactory{reg: reg}
}
