package sink

import (
	"errors"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/site-exporter/internal/metrics"
)

// ErrNotInCatalog 发布了目录中未注册的指标名（配置错误，跳过不致命）
var ErrNotInCatalog = errors.New("metric name not registered in catalog")

// Sink 幂等的「按名设值」写入口，注册表的唯一写面
type Sink interface {
	Publish(name string, value float64) error
}

// PromSink Prometheus 注册表适配器。目录在首轮采集前预注册完毕，
// 运行期只读目录、写 Gauge；同一轮内跨设备并发 Publish 安全
type PromSink struct {
	mu     sync.RWMutex
	gauges map[string]prometheus.Gauge
}

// NewPromSink 按目录名单预注册 Gauge（覆盖语义：每名只保留最近一次发布值）
func NewPromSink(reg metrics.Registry, names []string) (*PromSink, error) {
	gauges := make(map[string]prometheus.Gauge, len(names))
	for _, name := range names {
		if _, dup := gauges[name]; dup {
			return nil, fmt.Errorf("sink: duplicate canonical metric name %q", name)
		}
		g := prometheus.NewGauge(prometheus.GaugeOpts{
			Name: name,
			Help: "Telemetry reading " + name,
		})
		if err := reg.Register(g); err != nil {
			return nil, fmt.Errorf("sink: register %q: %w", name, err)
		}
		gauges[name] = g
	}
	return &PromSink{gauges: gauges}, nil
}

// Publish 设置指标当前值。未注册名返回 ErrNotInCatalog，由调用方上报并跳过
func (s *PromSink) Publish(name string, value float64) error {
	s.mu.RLock()
	g, ok := s.gauges[name]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotInCatalog, name)
	}
	g.Set(value)
	return nil
}

// Names 目录内全部规范指标名（测试与启动日志用）
func (s *PromSink) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.gauges))
	for name := range s.gauges {
		names = append(names, name)
	}
	return names
}
