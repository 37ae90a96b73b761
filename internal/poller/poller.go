package poller

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/site-exporter/internal/collector"
	"github.com/site-exporter/internal/inventory"
	"github.com/site-exporter/internal/metrics"
	"github.com/site-exporter/internal/normalize"
	"github.com/site-exporter/internal/sink"
	"github.com/site-exporter/pkg/logger"
)

// Scheduler 轮询调度器：按清单顺序逐设备串行采集，单设备故障只影响自己。
// 周期间隔从本轮结束起算（固定间隔而非固定周期），慢设备会后移下一轮——
// 这是已知设计属性，不在调度层补偿
type Scheduler struct {
	inv        *inventory.Inventory
	collectors map[inventory.DeviceKind]collector.Collector
	schema     normalize.Schema
	exclusions map[string]map[string]struct{} // site -> 排除集（启动时预计算）
	sink       sink.Sink
	interval   time.Duration
	host       *hostStats

	pollErrors    *prometheus.CounterVec
	pollDuration  *prometheus.HistogramVec
	cyclesTotal   prometheus.Counter
	cycleDuration prometheus.Gauge
}

// NewScheduler 创建调度器。collectors 按 Kind 构成封闭派发表，同类型重复注册报错
func NewScheduler(
	inv *inventory.Inventory,
	collectors []collector.Collector,
	schema normalize.Schema,
	snk sink.Sink,
	interval time.Duration,
	hostStatsEnabled bool,
	factory *metrics.MetricFactory,
) (*Scheduler, error) {
	byKind := make(map[inventory.DeviceKind]collector.Collector, len(collectors))
	for _, c := range collectors {
		if _, dup := byKind[c.Kind()]; dup {
			return nil, fmt.Errorf("poller: duplicate collector for kind %q", c.Kind())
		}
		byKind[c.Kind()] = c
	}

	exclusions := make(map[string]map[string]struct{})
	for _, site := range inv.Sites() {
		exclusions[site.Name] = schema.ExclusionSet(site.Name)
	}

	s := &Scheduler{
		inv:           inv,
		collectors:    byKind,
		schema:        schema,
		exclusions:    exclusions,
		sink:          snk,
		interval:      interval,
		pollErrors:    factory.NewPollErrorsTotal(),
		pollDuration:  factory.NewPollDurationSeconds(),
		cyclesTotal:   factory.NewCyclesTotal(),
		cycleDuration: factory.NewCycleDurationSeconds(),
	}
	if hostStatsEnabled {
		s.host = newHostStats(factory)
	}
	return s, nil
}

// Run 周期轮询直到 ctx 取消。正常运行不返回
func (s *Scheduler) Run(ctx context.Context) {
	logger.Info("poller started",
		zap.Duration("interval", s.interval),
		zap.Int("sites", len(s.inv.Sites())),
		zap.Int("devices", s.inv.DeviceCount()))

	for {
		s.RunCycle(ctx)

		select {
		case <-ctx.Done():
			logger.Info("poller stopped", zap.Error(ctx.Err()))
			return
		case <-time.After(s.interval):
		}
	}
}

// RunCycle 一轮完整轮询：站点按清单序，站内设备按清单序，逐台串行
func (s *Scheduler) RunCycle(ctx context.Context) {
	start := time.Now()
	for _, site := range s.inv.Sites() {
		for _, device := range site.Devices {
			select {
			case <-ctx.Done():
				return
			default:
			}
			s.pollDevice(ctx, site.Name, device)
		}
	}
	if s.host != nil {
		s.host.refresh()
	}

	elapsed := time.Since(start)
	s.cyclesTotal.Inc()
	s.cycleDuration.Set(elapsed.Seconds())
	logger.Debug("poll cycle completed", zap.Duration("elapsed", elapsed))
}

// pollDevice 单设备采集边界：所有协议错误在这里分类、记账、吞掉，
// 本台失败不影响本轮后续设备
func (s *Scheduler) pollDevice(ctx context.Context, site string, device inventory.Device) {
	defer func() {
		// 采集器内部 panic 同样不允许拖垮整轮
		if r := recover(); r != nil {
			logger.Error("device poll panicked",
				zap.String("site", site),
				zap.String("device", device.Name),
				zap.Any("panic", r))
			s.pollErrors.WithLabelValues(site, device.Name, string(collector.KindProtocolError)).Inc()
		}
	}()

	col, ok := s.collectors[device.Kind]
	if !ok {
		logger.Error("no collector for device kind",
			zap.String("site", site),
			zap.String("device", device.Name),
			zap.String("kind", string(device.Kind)))
		s.pollErrors.WithLabelValues(site, device.Name, string(collector.KindConfigurationError)).Inc()
		return
	}

	start := time.Now()
	fields, err := col.Collect(ctx, device, site)
	elapsed := time.Since(start)
	s.pollDuration.WithLabelValues(site, device.Name).Observe(elapsed.Seconds())

	if err != nil {
		reason := collector.KindOf(err)
		logger.Warn("device poll failed",
			zap.String("site", site),
			zap.String("device", device.Name),
			zap.String("kind", string(device.Kind)),
			zap.String("reason", string(reason)),
			zap.Duration("elapsed", elapsed),
			zap.Error(err))
		s.pollErrors.WithLabelValues(site, device.Name, string(reason)).Inc()
		return
	}

	values := normalize.Normalize(site, fields, s.schema, s.exclusions[site])
	for name, value := range values {
		if err := s.sink.Publish(name, value); err != nil {
			// 目录外的名字属配置错误：上报后跳过，本设备其余指标照常发布
			logger.Error("publish rejected",
				zap.String("site", site),
				zap.String("device", device.Name),
				zap.String("metric", name),
				zap.Error(err))
			s.pollErrors.WithLabelValues(site, device.Name, string(collector.KindConfigurationError)).Inc()
		}
	}

	logger.Debug("device polled",
		zap.String("site", site),
		zap.String("device", device.Name),
		zap.Int("raw_fields", len(fields)),
		zap.Int("published", len(values)),
		zap.Duration("elapsed", elapsed))
}
