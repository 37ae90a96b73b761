package poller_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/site-exporter/internal/collector"
	"github.com/site-exporter/internal/inventory"
	"github.com/site-exporter/internal/metrics"
	"github.com/site-exporter/internal/normalize"
	"github.com/site-exporter/internal/poller"
	"github.com/site-exporter/internal/sink"
	"github.com/site-exporter/pkg/config"
	"github.com/site-exporter/pkg/logger"
)

func TestMain(m *testing.M) {
	_, err := logger.InitLogger(&config.ZapLogConfig{
		Level:   "error",
		Format:  "console",
		Path:    os.TempDir(),
		MaxSize: 10,
		MaxAge:  1,
	})
	if err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// fakeCollector 可编程假采集器，记录被调用的设备
type fakeCollector struct {
	kind   inventory.DeviceKind
	fields []collector.Field
	err    error
	polled []string
}

func (f *fakeCollector) Name() string               { return "fake-" + string(f.kind) }
func (f *fakeCollector) Kind() inventory.DeviceKind { return f.kind }

func (f *fakeCollector) Collect(_ context.Context, device inventory.Device, site string) ([]collector.Field, error) {
	f.polled = append(f.polled, site+"/"+device.Name)
	if f.err != nil {
		return nil, f.err
	}
	return f.fields, nil
}

func loadInventory(t *testing.T, sites ...config.SiteConfig) *inventory.Inventory {
	t.Helper()
	inv, err := inventory.Load(&config.InventoryConfig{Sites: sites})
	require.NoError(t, err)
	return inv
}

// recordingSink 记录发布过的名字再转发，便于断言「未发布」
// （预注册的 Gauge 即使从未 Set 也会以 0 值出现在 Gather 输出里）
type recordingSink struct {
	inner     sink.Sink
	published map[string]float64
}

func (r *recordingSink) Publish(name string, value float64) error {
	if err := r.inner.Publish(name, value); err != nil {
		return err
	}
	r.published[name] = value
	return nil
}

func newHarness(t *testing.T, inv *inventory.Inventory, schema normalize.Schema,
	names []string, cols ...collector.Collector) (*poller.Scheduler, *prometheus.Registry, *recordingSink) {
	t.Helper()
	promReg := prometheus.NewRegistry()
	reg := metrics.NewPromRegistry(promReg)
	snk, err := sink.NewPromSink(reg, names)
	require.NoError(t, err)
	rec := &recordingSink{inner: snk, published: map[string]float64{}}
	sched, err := poller.NewScheduler(inv, cols, schema, rec, time.Minute, false, metrics.NewMetricFactory(reg))
	require.NoError(t, err)
	return sched, promReg, rec
}

func gaugeValue(t *testing.T, reg *prometheus.Registry, name string) (float64, bool) {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() == name {
			return mf.GetMetric()[0].GetGauge().GetValue(), true
		}
	}
	return 0, false
}

func counterSum(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	sum := 0.0
	for _, mf := range families {
		if mf.GetName() == name {
			for _, m := range mf.GetMetric() {
				sum += m.GetCounter().GetValue()
			}
		}
	}
	return sum
}

// 场景A：scrape 设备正常应答，两项指标带站点前缀发布
func TestCycleScrapeHappyPath(t *testing.T) {
	inv := loadInventory(t, config.SiteConfig{
		Name:    "Pine",
		Devices: []config.DeviceConfig{{Name: "Solar", Kind: "scrape", Address: "10.0.0.5"}},
	})
	schema := normalize.Schema{Suffixes: []string{"array_current", "array_voltage"}}
	scrape := &fakeCollector{
		kind:   inventory.KindScrape,
		fields: []collector.Field{{Text: "84 V"}, {Text: "12.1 V"}},
	}

	sched, promReg, _ := newHarness(t, inv, schema,
		[]string{"Pine_array_current", "Pine_array_voltage"}, scrape)
	sched.RunCycle(context.Background())

	current, ok := gaugeValue(t, promReg, "Pine_array_current")
	require.True(t, ok)
	assert.Equal(t, 84.0, current)
	voltage, ok := gaugeValue(t, promReg, "Pine_array_voltage")
	require.True(t, ok)
	assert.Equal(t, 12.1, voltage)
}

// 场景B：结构错误的设备零发布，同轮后续设备照常被尝试
func TestCycleFailureIsolated(t *testing.T) {
	inv := loadInventory(t, config.SiteConfig{
		Name: "Pine",
		Devices: []config.DeviceConfig{
			{Name: "Solar", Kind: "scrape", Address: "10.0.0.5"},
			{Name: "UPS", Kind: "snmp", Address: "10.0.0.6"},
		},
	})
	schema := normalize.Schema{Suffixes: []string{"array_current"}}
	scrape := &fakeCollector{
		kind: inventory.KindScrape,
		err: &collector.PollError{
			Kind: collector.KindStructureError, Site: "Pine", Device: "Solar",
			Err: errors.New("content blocks missing"),
		},
	}
	snmp := &fakeCollector{
		kind:   inventory.KindSNMP,
		fields: []collector.Field{{Name: "battery_voltage", Text: "481"}},
	}

	sched, promReg, rec := newHarness(t, inv, schema,
		[]string{"Pine_array_current", "Pine_battery_voltage"}, scrape, snmp)
	sched.RunCycle(context.Background())

	// 故障设备零发布
	assert.NotContains(t, rec.published, "Pine_array_current")
	// 错误已分类记账
	assert.Equal(t, 1.0, counterSum(t, promReg, "poll_errors_total"))
	// 后续设备未被拖垮
	assert.Equal(t, []string{"Pine/UPS"}, snmp.polled)
	v, ok := gaugeValue(t, promReg, "Pine_battery_voltage")
	require.True(t, ok)
	assert.Equal(t, 481.0, v)
}

// 场景C：3个OID返回2个有值，恰好发布2项带前缀指标
func TestCycleSNMPPartialResponse(t *testing.T) {
	inv := loadInventory(t, config.SiteConfig{
		Name:    "Ridge",
		Devices: []config.DeviceConfig{{Name: "UPS", Kind: "snmp", Address: "10.0.1.6"}},
	})
	// 无值对象在采集层已被跳过，这里模拟其配对输出
	snmp := &fakeCollector{
		kind: inventory.KindSNMP,
		fields: []collector.Field{
			{Name: "battery_voltage", Text: "481"},
			{Name: "load_percent", Text: "17"},
		},
	}

	sched, _, rec := newHarness(t, inv, normalize.Schema{},
		[]string{"Ridge_battery_voltage", "Ridge_battery_temp", "Ridge_load_percent"}, snmp)
	sched.RunCycle(context.Background())

	assert.Equal(t, map[string]float64{
		"Ridge_battery_voltage": 481,
		"Ridge_load_percent":    17,
	}, rec.published)
}

// 设备类型无对应采集器：配置错误记账并跳过，不中断本轮
func TestCycleUnknownKindSkipped(t *testing.T) {
	inv := loadInventory(t, config.SiteConfig{
		Name: "Pine",
		Devices: []config.DeviceConfig{
			{Name: "UPS", Kind: "snmp", Address: "10.0.0.6"},
			{Name: "Solar", Kind: "scrape", Address: "10.0.0.5"},
		},
	})
	schema := normalize.Schema{Suffixes: []string{"array_current"}}
	scrape := &fakeCollector{
		kind:   inventory.KindScrape,
		fields: []collector.Field{{Text: "84"}},
	}

	// 只注册 scrape 采集器，snmp 设备成为无派发目标的配置错误
	sched, promReg, _ := newHarness(t, inv, schema, []string{"Pine_array_current"}, scrape)
	sched.RunCycle(context.Background())

	assert.Equal(t, 1.0, counterSum(t, promReg, "poll_errors_total"))
	assert.Equal(t, []string{"Pine/Solar"}, scrape.polled)
	v, ok := gaugeValue(t, promReg, "Pine_array_current")
	require.True(t, ok)
	assert.Equal(t, 84.0, v)
}

// 发布目录外指标名：上报后跳过，兄弟指标照常发布
func TestCyclePublishOutsideCatalog(t *testing.T) {
	inv := loadInventory(t, config.SiteConfig{
		Name:    "Pine",
		Devices: []config.DeviceConfig{{Name: "Solar", Kind: "scrape", Address: "10.0.0.5"}},
	})
	schema := normalize.Schema{Suffixes: []string{"array_current", "rogue"}}
	scrape := &fakeCollector{
		kind:   inventory.KindScrape,
		fields: []collector.Field{{Text: "84"}, {Text: "1"}},
	}

	// 目录里故意缺 Pine_rogue
	sched, promReg, _ := newHarness(t, inv, schema, []string{"Pine_array_current"}, scrape)
	sched.RunCycle(context.Background())

	v, ok := gaugeValue(t, promReg, "Pine_array_current")
	require.True(t, ok)
	assert.Equal(t, 84.0, v)
	assert.Equal(t, 1.0, counterSum(t, promReg, "poll_errors_total"))
}

// 取消 ctx 后 Run 返回
func TestRunStopsOnContextCancel(t *testing.T) {
	inv := loadInventory(t, config.SiteConfig{
		Name:    "Pine",
		Devices: []config.DeviceConfig{{Name: "Solar", Kind: "scrape", Address: "10.0.0.5"}},
	})
	scrape := &fakeCollector{kind: inventory.KindScrape}
	sched, _, _ := newHarness(t, inv, normalize.Schema{Suffixes: []string{"a"}}, []string{"Pine_a"}, scrape)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		sched.Run(ctx)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after context cancel")
	}
}
