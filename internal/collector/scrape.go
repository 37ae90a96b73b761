package collector

import (
	"context"
	"fmt"
	"strings"

	"github.com/chromedp/chromedp"

	"github.com/site-exporter/internal/inventory"
	"github.com/site-exporter/pkg/config"
)

// ScrapeCollector 页面渲染采集器：headless 浏览器渲染设备首页，
// 读取两个内容块（class 匹配）的文本。远端站点链路差、挂死常见，
// 浏览器会话必须在每次采集结束时释放，否则几轮之后本机进程就会耗尽
type ScrapeCollector struct {
	name string
	cfg  config.ScrapeConfig
}

// NewScrapeCollector 创建页面渲染采集器
func NewScrapeCollector(cfg config.ScrapeConfig) *ScrapeCollector {
	return &ScrapeCollector{
		name: "scrape-collector",
		cfg:  cfg,
	}
}

func (c *ScrapeCollector) Name() string {
	return c.name
}

func (c *ScrapeCollector) Kind() inventory.DeviceKind {
	return inventory.KindScrape
}

// Collect 渲染 http://{address}/ 并等待两个内容块出现（上限 WaitCeiling）。
// 分类规则：无论导航中还是等待渲染中，等待上限耗尽一律按不可达计；
// 设备已应答但内容块缺失按结构错误计。
// 任何退出路径都会 cancel 浏览器上下文，会话不跨 attempt 存活
func (c *ScrapeCollector) Collect(ctx context.Context, device inventory.Device, site string) ([]Field, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.WaitCeiling)
	defer cancel()

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, chromedp.DefaultExecAllocatorOptions[:]...)
	defer allocCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	url := "http://" + device.Address + "/"
	if err := chromedp.Run(browserCtx, chromedp.Navigate(url)); err != nil {
		if isTimeout(err) {
			return nil, newPollError(KindConnectivityTimeout, site, device.Name, err)
		}
		return nil, newPollError(KindProtocolError, site, device.Name, err)
	}

	// 等待两个内容块渲染出来
	pred := fmt.Sprintf(`document.getElementsByClassName(%q).length >= 2`, c.cfg.TileClass)
	if err := chromedp.Run(browserCtx, chromedp.Poll(pred, nil)); err != nil {
		return nil, classifyWaitError(site, device.Name, c.cfg.TileClass, err)
	}

	var blocks []string
	expr := fmt.Sprintf(`Array.from(document.getElementsByClassName(%q)).map(el => el.innerText)`, c.cfg.TileClass)
	if err := chromedp.Run(browserCtx, chromedp.Evaluate(expr, &blocks)); err != nil {
		return nil, newPollError(KindProtocolError, site, device.Name, err)
	}
	if len(blocks) < 2 {
		return nil, newPollError(KindStructureError, site, device.Name,
			fmt.Errorf("expected 2 content blocks, got %d", len(blocks)))
	}

	return valueLines(blocks[0], blocks[1]), nil
}

// classifyWaitError 等待内容块期间的失败分类：等待上限耗尽（含等待中途到点）
// 一律按不可达计，链路慢到渲染不完和设备不应答对轮询是同一种失败；
// 其余失败说明设备已应答但页面缺少预期结构，按结构错误计
func classifyWaitError(site, device, tileClass string, err error) error {
	if isTimeout(err) {
		return newPollError(KindConnectivityTimeout, site, device, err)
	}
	return newPollError(KindStructureError, site, device,
		fmt.Errorf("content blocks %q not rendered: %w", tileClass, err))
}

// valueLines 两块文本按「第一块、第二块」顺序拼接行序列，
// 行序列为标签/值交替，从下标1起隔行取值，只保留值行（保持原顺序）
func valueLines(first, second string) []Field {
	lines := append(splitLines(first), splitLines(second)...)
	fields := make([]Field, 0, len(lines)/2)
	for i := 1; i < len(lines); i += 2 {
		fields = append(fields, Field{Text: lines[i]})
	}
	return fields
}

func splitLines(s string) []string {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return nil
	}
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, "\r")
	}
	return lines
}
