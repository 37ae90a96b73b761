package exporter

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func initPollerFlags(root *cobra.Command) {
	f := root.PersistentFlags()

	f.Duration("poller.interval", defaultCfg.Poller.Interval, "轮询周期间隔（cycle-end 到 cycle-start）")
	f.Bool("poller.host-stats", defaultCfg.Poller.HostStats, "暴露采集端主机自身指标")

	f.Duration("poller.scrape.wait-ceiling", defaultCfg.Poller.Scrape.WaitCeiling, "页面渲染等待上限")
	f.String("poller.scrape.tile-class", defaultCfg.Poller.Scrape.TileClass, "页面内容块CSS类名")

	f.String("poller.snmp.community", defaultCfg.Poller.SNMP.Community, "SNMP community")
	f.Uint16("poller.snmp.port", defaultCfg.Poller.SNMP.Port, "SNMP端口")
	f.Duration("poller.snmp.timeout", defaultCfg.Poller.SNMP.Timeout, "SNMP单次请求超时")
	f.Int("poller.snmp.retries", defaultCfg.Poller.SNMP.Retries, "SNMP重试次数")

	err := viper.BindPFlags(f)
	if err != nil {
		return
	}
}
