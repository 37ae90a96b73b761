package exporter

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/site-exporter/internal/registers"
	"github.com/site-exporter/internal/server"
	"github.com/site-exporter/pkg/config"
	"github.com/site-exporter/pkg/logger"
	"github.com/site-exporter/pkg/signal"
	"github.com/site-exporter/pkg/util"
)

var (
	cfgFile   string
	GlobalCfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "site-exporter",
	Short: "Multi-protocol telemetry poller for remote sites (scrape/snmp) with Prometheus exposition",
	RunE: func(cmd *cobra.Command, args []string) error {
		var err error
		GlobalCfg, err = config.LoadConfigWithCli(cmd)
		if err != nil {
			// 统一输出错误到 stderr，不返回给 cobra
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			fmt.Fprintf(os.Stderr, "请检查配置文件路径或使用 -c 参数指定\n")
			os.Exit(1)
		}
		if err := runExporter(cmd.Context(), GlobalCfg); err != nil {
			fmt.Fprintf(os.Stderr, "服务启动失败: %v\n", err)
			os.Exit(1)
		}
		return nil
	},
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "configs/config.yaml", "配置文件路径")
	// 注册分组 flag
	initServerFlags(rootCmd)
	initPollerFlags(rootCmd)
	initLogFlags(rootCmd)
}

func runExporter(ctx context.Context, cfg *config.Config) error {
	// 初始化日志
	log, err := logger.InitLogger(&cfg.Log)
	if err != nil {
		return fmt.Errorf("日志初始化失败: %w", err)
	}
	defer logger.Sync()

	util.PrintBanner("site-exporter", util.ColorBlue)
	logger.Info("configuration loaded",
		zap.String("config", cfgFile),
		zap.Duration("poll_interval", cfg.Poller.Interval),
		zap.Int("sites", len(cfg.Inventory.Sites)))

	// 轮询生命周期独立于单次请求，随进程退出取消
	pollCtx, pollCancel := context.WithCancel(ctx)
	defer pollCancel()

	const enableProcess = true
	registry, _, err := registers.InitPromRegistry(pollCtx, enableProcess, cfg)
	if err != nil {
		return fmt.Errorf("init registry failed: %w", err)
	}

	httpServer := server.NewHTTPServer(cfg, log, registry)
	if err := httpServer.Start(); err != nil {
		return fmt.Errorf("start HTTP server failed: %w", err)
	}

	signal.WaitForShutdown(log, func() error {
		// 关闭顺序：停止轮询 → 关闭HTTP服务
		pollCancel()
		if err := httpServer.Shutdown(); err != nil {
			return fmt.Errorf("shutdown HTTP server failed: %w", err)
		}
		logger.Info("all services shutdown successfully")
		return nil
	})
	return nil
}
