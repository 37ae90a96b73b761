package signal

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// 关闭回调的最长执行时间，超时后直接退出
const shutdownTimeout = 5 * time.Second

// WaitForShutdown 阻塞等待 SIGINT/SIGTERM，然后执行优雅关闭
func WaitForShutdown(logger *zap.Logger, shutdownFunc func() error) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	logger.Info("received shutdown signal", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	go func() {
		if err := shutdownFunc(); err != nil {
			logger.Error("shutdown failed", zap.Error(err))
		}
		cancel()
	}()

	<-ctx.Done()
	logger.Info("shutdown completed")
}
