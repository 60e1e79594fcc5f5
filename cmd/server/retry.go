package main

import (
	"context"
	"time"

	"github.com/wfunc/raja-mantri/internal/errors"
	"github.com/wfunc/raja-mantri/internal/game"
	"go.uber.org/zap"
)

// 存储连接的启动重试参数
const (
	storeOpenAttempts = 5
	storeRetryDelay   = 2 * time.Second
)

// openWithRetry 打开存储，连接类错误按固定间隔重试，其余错误立即返回
func openWithRetry(ctx context.Context, attempts int, delay time.Duration, log *zap.Logger, open func() (game.Store, error)) (game.Store, error) {
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		store, err := open()
		if err == nil {
			return store, nil
		}
		lastErr = err
		if !errors.IsRetryable(err) || attempt == attempts {
			break
		}

		log.Warn("打开存储失败，稍后重试",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", attempts),
			zap.Duration("delay", delay),
			zap.Error(err),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, errors.Wrap(lastErr, errors.ErrDatabaseConnect, "等待重试时服务已停止")
		case <-timer.C:
		}
	}
	return nil, lastErr
}
