package app

import (
	"context"
	"fmt"
	"time"

	kcfg "kandle/internal/config"
	"kandle/internal/logger"
	charthttp "kandle/internal/transport/http"

	"golang.org/x/sync/errgroup"
)

// App 负责应用级编排：加载配置→初始化依赖→启动 HTTP 服务与后台清理。
type App struct {
	cfg    *kcfg.Config
	server *charthttp.Server
	closer func()

	clearExpired func() int
}

// NewApp 根据配置构建应用对象（不启动）。
func NewApp(cfg *kcfg.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)
	return buildAppWithWire(context.Background(), cfg)
}

// Run 启动 HTTP 服务与缓存清理循环，直到 ctx 取消。
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.cfg == nil {
		return fmt.Errorf("app not initialized")
	}
	defer a.Close()

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		logger.Infof("chart http server listening on %s", a.server.Addr())
		if err := a.server.Start(ctx); err != nil {
			return fmt.Errorf("chart http server error: %w", err)
		}
		return nil
	})

	group.Go(func() error {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if n := a.clearExpired(); n > 0 {
					logger.Debugf("cache sweep removed %d expired entries", n)
				}
			}
		}
	})

	return group.Wait()
}

// Close 释放存储与数据源资源。
func (a *App) Close() {
	if a == nil || a.closer == nil {
		return
	}
	a.closer()
	a.closer = nil
}
