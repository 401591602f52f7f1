package gcwatch

import (
	"context"

	"go.uber.org/fx"

	"github.com/dep2p/go-leaklab/config"
)

// Module 返回 Fx 模块
func Module() fx.Option {
	return fx.Module("gcwatch",
		fx.Provide(ProvideWatchdog),
		fx.Invoke(registerLifecycle),
	)
}

// ProvideWatchdog 从统一配置创建自动回收器
func ProvideWatchdog(cfg *config.Config) *Watchdog {
	return NewWatchdog(cfg.Collection)
}

func registerLifecycle(lc fx.Lifecycle, w *Watchdog) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			return w.Start()
		},
		OnStop: func(_ context.Context) error {
			return w.Stop()
		},
	})
}
