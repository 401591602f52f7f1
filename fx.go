package leaklab

import (
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/dep2p/go-leaklab/internal/core/eventbus"
	"github.com/dep2p/go-leaklab/internal/core/gcwatch"
	"github.com/dep2p/go-leaklab/internal/core/weakbus"
	"github.com/dep2p/go-leaklab/internal/debug/introspect"
	"github.com/dep2p/go-leaklab/internal/demo"
)

// buildFxApp 构建 Fx 应用
//
// 加载顺序（按依赖）：
//  1. 配置注入
//  2. Core: EventBus → WeakBus → GCWatch
//  3. Demo: Census → Harness → Monitor
//  4. Debug: Introspect（按配置启用）
func buildFxApp(cfg *labConfig, lab *Lab) (*fx.App, error) {
	if err := cfg.config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	modules := []fx.Option{
		fx.Supply(cfg.config),

		eventbus.Module(),
		weakbus.Module(),
		gcwatch.Module(),

		demo.Module(),
	}

	if cfg.reporter != nil {
		reporter := cfg.reporter
		modules = append(modules, fx.Provide(func() demo.Reporter { return reporter }))
	}

	if cfg.config.Diagnostics.EnableIntrospect {
		modules = append(modules, introspect.Module())
	}

	if len(cfg.userFxOptions) > 0 {
		modules = append(modules, cfg.userFxOptions...)
	}

	modules = append(modules,
		fx.Invoke(injectLabComponents(lab)),
		// 禁用 Fx 日志输出（避免干扰用户日志）
		fx.WithLogger(func() fxevent.Logger {
			return &fxevent.ZapLogger{Logger: zap.NewNop()}
		}),
	)

	app := fx.New(modules...)
	if err := app.Err(); err != nil {
		return nil, err
	}
	return app, nil
}

// labInjectParams Lab 组件注入参数
type labInjectParams struct {
	fx.In

	Harness    *demo.Harness
	Monitor    *demo.Monitor
	Aggregator *weakbus.Aggregator
	Emitters   *eventbus.Publisher `name:"emitters"`
	Listeners  *eventbus.Publisher `name:"listeners"`
	Watchdog   *gcwatch.Watchdog

	IntrospectServer *introspect.Server `optional:"true"`
}

// injectLabComponents 创建 Lab 组件注入函数
func injectLabComponents(lab *Lab) interface{} {
	return func(params labInjectParams) {
		lab.harness = params.Harness
		lab.monitor = params.Monitor
		lab.aggregator = params.Aggregator
		lab.emitters = params.Emitters
		lab.listeners = params.Listeners
		lab.watchdog = params.Watchdog
		lab.introspectServer = params.IntrospectServer
	}
}
