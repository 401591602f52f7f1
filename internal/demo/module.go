package demo

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/fx"

	"github.com/dep2p/go-leaklab/config"
	"github.com/dep2p/go-leaklab/internal/core/eventbus"
	"github.com/dep2p/go-leaklab/internal/core/weakbus"
)

// ============================================================================
// Fx 模块
// ============================================================================

// Module 返回 Fx 模块
func Module() fx.Option {
	return fx.Module("demo",
		fx.Provide(
			NewCensus,
			ProvideRegistry,
			ProvideHarness,
			ProvideMonitor,
		),
		fx.Invoke(registerLifecycle),
	)
}

// ProvideRegistry 创建 Prometheus 注册表并登记计数与运行时指标
func ProvideRegistry(census *Census) (*prometheus.Registry, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if err := census.Register(reg); err != nil {
		return nil, err
	}
	return reg, nil
}

// HarnessParams 窗体依赖参数
type HarnessParams struct {
	fx.In

	Config     *config.Config
	Census     *Census
	Emitters   *eventbus.Publisher `name:"emitters"`
	Listeners  *eventbus.Publisher `name:"listeners"`
	Aggregator *weakbus.Aggregator
}

// ProvideHarness 创建演示窗体
func ProvideHarness(p HarnessParams) *Harness {
	return NewHarness(p.Config.Demo, p.Census, p.Emitters, p.Listeners, p.Aggregator)
}

// MonitorParams 监视器依赖参数
type MonitorParams struct {
	fx.In

	Config   *config.Config
	Harness  *Harness
	Reporter Reporter `optional:"true"`
}

// ProvideMonitor 创建监视器
func ProvideMonitor(p MonitorParams) *Monitor {
	return NewMonitor(p.Harness, p.Config.Demo.RefreshInterval.Duration(), WithReporter(p.Reporter))
}

func registerLifecycle(lc fx.Lifecycle, m *Monitor) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			// 启动上下文在 OnStart 返回后即失效，循环改由 Stop 结束
			return m.Start(context.Background())
		},
		OnStop: func(_ context.Context) error {
			return m.Stop()
		},
	})
}

// ============================================================================
// 模块元信息
// ============================================================================

const (
	// Version 模块版本
	Version = "1.0.0"
	// Name 模块名称
	Name = "demo"
	// Description 模块描述
	Description = "泄漏演示：五种短生命周期对象与创建/存活计数"
)
