package weakbus

import (
	pkgif "github.com/dep2p/go-leaklab/pkg/interfaces"
	"go.uber.org/fx"
)

// Result Fx 模块输出结果
type Result struct {
	fx.Out

	Aggregator     *Aggregator
	WeakAggregator pkgif.WeakAggregator
}

// Module 返回 Fx 模块
func Module() fx.Option {
	return fx.Module("weakbus",
		fx.Provide(ProvideAggregator),
	)
}

// ProvideAggregator 提供聚合器实例
func ProvideAggregator() Result {
	a := NewAggregator()
	return Result{
		Aggregator:     a,
		WeakAggregator: a,
	}
}
