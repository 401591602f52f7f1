package eventbus

import "go.uber.org/fx"

// ============================================================================
// Fx 模块
// ============================================================================

// Result Fx 模块输出结果
type Result struct {
	fx.Out

	Emitters  *Publisher `name:"emitters"`
	Listeners *Publisher `name:"listeners"`
}

// Module 返回 Fx 模块
func Module() fx.Option {
	return fx.Module("eventbus",
		fx.Provide(ProvidePublishers),
	)
}

// ProvidePublishers 提供两个独立的发布器实例
func ProvidePublishers() Result {
	return Result{
		Emitters:  NewPublisher(),
		Listeners: NewPublisher(),
	}
}

// ============================================================================
// 模块元信息
// ============================================================================

const (
	// Version 模块版本
	Version = "1.0.0"
	// Name 模块名称
	Name = "eventbus"
	// Description 模块描述
	Description = "强引用事件发布器，按类型维护广播通道"
)
