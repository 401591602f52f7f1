package interfaces

import "reflect"

// EventPublisher 定义强引用事件发布器接口
//
// 每种事件类型对应一个广播通道，首次访问时创建，之后一直存在。
type EventPublisher interface {
	// Channel 返回（必要时创建）指定类型的广播通道
	//
	// eventType 必须是指针，如 new(string)。
	Channel(eventType interface{}) (Channel, error)

	// Publish 按事件的动态类型投递；该类型尚无通道时为空操作
	Publish(event interface{}) error

	// GetAllEventTypes 返回所有已创建通道的事件类型
	GetAllEventTypes() []interface{}
}

// Channel 定义广播通道接口
type Channel interface {
	// Type 返回通道承载的事件类型
	Type() reflect.Type

	// Subscribe 挂接订阅者，通道强引用 handler
	Subscribe(handler func(interface{})) (Subscription, error)

	// Len 返回当前订阅者数量
	Len() int
}

// Subscription 定义订阅句柄
type Subscription interface {
	// Close 取消订阅，可重复调用
	Close() error
}

// WeakAggregator 定义弱引用事件聚合器接口
//
// 订阅通过泛型函数完成（weakbus.Subscribe / weakbus.SubscribeTarget），
// 接口只暴露与类型参数无关的操作。
type WeakAggregator interface {
	// Publish 按事件的动态类型投递，返回实际送达的订阅者数量
	Publish(event interface{}) (int, error)

	// Len 返回指定类型的登记条目数（包含尚未清理的失效条目）
	Len(eventType interface{}) int

	// Pruned 返回累计清理的失效条目数
	Pruned() int64

	// GetAllEventTypes 返回所有登记过的事件类型
	GetAllEventTypes() []interface{}
}
