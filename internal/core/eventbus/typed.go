package eventbus

import (
	"reflect"

	pkgif "github.com/dep2p/go-leaklab/pkg/interfaces"
)

// Topic 类型化的通道视图
type Topic[T any] struct {
	ch *Channel
}

// GetChannel 返回（必要时创建）T 的广播通道
func GetChannel[T any](p *Publisher) Topic[T] {
	return Topic[T]{ch: p.channelFor(reflect.TypeFor[T]())}
}

// LookupChannel 返回 T 已存在的广播通道，不创建
func LookupChannel[T any](p *Publisher) (Topic[T], bool) {
	c, ok := p.lookup(reflect.TypeFor[T]())
	if !ok {
		return Topic[T]{}, false
	}
	return Topic[T]{ch: c}, true
}

// Subscribe 以类型化回调订阅
func (t Topic[T]) Subscribe(handler func(T)) (pkgif.Subscription, error) {
	if handler == nil {
		return nil, ErrNilHandler
	}
	return t.ch.Subscribe(func(event interface{}) {
		// T 为接口类型且事件为 nil 时断言失败，此时传零值
		v, _ := event.(T)
		handler(v)
	})
}

// Len 返回订阅者数量
func (t Topic[T]) Len() int { return t.ch.Len() }

// Channel 返回底层通道
func (t Topic[T]) Channel() *Channel { return t.ch }

// Publish 以静态类型 T 投递事件
//
// 与 Publisher.Publish 不同，这里按 T 而非动态类型选择通道，
// 因此可以投递到接口类型的通道。
func Publish[T any](p *Publisher, event T) {
	p.publish(reflect.TypeFor[T](), event)
}
