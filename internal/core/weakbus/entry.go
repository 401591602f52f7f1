package weakbus

import (
	"reflect"
	"weak"
)

// entry 弱引用订阅条目
type entry interface {
	// acquire 尝试把弱引用提升为强引用
	//
	// 目标已回收时返回 nil；否则返回持有目标强引用的调用闭包。
	acquire() func(interface{})
}

// ============================================================================
// Handler
// ============================================================================

// Handler 回调持有者
//
// 聚合器只弱引用 Handler，调用方必须自行保存返回的指针
// （通常作为订阅者对象的字段），否则下一次回收后订阅即失效。
type Handler[T any] struct {
	fn func(T)
}

// NewHandler 创建回调持有者
func NewHandler[T any](fn func(T)) *Handler[T] {
	return &Handler[T]{fn: fn}
}

// Invoke 直接调用回调
func (h *Handler[T]) Invoke(event T) { h.fn(event) }

type handlerEntry[T any] struct {
	ref weak.Pointer[Handler[T]]
}

func (e handlerEntry[T]) acquire() func(interface{}) {
	h := e.ref.Value()
	if h == nil {
		return nil
	}
	return func(event interface{}) {
		v, _ := event.(T)
		h.Invoke(v)
	}
}

// ============================================================================
// Target
// ============================================================================

// targetEntry 弱引用目标对象，回调以方法表达式形式保存
type targetEntry[O, T any] struct {
	ref weak.Pointer[O]
	fn  func(*O, T)
}

func (e targetEntry[O, T]) acquire() func(interface{}) {
	o := e.ref.Value()
	if o == nil {
		return nil
	}
	return func(event interface{}) {
		v, _ := event.(T)
		e.fn(o, v)
	}
}

// ============================================================================
// 泛型 API
// ============================================================================

// Subscribe 以回调持有者订阅 T
func Subscribe[T any](a *Aggregator, h *Handler[T]) error {
	if h == nil || h.fn == nil {
		return ErrNilHandler
	}
	a.add(reflect.TypeFor[T](), handlerEntry[T]{ref: weak.Make(h)})
	return nil
}

// SubscribeTarget 以目标对象订阅 T
//
// fn 不得捕获 target，否则条目会经由闭包强引用目标。推荐传方法表达式：
//
//	weakbus.SubscribeTarget(agg, s, (*Subscriber).OnMessage)
func SubscribeTarget[O, T any](a *Aggregator, target *O, fn func(*O, T)) error {
	if target == nil {
		return ErrNilTarget
	}
	if fn == nil {
		return ErrNilHandler
	}
	a.add(reflect.TypeFor[T](), targetEntry[O, T]{ref: weak.Make(target), fn: fn})
	return nil
}

// Publish 以静态类型 T 投递事件，返回送达数量
func Publish[T any](a *Aggregator, event T) int {
	return a.publish(reflect.TypeFor[T](), event)
}

// Len 返回 T 的登记条目数
func Len[T any](a *Aggregator) int {
	return a.Len(new(T))
}
