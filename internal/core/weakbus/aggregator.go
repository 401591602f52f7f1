// Package weakbus 实现弱引用事件聚合器
package weakbus

import (
	"errors"
	"reflect"
	"sync"
	"sync/atomic"

	pkgif "github.com/dep2p/go-leaklab/pkg/interfaces"
	"github.com/dep2p/go-leaklab/pkg/lib/log"
)

var logger = log.Logger("core/weakbus")

// ============================================================================
// 错误定义
// ============================================================================

var (
	// ErrInvalidEventType 无效的事件类型
	ErrInvalidEventType = errors.New("invalid event type")
	// ErrNilHandler 订阅回调为空
	ErrNilHandler = errors.New("subscribe called with nil handler")
	// ErrNilTarget 订阅目标为空
	ErrNilTarget = errors.New("subscribe called with nil target")
)

// ============================================================================
// Aggregator 实现
// ============================================================================

// Aggregator 弱引用事件聚合器
//
// 每个订阅条目只持有目标的弱引用，不延长订阅者生命周期。
// 失效条目在同类型的下一次 Publish 时清理，不会主动清理。
type Aggregator struct {
	mu sync.Mutex

	// subs 事件类型 → 按登记顺序排列的条目
	subs map[reflect.Type][]entry

	// pruned 累计清理的失效条目数
	pruned atomic.Int64
}

// NewAggregator 创建聚合器
func NewAggregator() *Aggregator {
	return &Aggregator{
		subs: make(map[reflect.Type][]entry),
	}
}

// Publish 按事件的动态类型投递，返回送达数量
func (a *Aggregator) Publish(event interface{}) (int, error) {
	if event == nil {
		return 0, ErrInvalidEventType
	}
	return a.publish(reflect.TypeOf(event), event), nil
}

// Len 返回指定类型的登记条目数
//
// 包含已失效但尚未被 Publish 清理的条目。eventType 为类型令牌，如 new(string)。
func (a *Aggregator) Len(eventType interface{}) int {
	typ, err := elemType(eventType)
	if err != nil {
		return 0
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.subs[typ])
}

// Pruned 返回累计清理的失效条目数
func (a *Aggregator) Pruned() int64 { return a.pruned.Load() }

// GetAllEventTypes 返回所有登记过的事件类型
func (a *Aggregator) GetAllEventTypes() []interface{} {
	a.mu.Lock()
	defer a.mu.Unlock()

	types := make([]interface{}, 0, len(a.subs))
	for typ := range a.subs {
		types = append(types, reflect.Zero(typ).Interface())
	}
	return types
}

var _ pkgif.WeakAggregator = (*Aggregator)(nil)

// ============================================================================
// 内部方法
// ============================================================================

// add 追加条目；类型列表在首次订阅时创建
func (a *Aggregator) add(typ reflect.Type, e entry) {
	a.mu.Lock()
	a.subs[typ] = append(a.subs[typ], e)
	a.mu.Unlock()
}

// publish 清理失效条目并投递
//
// 在锁内把每个弱引用提升为强引用：提升失败的条目被移除，
// 提升成功的调用闭包持有目标的强引用，直到投递结束，
// 因此存活检查与调用之间目标不会被回收。调用在锁外按登记顺序进行。
func (a *Aggregator) publish(typ reflect.Type, event interface{}) int {
	a.mu.Lock()
	entries, ok := a.subs[typ]
	if !ok {
		a.mu.Unlock()
		return 0
	}

	live := entries[:0]
	calls := make([]func(interface{}), 0, len(entries))
	for _, e := range entries {
		call := e.acquire()
		if call == nil {
			continue
		}
		live = append(live, e)
		calls = append(calls, call)
	}
	pruned := len(entries) - len(live)
	clear(entries[len(live):])
	a.subs[typ] = live
	a.mu.Unlock()

	if pruned > 0 {
		a.pruned.Add(int64(pruned))
		logger.Debug("清理失效订阅", "type", typ, "pruned", pruned, "live", len(live))
	}

	for _, call := range calls {
		call(event)
	}
	return len(calls)
}

// elemType 从类型令牌（如 new(T)）中取出 T
func elemType(eventType interface{}) (reflect.Type, error) {
	if eventType == nil {
		return nil, ErrInvalidEventType
	}
	typ := reflect.TypeOf(eventType)
	if typ.Kind() != reflect.Ptr {
		return nil, ErrInvalidEventType
	}
	return typ.Elem(), nil
}
