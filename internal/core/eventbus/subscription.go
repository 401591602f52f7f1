package eventbus

import (
	"reflect"
	"slices"
	"sync"
	"sync/atomic"

	pkgif "github.com/dep2p/go-leaklab/pkg/interfaces"
)

// ============================================================================
// Channel 实现
// ============================================================================

// Channel 广播通道
//
// 按订阅顺序把同一个事件同步投递给所有当前订阅者。
type Channel struct {
	typ reflect.Type

	mu   sync.Mutex
	subs []*Subscription

	// delivered 累计投递次数
	delivered atomic.Int64
}

func newChannel(typ reflect.Type) *Channel {
	return &Channel{
		typ:  typ,
		subs: make([]*Subscription, 0),
	}
}

// Type 返回通道承载的事件类型
func (c *Channel) Type() reflect.Type { return c.typ }

// Subscribe 挂接订阅者
//
// 通道持有 handler 的强引用，handler 捕获的对象在通道存在期间都不会被回收。
func (c *Channel) Subscribe(handler func(interface{})) (pkgif.Subscription, error) {
	if handler == nil {
		return nil, ErrNilHandler
	}
	sub := &Subscription{
		ch:      c,
		handler: handler,
	}

	c.mu.Lock()
	c.subs = append(c.subs, sub)
	c.mu.Unlock()

	return sub, nil
}

// Len 返回当前订阅者数量
func (c *Channel) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subs)
}

// Delivered 返回累计投递次数
func (c *Channel) Delivered() int64 { return c.delivered.Load() }

// emit 投递事件到所有订阅者
//
// 回调在锁外执行，回调内可以再次订阅或取消订阅。
func (c *Channel) emit(event interface{}) {
	c.mu.Lock()
	snapshot := slices.Clone(c.subs)
	c.mu.Unlock()

	for _, sub := range snapshot {
		if sub.closed.Load() {
			continue
		}
		sub.handler(event)
		c.delivered.Add(1)
	}
}

// remove 移除订阅
func (c *Channel) remove(sub *Subscription) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if i := slices.Index(c.subs, sub); i >= 0 {
		c.subs = slices.Delete(c.subs, i, i+1)
	}
}

// ============================================================================
// Subscription 实现
// ============================================================================

// Subscription 订阅句柄
type Subscription struct {
	ch        *Channel
	handler   func(interface{})
	closeOnce sync.Once
	closed    atomic.Bool
}

// Close 取消订阅
//
// Close 是并发安全的，可以多次调用。取消后 handler 不再被通道引用。
func (s *Subscription) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.ch.remove(s)
	})
	return nil
}
