package demo

import (
	"github.com/dep2p/go-leaklab/internal/core/eventbus"
	"github.com/dep2p/go-leaklab/internal/core/weakbus"
	pkgif "github.com/dep2p/go-leaklab/pkg/interfaces"
)

// RaisedTitle 事件源处理器写入窗体的标题
const RaisedTitle = "Got an event from a short-lived event raiser"

// DefaultMessage BusPublisher 发布的消息
const DefaultMessage = "Hello world"

// ============================================================================
// EventRaiser
// ============================================================================

// EventRaiser 短生命周期事件源
//
// 处理器列表属于事件源本身；长生命周期的订阅者不会让事件源存活。
type EventRaiser struct {
	onSomething []func(*EventRaiser)
}

// NewEventRaiser 创建事件源
func NewEventRaiser(c *Counter) *EventRaiser {
	r := &EventRaiser{}
	track(c, r)
	return r
}

// OnSomething 追加处理器
func (r *EventRaiser) OnSomething(h func(*EventRaiser)) {
	r.onSomething = append(r.onSomething, h)
}

// RaiseSomething 触发事件
func (r *EventRaiser) RaiseSomething() {
	for _, h := range r.onSomething {
		h(r)
	}
}

// ============================================================================
// ControlSubscriber
// ============================================================================

// ControlSubscriber 订阅窗体控件 TextChanged 的短生命周期对象
//
// 控件的处理器列表持有 s 的方法值，因此 s 与控件同寿。
type ControlSubscriber struct {
	// LatestText 最近一次观察到的控件文本
	LatestText string
}

// NewControlSubscriber 创建对象并订阅控件
func NewControlSubscriber(c *Counter, ctrl *Control) *ControlSubscriber {
	s := &ControlSubscriber{}
	track(c, s)
	ctrl.OnTextChanged(s.onTextChanged)
	return s
}

func (s *ControlSubscriber) onTextChanged(ctrl *Control) {
	s.LatestText = ctrl.Text()
}

// ============================================================================
// BusPublisher
// ============================================================================

// BusPublisher 持有强引用发布器的短生命周期发布者
//
// 发布者引用发布器，反之不成立，所以发布者可以被回收。
type BusPublisher struct {
	publisher pkgif.EventPublisher
}

// NewBusPublisher 创建发布者
func NewBusPublisher(c *Counter, publisher pkgif.EventPublisher) *BusPublisher {
	p := &BusPublisher{publisher: publisher}
	track(c, p)
	return p
}

// PublishSomething 发布 "Hello world"
func (p *BusPublisher) PublishSomething() error {
	return p.publisher.Publish(DefaultMessage)
}

// ============================================================================
// BusSubscriber
// ============================================================================

// BusSubscriber 在强引用发布器的 string 通道上订阅的短生命周期对象
//
// 通道持有捕获了 s 的闭包，因此 s 与发布器同寿。
type BusSubscriber struct {
	// LatestMessage 最近一次收到的消息
	LatestMessage string

	sub pkgif.Subscription
}

// NewBusSubscriber 创建对象并订阅 string 通道
func NewBusSubscriber(c *Counter, publisher *eventbus.Publisher) (*BusSubscriber, error) {
	s := &BusSubscriber{}
	sub, err := eventbus.GetChannel[string](publisher).Subscribe(func(msg string) {
		s.LatestMessage = msg
	})
	if err != nil {
		return nil, err
	}
	s.sub = sub
	track(c, s)
	return s, nil
}

// Unsubscribe 取消订阅，之后对象可以被回收
func (s *BusSubscriber) Unsubscribe() error {
	return s.sub.Close()
}

// ============================================================================
// WeakSubscriber
// ============================================================================

// WeakSubscriber 在弱引用聚合器上订阅的短生命周期对象
type WeakSubscriber struct {
	// LatestMessage 最近一次收到的消息
	LatestMessage string
}

// NewWeakSubscriber 创建对象并以方法表达式订阅
func NewWeakSubscriber(c *Counter, agg *weakbus.Aggregator) (*WeakSubscriber, error) {
	s := &WeakSubscriber{}
	if err := weakbus.SubscribeTarget(agg, s, (*WeakSubscriber).onMessage); err != nil {
		return nil, err
	}
	track(c, s)
	return s, nil
}

func (s *WeakSubscriber) onMessage(msg string) {
	s.LatestMessage = msg
}
