// Package demo 演示事件订阅造成的引用泄漏
//
// Harness 扮演长生命周期的窗体：按批生成五种短生命周期对象，
// 把它们接入事件源、控件事件、强引用发布器或弱引用聚合器，
// 并通过 Census 报告每种对象的创建数与存活数。
package demo

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/dep2p/go-leaklab/config"
	"github.com/dep2p/go-leaklab/internal/core/eventbus"
	"github.com/dep2p/go-leaklab/internal/core/gcwatch"
	"github.com/dep2p/go-leaklab/internal/core/weakbus"
	"github.com/dep2p/go-leaklab/pkg/lib/log"
)

var logger = log.Logger("demo")

// DefaultTitle 窗体初始标题
const DefaultTitle = "Memory Leak Test"

// Batch 一次生成的结果
type Batch struct {
	ID      uuid.UUID `json:"id"`
	Variant Variant   `json:"-"`
	Name    string    `json:"variant"`
	Count   int       `json:"count"`
}

// Delivery 一次广播的送达统计
type Delivery struct {
	// Control 收到控件 TextChanged 通知的处理器数量
	Control int `json:"control"`
	// Bus 强引用发布器 string 通道实际送达的数量
	Bus int `json:"bus"`
	// Weak 弱引用聚合器实际送达的数量
	Weak int `json:"weak"`
}

// Harness 演示窗体
//
// 生成与广播串行执行，对应窗体的单一 UI 线程；计数读取不加锁。
type Harness struct {
	cfg    config.DemoConfig
	census *Census
	form   *Form

	emitters  *eventbus.Publisher
	listeners *eventbus.Publisher
	agg       *weakbus.Aggregator

	mu sync.Mutex
}

// NewHarness 创建演示窗体
//
// emitters 供 BusPublisher 持有，listeners 供 BusSubscriber 订阅，
// 两者是相互独立的发布器。
func NewHarness(cfg config.DemoConfig, census *Census, emitters, listeners *eventbus.Publisher, agg *weakbus.Aggregator) *Harness {
	return &Harness{
		cfg:       cfg,
		census:    census,
		form:      NewForm(DefaultTitle),
		emitters:  emitters,
		listeners: listeners,
		agg:       agg,
	}
}

// Census 返回计数器集合
func (h *Harness) Census() *Census { return h.census }

// Form 返回窗体
func (h *Harness) Form() *Form { return h.form }

// Title 返回窗体标题
func (h *Harness) Title() string { return h.form.Title() }

// Labels 返回五个 "N created, M still alive" 标签，按展示顺序
func (h *Harness) Labels() []string {
	stats := h.census.Snapshot()
	labels := make([]string, len(stats))
	for i, s := range stats {
		labels[i] = s.Label
	}
	return labels
}

// Spawn 生成 n 个指定变体的对象并立即丢弃
//
// n <= 0 时使用配置的 BatchSize。
func (h *Harness) Spawn(v Variant, n int) (Batch, error) {
	if !v.Valid() {
		return Batch{}, fmt.Errorf("%w: %d", ErrUnknownVariant, int(v))
	}
	if n <= 0 {
		n = h.cfg.BatchSize
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	ctr := h.census.Counter(v)
	for i := 0; i < n; i++ {
		if err := h.spawnOne(v, ctr); err != nil {
			return Batch{}, fmt.Errorf("spawn %s #%d: %w", v, i, err)
		}
	}

	b := Batch{ID: uuid.New(), Variant: v, Name: v.String(), Count: n}
	logger.Info("生成演示对象", "batch", b.ID, "variant", b.Name, "count", n)
	return b, nil
}

func (h *Harness) spawnOne(v Variant, ctr *Counter) error {
	switch v {
	case EventRaiserVariant:
		r := NewEventRaiser(ctr)
		r.OnSomething(h.onSomething)
	case ControlSubscriberVariant:
		NewControlSubscriber(ctr, h.form.Text)
	case BusPublisherVariant:
		NewBusPublisher(ctr, h.emitters)
	case BusSubscriberVariant:
		if _, err := NewBusSubscriber(ctr, h.listeners); err != nil {
			return err
		}
	case WeakSubscriberVariant:
		if _, err := NewWeakSubscriber(ctr, h.agg); err != nil {
			return err
		}
	}
	return nil
}

// onSomething 事件源处理器，写窗体标题
func (h *Harness) onSomething(*EventRaiser) {
	h.form.SetTitle(RaisedTitle)
}

// Collect 同步强制回收
func (h *Harness) Collect() gcwatch.Result {
	return gcwatch.Collect()
}

// Broadcast 向所有仍登记的订阅者发送消息
//
// 依次设置窗体文本、在 listeners 上发布、在聚合器上发布。
// 已泄漏的订阅者会出现在 Control 与 Bus 计数中。
func (h *Harness) Broadcast(msg string) (Delivery, error) {
	if msg == "" {
		msg = h.cfg.Message
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	var d Delivery
	d.Control = h.form.Text.SetText(msg)

	topic, ok := eventbus.LookupChannel[string](h.listeners)
	var before int64
	if ok {
		before = topic.Channel().Delivered()
	}
	if err := h.listeners.Publish(msg); err != nil {
		return Delivery{}, fmt.Errorf("publish on listeners: %w", err)
	}
	if ok {
		d.Bus = int(topic.Channel().Delivered() - before)
	}

	d.Weak = weakbus.Publish(h.agg, msg)

	logger.Info("广播完成", "msg", msg, "control", d.Control, "bus", d.Bus, "weak", d.Weak)
	return d, nil
}
