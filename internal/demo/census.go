package demo

import (
	"fmt"
	"runtime"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// Counter 某一变体的创建/存活计数
//
// created 只增不减；alive 在对象创建时加一，
// 在运行时回收对象后由清理函数减一。
type Counter struct {
	created atomic.Int64
	alive   atomic.Int64
}

// Created 返回累计创建数
func (c *Counter) Created() int64 { return c.created.Load() }

// Alive 返回仍存活的对象数
func (c *Counter) Alive() int64 { return c.alive.Load() }

// Label 返回 "N created, M still alive" 形式的标签
func (c *Counter) Label() string {
	return fmt.Sprintf("%d created, %d still alive", c.Created(), c.Alive())
}

// track 登记一个新对象，并在对象被回收后递减存活数
//
// 清理函数只引用计数器，不引用 obj 本身。
func track[T any](c *Counter, obj *T) {
	c.created.Add(1)
	c.alive.Add(1)
	runtime.AddCleanup(obj, (*Counter).release, c)
}

func (c *Counter) release() { c.alive.Add(-1) }

// ============================================================================
// Census
// ============================================================================

// Census 所有变体的计数器集合
type Census struct {
	counters [numVariants]Counter
}

// NewCensus 创建计数器集合
func NewCensus() *Census {
	return &Census{}
}

// Counter 返回变体的计数器
func (c *Census) Counter(v Variant) *Counter {
	if !v.Valid() {
		return nil
	}
	return &c.counters[v]
}

// Stat 某一变体的计数快照
type Stat struct {
	Variant Variant `json:"-"`
	Name    string  `json:"variant"`
	Created int64   `json:"created"`
	Alive   int64   `json:"alive"`
	Label   string  `json:"label"`
}

// Snapshot 返回所有变体的计数快照，按展示顺序
func (c *Census) Snapshot() []Stat {
	stats := make([]Stat, 0, numVariants)
	for _, v := range AllVariants() {
		ctr := &c.counters[v]
		created, alive := ctr.Created(), ctr.Alive()
		stats = append(stats, Stat{
			Variant: v,
			Name:    v.String(),
			Created: created,
			Alive:   alive,
			Label:   fmt.Sprintf("%d created, %d still alive", created, alive),
		})
	}
	return stats
}

// Register 把计数导出为 Prometheus 指标
//
//	leaklab_objects_created_total{variant="..."}
//	leaklab_objects_alive{variant="..."}
func (c *Census) Register(reg prometheus.Registerer) error {
	for _, v := range AllVariants() {
		ctr := &c.counters[v]
		labels := prometheus.Labels{"variant": v.String()}

		created := prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace:   "leaklab",
			Subsystem:   "objects",
			Name:        "created_total",
			Help:        "Number of demonstration objects created.",
			ConstLabels: labels,
		}, func() float64 { return float64(ctr.Created()) })

		alive := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace:   "leaklab",
			Subsystem:   "objects",
			Name:        "alive",
			Help:        "Number of demonstration objects not yet reclaimed.",
			ConstLabels: labels,
		}, func() float64 { return float64(ctr.Alive()) })

		if err := reg.Register(created); err != nil {
			return fmt.Errorf("register created counter for %s: %w", v, err)
		}
		if err := reg.Register(alive); err != nil {
			return fmt.Errorf("register alive gauge for %s: %w", v, err)
		}
	}
	return nil
}
