package demo

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/dustin/go-humanize"
)

// ErrMonitorRunning 监视器已在运行
var ErrMonitorRunning = errors.New("demo: monitor already running")

// Reporter 接收一次刷新的标题与计数
type Reporter func(title string, stats []Stat)

// LogReporter 以结构化日志输出计数与当前堆大小
func LogReporter(title string, stats []Stat) {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	args := make([]any, 0, 2*len(stats)+4)
	args = append(args, "title", title)
	for _, s := range stats {
		args = append(args, s.Name, s.Label)
	}
	args = append(args, "heap", humanize.Bytes(ms.HeapAlloc))
	logger.Info("对象计数", args...)
}

// MonitorOption 监视器选项
type MonitorOption func(*Monitor)

// WithClock 设置时钟，测试中使用 clock.NewMock()
func WithClock(c clock.Clock) MonitorOption {
	return func(m *Monitor) { m.clock = c }
}

// WithReporter 设置输出方式
func WithReporter(r Reporter) MonitorOption {
	return func(m *Monitor) {
		if r != nil {
			m.report = r
		}
	}
}

// Monitor 定时刷新计数标签
//
// 启动时立即刷新一次，之后每个 interval 刷新一次。
type Monitor struct {
	harness  *Harness
	interval time.Duration
	clock    clock.Clock
	report   Reporter

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewMonitor 创建监视器
func NewMonitor(h *Harness, interval time.Duration, opts ...MonitorOption) *Monitor {
	m := &Monitor{
		harness:  h,
		interval: interval,
		clock:    clock.New(),
		report:   LogReporter,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Refresh 立即刷新一次
func (m *Monitor) Refresh() {
	m.report(m.harness.Title(), m.harness.Census().Snapshot())
}

// Start 启动刷新循环
//
// ctx 取消或调用 Stop 时循环退出；ctx 取消后可以再次 Start。
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cancel != nil {
		return ErrMonitorRunning
	}

	m.Refresh()

	// ticker 在返回前创建，之后推进的 mock 时钟都能被观察到
	ticker := m.clock.Ticker(m.interval)
	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})

	go m.loop(ctx, ticker, m.done)
	logger.Debug("监视器已启动", "interval", m.interval)
	return nil
}

// Stop 停止刷新循环并等待其退出
func (m *Monitor) Stop() error {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.cancel, m.done = nil, nil
	m.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	<-done
	logger.Debug("监视器已停止")
	return nil
}

// release 循环自行退出时清除运行状态；Stop 已接管时 m.done 不再是 done
func (m *Monitor) release(done chan struct{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.done != done {
		return
	}
	m.cancel()
	m.cancel, m.done = nil, nil
}

func (m *Monitor) loop(ctx context.Context, ticker *clock.Ticker, done chan struct{}) {
	defer close(done)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.release(done)
			return
		case <-ticker.C:
			m.Refresh()
		}
	}
}
