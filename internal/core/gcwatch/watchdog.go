package gcwatch

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/pbnjay/memory"
	"github.com/raulk/go-watchdog"

	"github.com/dep2p/go-leaklab/config"
)

// ErrNoMemoryLimit 无法确定堆上限
var ErrNoMemoryLimit = errors.New("gcwatch: cannot determine heap limit")

// Watchdog 基于堆水位的自动回收
//
// 包装 go-watchdog 的 heap-driven 模式：堆使用越过水位时调整 GOGC，
// 让运行时在没有人工触发时也能回收泄漏演示产生的垃圾。
// go-watchdog 是进程级单例，同一进程只应运行一个 Watchdog。
type Watchdog struct {
	cfg config.CollectionConfig

	mu      sync.Mutex
	stopFn  func()
	unregFn func()
	running bool

	// gcs 启动以来观察到的 GC 次数
	gcs atomic.Int64
}

// NewWatchdog 创建自动回收器
func NewWatchdog(cfg config.CollectionConfig) *Watchdog {
	return &Watchdog{cfg: cfg}
}

// Enabled 返回是否启用
func (w *Watchdog) Enabled() bool { return w.cfg.EnableWatchdog }

// Start 启动自动回收，未启用时直接返回
func (w *Watchdog) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.cfg.EnableWatchdog || w.running {
		return nil
	}

	limit, err := HeapLimit(w.cfg, memory.TotalMemory())
	if err != nil {
		return err
	}

	watchdog.Logger = watchdogLogger{}
	err, stop := watchdog.HeapDriven(limit, w.cfg.MinGOGC, watchdog.NewWatermarkPolicy(w.cfg.Watermarks...))
	if err != nil {
		return fmt.Errorf("start heap watchdog: %w", err)
	}

	w.stopFn = stop
	w.unregFn = watchdog.RegisterPostGCNotifee(func() { w.gcs.Add(1) })
	w.running = true
	logger.Info("自动回收已启动", "limit", limit, "minGOGC", w.cfg.MinGOGC, "watermarks", w.cfg.Watermarks)
	return nil
}

// Stop 停止自动回收
func (w *Watchdog) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return nil
	}
	w.unregFn()
	w.stopFn()
	w.running = false
	logger.Info("自动回收已停止", "observedGC", w.gcs.Load())
	return nil
}

// ObservedGC 返回启动以来观察到的 GC 次数
func (w *Watchdog) ObservedGC() int64 { return w.gcs.Load() }

// HeapLimit 计算堆上限
//
// 显式配置的 HeapLimit 优先；否则取系统内存的 LimitRatio。
func HeapLimit(cfg config.CollectionConfig, totalMemory uint64) (uint64, error) {
	if cfg.HeapLimit > 0 {
		return cfg.HeapLimit, nil
	}
	if totalMemory == 0 || cfg.LimitRatio <= 0 {
		return 0, ErrNoMemoryLimit
	}
	return uint64(float64(totalMemory) * cfg.LimitRatio), nil
}

// watchdogLogger 把 go-watchdog 的日志转到组件 logger
type watchdogLogger struct{}

func (watchdogLogger) Debugf(template string, args ...interface{}) {
	logger.Debug(fmt.Sprintf(template, args...))
}

func (watchdogLogger) Infof(template string, args ...interface{}) {
	logger.Info(fmt.Sprintf(template, args...))
}

func (watchdogLogger) Warnf(template string, args ...interface{}) {
	logger.Warn(fmt.Sprintf(template, args...))
}

func (watchdogLogger) Errorf(template string, args ...interface{}) {
	logger.Error(fmt.Sprintf(template, args...))
}
