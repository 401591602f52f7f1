package leaklab

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/fx"
	"go.uber.org/multierr"

	"github.com/dep2p/go-leaklab/config"
	"github.com/dep2p/go-leaklab/internal/core/eventbus"
	"github.com/dep2p/go-leaklab/internal/core/gcwatch"
	"github.com/dep2p/go-leaklab/internal/core/weakbus"
	"github.com/dep2p/go-leaklab/internal/debug/introspect"
	"github.com/dep2p/go-leaklab/internal/demo"
	"github.com/dep2p/go-leaklab/pkg/lib/log"
)

var logger = log.Logger("leaklab")

// ════════════════════════════════════════════════════════════════════════════
//                              版本信息
// ════════════════════════════════════════════════════════════════════════════

// Version 当前版本
const Version = "v0.1.0"

// BuildInfo 构建信息（通过 ldflags 注入）
var (
	// GitCommit Git 提交哈希
	GitCommit string

	// BuildDate 构建日期
	BuildDate string
)

// VersionInfo 返回完整版本信息字符串
func VersionInfo() string {
	info := "LeakLab " + Version
	if GitCommit != "" {
		info += " (" + GitCommit[:min(8, len(GitCommit))] + ")"
	}
	if BuildDate != "" {
		info += " built " + BuildDate
	}
	return info
}

// ════════════════════════════════════════════════════════════════════════════
//                              状态
// ════════════════════════════════════════════════════════════════════════════

// State 实验室状态
type State int

const (
	// StateIdle 已创建，未启动
	StateIdle State = iota
	// StateRunning 运行中
	StateRunning
	// StateStopped 已停止（可重新启动）
	StateStopped
	// StateClosed 已关闭
	StateClosed
)

// String 返回状态的字符串表示
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// stopTimeout Close 使用的停止超时
const stopTimeout = 10 * time.Second

// ════════════════════════════════════════════════════════════════════════════
//                              Lab
// ════════════════════════════════════════════════════════════════════════════

// Lab 泄漏实验室
//
// 持有 Fx 应用及其提供的组件。组件在 New 返回时已经构造好，
// 监视器、自动回收与自省服务在 Start 后才开始运行。
type Lab struct {
	mu     sync.Mutex
	config *labConfig
	app    *fx.App
	state  State

	harness          *demo.Harness
	monitor          *demo.Monitor
	aggregator       *weakbus.Aggregator
	emitters         *eventbus.Publisher
	listeners        *eventbus.Publisher
	watchdog         *gcwatch.Watchdog
	introspectServer *introspect.Server
}

// New 创建实验室
//
// 示例：
//
//	lab, err := leaklab.New(
//	    leaklab.WithBatchSize(1000),
//	    leaklab.WithWatchdog(true),
//	)
func New(opts ...Option) (*Lab, error) {
	cfg := newLabConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("apply option: %w", err)
		}
	}

	lab := &Lab{config: cfg}

	var err error
	lab.app, err = buildFxApp(cfg, lab)
	if err != nil {
		return nil, fmt.Errorf("build fx app: %w", err)
	}
	return lab, nil
}

// Start 启动实验室
func (l *Lab) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch l.state {
	case StateClosed:
		return ErrLabClosed
	case StateRunning:
		return ErrAlreadyStarted
	}

	if err := l.app.Start(ctx); err != nil {
		logger.Error("实验室启动失败", "error", err)
		return fmt.Errorf("start fx app: %w", err)
	}

	l.state = StateRunning
	logger.Info("实验室已启动",
		"batchSize", l.config.config.Demo.BatchSize,
		"watchdog", l.watchdog.Enabled(),
		"introspect", l.IntrospectAddr())
	return nil
}

// Stop 停止实验室
func (l *Lab) Stop(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state == StateClosed {
		return ErrLabClosed
	}
	if l.state != StateRunning {
		return ErrNotStarted
	}

	err := l.app.Stop(ctx)
	// 即使停止出错，也标记为已停止
	l.state = StateStopped
	if err != nil {
		logger.Error("停止实验室失败", "error", err)
		return fmt.Errorf("stop fx app: %w", err)
	}
	logger.Info("实验室已停止")
	return nil
}

// Close 停止并关闭实验室，之后不可再启动
func (l *Lab) Close() error {
	l.mu.Lock()
	state := l.state
	l.mu.Unlock()

	if state == StateClosed {
		return nil
	}

	var err error
	if state == StateRunning {
		ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
		err = l.Stop(ctx)
		cancel()
	}

	l.mu.Lock()
	l.state = StateClosed
	l.mu.Unlock()
	return err
}

// State 返回当前状态
func (l *Lab) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Config 返回生效的配置
func (l *Lab) Config() *config.Config { return l.config.config }

// ════════════════════════════════════════════════════════════════════════════
//                              组件访问
// ════════════════════════════════════════════════════════════════════════════

// Harness 返回演示窗体
func (l *Lab) Harness() *demo.Harness { return l.harness }

// Monitor 返回计数监视器
func (l *Lab) Monitor() *demo.Monitor { return l.monitor }

// Aggregator 返回弱引用聚合器
func (l *Lab) Aggregator() *weakbus.Aggregator { return l.aggregator }

// Emitters 返回 BusPublisher 持有的强引用发布器
func (l *Lab) Emitters() *eventbus.Publisher { return l.emitters }

// Listeners 返回 BusSubscriber 订阅的强引用发布器
func (l *Lab) Listeners() *eventbus.Publisher { return l.listeners }

// IntrospectAddr 返回自省服务的实际地址，未启用时返回空
func (l *Lab) IntrospectAddr() string {
	if l.introspectServer == nil {
		return ""
	}
	return l.introspectServer.Addr()
}

// ════════════════════════════════════════════════════════════════════════════
//                              演示操作
// ════════════════════════════════════════════════════════════════════════════

// Spawn 生成一批对象，n <= 0 时使用配置的批量
func (l *Lab) Spawn(v demo.Variant, n int) (demo.Batch, error) {
	return l.harness.Spawn(v, n)
}

// SpawnAll 依次生成多个变体
//
// 单个变体失败不会中断其余变体，所有错误合并返回。
func (l *Lab) SpawnAll(variants []demo.Variant, n int) ([]demo.Batch, error) {
	var (
		batches []demo.Batch
		errs    error
	)
	for _, v := range variants {
		b, err := l.harness.Spawn(v, n)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		batches = append(batches, b)
	}
	return batches, errs
}

// Collect 同步强制回收
func (l *Lab) Collect() gcwatch.Result {
	return l.harness.Collect()
}

// Broadcast 向仍登记的订阅者广播，msg 为空时使用默认消息
func (l *Lab) Broadcast(msg string) (demo.Delivery, error) {
	return l.harness.Broadcast(msg)
}

// Stats 返回当前计数快照
func (l *Lab) Stats() []demo.Stat {
	return l.harness.Census().Snapshot()
}
