// Package main 提供 leaklab 命令行入口
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	leaklab "github.com/dep2p/go-leaklab"
	"github.com/dep2p/go-leaklab/config"
	"github.com/dep2p/go-leaklab/internal/demo"
	"github.com/dep2p/go-leaklab/pkg/lib/log"
)

var logger = log.Logger("leaklab/cmd")

// ═══════════════════════════════════════════════════════════════════════════
// 命令行参数
// ═══════════════════════════════════════════════════════════════════════════
//
//   命令行参数：本次运行的场景（生成哪些对象、几轮、是否回收）
//   JSON 配置文件：批量、刷新间隔、自动回收水位等持久化设置
//
// ═══════════════════════════════════════════════════════════════════════════

// cliFlags 绑定在一个 FlagSet 上的全部命令行参数
type cliFlags struct {
	fs *flag.FlagSet

	// ─────────────────────────────────────────────────────────────────────
	// 场景参数
	// ─────────────────────────────────────────────────────────────────────
	spawnList *string
	rounds    *int
	count     *int
	forceGC   *bool
	broadcast *string
	duration  *time.Duration

	// ─────────────────────────────────────────────────────────────────────
	// 运行时覆盖
	// ─────────────────────────────────────────────────────────────────────
	configFile  *string
	batchSize   *int
	interval    *time.Duration
	introspect  *string
	useWatchdog *bool

	// ─────────────────────────────────────────────────────────────────────
	// 日志参数
	// ─────────────────────────────────────────────────────────────────────
	logLevel  *string
	logFormat *string

	// ─────────────────────────────────────────────────────────────────────
	// 信息显示
	// ─────────────────────────────────────────────────────────────────────
	showVersion *bool
	showHelp    *bool
}

// newCLIFlags 在 fs 上注册全部参数
func newCLIFlags(fs *flag.FlagSet) *cliFlags {
	return &cliFlags{
		fs: fs,

		spawnList: fs.String("spawn", "all", "要生成的变体，逗号分隔（all = 全部，空 = 不生成）"),
		rounds:    fs.Int("rounds", 1, "生成轮数"),
		count:     fs.Int("count", 0, "每轮每个变体的数量（0 = 使用配置的批量）"),
		forceGC:   fs.Bool("gc", true, "每轮结束后强制回收"),
		broadcast: fs.String("broadcast", "", "每轮结束后广播的消息（显式设置才广播，空值使用默认消息）"),
		duration:  fs.Duration("duration", 0, "场景结束后继续运行的时长（0 = 立即退出，启用自省时等待信号）"),

		configFile:  fs.String("config", "", "配置文件路径"),
		batchSize:   fs.Int("batch", 0, "默认批量（覆盖配置）"),
		interval:    fs.Duration("interval", 0, "计数刷新间隔（覆盖配置）"),
		introspect:  fs.String("introspect", "", "自省服务地址，设置即启用（如 127.0.0.1:6060）"),
		useWatchdog: fs.Bool("watchdog", false, "启用基于堆水位的自动回收"),

		logLevel:  fs.String("log-level", "info", "日志级别 (debug/info/warn/error)"),
		logFormat: fs.String("log-format", "text", "日志格式 (text/json)"),

		showVersion: fs.Bool("version", false, "显示版本信息"),
		showHelp:    fs.Bool("help", false, "显示帮助信息"),
	}
}

// isSet 检查命令行参数是否被显式设置
func (f *cliFlags) isSet(name string) bool {
	found := false
	f.fs.Visit(func(fl *flag.Flag) {
		if fl.Name == name {
			found = true
		}
	})
	return found
}

// scenario 本次运行的场景（不属于 config.Config）
type scenario struct {
	variants  []demo.Variant
	rounds    int
	count     int
	collect   bool
	message   string
	broadcast bool
	linger    time.Duration
	serve     bool
}

// keepRunning 场景结束后是否继续运行
func (s scenario) keepRunning() bool {
	return s.linger > 0 || s.serve
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	flags := newCLIFlags(flag.CommandLine)
	flag.Parse()

	if *flags.showVersion {
		printVersion()
		return nil
	}
	if *flags.showHelp {
		printHelp()
		return nil
	}

	cfg, err := buildConfig(flags)
	if err != nil {
		return fmt.Errorf("配置错误: %w", err)
	}
	if err := setupLogging(cfg.Log); err != nil {
		return fmt.Errorf("日志配置错误: %w", err)
	}

	sc, err := buildScenario(flags, cfg)
	if err != nil {
		return fmt.Errorf("参数错误: %w", err)
	}

	fmt.Printf("📦 %s\n", leaklab.VersionInfo())
	logger.Info("启动 leaklab", "version", leaklab.Version, "commit", leaklab.GitCommit, "buildDate", leaklab.BuildDate)

	lab, err := leaklab.New(leaklab.WithConfig(cfg))
	if err != nil {
		return fmt.Errorf("创建实验室失败: %w", err)
	}
	defer func() { _ = lab.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := lab.Start(ctx); err != nil {
		return fmt.Errorf("启动失败: %w", err)
	}
	if addr := lab.IntrospectAddr(); addr != "" {
		fmt.Printf("🔍 自省服务: http://%s/debug/leaks\n", addr)
	}

	if err := execute(ctx, lab, sc, os.Stdout); err != nil {
		return err
	}

	printLabels(lab)
	fmt.Println("\n正在关闭实验室...")
	return nil
}

// execute 并行运行场景与等待逻辑，任一出错即取消另一个
func execute(ctx context.Context, lab *leaklab.Lab, sc scenario, out io.Writer) error {
	g, gctx := errgroup.WithContext(ctx)
	scenarioDone := make(chan struct{})

	g.Go(func() error {
		defer close(scenarioDone)
		return runScenario(gctx, lab, sc, out)
	})
	g.Go(func() error {
		return wait(gctx, sc, scenarioDone, out)
	})
	return g.Wait()
}

// buildConfig 构建配置
//
// 配置优先级（从高到低）：
//  1. 命令行参数（运行时覆盖）
//  2. 环境变量（LEAKLAB_* 前缀）
//  3. 配置文件（持久化配置）
//  4. 默认值
func buildConfig(f *cliFlags) (*config.Config, error) {
	// ═══════════════════════════════════════════════════════════════════
	// 1. 加载配置文件
	// ═══════════════════════════════════════════════════════════════════
	cfg := config.NewConfig()
	if *f.configFile != "" {
		var err error
		cfg, err = config.LoadFile(*f.configFile)
		if err != nil {
			return nil, fmt.Errorf("加载配置文件失败: %w", err)
		}
	}

	// ═══════════════════════════════════════════════════════════════════
	// 2. 应用环境变量覆盖
	// ═══════════════════════════════════════════════════════════════════
	applyEnvOverrides(cfg)

	// ═══════════════════════════════════════════════════════════════════
	// 3. 应用命令行参数覆盖
	// ═══════════════════════════════════════════════════════════════════
	if f.isSet("batch") {
		cfg.Demo.BatchSize = *f.batchSize
	}
	if f.isSet("interval") {
		cfg.Demo.RefreshInterval = config.Duration(*f.interval)
	}
	if f.isSet("introspect") {
		cfg.Diagnostics.EnableIntrospect = *f.introspect != ""
		if *f.introspect != "" {
			cfg.Diagnostics.IntrospectAddr = *f.introspect
		}
	}
	if f.isSet("watchdog") {
		cfg.Collection.EnableWatchdog = *f.useWatchdog
	}
	if f.isSet("log-level") {
		cfg.Log.Level = strings.ToLower(*f.logLevel)
	}
	if f.isSet("log-format") {
		cfg.Log.Format = strings.ToLower(*f.logFormat)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// buildScenario 从命令行参数构建场景
func buildScenario(f *cliFlags, cfg *config.Config) (scenario, error) {
	sc := scenario{
		rounds:    *f.rounds,
		count:     *f.count,
		collect:   *f.forceGC,
		message:   *f.broadcast,
		broadcast: f.isSet("broadcast"),
		linger:    *f.duration,
		serve:     cfg.Diagnostics.EnableIntrospect && *f.duration == 0,
	}

	if sc.rounds < 0 {
		return sc, fmt.Errorf("rounds must not be negative, got %d", sc.rounds)
	}
	if sc.count < 0 {
		return sc, fmt.Errorf("count must not be negative, got %d", sc.count)
	}
	if sc.linger < 0 {
		return sc, fmt.Errorf("duration must not be negative, got %s", sc.linger)
	}

	if strings.TrimSpace(*f.spawnList) != "" {
		variants, err := demo.ParseVariants(*f.spawnList)
		if err != nil {
			return sc, err
		}
		sc.variants = variants
	}
	return sc, nil
}

// runScenario 按轮次生成对象，每轮后可选回收与广播
func runScenario(ctx context.Context, lab *leaklab.Lab, sc scenario, out io.Writer) error {
	for round := 1; round <= sc.rounds; round++ {
		if ctx.Err() != nil {
			return nil
		}

		if len(sc.variants) > 0 {
			batches, err := lab.SpawnAll(sc.variants, sc.count)
			if err != nil {
				return fmt.Errorf("第 %d 轮生成失败: %w", round, err)
			}
			for _, b := range batches {
				logger.Info("已生成", "round", round, "variant", b.Name, "count", b.Count, "batch", b.ID)
			}
		}

		if sc.collect {
			res := lab.Collect()
			fmt.Fprintf(out, "♻️  第 %d 轮回收: 堆 %s → %s，释放 %s，耗时 %s\n",
				round,
				humanize.Bytes(res.HeapBefore),
				humanize.Bytes(res.HeapAfter),
				humanize.Bytes(res.Freed()),
				res.Duration.Round(time.Microsecond))
		}

		if sc.broadcast {
			d, err := lab.Broadcast(sc.message)
			if err != nil {
				return fmt.Errorf("第 %d 轮广播失败: %w", round, err)
			}
			fmt.Fprintf(out, "📣 第 %d 轮广播: 控件 %d，强引用总线 %d，弱引用聚合器 %d\n",
				round, d.Control, d.Bus, d.Weak)
		}

		// 让监视器立即反映本轮结果
		lab.Monitor().Refresh()
	}
	return nil
}

// wait 等待场景结束、运行时长到期或退出信号
func wait(ctx context.Context, sc scenario, scenarioDone <-chan struct{}, out io.Writer) error {
	select {
	case <-scenarioDone:
	case <-ctx.Done():
		return nil
	}

	if !sc.keepRunning() {
		return nil
	}

	if sc.linger > 0 {
		fmt.Fprintf(out, "场景已完成，继续运行 %s（按 Ctrl+C 提前退出）\n", sc.linger)
		timer := time.NewTimer(sc.linger)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
		}
		return nil
	}

	fmt.Fprintln(out, "场景已完成，按 Ctrl+C 退出")
	<-ctx.Done()
	return nil
}

// setupLogging 设置日志输出
//
// 日志写入 stderr，stdout 留给场景输出。
func setupLogging(cfg config.LogConfig) error {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		return err
	}
	format, err := log.ParseFormat(cfg.Format)
	if err != nil {
		return err
	}
	log.SetOutputWithLevel(os.Stderr, format, level)
	return nil
}

// printLabels 打印最终计数
func printLabels(lab *leaklab.Lab) {
	stats := lab.Stats()
	if len(stats) == 0 {
		return
	}

	width := 0
	for _, s := range stats {
		width = max(width, len(s.Name))
	}

	fmt.Println()
	fmt.Println("╔═══════════════════════════════════════════════════════════════════════╗")
	fmt.Printf("║  %-69s║\n", lab.Harness().Title())
	fmt.Println("╠═══════════════════════════════════════════════════════════════════════╣")
	for _, s := range stats {
		marker := "  "
		if s.Alive > 0 {
			marker = "⚠️"
		}
		line := fmt.Sprintf("%-*s  %s", width, s.Name, s.Label)
		fmt.Printf("║ %s %-67s║\n", marker, line)
	}
	fmt.Println("╚═══════════════════════════════════════════════════════════════════════╝")
}

// printVersion 打印版本信息
func printVersion() {
	fmt.Printf("leaklab %s\n", leaklab.Version)
	if leaklab.GitCommit != "" {
		fmt.Printf("  commit: %s\n", leaklab.GitCommit)
	}
	if leaklab.BuildDate != "" {
		fmt.Printf("  built:  %s\n", leaklab.BuildDate)
	}
}

// printHelp 打印帮助信息
func printHelp() {
	fmt.Println("leaklab - 事件订阅内存泄漏实验室")
	fmt.Println()
	fmt.Println("用法:")
	fmt.Println("  leaklab [选项]")
	fmt.Println()
	fmt.Println("选项:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("═══════════════════════════════════════════════════════════════════════════")
	fmt.Println("变体")
	fmt.Println("═══════════════════════════════════════════════════════════════════════════")
	fmt.Println()
	for _, v := range demo.AllVariants() {
		kind := "可回收"
		if v.Leaks() {
			kind = "泄漏"
		}
		fmt.Printf("  %-20s %s\n", v, kind)
	}
	fmt.Println()
	fmt.Println("环境变量:")
	fmt.Println("  LEAKLAB_BATCH_SIZE        默认批量")
	fmt.Println("  LEAKLAB_REFRESH_INTERVAL  计数刷新间隔（如 500ms）")
	fmt.Println("  LEAKLAB_MESSAGE           广播默认消息")
	fmt.Println("  LEAKLAB_ENABLE_WATCHDOG   启用堆水位自动回收 (true/false)")
	fmt.Println("  LEAKLAB_HEAP_LIMIT        堆上限（字节）")
	fmt.Println("  LEAKLAB_INTROSPECT_ADDR   自省服务地址")
	fmt.Println("  LEAKLAB_LOG_LEVEL         日志级别")
	fmt.Println("  LEAKLAB_LOG_FORMAT        日志格式")
	fmt.Println()
	fmt.Println("═══════════════════════════════════════════════════════════════════════════")
	fmt.Println("使用示例")
	fmt.Println("═══════════════════════════════════════════════════════════════════════════")
	fmt.Println()
	fmt.Println("  # 每个变体生成一批并强制回收")
	fmt.Println("  leaklab")
	fmt.Println()
	fmt.Println("  # 只对比两种总线订阅者，三轮，每轮 5000 个")
	fmt.Println("  leaklab -spawn bus-subscriber,weak-subscriber -rounds 3 -count 5000")
	fmt.Println()
	fmt.Println("  # 生成后广播一条消息")
	fmt.Println(`  leaklab -broadcast "Hello world"`)
	fmt.Println()
	fmt.Println("  # 启用自省服务并保持运行")
	fmt.Println("  leaklab -introspect 127.0.0.1:6060")
	fmt.Println()
	fmt.Println("  # 启用自动回收，运行 30 秒")
	fmt.Println("  leaklab -watchdog -duration 30s")
}
