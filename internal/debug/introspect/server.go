package introspect

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/pprof"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/pbnjay/memory"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dep2p/go-leaklab/internal/core/gcwatch"
	"github.com/dep2p/go-leaklab/internal/demo"
	pkgif "github.com/dep2p/go-leaklab/pkg/interfaces"
	"github.com/dep2p/go-leaklab/pkg/lib/log"
)

var logger = log.Logger("debug/introspect")

// DefaultAddr 默认监听地址
const DefaultAddr = "127.0.0.1:6060"

// maxSpawnCount 单次请求允许生成的对象上限
const maxSpawnCount = 1_000_000

// ============================================================================
//                              配置
// ============================================================================

// Config 服务配置
type Config struct {
	// Addr 监听地址，默认 "127.0.0.1:6060"
	Addr string

	// Harness 演示窗体，为 nil 时 /debug/leaks 端点返回 503
	Harness *demo.Harness

	// Aggregator 可选的弱引用聚合器，非 nil 时报告清理统计
	Aggregator pkgif.WeakAggregator

	// Watchdog 可选的自动回收器
	Watchdog *gcwatch.Watchdog

	// Registry 可选的指标注册表，非 nil 时暴露 /metrics
	Registry *prometheus.Registry

	// CustomHandlers 自定义处理器
	CustomHandlers map[string]http.HandlerFunc
}

// ============================================================================
//                              Server
// ============================================================================

// Server 本地自省 HTTP 服务
type Server struct {
	config Config

	server   *http.Server
	listener net.Listener

	running   bool
	startTime time.Time

	mu sync.Mutex
}

// New 创建自省服务
func New(cfg Config) *Server {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	return &Server{config: cfg}
}

// Handler 返回路由，供测试或嵌入其他服务使用
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// 泄漏演示
	mux.HandleFunc("GET /debug/leaks", s.handleLeaks)
	mux.HandleFunc("POST /debug/leaks/spawn", s.handleSpawn)
	mux.HandleFunc("POST /debug/leaks/gc", s.handleCollect)
	mux.HandleFunc("POST /debug/leaks/broadcast", s.handleBroadcast)

	// 自省端点
	mux.HandleFunc("GET /debug/introspect", s.handleIntrospect)
	mux.HandleFunc("GET /debug/introspect/runtime", s.handleRuntime)

	// pprof 端点
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	if s.config.Registry != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(s.config.Registry, promhttp.HandlerOpts{}))
	}

	mux.HandleFunc("GET /health", s.handleHealth)

	for path, handler := range s.config.CustomHandlers {
		mux.HandleFunc(path, handler)
	}
	return mux
}

// Start 启动服务
func (s *Server) Start(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	listener, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return err
	}
	s.listener = listener

	s.server = &http.Server{
		Handler:     s.Handler(),
		ReadTimeout: 10 * time.Second,
		// 大批量生成与 pprof profile 都可能较慢
		WriteTimeout: 60 * time.Second,
	}

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("自省服务异常退出", "error", err)
		}
	}()

	s.running = true
	s.startTime = time.Now()
	logger.Info("自省服务已启动", "addr", listener.Addr().String())
	return nil
}

// Stop 停止服务
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		logger.Error("关闭自省服务失败", "error", err)
		return err
	}

	s.running = false
	s.listener = nil
	logger.Info("自省服务已停止")
	return nil
}

// Addr 返回实际监听地址
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.config.Addr
}

// ============================================================================
//                              响应结构
// ============================================================================

// IntrospectResponse 完整诊断响应
type IntrospectResponse struct {
	Timestamp time.Time      `json:"timestamp"`
	Uptime    string         `json:"uptime"`
	Leaks     *LeaksResponse `json:"leaks,omitempty"`
	Runtime   *RuntimeInfo   `json:"runtime,omitempty"`
}

// LeaksResponse 计数响应
type LeaksResponse struct {
	Title  string      `json:"title"`
	Labels []string    `json:"labels"`
	Stats  []demo.Stat `json:"stats"`
	Weak   *WeakInfo   `json:"weak,omitempty"`
}

// WeakInfo 弱引用聚合器统计
type WeakInfo struct {
	// EventTypes 登记过的事件类型数
	EventTypes int `json:"event_types"`
	// Entries string 类型的登记条目数（含尚未清理的失效条目）
	Entries int `json:"entries"`
	// Pruned 累计清理的失效条目数
	Pruned int64 `json:"pruned"`
}

// SpawnResponse 生成响应
type SpawnResponse struct {
	Batches []demo.Batch `json:"batches"`
}

// RuntimeInfo 运行时信息
type RuntimeInfo struct {
	GoVersion    string `json:"go_version"`
	NumGoroutine int    `json:"num_goroutine"`
	NumCPU       int    `json:"num_cpu"`
	HeapAlloc    uint64 `json:"heap_alloc"`
	HeapObjects  uint64 `json:"heap_objects"`
	MemSys       uint64 `json:"mem_sys"`
	TotalMemory  uint64 `json:"total_memory"`
	NumGC        uint32 `json:"num_gc"`

	Watchdog    bool  `json:"watchdog"`
	WatchdogGCs int64 `json:"watchdog_gcs,omitempty"`
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Uptime    string    `json:"uptime,omitempty"`
}

// ============================================================================
//                              HTTP 处理器
// ============================================================================

// handleIntrospect 处理完整诊断请求
func (s *Server) handleIntrospect(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, IntrospectResponse{
		Timestamp: time.Now(),
		Uptime:    time.Since(s.startTime).String(),
		Leaks:     s.collectLeaks(),
		Runtime:   s.collectRuntimeInfo(),
	})
}

// handleLeaks 返回当前计数
func (s *Server) handleLeaks(w http.ResponseWriter, _ *http.Request) {
	leaks := s.collectLeaks()
	if leaks == nil {
		http.Error(w, "Harness not available", http.StatusServiceUnavailable)
		return
	}
	s.writeJSON(w, leaks)
}

// handleSpawn 生成一批或多批对象
//
// variant 支持逗号分隔列表与 "all"；count 省略时使用默认批量。
func (s *Server) handleSpawn(w http.ResponseWriter, r *http.Request) {
	h := s.config.Harness
	if h == nil {
		http.Error(w, "Harness not available", http.StatusServiceUnavailable)
		return
	}

	variants, err := demo.ParseVariants(r.URL.Query().Get("variant"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if len(variants) == 0 {
		http.Error(w, "missing variant", http.StatusBadRequest)
		return
	}

	count := 0
	if raw := r.URL.Query().Get("count"); raw != "" {
		count, err = strconv.Atoi(raw)
		if err != nil || count < 0 || count > maxSpawnCount {
			http.Error(w, "invalid count", http.StatusBadRequest)
			return
		}
	}

	resp := SpawnResponse{Batches: make([]demo.Batch, 0, len(variants))}
	for _, v := range variants {
		b, err := h.Spawn(v, count)
		if err != nil {
			logger.Warn("生成失败", "variant", v, "error", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		resp.Batches = append(resp.Batches, b)
	}
	s.writeJSON(w, resp)
}

// handleCollect 同步强制回收
func (s *Server) handleCollect(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, gcwatch.Collect())
}

// handleBroadcast 向所有订阅者广播
func (s *Server) handleBroadcast(w http.ResponseWriter, r *http.Request) {
	h := s.config.Harness
	if h == nil {
		http.Error(w, "Harness not available", http.StatusServiceUnavailable)
		return
	}

	d, err := h.Broadcast(r.URL.Query().Get("msg"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, d)
}

// handleRuntime 处理运行时信息请求
func (s *Server) handleRuntime(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, s.collectRuntimeInfo())
}

// handleHealth 处理健康检查请求
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	health := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Uptime:    time.Since(s.startTime).String(),
	}
	if s.config.Harness == nil {
		health.Status = "degraded"
	}
	s.writeJSON(w, health)
}

// ============================================================================
//                              数据收集
// ============================================================================

func (s *Server) collectLeaks() *LeaksResponse {
	h := s.config.Harness
	if h == nil {
		return nil
	}
	resp := &LeaksResponse{
		Title:  h.Title(),
		Labels: h.Labels(),
		Stats:  h.Census().Snapshot(),
	}
	if agg := s.config.Aggregator; agg != nil {
		resp.Weak = &WeakInfo{
			EventTypes: len(agg.GetAllEventTypes()),
			Entries:    agg.Len(new(string)),
			Pruned:     agg.Pruned(),
		}
	}
	return resp
}

func (s *Server) collectRuntimeInfo() *RuntimeInfo {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	info := &RuntimeInfo{
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
		NumCPU:       runtime.NumCPU(),
		HeapAlloc:    ms.HeapAlloc,
		HeapObjects:  ms.HeapObjects,
		MemSys:       ms.Sys,
		TotalMemory:  memory.TotalMemory(),
		NumGC:        ms.NumGC,
	}
	if wd := s.config.Watchdog; wd != nil && wd.Enabled() {
		info.Watchdog = true
		info.WatchdogGCs = wd.ObservedGC()
	}
	return info
}

// ============================================================================
//                              辅助方法
// ============================================================================

// writeJSON 写入 JSON 响应
func (s *Server) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		logger.Error("JSON 编码失败", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
