// Package introspect 提供本地自省 HTTP 服务
//
// 该服务运行在本地端口，以 JSON 报告对象计数与运行时状态，
// 并允许通过 HTTP 触发生成、回收与广播。默认绑定到 127.0.0.1。
//
// # 端点
//
//	GET  /debug/leaks                          - 标题与五个计数标签
//	POST /debug/leaks/spawn?variant=&count=    - 生成对象
//	POST /debug/leaks/gc                       - 同步强制回收
//	POST /debug/leaks/broadcast?msg=           - 向仍登记的订阅者广播
//	GET  /debug/introspect                     - 完整诊断报告
//	GET  /debug/introspect/runtime             - 运行时信息
//	GET  /debug/pprof/*                        - Go pprof 端点
//	GET  /metrics                              - Prometheus 指标
//	GET  /health                               - 健康检查
//
// # 使用示例
//
//	server := introspect.New(introspect.Config{
//	    Addr:    "127.0.0.1:6060",
//	    Harness: harness,
//	})
//	server.Start(ctx)
//	defer server.Stop()
//
//	// curl -X POST 'http://127.0.0.1:6060/debug/leaks/spawn?variant=bus-subscriber'
//
// 通过 config.Diagnostics.EnableIntrospect 启用。
package introspect
