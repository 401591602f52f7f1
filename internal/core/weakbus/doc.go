// Package weakbus 实现进程内弱引用事件聚合器
//
// 与 eventbus 不同，聚合器不持有订阅者：每个条目是一个 weak.Pointer，
// 订阅者在外部不再可达时即可被回收，对应条目在同类型下一次 Publish 时清理。
//
// # 两种订阅方式
//
//	agg := weakbus.NewAggregator()
//
//	// 1. 回调持有者：调用方负责保存 h
//	h := weakbus.NewHandler(func(s string) { ... })
//	weakbus.Subscribe(agg, h)
//
//	// 2. 目标对象 + 方法表达式：弱引用 s，回调不捕获 s
//	weakbus.SubscribeTarget(agg, s, (*Subscriber).OnMessage)
//
//	weakbus.Publish(agg, "hello world")
//
// # 投递语义
//
//   - 按登记顺序投递，每个存活订阅者恰好一次
//   - 存活检查即提升为强引用，检查与调用之间不会发生回收
//   - 已回收的订阅者被静默跳过并从登记表移除
//   - 不同类型互相隔离
//
// # 并发安全
//
// 登记表由互斥锁保护，回调在锁外执行，回调内可以继续订阅或发布。
package weakbus
