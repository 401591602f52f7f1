// Package eventbus 实现进程内强引用事件发布器
//
// 每种事件类型对应一个广播通道（Channel），首次访问时创建并在发布器
// 生命周期内一直保留。订阅回调被通道强引用：只要发布器存活，订阅者
// 捕获的对象就无法被回收。这正是 leaklab 要演示的泄漏形态。
//
// # 快速开始
//
//	p := eventbus.NewPublisher()
//
//	// 类型化订阅
//	sub, _ := eventbus.GetChannel[string](p).Subscribe(func(s string) {
//	    // 处理事件
//	})
//	defer sub.Close()
//
//	// 发布
//	eventbus.Publish(p, "hello world")
//
//	// 非泛型接口
//	ch, _ := p.Channel(new(string))
//	ch.Subscribe(func(evt interface{}) { _ = evt.(string) })
//	p.Publish("hello world")
//
// # 语义
//
//   - 尚无通道时 Publish 为空操作，不会创建通道
//   - 通道只创建一次，并发首次访问由双重检查保证
//   - 投递同步执行，按订阅顺序
//
// # Fx 模块
//
// Module() 提供两个命名发布器：emitters（供发布者对象使用）与
// listeners（供订阅者对象使用）。
package eventbus
