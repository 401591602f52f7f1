// Package leaklab 演示事件订阅如何在带垃圾回收的运行时中造成引用泄漏
//
// Lab 组装一个长生命周期的演示窗体、两个强引用发布器和一个弱引用聚合器，
// 按批生成五种短生命周期对象，并持续报告每种对象的创建数与存活数。
// 强制回收之后仍存活的对象就是被订阅关系“泄漏”的对象。
//
// # 快速开始
//
//	lab, err := leaklab.New(
//	    leaklab.WithBatchSize(10000),
//	    leaklab.WithIntrospect("127.0.0.1:6060"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := lab.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer lab.Close()
//
//	lab.Spawn(demo.BusSubscriberVariant, 0)
//	lab.Collect()
//	fmt.Println(lab.Harness().Labels())
//
// # 五种对象
//
//	event-raiser        事件源短命，处理器属于窗体          可回收
//	control-subscriber  订阅窗体控件事件                    泄漏
//	bus-publisher       持有强引用发布器                    可回收
//	bus-subscriber      订阅强引用发布器                    泄漏
//	weak-subscriber     订阅弱引用聚合器                    可回收
//
// # 文件组织
//
//	lab.go      Lab 类型与生命周期
//	options.go  配置选项
//	fx.go       Fx 应用组装
//	errors.go   错误定义
package leaklab
