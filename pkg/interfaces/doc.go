// Package interfaces 定义 LeakLab 的公共接口
//
// 接口文件与实现目录一一对应：
//   - eventbus.go       - 强引用事件总线（internal/core/eventbus）与弱引用聚合器（internal/core/weakbus）
//
// 演示对象只依赖这里的接口，具体实现由 Fx 模块注入。
//
// # 依赖方向
//
//	leaklab → internal/demo → internal/core → pkg/interfaces
//
// 禁止反向依赖。
package interfaces
