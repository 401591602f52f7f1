// Package config 提供统一的配置管理
//
// 本包采用分文件的子配置模式：
//   - 主 Config 结构体嵌入所有子配置
//   - 每个子配置在独立文件中定义，带 Default*Config() 与 Validate()
//   - 支持从 JSON 数据或文件加载配置
//
// 使用示例：
//
//	// 创建默认配置
//	cfg := config.NewConfig()
//	cfg.Demo.BatchSize = 1000
//	cfg.Collection.EnableWatchdog = true
//
//	// 从文件加载
//	cfg, err := config.LoadFile("leaklab.json")
package config

import "fmt"

// Config 是泄漏实验室的完整配置结构
//
// 配置按照功能模块组织：
//   - Demo: 演示对象批量与刷新节奏
//   - Collection: 强制回收与自动回收
//   - Diagnostics: HTTP 自省服务
//   - Log: 日志级别与格式
type Config struct {
	// Demo 演示配置
	Demo DemoConfig `json:"demo"`

	// Collection 回收配置
	Collection CollectionConfig `json:"collection"`

	// Diagnostics 诊断服务配置
	Diagnostics DiagnosticsConfig `json:"diagnostics"`

	// Log 日志配置
	Log LogConfig `json:"log"`
}

// NewConfig 创建默认配置
func NewConfig() *Config {
	return &Config{
		Demo:        DefaultDemoConfig(),
		Collection:  DefaultCollectionConfig(),
		Diagnostics: DefaultDiagnosticsConfig(),
		Log:         DefaultLogConfig(),
	}
}

// Validate 验证配置的有效性
//
// 检查所有子配置，返回的错误带有子配置名前缀。
func (c *Config) Validate() error {
	if err := c.Demo.Validate(); err != nil {
		return fmt.Errorf("demo: %w", err)
	}
	if err := c.Collection.Validate(); err != nil {
		return fmt.Errorf("collection: %w", err)
	}
	if err := c.Diagnostics.Validate(); err != nil {
		return fmt.Errorf("diagnostics: %w", err)
	}
	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	return nil
}
