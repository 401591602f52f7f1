package config

import (
	"errors"
	"time"
)

// DemoConfig 演示配置
//
// 控制每次生成的对象数量与计数标签的刷新节奏。
type DemoConfig struct {
	// BatchSize 每批生成的对象数量
	BatchSize int `json:"batch_size"`

	// RefreshInterval 计数标签刷新间隔
	RefreshInterval Duration `json:"refresh_interval"`

	// Message 广播时发送的默认消息
	Message string `json:"message,omitempty"`
}

// DefaultDemoConfig 返回默认演示配置
func DefaultDemoConfig() DemoConfig {
	return DemoConfig{
		BatchSize:       10000,                     // 每批 10000 个对象
		RefreshInterval: Duration(1 * time.Second), // 每秒刷新一次标签
		Message:         "Hello world",
	}
}

// Validate 验证演示配置
func (c DemoConfig) Validate() error {
	if c.BatchSize <= 0 {
		return errors.New("batch size must be positive")
	}
	if c.RefreshInterval <= 0 {
		return errors.New("refresh interval must be positive")
	}
	return nil
}

// WithBatchSize 设置批量大小
func (c DemoConfig) WithBatchSize(n int) DemoConfig {
	c.BatchSize = n
	return c
}

// WithRefreshInterval 设置刷新间隔
func (c DemoConfig) WithRefreshInterval(d time.Duration) DemoConfig {
	c.RefreshInterval = Duration(d)
	return c
}
