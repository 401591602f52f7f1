package config

import (
	"errors"
	"net"
)

// DiagnosticsConfig 诊断服务配置
type DiagnosticsConfig struct {
	// EnableIntrospect 启用自省服务
	EnableIntrospect bool `json:"enable_introspect"`

	// IntrospectAddr 自省服务监听地址
	// 默认 "127.0.0.1:6060"
	IntrospectAddr string `json:"introspect_addr"`

	// EnableMetrics 在自省服务上暴露 /metrics
	EnableMetrics bool `json:"enable_metrics"`
}

// DefaultDiagnosticsConfig 返回默认诊断配置
func DefaultDiagnosticsConfig() DiagnosticsConfig {
	return DiagnosticsConfig{
		EnableIntrospect: false, // 默认禁用
		IntrospectAddr:   "127.0.0.1:6060",
		EnableMetrics:    true,
	}
}

// Validate 验证诊断配置
func (c DiagnosticsConfig) Validate() error {
	if !c.EnableIntrospect {
		return nil
	}
	if c.IntrospectAddr == "" {
		return errors.New("introspect enabled but no address specified")
	}
	if _, _, err := net.SplitHostPort(c.IntrospectAddr); err != nil {
		return err
	}
	return nil
}
