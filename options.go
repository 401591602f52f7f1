package leaklab

import (
	"fmt"
	"time"

	"go.uber.org/fx"

	"github.com/dep2p/go-leaklab/config"
	"github.com/dep2p/go-leaklab/internal/demo"
)

// Option 配置选项函数
type Option func(*labConfig) error

// labConfig 内部选项结构
type labConfig struct {
	config *config.Config

	// reporter 监视器输出，nil 时使用结构化日志
	reporter demo.Reporter

	// userFxOptions 用户自定义 Fx 选项
	userFxOptions []fx.Option
}

func newLabConfig() *labConfig {
	return &labConfig{config: config.NewConfig()}
}

// WithConfig 使用完整配置替换默认配置
//
// 需要放在其他选项之前，否则会覆盖之前选项的效果。
func WithConfig(cfg *config.Config) Option {
	return func(c *labConfig) error {
		if cfg == nil {
			return ErrNilConfig
		}
		c.config = cfg.Clone()
		return nil
	}
}

// WithConfigFile 从 JSON 文件加载配置
func WithConfigFile(path string) Option {
	return func(c *labConfig) error {
		cfg, err := config.LoadFile(path)
		if err != nil {
			return err
		}
		c.config = cfg
		return nil
	}
}

// WithBatchSize 设置每批生成的对象数量
func WithBatchSize(n int) Option {
	return func(c *labConfig) error {
		if n <= 0 {
			return fmt.Errorf("batch size must be positive, got %d", n)
		}
		c.config.Demo.BatchSize = n
		return nil
	}
}

// WithRefreshInterval 设置计数标签刷新间隔
func WithRefreshInterval(d time.Duration) Option {
	return func(c *labConfig) error {
		if d <= 0 {
			return fmt.Errorf("refresh interval must be positive, got %s", d)
		}
		c.config.Demo.RefreshInterval = config.Duration(d)
		return nil
	}
}

// WithIntrospect 启用自省 HTTP 服务
//
// addr 为空时使用默认地址 127.0.0.1:6060。
func WithIntrospect(addr string) Option {
	return func(c *labConfig) error {
		c.config.Diagnostics.EnableIntrospect = true
		if addr != "" {
			c.config.Diagnostics.IntrospectAddr = addr
		}
		return nil
	}
}

// WithWatchdog 启用或禁用基于堆水位的自动回收
func WithWatchdog(enable bool) Option {
	return func(c *labConfig) error {
		c.config.Collection.EnableWatchdog = enable
		return nil
	}
}

// WithReporter 设置计数标签的输出方式
func WithReporter(r demo.Reporter) Option {
	return func(c *labConfig) error {
		c.reporter = r
		return nil
	}
}

// WithFxOption 追加自定义 Fx 选项
func WithFxOption(opts ...fx.Option) Option {
	return func(c *labConfig) error {
		c.userFxOptions = append(c.userFxOptions, opts...)
		return nil
	}
}
