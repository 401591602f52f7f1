package config

import (
	"errors"
	"fmt"
)

// CollectionConfig 回收配置
//
// 强制回收始终可用；自动回收（堆水位驱动）默认关闭，
// 开启后堆使用越过水位时运行时会自行回收。
type CollectionConfig struct {
	// EnableWatchdog 启用基于堆水位的自动回收
	EnableWatchdog bool `json:"enable_watchdog"`

	// HeapLimit 堆上限（字节）
	// 为 0 时取系统内存的 LimitRatio
	HeapLimit uint64 `json:"heap_limit,omitempty"`

	// LimitRatio 未设置 HeapLimit 时占系统内存的比例
	LimitRatio float64 `json:"limit_ratio"`

	// MinGOGC 最小 GOGC
	MinGOGC int `json:"min_gogc"`

	// Watermarks 触发回收的水位（占堆上限的比例，升序）
	Watermarks []float64 `json:"watermarks"`
}

// DefaultCollectionConfig 返回默认回收配置
func DefaultCollectionConfig() CollectionConfig {
	return CollectionConfig{
		EnableWatchdog: false, // 默认只允许人工触发回收
		HeapLimit:      0,
		LimitRatio:     0.5,
		MinGOGC:        25,
		Watermarks:     []float64{0.5, 0.75, 0.9},
	}
}

// Validate 验证回收配置
func (c CollectionConfig) Validate() error {
	if c.LimitRatio < 0 || c.LimitRatio > 1 {
		return fmt.Errorf("limit ratio %v out of range [0, 1]", c.LimitRatio)
	}
	if c.MinGOGC <= 0 {
		return errors.New("min GOGC must be positive")
	}
	if c.EnableWatchdog && len(c.Watermarks) == 0 {
		return errors.New("watchdog enabled but no watermarks specified")
	}
	prev := 0.0
	for _, w := range c.Watermarks {
		if w <= prev || w > 1 {
			return fmt.Errorf("watermarks must be ascending within (0, 1], got %v", c.Watermarks)
		}
		prev = w
	}
	return nil
}
