package config

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
)

// FromJSON 从 JSON 数据创建配置
//
// 未出现的字段保持默认值。示例：
//
//	{
//	  "demo": {"batch_size": 1000, "refresh_interval": "500ms"},
//	  "collection": {"enable_watchdog": true}
//	}
func FromJSON(data []byte) (*Config, error) {
	cfg := NewConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadFile 从 JSON 文件加载配置
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return FromJSON(data)
}

// ToJSON 序列化配置
func (c *Config) ToJSON() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}

// Clone 深拷贝配置
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	cloned := *c
	cloned.Collection.Watermarks = slices.Clone(c.Collection.Watermarks)
	return &cloned
}
