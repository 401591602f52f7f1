package main

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dep2p/go-leaklab/config"
)

// ============================================================================
//                              环境变量覆盖（CLI 专用）
// ============================================================================

// applyEnvOverrides 应用环境变量覆盖配置
//
// 环境变量优先级高于配置文件，但低于命令行参数。
// 无法解析的值会被忽略并记录警告，保持原有配置。
// 支持的环境变量（均使用 LEAKLAB_ 前缀）：
//   - LEAKLAB_BATCH_SIZE: 每批生成数量
//   - LEAKLAB_REFRESH_INTERVAL: 计数刷新间隔
//   - LEAKLAB_MESSAGE: 广播默认消息
//   - LEAKLAB_ENABLE_WATCHDOG: 启用堆水位自动回收
//   - LEAKLAB_HEAP_LIMIT: 堆上限（字节）
//   - LEAKLAB_INTROSPECT_ADDR: 自省服务地址
//   - LEAKLAB_LOG_LEVEL / LEAKLAB_LOG_FORMAT: 日志
func applyEnvOverrides(cfg *config.Config) {
	// LEAKLAB_BATCH_SIZE
	if v := getenv(config.EnvBatchSize); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Demo.BatchSize = n
		} else {
			logger.Warn("忽略无效的环境变量", "name", config.EnvPrefix+config.EnvBatchSize, "value", v)
		}
	}

	// LEAKLAB_REFRESH_INTERVAL
	if v := getenv(config.EnvRefreshInterval); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Demo.RefreshInterval = config.Duration(d)
		} else {
			logger.Warn("忽略无效的环境变量", "name", config.EnvPrefix+config.EnvRefreshInterval, "value", v)
		}
	}

	// LEAKLAB_MESSAGE
	if v := getenv(config.EnvMessage); v != "" {
		cfg.Demo.Message = v
	}

	// LEAKLAB_ENABLE_WATCHDOG
	if v := getenv(config.EnvEnableWatchdog); v != "" {
		cfg.Collection.EnableWatchdog = parseBool(v)
	}

	// LEAKLAB_HEAP_LIMIT
	if v := getenv(config.EnvHeapLimit); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			cfg.Collection.HeapLimit = n
		} else {
			logger.Warn("忽略无效的环境变量", "name", config.EnvPrefix+config.EnvHeapLimit, "value", v)
		}
	}

	// LEAKLAB_INTROSPECT_ADDR
	if v := getenv(config.EnvIntrospectAddr); v != "" {
		cfg.Diagnostics.EnableIntrospect = true
		cfg.Diagnostics.IntrospectAddr = v
	}

	// LEAKLAB_LOG_LEVEL / LEAKLAB_LOG_FORMAT
	if v := getenv(config.EnvLogLevel); v != "" {
		cfg.Log.Level = strings.ToLower(v)
	}
	if v := getenv(config.EnvLogFormat); v != "" {
		cfg.Log.Format = strings.ToLower(v)
	}
}

func getenv(name string) string {
	return strings.TrimSpace(os.Getenv(config.EnvPrefix + name))
}

// ============================================================================
//                              辅助函数
// ============================================================================

// parseBool 解析布尔值字符串
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes" || s == "on"
}
