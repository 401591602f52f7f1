package config

// 环境变量名称
//
// 完整名称为 EnvPrefix + 后缀，例如 LEAKLAB_BATCH_SIZE。
const (
	// EnvPrefix 环境变量前缀
	EnvPrefix = "LEAKLAB_"

	// EnvBatchSize 每批生成数量
	EnvBatchSize = "BATCH_SIZE"

	// EnvRefreshInterval 计数刷新间隔（如 "500ms"）
	EnvRefreshInterval = "REFRESH_INTERVAL"

	// EnvMessage 广播默认消息
	EnvMessage = "MESSAGE"

	// EnvEnableWatchdog 启用堆水位自动回收
	EnvEnableWatchdog = "ENABLE_WATCHDOG"

	// EnvHeapLimit 堆上限（字节）
	EnvHeapLimit = "HEAP_LIMIT"

	// EnvIntrospectAddr 自省服务地址，设置即启用
	EnvIntrospectAddr = "INTROSPECT_ADDR"

	// EnvLogLevel 日志级别
	EnvLogLevel = "LOG_LEVEL"

	// EnvLogFormat 日志格式
	EnvLogFormat = "LOG_FORMAT"
)
