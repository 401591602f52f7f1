package leaklab

import "errors"

// 公共错误定义
var (
	// ErrNotStarted 实验室未启动
	ErrNotStarted = errors.New("lab not started")

	// ErrAlreadyStarted 实验室已启动
	ErrAlreadyStarted = errors.New("lab already started")

	// ErrLabClosed 实验室已关闭
	ErrLabClosed = errors.New("lab closed")

	// ErrNilConfig 传入了空配置
	ErrNilConfig = errors.New("nil config")
)
