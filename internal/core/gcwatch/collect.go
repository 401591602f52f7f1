// Package gcwatch 提供强制回收与基于堆水位的自动回收
package gcwatch

import (
	"runtime"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/dep2p/go-leaklab/pkg/lib/log"
)

var logger = log.Logger("core/gcwatch")

// Result 一次强制回收的结果
type Result struct {
	// HeapBefore 回收前堆上存活字节数
	HeapBefore uint64 `json:"heap_before"`
	// HeapAfter 回收后堆上存活字节数
	HeapAfter uint64 `json:"heap_after"`
	// ObjectsBefore 回收前存活对象数
	ObjectsBefore uint64 `json:"objects_before"`
	// ObjectsAfter 回收后存活对象数
	ObjectsAfter uint64 `json:"objects_after"`
	// NumGC 累计 GC 次数
	NumGC uint32 `json:"num_gc"`
	// Duration 回收耗时
	Duration time.Duration `json:"duration"`
}

// Freed 返回释放的字节数
func (r Result) Freed() uint64 {
	if r.HeapAfter >= r.HeapBefore {
		return 0
	}
	return r.HeapBefore - r.HeapAfter
}

// Collect 同步执行一次完整回收
//
// 返回时标记与清扫都已完成，弱引用已失效；
// runtime.AddCleanup 注册的清理函数在独立 goroutine 上异步执行。
func Collect() Result {
	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)

	start := time.Now()
	runtime.GC()
	elapsed := time.Since(start)

	runtime.ReadMemStats(&after)

	r := Result{
		HeapBefore:    before.HeapAlloc,
		HeapAfter:     after.HeapAlloc,
		ObjectsBefore: before.HeapObjects,
		ObjectsAfter:  after.HeapObjects,
		NumGC:         after.NumGC,
		Duration:      elapsed,
	}
	logger.Info("强制回收完成",
		"heapBefore", humanize.Bytes(r.HeapBefore),
		"heapAfter", humanize.Bytes(r.HeapAfter),
		"freed", humanize.Bytes(r.Freed()),
		"elapsed", elapsed)
	return r
}
