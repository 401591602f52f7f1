package eventbus

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	defaultWait = 2 * time.Second
	defaultTick = 10 * time.Millisecond
)

// TestSubscription_NilHandler 测试空回调
func TestSubscription_NilHandler(t *testing.T) {
	p := NewPublisher()

	ch, err := p.Channel(new(string))
	require.NoError(t, err)

	_, err = ch.Subscribe(nil)
	assert.ErrorIs(t, err, ErrNilHandler)

	_, err = GetChannel[string](p).Subscribe(nil)
	assert.ErrorIs(t, err, ErrNilHandler)
	assert.Equal(t, 0, ch.Len())
}

// TestSubscription_Close 测试关闭订阅
func TestSubscription_Close(t *testing.T) {
	p := NewPublisher()
	topic := GetChannel[int](p)

	var got []int
	sub, err := topic.Subscribe(func(v int) { got = append(got, v) })
	require.NoError(t, err)
	assert.Equal(t, 1, topic.Len())

	Publish(p, 1)
	require.NoError(t, sub.Close())
	Publish(p, 2)

	assert.Equal(t, []int{1}, got)
	assert.Equal(t, 0, topic.Len())
}

// TestSubscription_CloseTwice 测试重复关闭
func TestSubscription_CloseTwice(t *testing.T) {
	p := NewPublisher()

	sub, err := GetChannel[int](p).Subscribe(func(int) {})
	require.NoError(t, err)

	assert.NoError(t, sub.Close())
	assert.NoError(t, sub.Close())
}

// TestSubscription_CloseDuringEmit 测试回调内取消其他订阅
func TestSubscription_CloseDuringEmit(t *testing.T) {
	p := NewPublisher()
	topic := GetChannel[string](p)

	var second []string
	var secondSub interface{ Close() error }

	_, err := topic.Subscribe(func(string) {
		_ = secondSub.Close()
	})
	require.NoError(t, err)

	secondSub, err = topic.Subscribe(func(s string) { second = append(second, s) })
	require.NoError(t, err)

	// 第一个回调关闭了第二个订阅，第二个不应再收到本次事件
	Publish(p, "x")
	assert.Empty(t, second)
	assert.Equal(t, 1, topic.Len())
}

// TestSubscription_SubscribeDuringEmit 测试回调内订阅
func TestSubscription_SubscribeDuringEmit(t *testing.T) {
	p := NewPublisher()
	topic := GetChannel[string](p)

	var late []string
	_, err := topic.Subscribe(func(string) {
		_, _ = topic.Subscribe(func(s string) { late = append(late, s) })
	})
	require.NoError(t, err)

	Publish(p, "first")
	assert.Empty(t, late, "subscriber added during emit receives the next event")

	Publish(p, "second")
	assert.Equal(t, []string{"second"}, late)
}

// TestConcurrent_FirstAccess 测试并发首次访问只创建一个通道
func TestConcurrent_FirstAccess(t *testing.T) {
	p := NewPublisher()

	const n = 32
	channels := make([]*Channel, n)

	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(idx int) {
			defer wg.Done()
			channels[idx] = GetChannel[string](p).Channel()
		}(i)
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		assert.Same(t, channels[0], channels[i])
	}
}

// TestConcurrent_SubscribeAndPublish 测试并发订阅与发布
func TestConcurrent_SubscribeAndPublish(t *testing.T) {
	p := NewPublisher()
	topic := GetChannel[int](p)

	var mu sync.Mutex
	total := 0

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = topic.Subscribe(func(int) {
				mu.Lock()
				total++
				mu.Unlock()
			})
		}()
		go func(v int) {
			defer wg.Done()
			Publish(p, v)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 10, topic.Len())

	mu.Lock()
	before := total
	mu.Unlock()

	Publish(p, 100)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, before+10, total)
}
