package weakbus

import (
	"runtime"
	"testing"
	"time"
	"weak"

	pkgif "github.com/dep2p/go-leaklab/pkg/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	defaultWait = 2 * time.Second
	defaultTick = 10 * time.Millisecond
)

// listener 测试用订阅者，带指针字段以避开 tiny 分配器
type listener struct {
	name     string
	received []string
}

func (l *listener) onMessage(s string) {
	l.received = append(l.received, s)
}

// collected 反复回收，直到弱引用失效
func collected[T any](t *testing.T, ref weak.Pointer[T]) {
	t.Helper()
	require.Eventually(t, func() bool {
		runtime.GC()
		return ref.Value() == nil
	}, defaultWait, defaultTick, "target was not collected")
}

// ============================================================================
// 接口契约测试
// ============================================================================

func TestAggregator_ImplementsInterface(t *testing.T) {
	var _ pkgif.WeakAggregator = (*Aggregator)(nil)
}

// ============================================================================
// 基础功能测试
// ============================================================================

// TestAggregator_Scenario 两个字符串订阅者与一个时间订阅者
func TestAggregator_Scenario(t *testing.T) {
	message1, message2, message3 := "x", "y", "z"

	agg := NewAggregator()
	h1 := NewHandler(func(s string) { message1 = "Subscriber 1 got " + s })
	h2 := NewHandler(func(s string) { message2 = "Subscriber 2 got " + s })
	h3 := NewHandler(func(time.Time) { message3 = "Subscriber 3 got called" })

	require.NoError(t, Subscribe(agg, h1))
	require.NoError(t, Subscribe(agg, h2))
	require.NoError(t, Subscribe(agg, h3))

	n := Publish(agg, "hello world")

	assert.Equal(t, 2, n)
	assert.Equal(t, "Subscriber 1 got hello world", message1)
	assert.Equal(t, "Subscriber 2 got hello world", message2)
	assert.Equal(t, "z", message3)

	runtime.KeepAlive(h1)
	runtime.KeepAlive(h2)
	runtime.KeepAlive(h3)
}

// TestAggregator_OrderAndExactlyOnce 测试按登记顺序恰好投递一次
func TestAggregator_OrderAndExactlyOnce(t *testing.T) {
	agg := NewAggregator()

	var order []int
	handlers := make([]*Handler[int], 5)
	for i := range handlers {
		idx := i
		handlers[i] = NewHandler(func(v int) { order = append(order, idx*100+v) })
		require.NoError(t, Subscribe(agg, handlers[i]))
	}

	assert.Equal(t, 5, Publish(agg, 1))
	assert.Equal(t, []int{1, 101, 201, 301, 401}, order)
	runtime.KeepAlive(handlers)
}

// TestAggregator_PublishWithoutSubscribers 测试无订阅者时为空操作
func TestAggregator_PublishWithoutSubscribers(t *testing.T) {
	agg := NewAggregator()

	assert.Equal(t, 0, Publish(agg, "nobody"))
	n, err := agg.Publish(3.14)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	// 发布不会创建登记表
	assert.Empty(t, agg.GetAllEventTypes())
}

// TestAggregator_PublishNil 测试发布 nil
func TestAggregator_PublishNil(t *testing.T) {
	agg := NewAggregator()
	_, err := agg.Publish(nil)
	assert.ErrorIs(t, err, ErrInvalidEventType)
}

// TestAggregator_DynamicPublish 测试非泛型发布按动态类型路由
func TestAggregator_DynamicPublish(t *testing.T) {
	agg := NewAggregator()
	l := &listener{name: "dyn"}
	require.NoError(t, SubscribeTarget(agg, l, (*listener).onMessage))

	n, err := agg.Publish("via interface")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"via interface"}, l.received)
}

// TestAggregator_TypeIsolation 测试类型隔离
func TestAggregator_TypeIsolation(t *testing.T) {
	agg := NewAggregator()

	var ints, strs int
	hi := NewHandler(func(int) { ints++ })
	hs := NewHandler(func(string) { strs++ })
	require.NoError(t, Subscribe(agg, hi))
	require.NoError(t, Subscribe(agg, hs))

	Publish(agg, 10)
	Publish(agg, 20)
	assert.Equal(t, 2, ints)
	assert.Equal(t, 0, strs)

	assert.Len(t, agg.GetAllEventTypes(), 2)
	runtime.KeepAlive(hi)
	runtime.KeepAlive(hs)
}

// TestAggregator_InvalidArguments 测试非法参数
func TestAggregator_InvalidArguments(t *testing.T) {
	agg := NewAggregator()

	assert.ErrorIs(t, Subscribe[string](agg, nil), ErrNilHandler)
	assert.ErrorIs(t, Subscribe(agg, NewHandler[string](nil)), ErrNilHandler)
	assert.ErrorIs(t, SubscribeTarget[listener, string](agg, nil, (*listener).onMessage), ErrNilTarget)
	assert.ErrorIs(t, SubscribeTarget[listener, string](agg, &listener{}, nil), ErrNilHandler)

	assert.Equal(t, 0, agg.Len(nil))
	assert.Equal(t, 0, agg.Len("not a pointer"))
	assert.Equal(t, 0, Len[string](agg))
}

// ============================================================================
// 弱引用语义测试
// ============================================================================

// TestAggregator_DoesNotKeepTargetAlive 测试聚合器不延长目标生命周期
func TestAggregator_DoesNotKeepTargetAlive(t *testing.T) {
	agg := NewAggregator()

	ref := func() weak.Pointer[listener] {
		l := &listener{name: "short-lived"}
		require.NoError(t, SubscribeTarget(agg, l, (*listener).onMessage))
		return weak.Make(l)
	}()

	collected(t, ref)
	runtime.KeepAlive(agg)
}

// TestAggregator_CollectedSubscriberPruned 测试已回收订阅者被跳过并清理
func TestAggregator_CollectedSubscriberPruned(t *testing.T) {
	agg := NewAggregator()

	keep := &listener{name: "keep"}
	require.NoError(t, SubscribeTarget(agg, keep, (*listener).onMessage))

	ref := func() weak.Pointer[listener] {
		gone := &listener{name: "gone"}
		require.NoError(t, SubscribeTarget(agg, gone, (*listener).onMessage))
		return weak.Make(gone)
	}()

	collected(t, ref)

	// 清理前登记表仍包含失效条目
	assert.Equal(t, 2, Len[string](agg))

	n := Publish(agg, "after gc")
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"after gc"}, keep.received)
	assert.Equal(t, 1, Len[string](agg))
	assert.Equal(t, int64(1), agg.Pruned())

	runtime.KeepAlive(keep)
}

// TestAggregator_LazyPruning 测试只在同类型发布时清理
func TestAggregator_LazyPruning(t *testing.T) {
	agg := NewAggregator()

	ref := func() weak.Pointer[listener] {
		l := &listener{name: "lazy"}
		require.NoError(t, SubscribeTarget(agg, l, (*listener).onMessage))
		return weak.Make(l)
	}()
	collected(t, ref)

	// 其他类型的发布不影响 string 登记表
	Publish(agg, 42)
	assert.Equal(t, 1, Len[string](agg))
	assert.Equal(t, int64(0), agg.Pruned())

	assert.Equal(t, 0, Publish(agg, "now"))
	assert.Equal(t, 0, Len[string](agg))
	assert.Equal(t, int64(1), agg.Pruned())
}

// owner 通过字段持有自己的 Handler，形成可回收的环
type owner struct {
	name    string
	latest  string
	handler *Handler[string]
}

func newOwner(agg *Aggregator, name string) *owner {
	o := &owner{name: name}
	o.handler = NewHandler(func(s string) { o.latest = s })
	_ = Subscribe(agg, o.handler)
	return o
}

// TestAggregator_HandlerOwnedBySubscriber 测试 Handler 随拥有者存活与回收
func TestAggregator_HandlerOwnedBySubscriber(t *testing.T) {
	agg := NewAggregator()

	alive := newOwner(agg, "alive")
	ref := func() weak.Pointer[owner] {
		return weak.Make(newOwner(agg, "dropped"))
	}()

	collected(t, ref)

	assert.Equal(t, 1, Publish(agg, "ping"))
	assert.Equal(t, "ping", alive.latest)
	assert.Equal(t, 1, Len[string](agg))
	runtime.KeepAlive(alive)
}

// holder 在回调期间释放外部强引用
type holder struct {
	target *listener
}

// TestAggregator_TargetPinnedDuringDelivery 测试投递期间目标不会被回收
func TestAggregator_TargetPinnedDuringDelivery(t *testing.T) {
	agg := NewAggregator()

	h := &holder{target: &listener{name: "pinned"}}
	ref := weak.Make(h.target)

	var stillAlive bool
	require.NoError(t, SubscribeTarget(agg, h.target, func(l *listener, s string) {
		// 丢掉唯一的外部强引用并强制回收
		h.target = nil
		runtime.GC()
		runtime.GC()
		stillAlive = ref.Value() != nil
		l.received = append(l.received, s)
	}))

	assert.Equal(t, 1, Publish(agg, "pinned"))
	assert.True(t, stillAlive)

	// 投递结束后目标不再可达
	collected(t, ref)
	assert.Equal(t, 0, Publish(agg, "late"))
}

// TestAggregator_SubscribeDuringPublish 测试回调内订阅
func TestAggregator_SubscribeDuringPublish(t *testing.T) {
	agg := NewAggregator()

	var late []string
	lateHandler := NewHandler(func(s string) { late = append(late, s) })
	first := NewHandler(func(string) {
		if Len[string](agg) == 1 {
			_ = Subscribe(agg, lateHandler)
		}
	})
	require.NoError(t, Subscribe(agg, first))

	assert.Equal(t, 1, Publish(agg, "one"))
	assert.Empty(t, late)

	assert.Equal(t, 2, Publish(agg, "two"))
	assert.Equal(t, []string{"two"}, late)

	runtime.KeepAlive(first)
	runtime.KeepAlive(lateHandler)
}
