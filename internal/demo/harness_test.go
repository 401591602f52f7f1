package demo

import (
	"runtime"
	"testing"
	"time"
	"weak"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-leaklab/config"
	"github.com/dep2p/go-leaklab/internal/core/eventbus"
	"github.com/dep2p/go-leaklab/internal/core/weakbus"
)

const (
	defaultWait = 5 * time.Second
	defaultTick = 10 * time.Millisecond
)

func newTestHarness(t *testing.T, batch int) *Harness {
	t.Helper()
	cfg := config.DefaultDemoConfig().WithBatchSize(batch)
	return NewHarness(cfg, NewCensus(), eventbus.NewPublisher(), eventbus.NewPublisher(), weakbus.NewAggregator())
}

// reclaimed 反复回收直到计数器的存活数降为 want
func reclaimed(t *testing.T, h *Harness, ctr *Counter, want int64) {
	t.Helper()
	require.Eventually(t, func() bool {
		h.Collect()
		return ctr.Alive() == want
	}, defaultWait, defaultTick, "alive=%d want=%d", ctr.Alive(), want)
}

func TestHarness_InitialState(t *testing.T) {
	h := newTestHarness(t, 10)

	assert.Equal(t, DefaultTitle, h.Title())
	labels := h.Labels()
	require.Len(t, labels, int(numVariants))
	for _, l := range labels {
		assert.Equal(t, "0 created, 0 still alive", l)
	}
}

func TestHarness_SpawnDefaultBatch(t *testing.T) {
	h := newTestHarness(t, 7)

	b, err := h.Spawn(ControlSubscriberVariant, 0)
	require.NoError(t, err)
	assert.Equal(t, 7, b.Count)
	assert.Equal(t, "control-subscriber", b.Name)
	assert.NotEqual(t, uuid.Nil, b.ID)

	b2, err := h.Spawn(ControlSubscriberVariant, 3)
	require.NoError(t, err)
	assert.NotEqual(t, b.ID, b2.ID)

	assert.Equal(t, "10 created, 10 still alive", h.Labels()[ControlSubscriberVariant])
	assert.Equal(t, 10, h.Form().Text.HandlerCount())
}

func TestHarness_SpawnUnknownVariant(t *testing.T) {
	h := newTestHarness(t, 1)

	_, err := h.Spawn(Variant(42), 1)
	assert.ErrorIs(t, err, ErrUnknownVariant)
}

func TestHarness_CollectableVariants(t *testing.T) {
	for _, v := range []Variant{EventRaiserVariant, BusPublisherVariant, WeakSubscriberVariant} {
		t.Run(v.String(), func(t *testing.T) {
			h := newTestHarness(t, 1000)

			_, err := h.Spawn(v, 0)
			require.NoError(t, err)

			ctr := h.Census().Counter(v)
			assert.EqualValues(t, 1000, ctr.Created())
			reclaimed(t, h, ctr, 0)
			assert.Equal(t, "1000 created, 0 still alive", ctr.Label())
		})
	}
}

func TestHarness_LeakingVariants(t *testing.T) {
	for _, v := range []Variant{ControlSubscriberVariant, BusSubscriberVariant} {
		t.Run(v.String(), func(t *testing.T) {
			h := newTestHarness(t, 1000)

			_, err := h.Spawn(v, 0)
			require.NoError(t, err)

			h.Collect()
			h.Collect()

			ctr := h.Census().Counter(v)
			assert.EqualValues(t, 1000, ctr.Created())
			assert.EqualValues(t, 1000, ctr.Alive())
			runtime.KeepAlive(h)
		})
	}
}

func TestHarness_Broadcast(t *testing.T) {
	h := newTestHarness(t, 1)

	_, err := h.Spawn(ControlSubscriberVariant, 3)
	require.NoError(t, err)
	_, err = h.Spawn(BusSubscriberVariant, 4)
	require.NoError(t, err)

	ctr := h.Census().Counter(WeakSubscriberVariant)
	kept := make([]*WeakSubscriber, 5)
	for i := range kept {
		kept[i], err = NewWeakSubscriber(ctr, h.agg)
		require.NoError(t, err)
	}

	d, err := h.Broadcast("ping")
	require.NoError(t, err)
	assert.Equal(t, Delivery{Control: 3, Bus: 4, Weak: 5}, d)
	for _, s := range kept {
		assert.Equal(t, "ping", s.LatestMessage)
	}
	assert.Equal(t, "ping", h.Form().Text.Text())

	// 文本未变化，控件不再通知
	d, err = h.Broadcast("ping")
	require.NoError(t, err)
	assert.Equal(t, 0, d.Control)
	assert.Equal(t, 4, d.Bus)

	runtime.KeepAlive(kept)
}

func TestHarness_BroadcastWithoutBusSubscribers(t *testing.T) {
	h := newTestHarness(t, 1)

	d, err := h.Broadcast("ping")
	require.NoError(t, err)
	assert.Zero(t, d.Bus)

	// 广播不应顺带创建 string 通道
	_, ok := eventbus.LookupChannel[string](h.listeners)
	assert.False(t, ok)
}

func TestHarness_BroadcastCountsBusDeliveries(t *testing.T) {
	h := newTestHarness(t, 1)

	_, err := h.Spawn(BusSubscriberVariant, 2)
	require.NoError(t, err)
	s, err := NewBusSubscriber(h.Census().Counter(BusSubscriberVariant), h.listeners)
	require.NoError(t, err)

	d, err := h.Broadcast("one")
	require.NoError(t, err)
	assert.Equal(t, 3, d.Bus)
	assert.Equal(t, "one", s.LatestMessage)

	require.NoError(t, s.Unsubscribe())
	d, err = h.Broadcast("two")
	require.NoError(t, err)
	assert.Equal(t, 2, d.Bus)
	assert.Equal(t, "one", s.LatestMessage)

	topic, ok := eventbus.LookupChannel[string](h.listeners)
	require.True(t, ok)
	assert.EqualValues(t, 5, topic.Channel().Delivered())
}

func TestHarness_BroadcastDefaultMessage(t *testing.T) {
	h := newTestHarness(t, 1)

	s, err := NewWeakSubscriber(h.Census().Counter(WeakSubscriberVariant), h.agg)
	require.NoError(t, err)

	_, err = h.Broadcast("")
	require.NoError(t, err)
	assert.Equal(t, DefaultMessage, s.LatestMessage)
	runtime.KeepAlive(s)
}

func TestHarness_WeakSubscribersPrunedOnBroadcast(t *testing.T) {
	h := newTestHarness(t, 100)

	_, err := h.Spawn(WeakSubscriberVariant, 0)
	require.NoError(t, err)
	assert.Equal(t, 100, weakbus.Len[string](h.agg))

	reclaimed(t, h, h.Census().Counter(WeakSubscriberVariant), 0)
	// 回收后条目仍在，直到下一次发布
	assert.Equal(t, 100, weakbus.Len[string](h.agg))

	d, err := h.Broadcast("after")
	require.NoError(t, err)
	assert.Equal(t, 0, d.Weak)
	assert.Equal(t, 0, weakbus.Len[string](h.agg))
	assert.EqualValues(t, 100, h.agg.Pruned())
}

func TestEventRaiser_SetsTitle(t *testing.T) {
	h := newTestHarness(t, 1)

	r := NewEventRaiser(h.Census().Counter(EventRaiserVariant))
	r.OnSomething(h.onSomething)
	r.RaiseSomething()

	assert.Equal(t, RaisedTitle, h.Title())
}

func TestBusPublisher_PublishSomething(t *testing.T) {
	census := NewCensus()
	pub := eventbus.NewPublisher()

	var got []string
	_, err := eventbus.GetChannel[string](pub).Subscribe(func(s string) { got = append(got, s) })
	require.NoError(t, err)

	p := NewBusPublisher(census.Counter(BusPublisherVariant), pub)
	require.NoError(t, p.PublishSomething())
	assert.Equal(t, []string{"Hello world"}, got)
}

func TestBusSubscriber_UnsubscribeReleases(t *testing.T) {
	census := NewCensus()
	pub := eventbus.NewPublisher()
	ctr := census.Counter(BusSubscriberVariant)

	ref := func() weak.Pointer[BusSubscriber] {
		s, err := NewBusSubscriber(ctr, pub)
		require.NoError(t, err)
		require.NoError(t, pub.Publish("hi"))
		assert.Equal(t, "hi", s.LatestMessage)
		require.NoError(t, s.Unsubscribe())
		return weak.Make(s)
	}()

	require.Eventually(t, func() bool {
		runtime.GC()
		return ref.Value() == nil && ctr.Alive() == 0
	}, defaultWait, defaultTick)
	assert.Equal(t, 0, eventbus.GetChannel[string](pub).Len())
}
