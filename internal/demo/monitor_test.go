package demo

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type recorder struct {
	calls atomic.Int32
	last  atomic.Pointer[[]Stat]
	title atomic.Pointer[string]
}

func (r *recorder) report(title string, stats []Stat) {
	r.last.Store(&stats)
	r.title.Store(&title)
	r.calls.Add(1)
}

func TestMonitor_RefreshOnStartAndTick(t *testing.T) {
	defer goleak.VerifyNone(t)

	h := newTestHarness(t, 1)
	mock := clock.NewMock()
	rec := &recorder{}
	m := NewMonitor(h, time.Second, WithClock(mock), WithReporter(rec.report))

	require.NoError(t, m.Start(context.Background()))
	// 启动时立即刷新一次
	assert.EqualValues(t, 1, rec.calls.Load())
	assert.Equal(t, DefaultTitle, *rec.title.Load())
	assert.ErrorIs(t, m.Start(context.Background()), ErrMonitorRunning)

	_, err := h.Spawn(ControlSubscriberVariant, 2)
	require.NoError(t, err)

	mock.Add(time.Second)
	require.Eventually(t, func() bool { return rec.calls.Load() >= 2 }, defaultWait, defaultTick)

	stats := *rec.last.Load()
	assert.Equal(t, "2 created, 2 still alive", stats[ControlSubscriberVariant].Label)

	require.NoError(t, m.Stop())
	require.NoError(t, m.Stop())
}

func TestMonitor_StopsOnContextCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	h := newTestHarness(t, 1)
	rec := &recorder{}
	m := NewMonitor(h, time.Hour, WithClock(clock.NewMock()), WithReporter(rec.report))

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, m.Start(ctx))
	cancel()

	require.NoError(t, m.Stop())
	assert.EqualValues(t, 1, rec.calls.Load())
}

func TestMonitor_RestartAfterContextCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	h := newTestHarness(t, 1)
	rec := &recorder{}
	m := NewMonitor(h, time.Hour, WithClock(clock.NewMock()), WithReporter(rec.report))

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, m.Start(ctx))
	cancel()

	// 循环退出后不需要 Stop 即可重新启动
	require.Eventually(t, func() bool {
		return m.Start(context.Background()) == nil
	}, defaultWait, defaultTick)
	assert.EqualValues(t, 2, rec.calls.Load())

	require.NoError(t, m.Stop())
}

func TestMonitor_NilReporterKeepsDefault(t *testing.T) {
	m := NewMonitor(newTestHarness(t, 1), time.Second, WithReporter(nil))
	require.NotNil(t, m.report)
	m.Refresh()
}
