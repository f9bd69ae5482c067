package readiness_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/raysh454/policeform/internal/logging"
	"github.com/raysh454/policeform/internal/readiness"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type countingProber struct {
	calls atomic.Int32
	err   error
	delay time.Duration
	panic bool
	// honorCtx makes the probe fail with the context's error, like a launch
	// aborted by its caller.
	honorCtx bool
}

func (p *countingProber) Probe(ctx context.Context, _ time.Duration) error {
	p.calls.Add(1)
	if p.delay > 0 {
		time.Sleep(p.delay)
	}
	if p.panic {
		panic("probe blew up")
	}
	if p.honorCtx && ctx.Err() != nil {
		return ctx.Err()
	}
	return p.err
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newCache(p readiness.Prober, ttl time.Duration, clk *clock) *readiness.Cache {
	return readiness.New(p, readiness.Config{TTL: ttl, ProbeTimeout: time.Second}, logging.NewNopLogger()).WithClock(clk.Now)
}

func TestCache_InitialState(t *testing.T) {
	c := newCache(&countingProber{}, time.Minute, &clock{now: time.Unix(0, 0)})
	st := c.Get()
	assert.False(t, st.ServerReady)
	assert.False(t, st.BrowserReady)
	assert.True(t, st.LastChecked.IsZero())

	c.MarkServerReady()
	assert.True(t, c.Get().ServerReady)
}

func TestCache_BrowserStatusUsesTTL(t *testing.T) {
	p := &countingProber{}
	clk := &clock{now: time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)}
	c := newCache(p, 5*time.Minute, clk)
	ctx := context.Background()

	first := c.BrowserStatus(ctx)
	assert.True(t, first.Ready)
	assert.False(t, first.Cached)
	require.NotNil(t, first.LastChecked)

	clk.Advance(4 * time.Minute)
	second := c.BrowserStatus(ctx)
	assert.True(t, second.Cached)
	assert.Equal(t, *first.LastChecked, *second.LastChecked)
	assert.EqualValues(t, 1, p.calls.Load())

	clk.Advance(2 * time.Minute)
	third := c.BrowserStatus(ctx)
	assert.False(t, third.Cached)
	assert.EqualValues(t, 2, p.calls.Load())
}

func TestCache_RefreshRecordsFailure(t *testing.T) {
	p := &countingProber{err: errors.New("no chrome")}
	c := newCache(p, time.Minute, &clock{now: time.Unix(100, 0)})

	st := c.Refresh(context.Background())
	assert.False(t, st.BrowserReady)
	assert.Equal(t, time.Unix(100, 0), st.LastChecked)
}

func TestCache_CancelledCallerDoesNotMarkBrowserDown(t *testing.T) {
	p := &countingProber{honorCtx: true}
	c := newCache(p, 5*time.Minute, &clock{now: time.Unix(100, 0)})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	st := c.BrowserStatus(ctx)
	assert.True(t, st.Ready)
	assert.False(t, st.Cached)

	st = c.BrowserStatus(context.Background())
	assert.True(t, st.Ready)
	assert.True(t, st.Cached)
	assert.EqualValues(t, 1, p.calls.Load())
}

func TestCache_RefreshIgnoresOwnCancellation(t *testing.T) {
	p := &countingProber{honorCtx: true}
	c := newCache(p, 5*time.Minute, &clock{now: time.Unix(100, 0)})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	st := c.Refresh(ctx)
	assert.False(t, st.BrowserReady)
	assert.True(t, st.LastChecked.IsZero(), "an abandoned probe is not a result")

	st = c.BrowserStatus(context.Background())
	assert.True(t, st.Ready)
	assert.False(t, st.Cached)
	assert.EqualValues(t, 2, p.calls.Load())
}

func TestCache_ConcurrentRefreshesShareOneProbe(t *testing.T) {
	p := &countingProber{delay: 100 * time.Millisecond}
	c := newCache(p, time.Minute, &clock{now: time.Unix(0, 0)})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Refresh(context.Background())
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, p.calls.Load(), int32(2))
	assert.True(t, c.Get().BrowserReady)
}

func TestCache_ProbePanicIsContained(t *testing.T) {
	p := &countingProber{panic: true}
	c := newCache(p, time.Minute, &clock{now: time.Unix(0, 0)})

	st := c.Refresh(context.Background())
	assert.False(t, st.BrowserReady)
	assert.False(t, st.LastChecked.IsZero())
}

func TestCache_StartRunsInBackground(t *testing.T) {
	p := &countingProber{}
	c := newCache(p, time.Minute, &clock{now: time.Unix(0, 0)})

	c.Start(context.Background())
	c.Wait()
	assert.EqualValues(t, 1, p.calls.Load())
	assert.True(t, c.Get().BrowserReady)
}
