package browser

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/chromedp/cdproto/network"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestIdleTracker_QuietPeriod(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	tr := newIdleTracker()
	tr.now = clock.Now
	tr.last = clock.Now()

	tr.started("r1")
	tr.started("r2")
	clock.Advance(time.Second)
	if tr.idleFor(500 * time.Millisecond) {
		t.Fatal("should not be idle with requests in flight")
	}

	tr.finished("r1")
	tr.finished("r2")
	if tr.idleFor(500 * time.Millisecond) {
		t.Fatal("should not be idle right after the last request finished")
	}

	clock.Advance(600 * time.Millisecond)
	if !tr.idleFor(500 * time.Millisecond) {
		t.Fatal("expected idle after the quiet period")
	}
}

func TestIdleTracker_UnknownFinishIsIgnored(t *testing.T) {
	tr := newIdleTracker()
	tr.finished(network.RequestID("never-started"))
	if len(tr.inflight) != 0 {
		t.Fatalf("expected empty inflight set, got %d", len(tr.inflight))
	}
}

func TestIdleTracker_WaitHonoursContext(t *testing.T) {
	tr := newIdleTracker()
	tr.started("busy")

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()
	if err := tr.wait(ctx, 10*time.Millisecond); err == nil {
		t.Fatal("expected context error while a request is in flight")
	}
}

func TestIdleTracker_WaitReturnsWhenIdle(t *testing.T) {
	tr := newIdleTracker()
	tr.last = time.Now().Add(-time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := tr.wait(ctx, 50*time.Millisecond); err != nil {
		t.Fatalf("wait: %v", err)
	}
}

func TestJSString_Escapes(t *testing.T) {
	got := jsString(`select[name$='ddl"State']`)
	want := `"select[name$='ddl\"State']"`
	if got != want {
		t.Fatalf("jsString = %s, want %s", got, want)
	}
}
