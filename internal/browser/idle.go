package browser

import (
	"context"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// idleTracker follows in-flight requests of one tab. Requests are keyed by id
// so events for requests started before tracking began cannot drive the count
// negative.
type idleTracker struct {
	mu       sync.Mutex
	inflight map[network.RequestID]struct{}
	last     time.Time
	now      func() time.Time
}

func newIdleTracker() *idleTracker {
	return &idleTracker{
		inflight: make(map[network.RequestID]struct{}),
		last:     time.Now(),
		now:      time.Now,
	}
}

// listen registers the tracker on a chromedp tab context. It may be called
// before the first Run.
func (t *idleTracker) listen(ctx context.Context) {
	chromedp.ListenTarget(ctx, func(ev any) {
		switch e := ev.(type) {
		case *network.EventRequestWillBeSent:
			t.started(e.RequestID)
		case *network.EventLoadingFinished:
			t.finished(e.RequestID)
		case *network.EventLoadingFailed:
			t.finished(e.RequestID)
		}
	})
}

func (t *idleTracker) started(id network.RequestID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.inflight[id] = struct{}{}
	t.last = t.now()
}

func (t *idleTracker) finished(id network.RequestID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.inflight, id)
	t.last = t.now()
}

// idleFor reports whether nothing has been in flight for at least quiet.
func (t *idleTracker) idleFor(quiet time.Duration) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.inflight) == 0 && t.now().Sub(t.last) >= quiet
}

// wait polls until idleFor(quiet) holds or ctx ends.
func (t *idleTracker) wait(ctx context.Context, quiet time.Duration) error {
	poll := quiet / 5
	if poll < 20*time.Millisecond {
		poll = 20 * time.Millisecond
	}
	ticker := time.NewTicker(poll)
	defer ticker.Stop()
	for {
		if t.idleFor(quiet) {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
