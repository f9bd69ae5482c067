package testutil

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/raysh454/policeform/internal/browser"
	"github.com/raysh454/policeform/internal/logging"
)

// CloseCounter records how often each session closer ran.
type CloseCounter struct {
	Context atomic.Int32
	Browser atomic.Int32
}

// FakeLauncher implements browser.Launcher without starting a browser.
type FakeLauncher struct {
	// FailFirst makes the first N launches fail.
	FailFirst int
	// NewPage builds the page for each session; defaults to NewFakePage.
	NewPage func() browser.Page
	// CloseErr is returned by both closers.
	CloseErr error

	mu       sync.Mutex
	launches int
	counters []*CloseCounter
}

var _ browser.Launcher = (*FakeLauncher)(nil)

func (l *FakeLauncher) Launch(ctx context.Context) (*browser.Session, error) {
	l.mu.Lock()
	l.launches++
	n := l.launches
	l.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if n <= l.FailFirst {
		return nil, fmt.Errorf("fake launch %d failed", n)
	}

	var page browser.Page
	if l.NewPage != nil {
		page = l.NewPage()
	} else {
		page = NewFakePage()
	}
	counter := &CloseCounter{}
	l.mu.Lock()
	l.counters = append(l.counters, counter)
	l.mu.Unlock()

	closeErr := l.CloseErr
	return browser.NewSession(fmt.Sprintf("fake-%d", n), page,
		func() error { counter.Context.Add(1); return closeErr },
		func() error { counter.Browser.Add(1); return closeErr },
		logging.NewNopLogger(),
	), nil
}

// Launches returns the number of Launch calls.
func (l *FakeLauncher) Launches() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.launches
}

// Counters returns the close counters of successful launches, in order.
func (l *FakeLauncher) Counters() []*CloseCounter {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*CloseCounter(nil), l.counters...)
}
