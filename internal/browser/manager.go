package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/raysh454/policeform/internal/logging"
	"github.com/raysh454/policeform/internal/metrics"
	"github.com/raysh454/policeform/internal/model"
)

// Manager acquires sessions from a Launcher with bounded, backed-off retries.
// Sessions are never pooled; each Acquire yields a new browser.
type Manager struct {
	launcher  Launcher
	baseDelay time.Duration
	logger    logging.Logger

	// sleep is replaceable so tests do not wait out real backoff.
	sleep func(ctx context.Context, d time.Duration) error
}

func NewManager(launcher Launcher, baseDelay time.Duration, logger logging.Logger) *Manager {
	if baseDelay <= 0 {
		baseDelay = time.Second
	}
	return &Manager{
		launcher:  launcher,
		baseDelay: baseDelay,
		logger:    logger.With(logging.Field{Key: "component", Value: "browser_manager"}),
		sleep:     sleepCtx,
	}
}

// WithSleep overrides the backoff sleeper.
func (m *Manager) WithSleep(fn func(ctx context.Context, d time.Duration) error) *Manager {
	m.sleep = fn
	return m
}

// Backoff returns the wait before attempt n+1, i.e. base * 2^(n-1).
func (m *Manager) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return m.baseDelay << (attempt - 1)
}

// Acquire launches a browser, retrying up to maxAttempts times. Each attempt
// is bounded by perAttemptTimeout. Exhaustion yields KindBrowserUnavail.
func (m *Manager) Acquire(ctx context.Context, maxAttempts int, perAttemptTimeout time.Duration) (*Session, error) {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		sess, err := m.launchOnce(ctx, perAttemptTimeout)
		if err == nil {
			metrics.BrowserLaunchAttempts.WithLabelValues("ok").Inc()
			m.logger.Info("browser acquired",
				logging.Field{Key: "attempt", Value: attempt},
				logging.Field{Key: "session", Value: sess.ID})
			return sess, nil
		}
		metrics.BrowserLaunchAttempts.WithLabelValues("error").Inc()
		lastErr = err
		m.logger.Warn("browser launch failed",
			logging.Field{Key: "attempt", Value: attempt},
			logging.Field{Key: "max_attempts", Value: maxAttempts},
			logging.Field{Key: "error", Value: err.Error()})

		if ctx.Err() != nil || attempt == maxAttempts {
			break
		}
		if err := m.sleep(ctx, m.Backoff(attempt)); err != nil {
			lastErr = errors.Join(lastErr, err)
			break
		}
	}
	return nil, model.NewError(model.KindBrowserUnavail,
		fmt.Sprintf("browser could not be launched after %d attempt(s)", maxAttempts), lastErr)
}

func (m *Manager) launchOnce(ctx context.Context, timeout time.Duration) (sess *Session, err error) {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("launcher panic: %v", r)
		}
	}()
	return m.launcher.Launch(attemptCtx)
}

// Probe launches a browser once and closes it immediately.
func (m *Manager) Probe(ctx context.Context, timeout time.Duration) error {
	sess, err := m.launchOnce(ctx, timeout)
	if err != nil {
		return err
	}
	sess.Close()
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
