// Package readiness tracks whether the process can serve and whether a browser
// can currently be launched.
package readiness

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/raysh454/policeform/internal/logging"
	"github.com/raysh454/policeform/internal/metrics"
)

var errPanicked = errors.New("probe panicked")

// Prober checks browser launch capability.
type Prober interface {
	Probe(ctx context.Context, timeout time.Duration) error
}

// State is a point-in-time copy of the readiness flags.
type State struct {
	ServerReady  bool
	BrowserReady bool
	// LastChecked is zero until the first probe completes.
	LastChecked time.Time
}

// Status is the browser-status response body.
type Status struct {
	Ready       bool       `json:"ready"`
	LastChecked *time.Time `json:"lastChecked"`
	Cached      bool       `json:"cached"`
}

// Reporter is what health handlers depend on.
type Reporter interface {
	Get() State
	Refresh(ctx context.Context) State
	MarkServerReady()
	BrowserStatus(ctx context.Context) Status
}

type Config struct {
	// TTL is how long a probe result is served from cache.
	TTL time.Duration
	// ProbeTimeout bounds a single probe launch.
	ProbeTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{TTL: 5 * time.Minute, ProbeTimeout: 30 * time.Second}
}

// Cache is the Reporter implementation. Reads never block on a probe; at most
// one probe runs at a time and concurrent refreshes share its result.
type Cache struct {
	prober Prober
	cfg    Config
	logger logging.Logger
	now    func() time.Time

	mu    sync.RWMutex
	state State

	group singleflight.Group
	wg    sync.WaitGroup
}

var _ Reporter = (*Cache)(nil)

func New(prober Prober, cfg Config, logger logging.Logger) *Cache {
	def := DefaultConfig()
	if cfg.TTL <= 0 {
		cfg.TTL = def.TTL
	}
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = def.ProbeTimeout
	}
	return &Cache{
		prober: prober,
		cfg:    cfg,
		logger: logger.With(logging.Field{Key: "component", Value: "readiness"}),
		now:    time.Now,
	}
}

// WithClock replaces the time source.
func (c *Cache) WithClock(now func() time.Time) *Cache {
	c.now = now
	return c
}

func (c *Cache) Get() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *Cache) MarkServerReady() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.ServerReady = true
}

// Refresh probes the browser and records the outcome. Calls that overlap an
// in-flight probe wait for it instead of launching another browser. A probe
// cut short by ctx itself says nothing about the browser and is not recorded.
func (c *Cache) Refresh(ctx context.Context) State {
	v, _, _ := c.group.Do("probe", func() (any, error) {
		err := c.probe(ctx)
		if err != nil && ctx.Err() != nil {
			c.logger.Debug("browser probe abandoned", logging.Field{Key: "error", Value: err.Error()})
			return c.Get(), nil
		}
		ready := err == nil

		c.mu.Lock()
		c.state.BrowserReady = ready
		c.state.LastChecked = c.now()
		st := c.state
		c.mu.Unlock()

		if ready {
			metrics.BrowserReady.Set(1)
		} else {
			metrics.BrowserReady.Set(0)
			c.logger.Warn("browser probe failed", logging.Field{Key: "error", Value: err.Error()})
		}
		return st, nil
	})
	return v.(State)
}

func (c *Cache) probe(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("browser probe panicked", logging.Field{Key: "panic", Value: r})
			err = errPanicked
		}
	}()
	return c.prober.Probe(ctx, c.cfg.ProbeTimeout)
}

// BrowserStatus serves the cached result while it is younger than the TTL and
// refreshes it otherwise.
func (c *Cache) BrowserStatus(ctx context.Context) Status {
	st := c.Get()
	if !st.LastChecked.IsZero() && c.now().Sub(st.LastChecked) < c.cfg.TTL {
		return toStatus(st, true)
	}
	// The probe belongs to every caller sharing it, not to this request.
	return toStatus(c.Refresh(context.WithoutCancel(ctx)), false)
}

// Start runs one probe in the background. Wait blocks until it finishes.
func (c *Cache) Start(ctx context.Context) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				c.logger.Error("background refresh panicked", logging.Field{Key: "panic", Value: r})
			}
		}()
		st := c.Refresh(ctx)
		c.logger.Info("initial browser probe finished", logging.Field{Key: "ready", Value: st.BrowserReady})
	}()
}

// Wait blocks until background work started by Start has returned.
func (c *Cache) Wait() {
	c.wg.Wait()
}

func toStatus(st State, cached bool) Status {
	out := Status{Ready: st.BrowserReady, Cached: cached}
	if !st.LastChecked.IsZero() {
		t := st.LastChecked.UTC()
		out.LastChecked = &t
	}
	return out
}
