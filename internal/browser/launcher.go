package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"

	"github.com/raysh454/policeform/internal/logging"
)

// Launcher starts a fresh, isolated browser session.
type Launcher interface {
	Launch(ctx context.Context) (*Session, error)
}

// ChromeConfig configures ChromeLauncher.
type ChromeConfig struct {
	Headless bool
	// ExecPath overrides Chrome discovery when set.
	ExecPath string
	// IdleAfter is the quiet period WaitNetworkIdle requires.
	IdleAfter time.Duration
	UserAgent string
}

func DefaultChromeConfig() ChromeConfig {
	return ChromeConfig{
		Headless:  true,
		IdleAfter: 500 * time.Millisecond,
	}
}

// ChromeLauncher launches headless Chrome through chromedp, one process per
// session.
type ChromeLauncher struct {
	cfg    ChromeConfig
	logger logging.Logger
}

func NewChromeLauncher(cfg ChromeConfig, logger logging.Logger) *ChromeLauncher {
	if cfg.IdleAfter <= 0 {
		cfg.IdleAfter = DefaultChromeConfig().IdleAfter
	}
	return &ChromeLauncher{
		cfg:    cfg,
		logger: logger.With(logging.Field{Key: "component", Value: "chrome_launcher"}),
	}
}

// AllocatorOptions returns the hardened flag set used for every launch.
func (l *ChromeLauncher) AllocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.Flag("headless", l.cfg.Headless),
		chromedp.NoSandbox,
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.DisableGPU,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.Flag("disable-extensions", true),
		chromedp.WindowSize(1366, 900),
	)
	if l.cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(l.cfg.ExecPath))
	}
	if l.cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(l.cfg.UserAgent))
	}
	return opts
}

// Launch starts Chrome and opens a blank tab. The browser is not tied to ctx:
// ctx only bounds how long startup may take.
func (l *ChromeLauncher) Launch(ctx context.Context) (*Session, error) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), l.AllocatorOptions()...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	idle := newIdleTracker()
	idle.listen(tabCtx)

	started := make(chan error, 1)
	go func() {
		started <- chromedp.Run(tabCtx, network.Enable(), chromedp.Navigate("about:blank"))
	}()

	select {
	case err := <-started:
		if err != nil {
			tabCancel()
			allocCancel()
			return nil, fmt.Errorf("start chrome: %w", err)
		}
	case <-ctx.Done():
		tabCancel()
		allocCancel()
		return nil, fmt.Errorf("start chrome: %w", ctx.Err())
	}

	page := &chromePage{tab: tabCtx, idle: idle, idleAfter: l.cfg.IdleAfter}
	closeContext := func() error {
		err := chromedp.Cancel(tabCtx)
		tabCancel()
		return err
	}
	closeBrowser := func() error {
		allocCancel()
		return nil
	}
	id := uuid.New().String()
	l.logger.Debug("chrome started", logging.Field{Key: "session", Value: id})
	return NewSession(id, page, closeContext, closeBrowser, l.logger), nil
}
