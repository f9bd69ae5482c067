package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
)

// chromePage implements Page on top of a chromedp tab context.
type chromePage struct {
	tab       context.Context
	idle      *idleTracker
	idleAfter time.Duration
}

var _ Page = (*chromePage)(nil)

// bind derives a context from the tab that also honours ctx's deadline and
// cancellation. Cancelling it does not close the tab.
func (p *chromePage) bind(ctx context.Context) (context.Context, context.CancelFunc) {
	var (
		runCtx context.Context
		cancel context.CancelFunc
	)
	if dl, ok := ctx.Deadline(); ok {
		runCtx, cancel = context.WithDeadline(p.tab, dl)
	} else {
		runCtx, cancel = context.WithCancel(p.tab)
	}
	stop := context.AfterFunc(ctx, cancel)
	return runCtx, func() {
		stop()
		cancel()
	}
}

func (p *chromePage) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := p.bind(ctx)
	defer cancel()
	return chromedp.Run(runCtx, actions...)
}

func (p *chromePage) eval(ctx context.Context, script string, out any) error {
	return p.run(ctx, chromedp.Evaluate(script, out, func(ep *runtime.EvaluateParams) *runtime.EvaluateParams {
		return ep.WithReturnByValue(true).WithSilent(true)
	}))
}

func (p *chromePage) Navigate(ctx context.Context, url string) error {
	if err := p.run(ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

func (p *chromePage) Exists(ctx context.Context, selector string) (bool, error) {
	var found bool
	script := fmt.Sprintf(`document.querySelector(%s) !== null`, jsString(selector))
	if err := p.eval(ctx, script, &found); err != nil {
		return false, fmt.Errorf("probe %s: %w", selector, err)
	}
	return found, nil
}

func (p *chromePage) WaitVisible(ctx context.Context, selector string) error {
	if err := p.run(ctx, chromedp.WaitVisible(selector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("wait visible %s: %w", selector, err)
	}
	return nil
}

const clearScript = `(function(sel) {
	const el = document.querySelector(sel);
	if (!el) return false;
	el.value = '';
	el.dispatchEvent(new Event('input', { bubbles: true }));
	return true;
})(%s)`

func (p *chromePage) SetText(ctx context.Context, selector, value string) error {
	var cleared bool
	if err := p.eval(ctx, fmt.Sprintf(clearScript, jsString(selector)), &cleared); err != nil {
		return fmt.Errorf("clear %s: %w", selector, err)
	}
	if !cleared {
		return fmt.Errorf("clear %s: element not found", selector)
	}
	if err := p.run(ctx, chromedp.SendKeys(selector, value, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("type into %s: %w", selector, err)
	}
	return nil
}

// selectScript picks the first option whose label (trimmed, case-insensitive)
// or value matches and dispatches change so postback handlers run.
const selectScript = `(function(sel, want, byLabel) {
	const el = document.querySelector(sel);
	if (!el || !el.options) return false;
	const norm = s => (s || '').replace(/\s+/g, ' ').trim().toLowerCase();
	const target = byLabel ? norm(want) : want;
	for (const opt of el.options) {
		const got = byLabel ? norm(opt.text) : opt.value;
		if (got === target) {
			el.value = opt.value;
			el.dispatchEvent(new Event('change', { bubbles: true }));
			return true;
		}
	}
	return false;
})(%s, %s, %t)`

func (p *chromePage) selectOption(ctx context.Context, selector, want string, byLabel bool) (bool, error) {
	var ok bool
	script := fmt.Sprintf(selectScript, jsString(selector), jsString(want), byLabel)
	if err := p.eval(ctx, script, &ok); err != nil {
		return false, fmt.Errorf("select %q in %s: %w", want, selector, err)
	}
	return ok, nil
}

func (p *chromePage) SelectByLabel(ctx context.Context, selector, label string) (bool, error) {
	return p.selectOption(ctx, selector, label, true)
}

func (p *chromePage) SelectByValue(ctx context.Context, selector, value string) (bool, error) {
	return p.selectOption(ctx, selector, value, false)
}

func (p *chromePage) OptionCount(ctx context.Context, selector string) (int, error) {
	var n int
	script := fmt.Sprintf(`(function(sel) {
	const el = document.querySelector(sel);
	return el && el.options ? el.options.length : 0;
})(%s)`, jsString(selector))
	if err := p.eval(ctx, script, &n); err != nil {
		return 0, fmt.Errorf("count options %s: %w", selector, err)
	}
	return n, nil
}

func (p *chromePage) WaitNetworkIdle(ctx context.Context) error {
	return p.idle.wait(ctx, p.idleAfter)
}

func (p *chromePage) Click(ctx context.Context, selector string) error {
	if err := p.run(ctx, chromedp.Click(selector, chromedp.ByQuery, chromedp.NodeVisible)); err != nil {
		return fmt.Errorf("click %s: %w", selector, err)
	}
	return nil
}

func (p *chromePage) HTML(ctx context.Context) (string, error) {
	var html string
	if err := p.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("read page html: %w", err)
	}
	return html, nil
}

func (p *chromePage) SetFiles(ctx context.Context, selector string, paths []string) error {
	if err := p.run(ctx, chromedp.SetUploadFiles(selector, paths, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("attach files to %s: %w", selector, err)
	}
	return nil
}

// jsString encodes s as a JavaScript string literal.
func jsString(s string) string {
	b, err := json.Marshal(s)
	if err != nil {
		return `""`
	}
	return string(b)
}
