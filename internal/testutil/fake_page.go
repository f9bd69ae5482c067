package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/raysh454/policeform/internal/browser"
)

// FakeOption is one <option> of a FakeElement.
type FakeOption struct {
	Label string
	Value string
}

// FakeElement is a node addressable by exact selector.
type FakeElement struct {
	Value   string
	Options []FakeOption
	Files   []string
	Hidden  bool
}

// FakePage implements browser.Page over an in-memory selector map. Selectors
// match by exact string, which is enough to exercise ordering and fallbacks.
type FakePage struct {
	mu       sync.Mutex
	elements map[string]*FakeElement
	body     string
	calls    []string

	// Fail injects an error. Keys are "Op:selector" or just "Op".
	Fail map[string]error
	// OnSelect runs after a successful selection, e.g. to populate a cascade.
	OnSelect func(p *FakePage, selector, value string)
	// OnClick runs after Click, e.g. to swap in a result page.
	OnClick func(p *FakePage, selector string)
}

var _ browser.Page = (*FakePage)(nil)

func NewFakePage() *FakePage {
	return &FakePage{elements: make(map[string]*FakeElement)}
}

// AddInput registers a text input.
func (p *FakePage) AddInput(selector string) *FakePage {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.elements[selector] = &FakeElement{}
	return p
}

// AddSelect registers a select with the given options.
func (p *FakePage) AddSelect(selector string, opts ...FakeOption) *FakePage {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.elements[selector] = &FakeElement{Options: opts}
	return p
}

// SetOptions replaces the options of a select; safe to call from hooks.
func (p *FakePage) SetOptions(selector string, opts ...FakeOption) {
	el := p.element(selector)
	if el == nil {
		p.AddSelect(selector, opts...)
		return
	}
	p.mu.Lock()
	el.Options = opts
	p.mu.Unlock()
}

// SetBody sets the markup returned by HTML.
func (p *FakePage) SetBody(html string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.body = html
}

// Value returns the current value of a registered element.
func (p *FakePage) Value(selector string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if el, ok := p.elements[selector]; ok {
		return el.Value
	}
	return ""
}

// Files returns files attached to a registered element.
func (p *FakePage) Files(selector string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if el, ok := p.elements[selector]; ok {
		return append([]string(nil), el.Files...)
	}
	return nil
}

// Calls returns the recorded operations as "Op:selector[=value]".
func (p *FakePage) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

// Called reports whether an exact call was recorded.
func (p *FakePage) Called(call string) bool {
	for _, c := range p.Calls() {
		if c == call {
			return true
		}
	}
	return false
}

func (p *FakePage) element(selector string) *FakeElement {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.elements[selector]
}

func (p *FakePage) record(op, selector, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	call := op + ":" + selector
	if value != "" {
		call += "=" + value
	}
	p.calls = append(p.calls, call)
	if err, ok := p.Fail[op+":"+selector]; ok {
		return err
	}
	if err, ok := p.Fail[op]; ok {
		return err
	}
	return nil
}

func (p *FakePage) Navigate(ctx context.Context, url string) error {
	return p.record("Navigate", url, "")
}

func (p *FakePage) Exists(ctx context.Context, selector string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return p.element(selector) != nil, nil
}

func (p *FakePage) WaitVisible(ctx context.Context, selector string) error {
	if err := p.record("WaitVisible", selector, ""); err != nil {
		return err
	}
	el := p.element(selector)
	if el == nil || el.Hidden {
		return fmt.Errorf("wait visible %s: not visible", selector)
	}
	return nil
}

func (p *FakePage) SetText(ctx context.Context, selector, value string) error {
	if err := p.record("SetText", selector, value); err != nil {
		return err
	}
	el := p.element(selector)
	if el == nil {
		return fmt.Errorf("set text %s: not found", selector)
	}
	p.mu.Lock()
	el.Value = value
	p.mu.Unlock()
	return nil
}

func (p *FakePage) selectOption(op, selector, want string, byLabel bool) (bool, error) {
	if err := p.record(op, selector, want); err != nil {
		return false, err
	}
	el := p.element(selector)
	if el == nil {
		return false, nil
	}
	p.mu.Lock()
	var matched *FakeOption
	for i := range el.Options {
		opt := &el.Options[i]
		if (byLabel && strings.EqualFold(strings.TrimSpace(opt.Label), strings.TrimSpace(want))) ||
			(!byLabel && opt.Value == want) {
			matched = opt
			break
		}
	}
	if matched != nil {
		el.Value = matched.Value
	}
	hook := p.OnSelect
	p.mu.Unlock()

	if matched == nil {
		return false, nil
	}
	if hook != nil {
		hook(p, selector, matched.Value)
	}
	return true, nil
}

func (p *FakePage) SelectByLabel(ctx context.Context, selector, label string) (bool, error) {
	return p.selectOption("SelectByLabel", selector, label, true)
}

func (p *FakePage) SelectByValue(ctx context.Context, selector, value string) (bool, error) {
	return p.selectOption("SelectByValue", selector, value, false)
}

func (p *FakePage) OptionCount(ctx context.Context, selector string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if el, ok := p.elements[selector]; ok {
		return len(el.Options), nil
	}
	return 0, nil
}

func (p *FakePage) WaitNetworkIdle(ctx context.Context) error {
	if err := p.record("WaitNetworkIdle", "", ""); err != nil {
		return err
	}
	return ctx.Err()
}

func (p *FakePage) Click(ctx context.Context, selector string) error {
	if err := p.record("Click", selector, ""); err != nil {
		return err
	}
	p.mu.Lock()
	hook := p.OnClick
	p.mu.Unlock()
	if hook != nil {
		hook(p, selector)
	}
	return nil
}

func (p *FakePage) HTML(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.body, nil
}

func (p *FakePage) SetFiles(ctx context.Context, selector string, paths []string) error {
	if err := p.record("SetFiles", selector, strings.Join(paths, ",")); err != nil {
		return err
	}
	el := p.element(selector)
	if el == nil {
		return fmt.Errorf("set files %s: not found", selector)
	}
	p.mu.Lock()
	el.Files = append([]string(nil), paths...)
	p.mu.Unlock()
	return nil
}
