// Package browser launches headless Chrome sessions and exposes the narrow
// page surface the form engine drives.
package browser

import "context"

// Page is a single browser tab. Every method is a capability probe or an
// action addressed by CSS selector; selectors are always evaluated with
// document.querySelector semantics.
type Page interface {
	// Navigate loads url and waits for the load event.
	Navigate(ctx context.Context, url string) error
	// Exists reports whether selector matches a node right now.
	Exists(ctx context.Context, selector string) (bool, error)
	// WaitVisible blocks until selector is rendered and visible.
	WaitVisible(ctx context.Context, selector string) error
	// SetText clears the input and types value.
	SetText(ctx context.Context, selector, value string) error
	// SelectByLabel picks the option whose visible text equals label and fires
	// a change event. It returns false when no option matches.
	SelectByLabel(ctx context.Context, selector, label string) (bool, error)
	// SelectByValue is SelectByLabel keyed on the option value.
	SelectByValue(ctx context.Context, selector, value string) (bool, error)
	// OptionCount returns the number of options under a select, 0 if absent.
	OptionCount(ctx context.Context, selector string) (int, error)
	// WaitNetworkIdle blocks until no request has been in flight for the
	// configured quiet period.
	WaitNetworkIdle(ctx context.Context) error
	Click(ctx context.Context, selector string) error
	// HTML returns the serialized document.
	HTML(ctx context.Context) (string, error)
	// SetFiles attaches local files to a file input.
	SetFiles(ctx context.Context, selector string, paths []string) error
}
