package form

import (
	"context"
	"fmt"

	"github.com/raysh454/policeform/internal/browser"
	"github.com/raysh454/policeform/internal/logging"
)

// Filler writes values into fields located by first-match selector probing.
type Filler struct {
	logger logging.Logger
}

func NewFiller(logger logging.Logger) *Filler {
	return &Filler{logger: logger.With(logging.Field{Key: "component", Value: "filler"})}
}

// Locate returns the first candidate selector present on the page.
func (f *Filler) Locate(ctx context.Context, page browser.Page, field Field) (string, bool, error) {
	for _, sel := range field.Selectors {
		ok, err := page.Exists(ctx, sel)
		if err != nil {
			return "", false, fmt.Errorf("locate %s: %w", field.Name, err)
		}
		if ok {
			return sel, true, nil
		}
	}
	return "", false, nil
}

// Fill writes value into field. An empty value or a field absent from the page
// is a no-op reported as (false, nil).
func (f *Filler) Fill(ctx context.Context, page browser.Page, field Field, value string) (bool, error) {
	if value == "" {
		return false, nil
	}
	sel, ok, err := f.Locate(ctx, page, field)
	if err != nil {
		return false, err
	}
	if !ok {
		f.logger.Debug("field not present, skipping", logging.Field{Key: "field", Value: field.Name})
		return false, nil
	}

	switch field.Kind {
	case Choice:
		err = f.Choose(ctx, page, sel, value)
	case File:
		err = page.SetFiles(ctx, sel, []string{value})
	default:
		if err = page.WaitVisible(ctx, sel); err == nil {
			err = page.SetText(ctx, sel, value)
		}
	}
	if err != nil {
		return false, fmt.Errorf("fill %s: %w", field.Name, err)
	}
	f.logger.Debug("filled field",
		logging.Field{Key: "field", Value: field.Name},
		logging.Field{Key: "selector", Value: sel})
	return true, nil
}

// Choose selects value on a choice input, trying the visible label before
// the option value.
func (f *Filler) Choose(ctx context.Context, page browser.Page, selector, value string) error {
	if value == "" {
		return nil
	}
	ok, err := page.SelectByLabel(ctx, selector, value)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	ok, err = page.SelectByValue(ctx, selector, value)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no option %q in %s", value, selector)
	}
	return nil
}
