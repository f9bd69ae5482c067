package form

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/raysh454/policeform/internal/browser"
	"github.com/raysh454/policeform/internal/logging"
	"github.com/raysh454/policeform/internal/model"
)

// Cascade fills dependent dropdowns whose selection triggers a postback that
// repopulates the next list.
type Cascade struct {
	filler  *Filler
	timeout time.Duration
	poll    time.Duration
	logger  logging.Logger
}

func NewCascade(filler *Filler, timeout time.Duration, logger logging.Logger) *Cascade {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Cascade{
		filler:  filler,
		timeout: timeout,
		poll:    100 * time.Millisecond,
		logger:  logger.With(logging.Field{Key: "component", Value: "cascade"}),
	}
}

// WithPoll sets the option-count polling interval.
func (c *Cascade) WithPoll(d time.Duration) *Cascade {
	c.poll = d
	return c
}

// SelectWithDependency selects labelOrValue on selector, then waits for the
// network to settle and for dependent to hold more than its placeholder
// option. Running out of time is a KindTimeout error.
func (c *Cascade) SelectWithDependency(ctx context.Context, page browser.Page, selector, labelOrValue, dependent string) error {
	if err := c.filler.Choose(ctx, page, selector, labelOrValue); err != nil {
		return fmt.Errorf("cascade select %s: %w", selector, err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := page.WaitNetworkIdle(waitCtx); err != nil {
		return c.timeoutErr(ctx, selector, dependent, err)
	}

	ticker := time.NewTicker(c.poll)
	defer ticker.Stop()
	for {
		n, err := page.OptionCount(waitCtx, dependent)
		if err == nil && n > 1 {
			c.logger.Debug("cascade populated",
				logging.Field{Key: "selector", Value: selector},
				logging.Field{Key: "dependent", Value: dependent},
				logging.Field{Key: "options", Value: n})
			return nil
		}
		select {
		case <-waitCtx.Done():
			return c.timeoutErr(ctx, selector, dependent, waitCtx.Err())
		case <-ticker.C:
		}
	}
}

func (c *Cascade) timeoutErr(parent context.Context, selector, dependent string, err error) error {
	if parent.Err() != nil && !errors.Is(parent.Err(), context.DeadlineExceeded) {
		return err
	}
	return model.NewError(model.KindTimeout,
		fmt.Sprintf("%s did not populate after selecting %s", dependent, selector), err)
}

// Level is one step of a cascade chain.
type Level struct {
	Field Field
	Value string
}

// Resolve walks levels in order. Each level except the last waits for the
// next one to populate. An empty value stops the chain; a level missing from
// the page is skipped with a warning.
func (c *Cascade) Resolve(ctx context.Context, page browser.Page, levels ...Level) error {
	for i, lvl := range levels {
		if lvl.Value == "" {
			return nil
		}
		sel, ok, err := c.filler.Locate(ctx, page, lvl.Field)
		if err != nil {
			return err
		}
		if !ok {
			c.logger.Warn("cascade level not present", logging.Field{Key: "field", Value: lvl.Field.Name})
			continue
		}

		var dep string
		if i+1 < len(levels) && levels[i+1].Value != "" {
			dep, ok, err = c.filler.Locate(ctx, page, levels[i+1].Field)
			if err != nil {
				return err
			}
			if !ok {
				dep = ""
			}
		}

		if dep == "" {
			if err := c.filler.Choose(ctx, page, sel, lvl.Value); err != nil {
				return fmt.Errorf("select %s: %w", lvl.Field.Name, err)
			}
			if i+1 < len(levels) {
				// Let the postback land before touching the page again.
				if err := page.WaitNetworkIdle(ctx); err != nil {
					return err
				}
			}
			continue
		}
		if err := c.SelectWithDependency(ctx, page, sel, lvl.Value, dep); err != nil {
			return err
		}
	}
	return nil
}
