package form

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/raysh454/policeform/internal/browser"
	"github.com/raysh454/policeform/internal/extract"
	"github.com/raysh454/policeform/internal/logging"
	"github.com/raysh454/policeform/internal/model"
)

// Submitter clicks submit and reads the outcome from the re-rendered page.
type Submitter struct {
	filler *Filler
	wait   time.Duration
	poll   time.Duration
	logger logging.Logger
}

func NewSubmitter(filler *Filler, wait time.Duration, logger logging.Logger) *Submitter {
	if wait <= 0 {
		wait = 25 * time.Second
	}
	return &Submitter{
		filler: filler,
		wait:   wait,
		poll:   250 * time.Millisecond,
		logger: logger.With(logging.Field{Key: "component", Value: "submitter"}),
	}
}

// WithPoll sets the page-change polling interval.
func (s *Submitter) WithPoll(d time.Duration) *Submitter {
	s.poll = d
	return s
}

// Submit returns the reference number, or a SubmissionError of kind
// KindSubmission, KindTimeout, KindRemoteValidation or KindReferenceMissing.
func (s *Submitter) Submit(ctx context.Context, page browser.Page) (string, error) {
	sel, ok, err := s.filler.Locate(ctx, page, SubmitButton)
	if err != nil {
		return "", model.NewError(model.KindSubmission, "locate submit control", err)
	}
	if !ok {
		return "", model.NewError(model.KindSubmission, "submit control not found", nil)
	}
	if err := page.WaitVisible(ctx, sel); err != nil {
		return "", model.NewError(model.KindSubmission, "submit control not visible", err)
	}

	before, err := page.HTML(ctx)
	if err != nil {
		return "", model.NewError(model.KindSubmission, "snapshot page before submit", err)
	}

	after, err := s.clickAndWait(ctx, page, sel, before)
	if err != nil {
		return "", err
	}

	change := extract.ChangeSummary(before, after)
	s.logger.Info("page changed after submit",
		logging.Field{Key: "inserted_lines", Value: change.InsertedLines},
		logging.Field{Key: "deleted_lines", Value: change.DeletedLines})

	if msgs := extract.ValidationErrors(after); len(msgs) > 0 {
		se := model.NewError(model.KindRemoteValidation, strings.Join(msgs, "; "), nil)
		se.Details = msgs
		return "", se
	}

	ref, ok := extract.ReferenceNumber(after)
	if !ok {
		return "", model.NewError(model.KindReferenceMissing,
			"submission finished but no reference number was found; verify manually", nil)
	}
	return ref, nil
}

// clickAndWait clicks, waits for the network to settle and for the markup to
// differ from before, all concurrently and bounded by s.wait. It returns the
// markup read after all three finished.
func (s *Submitter) clickAndWait(ctx context.Context, page browser.Page, sel, before string) (string, error) {
	waitCtx, cancel := context.WithTimeout(ctx, s.wait)
	defer cancel()

	changed := make(chan string, 1)
	g, gctx := errgroup.WithContext(waitCtx)
	g.Go(func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = model.NewError(model.KindSubmission, "click submit", fmt.Errorf("panic: %v", r))
			}
		}()
		if err := page.Click(gctx, sel); err != nil {
			return model.NewError(model.KindSubmission, "click submit", err)
		}
		return nil
	})
	g.Go(func() error {
		// The page navigates during the postback; an idle wait cut short is
		// not a failure as long as the markup changes.
		_ = page.WaitNetworkIdle(gctx)
		return nil
	})
	g.Go(func() error {
		html, err := s.awaitChange(gctx, page, before)
		if err != nil {
			return err
		}
		changed <- html
		return nil
	})

	if err := g.Wait(); err != nil {
		var se *model.SubmissionError
		if errors.As(err, &se) {
			return "", se
		}
		return "", model.NewError(model.KindTimeout, "page did not change after submit", err)
	}
	html := <-changed
	// The first differing snapshot can be a document still being parsed;
	// read again now that the postback has settled.
	if settled, err := page.HTML(ctx); err == nil && settled != "" && settled != before {
		html = settled
	}
	return html, nil
}

func (s *Submitter) awaitChange(ctx context.Context, page browser.Page, before string) (string, error) {
	ticker := time.NewTicker(s.poll)
	defer ticker.Stop()
	for {
		// Reads fail transiently while the document is being replaced.
		if html, err := page.HTML(ctx); err == nil && html != "" && html != before {
			return html, nil
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}
	}
}
