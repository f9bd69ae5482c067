package browser

import (
	"sync"

	"github.com/raysh454/policeform/internal/logging"
)

// Session is one isolated browsing context owned by a single submission.
type Session struct {
	ID   string
	Page Page

	closeContext func() error
	closeBrowser func() error

	contextOnce sync.Once
	browserOnce sync.Once
	logger      logging.Logger
}

// NewSession wires a page to its two closers. Either closer may be nil.
func NewSession(id string, page Page, closeContext, closeBrowser func() error, logger logging.Logger) *Session {
	return &Session{
		ID:           id,
		Page:         page,
		closeContext: closeContext,
		closeBrowser: closeBrowser,
		logger:       logger.With(logging.Field{Key: "session", Value: id}),
	}
}

// Close tears down the browsing context, then the browser process. Each closer
// runs at most once no matter how often Close is called; errors are logged and
// swallowed.
func (s *Session) Close() {
	s.contextOnce.Do(func() {
		s.invoke("context", s.closeContext)
	})
	s.browserOnce.Do(func() {
		s.invoke("browser", s.closeBrowser)
	})
}

func (s *Session) invoke(what string, fn func() error) {
	if fn == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("panic while closing "+what, logging.Field{Key: "panic", Value: r})
		}
	}()
	if err := fn(); err != nil {
		s.logger.Warn("close "+what+" failed", logging.Field{Key: "error", Value: err.Error()})
		return
	}
	s.logger.Debug("closed " + what)
}
