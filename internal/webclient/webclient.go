// Package webclient is the HTTP client used to download attachments.
package webclient

import (
	"context"
	"mime"
	"net/http"
	"strings"
	"time"
)

type WebClient interface {
	Do(ctx context.Context, req *Request) (*Response, error)
	Get(ctx context.Context, url string) (*Response, error)
	Close() error
}

type Request struct {
	Method  string
	URL     string
	Headers http.Header
	Body    []byte
}

type Response struct {
	Request    *Request
	Headers    http.Header
	Body       []byte
	StatusCode int
	FetchedAt  time.Time
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// ContentType returns the lowercased media type without parameters.
func (r *Response) ContentType() string {
	ct := r.Headers.Get("Content-Type")
	if ct == "" {
		return ""
	}
	if mt, _, err := mime.ParseMediaType(ct); err == nil {
		return mt
	}
	// Malformed parameters still leave a usable type in front.
	mt, _, _ := strings.Cut(ct, ";")
	return strings.ToLower(strings.TrimSpace(mt))
}

// Config tunes NetHTTPClient.
type Config struct {
	Timeout time.Duration
	// MaxBodyBytes caps a single response body. Zero means the default.
	MaxBodyBytes int64
	UserAgent    string
}

func DefaultConfig() Config {
	return Config{
		Timeout:      30 * time.Second,
		MaxBodyBytes: 20 << 20,
		UserAgent:    "policeform/1.0",
	}
}
