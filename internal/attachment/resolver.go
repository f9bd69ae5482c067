// Package attachment turns photo references into local files the browser can
// upload.
package attachment

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/raysh454/policeform/internal/logging"
	"github.com/raysh454/policeform/internal/metrics"
	"github.com/raysh454/policeform/internal/model"
	"github.com/raysh454/policeform/internal/webclient"
)

// DefaultExt is used when neither the URL nor the response names a type.
const DefaultExt = ".jpg"

var driveLetter = regexp.MustCompile(`^[A-Za-z]:[\\/]`)

// IsLocalPath reports an absolute Unix path or a drive-letter Windows path.
func IsLocalPath(ref string) bool {
	return strings.HasPrefix(ref, "/") || driveLetter.MatchString(ref)
}

// Resolver downloads remote references into dir. A Resolver belongs to one
// submission and remembers the files it created so Cleanup can remove them.
type Resolver struct {
	client webclient.WebClient
	dir    string
	logger logging.Logger

	mu      sync.Mutex
	created []string
}

// NewResolver stores downloads in dir, or the OS temp dir when dir is empty.
func NewResolver(client webclient.WebClient, dir string, logger logging.Logger) *Resolver {
	if dir == "" {
		dir = os.TempDir()
	}
	return &Resolver{
		client: client,
		dir:    dir,
		logger: logger.With(logging.Field{Key: "component", Value: "attachment"}),
	}
}

// Resolve returns ref unchanged when it is local. Otherwise it fetches ref once
// and writes the bytes to a new uniquely named file.
func (r *Resolver) Resolve(ctx context.Context, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", model.NewError(model.KindFileFetch, "empty attachment reference", nil)
	}
	if IsLocalPath(ref) {
		return ref, nil
	}

	u, err := url.Parse(ref)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return "", model.NewError(model.KindFileFetch, fmt.Sprintf("unsupported attachment reference %q", ref), err)
	}

	resp, err := r.client.Get(ctx, ref)
	if err != nil {
		metrics.AttachmentFetches.WithLabelValues("error").Inc()
		return "", model.NewError(model.KindFileFetch, "fetch "+redact(u), err)
	}
	if !resp.OK() {
		metrics.AttachmentFetches.WithLabelValues("error").Inc()
		return "", model.NewError(model.KindFileFetch,
			fmt.Sprintf("fetch %s: status %d", redact(u), resp.StatusCode), nil)
	}

	ext := extension(u, resp.ContentType())
	dest := filepath.Join(r.dir, "attachment-"+uuid.New().String()+ext)
	if err := writeNew(dest, resp.Body); err != nil {
		metrics.AttachmentFetches.WithLabelValues("error").Inc()
		return "", model.NewError(model.KindFileFetch, "store attachment", err)
	}
	metrics.AttachmentFetches.WithLabelValues("ok").Inc()

	r.mu.Lock()
	r.created = append(r.created, dest)
	r.mu.Unlock()

	r.logger.Debug("attachment stored",
		logging.Field{Key: "url", Value: redact(u)},
		logging.Field{Key: "path", Value: dest},
		logging.Field{Key: "bytes", Value: len(resp.Body)})
	return dest, nil
}

// Created lists files written by this resolver.
func (r *Resolver) Created() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.created...)
}

// Cleanup removes every file this resolver created. Caller-supplied local
// paths are never touched.
func (r *Resolver) Cleanup() error {
	r.mu.Lock()
	files := r.created
	r.created = nil
	r.mu.Unlock()

	var errs []error
	for _, f := range files {
		if err := os.Remove(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func writeNew(dest string, data []byte) error {
	f, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(dest)
		return err
	}
	return f.Close()
}

// extension prefers the URL path, then the response media type.
func extension(u *url.URL, contentType string) string {
	if ext := strings.ToLower(path.Ext(u.Path)); ext != "" && len(ext) <= 6 {
		return ext
	}
	switch contentType {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "application/pdf":
		return ".pdf"
	}
	if contentType != "" {
		if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
			return exts[0]
		}
	}
	return DefaultExt
}

// redact drops query strings, which often carry signed tokens.
func redact(u *url.URL) string {
	c := *u
	c.RawQuery = ""
	c.User = nil
	return c.String()
}
