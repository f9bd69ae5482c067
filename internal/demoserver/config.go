package demoserver

import "time"

// Mode decides how the mock form answers a submission.
type Mode string

const (
	// ModeAccept issues a reference number for every valid submission.
	ModeAccept Mode = "accept"
	// ModeReject answers every submission with a validation summary.
	ModeReject Mode = "reject"
	// ModeNoReference accepts the submission but never prints a reference.
	ModeNoReference Mode = "noref"
	// ModeHang never answers the postback until the client gives up.
	ModeHang Mode = "hang"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	switch m {
	case ModeAccept, ModeReject, ModeNoReference, ModeHang:
		return true
	}
	return false
}

// Config holds configuration for the demo server.
type Config struct {
	// Port is the port on which the demo server listens.
	Port int

	// Mode is the initial submission behaviour (default: accept).
	Mode Mode

	// CascadeDelay delays the dependent-dropdown lookups, the way the real
	// UpdatePanel postbacks lag.
	CascadeDelay time.Duration

	// MaxUploadBytes caps the multipart body of a submission.
	MaxUploadBytes int64
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Port:           9999,
		Mode:           ModeAccept,
		CascadeDelay:   300 * time.Millisecond,
		MaxUploadBytes: 8 << 20,
	}
}
