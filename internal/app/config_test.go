package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_Validates(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}

func TestFromViper_EnvOverrides(t *testing.T) {
	t.Setenv("POLICEFORM_BROWSER_TIMEOUT", "45s")
	t.Setenv("POLICEFORM_BROWSER_MAX_SESSIONS", "4")
	t.Setenv("POLICEFORM_SERVER_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("POLICEFORM_HISTORY_ENABLED", "false")

	cfg, err := FromViper(NewViper())
	require.NoError(t, err)

	assert.Equal(t, 45*time.Second, cfg.Browser.Timeout)
	assert.Equal(t, 4, cfg.Browser.MaxSessions)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.False(t, cfg.History.Enabled)
}

func TestFromViper_LegacyEnvNames(t *testing.T) {
	t.Setenv("BROWSER_TIMEOUT", "90000")
	t.Setenv("HEADLESS", "false")
	t.Setenv("MAX_RETRIES", "5")
	t.Setenv("PORT", "8080")

	cfg, err := FromViper(NewViper())
	require.NoError(t, err)

	assert.Equal(t, 90*time.Second, cfg.Browser.Timeout, "bare integers are milliseconds")
	assert.False(t, cfg.Browser.Chrome.Headless)
	assert.Equal(t, 5, cfg.Browser.MaxRetries)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestLoadConfig_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policeform.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
form:
  url: http://127.0.0.1:8081/verificationform.aspx
  submit_wait: 5s
history:
  path: `+filepath.Join(dir, "h.db")+`
logging:
  level: debug
`), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "http://127.0.0.1:8081/verificationform.aspx", cfg.Form.URL)
	assert.Equal(t, 5*time.Second, cfg.Form.SubmitWait)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 15*time.Second, cfg.Form.CascadeTimeout, "unset keys keep defaults")
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidate_RejectsUnusableSettings(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no sessions", func(c *Config) { c.Browser.MaxSessions = 0 }},
		{"no retries", func(c *Config) { c.Browser.MaxRetries = 0 }},
		{"zero timeout", func(c *Config) { c.Browser.Timeout = 0 }},
		{"history without path", func(c *Config) { c.History.Path = "" }},
		{"no address", func(c *Config) { c.Server.Addr = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := expandPath("~/.config/policeform/history.db")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".config/policeform/history.db"), got)

	got, err = expandPath("/var/lib/h.db")
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/h.db", got)
}
