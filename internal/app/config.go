package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/raysh454/policeform/internal/browser"
	"github.com/raysh454/policeform/internal/form"
	"github.com/raysh454/policeform/internal/logging"
	"github.com/raysh454/policeform/internal/readiness"
	"github.com/raysh454/policeform/internal/server"
	"github.com/raysh454/policeform/internal/webclient"
)

// EnvPrefix namespaces environment overrides, e.g. POLICEFORM_BROWSER_TIMEOUT.
const EnvPrefix = "POLICEFORM"

type BrowserConfig struct {
	Chrome browser.ChromeConfig `mapstructure:"chrome" yaml:"chrome"`
	// Timeout bounds one whole submission.
	Timeout        time.Duration `mapstructure:"timeout" yaml:"timeout"`
	LaunchTimeout  time.Duration `mapstructure:"launch_timeout" yaml:"launch_timeout"`
	MaxRetries     int           `mapstructure:"max_retries" yaml:"max_retries"`
	RetryBaseDelay time.Duration `mapstructure:"retry_base_delay" yaml:"retry_base_delay"`
	// MaxSessions caps concurrently open browsers.
	MaxSessions int `mapstructure:"max_sessions" yaml:"max_sessions"`
}

type FormConfig struct {
	URL            string        `mapstructure:"url" yaml:"url"`
	SubmitWait     time.Duration `mapstructure:"submit_wait" yaml:"submit_wait"`
	CascadeTimeout time.Duration `mapstructure:"cascade_timeout" yaml:"cascade_timeout"`
}

type AttachmentConfig struct {
	// Dir receives downloaded photos; empty means the OS temp dir.
	Dir     string           `mapstructure:"dir" yaml:"dir"`
	Cleanup bool             `mapstructure:"cleanup" yaml:"cleanup"`
	Fetch   webclient.Config `mapstructure:"fetch" yaml:"fetch"`
}

type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" yaml:"path"`
}

type JobsConfig struct {
	// Retention is how long a finished job stays queryable in memory.
	Retention time.Duration `mapstructure:"retention" yaml:"retention"`
}

// Config is the full runtime configuration, one section per component.
type Config struct {
	Server     server.Config    `mapstructure:"server" yaml:"server"`
	Browser    BrowserConfig    `mapstructure:"browser" yaml:"browser"`
	Form       FormConfig       `mapstructure:"form" yaml:"form"`
	Readiness  readiness.Config `mapstructure:"readiness" yaml:"readiness"`
	Attachment AttachmentConfig `mapstructure:"attachment" yaml:"attachment"`
	History    HistoryConfig    `mapstructure:"history" yaml:"history"`
	Jobs       JobsConfig       `mapstructure:"jobs" yaml:"jobs"`
	Logging    logging.Config   `mapstructure:"logging" yaml:"logging"`
}

// DefaultConfig returns a Config suitable for running against the live form.
func DefaultConfig() *Config {
	return &Config{
		Server: server.DefaultConfig(),
		Browser: BrowserConfig{
			Chrome:         browser.DefaultChromeConfig(),
			Timeout:        120 * time.Second,
			LaunchTimeout:  30 * time.Second,
			MaxRetries:     3,
			RetryBaseDelay: time.Second,
			MaxSessions:    2,
		},
		Form: FormConfig{
			URL:            form.DefaultURL,
			SubmitWait:     25 * time.Second,
			CascadeTimeout: 15 * time.Second,
		},
		Readiness: readiness.DefaultConfig(),
		Attachment: AttachmentConfig{
			Cleanup: true,
			Fetch:   webclient.DefaultConfig(),
		},
		History: HistoryConfig{
			Enabled: true,
			Path:    "~/.config/policeform/history.db",
		},
		Jobs:    JobsConfig{Retention: 30 * time.Minute},
		Logging: logging.DefaultConfig(),
	}
}

// SetDefaults registers every key of DefaultConfig on v so that environment
// overrides resolve even when no config file is present.
func SetDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.port", "")
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)
	v.SetDefault("server.allowed_origins", d.Server.AllowedOrigins)
	v.SetDefault("server.max_body_bytes", d.Server.MaxBodyBytes)

	v.SetDefault("browser.chrome.headless", d.Browser.Chrome.Headless)
	v.SetDefault("browser.chrome.exec_path", d.Browser.Chrome.ExecPath)
	v.SetDefault("browser.chrome.user_agent", d.Browser.Chrome.UserAgent)
	v.SetDefault("browser.chrome.idle_after", d.Browser.Chrome.IdleAfter)
	v.SetDefault("browser.timeout", d.Browser.Timeout)
	v.SetDefault("browser.launch_timeout", d.Browser.LaunchTimeout)
	v.SetDefault("browser.max_retries", d.Browser.MaxRetries)
	v.SetDefault("browser.retry_base_delay", d.Browser.RetryBaseDelay)
	v.SetDefault("browser.max_sessions", d.Browser.MaxSessions)

	v.SetDefault("form.url", d.Form.URL)
	v.SetDefault("form.submit_wait", d.Form.SubmitWait)
	v.SetDefault("form.cascade_timeout", d.Form.CascadeTimeout)

	v.SetDefault("readiness.ttl", d.Readiness.TTL)
	v.SetDefault("readiness.probe_timeout", d.Readiness.ProbeTimeout)

	v.SetDefault("attachment.dir", d.Attachment.Dir)
	v.SetDefault("attachment.cleanup", d.Attachment.Cleanup)
	v.SetDefault("attachment.fetch.timeout", d.Attachment.Fetch.Timeout)
	v.SetDefault("attachment.fetch.max_body_bytes", d.Attachment.Fetch.MaxBodyBytes)
	v.SetDefault("attachment.fetch.user_agent", d.Attachment.Fetch.UserAgent)

	v.SetDefault("history.enabled", d.History.Enabled)
	v.SetDefault("history.path", d.History.Path)

	v.SetDefault("jobs.retention", d.Jobs.Retention)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.file", d.Logging.File)
	v.SetDefault("logging.max_size_mb", d.Logging.MaxSizeMB)
	v.SetDefault("logging.max_backups", d.Logging.MaxBackups)
	v.SetDefault("logging.max_age_days", d.Logging.MaxAgeDays)
	v.SetDefault("logging.compress", d.Logging.Compress)
	v.SetDefault("logging.service_name", d.Logging.ServiceName)
}

// legacyEnv are the bare variable names deployments already use.
var legacyEnv = map[string]string{
	"browser.timeout":         "BROWSER_TIMEOUT",
	"browser.chrome.headless": "HEADLESS",
	"browser.max_retries":     "MAX_RETRIES",
	"server.port":             "PORT",
}

// NewViper returns a viper instance with defaults and environment bindings.
func NewViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range legacyEnv {
		_ = v.BindEnv(key, EnvPrefix+"_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env)
	}
	return v
}

// LoadConfig reads an optional .env file, an optional config file at path and
// the environment, in increasing order of precedence.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	v := NewViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}
	return FromViper(v)
}

// FromViper builds a validated Config from v.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := DefaultConfig()

	cfg.Server.Addr = v.GetString("server.addr")
	if port := v.GetString("server.port"); port != "" {
		cfg.Server.Addr = ":" + port
	}
	cfg.Server.ReadTimeout = duration(v, "server.read_timeout")
	cfg.Server.WriteTimeout = duration(v, "server.write_timeout")
	cfg.Server.AllowedOrigins = stringList(v, "server.allowed_origins")
	cfg.Server.MaxBodyBytes = v.GetInt64("server.max_body_bytes")

	cfg.Browser.Chrome.Headless = v.GetBool("browser.chrome.headless")
	cfg.Browser.Chrome.ExecPath = v.GetString("browser.chrome.exec_path")
	cfg.Browser.Chrome.UserAgent = v.GetString("browser.chrome.user_agent")
	cfg.Browser.Chrome.IdleAfter = duration(v, "browser.chrome.idle_after")
	cfg.Browser.Timeout = duration(v, "browser.timeout")
	cfg.Browser.LaunchTimeout = duration(v, "browser.launch_timeout")
	cfg.Browser.MaxRetries = v.GetInt("browser.max_retries")
	cfg.Browser.RetryBaseDelay = duration(v, "browser.retry_base_delay")
	cfg.Browser.MaxSessions = v.GetInt("browser.max_sessions")

	cfg.Form.URL = v.GetString("form.url")
	cfg.Form.SubmitWait = duration(v, "form.submit_wait")
	cfg.Form.CascadeTimeout = duration(v, "form.cascade_timeout")

	cfg.Readiness.TTL = duration(v, "readiness.ttl")
	cfg.Readiness.ProbeTimeout = duration(v, "readiness.probe_timeout")

	cfg.Attachment.Dir = v.GetString("attachment.dir")
	cfg.Attachment.Cleanup = v.GetBool("attachment.cleanup")
	cfg.Attachment.Fetch.Timeout = duration(v, "attachment.fetch.timeout")
	cfg.Attachment.Fetch.MaxBodyBytes = v.GetInt64("attachment.fetch.max_body_bytes")
	cfg.Attachment.Fetch.UserAgent = v.GetString("attachment.fetch.user_agent")

	cfg.History.Enabled = v.GetBool("history.enabled")
	cfg.History.Path = v.GetString("history.path")

	cfg.Jobs.Retention = duration(v, "jobs.retention")

	cfg.Logging.Level = v.GetString("logging.level")
	cfg.Logging.Format = v.GetString("logging.format")
	cfg.Logging.File = v.GetString("logging.file")
	cfg.Logging.MaxSizeMB = v.GetInt("logging.max_size_mb")
	cfg.Logging.MaxBackups = v.GetInt("logging.max_backups")
	cfg.Logging.MaxAgeDays = v.GetInt("logging.max_age_days")
	cfg.Logging.Compress = v.GetBool("logging.compress")
	cfg.Logging.ServiceName = v.GetString("logging.service_name")

	path, err := expandPath(cfg.History.Path)
	if err != nil {
		return nil, fmt.Errorf("expanding history path: %w", err)
	}
	cfg.History.Path = path

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// duration reads key as a Go duration. A bare integer is taken as
// milliseconds, matching BROWSER_TIMEOUT=120000 style settings.
func duration(v *viper.Viper, key string) time.Duration {
	raw := strings.TrimSpace(v.GetString(key))
	if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return v.GetDuration(key)
}

// stringList accepts a YAML list or a comma separated environment value.
func stringList(v *viper.Viper, key string) []string {
	var out []string
	for _, item := range v.GetStringSlice(key) {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// Validate reports the first setting that cannot work.
func (c *Config) Validate() error {
	switch {
	case c.Server.Addr == "":
		return errors.New("server.addr must be set")
	case c.Browser.Timeout <= 0:
		return errors.New("browser.timeout must be positive")
	case c.Browser.LaunchTimeout <= 0:
		return errors.New("browser.launch_timeout must be positive")
	case c.Browser.MaxRetries < 1:
		return errors.New("browser.max_retries must be at least 1")
	case c.Browser.MaxSessions < 1:
		return errors.New("browser.max_sessions must be at least 1")
	case c.Form.SubmitWait <= 0:
		return errors.New("form.submit_wait must be positive")
	case c.Form.CascadeTimeout <= 0:
		return errors.New("form.cascade_timeout must be positive")
	case c.Readiness.TTL <= 0:
		return errors.New("readiness.ttl must be positive")
	case c.History.Enabled && c.History.Path == "":
		return errors.New("history.path must be set when history is enabled")
	}
	return nil
}

func expandPath(p string) (string, error) {
	if len(p) > 0 && p[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, p[1:]), nil
	}
	return p, nil
}
