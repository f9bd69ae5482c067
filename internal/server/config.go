package server

import "time"

type Config struct {
	// Addr is the HTTP listen address.
	Addr         string        `mapstructure:"addr" yaml:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	// AllowedOrigins lists exact origins and "scheme://*.suffix" patterns.
	// Localhost on any port is always allowed.
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
	MaxBodyBytes   int64    `mapstructure:"max_body_bytes" yaml:"max_body_bytes"`
}

func DefaultConfig() Config {
	return Config{
		Addr:         ":3000",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 180 * time.Second,
		AllowedOrigins: []string{
			"http://localhost:3000",
			"http://localhost:5173",
			"https://*.vercel.app",
		},
		MaxBodyBytes: 1 << 20,
	}
}
