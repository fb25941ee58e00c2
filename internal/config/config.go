// Package config builds the service configuration once at startup from the
// environment, an optional .env file and an optional config file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DefaultPort            = 3000
	DefaultEmail           = "your.email@example.com"
	DefaultName            = "Your Full Name"
	DefaultStack           = "Node.js/Express"
	DefaultCatFactURL      = "https://catfact.ninja"
	DefaultCatFactTimeout  = 5 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
	DefaultTestURL         = "http://localhost:3000"
)

// Config is the resolved service configuration.
type Config struct {
	Port int

	UserEmail string
	UserName  string
	UserStack string

	CatFactURL     string
	CatFactTimeout time.Duration

	LogLevel        string
	LogFormat       string
	GinMode         string
	ShutdownTimeout time.Duration
}

// Addr is the listen address for Port.
func (c *Config) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}

// ConfigError reports an invalid setting.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// LoadDotEnv loads KEY=VALUE pairs from the given files (".env" when none are
// given) without overriding variables already set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Load resolves the configuration. Environment variables win over a
// config.{yaml,json,toml} found in any of searchPaths, which wins over defaults.
// Empty environment variables count as unset.
func Load(searchPaths ...string) (*Config, error) {
	v := newViper()

	if len(searchPaths) > 0 {
		v.SetConfigName("config")
		for _, p := range searchPaths {
			v.AddConfigPath(p)
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	port, err := strconv.Atoi(v.GetString("port"))
	if err != nil {
		return nil, &ConfigError{Field: "PORT", Message: fmt.Sprintf("not a number: %q", v.GetString("port"))}
	}

	cfg := &Config{
		Port:            port,
		UserEmail:       v.GetString("user_email"),
		UserName:        v.GetString("user_name"),
		UserStack:       v.GetString("user_stack"),
		CatFactURL:      v.GetString("cat_fact_url"),
		CatFactTimeout:  v.GetDuration("cat_fact_timeout"),
		LogLevel:        v.GetString("log_level"),
		LogFormat:       v.GetString("log_format"),
		GinMode:         v.GetString("gin_mode"),
		ShutdownTimeout: v.GetDuration("shutdown_timeout"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// TestURL returns the base URL the verification tool targets.
func TestURL() string {
	v := viper.New()
	v.SetDefault("test_url", DefaultTestURL)
	v.AutomaticEnv()
	return v.GetString("test_url")
}

// Validate checks the resolved values.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return &ConfigError{Field: "PORT", Message: fmt.Sprintf("out of range: %d", c.Port)}
	}
	if c.CatFactURL == "" {
		return &ConfigError{Field: "CAT_FACT_URL", Message: "must not be empty"}
	}
	if c.CatFactTimeout <= 0 {
		return &ConfigError{Field: "CAT_FACT_TIMEOUT", Message: "must be positive"}
	}
	if c.ShutdownTimeout <= 0 {
		return &ConfigError{Field: "SHUTDOWN_TIMEOUT", Message: "must be positive"}
	}
	return nil
}

func newViper() *viper.Viper {
	v := viper.New()

	v.SetDefault("port", DefaultPort)
	v.SetDefault("user_email", DefaultEmail)
	v.SetDefault("user_name", DefaultName)
	v.SetDefault("user_stack", DefaultStack)
	v.SetDefault("cat_fact_url", DefaultCatFactURL)
	v.SetDefault("cat_fact_timeout", DefaultCatFactTimeout)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("gin_mode", "release")
	v.SetDefault("shutdown_timeout", DefaultShutdownTimeout)

	v.AutomaticEnv()
	return v
}
