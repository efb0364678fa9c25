package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	goSession "github.com/MrEthical07/goSession"
)

// duration decodes TOML strings such as "24h".
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// fileConfig mirrors sessiond.toml. Absent keys keep their defaults.
type fileConfig struct {
	Listen string `toml:"listen"`
	Env    string `toml:"env"`

	Log struct {
		Level string `toml:"level"`
	} `toml:"log"`

	Database struct {
		DSN string `toml:"dsn"`
	} `toml:"database"`

	Session struct {
		CookieName   string   `toml:"cookie_name"`
		CookieDomain string   `toml:"cookie_domain"`
		SameSite     string   `toml:"same_site"`
		DefaultTTL   duration `toml:"default_ttl"`
		RememberTTL  duration `toml:"remember_ttl"`
		Rolling      bool     `toml:"rolling"`
		Secrets      []string `toml:"secrets"`
	} `toml:"session"`

	Store struct {
		URL       string   `toml:"url"`
		KeyPrefix string   `toml:"key_prefix"`
		OpTimeout duration `toml:"op_timeout"`
	} `toml:"store"`

	Metrics struct {
		Enabled bool `toml:"enabled"`
		Latency bool `toml:"latency"`
	} `toml:"metrics"`
}

// serverConfig is everything sessiond needs to start.
type serverConfig struct {
	Engine   goSession.Config
	Listen   string
	DSN      string
	LogLevel slog.Level
}

const (
	defaultListen = ":3000"
	defaultDSN    = "file:sessiond.db?cache=shared"
)

func defaultFileConfig() fileConfig {
	eng := goSession.DefaultConfig()

	var fc fileConfig
	fc.Listen = defaultListen
	fc.Env = "development"
	fc.Log.Level = "info"
	fc.Database.DSN = defaultDSN
	fc.Session.CookieName = eng.Session.CookieName
	fc.Session.SameSite = "lax"
	fc.Session.DefaultTTL = duration{eng.Session.DefaultTTL}
	fc.Session.RememberTTL = duration{eng.Session.RememberTTL}
	fc.Store.URL = eng.Store.URL
	fc.Store.KeyPrefix = eng.Store.KeyPrefix
	fc.Store.OpTimeout = duration{eng.Store.OpTimeout}
	fc.Metrics.Enabled = true
	return fc
}

// loadConfig reads path (optional), overlays the environment and validates
// the result.
func loadConfig(path string, getenv func(string) string) (serverConfig, error) {
	fc := defaultFileConfig()
	if path != "" {
		if _, err := toml.DecodeFile(path, &fc); err != nil {
			return serverConfig{}, fmt.Errorf("decode %s: %w", path, err)
		}
	}

	if v := getenv("REDIS_URL"); v != "" {
		fc.Store.URL = v
	}
	if v := getenv("SECRET_KEY"); v != "" {
		fc.Session.Secrets = splitSecrets(v)
	}
	if v := getenv("PORT"); v != "" {
		fc.Listen = ":" + v
	}
	if v := getenv("APP_ENV"); v != "" {
		fc.Env = v
	}
	if v := getenv("DATABASE_DSN"); v != "" {
		fc.Database.DSN = v
	}

	return fc.resolve()
}

func (fc fileConfig) resolve() (serverConfig, error) {
	sameSite, err := parseSameSite(fc.Session.SameSite)
	if err != nil {
		return serverConfig{}, err
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(fc.Log.Level)); err != nil {
		return serverConfig{}, fmt.Errorf("log level: %w", err)
	}

	cfg := goSession.DefaultConfig()
	cfg.Session.CookieName = fc.Session.CookieName
	cfg.Session.CookieDomain = fc.Session.CookieDomain
	cfg.Session.SameSite = sameSite
	cfg.Session.DefaultTTL = fc.Session.DefaultTTL.Duration
	cfg.Session.RememberTTL = fc.Session.RememberTTL.Duration
	cfg.Session.Rolling = fc.Session.Rolling
	cfg.Session.Secrets = fc.Session.Secrets
	cfg.Store.URL = fc.Store.URL
	cfg.Store.KeyPrefix = fc.Store.KeyPrefix
	cfg.Store.OpTimeout = fc.Store.OpTimeout.Duration
	cfg.Metrics.Enabled = fc.Metrics.Enabled
	cfg.Metrics.EnableLatencyHistograms = fc.Metrics.Enabled && fc.Metrics.Latency

	if strings.EqualFold(fc.Env, "production") {
		cfg.Security.ProductionMode = true
		cfg.Security.SecureCookies = true
	}

	if err := cfg.Validate(); err != nil {
		return serverConfig{}, err
	}

	return serverConfig{
		Engine:   cfg,
		Listen:   fc.Listen,
		DSN:      fc.Database.DSN,
		LogLevel: level,
	}, nil
}

// splitSecrets accepts a comma-separated rotation list, newest first.
func splitSecrets(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func parseSameSite(v string) (http.SameSite, error) {
	switch strings.ToLower(v) {
	case "", "lax":
		return http.SameSiteLaxMode, nil
	case "strict":
		return http.SameSiteStrictMode, nil
	case "none":
		return http.SameSiteNoneMode, nil
	default:
		return 0, fmt.Errorf("same_site: unknown value %q", v)
	}
}
