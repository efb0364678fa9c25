package goSession

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/MrEthical07/goSession/password"
	"github.com/MrEthical07/goSession/session"
)

// Config is the full engine configuration. Build it from DefaultConfig and
// treat it as immutable once handed to a Builder.
type Config struct {
	Session  SessionConfig
	Store    StoreConfig
	Password PasswordConfig
	Metrics  MetricsConfig
	Security SecurityConfig
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls the session cookie and session lifetimes.
type SessionConfig struct {
	CookieName   string
	CookiePath   string
	CookieDomain string
	SameSite     http.SameSite

	// DefaultTTL is the store lifetime of a session signed in without
	// remember-me. Its cookie is a browser-session cookie.
	DefaultTTL time.Duration
	// RememberTTL is the lifetime of a remember-me session; its cookie
	// carries a matching Max-Age.
	RememberTTL time.Duration
	// Rolling extends an authenticated session's expiry on every request.
	Rolling bool

	// Secrets sign session tokens. The first one signs, all of them verify.
	Secrets []string
}

/*
====================================
STORE CONFIG
====================================
*/

// StoreConfig locates the session store.
type StoreConfig struct {
	URL       string
	KeyPrefix string
	OpTimeout time.Duration
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig selects the scheme and cost for newly hashed passwords.
// Stored hashes of either scheme always verify.
type PasswordConfig struct {
	Scheme      string // "argon2id" (default) or "bcrypt"
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
	BcryptCost  int
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig toggles the in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
SECURITY CONFIG
====================================
*/

// SecurityConfig holds deployment hardening switches.
type SecurityConfig struct {
	// ProductionMode enables the production lint in Validate.
	ProductionMode bool
	// SecureCookies sets the Secure attribute on the session cookie.
	SecureCookies bool

	// MaxSignInAttempts is the failure budget per login within
	// SignInWindow. Zero disables throttling.
	MaxSignInAttempts int
	SignInWindow      time.Duration
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns a development configuration. Secrets are left
// empty and must be provided.
func DefaultConfig() Config {
	argon := password.DefaultArgon2Params()
	return Config{
		Session: SessionConfig{
			CookieName:  "connect.sid",
			CookiePath:  "/",
			SameSite:    http.SameSiteLaxMode,
			DefaultTTL:  24 * time.Hour,
			RememberTTL: 30 * 24 * time.Hour,
			Rolling:     false,
		},
		Store: StoreConfig{
			URL:       "redis://localhost:6379/0",
			KeyPrefix: session.DefaultKeyPrefix,
			OpTimeout: session.DefaultOpTimeout,
		},
		Password: PasswordConfig{
			Scheme:      string(password.SchemeArgon2id),
			Memory:      argon.Memory,
			Time:        argon.Time,
			Parallelism: argon.Parallelism,
			SaltLength:  argon.SaltLength,
			KeyLength:   argon.KeyLength,
			BcryptCost:  10,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
		Security: SecurityConfig{
			ProductionMode:    false,
			SecureCookies:     false,
			MaxSignInAttempts: 10,
			SignInWindow:      15 * time.Minute,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	if len(cfg.Session.Secrets) > 0 {
		out.Session.Secrets = append([]string(nil), cfg.Session.Secrets...)
	}
	return out
}

func (c PasswordConfig) options() password.Options {
	return password.Options{
		Scheme: password.Scheme(c.Scheme),
		Argon2: password.Argon2Params{
			Memory:      c.Memory,
			Time:        c.Time,
			Parallelism: c.Parallelism,
			SaltLength:  c.SaltLength,
			KeyLength:   c.KeyLength,
		},
		BcryptCost: c.BcryptCost,
	}
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first configuration problem found.
func (c *Config) Validate() error {
	// Session
	if c.Session.CookieName == "" {
		return errors.New("Session CookieName must be set")
	}
	if c.Session.DefaultTTL <= 0 {
		return errors.New("Session DefaultTTL must be > 0")
	}
	if c.Session.RememberTTL < c.Session.DefaultTTL {
		return errors.New("Session RememberTTL must be >= DefaultTTL")
	}
	if len(c.Session.Secrets) == 0 {
		return errors.New("Session Secrets must contain at least one secret")
	}
	for i, s := range c.Session.Secrets {
		if len(s) < 16 {
			return fmt.Errorf("Session Secrets[%d] must be at least 16 bytes", i)
		}
	}
	if c.Session.SameSite == http.SameSiteNoneMode && !c.Security.SecureCookies {
		return errors.New("SameSite=None requires SecureCookies")
	}

	// Store
	if c.Store.OpTimeout < 0 {
		return errors.New("Store OpTimeout must be >= 0")
	}

	// Password
	if err := c.Password.options().Validate(); err != nil {
		return fmt.Errorf("Password: %w", err)
	}

	// Metrics
	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return errors.New("Metrics EnableLatencyHistograms requires Metrics Enabled")
	}

	// Security
	if c.Security.ProductionMode && !c.Security.SecureCookies {
		return errors.New("ProductionMode requires SecureCookies")
	}
	if c.Security.MaxSignInAttempts < 0 {
		return errors.New("Security MaxSignInAttempts must be >= 0")
	}
	if c.Security.MaxSignInAttempts > 0 && c.Security.SignInWindow <= 0 {
		return errors.New("Security SignInWindow must be > 0 when throttling is enabled")
	}

	return nil
}
