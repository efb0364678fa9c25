package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/session"
)

const testSecret = "sessiond-secret-0123456789"

func envOf(kv map[string]string) func(string) string {
	return func(k string) string { return kv[k] }
}

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "sessiond.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigDefaultsWithEnvOnly(t *testing.T) {
	cfg, err := loadConfig("", envOf(map[string]string{"SECRET_KEY": testSecret}))
	require.NoError(t, err)

	assert.Equal(t, defaultListen, cfg.Listen)
	assert.Equal(t, defaultDSN, cfg.DSN)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, "connect.sid", cfg.Engine.Session.CookieName)
	assert.Equal(t, []string{testSecret}, cfg.Engine.Session.Secrets)
	assert.False(t, cfg.Engine.Security.SecureCookies)
}

func TestLoadConfigMissingSecret(t *testing.T) {
	_, err := loadConfig("", envOf(nil))
	assert.Error(t, err)
}

func TestLoadConfigFromTOML(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `
listen = ":8080"

[log]
level = "debug"

[session]
cookie_name = "sid"
same_site = "strict"
default_ttl = "2h"
remember_ttl = "72h"
rolling = true
secrets = ["`+testSecret+`", "older-secret-0123456789"]

[store]
url = "redis://cache:6379/1"
key_prefix = "app:sess:"
op_timeout = "500ms"

[metrics]
enabled = true
latency = true
`)

	cfg, err := loadConfig(path, envOf(nil))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Listen)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, "sid", cfg.Engine.Session.CookieName)
	assert.Equal(t, http.SameSiteStrictMode, cfg.Engine.Session.SameSite)
	assert.Equal(t, 2*time.Hour, cfg.Engine.Session.DefaultTTL)
	assert.Equal(t, 72*time.Hour, cfg.Engine.Session.RememberTTL)
	assert.True(t, cfg.Engine.Session.Rolling)
	assert.Len(t, cfg.Engine.Session.Secrets, 2)
	assert.Equal(t, "redis://cache:6379/1", cfg.Engine.Store.URL)
	assert.Equal(t, "app:sess:", cfg.Engine.Store.KeyPrefix)
	assert.Equal(t, 500*time.Millisecond, cfg.Engine.Store.OpTimeout)
	assert.True(t, cfg.Engine.Metrics.EnableLatencyHistograms)
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `
[session]
secrets = ["file-secret-0123456789abc"]

[store]
url = "redis://file:6379/0"
`)

	cfg, err := loadConfig(path, envOf(map[string]string{
		"REDIS_URL":    "redis://env:6379/2",
		"SECRET_KEY":   testSecret + ", rotated-secret-0123456789",
		"PORT":         "9000",
		"APP_ENV":      "production",
		"DATABASE_DSN": "file:prod.db",
	}))
	require.NoError(t, err)

	assert.Equal(t, "redis://env:6379/2", cfg.Engine.Store.URL)
	assert.Equal(t, []string{testSecret, "rotated-secret-0123456789"}, cfg.Engine.Session.Secrets)
	assert.Equal(t, ":9000", cfg.Listen)
	assert.Equal(t, "file:prod.db", cfg.DSN)
	assert.True(t, cfg.Engine.Security.ProductionMode)
	assert.True(t, cfg.Engine.Security.SecureCookies)
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "same site", body: "[session]\nsame_site = \"sideways\"\n"},
		{name: "duration", body: "[session]\ndefault_ttl = \"forever\"\n"},
		{name: "log level", body: "[log]\nlevel = \"loud\"\n"},
		{name: "syntax", body: "listen = \n"},
		{name: "remember shorter than default", body: "[session]\ndefault_ttl = \"48h\"\nremember_ttl = \"1h\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, t.TempDir(), tt.body)
			_, err := loadConfig(path, envOf(map[string]string{"SECRET_KEY": testSecret}))
			assert.Error(t, err)
		})
	}
}

type countingLogger struct {
	goSession.Logger
	errors atomic.Int32
}

func (l *countingLogger) Error(string, ...any) { l.errors.Add(1) }

func TestReloaderMovesStoreOnURLChange(t *testing.T) {
	first := miniredis.RunT(t)
	second := miniredis.RunT(t)

	client := session.NewClient("redis://"+first.Addr(), session.Options{OpTimeout: time.Second})
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	rec := &session.Record{ID: "abc", CreatedAt: time.Now().Unix(), ExpiresAt: time.Now().Add(time.Hour).Unix()}
	require.NoError(t, client.Set(ctx, rec, time.Hour))

	path := writeConfig(t, t.TempDir(), "[store]\nurl = \"redis://"+second.Addr()+"\"\n")
	logger := &countingLogger{Logger: goSession.NopLogger()}
	rl := &reloader{path: path, getenv: envOf(map[string]string{"SECRET_KEY": testSecret}), store: client, logger: logger}

	rl.reload(ctx)

	assert.Equal(t, "redis://"+second.Addr(), client.URL())
	_, err := client.Get(ctx, "abc")
	assert.ErrorIs(t, err, session.ErrRecordNotFound, "the new store does not have the old record")
	assert.True(t, first.Exists("sess:abc"), "the old store is left untouched")
	assert.Zero(t, logger.errors.Load())
}

func TestReloaderKeepsStoreOnInvalidConfig(t *testing.T) {
	mr := miniredis.RunT(t)
	client := session.NewClient("redis://"+mr.Addr(), session.Options{})
	t.Cleanup(func() { _ = client.Close() })

	path := writeConfig(t, t.TempDir(), "[store]\nurl = \"redis://elsewhere:6379\"\n[session]\nsame_site = \"bogus\"\n")
	rl := &reloader{path: path, getenv: envOf(map[string]string{"SECRET_KEY": testSecret}), store: client, logger: goSession.NopLogger()}

	rl.reload(context.Background())
	assert.Equal(t, "redis://"+mr.Addr(), client.URL())
}

func TestWatchReloadsOnFileWrite(t *testing.T) {
	first := miniredis.RunT(t)
	second := miniredis.RunT(t)

	client := session.NewClient("redis://"+first.Addr(), session.Options{OpTimeout: time.Second})
	t.Cleanup(func() { _ = client.Close() })

	dir := t.TempDir()
	path := writeConfig(t, dir, "[store]\nurl = \"redis://"+first.Addr()+"\"\n")

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	rl := &reloader{path: path, getenv: envOf(map[string]string{"SECRET_KEY": testSecret}), store: client, logger: goSession.NopLogger()}
	require.NoError(t, rl.watch(ctx))

	writeConfig(t, dir, "[store]\nurl = \"redis://"+second.Addr()+"\"\n")

	require.Eventually(t, func() bool {
		return client.URL() == "redis://"+second.Addr()
	}, 5*time.Second, 50*time.Millisecond)
}
