package main

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	goSession "github.com/MrEthical07/goSession"
)

const reloadDebounce = 200 * time.Millisecond

// storeConnector is the part of *session.Client the reloader drives.
type storeConnector interface {
	URL() string
	Connect(ctx context.Context, url string) error
}

// reloader applies a re-read config file to the running process. Only the
// store URL is applied live; other changes wait for a restart.
type reloader struct {
	path   string
	getenv func(string) string
	store  storeConnector
	logger goSession.Logger
}

func (rl *reloader) reload(ctx context.Context) {
	cfg, err := loadConfig(rl.path, rl.getenv)
	if err != nil {
		rl.logger.Warn("config reload rejected", "path", rl.path, "error", err)
		return
	}

	next := cfg.Engine.Store.URL
	if next == rl.store.URL() {
		rl.logger.Info("config reloaded, store unchanged", "path", rl.path)
		return
	}
	if err := rl.store.Connect(ctx, next); err != nil {
		// The client stays bound to next and retries on the next request.
		rl.logger.Error("session store reconnect failed", "error", err)
		return
	}
	rl.logger.Info("session store reconnected")
}

// watch reloads whenever the config file changes until ctx ends. The
// directory is watched so editors that replace the file are still seen.
func (rl *reloader) watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(rl.path)); err != nil {
		_ = w.Close()
		return err
	}

	go func() {
		defer w.Close()

		target := filepath.Clean(rl.path)
		timer := time.NewTimer(time.Hour)
		timer.Stop()

		for {
			select {
			case <-ctx.Done():
				timer.Stop()
				return

			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
					timer.Reset(reloadDebounce)
				}

			case <-timer.C:
				if _, err := os.Stat(rl.path); err != nil {
					continue
				}
				rl.reload(ctx)

			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				rl.logger.Warn("config watcher error", "error", err)
			}
		}
	}()
	return nil
}
