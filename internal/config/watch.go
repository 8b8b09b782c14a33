package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/parley-dev/parley/internal/logger"
)

// Watch monitors the credentials file in dir and invokes onChange with the
// freshly loaded credentials whenever it is written or replaced. The watch is
// placed on the directory because editors typically rename over the file.
// Events are debounced so a save that produces several writes reloads once.
// Watch blocks until ctx is cancelled.
func Watch(ctx context.Context, dir string, onChange func(*Credentials)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return err
	}

	target := filepath.Join(dir, credentialsFile)
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	reload := func() {
		creds, err := Load(dir)
		if err != nil {
			logger.Warn("credentials reload failed", "error", err)
			return
		}
		logger.Info("credentials reloaded", "path", target)
		onChange(creds)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Name != target {
				continue
			}
			if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Rename) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(100*time.Millisecond, reload)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("credentials watch error", "error", err)
		}
	}
}
