package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// settleDelay collapses the burst of events editors produce for one save.
const settleDelay = 250 * time.Millisecond

// Watch calls onChange whenever cfile is written, created or renamed into
// place. The directory is watched instead of the file so that editors
// replacing the file atomically are noticed too. Watch returns once the
// watcher is set up; it stops when ctx is done.
func Watch(ctx context.Context, cfile string, onChange func()) error {
	abs, err := filepath.Abs(cfile)
	if err != nil {
		return fmt.Errorf("can't resolve config path %s: %w", cfile, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("can't create config watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return fmt.Errorf("can't watch %s: %w", filepath.Dir(abs), err)
	}

	go func() {
		defer watcher.Close()
		var settle <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != abs {
					continue
				}
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
					settle = time.After(settleDelay)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				slog.Error("Config watcher error", "error", err)
			case <-settle:
				settle = nil
				slog.Info("Config file changed", "file", cfile)
				onChange()
			}
		}
	}()
	return nil
}
