package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Reload reads path and swaps it into the registry. On any error the
// current registry is kept.
func Reload(path string) ([]Definition, error) {
	defs, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	if err := Replace(defs); err != nil {
		return nil, err
	}
	return All(), nil
}

// Watch reloads the registry whenever the file at path changes, until ctx
// is done. Events closer together than debounce collapse into one reload.
// The parent directory is watched so that editors which save by rename are
// seen.
func Watch(ctx context.Context, path string, debounce time.Duration) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	target := filepath.Clean(path)
	if err := w.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(target), err)
	}
	slog.Info("watching datasets", "path", target)

	// Armed by the first matching event.
	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			timer.Reset(debounce)

		case <-timer.C:
			defs, err := Reload(target)
			if err != nil {
				slog.Error("reload datasets", "path", target, "error", err)
				continue
			}
			slog.Info("datasets reloaded", "path", target, "count", len(defs))

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.Warn("datasets watcher", "error", err)
		}
	}
}
