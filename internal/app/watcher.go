package app

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ReloadDebounce is how long Watch waits after the last change before reloading
const ReloadDebounce = 250 * time.Millisecond

// Watch reloads store whenever its backing file changes. The parent
// directory is watched so that editors replacing the file are seen too.
// Watch blocks until ctx is done.
func Watch(ctx context.Context, store *FileStore, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	target := filepath.Clean(store.Path())
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(target), err)
	}
	logger.Info("Watching data file", zap.String("path", target))

	timer := time.NewTimer(ReloadDebounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			timer.Reset(ReloadDebounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error", zap.Error(err))

		case <-timer.C:
			if err := store.Reload(); err != nil {
				logger.Error("Failed to reload data file", zap.String("path", target), zap.Error(err))
			}
		}
	}
}
