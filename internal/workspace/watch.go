package workspace

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch calls onChange with the content of path each time the file is
// written, until ctx is done. The directory is watched so that editors
// replacing the file by rename are noticed. onChange runs on the calling
// goroutine, one call at a time.
func Watch(ctx context.Context, path string, logger *slog.Logger, onChange func([]byte)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer w.Close()

	target, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watching %s: %w", path, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			name, err := filepath.Abs(ev.Name)
			if err != nil || name != target {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			data, err := os.ReadFile(target)
			if err != nil {
				logger.Warn("workspace not readable", "path", path, "error", err)
				continue
			}
			logger.Debug("workspace changed", "path", path, "op", ev.Op.String())
			onChange(data)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "error", err)
		}
	}
}
