package watcher

import (
	"context"
	"io/fs"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"personal-kb/internal/contextutil"
)

// startNotifier watches root and its subdirectories and sends a non-blocking nudge on every
// filesystem event. It stops when ctx is cancelled.
func startNotifier(ctx context.Context, root string, nudge chan<- struct{}) error {
	logger := contextutil.LoggerFromContext(ctx)

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := addRecursive(fsw, root); err != nil {
		_ = fsw.Close()
		return err
	}

	go func() {
		defer func() {
			_ = fsw.Close()
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-fsw.Events:
				if !ok {
					return
				}
				if event.Op&fsnotify.Create != 0 {
					// New directories need their own watch.
					_ = addRecursive(fsw, event.Name)
				}
				select {
				case nudge <- struct{}{}:
				default:
				}
			case err, ok := <-fsw.Errors:
				if !ok {
					return
				}
				logger.WarnContext(ctx, "file notifier error", "error", err)
			}
		}
	}()

	return nil
}

// addRecursive adds root and every directory below it to the watcher.
func addRecursive(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		return fsw.Add(path)
	})
}
