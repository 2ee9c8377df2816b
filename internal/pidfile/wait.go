package pidfile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// WaitReleased blocks until the file at path no longer exists or ctx is
// done. The containing directory is watched rather than the file itself
// so removal by rename and recreate-then-remove are both seen.
func WaitReleased(ctx context.Context, path string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer w.Close() //nolint:errcheck // best-effort cleanup

	dir := filepath.Dir(path)
	if err := w.Add(dir); err != nil {
		if os.IsNotExist(err) || errors.Is(err, fsnotify.ErrNonExistentWatch) {
			return nil
		}
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	// Check after the watch is armed so a removal in between is not lost.
	if gone(path) {
		return nil
	}

	want := filepath.Clean(path)
	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for %s to be released: %w", path, ctx.Err())
		case ev, ok := <-w.Events:
			if !ok {
				return fmt.Errorf("watcher closed")
			}
			if filepath.Clean(ev.Name) != want {
				continue
			}
			if ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
				if gone(path) {
					return nil
				}
			}
		case err, ok := <-w.Errors:
			if !ok {
				return fmt.Errorf("watcher closed")
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				if gone(path) {
					return nil
				}
				continue
			}
			return fmt.Errorf("watching %s: %w", dir, err)
		}
	}
}

func gone(path string) bool {
	_, err := os.Stat(path)
	return os.IsNotExist(err)
}
