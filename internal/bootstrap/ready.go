package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/steveyegge/daemonize/internal/fsys"
	"github.com/steveyegge/daemonize/internal/pidfile"
)

// readyPoll is how often WaitReady re-reads the PID file.
var readyPoll = 25 * time.Millisecond

// ErrChildExited is returned by WaitReady when the daemon died before it
// recorded its PID.
var ErrChildExited = errors.New("daemon exited before writing its PID")

// WaitReady blocks in the parent until the PID file names the child. The
// parent writes its own PID when it creates the file and the child
// overwrites it after taking over, so a match means the daemon is up.
// A file that is already gone means the daemon ran and released it.
func (b *Bootstrap) WaitReady(ctx context.Context) error {
	if b.role != Parent {
		return fmt.Errorf("wait ready: role is %s, want parent", b.role)
	}
	return waitForPID(ctx, fsys.OSFS{}, b.pidFile, b.childPID)
}

func waitForPID(ctx context.Context, fs fsys.FS, path string, want int) error {
	t := time.NewTicker(readyPoll)
	defer t.Stop()
	for {
		pid, err := pidfile.Read(fs, path)
		switch {
		case err == nil && pid == want:
			return nil
		case os.IsNotExist(err):
			return nil
		case err == nil:
			// Still the parent's PID. The child holds the lock from the
			// moment it is started, so a free lock means it is gone.
			locked, lerr := pidfile.IsLocked(path)
			if errors.Is(lerr, os.ErrNotExist) {
				return nil
			}
			if lerr == nil && !locked {
				return fmt.Errorf("%s (PID %d): %w", path, want, ErrChildExited)
			}
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for daemon PID %d in %s: %w", want, path, ctx.Err())
		case <-t.C:
		}
	}
}
