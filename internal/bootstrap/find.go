package bootstrap

import (
	"fmt"
	"os"

	"github.com/steveyegge/daemonize/internal/fsys"
	"github.com/steveyegge/daemonize/internal/pidfile"
)

// Find returns the daemon that owns pidFile, or [ErrNotRunning]. A file
// nobody holds the lock on is stale, even when its PID belongs to a live
// process, so that process is never returned for signalling.
func Find(pidFile string) (*os.Process, error) {
	return find(fsys.OSFS{}, pidFile)
}

func find(fs fsys.FS, pidFile string) (*os.Process, error) {
	if pidFile == "" {
		return nil, ErrNoPIDFile
	}
	st, err := pidfile.Probe(fs, pidFile)
	if err != nil {
		return nil, fmt.Errorf("searching for daemon: %w", err)
	}
	if !st.Running() {
		return nil, ErrNotRunning
	}
	if st.PID == 0 {
		return nil, fmt.Errorf("%s is locked but holds no PID yet", pidFile)
	}
	proc, err := os.FindProcess(st.PID)
	if err != nil {
		return nil, ErrNotRunning
	}
	return proc, nil
}
