// Package pidfile gives read-side access to a daemon's PID file: who is
// recorded in it, whether that process still holds it, and waiting for
// it to be released.
//
// The daemon side (create, lock, write, remove) belongs to
// [github.com/steveyegge/daemonize/internal/bootstrap]. The lock taken
// there is an exclusive flock(2); [Probe] tests it with gofrs/flock,
// which uses the same primitive, so the lock is the arbiter of whether a
// daemon is running even when the recorded PID has been reused.
package pidfile

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/gofrs/flock"
	"github.com/steveyegge/daemonize/internal/fsys"
)

// ErrRunning is returned by [RemoveStale] when the PID file belongs to a
// live daemon.
var ErrRunning = errors.New("daemon is running")

// Status describes a PID file at one point in time.
type Status struct {
	// PID is the recorded process ID, 0 when absent or unreadable.
	PID int
	// Exists is true when the PID file is present.
	Exists bool
	// Locked is true when another process holds the PID file lock.
	Locked bool
	// Alive is true when a process with PID exists.
	Alive bool
}

// Running reports whether a daemon owns the PID file. Where the daemon
// holds a lock only the lock counts: an unlocked file is stale even if
// its PID now belongs to some other live process. Elsewhere a live PID
// is the best evidence there is.
func (s Status) Running() bool {
	if lockHeldByDaemon {
		return s.Locked
	}
	return s.Locked || s.Alive
}

// Read returns the PID recorded at path. The error from the filesystem is
// returned unwrapped so callers can test it with [os.IsNotExist].
func Read(fs fsys.FS, path string) (int, error) {
	data, err := fs.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return Parse(data)
}

// Parse decodes PID file contents.
func Parse(data []byte) (int, error) {
	s := strings.TrimSpace(string(data))
	if s == "" {
		return 0, fmt.Errorf("empty PID file")
	}
	pid, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid PID in file: %q", s)
	}
	if pid <= 0 {
		return 0, fmt.Errorf("invalid PID in file: %d", pid)
	}
	return pid, nil
}

// Probe inspects the PID file at path. A missing file yields a zero
// Status and no error. A present but empty or garbled file is reported
// with PID 0 so the lock alone decides whether a daemon holds it; the
// child writes its PID a moment after the parent creates the file.
func Probe(fs fsys.FS, path string) (Status, error) {
	var st Status
	if _, err := fs.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return st, nil
		}
		return st, fmt.Errorf("probing PID file: %w", err)
	}
	st.Exists = true

	locked, err := IsLocked(path)
	if errors.Is(err, os.ErrNotExist) {
		// Released between Stat and the lock test.
		return Status{}, nil
	}
	if err != nil {
		return st, err
	}
	st.Locked = locked

	if pid, err := Read(fs, path); err == nil {
		st.PID = pid
		st.Alive = processAlive(pid)
	} else if os.IsNotExist(err) {
		// Released between Stat and Read.
		return Status{}, nil
	}
	return st, nil
}

// IsLocked reports whether some process holds the lock on path. It takes
// the lock itself when free and releases it straight away. The file is
// never created; a missing file yields an error matching
// [os.ErrNotExist].
func IsLocked(path string) (bool, error) {
	fl := flock.New(path, flock.SetFlag(os.O_RDONLY))
	ok, err := fl.TryLock()
	if err != nil {
		return false, fmt.Errorf("testing PID file lock: %w", err)
	}
	if !ok {
		return true, nil
	}
	if err := fl.Unlock(); err != nil {
		return false, fmt.Errorf("releasing PID file lock: %w", err)
	}
	return false, nil
}

// RemoveStale removes the PID file at path when no daemon owns it.
// Returns [ErrRunning] for a live daemon and nil when there is nothing
// to remove.
func RemoveStale(fs fsys.FS, path string) error {
	st, err := Probe(fs, path)
	if err != nil {
		return err
	}
	if !st.Exists {
		return nil
	}
	if st.Running() {
		return fmt.Errorf("%s (PID %d): %w", path, st.PID, ErrRunning)
	}
	if err := fs.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing stale PID file: %w", err)
	}
	return nil
}
