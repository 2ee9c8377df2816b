//go:build !windows

package pidfile

import (
	"errors"
	"os"
	"syscall"
)

// processAlive checks whether a process with the given PID is running
// by sending signal 0. EPERM means it exists under another user.
func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}

// lockHeldByDaemon is true where the daemon keeps its PID file flocked
// for its whole lifetime.
const lockHeldByDaemon = true
