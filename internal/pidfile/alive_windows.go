//go:build windows

package pidfile

import "os"

// processAlive reports whether FindProcess can open the PID. On Windows
// FindProcess fails for exited processes.
func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	_ = proc.Release()
	return true
}

// lockHeldByDaemon is false: nothing detaches and locks a PID file here.
const lockHeldByDaemon = false
