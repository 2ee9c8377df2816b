//go:build !windows

package main

import (
	"os"
	"syscall"
)

// terminateProcess asks the daemon to exit. It releases its PID file on
// SIGTERM.
func terminateProcess(p *os.Process) error {
	return p.Signal(syscall.SIGTERM)
}
