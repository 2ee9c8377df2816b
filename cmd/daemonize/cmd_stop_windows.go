//go:build windows

package main

import "os"

// terminateProcess kills the daemon. Windows has no SIGTERM to deliver.
func terminateProcess(p *os.Process) error {
	return p.Kill()
}
