//go:build !windows

package main

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"
)

// startBystander starts a process that has nothing to do with any
// daemon. The returned channel is closed when it exits. It is killed
// when the test ends.
func startBystander(t *testing.T) (*os.Process, <-chan struct{}) {
	t.Helper()
	cmd := exec.Command("sleep", "30")
	if err := cmd.Start(); err != nil {
		t.Skipf("cannot start sleep: %v", err)
	}
	exited := make(chan struct{})
	go func() {
		cmd.Wait() //nolint:errcheck // exit status is irrelevant
		close(exited)
	}()
	t.Cleanup(func() {
		cmd.Process.Kill() //nolint:errcheck // test cleanup
		<-exited
	})
	return cmd.Process, exited
}

func TestStaleFileWithReusedPID(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "my.pid.file")
	other, exited := startBystander(t)
	pid := []byte(strconv.Itoa(other.Pid) + "\n")

	if err := os.WriteFile(path, pid, 0o644); err != nil {
		t.Fatal(err)
	}
	var stdout bytes.Buffer
	if code := run([]string{"status", path}, &stdout, &bytes.Buffer{}); code != 1 {
		t.Errorf("status = %d, want 1", code)
	}
	if !strings.Contains(stdout.String(), "Daemon is not running") {
		t.Errorf("status stdout = %q", stdout.String())
	}

	// status removed the stale file; put it back for stop.
	if err := os.WriteFile(path, pid, 0o644); err != nil {
		t.Fatal(err)
	}
	stdout.Reset()
	if code := run([]string{"stop", path}, &stdout, &bytes.Buffer{}); code != 1 {
		t.Errorf("stop = %d, want 1", code)
	}
	if !strings.Contains(stdout.String(), "Daemon is not running") {
		t.Errorf("stop stdout = %q", stdout.String())
	}
	select {
	case <-exited:
		t.Error("unrelated process was terminated")
	case <-time.After(200 * time.Millisecond):
	}
}
