package doctor

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/steveyegge/daemonize/internal/config"
	"github.com/steveyegge/daemonize/internal/events"
	"github.com/steveyegge/daemonize/internal/pidfile"
)

// ConfigCheck verifies daemonize.toml parses and validates.
type ConfigCheck struct{}

// Name returns the check identifier.
func (c *ConfigCheck) Name() string { return "config" }

// Run loads the config file. A missing file is fine: defaults apply.
func (c *ConfigCheck) Run(ctx *CheckContext) *CheckResult {
	r := &CheckResult{Name: c.Name()}
	if _, err := ctx.FS.Stat(ctx.ConfigPath); os.IsNotExist(err) {
		r.Status = StatusOK
		r.Message = fmt.Sprintf("%s not found, using defaults", ctx.ConfigPath)
		return r
	}
	cfg, err := config.Load(ctx.FS, ctx.ConfigPath)
	if err != nil {
		r.Status = StatusError
		r.Message = err.Error()
		r.FixHint = "fix or remove " + ctx.ConfigPath
		return r
	}
	r.Status = StatusOK
	r.Message = fmt.Sprintf("%s loaded", ctx.ConfigPath)
	r.Details = []string{
		"pid_file = " + cfg.Daemon.PIDFile,
		"log_file = " + cfg.Daemon.LogFile,
		"events_file = " + cfg.Daemon.EventsPath(),
	}
	return r
}

// CanFix returns false.
func (c *ConfigCheck) CanFix() bool { return false }

// Fix is a no-op.
func (c *ConfigCheck) Fix(_ *CheckContext) error { return nil }

// PIDDirCheck verifies the PID file's directory exists and is writable.
type PIDDirCheck struct{}

// Name returns the check identifier.
func (c *PIDDirCheck) Name() string { return "pid-dir" }

// Run probes the directory with a throwaway file.
func (c *PIDDirCheck) Run(ctx *CheckContext) *CheckResult {
	r := &CheckResult{Name: c.Name()}
	dir := filepath.Dir(ctx.Config.Daemon.PIDFile)
	fi, err := ctx.FS.Stat(dir)
	switch {
	case os.IsNotExist(err):
		r.Status = StatusError
		r.Message = dir + " does not exist"
		return r
	case err != nil:
		r.Status = StatusError
		r.Message = err.Error()
		return r
	case !fi.IsDir():
		r.Status = StatusError
		r.Message = dir + " is not a directory"
		return r
	}
	if err := probeWritable(dir); err != nil {
		r.Status = StatusError
		r.Message = fmt.Sprintf("%s not writable: %v", dir, err)
		r.FixHint = "choose a writable pid_file location"
		return r
	}
	r.Status = StatusOK
	r.Message = dir + " writable"
	return r
}

// CanFix returns true: a missing directory can be created.
func (c *PIDDirCheck) CanFix() bool { return true }

// Fix creates the PID file's directory.
func (c *PIDDirCheck) Fix(ctx *CheckContext) error {
	return ctx.FS.MkdirAll(filepath.Dir(ctx.Config.Daemon.PIDFile), 0o755)
}

// StalePIDCheck finds a PID file left behind by a daemon that died
// without releasing it.
type StalePIDCheck struct{}

// Name returns the check identifier.
func (c *StalePIDCheck) Name() string { return "stale-pid" }

// Run probes the PID file's lock and recorded process.
func (c *StalePIDCheck) Run(ctx *CheckContext) *CheckResult {
	r := &CheckResult{Name: c.Name()}
	path := ctx.Config.Daemon.PIDFile
	st, err := pidfile.Probe(ctx.FS, path)
	if err != nil {
		r.Status = StatusError
		r.Message = err.Error()
		return r
	}
	r.Details = []string{fmt.Sprintf("exists=%v locked=%v alive=%v", st.Exists, st.Locked, st.Alive)}
	switch {
	case !st.Exists:
		r.Status = StatusOK
		r.Message = "no PID file"
	case st.Running():
		r.Status = StatusOK
		r.Message = fmt.Sprintf("daemon running (PID %d)", st.PID)
	default:
		r.Status = StatusWarning
		r.Message = fmt.Sprintf("stale PID file %s (PID %d, no daemon holds the lock)", path, st.PID)
	}
	return r
}

// CanFix returns true.
func (c *StalePIDCheck) CanFix() bool { return true }

// Fix removes the PID file unless a daemon has claimed it meanwhile.
func (c *StalePIDCheck) Fix(ctx *CheckContext) error {
	return pidfile.RemoveStale(ctx.FS, ctx.Config.Daemon.PIDFile)
}

// LogFileCheck verifies the daemon can append to its log file.
type LogFileCheck struct{}

// Name returns the check identifier.
func (c *LogFileCheck) Name() string { return "log-file" }

// Run opens an existing log for append, or probes its directory.
func (c *LogFileCheck) Run(ctx *CheckContext) *CheckResult {
	r := &CheckResult{Name: c.Name()}
	path := ctx.Config.Daemon.LogFile
	if path == "" {
		r.Status = StatusOK
		r.Message = "daemon output discarded"
		return r
	}

	var err error
	if _, serr := ctx.FS.Stat(path); serr == nil {
		var f *os.File
		f, err = os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0)
		if err == nil {
			f.Close() //nolint:errcheck // probe only
		}
	} else {
		err = probeWritable(filepath.Dir(path))
	}
	if err != nil {
		r.Status = StatusError
		r.Message = fmt.Sprintf("%s not writable: %v", path, err)
		r.FixHint = "set log_file to a writable path, or \"\" to discard output"
		return r
	}
	r.Status = StatusOK
	r.Message = path + " writable"
	return r
}

// CanFix returns false.
func (c *LogFileCheck) CanFix() bool { return false }

// Fix is a no-op.
func (c *LogFileCheck) Fix(_ *CheckContext) error { return nil }

// EventLogCheck reads the lifecycle event log.
type EventLogCheck struct{}

// Name returns the check identifier.
func (c *EventLogCheck) Name() string { return "event-log" }

// Run counts events and reports the most recent one.
func (c *EventLogCheck) Run(ctx *CheckContext) *CheckResult {
	r := &CheckResult{Name: c.Name()}
	path := ctx.Config.Daemon.EventsPath()
	evts, err := events.ReadAll(path)
	if err != nil {
		r.Status = StatusWarning
		r.Message = fmt.Sprintf("reading %s: %v", path, err)
		return r
	}
	r.Status = StatusOK
	if len(evts) == 0 {
		r.Message = "no events recorded"
		return r
	}
	last := evts[len(evts)-1]
	r.Message = fmt.Sprintf("%d events, last %s at %s", len(evts), last.Type, last.Ts.Format("2006-01-02 15:04:05"))
	return r
}

// CanFix returns false.
func (c *EventLogCheck) CanFix() bool { return false }

// Fix is a no-op.
func (c *EventLogCheck) Fix(_ *CheckContext) error { return nil }

// probeWritable creates and removes a temp file in dir.
func probeWritable(dir string) error {
	f, err := os.CreateTemp(dir, ".daemonize-doctor-*")
	if err != nil {
		return err
	}
	name := f.Name()
	return errors.Join(f.Close(), os.Remove(name))
}
