// Package doctor diagnoses the files a daemon depends on: its config,
// the PID file and its directory, the log file and the event log. Checks
// run in order with streaming output, optional --fix, and a summary.
package doctor

import (
	"github.com/steveyegge/daemonize/internal/config"
	"github.com/steveyegge/daemonize/internal/fsys"
)

// CheckStatus represents the outcome of a health check.
type CheckStatus int

const (
	// StatusOK means the check passed.
	StatusOK CheckStatus = iota
	// StatusWarning means the check found a non-critical issue.
	StatusWarning
	// StatusError means the check found a critical problem.
	StatusError
)

// Check is a single diagnostic check. Implementations are registered with
// a Doctor and executed sequentially during Run.
type Check interface {
	// Name returns a short, unique identifier for this check (e.g. "pid-dir").
	Name() string
	// Run executes the check and returns a result.
	Run(ctx *CheckContext) *CheckResult
	// CanFix reports whether this check supports automatic remediation.
	CanFix() bool
	// Fix attempts to automatically remediate the issue found by Run.
	// Only called when CanFix returns true and Run returned a non-OK status.
	Fix(ctx *CheckContext) error
}

// CheckContext carries shared state for all checks during a doctor run.
type CheckContext struct {
	// ConfigPath is the daemonize.toml the run was started with.
	ConfigPath string
	// Config is the effective config. Defaults when the file is missing
	// or broken.
	Config *config.Config
	// FS is used for reads; writability probes go to the real filesystem.
	FS fsys.FS
	// Verbose enables extra diagnostic output in check results.
	Verbose bool
}

// CheckResult holds the outcome of a single check execution.
type CheckResult struct {
	Name    string
	Status  CheckStatus
	Message string
	// Details holds extra lines shown only in verbose mode.
	Details []string
	// FixHint is a suggestion shown when the check fails and cannot auto-fix.
	FixHint string
	// Fixed is true when --fix successfully remediated the issue.
	Fixed bool
}
