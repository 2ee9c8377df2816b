// Package bootstrap turns the running program into a background daemon.
//
// Go cannot fork a live runtime, so detaching re-executes the binary with
// a marker in its environment. The same code path therefore runs twice:
// once in the original process, which becomes the [Parent], and once in
// the re-executed process, which becomes the [Child]. [Bootstrap.Setup]
// tells the two apart before the transition and [Bootstrap.Daemonize]
// reports the role after it.
//
// Nothing in memory survives the re-exec. The PID file path, log file,
// working directory, umask, argv and environment are serialized to the
// child by the detacher; named values the child needs can be passed with
// [Options.Resources].
package bootstrap

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Role says which side of the detach the current process is on.
type Role int

const (
	// Undecided is the role before Daemonize has run.
	Undecided Role = iota
	// Parent is the original, interactive process.
	Parent
	// Child is the detached daemon.
	Child
)

func (r Role) String() string {
	switch r {
	case Parent:
		return "parent"
	case Child:
		return "child"
	default:
		return "undecided"
	}
}

// Errors returned by Daemonize and Find.
var (
	ErrNoPIDFile         = errors.New("no PID file given")
	ErrAlreadyRunning    = errors.New("daemon already running")
	ErrAlreadyDaemonized = errors.New("daemonize already called in this process")
	ErrNotSupported      = errors.New("daemonizing is not supported on this platform")
	ErrNotRunning        = errors.New("daemon is not running")
)

// ResourceEnvPrefix prefixes the environment variables that carry
// [Options.Resources] to the child.
const ResourceEnvPrefix = "DAEMONIZE_RESOURCE_"

// Options configures the detach. The zero value detaches with stdout and
// stderr discarded, the current argv and environment, and default
// permissions.
type Options struct {
	PIDFilePerm os.FileMode // default 0644
	LogFile     string      // child stdout/stderr; empty discards output
	LogFilePerm os.FileMode // default 0640
	WorkDir     string      // child working directory; empty keeps the parent's
	Umask       int         // set in the child when non-zero; zero inherits the parent's
	Args        []string    // child argv; defaults to os.Args
	Env         []string    // replaces inherited entries with the same key

	// Resources are named values re-established in the child.
	Resources map[string]string
}

// Bootstrap performs at most one detach per process.
type Bootstrap struct {
	opts Options
	d    Detacher

	role     Role
	pidFile  string
	childPID int
	released bool
}

// New returns a Bootstrap backed by the platform detacher.
func New(opts Options) *Bootstrap {
	return NewWithDetacher(opts, newDetacher())
}

// NewWithDetacher returns a Bootstrap that detaches through d.
func NewWithDetacher(opts Options, d Detacher) *Bootstrap {
	return &Bootstrap{opts: opts, d: d}
}

// Setup reports whether this process is in the pre-detach phase. It is
// false in the daemon from the first instruction, and false in the
// parent once Daemonize has run.
func (b *Bootstrap) Setup() bool {
	return b.role == Undecided && !b.d.WasReborn()
}

// Role returns the role decided by Daemonize.
func (b *Bootstrap) Role() Role { return b.role }

// ChildPID returns the daemon's PID in the parent, 0 elsewhere.
func (b *Bootstrap) ChildPID() int { return b.childPID }

// PIDFile returns the absolute PID file path in use once Daemonize has
// run. In the child this is the path the parent sent.
func (b *Bootstrap) PIDFile() string { return b.pidFile }

// Daemonize detaches the daemon and returns this process's role.
//
// In the parent it locks and creates pidFile, starts the child and
// returns [Parent]. A pidFile already locked by a live daemon fails with
// [ErrAlreadyRunning] before anything is started. In the child it takes
// over the lock, writes its own PID and returns [Child]; pidFile is
// ignored there in favour of the path the parent sent.
func (b *Bootstrap) Daemonize(pidFile string) (Role, error) {
	if b.role != Undecided {
		return b.role, ErrAlreadyDaemonized
	}

	if b.d.WasReborn() {
		var spec Spec
		if _, err := b.d.Reborn(&spec); err != nil {
			return Undecided, fmt.Errorf("taking over from parent: %w", err)
		}
		b.role = Child
		b.pidFile = spec.PIDFile
		return Child, nil
	}

	spec, err := b.spec(pidFile)
	if err != nil {
		return Undecided, err
	}
	child, err := b.d.Reborn(&spec)
	if err != nil {
		return Undecided, fmt.Errorf("detaching daemon: %w", err)
	}
	b.role = Parent
	b.pidFile = spec.PIDFile
	b.childPID = child.Pid
	return Parent, nil
}

// spec builds what the parent hands to the child. Paths are made
// absolute because the child may start in another directory.
func (b *Bootstrap) spec(pidFile string) (Spec, error) {
	if strings.TrimSpace(pidFile) == "" {
		return Spec{}, ErrNoPIDFile
	}
	pidPath, err := filepath.Abs(pidFile)
	if err != nil {
		return Spec{}, fmt.Errorf("resolving PID file: %w", err)
	}
	s := Spec{
		PIDFile:     pidPath,
		PIDFilePerm: b.opts.PIDFilePerm,
		LogFilePerm: b.opts.LogFilePerm,
		WorkDir:     b.opts.WorkDir,
		Umask:       b.opts.Umask,
		Args:        b.opts.Args,
	}
	if s.PIDFilePerm == 0 {
		s.PIDFilePerm = 0o644
	}
	if s.LogFilePerm == 0 {
		s.LogFilePerm = 0o640
	}
	if b.opts.LogFile != "" {
		if s.LogFile, err = filepath.Abs(b.opts.LogFile); err != nil {
			return Spec{}, fmt.Errorf("resolving log file: %w", err)
		}
	}
	if len(s.Args) == 0 {
		s.Args = os.Args
	}

	s.Env = b.childEnv(os.Environ())
	return s, nil
}

// childEnv returns base with Options.Env and the resources applied. The
// inherited value of any key set here is dropped, as is every inherited
// resource, so the child sees exactly what this parent passes.
func (b *Bootstrap) childEnv(base []string) []string {
	set := make(map[string]bool, len(b.opts.Env))
	for _, kv := range b.opts.Env {
		k, _, _ := strings.Cut(kv, "=")
		set[k] = true
	}
	env := make([]string, 0, len(base)+len(b.opts.Env)+len(b.opts.Resources))
	for _, kv := range base {
		k, _, _ := strings.Cut(kv, "=")
		if set[k] || strings.HasPrefix(k, ResourceEnvPrefix) {
			continue
		}
		env = append(env, kv)
	}
	env = append(env, b.opts.Env...)
	for name, v := range b.opts.Resources {
		env = append(env, ResourceEnv(name)+"="+v)
	}
	return env
}

// Release tears the daemon down. In the child it unlocks and removes the
// PID file. In the parent, or before Daemonize, it does nothing. Calls
// after the first are no-ops.
func (b *Bootstrap) Release() error {
	if b.role != Child || b.released {
		return nil
	}
	b.released = true
	if err := b.d.Release(); err != nil {
		return fmt.Errorf("releasing PID file: %w", err)
	}
	return nil
}

// Resource returns a named value passed through [Options.Resources]. In
// the child it is read back from the environment the parent built.
func (b *Bootstrap) Resource(name string) string {
	if b.role != Child {
		return b.opts.Resources[name]
	}
	v, _ := LookupResource(name)
	return v
}

// LookupResource reads a resource from the environment of a re-executed
// child. It can be called before a Bootstrap exists.
func LookupResource(name string) (string, bool) {
	return os.LookupEnv(ResourceEnv(name))
}

// ResourceEnv returns the environment variable name that carries the
// resource called name.
func ResourceEnv(name string) string {
	var sb strings.Builder
	sb.WriteString(ResourceEnvPrefix)
	for _, r := range strings.ToUpper(name) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
		} else {
			sb.WriteByte('_')
		}
	}
	return sb.String()
}
