// daemonize detaches a demo daemon behind a PID file and operates it:
// status, stop, wait and doctor.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/steveyegge/daemonize/internal/bootstrap"
	"github.com/steveyegge/daemonize/internal/config"
	"github.com/steveyegge/daemonize/internal/events"
	"github.com/steveyegge/daemonize/internal/fsys"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// errExit is a sentinel error returned by cobra RunE functions to signal
// non-zero exit. The command has already written its own error to stderr.
var errExit = errors.New("exit")

// configFlag holds the value of the --config persistent flag.
var configFlag string

// run executes the daemonize CLI with the given args, writing output to
// stdout and errors to stderr. Returns the exit code.
func run(args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	if args == nil {
		args = []string{}
	}
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.Execute(); err != nil {
		return 1
	}
	return 0
}

// newRootCmd creates the root cobra command with all subcommands.
func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "daemonize",
		Short:         "Detach a daemon behind a PID file",
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			fmt.Fprintf(stderr, "daemonize: unknown command %q\n", args[0]) //nolint:errcheck // best-effort stderr
			return errExit
		},
	}
	root.PersistentFlags().StringVar(&configFlag, "config", "",
		"path to daemonize.toml (default: $"+config.EnvConfigPath+" or ./"+config.DefaultFileName+")")
	root.CompletionOptions.DisableDefaultCmd = true
	root.AddCommand(
		newRunCmd(stdout, stderr),
		newStatusCmd(stdout, stderr),
		newStopCmd(stdout, stderr),
		newWaitCmd(stdout, stderr),
		newDoctorCmd(stdout, stderr),
		newVersionCmd(stdout),
	)
	root.AddCommand(newGenDocCmd(stdout, stderr, root))
	return root
}

// configPath returns the config file to load. A re-executed daemon uses
// the absolute path its parent resolved, since it may start elsewhere.
func configPath() string {
	if p, ok := bootstrap.LookupResource(resourceConfig); ok {
		return p
	}
	if configFlag != "" {
		return configFlag
	}
	return config.DefaultPath()
}

// loadConfig loads the config file, falling back to defaults when it
// does not exist.
func loadConfig() (*config.Config, error) {
	return config.LoadOrDefault(fsys.OSFS{}, configPath())
}

// resolvePIDFile picks the PID file from a positional argument or the
// config and makes it absolute, matching the path the bootstrap records.
func resolvePIDFile(args []string, cfg *config.Config) (string, error) {
	p := cfg.Daemon.PIDFile
	if len(args) > 0 && args[0] != "" {
		p = args[0]
	}
	if p == "" {
		return "", bootstrap.ErrNoPIDFile
	}
	return filepath.Abs(p)
}

// eventsPathFor returns the absolute event log path for a PID file.
func eventsPathFor(cfg *config.Config, pidPath string) string {
	d := cfg.Daemon
	d.PIDFile = pidPath
	p, err := filepath.Abs(d.EventsPath())
	if err != nil {
		return d.EventsPath()
	}
	return p
}

// openRecorder returns a Recorder appending to path. Returns
// events.Discard on any error: commands always get a valid recorder.
func openRecorder(path string, stderr io.Writer) events.Recorder {
	rec, err := events.NewFileRecorder(path, stderr)
	if err != nil {
		return events.Discard
	}
	return rec
}

// closeRecorder closes rec when it holds a file.
func closeRecorder(rec events.Recorder) {
	if c, ok := rec.(io.Closer); ok {
		c.Close() //nolint:errcheck // best-effort cleanup
	}
}

// eventActor names who caused an event: the daemon itself, or the
// invoking user.
func eventActor(role bootstrap.Role) string {
	if role == bootstrap.Child {
		return "daemon"
	}
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "human"
}
