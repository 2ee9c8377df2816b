package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/steveyegge/daemonize/internal/bootstrap"
	"github.com/steveyegge/daemonize/internal/events"
	"github.com/steveyegge/daemonize/internal/pidfile"
	"github.com/steveyegge/daemonize/internal/telemetry"
)

func newStopCmd(stdout, stderr io.Writer) *cobra.Command {
	var wait time.Duration
	cmd := &cobra.Command{
		Use:   "stop [pid-file]",
		Short: "Stop the running daemon",
		Long: `Ask the daemon recorded in the PID file to exit. With --wait, block
until it has released the PID file.`,
		Example: `  daemonize stop
  daemonize stop /tmp/demo.pid --wait 10s`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if doStop(args, wait, stdout, stderr) != 0 {
				return errExit
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&wait, "wait", 0, "wait up to this long for the PID file to be released")
	return cmd
}

func doStop(args []string, wait time.Duration, stdout, stderr io.Writer) int {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(stderr, "daemonize stop: %v\n", err) //nolint:errcheck // best-effort stderr
		return 1
	}
	path, err := resolvePIDFile(args, cfg)
	if err != nil {
		fmt.Fprintf(stderr, "daemonize stop: %v\n", err) //nolint:errcheck // best-effort stderr
		return 1
	}

	proc, err := bootstrap.Find(path)
	if errors.Is(err, bootstrap.ErrNotRunning) {
		fmt.Fprintln(stdout, "Daemon is not running") //nolint:errcheck // best-effort stdout
		return 1
	}
	if err != nil {
		fmt.Fprintf(stderr, "daemonize stop: %v\n", err) //nolint:errcheck // best-effort stderr
		return 1
	}

	ctx := context.Background()
	err = terminateProcess(proc)
	telemetry.RecordStop(ctx, path, proc.Pid, err)
	if err != nil {
		fmt.Fprintf(stderr, "daemonize stop: signalling PID %d: %v\n", proc.Pid, err) //nolint:errcheck // best-effort stderr
		return 1
	}

	rec := openRecorder(eventsPathFor(cfg, path), stderr)
	defer closeRecorder(rec)
	rec.Record(events.Event{
		Type:    events.DaemonStopped,
		Actor:   eventActor(bootstrap.Parent),
		Subject: path,
		Message: fmt.Sprintf("PID %d", proc.Pid),
	})

	if wait > 0 {
		wctx, cancel := context.WithTimeout(ctx, wait)
		defer cancel()
		if err := pidfile.WaitReleased(wctx, path); err != nil {
			fmt.Fprintf(stderr, "daemonize stop: %v\n", err) //nolint:errcheck // best-effort stderr
			return 1
		}
	}
	fmt.Fprintf(stdout, "Daemon stopped (PID %d)\n", proc.Pid) //nolint:errcheck // best-effort stdout
	return 0
}
