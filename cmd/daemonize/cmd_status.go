package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/steveyegge/daemonize/internal/events"
	"github.com/steveyegge/daemonize/internal/fsys"
	"github.com/steveyegge/daemonize/internal/pidfile"
	"github.com/steveyegge/daemonize/internal/telemetry"
)

func newStatusCmd(stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "status [pid-file]",
		Short: "Report whether the daemon is running",
		Long: `Report whether a daemon holds the PID file. Exits 0 when it is running
and 1 when it is not. A PID file left behind by a dead daemon is removed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if doStatus(args, stdout, stderr) != 0 {
				return errExit
			}
			return nil
		},
	}
}

func doStatus(args []string, stdout, stderr io.Writer) int {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(stderr, "daemonize status: %v\n", err) //nolint:errcheck // best-effort stderr
		return 1
	}
	path, err := resolvePIDFile(args, cfg)
	if err != nil {
		fmt.Fprintf(stderr, "daemonize status: %v\n", err) //nolint:errcheck // best-effort stderr
		return 1
	}

	st, err := pidfile.Probe(fsys.OSFS{}, path)
	if err != nil {
		fmt.Fprintf(stderr, "daemonize status: %v\n", err) //nolint:errcheck // best-effort stderr
		return 1
	}
	telemetry.RecordProbe(context.Background(), path, st.Running())

	if !st.Running() {
		if st.Exists {
			if err := pidfile.RemoveStale(fsys.OSFS{}, path); err != nil {
				fmt.Fprintf(stderr, "daemonize status: %v\n", err) //nolint:errcheck // best-effort stderr
			}
		}
		fmt.Fprintln(stdout, "Daemon is not running") //nolint:errcheck // best-effort stdout
		return 1
	}

	uptime := "unknown"
	if started := lastStarted(eventsPathFor(cfg, path), path); !started.IsZero() {
		uptime = time.Since(started).Truncate(time.Second).String()
	}
	fmt.Fprintf(stdout, "Daemon is running (PID %d, uptime %s)\n", st.PID, uptime) //nolint:errcheck // best-effort stdout
	return 0
}

// lastStarted returns the time of the most recent daemon.started event
// for pidPath, or zero when there is none.
func lastStarted(eventsPath, pidPath string) time.Time {
	e, ok, err := events.Last(eventsPath, events.Filter{Type: events.DaemonStarted, Subject: pidPath})
	if err != nil || !ok {
		return time.Time{}
	}
	return e.Ts
}
