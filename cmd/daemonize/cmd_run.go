package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/steveyegge/daemonize/internal/bootstrap"
	"github.com/steveyegge/daemonize/internal/config"
	"github.com/steveyegge/daemonize/internal/events"
	"github.com/steveyegge/daemonize/internal/telemetry"
)

// Resources passed from the parent to the daemon.
const (
	resourceConfig = "config"
	resourceEvents = "events"
)

// readyTimeout bounds --wait-ready.
const readyTimeout = 10 * time.Second

type runOptions struct {
	pidFile   string
	logFile   string
	setLog    bool
	hold      time.Duration
	waitReady bool
}

func newRunCmd(stdout, stderr io.Writer) *cobra.Command {
	var o runOptions
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Detach the demo daemon",
		Long: `Detach a daemon that holds the PID file until it is stopped.

Prints "Setup" before detaching, then "Parent" in this process. The daemon
prints "Child" to its log file and waits for --hold to elapse or for
SIGINT/SIGTERM, then removes the PID file. A second run against a PID
file that is still held fails without starting anything.`,
		Example: `  daemonize run
  daemonize run --pid-file /tmp/demo.pid --log-file /tmp/demo.log --hold 1m
  daemonize run --wait-ready`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			o.setLog = cmd.Flags().Changed("log-file")
			if doRun(o, stdout, stderr) != 0 {
				return errExit
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&o.pidFile, "pid-file", "", "PID file path (default from config, else "+config.DefaultPIDFile+")")
	cmd.Flags().StringVar(&o.logFile, "log-file", "", "daemon stdout/stderr; empty discards output")
	cmd.Flags().DurationVar(&o.hold, "hold", 0, "how long the daemon stays up; 0 waits for a signal")
	cmd.Flags().BoolVar(&o.waitReady, "wait-ready", false, "wait until the daemon has written its PID")
	return cmd
}

// doRun detaches the daemon. The same function runs again in the
// re-executed daemon, where the bootstrap routes it to the child side.
func doRun(o runOptions, stdout, stderr io.Writer) int {
	cfgPath := configPath()
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(stderr, "daemonize run: %v\n", err) //nolint:errcheck // best-effort stderr
		return 1
	}
	d := cfg.Daemon
	if o.pidFile != "" {
		d.PIDFile = o.pidFile
	}
	if o.setLog {
		d.LogFile = o.logFile
	}

	dcfg := &config.Config{Daemon: d}
	pidPath, err := resolvePIDFile(nil, dcfg)
	if err != nil {
		fmt.Fprintf(stderr, "daemonize run: %v\n", err) //nolint:errcheck // best-effort stderr
		return 1
	}
	absCfg, err := filepath.Abs(cfgPath)
	if err != nil {
		absCfg = cfgPath
	}
	eventsPath := eventsPathFor(dcfg, pidPath)
	if p, ok := bootstrap.LookupResource(resourceEvents); ok {
		eventsPath = p
	}

	tel := telemetry.Settings{
		MetricsURL: cfg.Telemetry.MetricsURL,
		LogsURL:    cfg.Telemetry.LogsURL,
		Version:    version,
	}
	ctx := context.Background()
	shutdown, err := telemetry.Init(ctx, tel)
	if err != nil {
		fmt.Fprintf(stderr, "daemonize run: telemetry: %v\n", err) //nolint:errcheck // best-effort stderr
		shutdown = func(context.Context) error { return nil }
	}
	defer shutdown(ctx) //nolint:errcheck // best-effort flush

	b := bootstrap.New(bootstrap.Options{
		PIDFilePerm: d.PIDMode(),
		LogFile:     d.LogFile,
		LogFilePerm: d.LogMode(),
		WorkDir:     d.WorkDir,
		Umask:       d.Umask,
		Env:         telemetry.DaemonEnv(tel, pidPath),
		Resources: map[string]string{
			resourceConfig: absCfg,
			resourceEvents: eventsPath,
		},
	})

	rec := openRecorder(eventsPath, stderr)
	defer closeRecorder(rec)

	var started time.Time
	role, err := b.Run(ctx, pidPath, bootstrap.Handlers{
		Setup: func() error {
			fmt.Fprintln(stdout, "Setup") //nolint:errcheck // best-effort stdout
			rec.Record(events.Event{Type: events.DaemonSetup, Actor: eventActor(bootstrap.Parent), Subject: pidPath})
			return nil
		},
		Parent: func(childPID int) error {
			telemetry.RecordBootstrap(ctx, bootstrap.Parent.String(), pidPath, nil)
			if o.waitReady {
				wctx, cancel := context.WithTimeout(ctx, readyTimeout)
				defer cancel()
				if err := b.WaitReady(wctx); err != nil {
					return err
				}
			}
			rec.Record(events.Event{
				Type:    events.DaemonParent,
				Actor:   eventActor(bootstrap.Parent),
				Subject: pidPath,
				Message: fmt.Sprintf("daemon PID %d", childPID),
			})
			fmt.Fprintln(stdout, "Parent") //nolint:errcheck // best-effort stdout
			return nil
		},
		Child: func(ctx context.Context, b *bootstrap.Bootstrap) error {
			started = time.Now()
			telemetry.RecordBootstrap(ctx, bootstrap.Child.String(), b.PIDFile(), nil)
			rec.Record(events.Event{
				Type:    events.DaemonStarted,
				Actor:   eventActor(bootstrap.Child),
				Subject: b.PIDFile(),
				Message: fmt.Sprintf("PID %d", os.Getpid()),
			})
			fmt.Fprintln(stdout, "Child") //nolint:errcheck // best-effort stdout
			return hold(ctx, o.hold)
		},
	})

	if role == bootstrap.Child {
		telemetry.RecordRelease(ctx, b.PIDFile(), time.Since(started), err)
		rec.Record(events.Event{
			Type:    events.DaemonReleased,
			Actor:   eventActor(role),
			Subject: b.PIDFile(),
			Message: errMessage(err),
		})
	} else if role == bootstrap.Undecided {
		telemetry.RecordBootstrap(ctx, role.String(), pidPath, err)
	}
	if err != nil {
		fmt.Fprintf(stderr, "daemonize run: %v\n", err) //nolint:errcheck // best-effort stderr
		return 1
	}
	return 0
}

// hold keeps the daemon up until d elapses or it is told to stop.
// A stop request is a normal exit.
func hold(ctx context.Context, d time.Duration) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	if d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}
	<-ctx.Done()
	return nil
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
