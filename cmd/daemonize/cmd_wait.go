package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/steveyegge/daemonize/internal/pidfile"
)

func newWaitCmd(stdout, stderr io.Writer) *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "wait [pid-file]",
		Short: "Block until the daemon releases its PID file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if doWait(args, timeout, stdout, stderr) != 0 {
				return errExit
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "give up after this long; 0 waits forever")
	return cmd
}

func doWait(args []string, timeout time.Duration, stdout, stderr io.Writer) int {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(stderr, "daemonize wait: %v\n", err) //nolint:errcheck // best-effort stderr
		return 1
	}
	path, err := resolvePIDFile(args, cfg)
	if err != nil {
		fmt.Fprintf(stderr, "daemonize wait: %v\n", err) //nolint:errcheck // best-effort stderr
		return 1
	}

	ctx := context.Background()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := pidfile.WaitReleased(ctx, path); err != nil {
		fmt.Fprintf(stderr, "daemonize wait: %v\n", err) //nolint:errcheck // best-effort stderr
		return 1
	}
	fmt.Fprintf(stdout, "%s released\n", path) //nolint:errcheck // best-effort stdout
	return 0
}
