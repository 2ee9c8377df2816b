package main

import (
	"io"

	"github.com/spf13/cobra"
	"github.com/steveyegge/daemonize/internal/config"
	"github.com/steveyegge/daemonize/internal/doctor"
	"github.com/steveyegge/daemonize/internal/fsys"
)

func newDoctorCmd(stdout, stderr io.Writer) *cobra.Command {
	var fix, verbose bool
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check daemon file health",
		Long: `Run diagnostic checks on the files a daemon depends on.

Checks that the config parses, the PID file directory is writable, no
stale PID file is left behind, the log file can be appended to, and the
event log is readable. Use --fix to create a missing PID directory and
remove stale PID files.`,
		Example: `  daemonize doctor
  daemonize doctor --fix
  daemonize doctor --verbose`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if doDoctor(fix, verbose, stdout, stderr) != 0 {
				return errExit
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&fix, "fix", false, "attempt to fix issues automatically")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "show extra diagnostic details")
	return cmd
}

// doDoctor runs all health checks and prints results. A broken config
// is reported by its own check; the rest run against defaults.
func doDoctor(fix, verbose bool, stdout, _ io.Writer) int {
	cfg, err := loadConfig()
	if err != nil {
		def := config.Default()
		cfg = &def
	}
	ctx := &doctor.CheckContext{
		ConfigPath: configPath(),
		Config:     cfg,
		FS:         fsys.OSFS{},
		Verbose:    verbose,
	}
	r := doctor.New().Run(ctx, stdout, fix)
	doctor.PrintSummary(stdout, r)
	if !r.Healthy() {
		return 1
	}
	return 0
}
