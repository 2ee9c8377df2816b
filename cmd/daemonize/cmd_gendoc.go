package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/steveyegge/daemonize/internal/docgen"
)

// newGenDocCmd creates the hidden "daemonize gen-doc" subcommand, which
// writes docs/reference/cli.md from the real command tree. Run it from
// the repository root.
func newGenDocCmd(stdout, stderr io.Writer, root *cobra.Command) *cobra.Command {
	return &cobra.Command{
		Use:    "gen-doc",
		Short:  "Generate CLI reference documentation",
		Hidden: true,
		Args:   cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if _, err := os.Stat("go.mod"); err != nil {
				fmt.Fprintf(stderr, "daemonize gen-doc: must run from repository root (go.mod not found)\n") //nolint:errcheck // best-effort stderr
				return errExit
			}
			if err := os.MkdirAll("docs/reference", 0o755); err != nil {
				fmt.Fprintf(stderr, "daemonize gen-doc: %v\n", err) //nolint:errcheck // best-effort stderr
				return errExit
			}
			const outPath = "docs/reference/cli.md"
			if err := docgen.WriteCLIMarkdown(outPath, root); err != nil {
				fmt.Fprintf(stderr, "daemonize gen-doc: %v\n", err) //nolint:errcheck // best-effort stderr
				return errExit
			}
			fmt.Fprintf(stdout, "Generated: %s\n", outPath) //nolint:errcheck // best-effort stdout
			return nil
		},
	}
}
