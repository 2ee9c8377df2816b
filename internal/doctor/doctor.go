package doctor

import (
	"fmt"
	"io"
	"strings"
)

// Report counts check outcomes. A check fixed by --fix counts as both
// Fixed and Passed.
type Report struct {
	Passed int
	Warned int
	Failed int
	Fixed  int
}

// Healthy reports whether no check ended in an error.
func (r *Report) Healthy() bool { return r.Failed == 0 }

func (r *Report) add(res *CheckResult) {
	if res.Fixed {
		r.Fixed++
	}
	switch res.Status {
	case StatusOK:
		r.Passed++
	case StatusWarning:
		r.Warned++
	case StatusError:
		r.Failed++
	}
}

// Doctor runs a fixed list of checks in order.
type Doctor struct {
	checks []Check
}

// New returns a Doctor with the daemon checks: config, PID directory,
// stale PID file, log file and event log.
func New() *Doctor {
	return NewWith(
		&ConfigCheck{},
		&PIDDirCheck{},
		&StalePIDCheck{},
		&LogFileCheck{},
		&EventLogCheck{},
	)
}

// NewWith returns a Doctor running checks in the given order.
func NewWith(checks ...Check) *Doctor {
	return &Doctor{checks: checks}
}

// Run executes every check and streams one line per result to w. With
// fix set, a failing check that can fix itself is fixed and run again.
func (d *Doctor) Run(ctx *CheckContext, w io.Writer, fix bool) *Report {
	r := &Report{}
	for _, c := range d.checks {
		res := c.Run(ctx)
		if fix && res.Status != StatusOK && c.CanFix() && c.Fix(ctx) == nil {
			res = c.Run(ctx)
			res.Fixed = res.Status == StatusOK
		}
		printResult(w, res, ctx.Verbose)
		r.add(res)
	}
	return r
}

var statusIcon = map[CheckStatus]string{
	StatusOK:      "✓",
	StatusWarning: "⚠",
	StatusError:   "✗",
}

func printResult(w io.Writer, r *CheckResult, verbose bool) {
	line := fmt.Sprintf("  %s %s: %s", statusIcon[r.Status], r.Name, r.Message)
	if r.Fixed {
		line += " (fixed)"
	}
	fmt.Fprintln(w, line) //nolint:errcheck // best-effort output
	if verbose {
		for _, d := range r.Details {
			fmt.Fprintf(w, "      %s\n", d) //nolint:errcheck // best-effort output
		}
	}
	if r.Status != StatusOK && r.FixHint != "" {
		fmt.Fprintf(w, "      hint: %s\n", r.FixHint) //nolint:errcheck // best-effort output
	}
}

// PrintSummary writes the totals line, e.g. "4 passed, 1 warnings".
// Passed is always shown; the other counts only when non-zero.
func PrintSummary(w io.Writer, r *Report) {
	parts := []string{fmt.Sprintf("%d passed", r.Passed)}
	for _, c := range []struct {
		n     int
		label string
	}{
		{r.Warned, "warnings"},
		{r.Failed, "failed"},
		{r.Fixed, "fixed"},
	} {
		if c.n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", c.n, c.label))
		}
	}
	fmt.Fprintf(w, "\n%s\n", strings.Join(parts, ", ")) //nolint:errcheck // best-effort output
}
