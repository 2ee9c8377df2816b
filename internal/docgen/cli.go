package docgen

import (
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// RenderCLIMarkdown writes a CLI reference by walking a cobra command
// tree. Hidden commands are skipped.
func RenderCLIMarkdown(w io.Writer, root *cobra.Command) error {
	m := &mdWriter{w: w}
	m.printf("# CLI Reference\n\n")
	m.printf(generatedNotice)

	if global := visibleFlags(root.PersistentFlags()); len(global) > 0 {
		m.printf("## Global Flags\n\n")
		writeFlagTable(m, global)
	}
	walkCommands(m, root)
	return m.err
}

// WriteCLIMarkdown writes the CLI reference to path.
func WriteCLIMarkdown(path string, root *cobra.Command) error {
	return writeAtomic(path, func(w io.Writer) error { return RenderCLIMarkdown(w, root) })
}

func walkCommands(m *mdWriter, cmd *cobra.Command) {
	renderCommand(m, cmd)
	for _, child := range cmd.Commands() {
		if !child.Hidden {
			walkCommands(m, child)
		}
	}
}

func renderCommand(m *mdWriter, cmd *cobra.Command) {
	m.printf("## %s\n\n", cmd.CommandPath())

	desc := cmd.Long
	if desc == "" {
		desc = cmd.Short
	}
	if desc != "" {
		m.printf("%s\n\n", strings.TrimSpace(desc))
	}
	m.printf("```\n%s\n```\n\n", cmd.UseLine())
	if cmd.Example != "" {
		m.printf("**Example:**\n\n```\n%s\n```\n\n", strings.TrimSpace(cmd.Example))
	}
	if flags := visibleFlags(cmd.LocalNonPersistentFlags()); len(flags) > 0 {
		writeFlagTable(m, flags)
	}

	var children []*cobra.Command
	for _, c := range cmd.Commands() {
		if !c.Hidden {
			children = append(children, c)
		}
	}
	if len(children) == 0 {
		return
	}
	m.printf("| Subcommand | Description |\n")
	m.printf("|------------|-------------|\n")
	for _, c := range children {
		anchor := strings.ToLower(strings.ReplaceAll(c.CommandPath(), " ", "-"))
		m.printf("| [%s](#%s) | %s |\n", c.CommandPath(), anchor, c.Short)
	}
	m.printf("\n")
}

// flagInfo holds rendered flag metadata.
type flagInfo struct {
	Name    string
	Type    string
	Default string
	Desc    string
}

func visibleFlags(fs *pflag.FlagSet) []flagInfo {
	var flags []flagInfo
	fs.VisitAll(func(f *pflag.Flag) {
		if !f.Hidden {
			flags = append(flags, newFlagInfo(f))
		}
	})
	return flags
}

// newFlagInfo extracts display info from a pflag.Flag.
func newFlagInfo(f *pflag.Flag) flagInfo {
	name := "`--" + f.Name + "`"
	if f.Shorthand != "" {
		name = "`-" + f.Shorthand + "`, " + name
	}
	defVal := ""
	if !isZeroDefault(f.DefValue, f.Value.Type()) {
		defVal = "`" + f.DefValue + "`"
	}
	return flagInfo{
		Name:    name,
		Type:    f.Value.Type(),
		Default: defVal,
		Desc:    strings.ReplaceAll(f.Usage, "|", "\\|"),
	}
}

// isZeroDefault returns true if the default value is the zero value for its type.
func isZeroDefault(val, typ string) bool {
	switch typ {
	case "bool":
		return val == "false"
	case "int", "int64", "uint32", "float64":
		return val == "0"
	case "duration":
		return val == "0s"
	case "stringSlice", "stringArray":
		return val == "[]"
	default:
		return val == ""
	}
}

func writeFlagTable(m *mdWriter, flags []flagInfo) {
	m.printf("| Flag | Type | Default | Description |\n")
	m.printf("|------|------|---------|-------------|\n")
	for _, f := range flags {
		m.printf("| %s | %s | %s | %s |\n", f.Name, f.Type, f.Default, f.Desc)
	}
	m.printf("\n")
}
