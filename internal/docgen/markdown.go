package docgen

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/invopop/jsonschema"
)

// RenderMarkdown writes a markdown reference from a JSON Schema: one
// section per $defs entry, root type first, each with a field table.
func RenderMarkdown(w io.Writer, s *jsonschema.Schema) error {
	m := &mdWriter{w: w}
	title := s.Title
	if title == "" {
		title = "Configuration Reference"
	}
	m.printf("# %s\n\n", title)
	if s.Description != "" {
		m.printf("%s\n\n", s.Description)
	}
	m.printf(generatedNotice)

	root := refName(s.Ref)
	names := make([]string, 0, len(s.Definitions))
	for name := range s.Definitions {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if names[i] == root || names[j] == root {
			return names[i] == root
		}
		return names[i] < names[j]
	})

	for _, name := range names {
		def := s.Definitions[name]
		if def == nil || def.Properties == nil {
			continue
		}
		section := name
		if name != root {
			section = "[" + tableName(s.Definitions[root], name) + "]"
		}
		m.printf("## %s\n\n", section)
		if def.Description != "" {
			m.printf("%s\n\n", def.Description)
		}
		m.printf("| Key | Type | Default | Description |\n")
		m.printf("|-----|------|---------|-------------|\n")
		for pair := def.Properties.Oldest(); pair != nil; pair = pair.Next() {
			m.printf("| `%s` | %s | %s | %s |\n",
				pair.Key, schemaTypeString(pair.Value), formatDefault(pair.Value), formatDescription(pair.Value))
		}
		m.printf("\n")
	}
	return m.err
}

// tableName returns the TOML table key under which root refers to the
// definition called def, falling back to the lower-cased type name.
func tableName(root *jsonschema.Schema, def string) string {
	if root != nil && root.Properties != nil {
		for pair := root.Properties.Oldest(); pair != nil; pair = pair.Next() {
			if refName(pair.Value.Ref) == def {
				return pair.Key
			}
		}
	}
	return strings.ToLower(def)
}

// schemaTypeString returns a human-readable type string for a property.
func schemaTypeString(prop *jsonschema.Schema) string {
	if prop.Ref != "" {
		return refName(prop.Ref)
	}
	switch prop.Type {
	case "array":
		if prop.Items != nil {
			return "[]" + schemaTypeString(prop.Items)
		}
		return "array"
	case "":
		return "any"
	default:
		return prop.Type
	}
}

// refName extracts the type name from a $ref path like "#/$defs/Daemon".
func refName(ref string) string {
	if ref == "" {
		return ""
	}
	return ref[strings.LastIndex(ref, "/")+1:]
}

// formatDefault returns the default value as a string, or empty.
func formatDefault(prop *jsonschema.Schema) string {
	if prop.Default == nil {
		return ""
	}
	return fmt.Sprintf("`%v`", prop.Default)
}

// formatDescription flattens a description into one table cell.
func formatDescription(prop *jsonschema.Schema) string {
	desc := strings.ReplaceAll(prop.Description, "\n", " ")
	return strings.ReplaceAll(desc, "|", "\\|")
}
