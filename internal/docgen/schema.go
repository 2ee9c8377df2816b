// Package docgen generates the JSON Schema for daemonize.toml and
// markdown reference pages for the config and the CLI.
package docgen

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/invopop/jsonschema"
	"github.com/steveyegge/daemonize/internal/config"
)

const modulePath = "github.com/steveyegge/daemonize"

// ModuleRoot finds the repo root by walking up from the current directory
// looking for go.mod. Returns the absolute path.
func ModuleRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting working directory: %w", err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("go.mod not found in any parent of %s", dir)
		}
		dir = parent
	}
}

// newReflector creates a jsonschema.Reflector that names fields by their
// TOML tags and takes descriptions from Go doc comments.
//
// AddGoComments joins walked directories onto modulePath, so it runs with
// the module root as cwd. Only the config package is walked.
func newReflector() (*jsonschema.Reflector, error) {
	root, err := ModuleRoot()
	if err != nil {
		return nil, err
	}
	orig, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting working directory: %w", err)
	}
	if err := os.Chdir(root); err != nil {
		return nil, fmt.Errorf("chdir to module root: %w", err)
	}
	defer func() { _ = os.Chdir(orig) }()

	// Every key has a default, so nothing is required.
	r := &jsonschema.Reflector{
		FieldNameTag:               "toml",
		RequiredFromJSONSchemaTags: true,
	}
	if err := r.AddGoComments(modulePath, "./internal/config"); err != nil {
		return nil, fmt.Errorf("extracting Go comments: %w", err)
	}
	return r, nil
}

// GenerateConfigSchema produces a JSON Schema for daemonize.toml with
// the built-in defaults filled in.
func GenerateConfigSchema() (*jsonschema.Schema, error) {
	r, err := newReflector()
	if err != nil {
		return nil, err
	}
	s := r.Reflect(&config.Config{})
	s.Title = "daemonize configuration"
	s.Description = "Schema for daemonize.toml. Every key is optional; command-line flags take precedence."
	applyDefaults(s, config.Default())
	return s, nil
}

// applyDefaults copies the built-in defaults into the Daemon definition.
func applyDefaults(s *jsonschema.Schema, c config.Config) {
	def, ok := s.Definitions["Daemon"]
	if !ok || def.Properties == nil {
		return
	}
	for key, v := range map[string]any{
		"pid_file":      c.Daemon.PIDFile,
		"pid_file_perm": fmt.Sprintf("0o%o", c.Daemon.PIDFilePerm),
		"log_file":      c.Daemon.LogFile,
		"log_file_perm": fmt.Sprintf("0o%o", c.Daemon.LogFilePerm),
		"umask":         fmt.Sprintf("0o%o", c.Daemon.Umask),
	} {
		if prop, ok := def.Properties.Get(key); ok && prop != nil {
			prop.Default = v
		}
	}
}
