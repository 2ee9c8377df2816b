// Package config handles loading and parsing daemonize.toml files.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/steveyegge/daemonize/internal/fsys"
)

// EnvConfigPath overrides [DefaultFileName] as the config location.
const EnvConfigPath = "DAEMONIZE_CONFIG"

// DefaultFileName is the config file looked up in the working directory.
const DefaultFileName = "daemonize.toml"

// DefaultPIDFile is the PID file used when neither a flag nor the config
// names one.
const DefaultPIDFile = "my.pid.file"

// Config is the top-level daemonize configuration.
type Config struct {
	Daemon    Daemon    `toml:"daemon"`
	Telemetry Telemetry `toml:"telemetry,omitempty"`
}

// Daemon holds the settings handed to the bootstrap and, through it, to
// the detached child.
type Daemon struct {
	// PIDFile is the path of the PID file the daemon holds while running.
	PIDFile string `toml:"pid_file,omitempty"`
	// PIDFilePerm is the permission for a newly created PID file.
	PIDFilePerm int `toml:"pid_file_perm,omitempty"`
	// LogFile receives the daemon's stdout and stderr. Empty discards them.
	LogFile string `toml:"log_file,omitempty"`
	// LogFilePerm is the permission for a newly created log file.
	LogFilePerm int `toml:"log_file_perm,omitempty"`
	// WorkDir is the daemon's working directory. Empty keeps the caller's.
	WorkDir string `toml:"work_dir,omitempty"`
	// Umask is set in the daemon after detaching. Set it to 0 to keep
	// the umask inherited from the invoking shell; the daemon cannot be
	// given a umask of 0 itself.
	Umask int `toml:"umask"`
	// EventsFile is the JSONL lifecycle log. Empty derives it from PIDFile.
	EventsFile string `toml:"events_file,omitempty"`
}

// Telemetry holds OTLP/HTTP endpoints. Empty URLs disable the signal.
type Telemetry struct {
	// MetricsURL is the OTLP/HTTP metrics endpoint, e.g.
	// http://localhost:4318/v1/metrics.
	MetricsURL string `toml:"metrics_url,omitempty"`
	// LogsURL is the OTLP/HTTP logs endpoint.
	LogsURL string `toml:"logs_url,omitempty"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Daemon: Daemon{
			PIDFile:     DefaultPIDFile,
			PIDFilePerm: 0o644,
			LogFile:     "daemonize.log",
			LogFilePerm: 0o640,
			Umask:       0o027,
		},
	}
}

// DefaultPath returns the config path to use when --config is not given.
func DefaultPath() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	return DefaultFileName
}

// Marshal encodes a Config to TOML bytes.
func (c *Config) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.Indent = ""
	if err := enc.Encode(c); err != nil {
		return nil, fmt.Errorf("marshaling config: %w", err)
	}
	return buf.Bytes(), nil
}

// Load reads and parses the config file at path. Keys absent from the
// file keep their [Default] values.
func Load(fs fsys.FS, path string) (*Config, error) {
	data, err := fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading config %q: %w", path, err)
	}
	return Parse(data)
}

// LoadOrDefault is [Load] that treats a missing file as the defaults.
func LoadOrDefault(fs fsys.FS, path string) (*Config, error) {
	cfg, err := Load(fs, path)
	if errors.Is(err, os.ErrNotExist) {
		d := Default()
		return &d, nil
	}
	return cfg, err
}

// Parse decodes TOML data on top of [Default] and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if undec := md.Undecoded(); len(undec) > 0 {
		return nil, fmt.Errorf("parsing config: unknown key %q", undec[0].String())
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field ranges.
func (c *Config) Validate() error {
	d := c.Daemon
	if d.PIDFile == "" {
		return fmt.Errorf("daemon.pid_file must not be empty")
	}
	for name, v := range map[string]int{
		"daemon.pid_file_perm": d.PIDFilePerm,
		"daemon.log_file_perm": d.LogFilePerm,
		"daemon.umask":         d.Umask,
	} {
		if v < 0 || v > 0o777 {
			return fmt.Errorf("%s out of range: %#o", name, v)
		}
	}
	return nil
}

// EventsPath returns the lifecycle log path, derived from the PID file
// when not set explicitly.
func (d Daemon) EventsPath() string {
	if d.EventsFile != "" {
		return d.EventsFile
	}
	return d.PIDFile + ".events.jsonl"
}

// PIDMode returns PIDFilePerm as a file mode.
func (d Daemon) PIDMode() os.FileMode {
	return os.FileMode(d.PIDFilePerm)
}

// LogMode returns LogFilePerm as a file mode.
func (d Daemon) LogMode() os.FileMode {
	return os.FileMode(d.LogFilePerm)
}
