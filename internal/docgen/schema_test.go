package docgen

import (
	"encoding/json"
	"testing"
)

// defProperties extracts the properties map for a named $defs entry.
func defProperties(t *testing.T, raw map[string]interface{}, defName string) map[string]interface{} {
	t.Helper()
	defs, ok := raw["$defs"].(map[string]interface{})
	if !ok {
		t.Fatal("no $defs")
	}
	def, ok := defs[defName].(map[string]interface{})
	if !ok {
		t.Fatalf("no %s definition in $defs", defName)
	}
	props, ok := def["properties"].(map[string]interface{})
	if !ok {
		t.Fatalf("%s has no properties", defName)
	}
	return props
}

func configSchemaJSON(t *testing.T) map[string]interface{} {
	t.Helper()
	s, err := GenerateConfigSchema()
	if err != nil {
		t.Fatalf("GenerateConfigSchema: %v", err)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return raw
}

func TestGenerateConfigSchema(t *testing.T) {
	raw := configSchemaJSON(t)

	props := defProperties(t, raw, "Config")
	for _, expected := range []string{"daemon", "telemetry"} {
		if _, ok := props[expected]; !ok {
			t.Errorf("missing Config property %q", expected)
		}
	}

	daemon := defProperties(t, raw, "Daemon")
	for _, expected := range []string{"pid_file", "pid_file_perm", "log_file", "log_file_perm", "work_dir", "umask", "events_file"} {
		if _, ok := daemon[expected]; !ok {
			t.Errorf("missing Daemon property %q", expected)
		}
	}
	for _, bad := range []string{"PIDFile", "LogFile", "Umask"} {
		if _, ok := daemon[bad]; ok {
			t.Errorf("found Go-style property %q, expected TOML name", bad)
		}
	}
}

func TestConfigSchemaDescriptions(t *testing.T) {
	daemon := defProperties(t, configSchemaJSON(t), "Daemon")
	pid, ok := daemon["pid_file"].(map[string]interface{})
	if !ok {
		t.Fatal("pid_file property not a map")
	}
	if desc, _ := pid["description"].(string); desc == "" {
		t.Error("pid_file has no description; doc comments not extracted")
	}
}

func TestConfigSchemaDefaults(t *testing.T) {
	daemon := defProperties(t, configSchemaJSON(t), "Daemon")
	for key, want := range map[string]string{
		"pid_file":      "my.pid.file",
		"pid_file_perm": "0o644",
		"log_file_perm": "0o640",
		"umask":         "0o27",
	} {
		prop, _ := daemon[key].(map[string]interface{})
		if got := prop["default"]; got != want {
			t.Errorf("%s default = %v, want %q", key, got, want)
		}
	}
}
