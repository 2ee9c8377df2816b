package telemetry

import "strings"

// DaemonEnv returns the environment entries the daemon needs to export
// to the same endpoints as its parent, tagged with the PID file it owns.
// Returns nil when telemetry is not active.
func DaemonEnv(s Settings, pidFile string) []string {
	s = s.Resolve()
	if !s.Active() {
		return nil
	}
	var env []string
	if attrs := resourceAttrs(pidFile); attrs != "" {
		env = append(env, "OTEL_RESOURCE_ATTRIBUTES="+attrs)
	}
	if s.MetricsURL != "" {
		env = append(env, EnvMetricsURL+"="+s.MetricsURL)
	}
	if s.LogsURL != "" {
		env = append(env, EnvLogsURL+"="+s.LogsURL)
	}
	return env
}

// resourceAttrs builds the OTEL_RESOURCE_ATTRIBUTES value. Commas and
// equals signs are separators in that format and are escaped.
func resourceAttrs(pidFile string) string {
	if pidFile == "" {
		return ""
	}
	r := strings.NewReplacer(",", "%2C", "=", "%3D")
	return "daemonize.role=child,daemonize.pid_file=" + r.Replace(pidFile)
}
