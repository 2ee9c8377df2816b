package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otellog "go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterRecorderName = "github.com/steveyegge/daemonize"
	loggerName        = "daemonize"
)

// recorderInstruments holds all lazy-initialized OTel metric instruments.
type recorderInstruments struct {
	bootstrapTotal metric.Int64Counter
	releaseTotal   metric.Int64Counter
	stopTotal      metric.Int64Counter
	probeTotal     metric.Int64Counter

	uptimeHist metric.Float64Histogram
}

var (
	instOnce sync.Once
	inst     recorderInstruments
)

// initInstruments registers the recorder instruments against the current
// global MeterProvider. Init calls it once the real provider is set; every
// Record* calls it lazily as well.
func initInstruments() {
	instOnce.Do(func() {
		m := otel.GetMeterProvider().Meter(meterRecorderName)

		inst.bootstrapTotal, _ = m.Int64Counter("daemonize.bootstrap.total",
			metric.WithDescription("Total daemonize transitions, by role"),
		)
		inst.releaseTotal, _ = m.Int64Counter("daemonize.release.total",
			metric.WithDescription("Total PID file releases by the daemon"),
		)
		inst.stopTotal, _ = m.Int64Counter("daemonize.stop.total",
			metric.WithDescription("Total stop requests sent to a daemon"),
		)
		inst.probeTotal, _ = m.Int64Counter("daemonize.probe.total",
			metric.WithDescription("Total PID file liveness probes"),
		)

		inst.uptimeHist, _ = m.Float64Histogram("daemonize.daemon.uptime_s",
			metric.WithDescription("Daemon lifetime from detach to release"),
			metric.WithUnit("s"),
		)
	})
}

// statusStr returns "ok" or "error" depending on whether err is nil.
func statusStr(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// emit sends an OTel log event with the given body and key-value attributes.
func emit(ctx context.Context, body string, sev otellog.Severity, attrs ...otellog.KeyValue) {
	logger := global.GetLoggerProvider().Logger(loggerName)
	var r otellog.Record
	r.SetBody(otellog.StringValue(body))
	r.SetSeverity(sev)
	r.AddAttributes(attrs...)
	logger.Emit(ctx, r)
}

// errKV returns a log KeyValue with the error message, or empty string if nil.
func errKV(err error) otellog.KeyValue {
	if err != nil {
		return otellog.String("error", err.Error())
	}
	return otellog.String("error", "")
}

// severity returns SeverityInfo on success, SeverityError on failure.
func severity(err error) otellog.Severity {
	if err != nil {
		return otellog.SeverityError
	}
	return otellog.SeverityInfo
}

// RecordBootstrap records a daemonize transition. role is "parent",
// "child", or "undecided" when the transition failed.
func RecordBootstrap(ctx context.Context, role, pidFile string, err error) {
	initInstruments()
	status := statusStr(err)
	inst.bootstrapTotal.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("role", role),
			attribute.String("status", status),
		),
	)
	emit(ctx, "daemon.bootstrap", severity(err),
		otellog.String("role", role),
		otellog.String("pid_file", pidFile),
		otellog.String("status", status),
		errKV(err),
	)
}

// RecordRelease records the daemon giving up its PID file after running
// for uptime.
func RecordRelease(ctx context.Context, pidFile string, uptime time.Duration, err error) {
	initInstruments()
	status := statusStr(err)
	inst.releaseTotal.Add(ctx, 1,
		metric.WithAttributes(attribute.String("status", status)),
	)
	inst.uptimeHist.Record(ctx, uptime.Seconds())
	emit(ctx, "daemon.release", severity(err),
		otellog.String("pid_file", pidFile),
		otellog.Float64("uptime_s", uptime.Seconds()),
		otellog.String("status", status),
		errKV(err),
	)
}

// RecordStop records a stop request sent to pid.
func RecordStop(ctx context.Context, pidFile string, pid int, err error) {
	initInstruments()
	status := statusStr(err)
	inst.stopTotal.Add(ctx, 1,
		metric.WithAttributes(attribute.String("status", status)),
	)
	emit(ctx, "daemon.stop", severity(err),
		otellog.String("pid_file", pidFile),
		otellog.Int("pid", pid),
		otellog.String("status", status),
		errKV(err),
	)
}

// RecordProbe records a liveness check of a PID file.
func RecordProbe(ctx context.Context, pidFile string, running bool) {
	initInstruments()
	inst.probeTotal.Add(ctx, 1,
		metric.WithAttributes(attribute.Bool("running", running)),
	)
	emit(ctx, "daemon.probe", otellog.SeverityDebug,
		otellog.String("pid_file", pidFile),
		otellog.Bool("running", running),
	)
}
