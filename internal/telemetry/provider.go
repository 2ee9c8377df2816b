// Package telemetry exports daemonize metrics and log records over
// OTLP/HTTP. Without an endpoint the global providers stay no-op and
// every Record* call is free.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/log/global"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
)

// Environment variables that enable export. They fill in settings the
// config file leaves empty, and are forwarded to the daemon by DaemonEnv.
const (
	EnvMetricsURL = "DAEMONIZE_OTEL_METRICS_URL"
	EnvLogsURL    = "DAEMONIZE_OTEL_LOGS_URL"
)

// metricInterval is the periodic reader's export interval. Short-lived
// parents rely on shutdown to flush.
const metricInterval = 15 * time.Second

// Settings selects the export endpoints.
type Settings struct {
	MetricsURL  string
	LogsURL     string
	ServiceName string // default "daemonize"
	Version     string
}

// Resolve fills empty URLs from the environment.
func (s Settings) Resolve() Settings {
	if s.MetricsURL == "" {
		s.MetricsURL = os.Getenv(EnvMetricsURL)
	}
	if s.LogsURL == "" {
		s.LogsURL = os.Getenv(EnvLogsURL)
	}
	if s.ServiceName == "" {
		s.ServiceName = "daemonize"
	}
	return s
}

// Active reports whether any exporter would be installed.
func (s Settings) Active() bool {
	return s.MetricsURL != "" || s.LogsURL != ""
}

// Init installs the global MeterProvider and LoggerProvider for the
// configured endpoints and returns a shutdown func that flushes them.
// Providers do not survive the re-exec, so the daemon calls Init again.
func Init(ctx context.Context, s Settings) (func(context.Context) error, error) {
	s = s.Resolve()
	if !s.Active() {
		return func(context.Context) error { return nil }, nil
	}

	res, err := resource.Merge(resource.Default(), resource.NewSchemaless(
		attribute.String("service.name", s.ServiceName),
		attribute.String("service.version", s.Version),
		attribute.Int("process.pid", os.Getpid()),
	))
	if err != nil {
		return nil, fmt.Errorf("building telemetry resource: %w", err)
	}

	var shutdowns []func(context.Context) error
	shutdown := func(ctx context.Context) error {
		var errs []error
		for _, fn := range shutdowns {
			errs = append(errs, fn(ctx))
		}
		return errors.Join(errs...)
	}

	if s.MetricsURL != "" {
		exp, err := otlpmetrichttp.New(ctx, otlpmetrichttp.WithEndpointURL(s.MetricsURL))
		if err != nil {
			return nil, fmt.Errorf("creating metrics exporter: %w", err)
		}
		mp := sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(res),
			sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(metricInterval))),
		)
		otel.SetMeterProvider(mp)
		shutdowns = append(shutdowns, mp.Shutdown)
	}

	if s.LogsURL != "" {
		exp, err := otlploghttp.New(ctx, otlploghttp.WithEndpointURL(s.LogsURL))
		if err != nil {
			shutdown(ctx) //nolint:errcheck // already failing
			return nil, fmt.Errorf("creating logs exporter: %w", err)
		}
		lp := sdklog.NewLoggerProvider(
			sdklog.WithResource(res),
			sdklog.WithProcessor(sdklog.NewBatchProcessor(exp)),
		)
		global.SetLoggerProvider(lp)
		shutdowns = append(shutdowns, lp.Shutdown)
	}

	// Re-register instruments against the real provider.
	instOnce = sync.Once{}
	initInstruments()
	return shutdown, nil
}
