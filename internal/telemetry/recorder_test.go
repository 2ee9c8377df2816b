package telemetry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	otellog "go.opentelemetry.io/otel/log"
)

// resetInstruments resets the sync.Once so initInstruments re-runs against
// the current (noop) global MeterProvider during tests.
func resetInstruments(t *testing.T) {
	t.Helper()
	instOnce = sync.Once{}
	t.Cleanup(func() { instOnce = sync.Once{} })
}

// --- helper functions ---

func TestStatusStr(t *testing.T) {
	if got := statusStr(nil); got != "ok" {
		t.Errorf("statusStr(nil) = %q, want \"ok\"", got)
	}
	if got := statusStr(errors.New("boom")); got != "error" {
		t.Errorf("statusStr(err) = %q, want \"error\"", got)
	}
}

func TestSeverity_Nil(t *testing.T) {
	if got := severity(nil); got != otellog.SeverityInfo {
		t.Errorf("severity(nil) = %v, want SeverityInfo", got)
	}
}

func TestSeverity_Error(t *testing.T) {
	if got := severity(errors.New("err")); got != otellog.SeverityError {
		t.Errorf("severity(err) = %v, want SeverityError", got)
	}
}

func TestErrKV(t *testing.T) {
	if kv := errKV(nil); kv.Value.AsString() != "" {
		t.Errorf("errKV(nil) value = %q, want empty", kv.Value.AsString())
	}
	if kv := errKV(errors.New("lock held")); kv.Value.AsString() != "lock held" {
		t.Errorf("errKV(err) value = %q", kv.Value.AsString())
	}
}

// --- Record* functions (noop providers, must not panic) ---

func TestRecordBootstrap(t *testing.T) {
	resetInstruments(t)
	ctx := context.Background()

	RecordBootstrap(ctx, "parent", "/run/my.pid.file", nil)
	RecordBootstrap(ctx, "child", "/run/my.pid.file", nil)
	RecordBootstrap(ctx, "undecided", "/run/my.pid.file", errors.New("already running"))
}

func TestRecordRelease(t *testing.T) {
	resetInstruments(t)
	ctx := context.Background()

	RecordRelease(ctx, "/run/my.pid.file", 3*time.Second, nil)
	RecordRelease(ctx, "/run/my.pid.file", 0, errors.New("unlink failed"))
}

func TestRecordStop(t *testing.T) {
	resetInstruments(t)
	ctx := context.Background()

	RecordStop(ctx, "/run/my.pid.file", 4242, nil)
	RecordStop(ctx, "/run/my.pid.file", 0, errors.New("no such process"))
}

func TestRecordProbe(t *testing.T) {
	resetInstruments(t)
	ctx := context.Background()

	RecordProbe(ctx, "/run/my.pid.file", true)
	RecordProbe(ctx, "/run/my.pid.file", false)
}
