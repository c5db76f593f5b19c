package telemetry

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

// Metrics register in the default registry, so the provider is built once
// for the whole test binary.
var testProvider = NewProvider()

func TestProvider_RecordSourceFetch(t *testing.T) {
	p := testProvider

	p.RecordSourceFetch("csv", 42, 10*time.Millisecond, nil)
	if got := testutil.ToFloat64(p.Metrics.SourceRows.WithLabelValues("csv")); got != 42 {
		t.Errorf("expected 42 source rows, got %f", got)
	}
	if got := testutil.ToFloat64(p.Metrics.SourceFailures.WithLabelValues("csv")); got != 0 {
		t.Errorf("successful fetch counted as failure: %f", got)
	}

	p.RecordSourceFetch("db", 0, time.Millisecond, errors.New("connection refused"))
	if got := testutil.ToFloat64(p.Metrics.SourceFailures.WithLabelValues("db")); got != 1 {
		t.Errorf("expected 1 source failure, got %f", got)
	}
	if got := testutil.ToFloat64(p.Metrics.SourceRows.WithLabelValues("db")); got != 0 {
		t.Errorf("failed fetch should not count rows, got %f", got)
	}
}

func TestProvider_SetActiveWorkers(t *testing.T) {
	p := testProvider

	p.SetActiveWorkers(3)
	if got := testutil.ToFloat64(p.Metrics.ActiveWorkers); got != 3 {
		t.Errorf("expected 3 active workers, got %f", got)
	}

	p.SetActiveWorkers(0)
	if got := testutil.ToFloat64(p.Metrics.ActiveWorkers); got != 0 {
		t.Errorf("expected gauge reset to 0, got %f", got)
	}
}
