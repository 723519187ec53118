package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestMetricsInitialized(t *testing.T) {
	Init()
	Init()

	if ChatLines == nil || ChatPings == nil || ChatReconnects == nil || AnnotationsPruned == nil {
		t.Error("counters not initialized")
	}
	if RuleMatches == nil || ModerationEvents == nil || Navigations == nil {
		t.Error("counter vectors not initialized")
	}
	if RenderDuration == nil {
		t.Error("RenderDuration histogram not initialized")
	}
	if CachedUsers == nil || ConnectedGauge == nil {
		t.Error("gauges not initialized")
	}
}

func TestTimeFuncRecordsObservation(t *testing.T) {
	Init()

	testHistogram := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "test_duration_seconds",
		Help:    "Test duration",
		Buckets: prometheus.DefBuckets,
	})
	prometheus.MustRegister(testHistogram)
	defer prometheus.Unregister(testHistogram)

	executed := false
	duration := TimeFunc(testHistogram, func() {
		time.Sleep(10 * time.Millisecond)
		executed = true
	})

	if !executed {
		t.Error("TimeFunc did not execute provided function")
	}
	if duration < 10*time.Millisecond {
		t.Errorf("TimeFunc duration = %v, want >= 10ms", duration)
	}

	metric := &dto.Metric{}
	if err := testHistogram.Write(metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Histogram == nil {
		t.Fatal("Histogram metric is nil")
	}
	if metric.Histogram.GetSampleCount() == 0 {
		t.Error("TimeFunc did not record observation in histogram")
	}
}

func TestTimeFuncNilObserver(t *testing.T) {
	ran := false
	TimeFunc(nil, func() { ran = true })
	if !ran {
		t.Error("TimeFunc did not execute provided function")
	}
}

func TestConnectedGauge(t *testing.T) {
	Init()

	for _, tt := range []struct {
		connected bool
		want      float64
	}{{true, 1}, {false, 0}} {
		SetConnected(tt.connected)
		metric := &dto.Metric{}
		if err := ConnectedGauge.Write(metric); err != nil {
			t.Fatalf("Failed to write metric: %v", err)
		}
		if got := metric.GetGauge().GetValue(); got != tt.want {
			t.Errorf("SetConnected(%v) gauge = %v, want %v", tt.connected, got, tt.want)
		}
	}
}

func TestCachedUsersGauge(t *testing.T) {
	Init()

	SetCachedUsers(42)
	metric := &dto.Metric{}
	if err := CachedUsers.Write(metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if got := metric.GetGauge().GetValue(); got != 42 {
		t.Errorf("cached users gauge = %v, want 42", got)
	}
}

func TestCorrelation(t *testing.T) {
	ctx := context.Background()
	if got := GetCorrelation(ctx); got != "" {
		t.Errorf("GetCorrelation(empty) = %q, want empty", got)
	}
	ctx = WithCorrelation(ctx, "abc-123")
	if got := GetCorrelation(ctx); got != "abc-123" {
		t.Errorf("GetCorrelation() = %q, want abc-123", got)
	}
	if LoggerWithCorr(ctx) == nil {
		t.Error("LoggerWithCorr returned nil")
	}
}
