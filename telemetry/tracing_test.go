package telemetry

import (
	"context"
	"errors"
	"testing"
)

func TestInitTracingDisabledWithoutEndpoint(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	shutdown, err := InitTracing("twitch-timeouts", "test")
	if err != nil {
		t.Fatalf("InitTracing() error: %v", err)
	}
	shutdown()
	if IsTracingEnabled() {
		t.Error("tracing should be disabled without endpoint")
	}
}

func TestInitTracingRejectsBadRatio(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317")
	t.Setenv("OTEL_TRACES_SAMPLER_RATIO", "1.5")
	if _, err := InitTracing("twitch-timeouts", "test"); err == nil {
		t.Error("expected error for sampler ratio above 1")
	}
}

func TestStartSpanWithNoopProvider(t *testing.T) {
	ctx := WithCorrelation(context.Background(), "corr-1")
	ctx, span := StartSpan(ctx, "test", "op", HTTPMethodAttr("GET"), HTTPRouteAttr("/"))
	defer span.End()
	if ctx == nil {
		t.Fatal("nil context")
	}
	RecordError(span, errors.New("boom"))
	RecordError(span, nil)
	SetSpanHTTPStatus(span, 503)
}
