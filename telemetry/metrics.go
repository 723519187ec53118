// Package telemetry provides Prometheus metrics and correlation-id aware logging helpers.
package telemetry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	// Counters
	ChatLines         prometheus.Counter
	ChatPings         prometheus.Counter
	ChatMalformed     prometheus.Counter
	ChatReconnects    prometheus.Counter
	AnnotationsPruned prometheus.Counter
	RuleMatches       *prometheus.CounterVec // label: rule
	ModerationEvents  *prometheus.CounterVec // label: kind
	Navigations       *prometheus.CounterVec // label: result

	// Histograms (seconds)
	RenderDuration prometheus.Observer

	// Gauges
	CachedUsers    prometheus.Gauge
	ConnectedGauge prometheus.Gauge // 1=connected,0=disconnected
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		ChatLines = promauto.NewCounter(prometheus.CounterOpts{Name: "twitch_timeouts_chat_lines_total", Help: "Number of IRC lines received from the chat relay"})
		ChatPings = promauto.NewCounter(prometheus.CounterOpts{Name: "twitch_timeouts_chat_pings_total", Help: "Number of keep-alive probes answered"})
		ChatMalformed = promauto.NewCounter(prometheus.CounterOpts{Name: "twitch_timeouts_chat_malformed_lines_total", Help: "Number of IRC lines the parser rejected"})
		ChatReconnects = promauto.NewCounter(prometheus.CounterOpts{Name: "twitch_timeouts_chat_reconnects_total", Help: "Number of reconnect attempts to the chat relay"})
		AnnotationsPruned = promauto.NewCounter(prometheus.CounterOpts{Name: "twitch_timeouts_annotations_pruned_total", Help: "Number of stale annotations removed from the top of the transcript"})
		RuleMatches = promauto.NewCounterVec(prometheus.CounterOpts{Name: "twitch_timeouts_rule_matches_total", Help: "Number of lines matched per classification rule"}, []string{"rule"})
		ModerationEvents = promauto.NewCounterVec(prometheus.CounterOpts{Name: "twitch_timeouts_moderation_events_total", Help: "Number of moderation events rendered, by kind"}, []string{"kind"})
		Navigations = promauto.NewCounterVec(prometheus.CounterOpts{Name: "twitch_timeouts_navigations_total", Help: "Page navigations seen by the reader, by result"}, []string{"result"})
		RenderDuration = promauto.NewHistogram(prometheus.HistogramOpts{Name: "twitch_timeouts_render_duration_seconds", Help: "Time spent rendering one annotation", Buckets: prometheus.ExponentialBuckets(0.00005, 4, 8)})
		CachedUsers = promauto.NewGauge(prometheus.GaugeOpts{Name: "twitch_timeouts_cached_users", Help: "Users with a remembered last message"})
		ConnectedGauge = promauto.NewGauge(prometheus.GaugeOpts{Name: "twitch_timeouts_chat_connected", Help: "Chat relay connection open=1 closed=0"})
	})
}

// SetConnected sets the connection gauge to 1 if connected else 0.
func SetConnected(connected bool) {
	if ConnectedGauge == nil {
		return
	}
	if connected {
		ConnectedGauge.Set(1)
	} else {
		ConnectedGauge.Set(0)
	}
}

// SetCachedUsers records the current size of the last-message cache.
func SetCachedUsers(n int) {
	if CachedUsers != nil {
		CachedUsers.Set(float64(n))
	}
}

// TimeFunc measures the duration of fn and records in observer if non-nil.
func TimeFunc(obs prometheus.Observer, fn func()) time.Duration {
	start := time.Now()
	fn()
	d := time.Since(start)
	if obs != nil {
		obs.Observe(d.Seconds())
	}
	return d
}

// Correlation ID helpers ----------------------------------------------------
type corrKeyType struct{}

var corrKey corrKeyType

// WithCorrelation returns a new context embedding the correlation id.
func WithCorrelation(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, corrKey, id)
}

// GetCorrelation returns correlation id or empty string.
func GetCorrelation(ctx context.Context) string {
	v := ctx.Value(corrKey)
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// LoggerWithCorr returns a logger with corr attribute if present.
func LoggerWithCorr(ctx context.Context) *slog.Logger {
	if id := GetCorrelation(ctx); id != "" {
		return slog.Default().With(slog.String("corr", id))
	}
	return slog.Default()
}
