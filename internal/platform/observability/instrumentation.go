package observability

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"
)

// MetricSummary aggregates every datapoint recorded under one metric key.
type MetricSummary struct {
	Count int64   `json:"count"`
	Sum   float64 `json:"sum"`
	Last  float64 `json:"last"`
	Max   float64 `json:"max"`
}

var (
	metricsMu sync.Mutex
	metrics   = map[string]*MetricSummary{}
)

// Enabled reports whether observability has been toggled on.
func Enabled() bool {
	_, cfg := currentLogger()
	return cfg.Enabled
}

// StartSpan records a lightweight span lifecycle around an operation. The
// span duration is also recorded as the "<component>.<operation>.ms" metric.
func StartSpan(ctx context.Context, component, operation string) (context.Context, func(error)) {
	logger, cfg := currentLogger()
	if !cfg.Enabled {
		return ctx, func(error) {}
	}

	start := time.Now()
	if logger != nil {
		logger.LogAttrs(ctx, slog.LevelDebug, "obs span start",
			slog.String("component", component),
			slog.String("operation", operation),
		)
	}

	return ctx, func(err error) {
		elapsed := time.Since(start)
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		RecordMetric(ctx, component+"."+operation+".ms", float64(elapsed.Milliseconds()), map[string]string{"outcome": outcome})

		if logger == nil {
			return
		}
		level := slog.LevelDebug
		attrs := []slog.Attr{
			slog.String("component", component),
			slog.String("operation", operation),
			slog.Duration("duration", elapsed),
		}
		if err != nil {
			level = slog.LevelWarn
			attrs = append(attrs, slog.Any("error", err))
		}
		logger.LogAttrs(ctx, level, "obs span end", attrs...)
	}
}

// RecordMetric aggregates a datapoint in process and emits it via the configured logger.
// Labels become part of the aggregate key, sorted by label name.
func RecordMetric(ctx context.Context, name string, value float64, labels map[string]string) {
	logger, cfg := currentLogger()
	if !cfg.Enabled {
		return
	}

	key := metricKey(name, labels)
	metricsMu.Lock()
	m, ok := metrics[key]
	if !ok {
		m = &MetricSummary{Max: value}
		metrics[key] = m
	}
	m.Count++
	m.Sum += value
	m.Last = value
	if value > m.Max {
		m.Max = value
	}
	metricsMu.Unlock()

	if logger == nil {
		return
	}
	attrs := []slog.Attr{
		slog.String("metric", name),
		slog.Float64("value", value),
	}
	for k, v := range labels {
		attrs = append(attrs, slog.String(k, v))
	}
	logger.LogAttrs(ctx, slog.LevelDebug, "obs metric", attrs...)
}

// Snapshot copies the current aggregates.
func Snapshot() map[string]MetricSummary {
	metricsMu.Lock()
	defer metricsMu.Unlock()
	out := make(map[string]MetricSummary, len(metrics))
	for k, v := range metrics {
		out[k] = *v
	}
	return out
}

func resetMetrics() {
	metricsMu.Lock()
	metrics = map[string]*MetricSummary{}
	metricsMu.Unlock()
}

func metricKey(name string, labels map[string]string) string {
	if len(labels) == 0 {
		return name
	}
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(name)
	b.WriteString("{")
	for i, k := range keys {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(labels[k])
	}
	b.WriteString("}")
	return b.String()
}
