package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/pageza/mealplanner/backend/internal/types"
)

var (
	// modelCalls counts completion calls by operation and outcome (ok, error, empty)
	modelCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mealplanner",
		Subsystem: "model",
		Name:      "calls_total",
		Help:      "Total completion calls by operation and outcome",
	}, []string{"op", "outcome"})

	modelLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "mealplanner",
		Subsystem: "model",
		Name:      "latency_seconds",
		Help:      "Completion call latency in seconds",
		Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 90},
	}, []string{"op"})

	coverageMisses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "mealplanner",
		Subsystem: "shopping",
		Name:      "coverage_misses_total",
		Help:      "Source ingredients not accounted for by a consolidated shopping list",
	})

	// modificationActions counts classified chat actions.
	// Labels: action, outcome (applied, unresolved, failed)
	modificationActions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mealplanner",
		Subsystem: "chat",
		Name:      "actions_total",
		Help:      "Classified modification actions by outcome",
	}, []string{"action", "outcome"})
)

const (
	temperaturePlan        float32 = 0.8
	temperatureMeal        float32 = 0.9
	temperatureConsolidate float32 = 0.2
	temperatureClassify    float32 = 0.1
	temperatureAssistant   float32 = 0.7
)

// complete runs one model call, records its metrics and wraps any failure in a ModelError
func complete(ctx context.Context, llm Completer, op, prompt string, temperature float32, ids ...string) (string, error) {
	start := time.Now()
	text, err := llm.Complete(ctx, prompt, temperature)
	modelLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())

	switch {
	case errors.Is(err, ErrEmptyCompletion):
		modelCalls.WithLabelValues(op, "empty").Inc()
	case err != nil:
		modelCalls.WithLabelValues(op, "error").Inc()
	default:
		modelCalls.WithLabelValues(op, "ok").Inc()
	}
	if err != nil {
		slog.Error("Model call failed", "op", op, "error", err)
		return "", modelError(op, err, ids...)
	}
	slog.Debug("Model response", "op", op, "text", text)
	return text, nil
}

func observeCoverage(r CoverageReport) {
	if n := len(r.Missing); n > 0 {
		coverageMisses.Add(float64(n))
	}
}

func observeAction(action types.ActionType, outcome string) {
	modificationActions.WithLabelValues(string(action), outcome).Inc()
}
