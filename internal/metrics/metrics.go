// Package metrics exposes Prometheus instrumentation for the bot: scoring
// runs, workflow steps and inline lookups. Labels are small closed sets so
// cardinality stays bounded. All collectors are safe for concurrent use.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

var (
	// TrendingRuns counts scoring runs by result: ok, failed, skipped.
	TrendingRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sticker_trending_runs_total",
			Help: "Trending recomputations by result.",
		},
		[]string{"result"},
	)

	TrendingDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sticker_trending_run_duration_seconds",
			Help:    "Duration of successful trending recomputations.",
			Buckets: prometheus.DefBuckets,
		},
	)

	// TrendingEntries is the row count of the served ranking.
	TrendingEntries = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "sticker_trending_entries",
			Help: "Rows in the currently served trending snapshot.",
		},
	)

	// WorkflowSteps counts conversation steps by step and outcome.
	WorkflowSteps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sticker_workflow_steps_total",
			Help: "Conversation workflow steps by step and outcome.",
		},
		[]string{"step", "outcome"},
	)

	// InlineQueries counts inline lookups by query kind.
	InlineQueries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sticker_inline_queries_total",
			Help: "Inline lookups by query kind.",
		},
		[]string{"kind"},
	)
)

func init() {
	prometheus.MustRegister(TrendingRuns, TrendingDuration, TrendingEntries, WorkflowSteps, InlineQueries)
}

// Serve exposes /metrics on addr until ctx is done. An empty addr disables it.
func Serve(ctx context.Context, addr string) error {
	if addr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", addr).Msg("metrics listener started")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
