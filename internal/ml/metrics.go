// Package ml provides Prometheus metrics for model scoring.
package ml

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PredictionsTotal tracks scored snapshots
	PredictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "winprob_ml_predictions_total",
			Help: "Total number of win-probability predictions made",
		},
		[]string{"backend", "cache_hit"},
	)

	// PredictionLatency tracks scoring latency
	PredictionLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "winprob_ml_prediction_latency_seconds",
			Help:    "Model scoring latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend"},
	)

	// CacheHitRatio tracks the prediction cache hit ratio
	CacheHitRatio = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "winprob_ml_cache_hit_ratio",
			Help: "Prediction cache hit ratio",
		},
		[]string{"backend"},
	)

	// RemoteErrorsTotal tracks failures talking to remote model backends
	RemoteErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "winprob_ml_remote_errors_total",
			Help: "Total number of remote model backend errors",
		},
		[]string{"backend", "error_type"},
	)

	// ModelReloadsTotal tracks artifact reload attempts
	ModelReloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "winprob_ml_model_reloads_total",
			Help: "Total number of model artifact reload attempts",
		},
		[]string{"status"},
	)
)
