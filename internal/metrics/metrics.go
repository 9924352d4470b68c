// Package metrics provides the centralized Prometheus registry for the prediction service.
package metrics

import (
	"net/http"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "winprob",
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests",
	}, []string{"route", "method", "status"})
	PredictionsServedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "winprob",
		Name:      "predictions_served_total",
		Help:      "Total number of predictions served, by favoured side",
	}, []string{"favourite"})
	ValidationRejectionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "winprob",
		Name:      "validation_rejections_total",
		Help:      "Total number of match snapshots rejected by validation",
	})
	PredictionLogFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "winprob",
		Name:      "prediction_log_failures_total",
		Help:      "Total number of predictions that could not be written to the prediction log",
	})
	WebsocketMessagesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "winprob",
		Name:      "websocket_messages_total",
		Help:      "Total number of websocket frames handled",
	}, []string{"outcome"})
)

// Gauge metrics
var (
	ModelLoaded = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "winprob",
		Name:      "model_loaded",
		Help:      "Whether a model is loaded and serving (1) or not (0)",
	})
	WebsocketConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "winprob",
		Name:      "websocket_connections",
		Help:      "Number of open websocket connections",
	})
)

// Histogram metrics
var (
	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "winprob",
		Name:      "http_request_duration_seconds",
		Help:      "Latency of HTTP requests in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method"})
	BattingWinProbability = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "winprob",
		Name:      "batting_win_probability",
		Help:      "Distribution of served batting-side win probabilities",
		Buckets:   prometheus.LinearBuckets(0.1, 0.1, 9),
	})
	TrainingDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "winprob",
		Name:      "training_duration_seconds",
		Help:      "Duration of model training runs in seconds",
		Buckets:   []float64{1, 5, 10, 30, 60, 300, 600},
	})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		registry.MustRegister(HTTPRequestsTotal)
		registry.MustRegister(PredictionsServedTotal)
		registry.MustRegister(ValidationRejectionsTotal)
		registry.MustRegister(PredictionLogFailuresTotal)
		registry.MustRegister(WebsocketMessagesTotal)

		registry.MustRegister(ModelLoaded)
		registry.MustRegister(WebsocketConnections)

		registry.MustRegister(HTTPRequestDuration)
		registry.MustRegister(BattingWinProbability)
		registry.MustRegister(TrainingDuration)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	return InitRegistry()
}

// Handler returns the Prometheus HTTP handler. It serves this registry together with
// the default one, which holds the ml package metrics and the Go runtime collectors.
func Handler() http.Handler {
	gatherers := prometheus.Gatherers{GetRegistry(), prometheus.DefaultGatherer}
	return promhttp.HandlerFor(gatherers, promhttp.HandlerOpts{})
}

// RecordHTTPRequest records one served HTTP request.
func RecordHTTPRequest(route, method string, status int, durationSeconds float64) {
	HTTPRequestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(route, method).Observe(durationSeconds)
}

// RecordPrediction records a served prediction.
func RecordPrediction(battingWin float64) {
	favourite := "batting"
	if battingWin < 0.5 {
		favourite = "bowling"
	}
	PredictionsServedTotal.WithLabelValues(favourite).Inc()
	BattingWinProbability.Observe(battingWin)
}

// RecordValidationRejection records a rejected snapshot.
func RecordValidationRejection() {
	ValidationRejectionsTotal.Inc()
}

// RecordPredictionLogFailure records a failed prediction log write.
func RecordPredictionLogFailure() {
	PredictionLogFailuresTotal.Inc()
}

// SetModelLoaded updates the model loaded gauge.
func SetModelLoaded(loaded bool) {
	if loaded {
		ModelLoaded.Set(1)
		return
	}
	ModelLoaded.Set(0)
}

// RecordWebsocketMessage records a websocket frame outcome.
func RecordWebsocketMessage(outcome string) {
	WebsocketMessagesTotal.WithLabelValues(outcome).Inc()
}

// RecordTrainingDuration records a training run duration.
func RecordTrainingDuration(durationSeconds float64) {
	TrainingDuration.Observe(durationSeconds)
}
