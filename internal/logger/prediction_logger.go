// Package logger provides prediction-specific logging.
package logger

import (
	"github.com/sirupsen/logrus"
)

// PredictionLogger provides dedicated logging for model scoring.
type PredictionLogger struct {
	*logrus.Entry
}

// NewPredictionLogger creates a new prediction logger.
func NewPredictionLogger(baseLogger *logrus.Logger) *PredictionLogger {
	return &PredictionLogger{
		Entry: baseLogger.WithField("component", "prediction"),
	}
}

// LogPrediction logs a completed prediction.
func (pl *PredictionLogger) LogPrediction(battingTeam, bowlingTeam string, battingWin float64, modelVersion string, cacheHit bool, latencyMs float64) {
	pl.WithFields(logrus.Fields{
		"batting_team":  battingTeam,
		"bowling_team":  bowlingTeam,
		"batting_win":   battingWin,
		"model_version": modelVersion,
		"cache_hit":     cacheHit,
		"latency_ms":    latencyMs,
	}).Info("Prediction completed")
}

// LogPredictionError logs a failed prediction.
func (pl *PredictionLogger) LogPredictionError(backend string, err error) {
	pl.WithFields(logrus.Fields{
		"backend": backend,
		"error":   err.Error(),
	}).Error("Prediction failed")
}

// LogModelLoaded logs a model artifact becoming active.
func (pl *PredictionLogger) LogModelLoaded(name, version, kind, source string) {
	pl.WithFields(logrus.Fields{
		"model_name":    name,
		"model_version": version,
		"model_kind":    kind,
		"source":        source,
	}).Info("Model loaded")
}
