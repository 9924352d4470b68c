// Package logger provides training pipeline logging.
package logger

import (
	"github.com/sirupsen/logrus"
)

// TrainingLogger provides dedicated logging for the offline training pipeline.
type TrainingLogger struct {
	*logrus.Entry
}

// NewTrainingLogger creates a new training logger.
func NewTrainingLogger(baseLogger *logrus.Logger) *TrainingLogger {
	return &TrainingLogger{
		Entry: baseLogger.WithField("component", "training"),
	}
}

// LogDatasetLoaded logs the size of the historical dataset.
func (tl *TrainingLogger) LogDatasetLoaded(matches, deliveries int) {
	tl.WithFields(logrus.Fields{
		"matches":    matches,
		"deliveries": deliveries,
	}).Info("Historical dataset loaded")
}

// LogExamplesBuilt logs how many labelled snapshots were produced.
func (tl *TrainingLogger) LogExamplesBuilt(examples, skippedMatches int) {
	tl.WithFields(logrus.Fields{
		"examples":        examples,
		"skipped_matches": skippedMatches,
	}).Info("Training examples built")
}

// LogTrainingCompleted logs a finished fit with its evaluation metrics.
func (tl *TrainingLogger) LogTrainingCompleted(kind string, durationSeconds float64, metrics map[string]float64) {
	tl.WithFields(logrus.Fields{
		"model_kind":       kind,
		"duration_seconds": durationSeconds,
		"metrics":          metrics,
	}).Info("Model training completed")
}
