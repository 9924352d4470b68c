// Package logger provides audit logging.
package logger

import (
	"github.com/sirupsen/logrus"
)

// AuditLogger provides dedicated audit trail logging.
type AuditLogger struct {
	*logrus.Entry
}

// NewAuditLogger creates a new audit logger.
func NewAuditLogger(baseLogger *logrus.Logger) *AuditLogger {
	return &AuditLogger{
		Entry: baseLogger.WithField("component", "audit"),
	}
}

// LogModelSwap logs replacement of the active model.
func (al *AuditLogger) LogModelSwap(oldVersion, newVersion, trigger string) {
	al.WithFields(logrus.Fields{
		"old_version": oldVersion,
		"new_version": newVersion,
		"trigger":     trigger,
	}).Info("Active model replaced")
}

// LogValidationRejected logs a snapshot rejected before scoring.
func (al *AuditLogger) LogValidationRejected(battingTeam, bowlingTeam, reason string) {
	al.WithFields(logrus.Fields{
		"batting_team": battingTeam,
		"bowling_team": bowlingTeam,
		"reason":       reason,
	}).Warn("Snapshot rejected")
}

// LogCacheCleared logs a prediction cache flush.
func (al *AuditLogger) LogCacheCleared(backend string, entries int, trigger string) {
	al.WithFields(logrus.Fields{
		"backend": backend,
		"entries": entries,
		"trigger": trigger,
	}).Info("Prediction cache cleared")
}
