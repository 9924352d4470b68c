package service

import "errors"

var (
	// ErrPredictionLogDisabled indicates no prediction repository is configured
	ErrPredictionLogDisabled = errors.New("prediction log is disabled")

	// ErrStatsUnavailable indicates no matches dataset is configured
	ErrStatsUnavailable = errors.New("historical statistics are unavailable")
)
