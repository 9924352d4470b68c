// Package ml scores chase snapshots against a trained win-probability model.
package ml

import "errors"

var (
	// ErrModelNotLoaded is returned when no model artifact is active
	ErrModelNotLoaded = errors.New("model not loaded")
	// ErrArtifactNotFound is returned when the model artifact file cannot be read
	ErrArtifactNotFound = errors.New("model artifact not found")
	// ErrInvalidArtifact is returned when a model artifact is malformed
	ErrInvalidArtifact = errors.New("invalid model artifact")
	// ErrFeatureMismatch is returned when a feature record does not match the model's columns
	ErrFeatureMismatch = errors.New("feature record does not match model columns")
	// ErrRemoteUnavailable is returned when a remote model backend cannot be reached
	ErrRemoteUnavailable = errors.New("remote model backend unavailable")
	// ErrInvalidResponse is returned when a remote model backend answers with an unusable payload
	ErrInvalidResponse = errors.New("invalid response from remote model backend")
)
