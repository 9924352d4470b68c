package cricket

import "errors"

var (
	// ErrInvalidOvers indicates an overs value that is not valid overs.balls notation
	ErrInvalidOvers = errors.New("invalid overs")

	// ErrInvalidSnapshot indicates a match snapshot rejected by validation
	ErrInvalidSnapshot = errors.New("invalid match snapshot")

	// ErrCatalogNotFound indicates the team and venue catalog file is missing
	ErrCatalogNotFound = errors.New("catalog not found")
)

// ValidationError carries the user-facing reason a snapshot was rejected
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Unwrap lets callers match ErrInvalidSnapshot with errors.Is
func (e *ValidationError) Unwrap() error {
	return ErrInvalidSnapshot
}
