package cricket

import (
	"fmt"

	"github.com/yourusername/ipl-winprob/internal/models"
)

// Sanity bounds on the runs in a snapshot
const (
	// MaxScoreOverTarget is how far a score may exceed the target
	MaxScoreOverTarget = 100
	// MaxTarget is six runs off every ball of an innings
	MaxTarget = InningsBalls * 6
	// MaxScore is the highest score any valid target allows
	MaxScore = MaxTarget + MaxScoreOverTarget
)

// ValidationResult is the outcome of validating a snapshot
type ValidationResult struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
}

// Err returns a *ValidationError for an invalid result and nil otherwise
func (r ValidationResult) Err() error {
	if r.Valid {
		return nil
	}
	return &ValidationError{Message: r.Message}
}

func invalid(format string, args ...interface{}) ValidationResult {
	return ValidationResult{Valid: false, Message: fmt.Sprintf(format, args...)}
}

// Validate checks a snapshot before it reaches the deriver. A nil catalog skips the
// team and venue membership checks.
func Validate(s models.MatchSnapshot, catalog *Catalog) ValidationResult {
	if s.BattingTeam == s.BowlingTeam {
		return invalid("Batting and bowling teams must be different.")
	}

	if catalog != nil {
		if !catalog.HasTeam(s.BattingTeam) {
			return invalid("Unknown batting team %q.", s.BattingTeam)
		}
		if !catalog.HasTeam(s.BowlingTeam) {
			return invalid("Unknown bowling team %q.", s.BowlingTeam)
		}
		if catalog.Canonical(s.BattingTeam) == catalog.Canonical(s.BowlingTeam) {
			return invalid("Batting and bowling teams must be different.")
		}
		if !catalog.HasCity(s.City) {
			return invalid("Unknown city %q.", s.City)
		}
	}

	if s.Overs < 0 || s.Overs > InningsOvers {
		return invalid("Overs must be between 0 and %d.", InningsOvers)
	}
	if _, err := ParseOvers(s.Overs); err != nil {
		return invalid("Overs must use the overs.balls format with 0-5 balls in the current over.")
	}

	if s.WicketsFallen < 0 || s.WicketsFallen > MaxWickets {
		return invalid("Wickets must be between 0 and %d.", MaxWickets)
	}
	if s.Score < 0 {
		return invalid("Score cannot be negative.")
	}
	if s.Target <= 0 {
		return invalid("Target must be greater than 0.")
	}
	if s.Target > MaxTarget {
		return invalid("Target cannot exceed %d.", MaxTarget)
	}
	if s.Score > s.Target+MaxScoreOverTarget {
		return invalid("Score seems unreasonably high compared to target.")
	}

	return ValidationResult{Valid: true}
}
