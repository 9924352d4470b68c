// Package cricket holds the match-state arithmetic behind a chase prediction:
// the overs.balls convention, input validation and feature derivation.
package cricket

import (
	"fmt"
	"math"
)

const (
	// BallsPerOver is the number of legal deliveries in an over
	BallsPerOver = 6
	// InningsOvers is the length of a T20 innings
	InningsOvers = 20
	// InningsBalls is the number of legal deliveries in a T20 innings
	InningsBalls = InningsOvers * BallsPerOver
	// MaxWickets ends an innings
	MaxWickets = 10
)

// Overs is an overs.balls count, e.g. 5.3 is five overs and three balls.
type Overs struct {
	Completed int `json:"completed"`
	Balls     int `json:"balls"`
}

// ParseOvers reads the scoreboard notation. The digit after the point counts balls
// in the current over, so it must be 0-5.
func ParseOvers(v float64) (Overs, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Overs{}, fmt.Errorf("%w: %v", ErrInvalidOvers, v)
	}
	if v < 0 {
		return Overs{}, fmt.Errorf("%w: %v is negative", ErrInvalidOvers, v)
	}

	tenths := math.Round(v * 10)
	if math.Abs(v*10-tenths) > 1e-6 {
		return Overs{}, fmt.Errorf("%w: %v has more than one decimal place", ErrInvalidOvers, v)
	}

	o := Overs{Completed: int(tenths) / 10, Balls: int(tenths) % 10}
	if o.Balls >= BallsPerOver {
		return Overs{}, fmt.Errorf("%w: %v has %d balls in the current over", ErrInvalidOvers, v, o.Balls)
	}
	return o, nil
}

// OversFromBalls converts a legal-ball count into overs.balls
func OversFromBalls(balls int) Overs {
	if balls < 0 {
		balls = 0
	}
	return Overs{Completed: balls / BallsPerOver, Balls: balls % BallsPerOver}
}

// BallsBowled is completed overs times six plus balls in the current over
func (o Overs) BallsBowled() int {
	return o.Completed*BallsPerOver + o.Balls
}

// BallsLeft is the number of legal deliveries remaining in the innings, never negative
func (o Overs) BallsLeft() int {
	left := InningsBalls - o.BallsBowled()
	if left < 0 {
		return 0
	}
	return left
}

// Float returns the scoreboard notation as a number, e.g. 5.3
func (o Overs) Float() float64 {
	return float64(o.Completed) + float64(o.Balls)/10
}

// Decimal returns overs as a true fraction of an over, e.g. 5.3 -> 5.5
func (o Overs) Decimal() float64 {
	return float64(o.BallsBowled()) / BallsPerOver
}

func (o Overs) String() string {
	return fmt.Sprintf("%d.%d", o.Completed, o.Balls)
}
