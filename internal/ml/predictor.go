package ml

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/yourusername/ipl-winprob/internal/cricket"
	"github.com/yourusername/ipl-winprob/internal/models"
)

// Backend names used in metrics and logs
const (
	BackendLocal      = "local"
	BackendRemoteHTTP = "remote_http"
	BackendRemoteGRPC = "remote_grpc"
)

// Probability is the two-outcome distribution for a chase.
// Index 0 of Vector is the bowling side winning, index 1 the batting side.
type Probability struct {
	BowlingWin float64 `json:"bowling_win"`
	BattingWin float64 `json:"batting_win"`
}

// NewProbability builds a distribution from the batting side's chance, clipped to [0, 1]
func NewProbability(battingWin float64) Probability {
	p := math.Max(0, math.Min(1, battingWin))
	return Probability{BowlingWin: 1 - p, BattingWin: p}
}

// ProbabilityFromVector converts a [bowling, batting] vector
func ProbabilityFromVector(v []float64) (Probability, error) {
	if len(v) != 2 {
		return Probability{}, fmt.Errorf("%w: expected 2 probabilities, got %d", ErrInvalidResponse, len(v))
	}
	for _, x := range v {
		if math.IsNaN(x) || x < 0 || x > 1 {
			return Probability{}, fmt.Errorf("%w: probability %v out of range", ErrInvalidResponse, x)
		}
	}
	if math.Abs(v[0]+v[1]-1) > 1e-6 {
		return Probability{}, fmt.Errorf("%w: probabilities sum to %v", ErrInvalidResponse, v[0]+v[1])
	}
	return Probability{BowlingWin: v[0], BattingWin: v[1]}, nil
}

// Vector returns the distribution as [bowling, batting]
func (p Probability) Vector() []float64 {
	return []float64{p.BowlingWin, p.BattingWin}
}

// ModelInfo describes the model behind a Predictor
type ModelInfo struct {
	Name      string             `json:"name"`
	Version   string             `json:"version"`
	Kind      string             `json:"kind"`
	Source    string             `json:"source"`
	Columns   []string           `json:"columns"`
	Extended  bool               `json:"extended"`
	TrainedAt time.Time          `json:"trained_at"`
	Metrics   map[string]float64 `json:"metrics,omitempty"`
	Priors    cricket.Priors     `json:"priors"`
}

// Predictor scores feature records. Implementations must be safe for concurrent use.
type Predictor interface {
	PredictProba(ctx context.Context, rec models.FeatureRecord) (Probability, error)
	Info() ModelInfo
}

// CachingPredictor is a Predictor that can report whether a result came from cache
type CachingPredictor interface {
	Predictor
	PredictCached(ctx context.Context, rec models.FeatureRecord) (Probability, bool, error)
}
