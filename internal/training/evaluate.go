package training

import (
	"context"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/yourusername/ipl-winprob/internal/ml"
)

// Metrics are hold-out scores for a fitted model
type Metrics struct {
	Examples int     `json:"examples"`
	Accuracy float64 `json:"accuracy"`
	Brier    float64 `json:"brier"`
	LogLoss  float64 `json:"log_loss"`
}

// Map returns the metrics keyed for an artifact
func (m Metrics) Map() map[string]float64 {
	return map[string]float64{
		"examples": float64(m.Examples),
		"accuracy": m.Accuracy,
		"brier":    m.Brier,
		"log_loss": m.LogLoss,
	}
}

const probEpsilon = 1e-15

// Evaluate scores examples with p and compares against their labels. A batting win
// probability above one half counts as predicting a chase win.
func Evaluate(ctx context.Context, p ml.Predictor, examples []Example, extended bool) (Metrics, error) {
	if len(examples) == 0 {
		return Metrics{}, ErrNoExamples
	}

	correct := make([]float64, len(examples))
	sqErr := make([]float64, len(examples))
	ll := make([]float64, len(examples))
	for i, e := range examples {
		prob, err := p.PredictProba(ctx, e.Record(extended))
		if err != nil {
			return Metrics{}, err
		}
		q := prob.BattingWin
		if (q > 0.5) == (e.Label == 1) {
			correct[i] = 1
		}
		sqErr[i] = (q - e.Label) * (q - e.Label)

		q = math.Max(probEpsilon, math.Min(1-probEpsilon, q))
		ll[i] = -(e.Label*math.Log(q) + (1-e.Label)*math.Log(1-q))
	}

	return Metrics{
		Examples: len(examples),
		Accuracy: stat.Mean(correct, nil),
		Brier:    stat.Mean(sqErr, nil),
		LogLoss:  stat.Mean(ll, nil),
	}, nil
}
