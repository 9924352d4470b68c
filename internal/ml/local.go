package ml

import (
	"context"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/yourusername/ipl-winprob/internal/models"
)

// LocalModel scores records in-process from a loaded artifact
type LocalModel struct {
	artifact *Artifact
	source   string
}

// NewLocalModel wraps a prepared artifact
func NewLocalModel(a *Artifact, source string) (*LocalModel, error) {
	if err := a.Prepare(); err != nil {
		return nil, err
	}
	return &LocalModel{artifact: a, source: source}, nil
}

// LoadLocalModel reads an artifact from disk
func LoadLocalModel(path string) (*LocalModel, error) {
	a, err := LoadArtifact(path)
	if err != nil {
		return nil, err
	}
	return &LocalModel{artifact: a, source: path}, nil
}

// Sigmoid is the logistic function
func Sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

// Score returns the raw batting-win estimate for an encoded row
func (m *LocalModel) Score(x []float64) float64 {
	z := floats.Dot(m.artifact.Weights, x) + m.artifact.Intercept
	if m.artifact.Kind == KindLogistic {
		return Sigmoid(z)
	}
	return z
}

// PredictProba implements Predictor
func (m *LocalModel) PredictProba(ctx context.Context, rec models.FeatureRecord) (Probability, error) {
	if err := ctx.Err(); err != nil {
		return Probability{}, err
	}
	x, err := m.artifact.Encode(rec)
	if err != nil {
		return Probability{}, err
	}
	return NewProbability(m.Score(x)), nil
}

// Info implements Predictor
func (m *LocalModel) Info() ModelInfo {
	a := m.artifact
	return ModelInfo{
		Name:      a.Name,
		Version:   a.Version,
		Kind:      a.Kind,
		Source:    m.source,
		Columns:   a.Columns(),
		Extended:  a.Extended(),
		TrainedAt: a.TrainedAt,
		Metrics:   a.Metrics,
		Priors:    a.Priors,
	}
}

// Artifact returns the underlying artifact
func (m *LocalModel) Artifact() *Artifact {
	return m.artifact
}
