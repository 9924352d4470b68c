package ml

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSigmoid(t *testing.T) {
	assert.Equal(t, 0.5, Sigmoid(0))
	assert.InDelta(t, 1/(1+math.Exp(-2)), Sigmoid(2), 1e-12)
	assert.InDelta(t, 1/(1+math.Exp(3)), Sigmoid(-3), 1e-12)
	assert.False(t, math.IsNaN(Sigmoid(-1000)))
}

func TestLocalModelPredictProba(t *testing.T) {
	m, err := NewLocalModel(testArtifact(), "memory")
	require.NoError(t, err)

	p, err := m.PredictProba(context.Background(), testRecord("A", 50, 60))
	require.NoError(t, err)

	want := Sigmoid(0.5 - 1 + 0.6 + 0.1)
	assert.InDelta(t, want, p.BattingWin, 1e-12)
	assert.InDelta(t, 1-want, p.BowlingWin, 1e-12)
	assert.InDelta(t, 1.0, p.BattingWin+p.BowlingWin, 1e-12)
}

func TestLocalModelLinearIsClipped(t *testing.T) {
	a := testArtifact()
	a.Kind = KindLinear
	m, err := NewLocalModel(a, "memory")
	require.NoError(t, err)

	p, err := m.PredictProba(context.Background(), testRecord("A", 0, 120))
	require.NoError(t, err)
	assert.Equal(t, 1.0, p.BattingWin)
	assert.Equal(t, 0.0, p.BowlingWin)

	p, err = m.PredictProba(context.Background(), testRecord("B", 200, 0))
	require.NoError(t, err)
	assert.Equal(t, 0.0, p.BattingWin)
}

func TestLocalModelCancelledContext(t *testing.T) {
	m, err := NewLocalModel(testArtifact(), "memory")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = m.PredictProba(ctx, testRecord("A", 1, 1))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLocalModelInfo(t *testing.T) {
	m, err := NewLocalModel(testArtifact(), "memory")
	require.NoError(t, err)

	info := m.Info()
	assert.Equal(t, "test", info.Name)
	assert.Equal(t, "v1", info.Version)
	assert.Equal(t, KindLogistic, info.Kind)
	assert.Equal(t, "memory", info.Source)
	assert.Len(t, info.Columns, 3)
}

func TestProbabilityFromVector(t *testing.T) {
	p, err := ProbabilityFromVector([]float64{0.3, 0.7})
	require.NoError(t, err)
	assert.Equal(t, []float64{0.3, 0.7}, p.Vector())

	_, err = ProbabilityFromVector([]float64{0.3})
	assert.ErrorIs(t, err, ErrInvalidResponse)
	_, err = ProbabilityFromVector([]float64{0.3, 0.3})
	assert.ErrorIs(t, err, ErrInvalidResponse)
	_, err = ProbabilityFromVector([]float64{-0.1, 1.1})
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestNewProbabilityClips(t *testing.T) {
	assert.Equal(t, Probability{BowlingWin: 0, BattingWin: 1}, NewProbability(1.4))
	assert.Equal(t, Probability{BowlingWin: 1, BattingWin: 0}, NewProbability(-0.2))
}
