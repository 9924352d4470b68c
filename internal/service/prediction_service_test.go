package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/ipl-winprob/internal/cricket"
	"github.com/yourusername/ipl-winprob/internal/ml"
	"github.com/yourusername/ipl-winprob/internal/models"
	"github.com/yourusername/ipl-winprob/internal/repository"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

type stubPredictor struct {
	mu       sync.Mutex
	battingP float64
	err      error
	info     ml.ModelInfo
	calls    int
	infos    int
	last     models.FeatureRecord
}

func (s *stubPredictor) PredictProba(_ context.Context, rec models.FeatureRecord) (ml.Probability, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.last = rec
	if s.err != nil {
		return ml.Probability{}, s.err
	}
	return ml.NewProbability(s.battingP), nil
}

func (s *stubPredictor) Info() ml.ModelInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.infos++
	return s.info
}

func testCatalog(t *testing.T) *cricket.Catalog {
	t.Helper()
	c, err := cricket.LoadCatalog("../cricket/testdata/catalog.yaml")
	require.NoError(t, err)
	return c
}

func snapshot() models.MatchSnapshot {
	return models.MatchSnapshot{
		BattingTeam:   "Mumbai Indians",
		BowlingTeam:   "Delhi Daredevils",
		City:          "Mumbai",
		Target:        180,
		Score:         90,
		Overs:         10.0,
		WicketsFallen: 2,
	}
}

func TestPredictRejectsInvalidSnapshot(t *testing.T) {
	stub := &stubPredictor{battingP: 0.6}
	svc := NewPredictionService(stub, testCatalog(t), nil, ml.BackendLocal, quietLogger())
	defer svc.Close()

	tests := []struct {
		name   string
		mutate func(*models.MatchSnapshot)
		msg    string
	}{
		{"same teams", func(s *models.MatchSnapshot) { s.BowlingTeam = s.BattingTeam }, "Batting and bowling teams must be different."},
		{"alias of same team", func(s *models.MatchSnapshot) {
			s.BattingTeam = "Delhi Capitals"
		}, "Batting and bowling teams must be different."},
		{"unknown city", func(s *models.MatchSnapshot) { s.City = "Atlantis" }, `Unknown city "Atlantis".`},
		{"bad overs", func(s *models.MatchSnapshot) { s.Overs = 5.7 }, "Overs must use the overs.balls format with 0-5 balls in the current over."},
		{"zero target", func(s *models.MatchSnapshot) { s.Target = 0 }, "Target must be greater than 0."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := snapshot()
			tt.mutate(&snap)

			result, err := svc.Predict(context.Background(), snap)
			require.Error(t, err)
			assert.Nil(t, result)
			assert.ErrorIs(t, err, cricket.ErrInvalidSnapshot)

			var vErr *cricket.ValidationError
			require.True(t, errors.As(err, &vErr))
			assert.Equal(t, tt.msg, vErr.Message)
		})
	}
	assert.Equal(t, 0, stub.calls, "model must not be called for invalid input")
}

func TestPredictBaseFeatures(t *testing.T) {
	stub := &stubPredictor{battingP: 0.62, info: ml.ModelInfo{Name: "chase", Version: "v3"}}
	svc := NewPredictionService(stub, testCatalog(t), nil, ml.BackendLocal, quietLogger())
	defer svc.Close()

	result, err := svc.Predict(context.Background(), snapshot())
	require.NoError(t, err)

	assert.InDelta(t, 0.62, result.Probability.BattingWin, 1e-12)
	assert.InDelta(t, 0.38, result.Probability.BowlingWin, 1e-12)
	assert.Equal(t, "v3", result.ModelVersion)
	assert.False(t, result.Cached)
	assert.Equal(t, "Delhi Daredevils", result.Snapshot.BowlingTeam, "request is echoed unchanged")
	assert.Equal(t, "Delhi Capitals", result.Features.BowlingTeam, "model sees the current name")

	assert.Equal(t, 90, result.Features.RunsLeft)
	assert.Equal(t, 60, result.Features.BallsLeft)
	assert.Equal(t, 8, result.Features.Wickets)
	assert.InDelta(t, 9.0, result.Features.CurRunRate, 1e-12)
	assert.InDelta(t, 9.0, result.Features.ReqRunRate, 1e-12)

	assert.Equal(t, "62%", result.Insights.BattingPercent)
	assert.Contains(t, result.Insights.Badges, BadgeStrongBattingDepth)

	assert.Len(t, stub.last.Categorical, 3)
	assert.Len(t, stub.last.Numeric, 6)
	_, hasPhase := stub.last.Categorical[cricket.ColPhase]
	assert.False(t, hasPhase)
}

func TestPredictExtendedFeaturesUsePriors(t *testing.T) {
	stub := &stubPredictor{battingP: 0.4, info: ml.ModelInfo{
		Version:  "ext",
		Extended: true,
		Priors: cricket.Priors{
			TeamStrength:   map[string]float64{"Mumbai Indians": 0.6, "Delhi Capitals": 0.45},
			VenueChaseBias: map[string]float64{"Mumbai": 0.55},
		},
	}}
	svc := NewPredictionService(stub, testCatalog(t), nil, ml.BackendLocal, quietLogger())
	defer svc.Close()

	result, err := svc.Predict(context.Background(), snapshot())
	require.NoError(t, err)

	assert.Equal(t, cricket.PhaseMiddle, result.Features.Phase)
	assert.InDelta(t, 0.15, result.Features.StrengthDiff, 1e-12)
	assert.InDelta(t, 0.55, result.Features.VenueChaseBias, 1e-12)
	assert.Equal(t, string(cricket.PhaseMiddle), stub.last.Categorical[cricket.ColPhase])
	assert.InDelta(t, 0.15, stub.last.Numeric[cricket.ColStrengthDiff], 1e-12)
	assert.Equal(t, 1, stub.infos, "model info read once per prediction")
}

func TestPredictModelError(t *testing.T) {
	stub := &stubPredictor{err: ml.ErrModelNotLoaded}
	svc := NewPredictionService(stub, nil, nil, ml.BackendLocal, quietLogger())
	defer svc.Close()

	_, err := svc.Predict(context.Background(), snapshot())
	assert.ErrorIs(t, err, ml.ErrModelNotLoaded)
}

func TestPredictUsesCache(t *testing.T) {
	stub := &stubPredictor{battingP: 0.7, info: ml.ModelInfo{Version: "v1"}}
	cached := ml.NewCachedPredictor(stub, ml.NewPredictionCache(time.Minute, 100), ml.BackendLocal, quietLogger())
	svc := NewPredictionService(cached, testCatalog(t), nil, ml.BackendLocal, quietLogger())
	defer svc.Close()

	first, err := svc.Predict(context.Background(), snapshot())
	require.NoError(t, err)
	second, err := svc.Predict(context.Background(), snapshot())
	require.NoError(t, err)

	assert.False(t, first.Cached)
	assert.True(t, second.Cached)
	assert.Equal(t, 1, stub.calls)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestPredictionLog(t *testing.T) {
	stub := &stubPredictor{battingP: 0.3, info: ml.ModelInfo{Name: "chase", Version: "v2"}}
	repo := repository.NewMemoryPredictionRepository(10)
	svc := NewPredictionService(stub, testCatalog(t), repo, ml.BackendLocal, quietLogger())

	result, err := svc.Predict(context.Background(), snapshot())
	require.NoError(t, err)
	svc.Close()

	logged, err := repo.GetByID(context.Background(), result.ID)
	require.NoError(t, err)
	assert.Equal(t, "Delhi Capitals", logged.BowlingTeam)
	assert.Equal(t, "v2", logged.ModelVersion)
	assert.InDelta(t, 0.3, logged.BattingWinProbability, 1e-12)

	runsLeft, err := logged.GetFeature("runs_left")
	require.NoError(t, err)
	assert.Equal(t, 90.0, runsLeft)

	recent, err := svc.Recent(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, recent, 1)
}

func TestPredictAfterClose(t *testing.T) {
	stub := &stubPredictor{battingP: 0.6, info: ml.ModelInfo{Version: "v1"}}
	repo := repository.NewMemoryPredictionRepository(10)
	svc := NewPredictionService(stub, testCatalog(t), repo, ml.BackendLocal, quietLogger())

	_, err := svc.Predict(context.Background(), snapshot())
	require.NoError(t, err)
	svc.Close()

	var result *PredictionResult
	assert.NotPanics(t, func() {
		result, err = svc.Predict(context.Background(), snapshot())
	})
	require.NoError(t, err)
	assert.InDelta(t, 0.6, result.Probability.BattingWin, 1e-12)
	assert.NotPanics(t, svc.Close)

	recent, err := svc.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, recent, 1)
}

func TestConcurrentPredictAndClose(t *testing.T) {
	stub := &stubPredictor{battingP: 0.5}
	repo := repository.NewMemoryPredictionRepository(100)
	svc := NewPredictionService(stub, nil, repo, ml.BackendLocal, quietLogger())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				_, _ = svc.Predict(context.Background(), snapshot())
			}
		}()
	}
	svc.Close()
	wg.Wait()
	svc.Close()
}

func TestRecentLimit(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{"zero uses default", 0, DefaultRecentLimit},
		{"negative uses default", -3, DefaultRecentLimit},
		{"within range", 120, 120},
		{"at max", MaxRecentLimit, MaxRecentLimit},
		{"above max clamps", 10000, MaxRecentLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RecentLimit(tt.limit))
		})
	}
}

type limitRecorder struct {
	repository.PredictionRepository
	limit int
}

func (r *limitRecorder) GetRecent(_ context.Context, limit int) ([]*models.Prediction, error) {
	r.limit = limit
	return nil, nil
}

func TestRecentClampsLimit(t *testing.T) {
	repo := &limitRecorder{PredictionRepository: repository.NewMemoryPredictionRepository(1)}
	svc := NewPredictionService(&stubPredictor{}, nil, repo, ml.BackendLocal, quietLogger())
	defer svc.Close()

	_, err := svc.Recent(context.Background(), 501)
	require.NoError(t, err)
	assert.Equal(t, MaxRecentLimit, repo.limit)
}

func TestRecentWithoutRepository(t *testing.T) {
	svc := NewPredictionService(&stubPredictor{}, nil, nil, ml.BackendLocal, quietLogger())
	defer svc.Close()

	_, err := svc.Recent(context.Background(), 10)
	assert.ErrorIs(t, err, ErrPredictionLogDisabled)
}

func TestStatsService(t *testing.T) {
	_, err := NewStatsService("", nil, quietLogger()).Summary()
	assert.ErrorIs(t, err, ErrStatsUnavailable)

	stats := NewStatsService("../training/testdata/matches.csv", testCatalog(t), quietLogger())
	summary, err := stats.Summary()
	require.NoError(t, err)
	assert.Equal(t, 13, summary.TotalMatches)
	assert.NotEmpty(t, summary.TeamRecords)

	again, err := stats.Summary()
	require.NoError(t, err)
	assert.Equal(t, summary.TotalMatches, again.TotalMatches)

	_, err = NewStatsService("missing.csv", nil, quietLogger()).Summary()
	assert.Error(t, err)
}
