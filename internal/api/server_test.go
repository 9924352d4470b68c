package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/ipl-winprob/internal/config"
	"github.com/yourusername/ipl-winprob/internal/cricket"
	"github.com/yourusername/ipl-winprob/internal/ml"
	"github.com/yourusername/ipl-winprob/internal/models"
	"github.com/yourusername/ipl-winprob/internal/repository"
	"github.com/yourusername/ipl-winprob/internal/service"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func testModel(t *testing.T) *ml.LocalModel {
	t.Helper()
	m, err := ml.NewLocalModel(&ml.Artifact{
		Name:    "chase",
		Version: "test-1",
		Kind:    ml.KindLogistic,
		Categorical: []ml.CategoricalColumn{
			{Name: cricket.ColBattingTeam, Categories: []string{"Chennai Super Kings", "Mumbai Indians"}},
		},
		Numeric:   []string{cricket.ColRunsLeft, cricket.ColBallsLeft, cricket.ColWickets},
		Weights:   []float64{0.2, -0.2, -0.05, 0.02, 0.1},
		Intercept: 0,
		TrainedAt: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
	}, "memory")
	require.NoError(t, err)
	return m
}

type testEnv struct {
	ts   *httptest.Server
	srv  *Server
	repo *repository.MemoryPredictionRepository
}

func newTestEnv(t *testing.T, predictor ml.Predictor, mutate func(*config.Config)) *testEnv {
	t.Helper()

	cfg := &config.Config{
		Server: config.ServerConfig{
			AllowedOrigins:  []string{"*"},
			EnableWebsocket: true,
			APIKey:          "secret",
		},
		Metrics: config.MetricsConfig{Enabled: true, Path: "/metrics"},
	}
	if mutate != nil {
		mutate(cfg)
	}

	catalog, err := cricket.LoadCatalog("../cricket/testdata/catalog.yaml")
	require.NoError(t, err)

	repo := repository.NewMemoryPredictionRepository(100)
	predictions := service.NewPredictionService(predictor, catalog, repo, ml.BackendLocal, quietLogger())
	t.Cleanup(predictions.Close)

	srv, err := NewServer(cfg, Dependencies{
		Predictions: predictions,
		Stats:       service.NewStatsService(cfg.Data.MatchesPath, catalog, quietLogger()),
		Predictor:   predictor,
	}, quietLogger())
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return &testEnv{ts: ts, srv: srv, repo: repo}
}

func (e *testEnv) post(t *testing.T, path string, body interface{}, headers map[string]string) (*http.Response, []byte) {
	t.Helper()
	var raw []byte
	switch b := body.(type) {
	case string:
		raw = []byte(b)
	default:
		var err error
		raw, err = json.Marshal(b)
		require.NoError(t, err)
	}

	req, err := http.NewRequest(http.MethodPost, e.ts.URL+path, bytes.NewReader(raw))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func (e *testEnv) get(t *testing.T, path string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(e.ts.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func validSnapshot() models.MatchSnapshot {
	return models.MatchSnapshot{
		BattingTeam:   "Mumbai Indians",
		BowlingTeam:   "Chennai Super Kings",
		City:          "Mumbai",
		Target:        180,
		Score:         100,
		Overs:         12.3,
		WicketsFallen: 3,
	}
}

func TestPredictEndpoint(t *testing.T) {
	env := newTestEnv(t, testModel(t), nil)

	resp, body := env.post(t, "/api/v1/predict", validSnapshot(), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var got PredictResponse
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "Mumbai Indians", got.BattingTeam)
	assert.InDelta(t, 1.0, got.BattingWinProbability+got.BowlingWinProbability, 1e-9)
	require.Len(t, got.Probabilities, 2)
	assert.InDelta(t, got.BowlingWinProbability, got.Probabilities[0], 1e-12)
	assert.Equal(t, 80, got.Features.RunsLeft)
	assert.Equal(t, 45, got.Features.BallsLeft)
	assert.Equal(t, 7, got.Features.Wickets)
	assert.Equal(t, cricket.PhaseMiddle, got.Features.Phase)
	assert.Equal(t, "test-1", got.ModelVersion)
	assert.NotEmpty(t, got.Commentary)
	assert.True(t, strings.HasSuffix(got.BattingPercent, "%"))

	assert.Eventually(t, func() bool {
		n, _ := env.repo.CountByModelVersion(context.Background(), "test-1")
		return n == 1
	}, 2*time.Second, 20*time.Millisecond)

	resp, body = env.get(t, "/api/v1/predictions?limit=5")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var listed struct {
		Predictions []models.Prediction `json:"predictions"`
		Limit       int                 `json:"limit"`
	}
	require.NoError(t, json.Unmarshal(body, &listed))
	assert.Equal(t, 5, listed.Limit)
	require.Len(t, listed.Predictions, 1)
	assert.Equal(t, got.ID, listed.Predictions[0].ID)
}

func TestRecentPredictionsLimitIsClamped(t *testing.T) {
	env := newTestEnv(t, testModel(t), nil)

	resp, body := env.get(t, "/api/v1/predictions?limit=100000")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var listed struct {
		Limit int `json:"limit"`
	}
	require.NoError(t, json.Unmarshal(body, &listed))
	assert.Equal(t, service.MaxRecentLimit, listed.Limit)
}

func TestServerShutdownBeforeStart(t *testing.T) {
	env := newTestEnv(t, testModel(t), nil)

	require.NoError(t, env.srv.Shutdown(context.Background()))
	assert.NoError(t, env.srv.Start())
}

func TestServerStartAndShutdownConcurrently(t *testing.T) {
	env := newTestEnv(t, testModel(t), nil)

	errCh := make(chan error, 1)
	go func() {
		errCh <- env.srv.Start()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, env.srv.Shutdown(ctx))

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after Shutdown")
	}
}

func TestPredictRejections(t *testing.T) {
	env := newTestEnv(t, testModel(t), nil)

	sameTeams := validSnapshot()
	sameTeams.BowlingTeam = sameTeams.BattingTeam
	badOvers := validSnapshot()
	badOvers.Overs = 12.6
	missingTeam := validSnapshot()
	missingTeam.BattingTeam = ""
	hugeTarget := validSnapshot()
	hugeTarget.Target = 2e18

	tests := []struct {
		name    string
		body    interface{}
		status  int
		message string
	}{
		{"same teams", sameTeams, http.StatusUnprocessableEntity, "Batting and bowling teams must be different."},
		{"six balls in over", badOvers, http.StatusUnprocessableEntity, "Overs must use the overs.balls format with 0-5 balls in the current over."},
		{"missing team", missingTeam, http.StatusBadRequest, "batting_team is required"},
		{"malformed json", `{"batting_team":`, http.StatusBadRequest, "invalid JSON body"},
		{"target beyond an innings", hugeTarget, http.StatusBadRequest, "target is lte"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := env.post(t, "/api/v1/predict", tt.body, nil)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Contains(t, string(body), tt.message)
			if tt.status == http.StatusUnprocessableEntity {
				var vr cricket.ValidationResult
				require.NoError(t, json.Unmarshal(body, &vr))
				assert.False(t, vr.Valid)
			}
		})
	}
}

func TestFeaturesEndpoint(t *testing.T) {
	env := newTestEnv(t, testModel(t), nil)

	resp, body := env.post(t, "/api/v1/features", validSnapshot(), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var f cricket.Features
	require.NoError(t, json.Unmarshal(body, &f))
	assert.Equal(t, 180, f.TotalRunsX)
	assert.InDelta(t, 100.0*6/75, f.CurRunRate, 1e-9)
	assert.InDelta(t, 80.0*6/45, f.ReqRunRate, 1e-9)
}

func TestScoreEndpointServesRemotePredictor(t *testing.T) {
	local := testModel(t)
	env := newTestEnv(t, local, nil)

	rec := cricket.FeatureRow{BattingTeam: "Mumbai Indians", RunsLeft: 40, BallsLeft: 30, Wickets: 6}.Record()

	resp, _ := env.post(t, ml.ScorePath, ml.ScoreRequest{Features: rec}, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body := env.post(t, ml.ScorePath, ml.ScoreRequest{}, map[string]string{"X-API-Key": "secret"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, string(body))

	remote := ml.NewHTTPPredictor(env.ts.URL, "secret", ml.DefaultHTTPClientConfig(), quietLogger())
	defer remote.Close()

	ctx := context.Background()
	require.NoError(t, remote.Refresh(ctx))
	assert.Equal(t, "test-1", remote.Info().Version)

	got, err := remote.PredictProba(ctx, rec)
	require.NoError(t, err)
	want, err := local.PredictProba(ctx, rec)
	require.NoError(t, err)
	assert.InDelta(t, want.BattingWin, got.BattingWin, 1e-12)
}

func TestCatalogAndModelEndpoints(t *testing.T) {
	env := newTestEnv(t, testModel(t), nil)

	resp, body := env.get(t, "/api/v1/teams")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var teams struct {
		Teams []cricket.Team `json:"teams"`
	}
	require.NoError(t, json.Unmarshal(body, &teams))
	require.NotEmpty(t, teams.Teams)
	assert.Equal(t, "Chennai Super Kings", teams.Teams[0].Name)

	resp, body = env.get(t, "/api/v1/venues")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "Mumbai")

	resp, body = env.get(t, "/api/v1/model")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var info ml.ModelInfo
	require.NoError(t, json.Unmarshal(body, &info))
	assert.Equal(t, "test-1", info.Version)
	assert.Equal(t, ml.KindLogistic, info.Kind)

	resp, _ = env.get(t, "/metrics")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestStatsEndpoint(t *testing.T) {
	env := newTestEnv(t, testModel(t), nil)
	resp, _ := env.get(t, "/api/v1/stats")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	env = newTestEnv(t, testModel(t), func(c *config.Config) {
		c.Data.MatchesPath = "../training/testdata/matches.csv"
	})
	resp, body := env.get(t, "/api/v1/stats")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"total_matches":13`)
}

func TestModelNotLoaded(t *testing.T) {
	holder := ml.NewModelHolder("missing.json", quietLogger())
	env := newTestEnv(t, holder, nil)

	resp, _ := env.post(t, "/api/v1/predict", validSnapshot(), nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	resp, _ = env.get(t, "/api/v1/model")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestRateLimit(t *testing.T) {
	env := newTestEnv(t, testModel(t), func(c *config.Config) {
		c.Server.RateLimitPerSecond = 0.001
		c.Server.RateLimitBurst = 1
	})

	resp, _ := env.get(t, "/api/v1/venues")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = env.get(t, "/api/v1/venues")
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "1", resp.Header.Get("Retry-After"))
}

func TestRecentPredictionsBadLimit(t *testing.T) {
	env := newTestEnv(t, testModel(t), nil)
	resp, _ := env.get(t, "/api/v1/predictions?limit=abc")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestWebSocketPredict(t *testing.T) {
	env := newTestEnv(t, testModel(t), nil)

	url := "ws" + strings.TrimPrefix(env.ts.URL, "http") + "/ws/predict"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(validSnapshot()))
	var reply WSReply
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, http.StatusOK, reply.Status)
	require.NotNil(t, reply.Prediction)
	assert.Equal(t, "Mumbai Indians", reply.Prediction.BattingTeam)

	invalid := validSnapshot()
	invalid.WicketsFallen = 11
	require.NoError(t, conn.WriteJSON(invalid))
	reply = WSReply{}
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, http.StatusUnprocessableEntity, reply.Status)
	require.NotNil(t, reply.Valid)
	assert.False(t, *reply.Valid)
	assert.Equal(t, "Wickets must be between 0 and 10.", reply.Error)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	reply = WSReply{}
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, http.StatusBadRequest, reply.Status)
}

func TestWebSocketDisabled(t *testing.T) {
	env := newTestEnv(t, testModel(t), func(c *config.Config) {
		c.Server.EnableWebsocket = false
	})
	resp, _ := env.get(t, "/ws/predict")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
