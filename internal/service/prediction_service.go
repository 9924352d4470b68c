// Package service orchestrates chase predictions: validation, feature derivation,
// model invocation, insights and the prediction log.
package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/ipl-winprob/internal/cricket"
	"github.com/yourusername/ipl-winprob/internal/logger"
	"github.com/yourusername/ipl-winprob/internal/metrics"
	"github.com/yourusername/ipl-winprob/internal/ml"
	"github.com/yourusername/ipl-winprob/internal/models"
	"github.com/yourusername/ipl-winprob/internal/repository"
	"github.com/yourusername/ipl-winprob/internal/tracing"
)

// Prediction log listing limits
const (
	DefaultRecentLimit = 50
	MaxRecentLimit     = 500
)

// RecentLimit returns the listing size actually served for a requested limit
func RecentLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultRecentLimit
	case limit > MaxRecentLimit:
		return MaxRecentLimit
	default:
		return limit
	}
}

// PredictionResult is a served prediction with the features it was derived from
type PredictionResult struct {
	ID           uuid.UUID            `json:"id"`
	Snapshot     models.MatchSnapshot `json:"snapshot"`
	Probability  ml.Probability       `json:"probability"`
	Features     cricket.Features     `json:"features"`
	Insights     Insights             `json:"insights"`
	ModelName    string               `json:"model_name"`
	ModelVersion string               `json:"model_version"`
	Cached       bool                 `json:"cached"`
	PredictedAt  time.Time            `json:"predicted_at"`
}

// PredictionService turns match snapshots into win probabilities
type PredictionService struct {
	predictor      ml.Predictor
	catalog        *cricket.Catalog
	predictionRepo repository.PredictionRepository
	backend        string
	predLog        *logger.PredictionLogger
	audit          *logger.AuditLogger
	logger         *logrus.Logger
	persistTimeout time.Duration

	mu      sync.Mutex
	closed  bool
	persist chan *models.Prediction
	done    chan struct{}
}

// NewPredictionService creates a prediction service. catalog and predictionRepo may
// be nil; without a catalog team and city membership is not checked, and without a
// repository predictions are not logged.
func NewPredictionService(
	predictor ml.Predictor,
	catalog *cricket.Catalog,
	predictionRepo repository.PredictionRepository,
	backend string,
	log *logrus.Logger,
) *PredictionService {
	s := &PredictionService{
		predictor:      predictor,
		catalog:        catalog,
		predictionRepo: predictionRepo,
		backend:        backend,
		predLog:        logger.NewPredictionLogger(log),
		audit:          logger.NewAuditLogger(log),
		logger:         log,
		persistTimeout: 5 * time.Second,
		done:           make(chan struct{}),
	}

	if predictionRepo != nil {
		s.persist = make(chan *models.Prediction, 256)
		go s.persistLoop()
	} else {
		close(s.done)
	}
	return s
}

// Catalog returns the team and venue catalog, nil when none is configured
func (s *PredictionService) Catalog() *cricket.Catalog {
	return s.catalog
}

// ModelInfo describes the serving model
func (s *PredictionService) ModelInfo() ml.ModelInfo {
	return s.predictor.Info()
}

// Validate checks a snapshot, recording rejections
func (s *PredictionService) Validate(snapshot models.MatchSnapshot) error {
	result := cricket.Validate(snapshot, s.catalog)
	if result.Valid {
		return nil
	}
	s.audit.LogValidationRejected(snapshot.BattingTeam, snapshot.BowlingTeam, result.Message)
	metrics.RecordValidationRejection()
	return result.Err()
}

// DeriveFeatures validates a snapshot and returns the row the model would score
func (s *PredictionService) DeriveFeatures(snapshot models.MatchSnapshot) (cricket.Features, error) {
	return s.derive(snapshot, s.predictor.Info())
}

func (s *PredictionService) derive(snapshot models.MatchSnapshot, info ml.ModelInfo) (cricket.Features, error) {
	if err := s.Validate(snapshot); err != nil {
		return cricket.Features{}, err
	}
	return cricket.DeriveExtended(s.canonical(snapshot), info.Priors)
}

// canonical maps historical team names to the names the model was trained on
func (s *PredictionService) canonical(snapshot models.MatchSnapshot) models.MatchSnapshot {
	if s.catalog == nil {
		return snapshot
	}
	snapshot.BattingTeam = s.catalog.Canonical(snapshot.BattingTeam)
	snapshot.BowlingTeam = s.catalog.Canonical(snapshot.BowlingTeam)
	return snapshot
}

// Predict validates the snapshot, scores it and logs the prediction. Invalid input
// returns a *cricket.ValidationError and the model is not called.
func (s *PredictionService) Predict(ctx context.Context, snapshot models.MatchSnapshot) (*PredictionResult, error) {
	start := time.Now()

	info := s.predictor.Info()
	features, err := s.derive(snapshot, info)
	if err != nil {
		return nil, err
	}

	rec := features.FeatureRow.Record()
	if info.Extended {
		rec = features.Record()
	}

	ctx, done := tracing.StartSubsegment(ctx, "predict")
	p, cached, err := s.score(ctx, rec)
	done(err)
	if err != nil {
		s.predLog.LogPredictionError(s.backend, err)
		return nil, err
	}
	tracing.AddAnnotation(ctx, "model_version", info.Version)

	canon := s.canonical(snapshot)
	result := &PredictionResult{
		ID:           uuid.New(),
		Snapshot:     snapshot,
		Probability:  p,
		Features:     features,
		Insights:     BuildInsights(canon.BattingTeam, canon.BowlingTeam, p, features.FeatureRow),
		ModelName:    info.Name,
		ModelVersion: info.Version,
		Cached:       cached,
		PredictedAt:  time.Now().UTC(),
	}

	latency := time.Since(start)
	s.predLog.LogPrediction(canon.BattingTeam, canon.BowlingTeam, p.BattingWin, info.Version, cached, float64(latency.Microseconds())/1000)
	metrics.RecordPrediction(p.BattingWin)
	s.enqueue(result)

	return result, nil
}

func (s *PredictionService) score(ctx context.Context, rec models.FeatureRecord) (ml.Probability, bool, error) {
	if cp, ok := s.predictor.(ml.CachingPredictor); ok {
		return cp.PredictCached(ctx, rec)
	}
	p, err := s.predictor.PredictProba(ctx, rec)
	return p, false, err
}

// enqueue hands the prediction to the log writer without blocking the request.
// A full queue drops the entry, as does a closed service.
func (s *PredictionService) enqueue(r *PredictionResult) {
	if s.persist == nil {
		return
	}

	featureJSON, err := json.Marshal(r.Features)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to encode prediction features")
		featureJSON = nil
	}

	pred := &models.Prediction{
		ID:                    r.ID,
		BattingTeam:           r.Features.BattingTeam,
		BowlingTeam:           r.Features.BowlingTeam,
		City:                  r.Snapshot.City,
		Target:                r.Snapshot.Target,
		Score:                 r.Snapshot.Score,
		Overs:                 r.Snapshot.Overs,
		WicketsFallen:         r.Snapshot.WicketsFallen,
		BattingWinProbability: r.Probability.BattingWin,
		BowlingWinProbability: r.Probability.BowlingWin,
		ModelName:             r.ModelName,
		ModelVersion:          r.ModelVersion,
		Features:              featureJSON,
		PredictedAt:           r.PredictedAt,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		s.logger.WithField("prediction_id", r.ID).Debug("Prediction log closed, dropping entry")
		return
	}
	select {
	case s.persist <- pred:
	default:
		metrics.RecordPredictionLogFailure()
		s.logger.WithField("prediction_id", r.ID).Warn("Prediction log queue full, dropping entry")
	}
}

func (s *PredictionService) persistLoop() {
	defer close(s.done)
	for pred := range s.persist {
		ctx, cancel := context.WithTimeout(context.Background(), s.persistTimeout)
		if err := s.predictionRepo.Create(ctx, pred); err != nil {
			metrics.RecordPredictionLogFailure()
			s.logger.WithError(err).WithField("prediction_id", pred.ID).Error("Failed to log prediction")
		}
		cancel()
	}
}

// Recent returns the latest logged predictions
func (s *PredictionService) Recent(ctx context.Context, limit int) ([]*models.Prediction, error) {
	if s.predictionRepo == nil {
		return nil, ErrPredictionLogDisabled
	}
	return s.predictionRepo.GetRecent(ctx, RecentLimit(limit))
}

// Close flushes queued predictions to the log. It is safe to call more than once;
// predictions served afterwards are not logged.
func (s *PredictionService) Close() {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		if s.persist != nil {
			close(s.persist)
		}
	}
	s.mu.Unlock()
	<-s.done
}
