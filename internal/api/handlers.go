package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/yourusername/ipl-winprob/internal/cricket"
	"github.com/yourusername/ipl-winprob/internal/ml"
	"github.com/yourusername/ipl-winprob/internal/models"
	"github.com/yourusername/ipl-winprob/internal/service"
)

// predictionStatus maps a prediction failure to an HTTP status and message
func predictionStatus(err error) (int, interface{}) {
	var vErr *cricket.ValidationError
	switch {
	case errors.As(err, &vErr):
		return http.StatusUnprocessableEntity, cricket.ValidationResult{Valid: false, Message: vErr.Message}
	case errors.Is(err, ml.ErrModelNotLoaded), errors.Is(err, ml.ErrRemoteUnavailable):
		return http.StatusServiceUnavailable, ErrorResponse{Error: err.Error()}
	case errors.Is(err, ml.ErrFeatureMismatch):
		return http.StatusBadRequest, ErrorResponse{Error: err.Error()}
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, ErrorResponse{Error: "prediction timed out"}
	default:
		return http.StatusInternalServerError, ErrorResponse{Error: "prediction failed"}
	}
}

func (s *Server) writePredictionError(w http.ResponseWriter, err error) {
	status, body := predictionStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.WithError(err).Error("Prediction failed")
	}
	writeJSON(w, status, body)
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	var snapshot models.MatchSnapshot
	if err := s.decodeJSON(w, r, &snapshot); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.predictions.Predict(r.Context(), snapshot)
	if err != nil {
		s.writePredictionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newPredictResponse(result))
}

func (s *Server) handleFeatures(w http.ResponseWriter, r *http.Request) {
	var snapshot models.MatchSnapshot
	if err := s.decodeJSON(w, r, &snapshot); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	features, err := s.predictions.DeriveFeatures(snapshot)
	if err != nil {
		s.writePredictionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, features)
}

// handleScore scores a raw feature record. It is the endpoint remote HTTP
// predictors call.
func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	var req ml.ScoreRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.Features.Categorical) == 0 && len(req.Features.Numeric) == 0 {
		writeError(w, http.StatusBadRequest, "features are required")
		return
	}

	p, err := s.predictor.PredictProba(r.Context(), req.Features)
	if err != nil {
		s.writePredictionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ml.ScoreResponse{
		Probabilities: p.Vector(),
		ModelVersion:  s.predictor.Info().Version,
	})
}

func (s *Server) handleTeams(w http.ResponseWriter, r *http.Request) {
	catalog := s.predictions.Catalog()
	if catalog == nil {
		writeError(w, http.StatusNotFound, "no team catalog configured")
		return
	}

	teams := make([]cricket.Team, 0, len(catalog.Teams))
	for _, name := range catalog.TeamNames() {
		t, _ := catalog.Team(name)
		teams = append(teams, t)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"teams": teams})
}

func (s *Server) handleVenues(w http.ResponseWriter, r *http.Request) {
	catalog := s.predictions.Catalog()
	if catalog == nil {
		writeError(w, http.StatusNotFound, "no venue catalog configured")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"cities": catalog.SortedCities()})
}

func (s *Server) handleModel(w http.ResponseWriter, r *http.Request) {
	info := s.predictor.Info()
	if info.Version == "" {
		writeError(w, http.StatusServiceUnavailable, ml.ErrModelNotLoaded.Error())
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	summary, err := s.stats.Summary()
	switch {
	case errors.Is(err, service.ErrStatsUnavailable):
		writeError(w, http.StatusNotFound, err.Error())
	case err != nil:
		s.logger.WithError(err).Error("Failed to compute statistics")
		writeError(w, http.StatusInternalServerError, "failed to compute statistics")
	default:
		writeJSON(w, http.StatusOK, summary)
	}
}

func (s *Server) handleRecentPredictions(w http.ResponseWriter, r *http.Request) {
	limit := service.DefaultRecentLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = service.RecentLimit(n)
	}

	predictions, err := s.predictions.Recent(r.Context(), limit)
	switch {
	case errors.Is(err, service.ErrPredictionLogDisabled):
		writeError(w, http.StatusNotFound, err.Error())
	case err != nil:
		s.logger.WithError(err).Error("Failed to list predictions")
		writeError(w, http.StatusInternalServerError, "failed to list predictions")
	default:
		if predictions == nil {
			predictions = []*models.Prediction{}
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"predictions": predictions,
			"limit":       limit,
		})
	}
}
