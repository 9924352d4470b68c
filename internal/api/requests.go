package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/yourusername/ipl-winprob/internal/cricket"
	"github.com/yourusername/ipl-winprob/internal/service"
)

const maxBodyBytes = 1 << 20

// PredictResponse is returned by /api/v1/predict and each websocket reply
type PredictResponse struct {
	ID                    uuid.UUID        `json:"id"`
	BattingTeam           string           `json:"batting_team"`
	BowlingTeam           string           `json:"bowling_team"`
	BattingWinProbability float64          `json:"batting_win_probability"`
	BowlingWinProbability float64          `json:"bowling_win_probability"`
	Probabilities         []float64        `json:"probabilities"`
	BattingPercent        string           `json:"batting_percent"`
	BowlingPercent        string           `json:"bowling_percent"`
	Features              cricket.Features `json:"features"`
	Commentary            string           `json:"commentary"`
	Badges                []string         `json:"badges"`
	ModelVersion          string           `json:"model_version"`
	Cached                bool             `json:"cached"`
	PredictedAt           time.Time        `json:"predicted_at"`
}

func newPredictResponse(r *service.PredictionResult) PredictResponse {
	return PredictResponse{
		ID:                    r.ID,
		BattingTeam:           r.Snapshot.BattingTeam,
		BowlingTeam:           r.Snapshot.BowlingTeam,
		BattingWinProbability: r.Probability.BattingWin,
		BowlingWinProbability: r.Probability.BowlingWin,
		Probabilities:         r.Probability.Vector(),
		BattingPercent:        r.Insights.BattingPercent,
		BowlingPercent:        r.Insights.BowlingPercent,
		Features:              r.Features,
		Commentary:            r.Insights.Commentary,
		Badges:                r.Insights.Badges,
		ModelVersion:          r.ModelVersion,
		Cached:                r.Cached,
		PredictedAt:           r.PredictedAt,
	}
}

// ErrorResponse is the body of every non-validation error
type ErrorResponse struct {
	Error string `json:"error"`
}

// newRequestValidator reports field errors by their JSON names
func newRequestValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeJSON reads a size-limited JSON body into dst and runs struct validation
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return s.validateStruct(dst)
}

func (s *Server) validateStruct(v interface{}) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fmt.Sprintf("%s is %s", fe.Field(), fe.Tag()))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}
