package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Prediction is a served win-probability prediction as stored in the prediction log
type Prediction struct {
	ID                    uuid.UUID       `db:"id" json:"id"`
	BattingTeam           string          `db:"batting_team" json:"batting_team"`
	BowlingTeam           string          `db:"bowling_team" json:"bowling_team"`
	City                  string          `db:"city" json:"city"`
	Target                int             `db:"target" json:"target"`
	Score                 int             `db:"score" json:"score"`
	Overs                 float64         `db:"overs" json:"overs"`
	WicketsFallen         int             `db:"wickets_fallen" json:"wickets_fallen"`
	BattingWinProbability float64         `db:"batting_win_probability" json:"batting_win_probability"`
	BowlingWinProbability float64         `db:"bowling_win_probability" json:"bowling_win_probability"`
	ModelName             string          `db:"model_name" json:"model_name"`
	ModelVersion          string          `db:"model_version" json:"model_version"`
	Features              json.RawMessage `db:"features" json:"features"`
	PredictedAt           time.Time       `db:"predicted_at" json:"predicted_at"`
}

// GetFeature retrieves a feature value from the Features JSON
func (p *Prediction) GetFeature(name string) (interface{}, error) {
	if p.Features == nil {
		return nil, nil
	}

	var features map[string]interface{}
	if err := json.Unmarshal(p.Features, &features); err != nil {
		return nil, err
	}

	return features[name], nil
}

// Favourite returns the team with the higher win probability. Ties go to the batting side.
func (p *Prediction) Favourite() string {
	if p.BowlingWinProbability > p.BattingWinProbability {
		return p.BowlingTeam
	}
	return p.BattingTeam
}
