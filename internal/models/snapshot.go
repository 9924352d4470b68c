package models

// MatchSnapshot is the live state of a second-innings chase. It is built fresh for
// every prediction request and never mutated afterwards.
type MatchSnapshot struct {
	BattingTeam   string  `json:"batting_team" validate:"required"`
	BowlingTeam   string  `json:"bowling_team" validate:"required"`
	City          string  `json:"city" validate:"required"`
	Target        int     `json:"target" validate:"lte=720"`
	Score         int     `json:"score" validate:"lte=820"`
	Overs         float64 `json:"overs"`
	WicketsFallen int     `json:"wickets_fallen"`
}

// FeatureRecord is a model-agnostic single row handed to a predictor.
// Categorical and numeric columns are kept apart so encoders can one-hot the former.
type FeatureRecord struct {
	Categorical map[string]string  `json:"categorical"`
	Numeric     map[string]float64 `json:"numeric"`
}

// NewFeatureRecord returns an empty record ready to be filled.
func NewFeatureRecord() FeatureRecord {
	return FeatureRecord{
		Categorical: make(map[string]string),
		Numeric:     make(map[string]float64),
	}
}
