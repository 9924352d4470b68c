package cricket

import (
	"github.com/yourusername/ipl-winprob/internal/models"
)

// Column names of the base feature row. The order is the contract the model was
// trained against.
const (
	ColBattingTeam = "batting_team"
	ColBowlingTeam = "bowling_team"
	ColCity        = "city"
	ColRunsLeft    = "runs_left"
	ColBallsLeft   = "balls_left"
	ColWickets     = "wickets"
	ColTotalRunsX  = "total_runs_x"
	ColCurRunRate  = "cur_run_rate"
	ColReqRunRate  = "req_run_rate"

	ColPhase          = "phase"
	ColPressure       = "pressure"
	ColStrengthDiff   = "strength_diff"
	ColVenueChaseBias = "venue_chase_bias"
)

// FeatureColumns lists the base row in model order
var FeatureColumns = []string{
	ColBattingTeam, ColBowlingTeam, ColCity,
	ColRunsLeft, ColBallsLeft, ColWickets, ColTotalRunsX, ColCurRunRate, ColReqRunRate,
}

// ExtendedColumns are appended by DeriveExtended
var ExtendedColumns = []string{ColPhase, ColPressure, ColStrengthDiff, ColVenueChaseBias}

// CategoricalColumns are one-hot encoded by models
var CategoricalColumns = []string{ColBattingTeam, ColBowlingTeam, ColCity, ColPhase}

// FeatureRow is the derived record for one snapshot. Field order matches FeatureColumns.
type FeatureRow struct {
	BattingTeam string  `json:"batting_team"`
	BowlingTeam string  `json:"bowling_team"`
	City        string  `json:"city"`
	RunsLeft    int     `json:"runs_left"`
	BallsLeft   int     `json:"balls_left"`
	Wickets     int     `json:"wickets"`
	TotalRunsX  int     `json:"total_runs_x"`
	CurRunRate  float64 `json:"cur_run_rate"`
	ReqRunRate  float64 `json:"req_run_rate"`
}

// Derive computes the base feature row. It is pure; the only failure is overs that
// are not overs.balls notation. Rates default to 0 instead of dividing by zero and
// are left unclamped, so a chase that is already won has a negative required rate.
func Derive(s models.MatchSnapshot) (FeatureRow, error) {
	overs, err := ParseOvers(s.Overs)
	if err != nil {
		return FeatureRow{}, err
	}
	return deriveFromOvers(s, overs), nil
}

func deriveFromOvers(s models.MatchSnapshot, overs Overs) FeatureRow {
	bowled := overs.BallsBowled()
	ballsLeft := InningsBalls - bowled
	runsLeft := s.Target - s.Score

	var cur, req float64
	if bowled > 0 {
		cur = float64(s.Score*BallsPerOver) / float64(bowled)
	}
	if ballsLeft > 0 {
		req = float64(runsLeft*BallsPerOver) / float64(ballsLeft)
	}

	return FeatureRow{
		BattingTeam: s.BattingTeam,
		BowlingTeam: s.BowlingTeam,
		City:        s.City,
		RunsLeft:    runsLeft,
		BallsLeft:   ballsLeft,
		Wickets:     MaxWickets - s.WicketsFallen,
		TotalRunsX:  s.Target,
		CurRunRate:  cur,
		ReqRunRate:  req,
	}
}

// Record converts the row for a predictor
func (r FeatureRow) Record() models.FeatureRecord {
	rec := models.NewFeatureRecord()
	rec.Categorical[ColBattingTeam] = r.BattingTeam
	rec.Categorical[ColBowlingTeam] = r.BowlingTeam
	rec.Categorical[ColCity] = r.City
	rec.Numeric[ColRunsLeft] = float64(r.RunsLeft)
	rec.Numeric[ColBallsLeft] = float64(r.BallsLeft)
	rec.Numeric[ColWickets] = float64(r.Wickets)
	rec.Numeric[ColTotalRunsX] = float64(r.TotalRunsX)
	rec.Numeric[ColCurRunRate] = r.CurRunRate
	rec.Numeric[ColReqRunRate] = r.ReqRunRate
	return rec
}

// Features is the base row plus the context features some models consume
type Features struct {
	FeatureRow
	Phase          Phase   `json:"phase"`
	Pressure       float64 `json:"pressure"`
	StrengthDiff   float64 `json:"strength_diff"`
	VenueChaseBias float64 `json:"venue_chase_bias"`
}

// DeriveExtended computes the base row, the innings phase, run-rate pressure and the
// historical priors for the two teams and the venue.
func DeriveExtended(s models.MatchSnapshot, priors Priors) (Features, error) {
	overs, err := ParseOvers(s.Overs)
	if err != nil {
		return Features{}, err
	}

	row := deriveFromOvers(s, overs)
	return Features{
		FeatureRow:     row,
		Phase:          PhaseFor(overs),
		Pressure:       row.ReqRunRate - row.CurRunRate,
		StrengthDiff:   priors.Strength(s.BattingTeam) - priors.Strength(s.BowlingTeam),
		VenueChaseBias: priors.ChaseBias(s.City),
	}, nil
}

// Record converts the extended features for a predictor
func (f Features) Record() models.FeatureRecord {
	rec := f.FeatureRow.Record()
	rec.Categorical[ColPhase] = string(f.Phase)
	rec.Numeric[ColPressure] = f.Pressure
	rec.Numeric[ColStrengthDiff] = f.StrengthDiff
	rec.Numeric[ColVenueChaseBias] = f.VenueChaseBias
	return rec
}

// DefaultPrior is used for teams and venues with no history
const DefaultPrior = 0.5

// Priors are historical rates learned from the matches dataset
type Priors struct {
	TeamStrength   map[string]float64 `json:"team_strength,omitempty"`
	VenueChaseBias map[string]float64 `json:"venue_chase_bias,omitempty"`
}

// Strength is the historical win rate of a team
func (p Priors) Strength(team string) float64 {
	if v, ok := p.TeamStrength[team]; ok {
		return v
	}
	return DefaultPrior
}

// ChaseBias is the share of matches at a venue won by the chasing side
func (p Priors) ChaseBias(venue string) float64 {
	if v, ok := p.VenueChaseBias[venue]; ok {
		return v
	}
	return DefaultPrior
}
