package cricket

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/ipl-winprob/internal/models"
)

func snapshot(target, score int, overs float64, wickets int) models.MatchSnapshot {
	return models.MatchSnapshot{
		BattingTeam:   "Mumbai Indians",
		BowlingTeam:   "Chennai Super Kings",
		City:          "Mumbai",
		Target:        target,
		Score:         score,
		Overs:         overs,
		WicketsFallen: wickets,
	}
}

func TestDeriveStartOfChase(t *testing.T) {
	row, err := Derive(snapshot(150, 0, 0.0, 0))
	require.NoError(t, err)

	assert.Equal(t, 150, row.RunsLeft)
	assert.Equal(t, 120, row.BallsLeft)
	assert.Equal(t, 10, row.Wickets)
	assert.Equal(t, 150, row.TotalRunsX)
	assert.Equal(t, 0.0, row.CurRunRate)
	assert.InDelta(t, 7.5, row.ReqRunRate, 1e-9)
}

func TestDeriveMidChase(t *testing.T) {
	row, err := Derive(snapshot(180, 80, 10.0, 3))
	require.NoError(t, err)

	assert.Equal(t, 100, row.RunsLeft)
	assert.Equal(t, 60, row.BallsLeft)
	assert.Equal(t, 7, row.Wickets)
	assert.InDelta(t, 8.0, row.CurRunRate, 1e-9)
	assert.InDelta(t, 10.0, row.ReqRunRate, 1e-9)
}

func TestDeriveUsesBallsNotFractionalOvers(t *testing.T) {
	row, err := Derive(snapshot(160, 44, 5.3, 1))
	require.NoError(t, err)

	// 5.3 is 33 balls, not 31.8
	assert.Equal(t, 87, row.BallsLeft)
	assert.InDelta(t, 44.0*6/33, row.CurRunRate, 1e-9)
	assert.InDelta(t, 116.0*6/87, row.ReqRunRate, 1e-9)
}

func TestDeriveNoBallsLeft(t *testing.T) {
	row, err := Derive(snapshot(150, 140, 20.0, 6))
	require.NoError(t, err)

	assert.Equal(t, 0, row.BallsLeft)
	assert.Equal(t, 0.0, row.ReqRunRate)
	assert.InDelta(t, 7.0, row.CurRunRate, 1e-9)
}

func TestDeriveChaseAlreadyWon(t *testing.T) {
	row, err := Derive(snapshot(150, 160, 18.0, 4))
	require.NoError(t, err)

	assert.Equal(t, -10, row.RunsLeft)
	assert.Less(t, row.ReqRunRate, 0.0)
}

func TestDeriveRejectsBadOvers(t *testing.T) {
	_, err := Derive(snapshot(150, 10, 3.7, 0))
	assert.ErrorIs(t, err, ErrInvalidOvers)
}

func TestDeriveIdentities(t *testing.T) {
	for wickets := 0; wickets <= MaxWickets; wickets++ {
		for _, score := range []int{0, 37, 99, 150, 201} {
			for balls := 0; balls <= InningsBalls; balls += 7 {
				s := snapshot(180, score, OversFromBalls(balls).Float(), wickets)
				row, err := Derive(s)
				require.NoError(t, err)

				assert.Equal(t, MaxWickets, row.Wickets+wickets)
				assert.Equal(t, s.Target, row.RunsLeft+s.Score)
				assert.GreaterOrEqual(t, row.BallsLeft, 0)
				assert.LessOrEqual(t, row.BallsLeft, InningsBalls)
				if score <= s.Target {
					assert.GreaterOrEqual(t, row.CurRunRate, 0.0)
					assert.GreaterOrEqual(t, row.ReqRunRate, 0.0)
				}
				if balls > 0 {
					assert.InDelta(t, float64(score*6)/float64(balls), row.CurRunRate, 1e-9)
				}
				if row.BallsLeft > 0 {
					assert.InDelta(t, float64(row.RunsLeft*6)/float64(row.BallsLeft), row.ReqRunRate, 1e-9)
				}
			}
		}
	}
}

func TestFeatureRowColumnOrder(t *testing.T) {
	row, err := Derive(snapshot(180, 80, 10.0, 3))
	require.NoError(t, err)

	data, err := json.Marshal(row)
	require.NoError(t, err)

	last := -1
	for _, col := range FeatureColumns {
		idx := strings.Index(string(data), `"`+col+`"`)
		require.GreaterOrEqual(t, idx, 0, col)
		assert.Greater(t, idx, last, "column %s out of order", col)
		last = idx
	}
}

func TestFeatureRowRecord(t *testing.T) {
	row, err := Derive(snapshot(180, 80, 10.0, 3))
	require.NoError(t, err)

	rec := row.Record()
	assert.Len(t, rec.Categorical, 3)
	assert.Len(t, rec.Numeric, 6)
	assert.Equal(t, "Mumbai", rec.Categorical[ColCity])
	assert.Equal(t, 60.0, rec.Numeric[ColBallsLeft])
	assert.Equal(t, 180.0, rec.Numeric[ColTotalRunsX])
}

func TestDeriveExtended(t *testing.T) {
	priors := Priors{
		TeamStrength:   map[string]float64{"Mumbai Indians": 0.58, "Chennai Super Kings": 0.61},
		VenueChaseBias: map[string]float64{"Mumbai": 0.55},
	}

	f, err := DeriveExtended(snapshot(180, 80, 10.0, 3), priors)
	require.NoError(t, err)

	assert.Equal(t, PhaseMiddle, f.Phase)
	assert.InDelta(t, 2.0, f.Pressure, 1e-9)
	assert.InDelta(t, -0.03, f.StrengthDiff, 1e-9)
	assert.InDelta(t, 0.55, f.VenueChaseBias, 1e-9)

	rec := f.Record()
	assert.Equal(t, "middle", rec.Categorical[ColPhase])
	assert.Len(t, rec.Numeric, 9)
}

func TestDeriveExtendedDefaultsUnknownPriors(t *testing.T) {
	f, err := DeriveExtended(snapshot(150, 0, 0, 0), Priors{})
	require.NoError(t, err)

	assert.Equal(t, PhasePowerplay, f.Phase)
	assert.Equal(t, 0.0, f.StrengthDiff)
	assert.Equal(t, DefaultPrior, f.VenueChaseBias)
}
