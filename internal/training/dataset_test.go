package training

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	matchesPath    = "testdata/matches.csv"
	deliveriesPath = "testdata/deliveries.csv"
)

func TestLoadDataset(t *testing.T) {
	ds, err := LoadDataset(matchesPath, deliveriesPath)
	require.NoError(t, err)

	assert.Len(t, ds.Matches, 13)
	assert.NotEmpty(t, ds.Deliveries)

	m := ds.Matches[1]
	assert.Equal(t, 2, m.ID)
	assert.Equal(t, "Delhi", m.City)
	assert.Equal(t, "Chennai Super Kings", m.Winner)
	assert.True(t, m.IsNormalResult())

	noResult := ds.Matches[12]
	assert.False(t, noResult.IsNormalResult())
	assert.False(t, noResult.HasResult())
}

func TestReadMatchesMissingColumn(t *testing.T) {
	_, err := ReadMatches(strings.NewReader("id,team1,team2\n1,A,B\n"))
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestReadMatchesBadID(t *testing.T) {
	_, err := ReadMatches(strings.NewReader("id,team1,team2,winner\nx,A,B,A\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestReadDeliveriesHandlesNAAndFloats(t *testing.T) {
	data := "\ufeffmatch_id,inning,batting_team,bowling_team,over,ball,total_runs,player_dismissed\n" +
		"1,2,A,B,3.0,4,6,NA\n" +
		"1,2,A,B,3,5,0,Some Batter\n"
	deliveries, err := ReadDeliveries(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, deliveries, 2)

	assert.Equal(t, 3, deliveries[0].Over)
	assert.Equal(t, 6, deliveries[0].TotalRuns)
	assert.False(t, deliveries[0].IsWicket())
	assert.True(t, deliveries[1].IsWicket())
}

func TestLoadMatchesMissingFile(t *testing.T) {
	_, err := LoadMatches("testdata/nope.csv")
	assert.Error(t, err)
}
