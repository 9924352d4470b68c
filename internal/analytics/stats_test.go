package analytics

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/ipl-winprob/internal/cricket"
	"github.com/yourusername/ipl-winprob/internal/models"
)

func sampleMatches() []models.Match {
	var matches []models.Match
	// A chases six times (toss won, fielded) and wins four
	for i := 0; i < 6; i++ {
		winner := "A"
		if i >= 4 {
			winner = "B"
		}
		matches = append(matches, models.Match{
			ID: i + 1, Season: "2019", City: "Mumbai",
			Team1: "B", Team2: "A", TossWinner: "A", TossDecision: "field",
			Result: "normal", Winner: winner,
		})
	}
	// C bats first after winning the toss, so B chases
	matches = append(matches, models.Match{
		ID: 7, Season: "2018", City: "Delhi",
		Team1: "C", Team2: "B", TossWinner: "C", TossDecision: "bat",
		Result: "normal", Winner: "B",
	})
	matches = append(matches, models.Match{
		ID: 8, Season: "2018", City: "Delhi",
		Team1: "C", Team2: "Delhi Daredevils", TossWinner: "C", TossDecision: "bat",
		Result: "no result",
	})
	return matches
}

func TestSummarize(t *testing.T) {
	s := Summarize(sampleMatches(), nil)

	assert.Equal(t, 8, s.TotalMatches)
	assert.Equal(t, 4, s.Teams)
	assert.Equal(t, 2, s.Seasons)

	require.NotEmpty(t, s.TeamRecords)
	top := s.TeamRecords[0]
	assert.Equal(t, "A", top.Team)
	assert.Equal(t, 6, top.Played)
	assert.Equal(t, 4, top.Won)
	assert.InDelta(t, 66.666, top.WinPercent, 0.01)

	for i := 1; i < len(s.TeamRecords); i++ {
		assert.GreaterOrEqual(t, s.TeamRecords[i-1].WinPercent, s.TeamRecords[i].WinPercent)
	}
}

func TestSummarizeChaseRecords(t *testing.T) {
	s := Summarize(sampleMatches(), nil)

	require.Len(t, s.ChaseRecords, 1, "only teams with more than five chases are ranked")
	assert.Equal(t, "A", s.ChaseRecords[0].Team)
	assert.Equal(t, 6, s.ChaseRecords[0].Attempts)
	assert.Equal(t, 4, s.ChaseRecords[0].Successes)
}

func TestSummarizeCountsOrdering(t *testing.T) {
	s := Summarize(sampleMatches(), nil)

	assert.Equal(t, []Count{{Label: "Mumbai", Matches: 6}, {Label: "Delhi", Matches: 2}}, s.Cities)
	assert.Equal(t, []Count{{Label: "2018", Matches: 2}, {Label: "2019", Matches: 6}}, s.SeasonCounts)
}

func TestSummarizeCanonicalisesNames(t *testing.T) {
	s := Summarize(sampleMatches(), cricket.DefaultCatalog())

	var names []string
	for _, r := range s.TeamRecords {
		names = append(names, r.Team)
	}
	assert.Contains(t, names, "Delhi Capitals")
	assert.NotContains(t, names, "Delhi Daredevils")
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil, nil)
	assert.Zero(t, s.TotalMatches)
	assert.Empty(t, s.TeamRecords)
	assert.Empty(t, s.TopTeams(3))
}

func TestTopTeams(t *testing.T) {
	var matches []models.Match
	for i := 0; i < 5; i++ {
		matches = append(matches, models.Match{ID: i, Team1: fmt.Sprintf("T%d", i), Team2: "X", Winner: "X"})
	}
	s := Summarize(matches, nil)
	assert.Len(t, s.TopTeams(3), 3)
	assert.Equal(t, "X", s.TopTeams(1)[0].Team)
}
