package training

import (
	"github.com/yourusername/ipl-winprob/internal/cricket"
	"github.com/yourusername/ipl-winprob/internal/models"
)

// ComputePriors derives team strength (win rate) and per-city chase bias (share of
// matches won by team2, the side batting second) from completed matches.
func ComputePriors(matches []models.Match, catalog *cricket.Catalog) cricket.Priors {
	played := map[string]int{}
	won := map[string]int{}
	cityMatches := map[string]int{}
	cityChaseWins := map[string]int{}

	for i := range matches {
		m := &matches[i]
		if !m.IsNormalResult() || !m.HasResult() {
			continue
		}
		team1, team2, winner := canonical(catalog, m.Team1), canonical(catalog, m.Team2), canonical(catalog, m.Winner)

		played[team1]++
		played[team2]++
		won[winner]++

		if m.City != "" {
			cityMatches[m.City]++
			if winner == team2 {
				cityChaseWins[m.City]++
			}
		}
	}

	priors := cricket.Priors{
		TeamStrength:   make(map[string]float64, len(played)),
		VenueChaseBias: make(map[string]float64, len(cityMatches)),
	}
	for team, n := range played {
		priors.TeamStrength[team] = float64(won[team]) / float64(n)
	}
	for city, n := range cityMatches {
		priors.VenueChaseBias[city] = float64(cityChaseWins[city]) / float64(n)
	}
	return priors
}

func canonical(catalog *cricket.Catalog, name string) string {
	if catalog == nil {
		return name
	}
	return catalog.Canonical(name)
}
