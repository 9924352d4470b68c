// Package analytics summarises the historical matches dataset.
package analytics

import (
	"sort"

	"github.com/yourusername/ipl-winprob/internal/cricket"
	"github.com/yourusername/ipl-winprob/internal/models"
)

// MinChaseAttempts is the number of chases a team needs before it is ranked
const MinChaseAttempts = 5

// TeamRecord is a team's overall record
type TeamRecord struct {
	Team       string  `json:"team"`
	Played     int     `json:"played"`
	Won        int     `json:"won"`
	WinPercent float64 `json:"win_percent"`
}

// ChaseRecord is a team's record when batting second
type ChaseRecord struct {
	Team           string  `json:"team"`
	Attempts       int     `json:"attempts"`
	Successes      int     `json:"successes"`
	SuccessPercent float64 `json:"success_percent"`
}

// Count is a labelled tally
type Count struct {
	Label   string `json:"label"`
	Matches int    `json:"matches"`
}

// Summary is the full statistics report
type Summary struct {
	TotalMatches int           `json:"total_matches"`
	Teams        int           `json:"teams"`
	Seasons      int           `json:"seasons"`
	TeamRecords  []TeamRecord  `json:"team_records"`
	ChaseRecords []ChaseRecord `json:"chase_records"`
	Cities       []Count       `json:"cities"`
	SeasonCounts []Count       `json:"season_counts"`
}

// Summarize computes the report. Team names are canonicalised when a catalog is given.
func Summarize(matches []models.Match, catalog *cricket.Catalog) Summary {
	name := func(n string) string {
		if catalog == nil || n == "" {
			return n
		}
		return catalog.Canonical(n)
	}

	played := map[string]int{}
	won := map[string]int{}
	chaseAttempts := map[string]int{}
	chaseWins := map[string]int{}
	cities := map[string]int{}
	seasons := map[string]int{}

	for i := range matches {
		m := &matches[i]
		team1, team2, winner := name(m.Team1), name(m.Team2), name(m.Winner)

		played[team1]++
		played[team2]++
		if winner != "" {
			won[winner]++
		}
		if m.City != "" {
			cities[m.City]++
		}
		if m.Season != "" {
			seasons[m.Season]++
		}

		if chaser := chasingTeam(m, team1, team2, name); chaser != "" && m.HasResult() {
			chaseAttempts[chaser]++
			if winner == chaser {
				chaseWins[chaser]++
			}
		}
	}

	s := Summary{
		TotalMatches: len(matches),
		Teams:        len(played),
		Seasons:      len(seasons),
	}

	for team, n := range played {
		s.TeamRecords = append(s.TeamRecords, TeamRecord{
			Team:       team,
			Played:     n,
			Won:        won[team],
			WinPercent: percent(won[team], n),
		})
	}
	sort.Slice(s.TeamRecords, func(i, j int) bool {
		a, b := s.TeamRecords[i], s.TeamRecords[j]
		if a.WinPercent != b.WinPercent {
			return a.WinPercent > b.WinPercent
		}
		return a.Team < b.Team
	})

	for team, n := range chaseAttempts {
		if n <= MinChaseAttempts {
			continue
		}
		s.ChaseRecords = append(s.ChaseRecords, ChaseRecord{
			Team:           team,
			Attempts:       n,
			Successes:      chaseWins[team],
			SuccessPercent: percent(chaseWins[team], n),
		})
	}
	sort.Slice(s.ChaseRecords, func(i, j int) bool {
		a, b := s.ChaseRecords[i], s.ChaseRecords[j]
		if a.SuccessPercent != b.SuccessPercent {
			return a.SuccessPercent > b.SuccessPercent
		}
		return a.Team < b.Team
	})

	s.Cities = counts(cities)
	sort.Slice(s.Cities, func(i, j int) bool {
		if s.Cities[i].Matches != s.Cities[j].Matches {
			return s.Cities[i].Matches > s.Cities[j].Matches
		}
		return s.Cities[i].Label < s.Cities[j].Label
	})

	s.SeasonCounts = counts(seasons)
	sort.Slice(s.SeasonCounts, func(i, j int) bool {
		return s.SeasonCounts[i].Label < s.SeasonCounts[j].Label
	})

	return s
}

// chasingTeam works out who batted second from the toss. It returns "" when the
// toss was not recorded.
func chasingTeam(m *models.Match, team1, team2 string, name func(string) string) string {
	tossWinner := name(m.TossWinner)
	if tossWinner == "" {
		return ""
	}
	other := team1
	if tossWinner == team1 {
		other = team2
	}
	switch m.TossDecision {
	case "field", "bowl":
		return tossWinner
	case "bat":
		return other
	default:
		return ""
	}
}

func percent(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) * 100 / float64(d)
}

func counts(m map[string]int) []Count {
	out := make([]Count, 0, len(m))
	for label, n := range m {
		out = append(out, Count{Label: label, Matches: n})
	}
	return out
}

// TopTeams returns at most n team records
func (s Summary) TopTeams(n int) []TeamRecord {
	if n >= len(s.TeamRecords) {
		return s.TeamRecords
	}
	return s.TeamRecords[:n]
}
