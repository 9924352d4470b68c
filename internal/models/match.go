package models

// Match is one row of the historical matches dataset
type Match struct {
	ID           int    `json:"id"`
	Season       string `json:"season"`
	City         string `json:"city"`
	Venue        string `json:"venue"`
	Team1        string `json:"team1"`
	Team2        string `json:"team2"`
	TossWinner   string `json:"toss_winner"`
	TossDecision string `json:"toss_decision"`
	Result       string `json:"result"`
	Winner       string `json:"winner"`
}

// HasResult reports whether the match produced a winner
func (m *Match) HasResult() bool {
	return m.Winner != ""
}

// IsNormalResult reports whether the match finished without a tie or no-result
func (m *Match) IsNormalResult() bool {
	switch m.Result {
	case "", "normal", "runs", "wickets":
		return true
	}
	return false
}

// Delivery is one ball of the historical ball-by-ball dataset
type Delivery struct {
	MatchID         int    `json:"match_id"`
	Inning          int    `json:"inning"`
	BattingTeam     string `json:"batting_team"`
	BowlingTeam     string `json:"bowling_team"`
	Over            int    `json:"over"`
	Ball            int    `json:"ball"`
	TotalRuns       int    `json:"total_runs"`
	PlayerDismissed string `json:"player_dismissed"`
}

// IsWicket reports whether a batter was dismissed on this delivery
func (d *Delivery) IsWicket() bool {
	return d.PlayerDismissed != ""
}
