package service

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/yourusername/ipl-winprob/internal/cricket"
	"github.com/yourusername/ipl-winprob/internal/ml"
)

// Badge names awarded to the chasing side
const (
	BadgeDominator          = "DOMINATOR"
	BadgeStrongBattingDepth = "STRONG BATTING DEPTH"
	BadgeChaseUnderControl  = "CHASE UNDER CONTROL"
)

// Commentary tiers by batting-side win percentage
const (
	cruisingAbove  = 75
	balancedAbove  = 45
	dominatorAbove = 80
	depthWickets   = 7
)

// Insights is the readable summary attached to a prediction
type Insights struct {
	BattingPercent string   `json:"batting_percent"`
	BowlingPercent string   `json:"bowling_percent"`
	Commentary     string   `json:"commentary"`
	Badges         []string `json:"badges"`
}

// FormatPercent renders a probability as a whole percentage, e.g. 0.374 -> "37%".
// Halves round to the nearest even percentage.
func FormatPercent(p float64) string {
	return percentOf(p).String() + "%"
}

func percentOf(p float64) decimal.Decimal {
	return decimal.NewFromFloat(p).Mul(decimal.NewFromInt(100)).RoundBank(0)
}

// BuildInsights derives commentary and badges. The bowling percentage is the
// complement of the rounded batting one so the pair always sums to 100%.
func BuildInsights(battingTeam, bowlingTeam string, p ml.Probability, f cricket.FeatureRow) Insights {
	winPct := p.BattingWin * 100
	batting := percentOf(p.BattingWin)
	bowling := decimal.NewFromInt(100).Sub(batting)

	var commentary string
	switch {
	case winPct > cruisingAbove:
		commentary = fmt.Sprintf("%s is cruising towards victory!", battingTeam)
	case winPct > balancedAbove:
		commentary = "Match is finely balanced. Every ball matters!"
	default:
		commentary = fmt.Sprintf("%s is dominating the game!", bowlingTeam)
	}

	badges := []string{}
	if winPct > dominatorAbove {
		badges = append(badges, BadgeDominator)
	}
	if f.Wickets >= depthWickets {
		badges = append(badges, BadgeStrongBattingDepth)
	}
	if f.ReqRunRate < f.CurRunRate {
		badges = append(badges, BadgeChaseUnderControl)
	}

	return Insights{
		BattingPercent: batting.String() + "%",
		BowlingPercent: bowling.String() + "%",
		Commentary:     commentary,
		Badges:         badges,
	}
}
