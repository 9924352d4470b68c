package training

import (
	"fmt"

	"github.com/yourusername/ipl-winprob/internal/cricket"
	"github.com/yourusername/ipl-winprob/internal/models"
)

// Example is one labelled second-innings snapshot
type Example struct {
	MatchID  int
	Snapshot models.MatchSnapshot
	Features cricket.Features
	// Label is 1 when the batting side went on to win
	Label float64
}

// Record returns the feature record for the base or extended column set
func (e Example) Record(extended bool) models.FeatureRecord {
	if extended {
		return e.Features.Record()
	}
	return e.Features.FeatureRow.Record()
}

// BuilderOptions control how deliveries are turned into snapshots
type BuilderOptions struct {
	// OneIndexedOvers is set for datasets numbering overs 1..20
	OneIndexedOvers bool
	// Catalog, when set, maps historical team names to current ones
	Catalog *cricket.Catalog
	Priors  cricket.Priors
}

// BuildStats summarises a build
type BuildStats struct {
	Examples       int
	SkippedMatches int
}

// BuildExamples replays the second innings of every completed match ball by ball.
// The target is the first-innings total plus one. Matches without a city, without a
// first innings or without a normal result are skipped.
func BuildExamples(ds *Dataset, opts BuilderOptions) ([]Example, BuildStats, error) {
	var stats BuildStats

	byMatch := make(map[int][]models.Delivery)
	var order []int
	for _, d := range ds.Deliveries {
		if _, seen := byMatch[d.MatchID]; !seen {
			order = append(order, d.MatchID)
		}
		byMatch[d.MatchID] = append(byMatch[d.MatchID], d)
	}

	matches := make(map[int]*models.Match, len(ds.Matches))
	for i := range ds.Matches {
		matches[ds.Matches[i].ID] = &ds.Matches[i]
	}

	var examples []Example
	for _, id := range order {
		m, ok := matches[id]
		if !ok || !m.IsNormalResult() || !m.HasResult() || m.City == "" {
			stats.SkippedMatches++
			continue
		}

		built, err := replayChase(m, byMatch[id], opts)
		if err != nil {
			return nil, stats, fmt.Errorf("match %d: %w", id, err)
		}
		if len(built) == 0 {
			stats.SkippedMatches++
			continue
		}
		examples = append(examples, built...)
	}

	stats.Examples = len(examples)
	return examples, stats, nil
}

func replayChase(m *models.Match, deliveries []models.Delivery, opts BuilderOptions) ([]Example, error) {
	firstInnings := 0
	hasFirst := false
	for _, d := range deliveries {
		if d.Inning == 1 {
			firstInnings += d.TotalRuns
			hasFirst = true
		}
	}
	if !hasFirst {
		return nil, nil
	}

	winner := canonical(opts.Catalog, m.Winner)
	target := firstInnings + 1

	var examples []Example
	score, wickets := 0, 0
	for _, d := range deliveries {
		if d.Inning != 2 {
			continue
		}
		score += d.TotalRuns
		if d.IsWicket() {
			wickets++
		}

		batting := canonical(opts.Catalog, d.BattingTeam)
		snapshot := models.MatchSnapshot{
			BattingTeam:   batting,
			BowlingTeam:   canonical(opts.Catalog, d.BowlingTeam),
			City:          m.City,
			Target:        target,
			Score:         score,
			Overs:         cricket.OversFromBalls(ballsBowled(d, opts.OneIndexedOvers)).Float(),
			WicketsFallen: min(wickets, cricket.MaxWickets),
		}

		features, err := cricket.DeriveExtended(snapshot, opts.Priors)
		if err != nil {
			return nil, err
		}

		label := 0.0
		if batting == winner {
			label = 1
		}
		examples = append(examples, Example{
			MatchID:  m.ID,
			Snapshot: snapshot,
			Features: features,
			Label:    label,
		})
	}
	return examples, nil
}

// ballsBowled converts a dataset over/ball pair to legal balls bowled. Extras can push
// the ball number past six, so it is capped at the end of the over.
func ballsBowled(d models.Delivery, oneIndexed bool) int {
	over := d.Over
	if oneIndexed {
		over--
	}
	ball := max(0, min(d.Ball, cricket.BallsPerOver))
	return max(0, min(over*cricket.BallsPerOver+ball, cricket.InningsBalls))
}
