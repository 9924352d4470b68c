// Package training builds labelled chase snapshots from the historical IPL datasets
// and fits the model artifacts served by the prediction API.
package training

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/yourusername/ipl-winprob/internal/models"
)

// ErrMissingColumn is returned when a CSV header lacks a required column
var ErrMissingColumn = errors.New("missing required column")

// Dataset is the pair of historical tables
type Dataset struct {
	Matches    []models.Match
	Deliveries []models.Delivery
}

// LoadDataset reads matches.csv and deliveries.csv
func LoadDataset(matchesPath, deliveriesPath string) (*Dataset, error) {
	matches, err := LoadMatches(matchesPath)
	if err != nil {
		return nil, err
	}
	deliveries, err := LoadDeliveries(deliveriesPath)
	if err != nil {
		return nil, err
	}
	return &Dataset{Matches: matches, Deliveries: deliveries}, nil
}

// LoadMatches reads the matches table
func LoadMatches(path string) ([]models.Match, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open matches file: %w", err)
	}
	defer f.Close()
	return ReadMatches(f)
}

// ReadMatches parses the matches table. id, team1, team2 and winner are required;
// the other columns are read when present.
func ReadMatches(r io.Reader) ([]models.Match, error) {
	rows, err := newTable(r, "id", "team1", "team2", "winner")
	if err != nil {
		return nil, fmt.Errorf("matches: %w", err)
	}

	var matches []models.Match
	for {
		rec, err := rows.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("matches: %w", err)
		}

		id, err := rows.int(rec, "id")
		if err != nil {
			return nil, fmt.Errorf("matches line %d: %w", rows.line, err)
		}
		matches = append(matches, models.Match{
			ID:           id,
			Season:       rows.str(rec, "season"),
			City:         rows.str(rec, "city"),
			Venue:        rows.str(rec, "venue"),
			Team1:        rows.str(rec, "team1"),
			Team2:        rows.str(rec, "team2"),
			TossWinner:   rows.str(rec, "toss_winner"),
			TossDecision: rows.str(rec, "toss_decision"),
			Result:       rows.str(rec, "result"),
			Winner:       rows.str(rec, "winner"),
		})
	}
	return matches, nil
}

// LoadDeliveries reads the ball-by-ball table
func LoadDeliveries(path string) ([]models.Delivery, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open deliveries file: %w", err)
	}
	defer f.Close()
	return ReadDeliveries(f)
}

// ReadDeliveries parses the ball-by-ball table
func ReadDeliveries(r io.Reader) ([]models.Delivery, error) {
	rows, err := newTable(r, "match_id", "inning", "batting_team", "bowling_team", "over", "ball", "total_runs")
	if err != nil {
		return nil, fmt.Errorf("deliveries: %w", err)
	}

	var deliveries []models.Delivery
	for {
		rec, err := rows.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("deliveries: %w", err)
		}

		d := models.Delivery{
			BattingTeam:     rows.str(rec, "batting_team"),
			BowlingTeam:     rows.str(rec, "bowling_team"),
			PlayerDismissed: rows.str(rec, "player_dismissed"),
		}
		for col, dst := range map[string]*int{
			"match_id":   &d.MatchID,
			"inning":     &d.Inning,
			"over":       &d.Over,
			"ball":       &d.Ball,
			"total_runs": &d.TotalRuns,
		} {
			if *dst, err = rows.int(rec, col); err != nil {
				return nil, fmt.Errorf("deliveries line %d: %w", rows.line, err)
			}
		}
		deliveries = append(deliveries, d)
	}
	return deliveries, nil
}

type table struct {
	reader *csv.Reader
	cols   map[string]int
	line   int
}

func newTable(r io.Reader, required ...string) (*table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = false

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, c := range required {
		if _, ok := cols[c]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, c)
		}
	}
	return &table{reader: reader, cols: cols, line: 1}, nil
}

func (t *table) next() ([]string, error) {
	rec, err := t.reader.Read()
	t.line++
	return rec, err
}

// str returns a trimmed cell, treating NA markers as empty
func (t *table) str(rec []string, col string) string {
	i, ok := t.cols[col]
	if !ok || i >= len(rec) {
		return ""
	}
	v := strings.TrimSpace(rec[i])
	if v == "NA" || v == "NaN" {
		return ""
	}
	return v
}

func (t *table) int(rec []string, col string) (int, error) {
	v := t.str(rec, col)
	n, err := strconv.Atoi(v)
	if err != nil {
		// some exports write integers as floats
		f, ferr := strconv.ParseFloat(v, 64)
		if ferr != nil {
			return 0, fmt.Errorf("column %s: invalid integer %q", col, v)
		}
		n = int(f)
	}
	return n, nil
}
