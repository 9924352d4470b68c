package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yourusername/ipl-winprob/internal/cricket"
	"github.com/yourusername/ipl-winprob/internal/ml"
	"github.com/yourusername/ipl-winprob/internal/models"
	"github.com/yourusername/ipl-winprob/internal/service"
)

var snapshot models.MatchSnapshot

func addSnapshotFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&snapshot.BattingTeam, "batting", "", "Batting (chasing) team")
	f.StringVar(&snapshot.BowlingTeam, "bowling", "", "Bowling team")
	f.StringVar(&snapshot.City, "city", "", "Host city")
	f.IntVar(&snapshot.Target, "target", 0, "Target score")
	f.IntVar(&snapshot.Score, "score", 0, "Current score")
	f.Float64Var(&snapshot.Overs, "overs", 0, "Overs completed in overs.balls notation, e.g. 12.3")
	f.IntVar(&snapshot.WicketsFallen, "wickets", 0, "Wickets fallen")
	for _, name := range []string{"batting", "bowling", "city"} {
		_ = cmd.MarkFlagRequired(name)
	}
}

func init() {
	addSnapshotFlags(predictCmd)
	addSnapshotFlags(validateCmd)
}

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Predict the win probability for a chase snapshot",
	Example: `  winprob predict --batting "Mumbai Indians" --bowling "Chennai Super Kings" \
    --city Mumbai --target 180 --score 95 --overs 11.2 --wickets 3`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Scoring from the CLI never writes to the shared cache
		cfg.Cache.Enabled = false

		backend, err := ml.NewBackend(cmd.Context(), cfg, appLog)
		if err != nil {
			return err
		}
		defer backend.Close()

		svc := service.NewPredictionService(backend.Predictor, catalog, nil, cfg.Model.Backend, appLog)
		defer svc.Close()

		res, err := svc.Predict(cmd.Context(), snapshot)
		var verr *cricket.ValidationError
		if errors.As(err, &verr) {
			return fmt.Errorf("invalid snapshot: %s", verr.Message)
		}
		if err != nil {
			return err
		}

		if jsonOutput {
			return printJSON(res)
		}
		printPrediction(res)
		return nil
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a chase snapshot and show the derived features",
	RunE: func(cmd *cobra.Command, args []string) error {
		result := cricket.Validate(snapshot, catalog)
		if !result.Valid {
			if jsonOutput {
				return printJSON(result)
			}
			fmt.Printf("Invalid: %s\n", result.Message)
			return nil
		}

		row, err := cricket.Derive(snapshot)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(struct {
				cricket.ValidationResult
				Features cricket.FeatureRow `json:"features"`
			}{result, row})
		}

		fmt.Println("Valid")
		fmt.Printf("  Runs left:     %d\n", row.RunsLeft)
		fmt.Printf("  Balls left:    %d\n", row.BallsLeft)
		fmt.Printf("  Wickets left:  %d\n", row.Wickets)
		fmt.Printf("  Current rate:  %.2f\n", row.CurRunRate)
		fmt.Printf("  Required rate: %.2f\n", row.ReqRunRate)
		return nil
	},
}

func printPrediction(res *service.PredictionResult) {
	s := res.Snapshot
	fmt.Printf("\n%s need %d off %d balls against %s in %s\n\n",
		s.BattingTeam, res.Features.RunsLeft, res.Features.BallsLeft, s.BowlingTeam, s.City)
	fmt.Printf("  %-28s %s\n", s.BattingTeam, res.Insights.BattingPercent)
	fmt.Printf("  %-28s %s\n", s.BowlingTeam, res.Insights.BowlingPercent)
	fmt.Printf("\n  %s\n", res.Insights.Commentary)
	if len(res.Insights.Badges) > 0 {
		fmt.Printf("  Badges: %s\n", strings.Join(res.Insights.Badges, ", "))
	}
	fmt.Printf("\n  Model %s %s\n\n", res.ModelName, res.ModelVersion)
}
