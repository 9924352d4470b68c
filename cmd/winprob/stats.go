package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yourusername/ipl-winprob/internal/service"
)

var (
	statsMatches string
	statsTop     int
)

func init() {
	statsCmd.Flags().StringVar(&statsMatches, "matches", "", "Matches CSV (defaults to data.matches_path)")
	statsCmd.Flags().IntVar(&statsTop, "top", 10, "Number of teams to list")
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarise the historical matches dataset",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := statsMatches
		if path == "" {
			path = cfg.Data.MatchesPath
		}

		summary, err := service.NewStatsService(path, catalog, appLog).Summary()
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(summary)
		}

		fmt.Printf("\n%d matches, %d teams, %d seasons\n\n", summary.TotalMatches, summary.Teams, summary.Seasons)
		fmt.Println("Win percentage:")
		for _, t := range summary.TopTeams(statsTop) {
			fmt.Printf("  %-30s %3d/%-3d %6.2f%%\n", t.Team, t.Won, t.Played, t.WinPercent)
		}
		if len(summary.ChaseRecords) > 0 {
			fmt.Println("\nChase success:")
			for _, c := range summary.ChaseRecords {
				fmt.Printf("  %-30s %3d/%-3d %6.2f%%\n", c.Team, c.Successes, c.Attempts, c.SuccessPercent)
			}
		}
		fmt.Println()
		return nil
	},
}
