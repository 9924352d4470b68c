package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/yourusername/ipl-winprob/internal/ml"
)

type statusReport struct {
	Backend      string                 `json:"backend"`
	Model        ml.ModelInfo           `json:"model"`
	Healthy      bool                   `json:"healthy"`
	Error        string                 `json:"error,omitempty"`
	CacheBackend string                 `json:"cache_backend,omitempty"`
	CacheStats   map[string]interface{} `json:"cache_stats,omitempty"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the configured model backend and its health",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()

		report := statusReport{Backend: cfg.Model.Backend}

		backend, err := ml.NewBackend(ctx, cfg, appLog)
		if err != nil {
			report.Error = err.Error()
		} else {
			defer backend.Close()
			report.Model = backend.Predictor.Info()
			report.Healthy = true
			if backend.Health != nil {
				if err := backend.Health(ctx); err != nil {
					report.Healthy = false
					report.Error = err.Error()
				}
			}
			if backend.Cache != nil {
				hits, misses, ratio := backend.Cache.Stats()
				report.CacheBackend = backend.Cache.Backend()
				report.CacheStats = map[string]interface{}{"hits": hits, "misses": misses, "hit_ratio": ratio}
			}
		}

		if jsonOutput {
			return printJSON(report)
		}

		fmt.Printf("\nModel backend: %s\n", report.Backend)
		if report.Healthy {
			fmt.Println("Health:        ✓ ONLINE")
		} else {
			fmt.Println("Health:        ❌ UNAVAILABLE")
			fmt.Printf("   Error: %s\n", report.Error)
		}
		if report.Model.Version != "" {
			m := report.Model
			fmt.Printf("\nModel:\n")
			fmt.Printf("  Name:       %s\n", m.Name)
			fmt.Printf("  Version:    %s\n", m.Version)
			fmt.Printf("  Kind:       %s\n", m.Kind)
			fmt.Printf("  Extended:   %v\n", m.Extended)
			fmt.Printf("  Trained at: %s\n", m.TrainedAt.Format(time.RFC3339))
			for k, v := range m.Metrics {
				fmt.Printf("  %-18s %.4f\n", k+":", v)
			}
		}
		if report.CacheBackend != "" {
			fmt.Printf("\nCache (%s): hits %v, misses %v\n", report.CacheBackend, report.CacheStats["hits"], report.CacheStats["misses"])
		}
		fmt.Println()
		return nil
	},
}
