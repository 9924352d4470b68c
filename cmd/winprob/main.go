// Package main provides the winprob operator CLI.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/ipl-winprob/internal/config"
	"github.com/yourusername/ipl-winprob/internal/cricket"
	"github.com/yourusername/ipl-winprob/internal/logger"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var (
	configFile string
	jsonOutput bool
	cfg        *config.Config
	appLog     *logrus.Logger
	catalog    *cricket.Catalog
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", defaultConfigPath(), "Path to configuration file")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print results as JSON")
	rootCmd.PersistentFlags().Bool("verbose", false, "Log at the configured level instead of warnings only")

	rootCmd.AddCommand(predictCmd, validateCmd, statsCmd, statusCmd, cacheCmd, modelsCmd)
}

var rootCmd = &cobra.Command{
	Use:          "winprob",
	Short:        "IPL chase win-probability tools",
	Long:         `Scores match snapshots, inspects the serving model and reports historical statistics.`,
	Version:      fmt.Sprintf("%s (commit %s, built %s)", Version, GitCommit, BuildDate),
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = config.Bootstrap(cmd.Context(), configFile); err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		// Keep stdout for command output
		appLog = logger.NewLoggerWithOutput(cfg.App.LogLevel, cfg.App.Environment, os.Stderr)
		if !cmd.Flags().Changed("verbose") {
			appLog.SetLevel(logrus.WarnLevel)
		}

		catalog = cricket.DefaultCatalog()
		if cfg.Model.CatalogPath != "" {
			if catalog, err = cricket.LoadCatalog(cfg.Model.CatalogPath); err != nil {
				return err
			}
		}
		return nil
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func defaultConfigPath() string {
	if v := os.Getenv("WINPROB_CONFIG"); v != "" {
		return v
	}
	return config.DefaultPath
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
