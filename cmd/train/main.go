// Package main provides the offline training command for the win-probability model.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/ipl-winprob/internal/config"
	"github.com/yourusername/ipl-winprob/internal/cricket"
	"github.com/yourusername/ipl-winprob/internal/database"
	"github.com/yourusername/ipl-winprob/internal/logger"
	"github.com/yourusername/ipl-winprob/internal/models"
	"github.com/yourusername/ipl-winprob/internal/repository"
	"github.com/yourusername/ipl-winprob/internal/training"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
)

var (
	configFile     string
	matchesPath    string
	deliveriesPath string
	outputPath     string
	modelVersion   string
	kind           string
	extended       bool
	oneIndexed     bool
	testFraction   float64
	seed           int64
	l2             float64
	maxIterations  int
	register       bool
	activate       bool
)

func init() {
	defaults := training.DefaultTrainerConfig()

	f := rootCmd.Flags()
	f.StringVarP(&configFile, "config", "c", defaultConfigPath(), "Path to configuration file")
	f.StringVar(&matchesPath, "matches", "", "Matches CSV (defaults to data.matches_path)")
	f.StringVar(&deliveriesPath, "deliveries", "", "Deliveries CSV (defaults to data.deliveries_path)")
	f.StringVarP(&outputPath, "output", "o", "", "Artifact output path (defaults to model.artifact_path)")
	f.StringVar(&modelVersion, "model-version", "", "Model version (defaults to a UTC timestamp)")
	f.StringVar(&kind, "kind", defaults.Kind, "Model kind: logistic or linear")
	f.BoolVar(&extended, "extended", false, "Train on the extended feature columns")
	f.BoolVar(&oneIndexed, "one-indexed-overs", false, "Deliveries number overs from 1")
	f.Float64Var(&testFraction, "test-fraction", 0.2, "Fraction of matches held out for evaluation")
	f.Int64Var(&seed, "seed", 42, "Random seed for the match split")
	f.Float64Var(&l2, "l2", defaults.L2, "L2 regularisation strength")
	f.IntVar(&maxIterations, "max-iterations", defaults.MaxIterations, "Maximum optimiser iterations")
	f.BoolVar(&register, "register", false, "Register the artifact in the model registry")
	f.BoolVar(&activate, "activate", false, "Mark the registered model active")
}

var rootCmd = &cobra.Command{
	Use:          "train",
	Short:        "Train the chase win-probability model",
	Long:         `Builds one example per legal second-innings delivery, fits the model on a match-level split and writes the artifact.`,
	Version:      fmt.Sprintf("%s (%s)", Version, GitCommit),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context())
	},
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Bootstrap(ctx, configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	appLog := logger.NewLogger(cfg.App.LogLevel, cfg.App.Environment)

	catalog := cricket.DefaultCatalog()
	if cfg.Model.CatalogPath != "" {
		if catalog, err = cricket.LoadCatalog(cfg.Model.CatalogPath); err != nil {
			return err
		}
	}

	trainer := training.DefaultTrainerConfig()
	trainer.Version = modelVersion
	trainer.Kind = kind
	trainer.Extended = extended || cfg.Model.ExtendedFeatures
	trainer.L2 = l2
	trainer.MaxIterations = maxIterations

	pc := training.PipelineConfig{
		MatchesPath:     firstNonEmpty(matchesPath, cfg.Data.MatchesPath),
		DeliveriesPath:  firstNonEmpty(deliveriesPath, cfg.Data.DeliveriesPath),
		OutputPath:      firstNonEmpty(outputPath, cfg.Model.ArtifactPath),
		OneIndexedOvers: oneIndexed || cfg.Data.OneIndexedOvers,
		TestFraction:    testFraction,
		Seed:            seed,
		Catalog:         catalog,
		Trainer:         trainer,
	}
	if pc.MatchesPath == "" || pc.DeliveriesPath == "" {
		return fmt.Errorf("matches and deliveries paths are required")
	}

	res, err := training.Run(ctx, pc, appLog)
	if err != nil {
		return err
	}
	printResult(res, pc.OutputPath)

	if register {
		return registerModel(ctx, cfg, res, pc.OutputPath, appLog)
	}
	return nil
}

func printResult(res *training.Result, path string) {
	a := res.Artifact
	fmt.Printf("\nModel %s %s (%s)\n", a.Name, a.Version, a.Kind)
	fmt.Printf("  Artifact:        %s\n", path)
	fmt.Printf("  Examples:        %d (%d matches skipped)\n", res.Build.Examples, res.Build.SkippedMatches)
	fmt.Printf("  Train accuracy:  %.4f  brier %.4f\n", res.Train.Accuracy, res.Train.Brier)
	fmt.Printf("  Test accuracy:   %.4f  brier %.4f  log loss %.4f (%d examples)\n",
		res.Test.Accuracy, res.Test.Brier, res.Test.LogLoss, res.Test.Examples)
	fmt.Printf("  Duration:        %s\n\n", res.Duration.Round(time.Millisecond))
}

func registerModel(ctx context.Context, cfg *config.Config, res *training.Result, path string, appLog *logrus.Logger) error {
	if !cfg.Database.Enabled {
		return fmt.Errorf("model registry requires database.enabled")
	}

	db, err := database.Initialize(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	repos, err := repository.NewRepositories(db)
	if err != nil {
		return err
	}

	metricsJSON, err := json.Marshal(res.Artifact.Metrics)
	if err != nil {
		return fmt.Errorf("failed to marshal metrics: %w", err)
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}

	m := &models.Model{
		ID:        uuid.New(),
		Name:      res.Artifact.Name,
		Version:   res.Artifact.Version,
		Kind:      res.Artifact.Kind,
		Path:      path,
		Metrics:   metricsJSON,
		TrainedAt: res.Artifact.TrainedAt,
	}
	if err := repos.Model.Create(ctx, m); err != nil {
		return fmt.Errorf("failed to register model: %w", err)
	}
	appLog.WithFields(logrus.Fields{"id": m.ID, "version": m.Version}).Info("Model registered")

	if activate {
		if err := repos.Model.Activate(ctx, m.ID); err != nil {
			return fmt.Errorf("failed to activate model: %w", err)
		}
		appLog.WithField("version", m.Version).Info("Model activated")
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func defaultConfigPath() string {
	if v := os.Getenv("WINPROB_CONFIG"); v != "" {
		return v
	}
	return config.DefaultPath
}
