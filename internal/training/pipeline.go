package training

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/ipl-winprob/internal/cricket"
	"github.com/yourusername/ipl-winprob/internal/logger"
	"github.com/yourusername/ipl-winprob/internal/metrics"
	"github.com/yourusername/ipl-winprob/internal/ml"
)

// PipelineConfig describes one end-to-end training run
type PipelineConfig struct {
	MatchesPath     string
	DeliveriesPath  string
	OutputPath      string
	OneIndexedOvers bool
	TestFraction    float64
	Seed            int64
	Catalog         *cricket.Catalog
	Trainer         TrainerConfig
}

// Result is the outcome of a training run
type Result struct {
	Artifact *ml.Artifact
	Train    Metrics
	Test     Metrics
	Build    BuildStats
	Duration time.Duration
}

// Run loads the datasets, builds examples, fits, evaluates on the hold-out matches
// and saves the artifact when OutputPath is set.
func Run(ctx context.Context, cfg PipelineConfig, log *logrus.Logger) (*Result, error) {
	tl := logger.NewTrainingLogger(log)
	start := time.Now()

	ds, err := LoadDataset(cfg.MatchesPath, cfg.DeliveriesPath)
	if err != nil {
		return nil, err
	}
	tl.LogDatasetLoaded(len(ds.Matches), len(ds.Deliveries))

	priors := ComputePriors(ds.Matches, cfg.Catalog)
	examples, stats, err := BuildExamples(ds, BuilderOptions{
		OneIndexedOvers: cfg.OneIndexedOvers,
		Catalog:         cfg.Catalog,
		Priors:          priors,
	})
	if err != nil {
		return nil, err
	}
	tl.LogExamplesBuilt(stats.Examples, stats.SkippedMatches)

	testFraction := cfg.TestFraction
	if testFraction <= 0 || testFraction >= 1 {
		testFraction = 0.2
	}
	train, test := SplitByMatch(examples, testFraction, cfg.Seed)
	if len(train) == 0 {
		return nil, ErrNoExamples
	}

	artifact, err := Train(train, priors, cfg.Trainer)
	if err != nil {
		return nil, err
	}

	model, err := ml.NewLocalModel(artifact, "training")
	if err != nil {
		return nil, err
	}

	res := &Result{Artifact: artifact, Build: stats}
	if res.Train, err = Evaluate(ctx, model, train, cfg.Trainer.Extended); err != nil {
		return nil, err
	}
	if len(test) > 0 {
		if res.Test, err = Evaluate(ctx, model, test, cfg.Trainer.Extended); err != nil {
			return nil, err
		}
	}

	artifact.Metrics = map[string]float64{
		"train_accuracy": res.Train.Accuracy,
		"train_brier":    res.Train.Brier,
		"test_accuracy":  res.Test.Accuracy,
		"test_brier":     res.Test.Brier,
		"test_log_loss":  res.Test.LogLoss,
		"test_examples":  float64(res.Test.Examples),
	}

	if cfg.OutputPath != "" {
		if err := artifact.Save(cfg.OutputPath); err != nil {
			return nil, fmt.Errorf("failed to save artifact: %w", err)
		}
	}

	res.Duration = time.Since(start)
	metrics.RecordTrainingDuration(res.Duration.Seconds())
	tl.LogTrainingCompleted(artifact.Kind, res.Duration.Seconds(), artifact.Metrics)
	return res, nil
}
