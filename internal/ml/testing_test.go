package ml

import (
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/ipl-winprob/internal/cricket"
	"github.com/yourusername/ipl-winprob/internal/models"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// testArtifact scores z = 0.5*[A] - 0.5*[B] - 0.02*runs_left + 0.01*balls_left + 0.1
func testArtifact() *Artifact {
	return &Artifact{
		Name:    "test",
		Version: "v1",
		Kind:    KindLogistic,
		Categorical: []CategoricalColumn{
			{Name: cricket.ColBattingTeam, Categories: []string{"A", "B"}},
		},
		Numeric:   []string{cricket.ColRunsLeft, cricket.ColBallsLeft},
		Weights:   []float64{0.5, -0.5, -0.02, 0.01},
		Intercept: 0.1,
		Priors: cricket.Priors{
			TeamStrength: map[string]float64{"A": 0.6},
		},
		TrainedAt: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	}
}

func testRecord(team string, runsLeft, ballsLeft float64) models.FeatureRecord {
	rec := models.NewFeatureRecord()
	rec.Categorical[cricket.ColBattingTeam] = team
	rec.Numeric[cricket.ColRunsLeft] = runsLeft
	rec.Numeric[cricket.ColBallsLeft] = ballsLeft
	return rec
}
