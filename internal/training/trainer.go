package training

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"

	"github.com/yourusername/ipl-winprob/internal/cricket"
	"github.com/yourusername/ipl-winprob/internal/ml"
)

// ErrNoExamples is returned when there is nothing to fit
var ErrNoExamples = errors.New("no training examples")

// TrainerConfig controls a fit
type TrainerConfig struct {
	Name          string
	Version       string
	Kind          string
	Extended      bool
	L2            float64
	MaxIterations int
}

// DefaultTrainerConfig returns a logistic fit over the base columns
func DefaultTrainerConfig() TrainerConfig {
	return TrainerConfig{
		Name:          "ipl-chase",
		Kind:          ml.KindLogistic,
		L2:            1e-4,
		MaxIterations: 200,
	}
}

// Train fits an artifact on examples. Category vocabularies and numeric scaling
// come from the training set only.
func Train(examples []Example, priors cricket.Priors, cfg TrainerConfig) (*ml.Artifact, error) {
	if len(examples) == 0 {
		return nil, ErrNoExamples
	}
	if cfg.Version == "" {
		cfg.Version = time.Now().UTC().Format("20060102T150405Z")
	}

	a := &ml.Artifact{
		Name:      cfg.Name,
		Version:   cfg.Version,
		Kind:      cfg.Kind,
		Priors:    priors,
		TrainedAt: time.Now().UTC(),
	}

	catCols, numCols := columnsFor(cfg.Extended)
	records := make([]map[string]string, len(examples))
	numerics := make([]map[string]float64, len(examples))
	y := make([]float64, len(examples))
	for i, e := range examples {
		rec := e.Record(cfg.Extended)
		records[i] = rec.Categorical
		numerics[i] = rec.Numeric
		y[i] = e.Label
	}

	for _, col := range catCols {
		seen := map[string]struct{}{}
		for _, r := range records {
			seen[r[col]] = struct{}{}
		}
		cats := make([]string, 0, len(seen))
		for c := range seen {
			cats = append(cats, c)
		}
		sort.Strings(cats)
		a.Categorical = append(a.Categorical, ml.CategoricalColumn{Name: col, Categories: cats})
	}

	a.Numeric = numCols
	a.Means = make([]float64, len(numCols))
	a.Scales = make([]float64, len(numCols))
	column := make([]float64, len(examples))
	for j, col := range numCols {
		for i := range examples {
			column[i] = numerics[i][col]
		}
		mean, std := stat.MeanStdDev(column, nil)
		if std == 0 || math.IsNaN(std) {
			std = 1
		}
		a.Means[j], a.Scales[j] = mean, std
	}
	a.Weights = make([]float64, a.Dimension())
	if err := a.Prepare(); err != nil {
		return nil, err
	}

	X := make([][]float64, len(examples))
	for i, e := range examples {
		x, err := a.Encode(e.Record(cfg.Extended))
		if err != nil {
			return nil, err
		}
		X[i] = x
	}

	var params []float64
	var err error
	switch cfg.Kind {
	case ml.KindLogistic:
		params, err = fitLogistic(X, y, cfg.L2, cfg.MaxIterations)
	case ml.KindLinear:
		params, err = fitLinear(X, y, cfg.L2)
	default:
		return nil, fmt.Errorf("unknown model kind %q", cfg.Kind)
	}
	if err != nil {
		return nil, err
	}

	d := a.Dimension()
	a.Weights = params[:d]
	a.Intercept = params[d]
	return a, nil
}

func columnsFor(extended bool) (categorical, numeric []string) {
	cols := cricket.FeatureColumns
	if extended {
		cols = append(append([]string(nil), cricket.FeatureColumns...), cricket.ExtendedColumns...)
	}
	isCat := map[string]bool{}
	for _, c := range cricket.CategoricalColumns {
		isCat[c] = true
	}
	for _, c := range cols {
		if isCat[c] {
			categorical = append(categorical, c)
		} else {
			numeric = append(numeric, c)
		}
	}
	return categorical, numeric
}

// softplus is log(1 + e^z) without overflow
func softplus(z float64) float64 {
	if z > 0 {
		return z + math.Log1p(math.Exp(-z))
	}
	return math.Log1p(math.Exp(z))
}

// fitLogistic minimises mean log loss plus l2/2 |w|^2 with LBFGS.
// The returned slice holds the weights followed by the intercept.
func fitLogistic(X [][]float64, y []float64, l2 float64, maxIter int) ([]float64, error) {
	d := len(X[0])
	n := float64(len(X))

	loss := func(p []float64) float64 {
		w, b := p[:d], p[d]
		total := 0.0
		for i, x := range X {
			z := floats.Dot(w, x) + b
			total += softplus(z) - y[i]*z
		}
		return total/n + 0.5*l2*floats.Dot(w, w)
	}
	grad := func(g, p []float64) {
		w, b := p[:d], p[d]
		for j := range g {
			g[j] = 0
		}
		for i, x := range X {
			r := ml.Sigmoid(floats.Dot(w, x)+b) - y[i]
			floats.AddScaled(g[:d], r, x)
			g[d] += r
		}
		floats.Scale(1/n, g)
		floats.AddScaled(g[:d], l2, w)
	}

	problem := optimize.Problem{Func: loss, Grad: grad}
	settings := &optimize.Settings{
		MajorIterations:   maxIter,
		GradientThreshold: 1e-6,
	}
	result, err := optimize.Minimize(problem, make([]float64, d+1), settings, &optimize.LBFGS{})
	if result == nil {
		return nil, fmt.Errorf("logistic fit failed: %w", err)
	}
	// line-search failures still leave a usable best point
	return result.X, nil
}

// fitLinear solves ridge-regularised least squares through the normal equations.
func fitLinear(X [][]float64, y []float64, l2 float64) ([]float64, error) {
	d := len(X[0]) + 1
	design := mat.NewDense(len(X), d, nil)
	for i, x := range X {
		design.SetRow(i, append(append([]float64(nil), x...), 1))
	}

	var gram mat.Dense
	gram.Mul(design.T(), design)
	ridge := math.Max(l2, 1e-8) * float64(len(X))
	for j := 0; j < d-1; j++ {
		gram.Set(j, j, gram.At(j, j)+ridge)
	}

	var rhs mat.VecDense
	rhs.MulVec(design.T(), mat.NewVecDense(len(y), y))

	var w mat.VecDense
	if err := w.SolveVec(&gram, &rhs); err != nil {
		return nil, fmt.Errorf("linear fit failed: %w", err)
	}
	return w.RawVector().Data, nil
}
