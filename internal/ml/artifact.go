package ml

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/yourusername/ipl-winprob/internal/cricket"
	"github.com/yourusername/ipl-winprob/internal/models"
)

// Model kinds
const (
	KindLogistic = "logistic"
	KindLinear   = "linear"
)

// CategoricalColumn lists the categories one-hot encoded for a column.
// A value outside Categories encodes as all zeros.
type CategoricalColumn struct {
	Name       string   `json:"name"`
	Categories []string `json:"categories"`
}

// Artifact is the serialized form of a trained model: the encoder layout and the
// fitted coefficients. Weights are ordered categorical one-hots first, then numerics.
type Artifact struct {
	Name        string              `json:"name"`
	Version     string              `json:"version"`
	Kind        string              `json:"kind"`
	Categorical []CategoricalColumn `json:"categorical"`
	Numeric     []string            `json:"numeric"`
	Means       []float64           `json:"means,omitempty"`
	Scales      []float64           `json:"scales,omitempty"`
	Weights     []float64           `json:"weights"`
	Intercept   float64             `json:"intercept"`
	Priors      cricket.Priors      `json:"priors"`
	Metrics     map[string]float64  `json:"metrics,omitempty"`
	TrainedAt   time.Time           `json:"trained_at"`

	index []map[string]int
}

// LoadArtifact reads and validates an artifact from disk
func LoadArtifact(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model artifact %s: %w", path, err)
	}

	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArtifact, err)
	}
	if err := a.Prepare(); err != nil {
		return nil, err
	}
	return &a, nil
}

// Save writes the artifact as indented JSON, replacing the target atomically
func (a *Artifact) Save(path string) error {
	if err := a.Prepare(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal model artifact: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create artifact directory: %w", err)
		}
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write model artifact: %w", err)
	}
	return os.Rename(tmp, path)
}

// Prepare validates the artifact and builds its category lookup
func (a *Artifact) Prepare() error {
	switch a.Kind {
	case KindLogistic, KindLinear:
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidArtifact, a.Kind)
	}
	if a.Version == "" {
		return fmt.Errorf("%w: missing version", ErrInvalidArtifact)
	}
	if len(a.Weights) != a.Dimension() {
		return fmt.Errorf("%w: %d weights for %d encoded columns", ErrInvalidArtifact, len(a.Weights), a.Dimension())
	}
	if len(a.Means) != 0 && len(a.Means) != len(a.Numeric) {
		return fmt.Errorf("%w: %d means for %d numeric columns", ErrInvalidArtifact, len(a.Means), len(a.Numeric))
	}
	if len(a.Scales) != len(a.Means) {
		return fmt.Errorf("%w: means and scales differ in length", ErrInvalidArtifact)
	}
	for _, s := range a.Scales {
		if s == 0 || math.IsNaN(s) {
			return fmt.Errorf("%w: zero or NaN scale", ErrInvalidArtifact)
		}
	}

	a.index = make([]map[string]int, len(a.Categorical))
	for i, col := range a.Categorical {
		a.index[i] = make(map[string]int, len(col.Categories))
		for j, c := range col.Categories {
			a.index[i][c] = j
		}
	}
	return nil
}

// Dimension is the width of an encoded row
func (a *Artifact) Dimension() int {
	n := len(a.Numeric)
	for _, col := range a.Categorical {
		n += len(col.Categories)
	}
	return n
}

// Columns lists the raw input columns in model order
func (a *Artifact) Columns() []string {
	cols := make([]string, 0, len(a.Categorical)+len(a.Numeric))
	for _, col := range a.Categorical {
		cols = append(cols, col.Name)
	}
	return append(cols, a.Numeric...)
}

// Extended reports whether the model consumes the context features
func (a *Artifact) Extended() bool {
	for _, c := range a.Columns() {
		if c == cricket.ColPhase || c == cricket.ColPressure {
			return true
		}
	}
	return false
}

// Encode turns a record into the numeric row the weights apply to. Every column the
// model was trained on must be present in the record.
func (a *Artifact) Encode(rec models.FeatureRecord) ([]float64, error) {
	if a.index == nil {
		if err := a.Prepare(); err != nil {
			return nil, err
		}
	}

	x := make([]float64, a.Dimension())
	offset := 0
	for i, col := range a.Categorical {
		v, ok := rec.Categorical[col.Name]
		if !ok {
			return nil, fmt.Errorf("%w: missing categorical column %q", ErrFeatureMismatch, col.Name)
		}
		if j, known := a.index[i][v]; known {
			x[offset+j] = 1
		}
		offset += len(col.Categories)
	}

	for i, name := range a.Numeric {
		v, ok := rec.Numeric[name]
		if !ok {
			return nil, fmt.Errorf("%w: missing numeric column %q", ErrFeatureMismatch, name)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: column %q is not finite", ErrFeatureMismatch, name)
		}
		if len(a.Means) > 0 {
			v = (v - a.Means[i]) / a.Scales[i]
		}
		x[offset+i] = v
	}
	return x, nil
}
