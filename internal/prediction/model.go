package prediction

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
)

var (
	ErrModelUnavailable = errors.New("model unavailable")
	ErrFeatureMismatch  = errors.New("feature vector length does not match model")
)

// Model maps a feature vector to a predicted median house value.
type Model interface {
	Predict(features []float64) (float64, error)
}

// LinearModel is a fitted linear regression exported as JSON:
//
//	{"feature_names": [...], "coefficients": [...], "intercept": 0}
type LinearModel struct {
	FeatureNames []string  `json:"feature_names"`
	Coefficients []float64 `json:"coefficients"`
	Intercept    float64   `json:"intercept"`
}

// Predict returns intercept + coefficients·features.
func (m *LinearModel) Predict(features []float64) (float64, error) {
	if len(features) != len(m.Coefficients) {
		return 0, fmt.Errorf("%w: got %d, want %d", ErrFeatureMismatch, len(features), len(m.Coefficients))
	}

	y := m.Intercept
	for i, x := range features {
		y += m.Coefficients[i] * x
	}
	return y, nil
}

// LoadLinearModel reads and checks a linear model file.
func LoadLinearModel(path string) (*LinearModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model %s: %w", path, err)
	}

	var m LinearModel
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse model %s: %w", path, err)
	}

	if len(m.Coefficients) != FeatureCount {
		return nil, fmt.Errorf("%w: model has %d coefficients, want %d", ErrFeatureMismatch, len(m.Coefficients), FeatureCount)
	}
	if len(m.FeatureNames) != 0 && len(m.FeatureNames) != len(m.Coefficients) {
		return nil, fmt.Errorf("model %s: %d feature names for %d coefficients", path, len(m.FeatureNames), len(m.Coefficients))
	}

	return &m, nil
}

// LazyModel loads a model file on first use and keeps it for the life of the
// process. A failed load is remembered and reported on every call.
type LazyModel struct {
	path string

	once  sync.Once
	model Model
	err   error
}

// NewLazyModel creates a model that is read from path on first Predict.
func NewLazyModel(path string) *LazyModel {
	return &LazyModel{path: path}
}

// Load forces the model to be read.
func (l *LazyModel) Load() (Model, error) {
	l.once.Do(func() {
		m, err := LoadLinearModel(l.path)
		if err != nil {
			l.err = fmt.Errorf("%w: %w", ErrModelUnavailable, err)
			return
		}
		l.model = m
	})
	return l.model, l.err
}

// Predict loads the model if needed and runs it.
func (l *LazyModel) Predict(features []float64) (float64, error) {
	m, err := l.Load()
	if err != nil {
		return 0, err
	}
	return m.Predict(features)
}
