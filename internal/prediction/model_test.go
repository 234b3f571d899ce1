package prediction

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// repoModel is the model file shipped at the repository root.
const repoModel = "../../model.json"

func writeModel(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLinearModel_Predict(t *testing.T) {
	m := &LinearModel{Coefficients: []float64{2, -1, 0.5}, Intercept: 10}

	y, err := m.Predict([]float64{1, 2, 4})
	require.NoError(t, err)
	assert.Equal(t, 12.0, y)

	_, err = m.Predict([]float64{1})
	assert.ErrorIs(t, err, ErrFeatureMismatch)
}

func TestLoadLinearModel(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		path := writeModel(t, `{"coefficients":[1,1,1,1,1,1,1,1,1,1,1,1,1],"intercept":2}`)
		m, err := LoadLinearModel(path)
		require.NoError(t, err)
		assert.Equal(t, 2.0, m.Intercept)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadLinearModel(filepath.Join(t.TempDir(), "nope.json"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("malformed json", func(t *testing.T) {
		_, err := LoadLinearModel(writeModel(t, `{"coefficients":`))
		assert.Error(t, err)
	})

	t.Run("wrong coefficient count", func(t *testing.T) {
		_, err := LoadLinearModel(writeModel(t, `{"coefficients":[1,2,3],"intercept":0}`))
		assert.ErrorIs(t, err, ErrFeatureMismatch)
	})

	t.Run("feature names mismatch", func(t *testing.T) {
		_, err := LoadLinearModel(writeModel(t, `{"feature_names":["a"],"coefficients":[1,1,1,1,1,1,1,1,1,1,1,1,1]}`))
		assert.Error(t, err)
	})
}

func TestLazyModel(t *testing.T) {
	path := writeModel(t, `{"coefficients":[0,0,0,0,0,0,0,1,0,0,0,0,0],"intercept":1}`)
	lazy := NewLazyModel(path)

	y, err := lazy.Predict(BuildFeatureVector(sampleInput("INLAND")))
	require.NoError(t, err)
	assert.InDelta(t, 6.5789, y, 1e-9)

	// Loaded once: later changes to the file are not picked up.
	require.NoError(t, os.Remove(path))
	_, err = lazy.Predict(BuildFeatureVector(sampleInput("INLAND")))
	assert.NoError(t, err)
}

func TestLazyModel_Unavailable(t *testing.T) {
	lazy := NewLazyModel(filepath.Join(t.TempDir(), "missing.json"))

	_, err := lazy.Predict(make([]float64, FeatureCount))
	assert.ErrorIs(t, err, ErrModelUnavailable)

	_, err = lazy.Load()
	assert.ErrorIs(t, err, ErrModelUnavailable)
}

func TestRepositoryModel_KnownDistricts(t *testing.T) {
	m, err := LoadLinearModel(repoModel)
	require.NoError(t, err)
	assert.Len(t, m.FeatureNames, FeatureCount)

	cases := []struct {
		in   Input
		want float64
	}{
		{sampleInput("NEAR OCEAN"), 320201.58554044},
		{Input{
			Longitude: f(-115.73), Latitude: f(33.35), HousingMedianAge: f(23),
			TotalRooms: f(1586), TotalBedrooms: f(448), Population: f(338),
			Households: f(182), MedianIncome: f(1.2132), OceanProximity: "INLAND",
		}, 58815.45033765},
		{Input{
			Longitude: f(-117.96), Latitude: f(33.89), HousingMedianAge: f(24),
			TotalRooms: f(1332), TotalBedrooms: f(252), Population: f(625),
			Households: f(230), MedianIncome: f(4.4375), OceanProximity: "<1H OCEAN",
		}, 192575.77355635},
	}

	for _, tc := range cases {
		y, err := m.Predict(BuildFeatureVector(tc.in))
		require.NoError(t, err)
		assert.InEpsilon(t, tc.want, y, 1e-3)
	}
}

func TestRepositoryModel_DatasetRowsInRange(t *testing.T) {
	m, err := LoadLinearModel(repoModel)
	require.NoError(t, err)

	rows := []Input{
		{
			Longitude: f(-122.23), Latitude: f(37.88), HousingMedianAge: f(41),
			TotalRooms: f(880), TotalBedrooms: f(129), Population: f(322),
			Households: f(126), MedianIncome: f(8.3252), OceanProximity: "NEAR BAY",
		},
		{
			Longitude: f(-122.22), Latitude: f(37.86), HousingMedianAge: f(21),
			TotalRooms: f(7099), TotalBedrooms: f(1106), Population: f(2401),
			Households: f(1138), MedianIncome: f(8.3014), OceanProximity: "NEAR BAY",
		},
	}

	for _, row := range rows {
		y, err := m.Predict(BuildFeatureVector(row))
		require.NoError(t, err)
		assert.GreaterOrEqual(t, y, 10000.0)
		assert.LessOrEqual(t, y, 1000000.0)
	}
}
