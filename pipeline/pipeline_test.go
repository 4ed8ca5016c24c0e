package pipeline

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/agrodash/core/model"
	"github.com/ezoic/agrodash/ensemble"
	"github.com/ezoic/agrodash/linear"
	agroErrors "github.com/ezoic/agrodash/pkg/errors"
	"github.com/ezoic/agrodash/preprocessing"
)

func init() {
	model.Register(
		&preprocessing.StandardScaler{},
		&linear.LinearRegression{},
		&ensemble.RandomForestRegressor{},
	)
}

// linearData returns y = 2*x0 - x1 + 10 with features on very different scales.
func linearData() (*mat.Dense, *mat.Dense) {
	n := 12
	X := mat.NewDense(n, 2, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		x0 := float64(i)
		x1 := float64((i*37)%13) * 100
		X.Set(i, 0, x0)
		X.Set(i, 1, x1)
		y.Set(i, 0, 2*x0-x1+10)
	}
	return X, y
}

func TestPipeline_ScalerLinear(t *testing.T) {
	X, y := linearData()
	pipe := New(
		Step{Name: "scaler", Estimator: preprocessing.NewStandardScalerDefault()},
		Step{Name: "linear", Estimator: linear.NewLinearRegression()},
	)
	require.NoError(t, pipe.Fit(X, y))
	require.True(t, pipe.IsFitted())

	pred, err := pipe.Predict(mat.NewDense(1, 2, []float64{20, 300}))
	require.NoError(t, err)
	assert.InDelta(t, 2*20.0-300+10, pred.At(0, 0), 1e-6)

	score, err := pipe.Score(X, y)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, score, 1e-9)

	step, ok := pipe.NamedStep("scaler")
	require.True(t, ok)
	scaler := step.(*preprocessing.StandardScaler)
	assert.InDelta(t, 5.5, scaler.Mean[0], 1e-12)

	_, ok = pipe.NamedStep("missing")
	assert.False(t, ok)

	params := pipe.GetParams()
	assert.Equal(t, true, params["scaler__with_mean"])
	assert.Equal(t, 2, params["linear__n_features"])
}

func TestPipeline_ForestScoreFallsBackToR2(t *testing.T) {
	X, y := linearData()
	pipe := New(
		Step{Name: "scaler", Estimator: preprocessing.NewStandardScalerDefault()},
		Step{Name: "rf", Estimator: ensemble.NewRandomForestRegressor(
			ensemble.WithNEstimators(10),
			ensemble.WithBootstrap(false),
			ensemble.WithRandomState(42),
		)},
	)
	require.NoError(t, pipe.Fit(X, y))

	score, err := pipe.Score(X, y)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, score, 1e-9)

	rf, _ := pipe.NamedStep("rf")
	imp := rf.(model.FeatureImportancer).FeatureImportances()
	assert.Len(t, imp, 2)
}

func TestPipeline_Transform(t *testing.T) {
	X, _ := linearData()
	pipe := New(Step{Name: "scaler", Estimator: preprocessing.NewStandardScalerDefault()})

	_, err := pipe.Transform(X)
	assert.True(t, agroErrors.Is(err, agroErrors.ErrNotFitted))

	// a lone transformer is fitted as the final step with y ignored
	require.NoError(t, pipe.Fit(X, nil))
	Xt, err := pipe.Transform(X)
	require.NoError(t, err)
	r, c := Xt.Dims()
	assert.Equal(t, 12, r)
	assert.Equal(t, 2, c)
}

func TestPipeline_Validation(t *testing.T) {
	X, y := linearData()

	tests := []struct {
		name  string
		steps []Step
	}{
		{"empty", nil},
		{"intermediate not a transformer", []Step{
			{Name: "linear", Estimator: linear.NewLinearRegression()},
			{Name: "linear2", Estimator: linear.NewLinearRegression()},
		}},
		{"final step without Fit", []Step{
			{Name: "scaler", Estimator: preprocessing.NewStandardScalerDefault()},
			{Name: "bogus", Estimator: "not an estimator"},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.steps...).Fit(X, y)
			assert.True(t, agroErrors.Is(err, agroErrors.ErrInvalidInput), "got %v", err)
		})
	}

	_, err := New().Predict(X)
	assert.True(t, agroErrors.Is(err, agroErrors.ErrNotFitted))
}

func TestPipeline_Gob(t *testing.T) {
	X, y := linearData()
	pipe := New(
		Step{Name: "scaler", Estimator: preprocessing.NewStandardScalerDefault()},
		Step{Name: "linear", Estimator: linear.NewLinearRegression()},
	)
	require.NoError(t, pipe.Fit(X, y))

	var buf bytes.Buffer
	require.NoError(t, model.SaveModelToWriter(pipe, &buf))

	restored := &Pipeline{}
	require.NoError(t, model.LoadModelFromReader(restored, &buf))
	require.Len(t, restored.Steps(), 2)

	want, err := pipe.Predict(X)
	require.NoError(t, err)
	got, err := restored.Predict(X)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(want, got, 1e-12))
}
