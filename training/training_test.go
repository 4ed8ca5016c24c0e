package training

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/agrodash/core/model"
	"github.com/ezoic/agrodash/dataset"
	"github.com/ezoic/agrodash/pipeline"
	agroErrors "github.com/ezoic/agrodash/pkg/errors"
	"github.com/ezoic/agrodash/render"
	"github.com/ezoic/agrodash/report"
)

var trainedAt = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func testOptions(t *testing.T) Options {
	t.Helper()
	return Options{
		OutDir: t.TempDir(),
		Trees:  12,
		Seed:   dataset.DefaultSeed,
		Format: render.FormatSVG,
		Clock:  clockwork.NewFakeClockAt(trainedAt),
	}
}

func sumWeights(features []report.FeatureImportance) float64 {
	var sum float64
	for _, f := range features {
		sum += f.Weight
	}
	return sum
}

func TestRunCrop(t *testing.T) {
	opts := testOptions(t)
	res, err := RunCrop(context.Background(), opts)
	require.NoError(t, err)

	rep := res.Report
	require.NoError(t, rep.Validate())
	assert.Equal(t, "crop", rep.Name)
	assert.Len(t, rep.YTest, 24, "ceil(0.2 * 116) test rows")
	assert.Len(t, rep.TestIndex, 24)
	assert.Len(t, rep.Features, len(dataset.CropFeatureNames))
	assert.InDelta(t, 1.0, sumWeights(rep.Features), 1e-9)
	assert.LessOrEqual(t, rep.R2, 1.0)
	assert.GreaterOrEqual(t, rep.MAPE, 0.0)
	assert.Equal(t, trainedAt, rep.TrainedAt)
	assert.Equal(t, 12, rep.Params["n_estimators"])

	want := []string{
		ImportanceChartName + ".svg",
		ScatterChartName + ".svg",
		CropModelFile,
		ReportFile,
		TestIndexFile,
		TestMeanFile,
	}
	require.Len(t, res.Artifacts, len(want))
	for i, name := range want {
		assert.Equal(t, filepath.Join(opts.OutDir, name), res.Artifacts[i])
		info, err := os.Stat(res.Artifacts[i])
		require.NoError(t, err)
		assert.Positive(t, info.Size(), name)
	}

	saved, err := report.Load(filepath.Join(opts.OutDir, ReportFile))
	require.NoError(t, err)
	assert.InDelta(t, rep.R2, saved.R2, 1e-12)
	assert.Equal(t, rep.TestIndex, saved.TestIndex)

	file, err := os.Open(filepath.Join(opts.OutDir, TestMeanFile))
	require.NoError(t, err)
	defer file.Close()
	records, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 25)
	assert.Equal(t, []string{"indice", "media_anual"}, records[0])
}

func TestRunCropDeterministic(t *testing.T) {
	a, err := RunCrop(context.Background(), testOptions(t))
	require.NoError(t, err)
	b, err := RunCrop(context.Background(), testOptions(t))
	require.NoError(t, err)

	assert.Equal(t, a.Report.TestIndex, b.Report.TestIndex)
	assert.Equal(t, a.Report.YPred, b.Report.YPred)
}

func TestRunThermal(t *testing.T) {
	opts := testOptions(t)
	opts.Format = render.FormatPNG
	res, err := RunThermal(context.Background(), opts)
	require.NoError(t, err)

	rep := res.Report
	require.NoError(t, rep.Validate())
	assert.Equal(t, "thermal", rep.Name)
	assert.Len(t, rep.YTest, 15, "ceil(0.2 * 72) test rows")
	assert.Greater(t, rep.R2, 0.9)
	assert.InDelta(t, 1.0, sumWeights(rep.Features), 1e-9)
	assert.Equal(t, "temperatura", rep.Ranked()[len(rep.Features)-1].Name)

	require.Len(t, res.Artifacts, 5)
	assert.Equal(t, filepath.Join(opts.OutDir, ThermalModelFile), res.Artifacts[2])
	assert.NoFileExists(t, filepath.Join(opts.OutDir, TestMeanFile))
}

func TestSavedPipelineReloads(t *testing.T) {
	opts := testOptions(t)
	res, err := RunThermal(context.Background(), opts)
	require.NoError(t, err)

	loaded := &pipeline.Pipeline{}
	require.NoError(t, model.LoadModel(loaded, filepath.Join(opts.OutDir, ThermalModelFile)))
	require.True(t, loaded.IsFitted())

	frame, err := dataset.ThermalFeatures(dataset.ThermalMonthly(opts.Seed))
	require.NoError(t, err)
	X := frame.X.Slice(0, 5, 0, 3).(*mat.Dense)

	want, err := res.Pipeline.Predict(X)
	require.NoError(t, err)
	got, err := loaded.Predict(X)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(want, got, 1e-9))
}

func TestOptionsValidation(t *testing.T) {
	opts := testOptions(t)
	opts.Trees = -1
	_, err := RunCrop(context.Background(), opts)
	assert.ErrorIs(t, err, agroErrors.ErrInvalidInput)

	opts = testOptions(t)
	opts.Format = "gif"
	_, err = RunThermal(context.Background(), opts)
	assert.ErrorIs(t, err, agroErrors.ErrInvalidInput)

	// would wrap to a negative forest random state
	opts = testOptions(t)
	opts.Seed = 1<<63 + 7
	_, err = RunCrop(context.Background(), opts)
	assert.ErrorIs(t, err, agroErrors.ErrInvalidInput)
}

// cancelAfter reports cancellation once Err has been called n times.
type cancelAfter struct {
	context.Context
	n int
}

func (c *cancelAfter) Err() error {
	if c.n <= 0 {
		return context.Canceled
	}
	c.n--
	return nil
}

func TestRunThermalStopsAfterFit(t *testing.T) {
	opts := testOptions(t)
	ctx := &cancelAfter{Context: context.Background(), n: 1}

	_, err := RunThermal(ctx, opts)
	assert.ErrorIs(t, err, context.Canceled)

	entries, err := os.ReadDir(opts.OutDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := RunCrop(ctx, testOptions(t))
	assert.ErrorIs(t, err, context.Canceled)
	_, err = RunThermal(ctx, testOptions(t))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestImportanceFigure(t *testing.T) {
	fig := ImportanceFigure(report.ThermalDefault(), "#00F020")
	require.Len(t, fig.Bars, 3)
	assert.Equal(t, "Importância das Variáveis", fig.Title)
	for _, b := range fig.Bars {
		assert.Equal(t, "#00F020", b.Color)
	}
	assert.Equal(t, "62.0%", fig.Bars[0].Text)

	scatter := ScatterFigure(report.CropDefault())
	assert.Equal(t, 1450.0, scatter.RefFrom)
	assert.Equal(t, 3300.0, scatter.RefTo)
	assert.Len(t, scatter.Points, 15)
}
