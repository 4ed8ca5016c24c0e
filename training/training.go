// Package training is the offline model trainer behind cmd/train.
//
// RunCrop fits the soybean productivity Random Forest on the embedded
// monthly series; RunThermal fits the thermal sensation linear model on the
// simulated thermal-comfort series. Both standardize features inside a
// pipeline, evaluate R² and MAPE on a held-out split and write their
// artifacts (charts, serialized pipeline, JSON report, test indices) to
// Options.OutDir.
package training

import (
	"context"
	"math"
	"os"

	"github.com/jonboulle/clockwork"
	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/agrodash/core/model"
	"github.com/ezoic/agrodash/dataset"
	"github.com/ezoic/agrodash/ensemble"
	"github.com/ezoic/agrodash/linear"
	"github.com/ezoic/agrodash/metrics"
	"github.com/ezoic/agrodash/modelselection"
	"github.com/ezoic/agrodash/pipeline"
	agroErrors "github.com/ezoic/agrodash/pkg/errors"
	"github.com/ezoic/agrodash/pkg/log"
	"github.com/ezoic/agrodash/preprocessing"
	"github.com/ezoic/agrodash/render"
	"github.com/ezoic/agrodash/report"
)

// Forest hyperparameters of the crop model.
const (
	DefaultTrees           = 800
	DefaultMaxDepth        = 10
	DefaultMinSamplesSplit = 5
	DefaultMinSamplesLeaf  = 3
	DefaultMaxFeatures     = 0.5
	DefaultTestSize        = 0.2
)

// Artifact file names.
const (
	ImportanceChartName = "grafico_importancia_variaveis"
	ScatterChartName    = "grafico_dispersao_teste"
	CropModelFile       = "modelo_produtividade_soja.gob"
	ThermalModelFile    = "modelo_sensacao_termica.gob"
	ReportFile          = "relatorio.json"
	TestIndexFile       = "indices_teste.csv"
	TestMeanFile        = "media_test.csv"
)

func init() {
	model.Register(
		&preprocessing.StandardScaler{},
		&linear.LinearRegression{},
		&ensemble.RandomForestRegressor{},
	)
}

// Options controls a training run.
type Options struct {
	OutDir   string
	Trees    int
	Seed     uint64
	TestSize float64
	Format   string // render.FormatPNG or render.FormatSVG
	Clock    clockwork.Clock
}

// DefaultOptions writes PNG artifacts to the working directory with seed 42.
func DefaultOptions() Options {
	return Options{
		OutDir:   ".",
		Trees:    DefaultTrees,
		Seed:     dataset.DefaultSeed,
		TestSize: DefaultTestSize,
		Format:   render.FormatPNG,
		Clock:    clockwork.NewRealClock(),
	}
}

func (o Options) withDefaults() (Options, error) {
	def := DefaultOptions()
	if o.OutDir == "" {
		o.OutDir = def.OutDir
	}
	if o.Trees == 0 {
		o.Trees = def.Trees
	}
	if o.TestSize == 0 {
		o.TestSize = def.TestSize
	}
	if o.Format == "" {
		o.Format = def.Format
	}
	if o.Clock == nil {
		o.Clock = def.Clock
	}
	// the forest reads a negative random state as unseeded
	if o.Seed > math.MaxInt64 {
		return o, agroErrors.NewValidationError("seed", "must be <= 9223372036854775807", o.Seed)
	}
	if o.Trees < 1 {
		return o, agroErrors.NewValidationError("trees", "must be >= 1", o.Trees)
	}
	if o.Format != render.FormatPNG && o.Format != render.FormatSVG {
		return o, agroErrors.NewValidationError("format", "must be png or svg", o.Format)
	}
	if err := os.MkdirAll(o.OutDir, 0o755); err != nil {
		return o, agroErrors.Wrapf(err, "create output directory %s", o.OutDir)
	}
	return o, nil
}

// Result is the outcome of a training run.
type Result struct {
	Report    *report.ModelReport
	Pipeline  *pipeline.Pipeline
	Artifacts []string // paths written, in creation order
}

// split is a frame divided into train and test parts.
type split struct {
	trainIdx, testIdx []int
	XTrain, XTest     *mat.Dense
	yTrain, yTest     *mat.VecDense
}

func splitFrame(f *dataset.Frame, testSize float64, seed uint64) (*split, error) {
	train, test, err := modelselection.TrainTestSplit(f.Len(), testSize, seed)
	if err != nil {
		return nil, err
	}
	return &split{
		trainIdx: train,
		testIdx:  test,
		XTrain:   modelselection.Take(f.X, train),
		XTest:    modelselection.Take(f.X, test),
		yTrain:   modelselection.TakeVec(f.Y, train),
		yTest:    modelselection.TakeVec(f.Y, test),
	}, nil
}

// RunCrop trains the soybean productivity model.
//
// The forest learns the yield relative to its year's mean; predictions and
// targets are multiplied back by the annual mean of each test row before
// scoring, so R² and MAPE are on the real yield scale.
func RunCrop(ctx context.Context, opts Options) (*Result, error) {
	opts, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}
	logger := log.GetLoggerWithName("training").With(log.ModelNameKey, "crop", log.PhaseKey, log.PhaseTraining)
	start := opts.Clock.Now()

	frame, err := dataset.BuildCropFeatures(dataset.CropMonthly())
	if err != nil {
		return nil, agroErrors.Wrap(err, "build crop features")
	}
	s, err := splitFrame(frame, opts.TestSize, opts.Seed)
	if err != nil {
		return nil, err
	}
	logger.Info("Features ready", log.SamplesKey, frame.Len(), log.FeaturesKey, len(frame.Names), "test_samples", len(s.testIdx))
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	forest := ensemble.NewRandomForestRegressor(
		ensemble.WithNEstimators(opts.Trees),
		ensemble.WithMaxDepth(DefaultMaxDepth),
		ensemble.WithMinSamplesSplit(DefaultMinSamplesSplit),
		ensemble.WithMinSamplesLeaf(DefaultMinSamplesLeaf),
		ensemble.WithMaxFeatures(DefaultMaxFeatures),
		ensemble.WithRandomState(int64(opts.Seed)),
	)
	pipe := pipeline.New(
		pipeline.Step{Name: "scaler", Estimator: preprocessing.NewStandardScalerDefault()},
		pipeline.Step{Name: "rf", Estimator: forest},
	)
	if err := pipe.Fit(s.XTrain, s.yTrain); err != nil {
		return nil, agroErrors.Wrap(err, "fit crop pipeline")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	predRel, err := pipe.Predict(s.XTest)
	if err != nil {
		return nil, agroErrors.Wrap(err, "predict crop test set")
	}
	means := modelselection.TakeVec(frame.AnnualMean, s.testIdx)
	yTest := mat.NewVecDense(len(s.testIdx), nil)
	yPred := mat.NewVecDense(len(s.testIdx), nil)
	for i := range s.testIdx {
		m := means.AtVec(i)
		yTest.SetVec(i, s.yTest.AtVec(i)*m)
		yPred.SetVec(i, predRel.At(i, 0)*m)
	}

	rep, err := evaluate("crop", "Random Forest", yTest, yPred)
	if err != nil {
		return nil, err
	}
	rep.Params = forest.GetParams()
	rep.Features = importances(frame.Names, dataset.CropFeatureLabels, forest.FeatureImportances())
	rep.TestIndex = sourceIndex(frame, s.testIdx)
	rep.TrainedAt = opts.Clock.Now().UTC()

	res := &Result{Report: rep, Pipeline: pipe}
	w := artifactWriter{dir: opts.OutDir, format: opts.Format, res: res}
	w.charts(rep, "#00F020")
	w.model(CropModelFile, pipe)
	w.report(rep)
	w.testIndex(rep.TestIndex)
	w.testMeans(rep.TestIndex, means)
	if w.err != nil {
		return nil, w.err
	}

	logger.Info("Training finished",
		"r2", rep.R2, "mape", rep.MAPE,
		log.DurationMsKey, opts.Clock.Since(start).Milliseconds(),
		"artifacts", len(res.Artifacts),
	)
	return res, nil
}

// RunThermal trains the thermal sensation linear model. Its importances are
// the absolute coefficients on standardized inputs, normalized to sum to 1.
func RunThermal(ctx context.Context, opts Options) (*Result, error) {
	opts, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}
	logger := log.GetLoggerWithName("training").With(log.ModelNameKey, "thermal", log.PhaseKey, log.PhaseTraining)
	start := opts.Clock.Now()

	frame, err := dataset.ThermalFeatures(dataset.ThermalMonthly(opts.Seed))
	if err != nil {
		return nil, agroErrors.Wrap(err, "build thermal features")
	}
	s, err := splitFrame(frame, opts.TestSize, opts.Seed)
	if err != nil {
		return nil, err
	}
	logger.Info("Features ready", log.SamplesKey, frame.Len(), log.FeaturesKey, len(frame.Names), "test_samples", len(s.testIdx))
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lr := linear.NewLinearRegression()
	pipe := pipeline.New(
		pipeline.Step{Name: "scaler", Estimator: preprocessing.NewStandardScalerDefault()},
		pipeline.Step{Name: "linear", Estimator: lr},
	)
	if err := pipe.Fit(s.XTrain, s.yTrain); err != nil {
		return nil, agroErrors.Wrap(err, "fit thermal pipeline")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pred, err := pipe.Predict(s.XTest)
	if err != nil {
		return nil, agroErrors.Wrap(err, "predict thermal test set")
	}
	yPred := mat.NewVecDense(len(s.testIdx), nil)
	for i := range s.testIdx {
		yPred.SetVec(i, pred.At(i, 0))
	}

	rep, err := evaluate("thermal", "Regressão Linear", s.yTest, yPred)
	if err != nil {
		return nil, err
	}
	weights := lr.GetWeights()
	for i, w := range weights {
		weights[i] = math.Abs(w)
	}
	rep.Params = map[string]interface{}{
		"coefficients": lr.GetWeights(),
		"intercept":    lr.GetIntercept(),
	}
	rep.Features = importances(frame.Names, dataset.ThermalFeatureLabels, normalize(weights))
	rep.TestIndex = sourceIndex(frame, s.testIdx)
	rep.TrainedAt = opts.Clock.Now().UTC()

	res := &Result{Report: rep, Pipeline: pipe}
	w := artifactWriter{dir: opts.OutDir, format: opts.Format, res: res}
	w.charts(rep, "#00F020")
	w.model(ThermalModelFile, pipe)
	w.report(rep)
	w.testIndex(rep.TestIndex)
	if w.err != nil {
		return nil, w.err
	}

	logger.Info("Training finished",
		"r2", rep.R2, "mape", rep.MAPE,
		log.DurationMsKey, opts.Clock.Since(start).Milliseconds(),
		"artifacts", len(res.Artifacts),
	)
	return res, nil
}

func evaluate(name, algorithm string, yTest, yPred *mat.VecDense) (*report.ModelReport, error) {
	r2, err := metrics.R2Score(yTest, yPred)
	if err != nil {
		return nil, agroErrors.Wrap(err, "score r2")
	}
	mape, err := metrics.MAPE(yTest, yPred)
	if err != nil {
		return nil, agroErrors.Wrap(err, "score mape")
	}
	return &report.ModelReport{
		Name:      name,
		Algorithm: algorithm,
		R2:        r2,
		MAPE:      mape,
		YTest:     vecSlice(yTest),
		YPred:     vecSlice(yPred),
	}, nil
}

func importances(names, labels []string, weights []float64) []report.FeatureImportance {
	out := make([]report.FeatureImportance, len(names))
	for i, name := range names {
		out[i] = report.FeatureImportance{Name: name, Weight: weights[i]}
		if i < len(labels) {
			out[i].Label = labels[i]
		}
	}
	return out
}

func normalize(w []float64) []float64 {
	var sum float64
	for _, v := range w {
		sum += v
	}
	out := make([]float64, len(w))
	if sum == 0 {
		return out
	}
	for i, v := range w {
		out[i] = v / sum
	}
	return out
}

// sourceIndex maps split positions back to positions in the source series.
func sourceIndex(f *dataset.Frame, idx []int) []int {
	out := make([]int, len(idx))
	for i, k := range idx {
		out[i] = f.Index[k]
	}
	return out
}

func vecSlice(v *mat.VecDense) []float64 {
	out := make([]float64, v.Len())
	for i := range out {
		out[i] = v.AtVec(i)
	}
	return out
}
