// Package ensemble provides bagged tree ensembles.
//
// RandomForestRegressor averages DecisionTreeRegressor predictions. Each tree
// is fitted on a bootstrap sample with its own seed drawn from the forest's
// random state, so a fixed RandomState reproduces the same forest no matter
// how the trees are scheduled across goroutines.
//
//	rf := ensemble.NewRandomForestRegressor(
//		ensemble.WithNEstimators(800),
//		ensemble.WithMaxDepth(10),
//		ensemble.WithMaxFeatures(0.5),
//		ensemble.WithRandomState(42),
//	)
//	if err := rf.Fit(X, y); err != nil {
//		return err
//	}
package ensemble

import (
	"math"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/agrodash/core/model"
	"github.com/ezoic/agrodash/core/parallel"
	agroErrors "github.com/ezoic/agrodash/pkg/errors"
	"github.com/ezoic/agrodash/pkg/log"
	"github.com/ezoic/agrodash/tree"
)

// RandomForestRegressor is a bagged ensemble of regression trees. Fields are
// exported for gob.
type RandomForestRegressor struct {
	State *model.StateManager

	// Hyperparameters
	NEstimators     int
	MaxDepth        int // 0 = unlimited
	MinSamplesSplit int
	MinSamplesLeaf  int
	MaxFeatures     float64 // fraction of features per split
	Bootstrap       bool
	RandomState     int64 // -1 = nondeterministic

	Trees       []*tree.DecisionTreeRegressor
	NFeatures   int
	Importances []float64

	logger log.Logger
}

// Option configures a RandomForestRegressor.
type Option func(*RandomForestRegressor)

// NewRandomForestRegressor creates an unfitted forest with 100 fully grown
// trees on bootstrap samples.
func NewRandomForestRegressor(opts ...Option) *RandomForestRegressor {
	rf := &RandomForestRegressor{
		State:           model.NewStateManager(),
		NEstimators:     100,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		MaxFeatures:     1.0,
		Bootstrap:       true,
		RandomState:     -1,
	}
	for _, opt := range opts {
		opt(rf)
	}
	return rf
}

// WithNEstimators sets the number of trees.
func WithNEstimators(n int) Option {
	return func(rf *RandomForestRegressor) { rf.NEstimators = n }
}

// WithMaxDepth sets the maximum depth of every tree.
func WithMaxDepth(depth int) Option {
	return func(rf *RandomForestRegressor) { rf.MaxDepth = depth }
}

// WithMinSamplesSplit sets minimum samples to split a node.
func WithMinSamplesSplit(n int) Option {
	return func(rf *RandomForestRegressor) { rf.MinSamplesSplit = n }
}

// WithMinSamplesLeaf sets minimum samples in a leaf.
func WithMinSamplesLeaf(n int) Option {
	return func(rf *RandomForestRegressor) { rf.MinSamplesLeaf = n }
}

// WithMaxFeatures sets the fraction of features examined per split.
func WithMaxFeatures(fraction float64) Option {
	return func(rf *RandomForestRegressor) { rf.MaxFeatures = fraction }
}

// WithBootstrap toggles bootstrap sampling.
func WithBootstrap(on bool) Option {
	return func(rf *RandomForestRegressor) { rf.Bootstrap = on }
}

// WithRandomState sets the random seed.
func WithRandomState(seed int64) Option {
	return func(rf *RandomForestRegressor) { rf.RandomState = seed }
}

func (rf *RandomForestRegressor) log() log.Logger {
	if rf.logger == nil {
		rf.logger = log.GetLoggerWithName("ensemble").With(
			log.ModelNameKey, "RandomForestRegressor",
			log.ComponentKey, "ensemble",
		)
	}
	return rf.logger
}

// Fit grows NEstimators trees in parallel.
//
// Errors:
//   - ErrEmptyData: if X is empty
//   - ErrDimensionMismatch: if X and y have different numbers of rows
//   - ErrInvalidInput: if NEstimators < 1 or a tree hyperparameter is invalid
func (rf *RandomForestRegressor) Fit(X, y mat.Matrix) (err error) {
	defer agroErrors.Recover(&err, "RandomForestRegressor.Fit")

	start := time.Now()
	nSamples, nFeatures := X.Dims()
	yRows, _ := y.Dims()
	if nSamples == 0 || nFeatures == 0 {
		return agroErrors.NewModelError("RandomForestRegressor.Fit", "empty data", agroErrors.ErrEmptyData)
	}
	if yRows != nSamples {
		return agroErrors.NewDimensionError("RandomForestRegressor.Fit", nSamples, yRows, 0)
	}
	if rf.NEstimators < 1 {
		return agroErrors.NewValidationError("n_estimators", "must be >= 1", rf.NEstimators)
	}
	if rf.State == nil {
		rf.State = model.NewStateManager()
	}
	rf.State.Reset()

	rf.log().Info("Training started",
		log.OperationKey, log.OperationFit,
		log.PhaseKey, log.PhaseTraining,
		log.SamplesKey, nSamples,
		log.FeaturesKey, nFeatures,
		"n_estimators", rf.NEstimators,
	)

	seeds := rf.treeSeeds()
	trees := make([]*tree.DecisionTreeRegressor, rf.NEstimators)
	errs := make([]error, rf.NEstimators)

	parallel.Parallelize(rf.NEstimators, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			dt := tree.NewDecisionTreeRegressor(
				tree.WithMaxDepth(rf.MaxDepth),
				tree.WithMinSamplesSplit(rf.MinSamplesSplit),
				tree.WithMinSamplesLeaf(rf.MinSamplesLeaf),
				tree.WithMaxFeatures(rf.MaxFeatures),
				tree.WithRandomState(seeds[i]),
			)
			errs[i] = dt.FitIndices(X, y, rf.sampleRows(nSamples, seeds[i]))
			trees[i] = dt
		}
	})
	for _, e := range errs {
		if e != nil {
			return agroErrors.Wrap(e, "failed to grow tree")
		}
	}

	rf.Trees = trees
	rf.NFeatures = nFeatures
	rf.Importances = meanImportances(trees, nFeatures)
	rf.State.SetFitted()
	rf.State.SetDimensions(nFeatures, nSamples)

	rf.log().Info("Training completed",
		log.OperationKey, log.OperationFit,
		log.PhaseKey, log.PhaseTraining,
		log.DurationMsKey, time.Since(start).Milliseconds(),
		log.SamplesKey, nSamples,
	)
	return nil
}

// treeSeeds draws one seed per tree from the forest's random state.
func (rf *RandomForestRegressor) treeSeeds() []int64 {
	var rng *rand.Rand
	if rf.RandomState < 0 {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	} else {
		rng = rand.New(rand.NewPCG(uint64(rf.RandomState), 0))
	}
	seeds := make([]int64, rf.NEstimators)
	for i := range seeds {
		seeds[i] = rng.Int64N(math.MaxInt32)
	}
	return seeds
}

// sampleRows returns n rows drawn with replacement, or every row once when
// bootstrap is off.
func (rf *RandomForestRegressor) sampleRows(n int, seed int64) []int {
	rows := make([]int, n)
	if !rf.Bootstrap {
		for i := range rows {
			rows[i] = i
		}
		return rows
	}
	rng := rand.New(rand.NewPCG(uint64(seed), 1))
	for i := range rows {
		rows[i] = rng.IntN(n)
	}
	return rows
}

func meanImportances(trees []*tree.DecisionTreeRegressor, nFeatures int) []float64 {
	out := make([]float64, nFeatures)
	for _, dt := range trees {
		for j, v := range dt.FeatureImportances() {
			out[j] += v
		}
	}
	var sum float64
	for _, v := range out {
		sum += v
	}
	if sum > 0 {
		for j := range out {
			out[j] /= sum
		}
	}
	return out
}

// Predict returns the mean tree prediction for each row of X.
//
// Errors:
//   - ErrNotFitted: if the forest hasn't been trained yet
//   - ErrDimensionMismatch: if X has a different number of features
func (rf *RandomForestRegressor) Predict(X mat.Matrix) (_ mat.Matrix, err error) {
	defer agroErrors.Recover(&err, "RandomForestRegressor.Predict")
	if !rf.IsFitted() {
		return nil, agroErrors.NewNotFittedError("RandomForestRegressor", "Predict")
	}
	nSamples, nFeatures := X.Dims()
	if nFeatures != rf.NFeatures {
		return nil, agroErrors.NewDimensionError("RandomForestRegressor.Predict", rf.NFeatures, nFeatures, 1)
	}

	perTree := make([]mat.Matrix, len(rf.Trees))
	errs := make([]error, len(rf.Trees))
	parallel.Parallelize(len(rf.Trees), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			perTree[i], errs[i] = rf.Trees[i].Predict(X)
		}
	})

	predictions := mat.NewDense(nSamples, 1, nil)
	for i, p := range perTree {
		if errs[i] != nil {
			return nil, errs[i]
		}
		predictions.Add(predictions, p)
	}
	predictions.Scale(1/float64(len(rf.Trees)), predictions)

	rf.log().Debug("Prediction completed",
		log.OperationKey, log.OperationPredict,
		log.PhaseKey, log.PhaseInference,
		log.PredsKey, nSamples,
	)
	return predictions, nil
}

// IsFitted reports whether the forest has been trained.
func (rf *RandomForestRegressor) IsFitted() bool {
	return rf.State != nil && rf.State.IsFitted() && len(rf.Trees) > 0
}

// FeatureImportances returns the mean of the per-tree importances,
// renormalised to sum to 1.
func (rf *RandomForestRegressor) FeatureImportances() []float64 {
	if rf.Importances == nil {
		return nil
	}
	out := make([]float64, len(rf.Importances))
	copy(out, rf.Importances)
	return out
}

// GetParams returns the model hyperparameters.
func (rf *RandomForestRegressor) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"n_estimators":      rf.NEstimators,
		"max_depth":         rf.MaxDepth,
		"min_samples_split": rf.MinSamplesSplit,
		"min_samples_leaf":  rf.MinSamplesLeaf,
		"max_features":      rf.MaxFeatures,
		"bootstrap":         rf.Bootstrap,
		"random_state":      rf.RandomState,
	}
}
