// Package tree implements CART regression trees.
//
// DecisionTreeRegressor grows a binary tree with the squared-error
// criterion. Candidate thresholds are midpoints between consecutive distinct
// feature values; at every node a random subset of features is examined when
// WithMaxFeatures is below 1. Trees are the base learners of
// ensemble.RandomForestRegressor, which fits them on bootstrap samples
// through FitIndices.
package tree

import (
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/agrodash/core/model"
	"github.com/ezoic/agrodash/core/parallel"
	agroErrors "github.com/ezoic/agrodash/pkg/errors"
	"github.com/ezoic/agrodash/pkg/log"
)

// Node is a node of a fitted tree.
type Node struct {
	IsLeaf    bool    // Whether this is a leaf node
	Feature   int     // Feature index for split (internal nodes)
	Threshold float64 // Threshold value for split (internal nodes)
	Left      *Node   // Left child (values <= threshold)
	Right     *Node   // Right child (values > threshold)
	Value     float64 // Mean target of the samples reaching the node
	Impurity  float64 // Node variance
	NSamples  int     // Number of samples at this node
	Depth     int     // Depth of this node in the tree
}

// DecisionTreeRegressor is a regression tree. Fields are exported for gob.
type DecisionTreeRegressor struct {
	State *model.StateManager

	// Hyperparameters
	MaxDepth        int     // Maximum depth of tree (0 = unlimited)
	MinSamplesSplit int     // Minimum samples to split a node
	MinSamplesLeaf  int     // Minimum samples in a leaf
	MaxFeatures     float64 // Fraction of features tried per node (<= 0 or >= 1 = all)
	RandomState     int64   // Random seed (-1 = nondeterministic)

	Root        *Node
	NFeatures   int
	Importances []float64
}

// Option configures a DecisionTreeRegressor.
type Option func(*DecisionTreeRegressor)

// NewDecisionTreeRegressor creates an unfitted tree. Defaults grow the tree
// until leaves are pure, considering every feature.
func NewDecisionTreeRegressor(opts ...Option) *DecisionTreeRegressor {
	dt := &DecisionTreeRegressor{
		State:           model.NewStateManager(),
		MaxDepth:        0,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		MaxFeatures:     1.0,
		RandomState:     -1,
	}
	for _, opt := range opts {
		opt(dt)
	}
	return dt
}

// WithMaxDepth sets the maximum tree depth.
func WithMaxDepth(depth int) Option {
	return func(dt *DecisionTreeRegressor) {
		dt.MaxDepth = depth
	}
}

// WithMinSamplesSplit sets minimum samples to split.
func WithMinSamplesSplit(n int) Option {
	return func(dt *DecisionTreeRegressor) {
		dt.MinSamplesSplit = n
	}
}

// WithMinSamplesLeaf sets minimum samples in leaf.
func WithMinSamplesLeaf(n int) Option {
	return func(dt *DecisionTreeRegressor) {
		dt.MinSamplesLeaf = n
	}
}

// WithMaxFeatures sets the fraction of features examined at each split.
func WithMaxFeatures(fraction float64) Option {
	return func(dt *DecisionTreeRegressor) {
		dt.MaxFeatures = fraction
	}
}

// WithRandomState sets the random seed.
func WithRandomState(seed int64) Option {
	return func(dt *DecisionTreeRegressor) {
		dt.RandomState = seed
	}
}

// builder holds per-fit scratch state.
type builder struct {
	dt          *DecisionTreeRegressor
	x           []float64 // row-major copy of X
	y           []float64
	nFeatures   int
	maxFeatures int
	rng         *rand.Rand
	features    []int
	importances []float64
}

// Fit trains the tree on every row of X.
//
// Errors:
//   - ErrEmptyData: if X is empty
//   - ErrDimensionMismatch: if X and y have different numbers of rows
//   - ErrInvalidInput: if y is not a column or a hyperparameter is invalid
func (dt *DecisionTreeRegressor) Fit(X, y mat.Matrix) (err error) {
	defer agroErrors.Recover(&err, "DecisionTreeRegressor.Fit")
	r, _ := X.Dims()
	rows := make([]int, r)
	for i := range rows {
		rows[i] = i
	}
	return dt.FitIndices(X, y, rows)
}

// FitIndices trains the tree on the rows of X named by rows. Repeated
// indices weight a row more heavily, which is how bootstrap samples are fed.
func (dt *DecisionTreeRegressor) FitIndices(X, y mat.Matrix, rows []int) (err error) {
	defer agroErrors.Recover(&err, "DecisionTreeRegressor.FitIndices")

	nSamples, nFeatures := X.Dims()
	yRows, yCols := y.Dims()
	if nSamples == 0 || nFeatures == 0 || len(rows) == 0 {
		return agroErrors.NewModelError("DecisionTreeRegressor.Fit", "empty data", agroErrors.ErrEmptyData)
	}
	if yRows != nSamples {
		return agroErrors.NewDimensionError("DecisionTreeRegressor.Fit", nSamples, yRows, 0)
	}
	if yCols != 1 {
		return agroErrors.NewValueError("DecisionTreeRegressor.Fit", "y must be a column vector")
	}
	if err := dt.validate(); err != nil {
		return err
	}
	for _, idx := range rows {
		if idx < 0 || idx >= nSamples {
			return agroErrors.NewValueError("DecisionTreeRegressor.FitIndices", "row index out of range")
		}
	}
	if dt.State == nil {
		dt.State = model.NewStateManager()
	}
	dt.State.Reset()

	b := &builder{
		dt:          dt,
		x:           make([]float64, nSamples*nFeatures),
		y:           make([]float64, nSamples),
		nFeatures:   nFeatures,
		maxFeatures: dt.featuresPerSplit(nFeatures),
		rng:         newRand(dt.RandomState),
		features:    make([]int, nFeatures),
		importances: make([]float64, nFeatures),
	}
	for i := 0; i < nSamples; i++ {
		for j := 0; j < nFeatures; j++ {
			b.x[i*nFeatures+j] = X.At(i, j)
		}
		b.y[i] = y.At(i, 0)
	}
	for j := range b.features {
		b.features[j] = j
	}

	work := make([]int, len(rows))
	copy(work, rows)
	dt.Root = b.grow(work, 0)
	dt.NFeatures = nFeatures
	dt.Importances = normalize(b.importances)

	dt.State.SetFitted()
	dt.State.SetDimensions(nFeatures, len(rows))

	log.GetLoggerWithName("tree").Debug("Tree grown",
		log.ModelNameKey, "DecisionTreeRegressor",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, len(rows),
		"depth", dt.Depth(),
		"leaves", dt.NLeaves(),
	)
	return nil
}

func (dt *DecisionTreeRegressor) validate() error {
	if dt.MaxDepth < 0 {
		return agroErrors.NewValidationError("max_depth", "must be >= 0", dt.MaxDepth)
	}
	if dt.MinSamplesSplit < 2 {
		return agroErrors.NewValidationError("min_samples_split", "must be >= 2", dt.MinSamplesSplit)
	}
	if dt.MinSamplesLeaf < 1 {
		return agroErrors.NewValidationError("min_samples_leaf", "must be >= 1", dt.MinSamplesLeaf)
	}
	if math.IsNaN(dt.MaxFeatures) {
		return agroErrors.NewValidationError("max_features", "must be a number", dt.MaxFeatures)
	}
	return nil
}

// featuresPerSplit returns max(1, int(fraction * n)).
func (dt *DecisionTreeRegressor) featuresPerSplit(n int) int {
	if dt.MaxFeatures <= 0 || dt.MaxFeatures >= 1 {
		return n
	}
	k := int(dt.MaxFeatures * float64(n))
	if k < 1 {
		k = 1
	}
	return k
}

func newRand(seed int64) *rand.Rand {
	if seed < 0 {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return rand.New(rand.NewPCG(uint64(seed), 0x9e3779b97f4a7c15))
}

func (b *builder) grow(rows []int, depth int) *Node {
	n := len(rows)
	var sum float64
	for _, r := range rows {
		sum += b.y[r]
	}
	mean := sum / float64(n)
	var sse float64
	for _, r := range rows {
		d := b.y[r] - mean
		sse += d * d
	}
	impurity := sse / float64(n)

	node := &Node{Value: mean, Impurity: impurity, NSamples: n, Depth: depth}

	dt := b.dt
	if (dt.MaxDepth > 0 && depth >= dt.MaxDepth) ||
		n < dt.MinSamplesSplit ||
		n < 2*dt.MinSamplesLeaf ||
		impurity == 0 {
		node.IsLeaf = true
		return node
	}

	feature, threshold, decrease := b.bestSplit(rows, impurity)
	if feature < 0 {
		node.IsLeaf = true
		return node
	}

	left := make([]int, 0, n)
	right := make([]int, 0, n)
	for _, r := range rows {
		if b.at(r, feature) <= threshold {
			left = append(left, r)
		} else {
			right = append(right, r)
		}
	}

	node.Feature = feature
	node.Threshold = threshold
	b.importances[feature] += decrease * float64(n)

	node.Left = b.grow(left, depth+1)
	node.Right = b.grow(right, depth+1)
	return node
}

func (b *builder) at(row, feature int) float64 {
	return b.x[row*b.nFeatures+feature]
}

// bestSplit scans the candidate features with running sums over the rows
// sorted by each feature, returning (-1, 0, 0) when no split reduces the
// impurity while honouring MinSamplesLeaf.
func (b *builder) bestSplit(rows []int, impurity float64) (int, float64, float64) {
	n := len(rows)
	minLeaf := b.dt.MinSamplesLeaf

	candidates := b.features
	if b.maxFeatures < b.nFeatures {
		b.rng.Shuffle(len(b.features), func(i, j int) {
			b.features[i], b.features[j] = b.features[j], b.features[i]
		})
		candidates = b.features[:b.maxFeatures]
	}

	var totalSum, totalSq float64
	for _, r := range rows {
		totalSum += b.y[r]
		totalSq += b.y[r] * b.y[r]
	}

	bestFeature := -1
	bestThreshold := 0.0
	bestDecrease := 0.0

	sorted := make([]int, n)
	for _, feature := range candidates {
		copy(sorted, rows)
		sort.Slice(sorted, func(i, j int) bool {
			return b.at(sorted[i], feature) < b.at(sorted[j], feature)
		})

		var leftSum, leftSq float64
		for i := 0; i < n-1; i++ {
			yi := b.y[sorted[i]]
			leftSum += yi
			leftSq += yi * yi

			lo := b.at(sorted[i], feature)
			hi := b.at(sorted[i+1], feature)
			if lo == hi {
				continue
			}
			nLeft := i + 1
			nRight := n - nLeft
			if nLeft < minLeaf || nRight < minLeaf {
				continue
			}

			rightSum := totalSum - leftSum
			rightSq := totalSq - leftSq
			sseLeft := math.Max(0, leftSq-leftSum*leftSum/float64(nLeft))
			sseRight := math.Max(0, rightSq-rightSum*rightSum/float64(nRight))
			decrease := impurity - (sseLeft+sseRight)/float64(n)

			if decrease > bestDecrease {
				threshold := (lo + hi) / 2
				if threshold == hi {
					threshold = lo
				}
				bestDecrease = decrease
				bestFeature = feature
				bestThreshold = threshold
			}
		}
	}
	return bestFeature, bestThreshold, bestDecrease
}

func normalize(v []float64) []float64 {
	var sum float64
	for _, x := range v {
		sum += x
	}
	if sum > 0 {
		for i := range v {
			v[i] /= sum
		}
	}
	return v
}

// Predict returns the leaf mean for every row of X as an (n, 1) matrix.
//
// Errors:
//   - ErrNotFitted: if the tree hasn't been trained yet
//   - ErrDimensionMismatch: if X has a different number of features
func (dt *DecisionTreeRegressor) Predict(X mat.Matrix) (_ mat.Matrix, err error) {
	defer agroErrors.Recover(&err, "DecisionTreeRegressor.Predict")
	if !dt.IsFitted() {
		return nil, agroErrors.NewNotFittedError("DecisionTreeRegressor", "Predict")
	}
	nSamples, nFeatures := X.Dims()
	if nFeatures != dt.NFeatures {
		return nil, agroErrors.NewDimensionError("DecisionTreeRegressor.Predict", dt.NFeatures, nFeatures, 1)
	}

	predictions := mat.NewDense(nSamples, 1, nil)
	parallel.ParallelizeWithThreshold(nSamples, 1000, func(start, end int) {
		for i := start; i < end; i++ {
			predictions.Set(i, 0, dt.predictRow(X, i))
		}
	})
	return predictions, nil
}

func (dt *DecisionTreeRegressor) predictRow(X mat.Matrix, i int) float64 {
	node := dt.Root
	for !node.IsLeaf {
		if X.At(i, node.Feature) <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node.Value
}

// IsFitted reports whether the tree has been trained.
func (dt *DecisionTreeRegressor) IsFitted() bool {
	return dt.State != nil && dt.State.IsFitted() && dt.Root != nil
}

// FeatureImportances returns the normalised impurity decrease per feature.
func (dt *DecisionTreeRegressor) FeatureImportances() []float64 {
	if dt.Importances == nil {
		return nil
	}
	out := make([]float64, len(dt.Importances))
	copy(out, dt.Importances)
	return out
}

// Depth returns the depth of the deepest leaf.
func (dt *DecisionTreeRegressor) Depth() int {
	if dt.Root == nil {
		return 0
	}
	return maxDepth(dt.Root)
}

func maxDepth(node *Node) int {
	if node.IsLeaf {
		return node.Depth
	}
	l, r := maxDepth(node.Left), maxDepth(node.Right)
	if l > r {
		return l
	}
	return r
}

// NLeaves returns the number of leaf nodes.
func (dt *DecisionTreeRegressor) NLeaves() int {
	return countLeaves(dt.Root)
}

func countLeaves(node *Node) int {
	if node == nil {
		return 0
	}
	if node.IsLeaf {
		return 1
	}
	return countLeaves(node.Left) + countLeaves(node.Right)
}

// GetParams returns the model hyperparameters.
func (dt *DecisionTreeRegressor) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"max_depth":         dt.MaxDepth,
		"min_samples_split": dt.MinSamplesSplit,
		"min_samples_leaf":  dt.MinSamplesLeaf,
		"max_features":      dt.MaxFeatures,
		"random_state":      dt.RandomState,
	}
}
