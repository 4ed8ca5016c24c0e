// Package linear provides ordinary least squares regression.
//
// LinearRegression centers X and y, solves the centered least squares problem
// with a QR factorization and recovers the intercept from the means. It backs
// the thermal-sensation model, whose standardized coefficients double as
// feature importances on the dashboard.
//
// Example usage:
//
//	lr := linear.NewLinearRegression()
//	if err := lr.Fit(X, y); err != nil {
//		log.Fatal(err)
//	}
//	sensation, err := lr.Predict(XNext)
//
// Fitted parameters can be exchanged as JSON:
//
//	err = lr.ExportJSON("thermal_linear.json")
//	err = other.LoadJSON("thermal_linear.json")
package linear

import (
	"io"
	"math"
	"os"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/ezoic/agrodash/core/model"
	"github.com/ezoic/agrodash/core/parallel"
	"github.com/ezoic/agrodash/metrics"
	agroErrors "github.com/ezoic/agrodash/pkg/errors"
	"github.com/ezoic/agrodash/pkg/log"
)

// rankTol is the smallest |R_jj| / max|R_ii| accepted before the design is
// treated as rank deficient.
const rankTol = 1e-10

// LinearRegression is an ordinary least squares model. Fields are exported
// for gob.
type LinearRegression struct {
	State     *model.StateManager
	Weights   *mat.VecDense // one coefficient per feature
	Intercept float64
	NFeatures int

	logger log.Logger
}

// NewLinearRegression creates an untrained model.
func NewLinearRegression() *LinearRegression {
	return &LinearRegression{State: model.NewStateManager()}
}

func (lr *LinearRegression) log() log.Logger {
	if lr.logger == nil {
		lr.logger = log.GetLoggerWithName("linear").With(
			log.ModelNameKey, "LinearRegression",
			log.ComponentKey, "linear",
		)
	}
	return lr.logger
}

// Fit trains the model on X (n_samples, n_features) and a column target y.
//
// Errors:
//   - ErrEmptyData: if X is empty
//   - ErrDimensionMismatch: if X and y have different numbers of rows
//   - ErrInvalidInput: if y is not a column or there are not more samples
//     than features
//   - ErrSingularMatrix: if the features are collinear or constant
func (lr *LinearRegression) Fit(X, y mat.Matrix) (err error) {
	defer agroErrors.Recover(&err, "LinearRegression.Fit")

	start := time.Now()
	n, p := X.Dims()
	ny, cy := y.Dims()
	logger := lr.log().With(log.OperationKey, log.OperationFit, log.PhaseKey, log.PhaseTraining)

	switch {
	case n == 0 || p == 0:
		return agroErrors.NewModelError("LinearRegression.Fit", "empty data", agroErrors.ErrEmptyData)
	case ny != n:
		return agroErrors.NewDimensionError("LinearRegression.Fit", n, ny, 0)
	case cy != 1:
		return agroErrors.NewValueError("LinearRegression.Fit", "y must be a column vector")
	case n <= p:
		return agroErrors.NewValueError("LinearRegression.Fit", "need more samples than features")
	}
	if lr.State == nil {
		lr.State = model.NewStateManager()
	}
	logger.Debug("Fitting", log.SamplesKey, n, log.FeaturesKey, p)

	xMean := make([]float64, p)
	for j := range xMean {
		xMean[j] = stat.Mean(mat.Col(nil, j, X), nil)
	}
	yMean := stat.Mean(mat.Col(nil, 0, y), nil)

	A := mat.NewDense(n, p, nil)
	b := mat.NewVecDense(n, nil)
	parallel.ParallelizeWithThreshold(n, 1000, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			for j := 0; j < p; j++ {
				A.Set(i, j, X.At(i, j)-xMean[j])
			}
			b.SetVec(i, y.At(i, 0)-yMean)
		}
	})

	w, err := solveLeastSquares(A, b)
	if err != nil {
		return err
	}

	lr.Weights = w
	lr.Intercept = yMean - mat.Dot(mat.NewVecDense(p, xMean), w)
	lr.NFeatures = p
	lr.State.SetFitted()
	lr.State.SetDimensions(p, n)

	logger.Info("Model fitted",
		log.SamplesKey, n,
		log.FeaturesKey, p,
		"intercept", lr.Intercept,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

// solveLeastSquares minimizes |A·w - b| for a tall A of full column rank.
func solveLeastSquares(A *mat.Dense, b *mat.VecDense) (*mat.VecDense, error) {
	_, p := A.Dims()

	var qr mat.QR
	qr.Factorize(A)
	var R mat.Dense
	qr.RTo(&R)

	var largest float64
	for j := 0; j < p; j++ {
		largest = math.Max(largest, math.Abs(R.At(j, j)))
	}
	for j := 0; j < p; j++ {
		if math.Abs(R.At(j, j)) <= rankTol*largest {
			return nil, agroErrors.NewModelError("LinearRegression.Fit", "rank deficient design", agroErrors.ErrSingularMatrix)
		}
	}

	w := mat.NewVecDense(p, nil)
	if err := qr.SolveVecTo(w, false, b); err != nil {
		return nil, agroErrors.NewModelError("LinearRegression.Fit", "least squares solve failed", agroErrors.ErrSingularMatrix)
	}
	return w, nil
}

// Predict returns X·w + b as an (n_samples, 1) matrix.
//
// Errors:
//   - ErrNotFitted: if the model hasn't been trained yet
//   - ErrDimensionMismatch: if X has a different number of features
func (lr *LinearRegression) Predict(X mat.Matrix) (_ mat.Matrix, err error) {
	defer agroErrors.Recover(&err, "LinearRegression.Predict")
	if !lr.IsFitted() {
		return nil, agroErrors.NewNotFittedError("LinearRegression", "Predict")
	}
	n, p := X.Dims()
	if p != lr.NFeatures {
		return nil, agroErrors.NewDimensionError("LinearRegression.Predict", lr.NFeatures, p, 1)
	}

	lr.log().Debug("Predicting",
		log.OperationKey, log.OperationPredict,
		log.PhaseKey, log.PhaseInference,
		log.SamplesKey, n,
	)

	out := mat.NewVecDense(n, nil)
	out.MulVec(X, lr.Weights)
	for i := 0; i < n; i++ {
		out.SetVec(i, out.AtVec(i)+lr.Intercept)
	}
	return mat.NewDense(n, 1, out.RawVector().Data), nil
}

// GetWeights returns a copy of the coefficients, nil before fitting.
func (lr *LinearRegression) GetWeights() []float64 {
	if lr.Weights == nil {
		return nil
	}
	return mat.Col(nil, 0, lr.Weights)
}

// GetIntercept returns the intercept, or 0 before fitting.
func (lr *LinearRegression) GetIntercept() float64 {
	if !lr.IsFitted() {
		return 0
	}
	return lr.Intercept
}

// Score returns R² of the predictions on X against y.
func (lr *LinearRegression) Score(X, y mat.Matrix) (_ float64, err error) {
	defer agroErrors.Recover(&err, "LinearRegression.Score")
	pred, err := lr.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.R2ScoreMatrix(y, pred)
}

// LoadJSON restores fitted parameters from a JSON envelope file.
func (lr *LinearRegression) LoadJSON(filename string) error {
	f, err := os.Open(filename)
	if err != nil {
		return agroErrors.Wrap(err, "failed to open file")
	}
	defer func() { _ = f.Close() }()
	return lr.LoadJSONReader(f)
}

// LoadJSONReader restores fitted parameters from r.
func (lr *LinearRegression) LoadJSONReader(r io.Reader) (err error) {
	defer agroErrors.Recover(&err, "LinearRegression.LoadJSONReader")
	env, err := model.ReadEnvelope(r)
	if err != nil {
		return agroErrors.Wrap(err, "read linear envelope")
	}
	params, err := env.DecodeLinearParams()
	if err != nil {
		return agroErrors.Wrap(err, "decode linear params")
	}

	if lr.State == nil {
		lr.State = model.NewStateManager()
	}
	lr.NFeatures = params.NFeatures
	lr.Intercept = params.Intercept
	lr.Weights = mat.NewVecDense(params.NFeatures, append([]float64(nil), params.Coefficients...))
	lr.State.SetFitted()
	// sample count is not part of the envelope
	lr.State.SetDimensions(lr.NFeatures, 0)
	return nil
}

// ExportJSON writes the fitted parameters to filename.
func (lr *LinearRegression) ExportJSON(filename string) error {
	if !lr.IsFitted() {
		return agroErrors.NewNotFittedError("LinearRegression", "ExportJSON")
	}
	f, err := os.Create(filename)
	if err != nil {
		return agroErrors.Wrap(err, "failed to create file")
	}
	if err := lr.ExportJSONWriter(f); err != nil {
		_ = f.Close()
		return err
	}
	return agroErrors.Wrap(f.Close(), "close "+filename)
}

// ExportJSONWriter writes the fitted parameters to w.
func (lr *LinearRegression) ExportJSONWriter(w io.Writer) error {
	if !lr.IsFitted() {
		return agroErrors.NewNotFittedError("LinearRegression", "ExportJSONWriter")
	}
	return model.WriteEnvelope(w, "LinearRegression", model.LinearParams{
		Coefficients: lr.GetWeights(),
		Intercept:    lr.Intercept,
		NFeatures:    lr.NFeatures,
	})
}

// IsFitted reports whether Fit or LoadJSON has succeeded.
func (lr *LinearRegression) IsFitted() bool {
	return lr.State != nil && lr.State.IsFitted()
}

// GetParams describes the model.
func (lr *LinearRegression) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"n_features": lr.NFeatures,
		"fitted":     lr.IsFitted(),
	}
}
