// Package metrics provides the regression scores reported by the trainer
// and shown on the dashboards.
//
//   - MSE, RMSE, MAE: error magnitudes in target units
//   - R2Score: coefficient of determination
//   - MAPE: mean absolute percentage error, in percent
//
// Every metric takes *mat.VecDense inputs; the *Matrix variants accept the
// (n, 1) prediction matrices returned by estimators:
//
//	pred, _ := pipe.Predict(XTest)
//	r2, err := metrics.R2ScoreMatrix(yTest, pred)
//	mape, err := metrics.MAPEMatrix(yTest, pred)
package metrics

import (
	"math"

	"gonum.org/v1/gonum/mat"

	agroErrors "github.com/ezoic/agrodash/pkg/errors"
)

func checkPair(op string, yTrue, yPred *mat.VecDense) (int, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, agroErrors.NewValueError(op, "empty vector")
	}
	if yPred.Len() != n {
		return 0, agroErrors.NewDimensionError(op, n, yPred.Len(), 0)
	}
	return n, nil
}

// columns converts two (n, 1) matrices into vectors.
func columns(op string, yTrue, yPred mat.Matrix) (*mat.VecDense, *mat.VecDense, error) {
	rTrue, cTrue := yTrue.Dims()
	rPred, cPred := yPred.Dims()

	if rTrue == 0 || cTrue == 0 {
		return nil, nil, agroErrors.NewValueError(op, "empty matrix")
	}
	if rTrue != rPred || cTrue != cPred {
		return nil, nil, agroErrors.NewDimensionError(op, rTrue, rPred, 0)
	}
	if cTrue != 1 {
		return nil, nil, agroErrors.NewValueError(op, "must be a column vector (n×1 matrix)")
	}

	t := mat.NewVecDense(rTrue, nil)
	p := mat.NewVecDense(rPred, nil)
	for i := 0; i < rTrue; i++ {
		t.SetVec(i, yTrue.At(i, 0))
		p.SetVec(i, yPred.At(i, 0))
	}
	return t, p, nil
}

// MSE returns the mean squared error.
//
// Errors:
//   - ErrInvalidInput: if the vectors are empty
//   - ErrDimensionMismatch: if yTrue and yPred have different lengths
func MSE(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("MSE", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	var sum float64
	for i := 0; i < n; i++ {
		diff := yTrue.AtVec(i) - yPred.AtVec(i)
		sum += diff * diff
	}
	return sum / float64(n), nil
}

// MSEMatrix is MSE over column matrices.
func MSEMatrix(yTrue, yPred mat.Matrix) (float64, error) {
	t, p, err := columns("MSEMatrix", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return MSE(t, p)
}

// RMSE returns the square root of MSE.
func RMSE(yTrue, yPred *mat.VecDense) (float64, error) {
	mse, err := MSE(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// MAE returns the mean absolute error.
func MAE(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("MAE", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	var sum float64
	for i := 0; i < n; i++ {
		sum += math.Abs(yTrue.AtVec(i) - yPred.AtVec(i))
	}
	return sum / float64(n), nil
}

// R2Score returns the coefficient of determination, 1 - RSS/TSS. The best
// score is 1.0; predictions worse than the mean give negative values.
//
// Errors:
//   - ErrInvalidInput: if the vectors are empty or yTrue has no variance
//   - ErrDimensionMismatch: if yTrue and yPred have different lengths
func R2Score(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("R2Score", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	var yMean float64
	for i := 0; i < n; i++ {
		yMean += yTrue.AtVec(i)
	}
	yMean /= float64(n)

	var tss, rss float64
	for i := 0; i < n; i++ {
		yt := yTrue.AtVec(i)
		tss += (yt - yMean) * (yt - yMean)
		rss += (yt - yPred.AtVec(i)) * (yt - yPred.AtVec(i))
	}
	if tss == 0 {
		return 0, agroErrors.NewValueError("R2Score", "total sum of squares is zero (no variance in yTrue)")
	}
	return 1 - rss/tss, nil
}

// R2ScoreMatrix is R2Score over column matrices.
func R2ScoreMatrix(yTrue, yPred mat.Matrix) (float64, error) {
	t, p, err := columns("R2ScoreMatrix", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return R2Score(t, p)
}

// MAPE returns the mean absolute percentage error as a percentage. Rows
// whose true value is zero are skipped.
//
// Errors:
//   - ErrInvalidInput: if the vectors are empty or every yTrue is zero
//   - ErrDimensionMismatch: if yTrue and yPred have different lengths
func MAPE(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("MAPE", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	var sum float64
	valid := 0
	for i := 0; i < n; i++ {
		yt := yTrue.AtVec(i)
		if yt == 0 {
			continue
		}
		sum += math.Abs(yt-yPred.AtVec(i)) / math.Abs(yt)
		valid++
	}
	if valid == 0 {
		return 0, agroErrors.NewValueError("MAPE", "all yTrue values are zero")
	}
	return sum / float64(valid) * 100, nil
}

// MAPEMatrix is MAPE over column matrices.
func MAPEMatrix(yTrue, yPred mat.Matrix) (float64, error) {
	t, p, err := columns("MAPEMatrix", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return MAPE(t, p)
}
