// Package modelselection splits samples into train and test sets.
package modelselection

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	agroErrors "github.com/ezoic/agrodash/pkg/errors"
)

// TrainTestSplit shuffles the indices [0, n) with a seeded generator and
// returns ceil(testSize*n) of them as the test set. The same seed always
// yields the same split.
//
// Errors:
//   - ErrInvalidInput: if n < 2, testSize is outside (0, 1), or either side
//     would be empty
func TrainTestSplit(n int, testSize float64, seed uint64) (train, test []int, err error) {
	if n < 2 {
		return nil, nil, agroErrors.NewValueError("TrainTestSplit", "need at least two samples")
	}
	if !(testSize > 0 && testSize < 1) {
		return nil, nil, agroErrors.NewValidationError("test_size", "must be in (0, 1)", testSize)
	}
	nTest := int(math.Ceil(testSize * float64(n)))
	if nTest >= n {
		return nil, nil, agroErrors.NewValidationError("test_size", "leaves no training samples", testSize)
	}

	perm := rand.New(rand.NewPCG(seed, 0)).Perm(n)
	test = append([]int(nil), perm[:nTest]...)
	train = append([]int(nil), perm[nTest:]...)
	return train, test, nil
}

// Take returns the rows of X at idx, in order.
func Take(X mat.Matrix, idx []int) *mat.Dense {
	_, c := X.Dims()
	if len(idx) == 0 || c == 0 {
		return &mat.Dense{}
	}
	out := mat.NewDense(len(idx), c, nil)
	for i, row := range idx {
		for j := 0; j < c; j++ {
			out.Set(i, j, X.At(row, j))
		}
	}
	return out
}

// TakeVec returns the elements of v at idx, in order.
func TakeVec(v mat.Vector, idx []int) *mat.VecDense {
	if len(idx) == 0 {
		return &mat.VecDense{}
	}
	out := mat.NewVecDense(len(idx), nil)
	for i, k := range idx {
		out.SetVec(i, v.AtVec(k))
	}
	return out
}
