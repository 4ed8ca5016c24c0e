package preprocessing_test

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	agroErrors "github.com/ezoic/agrodash/pkg/errors"
	"github.com/ezoic/agrodash/preprocessing"
)

const epsilon = 1e-10

func TestStandardScaler_BasicFunctionality(t *testing.T) {
	// Feature 1: [1, 2, 3] -> mean=2, std=0.816
	// Feature 2: [4, 5, 6] -> mean=5, std=0.816
	X := mat.NewDense(3, 2, []float64{
		1.0, 4.0,
		2.0, 5.0,
		3.0, 6.0,
	})

	scaler := preprocessing.NewStandardScalerDefault()
	if err := scaler.Fit(X); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	expectedMean := []float64{2.0, 5.0}
	expectedStd := []float64{0.816496580927726, 0.816496580927726}
	for i := range expectedMean {
		if math.Abs(scaler.Mean[i]-expectedMean[i]) > epsilon {
			t.Errorf("Mean[%d]: expected %f, got %f", i, expectedMean[i], scaler.Mean[i])
		}
		if math.Abs(scaler.Scale[i]-expectedStd[i]) > epsilon {
			t.Errorf("Scale[%d]: expected %f, got %f", i, expectedStd[i], scaler.Scale[i])
		}
	}

	XScaled, err := scaler.Transform(X)
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	want := 1.0 / 0.816496580927726
	if math.Abs(XScaled.At(0, 0)+want) > 1e-9 || math.Abs(XScaled.At(1, 0)) > 1e-9 || math.Abs(XScaled.At(2, 1)-want) > 1e-9 {
		t.Errorf("unexpected scaled values: %v", mat.Formatted(XScaled))
	}

	restored, err := scaler.InverseTransform(XScaled)
	if err != nil {
		t.Fatalf("InverseTransform failed: %v", err)
	}
	if !mat.EqualApprox(restored, X, 1e-9) {
		t.Errorf("inverse transform mismatch: %v", mat.Formatted(restored))
	}
}

func TestStandardScaler_ConstantColumn(t *testing.T) {
	X := mat.NewDense(3, 2, []float64{
		5.0, 1.0,
		5.0, 2.0,
		5.0, 3.0,
	})
	scaler := preprocessing.NewStandardScalerDefault()
	Xt, err := scaler.FitTransform(X)
	if err != nil {
		t.Fatalf("FitTransform failed: %v", err)
	}
	if scaler.Scale[0] != 1.0 {
		t.Errorf("constant column should keep unit scale, got %f", scaler.Scale[0])
	}
	for i := 0; i < 3; i++ {
		if Xt.At(i, 0) != 0 {
			t.Errorf("row %d: expected 0, got %f", i, Xt.At(i, 0))
		}
	}
}

func TestStandardScaler_WithoutMean(t *testing.T) {
	X := mat.NewDense(2, 1, []float64{2.0, 4.0})
	scaler := preprocessing.NewStandardScaler(false, true)
	Xt, err := scaler.FitTransform(X)
	if err != nil {
		t.Fatalf("FitTransform failed: %v", err)
	}
	// std of [2, 4] is 1
	if Xt.At(0, 0) != 2.0 || Xt.At(1, 0) != 4.0 {
		t.Errorf("unexpected values: %v", mat.Formatted(Xt))
	}
}

func TestStandardScaler_Errors(t *testing.T) {
	scaler := preprocessing.NewStandardScalerDefault()

	_, err := scaler.Transform(mat.NewDense(1, 1, []float64{1}))
	if !errors.Is(err, agroErrors.ErrNotFitted) {
		t.Errorf("expected ErrNotFitted, got %v", err)
	}

	if err := scaler.Fit(&mat.Dense{}); !errors.Is(err, agroErrors.ErrEmptyData) {
		t.Errorf("expected ErrEmptyData, got %v", err)
	}

	if err := scaler.Fit(mat.NewDense(2, 2, []float64{1, 2, 3, 4})); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	_, err = scaler.Transform(mat.NewDense(1, 3, []float64{1, 2, 3}))
	var dimErr *agroErrors.DimensionError
	if !errors.As(err, &dimErr) {
		t.Fatalf("expected DimensionError, got %v", err)
	}
	if dimErr.Expected != 2 || dimErr.Got != 3 {
		t.Errorf("unexpected dimension error: %+v", dimErr)
	}
}
