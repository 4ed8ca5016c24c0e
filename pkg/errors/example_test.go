package errors_test

import (
	"errors"
	"fmt"

	agroErrors "github.com/ezoic/agrodash/pkg/errors"
)

// Example_dimensionError shows how a shape mismatch surfaces through wrapping.
func Example_dimensionError() {
	dimErr := agroErrors.NewDimensionError("StandardScaler.Transform", 6, 5, 1)

	wrappedErr := fmt.Errorf("crop features: %w", dimErr)

	var dimensionErr *agroErrors.DimensionError
	if errors.As(wrappedErr, &dimensionErr) {
		fmt.Printf("Dimension error: expected %d, got %d\n",
			dimensionErr.Expected, dimensionErr.Got)
	}
	if errors.Is(wrappedErr, agroErrors.ErrDimensionMismatch) {
		fmt.Println("matches ErrDimensionMismatch")
	}

	// Output: Dimension error: expected 6, got 5
	// matches ErrDimensionMismatch
}

// Example_notFitted shows the error returned when Predict runs before Fit.
func Example_notFitted() {
	err := agroErrors.NewNotFittedError("RandomForestRegressor", "Predict")

	var notFitted *agroErrors.NotFittedError
	if errors.As(err, &notFitted) {
		fmt.Printf("Model %s is not fitted for %s\n", notFitted.ModelName, notFitted.Method)
	}

	// Output: Model RandomForestRegressor is not fitted for Predict
}

// Example_modelError shows the rendered form of a wrapped ModelError.
func Example_modelError() {
	baseErr := agroErrors.NewModelError("LinearRegression.Fit", "singular matrix",
		agroErrors.ErrSingularMatrix)

	opErr := fmt.Errorf("thermal model: %w", baseErr)
	fmt.Println(opErr)

	// Output: thermal model: agrodash: LinearRegression.Fit: singular matrix: singular matrix
}
