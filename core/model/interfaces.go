package model

import "gonum.org/v1/gonum/mat"

// Fitter learns from features X and targets y.
type Fitter interface {
	Fit(X, y mat.Matrix) error
}

// Predictor produces an (n_samples, 1) prediction matrix.
type Predictor interface {
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// Estimator is a supervised model.
type Estimator interface {
	Fitter
	Predictor
	IsFitted() bool
}

// Transformer is an unsupervised feature transformation such as a scaler.
type Transformer interface {
	Fit(X mat.Matrix) error
	Transform(X mat.Matrix) (mat.Matrix, error)
	FitTransform(X mat.Matrix) (mat.Matrix, error)
}

// FeatureImportancer exposes normalised per-feature importances.
type FeatureImportancer interface {
	FeatureImportances() []float64
}
