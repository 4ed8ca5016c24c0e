// Package pipeline chains transformers and a final estimator.
//
// The trainer standardizes features and fits a regressor in one object:
//
//	pipe := pipeline.New(
//		pipeline.Step{Name: "scaler", Estimator: preprocessing.NewStandardScalerDefault()},
//		pipeline.Step{Name: "rf", Estimator: ensemble.NewRandomForestRegressor()},
//	)
//	if err := pipe.Fit(XTrain, yTrain); err != nil {
//		return err
//	}
//	pred, err := pipe.Predict(XTest)
//
// Pipelines are gob encodable once their step types are registered with
// model.Register.
package pipeline

import (
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/agrodash/core/model"
	"github.com/ezoic/agrodash/metrics"
	"github.com/ezoic/agrodash/pkg/errors"
	"github.com/ezoic/agrodash/pkg/log"
)

// Step is a named pipeline stage: a model.Transformer, or any estimator for
// the last step.
type Step struct {
	Name      string
	Estimator interface{}
}

// Pipeline feeds X through its leading transformers and hands the result to
// the last step. Fields are exported for gob.
type Pipeline struct {
	State  *model.StateManager
	Stages []Step

	logger log.Logger
}

// New returns an unfitted pipeline over steps.
func New(steps ...Step) *Pipeline {
	return &Pipeline{
		State:  model.NewStateManager(),
		Stages: steps,
	}
}

func (p *Pipeline) log() log.Logger {
	if p.logger == nil {
		p.logger = log.GetLoggerWithName("pipeline").With(log.ComponentKey, "pipeline")
	}
	return p.logger
}

// stage is a leading step resolved to its transformer.
type stage struct {
	name string
	t    model.Transformer
}

// layout splits the steps into leading transformers and the final step.
func (p *Pipeline) layout() ([]stage, Step, error) {
	if len(p.Stages) == 0 {
		return nil, Step{}, errors.NewValidationError("steps", "pipeline has no steps", 0)
	}
	last := len(p.Stages) - 1
	lead := make([]stage, 0, last)
	for _, s := range p.Stages[:last] {
		t, ok := s.Estimator.(model.Transformer)
		if !ok {
			return nil, Step{}, errors.NewValidationError("step "+s.Name, "only the last step may be a non-transformer", s.Estimator)
		}
		lead = append(lead, stage{name: s.Name, t: t})
	}
	return lead, p.Stages[last], nil
}

// Fit fits every leading transformer on the output of the previous one,
// then fits the last step. A transformer in the last position is fitted
// without y.
//
// Errors:
//   - ErrInvalidInput: if the pipeline is empty, a leading step is not a
//     transformer, or the last step cannot be fitted
//   - any error returned by a step, wrapped with the step name
func (p *Pipeline) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "Pipeline.Fit")
	lead, final, err := p.layout()
	if err != nil {
		return err
	}
	if p.State == nil {
		p.State = model.NewStateManager()
	}
	p.State.Reset()

	Xt := X
	for _, s := range lead {
		start := time.Now()
		if Xt, err = s.t.FitTransform(Xt); err != nil {
			return errors.Wrapf(err, "fit step %q", s.name)
		}
		p.log().Debug("Step fitted", "step", s.name, log.DurationMsKey, time.Since(start).Milliseconds())
	}

	switch est := final.Estimator.(type) {
	case model.Fitter:
		err = est.Fit(Xt, y)
	case model.Transformer:
		err = est.Fit(Xt)
	default:
		return errors.NewValidationError("step "+final.Name, "last step has no Fit method", final.Estimator)
	}
	if err != nil {
		return errors.Wrapf(err, "fit step %q", final.Name)
	}

	n, c := X.Dims()
	p.State.SetFitted()
	p.State.SetDimensions(c, n)
	return nil
}

// Predict transforms X and predicts with the last step.
func (p *Pipeline) Predict(X mat.Matrix) (_ mat.Matrix, err error) {
	defer errors.Recover(&err, "Pipeline.Predict")
	if !p.IsFitted() {
		return nil, errors.NewNotFittedError("Pipeline", "Predict")
	}
	Xt, final, err := p.prepare(X)
	if err != nil {
		return nil, err
	}
	predictor, ok := final.Estimator.(model.Predictor)
	if !ok {
		return nil, errors.NewValidationError("step "+final.Name, "last step has no Predict method", final.Estimator)
	}
	return predictor.Predict(Xt)
}

// Transform runs X through every step, the last one included; all of them
// must be transformers.
func (p *Pipeline) Transform(X mat.Matrix) (_ mat.Matrix, err error) {
	defer errors.Recover(&err, "Pipeline.Transform")
	if !p.IsFitted() {
		return nil, errors.NewNotFittedError("Pipeline", "Transform")
	}
	Xt, final, err := p.prepare(X)
	if err != nil {
		return nil, err
	}
	t, ok := final.Estimator.(model.Transformer)
	if !ok {
		return nil, errors.NewValidationError("step "+final.Name, "last step is not a transformer", final.Estimator)
	}
	if Xt, err = t.Transform(Xt); err != nil {
		return nil, errors.Wrapf(err, "transform at step %q", final.Name)
	}
	return Xt, nil
}

// Score returns the last step's own score when it has one, and the R² of
// the pipeline predictions otherwise.
func (p *Pipeline) Score(X, y mat.Matrix) (_ float64, err error) {
	defer errors.Recover(&err, "Pipeline.Score")
	if !p.IsFitted() {
		return 0, errors.NewNotFittedError("Pipeline", "Score")
	}
	Xt, final, err := p.prepare(X)
	if err != nil {
		return 0, err
	}
	if scorer, ok := final.Estimator.(interface {
		Score(mat.Matrix, mat.Matrix) (float64, error)
	}); ok {
		return scorer.Score(Xt, y)
	}
	predictor, ok := final.Estimator.(model.Predictor)
	if !ok {
		return 0, errors.NewValidationError("step "+final.Name, "last step cannot be scored", final.Estimator)
	}
	pred, err := predictor.Predict(Xt)
	if err != nil {
		return 0, err
	}
	return metrics.R2ScoreMatrix(y, pred)
}

// prepare applies the fitted leading transformers to X.
func (p *Pipeline) prepare(X mat.Matrix) (mat.Matrix, Step, error) {
	lead, final, err := p.layout()
	if err != nil {
		return nil, Step{}, err
	}
	Xt := X
	for _, s := range lead {
		if Xt, err = s.t.Transform(Xt); err != nil {
			return nil, Step{}, errors.Wrapf(err, "transform at step %q", s.name)
		}
	}
	return Xt, final, nil
}

// IsFitted reports whether Fit has completed.
func (p *Pipeline) IsFitted() bool {
	return p.State != nil && p.State.IsFitted()
}

// NamedStep returns the estimator registered under name.
func (p *Pipeline) NamedStep(name string) (interface{}, bool) {
	for _, s := range p.Stages {
		if s.Name == name {
			return s.Estimator, true
		}
	}
	return nil, false
}

// Steps returns a copy of the step list.
func (p *Pipeline) Steps() []Step {
	return append([]Step(nil), p.Stages...)
}

// GetParams merges the step parameters under "<step>__<param>" keys.
func (p *Pipeline) GetParams() map[string]interface{} {
	params := map[string]interface{}{}
	for _, s := range p.Stages {
		g, ok := s.Estimator.(interface {
			GetParams() map[string]interface{}
		})
		if !ok {
			continue
		}
		for k, v := range g.GetParams() {
			params[s.Name+"__"+k] = v
		}
	}
	return params
}
