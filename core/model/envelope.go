package model

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/ezoic/agrodash/pkg/errors"
)

// FormatVersion is the only envelope version this package reads and writes.
const FormatVersion = "1.0"

// EnvelopeSpec describes the model stored in an Envelope.
type EnvelopeSpec struct {
	Name          string `json:"name"`
	FormatVersion string `json:"format_version"`
}

// Envelope is the JSON wrapper used to exchange fitted parameters.
type Envelope struct {
	Spec   EnvelopeSpec    `json:"model_spec"`
	Params json.RawMessage `json:"params"`
}

// LinearParams are the fitted parameters of a linear model.
type LinearParams struct {
	Coefficients []float64 `json:"coefficients"`
	Intercept    float64   `json:"intercept"`
	NFeatures    int       `json:"n_features"`
}

// ReadEnvelope decodes and validates an envelope from r.
func ReadEnvelope(r io.Reader) (*Envelope, error) {
	var env Envelope
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		return nil, fmt.Errorf("failed to decode JSON: %w", err)
	}
	if env.Spec.FormatVersion == "" {
		return nil, errors.NewValueError("ReadEnvelope", "format_version is required")
	}
	if env.Spec.FormatVersion != FormatVersion {
		return nil, errors.NewValueError("ReadEnvelope",
			fmt.Sprintf("unsupported format version: %s", env.Spec.FormatVersion))
	}
	if env.Spec.Name == "" {
		return nil, errors.NewValueError("ReadEnvelope", "model name is required")
	}
	return &env, nil
}

// WriteEnvelope encodes params under modelName as indented JSON.
func WriteEnvelope(w io.Writer, modelName string, params interface{}) error {
	raw, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("failed to marshal params: %w", err)
	}
	env := Envelope{
		Spec:   EnvelopeSpec{Name: modelName, FormatVersion: FormatVersion},
		Params: raw,
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(&env); err != nil {
		return fmt.Errorf("failed to encode model: %w", err)
	}
	return nil
}

// DecodeLinearParams extracts and validates linear parameters.
func (e *Envelope) DecodeLinearParams() (*LinearParams, error) {
	if e.Spec.Name != "LinearRegression" {
		return nil, errors.NewValueError("DecodeLinearParams",
			fmt.Sprintf("expected LinearRegression, got %s", e.Spec.Name))
	}
	var params LinearParams
	if err := json.Unmarshal(e.Params, &params); err != nil {
		return nil, fmt.Errorf("failed to unmarshal params: %w", err)
	}
	if len(params.Coefficients) == 0 {
		return nil, errors.NewValueError("DecodeLinearParams", "coefficients cannot be empty")
	}
	if params.NFeatures != len(params.Coefficients) {
		return nil, errors.NewValueError("DecodeLinearParams",
			fmt.Sprintf("n_features (%d) does not match coefficients length (%d)",
				params.NFeatures, len(params.Coefficients)))
	}
	return &params, nil
}
