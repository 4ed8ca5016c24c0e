package model_test

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/ezoic/agrodash/core/model"
)

func ExampleStateManager() {
	state := model.NewStateManager()
	fmt.Printf("Initially fitted: %t\n", state.IsFitted())

	state.SetFitted()
	state.SetDimensions(6, 97)
	features, samples := state.GetDimensions()
	fmt.Printf("After SetFitted: %t (%d features, %d samples)\n", state.IsFitted(), features, samples)

	state.Reset()
	fmt.Printf("After Reset: %t\n", state.IsFitted())

	// Output: Initially fitted: false
	// After SetFitted: true (6 features, 97 samples)
	// After Reset: false
}

func TestEnvelopeRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	params := model.LinearParams{Coefficients: []float64{1.5, -0.2}, Intercept: 3, NFeatures: 2}
	if err := model.WriteEnvelope(&buf, "LinearRegression", params); err != nil {
		t.Fatalf("WriteEnvelope: %v", err)
	}

	env, err := model.ReadEnvelope(&buf)
	if err != nil {
		t.Fatalf("ReadEnvelope: %v", err)
	}
	got, err := env.DecodeLinearParams()
	if err != nil {
		t.Fatalf("DecodeLinearParams: %v", err)
	}
	if got.Intercept != 3 || got.NFeatures != 2 || got.Coefficients[0] != 1.5 {
		t.Errorf("unexpected params: %+v", got)
	}
}

func TestReadEnvelopeRejectsBadInput(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"not json", "{"},
		{"missing version", `{"model_spec":{"name":"LinearRegression"},"params":{}}`},
		{"wrong version", `{"model_spec":{"name":"LinearRegression","format_version":"2.0"},"params":{}}`},
		{"missing name", `{"model_spec":{"format_version":"1.0"},"params":{}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := model.ReadEnvelope(strings.NewReader(tt.input)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestDecodeLinearParamsMismatch(t *testing.T) {
	env, err := model.ReadEnvelope(strings.NewReader(
		`{"model_spec":{"name":"LinearRegression","format_version":"1.0"},"params":{"coefficients":[1,2],"intercept":0,"n_features":3}}`))
	if err != nil {
		t.Fatalf("ReadEnvelope: %v", err)
	}
	if _, err := env.DecodeLinearParams(); err == nil {
		t.Error("expected n_features mismatch error")
	}
}
