// Package report defines the evaluation record a dashboard renders: fit
// quality, error, ranked feature importances and the held-out predictions.
//
// Reports are produced by the trainer (cmd/train) as JSON and loaded by the
// dashboard server; CropDefault and ThermalDefault are the built-in records
// used when no trainer output is configured.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"

	agroErrors "github.com/ezoic/agrodash/pkg/errors"
)

// FeatureImportance is the weight of one model input.
type FeatureImportance struct {
	Name   string  `json:"name" validate:"required"`
	Label  string  `json:"label"`
	Weight float64 `json:"weight" validate:"gte=0"`
}

// DisplayName prefers the human readable label.
func (f FeatureImportance) DisplayName() string {
	if f.Label != "" {
		return f.Label
	}
	return f.Name
}

// ModelReport is the evaluation of one trained model.
type ModelReport struct {
	Name      string                 `json:"name" validate:"required"`
	Algorithm string                 `json:"algorithm" validate:"required"`
	R2        float64                `json:"r2"`
	MAPE      float64                `json:"mape" validate:"gte=0"`
	Params    map[string]interface{} `json:"params,omitempty"`
	Features  []FeatureImportance    `json:"features" validate:"required,min=1,dive"`
	YTest     []float64              `json:"y_test" validate:"required,min=1"`
	YPred     []float64              `json:"y_pred" validate:"required,min=1"`
	TestIndex []int                  `json:"test_index,omitempty"`
	TrainedAt time.Time              `json:"trained_at"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks that the report is complete and that every test target
// has a prediction.
func (r *ModelReport) Validate() error {
	if err := validate.Struct(r); err != nil {
		return agroErrors.NewValidationError("report", err.Error(), r.Name)
	}
	if len(r.YTest) != len(r.YPred) {
		return agroErrors.NewDimensionError("ModelReport.Validate", len(r.YTest), len(r.YPred), 0)
	}
	return nil
}

// Ranked returns the importances sorted ascending by weight, the order in
// which horizontal bar charts draw them bottom to top. Ties keep their
// original order.
func (r *ModelReport) Ranked() []FeatureImportance {
	ranked := make([]FeatureImportance, len(r.Features))
	copy(ranked, r.Features)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Weight < ranked[j].Weight
	})
	return ranked
}

// Range returns the smallest and largest value across YTest and YPred.
func (r *ModelReport) Range() (lo, hi float64) {
	first := true
	for _, s := range [][]float64{r.YTest, r.YPred} {
		for _, v := range s {
			if first || v < lo {
				lo = v
			}
			if first || v > hi {
				hi = v
			}
			first = false
		}
	}
	return lo, hi
}

// Save writes the report as indented JSON.
func (r *ModelReport) Save(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	return closeAfter(file, r.Write(file))
}

// closeAfter closes c and reports the first of err and the close error.
func closeAfter(c io.Closer, err error) error {
	cerr := c.Close()
	if err != nil {
		return err
	}
	return agroErrors.Wrap(cerr, "failed to close file")
}

// Write encodes the report to w.
func (r *ModelReport) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return agroErrors.Wrap(err, "failed to encode report")
	}
	return nil
}

// Load reads and validates a report written by Save.
func Load(path string) (*ModelReport, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = file.Close() }()
	return Read(file)
}

// Read decodes and validates a report from r.
func Read(r io.Reader) (*ModelReport, error) {
	var rep ModelReport
	if err := json.NewDecoder(r).Decode(&rep); err != nil {
		return nil, agroErrors.Wrap(err, "failed to decode report")
	}
	if err := rep.Validate(); err != nil {
		return nil, err
	}
	return &rep, nil
}
