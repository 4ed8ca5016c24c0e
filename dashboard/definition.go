// Package dashboard is the presentation core of the analytics pages.
//
// A Definition describes one dashboard variant: its texts, its filter, its
// table columns and the model report it presents. A Session carries the
// per-visitor theme and filter choice. View combines the three with a
// responsive Layout into a Page, the complete render model that the HTTP
// layer turns into HTML, JSON or chart images.
package dashboard

import (
	"fmt"
	"slices"

	"github.com/ezoic/agrodash/dataset"
	agroErrors "github.com/ezoic/agrodash/pkg/errors"
	"github.com/ezoic/agrodash/report"
)

// FilterKind selects what the table filter ranges over.
type FilterKind string

// Filter kinds.
const (
	FilterYear  FilterKind = "year"
	FilterMonth FilterKind = "month"
)

// Option is one entry of the filter dropdown.
type Option struct {
	Value int    `json:"value"`
	Label string `json:"label"`
}

// Column is a table column. The first column of a definition holds the row
// label and has Type "text".
type Column struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	Format string `json:"format,omitempty"`
	Width  string `json:"width"`
}

// Highlight marks cells of Column whose value exceeds Above.
type Highlight struct {
	Column     string  `json:"column"`
	Above      float64 `json:"above"`
	Background string  `json:"background"`
}

// Row is one table row; Filter is the year or month it belongs to.
type Row struct {
	Filter int                `json:"filter"`
	Label  string             `json:"label"`
	Values map[string]float64 `json:"values"`
}

// Footer is the attribution line below the table.
type Footer struct {
	Prefix string `json:"prefix"`
	Author string `json:"author"`
	Suffix string `json:"suffix"`
}

// Definition is one dashboard variant.
type Definition struct {
	ID          string
	AppTitle    string
	Title       string
	Subtitle    string
	Icon        string
	ModelName   string
	FilterKind  FilterKind
	FilterLabel string
	Options     []Option
	Default     int
	TableTitle  string
	Columns     []Column
	Highlights  []Highlight
	ValueFormat string // format of actual and predicted values in hover texts
	Footer      Footer
	Report      *report.ModelReport
	Rows        []Row
}

// HasOption reports whether v is one of the filter values.
func (d *Definition) HasOption(v int) bool {
	return slices.ContainsFunc(d.Options, func(o Option) bool { return o.Value == v })
}

// RowsFor returns the rows belonging to filter value v.
func (d *Definition) RowsFor(v int) []Row {
	var rows []Row
	for _, r := range d.Rows {
		if r.Filter == v {
			rows = append(rows, r)
		}
	}
	return rows
}

// Validate checks the definition is internally consistent.
func (d *Definition) Validate() error {
	if d.ID == "" {
		return agroErrors.NewValidationError("id", "must not be empty", d.ID)
	}
	if d.Report == nil {
		return agroErrors.NewValidationError("report", "must be set", d.ID)
	}
	if err := d.Report.Validate(); err != nil {
		return agroErrors.Wrapf(err, "dashboard %s", d.ID)
	}
	if len(d.Columns) < 2 {
		return agroErrors.NewValidationError("columns", "need a label column and at least one value column", len(d.Columns))
	}
	if !d.HasOption(d.Default) {
		return agroErrors.NewValidationError("default filter", "not among the filter options", d.Default)
	}
	return nil
}

// CropDefaultYear is the year the crop table opens on.
const CropDefaultYear = 2023

// Crop is the soybean productivity dashboard over the simulated historical
// table.
func Crop(rep *report.ModelReport, rows []dataset.HistoricalRow, defaultYear int) *Definition {
	d := &Definition{
		ID:          "crop",
		AppTitle:    "Random Forest ML Dashboard",
		Title:       "ML Model Analytics Dashboard",
		Subtitle:    "Análise Completa de Performance do Modelo Random Forest",
		Icon:        "fa:line-chart",
		ModelName:   "Random Forest",
		FilterKind:  FilterYear,
		FilterLabel: "Filtrar por Ano:",
		Default:     defaultYear,
		TableTitle:  "Dados Históricos por Ano",
		Columns: []Column{
			{ID: "Mês", Name: "Mês", Type: "text", Width: "15%"},
			{ID: "Temperatura", Name: "Temperatura (°C)", Type: "numeric", Format: ".1f", Width: "17%"},
			{ID: "Precipitação", Name: "Precipitação (mm)", Type: "numeric", Format: ".1f", Width: "17%"},
			{ID: "Área Plantada", Name: "Área Plantada (ha)", Type: "numeric", Format: ",.0f", Width: "17%"},
			{ID: "Área Colhida", Name: "Área Colhida (ha)", Type: "numeric", Format: ",.0f", Width: "17%"},
			{ID: "Produção", Name: "Produção (ton)", Type: "numeric", Format: ",.0f", Width: "17%"},
		},
		Highlights: []Highlight{
			{Column: "Temperatura", Above: 28, Background: "rgba(255, 193, 193, 0.7)"},
			{Column: "Precipitação", Above: 200, Background: "rgba(173, 216, 230, 0.7)"},
			{Column: "Produção", Above: 2800, Background: "rgba(144, 238, 144, 0.8)"},
		},
		ValueFormat: ",.0f",
		Footer:      Footer{Prefix: "🚀 Dashboard criado por ", Author: "FLASHBYTE", Suffix: " | Modelo: Random Forest 🌱"},
		Report:      rep,
	}

	seen := map[int]bool{}
	for _, r := range rows {
		if !seen[r.Year] {
			seen[r.Year] = true
			d.Options = append(d.Options, Option{Value: r.Year, Label: fmt.Sprintf("📅 Ano %d", r.Year)})
		}
		d.Rows = append(d.Rows, Row{
			Filter: r.Year,
			Label:  r.MonthName,
			Values: map[string]float64{
				"Temperatura":   r.Temperature,
				"Precipitação":  r.Precipitation,
				"Área Plantada": r.PlantedArea,
				"Área Colhida":  r.HarvestedArea,
				"Produção":      r.Production,
			},
		})
	}
	return d
}

// Thermal is the thermal sensation dashboard; its table is filtered by
// month and lists that month across the simulated years.
func Thermal(rep *report.ModelReport, rows []dataset.ThermalRow, defaultMonth int) *Definition {
	d := &Definition{
		ID:          "thermal",
		AppTitle:    "Linear Regression ML Dashboard",
		Title:       "Thermal Comfort Analytics Dashboard",
		Subtitle:    "Análise de Performance do Modelo de Regressão Linear para Sensação Térmica",
		Icon:        "fa:thermometer-half",
		ModelName:   "Regressão Linear",
		FilterKind:  FilterMonth,
		FilterLabel: "Filtrar por Mês:",
		Default:     defaultMonth,
		TableTitle:  "Dados Climáticos por Mês",
		Columns: []Column{
			{ID: "Ano", Name: "Ano", Type: "text", Width: "15%"},
			{ID: "Temperatura", Name: "Temperatura (°C)", Type: "numeric", Format: ".1f", Width: "21%"},
			{ID: "Umidade", Name: "Umidade (%)", Type: "numeric", Format: ".1f", Width: "21%"},
			{ID: "Vento", Name: "Vento (m/s)", Type: "numeric", Format: ".1f", Width: "21%"},
			{ID: "Sensação", Name: "Sensação Térmica (°C)", Type: "numeric", Format: ".1f", Width: "22%"},
		},
		Highlights: []Highlight{
			{Column: "Sensação", Above: 30, Background: "rgba(255, 193, 193, 0.7)"},
			{Column: "Umidade", Above: 80, Background: "rgba(173, 216, 230, 0.7)"},
		},
		ValueFormat: ".1f",
		Footer:      Footer{Prefix: "🚀 Dashboard criado por ", Author: "FLASHBYTE", Suffix: " | Modelo: Regressão Linear 🌡️"},
		Report:      rep,
	}

	for m, name := range dataset.MonthNames {
		d.Options = append(d.Options, Option{Value: m + 1, Label: "🗓️ " + name})
	}
	for _, r := range rows {
		d.Rows = append(d.Rows, Row{
			Filter: r.Month,
			Label:  fmt.Sprint(r.Year),
			Values: map[string]float64{
				"Temperatura": r.Temperature,
				"Umidade":     r.Humidity,
				"Vento":       r.WindSpeed,
				"Sensação":    r.Sensation,
			},
		})
	}
	return d
}

// Registry holds the dashboards served by one process, in display order.
type Registry struct {
	defs []*Definition
}

// NewRegistry validates defs and rejects duplicate IDs.
func NewRegistry(defs ...*Definition) (*Registry, error) {
	seen := map[string]bool{}
	for _, d := range defs {
		if err := d.Validate(); err != nil {
			return nil, err
		}
		if seen[d.ID] {
			return nil, agroErrors.NewValidationError("id", "duplicate dashboard", d.ID)
		}
		seen[d.ID] = true
	}
	return &Registry{defs: defs}, nil
}

// Get returns the dashboard with the given ID.
func (r *Registry) Get(id string) (*Definition, bool) {
	for _, d := range r.defs {
		if d.ID == id {
			return d, true
		}
	}
	return nil, false
}

// List returns the dashboards in display order.
func (r *Registry) List() []*Definition {
	return slices.Clone(r.defs)
}
