package dashboard

import (
	"strings"

	agroErrors "github.com/ezoic/agrodash/pkg/errors"
)

// Accent is the highlight colour shared by both themes.
const Accent = "#28a745"

// Theme is the colour scheme of a session.
type Theme string

// Themes.
const (
	Light Theme = "light"
	Dark  Theme = "dark"
)

// ParseTheme accepts "light" or "dark" in any case.
func ParseTheme(s string) (Theme, error) {
	switch Theme(strings.ToLower(strings.TrimSpace(s))) {
	case Light:
		return Light, nil
	case Dark:
		return Dark, nil
	}
	return "", agroErrors.NewValidationError("theme", "must be light or dark", s)
}

// Toggle returns the other theme. Anything that is not Dark toggles to Dark.
func (t Theme) Toggle() Theme {
	if t == Dark {
		return Light
	}
	return Dark
}

// Icon is the glyph shown on the theme button.
func (t Theme) Icon() string {
	if t == Dark {
		return "🌙"
	}
	return "☀️"
}

// Palette holds every colour a page derives from its theme.
type Palette struct {
	Background    string   `json:"background"`
	Card          string   `json:"card"`
	Text          string   `json:"text"`
	Subtitle      string   `json:"subtitle"`
	Shadow        string   `json:"shadow"`
	HeaderBg      string   `json:"header_bg"`
	TableCell     string   `json:"table_cell"`
	TableText     string   `json:"table_text"`
	TableOddRow   string   `json:"table_odd_row"`
	TableHeader   string   `json:"table_header"`
	FirstColumn   string   `json:"first_column"`
	ChartBg       string   `json:"chart_bg"`
	ChartText     string   `json:"chart_text"`
	LegendBg      string   `json:"legend_bg"`
	GridColor     string   `json:"grid_color"`
	Accent        string   `json:"accent"`
	BarOutline    string   `json:"bar_outline"`
	MarkerOutline string   `json:"marker_outline"`
	Reference     string   `json:"reference"`
	BarRamp       []string `json:"bar_ramp"`
}

var barRamp = []string{"#2d5016", "#3d6b1f", "#4d8629", "#5da032", "#6ebb3c"}

// Palette returns the colours of t. Unknown themes use the light palette.
func (t Theme) Palette() Palette {
	p := Palette{
		Accent:        Accent,
		TableHeader:   Accent,
		BarOutline:    "#1e3a0f",
		MarkerOutline: "#155724",
		Reference:     "#dc3545",
		BarRamp:       barRamp,
	}
	if t == Dark {
		p.Background = "#0e1117"
		p.Card = "#1a1d24"
		p.Text = "#e0e0e0"
		p.Subtitle = "#a0a0a0"
		p.Shadow = "0 4px 8px rgba(0, 0, 0, 0.3)"
		p.HeaderBg = "linear-gradient(135deg, #1a1d24 0%, #2a2e3a 100%)"
		p.TableCell = "#141920"
		p.TableText = "#e0e0e0"
		p.TableOddRow = "#1a1d24"
		p.FirstColumn = "rgba(40, 167, 69, 0.15)"
		p.ChartBg = "#1a1d24"
		p.ChartText = "#e0e0e0"
		p.LegendBg = "rgba(26,29,36,0.9)"
		p.GridColor = "rgba(224, 224, 224, 0.15)"
		return p
	}
	p.Background = "#fafafa"
	p.Card = "#ffffff"
	p.Text = "#333333"
	p.Subtitle = "#6c757d"
	p.Shadow = "0 4px 8px rgba(0, 0, 0, 0.1)"
	p.HeaderBg = "linear-gradient(135deg, #f8f9fa 0%, #e9ecef 100%)"
	p.TableCell = "#ffffff"
	p.TableText = "#333333"
	p.TableOddRow = "#f9f9f9"
	p.FirstColumn = "rgba(40, 167, 69, 0.05)"
	p.ChartBg = "rgba(0,0,0,0)"
	p.ChartText = "#2d5016"
	p.LegendBg = "rgba(255,255,255,0.9)"
	p.GridColor = "rgba(45, 80, 22, 0.15)"
	return p
}

// rampColors picks n colours spread over the bar ramp, darkest first.
func (p Palette) rampColors(n int) []string {
	out := make([]string, n)
	if n == 1 {
		out[0] = p.BarRamp[len(p.BarRamp)-1]
		return out
	}
	for i := range out {
		out[i] = p.BarRamp[i*(len(p.BarRamp)-1)/(n-1)]
	}
	return out
}
