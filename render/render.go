// Package render draws dashboard figures with gonum/plot.
//
// A figure is a plain description (titles, colours, values) built by the
// dashboard package or the trainer. ImportanceChart and PredictionChart turn
// it into a *plot.Plot which WriteSVG, WritePNG or Save encode.
package render

import (
	"image/color"
	"io"
	"math"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
	"gonum.org/v1/plot/vg/vgsvg"

	agroErrors "github.com/ezoic/agrodash/pkg/errors"
)

// Supported output formats.
const (
	FormatSVG = "svg"
	FormatPNG = "png"
)

// Chrome holds the colours shared by every figure.
type Chrome struct {
	Title      string `json:"title"`
	XLabel     string `json:"x_label"`
	YLabel     string `json:"y_label"`
	TitleColor string `json:"title_color"`
	TextColor  string `json:"text_color"`
	Background string `json:"background"`
	GridColor  string `json:"grid_color,omitempty"`
}

// Bar is one horizontal bar of an importance chart.
type Bar struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Text  string  `json:"text"`
	Hover string  `json:"hover,omitempty"`
	Color string  `json:"color"`
}

// ImportanceFigure describes a horizontal bar chart. Bars are drawn bottom
// up in slice order.
type ImportanceFigure struct {
	Chrome
	Bars      []Bar  `json:"bars"`
	LineColor string `json:"line_color"`
	BarText   string `json:"bar_text_color"`
}

// Point is one marker of a prediction chart.
type Point struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Hover string  `json:"hover,omitempty"`
}

// PredictionFigure describes an actual-vs-predicted scatter with a dashed
// reference diagonal.
type PredictionFigure struct {
	Chrome
	Points        []Point `json:"points"`
	PointsLabel   string  `json:"points_label"`
	MarkerColor   string  `json:"marker_color"`
	MarkerLine    string  `json:"marker_line"`
	MarkerSize    float64 `json:"marker_size"`
	MarkerOpacity float64 `json:"marker_opacity"`
	RefLabel      string  `json:"ref_label"`
	RefFrom       float64 `json:"ref_from"`
	RefTo         float64 `json:"ref_to"`
	RefColor      string  `json:"ref_color"`
	RefWidth      float64 `json:"ref_width"`
	LegendBg      string  `json:"legend_bg,omitempty"`
}

// ImportanceChart builds the feature importance bar chart.
func ImportanceChart(fig ImportanceFigure) (_ *plot.Plot, err error) {
	defer agroErrors.Recover(&err, "render.ImportanceChart")
	if len(fig.Bars) == 0 {
		return nil, agroErrors.NewValueError("render.ImportanceChart", "figure has no bars")
	}

	p, err := newPlot(fig.Chrome)
	if err != nil {
		return nil, err
	}
	outline, err := colorOr(fig.LineColor, color.Black)
	if err != nil {
		return nil, err
	}
	textColor, err := colorOr(fig.BarText, color.White)
	if err != nil {
		return nil, err
	}

	names := make([]string, len(fig.Bars))
	xys := make(plotter.XYs, len(fig.Bars))
	texts := make([]string, len(fig.Bars))
	for i, b := range fig.Bars {
		if b.Value < 0 || math.IsNaN(b.Value) {
			return nil, agroErrors.NewValidationError("bar value", "must be a non-negative number", b.Value)
		}
		fill, err := colorOr(b.Color, color.Black)
		if err != nil {
			return nil, err
		}
		bar, err := plotter.NewBarChart(plotter.Values{b.Value}, vg.Points(22))
		if err != nil {
			return nil, agroErrors.Wrap(err, "bar chart")
		}
		bar.Horizontal = true
		bar.XMin = float64(i)
		bar.Color = fill
		bar.LineStyle.Color = outline
		bar.LineStyle.Width = vg.Points(1)
		p.Add(bar)

		names[i] = b.Label
		xys[i] = plotter.XY{X: b.Value / 2, Y: float64(i)}
		texts[i] = b.Text
	}

	labels, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: texts})
	if err != nil {
		return nil, agroErrors.Wrap(err, "bar labels")
	}
	for i := range labels.TextStyle {
		labels.TextStyle[i].Color = textColor
		labels.TextStyle[i].Font.Size = vg.Points(11)
		labels.TextStyle[i].XAlign = draw.XCenter
		labels.TextStyle[i].YAlign = draw.YCenter
	}
	p.Add(labels)

	p.NominalY(names...)
	p.X.Min = 0
	return p, nil
}

// PredictionChart builds the actual-vs-predicted scatter.
func PredictionChart(fig PredictionFigure) (_ *plot.Plot, err error) {
	defer agroErrors.Recover(&err, "render.PredictionChart")
	if len(fig.Points) == 0 {
		return nil, agroErrors.NewValueError("render.PredictionChart", "figure has no points")
	}

	p, err := newPlot(fig.Chrome)
	if err != nil {
		return nil, err
	}
	if fig.GridColor != "" {
		grid := plotter.NewGrid()
		gc, err := ParseColor(fig.GridColor)
		if err != nil {
			return nil, err
		}
		grid.Vertical.Color = gc
		grid.Horizontal.Color = gc
		p.Add(grid)
	}

	pts := make(plotter.XYs, len(fig.Points))
	for i, pt := range fig.Points {
		pts[i] = plotter.XY{X: pt.X, Y: pt.Y}
	}

	fill, err := colorOr(fig.MarkerColor, color.Black)
	if err != nil {
		return nil, err
	}
	if fig.MarkerOpacity > 0 && fig.MarkerOpacity < 1 {
		fill.A = uint8(math.Round(float64(fill.A) * fig.MarkerOpacity))
	}
	size := fig.MarkerSize
	if size <= 0 {
		size = 8
	}

	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, agroErrors.Wrap(err, "scatter")
	}
	scatter.GlyphStyle.Color = fill
	scatter.GlyphStyle.Radius = vg.Points(size / 2)
	scatter.GlyphStyle.Shape = draw.CircleGlyph{}
	p.Add(scatter)

	if fig.MarkerLine != "" {
		ring, err := plotter.NewScatter(pts)
		if err != nil {
			return nil, agroErrors.Wrap(err, "scatter outline")
		}
		if ring.GlyphStyle.Color, err = ParseColor(fig.MarkerLine); err != nil {
			return nil, err
		}
		ring.GlyphStyle.Radius = vg.Points(size / 2)
		ring.GlyphStyle.Shape = draw.RingGlyph{}
		p.Add(ring)
	}
	if fig.PointsLabel != "" {
		p.Legend.Add(fig.PointsLabel, scatter)
	}

	ref, err := plotter.NewLine(plotter.XYs{
		{X: fig.RefFrom, Y: fig.RefFrom},
		{X: fig.RefTo, Y: fig.RefTo},
	})
	if err != nil {
		return nil, agroErrors.Wrap(err, "reference line")
	}
	if ref.LineStyle.Color, err = colorOr(fig.RefColor, color.NRGBA{R: 0xff, A: 0xff}); err != nil {
		return nil, err
	}
	width := fig.RefWidth
	if width <= 0 {
		width = 2
	}
	ref.LineStyle.Width = vg.Points(width)
	ref.LineStyle.Dashes = []vg.Length{vg.Points(6), vg.Points(4)}
	p.Add(ref)
	if fig.RefLabel != "" {
		p.Legend.Add(fig.RefLabel, ref)
	}

	p.Legend.Top = true
	p.Legend.Left = true
	if fig.LegendBg != "" && (fig.PointsLabel != "" || fig.RefLabel != "") {
		bg, err := ParseColor(fig.LegendBg)
		if err != nil {
			return nil, err
		}
		var labels []string
		for _, l := range []string{fig.PointsLabel, fig.RefLabel} {
			if l != "" {
				labels = append(labels, l)
			}
		}
		// the legend is drawn on the unpadded data area, so reach past
		// the marker padding
		p.Add(legendBackground{fill: bg, labels: labels, margin: vg.Points(size/2) + legendInset})
	}
	return p, nil
}

const legendInset = vg.Length(4)

// legendBackground fills the box behind a top-left legend. It is added
// after the data so the legend stays readable over markers.
type legendBackground struct {
	fill   color.Color
	labels []string
	margin vg.Length
}

// Plot implements plot.Plotter.
func (lb legendBackground) Plot(c draw.Canvas, p *plot.Plot) {
	sty := p.Legend.TextStyle
	var width, height vg.Length
	for i, l := range lb.labels {
		width = max(width, p.Legend.ThumbnailWidth+sty.Width(" "+l))
		height += sty.Height(l)
		if i > 0 {
			height += p.Legend.Padding
		}
	}
	x0 := c.Min.X - lb.margin
	x1 := c.Min.X + width + legendInset
	y1 := c.Max.Y + lb.margin
	y0 := c.Max.Y - height - legendInset
	c.FillPolygon(lb.fill, []vg.Point{
		{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1},
	})
}

func newPlot(c Chrome) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = c.Title
	p.Title.TextStyle.Font.Size = vg.Points(16)
	p.X.Label.Text = c.XLabel
	p.Y.Label.Text = c.YLabel

	bg, err := colorOr(c.Background, color.White)
	if err != nil {
		return nil, err
	}
	p.BackgroundColor = bg

	fg, err := colorOr(c.TextColor, color.Black)
	if err != nil {
		return nil, err
	}
	title, err := colorOr(c.TitleColor, fg)
	if err != nil {
		return nil, err
	}
	p.Title.TextStyle.Color = title
	p.Legend.TextStyle.Color = fg
	for _, ax := range []*plot.Axis{&p.X, &p.Y} {
		ax.Color = fg
		ax.Label.TextStyle.Color = fg
		ax.Tick.Color = fg
		ax.Tick.Label.Color = fg
	}
	return p, nil
}

// WriteSVG encodes p as SVG.
func WriteSVG(w io.Writer, p *plot.Plot, width, height vg.Length) error {
	c := vgsvg.New(width, height)
	p.Draw(draw.New(c))
	if _, err := c.WriteTo(w); err != nil {
		return agroErrors.Wrap(err, "write svg")
	}
	return nil
}

// WritePNG encodes p as PNG.
func WritePNG(w io.Writer, p *plot.Plot, width, height vg.Length) error {
	c := vgimg.PngCanvas{Canvas: vgimg.New(width, height)}
	p.Draw(draw.New(c))
	if _, err := c.WriteTo(w); err != nil {
		return agroErrors.Wrap(err, "write png")
	}
	return nil
}

// Write encodes p in the named format.
func Write(w io.Writer, p *plot.Plot, width, height vg.Length, format string) error {
	switch strings.ToLower(format) {
	case FormatSVG:
		return WriteSVG(w, p, width, height)
	case FormatPNG:
		return WritePNG(w, p, width, height)
	default:
		return agroErrors.NewValidationError("format", "unsupported image format", format)
	}
}

// Save writes p to path; the extension selects the format.
func Save(p *plot.Plot, path string, width, height vg.Length) error {
	format := strings.TrimPrefix(filepath.Ext(path), ".")
	if format != FormatSVG && format != FormatPNG {
		return agroErrors.NewValidationError("path", "extension must be .svg or .png", path)
	}
	if err := p.Save(width, height, path); err != nil {
		return agroErrors.Wrapf(err, "save %s", path)
	}
	return nil
}

func colorOr(s string, fallback color.Color) (color.NRGBA, error) {
	if s == "" {
		return color.NRGBAModel.Convert(fallback).(color.NRGBA), nil
	}
	return ParseColor(s)
}
