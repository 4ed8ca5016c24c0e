package dashboard

import (
	"fmt"
	"math"
	"strings"

	"github.com/ezoic/agrodash/render"
)

// Decl is one CSS declaration.
type Decl struct {
	Prop  string `json:"prop"`
	Value string `json:"value"`
}

// Style is an ordered list of CSS declarations; later entries win.
type Style []Decl

// CSS renders s as an inline style attribute value.
func (s Style) CSS() string {
	parts := make([]string, len(s))
	for i, d := range s {
		parts[i] = d.Prop + ": " + d.Value
	}
	return strings.Join(parts, "; ")
}

// Get returns the last value set for prop.
func (s Style) Get(prop string) (string, bool) {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i].Prop == prop {
			return s[i].Value, true
		}
	}
	return "", false
}

func (s Style) with(decls ...Decl) Style {
	out := make(Style, 0, len(s)+len(decls))
	out = append(out, s...)
	return append(out, decls...)
}

// Styles are the theme dependent styles of the page chrome.
type Styles struct {
	Main            Style `json:"main"`
	Title           Style `json:"title"`
	Subtitle        Style `json:"subtitle"`
	ThemeButton     Style `json:"theme_button"`
	CardHeader      Style `json:"card_header"`
	CardBody        Style `json:"card_body"`
	FilterContainer Style `json:"filter_container"`
	FilterLabel     Style `json:"filter_label"`
	FilterSelect    Style `json:"filter_select"`
	FooterText      Style `json:"footer_text"`
	FooterRule      Style `json:"footer_rule"`
}

// MetricCard is a headline number.
type MetricCard struct {
	Title         string `json:"title"`
	Value         string `json:"value"`
	Icon          string `json:"icon"`
	Subtitle      string `json:"subtitle"`
	Style         Style  `json:"style"`
	TitleStyle    Style  `json:"title_style"`
	SubtitleStyle Style  `json:"subtitle_style"`
}

// ImportanceCard wraps the importance figure.
type ImportanceCard struct {
	Header string                  `json:"header"`
	Figure render.ImportanceFigure `json:"figure"`
}

// PredictionCard wraps the predictions figure.
type PredictionCard struct {
	Header string                  `json:"header"`
	Figure render.PredictionFigure `json:"figure"`
}

// FilterView is the dropdown above the table.
type FilterView struct {
	Kind     FilterKind `json:"kind"`
	Label    string     `json:"label"`
	Options  []Option   `json:"options"`
	Selected int        `json:"selected"`
}

// Cell is one rendered table cell.
type Cell struct {
	Text        string `json:"text"`
	Highlighted bool   `json:"highlighted,omitempty"`
	Style       Style  `json:"style"`
}

// Table is the filtered data table.
type Table struct {
	Title       string   `json:"title"`
	Columns     []Column `json:"columns"`
	HeaderStyle Style    `json:"header_style"`
	Rows        [][]Cell `json:"rows"`
}

// Page is the complete render model of a dashboard.
type Page struct {
	ID          string         `json:"id"`
	AppTitle    string         `json:"app_title"`
	Title       string         `json:"title"`
	Subtitle    string         `json:"subtitle"`
	Icon        string         `json:"icon"`
	Theme       Theme          `json:"theme"`
	ThemeIcon   string         `json:"theme_icon"`
	Layout      string         `json:"layout"`
	Columns     int            `json:"columns"`
	TitleClass  string         `json:"title_class"`
	ChartWidth  int            `json:"chart_width"`
	ChartHeight int            `json:"chart_height"`
	Palette     Palette        `json:"palette"`
	Styles      Styles         `json:"styles"`
	Cards       []MetricCard   `json:"cards"`
	Importance  ImportanceCard `json:"importance"`
	Predictions PredictionCard `json:"predictions"`
	Filter      FilterView     `json:"filter"`
	Table       Table          `json:"table"`
	Footer      Footer         `json:"footer"`
}

// View builds the page for def as seen by sess in layout.
func View(def *Definition, sess *Session, layout Layout) *Page {
	theme := sess.Theme
	if theme != Dark {
		theme = Light
	}
	pal := theme.Palette()

	return &Page{
		ID:          def.ID,
		AppTitle:    def.AppTitle,
		Title:       def.Title,
		Subtitle:    def.Subtitle,
		Icon:        def.Icon,
		Theme:       theme,
		ThemeIcon:   theme.Icon(),
		Layout:      layout.String(),
		Columns:     layout.Columns(),
		TitleClass:  layout.TitleClass(),
		ChartWidth:  layout.ChartWidth(),
		ChartHeight: layout.ChartHeight(),
		Palette:     pal,
		Styles:      pageStyles(pal),
		Cards:       metricCards(def, pal),
		Importance: ImportanceCard{
			Header: "Análise de Importância",
			Figure: ImportanceFigure(def, theme),
		},
		Predictions: PredictionCard{
			Header: "Análise de Predições",
			Figure: PredictionFigure(def, theme),
		},
		Filter: FilterView{
			Kind:     def.FilterKind,
			Label:    def.FilterLabel,
			Options:  def.Options,
			Selected: sess.Filter(def),
		},
		Table:  buildTable(def, sess.Filter(def), pal),
		Footer: def.Footer,
	}
}

func pageStyles(pal Palette) Styles {
	return Styles{
		Main: Style{
			{"background-color", pal.Background},
			{"color", pal.Text},
			{"min-height", "100vh"},
			{"transition", "all 0.3s ease"},
		},
		Title:    Style{{"color", pal.Accent}},
		Subtitle: Style{{"font-size", "1.3rem"}, {"color", pal.Subtitle}},
		ThemeButton: Style{
			{"position", "absolute"},
			{"top", "10px"},
			{"right", "10px"},
			{"height", "50px"},
			{"width", "50px"},
			{"background", "transparent"},
			{"border", "1px solid " + pal.Accent},
			{"border-radius", "50%"},
			{"cursor", "pointer"},
			{"font-size", "1.5rem"},
		},
		CardHeader: Style{
			{"background", pal.HeaderBg},
			{"border-bottom", "3px solid " + pal.Accent},
		},
		CardBody: Style{{"background-color", pal.Card}},
		FilterContainer: Style{
			{"margin-bottom", "20px"},
			{"background", pal.Card},
			{"padding", "15px"},
			{"border-radius", "8px"},
			{"box-shadow", pal.Shadow},
			{"transition", "all 0.3s ease"},
		},
		FilterLabel: Style{
			{"color", pal.Text},
			{"font-weight", "bold"},
			{"margin-bottom", "8px"},
			{"font-size", "1.1rem"},
		},
		FilterSelect: Style{
			{"border", "2px solid " + pal.Accent},
			{"border-radius", "8px"},
			{"background-color", pal.Card},
			{"color", pal.Text},
			{"font-weight", "bold"},
			{"font-size", "1.1rem"},
			{"transition", "all 0.3s ease"},
		},
		FooterText: Style{{"font-size", "1.1rem"}, {"color", pal.Subtitle}},
		FooterRule: Style{{"border-color", pal.Accent}, {"border-width", "2px"}},
	}
}

func metricCards(def *Definition, pal Palette) []MetricCard {
	card := Style{
		{"background", pal.HeaderBg},
		{"border-left", "5px solid " + pal.Accent},
	}
	title := Style{{"font-size", "1.1rem"}, {"color", pal.Text}}
	subtitle := Style{{"color", pal.Subtitle}}
	return []MetricCard{
		{
			Title:         "Coeficiente R²",
			Value:         fmt.Sprintf("%.4f", def.Report.R2),
			Icon:          "fa:line-chart",
			Subtitle:      "Qualidade do ajuste do modelo",
			Style:         card,
			TitleStyle:    title,
			SubtitleStyle: subtitle,
		},
		{
			Title:         "MAPE",
			Value:         fmt.Sprintf("%.2f%%", def.Report.MAPE),
			Icon:          "fa:percent",
			Subtitle:      "Erro percentual médio absoluto",
			Style:         card,
			TitleStyle:    title,
			SubtitleStyle: subtitle,
		},
	}
}

// ImportanceFigure is the importance chart of def: features in ascending
// weight, darkest bar first.
func ImportanceFigure(def *Definition, theme Theme) render.ImportanceFigure {
	pal := theme.Palette()
	ranked := def.Report.Ranked()
	colors := pal.rampColors(len(ranked))

	fig := render.ImportanceFigure{
		Chrome: render.Chrome{
			Title:      "🎯 Importância das Variáveis",
			XLabel:     "Importância Relativa (%)",
			YLabel:     "Variáveis",
			TitleColor: pal.Accent,
			TextColor:  pal.ChartText,
			Background: pal.ChartBg,
		},
		LineColor: pal.BarOutline,
		BarText:   "white",
	}
	for i, f := range ranked {
		pct := FormatNumber(".1%", f.Weight)
		fig.Bars = append(fig.Bars, render.Bar{
			Label: f.DisplayName(),
			Value: f.Weight,
			Text:  pct,
			Hover: f.DisplayName() + "\nImportância: " + pct,
			Color: colors[i],
		})
	}
	return fig
}

// PredictionFigure is the actual-vs-predicted chart of def with a reference
// line spanning the smallest to the largest value of either series.
func PredictionFigure(def *Definition, theme Theme) render.PredictionFigure {
	pal := theme.Palette()
	rep := def.Report
	lo, hi := rep.Range()

	fig := render.PredictionFigure{
		Chrome: render.Chrome{
			Title:      "📊 Predições vs. Valores Reais",
			XLabel:     "Valores Reais",
			YLabel:     "Valores Preditos",
			TitleColor: pal.Accent,
			TextColor:  pal.ChartText,
			Background: pal.ChartBg,
			GridColor:  pal.GridColor,
		},
		PointsLabel:   "Predições",
		MarkerColor:   pal.Accent,
		MarkerLine:    pal.MarkerOutline,
		MarkerSize:    14,
		MarkerOpacity: 0.8,
		RefLabel:      "Predição Perfeita",
		RefFrom:       lo,
		RefTo:         hi,
		RefColor:      pal.Reference,
		RefWidth:      3,
		LegendBg:      pal.LegendBg,
	}
	for i, actual := range rep.YTest {
		pred := rep.YPred[i]
		fig.Points = append(fig.Points, render.Point{
			X: actual,
			Y: pred,
			Hover: fmt.Sprintf("Real: %s\nPrevisto: %s\nErro: %s",
				FormatNumber(def.ValueFormat, actual),
				FormatNumber(def.ValueFormat, pred),
				FormatNumber(def.ValueFormat, math.Abs(actual-pred)),
			),
		})
	}
	return fig
}

func buildTable(def *Definition, filter int, pal Palette) Table {
	base := Style{
		{"text-align", "center"},
		{"padding", "15px"},
		{"font-family", "Arial"},
		{"font-size", "14px"},
		{"border", "1px solid " + pal.Accent},
		{"background-color", pal.TableCell},
		{"color", pal.TableText},
	}
	t := Table{
		Title:   def.TableTitle,
		Columns: def.Columns,
		HeaderStyle: Style{
			{"background-color", pal.TableHeader},
			{"color", "white"},
			{"font-weight", "bold"},
			{"font-size", "15px"},
			{"border", "1px solid " + pal.Accent},
		},
	}

	for i, row := range def.RowsFor(filter) {
		cells := make([]Cell, len(def.Columns))
		for j, col := range def.Columns {
			style := base.with(Decl{"width", col.Width})
			var text string
			var value float64
			if j == 0 {
				text = row.Label
				style = style.with(Decl{"font-weight", "bold"}, Decl{"background-color", pal.FirstColumn})
			} else {
				value = row.Values[col.ID]
				text = FormatNumber(col.Format, value)
			}
			if i%2 == 1 {
				style = style.with(Decl{"background-color", pal.TableOddRow})
			}

			cell := Cell{Text: text}
			if j > 0 {
				if h, ok := highlight(def, col.ID, value); ok {
					cell.Highlighted = true
					style = style.with(
						Decl{"background-color", h.Background},
						Decl{"color", "black"},
						Decl{"font-weight", "bold"},
					)
				}
			}
			cell.Style = style
			cells[j] = cell
		}
		t.Rows = append(t.Rows, cells)
	}
	return t
}

func highlight(def *Definition, column string, v float64) (Highlight, bool) {
	for _, h := range def.Highlights {
		if h.Column == column && v > h.Above {
			return h, true
		}
	}
	return Highlight{}, false
}
