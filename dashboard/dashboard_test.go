package dashboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezoic/agrodash/dataset"
	agroErrors "github.com/ezoic/agrodash/pkg/errors"
	"github.com/ezoic/agrodash/report"
)

func cropDef() *Definition {
	return Crop(report.CropDefault(), dataset.Historical(dataset.DefaultSeed, dataset.Years()), CropDefaultYear)
}

func thermalDef() *Definition {
	return Thermal(report.ThermalDefault(), dataset.ThermalMonthly(dataset.DefaultSeed), 1)
}

func TestParseTheme(t *testing.T) {
	th, err := ParseTheme(" Dark ")
	require.NoError(t, err)
	assert.Equal(t, Dark, th)

	th, err = ParseTheme("light")
	require.NoError(t, err)
	assert.Equal(t, Light, th)

	_, err = ParseTheme("blue")
	assert.ErrorIs(t, err, agroErrors.ErrInvalidInput)
}

func TestThemeToggleAndIcon(t *testing.T) {
	assert.Equal(t, Dark, Light.Toggle())
	assert.Equal(t, Light, Dark.Toggle())
	assert.Equal(t, Dark, Theme("").Toggle())
	assert.Equal(t, "☀️", Light.Icon())
	assert.Equal(t, "🌙", Dark.Icon())
}

func TestPalette(t *testing.T) {
	light := Light.Palette()
	assert.Equal(t, "#fafafa", light.Background)
	assert.Equal(t, "rgba(0,0,0,0)", light.ChartBg)
	assert.Equal(t, "#2d5016", light.ChartText)
	assert.Equal(t, "#f9f9f9", light.TableOddRow)

	dark := Dark.Palette()
	assert.Equal(t, "#0e1117", dark.Background)
	assert.Equal(t, "#1a1d24", dark.ChartBg)
	assert.Equal(t, "rgba(26,29,36,0.9)", dark.LegendBg)
	assert.Equal(t, "rgba(40, 167, 69, 0.15)", dark.FirstColumn)
	assert.Equal(t, Accent, dark.TableHeader)

	assert.Equal(t, light, Theme("sepia").Palette())
}

func TestRampColors(t *testing.T) {
	pal := Light.Palette()
	assert.Equal(t, barRamp, pal.rampColors(5))
	assert.Equal(t, []string{"#2d5016", "#4d8629", "#6ebb3c"}, pal.rampColors(3))
	assert.Equal(t, []string{"#6ebb3c"}, pal.rampColors(1))
	assert.Len(t, pal.rampColors(6), 6)
}

func TestLayoutFor(t *testing.T) {
	tests := []struct {
		width, breakpoint int
		want              Layout
	}{
		{0, 768, Desktop},
		{500, 768, Mobile},
		{767, 768, Mobile},
		{768, 768, Desktop},
		{1920, 768, Desktop},
		{700, 0, Mobile},
		{700, 600, Desktop},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LayoutFor(tt.width, tt.breakpoint), "width %d", tt.width)
	}

	assert.Equal(t, "mobile", Mobile.String())
	assert.Equal(t, 1, Mobile.Columns())
	assert.Equal(t, 2, Desktop.Columns())
	assert.Equal(t, 400, Desktop.ChartHeight())
	assert.Equal(t, 320, Mobile.ChartHeight())
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		spec string
		v    float64
		want string
	}{
		{",.0f", 3100, "3,100"},
		{",.0f", 1234567.4, "1,234,567"},
		{",.0f", 950, "950"},
		{".1f", 25.34, "25.3"},
		{".1f", 1234.5, "1234.5"},
		{".1%", 0.3, "30.0%"},
		{".1%", 0.15, "15.0%"},
		{"", 1.5, "1.5"},
		{",", 1234, "1234"},
		{".", 2.5, "2.5"},
		{"f", 2.5, "2.500000"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatNumber(tt.spec, tt.v), "%s %v", tt.spec, tt.v)
	}
}

func TestCropDefinition(t *testing.T) {
	def := cropDef()
	require.NoError(t, def.Validate())

	assert.Len(t, def.Options, len(dataset.Years()))
	assert.Equal(t, "📅 Ano 2018", def.Options[0].Label)
	assert.True(t, def.HasOption(2023))
	assert.False(t, def.HasOption(2030))

	rows := def.RowsFor(2023)
	require.Len(t, rows, 12)
	assert.Equal(t, "Janeiro", rows[0].Label)
	assert.Contains(t, rows[0].Values, "Produção")
	assert.Empty(t, def.RowsFor(1999))
}

func TestThermalDefinition(t *testing.T) {
	def := thermalDef()
	require.NoError(t, def.Validate())

	assert.Equal(t, FilterMonth, def.FilterKind)
	assert.Len(t, def.Options, 12)
	assert.Equal(t, "🗓️ Março", def.Options[2].Label)

	rows := def.RowsFor(1)
	require.Len(t, rows, len(dataset.ThermalYears()))
	assert.Equal(t, "2019", rows[0].Label)
}

func TestRegistry(t *testing.T) {
	reg, err := NewRegistry(cropDef(), thermalDef())
	require.NoError(t, err)

	def, ok := reg.Get("thermal")
	require.True(t, ok)
	assert.Equal(t, "thermal", def.ID)
	_, ok = reg.Get("missing")
	assert.False(t, ok)

	list := reg.List()
	require.Len(t, list, 2)
	assert.Equal(t, "crop", list[0].ID)

	_, err = NewRegistry(cropDef(), cropDef())
	assert.ErrorIs(t, err, agroErrors.ErrInvalidInput)

	bad := Crop(report.CropDefault(), dataset.Historical(dataset.DefaultSeed, dataset.Years()), 1990)
	_, err = NewRegistry(bad)
	assert.ErrorIs(t, err, agroErrors.ErrInvalidInput)
}

func TestSessionApply(t *testing.T) {
	def := cropDef()
	sess := NewSession()
	assert.Equal(t, Light, sess.Theme)
	assert.Equal(t, CropDefaultYear, sess.Filter(def))

	require.NoError(t, sess.Apply(def, Event{Kind: ToggleTheme}))
	assert.Equal(t, Dark, sess.Theme)

	require.NoError(t, sess.Apply(def, Event{Kind: SelectFilter, Value: 2019}))
	assert.Equal(t, 2019, sess.Filter(def))

	err := sess.Apply(def, Event{Kind: SelectFilter, Value: 1900})
	assert.ErrorIs(t, err, agroErrors.ErrInvalidInput)
	assert.Equal(t, 2019, sess.Filter(def), "rejected value leaves the selection")

	err = sess.Apply(def, Event{Kind: "zoom"})
	assert.ErrorIs(t, err, agroErrors.ErrInvalidInput)

	// filters are kept per dashboard
	assert.Equal(t, 1, sess.Filter(thermalDef()))
}

func TestStyle(t *testing.T) {
	s := Style{{"color", "red"}, {"padding", "1px"}}.with(Decl{"color", "blue"})
	assert.Equal(t, "color: red; padding: 1px; color: blue", s.CSS())
	v, ok := s.Get("color")
	assert.True(t, ok)
	assert.Equal(t, "blue", v)
	_, ok = s.Get("margin")
	assert.False(t, ok)
}

func TestViewCropLight(t *testing.T) {
	def := cropDef()
	page := View(def, NewSession(), Desktop)

	assert.Equal(t, "ML Model Analytics Dashboard", page.Title)
	assert.Equal(t, "☀️", page.ThemeIcon)
	assert.Equal(t, "desktop", page.Layout)
	assert.Equal(t, 400, page.ChartHeight)

	require.Len(t, page.Cards, 2)
	assert.Equal(t, "0.9566", page.Cards[0].Value)
	assert.Equal(t, "4.58%", page.Cards[1].Value)
	bg, _ := page.Cards[0].Style.Get("background")
	assert.Equal(t, Light.Palette().HeaderBg, bg)

	bars := page.Importance.Figure.Bars
	require.Len(t, bars, 5)
	names := make([]string, len(bars))
	for i, b := range bars {
		names[i] = b.Label
		assert.Equal(t, barRamp[i], b.Color)
	}
	assert.Equal(t, []string{"Área Colhida", "Mês", "Área Plantada", "Precipitação", "Temperatura"}, names)
	assert.Equal(t, "30.0%", bars[4].Text)
	assert.Equal(t, "Temperatura\nImportância: 30.0%", bars[4].Hover)

	pred := page.Predictions.Figure
	assert.Equal(t, 1450.0, pred.RefFrom)
	assert.Equal(t, 3300.0, pred.RefTo)
	require.Len(t, pred.Points, 15)
	assert.Equal(t, "Real: 3,100\nPrevisto: 3,050\nErro: 50", pred.Points[0].Hover)
	assert.Equal(t, "rgba(255,255,255,0.9)", pred.LegendBg)

	assert.Equal(t, CropDefaultYear, page.Filter.Selected)
	main, _ := page.Styles.Main.Get("background-color")
	assert.Equal(t, "#fafafa", main)
}

func TestViewTable(t *testing.T) {
	def := cropDef()
	sess := NewSession()
	require.NoError(t, sess.Apply(def, Event{Kind: SelectFilter, Value: 2020}))
	page := View(def, sess, Desktop)
	pal := Light.Palette()

	rows := def.RowsFor(2020)
	require.Len(t, page.Table.Rows, len(rows))
	assert.Equal(t, "Dados Históricos por Ano", page.Table.Title)

	for i, cells := range page.Table.Rows {
		require.Len(t, cells, len(def.Columns))
		assert.Equal(t, rows[i].Label, cells[0].Text)
		w, _ := cells[0].Style.Get("width")
		assert.Equal(t, "15%", w)

		for j, col := range def.Columns[1:] {
			cell := cells[j+1]
			v := rows[i].Values[col.ID]
			assert.Equal(t, FormatNumber(col.Format, v), cell.Text)

			want := (col.ID == "Temperatura" && v > 28) ||
				(col.ID == "Precipitação" && v > 200) ||
				(col.ID == "Produção" && v > 2800)
			assert.Equal(t, want, cell.Highlighted, "%s row %d", col.ID, i)

			bg, _ := cell.Style.Get("background-color")
			switch {
			case want:
				c, _ := cell.Style.Get("color")
				assert.Equal(t, "black", c)
			case i%2 == 1:
				assert.Equal(t, pal.TableOddRow, bg)
			default:
				assert.Equal(t, pal.TableCell, bg)
			}
		}
	}

	first, _ := page.Table.Rows[0][0].Style.Get("background-color")
	assert.Equal(t, pal.FirstColumn, first)
	hdr, _ := page.Table.HeaderStyle.Get("color")
	assert.Equal(t, "white", hdr)
}

func TestViewDarkMobileThermal(t *testing.T) {
	def := thermalDef()
	sess := NewSession()
	require.NoError(t, sess.Apply(def, Event{Kind: ToggleTheme}))
	page := View(def, sess, LayoutFor(375, DefaultBreakpoint))

	assert.Equal(t, Dark, page.Theme)
	assert.Equal(t, "🌙", page.ThemeIcon)
	assert.Equal(t, "mobile", page.Layout)
	assert.Equal(t, 1, page.Columns)
	assert.Equal(t, 320, page.ChartHeight)
	assert.Equal(t, "#1a1d24", page.Importance.Figure.Background)
	assert.Equal(t, "#e0e0e0", page.Predictions.Figure.TextColor)
	assert.Equal(t, "rgba(26,29,36,0.9)", page.Predictions.Figure.LegendBg)

	bars := page.Importance.Figure.Bars
	require.Len(t, bars, 3)
	assert.Equal(t, "Temperatura", bars[2].Label)
	assert.Equal(t, "Real: 27.4\nPrevisto: 27.9\nErro: 0.5", page.Predictions.Figure.Points[0].Hover)

	assert.Len(t, page.Table.Rows, len(dataset.ThermalYears()))
	assert.Equal(t, "Ano", page.Table.Columns[0].Name)
}
