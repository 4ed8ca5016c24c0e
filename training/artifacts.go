package training

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot/vg"

	"github.com/ezoic/agrodash/core/model"
	agroErrors "github.com/ezoic/agrodash/pkg/errors"
	"github.com/ezoic/agrodash/render"
	"github.com/ezoic/agrodash/report"
)

// artifactWriter writes files into dir and records their paths. After the
// first failure every further call is a no-op and err holds the cause.
type artifactWriter struct {
	dir    string
	format string
	res    *Result
	err    error
}

func (w *artifactWriter) path(name string) string {
	return filepath.Join(w.dir, name)
}

func (w *artifactWriter) done(path string, err error) {
	if err != nil {
		w.err = agroErrors.Wrapf(err, "write %s", path)
		return
	}
	w.res.Artifacts = append(w.res.Artifacts, path)
}

// ImportanceFigure is the trainer's importance chart: one colour for every
// bar, features in model order.
func ImportanceFigure(rep *report.ModelReport, barColor string) render.ImportanceFigure {
	fig := render.ImportanceFigure{
		Chrome: render.Chrome{
			Title:  "Importância das Variáveis",
			XLabel: "Importância",
			YLabel: "Variável",
		},
		LineColor: barColor,
		BarText:   "black",
	}
	for _, f := range rep.Features {
		fig.Bars = append(fig.Bars, render.Bar{
			Label: f.DisplayName(),
			Value: f.Weight,
			Text:  fmt.Sprintf("%.1f%%", f.Weight*100),
			Color: barColor,
		})
	}
	return fig
}

// ScatterFigure is the trainer's real-vs-predicted chart.
func ScatterFigure(rep *report.ModelReport) render.PredictionFigure {
	lo, hi := minMax(rep.YTest)
	fig := render.PredictionFigure{
		Chrome: render.Chrome{
			Title:     "Dispersão: Valor Real vs Previsto (Teste)",
			XLabel:    "Valor Real",
			YLabel:    "Valor Previsto",
			GridColor: "rgba(0, 0, 0, 0.15)",
		},
		MarkerColor:   "#28a745",
		MarkerLine:    "black",
		MarkerSize:    8,
		MarkerOpacity: 0.7,
		RefFrom:       lo,
		RefTo:         hi,
		RefColor:      "#ff0000",
		RefWidth:      2,
	}
	for i := range rep.YTest {
		fig.Points = append(fig.Points, render.Point{X: rep.YTest[i], Y: rep.YPred[i]})
	}
	return fig
}

func (w *artifactWriter) charts(rep *report.ModelReport, barColor string) {
	if w.err != nil {
		return
	}
	bars, err := render.ImportanceChart(ImportanceFigure(rep, barColor))
	if err != nil {
		w.err = err
		return
	}
	path := w.path(ImportanceChartName + "." + w.format)
	w.done(path, render.Save(bars, path, 8*vg.Inch, 5*vg.Inch))
	if w.err != nil {
		return
	}

	scatter, err := render.PredictionChart(ScatterFigure(rep))
	if err != nil {
		w.err = err
		return
	}
	path = w.path(ScatterChartName + "." + w.format)
	w.done(path, render.Save(scatter, path, 6*vg.Inch, 6*vg.Inch))
}

func (w *artifactWriter) model(name string, m interface{}) {
	if w.err != nil {
		return
	}
	path := w.path(name)
	w.done(path, model.SaveModel(m, path))
}

func (w *artifactWriter) report(rep *report.ModelReport) {
	if w.err != nil {
		return
	}
	path := w.path(ReportFile)
	w.done(path, rep.Save(path))
}

func (w *artifactWriter) testIndex(idx []int) {
	if w.err != nil {
		return
	}
	records := [][]string{{"indice"}}
	for _, i := range idx {
		records = append(records, []string{strconv.Itoa(i)})
	}
	path := w.path(TestIndexFile)
	w.done(path, writeCSV(path, records))
}

func (w *artifactWriter) testMeans(idx []int, means *mat.VecDense) {
	if w.err != nil {
		return
	}
	records := [][]string{{"indice", "media_anual"}}
	for k, i := range idx {
		records = append(records, []string{
			strconv.Itoa(i),
			strconv.FormatFloat(means.AtVec(k), 'f', -1, 64),
		})
	}
	path := w.path(TestMeanFile)
	w.done(path, writeCSV(path, records))
}

func writeCSV(path string, records [][]string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	cw := csv.NewWriter(file)
	if err := cw.WriteAll(records); err != nil {
		return err
	}
	return file.Sync()
}

func minMax(v []float64) (lo, hi float64) {
	for i, x := range v {
		if i == 0 || x < lo {
			lo = x
		}
		if i == 0 || x > hi {
			hi = x
		}
	}
	return lo, hi
}
