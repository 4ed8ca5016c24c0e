// Package dataset holds the embedded agricultural and climate series and
// turns them into model-ready feature matrices.
package dataset

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	agroErrors "github.com/ezoic/agrodash/pkg/errors"
)

// FirstCropYear is the calendar year of month index 1.
const FirstCropYear = 2015

// CropRow is one month of the soybean series.
type CropRow struct {
	Month         int // 1-based month index since January 2015
	Temperature   float64
	Precipitation float64
	PlantedArea   float64
	Yield         float64 // kg/ha
}

// Year returns the calendar year of the row.
func (r CropRow) Year() int {
	return FirstCropYear + (r.Month-1)/12
}

// CropMonthly returns the embedded monthly series.
func CropMonthly() []CropRow {
	rows := make([]CropRow, len(cropYield))
	for i := range rows {
		rows[i] = CropRow{
			Month:         i + 1,
			Temperature:   cropTemperature[i],
			Precipitation: cropPrecipitation[i],
			PlantedArea:   cropPlantedArea[i],
			Yield:         cropYield[i],
		}
	}
	return rows
}

// Crop feature columns, in matrix order.
const (
	FeatureMonthCos = iota
	FeatureMonthSin
	FeatureTempRolling
	FeaturePrecipRolling
	FeatureClimateInteraction
	FeaturePlantedArea
)

// CropFeatureNames are the column identifiers of Frame.X for the crop model.
var CropFeatureNames = []string{
	"mes_cos",
	"mes_sin",
	"temp_movel",
	"precip_movel",
	"clima_interacao",
	"area_plantada",
}

// CropFeatureLabels are the chart labels for CropFeatureNames.
var CropFeatureLabels = []string{
	"Sazonalidade (Cosseno)",
	"Sazonalidade (Seno)",
	"Temperatura Média (°C)\n(6 meses)",
	"Precipitação Média (mm)\n(6 meses)",
	"Temperatura x Precipitação\n(Interação)",
	"Área Plantada (ha)",
}

const (
	rollingWindow  = 6
	outlierZScore  = 3.0
	monthsPerCycle = 12
)

// Frame is a feature matrix with its target and per-row context.
type Frame struct {
	Index      []int         // position of each row in the source series
	X          *mat.Dense    // features, one row per sample
	Y          *mat.VecDense // target
	AnnualMean *mat.VecDense // mean yield of the row's year, used to rescale Y
	Names      []string      // column identifiers of X
}

// Len returns the number of samples.
func (f *Frame) Len() int {
	return len(f.Index)
}

// BuildCropFeatures derives the crop model inputs from the monthly series.
//
// The target is the yield relative to its year's mean. Rows without a
// previous month, and rows whose relative or lagged relative yield lies 3 or
// more population standard deviations from the mean, are dropped. Six-month
// rolling means of temperature and precipitation run over the kept rows;
// the first five rows keep their raw value.
//
// Errors:
//   - ErrEmptyData: if fewer than two rows are given or every row is dropped
func BuildCropFeatures(rows []CropRow) (*Frame, error) {
	if len(rows) < 2 {
		return nil, errEmpty("BuildCropFeatures")
	}

	annual := annualMeans(rows)
	rel := make([]float64, len(rows))
	lagRel := make([]float64, len(rows))
	for i, r := range rows {
		mean := annual[r.Year()]
		rel[i] = r.Yield / mean
		if i > 0 {
			lagRel[i] = rows[i-1].Yield / mean
		}
	}

	// the first row has no lag
	candidates := make([]int, 0, len(rows)-1)
	for i := 1; i < len(rows); i++ {
		candidates = append(candidates, i)
	}
	zRel := zScores(pick(rel, candidates))
	zLag := zScores(pick(lagRel, candidates))

	kept := make([]int, 0, len(candidates))
	for k, i := range candidates {
		if math.Abs(zRel[k]) < outlierZScore && math.Abs(zLag[k]) < outlierZScore {
			kept = append(kept, i)
		}
	}
	if len(kept) == 0 {
		return nil, agroErrors.NewModelError("BuildCropFeatures", "every row is an outlier", agroErrors.ErrEmptyData)
	}

	temps := make([]float64, len(kept))
	precs := make([]float64, len(kept))
	for k, i := range kept {
		temps[k] = rows[i].Temperature
		precs[k] = rows[i].Precipitation
	}
	tempRolling := rollingMean(temps, rollingWindow)
	precRolling := rollingMean(precs, rollingWindow)

	frame := &Frame{
		Index:      kept,
		X:          mat.NewDense(len(kept), len(CropFeatureNames), nil),
		Y:          mat.NewVecDense(len(kept), nil),
		AnnualMean: mat.NewVecDense(len(kept), nil),
		Names:      CropFeatureNames,
	}
	for k, i := range kept {
		r := rows[i]
		angle := 2 * math.Pi * float64(r.Month) / monthsPerCycle
		frame.X.SetRow(k, []float64{
			math.Cos(angle),
			math.Sin(angle),
			tempRolling[k],
			precRolling[k],
			tempRolling[k] * precRolling[k],
			r.PlantedArea,
		})
		frame.Y.SetVec(k, rel[i])
		frame.AnnualMean.SetVec(k, annual[r.Year()])
	}
	return frame, nil
}

func errEmpty(op string) error {
	return agroErrors.NewModelError(op, "not enough rows", agroErrors.ErrEmptyData)
}

func annualMeans(rows []CropRow) map[int]float64 {
	byYear := make(map[int][]float64)
	for _, r := range rows {
		byYear[r.Year()] = append(byYear[r.Year()], r.Yield)
	}
	means := make(map[int]float64, len(byYear))
	for year, v := range byYear {
		means[year] = stat.Mean(v, nil)
	}
	return means
}

func pick(v []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for k, i := range idx {
		out[k] = v[i]
	}
	return out
}

// zScores standardizes v with the population standard deviation. A constant
// series scores zero everywhere.
func zScores(v []float64) []float64 {
	mean, std := stat.PopMeanStdDev(v, nil)
	out := make([]float64, len(v))
	if std == 0 {
		return out
	}
	for i, x := range v {
		out[i] = (x - mean) / std
	}
	return out
}

// rollingMean averages each value with the window-1 values before it. Rows
// without a full window keep their own value.
func rollingMean(v []float64, window int) []float64 {
	out := make([]float64, len(v))
	for i := range v {
		if i+1 < window {
			out[i] = v[i]
			continue
		}
		out[i] = stat.Mean(v[i+1-window:i+1], nil)
	}
	return out
}
