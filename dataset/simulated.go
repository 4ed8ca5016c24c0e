package dataset

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// DefaultSeed seeds the simulated series shown on the dashboards.
const DefaultSeed = 42

// MonthNames are the Portuguese month labels used in tables and filters.
var MonthNames = [12]string{
	"Janeiro", "Fevereiro", "Março", "Abril", "Maio", "Junho",
	"Julho", "Agosto", "Setembro", "Outubro", "Novembro", "Dezembro",
}

// Years returns the years covered by the historical crop table.
func Years() []int {
	return yearRange(2018, 2025)
}

// ThermalYears returns the years covered by the thermal series.
func ThermalYears() []int {
	return yearRange(2019, 2024)
}

func yearRange(from, to int) []int {
	years := make([]int, 0, to-from+1)
	for y := from; y <= to; y++ {
		years = append(years, y)
	}
	return years
}

// HistoricalRow is one simulated month of the crop dashboard table.
type HistoricalRow struct {
	Year          int
	Month         int // 1..12
	MonthName     string
	Temperature   float64
	Precipitation float64
	PlantedArea   float64
	HarvestedArea float64
	Production    float64
}

// gaussian draws N(mu, sigma) samples from a shared source.
type gaussian struct {
	src rand.Source
}

func (g gaussian) draw(mu, sigma float64) float64 {
	return distuv.Normal{Mu: mu, Sigma: sigma, Src: g.src}.Rand()
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}

// Historical simulates twelve months per year with a seasonal signal plus
// Gaussian noise. The same seed and years always produce the same rows.
func Historical(seed uint64, years []int) []HistoricalRow {
	g := gaussian{src: rand.NewPCG(seed, 0)}
	rows := make([]HistoricalRow, 0, len(years)*12)
	for _, year := range years {
		for m := 1; m <= 12; m++ {
			phase := 2 * math.Pi * float64(m) / 12
			tempBase := 25 + 5*math.Sin(phase)
			precipBase := 150 + 100*math.Sin(2*math.Pi*float64(m+3)/12)

			rows = append(rows, HistoricalRow{
				Year:          year,
				Month:         m,
				MonthName:     MonthNames[m-1],
				Temperature:   round1(g.draw(tempBase, 3)),
				Precipitation: round1(math.Max(0, g.draw(precipBase, 30))),
				PlantedArea:   math.Round(g.draw(1000, 200)),
				HarvestedArea: math.Round(g.draw(950, 180)),
				Production:    math.Round(g.draw(2500+500*math.Sin(phase), 300)),
			})
		}
	}
	return rows
}

// ThermalRow is one simulated month of thermal-comfort measurements.
type ThermalRow struct {
	Year        int
	Month       int // 1..12
	MonthName   string
	Temperature float64 // °C
	Humidity    float64 // relative humidity, %
	WindSpeed   float64 // m/s
	Sensation   float64 // apparent temperature, °C
}

// ThermalFeatureNames are the column identifiers of the thermal model.
var ThermalFeatureNames = []string{"temperatura", "umidade", "vento"}

// ThermalFeatureLabels are the chart labels for ThermalFeatureNames.
var ThermalFeatureLabels = []string{
	"Temperatura (°C)",
	"Umidade Relativa (%)",
	"Velocidade do Vento (m/s)",
}

// ThermalMonthly simulates monthly temperature, humidity and wind for
// ThermalYears and derives the apparent temperature from them.
func ThermalMonthly(seed uint64) []ThermalRow {
	g := gaussian{src: rand.NewPCG(seed, 1)}
	years := ThermalYears()
	rows := make([]ThermalRow, 0, len(years)*12)
	for _, year := range years {
		for m := 1; m <= 12; m++ {
			phase := 2 * math.Pi * float64(m) / 12
			temp := round1(g.draw(24+6*math.Cos(phase), 2))
			humidity := round1(math.Min(100, math.Max(20, g.draw(72+12*math.Sin(phase), 8))))
			wind := round1(math.Max(0, g.draw(3, 1.2)))

			rows = append(rows, ThermalRow{
				Year:        year,
				Month:       m,
				MonthName:   MonthNames[m-1],
				Temperature: temp,
				Humidity:    humidity,
				WindSpeed:   wind,
				Sensation:   round1(ApparentTemperature(temp, humidity, wind) + g.draw(0, 0.5)),
			})
		}
	}
	return rows
}

// ApparentTemperature is Steadman's apparent temperature for shade:
// AT = T + 0.33e - 0.70ws - 4.00, with e the water vapour pressure in hPa.
func ApparentTemperature(temp, humidity, wind float64) float64 {
	e := humidity / 100 * 6.105 * math.Exp(17.27*temp/(237.7+temp))
	return temp + 0.33*e - 0.70*wind - 4.00
}

// ThermalFeatures builds X = [temperature, humidity, wind] and y = sensation.
// AnnualMean is nil; thermal targets are already on their real scale.
func ThermalFeatures(rows []ThermalRow) (*Frame, error) {
	if len(rows) == 0 {
		return nil, errEmpty("ThermalFeatures")
	}
	frame := &Frame{
		Index: make([]int, len(rows)),
		X:     mat.NewDense(len(rows), len(ThermalFeatureNames), nil),
		Y:     mat.NewVecDense(len(rows), nil),
		Names: ThermalFeatureNames,
	}
	for i, r := range rows {
		frame.Index[i] = i
		frame.X.SetRow(i, []float64{r.Temperature, r.Humidity, r.WindSpeed})
		frame.Y.SetVec(i, r.Sensation)
	}
	return frame, nil
}
