package report

// CropDefault is the soybean productivity report shown when no trainer
// output is configured.
func CropDefault() *ModelReport {
	return &ModelReport{
		Name:      "crop",
		Algorithm: "Random Forest",
		R2:        0.9566,
		MAPE:      4.58,
		Params: map[string]interface{}{
			"n_estimators":      4000,
			"min_samples_split": 2,
			"min_samples_leaf":  1,
			"max_features":      "sqrt",
			"max_depth":         35,
		},
		Features: []FeatureImportance{
			{Name: "Mês", Weight: 0.15},
			{Name: "Temperatura", Weight: 0.30},
			{Name: "Precipitação", Weight: 0.25},
			{Name: "Área Plantada", Weight: 0.20},
			{Name: "Área Colhida", Weight: 0.10},
		},
		YTest: []float64{
			3100, 1900, 3250, 1500, 2800, 3300, 2000, 1800,
			3150, 3000, 1450, 1950, 3200, 2750, 1550,
		},
		YPred: []float64{
			3050, 1950, 3200, 1520, 2750, 3280, 2030, 1810,
			3100, 2950, 1480, 1920, 3180, 2700, 1530,
		},
	}
}

// ThermalDefault is the thermal sensation report shown when no trainer
// output is configured.
func ThermalDefault() *ModelReport {
	return &ModelReport{
		Name:      "thermal",
		Algorithm: "Regressão Linear",
		R2:        0.9412,
		MAPE:      2.87,
		Params: map[string]interface{}{
			"fit_intercept": true,
			"scaler":        "StandardScaler",
		},
		Features: []FeatureImportance{
			{Name: "Temperatura", Weight: 0.62},
			{Name: "Umidade", Weight: 0.27},
			{Name: "Vento", Weight: 0.11},
		},
		YTest: []float64{
			27.4, 31.2, 22.8, 35.1, 29.6, 24.3, 33.8, 26.1,
			30.4, 21.7, 28.9, 34.2, 25.5, 32.6, 23.9,
		},
		YPred: []float64{
			27.9, 30.5, 23.4, 34.2, 29.1, 24.9, 33.1, 26.8,
			30.9, 22.5, 28.3, 33.6, 25.1, 31.8, 24.6,
		},
	}
}
