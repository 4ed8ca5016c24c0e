package main

import (
	"github.com/ezoic/agrodash/dashboard"
	"github.com/ezoic/agrodash/dataset"
	"github.com/ezoic/agrodash/internal/config"
	"github.com/ezoic/agrodash/report"
)

// buildRegistry assembles the crop and thermal dashboards. Reports come from
// the configured trainer output, or the built-in figures when unset.
func buildRegistry(cfg *config.Config) (*dashboard.Registry, error) {
	crop, err := loadReport(cfg.CropReportPath, report.CropDefault)
	if err != nil {
		return nil, err
	}
	thermal, err := loadReport(cfg.ThermalReportPath, report.ThermalDefault)
	if err != nil {
		return nil, err
	}

	return dashboard.NewRegistry(
		dashboard.Crop(crop, dataset.Historical(cfg.DataSeed, dataset.Years()), cfg.DefaultYear),
		dashboard.Thermal(thermal, dataset.ThermalMonthly(cfg.DataSeed), cfg.DefaultMonth),
	)
}

func loadReport(path string, fallback func() *report.ModelReport) (*report.ModelReport, error) {
	if path == "" {
		return fallback(), nil
	}
	return report.Load(path)
}
