// Package scheduler runs the dashboard server's periodic jobs.
package scheduler

import (
	"time"

	"github.com/go-co-op/gocron"

	"github.com/ezoic/agrodash/dashboard"
	"github.com/ezoic/agrodash/internal/observability"
	"github.com/ezoic/agrodash/pkg/log"
)

// BuildFunc assembles a fresh registry, typically from report files the
// trainer rewrites.
type BuildFunc func() (*dashboard.Registry, error)

// SwapFunc installs a registry in the running server.
type SwapFunc func(*dashboard.Registry)

// Reloader periodically rebuilds the dashboard registry and swaps it into the
// server. A failed build keeps the registry currently served.
type Reloader struct {
	scheduler *gocron.Scheduler
	build     BuildFunc
	swap      SwapFunc
	metrics   *observability.Metrics
	interval  time.Duration
	logger    log.Logger
}

// New creates a Reloader. metrics may be nil.
func New(interval time.Duration, build BuildFunc, swap SwapFunc, metrics *observability.Metrics) *Reloader {
	return &Reloader{
		scheduler: gocron.NewScheduler(time.UTC),
		build:     build,
		swap:      swap,
		metrics:   metrics,
		interval:  interval,
		logger:    log.GetLoggerWithName("scheduler"),
	}
}

// Start schedules the reload job. A non-positive interval schedules nothing.
func (r *Reloader) Start() error {
	if r.interval <= 0 {
		r.logger.Info("Report reloading disabled")
		return nil
	}

	_, err := r.scheduler.Every(r.interval).SingletonMode().WaitForSchedule().Do(func() {
		_ = r.Reload()
	})
	if err != nil {
		return err
	}
	r.scheduler.StartAsync()
	r.logger.Info("Report reloading scheduled", "interval", r.interval.String())
	return nil
}

// Reload rebuilds the registry once and swaps it in on success.
func (r *Reloader) Reload() error {
	reg, err := r.build()
	if err != nil {
		r.logger.Warn("Report reload failed, keeping current dashboards", "error", err)
		r.count("error")
		return err
	}
	r.swap(reg)
	r.logger.Debug("Reports reloaded", "dashboards", len(reg.List()))
	r.count("ok")
	return nil
}

// Jobs returns the number of scheduled jobs.
func (r *Reloader) Jobs() int { return r.scheduler.Len() }

// Stop cancels future reloads.
func (r *Reloader) Stop() { r.scheduler.Stop() }

func (r *Reloader) count(result string) {
	if r.metrics != nil {
		r.metrics.ReportReloads.WithLabelValues(result).Inc()
	}
}
