package scheduler

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezoic/agrodash/dashboard"
	"github.com/ezoic/agrodash/dataset"
	"github.com/ezoic/agrodash/internal/observability"
	"github.com/ezoic/agrodash/report"
)

func registry(t *testing.T) *dashboard.Registry {
	t.Helper()
	reg, err := dashboard.NewRegistry(dashboard.Thermal(report.ThermalDefault(), dataset.ThermalMonthly(dataset.DefaultSeed), 1))
	require.NoError(t, err)
	return reg
}

func TestReloadSwapsOnSuccess(t *testing.T) {
	m := observability.NewMetricsForTesting()
	want := registry(t)
	var got *dashboard.Registry

	r := New(time.Minute, func() (*dashboard.Registry, error) { return want, nil },
		func(reg *dashboard.Registry) { got = reg }, m)

	require.NoError(t, r.Reload())
	assert.Same(t, want, got)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReportReloads.WithLabelValues("ok")))
}

func TestReloadKeepsCurrentOnFailure(t *testing.T) {
	m := observability.NewMetricsForTesting()
	swapped := false

	r := New(time.Minute, func() (*dashboard.Registry, error) { return nil, errors.New("bad report") },
		func(*dashboard.Registry) { swapped = true }, m)

	assert.EqualError(t, r.Reload(), "bad report")
	assert.False(t, swapped)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReportReloads.WithLabelValues("error")))
}

func TestStartDisabled(t *testing.T) {
	r := New(0, nil, nil, nil)
	require.NoError(t, r.Start())
	assert.Equal(t, 0, r.Jobs())
	r.Stop()
}

func TestStartSchedulesJob(t *testing.T) {
	calls := 0
	r := New(time.Hour, func() (*dashboard.Registry, error) {
		calls++
		return nil, errors.New("unused")
	}, func(*dashboard.Registry) {}, nil)

	require.NoError(t, r.Start())
	defer r.Stop()
	assert.Equal(t, 1, r.Jobs())
	assert.Equal(t, 0, calls, "first run waits for the interval")
}
