package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezoic/agrodash/dashboard"
	"github.com/ezoic/agrodash/dataset"
	"github.com/ezoic/agrodash/internal/observability"
	"github.com/ezoic/agrodash/report"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	reg, err := dashboard.NewRegistry(
		dashboard.Crop(report.CropDefault(), dataset.Historical(dataset.DefaultSeed, dataset.Years()), dashboard.CropDefaultYear),
		dashboard.Thermal(report.ThermalDefault(), dataset.ThermalMonthly(dataset.DefaultSeed), 1),
	)
	require.NoError(t, err)
	srv, err := New(Options{
		Registry:   reg,
		Metrics:    observability.NewMetricsForTesting(),
		SessionTTL: time.Hour,
		Clock:      clockwork.NewFakeClockAt(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)),
	})
	require.NoError(t, err)
	return srv
}

// client replays the session cookie across requests.
type client struct {
	t       *testing.T
	srv     *Server
	cookies []*http.Cookie
}

func (c *client) do(req *http.Request) (*http.Response, string) {
	c.t.Helper()
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	resp, err := c.srv.App().Test(req, -1)
	require.NoError(c.t, err)
	if cs := resp.Cookies(); len(cs) > 0 {
		c.cookies = cs
	}
	body, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	return resp, string(body)
}

func (c *client) get(target string) (*http.Response, string) {
	return c.do(httptest.NewRequest(http.MethodGet, target, nil))
}

func (c *client) postForm(target string, form url.Values) (*http.Response, string) {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req)
}

func (c *client) postJSON(target string, v any) (*http.Response, string) {
	b, err := json.Marshal(v)
	require.NoError(c.t, err)
	req := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *client) page(target string) dashboard.Page {
	c.t.Helper()
	resp, body := c.get(target)
	require.Equal(c.t, http.StatusOK, resp.StatusCode, body)
	var p dashboard.Page
	require.NoError(c.t, json.Unmarshal([]byte(body), &p))
	return p
}

func TestNewRequiresDashboards(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
}

func TestHealthAndReadiness(t *testing.T) {
	srv := newTestServer(t)
	c := &client{t: t, srv: srv}

	resp, body := c.get("/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "healthy")

	resp, body = c.get("/readyz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"ready"`)

	srv.draining.Store(true)
	resp, _ = c.get("/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestIndexListsDashboards(t *testing.T) {
	c := &client{t: t, srv: newTestServer(t)}
	resp, body := c.get("/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	assert.Contains(t, body, `href="/dashboards/crop"`)
	assert.Contains(t, body, `href="/dashboards/thermal"`)
}

func TestPageRendersHTML(t *testing.T) {
	c := &client{t: t, srv: newTestServer(t)}
	resp, body := c.get("/dashboards/crop?vw=1280")
	require.Equal(t, http.StatusOK, resp.StatusCode, body)

	assert.Contains(t, body, "ML Model Analytics Dashboard")
	assert.Contains(t, body, "0.9566")
	assert.Contains(t, body, `<option value="2023" selected>`)
	assert.Contains(t, body, "charts/importance.svg?vw=1280&theme=light")
	assert.Contains(t, body, "background-color: #fafafa")
	assert.NotContains(t, body, "ZgotmplZ")
	assert.Contains(t, body, `data-breakpoint="768"`)
	assert.Contains(t, body, `addEventListener("resize"`)
	assert.Contains(t, body, "Gerado em 2024-05-01 12:00:00 UTC")
	require.NotEmpty(t, c.cookies)
	assert.Equal(t, sessionCookie, c.cookies[0].Name)
}

func TestUnknownDashboard(t *testing.T) {
	c := &client{t: t, srv: newTestServer(t)}
	resp, body := c.get("/dashboards/wheat")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body, `"error":true`)

	resp, _ = c.get("/api/dashboards/wheat")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestThemeToggleRedirectsAndPersists(t *testing.T) {
	c := &client{t: t, srv: newTestServer(t)}
	c.get("/dashboards/crop")

	resp, _ := c.postForm("/dashboards/crop/theme", url.Values{"vw": {"400"}})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/dashboards/crop?vw=400", resp.Header.Get("Location"))

	p := c.page("/api/dashboards/crop?vw=400")
	assert.Equal(t, dashboard.Dark, p.Theme)
	assert.Equal(t, "🌙", p.ThemeIcon)
	assert.Equal(t, "mobile", p.Layout)

	// the theme is shared by every dashboard of the session
	assert.Equal(t, dashboard.Dark, c.page("/api/dashboards/thermal").Theme)

	_, body := c.get("/dashboards/crop")
	assert.Contains(t, body, "background-color: #0e1117")
}

func TestFilterSelection(t *testing.T) {
	c := &client{t: t, srv: newTestServer(t)}

	resp, _ := c.postForm("/dashboards/crop/filter", url.Values{"filter": {"1990"}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = c.postForm("/dashboards/crop/filter", url.Values{"filter": {"soon"}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = c.postForm("/dashboards/crop/filter", url.Values{"filter": {"2020"}})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/dashboards/crop", resp.Header.Get("Location"))

	p := c.page("/api/dashboards/crop")
	assert.Equal(t, 2020, p.Filter.Selected)
	assert.Len(t, p.Table.Rows, 12)

	// the thermal dashboard keeps its own filter
	assert.Equal(t, 1, c.page("/api/dashboards/thermal").Filter.Selected)

	_, body := c.get("/dashboards/thermal?filter=7")
	assert.Contains(t, body, `<option value="7" selected>`)
	assert.Equal(t, 7, c.page("/api/dashboards/thermal").Filter.Selected)
}

func TestInvalidQuery(t *testing.T) {
	c := &client{t: t, srv: newTestServer(t)}
	for _, target := range []string{
		"/dashboards/crop?vw=wide",
		"/dashboards/crop?vw=-5",
		"/dashboards/crop?filter=abc",
		"/dashboards/crop?filter=1850",
	} {
		resp, _ := c.get(target)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, target)
	}
}

func TestCharts(t *testing.T) {
	c := &client{t: t, srv: newTestServer(t)}

	resp, body := c.get("/dashboards/crop/charts/importance.svg?vw=1280&theme=dark")
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, "image/svg+xml", resp.Header.Get("Content-Type"))
	assert.Contains(t, body, "<svg")
	assert.Contains(t, body, "Temperatura")

	resp, body = c.get("/dashboards/thermal/charts/predictions.png")
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.True(t, strings.HasPrefix(body, "\x89PNG"))

	resp, _ = c.get("/dashboards/crop/charts/residuals.svg")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = c.get("/dashboards/crop/charts/importance.gif")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = c.get("/dashboards/crop/charts/importance.svg?theme=sepia")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPIList(t *testing.T) {
	c := &client{t: t, srv: newTestServer(t)}
	resp, body := c.get("/api/dashboards")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var list []dashboardSummary
	require.NoError(t, json.Unmarshal([]byte(body), &list))
	require.Len(t, list, 2)
	assert.Equal(t, "crop", list[0].ID)
	assert.InDelta(t, 0.9566, list[0].R2, 1e-9)
	assert.Equal(t, "/dashboards/thermal", list[1].URL)
}

func TestAPIEvents(t *testing.T) {
	c := &client{t: t, srv: newTestServer(t)}

	resp, body := c.postJSON("/api/dashboards/thermal/events", map[string]any{"kind": "toggle_theme"})
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	var p dashboard.Page
	require.NoError(t, json.Unmarshal([]byte(body), &p))
	assert.Equal(t, dashboard.Dark, p.Theme)

	resp, body = c.postJSON("/api/dashboards/thermal/events", map[string]any{"kind": "select_filter", "value": 12, "vw": 375})
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	require.NoError(t, json.Unmarshal([]byte(body), &p))
	assert.Equal(t, 12, p.Filter.Selected)
	assert.Equal(t, "mobile", p.Layout)
	assert.Equal(t, dashboard.Dark, p.Theme)

	resp, _ = c.postJSON("/api/dashboards/thermal/events", map[string]any{"kind": "select_filter", "value": 13})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp, _ = c.postJSON("/api/dashboards/thermal/events", map[string]any{"kind": "zoom"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	c := &client{t: t, srv: newTestServer(t)}
	c.get("/dashboards/crop")
	c.postForm("/dashboards/crop/theme", nil)
	c.get("/dashboards/crop/charts/importance.svg")

	resp, body := c.get("/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `dashboard_page_renders_total{dashboard="crop",layout="desktop"} 1`)
	assert.Contains(t, body, `dashboard_theme_toggles_total{theme="dark"} 1`)
	assert.Contains(t, body, `dashboard_chart_render_seconds_count{chart="importance"} 1`)
	assert.Contains(t, body, "dashboard_http_request_duration_seconds")
}

func TestStatusClass(t *testing.T) {
	assert.Equal(t, "2xx", statusClass(200))
	assert.Equal(t, "3xx", statusClass(303))
	assert.Equal(t, "4xx", statusClass(404))
	assert.Equal(t, "5xx", statusClass(503))
}
