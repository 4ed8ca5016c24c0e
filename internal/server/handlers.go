package server

import (
	"bytes"
	"fmt"
	"html/template"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"

	"github.com/ezoic/agrodash/dashboard"
	"github.com/ezoic/agrodash/pkg/log"
	"github.com/ezoic/agrodash/render"
)

var validate = validator.New()

const (
	themeKey     = "theme"
	filterPrefix = "filter:"

	chartImportance  = "importance"
	chartPredictions = "predictions"
)

var templateFuncs = template.FuncMap{
	"css": func(s dashboard.Style) template.CSS { return template.CSS(s.CSS()) },
	"icon": func(name string) string {
		return "fa fa-" + strings.TrimPrefix(name, "fa:")
	},
}

func (s *Server) routes() {
	s.app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy"})
	})
	s.app.Get("/readyz", s.handleReady)
	s.app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(s.metrics.Gatherer(), promhttp.HandlerOpts{})))

	s.app.Get("/", s.handleIndex)

	d := s.app.Group("/dashboards/:id", s.lookupDashboard)
	d.Get("/", s.handlePage)
	d.Post("/theme", s.handleTheme)
	d.Post("/filter", s.handleFilter)
	d.Get("/charts/:chart", s.handleChart)

	api := s.app.Group("/api")
	api.Get("/dashboards", s.handleList)
	a := api.Group("/dashboards/:id", s.lookupDashboard)
	a.Get("/", s.handleAPIPage)
	a.Post("/events", s.handleEvent)
}

// pageQuery holds the query parameters shared by pages and charts.
type pageQuery struct {
	Width  int    `query:"vw" validate:"gte=0,lte=20000"`
	Filter string `query:"filter" validate:"omitempty,numeric"`
}

func parsePageQuery(c *fiber.Ctx) (pageQuery, error) {
	var q pageQuery
	if err := c.QueryParser(&q); err != nil {
		return q, fiber.NewError(fiber.StatusBadRequest, "invalid query: "+err.Error())
	}
	if err := validate.Struct(q); err != nil {
		return q, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return q, nil
}

// eventRequest is the JSON body of POST /api/dashboards/:id/events.
type eventRequest struct {
	Kind  string `json:"kind" validate:"required,oneof=toggle_theme select_filter"`
	Value int    `json:"value"`
	Width int    `json:"vw" validate:"gte=0,lte=20000"`
}

func (s *Server) handleReady(c *fiber.Ctx) error {
	if s.draining.Load() {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "not ready",
			"error":  "shutting down",
		})
	}
	return c.JSON(fiber.Map{"status": "ready"})
}

func (s *Server) lookupDashboard(c *fiber.Ctx) error {
	def, ok := s.dashboards().Get(c.Params("id"))
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, fmt.Sprintf("unknown dashboard %q", c.Params("id")))
	}
	c.Locals("dashboard", def)
	return c.Next()
}

func definition(c *fiber.Ctx) *dashboard.Definition {
	return c.Locals("dashboard").(*dashboard.Definition)
}

// loadSession restores the visitor's dashboard state from the Fiber session.
func (s *Server) loadSession(c *fiber.Ctx) (*session.Session, *dashboard.Session, error) {
	store, err := s.sessions.Get(c)
	if err != nil {
		return nil, nil, err
	}
	sess := dashboard.NewSession()
	if v, ok := store.Get(themeKey).(string); ok {
		if th, err := dashboard.ParseTheme(v); err == nil {
			sess.Theme = th
		}
	}
	for _, def := range s.dashboards().List() {
		if v, ok := store.Get(filterPrefix + def.ID).(int); ok {
			sess.Filters[def.ID] = v
		}
	}
	return store, sess, nil
}

// saveSession writes sess back. store must not be used afterwards.
func saveSession(store *session.Session, sess *dashboard.Session) error {
	store.Set(themeKey, string(sess.Theme))
	for id, v := range sess.Filters {
		store.Set(filterPrefix+id, v)
	}
	return store.Save()
}

type indexData struct {
	Title      string
	Dashboards []*dashboard.Definition
}

func (s *Server) handleIndex(c *fiber.Ctx) error {
	return s.renderHTML(c, "index.html", indexData{
		Title:      "Dashboards",
		Dashboards: s.dashboards().List(),
	})
}

type pageData struct {
	*dashboard.Page
	Width       int
	Breakpoint  int
	GeneratedAt string
}

func (s *Server) handlePage(c *fiber.Ctx) error {
	def := definition(c)
	q, err := parsePageQuery(c)
	if err != nil {
		return err
	}
	store, sess, err := s.loadSession(c)
	if err != nil {
		return err
	}
	if q.Filter != "" {
		v, _ := strconv.Atoi(q.Filter)
		if err := sess.Apply(def, dashboard.Event{Kind: dashboard.SelectFilter, Value: v}); err != nil {
			return err
		}
		s.metrics.FilterChanges.WithLabelValues(def.ID).Inc()
	}
	if err := saveSession(store, sess); err != nil {
		return err
	}

	layout := dashboard.LayoutFor(q.Width, s.breakpoint)
	page := dashboard.View(def, sess, layout)
	s.metrics.PageRenders.WithLabelValues(def.ID, layout.String()).Inc()

	return s.renderHTML(c, "page.html", pageData{
		Page:        page,
		Width:       q.Width,
		Breakpoint:  s.breakpoint,
		GeneratedAt: s.clock.Now().UTC().Format("2006-01-02 15:04:05 MST"),
	})
}

func (s *Server) handleTheme(c *fiber.Ctx) error {
	def := definition(c)
	store, sess, err := s.loadSession(c)
	if err != nil {
		return err
	}
	if err := sess.Apply(def, dashboard.Event{Kind: dashboard.ToggleTheme}); err != nil {
		return err
	}
	if err := saveSession(store, sess); err != nil {
		return err
	}
	s.metrics.ThemeToggles.WithLabelValues(string(sess.Theme)).Inc()
	return c.Redirect(pageURL(def.ID, c.FormValue("vw")), fiber.StatusSeeOther)
}

func (s *Server) handleFilter(c *fiber.Ctx) error {
	def := definition(c)
	v, err := strconv.Atoi(c.FormValue("filter"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "filter must be a number")
	}
	store, sess, err := s.loadSession(c)
	if err != nil {
		return err
	}
	if err := sess.Apply(def, dashboard.Event{Kind: dashboard.SelectFilter, Value: v}); err != nil {
		return err
	}
	if err := saveSession(store, sess); err != nil {
		return err
	}
	s.metrics.FilterChanges.WithLabelValues(def.ID).Inc()
	return c.Redirect(pageURL(def.ID, c.FormValue("vw")), fiber.StatusSeeOther)
}

func pageURL(id, width string) string {
	u := "/dashboards/" + url.PathEscape(id)
	if n, err := strconv.Atoi(width); err == nil && n > 0 {
		u += "?vw=" + strconv.Itoa(n)
	}
	return u
}

// handleChart draws one of the page's figures, e.g. importance.svg or
// predictions.png, in the visitor's theme and layout.
func (s *Server) handleChart(c *fiber.Ctx) error {
	def := definition(c)
	q, err := parsePageQuery(c)
	if err != nil {
		return err
	}
	file := c.Params("chart")
	format := strings.TrimPrefix(path.Ext(file), ".")
	name := strings.TrimSuffix(file, path.Ext(file))
	if format != render.FormatSVG && format != render.FormatPNG {
		return fiber.NewError(fiber.StatusNotFound, "unknown chart format")
	}

	theme := dashboard.Light
	if t := c.Query("theme"); t != "" {
		if theme, err = dashboard.ParseTheme(t); err != nil {
			return err
		}
	} else {
		store, sess, err := s.loadSession(c)
		if err != nil {
			return err
		}
		theme = sess.Theme
		_ = store.Save()
	}

	start := s.clock.Now()
	var p *plot.Plot
	switch name {
	case chartImportance:
		p, err = render.ImportanceChart(dashboard.ImportanceFigure(def, theme))
	case chartPredictions:
		p, err = render.PredictionChart(dashboard.PredictionFigure(def, theme))
	default:
		return fiber.NewError(fiber.StatusNotFound, fmt.Sprintf("unknown chart %q", name))
	}
	if err != nil {
		return err
	}

	layout := dashboard.LayoutFor(q.Width, s.breakpoint)
	var buf bytes.Buffer
	w, h := vg.Points(float64(layout.ChartWidth())), vg.Points(float64(layout.ChartHeight()))
	if err := render.Write(&buf, p, w, h, format); err != nil {
		return err
	}
	elapsed := s.clock.Since(start)
	s.metrics.ChartRender.WithLabelValues(name).Observe(elapsed.Seconds())
	s.logger.Debug("Chart rendered",
		log.DashboardKey, def.ID,
		log.OperationKey, log.OperationRender,
		log.ThemeKey, theme,
		"chart", file,
		log.DurationMsKey, elapsed.Milliseconds(),
	)

	if format == render.FormatSVG {
		c.Set(fiber.HeaderContentType, "image/svg+xml")
	} else {
		c.Set(fiber.HeaderContentType, "image/png")
	}
	c.Set(fiber.HeaderCacheControl, "no-cache")
	return c.Send(buf.Bytes())
}

type dashboardSummary struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Subtitle  string  `json:"subtitle"`
	ModelName string  `json:"model_name"`
	R2        float64 `json:"r2"`
	MAPE      float64 `json:"mape"`
	URL       string  `json:"url"`
}

func (s *Server) handleList(c *fiber.Ctx) error {
	defs := s.dashboards().List()
	out := make([]dashboardSummary, len(defs))
	for i, d := range defs {
		out[i] = dashboardSummary{
			ID:        d.ID,
			Title:     d.AppTitle,
			Subtitle:  d.Subtitle,
			ModelName: d.ModelName,
			R2:        d.Report.R2,
			MAPE:      d.Report.MAPE,
			URL:       pageURL(d.ID, ""),
		}
	}
	return c.JSON(out)
}

func (s *Server) handleAPIPage(c *fiber.Ctx) error {
	def := definition(c)
	q, err := parsePageQuery(c)
	if err != nil {
		return err
	}
	store, sess, err := s.loadSession(c)
	if err != nil {
		return err
	}
	if err := saveSession(store, sess); err != nil {
		return err
	}
	return c.JSON(dashboard.View(def, sess, dashboard.LayoutFor(q.Width, s.breakpoint)))
}

// handleEvent applies one interaction and answers with the updated page.
func (s *Server) handleEvent(c *fiber.Ctx) error {
	def := definition(c)
	var req eventRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body: "+err.Error())
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	store, sess, err := s.loadSession(c)
	if err != nil {
		return err
	}
	ev := dashboard.Event{Kind: dashboard.EventKind(req.Kind), Value: req.Value}
	if err := sess.Apply(def, ev); err != nil {
		return err
	}
	if err := saveSession(store, sess); err != nil {
		return err
	}
	switch ev.Kind {
	case dashboard.ToggleTheme:
		s.metrics.ThemeToggles.WithLabelValues(string(sess.Theme)).Inc()
	case dashboard.SelectFilter:
		s.metrics.FilterChanges.WithLabelValues(def.ID).Inc()
	}
	return c.JSON(dashboard.View(def, sess, dashboard.LayoutFor(req.Width, s.breakpoint)))
}

func (s *Server) renderHTML(c *fiber.Ctx, name string, data any) error {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Send(buf.Bytes())
}
