package dashboard

import (
	agroErrors "github.com/ezoic/agrodash/pkg/errors"
	"github.com/ezoic/agrodash/pkg/log"
)

// EventKind names a user interaction.
type EventKind string

// Event kinds.
const (
	ToggleTheme  EventKind = "toggle_theme"
	SelectFilter EventKind = "select_filter"
)

// Event is a user interaction applied to a Session. Value is the selected
// year or month for SelectFilter.
type Event struct {
	Kind  EventKind
	Value int
}

// Session is the mutable state of one visitor: the theme, shared across
// dashboards, and the filter chosen on each dashboard.
type Session struct {
	Theme   Theme          `json:"theme"`
	Filters map[string]int `json:"filters"`
}

// NewSession starts in the light theme with no filters chosen.
func NewSession() *Session {
	return &Session{Theme: Light, Filters: map[string]int{}}
}

// Filter returns the value selected on def, or its default.
func (s *Session) Filter(def *Definition) int {
	if v, ok := s.Filters[def.ID]; ok && def.HasOption(v) {
		return v
	}
	return def.Default
}

// Apply updates the session for an event on def. A filter value that is not
// one of def's options is rejected and leaves the session unchanged.
func (s *Session) Apply(def *Definition, ev Event) error {
	logger := log.GetLoggerWithName("dashboard").With(log.DashboardKey, def.ID)
	switch ev.Kind {
	case ToggleTheme:
		s.Theme = s.Theme.Toggle()
		logger.Debug("Theme toggled", log.ThemeKey, s.Theme)
	case SelectFilter:
		if !def.HasOption(ev.Value) {
			return agroErrors.NewValidationError(string(def.FilterKind), "not an available option", ev.Value)
		}
		if s.Filters == nil {
			s.Filters = map[string]int{}
		}
		s.Filters[def.ID] = ev.Value
		logger.Debug("Filter selected", string(def.FilterKind), ev.Value)
	default:
		return agroErrors.NewValidationError("event", "unknown event", ev.Kind)
	}
	return nil
}
