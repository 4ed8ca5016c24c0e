package dashboard

// DefaultBreakpoint is the viewport width in CSS pixels below which pages
// switch to the mobile layout.
const DefaultBreakpoint = 768

// Layout is the responsive arrangement of a page.
type Layout int

// Layouts.
const (
	Desktop Layout = iota
	Mobile
)

// LayoutFor picks Mobile for widths below breakpoint. A width of zero means
// the client did not report one and selects Desktop.
func LayoutFor(width, breakpoint int) Layout {
	if breakpoint <= 0 {
		breakpoint = DefaultBreakpoint
	}
	if width > 0 && width < breakpoint {
		return Mobile
	}
	return Desktop
}

func (l Layout) String() string {
	if l == Mobile {
		return "mobile"
	}
	return "desktop"
}

// Columns is the number of chart and metric columns per row.
func (l Layout) Columns() int {
	if l == Mobile {
		return 1
	}
	return 2
}

// ChartHeight is the rendered chart height in pixels.
func (l Layout) ChartHeight() int {
	if l == Mobile {
		return 320
	}
	return 400
}

// ChartWidth is the rendered chart width in pixels.
func (l Layout) ChartWidth() int {
	if l == Mobile {
		return 360
	}
	return 600
}

// TitleClass is the CSS class of the page heading.
func (l Layout) TitleClass() string {
	if l == Mobile {
		return "h2"
	}
	return "display-3"
}
