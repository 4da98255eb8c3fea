package export

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/reportkit/dashboard/internal/dashboard"
	"github.com/reportkit/dashboard/internal/schema"
)

// Section geometry in logical pixels, before export scaling.
const (
	baseWidth     = 620
	pad           = 20
	headerHeight  = 64
	legendHeight  = 30
	donutSize     = 240
	widgetDonut   = 180
	lineHeight    = 18
	headingHeight = 26

	// Passed/Failed/Skipped lines plus the parts total.
	breakdownLines = 4
)

// Layout is the off-screen export representation of one dashboard state. It
// stays concealed between exports; the orchestrator reveals it only for the
// duration of a raster pass.
type Layout struct {
	State       schema.DashboardState
	Comments    []dashboard.Comment
	GeneratedAt time.Time

	visible atomic.Bool
}

func NewLayout(state schema.DashboardState, comments []dashboard.Comment, generatedAt time.Time) *Layout {
	return &Layout{
		State:       state,
		Comments:    comments,
		GeneratedAt: generatedAt,
	}
}

func (l *Layout) Reveal() {
	l.visible.Store(true)
}

func (l *Layout) Conceal() {
	l.visible.Store(false)
}

func (l *Layout) Visible() bool {
	return l.visible.Load()
}

// NaturalSize is the layout's logical pixel dimensions before scaling.
func (l *Layout) NaturalSize() (int, int) {
	h := pad + headerHeight + legendHeight
	h += donutSize + breakdownLines*lineHeight
	for range l.widgets() {
		h += headingHeight + widgetDonut + lineHeight
	}
	if lines := l.remarkLines(); len(lines) > 0 {
		h += headingHeight + len(lines)*lineHeight
	}
	if len(l.Comments) > 0 {
		h += headingHeight
		for _, c := range l.Comments {
			n := 1
			if c.Title != "" {
				n = 2
			}
			h += n * lineHeight
		}
	}
	h += pad
	return baseWidth, h
}

func (l *Layout) headerLine() string {
	env := "NoEnv"
	if l.State.Config.Environment != nil {
		env = string(*l.State.Config.Environment)
	}
	site := "NoSite"
	if l.State.Config.Site != nil {
		site = string(*l.State.Config.Site)
	}
	return fmt.Sprintf("%s / %s / %s", env, site, l.GeneratedAt.UTC().Format("2006-01-02"))
}

type widgetSection struct {
	Name string
	Data schema.WidgetData
}

// widgets returns the widget sections in fixed display order.
func (l *Layout) widgets() []widgetSection {
	return []widgetSection{
		{Name: "Telemetry", Data: l.State.Widgets.Telemetry},
		{Name: "Inbound", Data: l.State.Widgets.Inbound},
		{Name: "Outbound", Data: l.State.Widgets.Outbound},
	}
}

// remarkLines returns the non-empty remark slots as "slot: text" lines.
func (l *Layout) remarkLines() []string {
	var lines []string
	for _, s := range []struct{ name, text string }{
		{"Overall", l.State.Remarks.Overall},
		{"Telemetry", l.State.Remarks.Telemetry},
		{"Inbound", l.State.Remarks.Inbound},
		{"Outbound", l.State.Remarks.Outbound},
	} {
		if strings.TrimSpace(s.text) == "" {
			continue
		}
		lines = append(lines, s.name+": "+s.text)
	}
	return lines
}
