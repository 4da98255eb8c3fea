package dashboard

import (
	"strconv"
	"strings"

	"github.com/reportkit/dashboard/internal/schema"
)

// ConfigField names one editable config slot.
type ConfigField string

const (
	ConfigEnvironment ConfigField = "environment"
	ConfigSite        ConfigField = "site"
)

// CountField names one editable counter slot within a counter group.
type CountField string

const (
	FieldTotal   CountField = "total"
	FieldPassed  CountField = "passed"
	FieldFailed  CountField = "failed"
	FieldSkipped CountField = "skipped"
)

// WidgetName names one of the fixed sub-count groups.
type WidgetName string

const (
	WidgetTelemetry WidgetName = "telemetry"
	WidgetInbound   WidgetName = "inbound"
	WidgetOutbound  WidgetName = "outbound"
)

// RemarkSlot names one free-text target.
type RemarkSlot string

const (
	RemarkOverall   RemarkSlot = "overall"
	RemarkTelemetry RemarkSlot = "telemetry"
	RemarkInbound   RemarkSlot = "inbound"
	RemarkOutbound  RemarkSlot = "outbound"
)

// Controller owns the mutable state of one dashboard session: config
// selections, raw counts, per-widget counts, remarks and the session comment
// list. Every operation is a pure state transition, no I/O; persistence and
// export are separate explicit actions the caller runs against State().
type Controller struct {
	state    schema.DashboardState
	errors   []string
	comments []Comment
}

func NewController() *Controller {
	return &Controller{state: schema.Empty()}
}

// State returns a copy of the current dashboard state.
func (c *Controller) State() schema.DashboardState {
	return c.state
}

// Errors returns the live validation messages for the current state.
func (c *Controller) Errors() []string {
	return append([]string(nil), c.errors...)
}

// Valid reports whether the live check passes. Export never blocks on this.
func (c *Controller) Valid() bool {
	return len(c.errors) == 0
}

// SetConfig overwrites exactly one config field, leaving the other untouched.
func (c *Controller) SetConfig(field ConfigField, value string) {
	switch field {
	case ConfigEnvironment:
		env := schema.Environment(value)
		c.state.Config.Environment = &env
	case ConfigSite:
		site := schema.Site(value)
		c.state.Config.Site = &site
	}
}

// SetTestCase coerces raw into one overall counter and re-runs the live
// validation over the four overall numbers.
func (c *Controller) SetTestCase(field CountField, raw string) {
	v := coerceCount(raw)
	switch field {
	case FieldTotal:
		c.state.TestCases.Total = &v
	case FieldPassed:
		c.state.TestCases.Passed = &v
	case FieldFailed:
		c.state.TestCases.Failed = &v
	case FieldSkipped:
		c.state.TestCases.Skipped = &v
	default:
		return
	}
	c.revalidate()
}

// SetWidgetField coerces raw into one field of one widget. Other widgets and
// the widget's other fields stay untouched; widget counts never feed the
// cross-field check.
func (c *Controller) SetWidgetField(widget WidgetName, field CountField, raw string) {
	w := c.widget(widget)
	if w == nil {
		return
	}
	v := coerceCount(raw)
	switch field {
	case FieldTotal:
		w.Total = &v
	case FieldPassed:
		w.Passed = &v
	case FieldFailed:
		w.Failed = &v
	case FieldSkipped:
		w.Skipped = &v
	}
}

// SetRemark overwrites exactly one remark slot with the raw text. No trimming,
// no length limit.
func (c *Controller) SetRemark(slot RemarkSlot, text string) {
	switch slot {
	case RemarkOverall:
		c.state.Remarks.Overall = text
	case RemarkTelemetry:
		c.state.Remarks.Telemetry = text
	case RemarkInbound:
		c.state.Remarks.Inbound = text
	case RemarkOutbound:
		c.state.Remarks.Outbound = text
	}
}

// Reset replaces the entire state with the empty one and clears the validation
// error list and session comments. Absorbing: a second reset changes nothing.
func (c *Controller) Reset() {
	c.state = schema.Empty()
	c.errors = nil
	c.comments = nil
}

func (c *Controller) widget(name WidgetName) *schema.WidgetData {
	switch name {
	case WidgetTelemetry:
		return &c.state.Widgets.Telemetry
	case WidgetInbound:
		return &c.state.Widgets.Inbound
	case WidgetOutbound:
		return &c.state.Widgets.Outbound
	}
	return nil
}

// revalidate re-runs the shared cross-field check over the live counter group
// and replaces the held error list wholesale, so an error from a previous
// invalid state never lingers once the condition clears.
func (c *Controller) revalidate() {
	var errs []string
	if err := schema.CheckTestCaseTotals(c.state.TestCases); err != nil {
		errs = append(errs, err.Error())
	}
	c.errors = errs
}

// coerceCount parses raw as an integer, substituting 0 for anything the parser
// rejects (empty, non-numeric). No clamping beyond what the parser itself
// does; range rules belong to the boundary validation.
func coerceCount(raw string) int {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0
	}
	return v
}
