package schema

// Environment identifies the deployment the reported test run targeted.
type Environment string

const (
	EnvProd    Environment = "PROD"
	EnvUAT     Environment = "UAT"
	EnvDev     Environment = "DEV"
	EnvSandbox Environment = "Sandbox"
)

// Site identifies the data-centre location for the run.
type Site string

const (
	SiteLON1A Site = "LON1A"
	SiteLON1B Site = "LON1B"
	SiteNOV1A Site = "NOV1A"
	SiteNOV1B Site = "NOV1B"
	SiteFRA1  Site = "FRA1"
	SiteJHB1A Site = "JHB1A"
)

// DashboardConfig holds the environment metadata for a snapshot. Both fields
// stay unset until the user picks a value; there is no default.
type DashboardConfig struct {
	Environment *Environment `json:"environment,omitempty" validate:"omitempty,oneof=PROD UAT DEV Sandbox"`
	Site        *Site        `json:"site,omitempty" validate:"omitempty,oneof=LON1A LON1B NOV1A NOV1B FRA1 JHB1A"`
}

// TestCaseData is the overall counter group. Fields are independently optional;
// an absent field counts as zero in derived computations, but absent and zero
// are distinct for the cross-field invariant, hence the pointers.
type TestCaseData struct {
	Total   *int `json:"totalTestCases,omitempty" validate:"omitempty,gte=0"`
	Passed  *int `json:"passedTestCases,omitempty" validate:"omitempty,gte=0"`
	Failed  *int `json:"failedTestCases,omitempty" validate:"omitempty,gte=0"`
	Skipped *int `json:"skippedTestCases,omitempty" validate:"omitempty,gte=0"`
}

// WidgetData mirrors TestCaseData for a named sub-count group. Widget counts
// are never validated against each other or against the overall totals.
type WidgetData struct {
	Total   *int `json:"total,omitempty" validate:"omitempty,gte=0"`
	Passed  *int `json:"passed,omitempty" validate:"omitempty,gte=0"`
	Failed  *int `json:"failed,omitempty" validate:"omitempty,gte=0"`
	Skipped *int `json:"skipped,omitempty" validate:"omitempty,gte=0"`
}

// Widgets is the fixed widget-name set. The keys are always present in the
// wire format, as possibly-empty objects, so the struct fields are values.
type Widgets struct {
	Telemetry WidgetData `json:"telemetry"`
	Inbound   WidgetData `json:"inbound"`
	Outbound  WidgetData `json:"outbound"`
}

// Remarks maps the fixed remark slots to free text. All optional.
type Remarks struct {
	Overall   string `json:"overall,omitempty"`
	Telemetry string `json:"telemetry,omitempty"`
	Inbound   string `json:"inbound,omitempty"`
	Outbound  string `json:"outbound,omitempty"`
}

// DashboardState is the aggregate root: everything one named snapshot carries.
type DashboardState struct {
	Config    DashboardConfig `json:"config"`
	TestCases TestCaseData    `json:"testCases"`
	Widgets   Widgets         `json:"widgets"`
	Remarks   Remarks         `json:"remarks"`
}

// Empty returns the state a dashboard starts from: all fields absent, widgets
// present as empty records.
func Empty() DashboardState {
	return DashboardState{}
}

// Int returns a pointer to v, for building optional count fields in place.
func Int(v int) *int {
	return &v
}

// Env returns a pointer to e.
func Env(e Environment) *Environment {
	return &e
}

// SiteOf returns a pointer to s.
func SiteOf(s Site) *Site {
	return &s
}
