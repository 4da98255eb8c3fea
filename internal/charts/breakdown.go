package charts

import "github.com/reportkit/dashboard/internal/schema"

// Slice is one labelled segment of a distribution chart.
type Slice struct {
	Label string
	Value int
}

// Breakdown is the chart-ready three-way split of a counter group, always in
// Passed/Failed/Skipped order. The user-entered total field never participates
// in proportions; it is display-only.
type Breakdown []Slice

// NewBreakdown derives a breakdown from raw counts, treating absent fields
// as zero.
func NewBreakdown(passed, failed, skipped *int) Breakdown {
	return Breakdown{
		{Label: "Passed", Value: count(passed)},
		{Label: "Failed", Value: count(failed)},
		{Label: "Skipped", Value: count(skipped)},
	}
}

// FromTestCases derives the overall breakdown.
func FromTestCases(tc schema.TestCaseData) Breakdown {
	return NewBreakdown(tc.Passed, tc.Failed, tc.Skipped)
}

// FromWidget derives one widget's breakdown.
func FromWidget(w schema.WidgetData) Breakdown {
	return NewBreakdown(w.Passed, w.Failed, w.Skipped)
}

// HasData reports whether any segment is non-zero. Renderers are expected to
// show a placeholder instead of a chart when false.
func (b Breakdown) HasData() bool {
	for _, s := range b {
		if s.Value > 0 {
			return true
		}
	}
	return false
}

// Total is the sum of the three parts, used for centre-label display. It is
// distinct from the user-entered total field.
func (b Breakdown) Total() int {
	var sum int
	for _, s := range b {
		sum += s.Value
	}
	return sum
}

func count(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
