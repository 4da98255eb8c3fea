package charts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/reportkit/dashboard/internal/schema"
)

func TestNewBreakdownOrderAndDefaults(t *testing.T) {
	b := NewBreakdown(schema.Int(7), nil, schema.Int(2))

	assert.Equal(t, Breakdown{
		{Label: "Passed", Value: 7},
		{Label: "Failed", Value: 0},
		{Label: "Skipped", Value: 2},
	}, b)
}

func TestBreakdownIgnoresTotalField(t *testing.T) {
	// The user-entered total never feeds proportions; only the parts do.
	tc := schema.TestCaseData{
		Total:  schema.Int(9999),
		Passed: schema.Int(1),
	}
	b := FromTestCases(tc)
	assert.Equal(t, 1, b.Total())
}

func TestBreakdownHasData(t *testing.T) {
	assert.False(t, NewBreakdown(nil, nil, nil).HasData())
	assert.False(t, NewBreakdown(schema.Int(0), schema.Int(0), schema.Int(0)).HasData())
	assert.True(t, NewBreakdown(nil, schema.Int(1), nil).HasData())
}

func TestFromWidget(t *testing.T) {
	w := schema.WidgetData{Passed: schema.Int(3), Skipped: schema.Int(1)}
	b := FromWidget(w)
	assert.Equal(t, 4, b.Total())
	assert.True(t, b.HasData())
}

func TestDistributionPieDropsZeroSegments(t *testing.T) {
	g := NewGenerator()
	html := g.DistributionPie("Overall", NewBreakdown(schema.Int(5), schema.Int(0), schema.Int(2)))

	assert.Contains(t, html, "Passed")
	assert.Contains(t, html, "Skipped")
	assert.NotContains(t, html, "Failed")
	assert.Contains(t, html, "Total: 7")
}

func TestDistributionPieSegmentColors(t *testing.T) {
	g := NewGenerator()
	html := g.DistributionPie("Overall", NewBreakdown(schema.Int(5), schema.Int(3), schema.Int(2)))

	for _, color := range []string{"#2f9e44", "#e03131", "#868e96"} {
		assert.True(t, strings.Contains(html, color), "expected color %s in chart output", color)
	}
}
