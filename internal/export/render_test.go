package export

import (
	"context"
	"image/color"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reportkit/dashboard/internal/dashboard"
	"github.com/reportkit/dashboard/internal/schema"
)

func TestChartRasterizerRequiresVisibleLayout(t *testing.T) {
	cr := NewChartRasterizer()
	l := NewLayout(schema.Empty(), nil, time.Now())

	_, err := cr.Rasterize(context.Background(), l, Options{Scale: 1, Width: baseWidth, Height: 400})
	assert.ErrorIs(t, err, ErrLayoutHidden)
}

func TestChartRasterizerScalesCanvas(t *testing.T) {
	s := schema.Empty()
	s.TestCases = schema.TestCaseData{
		Passed:  schema.Int(6),
		Failed:  schema.Int(3),
		Skipped: schema.Int(1),
	}
	s.Widgets.Telemetry.Passed = schema.Int(4)
	s.Remarks.Overall = "steady"

	l := NewLayout(s, []dashboard.Comment{{ID: "1", Title: "note", Content: "retest auth"}}, time.Now())
	l.Reveal()
	defer l.Conceal()

	w, h := l.NaturalSize()
	cr := NewChartRasterizer()

	img, err := cr.Rasterize(context.Background(), l, Options{
		Scale:      2,
		Background: color.White,
		Width:      w,
		Height:     h,
	})
	require.NoError(t, err)
	assert.Equal(t, 2*w, img.Bounds().Dx())
	assert.Equal(t, 2*h, img.Bounds().Dy())
}

func TestChartRasterizerEmptyStateStillRenders(t *testing.T) {
	// No counters anywhere: every chart slot falls back to a placeholder,
	// but the pass itself succeeds.
	l := NewLayout(schema.Empty(), nil, time.Now())
	l.Reveal()
	defer l.Conceal()

	w, h := l.NaturalSize()
	cr := NewChartRasterizer()

	img, err := cr.Rasterize(context.Background(), l, Options{Scale: 1, Width: w, Height: h})
	require.NoError(t, err)
	assert.Equal(t, w, img.Bounds().Dx())
}

func TestChartRasterizerHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	l := NewLayout(schema.Empty(), nil, time.Now())
	l.Reveal()
	defer l.Conceal()

	cr := NewChartRasterizer()
	_, err := cr.Rasterize(ctx, l, Options{Scale: 1, Width: baseWidth, Height: 400})
	assert.ErrorIs(t, err, context.Canceled)
}
