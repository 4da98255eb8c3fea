package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"github.com/golang/freetype/truetype"
	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/reportkit/dashboard/internal/charts"
)

// ErrLayoutHidden reports a raster attempt against a concealed layout, the
// equivalent of the export node missing from the document.
var ErrLayoutHidden = errors.New("export layout is not visible")

var (
	colPassed  = drawing.Color{R: 47, G: 158, B: 68, A: 255}
	colFailed  = drawing.Color{R: 224, G: 49, B: 49, A: 255}
	colSkipped = drawing.Color{R: 134, G: 142, B: 150, A: 255}
	colText    = drawing.Color{R: 33, G: 37, B: 41, A: 255}
	colMuted   = drawing.Color{R: 134, G: 142, B: 150, A: 255}
)

func sliceFill(label string) drawing.Color {
	switch label {
	case "Passed":
		return colPassed
	case "Failed":
		return colFailed
	case "Skipped":
		return colSkipped
	}
	return colMuted
}

// ChartRasterizer draws the report layout into a single RGBA canvas: header,
// colour legend, a donut per counter group with a textual breakdown, then
// remarks and comments. Groups without data get a placeholder in the chart
// slot instead of a degenerate donut.
type ChartRasterizer struct{}

func NewChartRasterizer() *ChartRasterizer {
	return &ChartRasterizer{}
}

func (cr *ChartRasterizer) Rasterize(ctx context.Context, layout *Layout, opts Options) (image.Image, error) {
	if !layout.Visible() {
		return nil, ErrLayoutHidden
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	scale := opts.Scale
	if scale <= 0 {
		scale = 1
	}
	width := int(float64(opts.Width) * scale)
	height := int(float64(opts.Height) * scale)

	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	bg := opts.Background
	if bg == nil {
		bg = color.White
	}
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)

	c := &composer{canvas: canvas, scale: scale, y: pad}

	c.textBlock([]textLine{
		{text: "Test Case Dashboard", size: 20, color: colText},
		{text: layout.headerLine(), size: 12, color: colMuted},
	}, headerHeight)
	c.legend()

	overall := charts.FromTestCases(layout.State.TestCases)
	c.distribution(overall, donutSize)
	c.textBlock([]textLine{
		{text: fmt.Sprintf("Passed: %d", overall[0].Value), size: 12, color: colPassed},
		{text: fmt.Sprintf("Failed: %d", overall[1].Value), size: 12, color: colFailed},
		{text: fmt.Sprintf("Skipped: %d", overall[2].Value), size: 12, color: colSkipped},
		{text: fmt.Sprintf("Total (parts): %d", overall.Total()), size: 12, color: colText},
	}, breakdownLines*lineHeight)

	for _, w := range layout.widgets() {
		b := charts.FromWidget(w.Data)
		c.textBlock([]textLine{{text: w.Name, size: 14, color: colText}}, headingHeight)
		c.distribution(b, widgetDonut)
		c.textBlock([]textLine{{text: fmt.Sprintf("Total: %d", b.Total()), size: 11, color: colMuted}}, lineHeight)
	}

	if lines := layout.remarkLines(); len(lines) > 0 {
		c.textBlock([]textLine{{text: "Remarks", size: 14, color: colText}}, headingHeight)
		for _, ln := range lines {
			c.textBlock([]textLine{{text: ln, size: 11, color: colText}}, lineHeight)
		}
	}

	if len(layout.Comments) > 0 {
		c.textBlock([]textLine{{text: "Comments", size: 14, color: colText}}, headingHeight)
		for _, cm := range layout.Comments {
			if cm.Title != "" {
				c.textBlock([]textLine{{text: cm.Title, size: 12, color: colText}}, lineHeight)
			}
			c.textBlock([]textLine{{text: cm.Content, size: 11, color: colMuted}}, lineHeight)
		}
	}

	if c.err != nil {
		return nil, c.err
	}
	return canvas, nil
}

// composer walks a vertical cursor down the canvas, rendering each section
// with go-chart primitives on a transparent strip and compositing it in. The
// first failure sticks and short-circuits the rest.
type composer struct {
	canvas *image.RGBA
	scale  float64
	y      int // logical pixels
	err    error
}

type textLine struct {
	text  string
	size  float64
	color drawing.Color
}

func (c *composer) px(v int) int {
	return int(float64(v) * c.scale)
}

func (c *composer) textBlock(lines []textLine, blockH int) {
	if c.err != nil {
		return
	}
	h := c.px(blockH)
	if h <= 0 || len(lines) == 0 {
		c.y += blockH
		return
	}

	r, font, err := c.newStrip(h)
	if err != nil {
		c.err = err
		return
	}
	r.SetFont(font)

	baseline := 0
	for _, ln := range lines {
		size := ln.size * c.scale
		baseline += int(size) + c.px(4)
		r.SetFontColor(ln.color)
		r.SetFontSize(size)
		r.Text(ln.text, c.px(pad), baseline)
	}
	c.composite(r, 0, h)
	c.y += blockH
}

func (c *composer) legend() {
	if c.err != nil {
		return
	}
	h := c.px(legendHeight)
	r, font, err := c.newStrip(h)
	if err != nil {
		c.err = err
		return
	}
	r.SetFont(font)
	r.SetFontSize(12 * c.scale)

	x := c.px(pad)
	sw := c.px(12)
	top := c.px(8)
	for _, item := range []struct {
		label string
		col   drawing.Color
	}{
		{"Passed", colPassed},
		{"Failed", colFailed},
		{"Skipped", colSkipped},
	} {
		r.SetFillColor(item.col)
		r.MoveTo(x, top)
		r.LineTo(x+sw, top)
		r.LineTo(x+sw, top+sw)
		r.LineTo(x, top+sw)
		r.Close()
		r.Fill()

		r.SetFontColor(colText)
		r.Text(item.label, x+sw+c.px(6), top+sw)
		x += sw + c.px(6) + r.MeasureText(item.label).Width() + c.px(18)
	}
	c.composite(r, 0, h)
	c.y += legendHeight
}

// distribution draws a donut for the breakdown, or a placeholder occupying
// the same slot when there is nothing to chart.
func (c *composer) distribution(b charts.Breakdown, size int) {
	if c.err != nil {
		return
	}
	if !b.HasData() {
		c.textBlock([]textLine{{text: "No data", size: 12, color: colMuted}}, size)
		return
	}

	var values []chart.Value
	for _, s := range b {
		if s.Value == 0 {
			continue
		}
		values = append(values, chart.Value{
			Value: float64(s.Value),
			Label: fmt.Sprintf("%s %d", s.Label, s.Value),
			Style: chart.Style{FillColor: sliceFill(s.Label)},
		})
	}

	d := chart.DonutChart{
		Width:  c.px(size),
		Height: c.px(size),
		Values: values,
	}
	var buf bytes.Buffer
	if err := d.Render(chart.PNG, &buf); err != nil {
		c.err = fmt.Errorf("render donut: %w", err)
		return
	}
	img, err := png.Decode(&buf)
	if err != nil {
		c.err = fmt.Errorf("decode donut: %w", err)
		return
	}

	x := (c.canvas.Bounds().Dx() - c.px(size)) / 2
	top := c.px(c.y)
	draw.Draw(c.canvas, image.Rect(x, top, x+c.px(size), top+c.px(size)), img, image.Point{}, draw.Over)
	c.y += size
}

func (c *composer) newStrip(hpx int) (chart.Renderer, *truetype.Font, error) {
	r, err := chart.PNG(c.canvas.Bounds().Dx(), hpx)
	if err != nil {
		return nil, nil, fmt.Errorf("strip renderer: %w", err)
	}
	font, err := chart.GetDefaultFont()
	if err != nil {
		return nil, nil, fmt.Errorf("default font: %w", err)
	}
	return r, font, nil
}

// composite saves the strip renderer to PNG and draws it over the canvas at
// the current cursor.
func (c *composer) composite(r chart.Renderer, x, hpx int) {
	var buf bytes.Buffer
	if err := r.Save(&buf); err != nil {
		c.err = fmt.Errorf("save strip: %w", err)
		return
	}
	img, err := png.Decode(&buf)
	if err != nil {
		c.err = fmt.Errorf("decode strip: %w", err)
		return
	}
	top := c.px(c.y)
	w := c.canvas.Bounds().Dx()
	draw.Draw(c.canvas, image.Rect(x, top, x+w, top+hpx), img, image.Point{}, draw.Over)
}
