package charts

import (
	"bytes"
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// Fixed colour assignment: passed=green, failed=red, skipped=gray.
var sliceColors = map[string]string{
	"Passed":  "#2f9e44",
	"Failed":  "#e03131",
	"Skipped": "#868e96",
}

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// DistributionPie renders a donut chart for one counter group. Zero-valued
// segments are dropped so the legend matches what is actually drawn. Callers
// should check Breakdown.HasData first and render a placeholder when empty.
func (g *Generator) DistributionPie(title string, b Breakdown) string {
	pie := charts.NewPie()
	pie.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: fmt.Sprintf("Total: %d", b.Total()),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Bottom: "0"}),
		charts.WithInitializationOpts(opts.Initialization{
			Height: "260px",
			Width:  "100%",
		}),
	)

	var items []opts.PieData
	for _, s := range b {
		if s.Value == 0 {
			continue
		}
		items = append(items, opts.PieData{
			Name:      s.Label,
			Value:     s.Value,
			ItemStyle: &opts.ItemStyle{Color: sliceColors[s.Label]},
		})
	}

	pie.AddSeries(title, items).
		SetSeriesOptions(charts.WithPieChartOpts(opts.PieChart{
			Radius: []string{"45%", "70%"},
		}))

	return g.renderToString(pie)
}

// Interface for anything that can render itself to an io.Writer
type Renderer interface {
	Render(w io.Writer) error
}

func (g *Generator) renderToString(c Renderer) string {
	var buf bytes.Buffer
	c.Render(&buf)
	return buf.String()
}
