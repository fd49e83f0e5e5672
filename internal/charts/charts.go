// Package charts renders analytics reports as PNG images.
package charts

import (
	"bytes"
	"fmt"
	"time"

	"github.com/wcharczuk/go-chart/v2"

	"spendwise/internal/core"
)

const (
	defaultWidth  = 1200
	defaultHeight = 600
	// categories below this share are folded into "Other" on pie charts
	minSliceShare = 1.0
)

// Renderer draws charts at a fixed size.
type Renderer struct {
	Width  int
	Height int
}

func NewRenderer() *Renderer {
	return &Renderer{Width: defaultWidth, Height: defaultHeight}
}

func (r *Renderer) background() chart.Style {
	return chart.Style{
		Padding:   chart.Box{Top: 50, Left: 50, Right: 50, Bottom: 50},
		FillColor: chart.ColorWhite,
	}
}

func axisStyle() chart.Style {
	return chart.Style{FontSize: 12, FontColor: chart.ColorBlack}
}

func moneyFormatter(v interface{}) string {
	if f, ok := v.(float64); ok {
		return fmt.Sprintf("%.2f", f)
	}
	return ""
}

// Trend draws income, expenses and running net per bucket. At least two
// buckets are needed to draw a line.
func (r *Renderer) Trend(title string, g core.Granularity, buckets []core.Bucket) ([]byte, error) {
	if len(buckets) < 2 {
		return nil, core.Validationf("not enough data to draw a chart (need at least 2 periods, got %d)", len(buckets))
	}

	xs := make([]time.Time, len(buckets))
	income := make([]float64, len(buckets))
	expenses := make([]float64, len(buckets))
	net := make([]float64, len(buckets))

	var running, top, bottom float64
	for i, b := range buckets {
		xs[i] = b.Start
		income[i] = b.Income.Float()
		expenses[i] = b.Expenses.Float()
		running += income[i] - expenses[i]
		net[i] = running
		top = max(top, income[i], expenses[i], running)
		bottom = min(bottom, running)
	}
	if top == 0 {
		top = 1
	}

	graph := chart.Chart{
		Title:      title,
		Width:      r.Width,
		Height:     r.Height,
		Background: r.background(),
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatterWithFormat(xLayout(g)),
			Style:          axisStyle(),
		},
		YAxis: chart.YAxis{
			ValueFormatter: moneyFormatter,
			Style:          axisStyle(),
			Range:          &chart.ContinuousRange{Min: bottom * 1.1, Max: top * 1.1},
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Income",
				XValues: xs,
				YValues: income,
				Style:   chart.Style{StrokeColor: chart.ColorGreen, StrokeWidth: 2},
			},
			chart.TimeSeries{
				Name:    "Expenses",
				XValues: xs,
				YValues: expenses,
				Style:   chart.Style{StrokeColor: chart.ColorRed, StrokeWidth: 2},
			},
			chart.TimeSeries{
				Name:    "Net",
				XValues: xs,
				YValues: net,
				Style:   chart.Style{StrokeColor: chart.ColorBlue, StrokeWidth: 3},
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph, axisStyle())}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("failed to render trend chart: %w", err)
	}
	return buf.Bytes(), nil
}

// CategoryPie draws the share of each category. Slices under 1% are merged.
func (r *Renderer) CategoryPie(title string, rows []core.CategoryAmount) ([]byte, error) {
	values := make([]chart.Value, 0, len(rows))
	var other float64
	for _, row := range rows {
		if row.Amount.Cents <= 0 {
			continue
		}
		if row.Percentage < minSliceShare {
			other += row.Amount.Float()
			continue
		}
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%s: %s (%.1f%%)", row.Name, row.Amount, row.Percentage),
			Value: row.Amount.Float(),
			Style: axisStyle(),
		})
	}
	if other > 0 {
		values = append(values, chart.Value{Label: "Other", Value: other, Style: axisStyle()})
	}
	if len(values) == 0 {
		return nil, core.Validationf("no data to draw a chart")
	}

	pie := chart.PieChart{
		Title:      title,
		Width:      r.Width,
		Height:     r.Height,
		Values:     values,
		Background: r.background(),
	}

	var buf bytes.Buffer
	if err := pie.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("failed to render category chart: %w", err)
	}
	return buf.Bytes(), nil
}

func xLayout(g core.Granularity) string {
	switch g {
	case core.Month:
		return "2006-01"
	case core.Year:
		return "2006"
	default:
		return "01-02"
	}
}
