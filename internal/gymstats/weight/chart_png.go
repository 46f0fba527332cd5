package weight

import (
	"errors"
	"fmt"
	"io"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const (
	chartWidth    = 1024
	chartHeight   = 300
	maxXAxisTicks = 10
)

var ErrNotEnoughData = errors.New("not enough data to display chart")

var (
	colorWeight  = drawing.ColorFromHex("9b87f5")
	colorBodyFat = drawing.ColorFromHex("f97316")
	colorAverage = drawing.ColorFromHex("0ea5e9")
	colorGoal    = drawing.ColorFromHex("8884d8")
	dashed       = []float64{3, 3}
)

// RenderChartPNG draws the summary like the web chart does: the weight line, the body fat line
// (if any point has it), the dashed moving average and the goal reference line.
func RenderChartPNG(w io.Writer, summary Summary, unit UnitSystem) error {
	if len(summary.Points) == 0 {
		return ErrNotEnoughData
	}

	n := len(summary.Points)
	xs := make([]float64, n)
	weights := make([]float64, n)
	for i, p := range summary.Points {
		xs[i] = float64(i)
		weights[i] = p.Weight
	}

	// go-chart needs two distinct x values to size the x range
	if n == 1 {
		xs, weights = stretchSingle(xs, weights)
	}

	series := []chart.Series{
		chart.ContinuousSeries{
			Name:    "Weight",
			XValues: xs,
			YValues: weights,
			Style: chart.Style{
				StrokeColor: colorWeight,
				StrokeWidth: 2,
				DotColor:    colorWeight,
				DotWidth:    4,
			},
		},
	}

	var bodyFatRange *chart.ContinuousRange
	if summary.HasBodyFat() {
		var bfXs, bfYs []float64
		for i, p := range summary.Points {
			if p.BodyFat == nil {
				continue
			}
			bfXs = append(bfXs, float64(i))
			bfYs = append(bfYs, *p.BodyFat)
		}
		bodyFatRange = &chart.ContinuousRange{
			Min: minOf(bfYs) - axisPadding,
			Max: maxOf(bfYs) + axisPadding,
		}
		if n == 1 {
			bfXs, bfYs = stretchSingle(bfXs, bfYs)
		}
		series = append(series, chart.ContinuousSeries{
			Name:    "Body Fat",
			YAxis:   chart.YAxisSecondary,
			XValues: bfXs,
			YValues: bfYs,
			Style: chart.Style{
				StrokeColor: colorBodyFat,
				StrokeWidth: 2,
				DotColor:    colorBodyFat,
				DotWidth:    4,
			},
		})
	}

	if len(summary.MovingAverage) > 0 {
		avgXs := make([]float64, len(summary.MovingAverage))
		avgYs := make([]float64, len(summary.MovingAverage))
		for i, a := range summary.MovingAverage {
			// first average point is centered on point index movingAvgReach
			avgXs[i] = float64(i + movingAvgReach)
			avgYs[i] = a.Average
		}
		series = append(series, chart.ContinuousSeries{
			Name:    "7-Day Average",
			XValues: avgXs,
			YValues: avgYs,
			Style: chart.Style{
				StrokeColor:     colorAverage,
				StrokeWidth:     2,
				StrokeDashArray: dashed,
			},
		})
	}

	xMax := float64(max(1, n-1))
	if summary.Goal != nil {
		series = append(series, chart.ContinuousSeries{
			Name:    "Goal",
			XValues: []float64{0, xMax},
			YValues: []float64{*summary.Goal, *summary.Goal},
			Style: chart.Style{
				StrokeColor:     colorGoal,
				StrokeWidth:     1,
				StrokeDashArray: dashed,
			},
		})
	}

	graph := chart.Chart{
		Width:  chartWidth,
		Height: chartHeight,
		Background: chart.Style{
			Padding: chart.Box{Top: 20, Left: 20, Right: 30, Bottom: 5},
		},
		XAxis: chart.XAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: xMax},
			Ticks: xAxisTicks(summary.Points),
		},
		YAxis: chart.YAxis{
			Name:  unit.Label(),
			Range: &chart.ContinuousRange{Min: summary.YAxisMin, Max: summary.YAxisMax},
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.1f %s", f, unit.Label())
				}
				return ""
			},
		},
		Series: series,
	}
	if bodyFatRange != nil {
		graph.YAxisSecondary = chart.YAxis{
			Name:  "%",
			Range: bodyFatRange,
		}
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}

// stretchSingle turns a one value series into a flat segment one step wide.
func stretchSingle(xs, ys []float64) ([]float64, []float64) {
	return []float64{xs[0], xs[0] + 1}, []float64{ys[0], ys[0]}
}

func xAxisTicks(points []DerivedPoint) []chart.Tick {
	step := (len(points) + maxXAxisTicks - 1) / maxXAxisTicks
	ticks := make([]chart.Tick, 0, maxXAxisTicks+1)
	for i := 0; i < len(points); i += step {
		ticks = append(ticks, chart.Tick{Value: float64(i), Label: points[i].Label})
	}
	return ticks
}

func minOf(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		m = min(m, v)
	}
	return m
}

func maxOf(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		m = max(m, v)
	}
	return m
}
