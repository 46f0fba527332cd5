package weight

import (
	"math"
)

const (
	// points taken on each side of the centered moving average
	movingAvgReach = 3
	labelLayout    = "Jan 02"

	axisPadding    = 2.0
	defaultAxisMin = 0.0
	defaultAxisMax = 100.0
)

// Summarize projects the windowed entries into chart points, smooths them with a
// centered 7 point moving average and derives the goal and the y axis bounds from fullHistory.
// Invalid values (NaN, negative weights) are not rejected, they propagate to the results.
func Summarize(windowed, fullHistory []Entry, unit UnitSystem) Summary {
	points := project(SortByDate(windowed))

	summary := Summary{
		Points:        points,
		MovingAverage: movingAverage(points),
		YAxisMin:      defaultAxisMin,
		YAxisMax:      defaultAxisMax,
	}

	if len(fullHistory) == 0 {
		return summary
	}

	minWeight, maxWeight := weightExtremes(fullHistory)
	goal := roundHalfUp(maxWeight - unit.goalOffset())
	summary.Goal = &goal
	summary.YAxisMin = minWeight - axisPadding
	summary.YAxisMax = maxWeight + axisPadding

	return summary
}

func project(entries []Entry) []DerivedPoint {
	points := make([]DerivedPoint, 0, len(entries))
	for _, e := range entries {
		points = append(points, DerivedPoint{
			Label:   e.Date.Format(labelLayout),
			Weight:  e.Weight,
			BodyFat: e.BodyFat,
		})
	}
	return points
}

// movingAverage only emits a point for indices having movingAvgReach points on both sides,
// so a series shorter than 7 points yields nothing.
func movingAverage(points []DerivedPoint) []AveragePoint {
	averages := make([]AveragePoint, 0)
	n := len(points)
	for i := movingAvgReach; i <= n-movingAvgReach-1; i++ {
		from := max(0, i-movingAvgReach)
		to := min(n, i+movingAvgReach+1)

		var sum float64
		for _, p := range points[from:to] {
			sum += p.Weight
		}

		averages = append(averages, AveragePoint{
			Label:   points[i].Label,
			Average: sum / float64(to-from),
		})
	}
	return averages
}

// weightExtremes expects a non-empty slice. math.Min/Max are used so NaN wins.
func weightExtremes(entries []Entry) (minWeight, maxWeight float64) {
	minWeight, maxWeight = entries[0].Weight, entries[0].Weight
	for _, e := range entries[1:] {
		minWeight = math.Min(minWeight, e.Weight)
		maxWeight = math.Max(maxWeight, e.Weight)
	}
	return minWeight, maxWeight
}

// roundHalfUp rounds .5 towards positive infinity, the way the web client does.
func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}
