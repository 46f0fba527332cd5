package workouts

import "time"

const activeDaysWindow = 7

// Stats are the dashboard quick stats.
type Stats struct {
	WorkoutsThisMonth int     `json:"workoutsThisMonth"`
	TotalWeightLifted float64 `json:"totalWeightLifted"`
	ActiveDaysLast7   int     `json:"activeDaysLast7"`
	// AvgDurationMinutes only counts workouts with a recorded duration, 0 when there are none
	AvgDurationMinutes float64 `json:"avgDurationMinutes"`
}

func calendarDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func ComputeStats(logs []WorkoutLog, now time.Time) Stats {
	var stats Stats

	today := calendarDay(now)
	activeFrom := today.AddDate(0, 0, -(activeDaysWindow - 1))
	activeDays := make(map[time.Time]bool)

	var durationSum, durationCount int
	for _, w := range logs {
		// workout dates are calendar dates, compared by their own Y/M/D in now's zone
		day := time.Date(w.Date.Year(), w.Date.Month(), w.Date.Day(), 0, 0, 0, 0, now.Location())
		if day.Year() == today.Year() && day.Month() == today.Month() {
			stats.WorkoutsThisMonth++
		}

		if !day.Before(activeFrom) && !day.After(today) {
			activeDays[day] = true
		}

		if w.Duration != nil {
			durationSum += *w.Duration
			durationCount++
		}

		for _, e := range w.Exercises {
			for _, s := range e.Sets {
				stats.TotalWeightLifted += s.Weight * float64(s.Reps)
			}
		}
	}

	stats.ActiveDaysLast7 = len(activeDays)
	if durationCount > 0 {
		stats.AvgDurationMinutes = float64(durationSum) / float64(durationCount)
	}

	return stats
}
