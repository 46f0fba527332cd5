package weight

import (
	"fmt"
	"sort"
	"time"
)

// supported chart periods, in days
var allowedWindowDays = map[int]bool{
	7:  true,
	30: true,
	90: true,
}

func IsValidWindow(days int) bool {
	return allowedWindowDays[days]
}

// Window returns the entries recorded within the trailing days window relative to now.
// The cutoff is now minus whole calendar days, and entries dated exactly at the cutoff are kept.
// Input order is preserved; Window does not sort.
func Window(entries []Entry, days int, now time.Time) ([]Entry, error) {
	if !IsValidWindow(days) {
		return nil, fmt.Errorf("%w: window of %d days, must be 7, 30 or 90", ErrInvalidParameter, days)
	}

	cutoff := now.AddDate(0, 0, -days)
	windowed := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.Date.Before(cutoff) {
			continue
		}
		windowed = append(windowed, e)
	}

	return windowed, nil
}

// SortByDate returns an ascending (by date) copy of entries.
// Entries sharing a date keep their relative order.
func SortByDate(entries []Entry) []Entry {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})
	return sorted
}

// Chart sorts the whole history, windows it and summarizes the result.
// The goal and the axis bounds are always derived from the full history.
func Chart(entries []Entry, days int, now time.Time, unit UnitSystem) (Summary, error) {
	history := SortByDate(entries)
	windowed, err := Window(history, days, now)
	if err != nil {
		return Summary{}, err
	}
	return Summarize(windowed, history, unit), nil
}
