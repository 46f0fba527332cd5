package exercises

import (
	"errors"
	"strings"
	"time"
)

var ErrExerciseNotFound = errors.New("exercise not found")

// Exercise is an entry of the shared exercise library.
type Exercise struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Target      string    `json:"target"`
	Equipment   string    `json:"equipment"`
	Difficulty  string    `json:"difficulty"`
	Category    *string   `json:"category,omitempty"`
	RepRange    *string   `json:"repRange,omitempty"`
	DemoURL     *string   `json:"demoUrl,omitempty"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

type FilterParams struct {
	Search     string
	Target     string
	Equipment  string
	Difficulty string
}

func filterEnabled(v string) bool {
	return v != "" && !strings.EqualFold(v, "all")
}

// Filter keeps the exercises matching all the given params. Search matches the name
// or the target, case insensitive. An empty or "all" param matches everything.
func Filter(exercises []Exercise, params FilterParams) []Exercise {
	search := strings.ToLower(strings.TrimSpace(params.Search))
	filtered := make([]Exercise, 0, len(exercises))
	for _, e := range exercises {
		if search != "" &&
			!strings.Contains(strings.ToLower(e.Name), search) &&
			!strings.Contains(strings.ToLower(e.Target), search) {
			continue
		}
		if filterEnabled(params.Target) && !strings.EqualFold(e.Target, params.Target) {
			continue
		}
		if filterEnabled(params.Equipment) && !strings.EqualFold(e.Equipment, params.Equipment) {
			continue
		}
		if filterEnabled(params.Difficulty) && !strings.EqualFold(e.Difficulty, params.Difficulty) {
			continue
		}
		filtered = append(filtered, e)
	}
	return filtered
}
