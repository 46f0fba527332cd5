package weight

import (
	"errors"
	"time"
)

var (
	ErrEntryNotFound = errors.New("weight entry not found")
	// ErrInvalidParameter is returned when the requested chart window is not supported.
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrMalformedCSV     = errors.New("malformed csv")
)

// TimeOfDay can be one of:
//   - morning
//   - afternoon
//   - evening
type TimeOfDay string

const (
	TimeOfDayMorning   TimeOfDay = "morning"
	TimeOfDayAfternoon TimeOfDay = "afternoon"
	TimeOfDayEvening   TimeOfDay = "evening"
)

func (t TimeOfDay) String() string {
	return string(t)
}

func (t TimeOfDay) IsValid() bool {
	switch t {
	case TimeOfDayMorning,
		TimeOfDayAfternoon,
		TimeOfDayEvening:
		return true
	default:
		return false
	}
}

// UnitSystem only decides the display unit and the goal offset,
// stored values are never converted.
type UnitSystem string

const (
	UnitMetric   UnitSystem = "metric"
	UnitImperial UnitSystem = "imperial"
)

// ParseUnit accepts the unit names used by the clients ("kg", "lb")
// as well as the system names. Anything unknown falls back to metric.
func ParseUnit(s string) UnitSystem {
	switch s {
	case "lb", "lbs", "imperial":
		return UnitImperial
	default:
		return UnitMetric
	}
}

func (u UnitSystem) Label() string {
	if u == UnitImperial {
		return "lb"
	}
	return "kg"
}

func (u UnitSystem) goalOffset() float64 {
	if u == UnitImperial {
		return 10
	}
	return 5
}

// Entry is a single body weight measurement.
// ID, UserID and CreatedAt are owned by the persistence layer.
type Entry struct {
	ID        int       `json:"id"`
	UserID    string    `json:"userId,omitempty"`
	Date      time.Time `json:"date"`
	Weight    float64   `json:"weight"`
	BodyFat   *float64  `json:"bodyFat,omitempty"`
	TimeOfDay TimeOfDay `json:"timeOfDay"`
	Notes     *string   `json:"notes,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// DerivedPoint is the display-ready projection of an Entry.
type DerivedPoint struct {
	Label   string   `json:"label"`
	Weight  float64  `json:"weight"`
	BodyFat *float64 `json:"bodyFat,omitempty"`
}

type AveragePoint struct {
	Label   string  `json:"label"`
	Average float64 `json:"average"`
}

type Summary struct {
	Points        []DerivedPoint `json:"points"`
	MovingAverage []AveragePoint `json:"movingAverage"`
	Goal          *float64       `json:"goal,omitempty"`
	YAxisMin      float64        `json:"yAxisMin"`
	YAxisMax      float64        `json:"yAxisMax"`
}

// HasBodyFat reports whether any point carries a body fat value.
func (s Summary) HasBodyFat() bool {
	for _, p := range s.Points {
		if p.BodyFat != nil {
			return true
		}
	}
	return false
}
