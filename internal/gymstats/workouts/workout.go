package workouts

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrWorkoutNotFound = errors.New("workout not found")
	ErrInvalidWorkout  = errors.New("invalid workout")
)

type Set struct {
	ID        int     `json:"id"`
	Weight    float64 `json:"weight"`
	Reps      int     `json:"reps"`
	SetNumber int     `json:"setNumber"`
}

type ExerciseLog struct {
	ID           int     `json:"id"`
	ExerciseID   int     `json:"exerciseId"`
	ExerciseName string  `json:"exerciseName"`
	Notes        *string `json:"notes,omitempty"`
	Sets         []Set   `json:"sets"`
}

type WorkoutLog struct {
	ID         int       `json:"id"`
	UserID     string    `json:"userId,omitempty"`
	TemplateID *int      `json:"templateId,omitempty"`
	Name       string    `json:"name"`
	Date       time.Time `json:"date"`
	// Duration in minutes
	Duration  *int          `json:"duration,omitempty"`
	Notes     *string       `json:"notes,omitempty"`
	Exercises []ExerciseLog `json:"exercises"`
	CreatedAt time.Time     `json:"createdAt"`
}

func (w WorkoutLog) Validate() error {
	if w.Name == "" {
		return fmt.Errorf("%w: name empty", ErrInvalidWorkout)
	}
	if w.Duration != nil && *w.Duration < 0 {
		return fmt.Errorf("%w: negative duration", ErrInvalidWorkout)
	}
	for _, e := range w.Exercises {
		if e.ExerciseName == "" {
			return fmt.Errorf("%w: exercise name empty", ErrInvalidWorkout)
		}
		for _, s := range e.Sets {
			if s.Reps < 0 || s.Weight < 0 {
				return fmt.Errorf("%w: negative weight or reps", ErrInvalidWorkout)
			}
		}
	}
	return nil
}

// QuickExercise is a single exercise logged outside of a planned workout.
type QuickExercise struct {
	ExerciseID   int       `json:"exerciseId"`
	ExerciseName string    `json:"exerciseName"`
	Date         time.Time `json:"date"`
	Notes        *string   `json:"notes,omitempty"`
	Sets         []Set     `json:"sets"`
}

func (q QuickExercise) toWorkout() WorkoutLog {
	return WorkoutLog{
		Name: "Quick " + q.ExerciseName,
		Date: q.Date,
		Exercises: []ExerciseLog{
			{
				ExerciseID:   q.ExerciseID,
				ExerciseName: q.ExerciseName,
				Notes:        q.Notes,
				Sets:         q.Sets,
			},
		},
	}
}
