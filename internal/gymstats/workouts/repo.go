package workouts

import (
	"context"
	"fmt"
	"time"

	"github.com/empowerfit/backend/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

// Add stores the workout with all its exercise logs and sets in one transaction.
// Set numbers are assigned from the position of the set within its exercise.
func (r *Repo) Add(ctx context.Context, workout WorkoutLog) (_ *WorkoutLog, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(ctx); rollbackErr != nil {
				err = fmt.Errorf("failed to rollback transaction: %w: %w", rollbackErr, err)
			}
		} else {
			err = tx.Commit(ctx)
		}
	}()

	if workout.CreatedAt.IsZero() {
		workout.CreatedAt = time.Now()
	}

	if err = tx.QueryRow(
		ctx,
		`INSERT INTO workout_log
				(user_id, template_id, name, date, duration, notes, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id;`,
		workout.UserID, workout.TemplateID, workout.Name, workout.Date, workout.Duration, workout.Notes, workout.CreatedAt,
	).Scan(&workout.ID); err != nil {
		return nil, fmt.Errorf("insert workout log: %w", err)
	}

	for i := range workout.Exercises {
		exercise := &workout.Exercises[i]
		if err = tx.QueryRow(
			ctx,
			`INSERT INTO exercise_log
					(workout_log_id, exercise_id, exercise_name, notes)
					VALUES ($1, $2, $3, $4)
				RETURNING id;`,
			workout.ID, exercise.ExerciseID, exercise.ExerciseName, exercise.Notes,
		).Scan(&exercise.ID); err != nil {
			return nil, fmt.Errorf("insert exercise log [%s]: %w", exercise.ExerciseName, err)
		}

		for j := range exercise.Sets {
			set := &exercise.Sets[j]
			set.SetNumber = j + 1
			if err = tx.QueryRow(
				ctx,
				`INSERT INTO workout_set
						(exercise_log_id, weight, reps, set_number)
						VALUES ($1, $2, $3, $4)
					RETURNING id;`,
				exercise.ID, set.Weight, set.Reps, set.SetNumber,
			).Scan(&set.ID); err != nil {
				return nil, fmt.Errorf("insert set %d of [%s]: %w", set.SetNumber, exercise.ExerciseName, err)
			}
		}
	}

	span.SetAttributes(attribute.Int("workout.id", workout.ID))
	return &workout, nil
}

// ListAll returns the workouts of the user, newest first, with nested exercises and sets.
func (r *Repo) ListAll(ctx context.Context, userID string) (_ []WorkoutLog, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.listall")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(
		ctx,
		`SELECT w.id, w.user_id, w.template_id, w.name, w.date, w.duration, w.notes, w.created_at,
				e.id, e.exercise_id, e.exercise_name, e.notes,
				s.id, s.weight, s.reps, s.set_number
			FROM workout_log w
				LEFT JOIN exercise_log e ON e.workout_log_id = w.id
				LEFT JOIN workout_set s ON s.exercise_log_id = e.id
			WHERE w.user_id = $1
			ORDER BY w.date DESC, w.id DESC, e.id, s.set_number;`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	workouts, err := r.rows2workouts(rows)
	if err != nil {
		return nil, fmt.Errorf("rows2workouts: %w", err)
	}
	span.SetAttributes(attribute.Int("count", len(workouts)))
	return workouts, nil
}

// rows2workouts folds the joined rows back into the nested structure,
// rows are expected grouped by workout, then exercise.
func (r *Repo) rows2workouts(rows pgx.Rows) ([]WorkoutLog, error) {
	workouts := make([]WorkoutLog, 0)
	for rows.Next() {
		var (
			w            WorkoutLog
			exerciseID   *int
			exerciseRef  *int
			exerciseName *string
			exerciseNote *string
			setID        *int
			setWeight    *float64
			setReps      *int
			setNumber    *int
		)
		if err := rows.Scan(
			&w.ID, &w.UserID, &w.TemplateID, &w.Name, &w.Date, &w.Duration, &w.Notes, &w.CreatedAt,
			&exerciseID, &exerciseRef, &exerciseName, &exerciseNote,
			&setID, &setWeight, &setReps, &setNumber,
		); err != nil {
			return nil, err
		}

		if len(workouts) == 0 || workouts[len(workouts)-1].ID != w.ID {
			w.Exercises = make([]ExerciseLog, 0)
			workouts = append(workouts, w)
		}
		current := &workouts[len(workouts)-1]

		if exerciseID == nil {
			continue
		}
		exercises := current.Exercises
		if len(exercises) == 0 || exercises[len(exercises)-1].ID != *exerciseID {
			current.Exercises = append(current.Exercises, ExerciseLog{
				ID:           *exerciseID,
				ExerciseID:   *exerciseRef,
				ExerciseName: *exerciseName,
				Notes:        exerciseNote,
				Sets:         make([]Set, 0),
			})
		}
		exercise := &current.Exercises[len(current.Exercises)-1]

		if setID == nil {
			continue
		}
		exercise.Sets = append(exercise.Sets, Set{
			ID:        *setID,
			Weight:    *setWeight,
			Reps:      *setReps,
			SetNumber: *setNumber,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return workouts, nil
}
