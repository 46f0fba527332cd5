package exercises

import (
	"context"
	"fmt"
	"time"

	"github.com/empowerfit/backend/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

type ListParams struct {
	Target   string
	Category string
}

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

const exerciseColumns = `id, name, target, equipment, difficulty, category, rep_range, demo_url, description, created_at`

func (r *Repo) Add(ctx context.Context, exercise Exercise) (_ *Exercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if exercise.CreatedAt.IsZero() {
		exercise.CreatedAt = time.Now()
	}

	if err := r.db.QueryRow(
		ctx,
		`INSERT INTO exercise
				(name, target, equipment, difficulty, category, rep_range, demo_url, description, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING id;`,
		exercise.Name, exercise.Target, exercise.Equipment, exercise.Difficulty,
		exercise.Category, exercise.RepRange, exercise.DemoURL, exercise.Description, exercise.CreatedAt,
	).Scan(&exercise.ID); err != nil {
		return nil, fmt.Errorf("insert: %w", err)
	}

	span.SetAttributes(attribute.Int("exercise.id", exercise.ID))
	return &exercise, nil
}

func (r *Repo) Get(ctx context.Context, id int) (_ *Exercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	rows, err := r.db.Query(ctx, `SELECT `+exerciseColumns+` FROM exercise WHERE id = $1;`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	exercises, err := r.rows2exercises(rows)
	if err != nil {
		return nil, err
	}
	if len(exercises) != 1 {
		return nil, ErrExerciseNotFound
	}
	return &exercises[0], nil
}

// List returns the library ordered by name, optionally narrowed to a target or a category.
func (r *Repo) List(ctx context.Context, params ListParams) (_ []Exercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("target", params.Target))
	span.SetAttributes(attribute.String("category", params.Category))

	rows, err := r.db.Query(
		ctx,
		`SELECT `+exerciseColumns+` FROM exercise
			WHERE ($1 = '' OR target = $1) AND ($2 = '' OR category = $2)
			ORDER BY name;`,
		params.Target, params.Category,
	)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	return r.rows2exercises(rows)
}

func (r *Repo) rows2exercises(rows pgx.Rows) ([]Exercise, error) {
	exercises := make([]Exercise, 0)
	for rows.Next() {
		var e Exercise
		if err := rows.Scan(
			&e.ID, &e.Name, &e.Target, &e.Equipment, &e.Difficulty,
			&e.Category, &e.RepRange, &e.DemoURL, &e.Description, &e.CreatedAt,
		); err != nil {
			return nil, err
		}
		exercises = append(exercises, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return exercises, nil
}
