package weight

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
	// Ascending orders by date ASC (export), default is newest first
	Ascending bool
	// Limit of 0 means no limit
	Limit int
}

// Patch holds the fields of an entry to change, nil fields are left as they are.
type Patch struct {
	Date      *time.Time `json:"date,omitempty"`
	Weight    *float64   `json:"weight,omitempty"`
	BodyFat   *float64   `json:"bodyFat,omitempty"`
	TimeOfDay *TimeOfDay `json:"timeOfDay,omitempty"`
	Notes     *string    `json:"notes,omitempty"`
}

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

const entryColumns = `id, user_id, date, weight, body_fat, time_of_day, notes, created_at`

func (r *Repo) Add(ctx context.Context, entry Entry) (_ *Entry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.weight.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	err = r.db.QueryRow(
		ctx,
		`INSERT INTO weight_entry
				(user_id, date, weight, body_fat, time_of_day, notes, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id;`,
		entry.UserID, entry.Date, entry.Weight, entry.BodyFat, entry.TimeOfDay.String(), entry.Notes, entry.CreatedAt,
	).Scan(&entry.ID)
	if err != nil {
		return nil, fmt.Errorf("insert: %w", err)
	}

	span.SetAttributes(attribute.Int("weight_entry.id", entry.ID))
	return &entry, nil
}

// AddBatch stores all entries for the user in a single transaction, it's all or nothing.
func (r *Repo) AddBatch(ctx context.Context, userID string, entries []Entry) (_ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.weight.addbatch")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("count", len(entries)))

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, err
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

	now := time.Now()
	batch := &pgx.Batch{}
	for _, e := range entries {
		batch.Queue(
			`INSERT INTO weight_entry
				(user_id, date, weight, body_fat, time_of_day, notes, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7);`,
			userID, e.Date, e.Weight, e.BodyFat, e.TimeOfDay.String(), e.Notes, now,
		)
	}

	if err = tx.SendBatch(ctx, batch).Close(); err != nil {
		return 0, fmt.Errorf("send batch: %w", err)
	}

	return len(entries), nil
}

func (r *Repo) Get(ctx context.Context, userID string, id int) (_ *Entry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.weight.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	rows, err := r.db.Query(
		ctx,
		`SELECT `+entryColumns+` FROM weight_entry WHERE id = $1 AND user_id = $2;`,
		id, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries, err := r.rows2entries(rows)
	if err != nil {
		return nil, err
	}

	if len(entries) != 1 {
		return nil, ErrEntryNotFound
	}

	return &entries[0], nil
}

func (r *Repo) Update(ctx context.Context, userID string, id int, patch Patch) (_ *Entry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.weight.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	var timeOfDay *string
	if patch.TimeOfDay != nil {
		tod := patch.TimeOfDay.String()
		timeOfDay = &tod
	}

	rows, err := r.db.Query(
		ctx,
		`UPDATE weight_entry SET
				date = COALESCE($1, date),
				weight = COALESCE($2, weight),
				body_fat = COALESCE($3, body_fat),
				time_of_day = COALESCE($4, time_of_day),
				notes = COALESCE($5, notes)
			WHERE id = $6 AND user_id = $7
			RETURNING `+entryColumns+`;`,
		patch.Date, patch.Weight, patch.BodyFat, timeOfDay, patch.Notes, id, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries, err := r.rows2entries(rows)
	if err != nil {
		return nil, err
	}

	if len(entries) != 1 {
		return nil, ErrEntryNotFound
	}

	return &entries[0], nil
}

func (r *Repo) Delete(ctx context.Context, userID string, id int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.weight.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	tag, err := r.db.Exec(
		ctx,
		`DELETE FROM weight_entry WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrEntryNotFound
	}
	return nil
}

// ListAll returns all entries of the user, newest first unless params.Ascending is set.
func (r *Repo) ListAll(ctx context.Context, userID string, params ListParams) (_ []Entry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.weight.listall")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Bool("ascending", params.Ascending))
	span.SetAttributes(attribute.Int("limit", params.Limit))

	order := "DESC"
	if params.Ascending {
		order = "ASC"
	}

	var limit *int
	if params.Limit > 0 {
		limit = &params.Limit
	}

	rows, err := r.db.Query(
		ctx,
		`SELECT `+entryColumns+` FROM weight_entry
			WHERE user_id = $1
			ORDER BY date `+order+`, created_at `+order+`
			LIMIT $2;`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	entries, err := r.rows2entries(rows)
	if err != nil {
		return nil, fmt.Errorf("rows2entries: %w", err)
	}
	return entries, nil
}

func (r *Repo) rows2entries(rows pgx.Rows) ([]Entry, error) {
	entries := make([]Entry, 0)
	for rows.Next() {
		var e Entry
		var timeOfDay string
		if err := rows.Scan(
			&e.ID, &e.UserID, &e.Date, &e.Weight, &e.BodyFat, &timeOfDay, &e.Notes, &e.CreatedAt,
		); err != nil {
			return nil, err
		}
		e.TimeOfDay = TimeOfDay(timeOfDay)
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}
