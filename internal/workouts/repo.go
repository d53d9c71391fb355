package workouts

import (
	"context"
	"errors"
	"fmt"

	"github.com/sdelgado/gymtracker/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

var ErrWorkoutNotFound = errors.New("workout not found")

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

// ListForUser returns all workouts of the user, newest first, each with its
// line items attached.
func (r *Repo) ListForUser(ctx context.Context, userID int) (_ []Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.listforuser")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("user.id", userID))

	rows, err := r.db.Query(
		ctx,
		`
			SELECT id, date, notes, user_id, created_at, updated_at
			FROM workout
			WHERE user_id = $1
			ORDER BY date DESC, id DESC;`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query workouts: %w", err)
	}
	defer rows.Close()

	workouts, err := r.rows2workouts(rows)
	if err != nil {
		return nil, err
	}
	if len(workouts) == 0 {
		return workouts, nil
	}

	exRows, err := r.db.Query(
		ctx,
		`
			SELECT we.id, et.name, we.sets, we.reps, we.weight, we.notes, we.workout_id, we.exercise_template_id
			FROM workout_exercise we
				INNER JOIN exercise_template et ON et.id = we.exercise_template_id
				INNER JOIN workout w ON w.id = we.workout_id
			WHERE w.user_id = $1
			ORDER BY we.id ASC;`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query workout exercises: %w", err)
	}
	defer exRows.Close()

	exercises, err := r.rows2exercises(exRows)
	if err != nil {
		return nil, err
	}

	byWorkout := make(map[int][]Exercise, len(workouts))
	for _, e := range exercises {
		byWorkout[e.WorkoutID] = append(byWorkout[e.WorkoutID], e)
	}
	for i := range workouts {
		if items := byWorkout[workouts[i].ID]; items != nil {
			workouts[i].Exercises = items
		}
	}

	return workouts, nil
}

func (r *Repo) Get(ctx context.Context, id int) (_ *Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	rows, err := r.db.Query(
		ctx,
		`SELECT id, date, notes, user_id, created_at, updated_at FROM workout WHERE id = $1;`,
		id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	workouts, err := r.rows2workouts(rows)
	if err != nil {
		return nil, err
	}
	if len(workouts) != 1 {
		return nil, ErrWorkoutNotFound
	}
	workout := workouts[0]

	exRows, err := r.db.Query(
		ctx,
		`
			SELECT we.id, et.name, we.sets, we.reps, we.weight, we.notes, we.workout_id, we.exercise_template_id
			FROM workout_exercise we
				INNER JOIN exercise_template et ON et.id = we.exercise_template_id
			WHERE we.workout_id = $1
			ORDER BY we.id ASC;`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("query workout exercises: %w", err)
	}
	defer exRows.Close()

	workout.Exercises, err = r.rows2exercises(exRows)
	if err != nil {
		return nil, err
	}

	return &workout, nil
}

func (r *Repo) Add(ctx context.Context, workout Workout) (_ *Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(
		ctx,
		`INSERT INTO workout (date, notes, user_id, created_at, updated_at)
			VALUES ($1, $2, $3, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING id, created_at, updated_at;`,
		workout.Date, workout.Notes, workout.UserID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if !rows.Next() {
		return nil, errors.New("unexpected error [no rows next]")
	}

	if err := rows.Scan(&workout.ID, &workout.CreatedAt, &workout.UpdatedAt); err != nil {
		return nil, fmt.Errorf("rows scan: %w", err)
	}

	span.SetAttributes(attribute.Int("workout.id", workout.ID))

	if workout.Exercises == nil {
		workout.Exercises = make([]Exercise, 0)
	}

	return &workout, nil
}

// AddExercise appends one line item to an existing workout.
func (r *Repo) AddExercise(ctx context.Context, exercise Exercise) (_ *Exercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.addexercise")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("workout.id", exercise.WorkoutID))

	if err := r.db.QueryRow(
		ctx,
		`INSERT INTO workout_exercise (sets, reps, weight, notes, workout_id, exercise_template_id)
			VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id;`,
		exercise.Sets, exercise.Reps, exercise.Weight, exercise.Notes, exercise.WorkoutID, exercise.ExerciseTemplateID,
	).Scan(&exercise.ID); err != nil {
		return nil, err
	}

	return &exercise, nil
}

// Delete removes the workout together with its line items.
func (r *Repo) Delete(ctx context.Context, id int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if _, err = tx.Exec(
		ctx,
		`DELETE FROM workout_exercise WHERE workout_id = $1;`,
		id,
	); err != nil {
		return err
	}

	tag, err := tx.Exec(
		ctx,
		`DELETE FROM workout WHERE id = $1;`,
		id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		err = ErrWorkoutNotFound
		return err
	}

	return tx.Commit(ctx)
}

func (r *Repo) rows2workouts(rows pgx.Rows) ([]Workout, error) {
	var workouts []Workout
	for rows.Next() {
		var w Workout
		var notes *string
		if err := rows.Scan(&w.ID, &w.Date, &notes, &w.UserID, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, err
		}
		if notes != nil {
			w.Notes = *notes
		}
		w.Exercises = make([]Exercise, 0)
		workouts = append(workouts, w)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if workouts == nil {
		workouts = make([]Workout, 0)
	}

	return workouts, nil
}

func (r *Repo) rows2exercises(rows pgx.Rows) ([]Exercise, error) {
	var exercises []Exercise
	for rows.Next() {
		var e Exercise
		var notes *string
		if err := rows.Scan(&e.ID, &e.Name, &e.Sets, &e.Reps, &e.Weight, &notes, &e.WorkoutID, &e.ExerciseTemplateID); err != nil {
			return nil, err
		}
		if notes != nil {
			e.Notes = *notes
		}
		exercises = append(exercises, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if exercises == nil {
		exercises = make([]Exercise, 0)
	}

	return exercises, nil
}
