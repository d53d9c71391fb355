package exercises

import (
	"context"
	"errors"
	"fmt"

	"github.com/sdelgado/gymtracker/internal/musclegroups"
	"github.com/sdelgado/gymtracker/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

var ErrTemplateNotFound = errors.New("exercise template not found")

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

// ListVisible returns the templates owned by the user plus the public ones,
// optionally narrowed to one muscle group. Pass muscleGroupID <= 0 for all.
func (r *Repo) ListVisible(ctx context.Context, userID, muscleGroupID int) (_ []Template, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.listvisible")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("user.id", userID))

	query := `
		SELECT
			et.id, et.name, et.muscle_group_id, et.user_id, et.is_public, et.created_at, et.updated_at,
			mg.id, mg.name, mg.user_id, mg.is_public, mg.created_at, mg.updated_at
		FROM exercise_template et
			INNER JOIN muscle_group mg ON mg.id = et.muscle_group_id
		WHERE (et.user_id = $1 OR et.is_public = TRUE)`
	args := []interface{}{userID}
	if muscleGroupID > 0 {
		span.SetAttributes(attribute.Int("musclegroup.id", muscleGroupID))
		query += ` AND et.muscle_group_id = $2`
		args = append(args, muscleGroupID)
	}
	query += ` ORDER BY (et.user_id = $1) DESC, et.name ASC;`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	return r.rows2templates(rows)
}

func (r *Repo) Get(ctx context.Context, id int) (_ *Template, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	rows, err := r.db.Query(
		ctx,
		`
			SELECT
				et.id, et.name, et.muscle_group_id, et.user_id, et.is_public, et.created_at, et.updated_at,
				mg.id, mg.name, mg.user_id, mg.is_public, mg.created_at, mg.updated_at
			FROM exercise_template et
				INNER JOIN muscle_group mg ON mg.id = et.muscle_group_id
			WHERE et.id = $1;`,
		id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	templates, err := r.rows2templates(rows)
	if err != nil {
		return nil, err
	}
	if len(templates) != 1 {
		return nil, ErrTemplateNotFound
	}
	return &templates[0], nil
}

// GetOwnByName finds a template of that name owned by the user,
// duplicate names are checked per-owner.
func (r *Repo) GetOwnByName(ctx context.Context, userID int, name string) (_ *Template, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.getownbyname")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("user.id", userID))
	span.SetAttributes(attribute.String("name", name))

	rows, err := r.db.Query(
		ctx,
		`
			SELECT id, name, muscle_group_id, user_id, is_public, created_at, updated_at
			FROM exercise_template
			WHERE name = $1 AND user_id = $2
			LIMIT 1;`,
		name, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	templates, err := r.rows2templatesBare(rows)
	if err != nil {
		return nil, err
	}
	if len(templates) != 1 {
		return nil, ErrTemplateNotFound
	}
	return &templates[0], nil
}

// FindVisibleByName is the workout logging lookup: a template of that name
// either owned by the user or public, the user's own one winning.
func (r *Repo) FindVisibleByName(ctx context.Context, userID int, name string) (_ *Template, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.findvisiblebyname")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("user.id", userID))
	span.SetAttributes(attribute.String("name", name))

	rows, err := r.db.Query(
		ctx,
		`
			SELECT id, name, muscle_group_id, user_id, is_public, created_at, updated_at
			FROM exercise_template
			WHERE name = $1 AND (user_id = $2 OR is_public = TRUE)
			ORDER BY (user_id = $2) DESC
			LIMIT 1;`,
		name, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	templates, err := r.rows2templatesBare(rows)
	if err != nil {
		return nil, err
	}
	if len(templates) != 1 {
		return nil, ErrTemplateNotFound
	}
	return &templates[0], nil
}

func (r *Repo) Add(ctx context.Context, template Template) (_ *Template, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(
		ctx,
		`INSERT INTO exercise_template (name, muscle_group_id, user_id, is_public, created_at, updated_at)
			VALUES ($1, $2, $3, $4, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING id, created_at, updated_at;`,
		template.Name, template.MuscleGroupID, template.UserID, template.IsPublic,
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

	if err := rows.Scan(&template.ID, &template.CreatedAt, &template.UpdatedAt); err != nil {
		return nil, fmt.Errorf("rows scan: %w", err)
	}

	span.SetAttributes(attribute.Int("template.id", template.ID))

	return &template, nil
}

func (r *Repo) Update(ctx context.Context, template *Template) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", template.ID))

	tag, err := r.db.Exec(
		ctx,
		`UPDATE exercise_template
			SET name = $1, muscle_group_id = $2, is_public = $3, updated_at = CURRENT_TIMESTAMP
			WHERE id = $4;`,
		template.Name, template.MuscleGroupID, template.IsPublic, template.ID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrTemplateNotFound
	}
	return nil
}

func (r *Repo) Delete(ctx context.Context, id int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	tag, err := r.db.Exec(
		ctx,
		`DELETE FROM exercise_template WHERE id = $1;`,
		id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrTemplateNotFound
	}
	return nil
}

// UsageCount returns how many workout line items reference the template;
// a referenced template resists deletion.
func (r *Repo) UsageCount(ctx context.Context, templateID int) (_ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.usagecount")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("template.id", templateID))

	var count int
	if err := r.db.QueryRow(
		ctx,
		`SELECT COUNT(*) FROM workout_exercise WHERE exercise_template_id = $1;`,
		templateID,
	).Scan(&count); err != nil {
		return -1, err
	}

	return count, nil
}

func (r *Repo) rows2templates(rows pgx.Rows) ([]Template, error) {
	var templates []Template
	for rows.Next() {
		var t Template
		var mg musclegroups.MuscleGroup
		if err := rows.Scan(
			&t.ID, &t.Name, &t.MuscleGroupID, &t.UserID, &t.IsPublic, &t.CreatedAt, &t.UpdatedAt,
			&mg.ID, &mg.Name, &mg.UserID, &mg.IsPublic, &mg.CreatedAt, &mg.UpdatedAt,
		); err != nil {
			return nil, err
		}
		t.MuscleGroup = &mg
		templates = append(templates, t)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if templates == nil {
		templates = make([]Template, 0)
	}

	return templates, nil
}

func (r *Repo) rows2templatesBare(rows pgx.Rows) ([]Template, error) {
	var templates []Template
	for rows.Next() {
		var t Template
		if err := rows.Scan(
			&t.ID, &t.Name, &t.MuscleGroupID, &t.UserID, &t.IsPublic, &t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if templates == nil {
		templates = make([]Template, 0)
	}

	return templates, nil
}
