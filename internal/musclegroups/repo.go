package musclegroups

import (
	"context"
	"errors"
	"fmt"

	"github.com/sdelgado/gymtracker/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

var ErrGroupNotFound = errors.New("muscle group not found")

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

// ListVisible returns the groups owned by the user plus the public ones,
// the user's own groups first, then alphabetically.
func (r *Repo) ListVisible(ctx context.Context, userID int) (_ []MuscleGroup, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.musclegroups.listvisible")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("user.id", userID))

	rows, err := r.db.Query(
		ctx,
		`
			SELECT id, name, user_id, is_public, created_at, updated_at
			FROM muscle_group
			WHERE user_id = $1 OR is_public = TRUE
			ORDER BY (user_id = $1) DESC, name ASC;`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	return r.rows2groups(rows)
}

func (r *Repo) Get(ctx context.Context, id int) (_ *MuscleGroup, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.musclegroups.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	rows, err := r.db.Query(
		ctx,
		`SELECT id, name, user_id, is_public, created_at, updated_at FROM muscle_group WHERE id = $1;`,
		id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	groups, err := r.rows2groups(rows)
	if err != nil {
		return nil, err
	}
	if len(groups) != 1 {
		return nil, ErrGroupNotFound
	}
	return &groups[0], nil
}

// GetOwnByName finds a group of that name owned by the user (public groups of
// other users do not count, duplicate names are per-owner).
func (r *Repo) GetOwnByName(ctx context.Context, userID int, name string) (_ *MuscleGroup, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.musclegroups.getownbyname")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("user.id", userID))
	span.SetAttributes(attribute.String("name", name))

	rows, err := r.db.Query(
		ctx,
		`SELECT id, name, user_id, is_public, created_at, updated_at
			FROM muscle_group
			WHERE name = $1 AND user_id = $2
			LIMIT 1;`,
		name, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	groups, err := r.rows2groups(rows)
	if err != nil {
		return nil, err
	}
	if len(groups) != 1 {
		return nil, ErrGroupNotFound
	}
	return &groups[0], nil
}

func (r *Repo) Add(ctx context.Context, group MuscleGroup) (_ *MuscleGroup, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.musclegroups.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(
		ctx,
		`INSERT INTO muscle_group (name, user_id, is_public, created_at, updated_at)
			VALUES ($1, $2, $3, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING id, created_at, updated_at;`,
		group.Name, group.UserID, group.IsPublic,
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

	if err := rows.Scan(&group.ID, &group.CreatedAt, &group.UpdatedAt); err != nil {
		return nil, fmt.Errorf("rows scan: %w", err)
	}

	span.SetAttributes(attribute.Int("group.id", group.ID))

	return &group, nil
}

func (r *Repo) Update(ctx context.Context, group *MuscleGroup) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.musclegroups.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", group.ID))

	tag, err := r.db.Exec(
		ctx,
		`UPDATE muscle_group SET name = $1, is_public = $2, updated_at = CURRENT_TIMESTAMP WHERE id = $3;`,
		group.Name, group.IsPublic, group.ID,
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return ErrGroupNotFound
	}

	return nil
}

func (r *Repo) Delete(ctx context.Context, id int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.musclegroups.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	tag, err := r.db.Exec(
		ctx,
		`DELETE FROM muscle_group WHERE id = $1;`,
		id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrGroupNotFound
	}
	return nil
}

// TemplatesCount returns how many exercise templates still reference the
// group; a referenced group resists deletion.
func (r *Repo) TemplatesCount(ctx context.Context, groupID int) (_ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.musclegroups.templatescount")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("group.id", groupID))

	var count int
	if err := r.db.QueryRow(
		ctx,
		`SELECT COUNT(*) FROM exercise_template WHERE muscle_group_id = $1;`,
		groupID,
	).Scan(&count); err != nil {
		return -1, err
	}

	return count, nil
}

func (r *Repo) rows2groups(rows pgx.Rows) ([]MuscleGroup, error) {
	var groups []MuscleGroup
	for rows.Next() {
		var g MuscleGroup
		if err := rows.Scan(&g.ID, &g.Name, &g.UserID, &g.IsPublic, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if groups == nil {
		groups = make([]MuscleGroup, 0)
	}

	return groups, nil
}
