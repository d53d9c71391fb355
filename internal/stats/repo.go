package stats

import (
	"context"
	"fmt"
	"strings"

	"github.com/sdelgado/gymtracker/internal/telemetry/tracing"

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

// Ranking returns each user's best recorded weight for the named exercise,
// heaviest first. Ties on weight keep the earliest achieving date per user.
func (r *Repo) Ranking(ctx context.Context, exerciseName string) (_ []RankEntry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.stats.ranking")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("exercise.name", exerciseName))

	rows, err := r.db.Query(
		ctx,
		`
			SELECT best.id, best.name, best.email, best.weight, best.date
			FROM (
				SELECT DISTINCT ON (u.id) u.id, u.name, u.email, we.weight, w.date
				FROM workout_exercise we
					INNER JOIN workout w ON w.id = we.workout_id
					INNER JOIN users u ON u.id = w.user_id
					INNER JOIN exercise_template et ON et.id = we.exercise_template_id
				WHERE et.name = $1
				ORDER BY u.id, we.weight DESC, w.date ASC
			) best
			ORDER BY best.weight DESC;`,
		exerciseName,
	)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	entries := make([]RankEntry, 0)
	for rows.Next() {
		var entry RankEntry
		var name *string
		var email string
		if err := rows.Scan(&entry.UserID, &name, &email, &entry.Weight, &entry.Date); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		if name != nil && *name != "" {
			entry.Name = *name
		} else {
			// users without a display name show up as their email local part
			entry.Name = strings.SplitN(email, "@", 2)[0]
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}
