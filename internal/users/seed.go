package users

import (
	"context"
	"fmt"

	"github.com/sdelgado/gymtracker/internal/telemetry/tracing"

	"go.opentelemetry.io/otel/attribute"
)

// the taxonomy every fresh account starts with; the web client was originally
// built for a spanish-speaking audience, hence the names
var defaultTaxonomy = []struct {
	group     string
	exercises []string
}{
	{"Pecho y Tríceps", []string{"Press de banca", "Press inclinado", "Press declinado", "Aperturas con mancuernas"}},
	{"Espalda y Bíceps", []string{"Dominadas", "Remo", "Jalón al pecho", "Curl de bíceps"}},
	{"Pierna", []string{"Sentadillas", "Peso muerto", "Prensa", "Extensiones de cuádriceps"}},
	{"Hombros", []string{"Press militar", "Elevaciones laterales", "Elevaciones frontales", "Remo al mentón"}},
	{"Otros", []string{"Crunch abdominal", "Plancha", "Extensiones de espalda", "Russian twist"}},
}

const maxDefaultTemplates = 20

// SeedDefaultTaxonomy creates the default muscle groups and exercise
// templates for a freshly registered user. Inserts run sequentially without a
// transaction; a failure partway leaves a partial taxonomy behind.
func (r *Repo) SeedDefaultTaxonomy(ctx context.Context, userID int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.seedtaxonomy")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("user.id", userID))

	templatesSeeded := 0
	for _, entry := range defaultTaxonomy {
		var groupID int
		if err := r.db.QueryRow(
			ctx,
			`INSERT INTO muscle_group (name, user_id, is_public, created_at, updated_at)
				VALUES ($1, $2, TRUE, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
			RETURNING id;`,
			entry.group, userID,
		).Scan(&groupID); err != nil {
			return fmt.Errorf("seed muscle group [%s]: %w", entry.group, err)
		}

		for _, exerciseName := range entry.exercises {
			if templatesSeeded >= maxDefaultTemplates {
				return nil
			}
			if _, err := r.db.Exec(
				ctx,
				`INSERT INTO exercise_template (name, muscle_group_id, user_id, is_public, created_at, updated_at)
					VALUES ($1, $2, $3, TRUE, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP);`,
				exerciseName, groupID, userID,
			); err != nil {
				return fmt.Errorf("seed exercise template [%s]: %w", exerciseName, err)
			}
			templatesSeeded++
		}
	}

	return nil
}
