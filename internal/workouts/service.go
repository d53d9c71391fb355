package workouts

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/sdelgado/gymtracker/internal/exercises"
	"github.com/sdelgado/gymtracker/internal/musclegroups"
	"github.com/sdelgado/gymtracker/internal/telemetry/metrics"
	"github.com/sdelgado/gymtracker/internal/telemetry/tracing"
	"go.opentelemetry.io/otel/attribute"
)

// fallbackGroupName is the catch-all muscle group receiving templates
// auto-created during workout logging.
const fallbackGroupName = "Otros"

type templatesResolverRepo interface {
	FindVisibleByName(ctx context.Context, userID int, name string) (*exercises.Template, error)
	Add(ctx context.Context, template exercises.Template) (*exercises.Template, error)
}

type groupsResolverRepo interface {
	GetOwnByName(ctx context.Context, userID int, name string) (*musclegroups.MuscleGroup, error)
	Add(ctx context.Context, group musclegroups.MuscleGroup) (*musclegroups.MuscleGroup, error)
}

// TemplateResolver maps exercise names of incoming workout payloads to
// exercise templates, lazily creating a private template (and the
// catch-all group) when the name matches nothing visible.
type TemplateResolver struct {
	templates      templatesResolverRepo
	groups         groupsResolverRepo
	metricsManager *metrics.Manager
}

func NewTemplateResolver(
	templates templatesResolverRepo,
	groups groupsResolverRepo,
	metricsManager *metrics.Manager,
) *TemplateResolver {
	return &TemplateResolver{
		templates:      templates,
		groups:         groups,
		metricsManager: metricsManager,
	}
}

// Resolve finds a template named name visible to the user, the user's own
// one preferred over public ones. With no match it creates a private
// template under the user's catch-all group, creating that group too if
// needed. Sequential calls with the same name reuse the created template;
// concurrent calls may race and produce duplicates, which is acceptable.
func (tr *TemplateResolver) Resolve(ctx context.Context, userID int, name string) (_ *exercises.Template, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "workouts.templateresolver.resolve")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("user.id", userID))
	span.SetAttributes(attribute.String("name", name))

	template, err := tr.templates.FindVisibleByName(ctx, userID, name)
	if err == nil {
		return template, nil
	}
	if !errors.Is(err, exercises.ErrTemplateNotFound) {
		return nil, fmt.Errorf("find template by name: %w", err)
	}

	group, err := tr.groups.GetOwnByName(ctx, userID, fallbackGroupName)
	if errors.Is(err, musclegroups.ErrGroupNotFound) {
		group, err = tr.groups.Add(ctx, musclegroups.MuscleGroup{
			Name:     fallbackGroupName,
			UserID:   userID,
			IsPublic: false,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("resolve fallback group: %w", err)
	}

	template, err = tr.templates.Add(ctx, exercises.Template{
		Name:          name,
		MuscleGroupID: group.ID,
		UserID:        userID,
		IsPublic:      false,
	})
	if err != nil {
		return nil, fmt.Errorf("auto-create template: %w", err)
	}

	log.Debugf("auto-created exercise template [%s] for user %d", name, userID)
	tr.metricsManager.CounterAutoCreatedTemps.Inc()

	return template, nil
}
