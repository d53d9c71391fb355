package stats

import (
	"context"
	"encoding/json"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/sdelgado/gymtracker/internal/telemetry/tracing"
	"github.com/sdelgado/gymtracker/pkg"
)

type statsRepo interface {
	Ranking(ctx context.Context, exerciseName string) ([]RankEntry, error)
}

type Handler struct {
	repo statsRepo
}

func NewHandler(repo statsRepo) *Handler {
	return &Handler{
		repo: repo,
	}
}

// HandleRanking serves the cross-user best-lift board for one exercise.
func (handler *Handler) HandleRanking(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.stats.ranking")
	defer span.End()

	exerciseName := r.URL.Query().Get("exercise")
	if exerciseName == "" {
		pkg.WriteJSONError(w, "exercise name required", http.StatusBadRequest)
		return
	}

	entries, err := handler.repo.Ranking(ctx, exerciseName)
	if err != nil {
		log.Errorf("ranking for exercise [%s]: %s", exerciseName, err)
		pkg.WriteJSONError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	entriesJson, err := json.Marshal(entries)
	if err != nil {
		log.Errorf("marshal ranking entries: %s", err)
		pkg.WriteJSONError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, entriesJson)
}
