package exercises

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/sdelgado/gymtracker/internal/auth"
	"github.com/sdelgado/gymtracker/internal/musclegroups"
	"github.com/sdelgado/gymtracker/internal/telemetry/tracing"
	"github.com/sdelgado/gymtracker/pkg"
)

type templatesRepo interface {
	ListVisible(ctx context.Context, userID, muscleGroupID int) ([]Template, error)
	Get(ctx context.Context, id int) (*Template, error)
	GetOwnByName(ctx context.Context, userID int, name string) (*Template, error)
	Add(ctx context.Context, template Template) (*Template, error)
	Update(ctx context.Context, template *Template) error
	Delete(ctx context.Context, id int) error
	UsageCount(ctx context.Context, templateID int) (int, error)
}

type groupsGetter interface {
	Get(ctx context.Context, id int) (*musclegroups.MuscleGroup, error)
}

type AddTemplateRequest struct {
	Name          string `json:"name"`
	MuscleGroupID int    `json:"muscleGroupId"`
	IsPublic      bool   `json:"isPublic"`
}

type UpdateTemplateRequest struct {
	Name          *string `json:"name"`
	MuscleGroupID *int    `json:"muscleGroupId"`
	IsPublic      *bool   `json:"isPublic"`
}

type Handler struct {
	repo   templatesRepo
	groups groupsGetter
}

func NewHandler(repo templatesRepo, groups groupsGetter) *Handler {
	return &Handler{
		repo:   repo,
		groups: groups,
	}
}

func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.exercises.list")
	defer span.End()

	claims, ok := auth.ClaimsFromContext(ctx)
	if !ok {
		pkg.WriteJSONError(w, "access denied", http.StatusUnauthorized)
		return
	}

	var muscleGroupID int
	if rawID := r.URL.Query().Get("muscleGroupId"); rawID != "" {
		var err error
		muscleGroupID, err = strconv.Atoi(rawID)
		if err != nil {
			pkg.WriteJSONError(w, "invalid muscle group id", http.StatusBadRequest)
			return
		}
	}

	templates, err := handler.repo.ListVisible(ctx, claims.UserID, muscleGroupID)
	if err != nil {
		log.Errorf("list exercise templates for user %d: %s", claims.UserID, err)
		pkg.WriteJSONError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	templatesJson, err := json.Marshal(templates)
	if err != nil {
		log.Errorf("marshal exercise templates: %s", err)
		pkg.WriteJSONError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, templatesJson)
}

func (handler *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.exercises.add")
	defer span.End()

	claims, ok := auth.ClaimsFromContext(ctx)
	if !ok {
		pkg.WriteJSONError(w, "access denied", http.StatusUnauthorized)
		return
	}

	var addReq AddTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&addReq); err != nil {
		log.Tracef("new exercise template, unmarshal json params: %s", err)
		pkg.WriteJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if addReq.Name == "" {
		pkg.WriteJSONError(w, "exercise name required", http.StatusBadRequest)
		return
	}
	if addReq.MuscleGroupID <= 0 {
		pkg.WriteJSONError(w, "muscle group id required", http.StatusBadRequest)
		return
	}

	if _, err := handler.groups.Get(ctx, addReq.MuscleGroupID); err != nil {
		if errors.Is(err, musclegroups.ErrGroupNotFound) {
			pkg.WriteJSONError(w, "muscle group not found", http.StatusNotFound)
			return
		}
		log.Errorf("new exercise template, get muscle group %d: %s", addReq.MuscleGroupID, err)
		pkg.WriteJSONError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	_, err := handler.repo.GetOwnByName(ctx, claims.UserID, addReq.Name)
	if err == nil {
		pkg.WriteJSONError(w, "you already have an exercise with that name", http.StatusBadRequest)
		return
	}
	if !errors.Is(err, ErrTemplateNotFound) {
		log.Errorf("new exercise template, check name [%s] for user %d: %s", addReq.Name, claims.UserID, err)
		pkg.WriteJSONError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	template, err := handler.repo.Add(ctx, Template{
		Name:          addReq.Name,
		MuscleGroupID: addReq.MuscleGroupID,
		UserID:        claims.UserID,
		IsPublic:      addReq.IsPublic,
	})
	if err != nil {
		log.Errorf("failed to add exercise template [%s] for user %d: %s", addReq.Name, claims.UserID, err)
		pkg.WriteJSONError(w, "failed to add exercise", http.StatusInternalServerError)
		return
	}

	templateJson, err := json.Marshal(template)
	if err != nil {
		log.Errorf("marshal new exercise template: %s", err)
		pkg.WriteJSONError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	log.Debugf("new exercise template added: %s", templateJson)
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, templateJson, http.StatusCreated)
}

func (handler *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.exercises.update")
	defer span.End()

	claims, ok := auth.ClaimsFromContext(ctx)
	if !ok {
		pkg.WriteJSONError(w, "access denied", http.StatusUnauthorized)
		return
	}

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		pkg.WriteJSONError(w, "invalid exercise id", http.StatusBadRequest)
		return
	}

	var updateReq UpdateTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&updateReq); err != nil {
		log.Tracef("update exercise template, unmarshal json params: %s", err)
		pkg.WriteJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	template, err := handler.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrTemplateNotFound) {
			pkg.WriteJSONError(w, "exercise not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to get exercise template %d: %s", id, err)
		pkg.WriteJSONError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	if template.UserID != claims.UserID {
		pkg.WriteJSONError(w, "not allowed to modify this exercise", http.StatusForbidden)
		return
	}

	// partial update, absent fields keep their current value
	if updateReq.Name != nil && *updateReq.Name != "" {
		template.Name = *updateReq.Name
	}
	if updateReq.MuscleGroupID != nil {
		if _, err := handler.groups.Get(ctx, *updateReq.MuscleGroupID); err != nil {
			if errors.Is(err, musclegroups.ErrGroupNotFound) {
				pkg.WriteJSONError(w, "muscle group not found", http.StatusNotFound)
				return
			}
			log.Errorf("update exercise template, get muscle group %d: %s", *updateReq.MuscleGroupID, err)
			pkg.WriteJSONError(w, "internal server error", http.StatusInternalServerError)
			return
		}
		template.MuscleGroupID = *updateReq.MuscleGroupID
	}
	if updateReq.IsPublic != nil {
		template.IsPublic = *updateReq.IsPublic
	}

	if err := handler.repo.Update(ctx, template); err != nil {
		log.Errorf("failed to update exercise template %d: %s", id, err)
		pkg.WriteJSONError(w, "failed to update exercise", http.StatusInternalServerError)
		return
	}

	templateJson, err := json.Marshal(template)
	if err != nil {
		log.Errorf("marshal updated exercise template: %s", err)
		pkg.WriteJSONError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, templateJson)
}

func (handler *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.exercises.delete")
	defer span.End()

	claims, ok := auth.ClaimsFromContext(ctx)
	if !ok {
		pkg.WriteJSONError(w, "access denied", http.StatusUnauthorized)
		return
	}

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		pkg.WriteJSONError(w, "invalid exercise id", http.StatusBadRequest)
		return
	}

	template, err := handler.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrTemplateNotFound) {
			pkg.WriteJSONError(w, "exercise not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to get exercise template %d: %s", id, err)
		pkg.WriteJSONError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	if template.UserID != claims.UserID {
		pkg.WriteJSONError(w, "not allowed to delete this exercise", http.StatusForbidden)
		return
	}

	usageCount, err := handler.repo.UsageCount(ctx, id)
	if err != nil {
		log.Errorf("failed to count usages of exercise template %d: %s", id, err)
		pkg.WriteJSONError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if usageCount > 0 {
		pkg.WriteJSONError(w, "exercise is used by logged workouts and cannot be deleted", http.StatusBadRequest)
		return
	}

	if err := handler.repo.Delete(ctx, id); err != nil {
		log.Errorf("failed to delete exercise template %d: %s", id, err)
		pkg.WriteJSONError(w, "failed to delete exercise", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSONResponseOK(w, `{"message":"exercise deleted"}`)
}
