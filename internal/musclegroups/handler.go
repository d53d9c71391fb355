package musclegroups

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/sdelgado/gymtracker/internal/auth"
	"github.com/sdelgado/gymtracker/internal/telemetry/tracing"
	"github.com/sdelgado/gymtracker/pkg"
)

type groupsRepo interface {
	ListVisible(ctx context.Context, userID int) ([]MuscleGroup, error)
	Get(ctx context.Context, id int) (*MuscleGroup, error)
	GetOwnByName(ctx context.Context, userID int, name string) (*MuscleGroup, error)
	Add(ctx context.Context, group MuscleGroup) (*MuscleGroup, error)
	Update(ctx context.Context, group *MuscleGroup) error
	Delete(ctx context.Context, id int) error
	TemplatesCount(ctx context.Context, groupID int) (int, error)
}

type AddGroupRequest struct {
	Name     string `json:"name"`
	IsPublic bool   `json:"isPublic"`
}

type UpdateGroupRequest struct {
	Name     *string `json:"name"`
	IsPublic *bool   `json:"isPublic"`
}

type Handler struct {
	repo groupsRepo
}

func NewHandler(repo groupsRepo) *Handler {
	return &Handler{
		repo: repo,
	}
}

func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.musclegroups.list")
	defer span.End()

	claims, ok := auth.ClaimsFromContext(ctx)
	if !ok {
		pkg.WriteJSONError(w, "access denied", http.StatusUnauthorized)
		return
	}

	groups, err := handler.repo.ListVisible(ctx, claims.UserID)
	if err != nil {
		log.Errorf("list muscle groups for user %d: %s", claims.UserID, err)
		pkg.WriteJSONError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	groupsJson, err := json.Marshal(groups)
	if err != nil {
		log.Errorf("marshal muscle groups: %s", err)
		pkg.WriteJSONError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, groupsJson)
}

func (handler *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.musclegroups.add")
	defer span.End()

	claims, ok := auth.ClaimsFromContext(ctx)
	if !ok {
		pkg.WriteJSONError(w, "access denied", http.StatusUnauthorized)
		return
	}

	var addReq AddGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&addReq); err != nil {
		log.Tracef("new muscle group, unmarshal json params: %s", err)
		pkg.WriteJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if addReq.Name == "" {
		pkg.WriteJSONError(w, "muscle group name required", http.StatusBadRequest)
		return
	}

	_, err := handler.repo.GetOwnByName(ctx, claims.UserID, addReq.Name)
	if err == nil {
		pkg.WriteJSONError(w, "you already have a muscle group with that name", http.StatusBadRequest)
		return
	}
	if !errors.Is(err, ErrGroupNotFound) {
		log.Errorf("new muscle group, check name [%s] for user %d: %s", addReq.Name, claims.UserID, err)
		pkg.WriteJSONError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	group, err := handler.repo.Add(ctx, MuscleGroup{
		Name:     addReq.Name,
		UserID:   claims.UserID,
		IsPublic: addReq.IsPublic,
	})
	if err != nil {
		log.Errorf("failed to add muscle group [%s] for user %d: %s", addReq.Name, claims.UserID, err)
		pkg.WriteJSONError(w, "failed to add muscle group", http.StatusInternalServerError)
		return
	}

	groupJson, err := json.Marshal(group)
	if err != nil {
		log.Errorf("marshal new muscle group: %s", err)
		pkg.WriteJSONError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	log.Debugf("new muscle group added: %s", groupJson)
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, groupJson, http.StatusCreated)
}

func (handler *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.musclegroups.update")
	defer span.End()

	claims, ok := auth.ClaimsFromContext(ctx)
	if !ok {
		pkg.WriteJSONError(w, "access denied", http.StatusUnauthorized)
		return
	}

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		pkg.WriteJSONError(w, "invalid muscle group id", http.StatusBadRequest)
		return
	}

	var updateReq UpdateGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&updateReq); err != nil {
		log.Tracef("update muscle group, unmarshal json params: %s", err)
		pkg.WriteJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	group, err := handler.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrGroupNotFound) {
			pkg.WriteJSONError(w, "muscle group not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to get muscle group %d: %s", id, err)
		pkg.WriteJSONError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	if group.UserID != claims.UserID {
		pkg.WriteJSONError(w, "not allowed to modify this muscle group", http.StatusForbidden)
		return
	}

	// partial update, absent fields keep their current value
	if updateReq.Name != nil && *updateReq.Name != "" {
		group.Name = *updateReq.Name
	}
	if updateReq.IsPublic != nil {
		group.IsPublic = *updateReq.IsPublic
	}

	if err := handler.repo.Update(ctx, group); err != nil {
		log.Errorf("failed to update muscle group %d: %s", id, err)
		pkg.WriteJSONError(w, "failed to update muscle group", http.StatusInternalServerError)
		return
	}

	groupJson, err := json.Marshal(group)
	if err != nil {
		log.Errorf("marshal updated muscle group: %s", err)
		pkg.WriteJSONError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, groupJson)
}

func (handler *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.musclegroups.delete")
	defer span.End()

	claims, ok := auth.ClaimsFromContext(ctx)
	if !ok {
		pkg.WriteJSONError(w, "access denied", http.StatusUnauthorized)
		return
	}

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		pkg.WriteJSONError(w, "invalid muscle group id", http.StatusBadRequest)
		return
	}

	group, err := handler.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrGroupNotFound) {
			pkg.WriteJSONError(w, "muscle group not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to get muscle group %d: %s", id, err)
		pkg.WriteJSONError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	if group.UserID != claims.UserID {
		pkg.WriteJSONError(w, "not allowed to delete this muscle group", http.StatusForbidden)
		return
	}

	templatesCount, err := handler.repo.TemplatesCount(ctx, id)
	if err != nil {
		log.Errorf("failed to count templates of muscle group %d: %s", id, err)
		pkg.WriteJSONError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if templatesCount > 0 {
		pkg.WriteJSONError(w, "muscle group still has exercises and cannot be deleted", http.StatusBadRequest)
		return
	}

	if err := handler.repo.Delete(ctx, id); err != nil {
		log.Errorf("failed to delete muscle group %d: %s", id, err)
		pkg.WriteJSONError(w, "failed to delete muscle group", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSONResponseOK(w, `{"message":"muscle group deleted"}`)
}
