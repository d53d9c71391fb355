package exercises

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sdelgado/gymtracker/internal/auth"
	"github.com/sdelgado/gymtracker/internal/musclegroups"
)

type handlerTestSetup struct {
	repo    *RepoMock
	groups  *musclegroups.RepoMock
	handler *Handler
	groupID int
}

func newHandlerTestSetup(t *testing.T) *handlerTestSetup {
	t.Helper()
	repo := NewRepoMock()
	groups := musclegroups.NewRepoMock()
	group, err := groups.Add(context.Background(), musclegroups.MuscleGroup{Name: "Pierna", UserID: 1})
	require.NoError(t, err)
	return &handlerTestSetup{
		repo:    repo,
		groups:  groups,
		handler: NewHandler(repo, groups),
		groupID: group.ID,
	}
}

func authedRequest(t *testing.T, userID int, method, target string, body []byte) *http.Request {
	t.Helper()
	req, err := http.NewRequest(method, target, bytes.NewReader(body))
	require.NoError(t, err)
	ctx := auth.ContextWithClaims(req.Context(), &auth.Claims{
		UserID: userID,
		Email:  fmt.Sprintf("user%d@test.com", userID),
	})
	return req.WithContext(ctx)
}

func TestHandleList(t *testing.T) {
	setup := newHandlerTestSetup(t)
	otherGroup, err := setup.groups.Add(context.Background(), musclegroups.MuscleGroup{Name: "Pecho", UserID: 1})
	require.NoError(t, err)

	_, err = setup.repo.Add(context.Background(), Template{Name: "Sentadilla", MuscleGroupID: setup.groupID, UserID: 1})
	require.NoError(t, err)
	_, err = setup.repo.Add(context.Background(), Template{Name: "Press banca", MuscleGroupID: otherGroup.ID, UserID: 1})
	require.NoError(t, err)
	_, err = setup.repo.Add(context.Background(), Template{Name: "Peso muerto", MuscleGroupID: setup.groupID, UserID: 2, IsPublic: true})
	require.NoError(t, err)
	_, err = setup.repo.Add(context.Background(), Template{Name: "Ejercicio secreto", MuscleGroupID: setup.groupID, UserID: 2})
	require.NoError(t, err)

	req := authedRequest(t, 1, "GET", "/exercises", nil)
	rr := httptest.NewRecorder()
	setup.handler.HandleList(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var templates []Template
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &templates))
	require.Len(t, templates, 3)
	assert.Equal(t, "Press banca", templates[0].Name)
	assert.Equal(t, "Sentadilla", templates[1].Name)
	assert.Equal(t, "Peso muerto", templates[2].Name)

	// narrowed to one muscle group
	req = authedRequest(t, 1, "GET", fmt.Sprintf("/exercises?muscleGroupId=%d", setup.groupID), nil)
	rr = httptest.NewRecorder()
	setup.handler.HandleList(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &templates))
	require.Len(t, templates, 2)
	assert.Equal(t, "Sentadilla", templates[0].Name)
	assert.Equal(t, "Peso muerto", templates[1].Name)
}

func TestHandleList_invalidGroupFilter(t *testing.T) {
	setup := newHandlerTestSetup(t)

	req := authedRequest(t, 1, "GET", "/exercises?muscleGroupId=pierna", nil)
	rr := httptest.NewRecorder()
	setup.handler.HandleList(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandleAdd(t *testing.T) {
	setup := newHandlerTestSetup(t)

	reqBody := []byte(fmt.Sprintf(`{"name":"Sentadilla","muscleGroupId":%d,"isPublic":true}`, setup.groupID))
	req := authedRequest(t, 1, "POST", "/exercises", reqBody)
	rr := httptest.NewRecorder()
	setup.handler.HandleAdd(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)
	var template Template
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &template))
	assert.Equal(t, "Sentadilla", template.Name)
	assert.Equal(t, setup.groupID, template.MuscleGroupID)
	assert.Equal(t, 1, template.UserID)
	assert.True(t, template.IsPublic)
}

func TestHandleAdd_validation(t *testing.T) {
	setup := newHandlerTestSetup(t)

	req := authedRequest(t, 1, "POST", "/exercises", []byte(fmt.Sprintf(`{"muscleGroupId":%d}`, setup.groupID)))
	rr := httptest.NewRecorder()
	setup.handler.HandleAdd(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "exercise name required")

	req = authedRequest(t, 1, "POST", "/exercises", []byte(`{"name":"Sentadilla"}`))
	rr = httptest.NewRecorder()
	setup.handler.HandleAdd(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "muscle group id required")
}

func TestHandleAdd_groupMissing(t *testing.T) {
	setup := newHandlerTestSetup(t)

	req := authedRequest(t, 1, "POST", "/exercises", []byte(`{"name":"Sentadilla","muscleGroupId":42}`))
	rr := httptest.NewRecorder()
	setup.handler.HandleAdd(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "muscle group not found")
	assert.Empty(t, setup.repo.Templates)
}

func TestHandleAdd_duplicateName(t *testing.T) {
	setup := newHandlerTestSetup(t)
	_, err := setup.repo.Add(context.Background(), Template{Name: "Sentadilla", MuscleGroupID: setup.groupID, UserID: 1})
	require.NoError(t, err)

	reqBody := []byte(fmt.Sprintf(`{"name":"Sentadilla","muscleGroupId":%d}`, setup.groupID))
	req := authedRequest(t, 1, "POST", "/exercises", reqBody)
	rr := httptest.NewRecorder()
	setup.handler.HandleAdd(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "already have an exercise")

	// another user is free to use the same name
	req = authedRequest(t, 2, "POST", "/exercises", reqBody)
	rr = httptest.NewRecorder()
	setup.handler.HandleAdd(rr, req)
	assert.Equal(t, http.StatusCreated, rr.Code)
}

func TestHandleUpdate(t *testing.T) {
	setup := newHandlerTestSetup(t)
	template, err := setup.repo.Add(context.Background(), Template{Name: "Sentadilla", MuscleGroupID: setup.groupID, UserID: 1})
	require.NoError(t, err)

	req := authedRequest(t, 1, "PUT", fmt.Sprintf("/exercises/%d", template.ID), []byte(`{"name":"Sentadilla profunda"}`))
	req = mux.SetURLVars(req, map[string]string{"id": fmt.Sprintf("%d", template.ID)})
	rr := httptest.NewRecorder()
	setup.handler.HandleUpdate(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var updated Template
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &updated))
	assert.Equal(t, "Sentadilla profunda", updated.Name)
	// untouched fields keep their values
	assert.Equal(t, setup.groupID, updated.MuscleGroupID)
	assert.False(t, updated.IsPublic)
}

func TestHandleUpdate_moveToMissingGroup(t *testing.T) {
	setup := newHandlerTestSetup(t)
	template, err := setup.repo.Add(context.Background(), Template{Name: "Sentadilla", MuscleGroupID: setup.groupID, UserID: 1})
	require.NoError(t, err)

	req := authedRequest(t, 1, "PUT", fmt.Sprintf("/exercises/%d", template.ID), []byte(`{"muscleGroupId":42}`))
	req = mux.SetURLVars(req, map[string]string{"id": fmt.Sprintf("%d", template.ID)})
	rr := httptest.NewRecorder()
	setup.handler.HandleUpdate(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, setup.groupID, setup.repo.Templates[template.ID].MuscleGroupID)
}

func TestHandleUpdate_notOwner(t *testing.T) {
	setup := newHandlerTestSetup(t)
	template, err := setup.repo.Add(context.Background(), Template{Name: "Sentadilla", MuscleGroupID: setup.groupID, UserID: 1, IsPublic: true})
	require.NoError(t, err)

	req := authedRequest(t, 2, "PUT", fmt.Sprintf("/exercises/%d", template.ID), []byte(`{"name":"Mio"}`))
	req = mux.SetURLVars(req, map[string]string{"id": fmt.Sprintf("%d", template.ID)})
	rr := httptest.NewRecorder()
	setup.handler.HandleUpdate(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, "Sentadilla", setup.repo.Templates[template.ID].Name)
}

func TestHandleDelete(t *testing.T) {
	setup := newHandlerTestSetup(t)
	template, err := setup.repo.Add(context.Background(), Template{Name: "Sentadilla", MuscleGroupID: setup.groupID, UserID: 1})
	require.NoError(t, err)

	req := authedRequest(t, 1, "DELETE", fmt.Sprintf("/exercises/%d", template.ID), nil)
	req = mux.SetURLVars(req, map[string]string{"id": fmt.Sprintf("%d", template.ID)})
	rr := httptest.NewRecorder()
	setup.handler.HandleDelete(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "exercise deleted")
	assert.Empty(t, setup.repo.Templates)
}

func TestHandleDelete_inUse(t *testing.T) {
	setup := newHandlerTestSetup(t)
	template, err := setup.repo.Add(context.Background(), Template{Name: "Sentadilla", MuscleGroupID: setup.groupID, UserID: 1})
	require.NoError(t, err)
	setup.repo.UsageCounts[template.ID] = 7

	req := authedRequest(t, 1, "DELETE", fmt.Sprintf("/exercises/%d", template.ID), nil)
	req = mux.SetURLVars(req, map[string]string{"id": fmt.Sprintf("%d", template.ID)})
	rr := httptest.NewRecorder()
	setup.handler.HandleDelete(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "cannot be deleted")
	assert.Len(t, setup.repo.Templates, 1)
}

func TestHandleDelete_notFound(t *testing.T) {
	setup := newHandlerTestSetup(t)

	req := authedRequest(t, 1, "DELETE", "/exercises/42", nil)
	req = mux.SetURLVars(req, map[string]string{"id": "42"})
	rr := httptest.NewRecorder()
	setup.handler.HandleDelete(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}
