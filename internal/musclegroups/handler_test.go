package musclegroups

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
)

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
	repo := NewRepoMock()
	_, err := repo.Add(context.Background(), MuscleGroup{Name: "Pierna", UserID: 1, IsPublic: false})
	require.NoError(t, err)
	_, err = repo.Add(context.Background(), MuscleGroup{Name: "Espalda", UserID: 2, IsPublic: true})
	require.NoError(t, err)
	_, err = repo.Add(context.Background(), MuscleGroup{Name: "Secreto", UserID: 2, IsPublic: false})
	require.NoError(t, err)

	handler := NewHandler(repo)
	req := authedRequest(t, 1, "GET", "/muscle-groups", nil)
	rr := httptest.NewRecorder()
	handler.HandleList(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var groups []MuscleGroup
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &groups))
	// own groups first, foreign private groups hidden
	require.Len(t, groups, 2)
	assert.Equal(t, "Pierna", groups[0].Name)
	assert.Equal(t, "Espalda", groups[1].Name)
}

func TestHandleAdd(t *testing.T) {
	repo := NewRepoMock()
	handler := NewHandler(repo)

	reqBody := []byte(`{"name":"Hombros","isPublic":false}`)
	req := authedRequest(t, 1, "POST", "/muscle-groups", reqBody)
	rr := httptest.NewRecorder()
	handler.HandleAdd(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)
	var group MuscleGroup
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &group))
	assert.Equal(t, "Hombros", group.Name)
	assert.Equal(t, 1, group.UserID)
	assert.False(t, group.IsPublic)
	assert.Len(t, repo.Groups, 1)
}

func TestHandleAdd_nameMissing(t *testing.T) {
	handler := NewHandler(NewRepoMock())

	req := authedRequest(t, 1, "POST", "/muscle-groups", []byte(`{"isPublic":true}`))
	rr := httptest.NewRecorder()
	handler.HandleAdd(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "muscle group name required")
}

func TestHandleAdd_duplicateName(t *testing.T) {
	repo := NewRepoMock()
	_, err := repo.Add(context.Background(), MuscleGroup{Name: "Pierna", UserID: 1})
	require.NoError(t, err)
	handler := NewHandler(repo)

	req := authedRequest(t, 1, "POST", "/muscle-groups", []byte(`{"name":"Pierna"}`))
	rr := httptest.NewRecorder()
	handler.HandleAdd(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "already have a muscle group")

	// same name owned by somebody else is fine
	req = authedRequest(t, 2, "POST", "/muscle-groups", []byte(`{"name":"Pierna"}`))
	rr = httptest.NewRecorder()
	handler.HandleAdd(rr, req)
	assert.Equal(t, http.StatusCreated, rr.Code)
}

func TestHandleUpdate(t *testing.T) {
	repo := NewRepoMock()
	group, err := repo.Add(context.Background(), MuscleGroup{Name: "Pierna", UserID: 1, IsPublic: false})
	require.NoError(t, err)
	handler := NewHandler(repo)

	req := authedRequest(t, 1, "PUT", fmt.Sprintf("/muscle-groups/%d", group.ID), []byte(`{"isPublic":true}`))
	req = mux.SetURLVars(req, map[string]string{"id": fmt.Sprintf("%d", group.ID)})
	rr := httptest.NewRecorder()
	handler.HandleUpdate(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var updated MuscleGroup
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &updated))
	// name untouched, only isPublic flipped
	assert.Equal(t, "Pierna", updated.Name)
	assert.True(t, updated.IsPublic)
	assert.True(t, repo.Groups[group.ID].IsPublic)
}

func TestHandleUpdate_notOwner(t *testing.T) {
	repo := NewRepoMock()
	group, err := repo.Add(context.Background(), MuscleGroup{Name: "Pierna", UserID: 1})
	require.NoError(t, err)
	handler := NewHandler(repo)

	req := authedRequest(t, 2, "PUT", fmt.Sprintf("/muscle-groups/%d", group.ID), []byte(`{"name":"Mia"}`))
	req = mux.SetURLVars(req, map[string]string{"id": fmt.Sprintf("%d", group.ID)})
	rr := httptest.NewRecorder()
	handler.HandleUpdate(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, "Pierna", repo.Groups[group.ID].Name)
}

func TestHandleUpdate_notFound(t *testing.T) {
	handler := NewHandler(NewRepoMock())

	req := authedRequest(t, 1, "PUT", "/muscle-groups/42", []byte(`{"name":"Mia"}`))
	req = mux.SetURLVars(req, map[string]string{"id": "42"})
	rr := httptest.NewRecorder()
	handler.HandleUpdate(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandleDelete(t *testing.T) {
	repo := NewRepoMock()
	group, err := repo.Add(context.Background(), MuscleGroup{Name: "Pierna", UserID: 1})
	require.NoError(t, err)
	handler := NewHandler(repo)

	req := authedRequest(t, 1, "DELETE", fmt.Sprintf("/muscle-groups/%d", group.ID), nil)
	req = mux.SetURLVars(req, map[string]string{"id": fmt.Sprintf("%d", group.ID)})
	rr := httptest.NewRecorder()
	handler.HandleDelete(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "muscle group deleted")
	assert.Empty(t, repo.Groups)
}

func TestHandleDelete_stillHasExercises(t *testing.T) {
	repo := NewRepoMock()
	group, err := repo.Add(context.Background(), MuscleGroup{Name: "Pierna", UserID: 1})
	require.NoError(t, err)
	repo.TemplateCounts[group.ID] = 3
	handler := NewHandler(repo)

	req := authedRequest(t, 1, "DELETE", fmt.Sprintf("/muscle-groups/%d", group.ID), nil)
	req = mux.SetURLVars(req, map[string]string{"id": fmt.Sprintf("%d", group.ID)})
	rr := httptest.NewRecorder()
	handler.HandleDelete(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "cannot be deleted")
	assert.Len(t, repo.Groups, 1)
}

func TestHandleDelete_notOwner(t *testing.T) {
	repo := NewRepoMock()
	group, err := repo.Add(context.Background(), MuscleGroup{Name: "Pierna", UserID: 1})
	require.NoError(t, err)
	handler := NewHandler(repo)

	req := authedRequest(t, 2, "DELETE", fmt.Sprintf("/muscle-groups/%d", group.ID), nil)
	req = mux.SetURLVars(req, map[string]string{"id": fmt.Sprintf("%d", group.ID)})
	rr := httptest.NewRecorder()
	handler.HandleDelete(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Len(t, repo.Groups, 1)
}
