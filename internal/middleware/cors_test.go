package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sdelgado/gymtracker/internal/middleware"
)

func corsNoopHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestCors_AllowedOrigin(t *testing.T) {
	handler := middleware.Cors([]string{"https://gym-tracker-client.vercel.app"})(corsNoopHandler())

	req := httptest.NewRequest("GET", "/muscle-groups", nil)
	req.Header.Set("Origin", "https://gym-tracker-client.vercel.app")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "https://gym-tracker-client.vercel.app", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCors_UnknownOrigin(t *testing.T) {
	handler := middleware.Cors([]string{"https://gym-tracker-client.vercel.app"})(corsNoopHandler())

	req := httptest.NewRequest("GET", "/muscle-groups", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCors_PreviewDeployment(t *testing.T) {
	handler := middleware.Cors([]string{"https://gym-tracker-client.vercel.app"})(corsNoopHandler())

	req := httptest.NewRequest("GET", "/muscle-groups", nil)
	req.Header.Set("Origin", "https://gym-tracker-client-git-main.vercel.app")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "https://gym-tracker-client-git-main.vercel.app", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCors_EmptyAllowListPermitsAll(t *testing.T) {
	handler := middleware.Cors(nil)(corsNoopHandler())

	req := httptest.NewRequest("GET", "/muscle-groups", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
