package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sdelgado/gymtracker/internal/middleware"
	"github.com/sdelgado/gymtracker/internal/telemetry/metrics"
)

func TestPanicRecovery(t *testing.T) {
	handler := middleware.PanicRecovery(metrics.NewTestManager())(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("oops")
		}),
	)

	req := httptest.NewRequest("GET", "/workouts", nil)
	rec := httptest.NewRecorder()

	assert.NotPanics(t, func() {
		handler.ServeHTTP(rec, req)
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestPanicRecovery_NoPanic(t *testing.T) {
	handler := middleware.PanicRecovery(metrics.NewTestManager())(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}),
	)

	req := httptest.NewRequest("GET", "/workouts", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTeapot, rec.Code)
}
