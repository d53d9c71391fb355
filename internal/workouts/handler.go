package workouts

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/sdelgado/gymtracker/internal/auth"
	"github.com/sdelgado/gymtracker/internal/exercises"
	"github.com/sdelgado/gymtracker/internal/telemetry/metrics"
	"github.com/sdelgado/gymtracker/internal/telemetry/tracing"
	"github.com/sdelgado/gymtracker/pkg"
)

type workoutsRepo interface {
	ListForUser(ctx context.Context, userID int) ([]Workout, error)
	Get(ctx context.Context, id int) (*Workout, error)
	Add(ctx context.Context, workout Workout) (*Workout, error)
	AddExercise(ctx context.Context, exercise Exercise) (*Exercise, error)
	Delete(ctx context.Context, id int) error
}

type templateResolver interface {
	Resolve(ctx context.Context, userID int, name string) (*exercises.Template, error)
}

type Handler struct {
	repo           workoutsRepo
	resolver       templateResolver
	metricsManager *metrics.Manager
	nowFunc        func() time.Time
}

func NewHandler(repo workoutsRepo, resolver templateResolver, metricsManager *metrics.Manager) *Handler {
	return &Handler{
		repo:           repo,
		resolver:       resolver,
		metricsManager: metricsManager,
		nowFunc:        time.Now,
	}
}

func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.list")
	defer span.End()

	claims, ok := auth.ClaimsFromContext(ctx)
	if !ok {
		pkg.WriteJSONError(w, "access denied", http.StatusUnauthorized)
		return
	}

	workouts, err := handler.repo.ListForUser(ctx, claims.UserID)
	if err != nil {
		log.Errorf("list workouts for user %d: %s", claims.UserID, err)
		pkg.WriteJSONError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	workoutsJson, err := json.Marshal(workouts)
	if err != nil {
		log.Errorf("marshal workouts: %s", err)
		pkg.WriteJSONError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, workoutsJson)
}

func (handler *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.get")
	defer span.End()

	claims, ok := auth.ClaimsFromContext(ctx)
	if !ok {
		pkg.WriteJSONError(w, "access denied", http.StatusUnauthorized)
		return
	}

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		pkg.WriteJSONError(w, "invalid workout id", http.StatusBadRequest)
		return
	}

	workout, err := handler.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrWorkoutNotFound) {
			pkg.WriteJSONError(w, "workout not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to get workout %d: %s", id, err)
		pkg.WriteJSONError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	// foreign workouts are visible-but-forbidden, not hidden
	if workout.UserID != claims.UserID {
		pkg.WriteJSONError(w, "not allowed to view this workout", http.StatusForbidden)
		return
	}

	workoutJson, err := json.Marshal(workout)
	if err != nil {
		log.Errorf("marshal workout: %s", err)
		pkg.WriteJSONError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, workoutJson)
}

func (handler *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.add")
	defer span.End()

	claims, ok := auth.ClaimsFromContext(ctx)
	if !ok {
		pkg.WriteJSONError(w, "access denied", http.StatusUnauthorized)
		return
	}

	var addReq AddWorkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&addReq); err != nil {
		log.Tracef("new workout, unmarshal json params: %s", err)
		pkg.WriteJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if len(addReq.Exercises) == 0 {
		pkg.WriteJSONError(w, "workout needs at least one exercise", http.StatusBadRequest)
		return
	}
	if err := validateEntries(addReq.Exercises); err != nil {
		pkg.WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	date := addReq.Date.Or(handler.nowFunc())

	workout, err := handler.repo.Add(ctx, Workout{
		Date:   date,
		Notes:  addReq.Notes,
		UserID: claims.UserID,
	})
	if err != nil {
		log.Errorf("failed to add workout for user %d: %s", claims.UserID, err)
		pkg.WriteJSONError(w, "failed to add workout", http.StatusInternalServerError)
		return
	}

	items, err := handler.insertEntries(ctx, claims.UserID, workout.ID, addReq.Exercises)
	if err != nil {
		log.Errorf("failed to add workout exercises for user %d: %s", claims.UserID, err)
		pkg.WriteJSONError(w, "failed to add workout exercises", http.StatusInternalServerError)
		return
	}
	workout.Exercises = items

	workoutJson, err := json.Marshal(workout)
	if err != nil {
		log.Errorf("marshal new workout: %s", err)
		pkg.WriteJSONError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	handler.metricsManager.CounterWorkouts.Inc()
	log.Debugf("new workout %d added for user %d", workout.ID, claims.UserID)
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, workoutJson, http.StatusCreated)
}

func (handler *Handler) HandleAppendExercises(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.appendexercises")
	defer span.End()

	claims, ok := auth.ClaimsFromContext(ctx)
	if !ok {
		pkg.WriteJSONError(w, "access denied", http.StatusUnauthorized)
		return
	}

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		pkg.WriteJSONError(w, "invalid workout id", http.StatusBadRequest)
		return
	}

	var appendReq AppendExercisesRequest
	if err := json.NewDecoder(r.Body).Decode(&appendReq); err != nil {
		log.Tracef("append workout exercises, unmarshal json params: %s", err)
		pkg.WriteJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	// existence and ownership answered before any payload complaints
	workout, err := handler.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrWorkoutNotFound) {
			pkg.WriteJSONError(w, "workout not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to get workout %d: %s", id, err)
		pkg.WriteJSONError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	if workout.UserID != claims.UserID {
		pkg.WriteJSONError(w, "not allowed to modify this workout", http.StatusForbidden)
		return
	}

	if len(appendReq.Exercises) == 0 {
		pkg.WriteJSONError(w, "workout needs at least one exercise", http.StatusBadRequest)
		return
	}
	if err := validateEntries(appendReq.Exercises); err != nil {
		pkg.WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	items, err := handler.insertEntries(ctx, claims.UserID, workout.ID, appendReq.Exercises)
	if err != nil {
		log.Errorf("failed to append workout exercises for user %d: %s", claims.UserID, err)
		pkg.WriteJSONError(w, "failed to add workout exercises", http.StatusInternalServerError)
		return
	}
	workout.Exercises = append(workout.Exercises, items...)

	workoutJson, err := json.Marshal(workout)
	if err != nil {
		log.Errorf("marshal workout: %s", err)
		pkg.WriteJSONError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, workoutJson)
}

func (handler *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.delete")
	defer span.End()

	claims, ok := auth.ClaimsFromContext(ctx)
	if !ok {
		pkg.WriteJSONError(w, "access denied", http.StatusUnauthorized)
		return
	}

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		pkg.WriteJSONError(w, "invalid workout id", http.StatusBadRequest)
		return
	}

	workout, err := handler.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrWorkoutNotFound) {
			pkg.WriteJSONError(w, "workout not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to get workout %d: %s", id, err)
		pkg.WriteJSONError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	if workout.UserID != claims.UserID {
		pkg.WriteJSONError(w, "not allowed to delete this workout", http.StatusForbidden)
		return
	}

	if err := handler.repo.Delete(ctx, id); err != nil {
		log.Errorf("failed to delete workout %d: %s", id, err)
		pkg.WriteJSONError(w, "failed to delete workout", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSONResponseOK(w, `{"message":"workout deleted"}`)
}

// validateEntries rejects entries missing a name, sets or reps. A
// non-numeric but non-empty sets/reps value passes and falls back to the
// default during coercion.
func validateEntries(entries []ExerciseEntry) error {
	for _, entry := range entries {
		if entry.Name == "" || !entry.Sets.Provided() || !entry.Reps.Provided() {
			return errors.New("each exercise needs a name, sets and reps")
		}
	}
	return nil
}

func (handler *Handler) insertEntries(
	ctx context.Context,
	userID, workoutID int,
	entries []ExerciseEntry,
) ([]Exercise, error) {
	items := make([]Exercise, 0, len(entries))
	for _, entry := range entries {
		template, err := handler.resolver.Resolve(ctx, userID, entry.Name)
		if err != nil {
			return nil, err
		}

		exercise, err := handler.repo.AddExercise(ctx, Exercise{
			Name:               template.Name,
			Sets:               entry.Sets.IntOr(3),
			Reps:               entry.Reps.IntOr(8),
			Weight:             entry.Weight.FloatOr(0),
			Notes:              entry.Notes,
			WorkoutID:          workoutID,
			ExerciseTemplateID: template.ID,
		})
		if err != nil {
			return nil, err
		}
		items = append(items, *exercise)
	}
	return items, nil
}
