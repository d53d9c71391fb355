package workouts

import (
	"context"
	"sort"
	"sync"
	"time"
)

var _ workoutsRepo = (*repoMock)(nil)

type repoMock struct {
	Workouts  map[int]*Workout
	Exercises map[int]*Exercise
	nextID    int
	mutex     sync.Mutex
}

func newRepoMock() *repoMock {
	return &repoMock{
		Workouts:  make(map[int]*Workout),
		Exercises: make(map[int]*Exercise),
		nextID:    1,
	}
}

func (r *repoMock) ListForUser(_ context.Context, userID int) ([]Workout, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	workouts := make([]Workout, 0)
	for _, w := range r.Workouts {
		if w.UserID != userID {
			continue
		}
		workoutCopy := *w
		workoutCopy.Exercises = r.exercisesOf(w.ID)
		workouts = append(workouts, workoutCopy)
	}
	sort.Slice(workouts, func(i, j int) bool {
		if !workouts[i].Date.Equal(workouts[j].Date) {
			return workouts[i].Date.After(workouts[j].Date)
		}
		return workouts[i].ID > workouts[j].ID
	})
	return workouts, nil
}

func (r *repoMock) Get(_ context.Context, id int) (*Workout, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	w, ok := r.Workouts[id]
	if !ok {
		return nil, ErrWorkoutNotFound
	}
	workoutCopy := *w
	workoutCopy.Exercises = r.exercisesOf(id)
	return &workoutCopy, nil
}

func (r *repoMock) Add(_ context.Context, workout Workout) (*Workout, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	workout.ID = r.nextID
	r.nextID++
	workout.CreatedAt = time.Now()
	workout.UpdatedAt = workout.CreatedAt
	workout.Exercises = make([]Exercise, 0)
	r.Workouts[workout.ID] = &workout

	workoutCopy := workout
	return &workoutCopy, nil
}

func (r *repoMock) AddExercise(_ context.Context, exercise Exercise) (*Exercise, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	exercise.ID = r.nextID
	r.nextID++
	r.Exercises[exercise.ID] = &exercise

	exerciseCopy := exercise
	return &exerciseCopy, nil
}

func (r *repoMock) Delete(_ context.Context, id int) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, ok := r.Workouts[id]; !ok {
		return ErrWorkoutNotFound
	}
	for exID, e := range r.Exercises {
		if e.WorkoutID == id {
			delete(r.Exercises, exID)
		}
	}
	delete(r.Workouts, id)
	return nil
}

func (r *repoMock) exercisesOf(workoutID int) []Exercise {
	items := make([]Exercise, 0)
	for _, e := range r.Exercises {
		if e.WorkoutID == workoutID {
			items = append(items, *e)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].ID < items[j].ID
	})
	return items
}
