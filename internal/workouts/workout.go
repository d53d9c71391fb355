package workouts

import "time"

// Workout is one dated training session owned by a user.
type Workout struct {
	ID        int       `json:"id"`
	Date      time.Time `json:"date"`
	Notes     string    `json:"notes,omitempty"`
	UserID    int       `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Exercises []Exercise `json:"exercises"`
}

// Exercise is one logged line item of a workout: sets x reps at a weight,
// pointing at the exercise template it was resolved to. Name is the
// template's display name, attached on reads.
type Exercise struct {
	ID                 int     `json:"id"`
	Name               string  `json:"name"`
	Sets               int     `json:"sets"`
	Reps               int     `json:"reps"`
	Weight             float64 `json:"weight"`
	Notes              string  `json:"notes,omitempty"`
	WorkoutID          int     `json:"workoutId"`
	ExerciseTemplateID int     `json:"exerciseTemplateId"`
}
