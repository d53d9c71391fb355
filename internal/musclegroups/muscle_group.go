package musclegroups

import "time"

// MuscleGroup is a user-defined (or public) category tagging exercises,
// e.g. "Pierna". The catch-all "Otros" group receives templates lazily
// created during workout logging.
type MuscleGroup struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	UserID    int       `json:"userId"`
	IsPublic  bool      `json:"isPublic"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
