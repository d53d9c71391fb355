package exercises

import (
	"time"

	"github.com/sdelgado/gymtracker/internal/musclegroups"
)

// Template is a named exercise definition belonging to a muscle group.
// Workout line items point at the template that matched their name.
type Template struct {
	ID            int       `json:"id"`
	Name          string    `json:"name"`
	MuscleGroupID int       `json:"muscleGroupId"`
	UserID        int       `json:"userId"`
	IsPublic      bool      `json:"isPublic"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`

	// MuscleGroup is attached on list and get responses, nil elsewhere.
	MuscleGroup *musclegroups.MuscleGroup `json:"muscleGroup,omitempty"`
}
