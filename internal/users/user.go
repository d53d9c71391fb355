package users

import "time"

type User struct {
	ID        int       `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	GoogleID  string    `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
}
