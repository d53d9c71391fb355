package stats

import "time"

// RankEntry is one user's best recorded weight for an exercise, together
// with the workout date it was achieved on.
type RankEntry struct {
	UserID int       `json:"userId"`
	Name   string    `json:"name"`
	Weight float64   `json:"weight"`
	Date   time.Time `json:"date"`
}
