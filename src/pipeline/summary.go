package pipeline

import (
	"time"

	"github.com/khabaroff/roster-console/src/models"
)

// NewUserWindow is how far back a user counts as new in the summary
const NewUserWindow = 7 * 24 * time.Hour

// Summary holds the headline counts shown above the roster
type Summary struct {
	Total       int `json:"total"`
	Active      int `json:"active"`
	Inactive    int `json:"inactive"`
	Admins      int `json:"admins"`
	Users       int `json:"users"`
	NewThisWeek int `json:"new_this_week"`
}

// Summarize counts users over the whole roster, ignoring filters
func Summarize(users []models.User, now time.Time) Summary {
	s := Summary{Total: len(users)}
	cutoff := now.Add(-NewUserWindow)

	for i := range users {
		u := &users[i]
		if u.Active {
			s.Active++
		} else {
			s.Inactive++
		}
		switch u.Role {
		case models.RoleAdmin:
			s.Admins++
		case models.RoleUser:
			s.Users++
		}
		if !u.CreatedAt.IsZero() && !u.CreatedAt.Before(cutoff) {
			s.NewThisWeek++
		}
	}

	return s
}
