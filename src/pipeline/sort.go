package pipeline

import (
	"slices"

	"github.com/khabaroff/roster-console/src/models"
)

// SortDirection orders the roster by creation time
type SortDirection string

const (
	// SortDesc shows the newest records first (default)
	SortDesc SortDirection = "desc"
	// SortAsc shows the oldest records first
	SortAsc SortDirection = "asc"
)

// Toggle returns the opposite direction
func (d SortDirection) Toggle() SortDirection {
	if d == SortAsc {
		return SortDesc
	}
	return SortAsc
}

// SortUsers returns a copy of users ordered by CreatedAt in the given direction.
// Zero timestamps sort as the epoch. Ties keep their input order.
func SortUsers(users []models.User, dir SortDirection) []models.User {
	out := slices.Clone(users)
	slices.SortStableFunc(out, func(a, b models.User) int {
		ta, tb := unixMilli(a), unixMilli(b)
		if dir == SortAsc {
			return cmpInt64(ta, tb)
		}
		return cmpInt64(tb, ta)
	})
	return out
}

func unixMilli(u models.User) int64 {
	if u.CreatedAt.IsZero() {
		return 0
	}
	return u.CreatedAt.UnixMilli()
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
