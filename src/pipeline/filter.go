package pipeline

import (
	"strings"

	"github.com/khabaroff/roster-console/src/models"
)

// RosterFilter is the three-dimensional filter applied to the user roster.
// An empty inclusion set hides every record for that dimension.
type RosterFilter struct {
	Search   string
	Roles    Set
	Statuses Set
}

// NewRosterFilter returns the initial filter: no search, every role and status included
func NewRosterFilter() RosterFilter {
	return RosterFilter{
		Roles:    NewSet(string(models.RoleAdmin), string(models.RoleUser)),
		Statuses: NewSet(string(models.StatusActive), string(models.StatusInactive)),
	}
}

// Matches reports whether the user is visible under the filter
func (f RosterFilter) Matches(u *models.User) bool {
	if !matchesSearch(f.Search, u.Name, u.Email) {
		return false
	}
	if !f.Roles.Has(string(u.Role)) {
		return false
	}
	return f.Statuses.Has(string(u.Status()))
}

// Clone returns a copy that shares no sets with f
func (f RosterFilter) Clone() RosterFilter {
	return RosterFilter{
		Search:   f.Search,
		Roles:    f.Roles.Clone(),
		Statuses: f.Statuses.Clone(),
	}
}

// HistoryFilter is the filter applied to the admin action feed
type HistoryFilter struct {
	Search      string
	Actions     Set
	TargetTypes Set
}

// NewHistoryFilter returns an empty history filter. Values are included as the
// feed discovers them, see HistoryFeed.
func NewHistoryFilter() HistoryFilter {
	return HistoryFilter{
		Actions:     NewSet(),
		TargetTypes: NewSet(),
	}
}

// Matches reports whether the action is visible under the filter
func (f HistoryFilter) Matches(a *models.AdminAction) bool {
	if !matchesSearch(f.Search, a.Action, a.Details, a.AdminName) {
		return false
	}
	if !f.Actions.Has(a.Action) {
		return false
	}
	return f.TargetTypes.Has(a.TargetType)
}

// Clone returns a copy that shares no sets with f
func (f HistoryFilter) Clone() HistoryFilter {
	return HistoryFilter{
		Search:      f.Search,
		Actions:     f.Actions.Clone(),
		TargetTypes: f.TargetTypes.Clone(),
	}
}

// matchesSearch applies a case-insensitive substring match of the trimmed term
// against any field. A blank term matches everything.
func matchesSearch(term string, fields ...string) bool {
	needle := strings.ToLower(strings.TrimSpace(term))
	if needle == "" {
		return true
	}
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}
