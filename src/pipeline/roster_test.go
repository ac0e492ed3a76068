package pipeline

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khabaroff/roster-console/src/models"
)

var rosterBase = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// makeUsers returns n users whose creation time grows with the index,
// so newest-first order is u-n .. u-1.
func makeUsers(n int) []models.User {
	users := make([]models.User, n)
	for i := range users {
		role := models.RoleUser
		if i%5 == 0 {
			role = models.RoleAdmin
		}
		users[i] = models.User{
			ID:        fmt.Sprintf("u-%d", i+1),
			Name:      fmt.Sprintf("User %d", i+1),
			Email:     fmt.Sprintf("user%d@example.com", i+1),
			Role:      role,
			Active:    i%2 == 0,
			CreatedAt: rosterBase.Add(time.Duration(i) * time.Hour),
		}
	}
	return users
}

func rowIDs(rows []RosterRow) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.ID
	}
	return out
}

func TestRoster_Pages(t *testing.T) {
	r := NewRoster()
	r.Replace(makeUsers(23))

	view := r.View()
	assert.Equal(t, 3, view.TotalPages)
	assert.Equal(t, 1, view.Page)
	require.Len(t, view.Rows, 10)
	assert.Equal(t, "u-23", view.Rows[0].ID)
	assert.Equal(t, 1, view.From)
	assert.Equal(t, 10, view.To)
	assert.False(t, view.HasPrev)
	assert.True(t, view.HasNext)

	r.GoTo(3)
	view = r.View()
	assert.Equal(t, 3, view.Page)
	assert.Equal(t, []string{"u-3", "u-2", "u-1"}, rowIDs(view.Rows))
	assert.Equal(t, 21, view.From)
	assert.Equal(t, 23, view.To)
	assert.False(t, view.HasNext)

	r.Next()
	assert.Equal(t, 3, r.View().Page)

	r.Prev()
	assert.Equal(t, 2, r.View().Page)
}

func TestRoster_GoToClamps(t *testing.T) {
	r := NewRoster()
	r.Replace(makeUsers(23))

	r.GoTo(99)
	assert.Equal(t, 3, r.View().Page)

	r.GoTo(-4)
	assert.Equal(t, 1, r.View().Page)
}

func TestRoster_FilterAndSortResetPage(t *testing.T) {
	r := NewRoster()
	r.Replace(makeUsers(23))

	r.GoTo(3)
	r.SetSearch("user 1")
	view := r.View()
	assert.Equal(t, 1, view.Page)
	// "user 1" matches User 1 and User 10..19
	assert.Equal(t, 11, view.Total)

	r.GoTo(2)
	r.ToggleSort()
	view = r.View()
	assert.Equal(t, 1, view.Page)
	assert.Equal(t, SortAsc, view.Sort)
	assert.Equal(t, "u-1", view.Rows[0].ID)

	r.GoTo(2)
	r.SetRole(models.RoleAdmin, false)
	assert.Equal(t, 1, r.View().Page)

	r.GoTo(2)
	r.SetStatus(models.StatusInactive, false)
	assert.Equal(t, 1, r.View().Page)
}

func TestRoster_EmptyRoleSetHidesAll(t *testing.T) {
	r := NewRoster()
	r.Replace(makeUsers(23))

	r.SetRole(models.RoleAdmin, false)
	r.SetRole(models.RoleUser, false)

	view := r.View()
	assert.Empty(t, view.Rows)
	assert.Equal(t, 0, view.Total)
	assert.Equal(t, 1, view.Page)
	assert.Equal(t, 0, view.TotalPages)
	assert.Equal(t, 23, view.Summary.Total, "summary ignores filters")
}

func TestRoster_ReplaceKeepsPageWhenUnchanged(t *testing.T) {
	r := NewRoster()
	users := makeUsers(23)
	r.Replace(users)
	r.GoTo(2)

	users[0].Name = "Renamed"
	r.Replace(users)
	assert.Equal(t, 2, r.View().Page)

	r.Replace(users[:22])
	assert.Equal(t, 1, r.View().Page, "a removed user changes the filtered result")
}

func TestRoster_SelectAllFilteredView(t *testing.T) {
	r := NewRoster()
	r.Replace(makeUsers(23))
	r.SetRole(models.RoleUser, false)

	r.SelectAll(true)
	view := r.View()
	// indices 0,5,10,15,20 are admins
	assert.Equal(t, 5, view.SelectedCount)
	assert.True(t, view.Header.Checked)
	assert.False(t, view.Header.Indeterminate)

	r.ToggleSelection(view.Rows[0].ID)
	view = r.View()
	assert.Equal(t, 4, view.SelectedCount)
	assert.False(t, view.Header.Checked)
	assert.True(t, view.Header.Indeterminate)
	assert.False(t, view.Rows[0].Selected)
	assert.True(t, view.Rows[1].Selected)

	r.SelectAll(false)
	assert.Equal(t, 0, r.View().SelectedCount)
}

func TestRoster_SelectionSurvivesFilterAndPrunes(t *testing.T) {
	r := NewRoster()
	users := makeUsers(3)
	r.Replace(users)

	r.ToggleSelection("u-1")
	r.SetSearch("nobody")
	view := r.View()
	assert.Equal(t, 1, view.SelectedCount)
	assert.False(t, view.Header.Checked)

	r.Replace(users[1:])
	assert.Equal(t, 0, r.View().SelectedCount)
}

func TestRoster_ToggleSelectionIgnoresUnknownIDs(t *testing.T) {
	r := NewRoster()
	r.Replace(makeUsers(2))

	assert.False(t, r.ToggleSelection("ghost"))
	view := r.View()
	assert.Equal(t, 0, view.SelectedCount)
	assert.Empty(t, view.SelectedIDs)

	// Hidden but existing records can still be selected
	r.SetSearch("nobody")
	assert.True(t, r.ToggleSelection("u-2"))
	view = r.View()
	assert.Equal(t, 1, view.SelectedCount)
	assert.Equal(t, []string{"u-2"}, view.SelectedIDs)
}

func TestRoster_ToggleSelectionBeforeFirstLoad(t *testing.T) {
	r := NewRoster()
	assert.False(t, r.ToggleSelection("u-1"))
	assert.Equal(t, 0, r.View().SelectedCount)
}

func TestRoster_FailEmptiesCollection(t *testing.T) {
	r := NewRoster()
	r.Replace(makeUsers(5))
	r.Fail()

	view := r.View()
	assert.True(t, view.Loaded)
	assert.Empty(t, view.Rows)
	assert.Equal(t, 0, view.Summary.Total)
}

func TestRoster_Find(t *testing.T) {
	r := NewRoster()
	r.Replace(makeUsers(3))

	u, ok := r.Find("u-2")
	require.True(t, ok)
	assert.Equal(t, "User 2", u.Name)

	_, ok = r.Find("missing")
	assert.False(t, ok)
}

func TestRoster_SetFilterNilSets(t *testing.T) {
	r := NewRoster()
	r.Replace(makeUsers(3))

	r.SetFilter(RosterFilter{Search: "user"})
	assert.Empty(t, r.View().Rows)

	r.SetFilter(NewRosterFilter())
	assert.Len(t, r.View().Rows, 3)
}
