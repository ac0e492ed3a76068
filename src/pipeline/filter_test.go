package pipeline

import (
	"testing"

	"github.com/khabaroff/roster-console/src/models"
	"github.com/stretchr/testify/assert"
)

func TestRosterFilter_Search(t *testing.T) {
	john := &models.User{ID: "1", Name: "John Doe", Email: "j@x.com", Role: models.RoleUser, Active: true}
	jane := &models.User{ID: "2", Name: "Jane Smith", Email: "smith@doe-corp.com", Role: models.RoleUser, Active: true}
	bob := &models.User{ID: "3", Name: "Bob", Email: "bob@x.com", Role: models.RoleUser, Active: true}

	f := NewRosterFilter()
	f.Search = "doe"

	t.Run("matches on name", func(t *testing.T) {
		assert.True(t, f.Matches(john))
	})

	t.Run("matches on email", func(t *testing.T) {
		assert.True(t, f.Matches(jane))
	})

	t.Run("rejects when neither matches", func(t *testing.T) {
		assert.False(t, f.Matches(bob))
	})

	t.Run("is case insensitive", func(t *testing.T) {
		f := NewRosterFilter()
		f.Search = "DOE"
		assert.True(t, f.Matches(john))
	})

	t.Run("blank search matches everything", func(t *testing.T) {
		f := NewRosterFilter()
		f.Search = "   "
		assert.True(t, f.Matches(bob))
	})

	t.Run("surrounding whitespace is ignored", func(t *testing.T) {
		f := NewRosterFilter()
		f.Search = "  BOB "
		assert.True(t, f.Matches(bob))
		assert.False(t, f.Matches(john))
	})

	t.Run("inner whitespace is kept", func(t *testing.T) {
		f := NewRosterFilter()
		f.Search = " john  doe "
		assert.False(t, f.Matches(john))
		f.Search = "\tjohn doe\n"
		assert.True(t, f.Matches(john))
	})

	t.Run("missing name and email are empty strings", func(t *testing.T) {
		f := NewRosterFilter()
		f.Search = "x"
		assert.False(t, f.Matches(&models.User{ID: "4", Role: models.RoleUser, Active: true}))
	})
}

func TestRosterFilter_RoleAndStatus(t *testing.T) {
	admin := &models.User{ID: "1", Name: "Ann", Role: models.RoleAdmin, Active: true}
	inactive := &models.User{ID: "2", Name: "Ivan", Role: models.RoleUser, Active: false}

	t.Run("default filter shows everyone", func(t *testing.T) {
		f := NewRosterFilter()
		assert.True(t, f.Matches(admin))
		assert.True(t, f.Matches(inactive))
	})

	t.Run("excluded role hides record", func(t *testing.T) {
		f := NewRosterFilter()
		f.Roles.Set(string(models.RoleAdmin), false)
		assert.False(t, f.Matches(admin))
		assert.True(t, f.Matches(inactive))
	})

	t.Run("excluded status hides record", func(t *testing.T) {
		f := NewRosterFilter()
		f.Statuses.Set(string(models.StatusInactive), false)
		assert.True(t, f.Matches(admin))
		assert.False(t, f.Matches(inactive))
	})

	t.Run("empty role set hides everything", func(t *testing.T) {
		f := NewRosterFilter()
		f.Roles = NewSet()
		assert.False(t, f.Matches(admin))
		assert.False(t, f.Matches(inactive))
	})

	t.Run("empty status set hides everything", func(t *testing.T) {
		f := NewRosterFilter()
		f.Statuses = NewSet()
		assert.False(t, f.Matches(admin))
		assert.False(t, f.Matches(inactive))
	})
}

func TestRosterFilter_Clone(t *testing.T) {
	f := NewRosterFilter()
	c := f.Clone()
	c.Roles.Set(string(models.RoleAdmin), false)

	assert.True(t, f.Roles.Has(string(models.RoleAdmin)))
	assert.False(t, c.Roles.Has(string(models.RoleAdmin)))
}

func TestHistoryFilter_Matches(t *testing.T) {
	item := &models.AdminAction{
		ID:         "a1",
		AdminName:  "Alice Admin",
		Action:     "delete",
		TargetType: "user",
		Details:    "Deleted account bob@x.com",
	}

	included := func() HistoryFilter {
		f := NewHistoryFilter()
		f.Actions.Set("delete", true)
		f.TargetTypes.Set("user", true)
		return f
	}

	t.Run("included values match", func(t *testing.T) {
		assert.True(t, included().Matches(item))
	})

	t.Run("empty sets show nothing", func(t *testing.T) {
		assert.False(t, NewHistoryFilter().Matches(item))
	})

	t.Run("search over details", func(t *testing.T) {
		f := included()
		f.Search = "BOB@"
		assert.True(t, f.Matches(item))
	})

	t.Run("search over admin name", func(t *testing.T) {
		f := included()
		f.Search = "alice"
		assert.True(t, f.Matches(item))
	})

	t.Run("padded search", func(t *testing.T) {
		f := included()
		f.Search = "  Alice "
		assert.True(t, f.Matches(item))
	})

	t.Run("search miss", func(t *testing.T) {
		f := included()
		f.Search = "create"
		assert.False(t, f.Matches(item))
	})

	t.Run("excluded target type", func(t *testing.T) {
		f := included()
		f.TargetTypes.Set("user", false)
		assert.False(t, f.Matches(item))
	})
}
