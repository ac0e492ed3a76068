package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelection_SelectAllThenToggle(t *testing.T) {
	visible := []string{"a", "b", "c", "d"}
	s := NewSelection()

	s.SelectAll(true, visible)
	assert.Equal(t, len(visible), s.Count())
	assert.Equal(t, HeaderState{Checked: true}, s.Header(visible))

	s.Toggle("c")
	assert.Equal(t, len(visible)-1, s.Count())
	assert.False(t, s.IsSelected("c"))
	assert.Equal(t, HeaderState{Checked: false, Indeterminate: true}, s.Header(visible))

	s.Toggle("c")
	assert.True(t, s.Header(visible).Checked)
}

func TestSelection_Unselect(t *testing.T) {
	s := NewSelection()
	s.SelectAll(true, []string{"a", "b"})
	s.SelectAll(false, []string{"a", "b"})

	assert.Equal(t, 0, s.Count())
	assert.Equal(t, HeaderState{}, s.Header([]string{"a", "b"}))
}

func TestSelection_HeaderWithNothingVisible(t *testing.T) {
	s := NewSelection()
	s.Toggle("a")
	assert.Equal(t, HeaderState{}, s.Header(nil))
}

func TestSelection_Prune(t *testing.T) {
	s := NewSelection()
	s.Toggle("a")
	s.Toggle("b")

	s.Prune(NewSet("b", "c"))

	assert.Equal(t, []string{"b"}, s.IDs())
}
