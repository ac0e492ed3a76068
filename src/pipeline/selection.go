package pipeline

// Selection tracks the selected roster ids. Selections survive filter, sort
// and page changes; ids whose record left the roster are dropped by Prune.
type Selection struct {
	ids Set
}

// HeaderState is the derived state of the select-all checkbox
type HeaderState struct {
	Checked       bool `json:"checked"`
	Indeterminate bool `json:"indeterminate"`
}

// NewSelection returns an empty selection
func NewSelection() *Selection {
	return &Selection{ids: NewSet()}
}

// Toggle flips membership of id
func (s *Selection) Toggle(id string) {
	s.ids.Set(id, !s.ids.Has(id))
}

// SelectAll replaces the selection with visibleIDs when checked, empties it otherwise
func (s *Selection) SelectAll(checked bool, visibleIDs []string) {
	if !checked {
		s.ids = NewSet()
		return
	}
	s.ids = NewSet(visibleIDs...)
}

// IsSelected reports membership of id
func (s *Selection) IsSelected(id string) bool {
	return s.ids.Has(id)
}

// Count returns the number of selected ids, visible or not
func (s *Selection) Count() int {
	return len(s.ids)
}

// IDs returns the selected ids in sorted order
func (s *Selection) IDs() []string {
	return s.ids.Keys()
}

// Header derives the select-all checkbox state against the visible ids
func (s *Selection) Header(visibleIDs []string) HeaderState {
	selected := 0
	for _, id := range visibleIDs {
		if s.ids.Has(id) {
			selected++
		}
	}
	return HeaderState{
		Checked:       len(visibleIDs) > 0 && selected == len(visibleIDs),
		Indeterminate: selected > 0 && selected < len(visibleIDs),
	}
}

// Prune drops ids that are not in existing
func (s *Selection) Prune(existing Set) {
	for id := range s.ids {
		if !existing.Has(id) {
			delete(s.ids, id)
		}
	}
}
