package pipeline

import (
	"slices"
	"sync"
	"time"

	"github.com/khabaroff/roster-console/src/models"
)

// RosterRow is one user row of the current page
type RosterRow struct {
	models.User
	Selected bool `json:"selected"`
}

// RosterView is everything needed to render the roster table
type RosterView struct {
	Rows          []RosterRow   `json:"rows"`
	Page          int           `json:"page"`
	TotalPages    int           `json:"total_pages"`
	Markers       []Marker      `json:"markers"`
	HasPrev       bool          `json:"has_prev"`
	HasNext       bool          `json:"has_next"`
	From          int           `json:"from"`
	To            int           `json:"to"`
	Total         int           `json:"total"`
	Sort          SortDirection `json:"sort"`
	Search        string        `json:"search"`
	Roles         []string      `json:"roles"`
	Statuses      []string      `json:"statuses"`
	Header        HeaderState   `json:"select_all"`
	SelectedIDs   []string      `json:"selected_ids"`
	SelectedCount int           `json:"selected_count"`
	Summary       Summary       `json:"summary"`
	Loaded        bool          `json:"loaded"`
}

// Roster filters, sorts, paginates and tracks selection over a user collection.
// The filtered, sorted and paged collections are recomputed from the raw
// collection on every read.
type Roster struct {
	mu        sync.Mutex
	users     []models.User
	loaded    bool
	filter    RosterFilter
	sort      SortDirection
	pager     Paginator
	selection *Selection
	now       func() time.Time
}

// NewRoster creates an empty roster with the default filter and newest-first order
func NewRoster() *Roster {
	return &Roster{
		filter:    NewRosterFilter(),
		sort:      SortDesc,
		pager:     NewPaginator(),
		selection: NewSelection(),
		now:       time.Now,
	}
}

// Replace installs a freshly fetched collection. The page resets to 1 when the
// filtered result changed and is clamped otherwise.
func (r *Roster) Replace(users []models.User) {
	r.mu.Lock()
	defer r.mu.Unlock()

	before := ids(r.visible())
	r.users = slices.Clone(users)
	r.loaded = true
	if !slices.Equal(before, ids(r.visible())) {
		r.pager.Reset()
	}

	existing := NewSet(ids(r.users)...)
	r.selection.Prune(existing)
}

// Fail treats the collection as empty after a failed fetch
func (r *Roster) Fail() {
	r.Replace(nil)
}

// Find returns the user with the given id from the raw collection
func (r *Roster) Find(id string) (models.User, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.ID == id {
			return u, true
		}
	}
	return models.User{}, false
}

// Filter returns a copy of the current filter
func (r *Roster) Filter() RosterFilter {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.filter.Clone()
}

// SetFilter replaces the whole filter and returns to page 1
func (r *Roster) SetFilter(f RosterFilter) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if f.Roles == nil {
		f.Roles = NewSet()
	}
	if f.Statuses == nil {
		f.Statuses = NewSet()
	}
	r.filter = f.Clone()
	r.pager.Reset()
}

// SetSearch changes the search term and returns to page 1
func (r *Roster) SetSearch(term string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.filter.Search = term
	r.pager.Reset()
}

// SetRole includes or excludes one role and returns to page 1
func (r *Roster) SetRole(role models.Role, included bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.filter.Roles.Set(string(role), included)
	r.pager.Reset()
}

// SetStatus includes or excludes one status and returns to page 1
func (r *Roster) SetStatus(status models.Status, included bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.filter.Statuses.Set(string(status), included)
	r.pager.Reset()
}

// ToggleSort flips the sort direction and returns to page 1
func (r *Roster) ToggleSort() SortDirection {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sort = r.sort.Toggle()
	r.pager.Reset()
	return r.sort
}

// GoTo jumps to page, clamped to the available pages
func (r *Roster) GoTo(page int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pager.GoTo(page, TotalPages(len(r.visible())))
}

// Next moves forward one page
func (r *Roster) Next() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pager.Next(TotalPages(len(r.visible())))
}

// Prev moves back one page
func (r *Roster) Prev() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pager.Prev(TotalPages(len(r.visible())))
}

// ToggleSelection flips the selection of one user. Ids with no record in the
// collection are ignored and reported as false.
func (r *Roster) ToggleSelection(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !slices.ContainsFunc(r.users, func(u models.User) bool { return u.ID == id }) {
		return false
	}
	r.selection.Toggle(id)
	return true
}

// SelectAll selects every user of the filtered view, or clears the selection
func (r *Roster) SelectAll(checked bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.selection.SelectAll(checked, ids(r.visible()))
}

// View renders the current state
func (r *Roster) View() RosterView {
	r.mu.Lock()
	defer r.mu.Unlock()

	visible := r.visible()
	totalPages := TotalPages(len(visible))
	page := r.pager.Page(totalPages)
	start, end := PageBounds(page, len(visible))

	rows := make([]RosterRow, 0, end-start)
	for _, u := range visible[start:end] {
		rows = append(rows, RosterRow{User: u, Selected: r.selection.IsSelected(u.ID)})
	}

	from := 0
	if end > start {
		from = start + 1
	}

	return RosterView{
		Rows:          rows,
		Page:          page,
		TotalPages:    totalPages,
		Markers:       PageMarkers(page, totalPages),
		HasPrev:       r.pager.HasPrev(totalPages),
		HasNext:       r.pager.HasNext(totalPages),
		From:          from,
		To:            end,
		Total:         len(visible),
		Sort:          r.sort,
		Search:        r.filter.Search,
		Roles:         r.filter.Roles.Keys(),
		Statuses:      r.filter.Statuses.Keys(),
		Header:        r.selection.Header(ids(visible)),
		SelectedIDs:   r.selection.IDs(),
		SelectedCount: r.selection.Count(),
		Summary:       Summarize(r.users, r.now()),
		Loaded:        r.loaded,
	}
}

// visible returns the filtered collection in sort order. Caller holds mu.
func (r *Roster) visible() []models.User {
	filtered := make([]models.User, 0, len(r.users))
	for i := range r.users {
		if r.filter.Matches(&r.users[i]) {
			filtered = append(filtered, r.users[i])
		}
	}
	return SortUsers(filtered, r.sort)
}

func ids(users []models.User) []string {
	out := make([]string, len(users))
	for i, u := range users {
		out[i] = u.ID
	}
	return out
}
