package pipeline

import (
	"context"
	"sync"

	"github.com/khabaroff/roster-console/src/models"
)

// ActionClassifier maps a free-form action kind to a display category
type ActionClassifier interface {
	Classify(action string) string
}

// HistoryItem is one visible admin action with its display category
type HistoryItem struct {
	models.AdminAction
	Category string `json:"category,omitempty"`
}

// HistoryView is everything needed to render the action history popover
type HistoryView struct {
	Open        bool          `json:"open"`
	AdminID     string        `json:"admin_id,omitempty"`
	Items       []HistoryItem `json:"items"`
	Accumulated int           `json:"accumulated"`
	HasMore     bool          `json:"has_more"`
	Loading     bool          `json:"loading"`
	Loads       int           `json:"loads"`
	Search      string        `json:"search"`
	Actions     []FacetValue  `json:"actions"`
	TargetTypes []FacetValue  `json:"target_types"`
}

// FacetValue is one distinct filter value seen in the feed
type FacetValue struct {
	Value    string `json:"value"`
	Included bool   `json:"included"`
}

// HistoryFetchFunc fetches one history page for an admin
type HistoryFetchFunc func(ctx context.Context, adminID string, page int) (models.HistoryPage, error)

// HistoryFeed accumulates the admin action history of one popover session
// and filters it for display. Filtering hides items, it never drops them.
type HistoryFeed struct {
	mu         sync.Mutex
	acc        *Accumulator[models.AdminAction]
	filter     HistoryFilter
	seenAction Set
	seenTarget Set
	open       bool
	adminID    string
	classifier ActionClassifier

	// Set when the operator left a dimension with nothing included. New
	// values are then recorded as seen but not included.
	actionsPinned bool
	targetsPinned bool
}

// NewHistoryFeed creates a closed feed
func NewHistoryFeed(cfg AccumulatorConfig, classifier ActionClassifier) *HistoryFeed {
	return &HistoryFeed{
		acc:        NewAccumulator[models.AdminAction](cfg),
		filter:     NewHistoryFilter(),
		seenAction: NewSet(),
		seenTarget: NewSet(),
		classifier: classifier,
	}
}

// Open resets the feed for adminID and runs the first fetch cycle
func (h *HistoryFeed) Open(ctx context.Context, adminID string, fetch HistoryFetchFunc) (LoadOutcome, error) {
	h.mu.Lock()
	h.open = true
	h.adminID = adminID
	h.mu.Unlock()

	h.acc.Reset()
	return h.load(ctx, fetch)
}

// Close resets the feed without fetching
func (h *HistoryFeed) Close() {
	h.mu.Lock()
	h.open = false
	h.mu.Unlock()

	h.acc.Reset()
}

// IsOpen reports whether the popover is open
func (h *HistoryFeed) IsOpen() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.open
}

// Refresh reopens an open feed so it reflects new audit entries. A closed
// feed is left alone.
func (h *HistoryFeed) Refresh(ctx context.Context, fetch HistoryFetchFunc) (LoadOutcome, error) {
	h.mu.Lock()
	open, adminID := h.open, h.adminID
	h.mu.Unlock()

	if !open {
		return LoadSuppressed, nil
	}
	return h.Open(ctx, adminID, fetch)
}

// Scroll runs a fetch cycle when the viewport passed the load threshold
func (h *HistoryFeed) Scroll(ctx context.Context, pos ScrollPosition, fetch HistoryFetchFunc) (LoadOutcome, error) {
	if !h.IsOpen() {
		return LoadSuppressed, nil
	}
	state := h.acc.Snapshot()
	if !ShouldLoad(pos, state.HasMore, state.Fetching) {
		return LoadSuppressed, nil
	}
	return h.load(ctx, fetch)
}

func (h *HistoryFeed) load(ctx context.Context, fetch HistoryFetchFunc) (LoadOutcome, error) {
	h.mu.Lock()
	adminID := h.adminID
	h.mu.Unlock()

	fetchPage := func(ctx context.Context, page int) ([]models.AdminAction, bool, error) {
		result, err := fetch(ctx, adminID, page)
		if err != nil {
			return nil, false, err
		}
		return result.Items, result.Pagination.HasMore(), nil
	}
	return h.acc.LoadThen(ctx, fetchPage, h.discover)
}

// discover auto-includes filter values seen for the first time, unless the
// operator emptied that dimension
func (h *HistoryFeed) discover(items []models.AdminAction) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, item := range items {
		if !h.seenAction.Has(item.Action) {
			h.seenAction.Set(item.Action, true)
			h.filter.Actions.Set(item.Action, !h.actionsPinned)
		}
		if !h.seenTarget.Has(item.TargetType) {
			h.seenTarget.Set(item.TargetType, true)
			h.filter.TargetTypes.Set(item.TargetType, !h.targetsPinned)
		}
	}
}

// SetSearch changes the free-text search
func (h *HistoryFeed) SetSearch(term string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.filter.Search = term
}

// SetAction includes or excludes one action kind
func (h *HistoryFeed) SetAction(action string, included bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seenAction.Set(action, true)
	h.filter.Actions.Set(action, included)
	h.actionsPinned = len(h.filter.Actions) == 0
}

// SetTargetType includes or excludes one target type
func (h *HistoryFeed) SetTargetType(targetType string, included bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seenTarget.Set(targetType, true)
	h.filter.TargetTypes.Set(targetType, included)
	h.targetsPinned = len(h.filter.TargetTypes) == 0
}

// SetFilter replaces the whole filter. Values named in the filter count as
// seen. An empty dimension keeps hiding values discovered later.
func (h *HistoryFeed) SetFilter(f HistoryFilter) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if f.Actions == nil {
		f.Actions = NewSet()
	}
	if f.TargetTypes == nil {
		f.TargetTypes = NewSet()
	}
	h.filter = f.Clone()
	h.actionsPinned = len(f.Actions) == 0
	h.targetsPinned = len(f.TargetTypes) == 0
	for a := range f.Actions {
		h.seenAction.Set(a, true)
	}
	for t := range f.TargetTypes {
		h.seenTarget.Set(t, true)
	}
}

// Find returns one accumulated action by id
func (h *HistoryFeed) Find(id string) (HistoryItem, bool) {
	for _, item := range h.acc.Snapshot().Items {
		if item.ID == id {
			return h.item(item), true
		}
	}
	return HistoryItem{}, false
}

// View renders the filtered feed
func (h *HistoryFeed) View() HistoryView {
	state := h.acc.Snapshot()

	h.mu.Lock()
	defer h.mu.Unlock()

	items := make([]HistoryItem, 0, len(state.Items))
	actions := NewSet()
	targets := NewSet()
	for i := range state.Items {
		a := &state.Items[i]
		actions.Set(a.Action, true)
		targets.Set(a.TargetType, true)
		if h.filter.Matches(a) {
			items = append(items, h.item(*a))
		}
	}

	return HistoryView{
		Open:        h.open,
		AdminID:     h.adminID,
		Items:       items,
		Accumulated: len(state.Items),
		HasMore:     state.HasMore,
		Loading:     state.Fetching,
		Loads:       state.Loads,
		Search:      h.filter.Search,
		Actions:     facets(actions, h.filter.Actions),
		TargetTypes: facets(targets, h.filter.TargetTypes),
	}
}

func (h *HistoryFeed) item(a models.AdminAction) HistoryItem {
	item := HistoryItem{AdminAction: a}
	if h.classifier != nil {
		item.Category = h.classifier.Classify(a.Action)
	}
	return item
}

func facets(values, included Set) []FacetValue {
	out := make([]FacetValue, 0, len(values))
	for _, v := range values.Keys() {
		out = append(out, FacetValue{Value: v, Included: included.Has(v)})
	}
	return out
}
