package pipeline

import (
	"context"
	"sync"
)

// DefaultLoadLimit is the number of completed fetch cycles after which a feed
// reports no more data under the load-limit policy
const DefaultLoadLimit = 3

// ExhaustionPolicy decides when a feed stops asking for more pages
type ExhaustionPolicy string

const (
	// ExhaustAfterLoads forces hasMore to false after LoadLimit completed cycles,
	// whatever the payload says
	ExhaustAfterLoads ExhaustionPolicy = "loadlimit"
	// ExhaustFromPagination trusts the backend's pagination metadata, still capped
	// by LoadLimit when it is positive
	ExhaustFromPagination ExhaustionPolicy = "pagination"
)

// AccumulatorConfig configures feed exhaustion
type AccumulatorConfig struct {
	LoadLimit int
	Policy    ExhaustionPolicy
}

// DefaultAccumulatorConfig returns the load-limit policy with three loads
func DefaultAccumulatorConfig() AccumulatorConfig {
	return AccumulatorConfig{LoadLimit: DefaultLoadLimit, Policy: ExhaustAfterLoads}
}

// Ticket identifies one fetch cycle. Tickets issued before a Reset are stale.
type Ticket struct {
	epoch uint64
	Page  int
}

// FeedState is a point-in-time copy of the accumulator
type FeedState[T any] struct {
	Items    []T
	HasMore  bool
	Fetching bool
	Loads    int
}

// LoadOutcome describes what happened to a Load call
type LoadOutcome string

const (
	LoadSuppressed LoadOutcome = "suppressed"
	LoadCompleted  LoadOutcome = "completed"
	LoadFailed     LoadOutcome = "failed"
	LoadDiscarded  LoadOutcome = "discarded"
)

// FetchFunc fetches one page. It returns the page items and whether the
// backend announced more pages.
type FetchFunc[T any] func(ctx context.Context, page int) ([]T, bool, error)

// Accumulator is an append-only list that grows one fetch cycle at a time.
// At most one cycle is in flight per accumulator.
type Accumulator[T any] struct {
	mu       sync.Mutex
	cfg      AccumulatorConfig
	items    []T
	hasMore  bool
	fetching bool
	loads    int
	epoch    uint64
}

// NewAccumulator creates an accumulator in its initial state
func NewAccumulator[T any](cfg AccumulatorConfig) *Accumulator[T] {
	if cfg.Policy == "" {
		cfg.Policy = ExhaustAfterLoads
	}
	return &Accumulator[T]{cfg: cfg, hasMore: true}
}

// Reset drops accumulated items and invalidates any in-flight cycle
func (a *Accumulator[T]) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.items = nil
	a.hasMore = true
	a.fetching = false
	a.loads = 0
	a.epoch++
}

// Begin starts a fetch cycle. It is suppressed while another cycle is in
// flight or when the feed is exhausted.
func (a *Accumulator[T]) Begin() (Ticket, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.fetching || !a.hasMore {
		return Ticket{}, false
	}
	a.fetching = true
	return Ticket{epoch: a.epoch, Page: a.loads + 1}, true
}

// Complete appends a fetched page. It returns false when the ticket is stale
// and the items were discarded.
func (a *Accumulator[T]) Complete(t Ticket, items []T, pageHasMore bool) bool {
	return a.complete(t, items, pageHasMore, nil)
}

func (a *Accumulator[T]) complete(t Ticket, items []T, pageHasMore bool, apply func([]T)) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if t.epoch != a.epoch {
		return false
	}
	if apply != nil {
		apply(items)
	}

	a.items = append(a.items, items...)
	a.loads++
	a.fetching = false
	a.hasMore = a.computeHasMore(pageHasMore)
	return true
}

// Fail ends a cycle without touching accumulated items so the next trigger can retry
func (a *Accumulator[T]) Fail(t Ticket) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if t.epoch != a.epoch {
		return
	}
	a.fetching = false
}

func (a *Accumulator[T]) computeHasMore(pageHasMore bool) bool {
	underLimit := a.cfg.LoadLimit <= 0 || a.loads < a.cfg.LoadLimit
	if a.cfg.Policy == ExhaustFromPagination {
		return pageHasMore && underLimit
	}
	return underLimit
}

// Load runs one gated fetch cycle. fetch is called without holding the lock.
func (a *Accumulator[T]) Load(ctx context.Context, fetch FetchFunc[T]) (LoadOutcome, error) {
	return a.LoadThen(ctx, fetch, nil)
}

// LoadThen is Load with apply called on the fetched items when the cycle is
// still current, before they are appended. A discarded cycle never reaches
// apply. apply runs under the accumulator lock and must not call back into it.
func (a *Accumulator[T]) LoadThen(ctx context.Context, fetch FetchFunc[T], apply func(items []T)) (LoadOutcome, error) {
	ticket, ok := a.Begin()
	if !ok {
		return LoadSuppressed, nil
	}

	items, more, err := fetch(ctx, ticket.Page)
	if err != nil {
		a.Fail(ticket)
		return LoadFailed, err
	}

	if !a.complete(ticket, items, more, apply) {
		return LoadDiscarded, nil
	}
	return LoadCompleted, nil
}

// Snapshot returns a copy of the current state
func (a *Accumulator[T]) Snapshot() FeedState[T] {
	a.mu.Lock()
	defer a.mu.Unlock()

	items := make([]T, len(a.items))
	copy(items, a.items)
	return FeedState[T]{
		Items:    items,
		HasMore:  a.hasMore,
		Fetching: a.fetching,
		Loads:    a.loads,
	}
}
