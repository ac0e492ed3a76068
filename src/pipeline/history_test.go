package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khabaroff/roster-console/src/models"
)

type prefixClassifier struct{}

func (prefixClassifier) Classify(action string) string {
	if action == "create" {
		return "create"
	}
	return "other"
}

// stubHistory serves pages of two actions each and records requested pages
type stubHistory struct {
	pages []int
	err   error
}

func (s *stubHistory) fetch(ctx context.Context, adminID string, page int) (models.HistoryPage, error) {
	s.pages = append(s.pages, page)
	if s.err != nil {
		return models.HistoryPage{}, s.err
	}
	ts := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	return models.HistoryPage{
		Items: []models.AdminAction{
			{ID: fmt.Sprintf("p%d-a", page), AdminName: "Alice", Action: "create", TargetType: "user", Details: "created bob", Timestamp: ts},
			{ID: fmt.Sprintf("p%d-b", page), AdminName: "Alice", Action: "delete", TargetType: "user", Details: "removed carol", Timestamp: ts},
		},
		Pagination: models.HistoryPagination{CurrentPage: page, TotalPages: 10},
	}, nil
}

var deepScroll = ScrollPosition{Offset: 900, Viewport: 100, Height: 1000}

func TestHistoryFeed_OpenScrollExhaust(t *testing.T) {
	ctx := context.Background()
	stub := &stubHistory{}
	feed := NewHistoryFeed(DefaultAccumulatorConfig(), prefixClassifier{})

	outcome, err := feed.Open(ctx, "admin-1", stub.fetch)
	require.NoError(t, err)
	assert.Equal(t, LoadCompleted, outcome)

	for i := 0; i < 2; i++ {
		outcome, err = feed.Scroll(ctx, deepScroll, stub.fetch)
		require.NoError(t, err)
		assert.Equal(t, LoadCompleted, outcome)
	}

	view := feed.View()
	assert.False(t, view.HasMore)
	assert.Equal(t, 6, view.Accumulated)
	assert.Equal(t, "admin-1", view.AdminID)

	outcome, err = feed.Scroll(ctx, deepScroll, stub.fetch)
	require.NoError(t, err)
	assert.Equal(t, LoadSuppressed, outcome)
	assert.Equal(t, []int{1, 2, 3}, stub.pages)
}

func TestHistoryFeed_ShallowScrollSuppressed(t *testing.T) {
	ctx := context.Background()
	stub := &stubHistory{}
	feed := NewHistoryFeed(DefaultAccumulatorConfig(), nil)

	_, err := feed.Open(ctx, "admin-1", stub.fetch)
	require.NoError(t, err)

	outcome, err := feed.Scroll(ctx, ScrollPosition{Offset: 0, Viewport: 100, Height: 1000}, stub.fetch)
	require.NoError(t, err)
	assert.Equal(t, LoadSuppressed, outcome)
	assert.Len(t, stub.pages, 1)
}

func TestHistoryFeed_ClosedFeedIgnoresScroll(t *testing.T) {
	stub := &stubHistory{}
	feed := NewHistoryFeed(DefaultAccumulatorConfig(), nil)

	outcome, err := feed.Scroll(context.Background(), deepScroll, stub.fetch)
	require.NoError(t, err)
	assert.Equal(t, LoadSuppressed, outcome)
	assert.Empty(t, stub.pages)
}

func TestHistoryFeed_CloseResets(t *testing.T) {
	ctx := context.Background()
	stub := &stubHistory{}
	feed := NewHistoryFeed(DefaultAccumulatorConfig(), nil)

	_, err := feed.Open(ctx, "admin-1", stub.fetch)
	require.NoError(t, err)
	feed.Close()

	view := feed.View()
	assert.False(t, view.Open)
	assert.Equal(t, 0, view.Accumulated)
	assert.True(t, view.HasMore)

	outcome, err := feed.Refresh(ctx, stub.fetch)
	require.NoError(t, err)
	assert.Equal(t, LoadSuppressed, outcome, "closed feed is not refreshed")
}

func TestHistoryFeed_FilterHidesWithoutDropping(t *testing.T) {
	ctx := context.Background()
	stub := &stubHistory{}
	feed := NewHistoryFeed(DefaultAccumulatorConfig(), prefixClassifier{})

	_, err := feed.Open(ctx, "admin-1", stub.fetch)
	require.NoError(t, err)

	view := feed.View()
	require.Len(t, view.Items, 2, "discovered values are included")
	assert.Equal(t, []FacetValue{{Value: "create", Included: true}, {Value: "delete", Included: true}}, view.Actions)
	assert.Equal(t, "create", view.Items[0].Category)
	assert.Equal(t, "other", view.Items[1].Category)

	feed.SetAction("delete", false)
	view = feed.View()
	require.Len(t, view.Items, 1)
	assert.Equal(t, "create", view.Items[0].Action)
	assert.Equal(t, 2, view.Accumulated)

	_, err = feed.Scroll(ctx, deepScroll, stub.fetch)
	require.NoError(t, err)
	assert.Len(t, feed.View().Items, 2, "excluded value stays excluded on later pages")

	feed.SetAction("delete", true)
	feed.SetSearch("CAROL")
	view = feed.View()
	assert.Len(t, view.Items, 2)
	for _, item := range view.Items {
		assert.Equal(t, "delete", item.Action)
	}

	feed.SetTargetType("user", false)
	assert.Empty(t, feed.View().Items)
}

func TestHistoryFeed_FailureKeepsItems(t *testing.T) {
	ctx := context.Background()
	stub := &stubHistory{}
	feed := NewHistoryFeed(DefaultAccumulatorConfig(), nil)

	_, err := feed.Open(ctx, "admin-1", stub.fetch)
	require.NoError(t, err)

	stub.err = errors.New("boom")
	outcome, err := feed.Scroll(ctx, deepScroll, stub.fetch)
	assert.Error(t, err)
	assert.Equal(t, LoadFailed, outcome)

	view := feed.View()
	assert.Equal(t, 2, view.Accumulated)
	assert.False(t, view.Loading)
	assert.True(t, view.HasMore)
}

func TestHistoryFeed_RefreshRestarts(t *testing.T) {
	ctx := context.Background()
	stub := &stubHistory{}
	feed := NewHistoryFeed(DefaultAccumulatorConfig(), nil)

	_, err := feed.Open(ctx, "admin-1", stub.fetch)
	require.NoError(t, err)
	_, err = feed.Scroll(ctx, deepScroll, stub.fetch)
	require.NoError(t, err)

	outcome, err := feed.Refresh(ctx, stub.fetch)
	require.NoError(t, err)
	assert.Equal(t, LoadCompleted, outcome)
	assert.Equal(t, []int{1, 2, 1}, stub.pages)
	assert.Equal(t, 2, feed.View().Accumulated)
}

func TestHistoryFeed_Find(t *testing.T) {
	ctx := context.Background()
	stub := &stubHistory{}
	feed := NewHistoryFeed(DefaultAccumulatorConfig(), prefixClassifier{})

	_, err := feed.Open(ctx, "admin-1", stub.fetch)
	require.NoError(t, err)

	item, ok := feed.Find("p1-a")
	require.True(t, ok)
	assert.Equal(t, "created bob", item.Details)
	assert.Equal(t, "create", item.Category)

	_, ok = feed.Find("nope")
	assert.False(t, ok)
}

func actionIncluded(feed *HistoryFeed, action string) bool {
	feed.mu.Lock()
	defer feed.mu.Unlock()
	return feed.filter.Actions.Has(action)
}

func TestHistoryFeed_StaleFetchLeavesFilterUntouched(t *testing.T) {
	ctx := context.Background()
	stub := &stubHistory{}
	feed := NewHistoryFeed(DefaultAccumulatorConfig(), nil)

	started := make(chan struct{})
	release := make(chan struct{})
	slow := func(ctx context.Context, adminID string, page int) (models.HistoryPage, error) {
		close(started)
		<-release
		return models.HistoryPage{Items: []models.AdminAction{
			{ID: "old-1", Action: "purge", TargetType: "group"},
		}}, nil
	}

	type result struct {
		outcome LoadOutcome
		err     error
	}
	done := make(chan result, 1)
	go func() {
		outcome, err := feed.Open(ctx, "admin-1", slow)
		done <- result{outcome, err}
	}()
	<-started

	feed.Close()
	outcome, err := feed.Open(ctx, "admin-1", stub.fetch)
	require.NoError(t, err)
	assert.Equal(t, LoadCompleted, outcome)

	close(release)
	stale := <-done
	require.NoError(t, stale.err)
	assert.Equal(t, LoadDiscarded, stale.outcome)

	view := feed.View()
	assert.Equal(t, 2, view.Accumulated)
	for _, item := range view.Items {
		assert.NotEqual(t, "old-1", item.ID)
	}
	assert.False(t, actionIncluded(feed, "purge"))
	assert.True(t, actionIncluded(feed, "create"))
}

func TestHistoryFeed_EmptiedDimensionStaysEmpty(t *testing.T) {
	ctx := context.Background()
	stub := &stubHistory{}
	feed := NewHistoryFeed(DefaultAccumulatorConfig(), nil)

	feed.SetFilter(HistoryFilter{Actions: NewSet(), TargetTypes: NewSet()})
	_, err := feed.Open(ctx, "admin-1", stub.fetch)
	require.NoError(t, err)

	view := feed.View()
	assert.Empty(t, view.Items)
	assert.Equal(t, 2, view.Accumulated)
	assert.Equal(t, []FacetValue{{Value: "create", Included: false}, {Value: "delete", Included: false}}, view.Actions)

	// Including one action unpins actions; target types are still empty
	feed.SetAction("create", true)
	assert.Empty(t, feed.View().Items)

	feed.SetTargetType("user", true)
	view = feed.View()
	require.Len(t, view.Items, 1)
	assert.Equal(t, "create", view.Items[0].Action)

	_, err = feed.Scroll(ctx, deepScroll, stub.fetch)
	require.NoError(t, err)
	view = feed.View()
	assert.Len(t, view.Items, 2, "delete was seen while hidden and stays excluded")
	for _, item := range view.Items {
		assert.Equal(t, "create", item.Action)
	}
}

func TestHistoryFeed_DeselectingEveryActionPins(t *testing.T) {
	ctx := context.Background()
	feed := NewHistoryFeed(DefaultAccumulatorConfig(), nil)

	first := true
	fetch := func(ctx context.Context, adminID string, page int) (models.HistoryPage, error) {
		action := "create"
		if !first {
			action = "rename"
		}
		first = false
		return models.HistoryPage{Items: []models.AdminAction{
			{ID: fmt.Sprintf("p%d", page), Action: action, TargetType: "user"},
		}}, nil
	}

	_, err := feed.Open(ctx, "admin-1", fetch)
	require.NoError(t, err)
	require.Len(t, feed.View().Items, 1)

	feed.SetAction("create", false)
	_, err = feed.Scroll(ctx, deepScroll, fetch)
	require.NoError(t, err)

	view := feed.View()
	assert.Equal(t, 2, view.Accumulated)
	assert.Empty(t, view.Items)
	assert.False(t, actionIncluded(feed, "rename"))
}
