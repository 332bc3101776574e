// Package views holds the UI-agnostic state behind each screen. HTTP
// handlers and the terminal reader both render from these.
package views

import (
	"context"
	"sync"

	"inkwell/listing"
	"inkwell/models"
	"inkwell/posts"
	"inkwell/realtime"
)

// Listing is the filter state of the public post list.
type Listing struct {
	Query    string
	Category models.Category
	Page     int
}

// Apply runs the filter pipeline over published posts.
func (l Listing) Apply(published []models.Post) listing.Page[models.Post] {
	filtered := listing.Filter(published, l.Query, l.Category)
	return listing.Paginate(filtered, l.Page, listing.PageSize)
}

// HomeState is what the home screen renders.
type HomeState struct {
	Page       listing.Page[models.Post] `json:"posts"`
	Query      string                    `json:"query"`
	Category   models.Category           `json:"category"`
	Categories []models.Category         `json:"categories"`
	Loading    bool                      `json:"loading"`
	Error      string                    `json:"error,omitempty"`
}

// Home keeps the published post list live through a subscription and
// applies the listing state to it. Open starts it; Close must be called on
// teardown.
type Home struct {
	posts  *posts.Service
	Search *listing.SearchBox

	mu      sync.RWMutex
	state   Listing
	all     []models.Post
	loading bool
	err     error
	sub     *realtime.Subscription[models.Post]
	changed chan struct{}
	done    chan struct{}
}

func NewHome(svc *posts.Service) *Home {
	h := &Home{
		posts:   svc,
		state:   Listing{Category: models.CategoryAll, Page: 1},
		loading: true,
		changed: make(chan struct{}, 1),
	}
	h.Search = listing.NewSearchBox(listing.SearchDelay, func([]models.Post) { h.notify() })
	return h
}

// Open subscribes to published posts. Each snapshot replaces the list.
func (h *Home) Open(ctx context.Context) {
	sub := h.posts.SubscribePublished(ctx)

	h.mu.Lock()
	h.sub = sub
	h.done = make(chan struct{})
	done := h.done
	h.mu.Unlock()

	go func() {
		defer close(done)
		for snap := range sub.Events() {
			h.replace(snap)
		}
	}()
}

func (h *Home) replace(snap realtime.Snapshot[models.Post]) {
	h.mu.Lock()
	if snap.Err != nil {
		// keep the previous list on a failed refresh
		h.err = snap.Err
	} else {
		h.all = snap.Items
		h.err = nil
	}
	h.loading = false
	all := h.all
	h.mu.Unlock()

	h.Search.SetPosts(all)
	h.notify()
}

func (h *Home) notify() {
	select {
	case h.changed <- struct{}{}:
	default:
	}
}

// Changed signals that State may render differently.
func (h *Home) Changed() <-chan struct{} {
	return h.changed
}

// Close releases the subscription and the search box's pending work.
func (h *Home) Close() {
	h.Search.Close()

	h.mu.Lock()
	sub, done := h.sub, h.done
	h.sub = nil
	h.mu.Unlock()

	if sub != nil {
		sub.Cancel()
		<-done
	}
}

// SetQuery sets the title query consumed by the filter pipeline.
func (h *Home) SetQuery(q string) {
	h.mu.Lock()
	h.state.Query = q
	h.mu.Unlock()
	h.notify()
}

// SetCategory changes the category filter and returns to the first page.
func (h *Home) SetCategory(c models.Category) {
	h.mu.Lock()
	h.state.Category = c
	h.state.Page = 1
	h.mu.Unlock()
	h.notify()
}

// SetPage moves to page n; it is clamped when rendered.
func (h *Home) SetPage(n int) {
	h.mu.Lock()
	h.state.Page = listing.ClampPage(n, len(listing.Filter(h.all, h.state.Query, h.state.Category)), listing.PageSize)
	h.mu.Unlock()
	h.notify()
}

// NextPage and PrevPage step through the pages, stopping at the ends.
func (h *Home) NextPage() { h.SetPage(h.Listing().Page + 1) }
func (h *Home) PrevPage() { h.SetPage(h.Listing().Page - 1) }

func (h *Home) Listing() Listing {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.state
}

func (h *Home) State() HomeState {
	h.mu.RLock()
	defer h.mu.RUnlock()

	st := HomeState{
		Page:       h.state.Apply(h.all),
		Query:      h.state.Query,
		Category:   h.state.Category,
		Categories: append([]models.Category{models.CategoryAll}, models.Categories...),
		Loading:    h.loading,
	}
	if h.err != nil {
		st.Error = h.err.Error()
	}
	return st
}
