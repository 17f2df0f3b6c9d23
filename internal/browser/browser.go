// Package browser holds the per-visitor state behind the recipe search page:
// query, page, liked filter, the detail overlay, and the requests that feed them.
package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"zest/internal/metrics"
	"zest/internal/spoonacular"
)

// SearchErrorMessage is what visitors see for any failed search.
const SearchErrorMessage = "Failed to fetch recipes"

type RecipeSource interface {
	Search(ctx context.Context, query string, page, pageSize int) (*spoonacular.SearchResult, error)
	Detail(ctx context.Context, id int) (*spoonacular.Detail, error)
}

type LikedSet interface {
	Toggle(ctx context.Context, id int) []int
	IDs() []int
}

type OverlayStatus int

const (
	OverlayClosed OverlayStatus = iota
	OverlayLoading
	OverlayShown
)

func (s OverlayStatus) String() string {
	switch s {
	case OverlayLoading:
		return "loading"
	case OverlayShown:
		return "shown"
	default:
		return "closed"
	}
}

func (s OverlayStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *OverlayStatus) UnmarshalText(b []byte) error {
	switch string(b) {
	case "closed":
		*s = OverlayClosed
	case "loading":
		*s = OverlayLoading
	case "shown":
		*s = OverlayShown
	default:
		return fmt.Errorf("unknown overlay status %q", b)
	}
	return nil
}

// Overlay is the detail overlay. Detail is set only when Status is OverlayShown.
type Overlay struct {
	Status   OverlayStatus       `json:"status"`
	RecipeID int                 `json:"recipeId,omitempty"`
	Detail   *spoonacular.Detail `json:"detail,omitempty"`
}

func (o Overlay) Open() bool { return o.Status != OverlayClosed }

func (o Overlay) Loading() bool { return o.Status == OverlayLoading }

// Browser is one visitor's recipe page. Methods are safe for concurrent use;
// fetches run in the background and only the newest one of each kind lands.
type Browser struct {
	source RecipeSource
	liked  LikedSet

	base context.Context
	stop context.CancelFunc
	wg   sync.WaitGroup

	mu        sync.Mutex
	query     string
	pager     Pagination
	showLiked bool
	results   []spoonacular.Summary
	loading   bool
	errMsg    string
	overlay   Overlay
	search    flight
	detail    flight
	closed    bool
}

func New(source RecipeSource, liked LikedSet, pageSize int) *Browser {
	ctx, cancel := context.WithCancel(context.Background())
	return &Browser{
		source: source,
		liked:  liked,
		base:   ctx,
		stop:   cancel,
		pager:  NewPagination(pageSize),
		search: newFlight(),
		detail: newFlight(),
	}
}

// Start issues the first search, for the empty query on page 1.
func (b *Browser) Start() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.issueSearch()
}

// SetQuery changes the search text and goes back to page 1. Resubmitting
// the same text only searches again when the last search failed.
func (b *Browser) SetQuery(q string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if q == b.query && b.errMsg == "" {
		return
	}
	b.query = q
	b.pager.CurrentPage = 1
	b.issueSearch()
}

// NextPage moves forward one page; false at the last page.
func (b *Browser) NextPage() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.pager.Next() {
		return false
	}
	b.issueSearch()
	return true
}

// PrevPage moves back one page; false at page 1.
func (b *Browser) PrevPage() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.pager.Prev() {
		return false
	}
	b.issueSearch()
	return true
}

// ToggleLikedOnly flips the "liked recipes" filter and returns its new value.
func (b *Browser) ToggleLikedOnly() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.showLiked = !b.showLiked
	return b.showLiked
}

func (b *Browser) ToggleLike(ctx context.Context, id int) []int {
	return b.liked.Toggle(ctx, id)
}

// ToggleDetails opens the overlay for id, or closes it when id is the one
// already open or loading.
func (b *Browser) ToggleDetails(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.overlay.Open() && b.overlay.RecipeID == id {
		b.closeOverlay()
		return
	}
	if b.closed {
		return
	}

	b.overlay = Overlay{Status: OverlayLoading, RecipeID: id}
	ctx, seq := b.detail.begin(b.base)
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		d, err := b.source.Detail(ctx, id)
		b.applyDetail(seq, id, d, err)
	}()
}

// CloseOverlay handles a click outside the overlay.
func (b *Browser) CloseOverlay() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closeOverlay()
}

// Settle blocks until no search or detail fetch is outstanding, or ctx ends.
// It reports whether everything landed.
func (b *Browser) Settle(ctx context.Context) bool {
	b.mu.Lock()
	searchDone, detailDone := b.search.done, b.detail.done
	b.mu.Unlock()

	for _, done := range []chan struct{}{searchDone, detailDone} {
		select {
		case <-done:
		case <-ctx.Done():
			return false
		}
	}
	return true
}

// Close cancels outstanding fetches and waits for their goroutines.
func (b *Browser) Close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	b.stop()
	b.wg.Wait()
}

// Wait blocks until background fetches return.
func (b *Browser) Wait() {
	b.wg.Wait()
}

// issueSearch must be called with mu held.
func (b *Browser) issueSearch() {
	if b.closed {
		return
	}
	ctx, seq := b.search.begin(b.base)
	b.loading = true
	b.errMsg = ""

	query, page, size := b.query, b.pager.CurrentPage, b.pager.ResultsPerPage
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		res, err := b.source.Search(ctx, query, page, size)
		b.applySearch(seq, res, err)
	}()
}

func (b *Browser) applySearch(seq uint64, res *spoonacular.SearchResult, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.search.current(seq) {
		metrics.StaleResponses.WithLabelValues("search").Inc()
		return
	}
	if b.closed && errors.Is(err, context.Canceled) {
		b.loading = false
		b.search.finish()
		return
	}

	if err != nil {
		slog.WarnContext(b.base, "recipe search failed", "query", b.query, "page", b.pager.CurrentPage, "error", err)
		b.results = nil
		b.pager.TotalResults = 0
		b.errMsg = SearchErrorMessage
	} else {
		b.results = res.Results
		b.pager.TotalResults = max(res.TotalResults, 0)
		if b.pager.Clamp() {
			// result set shrank under us; fetch the page we clamped to
			b.issueSearch()
			return
		}
	}
	b.loading = false
	b.search.finish()
}

func (b *Browser) applyDetail(seq uint64, id int, d *spoonacular.Detail, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.detail.current(seq) {
		metrics.StaleResponses.WithLabelValues("detail").Inc()
		return
	}
	b.detail.finish()

	if err != nil {
		if !errors.Is(err, context.Canceled) {
			slog.ErrorContext(b.base, "Failed to fetch recipe details", "recipe_id", id, "error", err)
		}
		b.overlay = Overlay{}
		return
	}
	b.overlay = Overlay{Status: OverlayShown, RecipeID: id, Detail: d}
}

// closeOverlay must be called with mu held.
func (b *Browser) closeOverlay() {
	b.detail.finish()
	b.overlay = Overlay{}
}

// Card is one rendered recipe summary.
type Card struct {
	Recipe   spoonacular.Summary `json:"recipe"`
	Liked    bool                `json:"liked"`
	Expanded bool                `json:"expanded"`
}

// View is a consistent snapshot of everything the page renders.
type View struct {
	Query         string  `json:"query"`
	ShowLikedOnly bool    `json:"showLikedOnly"`
	Loading       bool    `json:"loading"`
	Error         string  `json:"error,omitempty"`
	Recipes       []Card  `json:"recipes"`
	Page          int     `json:"page"`
	TotalPages    int     `json:"totalPages"`
	TotalResults  int     `json:"totalResults"`
	PageSize      int     `json:"pageSize"`
	HasPrev       bool    `json:"hasPrev"`
	HasNext       bool    `json:"hasNext"`
	Overlay       Overlay `json:"overlay"`
	Liked         []int   `json:"liked"`
}

func (b *Browser) View() View {
	liked := b.liked.IDs()

	b.mu.Lock()
	defer b.mu.Unlock()

	shown := Derive(b.results, b.query, b.showLiked, liked)
	cards := make([]Card, 0, len(shown))
	for _, s := range shown {
		cards = append(cards, Card{
			Recipe:   s,
			Liked:    slices.Contains(liked, s.ID),
			Expanded: b.overlay.Status != OverlayClosed && b.overlay.RecipeID == s.ID,
		})
	}
	if liked == nil {
		liked = []int{}
	}

	return View{
		Query:         b.query,
		ShowLikedOnly: b.showLiked,
		Loading:       b.loading,
		Error:         b.errMsg,
		Recipes:       cards,
		Page:          b.pager.CurrentPage,
		TotalPages:    b.pager.TotalPages(),
		TotalResults:  b.pager.TotalResults,
		PageSize:      b.pager.ResultsPerPage,
		HasPrev:       b.pager.HasPrev(),
		HasNext:       b.pager.HasNext(),
		Overlay:       b.overlay,
		Liked:         liked,
	}
}

// Pending reports whether a fetch is still outstanding, so the page should poll.
func (v View) Pending() bool {
	return v.Loading || v.Overlay.Loading()
}
