package recipes

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"zest/internal/browser"
	"zest/internal/config"
	"zest/internal/seasons"
	"zest/internal/templates"
)

type sessions interface {
	Get(ctx context.Context, id string) *browser.Browser
}

type server struct {
	sessions   sessions
	settleWait time.Duration
	sessionTTL time.Duration
}

// NewHandler returns the recipe page and its htmx endpoints. Every request
// acts on the caller's own browser session.
func NewHandler(cfg *config.Config, sessions sessions) *server {
	return &server{
		sessions:   sessions,
		settleWait: cfg.Browser.SettleWait,
		sessionTTL: cfg.Browser.SessionTTL,
	}
}

func (s *server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", s.handleHome)
	mux.HandleFunc("GET /recipes", s.handleResults)
	mux.HandleFunc("GET /recipes/state", s.handleState)
	mux.HandleFunc("POST /recipes/search", s.handleSearch)
	mux.HandleFunc("POST /recipes/page/next", s.handleNextPage)
	mux.HandleFunc("POST /recipes/page/prev", s.handlePrevPage)
	mux.HandleFunc("POST /recipes/liked-filter", s.handleLikedFilter)
	mux.HandleFunc("POST /recipes/overlay/close", s.handleCloseOverlay)
	mux.HandleFunc("POST /recipes/{id}/like", s.handleLike)
	mux.HandleFunc("POST /recipes/{id}/details", s.handleDetails)
}

func (s *server) browserFor(w http.ResponseWriter, r *http.Request) *browser.Browser {
	return s.sessions.Get(r.Context(), sessionID(w, r, s.sessionTTL))
}

// settle gives outstanding fetches a moment to land so most responses
// render final state; anything slower is picked up by polling.
func (s *server) settle(ctx context.Context, b *browser.Browser) {
	if s.settleWait <= 0 {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, s.settleWait)
	defer cancel()
	b.Settle(ctx)
}

func (s *server) handleHome(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	b := s.browserFor(w, r)
	s.settle(ctx, b)

	data := struct {
		Style        seasons.Style
		View         browser.View
		Testimonials []Testimonial
	}{
		Style:        seasons.GetCurrentStyle(),
		View:         b.View(),
		Testimonials: testimonials,
	}
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
	if err := templates.Home.Execute(w, data); err != nil {
		slog.ErrorContext(ctx, "home template execute error", "error", err)
		http.Error(w, "template error", http.StatusInternalServerError)
	}
}

func (s *server) handleResults(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, s.browserFor(w, r))
}

func (s *server) handleState(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	b := s.browserFor(w, r)
	s.settle(ctx, b)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	if err := json.NewEncoder(w).Encode(b.View()); err != nil {
		slog.ErrorContext(ctx, "failed to encode browser state", "error", err)
	}
}

func (s *server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form data", http.StatusBadRequest)
		return
	}
	b := s.browserFor(w, r)
	b.SetQuery(r.FormValue("q"))
	s.render(w, r, b)
}

func (s *server) handleNextPage(w http.ResponseWriter, r *http.Request) {
	b := s.browserFor(w, r)
	b.NextPage()
	s.render(w, r, b)
}

func (s *server) handlePrevPage(w http.ResponseWriter, r *http.Request) {
	b := s.browserFor(w, r)
	b.PrevPage()
	s.render(w, r, b)
}

func (s *server) handleLikedFilter(w http.ResponseWriter, r *http.Request) {
	b := s.browserFor(w, r)
	b.ToggleLikedOnly()
	s.render(w, r, b)
}

func (s *server) handleCloseOverlay(w http.ResponseWriter, r *http.Request) {
	b := s.browserFor(w, r)
	b.CloseOverlay()
	s.render(w, r, b)
}

func (s *server) handleLike(w http.ResponseWriter, r *http.Request) {
	id, ok := recipeID(w, r)
	if !ok {
		return
	}
	b := s.browserFor(w, r)
	liked := b.ToggleLike(r.Context(), id)
	slog.InfoContext(r.Context(), "toggled liked recipe", "recipe_id", id, "liked_count", len(liked))
	s.render(w, r, b)
}

func (s *server) handleDetails(w http.ResponseWriter, r *http.Request) {
	id, ok := recipeID(w, r)
	if !ok {
		return
	}
	b := s.browserFor(w, r)
	b.ToggleDetails(id)
	s.render(w, r, b)
}

func recipeID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id <= 0 {
		http.Error(w, "invalid recipe id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func (s *server) render(w http.ResponseWriter, r *http.Request, b *browser.Browser) {
	ctx := r.Context()
	s.settle(ctx, b)

	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
	if err := templates.Results.Execute(w, b.View()); err != nil {
		slog.ErrorContext(ctx, "results template execute error", "error", err)
		http.Error(w, "template error", http.StatusInternalServerError)
	}
}
