package recipes

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/net/html"

	"zest/internal/browser"
	"zest/internal/cache"
	"zest/internal/config"
	"zest/internal/spoonacular"
	"zest/internal/templates"
)

type stubSource struct {
	mu      sync.Mutex
	queries []string
	fail    bool
}

var catalog = []spoonacular.Summary{
	{ID: 1, Title: "Garlic Bread"},
	{ID: 2, Title: "Tomato Soup"},
	{ID: 3, Title: "Garlic Soup"},
}

func (s *stubSource) Search(_ context.Context, query string, page, pageSize int) (*spoonacular.SearchResult, error) {
	s.mu.Lock()
	s.queries = append(s.queries, query)
	fail := s.fail
	s.mu.Unlock()
	if fail {
		return nil, &spoonacular.StatusError{Operation: "search", StatusCode: http.StatusInternalServerError}
	}

	var hits []spoonacular.Summary
	for _, r := range catalog {
		if strings.Contains(strings.ToLower(r.Title), strings.ToLower(query)) {
			hits = append(hits, r)
		}
	}
	return &spoonacular.SearchResult{Results: hits, TotalResults: len(hits)}, nil
}

func (s *stubSource) Detail(_ context.Context, id int) (*spoonacular.Detail, error) {
	if id == 404 {
		return nil, &spoonacular.StatusError{Operation: "detail", StatusCode: http.StatusNotFound}
	}
	return &spoonacular.Detail{
		ID:                  id,
		Title:               "Detail for recipe",
		ExtendedIngredients: []spoonacular.Ingredient{{Amount: 2, Unit: "cloves", Name: "garlic"}},
		Instructions:        "Toast it.",
		Nutrition:           &spoonacular.Nutrition{Nutrients: []spoonacular.Nutrient{{Name: "Calories", Amount: 120, Unit: "kcal"}}},
	}, nil
}

func (s *stubSource) lastQuery() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queries[len(s.queries)-1]
}

func newTestServer(t *testing.T, src *stubSource) *httptest.Server {
	t.Helper()

	cfg := &config.Config{Browser: config.BrowserConfig{
		PageSize:   6,
		SettleWait: 2 * time.Second,
		SessionTTL: time.Hour,
	}}
	if err := templates.Init(cfg, "/static/site.css"); err != nil {
		t.Fatalf("init templates: %v", err)
	}

	sessions := browser.NewSessions(src, cache.NewInMemoryCache(), cfg.Browser.PageSize, cfg.Browser.SessionTTL)
	t.Cleanup(sessions.Close)

	mux := http.NewServeMux()
	NewHandler(cfg, sessions).Register(mux)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return &http.Client{Jar: jar}
}

func readBody(t *testing.T, resp *http.Response, wantStatus int) string {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if resp.StatusCode != wantStatus {
		t.Fatalf("expected status %d, got %d: %s", wantStatus, resp.StatusCode, body)
	}
	return string(body)
}

func get(t *testing.T, client *http.Client, u string) string {
	t.Helper()
	resp, err := client.Get(u)
	if err != nil {
		t.Fatalf("GET %s: %v", u, err)
	}
	return readBody(t, resp, http.StatusOK)
}

func post(t *testing.T, client *http.Client, u string, form url.Values) string {
	t.Helper()
	resp, err := client.PostForm(u, form)
	if err != nil {
		t.Fatalf("POST %s: %v", u, err)
	}
	return readBody(t, resp, http.StatusOK)
}

func mustParseHTML(t *testing.T, body string) {
	t.Helper()
	if _, err := html.Parse(strings.NewReader(body)); err != nil {
		t.Fatalf("invalid html: %v", err)
	}
}

func state(t *testing.T, client *http.Client, base string) browser.View {
	t.Helper()
	var v browser.View
	if err := json.Unmarshal([]byte(get(t, client, base+"/recipes/state")), &v); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	return v
}

func TestHomeSetsSessionAndRendersRecipes(t *testing.T) {
	server := newTestServer(t, &stubSource{})
	client := newClient(t)

	resp, err := client.Get(server.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == CookieName {
			cookie = c
		}
	}
	body := readBody(t, resp, http.StatusOK)
	mustParseHTML(t, body)

	if cookie == nil || !cookie.HttpOnly {
		t.Fatalf("expected http-only session cookie, got %+v", cookie)
	}
	for _, want := range []string{"Garlic Bread", "Tomato Soup", "Emma Watson", "@liam_anderson", "Page 1 of 1"} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %q on home page", want)
		}
	}
}

func TestLikeAndLikedFilter(t *testing.T) {
	server := newTestServer(t, &stubSource{})
	client := newClient(t)
	get(t, client, server.URL+"/")

	body := post(t, client, server.URL+"/recipes/1/like", nil)
	mustParseHTML(t, body)
	if !strings.Contains(body, `aria-pressed="true"`) {
		t.Fatal("expected liked recipe to render as pressed")
	}
	if got := state(t, client, server.URL).Liked; !slices.Equal(got, []int{1}) {
		t.Fatalf("expected liked [1], got %v", got)
	}

	body = post(t, client, server.URL+"/recipes/liked-filter", nil)
	if !strings.Contains(body, "Garlic Bread") || strings.Contains(body, "Tomato Soup") {
		t.Fatalf("expected only liked recipes, got %s", body)
	}
	if !strings.Contains(body, "All recipes") {
		t.Fatal("expected the filter button to offer all recipes")
	}

	post(t, client, server.URL+"/recipes/1/like", nil)
	if got := state(t, client, server.URL).Liked; len(got) != 0 {
		t.Fatalf("expected liked set empty after second toggle, got %v", got)
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	server := newTestServer(t, &stubSource{})
	alice, bob := newClient(t), newClient(t)

	post(t, alice, server.URL+"/recipes/2/like", nil)
	if got := state(t, bob, server.URL).Liked; len(got) != 0 {
		t.Fatalf("expected other visitor to have no likes, got %v", got)
	}
}

func TestSearchFiltersByTitle(t *testing.T) {
	src := &stubSource{}
	server := newTestServer(t, src)
	client := newClient(t)

	body := post(t, client, server.URL+"/recipes/search", url.Values{"q": {"garlic"}})
	mustParseHTML(t, body)
	if src.lastQuery() != "garlic" {
		t.Fatalf("expected search for garlic, got %q", src.lastQuery())
	}
	if !strings.Contains(body, "Garlic Bread") || strings.Contains(body, "Tomato Soup") {
		t.Fatalf("expected garlic recipes only, got %s", body)
	}

	v := state(t, client, server.URL)
	if v.Query != "garlic" || v.Page != 1 || len(v.Recipes) != 2 {
		t.Fatalf("unexpected state: %+v", v)
	}
}

func TestSearchFailureRendersMessage(t *testing.T) {
	server := newTestServer(t, &stubSource{fail: true})
	client := newClient(t)

	body := post(t, client, server.URL+"/recipes/search", url.Values{"q": {"x"}})
	if !strings.Contains(body, "Failed to fetch recipes") || !strings.Contains(body, "No recipes found") {
		t.Fatalf("expected error message and empty list, got %s", body)
	}
}

func TestDetailsOverlayOpensAndCloses(t *testing.T) {
	server := newTestServer(t, &stubSource{})
	client := newClient(t)
	get(t, client, server.URL+"/")

	body := post(t, client, server.URL+"/recipes/3/details", nil)
	mustParseHTML(t, body)
	for _, want := range []string{"Detail for recipe", "2 cloves garlic", "Calories: 120 kcal", "Hide Details"} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %q in overlay", want)
		}
	}

	body = post(t, client, server.URL+"/recipes/overlay/close", nil)
	if strings.Contains(body, `id="overlay"`) {
		t.Fatal("expected overlay to be closed")
	}

	post(t, client, server.URL+"/recipes/3/details", nil)
	body = post(t, client, server.URL+"/recipes/3/details", nil)
	if strings.Contains(body, `id="overlay"`) {
		t.Fatal("expected second toggle to close the overlay")
	}
}

func TestDetailsFailureLeavesOverlayClosed(t *testing.T) {
	server := newTestServer(t, &stubSource{})
	client := newClient(t)

	body := post(t, client, server.URL+"/recipes/404/details", nil)
	if strings.Contains(body, `id="overlay"`) {
		t.Fatal("expected no overlay after failed detail fetch")
	}
}

func TestPagingAtBoundsIsNoop(t *testing.T) {
	server := newTestServer(t, &stubSource{})
	client := newClient(t)
	get(t, client, server.URL+"/")

	post(t, client, server.URL+"/recipes/page/prev", nil)
	post(t, client, server.URL+"/recipes/page/next", nil)
	if v := state(t, client, server.URL); v.Page != 1 {
		t.Fatalf("expected to stay on page 1, got %d", v.Page)
	}
}

func TestInvalidRecipeID(t *testing.T) {
	server := newTestServer(t, &stubSource{})
	client := newClient(t)

	for _, path := range []string{"/recipes/abc/like", "/recipes/-1/details"} {
		resp, err := client.PostForm(server.URL+path, nil)
		if err != nil {
			t.Fatalf("POST %s: %v", path, err)
		}
		readBody(t, resp, http.StatusBadRequest)
	}
}

func TestFromRequestRejectsMalformedCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "not-a-uuid"})
	if _, err := FromRequest(req); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}

	rec := httptest.NewRecorder()
	if id := sessionID(rec, req, time.Hour); id == "not-a-uuid" || id == "" {
		t.Fatalf("expected a fresh session id, got %q", id)
	}
}
