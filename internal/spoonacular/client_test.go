package spoonacular

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"zest/internal/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(config.SpoonacularConfig{
		APIKey:          "test-key",
		BaseURL:         server.URL,
		HTTPClient:      server.Client(),
		BreakerFailures: 3,
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestNewClientRequiresKey(t *testing.T) {
	t.Parallel()
	if _, err := NewClient(config.SpoonacularConfig{}); err == nil {
		t.Fatal("expected error without api key")
	}
}

func TestSearch_SetsQueryAndOffset(t *testing.T) {
	t.Parallel()

	var capturedReq *http.Request
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		capturedReq = r
		_, _ = w.Write([]byte(`{"results":[{"id":1,"title":"Garlic Bread","image":"https://img/1.jpg","imageType":"jpg"}],"offset":12,"number":6,"totalResults":40}`))
	})

	result, err := client.Search(context.Background(), "garlic bread", 3, 6)
	if err != nil {
		t.Fatalf("search: %v", err)
	}

	if capturedReq.URL.Path != "/recipes/complexSearch" {
		t.Fatalf("unexpected path: %s", capturedReq.URL.Path)
	}
	q := capturedReq.URL.Query()
	if got := q.Get("query"); got != "garlic bread" {
		t.Fatalf("unexpected query: %q", got)
	}
	if got := q.Get("offset"); got != "12" {
		t.Fatalf("expected offset 12 for page 3, got %q", got)
	}
	if got := q.Get("number"); got != "6" {
		t.Fatalf("unexpected number: %q", got)
	}
	if got := q.Get("apiKey"); got != "test-key" {
		t.Fatalf("unexpected apiKey: %q", got)
	}

	if result.TotalResults != 40 || len(result.Results) != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
	hit := result.Results[0]
	if hit.ID != 1 || hit.Title != "Garlic Bread" || hit.Image != "https://img/1.jpg" {
		t.Fatalf("unexpected summary: %+v", hit)
	}
	if string(hit.Extra["imageType"]) != `"jpg"` {
		t.Fatalf("expected extra field passed through, got %v", hit.Extra)
	}
}

func TestSearch_EmptyQueryStillRequests(t *testing.T) {
	t.Parallel()

	var hit bool
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hit = true
		if !r.URL.Query().Has("query") {
			t.Errorf("expected query parameter to be present")
		}
		if got := r.URL.Query().Get("offset"); got != "0" {
			t.Errorf("expected offset 0, got %q", got)
		}
		_, _ = w.Write([]byte(`{"results":[],"totalResults":0}`))
	})

	result, err := client.Search(context.Background(), "", 1, 6)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if !hit || len(result.Results) != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestSearch_StatusError(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := client.Search(context.Background(), "x", 1, 6)
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got %T %v", err, err)
	}
	if se.StatusCode != http.StatusInternalServerError || se.Operation != "search" {
		t.Fatalf("unexpected status error: %+v", se)
	}
	if strings.Contains(err.Error(), "test-key") {
		t.Fatalf("error leaks api key: %v", err)
	}
}

func TestSearch_ParseError(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results": [`))
	})

	_, err := client.Search(context.Background(), "x", 1, 6)
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError, got %T %v", err, err)
	}
}

func TestSearch_NetworkError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client, err := NewClient(config.SpoonacularConfig{APIKey: "k", BaseURL: url, Timeout: time.Second})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	_, err = client.Search(context.Background(), "x", 1, 6)
	var ne *NetworkError
	if !errors.As(err, &ne) {
		t.Fatalf("expected NetworkError, got %T %v", err, err)
	}
}

func TestBreakerOpensAfterServerErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})

	for range 3 {
		_, _ = client.Search(context.Background(), "x", 1, 6)
	}
	_, err := client.Search(context.Background(), "x", 1, 6)
	var ne *NetworkError
	if !errors.As(err, &ne) {
		t.Fatalf("expected open breaker to surface as NetworkError, got %T %v", err, err)
	}
	if got := calls.Load(); got != 3 {
		t.Fatalf("expected 3 upstream calls before breaker opened, got %d", got)
	}
}

func TestClientErrorsDoNotTripBreaker(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusPaymentRequired)
	})

	for range 5 {
		_, err := client.Search(context.Background(), "x", 1, 6)
		var se *StatusError
		if !errors.As(err, &se) {
			t.Fatalf("expected StatusError, got %T %v", err, err)
		}
	}
	if got := calls.Load(); got != 5 {
		t.Fatalf("expected every request to reach upstream, got %d", got)
	}
}

func TestDetail_DeserializesResponse(t *testing.T) {
	t.Parallel()

	var capturedReq *http.Request
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		capturedReq = r
		_, _ = w.Write([]byte(`{
			"id": 5,
			"title": "Banana Bread",
			"extendedIngredients": [
				{"id": 9040, "amount": 2, "unit": "", "name": "bananas"},
				{"id": 20081, "amount": 1.5, "unit": "cups", "name": "flour"}
			],
			"instructions": "Mash. Bake.",
			"nutrition": {"nutrients": [{"name": "Calories", "amount": 196.5, "unit": "kcal"}]}
		}`))
	})

	detail, err := client.Detail(context.Background(), 5)
	if err != nil {
		t.Fatalf("detail: %v", err)
	}
	if capturedReq.URL.Path != "/recipes/5/information" {
		t.Fatalf("unexpected path: %s", capturedReq.URL.Path)
	}
	if got := capturedReq.URL.Query().Get("includeNutrition"); got != "true" {
		t.Fatalf("expected includeNutrition=true, got %q", got)
	}

	if detail.ID != 5 || detail.Title != "Banana Bread" || detail.Instructions != "Mash. Bake." {
		t.Fatalf("unexpected detail: %+v", detail)
	}
	if got := detail.ExtendedIngredients[0].Line(); got != "2 bananas" {
		t.Fatalf("unexpected ingredient line: %q", got)
	}
	if got := detail.ExtendedIngredients[1].Line(); got != "1.5 cups flour" {
		t.Fatalf("unexpected ingredient line: %q", got)
	}
	if detail.Nutrition == nil || len(detail.Nutrition.Nutrients) != 1 {
		t.Fatalf("expected nutrition, got %+v", detail.Nutrition)
	}
	if got := detail.Nutrition.Nutrients[0].Line(); got != "Calories: 196.5 kcal" {
		t.Fatalf("unexpected nutrient line: %q", got)
	}
}

func TestDetail_WithoutNutrition(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id": 7, "title": "Toast", "extendedIngredients": [], "instructions": ""}`))
	})

	detail, err := client.Detail(context.Background(), 7)
	if err != nil {
		t.Fatalf("detail: %v", err)
	}
	if detail.Nutrition != nil {
		t.Fatalf("expected nil nutrition, got %+v", detail.Nutrition)
	}
}

func TestSummaryRoundTripKeepsExtraFields(t *testing.T) {
	t.Parallel()

	var s Summary
	if err := json.Unmarshal([]byte(`{"id":3,"title":"Soup","image":"u","likes":12}`), &s); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	out, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back map[string]any
	if err := json.Unmarshal(out, &back); err != nil {
		t.Fatalf("unmarshal output: %v", err)
	}
	if back["likes"] != float64(12) || back["title"] != "Soup" {
		t.Fatalf("unexpected round trip: %s", out)
	}
}
