package spoonacular

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sony/gobreaker"

	"zest/internal/config"
	"zest/internal/metrics"
)

const (
	// DefaultBaseURL is the Spoonacular API base URL.
	DefaultBaseURL = "https://api.spoonacular.com"

	maxBodyBytes  = 4 << 20
	maxErrorBytes = 512
)

// Client calls the Spoonacular recipe endpoints.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *retryablehttp.Client
	cb         *gobreaker.CircuitBreaker
}

// NewClient creates a Spoonacular client.
func NewClient(cfg config.SpoonacularConfig) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("api key is required")
	}

	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	rc := retryablehttp.NewClient()
	rc.HTTPClient = httpClient
	rc.RetryMax = max(cfg.RetryMax, 0)
	rc.Logger = slog.Default()
	// hand non-2xx responses back instead of a "giving up" error
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	failures := uint32(max(cfg.BreakerFailures, 1))
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "spoonacular",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: countsAsSuccess,
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			slog.Warn("CircuitBreaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	})

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: rc,
		cb:         cb,
	}, nil
}

// countsAsSuccess keeps client mistakes and cancelled requests from tripping
// the breaker; only network failures and 5xx do.
func countsAsSuccess(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode < http.StatusInternalServerError
	}
	var pe *ParseError
	return errors.As(err, &pe)
}

// docs https://spoonacular.com/food-api/docs#Search-Recipes-Complex
// Search returns one page of recipes matching query. An empty query matches everything.
func (c *Client) Search(ctx context.Context, query string, page, pageSize int) (*SearchResult, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		return nil, fmt.Errorf("page size must be positive, got %d", pageSize)
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("offset", strconv.Itoa((page-1)*pageSize))
	params.Set("number", strconv.Itoa(pageSize))

	var result SearchResult
	if err := c.get(ctx, "search", "/recipes/complexSearch", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// docs https://spoonacular.com/food-api/docs#Get-Recipe-Information
// Detail fetches one recipe with ingredients, instructions and nutrition.
func (c *Client) Detail(ctx context.Context, id int) (*Detail, error) {
	params := url.Values{}
	params.Set("includeNutrition", "true")

	var detail Detail
	if err := c.get(ctx, "detail", fmt.Sprintf("/recipes/%d/information", id), params, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

func (c *Client) get(ctx context.Context, op, path string, params url.Values, out any) error {
	start := time.Now()
	_, err := c.cb.Execute(func() (any, error) {
		return nil, c.do(ctx, op, path, params, out)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		err = &NetworkError{Operation: op, Err: err}
	}

	metrics.UpstreamDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	metrics.UpstreamRequests.WithLabelValues(op, outcome(err)).Inc()
	return err
}

func (c *Client) do(ctx context.Context, op, path string, params url.Values, out any) error {
	// log before the key goes in
	slog.DebugContext(ctx, "calling recipe api", "operation", op, "path", path, "params", params.Encode())

	withKey := url.Values{}
	for k, v := range params {
		withKey[k] = v
	}
	withKey.Set("apiKey", c.apiKey)

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+withKey.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build %s request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &NetworkError{Operation: op, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return &NetworkError{Operation: op, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		slog.ErrorContext(ctx, "received recipe api error", "operation", op, "status", resp.StatusCode)
		msg := strings.TrimSpace(string(body))
		if len(msg) > maxErrorBytes {
			msg = msg[:maxErrorBytes]
		}
		return &StatusError{Operation: op, StatusCode: resp.StatusCode, Body: msg}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &ParseError{Operation: op, Err: err}
	}
	return nil
}

func outcome(err error) string {
	var (
		ne *NetworkError
		se *StatusError
		pe *ParseError
	)
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.As(err, &se):
		return "status"
	case errors.As(err, &pe):
		return "parse"
	case errors.As(err, &ne):
		return "network"
	default:
		return "error"
	}
}
