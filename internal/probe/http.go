package probe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Client calls the recommendation API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient creates a client that sends token as a bearer credential.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

// StatusError reports an unexpected HTTP status.
type StatusError struct {
	Path   string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: status %d: %s", e.Path, e.Status, e.Body)
}

// Health checks GET /health.
func (c *Client) Health(ctx context.Context) error {
	var out struct {
		Status string `json:"status"`
	}
	if err := c.getJSON(ctx, "/health", false, &out); err != nil {
		return err
	}
	if out.Status != "OK" {
		return fmt.Errorf("unexpected health status %q", out.Status)
	}
	return nil
}

// Recommendations fetches the recommendations of userID.
func (c *Client) Recommendations(ctx context.Context, userID int64, limit int) (RecommendationsResponse, error) {
	var out RecommendationsResponse
	path := fmt.Sprintf("/api/v1/recommendations/%d?limit=%d", userID, limit)
	err := c.getJSON(ctx, path, true, &out)
	return out, err
}

// Trending fetches the trending skills.
func (c *Client) Trending(ctx context.Context, limit int) (TrendingResponse, error) {
	var out TrendingResponse
	err := c.getJSON(ctx, fmt.Sprintf("/api/v1/recommendations/trending?limit=%d", limit), false, &out)
	return out, err
}

func (c *Client) getJSON(ctx context.Context, path string, authed bool, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Request-Id", uuid.NewString())
	if authed && c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if resp.StatusCode != http.StatusOK {
		return &StatusError{Path: path, Status: resp.StatusCode, Body: string(body)}
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
