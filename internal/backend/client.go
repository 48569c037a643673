// Package backend talks to the external AI service that generates issue
// titles, natural-language SQL, and similarity suggestions, and that records
// usage events. The service's internals are out of scope here; this is the
// whole contract.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// Config holds the backend client settings.
type Config struct {
	URL     string
	Timeout time.Duration
}

// DefaultConfig returns the standard client settings for the given base URL.
func DefaultConfig(url string) Config {
	return Config{
		URL:     url,
		Timeout: 15 * time.Second,
	}
}

// Client is a thin JSON HTTP client for the AI backend.
type Client struct {
	config Config
	client *http.Client
	logger *log.Logger
}

// NewClient creates a backend client with default settings.
func NewClient(url string) *Client {
	return NewClientWithConfig(DefaultConfig(url))
}

// NewClientWithConfig creates a backend client with custom settings.
func NewClientWithConfig(config Config) *Client {
	return &Client{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
		logger: log.Default(),
	}
}

// Summarize asks the backend for a short title for an issue description.
// A nil title with a nil error means the backend declined; callers treat any
// failure the same way, so errors are folded into nil here.
func (c *Client) Summarize(ctx context.Context, description string) *string {
	var out struct {
		Title *string `json:"title"`
	}
	err := c.postJSON(ctx, "/api/summarize", map[string]string{"description": description}, &out)
	if err != nil {
		c.logger.Printf("backend summarize unavailable: %v", err)
		return nil
	}
	return out.Title
}

// GenerateSQL asks the backend to translate a natural-language question into
// SQL against the given target dataset ("tasks" or "inventory").
func (c *Client) GenerateSQL(ctx context.Context, question, target string) (string, error) {
	var out struct {
		SQL string `json:"sql"`
	}
	err := c.postJSON(ctx, "/api/generate-sql", map[string]string{
		"question": question,
		"target":   target,
	}, &out)
	if err != nil {
		return "", fmt.Errorf("generate sql: %w", err)
	}
	if out.SQL == "" {
		return "", fmt.Errorf("generate sql: backend returned no query")
	}
	return out.SQL, nil
}

// Ask forwards an arbitrary request body to the backend's ask endpoint and
// returns the raw response body and status.
func (c *Client) Ask(ctx context.Context, body []byte) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.URL+"/api/ask", bytes.NewReader(body))
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, err
	}
	return data, resp.StatusCode, nil
}

// TrackUpload records a usage event for the given user. Fire and forget:
// a short deadline, no retries, and failures are swallowed.
func (c *Client) TrackUpload(email string) {
	if email == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = c.postJSON(ctx, "/api/track-click", map[string]string{"user_email": email}, nil)
}

// IsHealthy checks whether the backend answers its health endpoint.
func (c *Client) IsHealthy(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.URL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode < 500
}

func (c *Client) postJSON(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.URL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("backend returned status %d: %s", resp.StatusCode, string(data))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
