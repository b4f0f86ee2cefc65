package simulate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	service "github.com/okian/rivalry/internal/app"
)

// Client talks to the rivalry HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a Client for baseURL.
func NewClient(baseURL string, hc *http.Client) *Client {
	return &Client{baseURL: baseURL, http: hc}
}

// Health checks GET /healthz.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, nil, nil)
}

// CreateGame provisions a game with the given fighter names.
func (c *Client) CreateGame(ctx context.Context, name string, fighters []string) (service.GameView, error) {
	var out service.GameView
	body := map[string]any{"name": name, "fighters": fighters}
	return out, c.do(ctx, http.MethodPost, "/games", body, &out, nil)
}

// CreateRivalry opens a rivalry between two participants.
func (c *Client) CreateRivalry(ctx context.Context, gameID, a, b string) (service.RivalryView, error) {
	var out service.RivalryView
	body := map[string]any{"game_id": gameID, "participant_a": a, "participant_b": b}
	return out, c.do(ctx, http.MethodPost, "/rivalries", body, &out, nil)
}

// Rivalry fetches a rivalry view.
func (c *Client) Rivalry(ctx context.Context, id string) (service.RivalryView, error) {
	var out service.RivalryView
	return out, c.do(ctx, http.MethodGet, "/rivalries/"+id, nil, &out, nil)
}

// Resolve submits a result for the open contest under a fresh idempotency key.
func (c *Client) Resolve(ctx context.Context, rivalryID string, result int) (service.ResolveResult, error) {
	var out service.ResolveResult
	headers := map[string]string{"Idempotency-Key": uuid.NewString()}
	return out, c.do(ctx, http.MethodPost, "/rivalries/"+rivalryID+"/result", map[string]int{"result": result}, &out, headers)
}

// Undo reverts the last resolved contest.
func (c *Client) Undo(ctx context.Context, rivalryID string) (service.RivalryView, error) {
	var out service.RivalryView
	return out, c.do(ctx, http.MethodPost, "/rivalries/"+rivalryID+"/undo", nil, &out, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any, headers map[string]string) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("%w: %s %s: %d %s", ErrStatus, method, path, resp.StatusCode, bytes.TrimSpace(data))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s %s: %w", method, path, err)
	}
	return nil
}
