// Package client talks to the remote chat-completion backend.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// RemoteChatClient is the capability the session needs from the backend.
type RemoteChatClient interface {
	// Ask relays one user message and returns the assistant reply.
	Ask(ctx context.Context, message string) (string, error)
	// Health probes the backend once; any 2xx is healthy.
	Health(ctx context.Context) error
}

// ErrUnreachable marks connection-level failures. Callers render it as a
// fixed friendly string instead of the raw transport error text.
var ErrUnreachable = errors.New("failed to connect to the server")

// StatusError reports a non-2xx response from the backend.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP error! status: %d", e.Code)
}

// APIError carries the server-provided text of an application-level failure.
type APIError struct {
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// Client implements RemoteChatClient over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New builds a client for the given base URL, e.g. http://localhost:5000.
func New(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Status   string `json:"status"`
	Response string `json:"response"`
	Message  string `json:"message"`
}

// Ask posts one user message to /chat. A request, once issued, runs to
// completion; there is no retry.
func (c *Client) Ask(ctx context.Context, message string) (string, error) {
	body, err := json.Marshal(chatRequest{Message: message})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &StatusError{Code: resp.StatusCode}
	}

	var payload chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("invalid response from server: %v", err)
	}

	if payload.Status != "success" {
		msg := payload.Message
		if msg == "" {
			msg = "Unknown error from server"
		}
		return "", &APIError{Message: msg}
	}

	return payload.Response, nil
}

// Health issues a single GET /health probe.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Code: resp.StatusCode}
	}
	return nil
}
