package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/qudud-dev/qudud/internal/profile"
)

// Endpoint paths relative to the API base URL.
const (
	PathInitialize = "/initialize"
	PathChat       = "/chat"
)

// Header names sent with every request.
const (
	HeaderRequestID     = "X-Request-ID"
	HeaderClientSession = "X-Client-Session"
)

// maxErrorBody caps how much of a failed response body is kept.
const maxErrorBody = 512

// chatRequest is the body of POST /chat.
type chatRequest struct {
	Message string `json:"message"`
}

// chatResponse is the body returned by POST /chat.
type chatResponse struct {
	Response string `json:"response"`
}

// StatusError is returned when the service answers with a non-2xx status.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: unexpected status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Op, e.StatusCode, e.Body)
}

// Client talks to the service over HTTP/JSON.
type Client struct {
	baseURL    string
	httpClient *http.Client
	sessionID  string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the transport-level timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// NewClient creates a Client for the service rooted at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		sessionID:  uuid.NewString(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SessionID returns the client-side correlation id sent with every request.
func (c *Client) SessionID() string {
	return c.sessionID
}

// InitializeSession posts the profile to /initialize.
func (c *Client) InitializeSession(ctx context.Context, p profile.Profile) (Ack, error) {
	var ack Ack
	if err := c.post(ctx, "initialize session", PathInitialize, p, &ack); err != nil {
		return Ack{}, err
	}
	return ack, nil
}

// SendMessage posts one user message to /chat and returns the reply text.
func (c *Client) SendMessage(ctx context.Context, text string) (string, error) {
	var resp chatResponse
	if err := c.post(ctx, "send message", PathChat, chatRequest{Message: text}, &resp); err != nil {
		return "", err
	}
	return resp.Response, nil
}

func (c *Client) post(ctx context.Context, op, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%s: marshal request: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(HeaderRequestID, uuid.NewString())
	req.Header.Set(HeaderClientSession, c.sessionID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(snippet)),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}
