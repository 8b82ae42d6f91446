// Package backend is the client side of the conversational service: the
// port the conversation controller depends on and its HTTP/JSON adapter.
package backend

import (
	"context"

	"github.com/qudud-dev/qudud/internal/profile"
)

// Ack is the service's acknowledgement of a new session. The controller
// only cares that it arrived.
type Ack struct {
	Message  string            `json:"message"`
	UserData map[string]string `json:"user_data,omitempty"`
}

// Backend is the conversational service as seen by the client.
// Neither call is retried; each one is a single request/response exchange.
type Backend interface {
	InitializeSession(ctx context.Context, p profile.Profile) (Ack, error)
	SendMessage(ctx context.Context, text string) (string, error)
}

// Ensure Client implements Backend.
var _ Backend = (*Client)(nil)
