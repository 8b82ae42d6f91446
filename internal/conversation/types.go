// Package conversation owns the client-side session state: the phase
// machine that turns a profile into an active session, and the append-only
// message log fed by one chat turn at a time.
package conversation

import (
	"errors"

	"github.com/qudud-dev/qudud/internal/profile"
)

// Phase is the session lifecycle. It only moves forward, except that a
// failed initialization returns to PhaseCollecting.
type Phase int

const (
	PhaseCollecting Phase = iota
	PhaseInitializing
	PhaseActive
)

func (p Phase) String() string {
	switch p {
	case PhaseCollecting:
		return "collecting"
	case PhaseInitializing:
		return "initializing"
	case PhaseActive:
		return "active"
	default:
		return "unknown"
	}
}

// Author identifies who wrote a message.
type Author string

const (
	AuthorUser Author = "user"
	AuthorBot  Author = "bot"
)

// Message is one entry of the conversation log. Values are never modified
// after they are appended.
type Message struct {
	Author Author
	Text   string
}

// WelcomeMessage seeds the log once the session is initialized.
const WelcomeMessage = "Welcome to Qudud! Your session is initialized. Type 'motivation' for motivation, 'craving' for tips, or type any message to interact."

// Snapshot is a read-only copy of the controller state for renderers.
type Snapshot struct {
	Phase    Phase
	Profile  profile.Profile
	Messages []Message
	Sending  bool
}

// Initializing reports whether a session initialization is in flight.
func (s Snapshot) Initializing() bool {
	return s.Phase == PhaseInitializing
}

// Gate and precondition errors. None of them change any state.
var (
	ErrProfileIncomplete = errors.New("profile incomplete")
	ErrProfileLocked     = errors.New("profile can no longer be edited")
	ErrInitInFlight      = errors.New("session initialization already in flight")
	ErrAlreadyActive     = errors.New("session already active")
	ErrNotActive         = errors.New("session is not active")
	ErrEmptyMessage      = errors.New("message is empty")
	ErrTurnInFlight      = errors.New("a message is already being sent")
	ErrAlreadyRun        = errors.New("operation already run")
	ErrClosed            = errors.New("conversation closed")
)
