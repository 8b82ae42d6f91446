package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/qudud-dev/qudud/internal/backend"
	qlog "github.com/qudud-dev/qudud/internal/log"
	"github.com/qudud-dev/qudud/internal/profile"
)

// Controller is the single owner of the profile, the phase and the
// conversation log. All mutation goes through its methods; the mutex is
// never held across a backend call.
//
// Both network operations are split in two: Begin* runs synchronously,
// applies the gate and any optimistic update, and returns a handle whose
// Run performs the call. The handle releases the gate on every exit path.
type Controller struct {
	backend backend.Backend
	logger  *zap.Logger
	timeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	phase    Phase
	profile  profile.Profile
	messages []Message
	sending  bool
	closed   bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the sink for failures and lifecycle events.
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) {
		c.logger = l
	}
}

// WithTimeout bounds every backend call. Zero disables the deadline.
func WithTimeout(d time.Duration) Option {
	return func(c *Controller) {
		c.timeout = d
	}
}

// WithProfile replaces the default starting profile.
func WithProfile(p profile.Profile) Option {
	return func(c *Controller) {
		c.profile = p
	}
}

// New creates a Controller in PhaseCollecting with a default profile and an
// empty log.
func New(b backend.Backend, opts ...Option) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		backend:  b,
		logger:   zap.NewNop(),
		ctx:      ctx,
		cancel:   cancel,
		phase:    PhaseCollecting,
		profile:  profile.New(),
		messages: make([]Message, 0),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Context is cancelled by Close. Callers running Submission.Run or Turn.Run
// on a goroutine should derive from it.
func (c *Controller) Context() context.Context {
	return c.ctx
}

// Phase returns the current session phase.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Profile returns a copy of the current profile.
func (c *Controller) Profile() profile.Profile {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.profile
}

// Messages returns a copy of the conversation log in insertion order.
func (c *Controller) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.copyMessages()
}

// Sending reports whether a chat turn is in flight.
func (c *Controller) Sending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sending
}

// Snapshot returns a consistent copy of the whole state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		Phase:    c.phase,
		Profile:  c.profile,
		Messages: c.copyMessages(),
		Sending:  c.sending,
	}
}

func (c *Controller) copyMessages() []Message {
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// UpdateProfile applies fn to the profile. Only allowed while collecting.
func (c *Controller) UpdateProfile(fn func(*profile.Profile)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != PhaseCollecting {
		return ErrProfileLocked
	}
	p := c.profile
	fn(&p)
	c.profile = p
	return nil
}

// Close cancels in-flight calls and discards their results. Gates are
// still released by the running handles. Close is idempotent.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	c.cancel()
	c.logger.Info("conversation closed", qlog.Event(qlog.EventClosed))
}

func (c *Controller) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// callContext derives the context for one backend call: cancelled with the
// caller's ctx, with Close, or after the configured timeout.
func (c *Controller) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancelCause(ctx)
	stop := context.AfterFunc(c.ctx, func() {
		cancel(ErrClosed)
	})

	cancelTimeout := context.CancelFunc(func() {})
	if c.timeout > 0 {
		ctx, cancelTimeout = context.WithTimeout(ctx, c.timeout)
	}

	return ctx, func() {
		cancelTimeout()
		stop()
		cancel(nil)
	}
}

// ============================================================================
// Session initialization
// ============================================================================

// Submission is an initialization that passed the gate. Run must be called
// exactly once to perform the call and release the gate.
type Submission struct {
	c       *Controller
	profile profile.Profile
	ran     atomic.Bool
}

// Profile returns the profile being submitted.
func (s *Submission) Profile() profile.Profile {
	return s.profile
}

// BeginSubmit validates the profile and moves to PhaseInitializing.
// While an initialization is in flight further submissions are rejected
// with ErrInitInFlight: the first submission wins.
func (c *Controller) BeginSubmit() (*Submission, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrClosed
	}
	switch c.phase {
	case PhaseInitializing:
		return nil, ErrInitInFlight
	case PhaseActive:
		return nil, ErrAlreadyActive
	}
	if err := c.profile.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProfileIncomplete, err)
	}

	c.phase = PhaseInitializing
	c.logger.Info("initializing session",
		qlog.Event(qlog.EventInitStarted),
		zap.Int("smoking_frequency", c.profile.SmokingFrequency),
		zap.Int("craving_level", c.profile.CravingLevel),
		zap.String("mood", string(c.profile.Mood)),
	)
	return &Submission{c: c, profile: c.profile}, nil
}

// Run calls the backend. On success the phase becomes PhaseActive and the
// log is seeded with WelcomeMessage; on failure the phase returns to
// PhaseCollecting and the error is logged.
func (s *Submission) Run(ctx context.Context) (err error) {
	if !s.ran.CompareAndSwap(false, true) {
		return ErrAlreadyRun
	}
	c := s.c

	ctx, cancel := c.callContext(ctx)
	defer cancel()

	succeeded := false
	defer func() {
		if ferr := c.finishSubmit(succeeded); ferr != nil && err == nil {
			err = ferr
		}
	}()

	if _, callErr := c.backend.InitializeSession(ctx, s.profile); callErr != nil {
		if c.isClosed() || errors.Is(context.Cause(ctx), ErrClosed) {
			callErr = fmt.Errorf("%w: %w", ErrClosed, callErr)
		}
		c.logger.Error("session initialization failed",
			qlog.Event(qlog.EventInitFailed),
			zap.Error(callErr),
		)
		return fmt.Errorf("initialize session: %w", callErr)
	}
	succeeded = true
	return nil
}

func (c *Controller) finishSubmit(succeeded bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !succeeded {
		c.phase = PhaseCollecting
		return nil
	}
	if c.closed {
		c.phase = PhaseCollecting
		return ErrClosed
	}

	c.phase = PhaseActive
	if len(c.messages) == 0 {
		c.messages = append(c.messages, Message{Author: AuthorBot, Text: WelcomeMessage})
	}
	c.logger.Info("session initialized", qlog.Event(qlog.EventInitialized))
	return nil
}

// Submit validates, initializes and waits for the result.
func (c *Controller) Submit(ctx context.Context) error {
	s, err := c.BeginSubmit()
	if err != nil {
		return err
	}
	return s.Run(ctx)
}

// ============================================================================
// Chat turns
// ============================================================================

// Turn is a chat turn whose user message is already in the log. Run must be
// called exactly once to fetch the reply and release the sending gate.
type Turn struct {
	c    *Controller
	text string
	ran  atomic.Bool
}

// Text returns the user message of this turn.
func (t *Turn) Text() string {
	return t.text
}

// BeginTurn appends the user's message to the log and marks a turn in
// flight. The append is unconditional once the gate is passed: the message
// stays in the log even if the reply never arrives.
func (c *Controller) BeginTurn(text string) (*Turn, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyMessage
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrClosed
	}
	if c.phase != PhaseActive {
		return nil, ErrNotActive
	}
	if c.sending {
		return nil, ErrTurnInFlight
	}

	c.messages = append(c.messages, Message{Author: AuthorUser, Text: text})
	c.sending = true
	c.logger.Debug("turn started",
		qlog.Event(qlog.EventTurnStarted),
		zap.Int("text_len", len(text)),
		zap.Int("log_len", len(c.messages)),
	)
	return &Turn{c: c, text: text}, nil
}

// Run sends the message and appends the reply. A failed call appends
// nothing and is logged. The sending gate is cleared on every path.
func (t *Turn) Run(ctx context.Context) (reply string, err error) {
	if !t.ran.CompareAndSwap(false, true) {
		return "", ErrAlreadyRun
	}
	c := t.c

	ctx, cancel := c.callContext(ctx)
	defer cancel()

	succeeded := false
	defer func() {
		if ferr := c.finishTurn(reply, succeeded); ferr != nil && err == nil {
			reply, err = "", ferr
		}
	}()

	reply, err = c.backend.SendMessage(ctx, t.text)
	if err != nil {
		if c.isClosed() || errors.Is(context.Cause(ctx), ErrClosed) {
			err = fmt.Errorf("%w: %w", ErrClosed, err)
		}
		c.logger.Error("sending message failed",
			qlog.Event(qlog.EventTurnFailed),
			zap.Int("text_len", len(t.text)),
			zap.Error(err),
		)
		return "", fmt.Errorf("send message: %w", err)
	}
	succeeded = true
	return reply, nil
}

func (c *Controller) finishTurn(reply string, succeeded bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sending = false
	if !succeeded {
		return nil
	}
	if c.closed {
		return ErrClosed
	}

	c.messages = append(c.messages, Message{Author: AuthorBot, Text: reply})
	c.logger.Debug("turn replied",
		qlog.Event(qlog.EventTurnReplied),
		zap.Int("reply_len", len(reply)),
		zap.Int("log_len", len(c.messages)),
	)
	return nil
}

// SendTurn runs a whole turn and waits for the reply.
func (c *Controller) SendTurn(ctx context.Context, text string) (string, error) {
	t, err := c.BeginTurn(text)
	if err != nil {
		return "", err
	}
	return t.Run(ctx)
}
