package conversation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	qlog "github.com/qudud-dev/qudud/internal/log"
	"github.com/qudud-dev/qudud/internal/profile"
)

// ============================================================================
// Profile collection and session initialization
// ============================================================================

func TestSubmitInitializesSession(t *testing.T) {
	b := newFakeBackend()
	c, logs := observedController(b)

	require.NoError(t, c.UpdateProfile(completeProfile))
	require.NoError(t, c.Submit(context.Background()))

	assert.Equal(t, PhaseActive, c.Phase())
	assert.Equal(t, []Message{{Author: AuthorBot, Text: WelcomeMessage}}, c.Messages())
	require.Equal(t, 1, b.initCount())
	assert.Equal(t, profile.Profile{
		SmokingFrequency: 5,
		CravingLevel:     3,
		Mood:             profile.MoodStressed,
		ReasonToQuit:     "health",
	}, b.initCalls[0])
	assert.Equal(t, 1, logs.FilterField(qlog.Event(qlog.EventInitialized)).Len())
}

func TestSubmitRejectsIncompleteProfile(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*profile.Profile)
		wantErr error
	}{
		{name: "defaults", mutate: func(*profile.Profile) {}, wantErr: profile.ErrMoodUnset},
		{name: "mood unset", mutate: func(p *profile.Profile) { p.ReasonToQuit = "kids" }, wantErr: profile.ErrMoodUnset},
		{name: "reason empty", mutate: func(p *profile.Profile) { p.Mood = profile.MoodBored }, wantErr: profile.ErrReasonEmpty},
		{name: "reason blank", mutate: func(p *profile.Profile) {
			p.Mood = profile.MoodBored
			p.ReasonToQuit = "  "
		}, wantErr: profile.ErrReasonEmpty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newFakeBackend()
			c := New(b)
			require.NoError(t, c.UpdateProfile(tt.mutate))

			err := c.Submit(context.Background())
			assert.ErrorIs(t, err, ErrProfileIncomplete)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, PhaseCollecting, c.Phase())
			assert.Empty(t, c.Messages())
			assert.Zero(t, b.initCount(), "no network call for an incomplete profile")
		})
	}
}

func TestSubmitFailureRevertsToCollecting(t *testing.T) {
	b := newFakeBackend()
	b.initErr = errBackendDown
	c, logs := observedController(b)
	require.NoError(t, c.UpdateProfile(completeProfile))

	err := c.Submit(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, errBackendDown)
	assert.Equal(t, PhaseCollecting, c.Phase())
	assert.Empty(t, c.Messages(), "initialization failures are not chat messages")
	assert.Equal(t, 1, logs.FilterField(qlog.Event(qlog.EventInitFailed)).Len())

	// The profile is editable again and a retry can succeed.
	require.NoError(t, c.UpdateProfile(func(p *profile.Profile) { p.ReasonToQuit = "money" }))
	b.initErr = nil
	require.NoError(t, c.Submit(context.Background()))
	assert.Equal(t, PhaseActive, c.Phase())
	assert.Len(t, c.Messages(), 1)
	assert.Equal(t, "money", b.initCalls[1].ReasonToQuit)
}

func TestProfileLockedOnceSubmitted(t *testing.T) {
	b := newFakeBackend()
	b.hold = make(chan struct{})
	c := New(b)
	require.NoError(t, c.UpdateProfile(completeProfile))

	s, err := c.BeginSubmit()
	require.NoError(t, err)
	assert.Equal(t, PhaseInitializing, c.Phase())
	assert.ErrorIs(t, c.UpdateProfile(func(p *profile.Profile) { p.ReasonToQuit = "x" }), ErrProfileLocked)

	close(b.hold)
	require.NoError(t, s.Run(context.Background()))
	assert.ErrorIs(t, c.UpdateProfile(func(p *profile.Profile) { p.ReasonToQuit = "x" }), ErrProfileLocked)
	assert.Equal(t, "health", c.Profile().ReasonToQuit)
}

func TestSecondSubmitWhileInitializingIsRejected(t *testing.T) {
	b := newFakeBackend()
	b.hold = make(chan struct{})
	c := New(b)
	require.NoError(t, c.UpdateProfile(completeProfile))

	first, err := c.BeginSubmit()
	require.NoError(t, err)

	_, err = c.BeginSubmit()
	assert.ErrorIs(t, err, ErrInitInFlight)

	close(b.hold)
	require.NoError(t, first.Run(context.Background()))
	assert.Equal(t, 1, b.initCount())

	_, err = c.BeginSubmit()
	assert.ErrorIs(t, err, ErrAlreadyActive)
}

func TestConcurrentSubmitsMakeOneCall(t *testing.T) {
	b := newFakeBackend()
	b.hold = make(chan struct{})
	c := New(b)
	require.NoError(t, c.UpdateProfile(completeProfile))

	results := make(chan error, 8)
	var g errgroup.Group
	for i := 0; i < 8; i++ {
		g.Go(func() error {
			results <- c.Submit(context.Background())
			return nil
		})
	}

	<-b.entered
	close(b.hold)
	require.NoError(t, g.Wait())
	close(results)

	var ok, inFlight, active int
	for err := range results {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrInitInFlight):
			inFlight++
		case errors.Is(err, ErrAlreadyActive):
			active++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 7, inFlight+active)
	assert.Equal(t, 1, b.initCount())
	assert.Len(t, c.Messages(), 1, "welcome message is seeded exactly once")
}

func TestSubmissionRunOnce(t *testing.T) {
	b := newFakeBackend()
	c := New(b)
	require.NoError(t, c.UpdateProfile(completeProfile))

	s, err := c.BeginSubmit()
	require.NoError(t, err)
	require.NoError(t, s.Run(context.Background()))
	assert.ErrorIs(t, s.Run(context.Background()), ErrAlreadyRun)
	assert.Equal(t, 1, b.initCount())
	assert.Len(t, c.Messages(), 1)
}

// ============================================================================
// Chat turns
// ============================================================================

func TestSendTurnAppendsUserThenBot(t *testing.T) {
	b := newFakeBackend()
	b.replies["craving"] = "Try deep breathing"
	c, _ := activeController(t, b)

	reply, err := c.SendTurn(context.Background(), "craving")
	require.NoError(t, err)
	<-b.entered

	assert.Equal(t, "Try deep breathing", reply)
	assert.Equal(t, []Message{
		{Author: AuthorBot, Text: WelcomeMessage},
		{Author: AuthorUser, Text: "craving"},
		{Author: AuthorBot, Text: "Try deep breathing"},
	}, c.Messages())
	assert.False(t, c.Sending())
}

func TestLogIsOrderedConcatenationOfTurns(t *testing.T) {
	b := newFakeBackend()
	c, _ := activeController(t, b)

	inputs := []string{"hi", "motivation", "craving", "what now?"}
	want := []Message{{Author: AuthorBot, Text: WelcomeMessage}}
	for _, in := range inputs {
		_, err := c.SendTurn(context.Background(), in)
		require.NoError(t, err)
		<-b.entered
		want = append(want,
			Message{Author: AuthorUser, Text: in},
			Message{Author: AuthorBot, Text: "echo: " + in},
		)
	}

	assert.Equal(t, want, c.Messages())
	assert.Equal(t, inputs, b.sent())
}

func TestUserMessageVisibleBeforeReply(t *testing.T) {
	b := newFakeBackend()
	c, _ := activeController(t, b)
	b.hold = make(chan struct{})

	turn, err := c.BeginTurn("craving")
	require.NoError(t, err)

	snap := c.Snapshot()
	assert.True(t, snap.Sending)
	require.Len(t, snap.Messages, 2)
	assert.Equal(t, Message{Author: AuthorUser, Text: "craving"}, snap.Messages[1])

	done := make(chan error, 1)
	go func() {
		_, err := turn.Run(context.Background())
		done <- err
	}()
	<-b.entered
	assert.Len(t, c.Messages(), 2, "no reply before the backend answers")

	close(b.hold)
	require.NoError(t, <-done)
	assert.Len(t, c.Messages(), 3)
	assert.False(t, c.Sending())
}

func TestFailedTurnKeepsUserMessage(t *testing.T) {
	b := newFakeBackend()
	c, logs := activeController(t, b)
	b.sendErr = errBackendDown

	_, err := c.SendTurn(context.Background(), "help")
	<-b.entered
	require.Error(t, err)
	assert.ErrorIs(t, err, errBackendDown)

	assert.Equal(t, []Message{
		{Author: AuthorBot, Text: WelcomeMessage},
		{Author: AuthorUser, Text: "help"},
	}, c.Messages())
	assert.False(t, c.Sending())
	assert.Equal(t, 1, logs.FilterField(qlog.Event(qlog.EventTurnFailed)).Len())

	// The next turn works normally.
	b.sendErr = nil
	_, err = c.SendTurn(context.Background(), "again")
	require.NoError(t, err)
	<-b.entered
	assert.Len(t, c.Messages(), 4)
}

func TestTurnWhileSendingIsNoop(t *testing.T) {
	b := newFakeBackend()
	c, _ := activeController(t, b)
	b.hold = make(chan struct{})

	turn, err := c.BeginTurn("first")
	require.NoError(t, err)
	before := c.Messages()

	_, err = c.BeginTurn("second")
	assert.ErrorIs(t, err, ErrTurnInFlight)
	_, err = c.SendTurn(context.Background(), "third")
	assert.ErrorIs(t, err, ErrTurnInFlight)
	assert.Equal(t, before, c.Messages())

	close(b.hold)
	_, err = turn.Run(context.Background())
	require.NoError(t, err)
	<-b.entered
	assert.Equal(t, []string{"first"}, b.sent())
}

func TestConcurrentTurnsOnlyOneWins(t *testing.T) {
	b := newFakeBackend()
	c, _ := activeController(t, b)
	b.hold = make(chan struct{})

	results := make(chan error, 10)
	var g errgroup.Group
	for i := 0; i < 10; i++ {
		g.Go(func() error {
			_, err := c.SendTurn(context.Background(), "same time")
			results <- err
			return nil
		})
	}

	<-b.entered
	close(b.hold)
	require.NoError(t, g.Wait())
	close(results)

	var ok int
	for err := range results {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, ErrTurnInFlight)
	}
	assert.Equal(t, 1, ok)
	assert.Len(t, b.sent(), 1)
	assert.Len(t, c.Messages(), 3)
}

func TestTurnPreconditions(t *testing.T) {
	b := newFakeBackend()
	c := New(b)

	_, err := c.SendTurn(context.Background(), "too early")
	assert.ErrorIs(t, err, ErrNotActive)
	assert.Empty(t, c.Messages())

	active, _ := activeController(t, b)
	for _, text := range []string{"", "   ", "\n\t"} {
		_, err := active.BeginTurn(text)
		assert.ErrorIs(t, err, ErrEmptyMessage, "input %q", text)
	}
	assert.Len(t, active.Messages(), 1)
	assert.Empty(t, b.sent())
}

func TestTurnTimeoutReleasesGate(t *testing.T) {
	b := newFakeBackend()
	c, logs := activeController(t, b, WithTimeout(20*time.Millisecond))
	b.hold = make(chan struct{})
	defer close(b.hold)

	_, err := c.SendTurn(context.Background(), "anyone there?")
	<-b.entered
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, c.Sending())
	assert.Len(t, c.Messages(), 2)
	assert.Equal(t, 1, logs.FilterField(qlog.Event(qlog.EventTurnFailed)).Len())
}

func TestPanickingBackendReleasesGate(t *testing.T) {
	b := newFakeBackend()
	c, _ := activeController(t, b)
	b.panicOn = "boom"

	assert.Panics(t, func() {
		_, _ = c.SendTurn(context.Background(), "boom")
	})
	assert.False(t, c.Sending())
	assert.Len(t, c.Messages(), 2)

	_, err := c.SendTurn(context.Background(), "after")
	require.NoError(t, err)
	<-b.entered
}

func TestCloseAbortsInFlightTurn(t *testing.T) {
	b := newFakeBackend()
	c, logs := activeController(t, b)
	b.hold = make(chan struct{})
	defer close(b.hold)

	turn, err := c.BeginTurn("bye")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := turn.Run(c.Context())
		done <- err
	}()
	<-b.entered

	c.Close()
	c.Close()
	err = <-done
	assert.ErrorIs(t, err, ErrClosed)
	assert.False(t, c.Sending())
	assert.Len(t, c.Messages(), 2, "no reply is appended after close")
	assert.Equal(t, 1, logs.FilterField(qlog.Event(qlog.EventClosed)).Len())

	_, err = c.BeginTurn("more")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestCloseDuringInitialization(t *testing.T) {
	b := newFakeBackend()
	b.hold = make(chan struct{})
	defer close(b.hold)
	c := New(b)
	require.NoError(t, c.UpdateProfile(completeProfile))

	s, err := c.BeginSubmit()
	require.NoError(t, err)
	done := make(chan error, 1)
	go func() { done <- s.Run(context.Background()) }()
	<-b.entered

	c.Close()
	assert.ErrorIs(t, <-done, ErrClosed)
	assert.Equal(t, PhaseCollecting, c.Phase())
	assert.Empty(t, c.Messages())
}

func TestSnapshotIsACopy(t *testing.T) {
	b := newFakeBackend()
	c, _ := activeController(t, b)

	snap := c.Snapshot()
	snap.Messages[0].Text = "tampered"
	assert.Equal(t, WelcomeMessage, c.Messages()[0].Text)
	assert.Equal(t, PhaseActive, snap.Phase)
	assert.False(t, snap.Initializing())
}
