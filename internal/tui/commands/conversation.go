// Package commands provides Bubble Tea commands for TUI operations.
package commands

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/qudud-dev/qudud/internal/conversation"
	"github.com/qudud-dev/qudud/internal/tui"
)

// RunSubmissionCmd performs a session initialization that already passed
// the controller's gate. Returns SessionReadyMsg on success or
// SessionFailedMsg on failure; the controller has already updated its phase
// by the time either message is delivered.
func RunSubmissionCmd(ctx context.Context, s *conversation.Submission) tea.Cmd {
	return func() tea.Msg {
		if err := s.Run(ctx); err != nil {
			return tui.SessionFailedMsg{Err: err}
		}
		return tui.SessionReadyMsg{}
	}
}

// RunTurnCmd fetches the reply for a turn whose user message is already in
// the log. Always returns TurnDoneMsg.
func RunTurnCmd(ctx context.Context, t *conversation.Turn) tea.Cmd {
	return func() tea.Msg {
		reply, err := t.Run(ctx)
		return tui.TurnDoneMsg{Reply: reply, Err: err}
	}
}
