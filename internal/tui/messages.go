package tui

// ============================================================================
// Session Messages
// ============================================================================

// SessionReadyMsg signals that session initialization succeeded.
type SessionReadyMsg struct{}

// SessionFailedMsg signals that session initialization failed. The form is
// usable again and the user may resubmit.
type SessionFailedMsg struct {
	Err error
}

// ============================================================================
// Chat Messages
// ============================================================================

// TurnDoneMsg signals that a chat turn finished, with or without a reply.
type TurnDoneMsg struct {
	Reply string
	Err   error
}

// ============================================================================
// Utility Messages
// ============================================================================

// CtrlCResetMsg clears the pending quit confirmation.
type CtrlCResetMsg struct{}
