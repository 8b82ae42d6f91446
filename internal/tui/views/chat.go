package views

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/qudud-dev/qudud/internal/conversation"
	"github.com/qudud-dev/qudud/internal/tui"
	"github.com/qudud-dev/qudud/internal/tui/commands"
)

// ============================================================================
// ChatModel
// ============================================================================

// ChatModel is the view model for the chat screen. The conversation log
// lives in the controller; this view only renders it and owns the input
// buffer.
type ChatModel struct {
	ctrl     *conversation.Controller
	keys     tui.KeyMap
	textarea textarea.Model
	viewport viewport.Model
	spinner  spinner.Model
	renderer *glamour.TermRenderer
	markdown bool
	notice   string
	width    int
	height   int
}

// NewChatModel creates a ChatModel over ctrl's conversation log. When
// markdown is true bot replies are rendered with glamour.
func NewChatModel(ctrl *conversation.Controller, markdown bool, width, height int) ChatModel {
	ta := textarea.New()
	ta.Placeholder = "Type your message... (Enter to send)"
	ta.CharLimit = 2000
	ta.SetWidth(chatWidth(width))
	ta.SetHeight(3)
	ta.ShowLineNumbers = false

	// Shift+Enter or Ctrl+J for newline, Enter for submit
	keyMap := ta.KeyMap
	keyMap.InsertNewline = tui.DefaultKeyMap.NewLine
	ta.KeyMap = keyMap
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = tui.TitleStyle

	m := ChatModel{
		ctrl:     ctrl,
		keys:     tui.DefaultKeyMap,
		textarea: ta,
		viewport: viewport.New(chatWidth(width), viewportHeight(height)),
		spinner:  sp,
		markdown: markdown,
		width:    width,
		height:   height,
	}
	m.renderer = newRenderer(markdown, chatWidth(width))
	m.refresh()
	return m
}

// Init returns the initial command for the chat view.
func (m ChatModel) Init() tea.Cmd {
	return textarea.Blink
}

// Notice returns the transient status line, if any.
func (m ChatModel) Notice() string {
	return m.notice
}

// Input returns the current contents of the input buffer.
func (m ChatModel) Input() string {
	return m.textarea.Value()
}

// Update handles messages for the chat view.
func (m ChatModel) Update(msg tea.Msg) (ChatModel, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Submit) {
			return m.send()
		}

	case tui.TurnDoneMsg:
		if msg.Err != nil && !errors.Is(msg.Err, conversation.ErrClosed) {
			m.notice = "Message not delivered. You can type it again."
		}
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		if m.ctrl.Sending() {
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		m.viewport.Width = chatWidth(msg.Width)
		m.viewport.Height = viewportHeight(msg.Height)
		m.textarea.SetWidth(chatWidth(msg.Width))
		m.renderer = newRenderer(m.markdown, chatWidth(msg.Width))

		m.refresh()
		return m, nil
	}

	// The input buffer is frozen while a turn is in flight.
	if !m.ctrl.Sending() {
		m.textarea, cmd = m.textarea.Update(msg)
		cmds = append(cmds, cmd)
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// send starts a turn for the current input. The user's message is in the
// log before the command that fetches the reply is even scheduled.
func (m ChatModel) send() (ChatModel, tea.Cmd) {
	turn, err := m.ctrl.BeginTurn(m.textarea.Value())
	if err != nil {
		// Empty input and a turn already in flight are both ignored.
		return m, nil
	}

	m.textarea.Reset()
	m.notice = ""
	m.refresh()

	return m, tea.Batch(
		commands.RunTurnCmd(m.ctrl.Context(), turn),
		m.spinner.Tick,
	)
}

// refresh re-renders the log into the viewport and scrolls to the end.
func (m *ChatModel) refresh() {
	m.viewport.SetContent(formatMessages(m.ctrl.Messages(), m.renderer))
	m.viewport.GotoBottom()
}

// View renders the chat view.
func (m ChatModel) View() string {
	var b strings.Builder

	b.WriteString(tui.TitleStyle.Render("Qudud"))
	b.WriteString("\n\n")

	b.WriteString(m.viewport.View())
	b.WriteString("\n\n")

	if m.ctrl.Sending() {
		b.WriteString(fmt.Sprintf("%s Thinking...", m.spinner.View()))
		b.WriteString("\n\n")
		b.WriteString(tui.DimStyle.Render(m.textarea.View()))
	} else {
		if m.notice != "" {
			b.WriteString(tui.WarningStyle.Render(m.notice))
			b.WriteString("\n\n")
		}
		b.WriteString(m.textarea.View())
	}

	b.WriteString("\n\n")
	b.WriteString(tui.DimStyle.Render("Enter: Send · Shift+Enter: New line · PgUp/PgDn: Scroll · Esc or Ctrl+C twice: Quit"))

	boxed := tui.BoxStyle.
		Width(m.width - 4).
		Render(b.String())

	contentHeight := lipgloss.Height(boxed)
	if m.height > contentHeight {
		padding := (m.height - contentHeight) / 3
		if padding > 0 {
			boxed = strings.Repeat("\n", padding) + boxed
		}
	}

	return boxed
}

// formatMessages formats the conversation log for display in the viewport.
func formatMessages(messages []conversation.Message, renderer *glamour.TermRenderer) string {
	if len(messages) == 0 {
		return tui.DimStyle.Render("No messages yet.")
	}

	var b strings.Builder
	for i, msg := range messages {
		switch msg.Author {
		case conversation.AuthorUser:
			b.WriteString(tui.UserStyle.Render("You: "))
			b.WriteString(msg.Text)
		case conversation.AuthorBot:
			b.WriteString(tui.BotStyle.Render("Qudud: "))
			b.WriteString(renderMarkdown(renderer, msg.Text))
		}

		if i < len(messages)-1 {
			b.WriteString("\n\n")
		}
	}

	return b.String()
}

// renderMarkdown renders text with glamour, falling back to the plain text
// when no renderer is configured or rendering fails.
func renderMarkdown(r *glamour.TermRenderer, text string) (result string) {
	if r == nil || text == "" {
		return text
	}
	defer func() {
		if recover() != nil {
			result = text
		}
	}()
	out, err := r.Render(text)
	if err != nil {
		return text
	}
	return strings.Trim(out, "\n")
}

func newRenderer(enabled bool, width int) *glamour.TermRenderer {
	if !enabled {
		return nil
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width-4),
	)
	if err != nil {
		return nil
	}
	return r
}

func chatWidth(termWidth int) int {
	w := termWidth - 8
	if w < 20 {
		w = 20
	}
	return w
}

// viewportHeight reserves space for header (2 lines), loading indicator
// (2 lines), textarea (5 lines) and footer (2 lines).
func viewportHeight(termHeight int) int {
	h := termHeight - 14
	if h < 5 {
		h = 5
	}
	return h
}
