// Package app provides the main TUI application that wires all views together.
package app

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/qudud-dev/qudud/internal/config"
	"github.com/qudud-dev/qudud/internal/conversation"
	"github.com/qudud-dev/qudud/internal/tui"
	"github.com/qudud-dev/qudud/internal/tui/views"
)

// ctrlCTimeout is how long the first Ctrl+C (or Esc) waits for a confirming
// second press.
const ctrlCTimeout = time.Second

// App is the main TUI application. It routes messages to the view matching
// the controller's phase and owns nothing but layout state.
type App struct {
	ctrl *conversation.Controller
	cfg  *config.Config

	profileView views.ProfileModel
	chatView    views.ChatModel
	chatReady   bool

	width        int
	height       int
	ctrlCPending bool
}

// New creates a new App over ctrl.
func New(ctrl *conversation.Controller, cfg *config.Config) *App {
	const width, height = 80, 24
	return &App{
		ctrl:        ctrl,
		cfg:         cfg,
		profileView: views.NewProfileModel(ctrl, width, height),
		width:       width,
		height:      height,
	}
}

// Init returns the initial command for the TUI.
func (a *App) Init() tea.Cmd {
	return a.profileView.Init()
}

// Update handles messages and updates the application state.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		var cmd tea.Cmd
		if a.chatReady {
			a.chatView, cmd = a.chatView.Update(msg)
		} else {
			a.profileView, cmd = a.profileView.Update(msg)
		}
		return a, cmd

	case tea.KeyMsg:
		if k := msg.String(); k == tui.KeyCtrlC || k == tui.KeyEsc {
			if a.ctrlCPending {
				// Second press within timeout - abandon in-flight calls and exit
				a.ctrl.Close()
				return a, tea.Quit
			}
			a.ctrlCPending = true
			return a, tea.Tick(ctrlCTimeout, func(time.Time) tea.Msg {
				return tui.CtrlCResetMsg{}
			})
		}

	case tui.CtrlCResetMsg:
		a.ctrlCPending = false
		return a, nil

	case tui.SessionReadyMsg:
		a.chatView = views.NewChatModel(a.ctrl, a.cfg.UI.Markdown, a.width, a.height)
		a.chatReady = true
		return a, a.chatView.Init()
	}

	var cmd tea.Cmd
	if a.chatReady {
		a.chatView, cmd = a.chatView.Update(msg)
	} else {
		a.profileView, cmd = a.profileView.Update(msg)
	}
	return a, cmd
}

// View renders the current application state.
func (a *App) View() string {
	var content string
	if a.chatReady {
		content = a.chatView.View()
	} else {
		content = lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, a.profileView.View())
	}

	if a.ctrlCPending {
		content += "\n" + tui.WarningStyle.Render("Press Ctrl+C or Esc again to quit")
	}
	return content
}

// Phase exposes the controller phase for callers driving the program.
func (a *App) Phase() conversation.Phase {
	return a.ctrl.Phase()
}
