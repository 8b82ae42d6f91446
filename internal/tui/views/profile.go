// Package views provides TUI view components for the Qudud application.
package views

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/qudud-dev/qudud/internal/conversation"
	"github.com/qudud-dev/qudud/internal/profile"
	"github.com/qudud-dev/qudud/internal/tui"
	"github.com/qudud-dev/qudud/internal/tui/commands"
)

// maxProfileWidth is the maximum width for the profile form box.
const maxProfileWidth = 64

// sliderWidth is the number of cells used to draw a slider track.
const sliderWidth = 24

// profileField identifies a focusable row of the form.
type profileField int

const (
	fieldFrequency profileField = iota
	fieldCraving
	fieldMood
	fieldReason
	fieldSubmit
	fieldCount
)

// ============================================================================
// ProfileModel
// ============================================================================

// ProfileModel is the view model for the profile form. It edits the
// controller's profile directly and never keeps its own copy.
type ProfileModel struct {
	ctrl    *conversation.Controller
	keys    tui.KeyMap
	focus   profileField
	reason  textinput.Model
	spinner spinner.Model
	status  string
	width   int
	height  int
}

// NewProfileModel creates the form for ctrl's current profile.
func NewProfileModel(ctrl *conversation.Controller, width, height int) ProfileModel {
	ti := textinput.New()
	ti.Placeholder = "Enter your reason for quitting..."
	ti.CharLimit = 500
	ti.Width = formWidth(width) - 4
	ti.SetValue(ctrl.Profile().ReasonToQuit)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = tui.TitleStyle

	return ProfileModel{
		ctrl:    ctrl,
		keys:    tui.DefaultKeyMap,
		focus:   fieldFrequency,
		reason:  ti,
		spinner: sp,
		width:   width,
		height:  height,
	}
}

// Init returns the initial command for the profile view.
func (m ProfileModel) Init() tea.Cmd {
	return textinput.Blink
}

// Status returns the transient status line, if any.
func (m ProfileModel) Status() string {
	return m.status
}

// Update handles messages for the profile view.
func (m ProfileModel) Update(msg tea.Msg) (ProfileModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tui.SessionFailedMsg:
		m.status = "Could not start a session. Check that the service is reachable and try again."
		m.setFocus(m.focus)
		return m, nil

	case spinner.TickMsg:
		if m.ctrl.Phase() == conversation.PhaseInitializing {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.reason.Width = formWidth(msg.Width) - 4
		return m, nil

	case tea.KeyMsg:
		// The form is inert while the initialization call is in flight.
		if m.ctrl.Phase() != conversation.PhaseCollecting {
			return m, nil
		}
		return m.handleKey(msg)
	}

	if m.focus == fieldReason {
		var cmd tea.Cmd
		m.reason, cmd = m.reason.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m ProfileModel) handleKey(msg tea.KeyMsg) (ProfileModel, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Submit):
		return m.submit()
	case key.Matches(msg, m.keys.Next):
		m.setFocus(m.focus + 1)
		return m, nil
	case key.Matches(msg, m.keys.Prev):
		m.setFocus(m.focus - 1)
		return m, nil
	}

	if m.focus == fieldReason {
		var cmd tea.Cmd
		m.reason, cmd = m.reason.Update(msg)
		value := m.reason.Value()
		_ = m.ctrl.UpdateProfile(func(p *profile.Profile) {
			p.ReasonToQuit = value
		})
		return m, cmd
	}

	delta := 0
	switch {
	case key.Matches(msg, m.keys.Increase):
		delta = 1
	case key.Matches(msg, m.keys.Decrease):
		delta = -1
	}
	if delta == 0 {
		return m, nil
	}

	focus := m.focus
	_ = m.ctrl.UpdateProfile(func(p *profile.Profile) {
		switch focus {
		case fieldFrequency:
			p.SetSmokingFrequency(p.SmokingFrequency + delta)
		case fieldCraving:
			p.SetCravingLevel(p.CravingLevel + delta)
		case fieldMood:
			p.NextMood(delta)
		}
	})
	return m, nil
}

func (m *ProfileModel) setFocus(f profileField) {
	f = (f + fieldCount) % fieldCount
	m.focus = f
	if f == fieldReason {
		m.reason.Focus()
	} else {
		m.reason.Blur()
	}
}

// submit passes the profile through the controller's gate and, if it is
// accepted, starts the initialization call.
func (m ProfileModel) submit() (ProfileModel, tea.Cmd) {
	s, err := m.ctrl.BeginSubmit()
	if err != nil {
		switch {
		case errors.Is(err, profile.ErrMoodUnset) && errors.Is(err, profile.ErrReasonEmpty):
			m.status = "Select a mood and enter a reason to quit."
		case errors.Is(err, profile.ErrMoodUnset):
			m.status = "Select your current mood."
		case errors.Is(err, profile.ErrReasonEmpty):
			m.status = "Enter your reason to quit."
		default:
			m.status = ""
		}
		return m, nil
	}

	m.status = ""
	m.reason.Blur()
	return m, tea.Batch(
		commands.RunSubmissionCmd(m.ctrl.Context(), s),
		m.spinner.Tick,
	)
}

// View renders the profile form.
func (m ProfileModel) View() string {
	p := m.ctrl.Profile()
	initializing := m.ctrl.Phase() == conversation.PhaseInitializing

	var b strings.Builder

	b.WriteString(tui.TitleStyle.Render("Qudud"))
	b.WriteString("\n")
	b.WriteString(tui.DimStyle.Render("Tell us a little about yourself to start."))
	b.WriteString("\n\n")

	b.WriteString(m.label(fieldFrequency, "Cigarettes per Day"))
	b.WriteString("\n")
	b.WriteString(renderSlider(p.SmokingFrequency, profile.MinSmokingFrequency, profile.MaxSmokingFrequency))
	b.WriteString(tui.DimStyle.Render(fmt.Sprintf("  Value: %d", p.SmokingFrequency)))
	b.WriteString("\n\n")

	b.WriteString(m.label(fieldCraving, "Craving Level (1-10)"))
	b.WriteString("\n")
	b.WriteString(renderSlider(p.CravingLevel, profile.MinCravingLevel, profile.MaxCravingLevel))
	b.WriteString(tui.DimStyle.Render(fmt.Sprintf("  Value: %d", p.CravingLevel)))
	b.WriteString("\n\n")

	b.WriteString(m.label(fieldMood, "Current Mood"))
	b.WriteString("\n")
	if p.Mood == profile.MoodUnset {
		b.WriteString(tui.DimStyle.Render("‹ " + p.Mood.Label() + " ›"))
	} else {
		b.WriteString("‹ " + p.Mood.Label() + " ›")
	}
	b.WriteString("\n\n")

	b.WriteString(m.label(fieldReason, "Reason to Quit"))
	b.WriteString("\n")
	b.WriteString(m.reason.View())
	b.WriteString("\n\n")

	switch {
	case initializing:
		b.WriteString(fmt.Sprintf("%s Loading...", m.spinner.View()))
	case p.Submittable():
		style := tui.ButtonStyle
		if m.focus == fieldSubmit {
			style = style.Underline(true)
		}
		b.WriteString(style.Render("Start Chatbot"))
	default:
		b.WriteString(tui.DisabledButtonStyle.Render("Start Chatbot"))
	}

	if m.status != "" {
		b.WriteString("\n\n")
		b.WriteString(tui.ErrorStyle.Render(m.status))
	}

	b.WriteString("\n\n")
	b.WriteString(tui.DimStyle.Render("Tab/↑↓: Move · ←→: Adjust · Enter: Start · Esc or Ctrl+C twice: Quit"))

	return tui.BoxStyle.Width(formWidth(m.width)).Render(b.String())
}

func (m ProfileModel) label(f profileField, text string) string {
	if m.focus == f {
		return tui.SelectedStyle.Render("› " + text)
	}
	return "  " + text
}

// renderSlider draws a horizontal track with the knob at value.
func renderSlider(value, lo, hi int) string {
	pos := 0
	if hi > lo {
		pos = (value - lo) * (sliderWidth - 1) / (hi - lo)
	}
	return tui.SliderFullStyle.Render(strings.Repeat("━", pos)) +
		tui.SliderFullStyle.Render("●") +
		tui.SliderEmptyStyle.Render(strings.Repeat("─", sliderWidth-1-pos))
}

func formWidth(termWidth int) int {
	w := termWidth - 4
	if w > maxProfileWidth {
		w = maxProfileWidth
	}
	if w < 30 {
		w = 30
	}
	return w
}
