package tui

import "github.com/charmbracelet/lipgloss"

// Qudud palette: teal for the assistant, sky blue for the user.
const (
	primaryColor   = "#0D9488" // Teal
	secondaryColor = "#0EA5E9" // Sky
	warningColor   = "#D97706" // Amber
	errorColor     = "#DC2626" // Red
	dimColor       = "#71717A" // Zinc
)

var (
	// BoxStyle frames both screens.
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(primaryColor)).
			Padding(1, 3)

	// TitleStyle renders the "Qudud" heading and spinners.
	TitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(primaryColor)).
			Bold(true)

	// SelectedStyle highlights the focused form field.
	SelectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(secondaryColor)).
			Bold(true)

	DimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(dimColor))

	// ErrorStyle renders form validation and init failures.
	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(errorColor)).
			Italic(true)

	// WarningStyle renders undelivered-message notices and the quit prompt.
	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(warningColor))

	// ButtonStyle renders an enabled action button.
	ButtonStyle = lipgloss.NewStyle().
			Background(lipgloss.Color(primaryColor)).
			Foreground(lipgloss.Color("#FFFFFF")).
			Padding(0, 2)

	// DisabledButtonStyle renders a button whose action is unavailable.
	DisabledButtonStyle = lipgloss.NewStyle().
				Background(lipgloss.Color("#374151")).
				Foreground(lipgloss.Color("#9CA3AF")).
				Padding(0, 2)

	// UserStyle prefixes user messages.
	UserStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(secondaryColor)).
			Bold(true)

	// BotStyle prefixes bot messages.
	BotStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(primaryColor)).
			Bold(true)

	// SliderFullStyle renders the filled part of a slider.
	SliderFullStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(secondaryColor))

	// SliderEmptyStyle renders the empty part of a slider.
	SliderEmptyStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color(dimColor))
)
