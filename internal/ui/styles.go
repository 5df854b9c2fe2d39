// Package ui renders search results and answers for the CLI, with lipgloss
// styling on terminals and plain text everywhere else.
package ui

import "github.com/charmbracelet/lipgloss"

// Color palette
const (
	ColorCyan     = "51"  // Primary accent for filenames and headers
	ColorWhite    = "255" // Important text
	ColorGray     = "245" // Secondary text, scores, labels
	ColorDarkGray = "238" // Separators
	ColorGreen    = "77"  // High-confidence scores
	ColorYellow   = "220" // Warnings, entity highlights
	ColorRed      = "196" // Errors
)

// Styles holds the render styles.
type Styles struct {
	Header    lipgloss.Style
	Filename  lipgloss.Style
	Section   lipgloss.Style
	Score     lipgloss.Style
	HighScore lipgloss.Style
	Snippet   lipgloss.Style
	Label     lipgloss.Style
	Dim       lipgloss.Style
	Warning   lipgloss.Style
	Error     lipgloss.Style
}

// DefaultStyles returns the colored styles for terminal output.
func DefaultStyles() Styles {
	return Styles{
		Header:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorWhite)),
		Filename:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorCyan)),
		Section:   lipgloss.NewStyle().Foreground(lipgloss.Color(ColorGray)),
		Score:     lipgloss.NewStyle().Foreground(lipgloss.Color(ColorGray)),
		HighScore: lipgloss.NewStyle().Foreground(lipgloss.Color(ColorGreen)),
		Snippet:   lipgloss.NewStyle(),
		Label:     lipgloss.NewStyle().Foreground(lipgloss.Color(ColorGray)),
		Dim:       lipgloss.NewStyle().Foreground(lipgloss.Color(ColorDarkGray)),
		Warning:   lipgloss.NewStyle().Foreground(lipgloss.Color(ColorYellow)),
		Error:     lipgloss.NewStyle().Foreground(lipgloss.Color(ColorRed)),
	}
}

// PlainStyles returns unstyled components for non-TTY output.
func PlainStyles() Styles {
	return Styles{
		Header:    lipgloss.NewStyle(),
		Filename:  lipgloss.NewStyle(),
		Section:   lipgloss.NewStyle(),
		Score:     lipgloss.NewStyle(),
		HighScore: lipgloss.NewStyle(),
		Snippet:   lipgloss.NewStyle(),
		Label:     lipgloss.NewStyle(),
		Dim:       lipgloss.NewStyle(),
		Warning:   lipgloss.NewStyle(),
		Error:     lipgloss.NewStyle(),
	}
}
