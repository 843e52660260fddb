// Package cli provides styled terminal output and input prompts.
package cli

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	// PrimaryColor is the main theme color.
	PrimaryColor = lipgloss.Color("#4C9AFF")
	// SuccessColor indicates successful operations.
	SuccessColor = lipgloss.Color("#57D9A3")
	// WarningColor indicates warnings or review-needed items.
	WarningColor = lipgloss.Color("#FFC400")
	// ErrorColor indicates errors or failure messages.
	ErrorColor = lipgloss.Color("#FF5630")
	// SubtleColor indicates less prominent UI elements.
	SubtleColor = lipgloss.Color("#666666")

	// TitleStyle is used for section titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor).
			MarginBottom(1)

	// SuccessStyle formats success messages.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(SuccessColor)

	// WarningStyle formats warning messages.
	WarningStyle = lipgloss.NewStyle().
			Foreground(WarningColor)

	// ErrorStyle formats error messages.
	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor)

	// InfoStyle formats informational messages.
	InfoStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor)

	// SubtleStyle formats less prominent text.
	SubtleStyle = lipgloss.NewStyle().
			Foreground(SubtleColor)

	// BoldStyle makes text bold.
	BoldStyle = lipgloss.NewStyle().
			Bold(true)

	// TableHeaderStyle is used for table headers.
	TableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(PrimaryColor)
)

// ConfidenceStyle picks a style for a confidence score: green for strong
// matches, yellow for review candidates, subtle for weak ones.
func ConfidenceStyle(confidence float64) lipgloss.Style {
	switch {
	case confidence >= 0.8:
		return SuccessStyle
	case confidence >= 0.5:
		return WarningStyle
	default:
		return SubtleStyle
	}
}
