package tui

import (
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// Colors matching gum's aesthetic
var (
	ColorPrimary   = lipgloss.Color("6")   // Teal
	ColorSecondary = lipgloss.Color("14")  // Bright cyan
	ColorMuted     = lipgloss.Color("241") // Gray
	ColorSuccess   = lipgloss.Color("42")  // Green
	ColorError     = lipgloss.Color("203") // Red
)

// Banner returns the styled app banner
func Banner() string {
	logo := `  ___ _ __ _____      ____| |___  ___  ___  __| |
 / __| '__/ _ \ \ /\ / / _` + "`" + ` / __|/ _ \/ _ \/ _` + "`" + ` |
| (__| | | (_) \ V  V / (_| \__ \  __/  __/ (_| |
 \___|_|  \___/ \_/\_/ \__,_|___/\___|\___|\__,_|
`
	logoStyle := lipgloss.NewStyle().
		Foreground(ColorPrimary).
		Bold(true)

	tagline := lipgloss.NewStyle().
		Foreground(ColorMuted).
		Italic(true).
		Render(" Synthetic people for your feed.")

	return logoStyle.Render(logo) + "\n" + tagline + "\n"
}

// CrowdseedTheme returns a gum-inspired theme for forms
func CrowdseedTheme() *huh.Theme {
	t := huh.ThemeCharm()

	t.Focused.Title = t.Focused.Title.
		Foreground(ColorPrimary).
		Bold(true)

	t.Focused.SelectedOption = t.Focused.SelectedOption.
		Foreground(ColorSuccess)

	t.Focused.Description = t.Focused.Description.
		Foreground(ColorMuted)

	t.Focused.ErrorMessage = t.Focused.ErrorMessage.
		Foreground(ColorError)

	// Blurred state - more subtle
	t.Blurred.Title = t.Blurred.Title.
		Foreground(ColorMuted)

	return t
}

// HeaderStyle returns styled header for section banners
func HeaderStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorPrimary).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(ColorMuted).
		Padding(0, 1).
		MarginBottom(1)
}

// TitleStyle returns style for section titles
func TitleStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorPrimary)
}

// SuccessStyle returns style for success messages
func SuccessStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(ColorSuccess)
}

// ErrorStyle returns style for failure messages
func ErrorStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(ColorError)
}

// MutedStyle returns style for muted/secondary text
func MutedStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(ColorMuted)
}
