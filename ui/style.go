package ui

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	Header  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	Success = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	Warning = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	Failure = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	Muted   = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true)
)

// Colorize applies an ANSI 256 color code or a #rrggbb hex color to text.
func Colorize(text, color string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(text)
}

// Truncate shortens s to maxLen runes, ending with "..." when cut.
func Truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
