package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	cardStyle  = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8")).
			Padding(0, 1)
	cursorStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("13"))
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	successStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))

	statusColors = map[string]lipgloss.Color{
		"Todo":        lipgloss.Color("11"),
		"In Progress": lipgloss.Color("14"),
		"Completed":   lipgloss.Color("10"),
	}
)

func statusStyle(status string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(statusColors[status])
}
