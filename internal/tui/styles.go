package tui

import "github.com/charmbracelet/lipgloss"

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12"))

	CountStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("4")).
			Padding(0, 1)

	PhaseStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))

	GoodFormStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	FaultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11"))

	HistoryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("7"))

	StatusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")).
			Italic(true)

	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8")).
			Padding(0, 1)
)
