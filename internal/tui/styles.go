package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/atoms/internal/constants"
)

var (
	activeTabStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(lipgloss.Color("236")).
			Padding(0, 1).
			Bold(true)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240")).
				Padding(0, 1)

	dangerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Italic(true)

	titleStyle = lipgloss.NewStyle().Bold(true)

	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	doneStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))

	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	docStyle = lipgloss.NewStyle().Padding(1, 2)
)

var heatStyles = map[int]lipgloss.Style{
	constants.HeatFull:   lipgloss.NewStyle().Foreground(lipgloss.Color("46")),
	constants.HeatHigh:   lipgloss.NewStyle().Foreground(lipgloss.Color("40")),
	constants.HeatMedium: lipgloss.NewStyle().Foreground(lipgloss.Color("34")),
	constants.HeatLow:    lipgloss.NewStyle().Foreground(lipgloss.Color("28")),
	constants.HeatNone:   lipgloss.NewStyle().Foreground(lipgloss.Color("238")),
}
