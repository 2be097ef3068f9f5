package styles

import "github.com/charmbracelet/lipgloss"

// Theme defines the core UI styles
var Theme = struct {
	App     lipgloss.Style
	Title   lipgloss.Style
	Frame   lipgloss.Style
	Tier    lipgloss.Style
	Key     lipgloss.Style
	Status  lipgloss.Style
	Error   lipgloss.Style
	Success lipgloss.Style
	Help    lipgloss.Style
}{
	App: lipgloss.NewStyle().
		Padding(0, 1),
	Title: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(lipgloss.Color("#4F4FB7")).
		Padding(0, 1),
	Frame: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#626262")),
	Tier: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#73F59F")).
		Bold(true).
		Padding(0, 1),
	Key: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#7B61FF")).
		Bold(true),
	Status: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#959595")),
	Error: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FF5555")),
	Success: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#00FF00")),
	Help: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#5A9")),
}
