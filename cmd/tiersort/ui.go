package main

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	primaryStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#7B61FF")).Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#73F59F"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5555"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#959595"))
)

func primaryText(s string) string { return primaryStyle.Render(s) }
func successText(s string) string { return successStyle.Render(s) }
func errorText(s string) string   { return errorStyle.Render(s) }
func infoText(s string) string    { return infoStyle.Render(s) }
