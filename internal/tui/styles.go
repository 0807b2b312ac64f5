package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/javanstorm/gcpvm/internal/vm"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C6C6C"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F5F"))
	headerStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	boxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)

	runningStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5FD75F"))
	terminatedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF5F5F"))
	otherStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFAF00"))
)

// statusStyle colours the status label: green when running, red when
// stopped or failed, orange for everything in between.
func statusStyle(s vm.Status) lipgloss.Style {
	switch s {
	case vm.StatusRunning:
		return runningStyle
	case vm.StatusTerminated, vm.StatusError:
		return terminatedStyle
	default:
		return otherStyle
	}
}
