package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dgnsrekt/voicelink/pkg/voice"
	"github.com/muesli/reflow/truncate"
)

// StatusDisplay renders session state and the live volume meter. It is
// a pure view over {status, volume}: the session owns the state, the
// display only draws the latest sample it was given.
type StatusDisplay struct {
	status       voice.Status
	volume       float64
	errorMessage string
}

// NewStatusDisplay creates a display for an idle session.
func NewStatusDisplay() *StatusDisplay {
	return &StatusDisplay{status: voice.StatusDisconnected}
}

// Update refreshes the display with the session's current state.
func (s *StatusDisplay) Update(status voice.Status, volume float64, lastErr error) {
	s.status = status
	s.volume = volume

	if status != voice.StatusError {
		s.errorMessage = ""
	} else if lastErr != nil {
		s.errorMessage = lastErr.Error()
	}
}

// CompactStatus returns a one-segment status string for the status bar.
func (s *StatusDisplay) CompactStatus() string {
	var icon string
	var color lipgloss.Color

	switch s.status {
	case voice.StatusConnected:
		icon = "●"
		color = lipgloss.Color("#00FF00") // Green

	case voice.StatusConnecting:
		icon = "⟳"
		color = lipgloss.Color("#00AAFF") // Blue

	case voice.StatusError:
		icon = "✗"
		color = lipgloss.Color("#FF0000") // Red

	default:
		icon = "○"
		color = lipgloss.Color("#888888") // Gray
	}

	statusStyle := lipgloss.NewStyle().Foreground(color)
	return statusStyle.Render(fmt.Sprintf("%s %s", icon, s.status))
}

// DetailedStatus returns a multi-line status panel.
func (s *StatusDisplay) DetailedStatus(width int) string {
	var lines []string

	headerStyle := lipgloss.NewStyle().Bold(true)
	lines = append(lines, headerStyle.Render("Voice Session"))
	lines = append(lines, "State: "+s.CompactStatus())

	if s.status == voice.StatusConnected && width > 20 {
		lines = append(lines, "Level: "+s.VolumeBar(width-10))
	}

	if s.errorMessage != "" {
		errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000"))
		errorLine := truncate.StringWithTail(s.errorMessage, uint(width-2), "...")
		lines = append(lines, errorStyle.Render("Error: "+errorLine))
	}

	return strings.Join(lines, "\n")
}

// VolumeBar returns a visual level bar over the meter's [0, 255] range.
func (s *StatusDisplay) VolumeBar(width int) string {
	if width < 10 {
		return ""
	}

	filledWidth := int(s.volume / 255 * float64(width))
	if filledWidth > width {
		filledWidth = width
	}
	if filledWidth < 0 {
		filledWidth = 0
	}

	filled := strings.Repeat("█", filledWidth)
	empty := strings.Repeat("░", width-filledWidth)

	barStyle := lipgloss.NewStyle().Foreground(volumeColor(s.volume))
	emptyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#444444"))
	return barStyle.Render(filled) + emptyStyle.Render(empty)
}

// volumeColor shifts from green through yellow to red as the level
// rises.
func volumeColor(volume float64) lipgloss.Color {
	switch {
	case volume > 200:
		return lipgloss.Color("#FF0000")
	case volume > 120:
		return lipgloss.Color("#FFFF00")
	default:
		return lipgloss.Color("#00FF00")
	}
}
