package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/lumipallolabs/nestmap/internal/core"
)

const helpKeyColumnWidth = 14 // Width for key column in help text (includes padding)

var helpSections = []string{"Selection", "Zoom", "History", "Actions", "General"}

// HelpOverlay displays keyboard shortcuts in a centered overlay
type HelpOverlay struct {
	visible bool
	width   int
	height  int
	version string
	keys    KeyMap
}

// NewHelpOverlay creates a new help overlay component
func NewHelpOverlay(version string, keys KeyMap) HelpOverlay {
	return HelpOverlay{version: version, keys: keys}
}

// Toggle toggles the visibility of the help overlay
func (h *HelpOverlay) Toggle() {
	h.visible = !h.visible
}

// SetVisible sets the visibility of the help overlay
func (h *HelpOverlay) SetVisible(visible bool) {
	h.visible = visible
}

// IsVisible returns whether the help overlay is visible
func (h HelpOverlay) IsVisible() bool {
	return h.visible
}

// SetSize sets the dimensions of the help overlay
func (ho *HelpOverlay) SetSize(w, h int) {
	ho.width = w
	ho.height = h
}

// View renders the help overlay
func (h HelpOverlay) View() string {
	if !h.visible {
		return ""
	}

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorPrimary).
		Padding(1, 3)

	sectionStyle := lipgloss.NewStyle().
		Foreground(ColorMuted).
		MarginTop(1)

	descStyle := lipgloss.NewStyle().Foreground(ColorText)
	dimStyle := lipgloss.NewStyle().Foreground(ColorMuted)

	var content strings.Builder

	nameStyle := lipgloss.NewStyle().
		Foreground(ColorPrimary).
		Bold(true)
	content.WriteString(nameStyle.Render("nestmap"))
	if h.version != "" {
		content.WriteString(dimStyle.Render(" " + h.version))
	}
	content.WriteString("\n")

	for i, group := range h.keys.FullHelp() {
		if i < len(helpSections) {
			content.WriteString(sectionStyle.Render(helpSections[i]))
			content.WriteString("\n")
		}
		for _, b := range group {
			content.WriteString(formatHelpLine(HelpOverlayKey, descStyle, b))
		}
	}

	content.WriteString("\n")
	content.WriteString(dimStyle.Render("Press any key to close"))

	box := boxStyle.Render(content.String())
	return lipgloss.Place(h.width, h.height, lipgloss.Center, lipgloss.Center, box)
}

// formatHelpLine formats a single help line with key and description
func formatHelpLine(keyStyle, descStyle lipgloss.Style, b key.Binding) string {
	return keyStyle.Width(helpKeyColumnWidth).Render(b.Help().Key) + descStyle.Render(b.Help().Desc) + "\n"
}

// HelpBar renders a bottom help bar with key hints. Hints for moves that are
// not possible right now are dimmed.
func HelpBar(width int, nav core.NavigationState) string {
	descStyle := lipgloss.NewStyle().Foreground(ColorDim)

	type hint struct {
		key     string
		desc    string
		enabled bool
	}

	fullHints := []hint{
		{"↑↓←→", "select", true},
		{"Enter", "zoom in", nav.Zoomable},
		{"Esc", "zoom out", nav.CanZoomOut},
		{"[", "back", nav.CanMoveBack},
		{"]", "forward", nav.CanMoveForward},
		{"r", "rescan", true},
		{"?", "help", true},
		{"q", "quit", true},
	}

	compactHints := []hint{
		{"↑↓←→", "sel", true},
		{"Enter", "in", nav.Zoomable},
		{"Esc", "out", nav.CanZoomOut},
		{"[ ]", "hist", nav.CanMoveBack || nav.CanMoveForward},
		{"?", "help", true},
		{"q", "quit", true},
	}

	minimalHints := []hint{
		{"?", "help", true},
		{"q", "quit", true},
	}

	var hints []hint
	if width >= 100 {
		hints = fullHints
	} else if width >= 60 {
		hints = compactHints
	} else {
		hints = minimalHints
	}

	var parts []string
	for _, h := range hints {
		keyStyle := HelpKey
		if !h.enabled {
			keyStyle = HelpKeyDisabled
		}
		parts = append(parts, keyStyle.Render(h.key)+" "+descStyle.Render(h.desc))
	}

	separator := "   "
	if width < 80 {
		separator = "  "
	}

	bar := strings.Join(parts, separator)

	return HelpStyle.Width(width).MaxHeight(1).Render(bar)
}
