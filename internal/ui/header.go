package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const breadcrumbSeparator = " › "

// Header displays the scanned path, zoom breadcrumb and stats (2 lines)
type Header struct {
	path         string
	totalSize    int64
	breadcrumb   []string
	width        int
	scanning     bool
	scanProgress string
	freed        int64
	lifetime     int64
	version      string
}

// NewHeader creates a new header component
func NewHeader(path, version string) Header {
	return Header{path: path, version: version}
}

// SetTotal sets the size of the scanned tree
func (h *Header) SetTotal(bytes int64) {
	h.totalSize = bytes
}

// SetBreadcrumb sets the names from the top level down to the zoomed node
func (h *Header) SetBreadcrumb(names []string) {
	h.breadcrumb = names
}

// SetScanning sets the scanning state
func (h *Header) SetScanning(scanning bool, progress string) {
	h.scanning = scanning
	h.scanProgress = progress
}

// SetFreed sets the bytes recovered by deletions since the scan
func (h *Header) SetFreed(bytes int64) {
	h.freed = bytes
}

// SetLifetime sets the bytes recovered across all sessions
func (h *Header) SetLifetime(bytes int64) {
	h.lifetime = bytes
}

// ScanProgress returns the current scan progress text
func (h Header) ScanProgress() string {
	return h.scanProgress
}

// SetWidth sets the header width
func (h *Header) SetWidth(w int) {
	h.width = w
}

// View renders the header
// Line 1: nestmap 0.1.0                            Total: X
// Line 2: /path › dir › zoomed                  Recovered: Y
func (h Header) View() string {
	nameStyle := lipgloss.NewStyle().
		Foreground(ColorPrimary).
		Bold(true)
	versionStyle := lipgloss.NewStyle().
		Foreground(ColorDim)
	labelStyle := lipgloss.NewStyle().
		Foreground(ColorDim)

	appName := nameStyle.Render("nestmap") + versionStyle.Render(" "+h.version)

	var right1 string
	switch {
	case h.scanning:
		right1 = labelStyle.Render(h.scanProgress)
	case h.totalSize > 0:
		right1 = labelStyle.Render("Total: ") + StatsStyle.Render(FormatSize(h.totalSize))
	}
	line1 := spread(appName, right1, h.width)

	var right2 string
	if h.freed > 0 {
		right2 = labelStyle.Render("Recovered: ") + ShrunkStyle.Render(FormatSize(h.freed))
	}
	if h.lifetime > h.freed {
		right2 += labelStyle.Render(" (" + FormatSize(h.lifetime) + " all time)")
	}
	line2 := spread(h.crumbs(h.width-lipgloss.Width(right2)-2), right2, h.width)

	return lipgloss.JoinVertical(lipgloss.Left, line1, line2)
}

// crumbs renders the path and breadcrumb, dropping leading crumbs that do
// not fit in maxW
func (h Header) crumbs(maxW int) string {
	parts := append([]string{h.path}, h.breadcrumb...)
	for len(parts) > 2 && lipgloss.Width(strings.Join(parts, breadcrumbSeparator)) > maxW {
		parts = append([]string{"…"}, parts[2:]...)
	}

	var styled []string
	for i, p := range parts {
		if i == len(parts)-1 {
			styled = append(styled, BreadcrumbCurrent.Render(p))
		} else {
			styled = append(styled, BreadcrumbStyle.Render(p))
		}
	}
	return strings.Join(styled, BreadcrumbStyle.Render(breadcrumbSeparator))
}

// spread places left and right on one line of the given width
func spread(left, right string, width int) string {
	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 2 {
		gap = 2
	}
	return left + strings.Repeat(" ", gap) + right
}
