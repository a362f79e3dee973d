package ui

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lumipallolabs/nestmap/internal/model"
)

// Layout runs in pixel space; every terminal cell stands for this many pixels
const (
	cellWidthPx  = 8
	cellHeightPx = 16
)

// cellRect is a rectangle in terminal cells
type cellRect struct {
	x, y, w, h int
}

// toCells rounds a pixel rectangle onto the cell grid. Edges are rounded
// independently so neighbors share a boundary instead of overlapping.
func toCells(r model.Rect) cellRect {
	x0 := int(math.Round(r.X / cellWidthPx))
	y0 := int(math.Round(r.Y / cellHeightPx))
	x1 := int(math.Round(r.Right() / cellWidthPx))
	y1 := int(math.Round(r.Bottom() / cellHeightPx))
	return cellRect{x: x0, y: y0, w: x1 - x0, h: y1 - y0}
}

func (r cellRect) empty() bool { return r.w < 1 || r.h < 1 }

type cell struct {
	ch   rune
	fg   string
	bg   string
	bold bool
}

// canvas is a grid of styled cells composited line by line on render
type canvas struct {
	w, h  int
	cells []cell
}

func newCanvas(w, h int) *canvas {
	c := &canvas{w: max(w, 0), h: max(h, 0)}
	c.cells = make([]cell, c.w*c.h)
	for i := range c.cells {
		c.cells[i].ch = ' '
	}
	return c
}

func (c *canvas) at(x, y int) *cell {
	if x < 0 || y < 0 || x >= c.w || y >= c.h {
		return nil
	}
	return &c.cells[y*c.w+x]
}

// fill paints the background of r and clears its characters
func (c *canvas) fill(r cellRect, bg string) {
	for y := r.y; y < r.y+r.h; y++ {
		for x := r.x; x < r.x+r.w; x++ {
			if p := c.at(x, y); p != nil {
				*p = cell{ch: ' ', bg: bg}
			}
		}
	}
}

// box draws a rounded border along the edge of r
func (c *canvas) box(r cellRect, fg string, bold bool) {
	if r.w < 2 || r.h < 2 {
		return
	}
	right, bottom := r.x+r.w-1, r.y+r.h-1
	c.put(r.x, r.y, '╭', fg, bold)
	c.put(right, r.y, '╮', fg, bold)
	c.put(r.x, bottom, '╰', fg, bold)
	c.put(right, bottom, '╯', fg, bold)
	for x := r.x + 1; x < right; x++ {
		c.put(x, r.y, '─', fg, bold)
		c.put(x, bottom, '─', fg, bold)
	}
	for y := r.y + 1; y < bottom; y++ {
		c.put(r.x, y, '│', fg, bold)
		c.put(right, y, '│', fg, bold)
	}
}

// text writes s from (x, y), clipped to maxW cells
func (c *canvas) text(x, y, maxW int, s, fg string, bold bool) {
	i := 0
	for _, ch := range s {
		if i >= maxW {
			return
		}
		c.put(x+i, y, ch, fg, bold)
		i++
	}
}

func (c *canvas) put(x, y int, ch rune, fg string, bold bool) {
	if p := c.at(x, y); p != nil {
		p.ch = ch
		p.fg = fg
		p.bold = bold
	}
}

// String returns the characters without styling
func (c *canvas) String() string {
	lines := make([]string, c.h)
	for y := range c.h {
		var b strings.Builder
		for x := range c.w {
			b.WriteRune(c.cells[y*c.w+x].ch)
		}
		lines[y] = b.String()
	}
	return strings.Join(lines, "\n")
}

// Render returns the styled grid, one lipgloss run per stretch of equally
// styled cells
func (c *canvas) Render() string {
	styles := map[cell]lipgloss.Style{}
	styleOf := func(k cell) lipgloss.Style {
		k.ch = 0
		if s, ok := styles[k]; ok {
			return s
		}
		s := lipgloss.NewStyle().Bold(k.bold)
		if k.fg != "" {
			s = s.Foreground(lipgloss.Color(k.fg))
		}
		if k.bg != "" {
			s = s.Background(lipgloss.Color(k.bg))
		}
		styles[k] = s
		return s
	}

	lines := make([]string, c.h)
	for y := range c.h {
		row := c.cells[y*c.w : (y+1)*c.w]
		var b strings.Builder
		for start := 0; start < len(row); {
			end := start + 1
			for end < len(row) && sameStyle(row[end], row[start]) {
				end++
			}
			run := make([]rune, 0, end-start)
			for _, p := range row[start:end] {
				run = append(run, p.ch)
			}
			b.WriteString(styleOf(row[start]).Render(string(run)))
			start = end
		}
		lines[y] = b.String()
	}
	return strings.Join(lines, "\n")
}

func sameStyle(a, b cell) bool {
	return a.fg == b.fg && a.bg == b.bg && a.bold == b.bold
}
