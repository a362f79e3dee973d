package ui

import (
	"fmt"
	"math"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/lumipallolabs/nestmap/internal/config"
	"github.com/lumipallolabs/nestmap/internal/model"
)

// Palette maps nodes to fill colors. In metric mode the color metric is
// clamped to [min, max] and bucketed into discrete steps blended from the
// zero color towards the positive or negative color.
type Palette struct {
	mode     config.ColorMode
	min, max float32

	zero     colorful.Color
	positive []colorful.Color
	negative []colorful.Color

	dir, file colorful.Color
}

// NewPalette builds a palette from the color settings of cfg
func NewPalette(cfg *config.Config) (Palette, error) {
	hex := func(name, s string) (colorful.Color, error) {
		c, err := colorful.Hex(s)
		if err != nil {
			return colorful.Color{}, fmt.Errorf("%s %q: %w", name, s, err)
		}
		return c, nil
	}

	p := Palette{mode: cfg.ColorMode, min: cfg.MinColorMetric, max: cfg.MaxColorMetric}
	var err error
	if p.zero, err = hex("zero_color", cfg.ZeroColor); err != nil {
		return Palette{}, err
	}
	pos, err := hex("positive_color", cfg.PositiveColor)
	if err != nil {
		return Palette{}, err
	}
	neg, err := hex("negative_color", cfg.NegativeColor)
	if err != nil {
		return Palette{}, err
	}
	if p.dir, err = hex("dir_color", cfg.DirColor); err != nil {
		return Palette{}, err
	}
	if p.file, err = hex("file_color", cfg.FileColor); err != nil {
		return Palette{}, err
	}
	p.positive = blendSteps(p.zero, pos, cfg.DiscretePositiveColors)
	p.negative = blendSteps(p.zero, neg, cfg.DiscreteNegativeColors)
	return p, nil
}

// blendSteps returns n colors from just past from up to and including to
func blendSteps(from, to colorful.Color, n int) []colorful.Color {
	steps := make([]colorful.Color, 0, n)
	for i := 1; i <= n; i++ {
		steps = append(steps, from.BlendLab(to, float64(i)/float64(n)).Clamped())
	}
	return steps
}

// Fill returns the fill color of n
func (p Palette) Fill(n *model.Node) colorful.Color {
	if p.mode == config.ColorByAbsolute {
		if c, ok := n.AbsoluteColor(); ok {
			if cc, ok := colorful.MakeColor(c); ok {
				return cc
			}
		}
		if n.Nodes().Len() > 0 {
			return p.dir
		}
		return p.file
	}
	return p.Metric(n.ColorMetric())
}

// Metric returns the color for a raw color metric value
func (p Palette) Metric(v float32) colorful.Color {
	v = min(max(v, p.min), p.max)
	switch {
	case v > 0 && p.max > 0 && len(p.positive) > 0:
		return p.positive[bucket(v/p.max, len(p.positive))]
	case v < 0 && p.min < 0 && len(p.negative) > 0:
		return p.negative[bucket(v/p.min, len(p.negative))]
	default:
		return p.zero
	}
}

// bucket maps a fraction in (0, 1] onto one of n steps
func bucket(frac float32, n int) int {
	i := int(math.Ceil(float64(frac)*float64(n))) - 1
	return min(max(i, 0), n-1)
}

// textOn picks a readable text color for the given background
func textOn(bg colorful.Color) colorful.Color {
	l, _, _ := bg.Lab()
	if l > 0.6 {
		return colorful.Color{R: 0.07, G: 0.07, B: 0.07}
	}
	return colorful.Color{R: 0.96, G: 0.96, B: 0.96}
}
