package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/lucasb-eyer/go-colorful"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/lumipallolabs/nestmap/internal/layout"
	"github.com/lumipallolabs/nestmap/internal/model"
)

// EnvPrefix marks environment variables that override file settings,
// e.g. NESTMAP_PADDING_PX=2
const EnvPrefix = "NESTMAP_"

// ColorMode selects what drives a node's fill color
type ColorMode string

const (
	ColorByMetric   ColorMode = "metric"
	ColorByAbsolute ColorMode = "absolute"
)

const (
	MinDiscreteColors = 2
	MaxDiscreteColors = 50
)

// Config is the viewer configuration, corresponding to nestmap.yml
type Config struct {
	Layout                      string  `yaml:"layout" koanf:"layout"`
	EmptySpace                  string  `yaml:"empty_space" koanf:"empty_space"`
	TextLocation                string  `yaml:"text_location" koanf:"text_location"`
	TextSpacePx                 float64 `yaml:"text_space_px" koanf:"text_space_px"`
	PaddingPx                   int     `yaml:"padding_px" koanf:"padding_px"`
	PaddingDecrementPerLevelPx  int     `yaml:"padding_decrement_per_level_px" koanf:"padding_decrement_per_level_px"`
	PenWidthPx                  int     `yaml:"pen_width_px" koanf:"pen_width_px"`
	PenWidthDecrementPerLevelPx int     `yaml:"pen_width_decrement_per_level_px" koanf:"pen_width_decrement_per_level_px"`

	ColorMode              ColorMode `yaml:"color_mode" koanf:"color_mode"`
	MinColorMetric         float32   `yaml:"min_color_metric" koanf:"min_color_metric"`
	MaxColorMetric         float32   `yaml:"max_color_metric" koanf:"max_color_metric"`
	DiscretePositiveColors int       `yaml:"discrete_positive_colors" koanf:"discrete_positive_colors"`
	DiscreteNegativeColors int       `yaml:"discrete_negative_colors" koanf:"discrete_negative_colors"`
	PositiveColor          string    `yaml:"positive_color" koanf:"positive_color"`
	NegativeColor          string    `yaml:"negative_color" koanf:"negative_color"`
	ZeroColor              string    `yaml:"zero_color" koanf:"zero_color"`
	DirColor               string    `yaml:"dir_color" koanf:"dir_color"`
	FileColor              string    `yaml:"file_color" koanf:"file_color"`

	HistoryLimit int    `yaml:"history_limit" koanf:"history_limit"`
	Depth        int    `yaml:"depth" koanf:"depth"`
	Workers      int    `yaml:"workers" koanf:"workers"`
	SnapshotDir  string `yaml:"snapshot_dir" koanf:"snapshot_dir"`
	Diff         bool   `yaml:"diff" koanf:"diff"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Layout:                      layout.BottomWeighted.String(),
		EmptySpace:                  layout.EmptySpaceByAlgorithm.String(),
		TextLocation:                layout.TextTop.String(),
		TextSpacePx:                 16,
		PaddingPx:                   5,
		PaddingDecrementPerLevelPx:  1,
		PenWidthPx:                  3,
		PenWidthDecrementPerLevelPx: 1,

		ColorMode:              ColorByMetric,
		MinColorMetric:         -100,
		MaxColorMetric:         365,
		DiscretePositiveColors: 20,
		DiscreteNegativeColors: 20,
		PositiveColor:          "#3b6ea5",
		NegativeColor:          "#b33a3a",
		ZeroColor:              "#4caf50",
		DirColor:               "#5c6bc0",
		FileColor:              "#8d6e63",

		HistoryLimit: 100,
		Workers:      8,
	}
}

// DefaultPath returns the config file looked up when --config is not given
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "nestmap.yml"
	}
	return filepath.Join(dir, "nestmap", "nestmap.yml")
}

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (NESTMAP_*). A missing file is not an error.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := Default()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("accessing config %s: %w", path, err)
		}
	}

	// NESTMAP_PADDING_PX -> padding_px
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the configuration to the given YAML file path
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating config dir %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

var validColorModes = map[ColorMode]bool{
	ColorByMetric:   true,
	ColorByAbsolute: true,
}

// Validate checks every setting. Errors wrap model.ErrInvalidArgument.
func (c *Config) Validate() error {
	if _, err := c.LayoutOptions(); err != nil {
		return err
	}

	if !validColorModes[c.ColorMode] {
		return invalid("color_mode %q must be one of metric, absolute", c.ColorMode)
	}
	if !(c.MinColorMetric < c.MaxColorMetric) {
		return invalid("min_color_metric %v must be below max_color_metric %v", c.MinColorMetric, c.MaxColorMetric)
	}
	for name, n := range map[string]int{
		"discrete_positive_colors": c.DiscretePositiveColors,
		"discrete_negative_colors": c.DiscreteNegativeColors,
	} {
		if n < MinDiscreteColors || n > MaxDiscreteColors {
			return invalid("%s %d must be between %d and %d", name, n, MinDiscreteColors, MaxDiscreteColors)
		}
	}
	for name, hex := range map[string]string{
		"positive_color": c.PositiveColor,
		"negative_color": c.NegativeColor,
		"zero_color":     c.ZeroColor,
		"dir_color":      c.DirColor,
		"file_color":     c.FileColor,
	} {
		if _, err := colorful.Hex(hex); err != nil {
			return invalid("%s %q is not a #rrggbb color", name, hex)
		}
	}

	if c.HistoryLimit < 0 {
		return invalid("history_limit must be non-negative")
	}
	if c.Depth < 0 {
		return invalid("depth must be non-negative")
	}
	if c.Workers < 0 {
		return invalid("workers must be non-negative")
	}
	return nil
}

// LayoutOptions converts the layout settings for the engine
func (c *Config) LayoutOptions() (layout.Options, error) {
	variant, err := layout.ParseVariant(c.Layout)
	if err != nil {
		return layout.Options{}, err
	}
	empty, err := layout.ParseEmptySpaceLocation(c.EmptySpace)
	if err != nil {
		return layout.Options{}, err
	}
	text, err := layout.ParseTextLocation(c.TextLocation)
	if err != nil {
		return layout.Options{}, err
	}

	opts := layout.Options{
		Variant:                     variant,
		EmptySpace:                  empty,
		Text:                        text,
		TextSpacePx:                 c.TextSpacePx,
		PaddingPx:                   c.PaddingPx,
		PaddingDecrementPerLevelPx:  c.PaddingDecrementPerLevelPx,
		PenWidthPx:                  c.PenWidthPx,
		PenWidthDecrementPerLevelPx: c.PenWidthDecrementPerLevelPx,
	}
	if err := opts.Validate(); err != nil {
		return layout.Options{}, err
	}
	return opts, nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, model.ErrInvalidArgument)...)
}
