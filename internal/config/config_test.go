package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/lumipallolabs/nestmap/internal/layout"
	"github.com/lumipallolabs/nestmap/internal/model"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default should be valid, got: %v", err)
	}

	opts, err := cfg.LayoutOptions()
	if err != nil {
		t.Fatal(err)
	}
	if opts.Variant != layout.BottomWeighted || opts.PaddingPx != 5 || opts.PenWidthPx != 3 {
		t.Errorf("unexpected default layout options %+v", opts)
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "nestmap.yml")

	original := Default()
	original.Layout = "top_weighted"
	original.EmptySpace = "top"
	original.PaddingPx = 2
	original.ColorMode = ColorByAbsolute
	original.HistoryLimit = 7

	if err := original.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if *loaded != *original {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", loaded, original)
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nonexistent.yml"))
	if err != nil {
		t.Fatalf("Load should not fail for missing file: %v", err)
	}
	if *cfg != *Default() {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("NESTMAP_PADDING_PX", "9")
	t.Setenv("NESTMAP_LAYOUT", "top_weighted")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.PaddingPx != 9 {
		t.Errorf("env override failed: padding_px = %d", cfg.PaddingPx)
	}
	if cfg.Layout != "top_weighted" {
		t.Errorf("env override failed: layout = %q", cfg.Layout)
	}
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yml")
	if err := os.WriteFile(path, []byte("pen_width_px: 300\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); !errors.Is(err, model.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"layout", func(c *Config) { c.Layout = "diagonal" }},
		{"empty space", func(c *Config) { c.EmptySpace = "left" }},
		{"text location", func(c *Config) { c.TextLocation = "" }},
		{"padding", func(c *Config) { c.PaddingPx = 101 }},
		{"padding decrement", func(c *Config) { c.PaddingDecrementPerLevelPx = 100 }},
		{"pen width", func(c *Config) { c.PenWidthPx = -1 }},
		{"text space", func(c *Config) { c.TextSpacePx = -4 }},
		{"color mode", func(c *Config) { c.ColorMode = "rainbow" }},
		{"color range", func(c *Config) { c.MinColorMetric = c.MaxColorMetric }},
		{"too few colors", func(c *Config) { c.DiscretePositiveColors = 1 }},
		{"too many colors", func(c *Config) { c.DiscreteNegativeColors = 51 }},
		{"bad hex", func(c *Config) { c.ZeroColor = "green" }},
		{"history", func(c *Config) { c.HistoryLimit = -1 }},
		{"depth", func(c *Config) { c.Depth = -2 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !errors.Is(err, model.ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument, got %v", err)
			}
		})
	}
}
