package cli

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/lumipallolabs/nestmap/internal/core"
	"github.com/lumipallolabs/nestmap/internal/stats"
	"github.com/lumipallolabs/nestmap/internal/ui"
)

// runViewer opens the interactive treemap for path
func runViewer(ctx context.Context, path, version string) error {
	cfg := configFromContext(ctx)
	logger := loggerFromContext(ctx)

	if err := checkDir(path); err != nil {
		return err
	}

	palette, err := ui.NewPalette(cfg)
	if err != nil {
		return err
	}
	ctrl, err := newController(cfg)
	if err != nil {
		return err
	}
	sopts, err := scanOptions(cfg)
	if err != nil {
		return err
	}

	opts := core.SessionOptions{Scanner: sopts, Diff: cfg.Diff}
	if cfg.Diff {
		opts.Cache = snapshotCache(cfg)
	}
	session := core.NewSession(path, opts)
	defer session.Stop()

	ledger := stats.NewManager(stats.DefaultPath())
	if err := ledger.Load(); err != nil {
		logger.Warn("stats not loaded", "err", err)
	}
	defer func() {
		if err := ledger.Close(); err != nil {
			logger.Warn("stats not saved", "err", err)
		}
	}()

	logger.Debug("starting viewer", "path", session.Path(), "diff", cfg.Diff, "depth", cfg.Depth)

	app := ui.NewApp(ctrl, session, palette, ui.Options{Version: version, DiffColors: cfg.Diff, Stats: ledger})
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	_, err = p.Run()
	return err
}
