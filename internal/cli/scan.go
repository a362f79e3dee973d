package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/lumipallolabs/nestmap/internal/cache"
	"github.com/lumipallolabs/nestmap/internal/config"
	"github.com/lumipallolabs/nestmap/internal/core"
	"github.com/lumipallolabs/nestmap/internal/model"
	"github.com/lumipallolabs/nestmap/internal/scanner"
)

// scanOptions maps the configuration onto walker options
func scanOptions(cfg *config.Config) (scanner.Options, error) {
	dir, err := colorful.Hex(cfg.DirColor)
	if err != nil {
		return scanner.Options{}, fmt.Errorf("dir_color: %w", err)
	}
	file, err := colorful.Hex(cfg.FileColor)
	if err != nil {
		return scanner.Options{}, fmt.Errorf("file_color: %w", err)
	}
	return scanner.Options{
		Workers:   cfg.Workers,
		MaxDepth:  cfg.Depth,
		DirColor:  dir,
		FileColor: file,
	}, nil
}

func snapshotCache(cfg *config.Config) *cache.Cache {
	if cfg.SnapshotDir != "" {
		return cache.New(cfg.SnapshotDir)
	}
	return cache.New(cache.DefaultDir())
}

func newController(cfg *config.Config) (*core.Controller, error) {
	opts, err := cfg.LayoutOptions()
	if err != nil {
		return nil, err
	}
	return core.NewController(opts, cfg.HistoryLimit)
}

// checkDir fails unless path is an existing directory
func checkDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}
	return nil
}

// scanBlocking runs a session scan to completion, logging progress at debug
// level, and returns the scanned root
func scanBlocking(ctx context.Context, logger *log.Logger, session *core.Session) (*model.Node, error) {
	events, err := session.StartScan(ctx)
	if err != nil {
		return nil, err
	}
	defer session.FinalizeScan()

	prog := newProgress(logger)
	var (
		root    *model.Node
		scanErr error
	)
	for ev := range events {
		switch e := ev.(type) {
		case core.ScanProgressEvent:
			logger.Debug("scanning", "files", e.FilesScanned, "size", humanize.IBytes(uint64(e.BytesFound)), "at", e.CurrentPath)
		case core.ScanPhaseChangedEvent:
			logger.Debug("phase", "phase", e.Phase)
		case core.ErrorEvent:
			logger.Warn("snapshot failed", "err", e.Err)
		case core.ScanCompletedEvent:
			root, scanErr = e.Root, e.Err
		}
	}
	if scanErr != nil {
		return nil, fmt.Errorf("scan %s: %w", session.Path(), scanErr)
	}

	state := session.ScanState()
	prog.done(fmt.Sprintf("Scanned %d files, %s", state.FilesScanned, humanize.IBytes(uint64(root.SizeMetric()))))
	return root, nil
}
