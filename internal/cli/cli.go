// Package cli implements the nestmap command-line interface.
//
// Running nestmap with a directory opens the treemap viewer. Subcommands
// print a computed layout, save snapshots for later size comparisons and
// manage the configuration file. All commands accept --verbose for debug
// logging and --config to pick a configuration file.
package cli

import (
	"context"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/lumipallolabs/nestmap/internal/config"
	"github.com/lumipallolabs/nestmap/internal/logging"
)

// globalFlags are shared by every command
type globalFlags struct {
	configPath string
	verbose    bool
	depth      int
	workers    int
	diff       bool
}

// Execute runs the nestmap CLI
func Execute(version string) error {
	return newRootCmd(version).ExecuteContext(context.Background())
}

func newRootCmd(version string) *cobra.Command {
	var flags globalFlags

	root := &cobra.Command{
		Use:          "nestmap [path]",
		Short:        "nestmap shows disk usage as a zoomable treemap",
		Long:         `nestmap scans a directory and draws it as a squarified treemap in the terminal. Enter zooms into a folder, backspace zooms out and [ ] walk the zoom history.`,
		Args:         cobra.MaximumNArgs(1),
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := log.InfoLevel
			if flags.verbose {
				level = log.DebugLevel
			}
			logger := logging.New(cmd.ErrOrStderr(), level)

			cfg, err := loadConfig(cmd, flags)
			if err != nil {
				return err
			}
			logger.Debug("configuration loaded", "path", configPath(flags), "layout", cfg.Layout, "color_mode", cfg.ColorMode)

			cmd.SetContext(withConfig(withLogger(cmd.Context(), logger), cfg))
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runViewer(cmd.Context(), pathArg(args), version)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "configuration file (default "+config.DefaultPath()+")")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "enable verbose logging")
	pf.IntVar(&flags.depth, "depth", 0, "fold directories deeper than this into their ancestor (0 = unlimited)")
	pf.IntVar(&flags.workers, "workers", 0, "number of scanner goroutines")
	pf.BoolVar(&flags.diff, "diff", false, "color by size change since the previous snapshot")

	root.AddCommand(newLayoutCmd())
	root.AddCommand(newSnapshotCmd())
	root.AddCommand(newConfigCmd())

	return root
}

func configPath(flags globalFlags) string {
	if flags.configPath != "" {
		return flags.configPath
	}
	return config.DefaultPath()
}

// loadConfig reads the config file and applies flags the user set explicitly
func loadConfig(cmd *cobra.Command, flags globalFlags) (*config.Config, error) {
	cfg, err := config.Load(configPath(flags))
	if err != nil {
		return nil, err
	}

	f := cmd.Flags()
	if f.Changed("depth") {
		cfg.Depth = flags.depth
	}
	if f.Changed("workers") {
		cfg.Workers = flags.workers
	}
	if f.Changed("diff") {
		cfg.Diff = flags.diff
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func pathArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return "."
}
