package cli

import (
	"fmt"
	"slices"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/lumipallolabs/nestmap/internal/core"
	"github.com/lumipallolabs/nestmap/internal/model"
)

func newSnapshotCmd() *cobra.Command {
	var top int

	cmd := &cobra.Command{
		Use:   "snapshot [path]",
		Short: "Scan a directory and save a snapshot",
		Long: `Scan a directory and save its tree to the snapshot directory.

With --diff the top-level entries that grew or shrank since the previous
snapshot are listed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := configFromContext(ctx)
			logger := loggerFromContext(ctx)

			path := pathArg(args)
			if err := checkDir(path); err != nil {
				return err
			}
			sopts, err := scanOptions(cfg)
			if err != nil {
				return err
			}

			session := core.NewSession(path, core.SessionOptions{
				Scanner: sopts,
				Cache:   snapshotCache(cfg),
				Diff:    cfg.Diff,
			})
			root, err := scanBlocking(ctx, logger, session)
			if err != nil {
				return err
			}

			saved := session.ScanState().SnapshotPath
			if saved == "" {
				return fmt.Errorf("snapshot of %s was not saved", session.Path())
			}
			logger.Info("snapshot saved", "path", saved)

			if cfg.Diff {
				printChanges(cmd, root.Nodes().Items(), top)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&top, "top", 10, "number of changed entries to list with --diff")
	return cmd
}

// printChanges lists the entries with the largest relative size change
func printChanges(cmd *cobra.Command, nodes []*model.Node, top int) {
	changed := slices.DeleteFunc(slices.Clone(nodes), func(n *model.Node) bool {
		return n.ColorMetric() == 0
	})
	if len(changed) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no changes since the previous snapshot")
		return
	}

	slices.SortStableFunc(changed, func(a, b *model.Node) int {
		return cmpAbs(b.ColorMetric(), a.ColorMetric())
	})
	if top > 0 && len(changed) > top {
		changed = changed[:top]
	}
	for _, n := range changed {
		fmt.Fprintf(cmd.OutOrStdout(), "%+5.0f%%  %10s  %s\n", n.ColorMetric(), humanize.IBytes(uint64(n.SizeMetric())), n.Text())
	}
}

func cmpAbs(a, b float32) int {
	a, b = max(a, -a), max(b, -b)
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
