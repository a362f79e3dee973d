package cli

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/lumipallolabs/nestmap/internal/cache"
	"github.com/lumipallolabs/nestmap/internal/core"
	"github.com/lumipallolabs/nestmap/internal/model"
	"github.com/lumipallolabs/nestmap/internal/ui"
)

type layoutFlags struct {
	width        float64
	height       float64
	levels       int
	fromSnapshot bool
}

func newLayoutCmd() *cobra.Command {
	var flags layoutFlags

	cmd := &cobra.Command{
		Use:   "layout [path]",
		Short: "Print the computed treemap rectangles",
		Long:  `Scan a directory (or load its latest snapshot) and print the rectangle computed for each node, in pixels.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLayout(cmd, pathArg(args), flags)
		},
	}

	cmd.Flags().Float64Var(&flags.width, "width", 1024, "destination width in pixels")
	cmd.Flags().Float64Var(&flags.height, "height", 768, "destination height in pixels")
	cmd.Flags().IntVar(&flags.levels, "levels", 1, "number of nesting levels to print (0 = all)")
	cmd.Flags().BoolVar(&flags.fromSnapshot, "from-snapshot", false, "use the latest snapshot instead of scanning")

	return cmd
}

func runLayout(cmd *cobra.Command, path string, flags layoutFlags) error {
	ctx := cmd.Context()
	cfg := configFromContext(ctx)
	logger := loggerFromContext(ctx)

	if flags.width <= 0 || flags.height <= 0 {
		return fmt.Errorf("invalid size %gx%g", flags.width, flags.height)
	}

	var (
		nodes []*model.Node
		empty float32
	)
	if flags.fromSnapshot {
		abs, err := filepath.Abs(path)
		if err != nil {
			return err
		}
		c := snapshotCache(cfg)
		key := cache.Key(abs)
		if nodes, empty, err = c.LoadLatest(key); err != nil {
			return fmt.Errorf("load snapshot for %s: %w", abs, err)
		}
		if ts, err := c.Timestamp(key); err == nil {
			logger.Info("using snapshot", "taken", humanize.Time(ts))
		}
	} else {
		if err := checkDir(path); err != nil {
			return err
		}
		sopts, err := scanOptions(cfg)
		if err != nil {
			return err
		}
		root, err := scanBlocking(ctx, logger, core.NewSession(path, core.SessionOptions{Scanner: sopts}))
		if err != nil {
			return err
		}
		nodes = root.Nodes().Items()
		root.Nodes().Clear()
	}

	ctrl, err := newController(cfg)
	if err != nil {
		return err
	}
	if err := ctrl.Replace(nodes, empty); err != nil {
		return err
	}
	ctrl.Layout(model.Rect{W: flags.width, H: flags.height})

	fmt.Fprintln(cmd.OutOrStdout(), layoutTable(ctrl.Nodes(), flags.levels))
	return nil
}

// layoutTable renders the drawn nodes of the first levels, parents before
// their children
func layoutTable(top *model.Nodes, levels int) string {
	var rows [][]string
	var visit func(nodes *model.Nodes, level int)
	visit = func(nodes *model.Nodes, level int) {
		for n := range nodes.All() {
			if !n.IsDrawn() {
				continue
			}
			r := n.Rectangle()
			rows = append(rows, []string{
				strings.Repeat("  ", level) + n.Text(),
				humanize.IBytes(uint64(n.SizeMetric())),
				px(r.X), px(r.Y), px(r.W), px(r.H),
				strconv.Itoa(n.PenWidthPx()),
			})
			if levels == 0 || level+1 < levels {
				visit(n.Nodes(), level+1)
			}
		}
	}
	visit(top, 0)

	if es := top.EmptySpace(); !es.Rectangle().IsEmpty() {
		r := es.Rectangle()
		rows = append(rows, []string{"(empty space)", humanize.IBytes(uint64(es.SizeMetric())), px(r.X), px(r.Y), px(r.W), px(r.H), "0"})
	}

	headerStyle := lipgloss.NewStyle().Foreground(ui.ColorMuted).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(ui.ColorDim)).
		Headers("Name", "Size", "X", "Y", "W", "H", "Pen").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if col >= 2 {
				return lipgloss.NewStyle().Align(lipgloss.Right)
			}
			return lipgloss.NewStyle()
		}).
		String()
}

func px(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}
