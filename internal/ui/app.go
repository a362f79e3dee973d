package ui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/gabriel-vasile/mimetype"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/lumipallolabs/nestmap/internal/core"
	"github.com/lumipallolabs/nestmap/internal/logging"
	"github.com/lumipallolabs/nestmap/internal/model"
	"github.com/lumipallolabs/nestmap/internal/scanner"
	"github.com/lumipallolabs/nestmap/internal/stats"
)

// Message types for Bubble Tea
type (
	scanStartMsg         struct{}
	scanEventMsg         struct{ event core.Event }
	scanCompleteDelayMsg struct{ root *model.Node }
	deletionDetectedMsg  struct{ event core.DeletionDetectedEvent }
	spinnerTickMsg       struct{}
)

// Spinner frames - modern braille dots spinner
var spinnerFrames = []string{
	"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏",
}

// Timing constants
const (
	spinnerTickInterval = 80 * time.Millisecond
	borderRotationSpeed = 33 // milliseconds per frame
	scanCompleteDelay   = 500 * time.Millisecond
)

// Rows taken by everything but the treemap
const (
	headerHeight  = 2
	statusHeight  = 1
	helpBarHeight = 1
)

// Options configures the viewer
type Options struct {
	Version string
	// DiffColors means color metrics hold size change percentages rather
	// than ages in days
	DiffColors bool
	// Stats, when set, records scans and recovered space across sessions
	Stats *stats.Manager
}

// App is the main TUI application model
type App struct {
	ctrl    *core.Controller
	session *core.Session
	opts    Options

	// UI Components
	header  Header
	treemap *TreemapPanel
	help    HelpOverlay
	keys    KeyMap

	err        error
	freed      int64
	cancelScan context.CancelFunc
	fileTypes  map[string]string

	// Event channels (for continuing to listen after each event)
	scanEventCh    <-chan core.Event
	watcherEventCh <-chan core.Event

	// Dimensions
	width  int
	height int
}

// NewApp creates a viewer for the session's directory. Nodes go through ctrl,
// which gets zooming switched on.
func NewApp(ctrl *core.Controller, session *core.Session, palette Palette, opts Options) App {
	ctrl.SetZoomable(true)
	keys := DefaultKeyMap()
	return App{
		ctrl:      ctrl,
		session:   session,
		opts:      opts,
		header:    NewHeader(session.Path(), opts.Version),
		treemap:   NewTreemapPanel(ctrl, palette),
		help:      NewHelpOverlay(opts.Version, keys),
		keys:      keys,
		fileTypes: map[string]string{},
	}
}

// Init implements tea.Model
func (a App) Init() tea.Cmd {
	return func() tea.Msg {
		return scanStartMsg{}
	}
}

// Update implements tea.Model
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.updateLayout()
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case tea.MouseMsg:
		return a.handleMouse(msg)

	case scanStartMsg:
		return a.startScan()

	case scanEventMsg:
		return a.handleScanEvent(msg.event)

	case scanCompleteDelayMsg:
		return a.finalizeScan(msg.root)

	case deletionDetectedMsg:
		a.handleDeletion(msg.event.Path)
		return a, a.listenForWatcherEvents()

	case spinnerTickMsg:
		if a.session.ScanState().Phase != core.PhaseIdle {
			return a, tea.Tick(spinnerTickInterval, func(t time.Time) tea.Msg {
				return spinnerTickMsg{}
			})
		}
		return a, nil
	}

	return a, nil
}

// handleScanEvent processes scan events and continues listening
func (a App) handleScanEvent(event core.Event) (tea.Model, tea.Cmd) {
	switch e := event.(type) {
	case core.ScanProgressEvent:
		state := a.session.ScanState()
		progress := fmt.Sprintf("%d files, %s, %s",
			state.FilesScanned,
			FormatSize(state.BytesFound),
			state.Elapsed())
		a.header.SetScanning(true, progress)
		return a, a.listenForScanEvents()

	case core.ScanPhaseChangedEvent:
		logging.Debug.Debug("scan phase changed", "phase", e.Phase)
		return a, a.listenForScanEvents()

	case core.ErrorEvent:
		a.err = e.Err
		a.updateLayout()
		return a, a.listenForScanEvents()

	case core.ScanCompletedEvent:
		if e.Err != nil {
			if !errors.Is(e.Err, context.Canceled) {
				a.err = e.Err
			}
			a.header.SetScanning(false, "")
			a.session.FinalizeScan()
			a.updateLayout()
			return a, nil
		}
		// Show "Complete" briefly before showing data
		return a, tea.Tick(scanCompleteDelay, func(t time.Time) tea.Msg {
			return scanCompleteDelayMsg{root: e.Root}
		})

	default:
		return a, a.listenForScanEvents()
	}
}

// startScan begins the scanning process
func (a App) startScan() (tea.Model, tea.Cmd) {
	ctx, cancel := context.WithCancel(context.Background())
	eventCh, err := a.session.StartScan(ctx)
	if err != nil {
		cancel()
		a.err = err
		return a, nil
	}
	a.cancelScan = cancel
	a.scanEventCh = eventCh
	a.header.SetScanning(true, "")

	return a, tea.Batch(
		a.listenForScanEvents(),
		tea.Tick(spinnerTickInterval, func(t time.Time) tea.Msg {
			return spinnerTickMsg{}
		}),
	)
}

// listenForScanEvents creates a command that listens for scan events
func (a App) listenForScanEvents() tea.Cmd {
	if a.scanEventCh == nil {
		return nil
	}
	eventCh := a.scanEventCh
	return func() tea.Msg {
		event, ok := <-eventCh
		if !ok {
			return nil // Channel closed
		}
		return scanEventMsg{event: event}
	}
}

// finalizeScan moves the scanned directory's children to the top level
func (a App) finalizeScan(root *model.Node) (tea.Model, tea.Cmd) {
	a.session.FinalizeScan()
	a.err = nil

	items := root.Nodes().Items()
	root.Nodes().Clear()
	if err := a.ctrl.Replace(items, 0); err != nil {
		a.err = err
	}

	a.freed = 0
	a.header.SetFreed(0)
	a.header.SetTotal(int64(root.SizeMetric()))
	if a.opts.Stats != nil {
		a.opts.Stats.RecordScan(a.session.Path(), int64(root.SizeMetric()), time.Now())
		a.header.SetLifetime(a.opts.Stats.Recovered())
	}
	a.header.SetScanning(false, "")
	a.syncHeader()
	a.updateLayout()

	return a, a.startWatcher()
}

// startWatcher starts watching for deletions
func (a *App) startWatcher() tea.Cmd {
	eventCh, err := a.session.StartWatching()
	if err != nil || eventCh == nil {
		logging.Debug.Warn("watcher not started", "err", err)
		return nil
	}
	a.watcherEventCh = eventCh
	return a.listenForWatcherEvents()
}

// listenForWatcherEvents creates a command that listens for watcher events
func (a App) listenForWatcherEvents() tea.Cmd {
	if a.watcherEventCh == nil {
		return nil
	}
	eventCh := a.watcherEventCh
	return func() tea.Msg {
		for event := range eventCh {
			if e, ok := event.(core.DeletionDetectedEvent); ok {
				return deletionDetectedMsg{event: e}
			}
		}
		return nil
	}
}

// handleDeletion removes the node for a deleted path and shrinks its
// ancestors, all inside one update so the view redraws once
func (a *App) handleDeletion(path string) {
	n := a.ctrl.Find(path)
	if n == nil {
		return
	}
	size := n.SizeMetric()

	shrink := func(p *model.Node) {
		_ = p.SetSizeMetric(max(p.SizeMetric()-size, 0))
	}

	a.ctrl.BeginUpdate()
	shown := n
	for p := n.Parent(); p != nil; p = p.Parent() {
		shrink(p)
		shown = p
	}
	// the zoomed node is detached from its real parent while shown
	if path := a.ctrl.Navigation().Path; len(path) > 0 && path[len(path)-1] == shown {
		for _, p := range path[:len(path)-1] {
			shrink(p)
		}
	}
	err := a.ctrl.RemoveNode(n)
	if endErr := a.ctrl.EndUpdate(); err == nil {
		err = endErr
	}
	if err != nil {
		logging.Debug.Warn("remove deleted node", "path", path, "err", err)
		return
	}

	a.freed += int64(size)
	a.header.SetFreed(a.freed)
	if a.opts.Stats != nil {
		a.opts.Stats.AddRecovered(a.session.Path(), int64(size))
		a.header.SetLifetime(a.opts.Stats.Recovered())
	}
	a.syncHeader()
	logging.Debug.Debug("deleted node removed", "path", path, "size", size)
}

// handleKey handles keyboard input
func (a App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Help overlay - any key closes it
	if a.help.IsVisible() {
		a.help.SetVisible(false)
		return a, nil
	}

	switch {
	case key.Matches(msg, a.keys.Quit):
		a.shutdown()
		return a, tea.Quit

	case key.Matches(msg, a.keys.Help):
		a.help.Toggle()

	case key.Matches(msg, a.keys.Up):
		a.treemap.MoveSelection(0, -1)
	case key.Matches(msg, a.keys.Down):
		a.treemap.MoveSelection(0, 1)
	case key.Matches(msg, a.keys.Left):
		a.treemap.MoveSelection(-1, 0)
	case key.Matches(msg, a.keys.Right):
		a.treemap.MoveSelection(1, 0)

	case key.Matches(msg, a.keys.Enter):
		a.zoomInSelected()

	case key.Matches(msg, a.keys.Back):
		if a.ctrl.CanZoomOut() {
			a.navigate(a.ctrl.ZoomOut)
		}

	case key.Matches(msg, a.keys.MoveBack):
		if a.ctrl.CanMoveBack() {
			a.navigate(a.ctrl.MoveBack)
		}

	case key.Matches(msg, a.keys.MoveForward):
		if a.ctrl.CanMoveForward() {
			a.navigate(a.ctrl.MoveForward)
		}

	case key.Matches(msg, a.keys.Rescan):
		if a.session.ScanState().Phase == core.PhaseIdle {
			a.session.Stop()
			a.watcherEventCh = nil
			a.ctrl.Clear()
			a.syncHeader()
			return a.startScan()
		}

	case key.Matches(msg, a.keys.Open):
		a.openSelected()
	}

	return a, nil
}

// handleMouse selects on click; the wheel zooms
func (a App) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if msg.Action != tea.MouseActionPress || a.help.IsVisible() {
		return a, nil
	}
	col, row := msg.X, msg.Y-a.treemapTop()

	switch msg.Button {
	case tea.MouseButtonLeft:
		a.treemap.SelectAt(col, row)
	case tea.MouseButtonWheelUp:
		a.treemap.SelectAt(col, row)
		a.zoomInSelected()
	case tea.MouseButtonWheelDown:
		if a.ctrl.CanZoomOut() {
			a.navigate(a.ctrl.ZoomOut)
		}
	}
	return a, nil
}

func (a *App) zoomInSelected() {
	sel := a.treemap.Selected()
	if sel == nil || !a.ctrl.CanZoomIn(sel) {
		return
	}
	a.navigate(func() error { return a.ctrl.ZoomIn(sel) })
}

// navigate runs a zoom or history move and refreshes the breadcrumb
func (a *App) navigate(op func() error) {
	if err := op(); err != nil {
		logging.Debug.Warn("navigation failed", "err", err)
		a.err = err
		return
	}
	a.err = nil
	a.syncHeader()
}

// openSelected reveals the selected node in the file manager
func (a *App) openSelected() {
	sel := a.treemap.Selected()
	if sel == nil {
		return
	}
	path := scanner.Path(sel)
	if path == "" {
		return
	}
	logging.Debug.Debug("revealing path", "path", path)
	if err := revealPath(path); err != nil {
		logging.Debug.Warn("reveal failed", "path", path, "err", err)
	}
}

func (a *App) syncHeader() {
	nav := a.ctrl.Navigation()
	names := make([]string, 0, len(nav.Path))
	for _, n := range nav.Path {
		names = append(names, n.Text())
	}
	a.header.SetBreadcrumb(names)
}

func (a *App) shutdown() {
	if a.cancelScan != nil {
		a.cancelScan()
	}
	a.session.Stop()
	a.treemap.Close()
}

// treemapTop is the first screen row of the treemap
func (a App) treemapTop() int {
	top := headerHeight
	if a.err != nil {
		top++
	}
	return top
}

// updateLayout calculates component sizes
func (a *App) updateLayout() {
	panelHeight := a.height - a.treemapTop() - statusHeight - helpBarHeight
	if panelHeight < 1 {
		panelHeight = 1
	}
	a.header.SetWidth(a.width)
	a.treemap.SetSize(a.width, panelHeight)
	a.help.SetSize(a.width, a.height)
}

// View implements tea.Model
func (a App) View() string {
	state := a.session.ScanState()

	if a.width == 0 || a.height == 0 {
		if state.IsScanning() {
			return "Scanning..."
		}
		return "Loading..."
	}

	if a.help.IsVisible() {
		return a.renderOverlay(a.help.View())
	}

	a.updateLayout()
	var sections []string
	sections = append(sections, a.header.View())

	if a.err != nil {
		errStyle := lipgloss.NewStyle().
			Foreground(ColorDanger).
			Padding(0, 1)
		sections = append(sections, errStyle.MaxHeight(1).Render(fmt.Sprintf("Error: %v", a.err)))
	}

	_, panelHeight := a.treemap.Size()
	switch {
	case state.Phase != core.PhaseIdle:
		sections = append(sections, a.renderScanningPanel(state, panelHeight))
	case a.ctrl.Nodes().Len() == 0:
		empty := lipgloss.NewStyle().Foreground(ColorMuted).Render("Nothing to show")
		sections = append(sections, lipgloss.Place(a.width, panelHeight, lipgloss.Center, lipgloss.Center, empty))
	default:
		sections = append(sections, a.treemap.View())
	}

	sections = append(sections, a.statusBar())
	sections = append(sections, HelpBar(a.width, a.ctrl.Navigation()))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderOverlay renders an overlay centered on screen
func (a App) renderOverlay(overlay string) string {
	return lipgloss.Place(
		a.width, a.height,
		lipgloss.Center, lipgloss.Center,
		overlay,
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(ColorBackground),
	)
}

// renderScanningPanel renders the scanning progress panel
func (a App) renderScanningPanel(state core.ScanState, panelHeight int) string {
	var logLines []string

	doneStyle := lipgloss.NewStyle().Foreground(ColorSuccess)
	activeStyle := lipgloss.NewStyle().Foreground(ColorCyan).Bold(true)

	spinnerIdx := int(time.Now().UnixMilli()/spinnerTickInterval.Milliseconds()) % len(spinnerFrames)
	spinner := spinnerFrames[spinnerIdx]

	phases := []core.ScanPhase{core.PhaseScanning}
	if a.session.Snapshots() {
		phases = append(phases, core.PhaseComparing)
	}
	phases = append(phases, core.PhaseComplete)

	for _, p := range phases {
		if p > state.Phase {
			break
		}
		if p < state.Phase || p == core.PhaseComplete {
			logLines = append(logLines, fmt.Sprintf("  %s %s", doneStyle.Render("✓"), doneStyle.Render(p.String())))
		} else {
			logLines = append(logLines, fmt.Sprintf("  %s %s", activeStyle.Render(spinner), activeStyle.Render(p.String())))
		}
	}

	if state.FilesScanned > 0 {
		labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
		fileStyle := lipgloss.NewStyle().Foreground(ColorCyan).Bold(true)
		dataStyle := lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true)
		timeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FBBF24")).Bold(true)

		logLines = append(logLines, "")
		logLines = append(logLines, fmt.Sprintf("    %s %s", labelStyle.Render("FILES"), fileStyle.Render(fmt.Sprintf("%d files", state.FilesScanned))))
		logLines = append(logLines, fmt.Sprintf("    %s  %s", labelStyle.Render("DATA"), dataStyle.Render(FormatSize(state.BytesFound))))
		logLines = append(logLines, fmt.Sprintf("    %s  %s", labelStyle.Render("TIME"), timeStyle.Render(state.Elapsed().String())))
	}

	innerContent := lipgloss.NewStyle().
		Padding(0, 3).
		Width(48).
		Render(strings.Join(logLines, "\n"))

	boxHeight := 9
	scanningBox := renderSpinningBorder(
		lipgloss.Place(48, boxHeight-2, lipgloss.Left, lipgloss.Center, innerContent),
		50, boxHeight, time.Now())

	return lipgloss.Place(a.width, panelHeight, lipgloss.Center, lipgloss.Center, scanningBox)
}

// statusBar describes the selected node
func (a App) statusBar() string {
	node := a.treemap.Selected()
	if node == nil || a.session.ScanState().Phase != core.PhaseIdle {
		return lipgloss.NewStyle().Width(a.width).Render("")
	}

	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	nameStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Bold(true)
	sep := dimStyle.Render(" │ ")

	isDir := node.Nodes().Len() > 0
	icon := "📄"
	if isDir {
		icon = "📁"
	}

	parts := []string{icon + " " + nameStyle.Render(node.Text())}
	parts = append(parts, StatsStyle.Render(FormatSize(int64(node.SizeMetric()))))
	if total := a.ctrl.Nodes().TotalWeight(); total > 0 {
		parts = append(parts, dimStyle.Render(fmt.Sprintf("%.1f%%", float64(node.SizeMetric())/total*100)))
	}
	parts = append(parts, dimStyle.Render(a.metricText(node.ColorMetric())))

	if isDir {
		parts = append(parts, dimStyle.Render(fmt.Sprintf("%d items", node.Nodes().Len())))
	} else if fileType := a.fileType(scanner.Path(node)); fileType != "" {
		parts = append(parts, dimStyle.Render(fileType))
	}

	if path := scanner.Path(node); path != "" {
		if info, err := os.Stat(path); err == nil {
			if created := FormatTime(birthTime(info)); created != "" {
				parts = append(parts, dimStyle.Render("C: "+created))
			}
			parts = append(parts, dimStyle.Render("M: "+FormatTime(info.ModTime())))
		}
	}

	return lipgloss.NewStyle().
		Padding(0, 1).
		MaxWidth(a.width).
		Render(strings.Join(parts, sep))
}

func (a App) metricText(v float32) string {
	if a.opts.DiffColors {
		return fmt.Sprintf("%+.0f%%", v)
	}
	days := int(v)
	if days == 1 {
		return "1 day old"
	}
	return fmt.Sprintf("%d days old", days)
}

// fileType detects file type using magic numbers, once per path
func (a App) fileType(path string) string {
	if path == "" {
		return ""
	}
	if t, ok := a.fileTypes[path]; ok {
		return t
	}
	var t string
	if mtype, err := mimetype.DetectFile(path); err == nil {
		t = mtype.String()
	}
	a.fileTypes[path] = t
	return t
}

// borderShades cycle around the scanning box: cyan to violet to pink and back
var borderShades = func() []string {
	stops := []colorful.Color{
		mustHex("#00FFFF"), mustHex("#C084FC"), mustHex("#FF79C6"), mustHex("#C084FC"),
	}
	const perStop = 7
	var shades []string
	for i, from := range stops {
		to := stops[(i+1)%len(stops)]
		for j := range perStop {
			shades = append(shades, from.BlendHcl(to, float64(j)/perStop).Clamped().Hex())
		}
	}
	return shades
}()

func mustHex(s string) colorful.Color {
	c, err := colorful.Hex(s)
	if err != nil {
		panic(err)
	}
	return c
}

// renderSpinningBorder draws a rounded box around content whose border
// colors rotate with t
func renderSpinningBorder(content string, width, height int, t time.Time) string {
	innerW := width - 2
	innerH := height - 2
	perimeter := 2*innerW + 2*innerH + 4

	offset := int(t.UnixMilli()/borderRotationSpeed) % perimeter

	colorAt := func(pos int) lipgloss.Style {
		adjusted := (pos - offset + perimeter) % perimeter
		idx := (adjusted * len(borderShades) / perimeter) % len(borderShades)
		return lipgloss.NewStyle().Foreground(lipgloss.Color(borderShades[idx]))
	}

	var b strings.Builder
	pos := 0

	b.WriteString(colorAt(pos).Render("╭"))
	pos++
	for range innerW {
		b.WriteString(colorAt(pos).Render("─"))
		pos++
	}
	b.WriteString(colorAt(pos).Render("╮"))
	pos++
	b.WriteString("\n")

	lines := strings.Split(content, "\n")
	for i := range innerH {
		b.WriteString(colorAt(perimeter - 1 - i).Render("│"))
		line := ""
		if i < len(lines) {
			line = lines[i]
		}
		if w := lipgloss.Width(line); w < innerW {
			line += strings.Repeat(" ", innerW-w)
		}
		b.WriteString(line)
		b.WriteString(colorAt(pos).Render("│"))
		pos++
		b.WriteString("\n")
	}

	bottomStart := pos
	b.WriteString(colorAt(perimeter - innerH - 1).Render("╰"))
	for i := range innerW {
		b.WriteString(colorAt(bottomStart + innerW - i).Render("─"))
	}
	b.WriteString(colorAt(bottomStart).Render("╯"))

	return b.String()
}
