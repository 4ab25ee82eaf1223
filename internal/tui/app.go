// internal/tui/app.go
//
// This is the interactive lead console. It uses bubbletea, which follows
// The Elm Architecture:
//
// 1. Model: the App, wrapping the console orchestrator
// 2. Update: keys become console intents; console results come back as msgs
// 3. View: renders the lead table, details, AI output and the log tail
//
// Every backend call runs as a tea.Cmd, so the console is only ever touched
// from Update.

package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/lead-radar/internal/config"
	"github.com/kingrea/lead-radar/internal/console"
	"github.com/kingrea/lead-radar/internal/export"
	"github.com/kingrea/lead-radar/internal/gateway"
	"github.com/kingrea/lead-radar/internal/lead"
	"github.com/kingrea/lead-radar/internal/logbook"
)

type appMode int

const (
	modeBrowse appMode = iota
	modeNotes
)

var channelOrder = []lead.Channel{lead.ChannelEmail, lead.ChannelTwitter, lead.ChannelLinkedIn}

// AppOption customizes App construction.
type AppOption func(*App)

// WithGateway replaces the HTTP gateway, mainly for tests.
func WithGateway(gw gateway.Gateway) AppOption {
	return func(a *App) {
		if gw != nil {
			a.gateway = gw
		}
	}
}

// WithBaseURL points this session at a different backend.
func WithBaseURL(raw string) AppOption {
	return func(a *App) {
		a.baseURL = strings.TrimSpace(raw)
	}
}

// WithClipboard overrides the clipboard writer.
func WithClipboard(write func(string) error) AppOption {
	return func(a *App) {
		if write != nil {
			a.copy = write
		}
	}
}

type exportDoneMsg struct {
	path  string
	count int
	err   error
}

type copyDoneMsg struct {
	err error
}

// App is the main application model.
type App struct {
	config  *config.Config
	logbook *logbook.Logbook
	gateway gateway.Gateway
	console *console.Console

	baseURL      string
	gatewayLabel string
	copy         func(string) error

	mode    appMode
	keys    keyMap
	help    help.Model
	spinner spinner.Model
	notes   textinput.Model
	editing string

	cursor int
	offset int
	sort   console.SortKey
	spin   bool

	statusMsg string

	width  int
	height int
}

// NewApp creates a new App for the .leadradar directory under projectDir.
func NewApp(projectDir string, opts ...AppOption) (*App, error) {
	cfg, err := config.NewConfig(projectDir)
	if err != nil {
		return nil, err
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF"))

	notes := textinput.New()
	notes.Placeholder = "Notes for this lead"
	notes.CharLimit = 2000

	app := &App{
		config:  cfg,
		copy:    clipboard.WriteAll,
		keys:    defaultKeyMap(),
		help:    help.New(),
		spinner: sp,
		notes:   notes,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(app)
		}
	}
	if err := cfg.OverrideBaseURL(app.baseURL); err != nil {
		return nil, err
	}
	if app.gateway == nil {
		app.gateway = gateway.NewFromConfig(cfg)
	}
	app.gatewayLabel = cfg.BaseURL()

	lb, err := logbook.New(cfg.LogPath())
	consoleOpts := []console.Option{
		console.WithRevertOnFailure(cfg.RevertOnFailure()),
		console.WithHighScoreThreshold(cfg.HighScoreThreshold()),
		console.WithOutreach(cfg.DefaultChannel(), cfg.OutreachContext()),
	}
	if err == nil {
		app.logbook = lb
		consoleOpts = append(consoleOpts, console.WithLogger(lb))
		lb.Info("Session opened · backend %s", cfg.BaseURL())
	}
	app.console = console.New(app.gateway, consoleOpts...)
	return app, nil
}

// Console exposes the orchestrator, for embedding and tests.
func (a *App) Console() *console.Console { return a.console }

func (a *App) logInfo(format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Info(format, args...)
}

func (a *App) logWarn(format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Warn(format, args...)
}

func (a *App) logError(format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Error(format, args...)
}

// Init is called once when the program starts.
func (a *App) Init() tea.Cmd {
	return a.withSpinner(a.console.Load())
}

// Update is called when a message is received.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		a.notes.Width = max(20, msg.Width-10)
		return a, nil

	case spinner.TickMsg:
		if !a.busy() {
			a.spin = false
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case exportDoneMsg:
		if msg.err != nil {
			a.statusMsg = "Export failed"
			a.logError("Export failed: %v", msg.err)
		} else {
			a.statusMsg = fmt.Sprintf("Exported %d leads to %s", msg.count, msg.path)
			a.logInfo("Exported %d leads to %s", msg.count, msg.path)
		}
		return a, nil

	case copyDoneMsg:
		if msg.err != nil {
			a.statusMsg = "Clipboard unavailable"
			a.logWarn("Copy draft failed: %v", msg.err)
		} else {
			a.statusMsg = "Draft copied to clipboard"
		}
		return a, nil

	case tea.KeyMsg:
		if a.mode == modeNotes {
			return a.updateNotes(msg)
		}
		return a.handleKey(msg)
	}

	cmd := a.console.Update(msg)
	a.statusMsg = ""
	a.clampCursor()
	return a, a.withSpinner(cmd)
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := a.keys
	current, hasCurrent := a.current()
	var cmd tea.Cmd
	a.statusMsg = ""

	switch {
	case key.Matches(msg, k.Quit):
		a.logInfo("Session closed")
		return a, tea.Quit
	case key.Matches(msg, k.Help):
		a.help.ShowAll = !a.help.ShowAll
	case key.Matches(msg, k.Up):
		if a.cursor > 0 {
			a.cursor--
		}
	case key.Matches(msg, k.Down):
		if a.cursor < len(a.rows())-1 {
			a.cursor++
		}
	case key.Matches(msg, k.Expand):
		if hasCurrent {
			cmd = a.console.ToggleExpand(current.ID)
		}
	case key.Matches(msg, k.Select):
		if hasCurrent {
			a.console.ToggleSelect(current.ID)
			if a.cursor < len(a.rows())-1 {
				a.cursor++
			}
		}
	case key.Matches(msg, k.SelectAll):
		a.console.ToggleSelectAll()
	case key.Matches(msg, k.CycleStatus):
		if hasCurrent {
			cmd = a.console.UpdateStatus(current.ID, current.Status.Next())
		}
	case key.Matches(msg, k.EditNotes):
		if hasCurrent {
			a.mode = modeNotes
			a.editing = current.ID
			a.notes.SetValue(current.NotesText())
			a.notes.CursorEnd()
			a.notes.Focus()
		}
	case key.Matches(msg, k.BatchNew):
		cmd = a.batch(lead.StatusNew)
	case key.Matches(msg, k.BatchContacted):
		cmd = a.batch(lead.StatusContacted)
	case key.Matches(msg, k.BatchReplied):
		cmd = a.batch(lead.StatusReplied)
	case key.Matches(msg, k.BatchRejected):
		cmd = a.batch(lead.StatusRejected)
	case key.Matches(msg, k.FilterStatus):
		cmd = a.console.SetStatusFilter(nextStatusFilter(a.console.Criteria().Status))
	case key.Matches(msg, k.FilterSource):
		cmd = a.console.SetSourceFilter(nextSourceFilter(a.console.Criteria().Source))
	case key.Matches(msg, k.HighScore):
		cmd = a.console.ToggleHighScore()
	case key.Matches(msg, k.Sort):
		a.sort = a.sort.Next()
		a.statusMsg = "Sorted by " + a.sort.String()
	case key.Matches(msg, k.Reload):
		cmd = a.console.Load()
	case key.Matches(msg, k.Sync):
		cmd = a.console.Sync(a.console.Criteria().Source)
	case key.Matches(msg, k.Analyze):
		if hasCurrent {
			cmd = a.console.StartAnalysis(current.ID)
			if a.console.Expanded() != current.ID {
				cmd = tea.Batch(cmd, a.console.ToggleExpand(current.ID))
			}
		}
	case key.Matches(msg, k.Draft):
		if hasCurrent {
			cmd = a.console.StartDraft(current.ID, "")
			if a.console.Expanded() != current.ID {
				cmd = tea.Batch(cmd, a.console.ToggleExpand(current.ID))
			}
		}
	case key.Matches(msg, k.Channel):
		a.cycleChannel()
	case key.Matches(msg, k.CopyDraft):
		cmd = a.copyDraft()
	case key.Matches(msg, k.Prioritize):
		cmd = a.console.Prioritize()
	case key.Matches(msg, k.Export):
		cmd = a.exportCSV()
	}
	a.clampCursor()
	return a, a.withSpinner(cmd)
}

func (a *App) updateNotes(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		a.mode = modeBrowse
		a.editing = ""
		a.notes.Blur()
		return a, nil
	case tea.KeyEnter:
		id := a.editing
		value := strings.TrimSpace(a.notes.Value())
		a.mode = modeBrowse
		a.editing = ""
		a.notes.Blur()
		return a, a.console.UpdateNotes(id, value)
	}
	var cmd tea.Cmd
	a.notes, cmd = a.notes.Update(msg)
	return a, cmd
}

func (a *App) batch(status lead.Status) tea.Cmd {
	if a.console.Selection().Len() == 0 {
		a.statusMsg = "Select leads first (space)"
		return nil
	}
	return a.console.BatchAction(status)
}

func (a *App) cycleChannel() {
	current := a.console.Channel()
	next := channelOrder[0]
	for i, ch := range channelOrder {
		if ch == current {
			next = channelOrder[(i+1)%len(channelOrder)]
			break
		}
	}
	a.console.SetChannel(next)
	a.statusMsg = "Draft channel: " + string(next)
	if err := a.config.SetDefaultChannel(next); err != nil {
		a.logWarn("Could not persist default channel: %v", err)
	}
}

func (a *App) copyDraft() tea.Cmd {
	current, ok := a.current()
	if !ok {
		return nil
	}
	draft := a.console.AI().DraftFor(current.ID)
	if draft == nil {
		a.statusMsg = "No draft for this lead (D to generate)"
		return nil
	}
	text := draft.Body
	if draft.Subject != "" {
		text = "Subject: " + draft.Subject + "\n\n" + draft.Body
	}
	write := a.copy
	return func() tea.Msg {
		return copyDoneMsg{err: write(text)}
	}
}

func (a *App) exportCSV() tea.Cmd {
	leads := a.console.Visible()
	path := filepath.Join(a.config.ExportsDir(), export.DefaultFileName)
	return func() tea.Msg {
		written, err := export.WriteFile(path, leads)
		return exportDoneMsg{path: written, count: len(leads), err: err}
	}
}

func (a *App) withSpinner(cmd tea.Cmd) tea.Cmd {
	if cmd == nil {
		return nil
	}
	if a.spin || !a.busy() {
		return cmd
	}
	a.spin = true
	return tea.Batch(cmd, a.spinner.Tick)
}

func (a *App) busy() bool {
	state := a.console.State()
	return state == console.StateLoading || state == console.StateSyncing || a.aiBusy()
}

// rows returns the leads in display order.
func (a *App) rows() []lead.Lead {
	return a.console.Sorted(a.sort)
}

func (a *App) current() (lead.Lead, bool) {
	rows := a.rows()
	if a.cursor < 0 || a.cursor >= len(rows) {
		return lead.Lead{}, false
	}
	return rows[a.cursor], true
}

func (a *App) clampCursor() {
	n := len(a.rows())
	if a.cursor >= n {
		a.cursor = n - 1
	}
	if a.cursor < 0 {
		a.cursor = 0
	}
}

// window returns the slice of rows that fits the terminal, keeping the
// cursor visible.
func (a *App) window(n int) (int, int) {
	size := n
	if a.height > 0 {
		size = max(5, a.height-22)
	}
	if size >= n {
		a.offset = 0
		return 0, n
	}
	if a.cursor < a.offset {
		a.offset = a.cursor
	}
	if a.cursor >= a.offset+size {
		a.offset = a.cursor - size + 1
	}
	a.offset = min(a.offset, n-size)
	return a.offset, a.offset + size
}

func nextStatusFilter(current lead.Status) lead.Status {
	if current == "" {
		return lead.Statuses[0]
	}
	for i, s := range lead.Statuses {
		if s == current && i+1 < len(lead.Statuses) {
			return lead.Statuses[i+1]
		}
	}
	return ""
}

func nextSourceFilter(current lead.Source) lead.Source {
	if current == "" || current == lead.SourceAll {
		return lead.Sources[0]
	}
	for i, s := range lead.Sources {
		if s == current && i+1 < len(lead.Sources) {
			return lead.Sources[i+1]
		}
	}
	return lead.SourceAll
}
