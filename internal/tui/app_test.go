package tui

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/lead-radar/internal/config"
	"github.com/kingrea/lead-radar/internal/gateway"
	"github.com/kingrea/lead-radar/internal/lead"
)

func TestInitLoadsLeadsAndRendersTable(t *testing.T) {
	gw := newStubGateway()
	app := newTestApp(t, t.TempDir(), gw)
	app = runCommands(t, app, app.Init())

	view := app.View()
	for _, want := range []string{"LEAD RADAR", "Acme", "Beta", "LOG · console.log", "Session opened"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}
	if len(gw.lists) != 1 {
		t.Fatalf("expected one list call, got %d", len(gw.lists))
	}
}

func TestEmptyStateAfterFilterChange(t *testing.T) {
	gw := newStubGateway()
	app := newTestApp(t, t.TempDir(), gw)
	app = runCommands(t, app, app.Init())

	gw.leads = nil
	app = pressKeys(t, app, "f")
	if got := gw.lists[len(gw.lists)-1].Status; got != lead.StatusNew {
		t.Fatalf("expected status filter new, got %q", got)
	}
	if view := app.View(); !strings.Contains(view, "No leads match") || strings.Contains(view, "Acme") {
		t.Fatalf("expected empty state:\n%s", view)
	}
}

func TestFirstLoadFailureShowsError(t *testing.T) {
	gw := newStubGateway()
	gw.listErr = &gateway.RequestError{Op: "list leads", Kind: gateway.KindServer, StatusCode: 500}
	app := newTestApp(t, t.TempDir(), gw)
	app = runCommands(t, app, app.Init())

	if app.Console().Err() == nil {
		t.Fatalf("expected load error to be recorded")
	}
	view := app.View()
	if !strings.Contains(view, "Failed to fetch leads. Press r to retry.") {
		t.Fatalf("expected failure state:\n%s", view)
	}
	if strings.Contains(view, "Loading leads...") {
		t.Fatalf("failed load still rendered as loading:\n%s", view)
	}
	if app.busy() {
		t.Fatalf("spinner should stop after failed load")
	}

	gw.listErr = nil
	app = pressKeys(t, app, "r")
	if view := app.View(); !strings.Contains(view, "Acme") {
		t.Fatalf("expected leads after retry:\n%s", view)
	}
}

func TestStatusKeyPatchesCurrentLead(t *testing.T) {
	gw := newStubGateway()
	app := newTestApp(t, t.TempDir(), gw)
	app = runCommands(t, app, app.Init())

	app = pressKeys(t, app, "s")
	l, _ := app.Console().Lead("L1")
	if l.Status != lead.StatusContacted {
		t.Fatalf("expected L1 contacted, got %s", l.Status)
	}
	if len(gw.patches) != 1 || gw.patches[0] != "L1" {
		t.Fatalf("unexpected patches %v", gw.patches)
	}
}

func TestBatchFromSelection(t *testing.T) {
	gw := newStubGateway()
	app := newTestApp(t, t.TempDir(), gw)
	app = runCommands(t, app, app.Init())

	app = pressKeys(t, app, " ", " ")
	if n := app.Console().Selection().Len(); n != 2 {
		t.Fatalf("expected two selected, got %d", n)
	}
	app = pressKeys(t, app, "X")
	if len(gw.batches) != 1 || strings.Join(gw.batches[0], ",") != "L1,L2" {
		t.Fatalf("unexpected batches %v", gw.batches)
	}
	if app.Console().Selection().Len() != 0 {
		t.Fatalf("selection should clear after batch reload")
	}
	if len(gw.lists) != 2 {
		t.Fatalf("expected reload after batch, got %d list calls", len(gw.lists))
	}
}

func TestExpandRendersEnrichment(t *testing.T) {
	gw := newStubGateway()
	app := newTestApp(t, t.TempDir(), gw)
	app = runCommands(t, app, app.Init())

	app = pressKeys(t, app, "enter")
	view := app.View()
	for _, want := range []string{"SCORE", "traction +40", "hello@acme.io", "DUPLICATES"} {
		if !strings.Contains(view, want) {
			t.Fatalf("details missing %q:\n%s", want, view)
		}
	}
}

func TestDraftAndCopy(t *testing.T) {
	gw := newStubGateway()
	var copied string
	app := newTestApp(t, t.TempDir(), gw, WithClipboard(func(s string) error {
		copied = s
		return nil
	}))
	app = runCommands(t, app, app.Init())

	app = pressKeys(t, app, "D", "y")
	if !strings.Contains(copied, "Subject: Hello Acme") || !strings.Contains(copied, "draft body") {
		t.Fatalf("unexpected clipboard contents %q", copied)
	}
	if app.statusMsg != "Draft copied to clipboard" {
		t.Fatalf("unexpected status %q", app.statusMsg)
	}
}

func TestChannelCyclePersistsDefault(t *testing.T) {
	projectDir := t.TempDir()
	if err := config.InitRadarDir(projectDir); err != nil {
		t.Fatalf("init radar dir: %v", err)
	}
	gw := newStubGateway()
	app := newTestApp(t, projectDir, gw)
	app = runCommands(t, app, app.Init())

	app = pressKeys(t, app, "w", "D")
	if gw.channels[0] != lead.ChannelTwitter {
		t.Fatalf("expected twitter draft, got %v", gw.channels)
	}
	cfg, err := config.NewConfig(projectDir)
	if err != nil {
		t.Fatalf("reload config: %v", err)
	}
	if cfg.DefaultChannel() != lead.ChannelTwitter {
		t.Fatalf("expected persisted twitter channel, got %s", cfg.DefaultChannel())
	}
}

func TestNotesEditorSavesOnEnter(t *testing.T) {
	gw := newStubGateway()
	app := newTestApp(t, t.TempDir(), gw)
	app = runCommands(t, app, app.Init())

	app = pressKeys(t, app, "j", "n", "ping", "enter")
	l, _ := app.Console().Lead("L2")
	if l.NotesText() != "ping" {
		t.Fatalf("expected notes saved locally, got %q", l.NotesText())
	}
	if len(gw.patches) != 1 || gw.patches[0] != "L2" {
		t.Fatalf("unexpected patches %v", gw.patches)
	}
	if app.mode != modeBrowse {
		t.Fatalf("expected browse mode after save")
	}
}

func TestExportWritesDefaultFile(t *testing.T) {
	projectDir := t.TempDir()
	gw := newStubGateway()
	app := newTestApp(t, projectDir, gw)
	app = runCommands(t, app, app.Init())

	app = pressKeys(t, app, "e")
	path := filepath.Join(projectDir, config.RadarDir, "exports", "leads_export.csv")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if !strings.HasPrefix(string(data), "Product,Source,Score,Status,Tagline,Website,Date\nAcme,") {
		t.Fatalf("unexpected export %q", data)
	}
	if !strings.Contains(app.statusMsg, "Exported 2 leads") {
		t.Fatalf("unexpected status %q", app.statusMsg)
	}
}

func newTestApp(t *testing.T, projectDir string, gw gateway.Gateway, opts ...AppOption) *App {
	t.Helper()
	t.Setenv("LEADRADAR_BASE_URL", "")
	t.Setenv("LEADRADAR_TIMEOUT", "")
	t.Setenv("LEADRADAR_REVERT_ON_FAILURE", "")
	baseOpts := []AppOption{WithGateway(gw), WithClipboard(func(string) error { return nil })}
	app, err := NewApp(projectDir, append(baseOpts, opts...)...)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	app.Update(tea.WindowSizeMsg{Width: 140, Height: 60})
	return app
}

// runCommands executes cmd and every follow-up synchronously. Spinner ticks
// are dropped so animation never keeps the loop alive.
func runCommands(t *testing.T, model tea.Model, cmd tea.Cmd) *App {
	t.Helper()
	app, ok := model.(*App)
	if !ok {
		t.Fatalf("unexpected model type: %T", model)
	}
	if cmd == nil {
		return app
	}
	msg := cmd()
	switch msg := msg.(type) {
	case nil, spinner.TickMsg:
		return app
	case tea.BatchMsg:
		for _, sub := range msg {
			app = runCommands(t, app, sub)
		}
		return app
	}
	nextModel, nextCmd := app.Update(msg)
	return runCommands(t, nextModel, nextCmd)
}

func pressKeys(t *testing.T, app *App, keys ...string) *App {
	t.Helper()
	for _, k := range keys {
		model, cmd := app.Update(keyMsg(k))
		app = runCommands(t, model, cmd)
	}
	return app
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

// stubGateway serves two fixed leads and records mutations.
type stubGateway struct {
	mu       sync.Mutex
	leads    []lead.Lead
	lists    []lead.Criteria
	patches  []string
	batches  [][]string
	channels []lead.Channel
	listErr  error
}

func newStubGateway() *stubGateway {
	return &stubGateway{leads: []lead.Lead{
		{ID: "L1", ProductName: "Acme", Source: lead.SourceProductHunt, Score: 82, Status: lead.StatusNew, Tagline: "Ship faster", Website: "https://acme.io", LaunchDate: "2024-03-01T10:00:00Z"},
		{ID: "L2", ProductName: "Beta", Source: lead.SourceGitHub, Score: 45, Status: lead.StatusContacted, Tagline: "Open source CRM", LaunchDate: "2024-02-01T10:00:00Z"},
	}}
}

func (s *stubGateway) ListLeads(_ context.Context, criteria lead.Criteria) ([]lead.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists = append(s.lists, criteria)
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]lead.Lead, len(s.leads))
	copy(out, s.leads)
	return out, nil
}

func (s *stubGateway) PatchLead(_ context.Context, id string, _ gateway.LeadPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.patches = append(s.patches, id)
	return nil
}

func (s *stubGateway) BatchPatch(_ context.Context, ids []string, _ lead.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches = append(s.batches, ids)
	return nil
}

func (s *stubGateway) TriggerSync(context.Context, lead.Source) error { return nil }

func (s *stubGateway) Analyze(_ context.Context, id string) (lead.Analysis, error) {
	return lead.Analysis{Summary: "analysis of " + id, Confidence: "medium"}, nil
}

func (s *stubGateway) GenerateOutreach(_ context.Context, id string, channel lead.Channel, _ *lead.OutreachContext) (lead.Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channels = append(s.channels, channel)
	return lead.Draft{Subject: "Hello Acme", Body: "draft body", Channel: channel}, nil
}

func (s *stubGateway) Prioritize(_ context.Context, ids []string) ([]lead.Priority, error) {
	return nil, nil
}

func (s *stubGateway) ScoreBreakdown(context.Context, string) (lead.ScoreBreakdown, error) {
	return lead.ScoreBreakdown{Total: 82, Factors: []lead.ScoreFactor{{Name: "traction", Points: 40}}}, nil
}

func (s *stubGateway) Duplicates(context.Context, string) (lead.DuplicateInfo, error) {
	return lead.DuplicateInfo{}, nil
}

func (s *stubGateway) PossibleEmails(context.Context, string) ([]string, error) {
	return []string{"hello@acme.io"}, nil
}
