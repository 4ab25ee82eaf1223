// Package console is the lead console orchestration layer. It owns the lead
// collection and every piece of state reconciled against it, and turns
// operator intents into gateway calls.
//
// All methods run on the bubbletea update loop. Network calls are returned as
// tea.Cmds and their results come back through Update, so state is never
// touched from two goroutines.
package console

import (
	"context"
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/lead-radar/internal/export"
	"github.com/kingrea/lead-radar/internal/gateway"
	"github.com/kingrea/lead-radar/internal/lead"
	"github.com/kingrea/lead-radar/internal/stats"
)

// LoadState is the collection-level state.
type LoadState int

const (
	StateIdle LoadState = iota
	StateLoading
	StateLoaded
	StateSyncing
)

func (s LoadState) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateSyncing:
		return "syncing"
	}
	return "idle"
}

// Logger receives failures and notable events.
type Logger interface {
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// Option customizes console construction.
type Option func(*Console)

// WithLogger routes console events to l.
func WithLogger(l Logger) Option {
	return func(c *Console) {
		if l != nil {
			c.log = l
		}
	}
}

// WithContext sets the context passed to every gateway call.
func WithContext(ctx context.Context) Option {
	return func(c *Console) {
		if ctx != nil {
			c.ctx = ctx
		}
	}
}

// WithRevertOnFailure restores the previous value when an optimistic patch
// fails. Off by default: a failed patch leaves the local value as set.
func WithRevertOnFailure(revert bool) Option {
	return func(c *Console) {
		c.revertOnFailure = revert
	}
}

// WithHighScoreThreshold sets the min score used by ToggleHighScore.
func WithHighScoreThreshold(score int) Option {
	return func(c *Console) {
		if score >= 0 && score <= 100 {
			c.highScore = score
		}
	}
}

// WithOutreach sets the channel and context used for drafts.
func WithOutreach(channel lead.Channel, oc lead.OutreachContext) Option {
	return func(c *Console) {
		if channel != "" {
			c.channel = channel
		}
		c.outreach = oc
	}
}

// WithCriteria sets the criteria used by the first Load.
func WithCriteria(criteria lead.Criteria) Option {
	return func(c *Console) {
		c.criteria = criteria.Canonical()
	}
}

// Console is the root orchestrator.
type Console struct {
	gw  gateway.Gateway
	ctx context.Context
	log Logger

	revertOnFailure bool
	highScore       int
	channel         lead.Channel
	outreach        lead.OutreachContext

	leads     *Collection
	criteria  lead.Criteria
	selection *Selection
	expanded  string
	details   *DetailLoader
	ai        AITask

	loadGen uint64
	loading bool
	loaded  bool
	lastErr error

	syncing  lead.Source
	syncGen  uint64
	batchGen uint64

	ranking []lead.Priority
	notice  string
}

// New builds a console over gw. Nothing is fetched until Load.
func New(gw gateway.Gateway, opts ...Option) *Console {
	c := &Console{
		gw:        gw,
		ctx:       context.Background(),
		log:       nopLogger{},
		highScore: 70,
		channel:   lead.ChannelEmail,
		leads:     NewCollection(),
		criteria:  lead.AllCriteria(),
		selection: NewSelection(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	c.details = NewDetailLoader(c.ctx, gw)
	return c
}

// State returns the collection-level state.
func (c *Console) State() LoadState {
	switch {
	case c.syncing != "":
		return StateSyncing
	case c.loading:
		return StateLoading
	case c.loaded:
		return StateLoaded
	}
	return StateIdle
}

// Syncing returns the source being synced, or "" when idle.
func (c *Console) Syncing() lead.Source { return c.syncing }

// Err returns the error of the last settled Load, if it failed.
func (c *Console) Err() error { return c.lastErr }

// Notice returns the latest one-line status message.
func (c *Console) Notice() string { return c.notice }

// Criteria returns the active filter.
func (c *Console) Criteria() lead.Criteria { return c.criteria }

// Selection exposes the selected ids.
func (c *Console) Selection() *Selection { return c.selection }

// Expanded returns the expanded lead id, or "".
func (c *Console) Expanded() string { return c.expanded }

// AI returns the AI slot.
func (c *Console) AI() AITask { return c.ai }

// Details returns the enrichment cache of id.
func (c *Console) Details(id string) RowDetails { return c.details.Row(id) }

// Ranking returns the last AI prioritization.
func (c *Console) Ranking() []lead.Priority { return c.ranking }

// Channel returns the channel used for drafts.
func (c *Console) Channel() lead.Channel { return c.channel }

// SetChannel changes the channel used for drafts.
func (c *Console) SetChannel(ch lead.Channel) { c.channel = ch }

// HighScoreThreshold returns the min score applied by ToggleHighScore.
func (c *Console) HighScoreThreshold() int { return c.highScore }

// Visible returns the leads of the last successful Load in server order.
func (c *Console) Visible() []lead.Lead { return c.leads.All() }

// Sorted returns the visible leads in presentation order.
func (c *Console) Sorted(key SortKey) []lead.Lead { return c.leads.Sorted(key) }

// Lead looks up one lead of the collection.
func (c *Console) Lead(id string) (lead.Lead, bool) { return c.leads.Get(id) }

// Stats summarises the visible leads.
func (c *Console) Stats() stats.Summary { return stats.Compute(c.leads.All()) }

// ExportCSV writes the visible leads as CSV.
func (c *Console) ExportCSV(w io.Writer) error {
	return export.WriteCSV(w, c.leads.All())
}

// Load fetches the collection for the current criteria. Only the response of
// the most recently issued Load is applied.
func (c *Console) Load() tea.Cmd {
	c.loadGen++
	gen := c.loadGen
	c.loading = true
	criteria := c.criteria
	gw, ctx := c.gw, c.ctx
	return func() tea.Msg {
		leads, err := gw.ListLeads(ctx, criteria)
		return LeadsLoadedMsg{Gen: gen, Criteria: criteria, Leads: leads, Err: err}
	}
}

// SetCriteria replaces the filter and reloads when it changed.
func (c *Console) SetCriteria(criteria lead.Criteria) tea.Cmd {
	criteria = criteria.Canonical()
	if criteria.Equal(c.criteria) {
		return nil
	}
	if err := criteria.Validate(); err != nil {
		c.notice = err.Error()
		c.log.Warn("Rejected filter %s: %v", criteria, err)
		return nil
	}
	c.criteria = criteria
	return c.Load()
}

// SetStatusFilter filters on status; "" or "all" clears it.
func (c *Console) SetStatusFilter(status lead.Status) tea.Cmd {
	return c.SetCriteria(c.criteria.WithStatus(status))
}

// SetSourceFilter filters on source.
func (c *Console) SetSourceFilter(source lead.Source) tea.Cmd {
	return c.SetCriteria(c.criteria.WithSource(source))
}

// SetMinScore filters on a minimum score; nil clears it.
func (c *Console) SetMinScore(score *int) tea.Cmd {
	return c.SetCriteria(c.criteria.WithMinScore(score))
}

// ToggleHighScore switches the min score between the threshold and unset.
func (c *Console) ToggleHighScore() tea.Cmd {
	if c.criteria.MinScore != nil {
		return c.SetMinScore(nil)
	}
	threshold := c.highScore
	return c.SetMinScore(&threshold)
}

// UpdateStatus rewrites the local status immediately and patches the backend
// in the background.
func (c *Console) UpdateStatus(id string, status lead.Status) tea.Cmd {
	status, err := lead.ParseStatus(string(status))
	if err != nil {
		c.notice = err.Error()
		return nil
	}
	prev, _ := c.leads.Get(id)
	c.leads.Update(id, func(l *lead.Lead) { l.Status = status })
	applied, _ := c.leads.Get(id)
	return c.patch(id, FieldStatus, prev, applied, gateway.LeadPatch{Status: &status})
}

// UpdateNotes rewrites the local notes immediately and patches the backend
// in the background.
func (c *Console) UpdateNotes(id string, notes string) tea.Cmd {
	prev, _ := c.leads.Get(id)
	c.leads.Update(id, func(l *lead.Lead) {
		v := notes
		l.Notes = &v
	})
	applied, _ := c.leads.Get(id)
	return c.patch(id, FieldNotes, prev, applied, gateway.LeadPatch{Notes: &notes})
}

func (c *Console) patch(id string, field PatchField, prev, applied lead.Lead, body gateway.LeadPatch) tea.Cmd {
	gw, ctx := c.gw, c.ctx
	return func() tea.Msg {
		err := gw.PatchLead(ctx, id, body)
		return PatchDoneMsg{LeadID: id, Field: field, Prev: prev, Applied: applied, Err: err}
	}
}

// Sync triggers a backend sync for source and reloads afterwards whatever
// the outcome. A sync issued while another is active is ignored.
func (c *Console) Sync(source lead.Source) tea.Cmd {
	if c.syncing != "" {
		c.notice = fmt.Sprintf("Already syncing %s", c.syncing.Title())
		return nil
	}
	source, err := lead.ParseSource(string(source))
	if err != nil {
		c.notice = err.Error()
		return nil
	}
	c.syncing = source
	c.syncGen = 0
	c.notice = fmt.Sprintf("Syncing %s…", source.Title())
	c.log.Info("Sync %s started", source)
	gw, ctx := c.gw, c.ctx
	return func() tea.Msg {
		return SyncDoneMsg{Source: source, Err: gw.TriggerSync(ctx, source)}
	}
}

// BatchAction sets status on every selected lead, reloads, then clears the
// selection. The collection is not touched before the reload.
func (c *Console) BatchAction(status lead.Status) tea.Cmd {
	status, err := lead.ParseStatus(string(status))
	if err != nil {
		c.notice = err.Error()
		return nil
	}
	ids := c.selection.IDs()
	if len(ids) == 0 {
		return nil
	}
	gw, ctx := c.gw, c.ctx
	return func() tea.Msg {
		return BatchDoneMsg{IDs: ids, Status: status, Err: gw.BatchPatch(ctx, ids, status)}
	}
}

// ToggleSelect flips the selection of id.
func (c *Console) ToggleSelect(id string) {
	c.selection.Toggle(id)
}

// ToggleSelectAll switches between no selection and every visible lead.
func (c *Console) ToggleSelectAll() {
	c.selection.ToggleAll(c.leads.IDs())
}

// ClearSelection empties the selection.
func (c *Console) ClearSelection() {
	c.selection.Clear()
}

// ToggleExpand expands id, collapsing any other row, or collapses id if it
// is already expanded. Expanding starts the row's enrichment fetches the
// first time only.
func (c *Console) ToggleExpand(id string) tea.Cmd {
	if c.expanded == id {
		c.expanded = ""
		return nil
	}
	c.expanded = id
	if id == "" {
		return nil
	}
	return c.details.Request(id)
}

// StartAnalysis binds the AI slot to (id, analyze) and requests an analysis.
func (c *Console) StartAnalysis(id string) tea.Cmd {
	c.ai.start(id, AIAnalyze, "")
	gw, ctx := c.gw, c.ctx
	return func() tea.Msg {
		analysis, err := gw.Analyze(ctx, id)
		return AIResultMsg{LeadID: id, Kind: AIAnalyze, Analysis: analysis, Err: err}
	}
}

// StartDraft binds the AI slot to (id, draft) and requests an outreach draft
// on channel, or the console's channel when empty.
func (c *Console) StartDraft(id string, channel lead.Channel) tea.Cmd {
	if channel == "" {
		channel = c.channel
	}
	c.ai.start(id, AIDraft, channel)
	var oc *lead.OutreachContext
	if !c.outreach.IsZero() {
		v := c.outreach
		oc = &v
	}
	gw, ctx := c.gw, c.ctx
	return func() tea.Msg {
		draft, err := gw.GenerateOutreach(ctx, id, channel, oc)
		return AIResultMsg{LeadID: id, Kind: AIDraft, Draft: draft, Err: err}
	}
}

// Prioritize asks the AI backend to rank the selected leads.
func (c *Console) Prioritize() tea.Cmd {
	ids := c.selection.IDs()
	if len(ids) == 0 {
		c.notice = "Select leads to prioritize"
		return nil
	}
	c.notice = fmt.Sprintf("Prioritizing %d leads…", len(ids))
	gw, ctx := c.gw, c.ctx
	return func() tea.Msg {
		ranking, err := gw.Prioritize(ctx, ids)
		return PrioritizedMsg{IDs: ids, Ranking: ranking, Err: err}
	}
}

// Update folds a result message into the console and returns any follow-up
// command. Messages the console does not own return nil.
func (c *Console) Update(msg tea.Msg) tea.Cmd {
	switch m := msg.(type) {
	case LeadsLoadedMsg:
		c.handleLoaded(m)
	case PatchDoneMsg:
		c.handlePatched(m)
	case SyncDoneMsg:
		return c.handleSynced(m)
	case BatchDoneMsg:
		return c.handleBatch(m)
	case DetailLoadedMsg:
		if m.Err != nil {
			c.log.Warn("Detail %s for %s unavailable: %v", m.Kind, m.LeadID, m.Err)
		}
		c.details.apply(m)
	case AIResultMsg:
		c.handleAI(m)
	case PrioritizedMsg:
		c.handlePrioritized(m)
	}
	return nil
}

func (c *Console) handleLoaded(m LeadsLoadedMsg) {
	if m.Gen != c.loadGen {
		c.log.Info("Discarded superseded load #%d (%s); latest is #%d", m.Gen, m.Criteria, c.loadGen)
		return
	}
	c.loading = false
	if m.Err != nil {
		c.lastErr = m.Err
		c.notice = "Failed to fetch leads"
		c.log.Error("Failed to fetch leads (%s): %v", m.Criteria, m.Err)
	} else {
		c.lastErr = nil
		c.loaded = true
		if repeated := c.leads.Replace(m.Leads); len(repeated) > 0 {
			c.log.Warn("Backend returned repeated lead ids %s (%s); kept first position", strings.Join(repeated, ","), m.Criteria)
		}
		c.notice = fmt.Sprintf("Showing %d leads", c.leads.Len())
	}
	if c.syncing != "" && c.syncGen != 0 && m.Gen >= c.syncGen {
		c.log.Info("Sync %s settled", c.syncing)
		c.syncing = ""
		c.syncGen = 0
	}
	if c.batchGen != 0 && m.Gen >= c.batchGen {
		c.selection.Clear()
		c.batchGen = 0
	}
}

func (c *Console) handlePatched(m PatchDoneMsg) {
	if m.Err == nil {
		return
	}
	c.notice = fmt.Sprintf("Update of %s failed", m.Field)
	c.log.Error("Update %s of %s failed: %v", m.Field, m.LeadID, m.Err)
	if !c.revertOnFailure {
		return
	}
	reverted := c.leads.Update(m.LeadID, func(l *lead.Lead) {
		switch m.Field {
		case FieldStatus:
			if l.Status == m.Applied.Status {
				l.Status = m.Prev.Status
			}
		case FieldNotes:
			if l.NotesText() == m.Applied.NotesText() {
				l.Notes = m.Prev.Notes
			}
		}
	})
	if reverted {
		c.log.Warn("Reverted %s of %s", m.Field, m.LeadID)
	}
}

func (c *Console) handleSynced(m SyncDoneMsg) tea.Cmd {
	if m.Err != nil {
		c.log.Error("Sync %s failed: %v", m.Source, m.Err)
		c.notice = fmt.Sprintf("Sync %s failed", m.Source.Title())
	} else {
		c.log.Info("Sync %s accepted", m.Source)
	}
	cmd := c.Load()
	c.syncGen = c.loadGen
	return cmd
}

func (c *Console) handleBatch(m BatchDoneMsg) tea.Cmd {
	if m.Err != nil {
		c.notice = "Batch update failed"
		c.log.Error("Batch update of %d leads to %s failed: %v", len(m.IDs), m.Status, m.Err)
		return nil
	}
	c.log.Info("Batch updated %d leads to %s", len(m.IDs), m.Status)
	cmd := c.Load()
	c.batchGen = c.loadGen
	return cmd
}

func (c *Console) handleAI(m AIResultMsg) {
	if m.Err != nil {
		if c.ai.fail(m.LeadID, m.Kind) {
			c.notice = fmt.Sprintf("AI %s failed", m.Kind)
		}
		c.log.Error("AI %s for %s failed: %v", m.Kind, m.LeadID, m.Err)
		return
	}
	var applied bool
	switch m.Kind {
	case AIAnalyze:
		analysis := m.Analysis
		applied = c.ai.complete(m.LeadID, m.Kind, &analysis, nil)
	case AIDraft:
		draft := m.Draft
		applied = c.ai.complete(m.LeadID, m.Kind, nil, &draft)
	}
	if !applied {
		c.log.Info("Dropped stale AI %s result for %s", m.Kind, m.LeadID)
	}
}

func (c *Console) handlePrioritized(m PrioritizedMsg) {
	if m.Err != nil {
		c.notice = "Prioritization failed"
		c.log.Error("Prioritize %d leads failed: %v", len(m.IDs), m.Err)
		return
	}
	c.ranking = m.Ranking
	c.notice = fmt.Sprintf("Ranked %d leads", len(m.Ranking))
	for _, p := range m.Ranking {
		c.log.Info("Priority %d: %s (%s)", p.Priority, p.ID, p.Reason)
	}
}
