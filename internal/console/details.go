package console

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/lead-radar/internal/gateway"
	"github.com/kingrea/lead-radar/internal/lead"
)

// DetailKind is one of the three per-row enrichments.
type DetailKind string

const (
	DetailBreakdown  DetailKind = "score-breakdown"
	DetailDuplicates DetailKind = "duplicates"
	DetailEmails     DetailKind = "emails"
)

var detailKinds = []DetailKind{DetailBreakdown, DetailDuplicates, DetailEmails}

// SlotState tracks one single-assignment enrichment.
type SlotState int

const (
	SlotEmpty SlotState = iota
	SlotLoading
	SlotLoaded
	SlotFailed
)

// Slot holds one enrichment value. Once Loaded or Failed it never changes.
type Slot[T any] struct {
	State SlotState
	Value T
}

// Resolved reports whether the slot reached a final state.
func (s Slot[T]) Resolved() bool {
	return s.State == SlotLoaded || s.State == SlotFailed
}

func (s *Slot[T]) resolve(value T, err error) bool {
	if s.State != SlotLoading {
		return false
	}
	if err != nil {
		s.State = SlotFailed
		return true
	}
	s.State = SlotLoaded
	s.Value = value
	return true
}

// RowDetails is the enrichment cache of one lead.
type RowDetails struct {
	Breakdown  Slot[lead.ScoreBreakdown]
	Duplicates Slot[lead.DuplicateInfo]
	Emails     Slot[[]string]
}

func (r *RowDetails) state(kind DetailKind) SlotState {
	switch kind {
	case DetailBreakdown:
		return r.Breakdown.State
	case DetailDuplicates:
		return r.Duplicates.State
	case DetailEmails:
		return r.Emails.State
	}
	return SlotEmpty
}

func (r *RowDetails) markLoading(kind DetailKind) {
	switch kind {
	case DetailBreakdown:
		r.Breakdown.State = SlotLoading
	case DetailDuplicates:
		r.Duplicates.State = SlotLoading
	case DetailEmails:
		r.Emails.State = SlotLoading
	}
}

// DetailLoader owns the per-row caches and issues at most one request per
// (lead, kind) for the lifetime of the console.
type DetailLoader struct {
	gw   gateway.Gateway
	ctx  context.Context
	rows map[string]*RowDetails
}

// NewDetailLoader creates an empty loader.
func NewDetailLoader(ctx context.Context, gw gateway.Gateway) *DetailLoader {
	return &DetailLoader{gw: gw, ctx: ctx, rows: map[string]*RowDetails{}}
}

// Row returns the cache for id. The zero value means nothing was requested.
func (d *DetailLoader) Row(id string) RowDetails {
	if r, ok := d.rows[id]; ok {
		return *r
	}
	return RowDetails{}
}

// Request starts every enrichment of id that has never been requested and
// returns the commands to run them concurrently.
func (d *DetailLoader) Request(id string) tea.Cmd {
	row, ok := d.rows[id]
	if !ok {
		row = &RowDetails{}
		d.rows[id] = row
	}
	var cmds []tea.Cmd
	for _, kind := range detailKinds {
		if row.state(kind) != SlotEmpty {
			continue
		}
		row.markLoading(kind)
		cmds = append(cmds, d.fetch(id, kind))
	}
	return tea.Batch(cmds...)
}

func (d *DetailLoader) fetch(id string, kind DetailKind) tea.Cmd {
	gw, ctx := d.gw, d.ctx
	return func() tea.Msg {
		msg := DetailLoadedMsg{LeadID: id, Kind: kind}
		switch kind {
		case DetailBreakdown:
			b, err := gw.ScoreBreakdown(ctx, id)
			msg.Breakdown, msg.Err = b, err
		case DetailDuplicates:
			dup, err := gw.Duplicates(ctx, id)
			msg.Duplicates, msg.Err = dup, err
		case DetailEmails:
			emails, err := gw.PossibleEmails(ctx, id)
			msg.Emails, msg.Err = emails, err
		}
		return msg
	}
}

// apply stores a fetch result. It reports false for results that arrive for
// a slot that is not loading.
func (d *DetailLoader) apply(msg DetailLoadedMsg) bool {
	row, ok := d.rows[msg.LeadID]
	if !ok {
		return false
	}
	switch msg.Kind {
	case DetailBreakdown:
		return row.Breakdown.resolve(msg.Breakdown, msg.Err)
	case DetailDuplicates:
		return row.Duplicates.resolve(msg.Duplicates, msg.Err)
	case DetailEmails:
		return row.Emails.resolve(msg.Emails, msg.Err)
	}
	return false
}
