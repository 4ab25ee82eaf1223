package console

import "github.com/kingrea/lead-radar/internal/lead"

// AIKind names the kind of AI request bound to the slot.
type AIKind string

const (
	AIAnalyze AIKind = "analyze"
	AIDraft   AIKind = "draft"
)

// AIPhase is the variant tag of the AI slot.
type AIPhase int

const (
	AIIdle AIPhase = iota
	AIPending
	AIDone
)

func (p AIPhase) String() string {
	switch p {
	case AIPending:
		return "pending"
	case AIDone:
		return "done"
	}
	return "idle"
}

// AITask is the single AI slot: Idle, Pending(lead, kind) or
// Done(lead, kind, result). Only one of Analysis and Draft is set when Done.
type AITask struct {
	Phase    AIPhase
	LeadID   string
	Kind     AIKind
	Channel  lead.Channel
	Analysis *lead.Analysis
	Draft    *lead.Draft
}

// start rebinds the slot unconditionally.
func (t *AITask) start(id string, kind AIKind, channel lead.Channel) {
	*t = AITask{Phase: AIPending, LeadID: id, Kind: kind, Channel: channel}
}

// awaiting reports whether a response for (id, kind) may still be applied.
func (t *AITask) awaiting(id string, kind AIKind) bool {
	return t.Phase == AIPending && t.LeadID == id && t.Kind == kind
}

// complete stores a result if the slot still waits for (id, kind).
func (t *AITask) complete(id string, kind AIKind, analysis *lead.Analysis, draft *lead.Draft) bool {
	if !t.awaiting(id, kind) {
		return false
	}
	t.Phase = AIDone
	t.Analysis = analysis
	t.Draft = draft
	return true
}

// fail drops back to Idle if the slot still waits for (id, kind).
func (t *AITask) fail(id string, kind AIKind) bool {
	if !t.awaiting(id, kind) {
		return false
	}
	*t = AITask{}
	return true
}

// Busy reports whether the slot is bound to (id, kind) and still pending.
func (t AITask) Busy(id string, kind AIKind) bool {
	return t.awaiting(id, kind)
}

// AnalysisFor returns the finished analysis for id, if the slot holds one.
func (t AITask) AnalysisFor(id string) *lead.Analysis {
	if t.Phase != AIDone || t.LeadID != id || t.Kind != AIAnalyze {
		return nil
	}
	return t.Analysis
}

// DraftFor returns the finished draft for id, if the slot holds one.
func (t AITask) DraftFor(id string) *lead.Draft {
	if t.Phase != AIDone || t.LeadID != id || t.Kind != AIDraft {
		return nil
	}
	return t.Draft
}
