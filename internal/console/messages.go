package console

import "github.com/kingrea/lead-radar/internal/lead"

// LeadsLoadedMsg carries the result of a Load. Gen identifies the request.
type LeadsLoadedMsg struct {
	Gen      uint64
	Criteria lead.Criteria
	Leads    []lead.Lead
	Err      error
}

// PatchField names the field an optimistic patch touched.
type PatchField string

const (
	FieldStatus PatchField = "status"
	FieldNotes  PatchField = "notes"
)

// PatchDoneMsg reports the outcome of a single-lead patch. Prev and Applied
// hold the field values before and after the optimistic write.
type PatchDoneMsg struct {
	LeadID  string
	Field   PatchField
	Prev    lead.Lead
	Applied lead.Lead
	Err     error
}

// BatchDoneMsg reports the outcome of a batch status update.
type BatchDoneMsg struct {
	IDs    []string
	Status lead.Status
	Err    error
}

// SyncDoneMsg reports the outcome of a sync trigger.
type SyncDoneMsg struct {
	Source lead.Source
	Err    error
}

// DetailLoadedMsg carries one enrichment result.
type DetailLoadedMsg struct {
	LeadID     string
	Kind       DetailKind
	Breakdown  lead.ScoreBreakdown
	Duplicates lead.DuplicateInfo
	Emails     []string
	Err        error
}

// AIResultMsg carries the outcome of an analysis or draft request.
type AIResultMsg struct {
	LeadID   string
	Kind     AIKind
	Analysis lead.Analysis
	Draft    lead.Draft
	Err      error
}

// PrioritizedMsg carries an AI ranking of the selected leads.
type PrioritizedMsg struct {
	IDs     []string
	Ranking []lead.Priority
	Err     error
}
