package lead

import (
	"fmt"
	"strings"
)

// Criteria is the filter the backend applies when listing leads. A nil
// MinScore and an empty Status mean "no constraint"; SourceAll likewise.
type Criteria struct {
	MinScore *int
	Status   Status
	Source   Source
}

// AllCriteria returns the criteria that match every lead.
func AllCriteria() Criteria {
	return Criteria{Source: SourceAll}
}

// WithMinScore returns a copy with the minimum score set, or cleared when
// score is nil.
func (c Criteria) WithMinScore(score *int) Criteria {
	if score == nil {
		c.MinScore = nil
		return c
	}
	v := *score
	c.MinScore = &v
	return c
}

// WithStatus returns a copy filtering on status. Empty or "all" clears it.
func (c Criteria) WithStatus(status Status) Criteria {
	if status == "all" {
		status = ""
	}
	c.Status = status
	return c
}

// WithSource returns a copy filtering on source. Empty clears it.
func (c Criteria) WithSource(source Source) Criteria {
	if source == "" {
		source = SourceAll
	}
	c.Source = source
	return c
}

// Equal compares two criteria by value.
func (c Criteria) Equal(other Criteria) bool {
	if c.normalizedSource() != other.normalizedSource() || c.Status != other.Status {
		return false
	}
	switch {
	case c.MinScore == nil && other.MinScore == nil:
		return true
	case c.MinScore == nil || other.MinScore == nil:
		return false
	default:
		return *c.MinScore == *other.MinScore
	}
}

func (c Criteria) normalizedSource() Source {
	if c.Source == "" {
		return SourceAll
	}
	return c.Source
}

// Validate rejects statuses and sources outside the enumerations and scores
// outside 0..100.
func (c Criteria) Validate() error {
	if c.MinScore != nil && (*c.MinScore < 0 || *c.MinScore > 100) {
		return fmt.Errorf("lead: min score %d out of range 0-100", *c.MinScore)
	}
	if c.Status != "" && !c.Status.Valid() {
		return fmt.Errorf("lead: unknown status %q", c.Status)
	}
	if src := c.normalizedSource(); !src.Valid() {
		return fmt.Errorf("lead: unknown source %q", c.Source)
	}
	return nil
}

// Canonical returns a copy with status and source folded to their
// enumerated spelling where they parse. Values that do not parse are kept
// so Validate can report them.
func (c Criteria) Canonical() Criteria {
	if strings.EqualFold(strings.TrimSpace(string(c.Status)), "all") {
		c.Status = ""
	}
	if c.Status != "" {
		if s, err := ParseStatus(string(c.Status)); err == nil {
			c.Status = s
		}
	}
	if s, err := ParseSource(string(c.Source)); err == nil {
		c.Source = s
	}
	return c
}

// String renders the criteria for status lines and logs.
func (c Criteria) String() string {
	parts := []string{"source=" + string(c.normalizedSource())}
	if c.Status != "" {
		parts = append(parts, "status="+string(c.Status))
	} else {
		parts = append(parts, "status=all")
	}
	if c.MinScore != nil {
		parts = append(parts, fmt.Sprintf("minScore=%d", *c.MinScore))
	}
	return strings.Join(parts, " ")
}
