package console

import (
	"sort"

	"github.com/kingrea/lead-radar/internal/lead"
)

// Collection is the arena of leads keyed by id. It keeps the server order of
// the last successful Load; rows refer to leads by id only.
type Collection struct {
	order []string
	byID  map[string]*lead.Lead
}

// NewCollection returns an empty collection.
func NewCollection() *Collection {
	return &Collection{byID: map[string]*lead.Lead{}}
}

// Replace swaps the whole content for leads, keeping their order. A repeated
// id keeps its first position and last value; the repeated ids are returned.
func (c *Collection) Replace(leads []lead.Lead) (repeated []string) {
	order := make([]string, 0, len(leads))
	byID := make(map[string]*lead.Lead, len(leads))
	for i := range leads {
		l := leads[i]
		if _, seen := byID[l.ID]; seen {
			repeated = append(repeated, l.ID)
		} else {
			order = append(order, l.ID)
		}
		byID[l.ID] = &l
	}
	c.order = order
	c.byID = byID
	return repeated
}

// Get returns a copy of the lead with id.
func (c *Collection) Get(id string) (lead.Lead, bool) {
	l, ok := c.byID[id]
	if !ok {
		return lead.Lead{}, false
	}
	return *l, true
}

// Update applies fn to the stored lead. It reports whether id was present.
func (c *Collection) Update(id string, fn func(*lead.Lead)) bool {
	l, ok := c.byID[id]
	if !ok {
		return false
	}
	fn(l)
	return true
}

// Len returns the number of leads.
func (c *Collection) Len() int {
	return len(c.order)
}

// IDs returns the lead ids in server order.
func (c *Collection) IDs() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// All returns copies of every lead in server order.
func (c *Collection) All() []lead.Lead {
	out := make([]lead.Lead, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, *c.byID[id])
	}
	return out
}

// SortKey selects a presentation order.
type SortKey int

const (
	SortServer SortKey = iota
	SortScore
	SortUpvotes
	SortLaunch
)

func (k SortKey) String() string {
	switch k {
	case SortScore:
		return "score"
	case SortUpvotes:
		return "upvotes"
	case SortLaunch:
		return "launch"
	}
	return "server"
}

// Next cycles through the sort keys.
func (k SortKey) Next() SortKey {
	return (k + 1) % 4
}

// Sorted returns the leads ordered by key, descending, with server order as
// the tie breaker. The collection itself is not reordered.
func (c *Collection) Sorted(key SortKey) []lead.Lead {
	leads := c.All()
	if key == SortServer {
		return leads
	}
	sort.SliceStable(leads, func(i, j int) bool {
		switch key {
		case SortScore:
			return leads[i].Score > leads[j].Score
		case SortUpvotes:
			return leads[i].Upvotes > leads[j].Upvotes
		case SortLaunch:
			return leads[i].Launched().After(leads[j].Launched())
		}
		return false
	})
	return leads
}
