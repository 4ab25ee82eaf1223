// Package stats derives pipeline numbers from a lead slice.
package stats

import "github.com/kingrea/lead-radar/internal/lead"

// HighScore is the score at which a lead counts as high intent.
const HighScore = 70

// LowScore is the score below which a lead needs review.
const LowScore = 40

// SourceStats summarises one source.
type SourceStats struct {
	Source   lead.Source
	Leads    int
	AvgScore int
	Replies  int
}

// Summary holds the pipeline counts and derived rates. Rates are percentages
// in [0, 100] and are zero when their denominator is zero.
type Summary struct {
	Total     int
	ByStatus  map[lead.Status]int
	HighScore int
	AvgScore  int

	ConversionRate float64
	ResponseRate   float64
	QualityRate    float64
	PipelineHealth float64

	Sources []SourceStats

	ToContact  int
	FollowUps  int
	ToReview   int
	TopLeadIDs []string
}

// Count returns the number of leads with status.
func (s Summary) Count(status lead.Status) int {
	return s.ByStatus[status]
}

// Share returns the percentage of leads with status.
func (s Summary) Share(status lead.Status) float64 {
	return percent(s.ByStatus[status], s.Total)
}

// Compute builds the summary of leads.
func Compute(leads []lead.Lead) Summary {
	s := Summary{Total: len(leads), ByStatus: map[lead.Status]int{}}
	scoreSum := 0
	type acc struct{ n, sum, replies int }
	bySource := map[lead.Source]*acc{}
	for _, l := range leads {
		s.ByStatus[l.Status]++
		scoreSum += l.Score
		if l.Score >= HighScore {
			s.HighScore++
			if l.Status == lead.StatusNew {
				s.ToContact++
			}
		}
		if l.Score < LowScore {
			s.ToReview++
		}
		a, ok := bySource[l.Source]
		if !ok {
			a = &acc{}
			bySource[l.Source] = a
		}
		a.n++
		a.sum += l.Score
		if l.Status == lead.StatusReplied {
			a.replies++
		}
	}
	if s.Total > 0 {
		s.AvgScore = roundDiv(scoreSum, s.Total)
	}
	replied := s.ByStatus[lead.StatusReplied]
	contacted := s.ByStatus[lead.StatusContacted]
	s.FollowUps = contacted
	s.ConversionRate = percent(replied, s.Total)
	s.ResponseRate = percent(replied, contacted)
	s.QualityRate = percent(s.HighScore, s.Total)
	s.PipelineHealth = percent(s.ByStatus[lead.StatusNew]+contacted, s.Total)

	for _, src := range lead.Sources {
		a, ok := bySource[src]
		if !ok {
			continue
		}
		s.Sources = append(s.Sources, SourceStats{
			Source:   src,
			Leads:    a.n,
			AvgScore: roundDiv(a.sum, a.n),
			Replies:  a.replies,
		})
	}
	s.TopLeadIDs = topLeads(leads, 3)
	return s
}

func topLeads(leads []lead.Lead, n int) []string {
	var top []lead.Lead
	for _, l := range leads {
		if l.Score < HighScore {
			continue
		}
		i := len(top)
		for i > 0 && top[i-1].Score < l.Score {
			i--
		}
		top = append(top, lead.Lead{})
		copy(top[i+1:], top[i:])
		top[i] = l
		if len(top) > n {
			top = top[:n]
		}
	}
	ids := make([]string, len(top))
	for i, l := range top {
		ids[i] = l.ID
	}
	return ids
}

func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}

func roundDiv(sum, n int) int {
	if n == 0 {
		return 0
	}
	return int(float64(sum)/float64(n) + 0.5)
}
