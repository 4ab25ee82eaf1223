package lead

import (
	"fmt"
	"strings"
)

// ScoreFactor is one weighted contribution to a lead's score.
type ScoreFactor struct {
	Name   string `json:"name"`
	Points int    `json:"points"`
	Reason string `json:"reason"`
}

// ScoreBreakdown decomposes a lead's score into named factors.
type ScoreBreakdown struct {
	Total   int           `json:"total"`
	Factors []ScoreFactor `json:"factors"`
}

// Duplicate is a cross-source match for a lead.
type Duplicate struct {
	ID          string  `json:"id"`
	ProductName string  `json:"product_name"`
	Source      Source  `json:"source"`
	Website     *string `json:"website"`
	Score       int     `json:"score"`
	LaunchDate  string  `json:"launch_date"`
}

// DuplicateInfo lists the server-detected duplicates of a lead.
type DuplicateInfo struct {
	IsDuplicate bool        `json:"isDuplicate"`
	Duplicates  []Duplicate `json:"duplicates"`
}

// Channel is the outreach medium an AI draft targets.
type Channel string

const (
	ChannelEmail    Channel = "email"
	ChannelTwitter  Channel = "twitter"
	ChannelLinkedIn Channel = "linkedin"
)

// ParseChannel accepts email, twitter or linkedin. Empty input defaults to
// email.
func ParseChannel(value string) (Channel, error) {
	switch c := Channel(strings.ToLower(strings.TrimSpace(value))); c {
	case "":
		return ChannelEmail, nil
	case ChannelEmail, ChannelTwitter, ChannelLinkedIn:
		return c, nil
	}
	return "", fmt.Errorf("lead: unknown channel %q", value)
}

// Tone shapes the voice of a generated draft.
type Tone string

const (
	ToneFriendly     Tone = "friendly"
	ToneProfessional Tone = "professional"
	ToneCasual       Tone = "casual"
)

// ParseTone accepts friendly, professional, casual or empty.
func ParseTone(value string) (Tone, error) {
	switch t := Tone(strings.ToLower(strings.TrimSpace(value))); t {
	case "", ToneFriendly, ToneProfessional, ToneCasual:
		return t, nil
	}
	return "", fmt.Errorf("lead: unknown tone %q", value)
}

// OutreachContext personalises outreach drafts. Empty fields are omitted from
// the request.
type OutreachContext struct {
	AgencyName   string `json:"agency_name,omitempty"`
	ServiceFocus string `json:"service_focus,omitempty"`
	Tone         Tone   `json:"tone,omitempty"`
}

// IsZero reports whether no field is set.
func (c OutreachContext) IsZero() bool {
	return c.AgencyName == "" && c.ServiceFocus == "" && c.Tone == ""
}

// Analysis is the AI assessment of a lead.
type Analysis struct {
	Summary          string   `json:"summary"`
	PainPoints       []string `json:"painPoints"`
	MarketingGaps    []string `json:"marketingGaps"`
	OutreachAngle    string   `json:"outreachAngle"`
	SuggestedMessage string   `json:"suggestedMessage"`
	Confidence       string   `json:"confidence"`
}

// Draft is an AI-written outreach message.
type Draft struct {
	Subject string  `json:"subject"`
	Body    string  `json:"body"`
	Channel Channel `json:"channel"`
}

// Priority is one entry of an AI prioritization of several leads.
type Priority struct {
	ID       string `json:"id"`
	Priority int    `json:"priority"`
	Reason   string `json:"reason"`
}
