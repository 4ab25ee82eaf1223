// Package lead holds the value types shared by the gateway, the console and
// the terminal UI. Everything here is plain data; no package state.
package lead

import (
	"fmt"
	"strings"
	"time"
)

// Source identifies where a lead was discovered.
type Source string

const (
	SourceProductHunt  Source = "producthunt"
	SourceIndieHackers Source = "indiehackers"
	SourceGitHub       Source = "github"
	SourceReddit       Source = "reddit"

	// SourceAll is only valid in filters and sync requests.
	SourceAll Source = "all"
)

// Sources lists every concrete source in display order.
var Sources = []Source{SourceProductHunt, SourceIndieHackers, SourceGitHub, SourceReddit}

// ParseSource accepts a concrete source or "all". Empty input maps to "all".
func ParseSource(value string) (Source, error) {
	v := Source(strings.ToLower(strings.TrimSpace(value)))
	if v == "" {
		return SourceAll, nil
	}
	if v == SourceAll {
		return v, nil
	}
	for _, s := range Sources {
		if s == v {
			return v, nil
		}
	}
	return "", fmt.Errorf("lead: unknown source %q", value)
}

// Valid reports whether s is exactly a concrete source or SourceAll.
func (s Source) Valid() bool {
	if s == SourceAll {
		return true
	}
	for _, candidate := range Sources {
		if candidate == s {
			return true
		}
	}
	return false
}

// Label returns the two-letter tag used in compact tables.
func (s Source) Label() string {
	switch s {
	case SourceProductHunt:
		return "PH"
	case SourceIndieHackers:
		return "IH"
	case SourceGitHub:
		return "GH"
	case SourceReddit:
		return "RD"
	}
	if len(s) >= 2 {
		return strings.ToUpper(string(s[:2]))
	}
	return strings.ToUpper(string(s))
}

// Title returns a human readable source name.
func (s Source) Title() string {
	switch s {
	case SourceProductHunt:
		return "Product Hunt"
	case SourceIndieHackers:
		return "Indie Hackers"
	case SourceGitHub:
		return "GitHub"
	case SourceReddit:
		return "Reddit"
	case SourceAll:
		return "All"
	}
	return string(s)
}

// Status is the outreach pipeline position of a lead. Any status may follow
// any other.
type Status string

const (
	StatusNew       Status = "new"
	StatusContacted Status = "contacted"
	StatusReplied   Status = "replied"
	StatusRejected  Status = "rejected"
)

// Statuses lists the pipeline statuses in pipeline order.
var Statuses = []Status{StatusNew, StatusContacted, StatusReplied, StatusRejected}

// ParseStatus accepts one of the four statuses.
func ParseStatus(value string) (Status, error) {
	v := Status(strings.ToLower(strings.TrimSpace(value)))
	for _, s := range Statuses {
		if s == v {
			return v, nil
		}
	}
	return "", fmt.Errorf("lead: unknown status %q", value)
}

// Valid reports whether s is exactly one of the four statuses. Use
// ParseStatus to canonicalise user input first.
func (s Status) Valid() bool {
	for _, candidate := range Statuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// Next cycles through the statuses in pipeline order.
func (s Status) Next() Status {
	for i, candidate := range Statuses {
		if candidate == s {
			return Statuses[(i+1)%len(Statuses)]
		}
	}
	return StatusNew
}

// Lead is the console's read replica of a backend lead.
type Lead struct {
	ID          string       `json:"id"`
	Source      Source       `json:"source"`
	ProductName string       `json:"product_name"`
	Tagline     string       `json:"tagline"`
	Website     string       `json:"website"`
	Upvotes     int          `json:"upvotes"`
	LaunchDate  string       `json:"launch_date"`
	Score       int          `json:"score"`
	Status      Status       `json:"status"`
	Notes       *string      `json:"notes"`
	SocialLinks *SocialLinks `json:"social_links,omitempty"`
	CreatedAt   string       `json:"created_at"`
}

// NotesText returns the notes or an empty string.
func (l Lead) NotesText() string {
	if l.Notes == nil {
		return ""
	}
	return *l.Notes
}

// Launched parses LaunchDate. The zero time is returned when the backend sent
// something unparseable.
func (l Lead) Launched() time.Time {
	return parseTimestamp(l.LaunchDate)
}

// Created parses CreatedAt.
func (l Lead) Created() time.Time {
	return parseTimestamp(l.CreatedAt)
}

func parseTimestamp(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts
		}
	}
	return time.Time{}
}

// Maker is a Product Hunt maker.
type Maker struct {
	Name     string  `json:"name"`
	Username string  `json:"username"`
	Twitter  *string `json:"twitter"`
}

// GitHubOwner is the owner of a GitHub repository lead.
type GitHubOwner struct {
	Username string `json:"username"`
	URL      string `json:"url"`
	Type     string `json:"type"`
}

// SocialLinks is the source-dependent metadata bag. Only the fields relevant
// to the lead's source are populated.
type SocialLinks struct {
	// Product Hunt
	ProductHunt string  `json:"product_hunt,omitempty"`
	Makers      []Maker `json:"makers,omitempty"`

	// Indie Hackers
	IndieHackers string  `json:"indie_hackers,omitempty"`
	Revenue      *string `json:"revenue,omitempty"`

	// GitHub
	GitHub   string       `json:"github,omitempty"`
	Owner    *GitHubOwner `json:"owner,omitempty"`
	Language *string      `json:"language,omitempty"`
	Topics   []string     `json:"topics,omitempty"`
	Forks    int          `json:"forks,omitempty"`

	// Reddit. Reddit is the legacy post field; RedditPost supersedes it.
	Reddit         string   `json:"reddit,omitempty"`
	RedditPost     string   `json:"reddit_post,omitempty"`
	Subreddit      string   `json:"subreddit,omitempty"`
	Author         string   `json:"author,omitempty"`
	ExtractedLinks []string `json:"extracted_links,omitempty"`
}

// PostURL returns the Reddit post permalink, preferring the newer field.
func (s *SocialLinks) PostURL() string {
	if s == nil {
		return ""
	}
	if s.RedditPost != "" {
		return s.RedditPost
	}
	return s.Reddit
}

// AuthorURL links to the Reddit author's profile.
func (s *SocialLinks) AuthorURL() string {
	if s == nil || s.Author == "" {
		return ""
	}
	return "https://www.reddit.com/user/" + s.Author
}

// SubredditURL links to the subreddit the lead was posted in.
func (s *SocialLinks) SubredditURL() string {
	if s == nil || s.Subreddit == "" {
		return ""
	}
	return "https://www.reddit.com/r/" + s.Subreddit
}

// Link is a labelled URL shown in the row's quick links.
type Link struct {
	Label string
	URL   string
}

// Links collects the website and every social link that is set.
func (l Lead) Links() []Link {
	var links []Link
	if l.Website != "" {
		links = append(links, Link{Label: "Website", URL: l.Website})
	}
	s := l.SocialLinks
	if s == nil {
		return links
	}
	if post := s.PostURL(); post != "" {
		links = append(links, Link{Label: "Reddit post", URL: post})
		if u := s.AuthorURL(); u != "" {
			links = append(links, Link{Label: "u/" + s.Author, URL: u})
		}
		if u := s.SubredditURL(); u != "" {
			links = append(links, Link{Label: "r/" + s.Subreddit, URL: u})
		}
	}
	if s.ProductHunt != "" {
		links = append(links, Link{Label: "Product Hunt", URL: s.ProductHunt})
	}
	for _, m := range s.Makers {
		if m.Twitter != nil && *m.Twitter != "" {
			links = append(links, Link{Label: "@" + strings.TrimPrefix(*m.Twitter, "@"), URL: "https://twitter.com/" + strings.TrimPrefix(*m.Twitter, "@")})
		}
	}
	if s.IndieHackers != "" {
		links = append(links, Link{Label: "Indie Hackers", URL: s.IndieHackers})
	}
	if s.GitHub != "" {
		links = append(links, Link{Label: "GitHub", URL: s.GitHub})
	}
	if s.Owner != nil && s.Owner.URL != "" {
		links = append(links, Link{Label: "Owner " + s.Owner.Username, URL: s.Owner.URL})
	}
	return links
}
