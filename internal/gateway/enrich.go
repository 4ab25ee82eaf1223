package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"golang.org/x/sync/errgroup"

	"github.com/kingrea/lead-radar/internal/lead"
)

type breakdownEnvelope struct {
	Breakdown lead.ScoreBreakdown `json:"breakdown"`
}

// ScoreBreakdown fetches the factors behind a lead's score.
func (c *Client) ScoreBreakdown(ctx context.Context, id string) (lead.ScoreBreakdown, error) {
	var env breakdownEnvelope
	if err := c.do(ctx, "score breakdown", http.MethodGet, "/leads/"+url.PathEscape(id)+"/score-breakdown", nil, nil, &env); err != nil {
		return lead.ScoreBreakdown{}, err
	}
	return env.Breakdown, nil
}

// Duplicates fetches cross-source matches for a lead.
func (c *Client) Duplicates(ctx context.Context, id string) (lead.DuplicateInfo, error) {
	var info lead.DuplicateInfo
	if err := c.do(ctx, "duplicates", http.MethodGet, "/leads/"+url.PathEscape(id)+"/duplicates", nil, nil, &info); err != nil {
		return lead.DuplicateInfo{}, err
	}
	return info, nil
}

type emailsEnvelope struct {
	Emails []string `json:"emails"`
}

// PossibleEmails fetches email addresses the backend derived for a lead.
func (c *Client) PossibleEmails(ctx context.Context, id string) ([]string, error) {
	var env emailsEnvelope
	if err := c.do(ctx, "possible emails", http.MethodGet, "/leads/"+url.PathEscape(id)+"/emails", nil, nil, &env); err != nil {
		return nil, err
	}
	return env.Emails, nil
}

// Enrichment is the result of fetching all three enrichments of one lead.
// A nil value with a non-nil error means that enrichment failed; the others
// are unaffected.
type Enrichment struct {
	Breakdown    *lead.ScoreBreakdown
	BreakdownErr error

	Duplicates    *lead.DuplicateInfo
	DuplicatesErr error

	Emails    []string
	EmailsErr error
}

// Enrich fetches the score breakdown, duplicates and emails of a lead
// concurrently. A failed enrichment is recorded on its own field and never
// stops the others. The returned error is only set when ctx itself is done,
// in which case the unfinished fields carry the context error.
func Enrich(ctx context.Context, gw Gateway, id string) (Enrichment, error) {
	var out Enrichment
	g, gctx := errgroup.WithContext(ctx)
	settle := func(err error, slot *error) error {
		*slot = err
		return ctx.Err()
	}
	g.Go(func() error {
		b, err := gw.ScoreBreakdown(gctx, id)
		if err != nil {
			return settle(err, &out.BreakdownErr)
		}
		out.Breakdown = &b
		return nil
	})
	g.Go(func() error {
		d, err := gw.Duplicates(gctx, id)
		if err != nil {
			return settle(err, &out.DuplicatesErr)
		}
		out.Duplicates = &d
		return nil
	})
	g.Go(func() error {
		emails, err := gw.PossibleEmails(gctx, id)
		if err != nil {
			return settle(err, &out.EmailsErr)
		}
		out.Emails = emails
		return nil
	})
	if err := g.Wait(); err != nil {
		return out, fmt.Errorf("gateway: enrich %s: %w", id, err)
	}
	return out, nil
}
