package gateway

import (
	"context"
	"net/http"
	"net/url"

	"github.com/kingrea/lead-radar/internal/lead"
)

type analysisEnvelope struct {
	Analysis lead.Analysis `json:"analysis"`
}

// Analyze requests an AI assessment of one lead.
func (c *Client) Analyze(ctx context.Context, id string) (lead.Analysis, error) {
	var env analysisEnvelope
	if err := c.do(ctx, "analyze", http.MethodPost, "/ai/analyze/"+url.PathEscape(id), nil, nil, &env); err != nil {
		return lead.Analysis{}, err
	}
	return env.Analysis, nil
}

type outreachRequest struct {
	Channel lead.Channel `json:"channel"`
	lead.OutreachContext
}

type draftEnvelope struct {
	Draft lead.Draft `json:"draft"`
}

// GenerateOutreach asks for an outreach draft on the given channel. The
// optional context is flattened into the request body.
func (c *Client) GenerateOutreach(ctx context.Context, id string, channel lead.Channel, oc *lead.OutreachContext) (lead.Draft, error) {
	if channel == "" {
		channel = lead.ChannelEmail
	}
	body := outreachRequest{Channel: channel}
	if oc != nil {
		body.OutreachContext = *oc
	}
	var env draftEnvelope
	if err := c.do(ctx, "generate outreach", http.MethodPost, "/ai/outreach/"+url.PathEscape(id), nil, body, &env); err != nil {
		return lead.Draft{}, err
	}
	return env.Draft, nil
}

type prioritizeRequest struct {
	IDs []string `json:"ids"`
}

type prioritizeEnvelope struct {
	Prioritized []lead.Priority `json:"prioritized"`
}

// Prioritize ranks the given leads.
func (c *Client) Prioritize(ctx context.Context, ids []string) ([]lead.Priority, error) {
	if ids == nil {
		ids = []string{}
	}
	var env prioritizeEnvelope
	if err := c.do(ctx, "prioritize", http.MethodPost, "/ai/prioritize", nil, prioritizeRequest{IDs: ids}, &env); err != nil {
		return nil, err
	}
	return env.Prioritized, nil
}
