package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/kingrea/lead-radar/internal/lead"
)

// ListLeads fetches the leads matching criteria in server order. Unset
// criteria fields, and "all" values, are not sent.
func (c *Client) ListLeads(ctx context.Context, criteria lead.Criteria) ([]lead.Lead, error) {
	query := url.Values{}
	if criteria.MinScore != nil {
		query.Set("minScore", strconv.Itoa(*criteria.MinScore))
	}
	if criteria.Status != "" && criteria.Status != "all" {
		query.Set("status", string(criteria.Status))
	}
	if criteria.Source != "" && criteria.Source != lead.SourceAll {
		query.Set("source", string(criteria.Source))
	}
	var leads []lead.Lead
	if err := c.do(ctx, "list leads", http.MethodGet, "/leads", query, nil, &leads); err != nil {
		return nil, err
	}
	if leads == nil {
		leads = []lead.Lead{}
	}
	return leads, nil
}

// PatchLead updates status and/or notes of one lead. The response body is
// not interpreted.
func (c *Client) PatchLead(ctx context.Context, id string, patch LeadPatch) error {
	if patch.Status == nil && patch.Notes == nil {
		return fmt.Errorf("gateway: patch lead %s: nothing to update", id)
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return fmt.Errorf("gateway: patch lead %s: unknown status %q", id, *patch.Status)
	}
	return c.do(ctx, "patch lead", http.MethodPatch, "/leads/"+url.PathEscape(id), nil, patch, nil)
}

type batchRequest struct {
	IDs    []string    `json:"ids"`
	Status lead.Status `json:"status"`
}

// BatchPatch sets one status on many leads.
func (c *Client) BatchPatch(ctx context.Context, ids []string, status lead.Status) error {
	if !status.Valid() {
		return fmt.Errorf("gateway: batch patch: unknown status %q", status)
	}
	if ids == nil {
		ids = []string{}
	}
	return c.do(ctx, "batch patch", http.MethodPost, "/leads/batch", nil, batchRequest{IDs: ids, Status: status}, nil)
}

// TriggerSync asks the backend to crawl one source, or every source for
// lead.SourceAll. Completion is only observable by listing again.
func (c *Client) TriggerSync(ctx context.Context, source lead.Source) error {
	if source == "" {
		source = lead.SourceAll
	}
	if !source.Valid() {
		return fmt.Errorf("gateway: sync: unknown source %q", source)
	}
	return c.do(ctx, "sync "+string(source), http.MethodGet, "/sync/"+string(source), nil, nil, nil)
}
