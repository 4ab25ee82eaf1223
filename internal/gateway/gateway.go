// Package gateway is the typed request/response boundary to the lead backend.
// It holds no domain state and never retries; callers decide what a failure
// means.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/kingrea/lead-radar/internal/config"
	"github.com/kingrea/lead-radar/internal/lead"
)

// Version is reported in the User-Agent header.
const Version = "0.3.0"

const maxErrorBody = 512

// Gateway is the full backend contract the console depends on.
type Gateway interface {
	ListLeads(ctx context.Context, criteria lead.Criteria) ([]lead.Lead, error)
	PatchLead(ctx context.Context, id string, patch LeadPatch) error
	BatchPatch(ctx context.Context, ids []string, status lead.Status) error
	TriggerSync(ctx context.Context, source lead.Source) error

	Analyze(ctx context.Context, id string) (lead.Analysis, error)
	GenerateOutreach(ctx context.Context, id string, channel lead.Channel, oc *lead.OutreachContext) (lead.Draft, error)
	Prioritize(ctx context.Context, ids []string) ([]lead.Priority, error)

	ScoreBreakdown(ctx context.Context, id string) (lead.ScoreBreakdown, error)
	Duplicates(ctx context.Context, id string) (lead.DuplicateInfo, error)
	PossibleEmails(ctx context.Context, id string) ([]string, error)
}

// LeadPatch carries the optional fields of a single-lead update. Nil fields
// are left out of the request body.
type LeadPatch struct {
	Status *lead.Status `json:"status,omitempty"`
	Notes  *string      `json:"notes,omitempty"`
}

// Client implements Gateway over HTTP/JSON.
type Client struct {
	baseURL   string
	http      *http.Client
	limiter   *rate.Limiter
	userAgent string
	newID     func() string
}

// Option customizes client construction.
type Option func(*Client)

// WithHTTPClient overrides the transport, mainly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithRateLimit bounds the request rate. A non-positive rate disables limiting.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		c.limiter = newLimiter(perSecond, burst)
	}
}

// WithRequestIDs overrides the request id generator.
func WithRequestIDs(gen func() string) Option {
	return func(c *Client) {
		if gen != nil {
			c.newID = gen
		}
	}
}

// New builds a client for the backend rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      &http.Client{Timeout: config.DefaultTimeout},
		limiter:   newLimiter(0, 1),
		userAgent: "leadradar/" + Version,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// NewFromConfig builds a client using the backend section of the config.
func NewFromConfig(cfg *config.Config, opts ...Option) *Client {
	rps, burst := cfg.RateLimit()
	base := []Option{
		WithHTTPClient(&http.Client{Timeout: cfg.Timeout()}),
		WithRateLimit(rps, burst),
	}
	return New(cfg.BaseURL(), append(base, opts...)...)
}

// BaseURL returns the backend root this client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func newLimiter(perSecond float64, burst int) *rate.Limiter {
	if burst < 1 {
		burst = 1
	}
	if perSecond <= 0 || math.IsInf(perSecond, 1) {
		return rate.NewLimiter(rate.Inf, burst)
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}

// do performs one request. body is JSON-encoded when non-nil; out receives
// the decoded response when non-nil, otherwise the body is drained.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body, out any) error {
	requestID := c.newID()
	fail := func(kind Kind, status int, err error) error {
		return &RequestError{Op: op, Kind: kind, StatusCode: status, RequestID: requestID, Err: err}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return fail(KindNetwork, 0, err)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fail(KindDecode, 0, fmt.Errorf("encode request: %w", err))
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fail(KindNetwork, 0, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fail(KindNetwork, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fail(KindServer, resp.StatusCode, fmt.Errorf("%s", strings.TrimSpace(string(snippet))))
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fail(KindDecode, resp.StatusCode, err)
	}
	return nil
}
