package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/kingrea/lead-radar/internal/lead"
)

type recordedRequest struct {
	Method    string
	Path      string
	Query     string
	Body      string
	RequestID string
}

type fakeBackend struct {
	mu       sync.Mutex
	requests []recordedRequest
	routes   map[string]func(w http.ResponseWriter, r *http.Request)
}

func newFakeBackend(t *testing.T) (*fakeBackend, *Client) {
	t.Helper()
	fb := &fakeBackend{routes: map[string]func(http.ResponseWriter, *http.Request){}}
	srv := httptest.NewServer(http.HandlerFunc(fb.serve))
	t.Cleanup(srv.Close)
	var ids atomic.Int64
	client := New(srv.URL+"/", WithHTTPClient(srv.Client()), WithRequestIDs(func() string {
		return fmt.Sprintf("req-%d", ids.Add(1))
	}))
	return fb, client
}

func (fb *fakeBackend) handle(route string, fn func(w http.ResponseWriter, r *http.Request)) {
	fb.routes[route] = fn
}

func (fb *fakeBackend) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	fb.mu.Lock()
	fb.requests = append(fb.requests, recordedRequest{
		Method:    r.Method,
		Path:      r.URL.Path,
		Query:     r.URL.RawQuery,
		Body:      string(body),
		RequestID: r.Header.Get("X-Request-ID"),
	})
	fb.mu.Unlock()
	if fn, ok := fb.routes[r.Method+" "+r.URL.Path]; ok {
		fn(w, r)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"success":true}`))
}

func (fb *fakeBackend) last() recordedRequest {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.requests[len(fb.requests)-1]
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestListLeadsSendsOnlySetCriteria(t *testing.T) {
	fb, client := newFakeBackend(t)
	fb.handle("GET /leads", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []lead.Lead{{ID: "2", Score: 40}, {ID: "1", Score: 82}})
	})

	leads, err := client.ListLeads(context.Background(), lead.AllCriteria())
	if err != nil {
		t.Fatalf("ListLeads: %v", err)
	}
	if len(leads) != 2 || leads[0].ID != "2" || leads[1].ID != "1" {
		t.Fatalf("server order not preserved: %+v", leads)
	}
	if q := fb.last().Query; q != "" {
		t.Fatalf("expected no query for all criteria, got %q", q)
	}

	seventy := 70
	criteria := lead.AllCriteria().WithMinScore(&seventy).WithStatus(lead.StatusNew).WithSource(lead.SourceGitHub)
	if _, err := client.ListLeads(context.Background(), criteria); err != nil {
		t.Fatalf("ListLeads: %v", err)
	}
	if q := fb.last().Query; q != "minScore=70&source=github&status=new" {
		t.Fatalf("unexpected query %q", q)
	}
}

func TestListLeadsEmptyArray(t *testing.T) {
	fb, client := newFakeBackend(t)
	fb.handle("GET /leads", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("null"))
	})
	leads, err := client.ListLeads(context.Background(), lead.AllCriteria())
	if err != nil {
		t.Fatalf("ListLeads: %v", err)
	}
	if leads == nil || len(leads) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", leads)
	}
}

func TestPatchLeadOmitsUnsetFields(t *testing.T) {
	fb, client := newFakeBackend(t)
	status := lead.StatusReplied
	if err := client.PatchLead(context.Background(), "L 1", LeadPatch{Status: &status}); err != nil {
		t.Fatalf("PatchLead: %v", err)
	}
	req := fb.last()
	if req.Method != http.MethodPatch || req.Path != "/leads/L 1" {
		t.Fatalf("unexpected request %s %s", req.Method, req.Path)
	}
	if strings.TrimSpace(req.Body) != `{"status":"replied"}` {
		t.Fatalf("unexpected body %s", req.Body)
	}
	if err := client.PatchLead(context.Background(), "L1", LeadPatch{}); err == nil {
		t.Fatalf("expected error for empty patch")
	}
}

func TestBatchPatchAndSync(t *testing.T) {
	fb, client := newFakeBackend(t)
	if err := client.BatchPatch(context.Background(), []string{"L1", "L2"}, lead.StatusRejected); err != nil {
		t.Fatalf("BatchPatch: %v", err)
	}
	req := fb.last()
	if req.Path != "/leads/batch" || strings.TrimSpace(req.Body) != `{"ids":["L1","L2"],"status":"rejected"}` {
		t.Fatalf("unexpected batch request %+v", req)
	}
	if err := client.TriggerSync(context.Background(), ""); err != nil {
		t.Fatalf("TriggerSync: %v", err)
	}
	if got := fb.last().Path; got != "/sync/all" {
		t.Fatalf("expected /sync/all, got %s", got)
	}
	if err := client.TriggerSync(context.Background(), lead.SourceReddit); err != nil {
		t.Fatalf("TriggerSync: %v", err)
	}
	if got := fb.last().Path; got != "/sync/reddit" {
		t.Fatalf("expected /sync/reddit, got %s", got)
	}
	if err := client.TriggerSync(context.Background(), "myspace"); err == nil {
		t.Fatalf("expected error for unknown source")
	}
}

func TestNonCanonicalValuesNeverReachTheWire(t *testing.T) {
	fb, client := newFakeBackend(t)
	ctx := context.Background()
	status := lead.Status("Replied")
	if err := client.PatchLead(ctx, "L1", LeadPatch{Status: &status}); err == nil {
		t.Fatalf("expected error for non-canonical status")
	}
	if err := client.BatchPatch(ctx, []string{"L1"}, "Rejected"); err == nil {
		t.Fatalf("expected error for non-canonical batch status")
	}
	if err := client.TriggerSync(ctx, "GitHub"); err == nil {
		t.Fatalf("expected error for non-canonical source")
	}
	fb.mu.Lock()
	defer fb.mu.Unlock()
	if len(fb.requests) != 0 {
		t.Fatalf("expected no requests, got %+v", fb.requests)
	}
}

func TestAIEndpointsUnwrapEnvelopes(t *testing.T) {
	fb, client := newFakeBackend(t)
	fb.handle("POST /ai/analyze/L1", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"analysis":{"summary":"Solid","painPoints":["no blog"],"marketingGaps":[],"outreachAngle":"SEO","suggestedMessage":"Hi","confidence":"high"}}`))
	})
	fb.handle("POST /ai/outreach/L1", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"draft":{"subject":"Hello","body":"Body","channel":"twitter"}}`))
	})
	fb.handle("POST /ai/prioritize", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"prioritized":[{"id":"L2","priority":1,"reason":"hot"}]}`))
	})

	analysis, err := client.Analyze(context.Background(), "L1")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if analysis.Summary != "Solid" || analysis.PainPoints[0] != "no blog" || analysis.Confidence != "high" {
		t.Fatalf("unexpected analysis %+v", analysis)
	}

	oc := &lead.OutreachContext{AgencyName: "Acme", Tone: lead.ToneCasual}
	draft, err := client.GenerateOutreach(context.Background(), "L1", lead.ChannelTwitter, oc)
	if err != nil {
		t.Fatalf("GenerateOutreach: %v", err)
	}
	if draft.Channel != lead.ChannelTwitter || draft.Subject != "Hello" {
		t.Fatalf("unexpected draft %+v", draft)
	}
	if body := strings.TrimSpace(fb.last().Body); body != `{"channel":"twitter","agency_name":"Acme","tone":"casual"}` {
		t.Fatalf("context not flattened: %s", body)
	}

	ranking, err := client.Prioritize(context.Background(), []string{"L1", "L2"})
	if err != nil {
		t.Fatalf("Prioritize: %v", err)
	}
	if len(ranking) != 1 || ranking[0].ID != "L2" {
		t.Fatalf("unexpected ranking %+v", ranking)
	}
}

func TestServerErrorCollapsesToRequestFailed(t *testing.T) {
	fb, client := newFakeBackend(t)
	fb.handle("GET /leads", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	_, err := client.ListLeads(context.Background(), lead.AllCriteria())
	if !errors.Is(err, ErrRequestFailed) {
		t.Fatalf("expected ErrRequestFailed, got %v", err)
	}
	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("expected *RequestError, got %T", err)
	}
	if reqErr.Kind != KindServer || reqErr.StatusCode != 500 {
		t.Fatalf("unexpected error details %+v", reqErr)
	}
	if reqErr.RequestID == "" || reqErr.RequestID != fb.last().RequestID {
		t.Fatalf("request id %q not propagated (header %q)", reqErr.RequestID, fb.last().RequestID)
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected body snippet in error, got %v", err)
	}
}

func TestMalformedResponseIsDecodeFailure(t *testing.T) {
	fb, client := newFakeBackend(t)
	fb.handle("GET /leads/L1/emails", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"emails": [`))
	})
	_, err := client.PossibleEmails(context.Background(), "L1")
	var reqErr *RequestError
	if !errors.As(err, &reqErr) || reqErr.Kind != KindDecode {
		t.Fatalf("expected decode failure, got %v", err)
	}
	if !errors.Is(err, ErrRequestFailed) {
		t.Fatalf("decode failure must match ErrRequestFailed")
	}
}

func TestNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()
	client := New(base)
	err := client.TriggerSync(context.Background(), lead.SourceAll)
	var reqErr *RequestError
	if !errors.As(err, &reqErr) || reqErr.Kind != KindNetwork {
		t.Fatalf("expected network failure, got %v", err)
	}
}

func TestEnrichToleratesIndependentFailures(t *testing.T) {
	fb, client := newFakeBackend(t)
	fb.handle("GET /leads/L1/score-breakdown", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"breakdown":{"total":82,"factors":[{"name":"Upvotes","points":30,"reason":"300+"}]}}`))
	})
	fb.handle("GET /leads/L1/duplicates", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	})
	fb.handle("GET /leads/L1/emails", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"emails":["hi@widget.example"]}`))
	})

	out, err := Enrich(context.Background(), client, "L1")
	if err != nil {
		t.Fatalf("Enrich must not fail as a whole: %v", err)
	}
	if out.Breakdown == nil || out.Breakdown.Total != 82 || out.Breakdown.Factors[0].Name != "Upvotes" {
		t.Fatalf("unexpected breakdown %+v (err %v)", out.Breakdown, out.BreakdownErr)
	}
	if out.Duplicates != nil || out.DuplicatesErr == nil {
		t.Fatalf("expected duplicates failure, got %+v", out.Duplicates)
	}
	if len(out.Emails) != 1 || out.EmailsErr != nil {
		t.Fatalf("unexpected emails %v (err %v)", out.Emails, out.EmailsErr)
	}
}

func TestEnrichStopsWhenContextIsCancelled(t *testing.T) {
	fb, client := newFakeBackend(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := Enrich(ctx, client, "L1")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}
	if out.Breakdown != nil || out.Duplicates != nil || out.Emails != nil {
		t.Fatalf("cancelled enrichment must not carry values: %+v", out)
	}
	if out.BreakdownErr == nil || out.DuplicatesErr == nil || out.EmailsErr == nil {
		t.Fatalf("every unfinished enrichment should record its error: %+v", out)
	}
	fb.mu.Lock()
	defer fb.mu.Unlock()
	if len(fb.requests) != 0 {
		t.Fatalf("cancelled context must not reach the backend, got %d requests", len(fb.requests))
	}
}

func TestRequestErrorLogAttrs(t *testing.T) {
	err := &RequestError{Op: "list leads", Kind: KindServer, StatusCode: 502, RequestID: "req-9"}
	want := []string{"op=list-leads", "kind=server", "status=502", "req=req-9"}
	if got := err.LogAttrs(); !reflect.DeepEqual(got, want) {
		t.Fatalf("LogAttrs() = %v, want %v", got, want)
	}
	bare := &RequestError{Op: "sync", Kind: KindNetwork}
	if got := bare.LogAttrs(); !reflect.DeepEqual(got, []string{"op=sync", "kind=network"}) {
		t.Fatalf("unexpected attrs for network failure %v", got)
	}
}
