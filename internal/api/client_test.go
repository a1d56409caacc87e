package api

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fentz26/cortexdesk/internal/config"
	"github.com/fentz26/cortexdesk/internal/fakebackend"
	"github.com/fentz26/cortexdesk/internal/transport"
)

func newClient(t *testing.T, dialect config.Dialect, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	cfg := config.DefaultConfig()
	cfg.Dialect = dialect
	cfg.BaseURL = srv.URL + "/api"
	cfg.AuthURL = srv.URL
	if dialect == config.DialectLegacy {
		cfg.BaseURL = srv.URL
	}
	return New(cfg.Capabilities(), 5*time.Second).WithLogger(log.New(io.Discard, "", 0))
}

// capture records the last request path and JSON body.
type capture struct {
	mu   sync.Mutex
	path string
	body map[string]any
	resp string
}

func (c *capture) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.path = r.URL.Path
	c.body = nil
	json.NewDecoder(r.Body).Decode(&c.body)
	w.Header().Set("Content-Type", "application/json")
	io.WriteString(w, c.resp)
}

func TestListTasksSkipsMalformedRecords(t *testing.T) {
	h := &capture{resp: `{"tasks":[
		{"id":1,"title":"Send contract","status":"detected"},
		{"id":"not-a-number","title":"Broken"},
		{"id":3,"title":"Order laptops","status":"approved"}]}`}
	c := newClient(t, config.DialectModern, h)

	got, err := c.ListTasks(context.Background(), "", "")
	if err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}
	if len(got) != 2 || got[0].ID != 1 || got[1].ID != 3 {
		t.Errorf("Expected tasks 1 and 3, got %+v", got)
	}
}

func TestSearchFollowsDialect(t *testing.T) {
	h := &capture{resp: `{"query":"budget","results":[]}`}

	modern := newClient(t, config.DialectModern, h)
	if _, err := modern.Search(context.Background(), "budget", 7, ""); err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if h.path != "/api/research/query" {
		t.Errorf("Expected modern search path, got %s", h.path)
	}
	if h.body["max_results"] != float64(7) {
		t.Errorf("Expected max_results 7, got %v", h.body["max_results"])
	}

	legacy := newClient(t, config.DialectLegacy, h)
	if _, err := legacy.Search(context.Background(), "budget", 7, ""); err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if h.path != "/search" {
		t.Errorf("Expected legacy search path, got %s", h.path)
	}
	if _, ok := h.body["max_results"]; ok {
		t.Error("Legacy search must not send max_results")
	}
}

func TestUploadFileLegacy(t *testing.T) {
	backend := fakebackend.New()
	c := newClient(t, config.DialectLegacy, backend)

	res, err := c.UploadFile(context.Background(), transport.Part{Filename: "notes.txt", Content: strings.NewReader("hi")}, "")
	if err != nil {
		t.Fatalf("UploadFile failed: %v", err)
	}
	if res.Filename != "notes.txt" || res.Failed() {
		t.Errorf("Unexpected result: %+v", res)
	}
	if backend.Requests("POST /upload") != 1 {
		t.Error("Expected one POST /upload")
	}
}

func TestIngestFilesBatch(t *testing.T) {
	backend := fakebackend.New()
	backend.FailUpload("bad.pdf", "Unsupported file type")
	c := newClient(t, config.DialectModern, backend)

	out, err := c.IngestFiles(context.Background(), []transport.Part{
		{Filename: "a.txt", Content: strings.NewReader("alpha")},
		{Filename: "bad.pdf", Content: strings.NewReader("beta")},
	}, "")
	if err != nil {
		t.Fatalf("IngestFiles failed: %v", err)
	}
	if len(out.Results) != 2 || out.Failed() != 1 {
		t.Fatalf("Expected 2 results with 1 failure, got %+v", out.Results)
	}
	if out.Results[1].Error != "Unsupported file type" {
		t.Errorf("Unexpected error message: %q", out.Results[1].Error)
	}
	if len(out.DetectedTasks) != 1 {
		t.Errorf("Expected 1 detected task, got %d", len(out.DetectedTasks))
	}
}

func TestMeetingsAndProposals(t *testing.T) {
	backend := fakebackend.New()
	c := newClient(t, config.DialectModern, backend)
	ctx := context.Background()

	title := "Weekly sync"
	res, err := c.SubmitTranscript(ctx, &title, "Alex: status update\nTODO: Call the printer\n", "")
	if err != nil {
		t.Fatalf("SubmitTranscript failed: %v", err)
	}
	if len(res.DetectedTasks) != 1 || res.DetectedTasks[0].Title != "Call the printer" {
		t.Fatalf("Expected one detected task, got %+v", res.DetectedTasks)
	}

	summaries, err := c.MeetingSummaries(ctx, "")
	if err != nil {
		t.Fatalf("MeetingSummaries failed: %v", err)
	}
	if len(summaries) != 1 || summaries[0].Title != "Weekly sync" {
		t.Errorf("Unexpected summaries: %+v", summaries)
	}

	if _, err := c.ApproveTask(ctx, res.DetectedTasks[0].ID, ""); err != nil {
		t.Fatalf("ApproveTask failed: %v", err)
	}
	proposals, err := c.ScheduleProposals(ctx, "")
	if err != nil {
		t.Fatalf("ScheduleProposals failed: %v", err)
	}
	if len(proposals) != 1 {
		t.Errorf("Expected 1 proposal, got %d", len(proposals))
	}
}

func TestIngestTextAndAsk(t *testing.T) {
	backend := fakebackend.New()
	c := newClient(t, config.DialectModern, backend)
	ctx := context.Background()

	res, err := c.IngestText(ctx, "Remember to renew the lease", "", "")
	if err != nil {
		t.Fatalf("IngestText failed: %v", err)
	}
	if res.ChunksIndexed < 1 {
		t.Errorf("Expected chunks indexed, got %d", res.ChunksIndexed)
	}

	ans, err := c.Ask(ctx, "lease", 0, "")
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}
	if !strings.Contains(ans.Answer, "lease") || len(ans.Citations) != 1 {
		t.Errorf("Unexpected answer: %+v", ans)
	}
}

func TestAuthFailureCarriesMessage(t *testing.T) {
	backend := fakebackend.New()
	c := newClient(t, config.DialectModern, backend)

	_, err := c.Login(context.Background(), "ghost", "nope")
	if err == nil || !strings.Contains(err.Error(), "Invalid credentials") {
		t.Errorf("Expected backend message in error, got %v", err)
	}
}

func TestConfirmationsUseAuthService(t *testing.T) {
	backend := fakebackend.New()
	id := backend.AddConfirmation("Email the venue", 0.9)
	c := newClient(t, config.DialectModern, backend)
	ctx := context.Background()

	pending, err := c.PendingConfirmations(ctx, "")
	if err != nil {
		t.Fatalf("PendingConfirmations failed: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != id {
		t.Fatalf("Unexpected pending: %+v", pending)
	}
	if err := c.RejectConfirmation(ctx, id, ""); err != nil {
		t.Fatalf("RejectConfirmation failed: %v", err)
	}
	if backend.ConfirmationStatus(id) != "rejected" {
		t.Errorf("Expected rejected, got %q", backend.ConfirmationStatus(id))
	}
	if backend.Requests("GET /confirmations") != 1 {
		t.Error("Expected GET /confirmations on the auth service")
	}
}

func TestUploadFileSequentialModern(t *testing.T) {
	h := &capture{resp: `{"results":[{"filename":"a.txt","status":"error","error":"parse failed"}],"detected_tasks":[]}`}
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	cfg := config.DefaultConfig()
	cfg.Dialect = config.DialectModern
	cfg.BaseURL = srv.URL + "/api"
	cfg.AuthURL = srv.URL
	sequential := false
	cfg.BatchIngest = &sequential
	c := New(cfg.Capabilities(), 5*time.Second).WithLogger(log.New(io.Discard, "", 0))

	res, err := c.UploadFile(context.Background(), transport.Part{Filename: "a.txt", Content: strings.NewReader("x")}, "")
	if err != nil {
		t.Fatalf("UploadFile failed: %v", err)
	}
	if h.path != "/api/ingest/files" {
		t.Errorf("Expected batch endpoint, got %s", h.path)
	}
	if !res.Failed() || res.Error != "parse failed" {
		t.Errorf("Expected server-side failure, got %+v", res)
	}

	h.mu.Lock()
	h.resp = `{"filename":"a.txt"}`
	h.mu.Unlock()
	res, err = c.UploadFile(context.Background(), transport.Part{Filename: "a.txt", Content: strings.NewReader("x")}, "")
	if err != nil {
		t.Fatalf("UploadFile failed: %v", err)
	}
	if !res.Failed() || res.Error != "no status returned" {
		t.Errorf("Expected missing status to count as a failure, got %+v", res)
	}
}
