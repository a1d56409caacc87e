// Package api is the typed client for the CortexDesk backend REST surface.
// The backend dialect is carried by config.Capabilities; every operation
// has a single code path that reads endpoint shapes from it.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/fentz26/cortexdesk/internal/config"
	"github.com/fentz26/cortexdesk/internal/models"
	"github.com/fentz26/cortexdesk/internal/transport"
)

// Client wraps the backend endpoints.
type Client struct {
	caps   config.Capabilities
	tr     *transport.Client
	logger *log.Logger
}

// New creates a client for caps with the given operation timeout.
func New(caps config.Capabilities, timeout time.Duration) *Client {
	return NewWithTransport(caps, transport.NewClient(caps.BaseURL, timeout))
}

// NewWithTransport creates a client over an existing transport.
func NewWithTransport(caps config.Capabilities, tr *transport.Client) *Client {
	return &Client{
		caps:   caps,
		tr:     tr,
		logger: log.Default(),
	}
}

// WithLogger sets the logger used to report skipped malformed records.
func (c *Client) WithLogger(l *log.Logger) *Client {
	c.logger = l
	return c
}

// Capabilities returns the backend capability descriptor.
func (c *Client) Capabilities() config.Capabilities {
	return c.caps
}

// --- Ingestion ---

// IngestFiles submits all parts in one multipart call (batch mode).
func (c *Client) IngestFiles(ctx context.Context, parts []transport.Part, credential string) (*models.IngestionOutcome, error) {
	fields := make([]transport.Part, len(parts))
	for i, p := range parts {
		p.Field = c.caps.IngestField
		fields[i] = p
	}
	resp, err := c.tr.Send(ctx, &transport.Request{
		Method:     http.MethodPost,
		Path:       c.caps.IngestPath,
		Parts:      fields,
		Credential: credential,
	})
	if err != nil {
		return nil, err
	}

	var raw struct {
		Results       []rawUploadResult `json:"results"`
		DetectedTasks []json.RawMessage `json:"detected_tasks"`
	}
	if err := resp.Decode(&raw); err != nil {
		return nil, err
	}

	out := &models.IngestionOutcome{
		Results:       make([]models.UploadResult, len(raw.Results)),
		DetectedTasks: decodeEach[models.Task](c.logger, "task", raw.DetectedTasks),
	}
	for i, r := range raw.Results {
		out.Results[i] = r.toModel("")
	}
	return out, nil
}

// UploadFile submits a single file (sequential mode).
func (c *Client) UploadFile(ctx context.Context, part transport.Part, credential string) (models.UploadResult, error) {
	part.Field = c.caps.IngestField
	resp, err := c.tr.Send(ctx, &transport.Request{
		Method:     http.MethodPost,
		Path:       c.caps.IngestPath,
		Parts:      []transport.Part{part},
		Credential: credential,
	})
	if err != nil {
		return models.UploadResult{}, err
	}

	// The batch endpoint wraps its answer in a results envelope even for a
	// single file; the legacy one returns the result bare.
	var raw struct {
		rawUploadResult
		Results []rawUploadResult `json:"results"`
	}
	if err := resp.Decode(&raw); err != nil {
		return models.UploadResult{}, err
	}
	if len(raw.Results) > 0 {
		return raw.Results[0].toModel(part.Filename), nil
	}
	return raw.rawUploadResult.toModel(part.Filename), nil
}

// rawUploadResult accepts both dialects: the legacy service reports
// failures under "message" instead of "error".
type rawUploadResult struct {
	Filename       string `json:"filename"`
	Status         string `json:"status"`
	ChunksIndexed  *int   `json:"chunks_indexed"`
	TasksExtracted *int   `json:"tasks_extracted"`
	Error          string `json:"error"`
	Message        string `json:"message"`
}

func (r rawUploadResult) toModel(fallbackName string) models.UploadResult {
	res := models.UploadResult{
		Filename:       r.Filename,
		Status:         r.Status,
		ChunksIndexed:  r.ChunksIndexed,
		TasksExtracted: r.TasksExtracted,
		Error:          r.Error,
	}
	if res.Filename == "" {
		res.Filename = fallbackName
	}
	if res.Status == "" {
		res.Status = models.UploadStatusError
		res.Error = "no status returned"
	}
	if res.Error == "" && res.Status == models.UploadStatusError {
		res.Error = r.Message
	}
	return res
}

// IngestText submits raw text for indexing and task extraction.
func (c *Client) IngestText(ctx context.Context, text, source, credential string) (*models.TextIngestion, error) {
	if source == "" {
		source = "manual"
	}
	resp, err := c.tr.Send(ctx, &transport.Request{
		Method:     http.MethodPost,
		Path:       "/ingest/text",
		Query:      url.Values{"text": {text}, "source": {source}},
		Credential: credential,
	})
	if err != nil {
		return nil, err
	}

	var raw struct {
		Status        string            `json:"status"`
		ChunksIndexed int               `json:"chunks_indexed"`
		DetectedTasks []json.RawMessage `json:"detected_tasks"`
	}
	if err := resp.Decode(&raw); err != nil {
		return nil, err
	}
	return &models.TextIngestion{
		Status:        raw.Status,
		ChunksIndexed: raw.ChunksIndexed,
		DetectedTasks: decodeEach[models.Task](c.logger, "task", raw.DetectedTasks),
	}, nil
}

// --- Research ---

// Search runs a semantic search. maxResults is sent only to backends that accept it.
func (c *Client) Search(ctx context.Context, query string, maxResults int, credential string) (*models.SearchResponse, error) {
	body := map[string]any{"query": query}
	if c.caps.SearchSendsLimit {
		if maxResults <= 0 {
			maxResults = 5
		}
		body["max_results"] = maxResults
	}
	var out models.SearchResponse
	if err := c.post(ctx, "", c.caps.SearchPath, body, credential, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Ask asks a question answered from indexed documents.
func (c *Client) Ask(ctx context.Context, query string, contextLimit int, credential string) (*models.Answer, error) {
	if contextLimit <= 0 {
		contextLimit = 5
	}
	body := map[string]any{"query": query, "context_limit": contextLimit}
	var out models.Answer
	if err := c.post(ctx, "", "/research/question", body, credential, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// --- Tasks ---

// ListTasks fetches tasks, optionally filtered by status.
func (c *Client) ListTasks(ctx context.Context, status, credential string) ([]models.Task, error) {
	var query url.Values
	if status != "" {
		query = url.Values{"status": {status}}
	}
	resp, err := c.tr.Send(ctx, &transport.Request{
		Method:     http.MethodGet,
		Path:       "/tasks",
		Query:      query,
		Credential: credential,
	})
	if err != nil {
		return nil, err
	}

	var raw struct {
		Tasks []json.RawMessage `json:"tasks"`
	}
	if err := resp.Decode(&raw); err != nil {
		return nil, err
	}
	return decodeEach[models.Task](c.logger, "task", raw.Tasks), nil
}

// CreateTask creates a task.
func (c *Client) CreateTask(ctx context.Context, task models.NewTask, credential string) (*models.Task, error) {
	var out struct {
		Task models.Task `json:"task"`
	}
	if err := c.post(ctx, "", "/tasks", task, credential, &out); err != nil {
		return nil, err
	}
	return &out.Task, nil
}

// ApproveTask approves a detected task and returns the backend message.
func (c *Client) ApproveTask(ctx context.Context, id int64, credential string) (string, error) {
	return c.taskDecision(ctx, "approve", id, credential)
}

// RejectTask rejects a detected task and returns the backend message.
func (c *Client) RejectTask(ctx context.Context, id int64, credential string) (string, error) {
	return c.taskDecision(ctx, "reject", id, credential)
}

func (c *Client) taskDecision(ctx context.Context, action string, id int64, credential string) (string, error) {
	var out struct {
		Message string `json:"message"`
	}
	path := "/tasks/" + action + "/" + strconv.FormatInt(id, 10)
	if err := c.post(ctx, "", path, nil, credential, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

// --- Meetings and scheduling ---

// SubmitTranscript submits a meeting transcript for summarization and task extraction.
func (c *Client) SubmitTranscript(ctx context.Context, title *string, transcript, credential string) (*models.MeetingResult, error) {
	body := map[string]any{"title": title, "transcript": transcript}
	resp, err := c.tr.Send(ctx, &transport.Request{
		Method:     http.MethodPost,
		Path:       "/meetings/transcript",
		JSON:       body,
		Credential: credential,
	})
	if err != nil {
		return nil, err
	}

	var raw struct {
		MeetingID     int64             `json:"meeting_id"`
		Summary       string            `json:"summary"`
		DetectedTasks []json.RawMessage `json:"detected_tasks"`
	}
	if err := resp.Decode(&raw); err != nil {
		return nil, err
	}
	return &models.MeetingResult{
		MeetingID:     raw.MeetingID,
		Summary:       raw.Summary,
		DetectedTasks: decodeEach[models.Task](c.logger, "task", raw.DetectedTasks),
	}, nil
}

// MeetingSummaries lists recent meeting summaries.
func (c *Client) MeetingSummaries(ctx context.Context, credential string) ([]models.MeetingSummary, error) {
	var out struct {
		Summaries []models.MeetingSummary `json:"summaries"`
	}
	if err := c.get(ctx, "", "/meetings/summaries", credential, &out); err != nil {
		return nil, err
	}
	return out.Summaries, nil
}

// ScheduleProposals lists scheduling proposals for approved tasks.
func (c *Client) ScheduleProposals(ctx context.Context, credential string) ([]models.ScheduleProposal, error) {
	var out struct {
		Proposals []models.ScheduleProposal `json:"proposals"`
	}
	if err := c.get(ctx, "", "/scheduler/proposals", credential, &out); err != nil {
		return nil, err
	}
	return out.Proposals, nil
}

// --- Confirmations (served by the auth service) ---

// PendingConfirmations fetches confirmations awaiting review.
func (c *Client) PendingConfirmations(ctx context.Context, credential string) ([]models.Confirmation, error) {
	var raw struct {
		Pending []json.RawMessage `json:"pending"`
	}
	if err := c.get(ctx, c.caps.AuthURL, "/confirmations", credential, &raw); err != nil {
		return nil, err
	}
	return decodeEach[models.Confirmation](c.logger, "confirmation", raw.Pending), nil
}

// ApproveConfirmation approves a pending confirmation.
func (c *Client) ApproveConfirmation(ctx context.Context, id, credential string) error {
	return c.post(ctx, c.caps.AuthURL, "/confirmations/"+url.PathEscape(id)+"/approve", nil, credential, nil)
}

// RejectConfirmation rejects a pending confirmation.
func (c *Client) RejectConfirmation(ctx context.Context, id, credential string) error {
	return c.post(ctx, c.caps.AuthURL, "/confirmations/"+url.PathEscape(id)+"/reject", nil, credential, nil)
}

// --- Health ---

// HealthStatus probes path and returns the body's status field.
func (c *Client) HealthStatus(ctx context.Context, path string, timeout time.Duration) (string, error) {
	resp, err := c.tr.Send(ctx, &transport.Request{
		Method:  http.MethodGet,
		Path:    path,
		Timeout: timeout,
	})
	if err != nil {
		return "", err
	}
	if resp.Status != http.StatusOK {
		return "", fmt.Errorf("health check returned status %d", resp.Status)
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := resp.Decode(&body); err != nil {
		return "", err
	}
	return body.Status, nil
}

// --- Auth (served by the auth service) ---

// Login exchanges credentials for a session token. A backend-reported
// failure is returned as an error carrying the backend message.
func (c *Client) Login(ctx context.Context, username, password string) (*models.AuthResult, error) {
	body := map[string]string{"username": username, "password": password}
	return c.auth(ctx, "/auth/login", body, "")
}

// Signup registers a new account.
func (c *Client) Signup(ctx context.Context, username, password, email string) (*models.AuthResult, error) {
	body := map[string]string{"username": username, "password": password, "email": email}
	return c.auth(ctx, "/auth/signup", body, "")
}

// Logout ends the session identified by credential.
func (c *Client) Logout(ctx context.Context, credential string) error {
	_, err := c.auth(ctx, "/auth/logout", nil, credential)
	return err
}

func (c *Client) auth(ctx context.Context, path string, body any, credential string) (*models.AuthResult, error) {
	var out models.AuthResult
	if err := c.post(ctx, c.caps.AuthURL, path, body, credential, &out); err != nil {
		return nil, err
	}
	if !out.Success {
		msg := out.Error
		if msg == "" {
			msg = "request failed"
		}
		return &out, fmt.Errorf("%s: %s", path, msg)
	}
	return &out, nil
}

// request helpers

func (c *Client) get(ctx context.Context, base, path, credential string, result any) error {
	resp, err := c.tr.Send(ctx, &transport.Request{
		Method:     http.MethodGet,
		BaseURL:    base,
		Path:       path,
		Credential: credential,
	})
	if err != nil {
		return err
	}
	if result == nil {
		return nil
	}
	return resp.Decode(result)
}

func (c *Client) post(ctx context.Context, base, path string, body any, credential string, result any) error {
	resp, err := c.tr.Send(ctx, &transport.Request{
		Method:     http.MethodPost,
		BaseURL:    base,
		Path:       path,
		JSON:       body,
		Credential: credential,
	})
	if err != nil {
		return err
	}
	if result == nil || len(resp.Body) == 0 {
		return nil
	}
	return resp.Decode(result)
}

// decodeEach decodes records one at a time so a single malformed record
// is skipped instead of failing the whole list.
func decodeEach[T any](logger *log.Logger, what string, raw []json.RawMessage) []T {
	out := make([]T, 0, len(raw))
	for i, r := range raw {
		var v T
		if err := json.Unmarshal(r, &v); err != nil {
			logger.Printf("Skipping malformed %s at index %d: %v", what, i, err)
			continue
		}
		out = append(out, v)
	}
	return out
}
