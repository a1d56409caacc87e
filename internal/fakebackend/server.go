// Package fakebackend is an in-memory implementation of both backend
// dialects. It serves local development (cortexdesk mock-backend) and the
// package tests.
package fakebackend

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fentz26/cortexdesk/internal/models"
	"github.com/google/uuid"
)

// Backend is the fake service. Seeding and failure injection go through
// its methods, which are safe to call while it serves.
type Backend struct {
	mu sync.Mutex

	tasks         map[int64]*models.Task
	nextTaskID    int64
	confirmations []*models.Confirmation
	users         map[string]string // username -> password
	sessions      map[string]string // token -> username
	meetings      []models.MeetingSummary
	requests      map[string]int

	uploadErrors   map[string]string
	listTasksFails int
	healthStatus   string
	healthDelay    time.Duration
	requireAuth    bool
	beforePending  func()
}

// New creates an empty backend.
func New() *Backend {
	return &Backend{
		tasks:        make(map[int64]*models.Task),
		nextTaskID:   1,
		users:        make(map[string]string),
		sessions:     make(map[string]string),
		requests:     make(map[string]int),
		uploadErrors: make(map[string]string),
		healthStatus: "healthy",
	}
}

// --- Seeding and failure injection ---

// AddTask stores a task with the given title and status and returns it.
func (b *Backend) AddTask(title string, status models.TaskStatus) models.Task {
	b.mu.Lock()
	defer b.mu.Unlock()
	return *b.addTaskLocked(title, status)
}

func (b *Backend) addTaskLocked(title string, status models.TaskStatus) *models.Task {
	t := &models.Task{ID: b.nextTaskID, Title: title, Status: status}
	b.tasks[t.ID] = t
	b.nextTaskID++
	return t
}

// Task returns a copy of the stored task.
func (b *Backend) Task(id int64) (models.Task, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.tasks[id]
	if !ok {
		return models.Task{}, false
	}
	return *t, true
}

// AddConfirmation stores a pending confirmation and returns its id.
func (b *Backend) AddConfirmation(text string, confidence float64) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	c := &models.Confirmation{
		ID:         uuid.New().String()[:8],
		Status:     models.ConfirmationStatusPending,
		Confidence: confidence,
		Data:       models.ConfirmationData{Task: text},
		CreatedAt:  time.Now().Format("2006-01-02T15:04:05.000000"),
	}
	b.confirmations = append(b.confirmations, c)
	return c.ID
}

// ConfirmationStatus returns the stored status of a confirmation.
func (b *Backend) ConfirmationStatus(id string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, c := range b.confirmations {
		if c.ID == id {
			return c.Status
		}
	}
	return ""
}

// FailUpload makes ingestion of filename fail with message.
func (b *Backend) FailUpload(filename, message string) {
	b.mu.Lock()
	b.uploadErrors[filename] = message
	b.mu.Unlock()
}

// FailListTasks makes the next n task listings fail with a 500.
func (b *Backend) FailListTasks(n int) {
	b.mu.Lock()
	b.listTasksFails = n
	b.mu.Unlock()
}

// SetHealth sets the health status reported and an optional response delay.
func (b *Backend) SetHealth(status string, delay time.Duration) {
	b.mu.Lock()
	b.healthStatus = status
	b.healthDelay = delay
	b.mu.Unlock()
}

// RequireAuth makes confirmation endpoints demand a valid bearer token.
func (b *Backend) RequireAuth(on bool) {
	b.mu.Lock()
	b.requireAuth = on
	b.mu.Unlock()
}

// BeforePending installs a hook run before serving GET /confirmations.
func (b *Backend) BeforePending(fn func()) {
	b.mu.Lock()
	b.beforePending = fn
	b.mu.Unlock()
}

// Requests returns how many requests hit "METHOD /path".
func (b *Backend) Requests(key string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.requests[key]
}

// TotalRequests returns the number of requests served.
func (b *Backend) TotalRequests() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, v := range b.requests {
		n += v
	}
	return n
}

// --- HTTP ---

// ServeHTTP routes both dialects. The modern service lives under /api.
func (b *Backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api")
	if path == "" {
		path = "/"
	}

	b.mu.Lock()
	b.requests[r.Method+" "+path]++
	b.mu.Unlock()

	switch {
	case path == "/" && r.Method == http.MethodGet:
		b.handleRoot(w, r)
	case path == "/health" && r.Method == http.MethodGet:
		b.handleHealth(w, r)
	case path == "/ingest/files" && r.Method == http.MethodPost:
		b.handleIngestFiles(w, r)
	case path == "/upload" && r.Method == http.MethodPost:
		b.handleUpload(w, r)
	case path == "/ingest/text" && r.Method == http.MethodPost:
		b.handleIngestText(w, r)
	case (path == "/research/query" || path == "/search") && r.Method == http.MethodPost:
		b.handleSearch(w, r)
	case path == "/research/question" && r.Method == http.MethodPost:
		b.handleQuestion(w, r)
	case path == "/tasks" || path == "/tasks/":
		b.handleTasks(w, r)
	case strings.HasPrefix(path, "/tasks/") && r.Method == http.MethodPost:
		b.handleTaskDecision(w, r, strings.TrimPrefix(path, "/tasks/"))
	case path == "/meetings/transcript" && r.Method == http.MethodPost:
		b.handleTranscript(w, r)
	case path == "/meetings/summaries" && r.Method == http.MethodGet:
		b.handleSummaries(w, r)
	case path == "/scheduler/proposals" && r.Method == http.MethodGet:
		b.handleProposals(w, r)
	case path == "/confirmations" && r.Method == http.MethodGet:
		b.handlePending(w, r)
	case strings.HasPrefix(path, "/confirmations/") && r.Method == http.MethodPost:
		b.handleConfirmationDecision(w, r, strings.TrimPrefix(path, "/confirmations/"))
	case strings.HasPrefix(path, "/auth/") && r.Method == http.MethodPost:
		b.handleAuth(w, r, strings.TrimPrefix(path, "/auth/"))
	default:
		writeDetail(w, http.StatusNotFound, "Not Found")
	}
}

func (b *Backend) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"name":    "Local AI Workspace Assistant",
		"version": "1.0.0",
		"status":  "running",
	})
}

func (b *Backend) handleHealth(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	status, delay := b.healthStatus, b.healthDelay
	b.mu.Unlock()

	if delay > 0 {
		select {
		case <-r.Context().Done():
			return
		case <-time.After(delay):
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": status})
}

func (b *Backend) handleIngestFiles(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeDetail(w, http.StatusBadRequest, "No files uploaded")
		return
	}
	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		writeDetail(w, http.StatusBadRequest, "No files uploaded")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	results := make([]map[string]any, 0, len(headers))
	detected := []models.Task{}
	for _, h := range headers {
		if msg, ok := b.uploadErrors[h.Filename]; ok {
			results = append(results, map[string]any{"filename": h.Filename, "status": "error", "error": msg})
			continue
		}
		if h.Size == 0 {
			results = append(results, map[string]any{"filename": h.Filename, "status": "error", "error": "File is empty"})
			continue
		}
		task := b.addTaskLocked("Review "+h.Filename, models.TaskStatusDetected)
		detected = append(detected, *task)
		results = append(results, map[string]any{
			"filename":        h.Filename,
			"status":          "ingested",
			"chunks_indexed":  chunkCount(h.Size),
			"tasks_extracted": 1,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results, "detected_tasks": detected})
}

func (b *Backend) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid multipart body")
		return
	}
	headers := r.MultipartForm.File["file"]
	if len(headers) != 1 {
		writeDetail(w, http.StatusUnprocessableEntity, "field required")
		return
	}
	name := headers[0].Filename

	b.mu.Lock()
	msg, failed := b.uploadErrors[name]
	b.mu.Unlock()
	if failed {
		writeDetail(w, http.StatusInternalServerError, msg)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"filename": name, "status": "ingested"})
}

func (b *Backend) handleIngestText(w http.ResponseWriter, r *http.Request) {
	text := strings.TrimSpace(r.URL.Query().Get("text"))
	if text == "" {
		writeDetail(w, http.StatusBadRequest, "text cannot be empty")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "ingested",
		"chunks_indexed": chunkCount(int64(len(text))),
		"detected_tasks": []models.Task{},
	})
}

func (b *Backend) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query      string `json:"query"`
		MaxResults int    `json:"max_results"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid json")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"query": req.Query,
		"results": []models.SearchResult{
			{Text: "Notes mentioning " + req.Query, Source: "notes.txt", Similarity: 0.82},
		},
	})
}

func (b *Backend) handleQuestion(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query        string `json:"query"`
		ContextLimit int    `json:"context_limit"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid json")
		return
	}
	writeJSON(w, http.StatusOK, models.Answer{
		Answer:    "No indexed document answers **" + req.Query + "** yet.",
		Citations: []models.Citation{{Source: "notes.txt", Score: 0.5}},
	})
}

func (b *Backend) handleTasks(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		b.listTasks(w, r)
	case http.MethodPost:
		b.createTask(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (b *Backend) listTasks(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.listTasksFails > 0 {
		b.listTasksFails--
		writeDetail(w, http.StatusInternalServerError, "database unavailable")
		return
	}

	tasks := make([]models.Task, 0, len(b.tasks))
	for _, t := range b.tasks {
		if status == "" || string(t.Status) == status {
			tasks = append(tasks, *t)
		}
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })
	writeJSON(w, http.StatusOK, map[string]any{"tasks": tasks})
}

func (b *Backend) createTask(w http.ResponseWriter, r *http.Request) {
	var req models.NewTask
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Title) == "" {
		writeDetail(w, http.StatusBadRequest, "title is required")
		return
	}
	status := req.Status
	if status == "" {
		status = models.TaskStatusDetected
	}

	b.mu.Lock()
	t := b.addTaskLocked(req.Title, status)
	t.Description = req.Description
	t.Priority = req.Priority
	t.DueDate = req.DueDate
	t.ScheduledFor = req.ScheduledFor
	out := *t
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"task": out})
}

// handleTaskDecision serves /tasks/approve/{id} and /tasks/reject/{id}.
func (b *Backend) handleTaskDecision(w http.ResponseWriter, r *http.Request, rest string) {
	parts := strings.Split(rest, "/")
	if len(parts) != 2 {
		writeDetail(w, http.StatusNotFound, "Not Found")
		return
	}
	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "task_id must be an integer")
		return
	}

	var status models.TaskStatus
	switch parts[0] {
	case "approve":
		status = models.TaskStatusApproved
	case "reject":
		status = models.TaskStatusRejected
	default:
		writeDetail(w, http.StatusNotFound, "Not Found")
		return
	}

	b.mu.Lock()
	t, ok := b.tasks[id]
	if ok {
		t.Status = status
	}
	b.mu.Unlock()

	if !ok {
		writeDetail(w, http.StatusNotFound, "Task not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": fmt.Sprintf("Task %d %s", id, status)})
}

func (b *Backend) handleTranscript(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title      *string `json:"title"`
		Transcript string  `json:"transcript"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid json")
		return
	}
	if strings.TrimSpace(req.Transcript) == "" {
		writeDetail(w, http.StatusBadRequest, "transcript cannot be empty")
		return
	}

	title := "Untitled meeting"
	if req.Title != nil && *req.Title != "" {
		title = *req.Title
	}

	b.mu.Lock()
	var detected []models.Task
	for _, line := range strings.Split(req.Transcript, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(strings.ToLower(line), "todo:") {
			detected = append(detected, *b.addTaskLocked(strings.TrimSpace(line[5:]), models.TaskStatusDetected))
		}
	}
	summary := models.MeetingSummary{
		ID:        int64(len(b.meetings) + 1),
		Title:     title,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Summary:   fmt.Sprintf("%d lines discussed, %d action items.", len(strings.Split(req.Transcript, "\n")), len(detected)),
	}
	b.meetings = append(b.meetings, summary)
	b.mu.Unlock()

	if detected == nil {
		detected = []models.Task{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"meeting_id":     summary.ID,
		"summary":        summary.Summary,
		"detected_tasks": detected,
	})
}

func (b *Backend) handleSummaries(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	out := make([]models.MeetingSummary, len(b.meetings))
	copy(out, b.meetings)
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"summaries": out})
}

func (b *Backend) handleProposals(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	var proposals []map[string]any
	slot := time.Now().UTC().Truncate(time.Hour).Add(time.Hour)
	for _, t := range b.tasks {
		if t.Status == models.TaskStatusApproved && t.ScheduledFor == nil {
			proposals = append(proposals, map[string]any{"task_id": t.ID, "proposed_start": slot.Format(time.RFC3339)})
			slot = slot.Add(time.Hour)
		}
	}
	b.mu.Unlock()
	if proposals == nil {
		proposals = []map[string]any{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"proposals": proposals})
}

func (b *Backend) handlePending(w http.ResponseWriter, r *http.Request) {
	if !b.authorized(r) {
		writeDetail(w, http.StatusUnauthorized, "Invalid or expired token")
		return
	}

	b.mu.Lock()
	hook := b.beforePending
	b.mu.Unlock()
	if hook != nil {
		hook()
	}

	b.mu.Lock()
	pending := []models.Confirmation{}
	for _, c := range b.confirmations {
		if c.IsPending() {
			pending = append(pending, *c)
		}
	}
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"pending": pending})
}

// handleConfirmationDecision serves /confirmations/{id}/approve|reject.
func (b *Backend) handleConfirmationDecision(w http.ResponseWriter, r *http.Request, rest string) {
	if !b.authorized(r) {
		writeDetail(w, http.StatusUnauthorized, "Invalid or expired token")
		return
	}
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || (parts[1] != "approve" && parts[1] != "reject") {
		writeDetail(w, http.StatusNotFound, "Not Found")
		return
	}
	status := "approved"
	if parts[1] == "reject" {
		status = "rejected"
	}

	b.mu.Lock()
	var found *models.Confirmation
	for _, c := range b.confirmations {
		if c.ID == parts[0] {
			c.Status = status
			found = c
			break
		}
	}
	var item models.Confirmation
	if found != nil {
		item = *found
	}
	b.mu.Unlock()

	if found == nil {
		writeDetail(w, http.StatusInternalServerError, fmt.Sprintf("Item %s not found", parts[0]))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": status, "item": item})
}

func (b *Backend) handleAuth(w http.ResponseWriter, r *http.Request, action string) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Email    string `json:"email"`
	}
	if action != "logout" {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeDetail(w, http.StatusUnprocessableEntity, "invalid json")
			return
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	switch action {
	case "signup":
		if _, exists := b.users[req.Username]; exists {
			writeJSON(w, http.StatusOK, models.AuthResult{Success: false, Error: "Username already exists"})
			return
		}
		b.users[req.Username] = req.Password
		writeJSON(w, http.StatusOK, models.AuthResult{Success: true, Username: req.Username})
	case "login":
		if pw, ok := b.users[req.Username]; !ok || pw != req.Password {
			writeJSON(w, http.StatusOK, models.AuthResult{Success: false, Error: "Invalid credentials"})
			return
		}
		token := uuid.New().String()
		b.sessions[token] = req.Username
		writeJSON(w, http.StatusOK, models.AuthResult{Success: true, Token: token, Username: req.Username})
	case "logout":
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if _, ok := b.sessions[token]; !ok || token == "" {
			writeJSON(w, http.StatusOK, models.AuthResult{Success: false, Error: "No token provided"})
			return
		}
		delete(b.sessions, token)
		writeJSON(w, http.StatusOK, models.AuthResult{Success: true})
	default:
		writeDetail(w, http.StatusNotFound, "Not Found")
	}
}

func (b *Backend) authorized(r *http.Request) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.requireAuth {
		return true
	}
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	_, ok := b.sessions[token]
	return ok
}

func chunkCount(size int64) int {
	return int(size/1000) + 1
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
