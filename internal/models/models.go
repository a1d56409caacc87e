// Package models defines the core domain types for CortexDesk.
package models

import (
	"strings"
	"time"
)

// TaskStatus represents the current state of a task.
type TaskStatus string

const (
	TaskStatusDetected TaskStatus = "detected"
	TaskStatusApproved TaskStatus = "approved"
	TaskStatusRejected TaskStatus = "rejected"
	// TaskStatusPending is used by some backends for tasks awaiting scheduling.
	TaskStatusPending TaskStatus = "pending"
)

// IsTerminal reports whether no client transition leads out of the status.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusApproved || s == TaskStatusRejected
}

// Task represents an action item extracted by the backend.
type Task struct {
	ID           int64      `json:"id"`
	Title        string     `json:"title"`
	Description  *string    `json:"description,omitempty"`
	Status       TaskStatus `json:"status"`
	Priority     *string    `json:"priority,omitempty"`
	DueDate      *string    `json:"due_date,omitempty"`
	ScheduledFor *string    `json:"scheduled_for,omitempty"`
}

// NewTask is the payload for creating a task.
type NewTask struct {
	Title        string     `json:"title"`
	Description  *string    `json:"description,omitempty"`
	Status       TaskStatus `json:"status,omitempty"`
	Priority     *string    `json:"priority,omitempty"`
	DueDate      *string    `json:"due_date,omitempty"`
	ScheduledFor *string    `json:"scheduled_for,omitempty"`
}

// ConfirmationStatusPending is the only non-terminal confirmation status.
const ConfirmationStatusPending = "pending"

// ConfirmationData carries the task-like payload of a confirmation.
type ConfirmationData struct {
	Task        string `json:"task,omitempty"`
	Description string `json:"description,omitempty"`
	Assignee    string `json:"assignee,omitempty"`
	Priority    string `json:"priority,omitempty"`
	Deadline    string `json:"deadline,omitempty"`
}

// Text returns the task text, falling back to the description.
func (d ConfirmationData) Text() string {
	if d.Task != "" {
		return d.Task
	}
	if d.Description != "" {
		return d.Description
	}
	return "No description"
}

// AssigneeOrDefault returns the assignee or "Unassigned".
func (d ConfirmationData) AssigneeOrDefault() string {
	return orDefault(d.Assignee, "Unassigned")
}

// PriorityOrDefault returns the priority or "Normal".
func (d ConfirmationData) PriorityOrDefault() string {
	return orDefault(d.Priority, "Normal")
}

// DeadlineOrDefault returns the deadline or "Not set".
func (d ConfirmationData) DeadlineOrDefault() string {
	return orDefault(d.Deadline, "Not set")
}

// Confirmation is a server-detected candidate action item awaiting review.
type Confirmation struct {
	ID         string           `json:"id"`
	Status     string           `json:"status,omitempty"`
	Confidence float64          `json:"confidence"`
	Data       ConfirmationData `json:"data"`
	CreatedAt  string           `json:"created_at"`
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// Created parses CreatedAt. Backends emit ISO-8601 with or without a zone;
// zone-less values are read as local time.
func (c Confirmation) Created() (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, c.CreatedAt, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// IsPending reports whether the confirmation still awaits a decision.
// A missing status counts as pending.
func (c Confirmation) IsPending() bool {
	return c.Status == "" || c.Status == ConfirmationStatusPending
}

// StatusLabel returns the display status.
func (c Confirmation) StatusLabel() string {
	return strings.ToUpper(orDefault(c.Status, ConfirmationStatusPending))
}

// Upload result statuses reported per file.
const (
	UploadStatusIngested = "ingested"
	UploadStatusError    = "error"
)

// UploadResult is the outcome of ingesting a single file.
type UploadResult struct {
	Filename       string `json:"filename"`
	Status         string `json:"status"`
	ChunksIndexed  *int   `json:"chunks_indexed,omitempty"`
	TasksExtracted *int   `json:"tasks_extracted,omitempty"`
	Error          string `json:"error,omitempty"`
}

// Failed reports whether the file was not ingested.
func (r UploadResult) Failed() bool {
	return r.Status == UploadStatusError
}

// IngestionOutcome aggregates the results of one upload batch.
type IngestionOutcome struct {
	Results       []UploadResult `json:"results"`
	DetectedTasks []Task         `json:"detected_tasks"`
}

// Failed returns the number of files that were not ingested.
func (o *IngestionOutcome) Failed() int {
	n := 0
	for _, r := range o.Results {
		if r.Failed() {
			n++
		}
	}
	return n
}

// Connectivity is the tri-state backend reachability signal.
type Connectivity int

const (
	ConnectivityUnknown Connectivity = iota
	ConnectivityUp
	ConnectivityDown
)

func (c Connectivity) String() string {
	switch c {
	case ConnectivityUp:
		return "up"
	case ConnectivityDown:
		return "down"
	default:
		return "unknown"
	}
}

// TextIngestion is the response to ingesting raw text.
type TextIngestion struct {
	Status        string `json:"status"`
	ChunksIndexed int    `json:"chunks_indexed"`
	DetectedTasks []Task `json:"detected_tasks"`
}

// SearchResult is a single semantic search hit.
type SearchResult struct {
	Text       string  `json:"text"`
	Source     string  `json:"source"`
	Similarity float64 `json:"similarity"`
	Timestamp  string  `json:"timestamp,omitempty"`
}

// SearchResponse is the response of a semantic search.
type SearchResponse struct {
	Query   string         `json:"query"`
	Results []SearchResult `json:"results"`
}

// Citation points at a source chunk backing an answer.
type Citation struct {
	Source string  `json:"source"`
	Text   string  `json:"text,omitempty"`
	Score  float64 `json:"score,omitempty"`
}

// Answer is the response to a research question.
type Answer struct {
	Answer    string     `json:"answer"`
	Citations []Citation `json:"citations"`
}

// MeetingResult is the response to submitting a meeting transcript.
type MeetingResult struct {
	MeetingID     int64  `json:"meeting_id"`
	Summary       string `json:"summary"`
	DetectedTasks []Task `json:"detected_tasks"`
}

// MeetingSummary is a stored meeting summary.
type MeetingSummary struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	CreatedAt string `json:"created_at"`
	Summary   string `json:"summary"`
}

// ScheduleProposal is a backend-defined scheduling suggestion.
type ScheduleProposal map[string]any

// AuthResult is the response of the auth endpoints.
type AuthResult struct {
	Success  bool   `json:"success"`
	Token    string `json:"token,omitempty"`
	Username string `json:"username,omitempty"`
	Error    string `json:"error,omitempty"`
}

// JournalEntry records a state-mutating user action for audit.
type JournalEntry struct {
	ID         string    `json:"id"`
	Action     string    `json:"action"`
	InputsHash string    `json:"inputs_hash"`
	Outcome    string    `json:"outcome"`
	Subject    string    `json:"subject,omitempty"`
	Details    string    `json:"details,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
