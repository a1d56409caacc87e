package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestTaskStatusIsTerminal(t *testing.T) {
	cases := map[TaskStatus]bool{
		TaskStatusDetected: false,
		TaskStatusPending:  false,
		TaskStatusApproved: true,
		TaskStatusRejected: true,
	}
	for status, want := range cases {
		if got := status.IsTerminal(); got != want {
			t.Errorf("%s.IsTerminal() = %v, want %v", status, got, want)
		}
	}
}

func TestConfirmationFallbacks(t *testing.T) {
	var c Confirmation
	if err := json.Unmarshal([]byte(`{"id":"c1","confidence":0.5,"data":{}}`), &c); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if c.Data.Text() != "No description" {
		t.Errorf("Unexpected text: %q", c.Data.Text())
	}
	if c.Data.AssigneeOrDefault() != "Unassigned" {
		t.Errorf("Unexpected assignee: %q", c.Data.AssigneeOrDefault())
	}
	if c.Data.PriorityOrDefault() != "Normal" {
		t.Errorf("Unexpected priority: %q", c.Data.PriorityOrDefault())
	}
	if c.Data.DeadlineOrDefault() != "Not set" {
		t.Errorf("Unexpected deadline: %q", c.Data.DeadlineOrDefault())
	}
	if !c.IsPending() || c.StatusLabel() != "PENDING" {
		t.Errorf("Expected missing status to read as pending, got %q", c.StatusLabel())
	}

	c.Data.Description = "Call the caterer"
	if c.Data.Text() != "Call the caterer" {
		t.Errorf("Expected description fallback, got %q", c.Data.Text())
	}
	c.Data.Task = "Email the venue"
	if c.Data.Text() != "Email the venue" {
		t.Errorf("Expected task text, got %q", c.Data.Text())
	}

	c.Status = "approved"
	if c.IsPending() {
		t.Error("Approved confirmation reported as pending")
	}
}

func TestConfirmationCreated(t *testing.T) {
	cases := []struct {
		in   string
		ok   bool
		want time.Time
	}{
		{"2024-03-01T09:30:00Z", true, time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)},
		{"2024-03-01T09:30:00.123456", true, time.Date(2024, 3, 1, 9, 30, 0, 123456000, time.Local)},
		{"2024-03-01 09:30:00", true, time.Date(2024, 3, 1, 9, 30, 0, 0, time.Local)},
		{"yesterday", false, time.Time{}},
		{"", false, time.Time{}},
	}
	for _, tc := range cases {
		got, ok := Confirmation{CreatedAt: tc.in}.Created()
		if ok != tc.ok {
			t.Errorf("Created(%q) ok = %v, want %v", tc.in, ok, tc.ok)
			continue
		}
		if ok && !got.Equal(tc.want) {
			t.Errorf("Created(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestIngestionOutcomeFailed(t *testing.T) {
	out := IngestionOutcome{Results: []UploadResult{
		{Filename: "a.txt", Status: UploadStatusIngested},
		{Filename: "b.pdf", Status: UploadStatusError, Error: "Unsupported"},
		{Filename: "c.md", Status: UploadStatusError},
	}}
	if n := out.Failed(); n != 2 {
		t.Errorf("Expected 2 failures, got %d", n)
	}
}

func TestConnectivityString(t *testing.T) {
	if ConnectivityUp.String() != "up" || ConnectivityDown.String() != "down" || ConnectivityUnknown.String() != "unknown" {
		t.Error("Unexpected connectivity names")
	}
}
