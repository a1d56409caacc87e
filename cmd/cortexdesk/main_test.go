package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fentz26/cortexdesk/internal/fakebackend"
	"github.com/fentz26/cortexdesk/internal/models"
)

// setupCLI starts a fake backend and points a config file at it. HOME is
// redirected so the session file lands in a temp dir.
func setupCLI(t *testing.T) (*fakebackend.Backend, string) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)

	backend := fakebackend.New()
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	cfgPath := filepath.Join(home, "config.yaml")
	cfg := fmt.Sprintf("dialect: modern\nbase_url: %s/api\nauth_url: %s\nmax_file_size_mb: 1\njournal_path: %s\n",
		srv.URL, srv.URL, filepath.Join(home, "journal.db"))
	if err := os.WriteFile(cfgPath, []byte(cfg), 0600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return backend, cfgPath
}

func execute(t *testing.T, cfgPath string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(""))
	rootCmd.SetArgs(append([]string{"--config", cfgPath, "--no-color"}, args...))
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCLI_TasksApproveAndHistory(t *testing.T) {
	backend, cfg := setupCLI(t)
	task := backend.AddTask("Send the signed contract", models.TaskStatusDetected)

	out, err := execute(t, cfg, "tasks", "list", "--view", "detected")
	if err != nil {
		t.Fatalf("tasks list failed: %v", err)
	}
	if !strings.Contains(out, "Send the signed contract") {
		t.Errorf("Expected task in list output:\n%s", out)
	}

	id := fmt.Sprint(task.ID)
	out, err = execute(t, cfg, "tasks", "approve", id)
	if err != nil {
		t.Fatalf("tasks approve failed: %v", err)
	}
	if !strings.Contains(out, "approved") {
		t.Errorf("Unexpected approve output: %q", out)
	}

	// Terminal tasks are refused without a decision request.
	before := backend.Requests("POST /tasks/reject/" + id)
	if _, err := execute(t, cfg, "tasks", "reject", id); err == nil {
		t.Error("Expected reject of an approved task to fail")
	}
	if backend.Requests("POST /tasks/reject/"+id) != before {
		t.Error("Expected no reject request for a terminal task")
	}

	out, err = execute(t, cfg, "history", "--action", "task.approve")
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if !strings.Contains(out, "task.approve") || !strings.Contains(out, "success") {
		t.Errorf("Expected journaled approval:\n%s", out)
	}
}

func TestCLI_IngestRejectsOversizedFile(t *testing.T) {
	backend, cfg := setupCLI(t)

	dir := t.TempDir()
	small := filepath.Join(dir, "a.txt")
	big := filepath.Join(dir, "b.pdf")
	os.WriteFile(small, []byte("hello"), 0644)
	f, err := os.Create(big)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	f.Truncate(2 * 1024 * 1024)
	f.Close()

	_, err = execute(t, cfg, "ingest", small, big)
	if err == nil || !strings.Contains(err.Error(), "too large") {
		t.Fatalf("Expected too-large error, got %v", err)
	}
	if backend.Requests("POST /ingest/files") != 0 {
		t.Error("Expected no upload when a file is oversized")
	}

	out, err := execute(t, cfg, "ingest", small)
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
	if !strings.Contains(out, "a.txt") || !strings.Contains(out, "ingested") {
		t.Errorf("Unexpected ingest output:\n%s", out)
	}
}

func TestCLI_AccountFlow(t *testing.T) {
	_, cfg := setupCLI(t)

	if _, err := execute(t, cfg, "signup", "-u", "dana", "-p", "s3cret"); err != nil {
		t.Fatalf("signup failed: %v", err)
	}
	if _, err := execute(t, cfg, "login", "-u", "dana", "-p", "s3cret"); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	out, err := execute(t, cfg, "whoami")
	if err != nil {
		t.Fatalf("whoami failed: %v", err)
	}
	if strings.TrimSpace(out) != "dana" {
		t.Errorf("Expected dana, got %q", out)
	}

	if _, err := execute(t, cfg, "logout"); err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	out, _ = execute(t, cfg, "whoami")
	if !strings.Contains(out, "Not signed in") {
		t.Errorf("Expected signed out, got %q", out)
	}
}

func TestCLI_ConfirmationsAndHealth(t *testing.T) {
	backend, cfg := setupCLI(t)
	id := backend.AddConfirmation("Email the venue", 0.87)

	out, err := execute(t, cfg, "confirmations", "list")
	if err != nil {
		t.Fatalf("confirmations list failed: %v", err)
	}
	if !strings.Contains(out, "Email the venue") || !strings.Contains(out, "87%") {
		t.Errorf("Unexpected confirmations output:\n%s", out)
	}

	if _, err := execute(t, cfg, "confirmations", "approve", id); err != nil {
		t.Fatalf("confirmations approve failed: %v", err)
	}
	if backend.ConfirmationStatus(id) != "approved" {
		t.Errorf("Expected approved, got %q", backend.ConfirmationStatus(id))
	}

	out, err = execute(t, cfg, "health")
	if err != nil {
		t.Fatalf("health failed: %v", err)
	}
	if !strings.Contains(out, "Status:   up") {
		t.Errorf("Unexpected health output:\n%s", out)
	}
}
