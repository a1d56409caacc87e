package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNew(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "journal.db")

	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
	if err := s.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}

func TestNew_ReopenKeepsEntries(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "journal.db")

	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, err := s.WriteEntry("task.approve", "hash", "success", "7", ""); err != nil {
		t.Fatalf("WriteEntry failed: %v", err)
	}
	s.Close()

	s, err = New(dbPath)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	defer s.Close()

	entries, err := s.ListJournal(JournalFilter{})
	if err != nil {
		t.Fatalf("ListJournal failed: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("Expected 1 entry after reopen, got %d", len(entries))
	}
}

func TestJournal(t *testing.T) {
	s := newTestStore(t)

	first, err := s.WriteEntry("task.approve", "h1", "success", "42", "")
	if err != nil {
		t.Fatalf("WriteEntry failed: %v", err)
	}
	if first.ID == "" {
		t.Error("Entry ID should not be empty")
	}
	time.Sleep(5 * time.Millisecond)
	if _, err := s.WriteEntry("confirmation.reject", "h2", "failed", "ab12cd34", "server error: boom"); err != nil {
		t.Fatalf("WriteEntry failed: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, err := s.WriteEntry("task.reject", "h3", "success", "42", ""); err != nil {
		t.Fatalf("WriteEntry failed: %v", err)
	}

	all, err := s.ListJournal(JournalFilter{})
	if err != nil {
		t.Fatalf("ListJournal failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(all))
	}
	if all[0].Action != "task.reject" {
		t.Errorf("Expected newest first, got %s", all[0].Action)
	}
	if all[1].Details != "server error: boom" {
		t.Errorf("Expected details to round-trip, got %q", all[1].Details)
	}

	bySubject, err := s.ListJournal(JournalFilter{Subject: "42"})
	if err != nil {
		t.Fatalf("ListJournal failed: %v", err)
	}
	if len(bySubject) != 2 {
		t.Errorf("Expected 2 entries for subject 42, got %d", len(bySubject))
	}

	byAction, err := s.ListJournal(JournalFilter{Action: "task.approve"})
	if err != nil {
		t.Fatalf("ListJournal failed: %v", err)
	}
	if len(byAction) != 1 || byAction[0].InputsHash != "h1" {
		t.Errorf("Unexpected action filter result: %+v", byAction)
	}

	limited, err := s.ListJournal(JournalFilter{Limit: 1})
	if err != nil {
		t.Fatalf("ListJournal failed: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("Expected limit to apply, got %d", len(limited))
	}
}

func TestPruneJournal(t *testing.T) {
	s := newTestStore(t)
	for i := 0; i < 3; i++ {
		if _, err := s.WriteEntry("ingest.batch", "h", "success", "", ""); err != nil {
			t.Fatalf("WriteEntry failed: %v", err)
		}
	}

	n, err := s.PruneJournal(time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("PruneJournal failed: %v", err)
	}
	if n != 0 {
		t.Errorf("Expected nothing pruned, got %d", n)
	}

	n, err = s.PruneJournal(time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("PruneJournal failed: %v", err)
	}
	if n != 3 {
		t.Errorf("Expected 3 pruned, got %d", n)
	}
}
