package tui

import (
	"io"
	"log"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fentz26/cortexdesk/internal/api"
	"github.com/fentz26/cortexdesk/internal/confirmations"
	"github.com/fentz26/cortexdesk/internal/config"
	"github.com/fentz26/cortexdesk/internal/fakebackend"
	"github.com/fentz26/cortexdesk/internal/models"
	"github.com/fentz26/cortexdesk/internal/tasks"
)

func newTestApp(t *testing.T) (*fakebackend.Backend, *App) {
	t.Helper()
	DisableColor()

	backend := fakebackend.New()
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	cfg := config.DefaultConfig()
	cfg.BaseURL = srv.URL + "/api"
	cfg.AuthURL = srv.URL
	logger := log.New(io.Discard, "", 0)
	client := api.New(cfg.Capabilities(), 5*time.Second).WithLogger(logger)

	app := New(Deps{
		Tasks:         tasks.New(client, "").WithLogger(logger),
		Confirmations: confirmations.New(client, "", time.Hour).WithLogger(logger),
		Research:      client,
		Username:      "dana",
	})
	app.Update(tea.WindowSizeMsg{Width: 160, Height: 40})
	return backend, app
}

// run executes cmd and feeds its message back into the app.
func run(t *testing.T, a *App, cmd tea.Cmd) {
	t.Helper()
	if cmd == nil {
		t.Fatal("Expected a command")
	}
	a.Update(cmd())
}

func TestView_ConnectivityBanner(t *testing.T) {
	_, a := newTestApp(t)

	if strings.Contains(a.View(), "Backend unreachable") {
		t.Error("Banner shown while connectivity unknown")
	}
	a.Update(connectivityMsg{models.ConnectivityDown})
	if !strings.Contains(a.View(), "Backend unreachable") {
		t.Error("Expected banner when backend is down")
	}
	a.Update(connectivityMsg{models.ConnectivityUp})
	if strings.Contains(a.View(), "Backend unreachable") {
		t.Error("Banner still shown after recovery")
	}
}

func TestApp_LoadAndApproveSelected(t *testing.T) {
	backend, a := newTestApp(t)
	first := backend.AddTask("Send contract", models.TaskStatusDetected)
	backend.AddTask("Order laptops", models.TaskStatusDetected)

	run(t, a, a.fetchTasks())
	if !strings.Contains(a.View(), "Send contract") {
		t.Fatal("Expected task in list")
	}

	_, cmd := a.Update(tea.KeyMsg{Type: tea.KeyCtrlA})
	run(t, a, cmd)

	stored, _ := backend.Task(first.ID)
	if stored.Status != models.TaskStatusApproved {
		t.Errorf("Expected first task approved, got %s", stored.Status)
	}
	if !strings.Contains(a.message, "approved") {
		t.Errorf("Unexpected message: %q", a.message)
	}

	// Approving again is refused locally.
	calls := backend.TotalRequests()
	a.input.SetValue("reject 1")
	_, cmd = a.Update(tea.KeyMsg{Type: tea.KeyEnter})
	run(t, a, cmd)
	if !strings.HasPrefix(a.message, "Error") {
		t.Errorf("Expected refusal for terminal task, got %q", a.message)
	}
	if backend.TotalRequests() != calls {
		t.Error("Expected no request for a terminal task")
	}
}

func TestApp_ViewCycleAndFind(t *testing.T) {
	backend, a := newTestApp(t)
	backend.AddTask("Quarterly report", models.TaskStatusDetected)
	backend.AddTask("Team lunch", models.TaskStatusApproved)
	backend.AddTask("Report typo", models.TaskStatusRejected)
	run(t, a, a.fetchTasks())

	if len(a.visibleTasks()) != 3 {
		t.Fatalf("Expected 3 tasks in all view, got %d", len(a.visibleTasks()))
	}

	a.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	got := a.visibleTasks()
	if len(got) != 1 || got[0].Title != "Quarterly report" {
		t.Errorf("Expected detected view, got %+v", got)
	}

	a.executeCommand("view all")
	a.executeCommand("find report")
	if n := len(a.visibleTasks()); n != 2 {
		t.Errorf("Expected 2 fuzzy matches, got %d", n)
	}
	if !strings.Contains(a.View(), `find: "report"`) {
		t.Error("Expected search shown in view tabs")
	}

	a.executeCommand("find")
	if n := len(a.visibleTasks()); n != 3 {
		t.Errorf("Expected search cleared, got %d", n)
	}

	a.executeCommand("view archived")
	if !strings.HasPrefix(a.message, "Error") {
		t.Errorf("Expected error for unknown view, got %q", a.message)
	}
}

func TestApp_ConfirmationsPane(t *testing.T) {
	backend, a := newTestApp(t)
	id := backend.AddConfirmation("Email the venue", 0.87)

	p := a.deps.Confirmations
	if err := p.Refresh(a.ctx); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	a.Update(confirmationsMsg{p.Pending()})
	a.Update(tea.KeyMsg{Type: tea.KeyTab})

	view := a.View()
	for _, want := range []string{"Email the venue", "87%", "Unassigned", "Normal priority", "deadline Not set", "[1 pending]"} {
		if !strings.Contains(view, want) {
			t.Errorf("Expected %q in confirmations view", want)
		}
	}

	_, cmd := a.Update(tea.KeyMsg{Type: tea.KeyCtrlX})
	run(t, a, cmd)
	if backend.ConfirmationStatus(id) != "rejected" {
		t.Errorf("Expected rejected, got %q", backend.ConfirmationStatus(id))
	}
	if len(a.pending) != 0 {
		t.Errorf("Expected pending list refreshed, got %d", len(a.pending))
	}
}

func TestApp_TaskDetailFallbacks(t *testing.T) {
	backend, a := newTestApp(t)
	backend.AddTask("Sparse task", models.TaskStatusDetected)
	run(t, a, a.fetchTasks())

	a.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if a.mode != modeDetail {
		t.Fatalf("Expected detail mode, got %s", a.mode)
	}
	view := a.View()
	for _, want := range []string{"No description", "Priority: Normal", "Due: Not set"} {
		if !strings.Contains(view, want) {
			t.Errorf("Expected %q in detail view", want)
		}
	}

	a.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if a.mode != modeTasks {
		t.Errorf("Expected back to tasks, got %s", a.mode)
	}
}

func TestApp_Ask(t *testing.T) {
	_, a := newTestApp(t)

	a.input.SetValue("ask when is the offsite")
	_, cmd := a.Update(tea.KeyMsg{Type: tea.KeyEnter})
	run(t, a, cmd)

	if a.mode != modeAnswer {
		t.Fatalf("Expected answer mode, got %s (message %q)", a.mode, a.message)
	}
	if !strings.Contains(a.View(), "notes.txt") {
		t.Error("Expected citation source in answer view")
	}
}

func TestSuggestions(t *testing.T) {
	s := NewSuggestions()
	s.Update("/appr")
	if !s.IsVisible() {
		t.Fatal("Expected suggestions for slash prefix")
	}
	if sel := s.Selected(); sel == nil || sel.Text != "approve" {
		t.Errorf("Expected approve suggestion, got %+v", sel)
	}

	s.Update("approve")
	if s.IsVisible() {
		t.Error("Expected no suggestions without a prefix")
	}

	s.Update("@")
	s.SetTasks([]string{"Book flights", "Send invoice"})
	s.Update("@inv")
	s.SetTasks([]string{"Book flights", "Send invoice"})
	if sel := s.Selected(); sel == nil || sel.Text != "find Send invoice" {
		t.Errorf("Expected task reference, got %+v", sel)
	}
}
