package auth

import (
	"context"
	"io"
	"log"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fentz26/cortexdesk/internal/api"
	"github.com/fentz26/cortexdesk/internal/config"
	"github.com/fentz26/cortexdesk/internal/fakebackend"
)

func setupManager(t *testing.T, dir string) (*fakebackend.Backend, *api.Client, *Manager) {
	t.Helper()
	backend := fakebackend.New()
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	cfg := config.DefaultConfig()
	cfg.BaseURL = srv.URL + "/api"
	cfg.AuthURL = srv.URL
	client := api.New(cfg.Capabilities(), 5*time.Second)

	m, err := NewManager(dir, client)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	m.WithLogger(log.New(io.Discard, "", 0))
	return backend, client, m
}

func TestLoginPersistsSession(t *testing.T) {
	dir := t.TempDir()
	_, client, m := setupManager(t, dir)
	ctx := context.Background()

	if m.IsAuthenticated() {
		t.Fatal("Expected signed out initially")
	}
	if err := m.Signup(ctx, "dana", "s3cret", "dana@example.com"); err != nil {
		t.Fatalf("Signup failed: %v", err)
	}
	s, err := m.Login(ctx, "dana", "s3cret")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if s.Token == "" || m.Token() != s.Token || m.Username() != "dana" {
		t.Errorf("Unexpected session: %+v", s)
	}

	info, err := os.Stat(filepath.Join(dir, "session.json"))
	if err != nil {
		t.Fatalf("Session file missing: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("Expected 0600 session file, got %v", info.Mode().Perm())
	}

	reloaded, err := NewManager(dir, client)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	if reloaded.Token() != s.Token {
		t.Error("Expected session to survive reload")
	}
}

func TestLoginRejected(t *testing.T) {
	_, _, m := setupManager(t, t.TempDir())

	if _, err := m.Login(context.Background(), "nobody", "wrong"); err == nil {
		t.Fatal("Expected login error")
	}
	if m.IsAuthenticated() {
		t.Error("Expected to remain signed out")
	}
}

func TestSignupDuplicate(t *testing.T) {
	_, _, m := setupManager(t, t.TempDir())
	ctx := context.Background()

	if err := m.Signup(ctx, "lee", "pw", ""); err != nil {
		t.Fatalf("Signup failed: %v", err)
	}
	if err := m.Signup(ctx, "lee", "pw", ""); err == nil {
		t.Error("Expected duplicate signup to fail")
	}
}

func TestLogout(t *testing.T) {
	dir := t.TempDir()
	backend, _, m := setupManager(t, dir)
	ctx := context.Background()

	m.Signup(ctx, "kim", "pw", "")
	if _, err := m.Login(ctx, "kim", "pw"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if err := m.Logout(ctx); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if m.IsAuthenticated() {
		t.Error("Expected signed out")
	}
	if _, err := os.Stat(filepath.Join(dir, "session.json")); !os.IsNotExist(err) {
		t.Error("Expected session file removed")
	}
	if backend.Requests("POST /auth/logout") != 1 {
		t.Error("Expected backend logout call")
	}

	// Signed out: nothing to tell the backend.
	if err := m.Logout(ctx); err != nil {
		t.Errorf("Second logout failed: %v", err)
	}
	if backend.Requests("POST /auth/logout") != 1 {
		t.Error("Expected no backend call when already signed out")
	}
}
