// Package auth keeps the user's backend session between CLI invocations.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fentz26/cortexdesk/internal/models"
)

// Backend is the auth surface of the API client.
type Backend interface {
	Login(ctx context.Context, username, password string) (*models.AuthResult, error)
	Signup(ctx context.Context, username, password, email string) (*models.AuthResult, error)
	Logout(ctx context.Context, credential string) error
}

// Session is a signed-in session.
type Session struct {
	Token     string `json:"token"`
	Username  string `json:"username"`
	CreatedAt int64  `json:"created_at"`
}

// Manager handles sign-in and the persisted session file.
type Manager struct {
	dir     string
	backend Backend
	logger  *log.Logger

	mu      sync.RWMutex
	session *Session
}

// DefaultDir returns ~/.cortexdesk.
func DefaultDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".cortexdesk"), nil
}

// NewManager creates a manager storing its session under dir and loads
// any existing session.
func NewManager(dir string, backend Backend) (*Manager, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}
	m := &Manager{dir: dir, backend: backend, logger: log.Default()}
	_ = m.load()
	return m, nil
}

// WithLogger sets the logger.
func (m *Manager) WithLogger(l *log.Logger) *Manager {
	m.logger = l
	return m
}

// IsAuthenticated reports whether a session is stored.
func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session != nil && m.session.Token != ""
}

// Token returns the bearer credential, or "" when signed out.
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.session == nil {
		return ""
	}
	return m.session.Token
}

// Username returns the signed-in user, or "".
func (m *Manager) Username() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.session == nil {
		return ""
	}
	return m.session.Username
}

// Login signs in and persists the session.
func (m *Manager) Login(ctx context.Context, username, password string) (*Session, error) {
	res, err := m.backend.Login(ctx, username, password)
	if err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}
	if res.Token == "" {
		return nil, fmt.Errorf("login failed: no token returned")
	}

	s := &Session{Token: res.Token, Username: res.Username, CreatedAt: time.Now().Unix()}
	if s.Username == "" {
		s.Username = username
	}

	m.mu.Lock()
	m.session = s
	m.mu.Unlock()

	if err := m.save(); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return s, nil
}

// Signup registers an account. It does not sign in.
func (m *Manager) Signup(ctx context.Context, username, password, email string) error {
	if _, err := m.backend.Signup(ctx, username, password, email); err != nil {
		return fmt.Errorf("signup failed: %w", err)
	}
	return nil
}

// Logout ends the session on the backend and always clears it locally.
func (m *Manager) Logout(ctx context.Context) error {
	token := m.Token()
	if token != "" {
		if err := m.backend.Logout(ctx, token); err != nil {
			m.logger.Printf("Warning: backend logout failed: %v", err)
		}
	}

	m.mu.Lock()
	m.session = nil
	m.mu.Unlock()

	if err := os.Remove(m.sessionPath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove session: %w", err)
	}
	return nil
}

func (m *Manager) sessionPath() string {
	return filepath.Join(m.dir, "session.json")
}

func (m *Manager) load() error {
	data, err := os.ReadFile(m.sessionPath())
	if err != nil {
		return err
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	m.mu.Lock()
	m.session = &s
	m.mu.Unlock()
	return nil
}

func (m *Manager) save() error {
	m.mu.RLock()
	s := m.session
	m.mu.RUnlock()
	if s == nil {
		return nil
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(m.sessionPath(), data, 0600)
}
