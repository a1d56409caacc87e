// Package tasks holds the client view of backend tasks and drives their
// detected -> approved/rejected lifecycle. Every mutation is followed by a
// full reload; local entries are never patched in place.
package tasks

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/fentz26/cortexdesk/internal/models"
)

// Backend is the task surface of the API client.
type Backend interface {
	ListTasks(ctx context.Context, status, credential string) ([]models.Task, error)
	CreateTask(ctx context.Context, task models.NewTask, credential string) (*models.Task, error)
	ApproveTask(ctx context.Context, id int64, credential string) (string, error)
	RejectTask(ctx context.Context, id int64, credential string) (string, error)
}

// Recorder journals user decisions.
type Recorder interface {
	Record(action string, inputs any, outcome, subject, details string) (*models.JournalEntry, error)
}

// Store is the locally held task collection.
type Store struct {
	backend    Backend
	credential string
	recorder   Recorder
	logger     *log.Logger

	mu     sync.Mutex
	tasks  []models.Task
	filter string
}

// New creates an empty store.
func New(b Backend, credential string) *Store {
	return &Store{
		backend:    b,
		credential: credential,
		logger:     log.Default(),
		tasks:      []models.Task{},
	}
}

// WithRecorder journals approve/reject/create through r.
func (s *Store) WithRecorder(r Recorder) *Store {
	s.recorder = r
	return s
}

// WithLogger sets the logger.
func (s *Store) WithLogger(l *log.Logger) *Store {
	s.logger = l
	return s
}

// Tasks returns a copy of the collection.
func (s *Store) Tasks() []models.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

// Load fetches tasks, optionally filtered by status, and replaces the
// collection. On error the collection is unchanged.
func (s *Store) Load(ctx context.Context, status string) ([]models.Task, error) {
	tasks, err := s.backend.ListTasks(ctx, status, s.credential)
	if err != nil {
		return nil, fmt.Errorf("load tasks: %w", err)
	}

	s.mu.Lock()
	s.tasks = tasks
	s.filter = status
	s.mu.Unlock()
	return s.Tasks(), nil
}

// Approve moves a detected task to approved.
func (s *Store) Approve(ctx context.Context, id int64) (string, error) {
	return s.transition(ctx, "approve", id, s.backend.ApproveTask)
}

// Reject moves a detected task to rejected.
func (s *Store) Reject(ctx context.Context, id int64) (string, error) {
	return s.transition(ctx, "reject", id, s.backend.RejectTask)
}

func (s *Store) transition(ctx context.Context, action string, id int64, fn func(context.Context, int64, string) (string, error)) (string, error) {
	if t, ok := s.find(id); ok && t.Status.IsTerminal() {
		return "", &TransitionError{ID: id, From: t.Status, Action: action}
	}

	msg, err := fn(ctx, id, s.credential)
	s.record("task."+action, id, err)
	if err != nil {
		if _, rerr := s.resync(ctx); rerr != nil {
			s.logger.Printf("Error reloading tasks after failed %s: %v", action, rerr)
		}
		return "", fmt.Errorf("%s task %d: %w", action, id, err)
	}

	if _, err := s.resync(ctx); err != nil {
		return msg, err
	}
	return msg, nil
}

// Create creates a task and reloads.
func (s *Store) Create(ctx context.Context, task models.NewTask) (*models.Task, error) {
	created, err := s.backend.CreateTask(ctx, task, s.credential)
	var subject int64
	if created != nil {
		subject = created.ID
	}
	s.record("task.create", subject, err)
	if err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	if _, err := s.resync(ctx); err != nil {
		return created, err
	}
	return created, nil
}

// resync reloads with the last filter used.
func (s *Store) resync(ctx context.Context) ([]models.Task, error) {
	s.mu.Lock()
	filter := s.filter
	s.mu.Unlock()
	return s.Load(ctx, filter)
}

func (s *Store) find(id int64) (models.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return models.Task{}, false
}

func (s *Store) record(action string, id int64, err error) {
	if s.recorder == nil {
		return
	}
	outcome, details := "success", ""
	if err != nil {
		outcome, details = "failed", err.Error()
	}
	subject := fmt.Sprintf("%d", id)
	if _, rerr := s.recorder.Record(action, map[string]int64{"task_id": id}, outcome, subject, details); rerr != nil {
		s.logger.Printf("Error journaling %s: %v", action, rerr)
	}
}
