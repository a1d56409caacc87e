// Package confirmations keeps a periodically refreshed view of the
// confirmations awaiting user review.
package confirmations

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/fentz26/cortexdesk/internal/models"
)

// DefaultInterval is the refresh period.
const DefaultInterval = 5 * time.Second

// Backend is the confirmation surface of the API client.
type Backend interface {
	PendingConfirmations(ctx context.Context, credential string) ([]models.Confirmation, error)
	ApproveConfirmation(ctx context.Context, id, credential string) error
	RejectConfirmation(ctx context.Context, id, credential string) error
}

// Recorder journals user decisions.
type Recorder interface {
	Record(action string, inputs any, outcome, subject, details string) (*models.JournalEntry, error)
}

// Poller holds the pending confirmation list.
type Poller struct {
	backend    Backend
	credential string
	interval   time.Duration
	recorder   Recorder
	logger     *log.Logger

	mu       sync.Mutex
	pending  []models.Confirmation
	seq      uint64
	applied  uint64
	stopped  bool
	onChange []func([]models.Confirmation)

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a poller. A non-positive interval selects DefaultInterval.
func New(b Backend, credential string, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{
		backend:    b,
		credential: credential,
		interval:   interval,
		logger:     log.Default(),
		pending:    []models.Confirmation{},
	}
}

// WithRecorder journals approve/reject decisions through r.
func (p *Poller) WithRecorder(r Recorder) *Poller {
	p.recorder = r
	return p
}

// WithLogger sets the logger.
func (p *Poller) WithLogger(l *log.Logger) *Poller {
	p.logger = l
	return p
}

// OnChange registers fn to run after every applied refresh.
func (p *Poller) OnChange(fn func([]models.Confirmation)) {
	p.mu.Lock()
	p.onChange = append(p.onChange, fn)
	p.mu.Unlock()
}

// Pending returns a copy of the current list.
func (p *Poller) Pending() []models.Confirmation {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]models.Confirmation, len(p.pending))
	copy(out, p.pending)
	return out
}

// Start refreshes once, then every interval until ctx is done or Stop is called.
// A stopped poller may be started again.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	p.stopped = false
	p.mu.Unlock()
	p.ctx, p.cancel = context.WithCancel(ctx)
	p.wg.Add(1)
	go p.loop()
}

// Stop ends the loop. Refreshes completing afterwards are discarded.
func (p *Poller) Stop() {
	p.mu.Lock()
	p.stopped = true
	p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
		p.wg.Wait()
	}
}

func (p *Poller) loop() {
	defer p.wg.Done()

	p.Refresh(p.ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			p.Refresh(p.ctx)
		}
	}
}

// Refresh fetches the pending list and replaces local state. Errors are
// logged and returned; local state is left untouched on failure. A
// refresh that completes after a newer one has been applied is dropped.
func (p *Poller) Refresh(ctx context.Context) error {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return nil
	}
	p.seq++
	seq := p.seq
	p.mu.Unlock()

	items, err := p.backend.PendingConfirmations(ctx, p.credential)
	if err != nil {
		if ctx.Err() == nil {
			p.logger.Printf("Error fetching confirmations: %v", err)
		}
		return err
	}

	p.mu.Lock()
	if p.stopped || seq < p.applied {
		p.mu.Unlock()
		return nil
	}
	p.applied = seq
	p.pending = items
	subs := append([]func([]models.Confirmation){}, p.onChange...)
	p.mu.Unlock()

	for _, fn := range subs {
		fn(p.Pending())
	}
	return nil
}

// Approve approves id, then refreshes regardless of the outcome.
func (p *Poller) Approve(ctx context.Context, id string) error {
	return p.decide(ctx, "approve", id, p.backend.ApproveConfirmation)
}

// Reject rejects id, then refreshes regardless of the outcome.
func (p *Poller) Reject(ctx context.Context, id string) error {
	return p.decide(ctx, "reject", id, p.backend.RejectConfirmation)
}

func (p *Poller) decide(ctx context.Context, action, id string, fn func(context.Context, string, string) error) error {
	err := fn(ctx, id, p.credential)
	if err != nil {
		p.logger.Printf("Error sending confirmation %s for %s: %v", action, id, err)
	}
	p.record(action, id, err)
	p.Refresh(ctx)
	return err
}

func (p *Poller) record(action, id string, err error) {
	if p.recorder == nil {
		return
	}
	outcome, details := "success", ""
	if err != nil {
		outcome, details = "failed", err.Error()
	}
	if _, rerr := p.recorder.Record("confirmation."+action, map[string]string{"id": id}, outcome, id, details); rerr != nil {
		p.logger.Printf("Error journaling confirmation %s: %v", action, rerr)
	}
}
