// Package health tracks backend reachability as a tri-state.
package health

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/fentz26/cortexdesk/internal/config"
	"github.com/fentz26/cortexdesk/internal/models"
)

// DefaultTimeout bounds each probe.
const DefaultTimeout = 5 * time.Second

// DefaultInterval is the monitor's check period.
const DefaultInterval = 30 * time.Second

// Prober is the health surface of the API client.
type Prober interface {
	HealthStatus(ctx context.Context, path string, timeout time.Duration) (string, error)
}

// Checker probes the backend's health endpoints in order.
type Checker struct {
	prober   Prober
	paths    []string
	sentinel string
	timeout  time.Duration
}

// NewChecker creates a checker for the endpoints described by caps.
func NewChecker(p Prober, caps config.Capabilities, timeout time.Duration) *Checker {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Checker{
		prober:   p,
		paths:    caps.HealthPaths,
		sentinel: caps.HealthSentinel,
		timeout:  timeout,
	}
}

// CheckHealth returns ConnectivityUp when the first endpoint that answers
// reports the expected status. Later paths are tried only while earlier
// ones fail to answer; a decoded status other than the sentinel is final.
// It never fails.
func (c *Checker) CheckHealth(ctx context.Context) models.Connectivity {
	for _, path := range c.paths {
		status, err := c.prober.HealthStatus(ctx, path, c.timeout)
		if err == nil {
			if status == c.sentinel {
				return models.ConnectivityUp
			}
			return models.ConnectivityDown
		}
		if ctx.Err() != nil {
			break
		}
	}
	return models.ConnectivityDown
}

// Monitor re-checks health periodically.
type Monitor struct {
	checker  *Checker
	interval time.Duration
	logger   *log.Logger

	mu       sync.Mutex
	state    models.Connectivity
	onChange []func(models.Connectivity)

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewMonitor creates a monitor in the unknown state.
func NewMonitor(c *Checker, interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Monitor{
		checker:  c,
		interval: interval,
		logger:   log.Default(),
		state:    models.ConnectivityUnknown,
	}
}

// WithLogger sets the logger.
func (m *Monitor) WithLogger(l *log.Logger) *Monitor {
	m.logger = l
	return m
}

// OnChange registers fn to run when the state changes.
func (m *Monitor) OnChange(fn func(models.Connectivity)) {
	m.mu.Lock()
	m.onChange = append(m.onChange, fn)
	m.mu.Unlock()
}

// State returns the last observed connectivity.
func (m *Monitor) State() models.Connectivity {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Check probes now and updates the state.
func (m *Monitor) Check(ctx context.Context) models.Connectivity {
	state := m.checker.CheckHealth(ctx)
	if ctx.Err() != nil {
		return m.State()
	}

	m.mu.Lock()
	prev := m.state
	m.state = state
	subs := append([]func(models.Connectivity){}, m.onChange...)
	m.mu.Unlock()

	if prev != state {
		m.logger.Printf("Backend connectivity: %s -> %s", prev, state)
		for _, fn := range subs {
			fn(state)
		}
	}
	return state
}

// Start checks once, then every interval.
func (m *Monitor) Start(ctx context.Context) {
	m.ctx, m.cancel = context.WithCancel(ctx)
	m.wg.Add(1)
	go m.loop()
}

// Stop ends the loop and waits for it.
func (m *Monitor) Stop() {
	if m.cancel == nil {
		return
	}
	m.cancel()
	m.wg.Wait()
}

func (m *Monitor) loop() {
	defer m.wg.Done()

	m.Check(m.ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.Check(m.ctx)
		}
	}
}
