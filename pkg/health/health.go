// Package health tracks the availability of remote dependencies.
//
// Each registered check runs in its own background goroutine at a
// configurable interval. Checks use failure/success thresholds (inspired by
// Kubernetes probe configuration) to avoid flapping: a check must fail
// consecutively failureThreshold times before being marked unavailable, and
// succeed successThreshold times before being marked available again.
package health

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// CheckFunc probes one dependency. It returns nil when the dependency is
// reachable, or an error describing the problem.
type CheckFunc func(ctx context.Context) error

// checkConfig holds the configuration and runtime state for a single check.
//
// Concurrency model: run() is called from exactly one goroutine (the ticker).
// The counters (consecutiveFails, consecutiveOK) are only accessed by run(),
// so they need no synchronization. The healthy flag and lastErr are read from
// arbitrary goroutines via Snapshot, so they use atomic operations.
type checkConfig struct {
	name             string
	timeout          time.Duration
	check            CheckFunc
	failureThreshold int
	successThreshold int

	healthy atomic.Bool
	lastErr atomic.Pointer[error]

	// counters are only accessed from the single run() goroutine.
	consecutiveFails int
	consecutiveOK    int
}

func (c *checkConfig) isHealthy() bool {
	return c.healthy.Load()
}

func (c *checkConfig) getLastError() error {
	if p := c.lastErr.Load(); p != nil {
		return *p
	}
	return nil
}

// run executes the check once and updates thresholds accordingly.
// Must be called from a single goroutine.
func (c *checkConfig) run(ctx context.Context) {
	checkCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	err := c.check(checkCtx)
	c.lastErr.Store(&err)

	if err != nil {
		c.consecutiveOK = 0
		c.consecutiveFails++
		if c.consecutiveFails >= c.failureThreshold {
			c.healthy.Store(false)
		}
	} else {
		c.consecutiveFails = 0
		c.consecutiveOK++
		if c.consecutiveOK >= c.successThreshold {
			c.healthy.Store(true)
		}
	}
}

// Monitor manages availability checks for remote dependencies.
type Monitor struct {
	// mu protects checks and cancel. Only held during registration (before
	// Start) and in Start/Stop; Snapshot takes it briefly to copy the slice.
	mu     sync.RWMutex
	checks []*checkConfig
	cancel context.CancelFunc
}

// New creates an empty Monitor.
func New() *Monitor {
	return &Monitor{}
}

// AddCheck registers an availability check under name.
func (m *Monitor) AddCheck(name string, timeout time.Duration, check CheckFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := &checkConfig{
		name:             name,
		timeout:          timeout,
		check:            check,
		failureThreshold: 3,
		successThreshold: 1,
	}
	c.healthy.Store(true) // assume available until proven otherwise
	m.checks = append(m.checks, c)
}

// Start begins running all registered checks in background goroutines at the
// given interval. Each check runs once immediately, then on every tick.
func (m *Monitor) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	m.mu.Lock()
	m.cancel = cancel
	checks := make([]*checkConfig, len(m.checks))
	copy(checks, m.checks)
	m.mu.Unlock()

	for _, c := range checks {
		go runCheck(ctx, c, interval)
	}
}

// runCheck periodically executes a single check until the context is cancelled.
func runCheck(ctx context.Context, c *checkConfig, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	c.run(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.run(ctx)
		}
	}
}

// Stop cancels all background check goroutines. Safe to call multiple times.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
}

// Healthy reports whether every registered check currently passes.
func (m *Monitor) Healthy() bool {
	m.mu.RLock()
	checks := m.checks
	m.mu.RUnlock()

	for _, c := range checks {
		if !c.isHealthy() {
			return false
		}
	}
	return true
}

// Snapshot returns the per-check status: "ok" for available checks, the last
// error message otherwise.
func (m *Monitor) Snapshot() map[string]string {
	m.mu.RLock()
	checks := make([]*checkConfig, len(m.checks))
	copy(checks, m.checks)
	m.mu.RUnlock()

	out := make(map[string]string, len(checks))
	for _, c := range checks {
		if c.isHealthy() {
			out[c.name] = "ok"
			continue
		}
		if err := c.getLastError(); err != nil {
			out[c.name] = err.Error()
		} else {
			out[c.name] = "unavailable"
		}
	}
	return out
}
