package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// Manager cancels a run context on SIGINT/SIGTERM and executes registered
// cleanup functions in reverse order (LIFO). In-flight jobs observe the
// cancellation through the context; cleanup still runs afterwards.
type Manager struct {
	mu           sync.Mutex
	cleanupFuncs []func(context.Context) error
	timeout      time.Duration
	cancel       context.CancelFunc
	stopSignals  func()
}

// New creates a shutdown manager with the given cleanup timeout
func New(timeout time.Duration) *Manager {
	return &Manager{
		cleanupFuncs: make([]func(context.Context) error, 0),
		timeout:      timeout,
	}
}

// Context derives a context from parent that is canceled when SIGINT or
// SIGTERM is received
func (m *Manager) Context(parent context.Context) context.Context {
	ctx, cancel := context.WithCancel(parent)
	m.cancel = cancel

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	done := make(chan struct{})
	m.stopSignals = func() {
		signal.Stop(sigChan)
		close(done)
	}

	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-done:
		}
	}()

	return ctx
}

// Register adds a cleanup function. Functions run in reverse order.
func (m *Manager) Register(fn func(context.Context) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cleanupFuncs = append(m.cleanupFuncs, fn)
}

// Shutdown executes all registered cleanup functions (LIFO) under the
// configured timeout and returns the first error encountered. Cleanup
// errors do not stop later functions from running.
func (m *Manager) Shutdown() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stopSignals != nil {
		m.stopSignals()
		m.stopSignals = nil
	}
	if m.cancel != nil {
		m.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	var firstErr error
	for i := len(m.cleanupFuncs) - 1; i >= 0; i-- {
		if err := m.cleanupFuncs[i](ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	m.cleanupFuncs = m.cleanupFuncs[:0]
	return firstErr
}
