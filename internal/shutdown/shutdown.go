// Package shutdown turns interrupt signals into context cancellation so
// in-flight sync operations can stop between items instead of being killed.
package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// Manager coordinates signal-driven shutdown for one CLI invocation.
type Manager struct {
	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
	stop   chan struct{}
}

// NewManager creates a manager whose context is cancelled by Shutdown.
func NewManager() *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{ctx: ctx, cancel: cancel, stop: make(chan struct{})}
}

// HandleSignals cancels the context on SIGINT or SIGTERM. A second signal
// exits immediately, for when an apply refuses to finish.
func (m *Manager) HandleSignals() {
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigCh)
		select {
		case <-sigCh:
			m.Shutdown()
		case <-m.stop:
			return
		}
		select {
		case <-sigCh:
			os.Exit(130)
		case <-m.stop:
		}
	}()
}

// Shutdown cancels the context. Safe to call more than once.
func (m *Manager) Shutdown() {
	m.once.Do(m.cancel)
}

// Stop detaches the signal handler without cancelling the context.
func (m *Manager) Stop() {
	select {
	case <-m.stop:
	default:
		close(m.stop)
	}
}

// Context is cancelled once shutdown has been initiated.
func (m *Manager) Context() context.Context {
	return m.ctx
}
