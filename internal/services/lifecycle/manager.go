// Package lifecycle owns process startup and graceful shutdown of the EIC service.
package lifecycle

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// StopFunc releases one component during shutdown.
type StopFunc func(ctx context.Context) error

type component struct {
	name string
	stop StopFunc
}

// Manager stops registered components in reverse registration order, once.
type Manager struct {
	timeout time.Duration
	logger  *zap.Logger

	mu         sync.Mutex
	components []component
	stopped    bool
}

func New(timeout time.Duration, logger *zap.Logger) *Manager {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{timeout: timeout, logger: logger}
}

// Register adds a component. Components registered after Shutdown are ignored.
func (m *Manager) Register(name string, stop StopFunc) {
	if stop == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return
	}
	m.components = append(m.components, component{name: name, stop: stop})
}

// Shutdown stops every component within the configured timeout. Later calls are no-ops.
func (m *Manager) Shutdown(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return nil
	}
	m.stopped = true
	components := m.components
	m.components = nil
	m.mu.Unlock()

	var result error
	for i := len(components) - 1; i >= 0; i-- {
		c := components[i]
		if err := c.stop(ctx); err != nil {
			m.logger.Error("shutdown hook failed", zap.String("component", c.name), zap.Error(err))
			result = errors.Join(result, err)
			continue
		}
		m.logger.Info("component stopped", zap.String("component", c.name))
	}
	return result
}

// Run calls serve in the background and blocks until it returns, ctx is cancelled or
// SIGINT/SIGTERM arrives. Components are then shut down and any serve error is joined
// with shutdown errors.
func (m *Manager) Run(ctx context.Context, serve func() error) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- serve() }()

	var serveErr error
	select {
	case serveErr = <-errCh:
		if serveErr != nil {
			m.logger.Error("server stopped unexpectedly", zap.Error(serveErr))
		}
	case <-ctx.Done():
		m.logger.Info("shutdown signal received")
	}

	return errors.Join(serveErr, m.Shutdown(context.Background()))
}
