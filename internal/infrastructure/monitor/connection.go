package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	redislib "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Check probes one backing service.
type Check struct {
	Name    string
	Timeout time.Duration
	Ping    func(ctx context.Context) error
}

// PostgresCheck pings the pgx pool.
func PostgresCheck(pool *pgxpool.Pool) Check {
	return Check{Name: "postgresql", Timeout: 3 * time.Second, Ping: pool.Ping}
}

// RedisCheck pings the session store.
func RedisCheck(client redislib.UniversalClient) Check {
	return Check{Name: "redis", Timeout: 2 * time.Second, Ping: func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}}
}

// BufferSizer reports how many operations wait in the write buffer.
type BufferSizer interface {
	Size() (int, error)
}

type Monitor struct {
	checks []Check
	buffer BufferSizer

	status   Status
	mu       sync.RWMutex
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	logger   *zap.Logger
}

func New(checks []Check, buf BufferSizer, interval time.Duration, logger *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		checks:   checks,
		buffer:   buf,
		interval: interval,
		stopCh:   make(chan struct{}),
		logger:   logger,
	}
}

// Start probes once synchronously and then keeps probing in the background.
func (m *Monitor) Start() {
	m.Refresh()
	go m.loop()
}

func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

// IsOnline reports whether every probed service answered on the last check.
func (m *Monitor) IsOnline() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status.Online()
}

func (m *Monitor) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	services := make(map[string]bool, len(m.status.Services))
	for k, v := range m.status.Services {
		services[k] = v
	}
	status := m.status
	status.Services = services
	return status
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Refresh()
		case <-m.stopCh:
			return
		}
	}
}

// Refresh runs every check now.
func (m *Monitor) Refresh() {
	services := make(map[string]bool, len(m.checks))
	for _, check := range m.checks {
		up := m.probe(check)
		services[check.Name] = up
		if !up {
			m.logger.Warn("dependency offline", zap.String("service", check.Name))
		}
	}
	bufferOK, bufferSize := m.checkBuffer()

	m.mu.Lock()
	m.status = Status{
		Services:   services,
		Buffer:     bufferOK,
		BufferSize: bufferSize,
		LastCheck:  time.Now(),
	}
	m.mu.Unlock()
}

func (m *Monitor) probe(check Check) bool {
	if check.Ping == nil {
		return false
	}
	timeout := check.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return check.Ping(ctx) == nil
}

func (m *Monitor) checkBuffer() (bool, int) {
	if m.buffer == nil {
		return false, 0
	}
	size, err := m.buffer.Size()
	if err != nil {
		m.logger.Warn("buffer size check failed", zap.Error(err))
		return false, size
	}
	return true, size
}
