package database

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrNotConnected = errors.New("database not connected")

// State 连接生命周期状态，健康状况靠查询而不是全局布尔
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateFailed:
		return "failed"
	default:
		return "disconnected"
	}
}

// Manager 持有连接与状态。初连带指数退避重试。
type Manager struct {
	opts    Opts
	retries int
	log     *zap.Logger

	mu    sync.RWMutex
	state State
	db    *gorm.DB
}

func NewManager(opts Opts, retries int, log *zap.Logger) *Manager {
	if retries <= 0 {
		retries = 5
	}
	return &Manager{opts: opts, retries: retries, log: log}
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

func (m *Manager) DB() *gorm.DB {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.db
}

// Connect 打开连接；失败按 1s,2s,4s... 退避重试，次数用尽进入 Failed
func (m *Manager) Connect(ctx context.Context) (*gorm.DB, error) {
	m.setState(StateConnecting)

	var lastErr error
	backoff := time.Second
	for attempt := 0; attempt < m.retries; attempt++ {
		if attempt > 0 {
			m.log.Warn("db connect retry",
				zap.Int("attempt", attempt),
				zap.Duration("backoff", backoff),
				zap.Error(lastErr),
			)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				m.setState(StateFailed)
				return nil, ctx.Err()
			}
			backoff *= 2
		}

		db, err := NewGorm(m.opts)
		if err != nil {
			lastErr = err
			continue
		}
		m.mu.Lock()
		m.db = db
		m.state = StateConnected
		m.mu.Unlock()
		return db, nil
	}

	m.setState(StateFailed)
	return nil, lastErr
}

// Health ping 底层连接，作为 /health 的依据
func (m *Manager) Health(ctx context.Context) error {
	m.mu.RLock()
	db := m.db
	m.mu.RUnlock()
	if db == nil {
		return ErrNotConnected
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close 关闭连接并回到 Disconnected
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.db == nil {
		return nil
	}
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	m.db = nil
	m.state = StateDisconnected
	return sqlDB.Close()
}
