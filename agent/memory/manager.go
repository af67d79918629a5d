package memory

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	contractx "github.com/shopchat-ai/shopchat/agent/contract"
)

// Manager fronts a Store with per-session synchronization and lifecycle.
// Two locks exist per session: the turn lock, held by the orchestrator for a
// whole turn so concurrent turns on one session are serialized, and an op
// lock making each read-modify-write below atomic. Sessions never contend
// with each other.
type Manager struct {
	store Store

	mu       sync.Mutex
	sessions map[string]*sessionEntry

	now func() time.Time
}

type sessionEntry struct {
	turnMu     sync.Mutex
	opMu       sync.Mutex
	lastActive time.Time
}

func NewManager(store Store) *Manager {
	return &Manager{
		store:    store,
		sessions: make(map[string]*sessionEntry),
		now:      time.Now,
	}
}

// WithClock overrides the time source. Used by tests.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	if now != nil {
		m.now = now
	}
	return m
}

func (m *Manager) entry(sessionKey string) *sessionEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.sessions[sessionKey]
	if !ok {
		e = &sessionEntry{}
		m.sessions[sessionKey] = e
	}
	e.lastActive = m.now()
	return e
}

// Acquire takes the turn lock for sessionKey and returns its release func.
// Turns for the same session are processed strictly in acquisition order.
func (m *Manager) Acquire(sessionKey string) func() {
	e := m.entry(sessionKey)
	e.turnMu.Lock()
	return e.turnMu.Unlock
}

// LoadOrCreate returns the conversation for sessionKey, creating it on first
// contact.
func (m *Manager) LoadOrCreate(ctx context.Context, sessionKey string) (*Conversation, error) {
	if strings.TrimSpace(sessionKey) == "" {
		return nil, ErrInvalidSessionKey
	}

	e := m.entry(sessionKey)
	e.opMu.Lock()
	defer e.opMu.Unlock()

	return m.loadOrCreateLocked(ctx, sessionKey)
}

func (m *Manager) loadOrCreateLocked(ctx context.Context, sessionKey string) (*Conversation, error) {
	conv, err := m.store.Load(ctx, sessionKey)
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, ErrConversationNotFound) {
		return nil, err
	}

	conv = NewConversation(sessionKey, m.now())
	if err := m.store.Save(ctx, conv); err != nil {
		return nil, err
	}
	return conv, nil
}

// Append adds one immutable turn to the session's history.
func (m *Manager) Append(ctx context.Context, sessionKey string, turn contractx.Turn) error {
	e := m.entry(sessionKey)
	e.opMu.Lock()
	defer e.opMu.Unlock()

	conv, err := m.loadOrCreateLocked(ctx, sessionKey)
	if err != nil {
		return err
	}
	conv.Turns = append(conv.Turns, turn)
	conv.UpdatedAt = m.now().UTC()
	return m.store.Save(ctx, conv)
}

// Recent returns at most n most-recent turns, oldest first.
func (m *Manager) Recent(ctx context.Context, sessionKey string, n int) ([]contractx.Turn, error) {
	e := m.entry(sessionKey)
	e.opMu.Lock()
	defer e.opMu.Unlock()

	conv, err := m.loadOrCreateLocked(ctx, sessionKey)
	if err != nil {
		return nil, err
	}
	return conv.Recent(n), nil
}

// Context returns a copy of the session's durable fact map.
func (m *Manager) Context(ctx context.Context, sessionKey string) (map[string]any, error) {
	e := m.entry(sessionKey)
	e.opMu.Lock()
	defer e.opMu.Unlock()

	conv, err := m.loadOrCreateLocked(ctx, sessionKey)
	if err != nil {
		return nil, err
	}
	out := make(map[string]any, len(conv.Context))
	for k, v := range conv.Context {
		out[k] = v
	}
	return out, nil
}

// SetContext records a durable fact for the session, e.g. last_product_id.
func (m *Manager) SetContext(ctx context.Context, sessionKey, key string, value any) error {
	e := m.entry(sessionKey)
	e.opMu.Lock()
	defer e.opMu.Unlock()

	conv, err := m.loadOrCreateLocked(ctx, sessionKey)
	if err != nil {
		return err
	}
	if conv.Context == nil {
		conv.Context = make(map[string]any, 4)
	}
	conv.Context[key] = value
	conv.UpdatedAt = m.now().UTC()
	return m.store.Save(ctx, conv)
}

// EvictIdle deletes conversations idle for longer than idleFor and returns
// how many were evicted.
func (m *Manager) EvictIdle(ctx context.Context, idleFor time.Duration) int {
	if idleFor <= 0 {
		return 0
	}
	cutoff := m.now().Add(-idleFor)

	m.mu.Lock()
	stale := make([]string, 0)
	for key, e := range m.sessions {
		if e.lastActive.Before(cutoff) {
			stale = append(stale, key)
		}
	}
	m.mu.Unlock()

	evicted := 0
	for _, key := range stale {
		m.mu.Lock()
		e, ok := m.sessions[key]
		m.mu.Unlock()
		if !ok {
			continue
		}

		e.opMu.Lock()
		err := m.store.Delete(ctx, key)
		e.opMu.Unlock()
		if err != nil {
			log.Warn().Err(err).Str("session", key).Msg("evict conversation failed")
			continue
		}

		m.mu.Lock()
		delete(m.sessions, key)
		m.mu.Unlock()
		evicted++
	}
	return evicted
}

// StartEvictor runs EvictIdle on every tick until ctx is cancelled.
func (m *Manager) StartEvictor(ctx context.Context, interval, idleFor time.Duration) {
	if interval <= 0 || idleFor <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := m.EvictIdle(ctx, idleFor); n > 0 {
					log.Debug().Int("evicted", n).Msg("idle conversations evicted")
				}
			}
		}
	}()
}
