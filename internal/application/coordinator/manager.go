package coordinator

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

// ErrSessionNotFound is returned for unknown tenant/session pairs
var ErrSessionNotFound = errors.New("session not found")

// Factory builds the collaborator set for a fresh session. Each session gets
// its own editor adapter so one add-in's document never leaks into another.
type Factory func(tenant, id string) Deps

// Manager is the registry of live coordinators, keyed by tenant and session
// id. It replaces the ambient module globals of a single-session design.
type Manager struct {
	factory Factory

	mu       sync.RWMutex
	sessions map[string]*Coordinator
}

func NewManager(factory Factory) *Manager {
	return &Manager{
		factory:  factory,
		sessions: make(map[string]*Coordinator),
	}
}

func key(tenant, id string) string { return tenant + "/" + id }

// Open creates a coordinator for a new editor session
func (m *Manager) Open(tenant string) *Coordinator {
	id := uuid.New().String()
	co := New(tenant, id, m.factory(tenant, id))

	m.mu.Lock()
	m.sessions[key(tenant, id)] = co
	m.mu.Unlock()
	return co
}

// Get looks up a live coordinator
func (m *Manager) Get(tenant, id string) (*Coordinator, error) {
	m.mu.RLock()
	co, ok := m.sessions[key(tenant, id)]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return co, nil
}

// Close discards a session (editor reload or add-in teardown)
func (m *Manager) Close(tenant, id string) {
	m.mu.Lock()
	delete(m.sessions, key(tenant, id))
	m.mu.Unlock()
}

// Count reports the number of live sessions
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
