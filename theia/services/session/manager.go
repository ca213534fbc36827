package session

import (
	"context"
	"sync"
)

// Factory builds an orchestrator for one chat. The manager owns when it is
// initialized and torn down.
type Factory func(chatID string, userID int) *Orchestrator

// Manager keeps one live orchestrator per open chat. Sessions across chats
// share nothing; within a chat the orchestrator serializes itself.
type Manager struct {
	factory Factory

	mu       sync.Mutex
	sessions map[string]*managedSession
}

type managedSession struct {
	once sync.Once
	orch *Orchestrator
}

func NewManager(factory Factory) *Manager {
	return &Manager{
		factory:  factory,
		sessions: make(map[string]*managedSession),
	}
}

// Get returns the chat's orchestrator, creating and initializing it on first
// access. Initialization runs exactly once per session even under
// concurrent access.
func (m *Manager) Get(ctx context.Context, chatID string, userID int) *Orchestrator {
	m.mu.Lock()
	entry, ok := m.sessions[chatID]
	if !ok {
		entry = &managedSession{orch: m.factory(chatID, userID)}
		m.sessions[chatID] = entry
	}
	m.mu.Unlock()

	entry.once.Do(func() {
		entry.orch.Initialize(ctx)
	})
	return entry.orch
}

// Remove tears the chat's session down, discarding any in-flight reply.
func (m *Manager) Remove(chatID string) {
	m.mu.Lock()
	entry, ok := m.sessions[chatID]
	delete(m.sessions, chatID)
	m.mu.Unlock()
	if ok {
		entry.orch.Close()
	}
}
