package ledger

import (
	"context"
	"log/slog"
	"sync"
)

// StoreFactory builds a closed EntityStore ready to be opened.
type StoreFactory func() *EntityStore

// Manager owns one EntityStore per signed-in identity. Stores are opened
// lazily on first use and torn down on sign-out, so the live feed for an
// identity exists exactly as long as that identity is active.
type Manager struct {
	factory StoreFactory
	logger  *slog.Logger

	mu     sync.Mutex
	stores map[string]*EntityStore
}

// NewManager creates a store manager.
func NewManager(factory StoreFactory, logger *slog.Logger) *Manager {
	return &Manager{
		factory: factory,
		logger:  logger,
		stores:  make(map[string]*EntityStore),
	}
}

// Acquire returns the open store for an identity, opening one on first use.
func (m *Manager) Acquire(ctx context.Context, identity string) (*EntityStore, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if store, ok := m.stores[identity]; ok {
		return store, nil
	}

	store := m.factory()
	if err := store.Open(ctx, identity); err != nil {
		return nil, err
	}
	m.stores[identity] = store
	return store, nil
}

// Release closes and drops the store for an identity (sign-out).
// A no-op when the identity has no open store.
func (m *Manager) Release(identity string) {
	m.mu.Lock()
	store, ok := m.stores[identity]
	if ok {
		delete(m.stores, identity)
	}
	m.mu.Unlock()

	if ok {
		store.Close()
		m.logger.Info("entity store released", "identity", identity)
	}
}

// CloseAll tears down every open store. Used at shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	stores := m.stores
	m.stores = make(map[string]*EntityStore)
	m.mu.Unlock()

	for _, store := range stores {
		store.Close()
	}
}
