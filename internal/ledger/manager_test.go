package ledger

import (
	"context"
	"testing"
)

func newTestManager(env *testEnv) *Manager {
	return NewManager(func() *EntityStore {
		return NewEntityStore(env.studentRepo, env.sessionRepo, fakeTxManager{}, env.feed, testLogger())
	}, testLogger())
}

func TestManagerReusesStorePerIdentity(t *testing.T) {
	env := newTestEnv()
	manager := newTestManager(env)
	defer manager.CloseAll()

	first, err := manager.Acquire(context.Background(), testIdentity)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	second, err := manager.Acquire(context.Background(), testIdentity)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if first != second {
		t.Error("Acquire returned a new store for the same identity")
	}

	other, err := manager.Acquire(context.Background(), "user-2")
	if err != nil {
		t.Fatalf("Acquire(user-2) error = %v", err)
	}
	if other == first {
		t.Error("identities share a store")
	}
}

func TestManagerReleaseClosesStore(t *testing.T) {
	env := newTestEnv()
	manager := newTestManager(env)
	defer manager.CloseAll()

	store, err := manager.Acquire(context.Background(), testIdentity)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	manager.Release(testIdentity)
	if got := store.Identity(); got != "" {
		t.Errorf("store still scoped to %q after Release", got)
	}

	// Next Acquire opens a fresh store
	fresh, err := manager.Acquire(context.Background(), testIdentity)
	if err != nil {
		t.Fatalf("Acquire() after Release error = %v", err)
	}
	if fresh == store {
		t.Error("Release did not drop the store")
	}
	if got := fresh.Identity(); got != testIdentity {
		t.Errorf("fresh store Identity() = %q, want %q", got, testIdentity)
	}
}

func TestManagerReleaseUnknownIdentity(t *testing.T) {
	env := newTestEnv()
	manager := newTestManager(env)

	// Must not panic or block
	manager.Release("never-acquired")
}
