package repositories

import "context"

// Collection names carried on change events.
const (
	CollectionStudents = "students"
	CollectionSessions = "sessions"
)

// Change is a notification that a collection changed for a user.
// It carries no diff: readers are expected to reload the full collection
// and treat the latest snapshot as authoritative.
type Change struct {
	UserID     string `json:"user_id"`
	Collection string `json:"collection"`
}

// ChangeFeed delivers change notifications from the backing store.
// Listen blocks delivery on the returned channel until ctx is cancelled;
// the channel is closed when the feed shuts down.
type ChangeFeed interface {
	Listen(ctx context.Context) (<-chan Change, error)

	// Notify publishes a change event to all listeners, including
	// listeners in other processes sharing the same backing store.
	Notify(ctx context.Context, change Change) error
}
