package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"classledger/internal/domain/repositories"
)

// NotifyChannel is the Postgres NOTIFY channel carrying change events.
const NotifyChannel = "ledger_changes"

// PostgresChangeFeed implements the ChangeFeed interface on top of
// Postgres LISTEN/NOTIFY. Events carry a JSON-encoded Change payload, so
// every process sharing the database observes every mutation regardless
// of which process issued it.
type PostgresChangeFeed struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewChangeFeed creates a new change feed
func NewChangeFeed(config *RepositoryConfig) repositories.ChangeFeed {
	return &PostgresChangeFeed{
		pool:   config.Pool,
		logger: config.Logger,
	}
}

// Listen dedicates one pooled connection to LISTEN and forwards decoded
// notifications until ctx is cancelled. The returned channel is closed on
// shutdown.
func (f *PostgresChangeFeed) Listen(ctx context.Context) (<-chan repositories.Change, error) {
	conn, err := f.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire listen connection: %w", err)
	}

	listen := fmt.Sprintf("LISTEN %s", pgx.Identifier{NotifyChannel}.Sanitize())
	if _, err := conn.Exec(ctx, listen); err != nil {
		conn.Release()
		return nil, fmt.Errorf("listen on %s: %w", NotifyChannel, err)
	}

	out := make(chan repositories.Change, 16)
	go func() {
		defer close(out)
		defer conn.Release()

		for {
			notification, err := conn.Conn().WaitForNotification(ctx)
			if err != nil {
				if ctx.Err() == nil {
					f.logger.Error("change feed interrupted", "error", err)
				}
				return
			}

			var change repositories.Change
			if err := json.Unmarshal([]byte(notification.Payload), &change); err != nil {
				f.logger.Warn("discarding malformed change payload", "payload", notification.Payload)
				continue
			}

			select {
			case out <- change:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

// Notify publishes a change event to all listeners
func (f *PostgresChangeFeed) Notify(ctx context.Context, change repositories.Change) error {
	payload, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("encode change: %w", err)
	}

	if _, err := f.pool.Exec(ctx, "SELECT pg_notify($1, $2)", NotifyChannel, string(payload)); err != nil {
		return fmt.Errorf("notify %s: %w", NotifyChannel, err)
	}

	return nil
}
