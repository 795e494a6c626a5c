package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"classledger/internal/domain"
	"classledger/internal/domain/models"
	"classledger/internal/domain/repositories"
)

// PostgresSessionRepository implements the SessionRepository interface
type PostgresSessionRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(config *RepositoryConfig) repositories.SessionRepository {
	return &PostgresSessionRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// Create persists a new session. The ID and timestamps are assigned by
// the database and written back into the struct.
func (r *PostgresSessionRepository) Create(ctx context.Context, session *models.ClassSession) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (user_id, student_id, folder, date, duration, note, package_no)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`, r.tables.Sessions)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		session.UserID,
		session.StudentID,
		session.Folder,
		session.Date,
		session.Duration,
		session.Note,
		session.PackageNo,
	).Scan(&session.ID, &session.CreatedAt, &session.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}

	return nil
}

// GetByID retrieves a session by ID
func (r *PostgresSessionRepository) GetByID(ctx context.Context, id, userID string) (*models.ClassSession, error) {
	query := fmt.Sprintf(`
		SELECT id, user_id, student_id, folder, date, duration, note, package_no, created_at, updated_at
		FROM %s
		WHERE id = $1 AND user_id = $2
	`, r.tables.Sessions)

	var session models.ClassSession
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, id, userID).Scan(
		&session.ID,
		&session.UserID,
		&session.StudentID,
		&session.Folder,
		&session.Date,
		&session.Duration,
		&session.Note,
		&session.PackageNo,
		&session.CreatedAt,
		&session.UpdatedAt,
	)

	if err != nil {
		if isPgNoRowsError(err) {
			return nil, fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	return &session, nil
}

// Update writes the full record back and stamps updated_at server-side.
// Last write wins; there is no version check.
func (r *PostgresSessionRepository) Update(ctx context.Context, session *models.ClassSession) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET student_id = $1, folder = $2, date = $3, duration = $4, note = $5, package_no = $6, updated_at = now()
		WHERE id = $7 AND user_id = $8
		RETURNING updated_at
	`, r.tables.Sessions)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		session.StudentID,
		session.Folder,
		session.Date,
		session.Duration,
		session.Note,
		session.PackageNo,
		session.ID,
		session.UserID,
	).Scan(&session.UpdatedAt)

	if err != nil {
		if isPgNoRowsError(err) {
			return fmt.Errorf("session %s: %w", session.ID, domain.ErrNotFound)
		}
		return fmt.Errorf("update session: %w", err)
	}

	return nil
}

// Delete removes a single session
func (r *PostgresSessionRepository) Delete(ctx context.Context, id, userID string) error {
	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE id = $1 AND user_id = $2
	`, r.tables.Sessions)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// DeleteMany removes the named sessions. Run it inside a transaction (via
// TransactionManager) to get the all-or-nothing batch guarantee; the
// executor automatically joins a transaction present in the context.
// Ids that no longer exist are skipped, matching batch-delete semantics
// of document stores.
func (r *PostgresSessionRepository) DeleteMany(ctx context.Context, ids []string, userID string) error {
	if len(ids) == 0 {
		return nil
	}

	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE id = ANY($1) AND user_id = $2
	`, r.tables.Sessions)

	executor := GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, ids, userID); err != nil {
		return fmt.Errorf("delete %d sessions: %w", len(ids), err)
	}

	return nil
}

// DeleteByStudent removes all sessions referencing a student
func (r *PostgresSessionRepository) DeleteByStudent(ctx context.Context, studentID, userID string) error {
	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE student_id = $1 AND user_id = $2
	`, r.tables.Sessions)

	executor := GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, studentID, userID); err != nil {
		return fmt.Errorf("delete sessions for student %s: %w", studentID, err)
	}

	return nil
}

// ListByUser retrieves all sessions owned by a user
func (r *PostgresSessionRepository) ListByUser(ctx context.Context, userID string) ([]models.ClassSession, error) {
	query := fmt.Sprintf(`
		SELECT id, user_id, student_id, folder, date, duration, note, package_no, created_at, updated_at
		FROM %s
		WHERE user_id = $1
		ORDER BY created_at ASC
	`, r.tables.Sessions)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.ClassSession
	for rows.Next() {
		var session models.ClassSession
		err := rows.Scan(
			&session.ID,
			&session.UserID,
			&session.StudentID,
			&session.Folder,
			&session.Date,
			&session.Duration,
			&session.Note,
			&session.PackageNo,
			&session.CreatedAt,
			&session.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}

	return sessions, nil
}
