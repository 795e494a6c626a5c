package repositories

import (
	"context"

	"classledger/internal/domain/models"
)

// SessionRepository defines data access operations for class sessions.
// Every operation is scoped to the owning user.
type SessionRepository interface {
	// Create persists a new session and fills in the server-assigned
	// ID and creation timestamp
	Create(ctx context.Context, session *models.ClassSession) error

	// GetByID retrieves a session by ID
	GetByID(ctx context.Context, id, userID string) (*models.ClassSession, error)

	// Update writes the full record back and stamps UpdatedAt.
	// Last write wins; there is no version check.
	Update(ctx context.Context, session *models.ClassSession) error

	// Delete removes a single session
	Delete(ctx context.Context, id, userID string) error

	// DeleteMany removes the named sessions as one atomic batch.
	// Either all of them disappear or none do.
	DeleteMany(ctx context.Context, ids []string, userID string) error

	// DeleteByStudent removes all sessions referencing a student.
	// Used by the student-delete cascade sweep.
	DeleteByStudent(ctx context.Context, studentID, userID string) error

	// ListByUser retrieves all sessions owned by a user
	ListByUser(ctx context.Context, userID string) ([]models.ClassSession, error)
}
