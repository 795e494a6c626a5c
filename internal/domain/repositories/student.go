package repositories

import (
	"context"

	"classledger/internal/domain/models"
)

// StudentRepository defines data access operations for students.
// Every operation is scoped to the owning user; no call can read or
// mutate another identity's records.
type StudentRepository interface {
	// Create persists a new student and fills in the server-assigned
	// ID and creation timestamp
	Create(ctx context.Context, student *models.Student) error

	// GetByID retrieves a student by ID
	GetByID(ctx context.Context, id, userID string) (*models.Student, error)

	// Delete removes a student. Dependent sessions are NOT touched here;
	// the cascade is the caller's responsibility.
	Delete(ctx context.Context, id, userID string) error

	// ListByUser retrieves all students owned by a user
	ListByUser(ctx context.Context, userID string) ([]models.Student, error)
}
