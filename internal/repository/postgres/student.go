package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"classledger/internal/domain"
	"classledger/internal/domain/models"
	"classledger/internal/domain/repositories"
)

// PostgresStudentRepository implements the StudentRepository interface
type PostgresStudentRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewStudentRepository creates a new student repository
func NewStudentRepository(config *RepositoryConfig) repositories.StudentRepository {
	return &PostgresStudentRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// Create persists a new student. The ID and creation timestamp are
// assigned by the database and written back into the struct.
func (r *PostgresStudentRepository) Create(ctx context.Context, student *models.Student) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (user_id, name, note)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, r.tables.Students)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		student.UserID,
		student.Name,
		student.Note,
	).Scan(&student.ID, &student.CreatedAt)

	if err != nil {
		return fmt.Errorf("create student: %w", err)
	}

	return nil
}

// GetByID retrieves a student by ID
func (r *PostgresStudentRepository) GetByID(ctx context.Context, id, userID string) (*models.Student, error) {
	query := fmt.Sprintf(`
		SELECT id, user_id, name, note, created_at
		FROM %s
		WHERE id = $1 AND user_id = $2
	`, r.tables.Students)

	var student models.Student
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, id, userID).Scan(
		&student.ID,
		&student.UserID,
		&student.Name,
		&student.Note,
		&student.CreatedAt,
	)

	if err != nil {
		if isPgNoRowsError(err) {
			return nil, fmt.Errorf("student %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get student: %w", err)
	}

	return &student, nil
}

// Delete removes a student record only. Dependent sessions are swept by
// the caller as a separate operation.
func (r *PostgresStudentRepository) Delete(ctx context.Context, id, userID string) error {
	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE id = $1 AND user_id = $2
	`, r.tables.Students)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("delete student: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("student %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// ListByUser retrieves all students owned by a user
func (r *PostgresStudentRepository) ListByUser(ctx context.Context, userID string) ([]models.Student, error) {
	query := fmt.Sprintf(`
		SELECT id, user_id, name, note, created_at
		FROM %s
		WHERE user_id = $1
		ORDER BY created_at ASC
	`, r.tables.Students)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	defer rows.Close()

	var students []models.Student
	for rows.Next() {
		var student models.Student
		err := rows.Scan(
			&student.ID,
			&student.UserID,
			&student.Name,
			&student.Note,
			&student.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan student: %w", err)
		}
		students = append(students, student)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate students: %w", err)
	}

	return students, nil
}
