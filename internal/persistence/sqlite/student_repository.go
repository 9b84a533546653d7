package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/campus-booking/internal/persistence"
)

// StudentRepository implements persistence.StudentRepository using SQLite.
type StudentRepository struct {
	pool *ConnectionPool
}

// NewStudentRepository creates a SQLite-backed student repository.
func NewStudentRepository(pool *ConnectionPool) *StudentRepository {
	return &StudentRepository{pool: pool}
}

// CreateStudent inserts a new student document. A second student with the
// same name violates the unique index and surfaces as ErrDuplicate.
func (r *StudentRepository) CreateStudent(ctx context.Context, student persistence.Student) error {
	if student.ID == "" || student.Name == "" {
		return persistence.ErrConstraintViolation
	}

	modules, err := encodeStrings(student.Modules)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO students (id, name, password_hash, modules, created_at, updated_at, version)
		VALUES (?, ?, ?, ?, ?, ?, 1)
	`
	_, err = r.pool.DB().ExecContext(ctx, query,
		student.ID,
		student.Name,
		student.PasswordHash,
		modules,
		formatTime(student.CreatedAt),
		formatTime(student.UpdatedAt),
	)
	if err != nil {
		return mapSQLiteError(err)
	}
	return nil
}

// GetStudentByName retrieves a student document by its unique name.
func (r *StudentRepository) GetStudentByName(ctx context.Context, name string) (persistence.Student, error) {
	if name == "" {
		return persistence.Student{}, persistence.ErrNotFound
	}

	query := `
		SELECT id, name, password_hash, modules, created_at, updated_at, version
		FROM students
		WHERE name = ?
	`

	var student persistence.Student
	var modulesRaw, createdAtRaw, updatedAtRaw string

	err := r.pool.DB().QueryRowContext(ctx, query, name).Scan(
		&student.ID,
		&student.Name,
		&student.PasswordHash,
		&modulesRaw,
		&createdAtRaw,
		&updatedAtRaw,
		&student.Version,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return persistence.Student{}, persistence.ErrNotFound
		}
		return persistence.Student{}, mapSQLiteError(err)
	}

	if student.Modules, err = decodeStrings(modulesRaw); err != nil {
		return persistence.Student{}, err
	}
	if student.CreatedAt, err = parseTime(createdAtRaw); err != nil {
		return persistence.Student{}, err
	}
	if student.UpdatedAt, err = parseTime(updatedAtRaw); err != nil {
		return persistence.Student{}, err
	}

	return student, nil
}

// UpdateStudent writes the document back conditionally on the version it was
// read at. A lost race returns ErrVersionMismatch.
func (r *StudentRepository) UpdateStudent(ctx context.Context, student persistence.Student) error {
	if student.ID == "" {
		return persistence.ErrConstraintViolation
	}

	modules, err := encodeStrings(student.Modules)
	if err != nil {
		return err
	}

	query := `
		UPDATE students
		SET password_hash = ?, modules = ?, updated_at = ?, version = version + 1
		WHERE id = ? AND version = ?
	`
	result, err := r.pool.DB().ExecContext(ctx, query,
		student.PasswordHash,
		modules,
		formatTime(student.UpdatedAt),
		student.ID,
		student.Version,
	)
	if err != nil {
		return mapSQLiteError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return r.staleWriteError(ctx, student.ID)
	}
	return nil
}

func (r *StudentRepository) staleWriteError(ctx context.Context, id string) error {
	var count int
	if err := r.pool.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM students WHERE id = ?`, id).Scan(&count); err != nil {
		return mapSQLiteError(err)
	}
	if count == 0 {
		return persistence.ErrNotFound
	}
	return persistence.ErrVersionMismatch
}
