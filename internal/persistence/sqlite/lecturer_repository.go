package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/campus-booking/internal/persistence"
)

// LecturerRepository implements persistence.LecturerRepository using SQLite.
type LecturerRepository struct {
	pool *ConnectionPool
}

// NewLecturerRepository creates a SQLite-backed lecturer repository.
func NewLecturerRepository(pool *ConnectionPool) *LecturerRepository {
	return &LecturerRepository{pool: pool}
}

// CreateLecturer inserts a new lecturer document. Duplicate names surface as
// ErrDuplicate via the unique index.
func (r *LecturerRepository) CreateLecturer(ctx context.Context, lecturer persistence.Lecturer) error {
	if lecturer.ID == "" || lecturer.Name == "" {
		return persistence.ErrConstraintViolation
	}

	modules, err := encodeStrings(lecturer.Modules)
	if err != nil {
		return err
	}
	lectures, err := encodeStrings(lecturer.Lectures)
	if err != nil {
		return err
	}

	var bookings sql.NullString
	if lecturer.HasBookings {
		encoded, err := encodeStrings(lecturer.Bookings)
		if err != nil {
			return err
		}
		bookings = sql.NullString{String: encoded, Valid: true}
	}

	query := `
		INSERT INTO lecturers (id, name, password_hash, modules, lectures, bookings, created_at, updated_at, version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1)
	`
	_, err = r.pool.DB().ExecContext(ctx, query,
		lecturer.ID,
		lecturer.Name,
		lecturer.PasswordHash,
		modules,
		lectures,
		bookings,
		formatTime(lecturer.CreatedAt),
		formatTime(lecturer.UpdatedAt),
	)
	if err != nil {
		return mapSQLiteError(err)
	}
	return nil
}

// GetLecturerByName retrieves a lecturer document by its unique name. A NULL
// bookings column marks a document written before the field existed;
// HasBookings is false for those so callers can backfill.
func (r *LecturerRepository) GetLecturerByName(ctx context.Context, name string) (persistence.Lecturer, error) {
	if name == "" {
		return persistence.Lecturer{}, persistence.ErrNotFound
	}

	query := `
		SELECT id, name, password_hash, modules, lectures, bookings, created_at, updated_at, version
		FROM lecturers
		WHERE name = ?
	`

	var lecturer persistence.Lecturer
	var modulesRaw, lecturesRaw, createdAtRaw, updatedAtRaw string
	var bookingsRaw sql.NullString

	err := r.pool.DB().QueryRowContext(ctx, query, name).Scan(
		&lecturer.ID,
		&lecturer.Name,
		&lecturer.PasswordHash,
		&modulesRaw,
		&lecturesRaw,
		&bookingsRaw,
		&createdAtRaw,
		&updatedAtRaw,
		&lecturer.Version,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return persistence.Lecturer{}, persistence.ErrNotFound
		}
		return persistence.Lecturer{}, mapSQLiteError(err)
	}

	if lecturer.Modules, err = decodeStrings(modulesRaw); err != nil {
		return persistence.Lecturer{}, err
	}
	if lecturer.Lectures, err = decodeStrings(lecturesRaw); err != nil {
		return persistence.Lecturer{}, err
	}
	if bookingsRaw.Valid {
		if lecturer.Bookings, err = decodeStrings(bookingsRaw.String); err != nil {
			return persistence.Lecturer{}, err
		}
		lecturer.HasBookings = true
	}
	if lecturer.CreatedAt, err = parseTime(createdAtRaw); err != nil {
		return persistence.Lecturer{}, err
	}
	if lecturer.UpdatedAt, err = parseTime(updatedAtRaw); err != nil {
		return persistence.Lecturer{}, err
	}

	return lecturer, nil
}

// UpdateLecturer writes the document back conditionally on its version.
func (r *LecturerRepository) UpdateLecturer(ctx context.Context, lecturer persistence.Lecturer) error {
	if lecturer.ID == "" {
		return persistence.ErrConstraintViolation
	}

	modules, err := encodeStrings(lecturer.Modules)
	if err != nil {
		return err
	}
	lectures, err := encodeStrings(lecturer.Lectures)
	if err != nil {
		return err
	}

	var bookings sql.NullString
	if lecturer.HasBookings {
		encoded, err := encodeStrings(lecturer.Bookings)
		if err != nil {
			return err
		}
		bookings = sql.NullString{String: encoded, Valid: true}
	}

	query := `
		UPDATE lecturers
		SET password_hash = ?, modules = ?, lectures = ?, bookings = ?, updated_at = ?, version = version + 1
		WHERE id = ? AND version = ?
	`
	result, err := r.pool.DB().ExecContext(ctx, query,
		lecturer.PasswordHash,
		modules,
		lectures,
		bookings,
		formatTime(lecturer.UpdatedAt),
		lecturer.ID,
		lecturer.Version,
	)
	if err != nil {
		return mapSQLiteError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return r.staleWriteError(ctx, lecturer.ID)
	}
	return nil
}

func (r *LecturerRepository) staleWriteError(ctx context.Context, id string) error {
	var count int
	if err := r.pool.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM lecturers WHERE id = ?`, id).Scan(&count); err != nil {
		return mapSQLiteError(err)
	}
	if count == 0 {
		return persistence.ErrNotFound
	}
	return persistence.ErrVersionMismatch
}
