package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/campus-booking/internal/persistence"
)

// RoomRepository implements persistence.RoomRepository using SQLite.
type RoomRepository struct {
	pool *ConnectionPool
	now  func() time.Time
}

// NewRoomRepository creates a SQLite-backed room repository.
func NewRoomRepository(pool *ConnectionPool, now func() time.Time) *RoomRepository {
	if now == nil {
		now = time.Now
	}
	return &RoomRepository{pool: pool, now: now}
}

// GetOrCreateRoom returns the room document for id, inserting an empty room
// on first reference. The insert is idempotent; concurrent callers all
// observe the same row.
func (r *RoomRepository) GetOrCreateRoom(ctx context.Context, id string) (persistence.Room, error) {
	if id == "" {
		return persistence.Room{}, persistence.ErrConstraintViolation
	}

	now := formatTime(r.now())
	query := `
		INSERT INTO rooms (id, lecturer, module, students, started_at, created_at, updated_at, version)
		VALUES (?, '', '', '[]', NULL, ?, ?, 1)
		ON CONFLICT(id) DO NOTHING
	`
	if _, err := r.pool.DB().ExecContext(ctx, query, id, now, now); err != nil {
		return persistence.Room{}, mapSQLiteError(err)
	}

	return r.GetRoom(ctx, id)
}

// GetRoom retrieves a room document by id.
func (r *RoomRepository) GetRoom(ctx context.Context, id string) (persistence.Room, error) {
	if id == "" {
		return persistence.Room{}, persistence.ErrNotFound
	}

	query := `
		SELECT id, lecturer, module, students, started_at, created_at, updated_at, version
		FROM rooms
		WHERE id = ?
	`

	var room persistence.Room
	var studentsRaw, createdAtRaw, updatedAtRaw string
	var startedAtRaw sql.NullString

	err := r.pool.DB().QueryRowContext(ctx, query, id).Scan(
		&room.ID,
		&room.Lecturer,
		&room.Module,
		&studentsRaw,
		&startedAtRaw,
		&createdAtRaw,
		&updatedAtRaw,
		&room.Version,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return persistence.Room{}, persistence.ErrNotFound
		}
		return persistence.Room{}, mapSQLiteError(err)
	}

	if room.Students, err = decodeStrings(studentsRaw); err != nil {
		return persistence.Room{}, err
	}
	if startedAtRaw.Valid {
		startedAt, err := parseTime(startedAtRaw.String)
		if err != nil {
			return persistence.Room{}, err
		}
		room.StartedAt = &startedAt
	}
	if room.CreatedAt, err = parseTime(createdAtRaw); err != nil {
		return persistence.Room{}, err
	}
	if room.UpdatedAt, err = parseTime(updatedAtRaw); err != nil {
		return persistence.Room{}, err
	}

	return room, nil
}

// UpdateRoom writes the room back conditionally on the version it was read
// at. This is the mutual-exclusion primitive for the booking lease: two
// racing writers cannot both succeed against the same snapshot.
func (r *RoomRepository) UpdateRoom(ctx context.Context, room persistence.Room) error {
	if room.ID == "" {
		return persistence.ErrConstraintViolation
	}

	students, err := encodeStrings(room.Students)
	if err != nil {
		return err
	}

	var startedAt sql.NullString
	if room.StartedAt != nil {
		startedAt = sql.NullString{String: formatTime(*room.StartedAt), Valid: true}
	}

	query := `
		UPDATE rooms
		SET lecturer = ?, module = ?, students = ?, started_at = ?, updated_at = ?, version = version + 1
		WHERE id = ? AND version = ?
	`
	result, err := r.pool.DB().ExecContext(ctx, query,
		room.Lecturer,
		room.Module,
		students,
		startedAt,
		formatTime(r.now()),
		room.ID,
		room.Version,
	)
	if err != nil {
		return mapSQLiteError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return r.staleWriteError(ctx, room.ID)
	}
	return nil
}

func (r *RoomRepository) staleWriteError(ctx context.Context, id string) error {
	var count int
	if err := r.pool.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM rooms WHERE id = ?`, id).Scan(&count); err != nil {
		return mapSQLiteError(err)
	}
	if count == 0 {
		return persistence.ErrNotFound
	}
	return persistence.ErrVersionMismatch
}
