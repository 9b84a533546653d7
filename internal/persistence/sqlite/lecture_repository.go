package sqlite

import (
	"context"
	"database/sql"

	"github.com/example/campus-booking/internal/persistence"
)

// LectureRepository implements persistence.LectureRepository using SQLite.
type LectureRepository struct {
	pool *ConnectionPool
}

// NewLectureRepository creates a SQLite-backed lecture repository.
func NewLectureRepository(pool *ConnectionPool) *LectureRepository {
	return &LectureRepository{pool: pool}
}

// CreateLecture inserts a lecture record. Duplicate titles surface as
// ErrDuplicate via the unique index.
func (r *LectureRepository) CreateLecture(ctx context.Context, lecture persistence.Lecture) error {
	if lecture.ID == "" || lecture.Title == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO lectures (id, title, module, lecturer, lecture_date, lecture_time, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.pool.DB().ExecContext(ctx, query,
		lecture.ID,
		lecture.Title,
		lecture.Module,
		lecture.Lecturer,
		lecture.Date,
		lecture.Time,
		formatTime(lecture.CreatedAt),
	)
	if err != nil {
		return mapSQLiteError(err)
	}
	return nil
}

// GetLectureByTitle retrieves a lecture record by its unique title.
func (r *LectureRepository) GetLectureByTitle(ctx context.Context, title string) (persistence.Lecture, error) {
	if title == "" {
		return persistence.Lecture{}, persistence.ErrNotFound
	}

	query := `
		SELECT id, title, module, lecturer, lecture_date, lecture_time, created_at
		FROM lectures
		WHERE title = ?
	`

	var lecture persistence.Lecture
	var createdAtRaw string

	err := r.pool.DB().QueryRowContext(ctx, query, title).Scan(
		&lecture.ID,
		&lecture.Title,
		&lecture.Module,
		&lecture.Lecturer,
		&lecture.Date,
		&lecture.Time,
		&createdAtRaw,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return persistence.Lecture{}, persistence.ErrNotFound
		}
		return persistence.Lecture{}, mapSQLiteError(err)
	}

	if lecture.CreatedAt, err = parseTime(createdAtRaw); err != nil {
		return persistence.Lecture{}, err
	}

	return lecture, nil
}
