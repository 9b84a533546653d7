package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/campus-booking/internal/persistence"
)

const (
	lectureDateLayout = "2006-01-02"
	lectureTimeLayout = "15:04"
)

// LectureService records scheduled lectures. Titles are globally unique and
// each created lecture is appended to its lecturer's advisory lectures list.
type LectureService struct {
	lectures    persistence.LectureRepository
	lecturers   persistence.LecturerRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewLectureService wires dependencies for the lecture recorder.
func NewLectureService(lectures persistence.LectureRepository, lecturers persistence.LecturerRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *LectureService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &LectureService{
		lectures:    lectures,
		lecturers:   lecturers,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

// Make validates and persists a new lecture record.
func (s *LectureService) Make(ctx context.Context, input MakeLectureInput) (LectureRecord, error) {
	logger := serviceLogger(ctx, s.logger, "LectureService", "Make")

	title := strings.TrimSpace(input.Title)
	module := strings.TrimSpace(input.Module)
	lecturerName := strings.TrimSpace(input.Lecturer)
	date := strings.TrimSpace(input.Date)
	timeOfDay := strings.TrimSpace(input.Time)

	vErr := &ValidationError{}
	if title == "" {
		vErr.Add("title", "title is required")
	}
	if module == "" {
		vErr.Add("module", "module is required")
	}
	if lecturerName == "" {
		vErr.Add("lecturer", "lecturer is required")
	}
	if date == "" {
		vErr.Add("date", "date is required")
	}
	if timeOfDay == "" {
		vErr.Add("time", "time is required")
	}
	if vErr.HasErrors() {
		return LectureRecord{}, vErr
	}

	parsedDate, err := time.Parse(lectureDateLayout, date)
	if err != nil {
		vErr.Add("date", "date format must be YYYY-MM-DD")
	} else {
		today := s.now().UTC().Truncate(24 * time.Hour)
		if parsedDate.Before(today) {
			vErr.Add("date", "cannot book a date in the past")
		}
	}
	if _, err := time.Parse(lectureTimeLayout, timeOfDay); err != nil {
		vErr.Add("time", "time format must be HH:MM")
	}
	if vErr.HasErrors() {
		return LectureRecord{}, vErr
	}

	lecturer, err := s.lecturers.GetLecturerByName(ctx, lecturerName)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return LectureRecord{}, notFound("lecturer does not exist")
		}
		return LectureRecord{}, err
	}
	if !containsString(lecturer.Modules, module) {
		return LectureRecord{}, &ModuleError{
			Invalid: []string{module},
			Allowed: append([]string(nil), lecturer.Modules...),
			Message: fmt.Sprintf("lecturer does not teach module '%s'", module),
		}
	}

	lecture := persistence.Lecture{
		ID:        s.idGenerator(),
		Title:     title,
		Module:    module,
		Lecturer:  lecturer.Name,
		Date:      date,
		Time:      timeOfDay,
		CreatedAt: s.now(),
	}
	if err := s.lectures.CreateLecture(ctx, lecture); err != nil {
		if errors.Is(err, persistence.ErrDuplicate) {
			return LectureRecord{}, conflict("lecture already exists")
		}
		return LectureRecord{}, err
	}

	s.appendToLecturerLectures(ctx, logger, lecturerName, title)

	logger.InfoContext(ctx, "lecture created", "lecture_id", lecture.ID, "lecturer", lecturer.Name)
	return LectureRecord{
		ID:       lecture.ID,
		Title:    lecture.Title,
		Module:   lecture.Module,
		Lecturer: lecture.Lecturer,
		Date:     lecture.Date,
		Time:     lecture.Time,
	}, nil
}

// appendToLecturerLectures adds the title to the lecturer's advisory lecture
// list. The lecture record is authoritative, so a persistent write failure
// here is logged rather than failing the operation.
func (s *LectureService) appendToLecturerLectures(ctx context.Context, logger *slog.Logger, lecturerName, title string) {
	for attempt := 0; attempt < 3; attempt++ {
		lecturer, err := s.lecturers.GetLecturerByName(ctx, lecturerName)
		if err != nil {
			logger.WarnContext(ctx, "lecture list update skipped", "lecturer", lecturerName, "error", err)
			return
		}
		if containsString(lecturer.Lectures, title) {
			return
		}
		lecturer.Lectures = append(lecturer.Lectures, title)
		lecturer.UpdatedAt = s.now()
		err = s.lecturers.UpdateLecturer(ctx, lecturer)
		if err == nil {
			return
		}
		if !errors.Is(err, persistence.ErrVersionMismatch) {
			logger.WarnContext(ctx, "lecture list update failed", "lecturer", lecturerName, "error", err)
			return
		}
	}
	logger.WarnContext(ctx, "lecture list update abandoned after retries", "lecturer", lecturerName)
}
