package application

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/example/campus-booking/internal/persistence"
)

// RosterService maintains the set of students attending a room's active
// session. Adds require a running session and are set-semantic; removes are
// lenient and always succeed once the room resolves.
type RosterService struct {
	rooms       persistence.RoomRepository
	students    persistence.StudentRepository
	casAttempts int
	logger      *slog.Logger
}

// NewRosterService wires dependencies for the roster manager.
func NewRosterService(rooms persistence.RoomRepository, students persistence.StudentRepository, casAttempts int, logger *slog.Logger) *RosterService {
	if casAttempts < 1 {
		casAttempts = 3
	}
	return &RosterService{
		rooms:       rooms,
		students:    students,
		casAttempts: casAttempts,
		logger:      defaultLogger(logger),
	}
}

// AddStudent marks the student as attending the room's session. Adding a
// student who is already on the roster is a success no-op.
func (s *RosterService) AddStudent(ctx context.Context, roomID, studentName string) ([]string, error) {
	logger := serviceLogger(ctx, s.logger, "RosterService", "AddStudent", "room_id", roomID)

	roomID = strings.TrimSpace(roomID)
	studentName = strings.TrimSpace(studentName)

	vErr := &ValidationError{}
	if roomID == "" {
		vErr.Add("roomId", "roomId is required")
	}
	if studentName == "" {
		vErr.Add("student", "student is required")
	}
	if vErr.HasErrors() {
		return nil, vErr
	}

	if _, err := s.students.GetStudentByName(ctx, studentName); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return nil, notFound("student not found")
		}
		return nil, err
	}

	var roster []string
	err := s.withCASRetry(ctx, logger, func() error {
		room, err := s.rooms.GetOrCreateRoom(ctx, roomID)
		if err != nil {
			return err
		}
		if room.Lecturer == "" {
			return conflict("no session running")
		}
		if containsString(room.Students, studentName) {
			roster = append([]string(nil), room.Students...)
			return nil
		}

		room.Students = append(room.Students, studentName)
		if err := s.rooms.UpdateRoom(ctx, room); err != nil {
			return err
		}
		roster = append([]string(nil), room.Students...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.InfoContext(ctx, "student joined session", "student", studentName, "roster_size", len(roster))
	return roster, nil
}

// RemoveStudent takes the student off the room's roster. The filter is
// unconditional: removing a student who is not present succeeds quietly, so
// retried requests after a dropped response stay silent.
func (s *RosterService) RemoveStudent(ctx context.Context, roomID, studentName string) ([]string, error) {
	logger := serviceLogger(ctx, s.logger, "RosterService", "RemoveStudent", "room_id", roomID)

	roomID = strings.TrimSpace(roomID)
	studentName = strings.TrimSpace(studentName)

	vErr := &ValidationError{}
	if roomID == "" {
		vErr.Add("roomId", "roomId is required")
	}
	if studentName == "" {
		vErr.Add("student", "student is required")
	}
	if vErr.HasErrors() {
		return nil, vErr
	}

	var roster []string
	err := s.withCASRetry(ctx, logger, func() error {
		room, err := s.rooms.GetOrCreateRoom(ctx, roomID)
		if err != nil {
			return err
		}

		filtered := make([]string, 0, len(room.Students))
		for _, name := range room.Students {
			if name != studentName {
				filtered = append(filtered, name)
			}
		}
		if len(filtered) == len(room.Students) {
			roster = filtered
			return nil
		}

		room.Students = filtered
		if err := s.rooms.UpdateRoom(ctx, room); err != nil {
			return err
		}
		roster = filtered
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.InfoContext(ctx, "student left session", "student", studentName, "roster_size", len(roster))
	return roster, nil
}

func (s *RosterService) withCASRetry(ctx context.Context, logger *slog.Logger, attempt func() error) error {
	var err error
	for i := 0; i < s.casAttempts; i++ {
		err = attempt()
		if err == nil {
			return nil
		}
		if !errors.Is(err, persistence.ErrVersionMismatch) {
			return err
		}
		logger.WarnContext(ctx, "conditional write lost race, retrying", "attempt", i+1)
	}
	return conflict("room was modified concurrently, retry")
}
