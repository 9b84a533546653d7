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

// BookingService is the room booking state machine. A room is a single-writer
// lease: the occupying lecturer holds it until they end their session. All
// mutations are read-validate-write loops over conditional store writes, so
// two racing claims can never both succeed against the same snapshot.
type BookingService struct {
	rooms       persistence.RoomRepository
	lecturers   persistence.LecturerRepository
	now         func() time.Time
	casAttempts int
	logger      *slog.Logger
}

// NewBookingService wires dependencies for the booking state machine.
// casAttempts bounds how often a lost conditional write is retried before
// the operation surfaces ErrConflict.
func NewBookingService(rooms persistence.RoomRepository, lecturers persistence.LecturerRepository, now func() time.Time, casAttempts int, logger *slog.Logger) *BookingService {
	if now == nil {
		now = time.Now
	}
	if casAttempts < 1 {
		casAttempts = 3
	}
	return &BookingService{
		rooms:       rooms,
		lecturers:   lecturers,
		now:         now,
		casAttempts: casAttempts,
		logger:      defaultLogger(logger),
	}
}

// GetOrCreate resolves the room document, creating it in the empty state on
// first reference.
func (s *BookingService) GetOrCreate(ctx context.Context, roomID string) (RoomSnapshot, error) {
	roomID = strings.TrimSpace(roomID)
	if roomID == "" {
		vErr := &ValidationError{}
		vErr.Add("roomId", "roomId is required")
		return RoomSnapshot{}, vErr
	}

	room, err := s.rooms.GetOrCreateRoom(ctx, roomID)
	if err != nil {
		return RoomSnapshot{}, err
	}
	return toRoomSnapshot(room), nil
}

// SetModule sets the room's module field. The lecturer must exist and be
// qualified to teach the module; the room's occupancy is not changed.
func (s *BookingService) SetModule(ctx context.Context, roomID, lecturerName, module string) (RoomSnapshot, error) {
	logger := serviceLogger(ctx, s.logger, "BookingService", "SetModule", "room_id", roomID)

	roomID = strings.TrimSpace(roomID)
	lecturerName = strings.TrimSpace(lecturerName)
	module = strings.TrimSpace(module)

	vErr := &ValidationError{}
	if roomID == "" {
		vErr.Add("roomId", "roomId is required")
	}
	if lecturerName == "" {
		vErr.Add("lecturer", "lecturer is required")
	}
	if module == "" {
		vErr.Add("module", "module is required")
	}
	if vErr.HasErrors() {
		return RoomSnapshot{}, vErr
	}

	lecturer, err := s.lecturers.GetLecturerByName(ctx, lecturerName)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return RoomSnapshot{}, notFound("lecturer not found")
		}
		return RoomSnapshot{}, err
	}
	if !containsString(lecturer.Modules, module) {
		return RoomSnapshot{}, &ModuleError{
			Invalid: []string{module},
			Allowed: append([]string(nil), lecturer.Modules...),
			Message: fmt.Sprintf("lecturer does not teach module '%s'", module),
		}
	}

	var snapshot RoomSnapshot
	err = s.withCASRetry(ctx, logger, func() error {
		room, err := s.rooms.GetOrCreateRoom(ctx, roomID)
		if err != nil {
			return err
		}
		room.Module = module
		if err := s.rooms.UpdateRoom(ctx, room); err != nil {
			return err
		}
		room.Version++
		snapshot = toRoomSnapshot(room)
		return nil
	})
	if err != nil {
		return RoomSnapshot{}, err
	}

	logger.InfoContext(ctx, "room module set", "module", module, "lecturer", lecturerName)
	return snapshot, nil
}

// Start claims the room lease for the lecturer. Starting a room the lecturer
// already holds is an idempotent success; a room held by anyone else is a
// conflict.
func (s *BookingService) Start(ctx context.Context, roomID, lecturerName string) (RoomSnapshot, error) {
	logger := serviceLogger(ctx, s.logger, "BookingService", "Start", "room_id", roomID)

	roomID = strings.TrimSpace(roomID)
	lecturerName = strings.TrimSpace(lecturerName)

	vErr := &ValidationError{}
	if roomID == "" {
		vErr.Add("roomId", "roomId is required")
	}
	if lecturerName == "" {
		vErr.Add("lecturer", "lecturer is required")
	}
	if vErr.HasErrors() {
		return RoomSnapshot{}, vErr
	}

	if _, err := s.lecturers.GetLecturerByName(ctx, lecturerName); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return RoomSnapshot{}, notFound("lecturer not found")
		}
		return RoomSnapshot{}, err
	}

	var snapshot RoomSnapshot
	err := s.withCASRetry(ctx, logger, func() error {
		room, err := s.rooms.GetOrCreateRoom(ctx, roomID)
		if err != nil {
			return err
		}

		switch room.Lecturer {
		case lecturerName:
			// Idempotent re-start; the original start time stands.
			snapshot = toRoomSnapshot(room)
			return nil
		case "":
			startedAt := s.now()
			room.Lecturer = lecturerName
			room.StartedAt = &startedAt
			if err := s.rooms.UpdateRoom(ctx, room); err != nil {
				return err
			}
			room.Version++
			snapshot = toRoomSnapshot(room)
			return nil
		default:
			return conflict("another lecturer already owns this room")
		}
	})
	if err != nil {
		return RoomSnapshot{}, err
	}

	logger.InfoContext(ctx, "session started", "lecturer", lecturerName)
	return snapshot, nil
}

// End releases the room lease. Only the occupying lecturer may end the
// session; ending an empty room is also forbidden.
func (s *BookingService) End(ctx context.Context, roomID, lecturerName string) (RoomSnapshot, error) {
	logger := serviceLogger(ctx, s.logger, "BookingService", "End", "room_id", roomID)

	roomID = strings.TrimSpace(roomID)
	lecturerName = strings.TrimSpace(lecturerName)

	vErr := &ValidationError{}
	if roomID == "" {
		vErr.Add("roomId", "roomId is required")
	}
	if lecturerName == "" {
		vErr.Add("lecturer", "lecturer is required")
	}
	if vErr.HasErrors() {
		return RoomSnapshot{}, vErr
	}

	var snapshot RoomSnapshot
	err := s.withCASRetry(ctx, logger, func() error {
		room, err := s.rooms.GetRoom(ctx, roomID)
		if err != nil {
			if errors.Is(err, persistence.ErrNotFound) {
				return forbidden("you may only end your own session")
			}
			return err
		}
		if room.Lecturer != lecturerName {
			return forbidden("you may only end your own session")
		}

		clearRoom(&room)
		if err := s.rooms.UpdateRoom(ctx, room); err != nil {
			return err
		}
		room.Version++
		snapshot = toRoomSnapshot(room)
		return nil
	})
	if err != nil {
		return RoomSnapshot{}, err
	}

	logger.InfoContext(ctx, "session ended", "lecturer", lecturerName)
	return snapshot, nil
}

// Reset clears the room unconditionally. This is the administrative recovery
// path for leases whose holder will never call End.
func (s *BookingService) Reset(ctx context.Context, roomID string) (RoomSnapshot, error) {
	logger := serviceLogger(ctx, s.logger, "BookingService", "Reset", "room_id", roomID)

	roomID = strings.TrimSpace(roomID)
	if roomID == "" {
		vErr := &ValidationError{}
		vErr.Add("roomId", "roomId is required")
		return RoomSnapshot{}, vErr
	}

	var snapshot RoomSnapshot
	err := s.withCASRetry(ctx, logger, func() error {
		room, err := s.rooms.GetOrCreateRoom(ctx, roomID)
		if err != nil {
			return err
		}
		clearRoom(&room)
		if err := s.rooms.UpdateRoom(ctx, room); err != nil {
			return err
		}
		room.Version++
		snapshot = toRoomSnapshot(room)
		return nil
	})
	if err != nil {
		return RoomSnapshot{}, err
	}

	logger.InfoContext(ctx, "room reset")
	return snapshot, nil
}

// withCASRetry runs the read-validate-write sequence, retrying when the
// conditional write loses its race. Preconditions are re-evaluated on every
// attempt because the document has changed underneath.
func (s *BookingService) withCASRetry(ctx context.Context, logger *slog.Logger, attempt func() error) error {
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

func clearRoom(room *persistence.Room) {
	room.Lecturer = ""
	room.Module = ""
	room.Students = []string{}
	room.StartedAt = nil
}

func toRoomSnapshot(room persistence.Room) RoomSnapshot {
	status := RoomStatusEmpty
	if room.Lecturer != "" {
		status = RoomStatusBooked
	}
	students := make([]string, len(room.Students))
	copy(students, room.Students)
	var startedAt *time.Time
	if room.StartedAt != nil {
		t := *room.StartedAt
		startedAt = &t
	}
	return RoomSnapshot{
		ID:        room.ID,
		Status:    status,
		Lecturer:  room.Lecturer,
		Module:    room.Module,
		Students:  students,
		StartedAt: startedAt,
	}
}

func containsString(values []string, target string) bool {
	for _, value := range values {
		if value == target {
			return true
		}
	}
	return false
}
