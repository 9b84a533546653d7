package testfixtures

import (
	"context"
	"sync"

	"github.com/example/campus-booking/internal/persistence"
)

// MemoryStore is an in-memory implementation of the persistence repositories.
// It honours the same conditional-write contract as the SQLite store: updates
// only apply when the caller's version matches the stored version, and a
// mismatch reports persistence.ErrVersionMismatch.
//
// The Before*Update hooks fire once, just ahead of the next matching update.
// Tests use them to simulate a concurrent writer sneaking in between a
// service's read and its write; the hook may call Seed* or Mutate* helpers.
type MemoryStore struct {
	mu        sync.Mutex
	students  map[string]persistence.Student
	lecturers map[string]persistence.Lecturer
	rooms     map[string]persistence.Room
	lectures  map[string]persistence.Lecture

	BeforeStudentUpdate  func(*MemoryStore)
	BeforeLecturerUpdate func(*MemoryStore)
	BeforeRoomUpdate     func(*MemoryStore)
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		students:  make(map[string]persistence.Student),
		lecturers: make(map[string]persistence.Lecturer),
		rooms:     make(map[string]persistence.Room),
		lectures:  make(map[string]persistence.Lecture),
	}
}

// CreateStudent stores a new student keyed on name.
func (s *MemoryStore) CreateStudent(_ context.Context, student persistence.Student) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.students[student.Name]; exists {
		return persistence.ErrDuplicate
	}
	student.Version = 1
	s.students[student.Name] = copyStudent(student)
	return nil
}

// GetStudentByName returns the stored student or persistence.ErrNotFound.
func (s *MemoryStore) GetStudentByName(_ context.Context, name string) (persistence.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	student, exists := s.students[name]
	if !exists {
		return persistence.Student{}, persistence.ErrNotFound
	}
	return copyStudent(student), nil
}

// UpdateStudent applies a conditional write keyed on Version.
func (s *MemoryStore) UpdateStudent(_ context.Context, student persistence.Student) error {
	s.runHook(&s.BeforeStudentUpdate)
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, exists := s.students[student.Name]
	if !exists {
		return persistence.ErrNotFound
	}
	if stored.Version != student.Version {
		return persistence.ErrVersionMismatch
	}
	student.Version++
	s.students[student.Name] = copyStudent(student)
	return nil
}

// CreateLecturer stores a new lecturer keyed on name.
func (s *MemoryStore) CreateLecturer(_ context.Context, lecturer persistence.Lecturer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.lecturers[lecturer.Name]; exists {
		return persistence.ErrDuplicate
	}
	lecturer.Version = 1
	s.lecturers[lecturer.Name] = copyLecturer(lecturer)
	return nil
}

// GetLecturerByName returns the stored lecturer or persistence.ErrNotFound.
func (s *MemoryStore) GetLecturerByName(_ context.Context, name string) (persistence.Lecturer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lecturer, exists := s.lecturers[name]
	if !exists {
		return persistence.Lecturer{}, persistence.ErrNotFound
	}
	return copyLecturer(lecturer), nil
}

// UpdateLecturer applies a conditional write keyed on Version.
func (s *MemoryStore) UpdateLecturer(_ context.Context, lecturer persistence.Lecturer) error {
	s.runHook(&s.BeforeLecturerUpdate)
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, exists := s.lecturers[lecturer.Name]
	if !exists {
		return persistence.ErrNotFound
	}
	if stored.Version != lecturer.Version {
		return persistence.ErrVersionMismatch
	}
	lecturer.Version++
	s.lecturers[lecturer.Name] = copyLecturer(lecturer)
	return nil
}

// GetOrCreateRoom returns the stored room, materialising an empty one on
// first use.
func (s *MemoryStore) GetOrCreateRoom(_ context.Context, id string) (persistence.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, exists := s.rooms[id]
	if !exists {
		now := ReferenceTime()
		room = persistence.Room{
			ID:        id,
			Students:  []string{},
			CreatedAt: now,
			UpdatedAt: now,
			Version:   1,
		}
		s.rooms[id] = copyRoom(room)
	}
	return copyRoom(room), nil
}

// GetRoom returns the stored room or persistence.ErrNotFound.
func (s *MemoryStore) GetRoom(_ context.Context, id string) (persistence.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, exists := s.rooms[id]
	if !exists {
		return persistence.Room{}, persistence.ErrNotFound
	}
	return copyRoom(room), nil
}

// UpdateRoom applies a conditional write keyed on Version.
func (s *MemoryStore) UpdateRoom(_ context.Context, room persistence.Room) error {
	s.runHook(&s.BeforeRoomUpdate)
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, exists := s.rooms[room.ID]
	if !exists {
		return persistence.ErrNotFound
	}
	if stored.Version != room.Version {
		return persistence.ErrVersionMismatch
	}
	room.Version++
	s.rooms[room.ID] = copyRoom(room)
	return nil
}

// CreateLecture stores a new lecture keyed on title.
func (s *MemoryStore) CreateLecture(_ context.Context, lecture persistence.Lecture) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.lectures[lecture.Title]; exists {
		return persistence.ErrDuplicate
	}
	s.lectures[lecture.Title] = lecture
	return nil
}

// GetLectureByTitle returns the stored lecture or persistence.ErrNotFound.
func (s *MemoryStore) GetLectureByTitle(_ context.Context, title string) (persistence.Lecture, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lecture, exists := s.lectures[title]
	if !exists {
		return persistence.Lecture{}, persistence.ErrNotFound
	}
	return lecture, nil
}

// SeedStudent inserts a student directly, bypassing the duplicate check.
func (s *MemoryStore) SeedStudent(student persistence.Student) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if student.Version == 0 {
		student.Version = 1
	}
	s.students[student.Name] = copyStudent(student)
}

// SeedLecturer inserts a lecturer directly, bypassing the duplicate check.
func (s *MemoryStore) SeedLecturer(lecturer persistence.Lecturer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if lecturer.Version == 0 {
		lecturer.Version = 1
	}
	s.lecturers[lecturer.Name] = copyLecturer(lecturer)
}

// SeedRoom inserts a room directly.
func (s *MemoryStore) SeedRoom(room persistence.Room) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if room.Version == 0 {
		room.Version = 1
	}
	if room.Students == nil {
		room.Students = []string{}
	}
	s.rooms[room.ID] = copyRoom(room)
}

// Room returns the stored room for assertions. It panics when the room does
// not exist so tests fail loudly on a bad id.
func (s *MemoryStore) Room(id string) persistence.Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, exists := s.rooms[id]
	if !exists {
		panic("testfixtures: room " + id + " not seeded")
	}
	return copyRoom(room)
}

// Lecturer returns the stored lecturer for assertions.
func (s *MemoryStore) Lecturer(name string) persistence.Lecturer {
	s.mu.Lock()
	defer s.mu.Unlock()
	lecturer, exists := s.lecturers[name]
	if !exists {
		panic("testfixtures: lecturer " + name + " not seeded")
	}
	return copyLecturer(lecturer)
}

// MutateStudent applies fn to the stored student and bumps its version,
// mimicking a competing writer.
func (s *MemoryStore) MutateStudent(name string, fn func(*persistence.Student)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	student, exists := s.students[name]
	if !exists {
		panic("testfixtures: student " + name + " not seeded")
	}
	fn(&student)
	student.Version++
	s.students[name] = copyStudent(student)
}

// MutateLecturer applies fn to the stored lecturer and bumps its version,
// mimicking a competing writer.
func (s *MemoryStore) MutateLecturer(name string, fn func(*persistence.Lecturer)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lecturer, exists := s.lecturers[name]
	if !exists {
		panic("testfixtures: lecturer " + name + " not seeded")
	}
	fn(&lecturer)
	lecturer.Version++
	s.lecturers[name] = copyLecturer(lecturer)
}

// MutateRoom applies fn to the stored room and bumps its version, mimicking a
// competing writer.
func (s *MemoryStore) MutateRoom(id string, fn func(*persistence.Room)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, exists := s.rooms[id]
	if !exists {
		panic("testfixtures: room " + id + " not seeded")
	}
	fn(&room)
	room.Version++
	s.rooms[id] = copyRoom(room)
}

// runHook takes the hook out of its slot and runs it outside the store lock.
func (s *MemoryStore) runHook(slot *func(*MemoryStore)) {
	s.mu.Lock()
	hook := *slot
	*slot = nil
	s.mu.Unlock()
	if hook != nil {
		hook(s)
	}
}

func copyStudent(student persistence.Student) persistence.Student {
	student.Modules = copyStrings(student.Modules)
	return student
}

func copyLecturer(lecturer persistence.Lecturer) persistence.Lecturer {
	lecturer.Modules = copyStrings(lecturer.Modules)
	lecturer.Lectures = copyStrings(lecturer.Lectures)
	lecturer.Bookings = copyStrings(lecturer.Bookings)
	return lecturer
}

func copyRoom(room persistence.Room) persistence.Room {
	room.Students = copyStrings(room.Students)
	if room.StartedAt != nil {
		started := *room.StartedAt
		room.StartedAt = &started
	}
	return room
}

func copyStrings(values []string) []string {
	if values == nil {
		return nil
	}
	out := make([]string, len(values))
	copy(out, values)
	return out
}

var _ persistence.StudentRepository = (*MemoryStore)(nil)
var _ persistence.LecturerRepository = (*MemoryStore)(nil)
var _ persistence.RoomRepository = (*MemoryStore)(nil)
var _ persistence.LectureRepository = (*MemoryStore)(nil)
