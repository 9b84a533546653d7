package persistence

import "context"

// StudentRepository persists student directory documents.
//
// UpdateStudent is a conditional write keyed on the document's Version; it
// returns ErrVersionMismatch when the stored version has moved on.
type StudentRepository interface {
	CreateStudent(ctx context.Context, student Student) error
	GetStudentByName(ctx context.Context, name string) (Student, error)
	UpdateStudent(ctx context.Context, student Student) error
}

// LecturerRepository persists lecturer directory documents with the same
// conditional-write contract as StudentRepository.
type LecturerRepository interface {
	CreateLecturer(ctx context.Context, lecturer Lecturer) error
	GetLecturerByName(ctx context.Context, name string) (Lecturer, error)
	UpdateLecturer(ctx context.Context, lecturer Lecturer) error
}

// RoomRepository persists room documents. Rooms come into existence lazily:
// GetOrCreateRoom upserts an empty room when the id has never been seen.
type RoomRepository interface {
	GetOrCreateRoom(ctx context.Context, id string) (Room, error)
	GetRoom(ctx context.Context, id string) (Room, error)
	UpdateRoom(ctx context.Context, room Room) error
}

// LectureRepository persists lecture records. Creating a lecture whose title
// already exists returns ErrDuplicate.
type LectureRepository interface {
	CreateLecture(ctx context.Context, lecture Lecture) error
	GetLectureByTitle(ctx context.Context, title string) (Lecture, error)
}
