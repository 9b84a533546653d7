package application

import "time"

// Room status values exposed to callers.
const (
	RoomStatusEmpty  = "empty"
	RoomStatusBooked = "booked"
)

// EnrollInput captures caller provided enrollment fields.
type EnrollInput struct {
	Name     string
	Password string
	Modules  []string
}

// StudentAccount is the public view of a student returned by login and enroll.
type StudentAccount struct {
	ID      string
	Name    string
	Modules []string
}

// LecturerAccount is the public view of a lecturer returned by login and hire.
type LecturerAccount struct {
	ID      string
	Name    string
	Modules []string
}

// LoginInput captures caller provided credentials.
type LoginInput struct {
	Name     string
	Password string
}

// RoomSnapshot is the caller-facing view of a room document.
type RoomSnapshot struct {
	ID        string
	Status    string
	Lecturer  string
	Module    string
	Students  []string
	StartedAt *time.Time
}

// MakeLectureInput captures caller provided lecture fields.
type MakeLectureInput struct {
	Title    string
	Module   string
	Lecturer string
	Date     string
	Time     string
}

// LectureRecord is the caller-facing view of a created lecture.
type LectureRecord struct {
	ID       string
	Title    string
	Module   string
	Lecturer string
	Date     string
	Time     string
}
