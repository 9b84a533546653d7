package persistence

import "time"

// Student is the stored directory document for an enrolled student.
type Student struct {
	ID           string
	Name         string
	PasswordHash string
	Modules      []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Version      int64
}

// Lecturer is the stored directory document for a hired lecturer.
//
// Lectures is an advisory sequence of lecture titles the lecturer has
// created. Bookings is reserved for future use; HasBookings distinguishes
// documents written before the field existed so readers can backfill it.
type Lecturer struct {
	ID           string
	Name         string
	PasswordHash string
	Modules      []string
	Lectures     []string
	Bookings     []string
	HasBookings  bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Version      int64
}

// Room is the stored document for a bookable teaching slot. The room id is
// both primary and natural key. A room is booked exactly when Lecturer is
// non-empty; Students holds the roster of the active session.
type Room struct {
	ID        string
	Lecturer  string
	Module    string
	Students  []string
	StartedAt *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	Version   int64
}

// Lecture is the stored record of a scheduled lecture. Titles are unique.
type Lecture struct {
	ID        string
	Title     string
	Module    string
	Lecturer  string
	Date      string
	Time      string
	CreatedAt time.Time
}
