package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/campus-booking/internal/persistence"
)

func TestLectureRepository_CreateAndGet(t *testing.T) {
	repo := NewLectureRepository(setupStore(t).Pool())
	ctx := context.Background()

	lecture := persistence.Lecture{
		ID:        "lecture-1",
		Title:     "Intro to Algorithms",
		Module:    "COMP1",
		Lecturer:  "Dr. Alwash",
		Date:      "2026-03-11",
		Time:      "09:30",
		CreatedAt: time.Date(2026, time.March, 9, 10, 30, 0, 0, time.UTC),
	}
	if err := repo.CreateLecture(ctx, lecture); err != nil {
		t.Fatalf("CreateLecture failed: %v", err)
	}

	stored, err := repo.GetLectureByTitle(ctx, "Intro to Algorithms")
	if err != nil {
		t.Fatalf("GetLectureByTitle failed: %v", err)
	}
	if stored.Module != "COMP1" || stored.Date != "2026-03-11" || stored.Time != "09:30" {
		t.Errorf("unexpected record %+v", stored)
	}
}

func TestLectureRepository_DuplicateTitle(t *testing.T) {
	repo := NewLectureRepository(setupStore(t).Pool())
	ctx := context.Background()

	lecture := persistence.Lecture{
		ID:        "lecture-1",
		Title:     "Intro to Algorithms",
		Module:    "COMP1",
		Lecturer:  "Dr. Alwash",
		Date:      "2026-03-11",
		Time:      "09:30",
		CreatedAt: time.Date(2026, time.March, 9, 10, 30, 0, 0, time.UTC),
	}
	if err := repo.CreateLecture(ctx, lecture); err != nil {
		t.Fatalf("first CreateLecture failed: %v", err)
	}

	lecture.ID = "lecture-2"
	if err := repo.CreateLecture(ctx, lecture); !errors.Is(err, persistence.ErrDuplicate) {
		t.Fatalf("CreateLecture = %v, want ErrDuplicate", err)
	}
}

func TestLectureRepository_GetMissing(t *testing.T) {
	repo := NewLectureRepository(setupStore(t).Pool())

	if _, err := repo.GetLectureByTitle(context.Background(), "Nope"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("GetLectureByTitle = %v, want ErrNotFound", err)
	}
}
