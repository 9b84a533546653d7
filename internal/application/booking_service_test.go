package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/campus-booking/internal/persistence"
	"github.com/example/campus-booking/internal/testfixtures"
)

func seedLecturer(store *testfixtures.MemoryStore, name string, modules ...string) {
	if len(modules) == 0 {
		modules = []string{"COMP1", "COMP2", "COMP3"}
	}
	store.SeedLecturer(persistence.Lecturer{
		ID:          "lect-" + name,
		Name:        name,
		Modules:     modules,
		Lectures:    []string{},
		Bookings:    []string{},
		HasBookings: true,
	})
}

func newBookingForTest(store *testfixtures.MemoryStore, clock *testfixtures.Clock) *BookingService {
	return NewBookingService(store, store, clock.NowFunc(), 3, nil)
}

func TestBookingService_GetOrCreate(t *testing.T) {
	t.Parallel()

	store := testfixtures.NewMemoryStore()
	service := newBookingForTest(store, testfixtures.NewClock(time.Time{}))

	snapshot, err := service.GetOrCreate(context.Background(), "R1")
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	if snapshot.Status != RoomStatusEmpty {
		t.Errorf("Status = %q, want empty", snapshot.Status)
	}
	if snapshot.Lecturer != "" || snapshot.Module != "" {
		t.Errorf("new room is not blank: %+v", snapshot)
	}
	if len(snapshot.Students) != 0 {
		t.Errorf("Students = %v, want empty", snapshot.Students)
	}

	again, err := service.GetOrCreate(context.Background(), "R1")
	if err != nil {
		t.Fatalf("second GetOrCreate failed: %v", err)
	}
	if again.ID != snapshot.ID {
		t.Errorf("expected the same room, got %q and %q", snapshot.ID, again.ID)
	}

	if _, err := service.GetOrCreate(context.Background(), "  "); err == nil {
		t.Fatal("expected validation error for a blank room id")
	}
}

func TestBookingService_SetModule(t *testing.T) {
	t.Parallel()

	t.Run("records the module for a qualified lecturer", func(t *testing.T) {
		t.Parallel()
		store := testfixtures.NewMemoryStore()
		seedLecturer(store, "Dr. Alwash")
		service := newBookingForTest(store, testfixtures.NewClock(time.Time{}))

		snapshot, err := service.SetModule(context.Background(), "R1", "Dr. Alwash", "COMP1")
		if err != nil {
			t.Fatalf("SetModule failed: %v", err)
		}
		if snapshot.Module != "COMP1" {
			t.Errorf("Module = %q, want COMP1", snapshot.Module)
		}
		if snapshot.Status != RoomStatusEmpty {
			t.Errorf("setting a module must not claim the room, got status %q", snapshot.Status)
		}
	})

	t.Run("rejects an unqualified lecturer", func(t *testing.T) {
		t.Parallel()
		store := testfixtures.NewMemoryStore()
		seedLecturer(store, "Dr. Alwash", "MATH1", "MATH2", "MATH3")
		service := newBookingForTest(store, testfixtures.NewClock(time.Time{}))

		_, err := service.SetModule(context.Background(), "R1", "Dr. Alwash", "COMP1")
		var mErr *ModuleError
		if !errors.As(err, &mErr) {
			t.Fatalf("SetModule = %v, want ModuleError", err)
		}
		if len(mErr.Allowed) != 3 || mErr.Allowed[0] != "MATH1" {
			t.Errorf("Allowed = %v, want the lecturer's modules", mErr.Allowed)
		}
	})

	t.Run("reports an unknown lecturer", func(t *testing.T) {
		t.Parallel()
		store := testfixtures.NewMemoryStore()
		service := newBookingForTest(store, testfixtures.NewClock(time.Time{}))

		if _, err := service.SetModule(context.Background(), "R1", "Nobody", "COMP1"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("SetModule = %v, want ErrNotFound", err)
		}
	})

	t.Run("retries a lost conditional write", func(t *testing.T) {
		t.Parallel()
		store := testfixtures.NewMemoryStore()
		seedLecturer(store, "Dr. Alwash")
		service := newBookingForTest(store, testfixtures.NewClock(time.Time{}))

		if _, err := service.GetOrCreate(context.Background(), "R1"); err != nil {
			t.Fatalf("GetOrCreate failed: %v", err)
		}
		store.BeforeRoomUpdate = func(s *testfixtures.MemoryStore) {
			s.MutateRoom("R1", func(room *persistence.Room) {
				room.Students = append(room.Students, "Walk-in")
			})
		}

		snapshot, err := service.SetModule(context.Background(), "R1", "Dr. Alwash", "COMP2")
		if err != nil {
			t.Fatalf("SetModule failed after retry: %v", err)
		}
		if snapshot.Module != "COMP2" {
			t.Errorf("Module = %q, want COMP2", snapshot.Module)
		}
		stored := store.Room("R1")
		if len(stored.Students) != 1 {
			t.Errorf("retry must preserve the competing write, students = %v", stored.Students)
		}
	})
}

func TestBookingService_Start(t *testing.T) {
	t.Parallel()

	t.Run("claims an empty room", func(t *testing.T) {
		t.Parallel()
		store := testfixtures.NewMemoryStore()
		seedLecturer(store, "Dr. Alwash")
		clock := testfixtures.NewClock(time.Time{})
		service := newBookingForTest(store, clock)

		snapshot, err := service.Start(context.Background(), "R1", "Dr. Alwash")
		if err != nil {
			t.Fatalf("Start failed: %v", err)
		}
		if snapshot.Status != RoomStatusBooked {
			t.Errorf("Status = %q, want booked", snapshot.Status)
		}
		if snapshot.Lecturer != "Dr. Alwash" {
			t.Errorf("Lecturer = %q, want Dr. Alwash", snapshot.Lecturer)
		}
		if snapshot.StartedAt == nil || !snapshot.StartedAt.Equal(clock.Now()) {
			t.Errorf("StartedAt = %v, want %v", snapshot.StartedAt, clock.Now())
		}
	})

	t.Run("restarting an owned room is idempotent", func(t *testing.T) {
		t.Parallel()
		store := testfixtures.NewMemoryStore()
		seedLecturer(store, "Dr. Alwash")
		clock := testfixtures.NewClock(time.Time{})
		service := newBookingForTest(store, clock)

		first, err := service.Start(context.Background(), "R1", "Dr. Alwash")
		if err != nil {
			t.Fatalf("Start failed: %v", err)
		}
		clock.Advance(time.Hour)
		second, err := service.Start(context.Background(), "R1", "Dr. Alwash")
		if err != nil {
			t.Fatalf("second Start failed: %v", err)
		}
		if !second.StartedAt.Equal(*first.StartedAt) {
			t.Errorf("restart changed the start stamp: %v vs %v", second.StartedAt, first.StartedAt)
		}
	})

	t.Run("a held room rejects other lecturers", func(t *testing.T) {
		t.Parallel()
		store := testfixtures.NewMemoryStore()
		seedLecturer(store, "Dr. Alwash")
		seedLecturer(store, "Dr. Binte")
		service := newBookingForTest(store, testfixtures.NewClock(time.Time{}))

		if _, err := service.Start(context.Background(), "R1", "Dr. Alwash"); err != nil {
			t.Fatalf("Start failed: %v", err)
		}
		if _, err := service.Start(context.Background(), "R1", "Dr. Binte"); !errors.Is(err, ErrConflict) {
			t.Fatalf("Start = %v, want ErrConflict", err)
		}
	})

	t.Run("a lost claim race surfaces as a conflict", func(t *testing.T) {
		t.Parallel()
		store := testfixtures.NewMemoryStore()
		seedLecturer(store, "Dr. Alwash")
		seedLecturer(store, "Dr. Binte")
		service := newBookingForTest(store, testfixtures.NewClock(time.Time{}))

		if _, err := service.GetOrCreate(context.Background(), "R1"); err != nil {
			t.Fatalf("GetOrCreate failed: %v", err)
		}
		store.BeforeRoomUpdate = func(s *testfixtures.MemoryStore) {
			s.MutateRoom("R1", func(room *persistence.Room) {
				started := testfixtures.ReferenceTime()
				room.Lecturer = "Dr. Binte"
				room.StartedAt = &started
			})
		}

		if _, err := service.Start(context.Background(), "R1", "Dr. Alwash"); !errors.Is(err, ErrConflict) {
			t.Fatalf("Start = %v, want ErrConflict after losing the race", err)
		}
		if stored := store.Room("R1"); stored.Lecturer != "Dr. Binte" {
			t.Errorf("race winner lost the room: %+v", stored)
		}
	})

	t.Run("requires a known lecturer", func(t *testing.T) {
		t.Parallel()
		store := testfixtures.NewMemoryStore()
		service := newBookingForTest(store, testfixtures.NewClock(time.Time{}))

		if _, err := service.Start(context.Background(), "R1", "Nobody"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("Start = %v, want ErrNotFound", err)
		}
	})
}

func TestBookingService_End(t *testing.T) {
	t.Parallel()

	t.Run("the owner releases the room and its roster", func(t *testing.T) {
		t.Parallel()
		store := testfixtures.NewMemoryStore()
		seedLecturer(store, "Dr. Alwash")
		service := newBookingForTest(store, testfixtures.NewClock(time.Time{}))

		if _, err := service.Start(context.Background(), "R1", "Dr. Alwash"); err != nil {
			t.Fatalf("Start failed: %v", err)
		}
		store.MutateRoom("R1", func(room *persistence.Room) {
			room.Students = []string{"Aarfa", "Bilal"}
		})

		snapshot, err := service.End(context.Background(), "R1", "Dr. Alwash")
		if err != nil {
			t.Fatalf("End failed: %v", err)
		}
		if snapshot.Status != RoomStatusEmpty {
			t.Errorf("Status = %q, want empty", snapshot.Status)
		}
		if len(snapshot.Students) != 0 {
			t.Errorf("Students = %v, want cleared", snapshot.Students)
		}
		if snapshot.StartedAt != nil {
			t.Errorf("StartedAt = %v, want nil", snapshot.StartedAt)
		}
	})

	t.Run("non-owners may not end the session", func(t *testing.T) {
		t.Parallel()
		store := testfixtures.NewMemoryStore()
		seedLecturer(store, "Dr. Alwash")
		seedLecturer(store, "Dr. Binte")
		service := newBookingForTest(store, testfixtures.NewClock(time.Time{}))

		if _, err := service.Start(context.Background(), "R1", "Dr. Alwash"); err != nil {
			t.Fatalf("Start failed: %v", err)
		}
		if _, err := service.End(context.Background(), "R1", "Dr. Binte"); !errors.Is(err, ErrForbidden) {
			t.Fatalf("End = %v, want ErrForbidden", err)
		}
	})

	t.Run("ending an empty or unknown room is forbidden", func(t *testing.T) {
		t.Parallel()
		store := testfixtures.NewMemoryStore()
		seedLecturer(store, "Dr. Alwash")
		service := newBookingForTest(store, testfixtures.NewClock(time.Time{}))

		if _, err := service.End(context.Background(), "R1", "Dr. Alwash"); !errors.Is(err, ErrForbidden) {
			t.Fatalf("End on unknown room = %v, want ErrForbidden", err)
		}

		if _, err := service.GetOrCreate(context.Background(), "R1"); err != nil {
			t.Fatalf("GetOrCreate failed: %v", err)
		}
		if _, err := service.End(context.Background(), "R1", "Dr. Alwash"); !errors.Is(err, ErrForbidden) {
			t.Fatalf("End on empty room = %v, want ErrForbidden", err)
		}
	})
}

func TestBookingService_Reset(t *testing.T) {
	t.Parallel()

	store := testfixtures.NewMemoryStore()
	seedLecturer(store, "Dr. Alwash")
	service := newBookingForTest(store, testfixtures.NewClock(time.Time{}))

	if _, err := service.Start(context.Background(), "R1", "Dr. Alwash"); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	snapshot, err := service.Reset(context.Background(), "R1")
	if err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if snapshot.Status != RoomStatusEmpty || snapshot.Lecturer != "" {
		t.Errorf("Reset left the room occupied: %+v", snapshot)
	}

	// Resetting an unknown room materialises it empty.
	fresh, err := service.Reset(context.Background(), "R2")
	if err != nil {
		t.Fatalf("Reset on unknown room failed: %v", err)
	}
	if fresh.Status != RoomStatusEmpty {
		t.Errorf("Status = %q, want empty", fresh.Status)
	}
}
