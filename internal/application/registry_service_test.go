package application

import (
	"context"
	"errors"
	"testing"

	"github.com/example/campus-booking/internal/catalog"
	"github.com/example/campus-booking/internal/persistence"
	"github.com/example/campus-booking/internal/testfixtures"
)

func newRegistryForTest(store *testfixtures.MemoryStore) *RegistryService {
	clock := testfixtures.NewClock(testfixtures.ReferenceTime())
	ids := testfixtures.NewIDGenerator("acct")
	service := NewRegistryService(store, store, catalog.Default(), ids.NextFunc(), clock.NowFunc(), nil)
	service.hashParams = fastArgon2idParams
	return service
}

func mustEnrollStudent(t *testing.T, service *RegistryService, name string) StudentAccount {
	t.Helper()
	account, err := service.EnrollStudent(context.Background(), EnrollInput{
		Name:     name,
		Password: "secret123",
		Modules:  []string{"COMP1", "COMP2", "MATH1", "MATH2"},
	})
	if err != nil {
		t.Fatalf("EnrollStudent(%s) failed: %v", name, err)
	}
	return account
}

func mustHireLecturer(t *testing.T, service *RegistryService, name string) LecturerAccount {
	t.Helper()
	account, err := service.HireLecturer(context.Background(), EnrollInput{
		Name:     name,
		Password: "secret123",
		Modules:  []string{"COMP1", "COMP2", "COMP3"},
	})
	if err != nil {
		t.Fatalf("HireLecturer(%s) failed: %v", name, err)
	}
	return account
}

func TestRegistryService_EnrollStudent(t *testing.T) {
	t.Parallel()

	t.Run("persists a valid student", func(t *testing.T) {
		t.Parallel()
		service := newRegistryForTest(testfixtures.NewMemoryStore())

		account, err := service.EnrollStudent(context.Background(), EnrollInput{
			Name:     "Aarfa",
			Password: "secret123",
			Modules:  []string{" COMP1 ", "COMP2", "MATH1", "MATH2"},
		})
		if err != nil {
			t.Fatalf("EnrollStudent failed: %v", err)
		}
		if account.ID == "" {
			t.Error("expected a generated account id")
		}
		if account.Name != "Aarfa" {
			t.Errorf("Name = %q, want Aarfa", account.Name)
		}
		if len(account.Modules) != 4 || account.Modules[0] != "COMP1" {
			t.Errorf("unexpected modules %v", account.Modules)
		}
	})

	t.Run("requires name and password", func(t *testing.T) {
		t.Parallel()
		service := newRegistryForTest(testfixtures.NewMemoryStore())

		_, err := service.EnrollStudent(context.Background(), EnrollInput{
			Name:     "   ",
			Password: "",
			Modules:  []string{"COMP1", "COMP2", "MATH1", "MATH2"},
		})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("EnrollStudent = %v, want ValidationError", err)
		}
		if _, ok := vErr.FieldErrors["name"]; !ok {
			t.Error("expected a name field error")
		}
		if _, ok := vErr.FieldErrors["password"]; !ok {
			t.Error("expected a password field error")
		}
	})

	t.Run("rejects out-of-range passwords", func(t *testing.T) {
		t.Parallel()
		service := newRegistryForTest(testfixtures.NewMemoryStore())

		for _, password := range []string{"short", "waytoolongpassword"} {
			_, err := service.EnrollStudent(context.Background(), EnrollInput{
				Name:     "Aarfa",
				Password: password,
				Modules:  []string{"COMP1", "COMP2", "MATH1", "MATH2"},
			})
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("EnrollStudent(%q) = %v, want ValidationError", password, err)
			}
			if _, ok := vErr.FieldErrors["password"]; !ok {
				t.Errorf("EnrollStudent(%q): expected a password field error", password)
			}
		}
	})

	t.Run("counts modules after de-duplication", func(t *testing.T) {
		t.Parallel()
		service := newRegistryForTest(testfixtures.NewMemoryStore())

		_, err := service.EnrollStudent(context.Background(), EnrollInput{
			Name:     "Aarfa",
			Password: "secret123",
			Modules:  []string{"COMP1", "COMP1", "COMP2", "COMP3"},
		})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("EnrollStudent = %v, want ValidationError", err)
		}
		if msg := vErr.FieldErrors["modules"]; msg != "student must take exactly 4 distinct modules" {
			t.Errorf("modules error = %q", msg)
		}
	})

	t.Run("rejects modules outside the catalog", func(t *testing.T) {
		t.Parallel()
		service := newRegistryForTest(testfixtures.NewMemoryStore())

		_, err := service.EnrollStudent(context.Background(), EnrollInput{
			Name:     "Aarfa",
			Password: "secret123",
			Modules:  []string{"COMP1", "COMP2", "MATH1", "BIOL9"},
		})
		var mErr *ModuleError
		if !errors.As(err, &mErr) {
			t.Fatalf("EnrollStudent = %v, want ModuleError", err)
		}
		if len(mErr.Invalid) != 1 || mErr.Invalid[0] != "BIOL9" {
			t.Errorf("Invalid = %v, want [BIOL9]", mErr.Invalid)
		}
		if len(mErr.Allowed) != catalog.Default().Len() {
			t.Errorf("Allowed has %d entries, want the full catalog", len(mErr.Allowed))
		}
	})

	t.Run("reports duplicate names as conflicts", func(t *testing.T) {
		t.Parallel()
		service := newRegistryForTest(testfixtures.NewMemoryStore())

		mustEnrollStudent(t, service, "Aarfa")
		_, err := service.EnrollStudent(context.Background(), EnrollInput{
			Name:     "Aarfa",
			Password: "secret123",
			Modules:  []string{"COMP1", "COMP2", "MATH1", "MATH2"},
		})
		if !errors.Is(err, ErrConflict) {
			t.Fatalf("EnrollStudent = %v, want ErrConflict", err)
		}
	})
}

func TestRegistryService_HireLecturer(t *testing.T) {
	t.Parallel()

	t.Run("persists a valid lecturer", func(t *testing.T) {
		t.Parallel()
		service := newRegistryForTest(testfixtures.NewMemoryStore())

		account := mustHireLecturer(t, service, "Dr. Alwash")
		if len(account.Modules) != 3 {
			t.Errorf("Modules = %v, want 3 entries", account.Modules)
		}
	})

	t.Run("requires exactly three distinct modules", func(t *testing.T) {
		t.Parallel()
		service := newRegistryForTest(testfixtures.NewMemoryStore())

		_, err := service.HireLecturer(context.Background(), EnrollInput{
			Name:     "Dr. Alwash",
			Password: "secret123",
			Modules:  []string{"COMP1", "COMP2", "MATH1", "MATH2"},
		})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("HireLecturer = %v, want ValidationError", err)
		}
		if msg := vErr.FieldErrors["modules"]; msg != "lecturer must teach exactly 3 distinct modules" {
			t.Errorf("modules error = %q", msg)
		}
	})

	t.Run("reports duplicate names as conflicts", func(t *testing.T) {
		t.Parallel()
		service := newRegistryForTest(testfixtures.NewMemoryStore())

		mustHireLecturer(t, service, "Dr. Alwash")
		_, err := service.HireLecturer(context.Background(), EnrollInput{
			Name:     "Dr. Alwash",
			Password: "secret123",
			Modules:  []string{"COMP1", "COMP2", "COMP3"},
		})
		if !errors.Is(err, ErrConflict) {
			t.Fatalf("HireLecturer = %v, want ErrConflict", err)
		}
	})
}

func TestRegistryService_Login(t *testing.T) {
	t.Parallel()

	t.Run("accepts matching student credentials", func(t *testing.T) {
		t.Parallel()
		service := newRegistryForTest(testfixtures.NewMemoryStore())
		enrolled := mustEnrollStudent(t, service, "Aarfa")

		account, err := service.StudentLogin(context.Background(), LoginInput{Name: "Aarfa", Password: "secret123"})
		if err != nil {
			t.Fatalf("StudentLogin failed: %v", err)
		}
		if account.ID != enrolled.ID {
			t.Errorf("ID = %q, want %q", account.ID, enrolled.ID)
		}
	})

	t.Run("rejects a wrong password", func(t *testing.T) {
		t.Parallel()
		service := newRegistryForTest(testfixtures.NewMemoryStore())
		mustEnrollStudent(t, service, "Aarfa")

		_, err := service.StudentLogin(context.Background(), LoginInput{Name: "Aarfa", Password: "secret124"})
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("StudentLogin = %v, want ErrInvalidCredentials", err)
		}
	})

	t.Run("reports unknown accounts", func(t *testing.T) {
		t.Parallel()
		service := newRegistryForTest(testfixtures.NewMemoryStore())

		if _, err := service.StudentLogin(context.Background(), LoginInput{Name: "Nobody", Password: "secret123"}); !errors.Is(err, ErrNotFound) {
			t.Fatalf("StudentLogin = %v, want ErrNotFound", err)
		}
		if _, err := service.LecturerLogin(context.Background(), LoginInput{Name: "Nobody", Password: "secret123"}); !errors.Is(err, ErrNotFound) {
			t.Fatalf("LecturerLogin = %v, want ErrNotFound", err)
		}
	})

	t.Run("requires a name", func(t *testing.T) {
		t.Parallel()
		service := newRegistryForTest(testfixtures.NewMemoryStore())

		var vErr *ValidationError
		if _, err := service.StudentLogin(context.Background(), LoginInput{Password: "secret123"}); !errors.As(err, &vErr) {
			t.Fatalf("StudentLogin = %v, want ValidationError", err)
		}
	})

	t.Run("backfills missing bookings on lecturer login", func(t *testing.T) {
		t.Parallel()
		store := testfixtures.NewMemoryStore()
		service := newRegistryForTest(store)

		hash, err := CreatePasswordHash("secret123", fastArgon2idParams)
		if err != nil {
			t.Fatalf("CreatePasswordHash failed: %v", err)
		}
		store.SeedLecturer(persistence.Lecturer{
			ID:           "lect-legacy",
			Name:         "Dr. Legacy",
			PasswordHash: hash,
			Modules:      []string{"COMP1", "COMP2", "COMP3"},
			HasBookings:  false,
		})

		if _, err := service.LecturerLogin(context.Background(), LoginInput{Name: "Dr. Legacy", Password: "secret123"}); err != nil {
			t.Fatalf("LecturerLogin failed: %v", err)
		}

		stored := store.Lecturer("Dr. Legacy")
		if !stored.HasBookings {
			t.Error("expected bookings backfill to run")
		}
		if stored.Bookings == nil {
			t.Error("expected an empty bookings list after backfill")
		}
	})
}

func TestRegistryService_ReplaceModules(t *testing.T) {
	t.Parallel()

	t.Run("overwrites the student module set", func(t *testing.T) {
		t.Parallel()
		store := testfixtures.NewMemoryStore()
		service := newRegistryForTest(store)
		mustEnrollStudent(t, service, "Aarfa")

		updated, err := service.ReplaceStudentModules(context.Background(), "Aarfa", []string{"PHYS1", "PHYS2", "PHYS3", "CHEM1"})
		if err != nil {
			t.Fatalf("ReplaceStudentModules failed: %v", err)
		}
		if len(updated) != 4 || updated[0] != "PHYS1" {
			t.Errorf("unexpected modules %v", updated)
		}

		current, err := service.StudentModules(context.Background(), "Aarfa")
		if err != nil {
			t.Fatalf("StudentModules failed: %v", err)
		}
		if len(current) != 4 || current[3] != "CHEM1" {
			t.Errorf("stored modules = %v", current)
		}
	})

	t.Run("re-runs cardinality validation", func(t *testing.T) {
		t.Parallel()
		service := newRegistryForTest(testfixtures.NewMemoryStore())
		mustHireLecturer(t, service, "Dr. Alwash")

		_, err := service.ReplaceLecturerModules(context.Background(), "Dr. Alwash", []string{"COMP1", "COMP2"})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("ReplaceLecturerModules = %v, want ValidationError", err)
		}
	})

	t.Run("reports unknown accounts", func(t *testing.T) {
		t.Parallel()
		service := newRegistryForTest(testfixtures.NewMemoryStore())

		_, err := service.ReplaceStudentModules(context.Background(), "Nobody", []string{"COMP1", "COMP2", "MATH1", "MATH2"})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("ReplaceStudentModules = %v, want ErrNotFound", err)
		}
	})

	t.Run("surfaces a lost conditional write as a conflict", func(t *testing.T) {
		t.Parallel()
		store := testfixtures.NewMemoryStore()
		service := newRegistryForTest(store)
		mustEnrollStudent(t, service, "Aarfa")

		store.BeforeStudentUpdate = func(s *testfixtures.MemoryStore) {
			s.MutateStudent("Aarfa", func(student *persistence.Student) {
				student.Modules = []string{"CHEM1", "CHEM2", "CHEM3", "MATH1"}
			})
		}

		_, err := service.ReplaceStudentModules(context.Background(), "Aarfa", []string{"PHYS1", "PHYS2", "PHYS3", "CHEM1"})
		if !errors.Is(err, ErrConflict) {
			t.Fatalf("ReplaceStudentModules = %v, want ErrConflict", err)
		}
	})
}

func TestNormalizeModules(t *testing.T) {
	t.Parallel()

	got := NormalizeModules([]string{" COMP1", "", "COMP2 ", "COMP1", "  "})
	if len(got) != 2 || got[0] != "COMP1" || got[1] != "COMP2" {
		t.Fatalf("NormalizeModules = %v, want [COMP1 COMP2]", got)
	}
}
