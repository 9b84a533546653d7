package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/campus-booking/internal/catalog"
	"github.com/example/campus-booking/internal/persistence"
)

const (
	// StudentModuleCount is the number of distinct modules a student takes.
	StudentModuleCount = 4
	// LecturerModuleCount is the number of distinct modules a lecturer teaches.
	LecturerModuleCount = 3

	passwordMinLength = 8
	passwordMaxLength = 12
)

// RegistryService enforces name uniqueness, credential checks, and module
// eligibility for students and lecturers.
type RegistryService struct {
	students    persistence.StudentRepository
	lecturers   persistence.LecturerRepository
	catalog     *catalog.Catalog
	idGenerator func() string
	now         func() time.Time
	hashParams  Argon2idParams
	logger      *slog.Logger
}

// NewRegistryService wires dependencies for the identity registry.
func NewRegistryService(students persistence.StudentRepository, lecturers persistence.LecturerRepository, cat *catalog.Catalog, idGenerator func() string, now func() time.Time, logger *slog.Logger) *RegistryService {
	if cat == nil {
		cat = catalog.Default()
	}
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &RegistryService{
		students:    students,
		lecturers:   lecturers,
		catalog:     cat,
		idGenerator: idGenerator,
		now:         now,
		hashParams:  DefaultArgon2idParams,
		logger:      defaultLogger(logger),
	}
}

// EnrollStudent validates and persists a new student document.
func (s *RegistryService) EnrollStudent(ctx context.Context, input EnrollInput) (StudentAccount, error) {
	logger := serviceLogger(ctx, s.logger, "RegistryService", "EnrollStudent")

	name := strings.TrimSpace(input.Name)
	modules, err := s.validateAccountInput(name, input.Password, input.Modules, "student", StudentModuleCount)
	if err != nil {
		return StudentAccount{}, err
	}

	hash, err := CreatePasswordHash(input.Password, s.hashParams)
	if err != nil {
		return StudentAccount{}, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now()
	student := persistence.Student{
		ID:           s.idGenerator(),
		Name:         name,
		PasswordHash: hash,
		Modules:      modules,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.students.CreateStudent(ctx, student); err != nil {
		if errors.Is(err, persistence.ErrDuplicate) {
			return StudentAccount{}, conflict("student already exists")
		}
		return StudentAccount{}, err
	}

	logger.InfoContext(ctx, "student enrolled", "student_id", student.ID)
	return StudentAccount{ID: student.ID, Name: student.Name, Modules: student.Modules}, nil
}

// HireLecturer validates and persists a new lecturer document.
func (s *RegistryService) HireLecturer(ctx context.Context, input EnrollInput) (LecturerAccount, error) {
	logger := serviceLogger(ctx, s.logger, "RegistryService", "HireLecturer")

	name := strings.TrimSpace(input.Name)
	modules, err := s.validateAccountInput(name, input.Password, input.Modules, "lecturer", LecturerModuleCount)
	if err != nil {
		return LecturerAccount{}, err
	}

	hash, err := CreatePasswordHash(input.Password, s.hashParams)
	if err != nil {
		return LecturerAccount{}, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now()
	lecturer := persistence.Lecturer{
		ID:           s.idGenerator(),
		Name:         name,
		PasswordHash: hash,
		Modules:      modules,
		Lectures:     []string{},
		Bookings:     []string{},
		HasBookings:  true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.lecturers.CreateLecturer(ctx, lecturer); err != nil {
		if errors.Is(err, persistence.ErrDuplicate) {
			return LecturerAccount{}, conflict("lecturer already exists")
		}
		return LecturerAccount{}, err
	}

	logger.InfoContext(ctx, "lecturer hired", "lecturer_id", lecturer.ID)
	return LecturerAccount{ID: lecturer.ID, Name: lecturer.Name, Modules: lecturer.Modules}, nil
}

// StudentLogin checks credentials and returns the student's public fields.
func (s *RegistryService) StudentLogin(ctx context.Context, input LoginInput) (StudentAccount, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		vErr := &ValidationError{}
		vErr.Add("name", "name is required")
		return StudentAccount{}, vErr
	}

	student, err := s.students.GetStudentByName(ctx, name)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return StudentAccount{}, notFound("student not found")
		}
		return StudentAccount{}, err
	}

	if err := VerifyPassword(student.PasswordHash, input.Password); err != nil {
		return StudentAccount{}, ErrInvalidCredentials
	}

	return StudentAccount{ID: student.ID, Name: student.Name, Modules: student.Modules}, nil
}

// LecturerLogin checks credentials and returns the lecturer's public fields.
// Documents written before the bookings field existed are backfilled here.
func (s *RegistryService) LecturerLogin(ctx context.Context, input LoginInput) (LecturerAccount, error) {
	logger := serviceLogger(ctx, s.logger, "RegistryService", "LecturerLogin")

	name := strings.TrimSpace(input.Name)
	if name == "" {
		vErr := &ValidationError{}
		vErr.Add("name", "name is required")
		return LecturerAccount{}, vErr
	}

	lecturer, err := s.lecturers.GetLecturerByName(ctx, name)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return LecturerAccount{}, notFound("lecturer not found")
		}
		return LecturerAccount{}, err
	}

	if err := VerifyPassword(lecturer.PasswordHash, input.Password); err != nil {
		return LecturerAccount{}, ErrInvalidCredentials
	}

	if !lecturer.HasBookings {
		lecturer.Bookings = []string{}
		lecturer.HasBookings = true
		lecturer.UpdatedAt = s.now()
		if err := s.lecturers.UpdateLecturer(ctx, lecturer); err != nil {
			// Advisory migration; a lost race means someone else wrote it.
			logger.WarnContext(ctx, "bookings backfill skipped", "lecturer_id", lecturer.ID, "error", err)
		}
	}

	return LecturerAccount{ID: lecturer.ID, Name: lecturer.Name, Modules: lecturer.Modules}, nil
}

// StudentModules returns the module roster for a student.
func (s *RegistryService) StudentModules(ctx context.Context, name string) ([]string, error) {
	student, err := s.students.GetStudentByName(ctx, strings.TrimSpace(name))
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return nil, notFound("student not found")
		}
		return nil, err
	}
	return student.Modules, nil
}

// LecturerModules returns the module roster for a lecturer.
func (s *RegistryService) LecturerModules(ctx context.Context, name string) ([]string, error) {
	lecturer, err := s.lecturers.GetLecturerByName(ctx, strings.TrimSpace(name))
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return nil, notFound("lecturer not found")
		}
		return nil, err
	}
	return lecturer.Modules, nil
}

// ReplaceStudentModules overwrites a student's module set after re-running
// the creation-time validation.
func (s *RegistryService) ReplaceStudentModules(ctx context.Context, name string, modules []string) ([]string, error) {
	normalized, err := s.validateModules(modules, "student", StudentModuleCount)
	if err != nil {
		return nil, err
	}

	student, err := s.students.GetStudentByName(ctx, strings.TrimSpace(name))
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return nil, notFound("student not found")
		}
		return nil, err
	}

	student.Modules = normalized
	student.UpdatedAt = s.now()
	if err := s.students.UpdateStudent(ctx, student); err != nil {
		if errors.Is(err, persistence.ErrVersionMismatch) {
			return nil, conflict("student was modified concurrently, retry")
		}
		if errors.Is(err, persistence.ErrNotFound) {
			return nil, notFound("student not found")
		}
		return nil, err
	}
	return normalized, nil
}

// ReplaceLecturerModules overwrites a lecturer's module set after re-running
// the creation-time validation.
func (s *RegistryService) ReplaceLecturerModules(ctx context.Context, name string, modules []string) ([]string, error) {
	normalized, err := s.validateModules(modules, "lecturer", LecturerModuleCount)
	if err != nil {
		return nil, err
	}

	lecturer, err := s.lecturers.GetLecturerByName(ctx, strings.TrimSpace(name))
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return nil, notFound("lecturer not found")
		}
		return nil, err
	}

	lecturer.Modules = normalized
	lecturer.UpdatedAt = s.now()
	if err := s.lecturers.UpdateLecturer(ctx, lecturer); err != nil {
		if errors.Is(err, persistence.ErrVersionMismatch) {
			return nil, conflict("lecturer was modified concurrently, retry")
		}
		if errors.Is(err, persistence.ErrNotFound) {
			return nil, notFound("lecturer not found")
		}
		return nil, err
	}
	return normalized, nil
}

func (s *RegistryService) validateAccountInput(name, password string, modules []string, role string, required int) ([]string, error) {
	vErr := &ValidationError{}
	if name == "" {
		vErr.Add("name", fmt.Sprintf("%s must have a name", role))
	}
	if password == "" {
		vErr.Add("password", "password is required")
	} else if len(password) < passwordMinLength || len(password) > passwordMaxLength {
		vErr.Add("password", fmt.Sprintf("password must be %d to %d characters", passwordMinLength, passwordMaxLength))
	}
	if vErr.HasErrors() {
		return nil, vErr
	}
	return s.validateModules(modules, role, required)
}

func (s *RegistryService) validateModules(modules []string, role string, required int) ([]string, error) {
	normalized := NormalizeModules(modules)
	if len(normalized) != required {
		verb := "take"
		if role == "lecturer" {
			verb = "teach"
		}
		vErr := &ValidationError{}
		vErr.Add("modules", fmt.Sprintf("%s must %s exactly %d distinct modules", role, verb, required))
		return nil, vErr
	}
	if invalid := s.catalog.Invalid(normalized); len(invalid) > 0 {
		return nil, &ModuleError{Invalid: invalid, Allowed: s.catalog.Codes()}
	}
	return normalized, nil
}

// NormalizeModules trims entries, drops empties, and de-duplicates while
// preserving first-seen order.
func NormalizeModules(modules []string) []string {
	cleaned := make([]string, 0, len(modules))
	seen := make(map[string]struct{}, len(modules))
	for _, module := range modules {
		module = strings.TrimSpace(module)
		if module == "" {
			continue
		}
		if _, ok := seen[module]; ok {
			continue
		}
		seen[module] = struct{}{}
		cleaned = append(cleaned, module)
	}
	return cleaned
}
