package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/campus-booking/internal/application"
)

type studentRegistry interface {
	EnrollStudent(ctx context.Context, input application.EnrollInput) (application.StudentAccount, error)
	StudentLogin(ctx context.Context, input application.LoginInput) (application.StudentAccount, error)
	StudentModules(ctx context.Context, name string) ([]string, error)
	ReplaceStudentModules(ctx context.Context, name string, modules []string) ([]string, error)
}

// StudentHandler serves the student enrollment, login, and module endpoints.
type StudentHandler struct {
	service   studentRegistry
	responder responder
	validate  requestValidator
	logger    *slog.Logger
}

// NewStudentHandler wires dependencies for the student endpoints.
func NewStudentHandler(service studentRegistry, logger *slog.Logger) *StudentHandler {
	base := defaultLogger(logger)
	return &StudentHandler{
		service:   service,
		responder: newResponder(base),
		validate:  newRequestValidator(),
		logger:    base,
	}
}

func (h *StudentHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "StudentHandler", operation, attrs...)
}

type enrollRequest struct {
	Name     string   `json:"name" validate:"required"`
	Password string   `json:"password" validate:"required,min=8,max=12"`
	Modules  []string `json:"modules" validate:"required,min=1"`
}

var enrollStudentMessages = map[string]string{
	"name":              "student must have a name",
	"password.required": "password is required",
	"password.min":      "password must be 8 to 12 characters",
	"password.max":      "password must be 8 to 12 characters",
	"modules":           "student must take at least 1 module",
}

type createdResponse struct {
	envelope
	ID string `json:"id"`
}

// Enroll handles POST /api/student/enroll.
func (h *StudentHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req enrollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(ctx, "Enroll", "error_kind", "bad_request").ErrorContext(ctx, "failed to decode enroll request", "error", err)
		h.responder.writeError(ctx, w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	if err := h.validate.check(req, enrollStudentMessages); err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	logger := h.log(ctx, "Enroll", "name", req.Name)
	student, err := h.service.EnrollStudent(ctx, application.EnrollInput{
		Name:     req.Name,
		Password: req.Password,
		Modules:  req.Modules,
	})
	if err != nil {
		logger.ErrorContext(ctx, "enrollment failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	logger.With("student_id", student.ID).InfoContext(ctx, "student enrolled")
	h.responder.writeJSON(ctx, w, http.StatusCreated, createdResponse{envelope: ok(), ID: student.ID})
}

type loginRequest struct {
	Name     string `json:"name" validate:"required"`
	Password string `json:"password"`
}

var loginMessages = map[string]string{
	"name": "name is required",
}

type accountDTO struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Modules []string `json:"modules"`
}

type studentLoginResponse struct {
	envelope
	Student accountDTO `json:"student"`
}

// Login handles POST /api/student/login.
func (h *StudentHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(ctx, "Login", "error_kind", "bad_request").ErrorContext(ctx, "failed to decode login request", "error", err)
		h.responder.writeError(ctx, w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	if err := h.validate.check(req, loginMessages); err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	logger := h.log(ctx, "Login", "name", req.Name)
	student, err := h.service.StudentLogin(ctx, application.LoginInput{Name: req.Name, Password: req.Password})
	if err != nil {
		logger.ErrorContext(ctx, "student login failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	logger.With("student_id", student.ID).InfoContext(ctx, "student logged in")
	h.responder.writeJSON(ctx, w, http.StatusOK, studentLoginResponse{
		envelope: ok(),
		Student:  accountDTO{ID: student.ID, Name: student.Name, Modules: student.Modules},
	})
}

type modulesResponse struct {
	envelope
	Modules []string `json:"modules"`
}

// GetModules handles GET and POST /api/student/modules/get.
func (h *StudentHandler) GetModules(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	name, err := nameFromRequest(r)
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	logger := h.log(ctx, "GetModules", "name", name)
	modules, err := h.service.StudentModules(ctx, name)
	if err != nil {
		logger.ErrorContext(ctx, "student modules lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	h.responder.writeJSON(ctx, w, http.StatusOK, modulesResponse{envelope: ok(), Modules: modules})
}

type replaceModulesRequest struct {
	Name    string   `json:"name" validate:"required"`
	Modules []string `json:"modules" validate:"required,min=1"`
}

var replaceModulesMessages = map[string]string{
	"name":    "name is required",
	"modules": "modules are required",
}

// ReplaceModules handles POST /api/student/modules/replace.
func (h *StudentHandler) ReplaceModules(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req replaceModulesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(ctx, "ReplaceModules", "error_kind", "bad_request").ErrorContext(ctx, "failed to decode replace request", "error", err)
		h.responder.writeError(ctx, w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	if err := h.validate.check(req, replaceModulesMessages); err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	logger := h.log(ctx, "ReplaceModules", "name", req.Name)
	modules, err := h.service.ReplaceStudentModules(ctx, req.Name, req.Modules)
	if err != nil {
		logger.ErrorContext(ctx, "student modules replace failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	logger.InfoContext(ctx, "student modules replaced")
	h.responder.writeJSON(ctx, w, http.StatusOK, modulesResponse{envelope: ok(), Modules: modules})
}

// nameFromRequest reads the entity name from the query string on GET and
// from the JSON body on POST.
func nameFromRequest(r *http.Request) (string, error) {
	if r.Method == http.MethodGet {
		name := strings.TrimSpace(r.URL.Query().Get("name"))
		if name == "" {
			vErr := &application.ValidationError{}
			vErr.Add("name", "name is required")
			return "", vErr
		}
		return name, nil
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return "", errBadRequestBodyError()
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		vErr := &application.ValidationError{}
		vErr.Add("name", "name is required")
		return "", vErr
	}
	return name, nil
}

func errBadRequestBodyError() error {
	vErr := &application.ValidationError{}
	vErr.Add("body", errBadRequestBody.Error())
	return vErr
}
