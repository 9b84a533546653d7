package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/example/campus-booking/internal/application"
)

type lecturerRegistry interface {
	HireLecturer(ctx context.Context, input application.EnrollInput) (application.LecturerAccount, error)
	LecturerLogin(ctx context.Context, input application.LoginInput) (application.LecturerAccount, error)
	LecturerModules(ctx context.Context, name string) ([]string, error)
	ReplaceLecturerModules(ctx context.Context, name string, modules []string) ([]string, error)
}

// LecturerHandler serves the lecturer hire, login, and module endpoints.
type LecturerHandler struct {
	service   lecturerRegistry
	responder responder
	validate  requestValidator
	logger    *slog.Logger
}

// NewLecturerHandler wires dependencies for the lecturer endpoints.
func NewLecturerHandler(service lecturerRegistry, logger *slog.Logger) *LecturerHandler {
	base := defaultLogger(logger)
	return &LecturerHandler{
		service:   service,
		responder: newResponder(base),
		validate:  newRequestValidator(),
		logger:    base,
	}
}

func (h *LecturerHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "LecturerHandler", operation, attrs...)
}

var hireLecturerMessages = map[string]string{
	"name":              "lecturer must have a name",
	"password.required": "password is required",
	"password.min":      "password must be 8 to 12 characters",
	"password.max":      "password must be 8 to 12 characters",
	"modules":           "lecturer must teach at least 1 module",
}

// Hire handles POST /api/lecturer/hire.
func (h *LecturerHandler) Hire(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req enrollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(ctx, "Hire", "error_kind", "bad_request").ErrorContext(ctx, "failed to decode hire request", "error", err)
		h.responder.writeError(ctx, w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	if err := h.validate.check(req, hireLecturerMessages); err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	logger := h.log(ctx, "Hire", "name", req.Name)
	lecturer, err := h.service.HireLecturer(ctx, application.EnrollInput{
		Name:     req.Name,
		Password: req.Password,
		Modules:  req.Modules,
	})
	if err != nil {
		logger.ErrorContext(ctx, "hire failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	logger.With("lecturer_id", lecturer.ID).InfoContext(ctx, "lecturer hired")
	h.responder.writeJSON(ctx, w, http.StatusCreated, createdResponse{envelope: ok(), ID: lecturer.ID})
}

type lecturerLoginResponse struct {
	envelope
	Lecturer accountDTO `json:"lecturer"`
}

// Login handles POST /api/lecturer/login.
func (h *LecturerHandler) Login(w http.ResponseWriter, r *http.Request) {
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
	lecturer, err := h.service.LecturerLogin(ctx, application.LoginInput{Name: req.Name, Password: req.Password})
	if err != nil {
		logger.ErrorContext(ctx, "lecturer login failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	logger.With("lecturer_id", lecturer.ID).InfoContext(ctx, "lecturer logged in")
	h.responder.writeJSON(ctx, w, http.StatusOK, lecturerLoginResponse{
		envelope: ok(),
		Lecturer: accountDTO{ID: lecturer.ID, Name: lecturer.Name, Modules: lecturer.Modules},
	})
}

// GetModules handles GET and POST /api/lecturer/modules/get.
func (h *LecturerHandler) GetModules(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	name, err := nameFromRequest(r)
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	logger := h.log(ctx, "GetModules", "name", name)
	modules, err := h.service.LecturerModules(ctx, name)
	if err != nil {
		logger.ErrorContext(ctx, "lecturer modules lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	h.responder.writeJSON(ctx, w, http.StatusOK, modulesResponse{envelope: ok(), Modules: modules})
}

// ReplaceModules handles POST /api/lecturer/modules/replace.
func (h *LecturerHandler) ReplaceModules(w http.ResponseWriter, r *http.Request) {
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
	modules, err := h.service.ReplaceLecturerModules(ctx, req.Name, req.Modules)
	if err != nil {
		logger.ErrorContext(ctx, "lecturer modules replace failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	logger.InfoContext(ctx, "lecturer modules replaced")
	h.responder.writeJSON(ctx, w, http.StatusOK, modulesResponse{envelope: ok(), Modules: modules})
}
