package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/example/campus-booking/internal/application"
)

var errBadRequestBody = errors.New("not a correct json")

// envelope is the uniform response wrapper carried by every reply.
type envelope struct {
	Result bool   `json:"result"`
	Msg    string `json:"msg"`
}

func ok() envelope {
	return envelope{Result: true, Msg: "OK"}
}

type errorResponse struct {
	Result         bool              `json:"result"`
	Msg            string            `json:"msg"`
	Errors         map[string]string `json:"errors,omitempty"`
	InvalidModules []string          `json:"invalid_modules,omitempty"`
	AllowedModules []string          `json:"allowed_modules,omitempty"`
}

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	return responder{logger: defaultLogger(logger)}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := statusMessage(status)
	if err != nil {
		if msg := err.Error(); msg != "" {
			message = msg
		}
	}
	r.writeJSON(ctx, w, status, errorResponse{Msg: message})
}

// handleServiceError maps the application error taxonomy onto the wire
// contract: validation 400, bad credentials 401, forbidden transition 403,
// absent entity 404, conflicting state 409.
func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Msg: statusMessage(http.StatusInternalServerError)})
		return
	}

	var vErr *application.ValidationError
	if errors.As(err, &vErr) {
		r.writeJSON(ctx, w, http.StatusBadRequest, errorResponse{
			Msg:    vErr.Error(),
			Errors: vErr.FieldErrors,
		})
		return
	}

	var mErr *application.ModuleError
	if errors.As(err, &mErr) {
		r.writeJSON(ctx, w, http.StatusBadRequest, errorResponse{
			Msg:            mErr.Error(),
			InvalidModules: mErr.Invalid,
			AllowedModules: mErr.Allowed,
		})
		return
	}

	switch {
	case errors.Is(err, application.ErrInvalidCredentials):
		r.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{Msg: "invalid credentials"})
	case errors.Is(err, application.ErrForbidden):
		r.writeJSON(ctx, w, http.StatusForbidden, errorResponse{Msg: operationMessage(err, http.StatusForbidden)})
	case errors.Is(err, application.ErrNotFound):
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{Msg: operationMessage(err, http.StatusNotFound)})
	case errors.Is(err, application.ErrConflict):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{Msg: operationMessage(err, http.StatusConflict)})
	default:
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "error", err)
		r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Msg: statusMessage(http.StatusInternalServerError)})
	}
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

// operationMessage prefers the caller-facing message attached by the
// application layer over the generic status text.
func operationMessage(err error, status int) string {
	var opErr *application.OperationError
	if errors.As(err, &opErr) && opErr.Message != "" {
		return opErr.Message
	}
	return statusMessage(status)
}

func statusMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "invalid request"
	case http.StatusUnauthorized:
		return "invalid credentials"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusNotFound:
		return "not found"
	case http.StatusConflict:
		return "conflict"
	default:
		return "internal server error"
	}
}
