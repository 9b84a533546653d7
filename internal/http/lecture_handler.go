package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/campus-booking/internal/application"
)

type bookingService interface {
	SetModule(ctx context.Context, roomID, lecturerName, module string) (application.RoomSnapshot, error)
	Start(ctx context.Context, roomID, lecturerName string) (application.RoomSnapshot, error)
	End(ctx context.Context, roomID, lecturerName string) (application.RoomSnapshot, error)
	Reset(ctx context.Context, roomID string) (application.RoomSnapshot, error)
}

type rosterService interface {
	AddStudent(ctx context.Context, roomID, studentName string) ([]string, error)
	RemoveStudent(ctx context.Context, roomID, studentName string) ([]string, error)
}

type lectureService interface {
	Make(ctx context.Context, input application.MakeLectureInput) (application.LectureRecord, error)
}

// LectureHandler serves the room booking, roster, and lecture endpoints.
type LectureHandler struct {
	booking   bookingService
	roster    rosterService
	lectures  lectureService
	responder responder
	validate  requestValidator
	logger    *slog.Logger
}

// NewLectureHandler wires dependencies for the lecture endpoints.
func NewLectureHandler(booking bookingService, roster rosterService, lectures lectureService, logger *slog.Logger) *LectureHandler {
	base := defaultLogger(logger)
	return &LectureHandler{
		booking:   booking,
		roster:    roster,
		lectures:  lectures,
		responder: newResponder(base),
		validate:  newRequestValidator(),
		logger:    base,
	}
}

func (h *LectureHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "LectureHandler", operation, attrs...)
}

type roomDTO struct {
	RoomID    string   `json:"roomId"`
	Status    string   `json:"status"`
	Lecturer  string   `json:"lecturer,omitempty"`
	Module    string   `json:"module,omitempty"`
	Students  []string `json:"students"`
	StartedAt string   `json:"startedAt,omitempty"`
}

func toRoomDTO(room application.RoomSnapshot) roomDTO {
	dto := roomDTO{
		RoomID:   room.ID,
		Status:   room.Status,
		Lecturer: room.Lecturer,
		Module:   room.Module,
		Students: room.Students,
	}
	if room.StartedAt != nil {
		dto.StartedAt = room.StartedAt.UTC().Format(time.RFC3339Nano)
	}
	return dto
}

type roomResponse struct {
	envelope
	Room roomDTO `json:"room"`
}

type setModuleRequest struct {
	RoomID   string `json:"roomId" validate:"required"`
	Lecturer string `json:"lecturer" validate:"required"`
	Module   string `json:"module" validate:"required"`
}

var setModuleMessages = map[string]string{
	"roomId":   "roomId is required",
	"lecturer": "lecturer is required",
	"module":   "module is required",
}

// SetModule handles POST /api/lecture/setModule.
func (h *LectureHandler) SetModule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req setModuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(ctx, "SetModule", "error_kind", "bad_request").ErrorContext(ctx, "failed to decode setModule request", "error", err)
		h.responder.writeError(ctx, w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	if err := h.validate.check(req, setModuleMessages); err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	logger := h.log(ctx, "SetModule", "room_id", req.RoomID, "lecturer", req.Lecturer)
	room, err := h.booking.SetModule(ctx, req.RoomID, req.Lecturer, req.Module)
	if err != nil {
		logger.ErrorContext(ctx, "setModule failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	logger.InfoContext(ctx, "room module set", "module", req.Module)
	h.responder.writeJSON(ctx, w, http.StatusOK, roomResponse{envelope: ok(), Room: toRoomDTO(room)})
}

type setLecturerRequest struct {
	RoomID   string `json:"roomId" validate:"required"`
	Lecturer string `json:"lecturer" validate:"required"`
	Action   string `json:"action" validate:"required,oneof=start end"`
}

var setLecturerMessages = map[string]string{
	"roomId":          "roomId is required",
	"lecturer":        "lecturer is required",
	"action.required": "action is required",
	"action.oneof":    "action must be 'start' or 'end'",
}

// SetLecturer handles POST /api/lecture/setLecturer, dispatching the start
// and end lease transitions.
func (h *LectureHandler) SetLecturer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req setLecturerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(ctx, "SetLecturer", "error_kind", "bad_request").ErrorContext(ctx, "failed to decode setLecturer request", "error", err)
		h.responder.writeError(ctx, w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	if err := h.validate.check(req, setLecturerMessages); err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	logger := h.log(ctx, "SetLecturer", "room_id", req.RoomID, "lecturer", req.Lecturer, "action", req.Action)

	var room application.RoomSnapshot
	var err error
	if req.Action == "start" {
		room, err = h.booking.Start(ctx, req.RoomID, req.Lecturer)
	} else {
		room, err = h.booking.End(ctx, req.RoomID, req.Lecturer)
	}
	if err != nil {
		logger.ErrorContext(ctx, "setLecturer failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	logger.InfoContext(ctx, "setLecturer applied")
	h.responder.writeJSON(ctx, w, http.StatusOK, roomResponse{envelope: ok(), Room: toRoomDTO(room)})
}

// rosterRequest accepts the current roomId key and the legacy building key.
type rosterRequest struct {
	RoomID   string `json:"roomId"`
	Building string `json:"building"`
	Student  string `json:"student" validate:"required"`
}

var rosterMessages = map[string]string{
	"student": "student is required",
}

func (r rosterRequest) roomID() string {
	if id := strings.TrimSpace(r.RoomID); id != "" {
		return id
	}
	return strings.TrimSpace(r.Building)
}

type rosterResponse struct {
	envelope
	Students []string `json:"students"`
}

// AddStudent handles POST /api/lecture/student/add.
func (h *LectureHandler) AddStudent(w http.ResponseWriter, r *http.Request) {
	h.changeRoster(w, r, "AddStudent", h.roster.AddStudent)
}

// RemoveStudent handles POST /api/lecture/student/remove.
func (h *LectureHandler) RemoveStudent(w http.ResponseWriter, r *http.Request) {
	h.changeRoster(w, r, "RemoveStudent", h.roster.RemoveStudent)
}

func (h *LectureHandler) changeRoster(w http.ResponseWriter, r *http.Request, operation string, change func(ctx context.Context, roomID, studentName string) ([]string, error)) {
	ctx := r.Context()

	var req rosterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(ctx, operation, "error_kind", "bad_request").ErrorContext(ctx, "failed to decode roster request", "error", err)
		h.responder.writeError(ctx, w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	if err := h.validate.check(req, rosterMessages); err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	logger := h.log(ctx, operation, "room_id", req.roomID(), "student", req.Student)
	students, err := change(ctx, req.roomID(), req.Student)
	if err != nil {
		logger.ErrorContext(ctx, "roster change failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	logger.InfoContext(ctx, "roster changed", "roster_size", len(students))
	h.responder.writeJSON(ctx, w, http.StatusOK, rosterResponse{envelope: ok(), Students: students})
}

// endRequest accepts roomId or building, with an optional lecturer for
// ownership-checked ends.
type endRequest struct {
	RoomID   string `json:"roomId"`
	Building string `json:"building"`
	Lecturer string `json:"lecturer"`
}

func (r endRequest) roomID() string {
	if id := strings.TrimSpace(r.RoomID); id != "" {
		return id
	}
	return strings.TrimSpace(r.Building)
}

// End handles POST /api/lecture/end. With a lecturer in the request it
// behaves like setLecturer action=end; without one it is an administrative
// reset that clears the room regardless of owner.
func (h *LectureHandler) End(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req endRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(ctx, "End", "error_kind", "bad_request").ErrorContext(ctx, "failed to decode end request", "error", err)
		h.responder.writeError(ctx, w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(ctx, "End", "room_id", req.roomID(), "lecturer", req.Lecturer)

	var room application.RoomSnapshot
	var err error
	if strings.TrimSpace(req.Lecturer) != "" {
		room, err = h.booking.End(ctx, req.roomID(), req.Lecturer)
	} else {
		room, err = h.booking.Reset(ctx, req.roomID())
	}
	if err != nil {
		logger.ErrorContext(ctx, "end failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	logger.InfoContext(ctx, "session ended")
	h.responder.writeJSON(ctx, w, http.StatusOK, roomResponse{envelope: ok(), Room: toRoomDTO(room)})
}

type makeLectureRequest struct {
	Title    string `json:"title" validate:"required"`
	Module   string `json:"module" validate:"required"`
	Lecturer string `json:"lecturer" validate:"required"`
	Date     string `json:"date" validate:"required"`
	Time     string `json:"time" validate:"required"`
}

var makeLectureMessages = map[string]string{
	"title":    "title is required",
	"module":   "module is required",
	"lecturer": "lecturer is required",
	"date":     "date is required",
	"time":     "time is required",
}

// Make handles POST /api/lecture/make.
func (h *LectureHandler) Make(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req makeLectureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(ctx, "Make", "error_kind", "bad_request").ErrorContext(ctx, "failed to decode make request", "error", err)
		h.responder.writeError(ctx, w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	if err := h.validate.check(req, makeLectureMessages); err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	logger := h.log(ctx, "Make", "title", req.Title, "lecturer", req.Lecturer)
	lecture, err := h.lectures.Make(ctx, application.MakeLectureInput{
		Title:    req.Title,
		Module:   req.Module,
		Lecturer: req.Lecturer,
		Date:     req.Date,
		Time:     req.Time,
	})
	if err != nil {
		logger.ErrorContext(ctx, "lecture creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	logger.With("lecture_id", lecture.ID).InfoContext(ctx, "lecture created")
	h.responder.writeJSON(ctx, w, http.StatusCreated, createdResponse{envelope: ok(), ID: lecture.ID})
}
