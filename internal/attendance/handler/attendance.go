package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/workledger/workledger-backend/internal/attendance/domain"
	"github.com/workledger/workledger-backend/internal/attendance/service"
	"github.com/workledger/workledger-backend/pkg/errors"
	"github.com/workledger/workledger-backend/pkg/httputil"
	"github.com/workledger/workledger-backend/pkg/logger"
	"github.com/workledger/workledger-backend/pkg/period"
)

// Service is the attendance behavior the handler exposes
type Service interface {
	Record(ctx context.Context, in service.RecordInput) (*domain.Record, error)
	Correct(ctx context.Context, id string, entry, exit domain.ClockTime) (*domain.Record, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*domain.Record, error)
	List(ctx context.Context, employeeID string, p period.Period) ([]*domain.Record, error)
	MonthlySummary(ctx context.Context, p period.Period) ([]domain.EmployeeSummary, error)
}

// AttendanceHandler handles attendance and payroll summary endpoints
type AttendanceHandler struct {
	service Service
	logger  *logger.Logger
}

// NewAttendanceHandler creates a new attendance handler
func NewAttendanceHandler(svc Service, log *logger.Logger) *AttendanceHandler {
	return &AttendanceHandler{
		service: svc,
		logger:  log,
	}
}

// Routes mounts the attendance routes on r
func (h *AttendanceHandler) Routes(r chi.Router) {
	r.Route("/attendance", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Record)
		r.Get("/{id}", h.Get)
		r.Put("/{id}", h.Correct)
		r.Delete("/{id}", h.Delete)
	})
	r.Get("/payroll/summary", h.Summary)
}

// RecordAttendanceRequest is the body of POST /attendance
type RecordAttendanceRequest struct {
	EmployeeID string `json:"employee_id" validate:"required"`
	WorkDate   string `json:"work_date" validate:"required,datetime=2006-01-02"`
	EntryTime  string `json:"entry_time" validate:"required,clock"`
	ExitTime   string `json:"exit_time" validate:"required,clock"`
}

// CorrectAttendanceRequest is the body of PUT /attendance/{id}
type CorrectAttendanceRequest struct {
	EntryTime string `json:"entry_time" validate:"required,clock"`
	ExitTime  string `json:"exit_time" validate:"required,clock"`
}

// Record records a worked day
func (h *AttendanceHandler) Record(w http.ResponseWriter, r *http.Request) {
	var req RecordAttendanceRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	workDate, _ := time.Parse("2006-01-02", req.WorkDate)
	entry, exit, err := parseShift(req.EntryTime, req.ExitTime)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	rec, err := h.service.Record(r.Context(), service.RecordInput{
		EmployeeID: req.EmployeeID,
		WorkDate:   workDate,
		EntryTime:  entry,
		ExitTime:   exit,
	})
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, rec)
}

// Correct replaces the shift of a record
func (h *AttendanceHandler) Correct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req CorrectAttendanceRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	entry, exit, err := parseShift(req.EntryTime, req.ExitTime)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	rec, err := h.service.Correct(r.Context(), id, entry, exit)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, rec)
}

// Delete deletes a record
func (h *AttendanceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.NoContent(w)
}

// Get gets a record by ID
func (h *AttendanceHandler) Get(w http.ResponseWriter, r *http.Request) {
	rec, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, rec)
}

// List lists an employee's records for a period
func (h *AttendanceHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	employeeID := q.Get("employee_id")
	if employeeID == "" {
		httputil.Error(w, errors.Validation(map[string]string{"employee_id": "this field is required"}))
		return
	}
	p, err := period.Parse(q.Get("month"), q.Get("year"))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	records, err := h.service.List(r.Context(), employeeID, p)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, records, &httputil.Meta{Total: int64(len(records))})
}

// Summary returns the per-employee attendance totals of a period
func (h *AttendanceHandler) Summary(w http.ResponseWriter, r *http.Request) {
	p, err := period.Parse(r.URL.Query().Get("month"), r.URL.Query().Get("year"))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	rows, err := h.service.MonthlySummary(r.Context(), p)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, rows, &httputil.Meta{Total: int64(len(rows))})
}

func parseShift(entryText, exitText string) (entry, exit domain.ClockTime, err error) {
	entry, err = domain.ParseClock(entryText)
	if err != nil {
		return entry, exit, errors.Validation(map[string]string{"entry_time": "must be a time of day as HH:MM"})
	}
	exit, err = domain.ParseClock(exitText)
	if err != nil {
		return entry, exit, errors.Validation(map[string]string{"exit_time": "must be a time of day as HH:MM"})
	}
	return entry, exit, nil
}
