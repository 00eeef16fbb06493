package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/workledger/workledger-backend/internal/ledger/domain"
	"github.com/workledger/workledger-backend/internal/ledger/service"
	"github.com/workledger/workledger-backend/pkg/httputil"
	"github.com/workledger/workledger-backend/pkg/logger"
	"github.com/workledger/workledger-backend/pkg/period"
)

// Service is the ledger behavior the handler exposes
type Service interface {
	CreatePeriodEntry(ctx context.Context, employeeID string, p period.Period) (*domain.Entry, error)
	ApplyAdjustment(ctx context.Context, entryID string, adj domain.Adjustment) (*domain.Entry, error)
	CloseEntry(ctx context.Context, entryID string) (*domain.Entry, error)
	DeleteEntry(ctx context.Context, entryID string) error
	GetPeriodEntry(ctx context.Context, employeeID string, p period.Period) (*domain.Entry, error)
	GetEntry(ctx context.Context, entryID string) (*domain.Entry, error)
	ListEntries(ctx context.Context, p period.Period) ([]*domain.Entry, error)
	GeneratePeriod(ctx context.Context, p period.Period, trigger string) (service.GenerationResult, error)
}

// LedgerHandler handles ledger endpoints
type LedgerHandler struct {
	service Service
	logger  *logger.Logger
}

// NewLedgerHandler creates a new ledger handler
func NewLedgerHandler(svc Service, log *logger.Logger) *LedgerHandler {
	return &LedgerHandler{
		service: svc,
		logger:  log,
	}
}

// Routes mounts the ledger routes on r
func (h *LedgerHandler) Routes(r chi.Router) {
	r.Route("/ledger", func(r chi.Router) {
		r.Route("/entries", func(r chi.Router) {
			r.Get("/", h.List)
			r.Post("/", h.Create)
			r.Get("/{id}", h.Get)
			r.Delete("/{id}", h.Delete)
			r.Put("/{id}/adjustments", h.Adjust)
			r.Post("/{id}/close", h.Close)
		})
		r.Get("/employees/{employeeId}/entries/{year}/{month}", h.GetPeriodEntry)
		r.Post("/generate", h.Generate)
	})
}

// CreateEntryRequest is the body of POST /ledger/entries
type CreateEntryRequest struct {
	EmployeeID string `json:"employee_id" validate:"required"`
	Month      int    `json:"month" validate:"required,min=1,max=12"`
	Year       int    `json:"year" validate:"required,min=1900,max=9999"`
}

// AdjustmentRequest is the body of PUT /ledger/entries/{id}/adjustments. Omitted
// amounts count as zero.
type AdjustmentRequest struct {
	Advance   decimal.Decimal `json:"advance" validate:"gte=0"`
	LoanTaken decimal.Decimal `json:"loan_taken" validate:"gte=0"`
	LoanPaid  decimal.Decimal `json:"loan_paid" validate:"gte=0"`
}

// GenerateRequest is the body of POST /ledger/generate
type GenerateRequest struct {
	Month int `json:"month" validate:"required,min=1,max=12"`
	Year  int `json:"year" validate:"required,min=1900,max=9999"`
}

// Create creates the entry of an employee's period
func (h *LedgerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateEntryRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	entry, err := h.service.CreatePeriodEntry(r.Context(), req.EmployeeID, period.Period{Month: req.Month, Year: req.Year})
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, entry)
}

// List lists the entries of a period
func (h *LedgerHandler) List(w http.ResponseWriter, r *http.Request) {
	p, err := period.Parse(r.URL.Query().Get("month"), r.URL.Query().Get("year"))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	entries, err := h.service.ListEntries(r.Context(), p)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, entries, &httputil.Meta{Total: int64(len(entries))})
}

// Get gets an entry by ID
func (h *LedgerHandler) Get(w http.ResponseWriter, r *http.Request) {
	entry, err := h.service.GetEntry(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, entry)
}

// GetPeriodEntry gets an employee's entry for a period
func (h *LedgerHandler) GetPeriodEntry(w http.ResponseWriter, r *http.Request) {
	p, err := period.Parse(chi.URLParam(r, "month"), chi.URLParam(r, "year"))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	entry, err := h.service.GetPeriodEntry(r.Context(), chi.URLParam(r, "employeeId"), p)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, entry)
}

// Adjust adds advance, loan taken and loan paid amounts to an entry
func (h *LedgerHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	var req AdjustmentRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	entry, err := h.service.ApplyAdjustment(r.Context(), chi.URLParam(r, "id"), domain.Adjustment{
		Advance:   req.Advance,
		LoanTaken: req.LoanTaken,
		LoanPaid:  req.LoanPaid,
	})
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, entry)
}

// Close closes an entry
func (h *LedgerHandler) Close(w http.ResponseWriter, r *http.Request) {
	entry, err := h.service.CloseEntry(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, entry)
}

// Delete deletes an entry
func (h *LedgerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteEntry(r.Context(), chi.URLParam(r, "id")); err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.NoContent(w)
}

// Generate creates the period entries of every active employee of the tenant
func (h *LedgerHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	p := period.Period{Month: req.Month, Year: req.Year}
	result, err := h.service.GeneratePeriod(r.Context(), p, service.TriggerOperator)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	h.logger.Info().
		Str("period", p.String()).
		Str("user_id", httputil.GetUserID(r.Context())).
		Int("created", result.Created).
		Msg("operator triggered ledger generation")
	httputil.JSON(w, http.StatusOK, result)
}
