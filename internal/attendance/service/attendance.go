package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/workledger/workledger-backend/internal/attendance/domain"
	"github.com/workledger/workledger-backend/internal/attendance/events"
	staff "github.com/workledger/workledger-backend/internal/staff/domain"
	"github.com/workledger/workledger-backend/pkg/actor"
	"github.com/workledger/workledger-backend/pkg/errors"
	"github.com/workledger/workledger-backend/pkg/logger"
	"github.com/workledger/workledger-backend/pkg/period"
	"github.com/workledger/workledger-backend/pkg/tenant"
)

// Store persists attendance records
type Store interface {
	Create(ctx context.Context, rec *domain.Record) error
	GetByID(ctx context.Context, id string) (*domain.Record, error)
	Update(ctx context.Context, rec *domain.Record) error
	Delete(ctx context.Context, id string) error
	ListForEmployee(ctx context.Context, employeeID string, p period.Period) ([]*domain.Record, error)
	ListForPeriod(ctx context.Context, p period.Period) ([]*domain.Record, error)
}

// EmployeeDirectory resolves employees of the caller's tenant
type EmployeeDirectory interface {
	GetByID(ctx context.Context, id string) (*staff.Employee, error)
	ListByIDs(ctx context.Context, ids []string) ([]*staff.Employee, error)
}

// PeriodLock reports whether an employee's ledger period has been closed
type PeriodLock interface {
	IsClosed(ctx context.Context, employeeID string, p period.Period) (bool, error)
}

// RecordInput is a new worked day
type RecordInput struct {
	EmployeeID string
	WorkDate   time.Time
	EntryTime  domain.ClockTime
	ExitTime   domain.ClockTime
}

// AttendanceService records attendance and aggregates it per period
type AttendanceService struct {
	store     Store
	directory EmployeeDirectory
	lock      PeriodLock
	publisher *events.AttendanceEventPublisher
	logger    *logger.Logger
}

// NewAttendanceService creates a new attendance service
func NewAttendanceService(
	store Store,
	directory EmployeeDirectory,
	lock PeriodLock,
	publisher *events.AttendanceEventPublisher,
	log *logger.Logger,
) *AttendanceService {
	return &AttendanceService{
		store:     store,
		directory: directory,
		lock:      lock,
		publisher: publisher,
		logger:    log,
	}
}

// Record stores one worked day. The employee's current hourly rate is copied onto the
// record; salaried employees get a zero rate.
func (s *AttendanceService) Record(ctx context.Context, in RecordInput) (*domain.Record, error) {
	if in.WorkDate.IsZero() {
		return nil, errors.Validation(map[string]string{"work_date": "is required"})
	}

	emp, err := s.directory.GetByID(ctx, in.EmployeeID)
	if err != nil {
		return nil, err
	}

	rec := &domain.Record{
		ID:         uuid.New().String(),
		EmployeeID: emp.ID,
		WorkDate:   domain.DateOnly(in.WorkDate),
		WageRate:   emp.Wage.HourlyRate(),
		CreatedBy:  actor.IDFromContext(ctx),
		UpdatedBy:  actor.IDFromContext(ctx),
	}
	if err := rec.SetShift(in.EntryTime, in.ExitTime); err != nil {
		return nil, err
	}
	if err := s.ensureOpen(ctx, rec); err != nil {
		return nil, err
	}

	if err := s.store.Create(ctx, rec); err != nil {
		return nil, err
	}

	s.publisher.PublishRecorded(ctx, rec)
	return rec, nil
}

// Correct replaces entry and exit of a record and recomputes hours and wage with the
// rate captured when the record was created.
func (s *AttendanceService) Correct(ctx context.Context, id string, entry, exit domain.ClockTime) (*domain.Record, error) {
	rec, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.ensureOpen(ctx, rec); err != nil {
		return nil, err
	}

	if err := rec.SetShift(entry, exit); err != nil {
		return nil, err
	}
	rec.UpdatedBy = actor.IDFromContext(ctx)

	if err := s.store.Update(ctx, rec); err != nil {
		return nil, err
	}

	s.publisher.PublishCorrected(ctx, rec)
	return rec, nil
}

// Delete removes a record of an open period
func (s *AttendanceService) Delete(ctx context.Context, id string) error {
	rec, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.ensureOpen(ctx, rec); err != nil {
		return err
	}

	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}

	s.publisher.PublishDeleted(ctx, rec)
	return nil
}

// Get returns a record
func (s *AttendanceService) Get(ctx context.Context, id string) (*domain.Record, error) {
	return s.store.GetByID(ctx, id)
}

// List returns an employee's records for the period
func (s *AttendanceService) List(ctx context.Context, employeeID string, p period.Period) ([]*domain.Record, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.directory.GetByID(ctx, employeeID); err != nil {
		return nil, err
	}
	return s.store.ListForEmployee(ctx, employeeID, p)
}

// Aggregate totals an employee's attendance for the period. It only reads.
func (s *AttendanceService) Aggregate(ctx context.Context, employeeID string, p period.Period) (domain.Summary, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return domain.Summary{}, err
	}

	records, err := s.store.ListForEmployee(ctx, employeeID, p)
	if err != nil {
		return domain.Summary{}, err
	}

	return domain.Summarize(tenantID, employeeID, p, records), nil
}

// MonthlySummary totals attendance per employee for the tenant, sorted by name
func (s *AttendanceService) MonthlySummary(ctx context.Context, p period.Period) ([]domain.EmployeeSummary, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	records, err := s.store.ListForPeriod(ctx, p)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	ids := make([]string, 0)
	for _, r := range records {
		if _, ok := seen[r.EmployeeID]; !ok {
			seen[r.EmployeeID] = struct{}{}
			ids = append(ids, r.EmployeeID)
		}
	}

	employees, err := s.directory.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(employees))
	for _, e := range employees {
		names[e.ID] = e.Name
	}

	return domain.BuildMonthlySummary(tenantID, p, records, names), nil
}

func (s *AttendanceService) ensureOpen(ctx context.Context, rec *domain.Record) error {
	if s.lock == nil {
		return nil
	}
	closed, err := s.lock.IsClosed(ctx, rec.EmployeeID, rec.Period())
	if err != nil {
		return err
	}
	if closed {
		return errors.PeriodClosed()
	}
	return nil
}
