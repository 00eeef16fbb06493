package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	attendance "github.com/workledger/workledger-backend/internal/attendance/domain"
	"github.com/workledger/workledger-backend/internal/ledger/domain"
	"github.com/workledger/workledger-backend/internal/ledger/events"
	"github.com/workledger/workledger-backend/internal/ledger/repository"
	staff "github.com/workledger/workledger-backend/internal/staff/domain"
	"github.com/workledger/workledger-backend/pkg/actor"
	"github.com/workledger/workledger-backend/pkg/errors"
	"github.com/workledger/workledger-backend/pkg/logger"
	"github.com/workledger/workledger-backend/pkg/messaging"
	"github.com/workledger/workledger-backend/pkg/period"
	"github.com/workledger/workledger-backend/pkg/tenant"
	"golang.org/x/sync/errgroup"
)

// Store persists ledger entries
type Store interface {
	CreateWithPrior(ctx context.Context, employeeID string, p period.Period, build repository.BuildFunc) (*domain.Entry, error)
	GetByID(ctx context.Context, id string) (*domain.Entry, error)
	GetByPeriod(ctx context.Context, employeeID string, p period.Period) (*domain.Entry, error)
	List(ctx context.Context, p period.Period) ([]*domain.Entry, error)
	Adjust(ctx context.Context, id string, fn func(e *domain.Entry) error) (*domain.Entry, error)
	Delete(ctx context.Context, id string) (*domain.Entry, error)
	ExistingEmployeeIDs(ctx context.Context, p period.Period) ([]string, error)
}

// EmployeeDirectory resolves employees of the caller's tenant
type EmployeeDirectory interface {
	GetByID(ctx context.Context, id string) (*staff.Employee, error)
	ListActive(ctx context.Context) ([]*staff.Employee, error)
}

// Aggregator totals an employee's attendance for a period
type Aggregator interface {
	Aggregate(ctx context.Context, employeeID string, p period.Period) (attendance.Summary, error)
}

// Generation triggers
const (
	TriggerScheduler = "scheduler"
	TriggerOperator  = "operator"
	TriggerEvent     = "event"
)

// GenerationResult counts the outcome of one batch generation
type GenerationResult struct {
	Period  period.Period `json:"period"`
	Created int           `json:"created"`
	Skipped int           `json:"skipped"`
	Failed  int           `json:"failed"`
}

// LedgerService implements the ledger engine: period entry creation with loan
// carry-forward, additive adjustments, closing and batch generation.
type LedgerService struct {
	store      Store
	directory  EmployeeDirectory
	aggregator Aggregator
	publisher  *events.LedgerEventPublisher
	policy     domain.Policy
	workers    int
	now        func() time.Time
	logger     *logger.Logger
}

// NewLedgerService creates a new ledger service. workers bounds the concurrent
// per-employee creations of a batch generation.
func NewLedgerService(
	store Store,
	directory EmployeeDirectory,
	aggregator Aggregator,
	publisher *events.LedgerEventPublisher,
	policy domain.Policy,
	workers int,
	log *logger.Logger,
) *LedgerService {
	if workers < 1 {
		workers = 1
	}
	return &LedgerService{
		store:      store,
		directory:  directory,
		aggregator: aggregator,
		publisher:  publisher,
		policy:     policy,
		workers:    workers,
		now:        time.Now,
		logger:     log.WithComponent("ledger"),
	}
}

// CreatePeriodEntry creates the employee's entry for the period, carrying forward the
// balance of the most recent earlier entry. A second call for the same period returns
// DuplicatePeriod and leaves the existing entry untouched.
func (s *LedgerService) CreatePeriodEntry(ctx context.Context, employeeID string, p period.Period) (*domain.Entry, error) {
	if err := validateKey(employeeID, p); err != nil {
		return nil, err
	}

	emp, err := s.directory.GetByID(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	return s.createFor(ctx, emp, p)
}

func (s *LedgerService) createFor(ctx context.Context, emp *staff.Employee, p period.Period) (*domain.Entry, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}
	actorID := actor.IDFromContext(ctx)

	entry, err := s.store.CreateWithPrior(ctx, emp.ID, p, func(ctx context.Context, prior *domain.Entry) (*domain.Entry, error) {
		basis, err := s.payBasis(ctx, emp, p)
		if err != nil {
			return nil, err
		}
		carried := domain.CarryForward(prior, s.policy)
		return domain.NewEntry(uuid.New().String(), tenantID, emp.ID, p, basis, carried, actorID), nil
	})
	if err != nil {
		return nil, err
	}
	entry.EmployeeName = emp.Name

	s.publisher.PublishCreated(ctx, entry)
	return entry, nil
}

func (s *LedgerService) payBasis(ctx context.Context, emp *staff.Employee, p period.Period) (domain.PayBasis, error) {
	if !emp.Wage.IsHourly() {
		return domain.FixedPay(emp.Wage.Amount), nil
	}
	summary, err := s.aggregator.Aggregate(ctx, emp.ID, p)
	if err != nil {
		return domain.PayBasis{}, err
	}
	return domain.HourlyPay(summary.TotalWageEarned, summary.TotalHoursWorked, summary.DaysWorked), nil
}

// ApplyAdjustment adds the deltas to the entry's cumulative fields. The adjustment is
// validated before any storage access and applied under the entry's row lock.
func (s *LedgerService) ApplyAdjustment(ctx context.Context, entryID string, adj domain.Adjustment) (*domain.Entry, error) {
	if err := adj.Validate(); err != nil {
		return nil, err
	}

	entry, err := s.store.Adjust(ctx, entryID, func(e *domain.Entry) error {
		if err := e.Apply(adj, s.policy); err != nil {
			return err
		}
		e.UpdatedBy = actor.IDFromContext(ctx)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publisher.PublishAdjusted(ctx, entry, adj)
	return entry, nil
}

// CloseEntry finalizes the entry. Closing a closed entry returns it unchanged.
func (s *LedgerService) CloseEntry(ctx context.Context, entryID string) (*domain.Entry, error) {
	newlyClosed := false
	entry, err := s.store.Adjust(ctx, entryID, func(e *domain.Entry) error {
		if e.IsClosed() {
			return nil
		}
		e.Close(s.now())
		e.UpdatedBy = actor.IDFromContext(ctx)
		newlyClosed = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if newlyClosed {
		s.publisher.PublishClosed(ctx, entry)
	}
	return entry, nil
}

// DeleteEntry removes an entry. It is an administrative override; the carried balance
// of later entries is not recomputed.
func (s *LedgerService) DeleteEntry(ctx context.Context, entryID string) error {
	entry, err := s.store.Delete(ctx, entryID)
	if err != nil {
		return err
	}

	s.publisher.PublishDeleted(ctx, entry)
	return nil
}

// GetPeriodEntry returns the employee's entry for the period
func (s *LedgerService) GetPeriodEntry(ctx context.Context, employeeID string, p period.Period) (*domain.Entry, error) {
	if err := validateKey(employeeID, p); err != nil {
		return nil, err
	}
	return s.store.GetByPeriod(ctx, employeeID, p)
}

// GetEntry returns an entry by ID
func (s *LedgerService) GetEntry(ctx context.Context, entryID string) (*domain.Entry, error) {
	return s.store.GetByID(ctx, entryID)
}

// ListEntries returns the tenant's entries for the period sorted by employee name
func (s *LedgerService) ListEntries(ctx context.Context, p period.Period) ([]*domain.Entry, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return s.store.List(ctx, p)
}

// GeneratePeriod creates the period entry of every active employee of the caller's
// tenant. Employees that already have one are skipped; a DuplicatePeriod raised by a
// concurrent creator counts as skipped too. A failing employee is logged and counted
// without stopping the others.
//
// Creations run on a bounded pool. Cancelling ctx stops dispatching further employees;
// creations already dispatched run to completion. The returned error is only set when
// the batch could not start or was cut short by ctx.
func (s *LedgerService) GeneratePeriod(ctx context.Context, p period.Period, trigger string) (GenerationResult, error) {
	result := GenerationResult{Period: p}
	if err := p.Validate(); err != nil {
		return result, err
	}
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return result, err
	}
	log := s.logger.WithTenantID(tenantID)

	employees, err := s.directory.ListActive(ctx)
	if err != nil {
		return result, err
	}
	existingIDs, err := s.store.ExistingEmployeeIDs(ctx, p)
	if err != nil {
		return result, err
	}
	existing := make(map[string]struct{}, len(existingIDs))
	for _, id := range existingIDs {
		existing[id] = struct{}{}
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(s.workers)
	count := func(f func()) {
		mu.Lock()
		f()
		mu.Unlock()
	}

	for _, emp := range employees {
		if _, ok := existing[emp.ID]; ok {
			count(func() { result.Skipped++ })
			continue
		}
		if ctx.Err() != nil {
			break
		}

		emp := emp
		taskCtx := context.WithoutCancel(ctx)
		g.Go(func() error {
			_, err := s.createFor(taskCtx, emp, p)
			switch {
			case err == nil:
				count(func() { result.Created++ })
			case errors.Is(err, errors.ErrDuplicatePeriod):
				count(func() { result.Skipped++ })
			default:
				count(func() { result.Failed++ })
				log.Error().Err(err).
					Str("employee_id", emp.ID).
					Str("period", p.String()).
					Msg("failed to create ledger entry")
			}
			return nil
		})
	}
	_ = g.Wait()

	// Scheduler sweeps repeat every tick; one that found nothing to create is not news
	quiet := trigger == TriggerScheduler && result.Created == 0 && result.Failed == 0
	event := log.Info()
	if quiet {
		event = log.Debug()
	}
	event.
		Str("period", p.String()).
		Str("trigger", trigger).
		Int("created", result.Created).
		Int("skipped", result.Skipped).
		Int("failed", result.Failed).
		Msg("ledger generation finished")

	if quiet {
		return result, ctx.Err()
	}
	s.publisher.PublishGenerationCompleted(context.WithoutCancel(ctx), messaging.GenerationCompletedEvent{
		TenantID: tenantID,
		Month:    p.Month,
		Year:     p.Year,
		Trigger:  trigger,
		Created:  result.Created,
		Skipped:  result.Skipped,
		Failed:   result.Failed,
	})

	return result, ctx.Err()
}

func validateKey(employeeID string, p period.Period) error {
	if employeeID == "" {
		return errors.Validation(map[string]string{"employee_id": "this field is required"})
	}
	return p.Validate()
}
