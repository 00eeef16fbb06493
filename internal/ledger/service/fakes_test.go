package service_test

import (
	"context"
	"sort"
	"sync"

	"github.com/shopspring/decimal"
	attendance "github.com/workledger/workledger-backend/internal/attendance/domain"
	"github.com/workledger/workledger-backend/internal/ledger/domain"
	"github.com/workledger/workledger-backend/internal/ledger/repository"
	staff "github.com/workledger/workledger-backend/internal/staff/domain"
	"github.com/workledger/workledger-backend/pkg/errors"
	"github.com/workledger/workledger-backend/pkg/period"
	"github.com/workledger/workledger-backend/pkg/tenant"
)

// memoryLedger keeps the (employee, period) uniqueness of the table: the existence
// check and the insert are separate critical sections, like a read followed by a
// constrained insert, so concurrent creators race exactly as they would in the database.
type memoryLedger struct {
	mu          sync.Mutex
	entries     map[string]*domain.Entry
	adjustCalls int
}

func newMemoryLedger() *memoryLedger {
	return &memoryLedger{entries: make(map[string]*domain.Entry)}
}

func clone(e *domain.Entry) *domain.Entry {
	c := *e
	return &c
}

func (m *memoryLedger) seed(e *domain.Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[e.ID] = clone(e)
}

func (m *memoryLedger) find(tenantID, employeeID string, p period.Period) *domain.Entry {
	for _, e := range m.entries {
		if e.TenantID == tenantID && e.EmployeeID == employeeID && e.Period == p {
			return e
		}
	}
	return nil
}

func (m *memoryLedger) CreateWithPrior(ctx context.Context, employeeID string, p period.Period, build repository.BuildFunc) (*domain.Entry, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	if m.find(tenantID, employeeID, p) != nil {
		m.mu.Unlock()
		return nil, errors.DuplicatePeriod(employeeID, p.String())
	}
	var prior *domain.Entry
	for _, e := range m.entries {
		if e.TenantID == tenantID && e.EmployeeID == employeeID && monthIndex(e.Period) < monthIndex(p) {
			if prior == nil || monthIndex(prior.Period) < monthIndex(e.Period) {
				prior = e
			}
		}
	}
	if prior != nil {
		prior = clone(prior)
	}
	m.mu.Unlock()

	entry, err := build(ctx, prior)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.find(tenantID, employeeID, p) != nil {
		return nil, errors.DuplicatePeriod(employeeID, p.String())
	}
	entry.TenantID = tenantID
	m.entries[entry.ID] = clone(entry)
	return entry, nil
}

func (m *memoryLedger) GetByID(ctx context.Context, id string) (*domain.Entry, error) {
	tenantID, _ := tenant.TenantID(ctx)
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok || e.TenantID != tenantID {
		return nil, errors.NotFound("ledger entry")
	}
	return clone(e), nil
}

func (m *memoryLedger) GetByPeriod(ctx context.Context, employeeID string, p period.Period) (*domain.Entry, error) {
	tenantID, _ := tenant.TenantID(ctx)
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.find(tenantID, employeeID, p)
	if e == nil {
		return nil, errors.NotFound("ledger entry")
	}
	return clone(e), nil
}

func (m *memoryLedger) List(ctx context.Context, p period.Period) ([]*domain.Entry, error) {
	tenantID, _ := tenant.TenantID(ctx)
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.Entry, 0)
	for _, e := range m.entries {
		if e.TenantID == tenantID && e.Period == p {
			out = append(out, clone(e))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmployeeID < out[j].EmployeeID })
	return out, nil
}

// Adjust holds the lock for the whole read-modify-write, standing in for FOR UPDATE
func (m *memoryLedger) Adjust(ctx context.Context, id string, fn func(e *domain.Entry) error) (*domain.Entry, error) {
	tenantID, _ := tenant.TenantID(ctx)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.adjustCalls++
	stored, ok := m.entries[id]
	if !ok || stored.TenantID != tenantID {
		return nil, errors.NotFound("ledger entry")
	}
	working := clone(stored)
	if err := fn(working); err != nil {
		return nil, err
	}
	m.entries[id] = clone(working)
	return working, nil
}

func (m *memoryLedger) Delete(ctx context.Context, id string) (*domain.Entry, error) {
	tenantID, _ := tenant.TenantID(ctx)
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok || e.TenantID != tenantID {
		return nil, errors.NotFound("ledger entry")
	}
	delete(m.entries, id)
	return e, nil
}

func (m *memoryLedger) ExistingEmployeeIDs(ctx context.Context, p period.Period) ([]string, error) {
	tenantID, _ := tenant.TenantID(ctx)
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0)
	for _, e := range m.entries {
		if e.TenantID == tenantID && e.Period == p {
			ids = append(ids, e.EmployeeID)
		}
	}
	return ids, nil
}

func (m *memoryLedger) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

type fakeDirectory struct {
	employees []*staff.Employee
}

func (f *fakeDirectory) GetByID(ctx context.Context, id string) (*staff.Employee, error) {
	tenantID, _ := tenant.TenantID(ctx)
	for _, e := range f.employees {
		if e.ID == id && e.TenantID == tenantID {
			return e, nil
		}
	}
	return nil, errors.NotFound("employee")
}

func (f *fakeDirectory) ListActive(ctx context.Context) ([]*staff.Employee, error) {
	tenantID, _ := tenant.TenantID(ctx)
	out := make([]*staff.Employee, 0)
	for _, e := range f.employees {
		if e.TenantID == tenantID && e.Active {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeAggregator struct {
	summaries map[string]attendance.Summary
	failFor   map[string]error
}

func (f *fakeAggregator) Aggregate(_ context.Context, employeeID string, _ period.Period) (attendance.Summary, error) {
	if err := f.failFor[employeeID]; err != nil {
		return attendance.Summary{}, err
	}
	if s, ok := f.summaries[employeeID]; ok {
		return s, nil
	}
	return attendance.Summary{EmployeeID: employeeID, TotalHoursWorked: decimal.Zero, TotalWageEarned: decimal.Zero}, nil
}

func monthIndex(p period.Period) int {
	return p.Year*12 + p.Month
}
