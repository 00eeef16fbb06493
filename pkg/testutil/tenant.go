package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/workledger/workledger-backend/pkg/tenant"
)

// TestTenant represents a tenant created for testing
type TestTenant struct {
	ID       string
	Name     string
	Slug     string
	Timezone string
}

// TenantManager registers test tenants and removes their rows afterwards
type TenantManager struct {
	db      *sqlx.DB
	tenants []TestTenant
	mu      sync.Mutex
}

// NewTenantManager creates a new tenant manager for tests
func NewTenantManager(db *sqlx.DB) *TenantManager {
	return &TenantManager{
		db:      db,
		tenants: make([]TestTenant, 0),
	}
}

// CreateTenant registers a new tenant. Tenants share tables, so isolation comes
// from the tenant_id column and the tenant context.
//
// Usage:
//
//	tm := testutil.NewTenantManager(db)
//	tenant, _ := tm.CreateTenant(ctx, "north-depot", "Europe/Berlin")
//	ctx = testutil.WithTestTenant(ctx, tenant)
func (tm *TenantManager) CreateTenant(ctx context.Context, name, timezone string) (*TestTenant, error) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	if timezone == "" {
		timezone = "UTC"
	}

	id := uuid.New().String()
	slug := fmt.Sprintf("%s-%s", strings.ToLower(strings.ReplaceAll(name, " ", "-")), id[:8])

	_, err := tm.db.ExecContext(ctx, `
		INSERT INTO tenants (id, name, slug, timezone, is_active)
		VALUES ($1, $2, $3, $4, TRUE)
	`, id, name, slug, timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to register tenant: %w", err)
	}

	t := TestTenant{
		ID:       id,
		Name:     name,
		Slug:     slug,
		Timezone: timezone,
	}

	tm.tenants = append(tm.tenants, t)
	return &t, nil
}

// InsertEmployee writes an employee fixture for the tenant
func (tm *TenantManager) InsertEmployee(ctx context.Context, t *TestTenant, e EmployeeFixture) error {
	_, err := tm.db.ExecContext(ctx, `
		INSERT INTO employees (id, tenant_id, name, role, wage_basis, wage_amount, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, e.ID, t.ID, e.Name, e.Role, e.WageBasis, e.WageAmount, e.Active)
	if err != nil {
		return fmt.Errorf("failed to insert employee: %w", err)
	}
	return nil
}

// DropTenant removes a tenant and all of its rows
func (tm *TenantManager) DropTenant(ctx context.Context, t *TestTenant) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	if err := tm.deleteRows(ctx, t.ID); err != nil {
		return err
	}

	for i, tracked := range tm.tenants {
		if tracked.ID == t.ID {
			tm.tenants = append(tm.tenants[:i], tm.tenants[i+1:]...)
			break
		}
	}

	return nil
}

// Cleanup drops all tenants created by this manager.
// Call this in TestMain or test cleanup.
func (tm *TenantManager) Cleanup(ctx context.Context) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	var lastErr error
	for _, t := range tm.tenants {
		if err := tm.deleteRows(ctx, t.ID); err != nil {
			lastErr = err
		}
	}

	tm.tenants = make([]TestTenant, 0)
	return lastErr
}

func (tm *TenantManager) deleteRows(ctx context.Context, tenantID string) error {
	for _, table := range []string{"ledger_entries", "attendance_records", "employees", "tenants"} {
		column := "tenant_id"
		if table == "tenants" {
			column = "id"
		}
		query := fmt.Sprintf("DELETE FROM %s WHERE %s = $1", table, column)
		if _, err := tm.db.ExecContext(ctx, query, tenantID); err != nil {
			return fmt.Errorf("failed to delete %s rows: %w", table, err)
		}
	}
	return nil
}

// WithTestTenant creates a context with tenant information for testing.
// This is the primary way to set up tenant context in tests.
func WithTestTenant(ctx context.Context, t *TestTenant) context.Context {
	return tenant.WithTenantContext(ctx, t.ID, t.Slug)
}

// TestTenantID is the tenant used by TestTenantContext
const TestTenantID = "11111111-1111-1111-1111-111111111111"

// TestTenantContext creates a context with a fake tenant for simple unit tests
// that don't need a database.
func TestTenantContext() context.Context {
	return tenant.WithTenantContext(context.Background(), TestTenantID, "test-tenant")
}
