package repository

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/workledger/workledger-backend/internal/staff/domain"
	"github.com/workledger/workledger-backend/pkg/database"
	"github.com/workledger/workledger-backend/pkg/errors"
	"github.com/workledger/workledger-backend/pkg/tenant"
)

// employeeRow is the employees table row
type employeeRow struct {
	ID         string          `db:"id"`
	TenantID   string          `db:"tenant_id"`
	Name       string          `db:"name"`
	Role       string          `db:"role"`
	WageBasis  string          `db:"wage_basis"`
	WageAmount decimal.Decimal `db:"wage_amount"`
	Active     bool            `db:"is_active"`
	CreatedAt  time.Time       `db:"created_at"`
	UpdatedAt  time.Time       `db:"updated_at"`
}

func (r *employeeRow) toDomain() *domain.Employee {
	return &domain.Employee{
		ID:        r.ID,
		TenantID:  r.TenantID,
		Name:      r.Name,
		Role:      domain.Role(r.Role),
		Wage:      domain.WageBasis{Kind: domain.WageKind(r.WageBasis), Amount: r.WageAmount},
		Active:    r.Active,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

const employeeColumns = `id, tenant_id, name, role, wage_basis, wage_amount, is_active, created_at, updated_at`

// EmployeeRepository reads and maintains the local employee directory.
// Every method is scoped to the tenant carried by ctx.
type EmployeeRepository struct {
	db *database.DB
}

// NewEmployeeRepository creates a new employee repository
func NewEmployeeRepository(db *database.DB) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

// GetByID returns the employee, or NotFound when it does not exist in the caller's tenant
func (r *EmployeeRepository) GetByID(ctx context.Context, id string) (*domain.Employee, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	var row employeeRow
	err = r.db.WithTenantRLS(ctx, tenantID, func(ctx context.Context) error {
		query := `SELECT ` + employeeColumns + ` FROM employees WHERE id = $1 AND tenant_id = $2`
		return r.db.Conn(ctx).GetContext(ctx, &row, query, id, tenantID)
	})
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFound("employee")
	}
	if err != nil {
		return nil, err
	}

	return row.toDomain(), nil
}

// ListActive returns active employees ordered by name
func (r *EmployeeRepository) ListActive(ctx context.Context) ([]*domain.Employee, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	var rows []employeeRow
	err = r.db.WithTenantRLS(ctx, tenantID, func(ctx context.Context) error {
		query := `
			SELECT ` + employeeColumns + `
			FROM employees
			WHERE tenant_id = $1 AND is_active
			ORDER BY name, id
		`
		return r.db.Conn(ctx).SelectContext(ctx, &rows, query, tenantID)
	})
	if err != nil {
		return nil, err
	}

	return toDomainList(rows), nil
}

// ListByIDs returns the named employees of the tenant, active or not, ordered by name
func (r *EmployeeRepository) ListByIDs(ctx context.Context, ids []string) ([]*domain.Employee, error) {
	if len(ids) == 0 {
		return []*domain.Employee{}, nil
	}

	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	var rows []employeeRow
	err = r.db.WithTenantRLS(ctx, tenantID, func(ctx context.Context) error {
		query := `
			SELECT ` + employeeColumns + `
			FROM employees
			WHERE tenant_id = $1 AND id = ANY($2)
			ORDER BY name, id
		`
		return r.db.Conn(ctx).SelectContext(ctx, &rows, query, tenantID, pq.Array(ids))
	})
	if err != nil {
		return nil, err
	}

	return toDomainList(rows), nil
}

// Upsert inserts or replaces the directory entry for an employee of the ctx tenant
func (r *EmployeeRepository) Upsert(ctx context.Context, emp *domain.Employee) error {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return err
	}
	if emp.TenantID != tenantID {
		return errors.Forbidden("employee belongs to another tenant")
	}

	err = r.db.WithTenantRLS(ctx, tenantID, func(ctx context.Context) error {
		query := `
			INSERT INTO employees (id, tenant_id, name, role, wage_basis, wage_amount, is_active)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name,
				role = EXCLUDED.role,
				wage_basis = EXCLUDED.wage_basis,
				wage_amount = EXCLUDED.wage_amount,
				is_active = EXCLUDED.is_active,
				updated_at = NOW()
			WHERE employees.tenant_id = EXCLUDED.tenant_id
			RETURNING created_at, updated_at
		`
		return r.db.Conn(ctx).QueryRowxContext(ctx, query,
			emp.ID, tenantID, emp.Name, string(emp.Role), string(emp.Wage.Kind), emp.Wage.Amount, emp.Active,
		).Scan(&emp.CreatedAt, &emp.UpdatedAt)
	})
	if stderrors.Is(err, sql.ErrNoRows) {
		// The id exists under a different tenant; the conflict update was filtered out.
		return errors.Forbidden("employee belongs to another tenant")
	}
	if appErr := database.MapPQError(err); appErr != nil {
		return appErr
	}
	return err
}

// Deactivate marks an employee inactive. Attendance and ledger history are kept.
func (r *EmployeeRepository) Deactivate(ctx context.Context, id string) error {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return err
	}

	return r.db.WithTenantRLS(ctx, tenantID, func(ctx context.Context) error {
		result, err := r.db.Conn(ctx).ExecContext(ctx,
			`UPDATE employees SET is_active = FALSE, updated_at = NOW() WHERE id = $1 AND tenant_id = $2`,
			id, tenantID,
		)
		if err != nil {
			return err
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return errors.NotFound("employee")
		}
		return nil
	})
}

func toDomainList(rows []employeeRow) []*domain.Employee {
	out := make([]*domain.Employee, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	return out
}
