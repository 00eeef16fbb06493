package repository

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/workledger/workledger-backend/internal/ledger/domain"
	staff "github.com/workledger/workledger-backend/internal/staff/domain"
	"github.com/workledger/workledger-backend/pkg/database"
	"github.com/workledger/workledger-backend/pkg/errors"
	"github.com/workledger/workledger-backend/pkg/period"
	"github.com/workledger/workledger-backend/pkg/tenant"
)

// entryRow is a ledger_entries row joined with the employee name
type entryRow struct {
	ID               string              `db:"id"`
	TenantID         string              `db:"tenant_id"`
	EmployeeID       string              `db:"employee_id"`
	EmployeeName     string              `db:"employee_name"`
	PeriodMonth      int                 `db:"period_month"`
	PeriodYear       int                 `db:"period_year"`
	WageBasis        string              `db:"wage_basis"`
	BasePay          decimal.Decimal     `db:"base_pay"`
	Advance          decimal.Decimal     `db:"advance"`
	LoanTaken        decimal.Decimal     `db:"loan_taken"`
	LoanPaid         decimal.Decimal     `db:"loan_paid"`
	PriorRemaining   decimal.Decimal     `db:"prior_remaining"`
	LoanRemaining    decimal.Decimal     `db:"loan_remaining"`
	FinalPayable     decimal.Decimal     `db:"final_payable"`
	TotalHoursWorked decimal.NullDecimal `db:"total_hours_worked"`
	DaysWorked       sql.NullInt32       `db:"days_worked"`
	ClosedAt         sql.NullTime        `db:"closed_at"`
	CreatedBy        sql.NullString      `db:"created_by"`
	UpdatedBy        sql.NullString      `db:"updated_by"`
	CreatedAt        time.Time           `db:"created_at"`
	UpdatedAt        time.Time           `db:"updated_at"`
}

func (r *entryRow) toDomain() *domain.Entry {
	e := &domain.Entry{
		ID:             r.ID,
		TenantID:       r.TenantID,
		EmployeeID:     r.EmployeeID,
		EmployeeName:   r.EmployeeName,
		Period:         period.Period{Month: r.PeriodMonth, Year: r.PeriodYear},
		WageBasis:      staff.WageKind(r.WageBasis),
		BasePay:        r.BasePay,
		Advance:        r.Advance,
		LoanTaken:      r.LoanTaken,
		LoanPaid:       r.LoanPaid,
		PriorRemaining: r.PriorRemaining,
		LoanRemaining:  r.LoanRemaining,
		FinalPayable:   r.FinalPayable,
		CreatedBy:      r.CreatedBy.String,
		UpdatedBy:      r.UpdatedBy.String,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
	if r.TotalHoursWorked.Valid {
		hours := r.TotalHoursWorked.Decimal
		e.TotalHoursWorked = &hours
	}
	if r.DaysWorked.Valid {
		days := int(r.DaysWorked.Int32)
		e.DaysWorked = &days
	}
	if r.ClosedAt.Valid {
		closed := r.ClosedAt.Time.UTC()
		e.ClosedAt = &closed
	}
	return e
}

const entrySelect = `
	SELECT l.id, l.tenant_id, l.employee_id, e.name AS employee_name,
	       l.period_month, l.period_year, l.wage_basis, l.base_pay,
	       l.advance, l.loan_taken, l.loan_paid, l.prior_remaining, l.loan_remaining, l.final_payable,
	       l.total_hours_worked, l.days_worked, l.closed_at,
	       l.created_by, l.updated_by, l.created_at, l.updated_at
	FROM ledger_entries l
	JOIN employees e ON e.id = l.employee_id
`

// LedgerRepository stores ledger entries, unique per employee and period.
// Every method is scoped to the tenant carried by ctx.
type LedgerRepository struct {
	db *database.DB
}

// NewLedgerRepository creates a new ledger repository
func NewLedgerRepository(db *database.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// BuildFunc builds the new entry from the most recent earlier entry, nil when there is
// none. It runs inside the creating transaction; ctx carries that transaction.
type BuildFunc func(ctx context.Context, prior *domain.Entry) (*domain.Entry, error)

// CreateWithPrior creates the entry of an employee's period in one transaction: the
// existing-entry check, the prior lookup, the build and the insert. The prior row is
// held FOR SHARE so a concurrent adjustment to it commits before or after the carry,
// never in between. The unique constraint is the final guard against a concurrent
// creator and its violation is reported as DuplicatePeriod.
func (r *LedgerRepository) CreateWithPrior(ctx context.Context, employeeID string, p period.Period, build BuildFunc) (*domain.Entry, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	var created *domain.Entry
	err = r.db.WithTenantRLS(ctx, tenantID, func(ctx context.Context) error {
		conn := r.db.Conn(ctx)

		var exists bool
		if err := conn.GetContext(ctx, &exists, `
			SELECT EXISTS (
				SELECT 1 FROM ledger_entries
				WHERE tenant_id = $1 AND employee_id = $2 AND period_month = $3 AND period_year = $4
			)
		`, tenantID, employeeID, p.Month, p.Year); err != nil {
			return err
		}
		if exists {
			return errors.DuplicatePeriod(employeeID, p.String())
		}

		var prior *domain.Entry
		var row entryRow
		err := conn.GetContext(ctx, &row, entrySelect+`
			WHERE l.tenant_id = $1 AND l.employee_id = $2
			  AND (l.period_year < $3 OR (l.period_year = $3 AND l.period_month < $4))
			ORDER BY l.period_year DESC, l.period_month DESC
			LIMIT 1
			FOR SHARE OF l
		`, tenantID, employeeID, p.Year, p.Month)
		switch {
		case err == nil:
			prior = row.toDomain()
		case !stderrors.Is(err, sql.ErrNoRows):
			return err
		}

		entry, err := build(ctx, prior)
		if err != nil {
			return err
		}

		if err := conn.QueryRowxContext(ctx, `
			INSERT INTO ledger_entries (
				id, tenant_id, employee_id, period_month, period_year, wage_basis,
				base_pay, advance, loan_taken, loan_paid, prior_remaining, loan_remaining, final_payable,
				total_hours_worked, days_worked, created_by, updated_by
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $16)
			RETURNING created_at, updated_at
		`,
			entry.ID, tenantID, employeeID, p.Month, p.Year, string(entry.WageBasis),
			entry.BasePay, entry.Advance, entry.LoanTaken, entry.LoanPaid,
			entry.PriorRemaining, entry.LoanRemaining, entry.FinalPayable,
			nullDecimal(entry.TotalHoursWorked), nullInt(entry.DaysWorked), nullable(entry.CreatedBy),
		).Scan(&entry.CreatedAt, &entry.UpdatedAt); err != nil {
			return err
		}

		entry.TenantID = tenantID
		created = entry
		return nil
	})
	if err != nil {
		if database.IsUniqueViolation(err, database.ConstraintLedgerPeriod) {
			return nil, errors.DuplicatePeriod(employeeID, p.String())
		}
		if appErr := database.MapPQError(err); appErr != nil {
			return nil, appErr
		}
		return nil, err
	}

	return created, nil
}

// GetByID returns an entry of the caller's tenant
func (r *LedgerRepository) GetByID(ctx context.Context, id string) (*domain.Entry, error) {
	return r.getOne(ctx, `WHERE l.id = $1 AND l.tenant_id = $2`, id)
}

// GetByPeriod returns the employee's entry for the period
func (r *LedgerRepository) GetByPeriod(ctx context.Context, employeeID string, p period.Period) (*domain.Entry, error) {
	return r.getOne(ctx, `WHERE l.employee_id = $1 AND l.tenant_id = $2 AND l.period_month = $3 AND l.period_year = $4`,
		employeeID, p.Month, p.Year)
}

// getOne runs entrySelect with where; the tenant is always bound as $2
func (r *LedgerRepository) getOne(ctx context.Context, where string, first interface{}, rest ...interface{}) (*domain.Entry, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}
	args := append([]interface{}{first, tenantID}, rest...)

	var row entryRow
	err = r.db.WithTenantRLS(ctx, tenantID, func(ctx context.Context) error {
		return r.db.Conn(ctx).GetContext(ctx, &row, entrySelect+where, args...)
	})
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFound("ledger entry")
	}
	if err != nil {
		return nil, err
	}

	return row.toDomain(), nil
}

// List returns the tenant's entries for the period ordered by employee name
func (r *LedgerRepository) List(ctx context.Context, p period.Period) ([]*domain.Entry, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	var rows []entryRow
	err = r.db.WithTenantRLS(ctx, tenantID, func(ctx context.Context) error {
		return r.db.Conn(ctx).SelectContext(ctx, &rows, entrySelect+`
			WHERE l.tenant_id = $1 AND l.period_month = $2 AND l.period_year = $3
			ORDER BY e.name, l.employee_id
		`, tenantID, p.Month, p.Year)
	})
	if err != nil {
		return nil, err
	}

	out := make([]*domain.Entry, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	return out, nil
}

// Adjust loads the entry FOR UPDATE, lets fn mutate it and writes the mutable fields
// back in the same transaction. Concurrent adjustments of one entry serialize on the
// row lock. When fn fails nothing is written.
func (r *LedgerRepository) Adjust(ctx context.Context, id string, fn func(e *domain.Entry) error) (*domain.Entry, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	var entry *domain.Entry
	err = r.db.WithTenantRLS(ctx, tenantID, func(ctx context.Context) error {
		conn := r.db.Conn(ctx)

		var row entryRow
		if err := conn.GetContext(ctx, &row, entrySelect+`
			WHERE l.id = $1 AND l.tenant_id = $2
			FOR UPDATE OF l
		`, id, tenantID); err != nil {
			if stderrors.Is(err, sql.ErrNoRows) {
				return errors.NotFound("ledger entry")
			}
			return err
		}

		entry = row.toDomain()
		if err := fn(entry); err != nil {
			return err
		}

		return conn.QueryRowxContext(ctx, `
			UPDATE ledger_entries
			SET advance = $3, loan_taken = $4, loan_paid = $5,
			    loan_remaining = $6, final_payable = $7, closed_at = $8,
			    updated_by = $9, updated_at = NOW()
			WHERE id = $1 AND tenant_id = $2
			RETURNING updated_at
		`,
			id, tenantID, entry.Advance, entry.LoanTaken, entry.LoanPaid,
			entry.LoanRemaining, entry.FinalPayable, nullTime(entry.ClosedAt), nullable(entry.UpdatedBy),
		).Scan(&entry.UpdatedAt)
	})
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return nil, appErr
		}
		return nil, err
	}

	return entry, nil
}

// Delete locks the entry and removes it in one transaction, returning the row as it
// was deleted
func (r *LedgerRepository) Delete(ctx context.Context, id string) (*domain.Entry, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	var entry *domain.Entry
	err = r.db.WithTenantRLS(ctx, tenantID, func(ctx context.Context) error {
		conn := r.db.Conn(ctx)

		var row entryRow
		if err := conn.GetContext(ctx, &row, entrySelect+`
			WHERE l.id = $1 AND l.tenant_id = $2
			FOR UPDATE OF l
		`, id, tenantID); err != nil {
			if stderrors.Is(err, sql.ErrNoRows) {
				return errors.NotFound("ledger entry")
			}
			return err
		}

		result, err := conn.ExecContext(ctx,
			`DELETE FROM ledger_entries WHERE id = $1 AND tenant_id = $2`, id, tenantID)
		if err != nil {
			return err
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return errors.NotFound("ledger entry")
		}
		entry = row.toDomain()
		return nil
	})
	if err != nil {
		return nil, err
	}

	return entry, nil
}

// ExistingEmployeeIDs returns the employees that already have an entry for the period
func (r *LedgerRepository) ExistingEmployeeIDs(ctx context.Context, p period.Period) ([]string, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	var ids []string
	err = r.db.WithTenantRLS(ctx, tenantID, func(ctx context.Context) error {
		return r.db.Conn(ctx).SelectContext(ctx, &ids, `
			SELECT employee_id FROM ledger_entries
			WHERE tenant_id = $1 AND period_month = $2 AND period_year = $3
		`, tenantID, p.Month, p.Year)
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// IsClosed reports whether the employee's entry for the period exists and is closed
func (r *LedgerRepository) IsClosed(ctx context.Context, employeeID string, p period.Period) (bool, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return false, err
	}

	var closed bool
	err = r.db.WithTenantRLS(ctx, tenantID, func(ctx context.Context) error {
		return r.db.Conn(ctx).GetContext(ctx, &closed, `
			SELECT EXISTS (
				SELECT 1 FROM ledger_entries
				WHERE tenant_id = $1 AND employee_id = $2 AND period_month = $3 AND period_year = $4
				  AND closed_at IS NOT NULL
			)
		`, tenantID, employeeID, p.Month, p.Year)
	})
	return closed, err
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(*d)
}

func nullInt(n *int) sql.NullInt32 {
	if n == nil {
		return sql.NullInt32{}
	}
	return sql.NullInt32{Int32: int32(*n), Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
