package repository

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/workledger/workledger-backend/internal/attendance/domain"
	"github.com/workledger/workledger-backend/pkg/database"
	"github.com/workledger/workledger-backend/pkg/errors"
	"github.com/workledger/workledger-backend/pkg/period"
	"github.com/workledger/workledger-backend/pkg/tenant"
)

type recordRow struct {
	ID          string           `db:"id"`
	TenantID    string           `db:"tenant_id"`
	EmployeeID  string           `db:"employee_id"`
	WorkDate    time.Time        `db:"work_date"`
	EntryTime   domain.ClockTime `db:"entry_time"`
	ExitTime    domain.ClockTime `db:"exit_time"`
	HoursWorked decimal.Decimal  `db:"hours_worked"`
	WageRate    decimal.Decimal  `db:"wage_rate"`
	WageEarned  decimal.Decimal  `db:"wage_earned"`
	CreatedBy   sql.NullString   `db:"created_by"`
	UpdatedBy   sql.NullString   `db:"updated_by"`
	CreatedAt   time.Time        `db:"created_at"`
	UpdatedAt   time.Time        `db:"updated_at"`
}

func (r *recordRow) toDomain() *domain.Record {
	return &domain.Record{
		ID:          r.ID,
		TenantID:    r.TenantID,
		EmployeeID:  r.EmployeeID,
		WorkDate:    domain.DateOnly(r.WorkDate),
		EntryTime:   r.EntryTime,
		ExitTime:    r.ExitTime,
		HoursWorked: r.HoursWorked,
		WageRate:    r.WageRate,
		WageEarned:  r.WageEarned,
		CreatedBy:   r.CreatedBy.String,
		UpdatedBy:   r.UpdatedBy.String,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

const recordColumns = `id, tenant_id, employee_id, work_date, entry_time, exit_time,
	hours_worked, wage_rate, wage_earned, created_by, updated_by, created_at, updated_at`

// AttendanceRepository persists attendance records, one per employee and date.
// Every method is scoped to the tenant carried by ctx.
type AttendanceRepository struct {
	db *database.DB
}

// NewAttendanceRepository creates a new attendance repository
func NewAttendanceRepository(db *database.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// Create inserts a record. A second record for the same employee and date is a Conflict.
func (r *AttendanceRepository) Create(ctx context.Context, rec *domain.Record) error {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return err
	}
	rec.TenantID = tenantID

	err = r.db.WithTenantRLS(ctx, tenantID, func(ctx context.Context) error {
		query := `
			INSERT INTO attendance_records (
				id, tenant_id, employee_id, work_date, entry_time, exit_time,
				hours_worked, wage_rate, wage_earned, created_by, updated_by
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
			RETURNING created_at, updated_at
		`
		return r.db.Conn(ctx).QueryRowxContext(ctx, query,
			rec.ID, tenantID, rec.EmployeeID, rec.WorkDate, rec.EntryTime, rec.ExitTime,
			rec.HoursWorked, rec.WageRate, rec.WageEarned, nullable(rec.CreatedBy),
		).Scan(&rec.CreatedAt, &rec.UpdatedAt)
	})
	if appErr := database.MapPQError(err); appErr != nil {
		return appErr
	}
	return err
}

// GetByID returns a record of the caller's tenant
func (r *AttendanceRepository) GetByID(ctx context.Context, id string) (*domain.Record, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	var row recordRow
	err = r.db.WithTenantRLS(ctx, tenantID, func(ctx context.Context) error {
		query := `SELECT ` + recordColumns + ` FROM attendance_records WHERE id = $1 AND tenant_id = $2`
		return r.db.Conn(ctx).GetContext(ctx, &row, query, id, tenantID)
	})
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFound("attendance record")
	}
	if err != nil {
		return nil, err
	}

	return row.toDomain(), nil
}

// Update writes corrected times and the derived hours and wage
func (r *AttendanceRepository) Update(ctx context.Context, rec *domain.Record) error {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return err
	}

	err = r.db.WithTenantRLS(ctx, tenantID, func(ctx context.Context) error {
		query := `
			UPDATE attendance_records
			SET entry_time = $3, exit_time = $4, hours_worked = $5, wage_earned = $6,
			    updated_by = $7, updated_at = NOW()
			WHERE id = $1 AND tenant_id = $2
			RETURNING updated_at
		`
		return r.db.Conn(ctx).QueryRowxContext(ctx, query,
			rec.ID, tenantID, rec.EntryTime, rec.ExitTime, rec.HoursWorked, rec.WageEarned, nullable(rec.UpdatedBy),
		).Scan(&rec.UpdatedAt)
	})
	if stderrors.Is(err, sql.ErrNoRows) {
		return errors.NotFound("attendance record")
	}
	if appErr := database.MapPQError(err); appErr != nil {
		return appErr
	}
	return err
}

// Delete removes a record
func (r *AttendanceRepository) Delete(ctx context.Context, id string) error {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return err
	}

	return r.db.WithTenantRLS(ctx, tenantID, func(ctx context.Context) error {
		result, err := r.db.Conn(ctx).ExecContext(ctx,
			`DELETE FROM attendance_records WHERE id = $1 AND tenant_id = $2`, id, tenantID)
		if err != nil {
			return err
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return errors.NotFound("attendance record")
		}
		return nil
	})
}

// ListForEmployee returns an employee's records dated inside the period, oldest first
func (r *AttendanceRepository) ListForEmployee(ctx context.Context, employeeID string, p period.Period) ([]*domain.Record, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}
	from, until := p.DateRange()

	var rows []recordRow
	err = r.db.WithTenantRLS(ctx, tenantID, func(ctx context.Context) error {
		query := `
			SELECT ` + recordColumns + `
			FROM attendance_records
			WHERE tenant_id = $1 AND employee_id = $2 AND work_date >= $3 AND work_date < $4
			ORDER BY work_date
		`
		return r.db.Conn(ctx).SelectContext(ctx, &rows, query, tenantID, employeeID, from, until)
	})
	if err != nil {
		return nil, err
	}

	return toDomainList(rows), nil
}

// ListForPeriod returns all records of the tenant dated inside the period
func (r *AttendanceRepository) ListForPeriod(ctx context.Context, p period.Period) ([]*domain.Record, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}
	from, until := p.DateRange()

	var rows []recordRow
	err = r.db.WithTenantRLS(ctx, tenantID, func(ctx context.Context) error {
		query := `
			SELECT ` + recordColumns + `
			FROM attendance_records
			WHERE tenant_id = $1 AND work_date >= $2 AND work_date < $3
			ORDER BY employee_id, work_date
		`
		return r.db.Conn(ctx).SelectContext(ctx, &rows, query, tenantID, from, until)
	})
	if err != nil {
		return nil, err
	}

	return toDomainList(rows), nil
}

func toDomainList(rows []recordRow) []*domain.Record {
	out := make([]*domain.Record, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	return out
}

// nullable maps the empty actor to NULL
func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
