package database

import (
	stderrors "errors"
	"strings"

	"github.com/lib/pq"
	"github.com/workledger/workledger-backend/pkg/errors"
)

// Constraint names referenced by MapPQError. They match migrations/001_init.sql.
const (
	ConstraintLedgerPeriod     = "ledger_entries_employee_period_key"
	ConstraintAttendanceDay    = "attendance_records_employee_date_key"
	ConstraintLedgerBalance    = "ledger_entries_loan_balance"
	ConstraintLedgerPayable    = "ledger_entries_final_payable"
	ConstraintEmployeeWage     = "employees_wage_amount_valid"
	ConstraintAttendanceHours  = "attendance_records_hours_non_negative"
	ConstraintLedgerCumulative = "ledger_entries_cumulative_non_negative"
)

// PostgreSQL error codes handled explicitly
const (
	codeUniqueViolation      = "23505"
	codeCheckViolation       = "23514"
	codeForeignKeyViolation  = "23503"
	codeNotNullViolation     = "23502"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

// MapPQError converts a PostgreSQL error to an AppError with meaningful messages.
// Returns nil if the error is not a pq.Error or the code is not handled.
func MapPQError(err error) *errors.AppError {
	var pqErr *pq.Error
	if !stderrors.As(err, &pqErr) {
		return nil
	}

	switch pqErr.Code {
	case codeCheckViolation:
		return mapCheckConstraint(pqErr)

	case codeUniqueViolation:
		return mapUniqueConstraint(pqErr)

	case codeForeignKeyViolation:
		return errors.BadRequest("referenced record does not exist")

	case codeNotNullViolation:
		col := pqErr.Column
		if col == "" {
			col = "required field"
		}
		return errors.Validation(map[string]string{
			col: "must not be empty",
		})

	case codeSerializationFailure, codeDeadlockDetected:
		return errors.StorageConflict()

	default:
		return nil
	}
}

// IsUniqueViolation reports whether err is a unique violation on the named constraint.
func IsUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !stderrors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == codeUniqueViolation && pqErr.Constraint == constraint
}

func mapCheckConstraint(pqErr *pq.Error) *errors.AppError {
	constraint := pqErr.Constraint

	switch {
	case strings.Contains(constraint, ConstraintLedgerCumulative):
		return errors.Validation(map[string]string{
			"amount": "cumulative amounts must not be negative",
		})
	case strings.Contains(constraint, ConstraintLedgerBalance), strings.Contains(constraint, ConstraintLedgerPayable):
		return errors.Internal("ledger entry arithmetic is inconsistent")
	case strings.Contains(constraint, ConstraintAttendanceHours):
		return errors.Validation(map[string]string{
			"exit_time": "must not be before entry_time",
		})
	case strings.Contains(constraint, ConstraintEmployeeWage):
		return errors.Validation(map[string]string{
			"wage_amount": "must be present and not negative",
		})
	case strings.Contains(constraint, "period_month"):
		return errors.Validation(map[string]string{
			"month": "must be between 1 and 12",
		})
	default:
		return errors.BadRequest("data validation failed: " + constraint)
	}
}

func mapUniqueConstraint(pqErr *pq.Error) *errors.AppError {
	switch pqErr.Constraint {
	case ConstraintLedgerPeriod:
		// Callers that know the employee and period build a richer error themselves.
		return errors.DuplicatePeriod("", "")
	case ConstraintAttendanceDay:
		return errors.Conflict("attendance already recorded for this employee and date")
	default:
		return errors.Conflict("a record with these values already exists")
	}
}
