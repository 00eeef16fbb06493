package database_test

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/workledger/workledger-backend/pkg/database"
	"github.com/workledger/workledger-backend/pkg/errors"
)

func TestMapPQError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
		code     string
	}{
		{
			name:     "ledger period unique violation",
			err:      &pq.Error{Code: "23505", Constraint: database.ConstraintLedgerPeriod},
			sentinel: errors.ErrDuplicatePeriod,
			code:     "DUPLICATE_PERIOD",
		},
		{
			name:     "wrapped attendance unique violation",
			err:      fmt.Errorf("insert: %w", &pq.Error{Code: "23505", Constraint: database.ConstraintAttendanceDay}),
			sentinel: errors.ErrConflict,
			code:     "CONFLICT",
		},
		{
			name:     "serialization failure",
			err:      &pq.Error{Code: "40001"},
			sentinel: errors.ErrStorageConflict,
			code:     "STORAGE_CONFLICT",
		},
		{
			name:     "deadlock",
			err:      &pq.Error{Code: "40P01"},
			sentinel: errors.ErrStorageConflict,
			code:     "STORAGE_CONFLICT",
		},
		{
			name:     "negative cumulative amount",
			err:      &pq.Error{Code: "23514", Constraint: database.ConstraintLedgerCumulative},
			sentinel: errors.ErrValidation,
			code:     "VALIDATION_ERROR",
		},
		{
			name:     "foreign key",
			err:      &pq.Error{Code: "23503"},
			sentinel: errors.ErrBadRequest,
			code:     "BAD_REQUEST",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appErr := database.MapPQError(tt.err)
			require.NotNil(t, appErr)
			assert.True(t, errors.Is(appErr, tt.sentinel))
			assert.Equal(t, tt.code, appErr.Code)
		})
	}
}

func TestMapPQError_Unhandled(t *testing.T) {
	assert.Nil(t, database.MapPQError(stderrors.New("plain error")))
	assert.Nil(t, database.MapPQError(&pq.Error{Code: "42P01"}))
}

func TestIsUniqueViolation(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", &pq.Error{Code: "23505", Constraint: database.ConstraintLedgerPeriod})

	assert.True(t, database.IsUniqueViolation(err, database.ConstraintLedgerPeriod))
	assert.False(t, database.IsUniqueViolation(err, database.ConstraintAttendanceDay))
	assert.False(t, database.IsUniqueViolation(stderrors.New("x"), database.ConstraintLedgerPeriod))
}
