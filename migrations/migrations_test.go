package migrations_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/workledger/workledger-backend/migrations"
	"github.com/workledger/workledger-backend/pkg/database"
)

func TestStatements_DeclareMappedConstraints(t *testing.T) {
	stmts, err := migrations.Statements()
	require.NoError(t, err)
	require.NotEmpty(t, stmts)

	all := ""
	for _, s := range stmts {
		all += s
	}

	for _, c := range []string{
		database.ConstraintLedgerPeriod,
		database.ConstraintAttendanceDay,
		database.ConstraintLedgerBalance,
		database.ConstraintLedgerPayable,
		database.ConstraintLedgerCumulative,
		database.ConstraintAttendanceHours,
		database.ConstraintEmployeeWage,
	} {
		assert.Contains(t, all, c)
	}
	assert.Contains(t, all, "ledger_entries_employee_recent_idx")
}
