package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/workledger/workledger-backend/pkg/errors"
	"github.com/workledger/workledger-backend/pkg/period"
	"github.com/workledger/workledger-backend/pkg/testutil"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var march = period.Period{Month: 3, Year: 2024}

func newFixedEntry(salary, prior string) *Entry {
	return NewEntry("entry-1", "tenant-1", "emp-1", march, FixedPay(d(salary)), d(prior), "user-1")
}

func assertMoney(t *testing.T, want string, got decimal.Decimal, field string) {
	t.Helper()
	assert.Truef(t, d(want).Equal(got), "%s: want %s, got %s", field, want, got)
}

func TestCarryForward(t *testing.T) {
	type input struct {
		prior  *Entry
		policy Policy
	}
	withRemaining := func(r string) *Entry { return &Entry{LoanRemaining: d(r)} }

	testutil.RunTestCases(t, []testutil.TestCase[input, decimal.Decimal]{
		{Name: "no prior entry", Input: input{nil, DefaultPolicy()}, AssertFn: func(t *testing.T, got decimal.Decimal) { assertMoney(t, "0", got, "carry") }},
		{Name: "outstanding debt", Input: input{withRemaining("600"), DefaultPolicy()}, AssertFn: func(t *testing.T, got decimal.Decimal) { assertMoney(t, "600", got, "carry") }},
		{Name: "overpayment dropped", Input: input{withRemaining("-150"), DefaultPolicy()}, AssertFn: func(t *testing.T, got decimal.Decimal) { assertMoney(t, "0", got, "carry") }},
		{Name: "overpayment carried as credit", Input: input{withRemaining("-150"), Policy{CarryOverpaymentCredit: true}}, AssertFn: func(t *testing.T, got decimal.Decimal) { assertMoney(t, "-150", got, "carry") }},
		{Name: "settled balance", Input: input{withRemaining("0"), DefaultPolicy()}, AssertFn: func(t *testing.T, got decimal.Decimal) { assertMoney(t, "0", got, "carry") }},
	}, func(in input) (decimal.Decimal, error) {
		return CarryForward(in.prior, in.policy), nil
	})
}

func TestNewEntry_FreshHire(t *testing.T) {
	e := newFixedEntry("2500", "0")

	assertMoney(t, "0", e.LoanRemaining, "loan_remaining")
	assertMoney(t, "2500", e.FinalPayable, "final_payable")
	assertMoney(t, "0", e.LoanTaken, "loan_taken")
	assert.Nil(t, e.TotalHoursWorked)
	assert.Nil(t, e.DaysWorked)
	assert.True(t, e.Consistent())
}

func TestNewEntry_HourlySnapshot(t *testing.T) {
	e := NewEntry("entry-1", "tenant-1", "emp-1", march, HourlyPay(d("450"), d("24.5"), 3), d("0"), "user-1")

	assertMoney(t, "450", e.BasePay, "base_pay")
	require.NotNil(t, e.TotalHoursWorked)
	assertMoney(t, "24.5", *e.TotalHoursWorked, "total_hours")
	require.NotNil(t, e.DaysWorked)
	assert.Equal(t, 3, *e.DaysWorked)
}

func TestEntry_CarriedDebtRepaid(t *testing.T) {
	february := &Entry{PriorRemaining: d("0"), LoanTaken: d("1000"), LoanPaid: d("400")}
	february.recompute()
	assertMoney(t, "600", february.LoanRemaining, "february remaining")

	e := newFixedEntry("2000", CarryForward(february, DefaultPolicy()).String())
	assertMoney(t, "600", e.LoanRemaining, "carried")
	assertMoney(t, "0", e.LoanTaken, "loan_taken")

	require.NoError(t, e.Apply(Adjustment{LoanPaid: d("600")}, DefaultPolicy()))
	assertMoney(t, "0", e.LoanRemaining, "loan_remaining")
	assertMoney(t, "1400", e.FinalPayable, "final_payable")
	assert.True(t, e.Consistent())
}

func TestEntry_BlockedNewLoan(t *testing.T) {
	e := newFixedEntry("2000", "200")
	before := *e

	err := e.Apply(Adjustment{LoanTaken: d("500")}, DefaultPolicy())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrOutstandingLoan))
	assert.Equal(t, before, *e)
}

func TestEntry_LoanGateBypassed(t *testing.T) {
	e := newFixedEntry("2000", "200")

	require.NoError(t, e.Apply(Adjustment{LoanTaken: d("500")}, Policy{EnforceLoanGate: false}))
	assertMoney(t, "700", e.LoanRemaining, "loan_remaining")
	assertMoney(t, "2000", e.FinalPayable, "final_payable")
}

func TestEntry_LoanTakenDoesNotReducePay(t *testing.T) {
	e := newFixedEntry("2000", "0")

	require.NoError(t, e.Apply(Adjustment{Advance: d("300"), LoanTaken: d("1000")}, DefaultPolicy()))
	assertMoney(t, "1700", e.FinalPayable, "final_payable")
	assertMoney(t, "1000", e.LoanRemaining, "loan_remaining")
}

func TestEntry_OverpaymentIsSurfaced(t *testing.T) {
	e := newFixedEntry("2000", "100")

	require.NoError(t, e.Apply(Adjustment{LoanPaid: d("250")}, DefaultPolicy()))
	assertMoney(t, "-150", e.LoanRemaining, "loan_remaining")
	assertMoney(t, "1750", e.FinalPayable, "final_payable")
}

func TestEntry_AdjustmentsAreAdditive(t *testing.T) {
	first := Adjustment{Advance: d("100"), LoanTaken: d("0"), LoanPaid: d("50")}
	second := Adjustment{Advance: d("25.50"), LoanTaken: d("0"), LoanPaid: d("150")}

	stepwise := newFixedEntry("3000", "400")
	require.NoError(t, stepwise.Apply(first, DefaultPolicy()))
	require.NoError(t, stepwise.Apply(second, DefaultPolicy()))

	combined := newFixedEntry("3000", "400")
	require.NoError(t, combined.Apply(first.Add(second), DefaultPolicy()))

	assertMoney(t, combined.Advance.String(), stepwise.Advance, "advance")
	assertMoney(t, combined.LoanPaid.String(), stepwise.LoanPaid, "loan_paid")
	assertMoney(t, combined.LoanRemaining.String(), stepwise.LoanRemaining, "loan_remaining")
	assertMoney(t, combined.FinalPayable.String(), stepwise.FinalPayable, "final_payable")
}

func TestEntry_ClosedRejectsAdjustment(t *testing.T) {
	e := newFixedEntry("2000", "0")
	closedAt := time.Date(2024, 4, 2, 9, 0, 0, 0, time.UTC)
	e.Close(closedAt)
	e.Close(closedAt.Add(time.Hour))

	require.NotNil(t, e.ClosedAt)
	assert.Equal(t, closedAt, *e.ClosedAt)

	err := e.Apply(Adjustment{Advance: d("1")}, DefaultPolicy())
	assert.True(t, errors.Is(err, errors.ErrPeriodClosed))
}

func TestAdjustment_Validate(t *testing.T) {
	assert.NoError(t, Adjustment{Advance: d("10.25")}.Validate())

	err := Adjustment{Advance: d("-1")}.Validate()
	assert.True(t, errors.Is(err, errors.ErrValidation))

	err = Adjustment{LoanPaid: d("0.001")}.Validate()
	assert.True(t, errors.Is(err, errors.ErrValidation))

	e := newFixedEntry("100", "0")
	err = e.Apply(Adjustment{LoanTaken: d("-5")}, DefaultPolicy())
	assert.True(t, errors.Is(err, errors.ErrValidation))
}
