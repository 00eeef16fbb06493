// Package domain contains the ledger arithmetic: entry creation with loan
// carry-forward, additive adjustments and period closing.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
	staff "github.com/workledger/workledger-backend/internal/staff/domain"
	"github.com/workledger/workledger-backend/pkg/errors"
	"github.com/workledger/workledger-backend/pkg/period"
)

// Policy holds the configurable ledger business rules
type Policy struct {
	// EnforceLoanGate rejects a new loan while the entry still carries a positive balance.
	EnforceLoanGate bool
	// CarryOverpaymentCredit carries a negative remaining balance into the next period
	// instead of dropping it to zero.
	CarryOverpaymentCredit bool
}

// DefaultPolicy gates new loans and drops overpayment credit
func DefaultPolicy() Policy {
	return Policy{EnforceLoanGate: true}
}

// Entry is the payroll and loan record of one employee for one period
type Entry struct {
	ID           string         `json:"id"`
	TenantID     string         `json:"tenant_id"`
	EmployeeID   string         `json:"employee_id"`
	EmployeeName string         `json:"employee_name,omitempty"`
	Period       period.Period  `json:"period"`
	WageBasis    staff.WageKind `json:"wage_basis"`

	BasePay        decimal.Decimal `json:"base_pay"`
	Advance        decimal.Decimal `json:"advance"`
	LoanTaken      decimal.Decimal `json:"loan_taken"`
	LoanPaid       decimal.Decimal `json:"loan_paid"`
	PriorRemaining decimal.Decimal `json:"prior_remaining"`
	LoanRemaining  decimal.Decimal `json:"loan_remaining"`
	FinalPayable   decimal.Decimal `json:"final_payable"`

	// Snapshot of the attendance aggregate, hourly employees only
	TotalHoursWorked *decimal.Decimal `json:"total_hours_worked,omitempty"`
	DaysWorked       *int             `json:"days_worked,omitempty"`

	ClosedAt  *time.Time `json:"closed_at,omitempty"`
	CreatedBy string     `json:"created_by,omitempty"`
	UpdatedBy string     `json:"updated_by,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// PayBasis is the resolved base pay of a new entry
type PayBasis struct {
	Kind       staff.WageKind
	BasePay    decimal.Decimal
	TotalHours *decimal.Decimal
	DaysWorked *int
}

// FixedPay is the pay basis of a salaried employee
func FixedPay(salary decimal.Decimal) PayBasis {
	return PayBasis{Kind: staff.WageFixed, BasePay: salary}
}

// HourlyPay is the pay basis of an hourly employee from the period's attendance totals
func HourlyPay(totalWage, totalHours decimal.Decimal, days int) PayBasis {
	return PayBasis{Kind: staff.WageHourly, BasePay: totalWage, TotalHours: &totalHours, DaysWorked: &days}
}

// CarryForward returns the balance a new entry inherits from the most recent earlier
// entry. No earlier entry means nothing is owed.
func CarryForward(prior *Entry, policy Policy) decimal.Decimal {
	if prior == nil {
		return decimal.Zero
	}
	if policy.CarryOverpaymentCredit || prior.LoanRemaining.IsPositive() {
		return prior.LoanRemaining
	}
	return decimal.Zero
}

// NewEntry initializes the entry of a period. The carried balance is stored as
// PriorRemaining; LoanTaken only counts loans issued in this period.
func NewEntry(id, tenantID, employeeID string, p period.Period, basis PayBasis, priorRemaining decimal.Decimal, actorID string) *Entry {
	e := &Entry{
		ID:               id,
		TenantID:         tenantID,
		EmployeeID:       employeeID,
		Period:           p,
		WageBasis:        basis.Kind,
		BasePay:          basis.BasePay.Round(2),
		Advance:          decimal.Zero,
		LoanTaken:        decimal.Zero,
		LoanPaid:         decimal.Zero,
		PriorRemaining:   priorRemaining,
		TotalHoursWorked: basis.TotalHours,
		DaysWorked:       basis.DaysWorked,
		CreatedBy:        actorID,
		UpdatedBy:        actorID,
	}
	e.recompute()
	return e
}

// IsClosed reports whether the period has been finalized
func (e *Entry) IsClosed() bool {
	return e.ClosedAt != nil
}

// Apply adds the adjustment to the cumulative fields and recomputes the derived ones.
// The entry is left untouched when the adjustment is rejected.
func (e *Entry) Apply(adj Adjustment, policy Policy) error {
	if err := adj.Validate(); err != nil {
		return err
	}
	if e.IsClosed() {
		return errors.PeriodClosed()
	}
	if policy.EnforceLoanGate && adj.LoanTaken.IsPositive() && e.LoanRemaining.IsPositive() {
		return errors.OutstandingLoan(e.LoanRemaining.StringFixed(2))
	}

	e.Advance = e.Advance.Add(adj.Advance)
	e.LoanTaken = e.LoanTaken.Add(adj.LoanTaken)
	e.LoanPaid = e.LoanPaid.Add(adj.LoanPaid)
	e.recompute()
	return nil
}

// Close finalizes the period. Closing twice keeps the first timestamp.
func (e *Entry) Close(at time.Time) {
	if e.IsClosed() {
		return
	}
	at = at.UTC()
	e.ClosedAt = &at
}

// Consistent reports whether both derived fields match the cumulative ones
func (e *Entry) Consistent() bool {
	remaining := e.PriorRemaining.Add(e.LoanTaken).Sub(e.LoanPaid)
	payable := e.BasePay.Sub(e.Advance).Sub(e.LoanPaid)
	return e.LoanRemaining.Equal(remaining) && e.FinalPayable.Equal(payable)
}

// loanRemaining may go negative on overpayment; it is reported, not clamped.
func (e *Entry) recompute() {
	e.LoanRemaining = e.PriorRemaining.Add(e.LoanTaken).Sub(e.LoanPaid)
	e.FinalPayable = e.BasePay.Sub(e.Advance).Sub(e.LoanPaid)
}

// Adjustment is a set of non-negative increments to an entry's cumulative fields
type Adjustment struct {
	Advance   decimal.Decimal `json:"advance"`
	LoanTaken decimal.Decimal `json:"loan_taken"`
	LoanPaid  decimal.Decimal `json:"loan_paid"`
}

// Validate rejects negative deltas and sub-cent precision
func (a Adjustment) Validate() error {
	details := map[string]string{}
	check := func(field string, d decimal.Decimal) {
		switch {
		case d.IsNegative():
			details[field] = "must not be negative"
		case !d.Equal(d.Round(2)):
			details[field] = "must have at most 2 decimal places"
		}
	}
	check("advance", a.Advance)
	check("loan_taken", a.LoanTaken)
	check("loan_paid", a.LoanPaid)

	if len(details) > 0 {
		return errors.Validation(details)
	}
	return nil
}

// Add combines two adjustments
func (a Adjustment) Add(b Adjustment) Adjustment {
	return Adjustment{
		Advance:   a.Advance.Add(b.Advance),
		LoanTaken: a.LoanTaken.Add(b.LoanTaken),
		LoanPaid:  a.LoanPaid.Add(b.LoanPaid),
	}
}
