// Package domain holds the employee directory model shared by attendance and ledger.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/workledger/workledger-backend/pkg/errors"
)

// Role distinguishes workers from managers. Both are paid through the same ledger.
type Role string

const (
	RoleWorker  Role = "worker"
	RoleManager Role = "manager"
)

// WageKind is the pay basis of an employee
type WageKind string

const (
	WageHourly WageKind = "hourly"
	WageFixed  WageKind = "fixed"
)

// WageBasis is either an hourly rate or a fixed monthly salary
type WageBasis struct {
	Kind   WageKind        `json:"kind"`
	Amount decimal.Decimal `json:"amount"`
}

// Hourly returns an hourly wage basis
func Hourly(rate decimal.Decimal) WageBasis {
	return WageBasis{Kind: WageHourly, Amount: rate}
}

// Fixed returns a fixed monthly salary basis
func Fixed(amount decimal.Decimal) WageBasis {
	return WageBasis{Kind: WageFixed, Amount: amount}
}

// IsHourly reports whether pay is derived from attendance
func (w WageBasis) IsHourly() bool {
	return w.Kind == WageHourly
}

// HourlyRate is the rate copied onto attendance records. Salaried employees earn
// nothing per attendance day.
func (w WageBasis) HourlyRate() decimal.Decimal {
	if w.IsHourly() {
		return w.Amount
	}
	return decimal.Zero
}

// Validate checks the basis kind and that the amount is not negative
func (w WageBasis) Validate() error {
	details := map[string]string{}
	if w.Kind != WageHourly && w.Kind != WageFixed {
		details["wage_basis"] = "must be hourly or fixed"
	}
	if w.Amount.IsNegative() {
		details["wage_amount"] = "must not be negative"
	}
	if len(details) > 0 {
		return errors.Validation(details)
	}
	return nil
}

// Employee is a worker or manager of a tenant
type Employee struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	Wage      WageBasis `json:"wage"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks an employee received from the directory
func (e *Employee) Validate() error {
	details := map[string]string{}
	if e.ID == "" {
		details["employee_id"] = "is required"
	}
	if e.TenantID == "" {
		details["tenant_id"] = "is required"
	}
	if e.Role != RoleWorker && e.Role != RoleManager {
		details["role"] = "must be worker or manager"
	}
	if len(details) > 0 {
		return errors.Validation(details)
	}
	return e.Wage.Validate()
}

// Tenant is a company registered with the ledger service
type Tenant struct {
	ID       string `db:"id" json:"id"`
	Name     string `db:"name" json:"name"`
	Slug     string `db:"slug" json:"slug"`
	Timezone string `db:"timezone" json:"timezone"`
	Active   bool   `db:"is_active" json:"active"`
}

// Location resolves the tenant timezone, falling back when it is empty or unknown
func (t *Tenant) Location(fallback *time.Location) *time.Location {
	if t.Timezone == "" {
		return fallback
	}
	loc, err := time.LoadLocation(t.Timezone)
	if err != nil {
		return fallback
	}
	return loc
}
