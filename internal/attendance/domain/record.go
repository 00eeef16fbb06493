// Package domain holds attendance records and the period aggregation over them.
package domain

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/workledger/workledger-backend/pkg/errors"
	"github.com/workledger/workledger-backend/pkg/period"
)

var sixty = decimal.NewFromInt(60)

// Record is one worked day of one employee
type Record struct {
	ID          string          `json:"id"`
	TenantID    string          `json:"tenant_id"`
	EmployeeID  string          `json:"employee_id"`
	WorkDate    time.Time       `json:"work_date"`
	EntryTime   ClockTime       `json:"entry_time"`
	ExitTime    ClockTime       `json:"exit_time"`
	HoursWorked decimal.Decimal `json:"hours_worked"`
	WageRate    decimal.Decimal `json:"wage_rate"`
	WageEarned  decimal.Decimal `json:"wage_earned"`
	CreatedBy   string          `json:"created_by,omitempty"`
	UpdatedBy   string          `json:"updated_by,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Period returns the payroll period the record belongs to
func (r *Record) Period() period.Period {
	return period.Of(r.WorkDate)
}

// SetShift sets entry and exit and derives hours and wage from the stored rate.
// An exit before the entry is rejected; equal times count as zero hours.
func (r *Record) SetShift(entry, exit ClockTime) error {
	hours, wage, err := ComputeWage(entry, exit, r.WageRate)
	if err != nil {
		return err
	}
	r.EntryTime = entry
	r.ExitTime = exit
	r.HoursWorked = hours
	r.WageEarned = wage
	return nil
}

// ComputeWage derives hours worked (two decimals) and the wage for those hours
func ComputeWage(entry, exit ClockTime, rate decimal.Decimal) (hours, wage decimal.Decimal, err error) {
	if exit.Before(entry) {
		return decimal.Zero, decimal.Zero, errors.Validation(map[string]string{
			"exit_time": "must not be before entry_time",
		})
	}
	minutes := decimal.NewFromInt(int64(exit.Minutes() - entry.Minutes()))
	hours = minutes.Div(sixty).Round(2)
	wage = hours.Mul(rate).Round(2)
	return hours, wage, nil
}

// DateOnly truncates t to its calendar date in UTC, the form stored in DATE columns
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Summary is the attendance total of one employee for one period
type Summary struct {
	EmployeeID       string          `json:"employee_id"`
	TotalHoursWorked decimal.Decimal `json:"total_hours"`
	TotalWageEarned  decimal.Decimal `json:"total_wage_earned"`
	DaysWorked       int             `json:"days_worked"`
}

// Summarize totals the records of one employee inside the period. Records of other
// employees or tenants, and records dated outside the period, are skipped.
// No matching records yields a zero summary.
func Summarize(tenantID, employeeID string, p period.Period, records []*Record) Summary {
	s := Summary{
		EmployeeID:       employeeID,
		TotalHoursWorked: decimal.Zero,
		TotalWageEarned:  decimal.Zero,
	}
	days := make(map[time.Time]struct{})

	for _, r := range records {
		if r == nil || r.TenantID != tenantID || r.EmployeeID != employeeID || !p.Contains(r.WorkDate) {
			continue
		}
		s.TotalHoursWorked = s.TotalHoursWorked.Add(r.HoursWorked)
		s.TotalWageEarned = s.TotalWageEarned.Add(r.WageEarned)
		days[DateOnly(r.WorkDate)] = struct{}{}
	}

	s.DaysWorked = len(days)
	return s
}

// EmployeeSummary is one row of the monthly summary
type EmployeeSummary struct {
	Summary
	Name string `json:"name"`
}

// BuildMonthlySummary totals every employee that has records in the period and orders
// the rows by name, then by employee ID. names maps employee IDs to display names.
func BuildMonthlySummary(tenantID string, p period.Period, records []*Record, names map[string]string) []EmployeeSummary {
	byEmployee := make(map[string][]*Record)
	for _, r := range records {
		if r == nil || r.TenantID != tenantID || !p.Contains(r.WorkDate) {
			continue
		}
		byEmployee[r.EmployeeID] = append(byEmployee[r.EmployeeID], r)
	}

	out := make([]EmployeeSummary, 0, len(byEmployee))
	for employeeID, recs := range byEmployee {
		out = append(out, EmployeeSummary{
			Summary: Summarize(tenantID, employeeID, p, recs),
			Name:    names[employeeID],
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].EmployeeID < out[j].EmployeeID
	})
	return out
}
