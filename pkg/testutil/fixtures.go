package testutil

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EmployeeFixture represents test employee data
type EmployeeFixture struct {
	ID         string
	Name       string
	Role       string
	WageBasis  string
	WageAmount decimal.Decimal
	Active     bool
}

// AttendanceFixture represents one worked day
type AttendanceFixture struct {
	EmployeeID string
	WorkDate   time.Time
	Entry      string
	Exit       string
}

// FixtureFactory creates test fixtures with sensible defaults
type FixtureFactory struct {
	sequence int
}

// NewFixtureFactory creates a new fixture factory
func NewFixtureFactory() *FixtureFactory {
	return &FixtureFactory{sequence: 0}
}

// nextSeq returns the next sequence number for unique values
func (f *FixtureFactory) nextSeq() int {
	f.sequence++
	return f.sequence
}

// Employee creates an hourly worker fixture paid 100 per hour
func (f *FixtureFactory) Employee(opts ...func(*EmployeeFixture)) EmployeeFixture {
	seq := f.nextSeq()

	emp := EmployeeFixture{
		ID:         uuid.New().String(),
		Name:       fmt.Sprintf("Employee %03d", seq),
		Role:       "worker",
		WageBasis:  "hourly",
		WageAmount: decimal.NewFromInt(100),
		Active:     true,
	}

	for _, opt := range opts {
		opt(&emp)
	}

	return emp
}

// WithEmployeeName sets the employee's display name
func WithEmployeeName(name string) func(*EmployeeFixture) {
	return func(e *EmployeeFixture) {
		e.Name = name
	}
}

// WithFixedSalary makes the employee a salaried manager
func WithFixedSalary(amount string) func(*EmployeeFixture) {
	return func(e *EmployeeFixture) {
		e.Role = "manager"
		e.WageBasis = "fixed"
		e.WageAmount = decimal.RequireFromString(amount)
	}
}

// WithHourlyRate sets an hourly wage
func WithHourlyRate(rate string) func(*EmployeeFixture) {
	return func(e *EmployeeFixture) {
		e.WageBasis = "hourly"
		e.WageAmount = decimal.RequireFromString(rate)
	}
}

// Inactive marks the employee as no longer active
func Inactive() func(*EmployeeFixture) {
	return func(e *EmployeeFixture) {
		e.Active = false
	}
}

// Attendance creates a worked-day fixture with an 8 hour shift
func (f *FixtureFactory) Attendance(employeeID string, day time.Time, opts ...func(*AttendanceFixture)) AttendanceFixture {
	a := AttendanceFixture{
		EmployeeID: employeeID,
		WorkDate:   day,
		Entry:      "09:00",
		Exit:       "17:00",
	}
	for _, opt := range opts {
		opt(&a)
	}
	return a
}

// WithShift sets entry and exit times as HH:MM
func WithShift(entry, exit string) func(*AttendanceFixture) {
	return func(a *AttendanceFixture) {
		a.Entry = entry
		a.Exit = exit
	}
}

// Date returns midnight UTC of the given day
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
