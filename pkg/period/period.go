// Package period models a payroll period: one calendar month of one year.
package period

import (
	"fmt"
	"strconv"
	"time"

	"github.com/workledger/workledger-backend/pkg/errors"
)

// Period is a (month, year) payroll cycle
type Period struct {
	Month int `json:"month"`
	Year  int `json:"year"`
}

// New builds a validated period
func New(month, year int) (Period, error) {
	p := Period{Month: month, Year: year}
	if err := p.Validate(); err != nil {
		return Period{}, err
	}
	return p, nil
}

// Parse reads a period from its textual month and year, as sent in query strings
func Parse(month, year string) (Period, error) {
	details := map[string]string{}
	m, err := strconv.Atoi(month)
	if err != nil {
		details["month"] = "must be a number"
	}
	y, err := strconv.Atoi(year)
	if err != nil {
		details["year"] = "must be a number"
	}
	if len(details) > 0 {
		return Period{}, errors.Validation(details)
	}
	return New(m, y)
}

// Of returns the period containing t, read in t's own location
func Of(t time.Time) Period {
	return Period{Month: int(t.Month()), Year: t.Year()}
}

// Validate rejects months outside 1..12 and implausible years
func (p Period) Validate() error {
	details := map[string]string{}
	if p.Month < 1 || p.Month > 12 {
		details["month"] = "must be between 1 and 12"
	}
	if p.Year < 1900 || p.Year > 9999 {
		details["year"] = "must be between 1900 and 9999"
	}
	if len(details) > 0 {
		return errors.Validation(details)
	}
	return nil
}

// String formats the period as YYYY-MM
func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}

// Next returns the following period
func (p Period) Next() Period {
	if p.Month == 12 {
		return Period{Month: 1, Year: p.Year + 1}
	}
	return Period{Month: p.Month + 1, Year: p.Year}
}

// Start is midnight of the first day of the period in loc
func (p Period) Start(loc *time.Location) time.Time {
	return time.Date(p.Year, time.Month(p.Month), 1, 0, 0, 0, 0, loc)
}

// DateRange returns the first day of the period and the first day of the next one,
// as UTC dates suitable for DATE column comparisons.
func (p Period) DateRange() (from, until time.Time) {
	return p.Start(time.UTC), p.Next().Start(time.UTC)
}

// Contains reports whether the calendar date d falls inside the period
func (p Period) Contains(d time.Time) bool {
	if d.IsZero() {
		return false
	}
	return d.Year() == p.Year && int(d.Month()) == p.Month
}
