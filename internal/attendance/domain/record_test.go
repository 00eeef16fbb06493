package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/workledger/workledger-backend/pkg/errors"
	"github.com/workledger/workledger-backend/pkg/period"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(m time.Month, d int) time.Time {
	return time.Date(2024, m, d, 0, 0, 0, 0, time.UTC)
}

var april = period.Period{Month: 4, Year: 2024}

func TestParseClock(t *testing.T) {
	c, err := ParseClock("09:30")
	require.NoError(t, err)
	assert.Equal(t, 570, c.Minutes())
	assert.Equal(t, "09:30", c.String())

	c, err = ParseClock("17:05:59")
	require.NoError(t, err)
	assert.Equal(t, "17:05", c.String())

	_, err = ParseClock("25:00")
	assert.Error(t, err)
	_, err = ParseClock("nine")
	assert.Error(t, err)
}

func TestClockTime_JSONAndSQL(t *testing.T) {
	var c ClockTime
	require.NoError(t, json.Unmarshal([]byte(`"08:15"`), &c))
	assert.Equal(t, "08:15", c.String())

	out, err := json.Marshal(c)
	require.NoError(t, err)
	assert.JSONEq(t, `"08:15"`, string(out))

	var scanned ClockTime
	require.NoError(t, scanned.Scan([]byte("08:15:00")))
	assert.Equal(t, c, scanned)

	v, err := c.Value()
	require.NoError(t, err)
	assert.Equal(t, "08:15:00", v)

	assert.Error(t, scanned.Scan(42))
}

func TestComputeWage(t *testing.T) {
	hours, wage, err := ComputeWage(MustClock("09:00"), MustClock("17:30"), dec("20"))
	require.NoError(t, err)
	assert.True(t, hours.Equal(dec("8.5")))
	assert.True(t, wage.Equal(dec("170")))

	// 20 minutes is 0.33 hours
	hours, wage, err = ComputeWage(MustClock("10:00"), MustClock("10:20"), dec("30"))
	require.NoError(t, err)
	assert.True(t, hours.Equal(dec("0.33")))
	assert.True(t, wage.Equal(dec("9.9")))

	hours, wage, err = ComputeWage(MustClock("12:00"), MustClock("12:00"), dec("30"))
	require.NoError(t, err)
	assert.True(t, hours.IsZero())
	assert.True(t, wage.IsZero())

	_, _, err = ComputeWage(MustClock("18:00"), MustClock("09:00"), dec("30"))
	assert.True(t, errors.Is(err, errors.ErrValidation))
}

func TestRecord_SetShiftUsesStoredRate(t *testing.T) {
	r := &Record{WageRate: dec("12.5")}
	require.NoError(t, r.SetShift(MustClock("08:00"), MustClock("12:00")))
	assert.True(t, r.HoursWorked.Equal(dec("4")))
	assert.True(t, r.WageEarned.Equal(dec("50")))

	err := r.SetShift(MustClock("12:00"), MustClock("08:00"))
	require.Error(t, err)
	assert.True(t, r.HoursWorked.Equal(dec("4")), "rejected shift must not change the record")
}

func TestSummarize(t *testing.T) {
	records := []*Record{
		{TenantID: "t1", EmployeeID: "e1", WorkDate: day(4, 1), HoursWorked: dec("8"), WageEarned: dec("100")},
		{TenantID: "t1", EmployeeID: "e1", WorkDate: day(4, 2), HoursWorked: dec("6"), WageEarned: dec("150")},
		{TenantID: "t1", EmployeeID: "e1", WorkDate: day(4, 30), HoursWorked: dec("7.5"), WageEarned: dec("200")},
		{TenantID: "t1", EmployeeID: "e1", WorkDate: day(5, 1), HoursWorked: dec("8"), WageEarned: dec("999")},
		{TenantID: "t2", EmployeeID: "e1", WorkDate: day(4, 3), HoursWorked: dec("8"), WageEarned: dec("999")},
		{TenantID: "t1", EmployeeID: "e2", WorkDate: day(4, 3), HoursWorked: dec("8"), WageEarned: dec("999")},
		{TenantID: "t1", EmployeeID: "e1", HoursWorked: dec("8"), WageEarned: dec("999")},
		nil,
	}

	s := Summarize("t1", "e1", april, records)
	assert.Equal(t, "e1", s.EmployeeID)
	assert.True(t, s.TotalWageEarned.Equal(dec("450")), s.TotalWageEarned.String())
	assert.True(t, s.TotalHoursWorked.Equal(dec("21.5")))
	assert.Equal(t, 3, s.DaysWorked)
}

func TestSummarize_NoRecords(t *testing.T) {
	s := Summarize("t1", "e1", april, nil)
	assert.True(t, s.TotalWageEarned.IsZero())
	assert.True(t, s.TotalHoursWorked.IsZero())
	assert.Zero(t, s.DaysWorked)
}

func TestBuildMonthlySummary_SortedByName(t *testing.T) {
	records := []*Record{
		{TenantID: "t1", EmployeeID: "e-zoe", WorkDate: day(4, 1), HoursWorked: dec("8"), WageEarned: dec("80")},
		{TenantID: "t1", EmployeeID: "e-al-2", WorkDate: day(4, 1), HoursWorked: dec("4"), WageEarned: dec("40")},
		{TenantID: "t1", EmployeeID: "e-al-1", WorkDate: day(4, 2), HoursWorked: dec("2"), WageEarned: dec("20")},
		{TenantID: "t1", EmployeeID: "e-al-1", WorkDate: day(4, 3), HoursWorked: dec("2"), WageEarned: dec("20")},
		{TenantID: "t1", EmployeeID: "e-out", WorkDate: day(3, 31), HoursWorked: dec("8"), WageEarned: dec("80")},
	}
	names := map[string]string{"e-zoe": "Zoe", "e-al-1": "Al", "e-al-2": "Al", "e-out": "Out"}

	rows := BuildMonthlySummary("t1", april, records, names)
	require.Len(t, rows, 3)
	assert.Equal(t, "e-al-1", rows[0].EmployeeID)
	assert.Equal(t, 2, rows[0].DaysWorked)
	assert.True(t, rows[0].TotalWageEarned.Equal(dec("40")))
	assert.Equal(t, "e-al-2", rows[1].EmployeeID)
	assert.Equal(t, "Zoe", rows[2].Name)
}
