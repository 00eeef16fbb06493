package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ClockTime is a time of day with minute precision
type ClockTime struct {
	minutes int
}

// NewClockTime builds a clock time from hours and minutes
func NewClockTime(hour, minute int) (ClockTime, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return ClockTime{}, fmt.Errorf("invalid clock time %02d:%02d", hour, minute)
	}
	return ClockTime{minutes: hour*60 + minute}, nil
}

// ParseClock parses HH:MM, or HH:MM:SS as stored by PostgreSQL TIME columns.
// Seconds are truncated.
func ParseClock(s string) (ClockTime, error) {
	s = strings.TrimSpace(s)
	layouts := []string{"15:04", "15:04:05", "15:04:05.999999"}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return ClockTime{minutes: t.Hour()*60 + t.Minute()}, nil
		}
	}
	return ClockTime{}, fmt.Errorf("invalid clock time %q, expected HH:MM", s)
}

// MustClock parses s and panics on error. Intended for tests and constants.
func MustClock(s string) ClockTime {
	c, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Minutes returns minutes since midnight
func (c ClockTime) Minutes() int {
	return c.minutes
}

// Before reports whether c is earlier in the day than o
func (c ClockTime) Before(o ClockTime) bool {
	return c.minutes < o.minutes
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.minutes/60, c.minutes%60)
}

// MarshalJSON encodes the clock time as "HH:MM"
func (c ClockTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON decodes "HH:MM"
func (c *ClockTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseClock(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Scan implements sql.Scanner for TIME columns
func (c *ClockTime) Scan(src interface{}) error {
	var s string
	switch v := src.(type) {
	case []byte:
		s = string(v)
	case string:
		s = v
	case time.Time:
		*c = ClockTime{minutes: v.Hour()*60 + v.Minute()}
		return nil
	default:
		return fmt.Errorf("cannot scan %T into ClockTime", src)
	}
	parsed, err := ParseClock(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Value implements driver.Valuer
func (c ClockTime) Value() (driver.Value, error) {
	return c.String() + ":00", nil
}
