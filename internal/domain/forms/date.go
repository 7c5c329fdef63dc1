package forms

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

const DayLayout = "2006-01-02"

// Day truncates t to midnight UTC so equality and range filters on record
// dates are independent of the caller's clock.
func Day(t time.Time) datatypes.Date {
	y, m, d := t.Date()
	return datatypes.Date(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}

// ParseDay accepts YYYY-MM-DD and RFC3339 timestamps.
func ParseDay(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DayLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return time.Time(Day(t)), nil
}

func FormatDay(d datatypes.Date) string {
	return time.Time(d).UTC().Format(DayLayout)
}
