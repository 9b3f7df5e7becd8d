package md

import (
	"time"

	"smacross/internal/errs"
)

const DateLayout = "2006-01-02"

func ValidDate(value string) bool {
	_, err := ParseDate(value)
	return err == nil
}

// ParseDate accepts only the strict YYYY-MM-DD form.
func ParseDate(value string) (time.Time, error) {
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, errs.Wrapf(errs.InvalidParameter, err, "invalid date %q, use YYYY-MM-DD", value)
	}
	if t.Format(DateLayout) != value {
		return time.Time{}, errs.Newf(errs.InvalidParameter, "invalid date %q, use YYYY-MM-DD", value)
	}
	return t, nil
}

// endOfDay returns the last nanosecond of the calendar day of t.
func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location()).AddDate(0, 0, 1).Add(-time.Nanosecond)
}
