package domain

import "time"

// DateLayout is the wire and log format for calendar dates.
const DateLayout = "2006-01-02"

// DateOf truncates t to the UTC calendar date it falls on.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Tomorrow is the earliest date a delivery may be scheduled for.
func Tomorrow(now time.Time) time.Time {
	return DateOf(now).AddDate(0, 0, 1)
}

// IsWeekend reports whether date falls on Saturday or Sunday.
func IsWeekend(date time.Time) bool {
	switch DateOf(date).Weekday() {
	case time.Saturday, time.Sunday:
		return true
	default:
		return false
	}
}

// ValidateDeliveryDate rejects dates before tomorrow and weekend dates.
func ValidateDeliveryDate(date, now time.Time) error {
	if DateOf(date).Before(Tomorrow(now)) {
		return ErrDeliveryDateTooEarly
	}
	if IsWeekend(date) {
		return ErrDeliveryOnWeekend
	}
	return nil
}

// SameDate compares two instants by calendar date.
func SameDate(a, b time.Time) bool {
	return DateOf(a).Equal(DateOf(b))
}

// FormatDate renders a date as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return DateOf(t).Format(DateLayout)
}
