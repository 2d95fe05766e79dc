package offer

import "time"

// DateOnly truncates a timestamp to its UTC calendar date. Every status
// derivation in the system must go through this single truncation so the
// read path and the expiry sweep can never disagree.
func DateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Resolve reconciles the persisted status with the calendar. Filled is
// terminal and short-circuits; otherwise an offer whose end date lies
// before today's date is expired even if the sweep has not persisted
// that yet.
func Resolve(persisted Status, endDate, now time.Time) Status {
	if persisted == StatusFilled {
		return StatusFilled
	}
	if DateOnly(endDate).Before(DateOnly(now)) {
		return StatusExpired
	}
	return StatusActive
}

// Urgent reports whether an offer starting at startDate counts as urgent
// when created at now: strictly more than zero and at most 48 hours away.
// The flag is computed once at creation and stored, never re-evaluated.
func Urgent(startDate, now time.Time) bool {
	hours := startDate.Sub(now).Hours()
	return hours > 0 && hours <= 48
}
