package ledger

import "time"

// Clock abstracts wall-clock reads so the end-of-day eligibility cutoff is
// testable. There is no background job re-evaluating eligibility as time
// passes; a future-dated transaction is only re-checked on the next mutation
// that touches it.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock reads the process wall clock.
func SystemClock() Clock { return systemClock{} }

// FixedClock always returns t. Intended for tests.
type FixedClock struct{ T time.Time }

func (c FixedClock) Now() time.Time { return c.T }

// endOfDay returns the last instant of now's calendar day in now's location.
func endOfDay(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 59, int(999*time.Millisecond), now.Location())
}

// parseDate accepts the ISO forms the clients write: a bare calendar date or
// a full RFC 3339 timestamp.
func parseDate(s string, loc *time.Location) (time.Time, bool) {
	if t, err := time.ParseInLocation("2006-01-02", s, loc); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	return time.Time{}, false
}
