package timeutil

import (
	"time"
)

// EAT is East Africa Time (UTC+3), the cooperative's local zone.
// Timestamps are stored in UTC; EAT is only used to bucket collections
// and approvals into calendar days.
var EAT *time.Location

func init() {
	var err error
	EAT, err = time.LoadLocation("Africa/Nairobi")
	if err != nil {
		EAT = time.FixedZone("EAT", 3*60*60)
	}
}

// Now returns the current time in UTC. All persisted timestamps go through
// this so they sort unambiguously.
func Now() time.Time {
	return time.Now().UTC()
}

// DateOf returns the EAT calendar date for a timestamp, as midnight UTC of
// that day. This is the canonical form for every value bound to a DATE
// column and for summary cache keys: pgx encodes a DATE parameter from the
// value's UTC calendar day, so the day must sit in the UTC fields. An
// EAT-midnight instant (21:00 the previous UTC day) would bind as the wrong
// day. DateOf is idempotent and also maps scanned DATE values to themselves.
func DateOf(t time.Time) time.Time {
	local := t.In(EAT)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}

// Common layouts
const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04:05"
)
