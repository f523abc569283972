package postgres

import (
	"time"
)

var timeZero time.Time

// nullableTime maps the zero time to NULL so "never logged in" survives the
// round trip.
func nullableTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}
