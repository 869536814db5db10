package license

import (
	"time"

	"go-pos-gst/internal/apperr"
)

// Expiry turns a renewal request into the license's valid_until. lastDay
// (YYYY-MM-DD) wins over months; either way the license holds through the
// end of its last UTC day.
func Expiry(lastDay string, months int, now time.Time) (time.Time, error) {
	var day time.Time
	switch {
	case lastDay != "":
		d, err := time.ParseInLocation(time.DateOnly, lastDay, time.UTC)
		if err != nil {
			return time.Time{}, apperr.New(apperr.InvalidInput, "validUntil must be YYYY-MM-DD")
		}
		day = d
	case months > 0:
		now = now.UTC()
		day = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, months, 0)
	default:
		return time.Time{}, apperr.New(apperr.InvalidInput, "validUntil or months is required")
	}
	return day.AddDate(0, 0, 1).Add(-time.Second), nil
}
