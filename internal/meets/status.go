// Package meets holds the pure meet logic: lifecycle classification and the
// CSV ingest parser.
package meets

import (
	"time"

	"watch-me-run-api/internal/model"
)

// Status classifies a meet date against now:
//
//	past:     more than 6 days before now
//	upcoming: more than 3 days after now
//	current:  everything between, both boundaries included
//
// The window is calendar-day arithmetic (AddDate), not fixed 24h multiples,
// so it absorbs DST transitions. Note the asymmetry: a meet exactly 6 days
// ago is past (strict <), a meet exactly 3 days ahead is current.
func Status(date, now time.Time) model.MeetStatus {
	lower := now.AddDate(0, 0, -6)
	upper := now.AddDate(0, 0, 3)

	switch {
	case date.Before(lower):
		return model.StatusPast
	case date.After(upper):
		return model.StatusUpcoming
	default:
		return model.StatusCurrent
	}
}

// StatusNow classifies against the wall clock.
func StatusNow(date time.Time) model.MeetStatus {
	return Status(date, time.Now())
}
