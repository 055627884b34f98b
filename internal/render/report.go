package render

import (
	"time"

	"radar-cuaca/internal/forecast"
	"radar-cuaca/internal/geo"
	"radar-cuaca/internal/narrative"
	"radar-cuaca/internal/nowcast"
	"radar-cuaca/internal/summary"
)

// LocationReport is everything rendered for one location in one pass. Err is
// set when the location could not be classified at all; such locations get an
// explicit error line and nothing else.
type LocationReport struct {
	Location  geo.Location
	Err       error
	Records   []forecast.HourlyRecord
	Hours     []summary.Hour
	Warning   *nowcast.Warning
	Summaries []summary.WindowSummary
}

// Report is the full output of one pass across all locations, in input order.
type Report struct {
	RunID       string
	GeneratedAt time.Time
	Locations   []LocationReport
	Narrative   narrative.Result
}

// ClassifiedCount returns how many locations produced at least one classified
// hour. Zero means the pass failed outright.
func (r Report) ClassifiedCount() int {
	n := 0
	for _, lr := range r.Locations {
		if lr.Err == nil && len(lr.Hours) > 0 {
			n++
		}
	}
	return n
}
