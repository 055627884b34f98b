package forecast

import (
	"fmt"
	"math"
	"time"
)

// WIB is the fixed UTC+7 zone all timestamps are reported in.
var WIB = time.FixedZone("WIB", 7*3600)

// HourlyRecord is one forecast hour for one location. Records are created
// fresh each pass and never mutated after classification. A field that the
// upstream did not supply is NaN, not zero, so the classifier can distinguish
// "calm" from "missing".
type HourlyRecord struct {
	Time          time.Time
	TempC         float64
	HumidityPct   float64
	PrecipProbPct float64
	PrecipMM      float64
	Acc3MM        float64 // rain accumulated over this hour and the next two
	Acc6MM        float64 // rain accumulated over this hour and the next five
	WindKmh       float64
	WindDirDeg    float64
	GustKmh       float64
	UVIndex       float64
	WeatherCode   int

	// DevMM is the population standard deviation of the hour's own 3h
	// precipitation window; zero when fewer than two values are known.
	DevMM float64
	// DevEnsMM is the spread of 3h accumulated rain across ensemble
	// members. NaN until an ensemble fetch fills it in.
	DevEnsMM float64
}

// HasRequiredFields reports whether the fields the classifier depends on are
// all present.
func (r HourlyRecord) HasRequiredFields() bool {
	return !math.IsNaN(r.PrecipProbPct) && !math.IsNaN(r.PrecipMM) && !math.IsNaN(r.WindKmh)
}

// FetchError wraps a failure to retrieve or decode upstream forecast data.
type FetchError struct {
	Source string
	Loc    string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s fetch for %s: %v", e.Source, e.Loc, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
