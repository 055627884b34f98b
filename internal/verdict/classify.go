package verdict

import (
	"errors"
	"fmt"
	"regexp"

	"radar-cuaca/internal/forecast"
	"radar-cuaca/internal/nowcast"
)

// ErrMissingField marks an hourly record that lacks a numeric field the
// classifier requires. The hour is rendered as "insufficient data"; it never
// silently defaults to a verdict.
var ErrMissingField = errors.New("hourly record missing required field")

// Thresholds groups every calibration constant the classifier uses. Tuning a
// threshold must never require touching classification control flow.
type Thresholds struct {
	// Real rain: precipitation amount per hour (mm).
	RiskyRainMM   float64
	CautionRainMM float64
	MinRealRainMM float64

	// Precipitation probability bands (percent).
	RiskyProbPct      float64
	CautionProbLowPct float64

	// Sustained wind and gusts (km/h).
	WindCautionKmh float64
	WindRiskyKmh   float64
	GustCautionKmh float64
	GustRiskyKmh   float64

	// Accumulated rain over the 3h/6h windows (mm).
	Acc3CautionMM float64
	Acc6CautionMM float64

	// Rain deviation bands (mm, standard deviation): disagreement between
	// the hour's own 3h window values or between ensemble members.
	DevWarnMM   float64
	DevDangerMM float64
}

// DefaultThresholds returns the calibration in production use for Jabodetabek.
func DefaultThresholds() Thresholds {
	return Thresholds{
		RiskyRainMM:       6.0,
		CautionRainMM:     2.0,
		MinRealRainMM:     0.3,
		RiskyProbPct:      70,
		CautionProbLowPct: 30,
		WindCautionKmh:    15,
		WindRiskyKmh:      25,
		GustCautionKmh:    30,
		GustRiskyKmh:      45,
		Acc3CautionMM:     15,
		Acc6CautionMM:     30,
		DevWarnMM:         0.7,
		DevDangerMM:       1.0,
	}
}

// severeWarningRe matches nowcast warning text that describes hazardous
// convective conditions.
var severeWarningRe = regexp.MustCompile(`(?i)hujan sangat|hujan lebat|kilat|petir|badai|angin kencang|thunder|lightning|squall`)

// severeWeatherCode reports whether an Open-Meteo weather code flags
// thunderstorm activity (95 = thunderstorm, 96/99 = thunderstorm with hail).
func severeWeatherCode(code int) bool {
	return code == 95 || code == 96 || code == 99
}

// Classify maps one hour's numeric fields, plus an optional active nowcast
// warning for the same location, to exactly one verdict and the reason
// driving it. It is a pure function: no clock, no network, no state.
func Classify(rec forecast.HourlyRecord, warning *nowcast.Warning, th Thresholds) (Result, error) {
	// Local hazard data overrides the statistical forecast outright.
	if warning != nil {
		if sum := warning.Summary(); severeWarningRe.MatchString(sum) {
			return Result{Verdict: Risky, Reason: sum}, nil
		}
	}

	if !rec.HasRequiredFields() {
		return Result{}, fmt.Errorf("%w at %s", ErrMissingField, rec.Time.Format("2006-01-02 15:04"))
	}

	switch {
	case severeWeatherCode(rec.WeatherCode):
		return Result{Verdict: Risky, Reason: "kode cuaca badai petir"}, nil
	case rec.PrecipMM >= th.RiskyRainMM:
		return Result{Verdict: Risky, Reason: fmt.Sprintf("hujan %.1f mm/jam", rec.PrecipMM)}, nil
	case rec.PrecipProbPct >= th.RiskyProbPct && rec.PrecipMM >= th.MinRealRainMM:
		return Result{Verdict: Risky, Reason: fmt.Sprintf("peluang hujan %.0f%% dengan hujan nyata", rec.PrecipProbPct)}, nil
	case rec.WindKmh >= th.WindRiskyKmh:
		return Result{Verdict: Risky, Reason: fmt.Sprintf("angin %.0f km/j", rec.WindKmh)}, nil
	case rec.GustKmh >= th.GustRiskyKmh:
		return Result{Verdict: Risky, Reason: fmt.Sprintf("gust %.0f km/j", rec.GustKmh)}, nil
	}

	switch {
	case rec.PrecipMM >= th.CautionRainMM:
		return Result{Verdict: Caution, Reason: fmt.Sprintf("hujan %.1f mm/jam", rec.PrecipMM)}, nil
	case rec.PrecipProbPct >= th.CautionProbLowPct:
		return Result{Verdict: Caution, Reason: fmt.Sprintf("peluang hujan %.0f%%", rec.PrecipProbPct)}, nil
	case rec.Acc3MM >= th.Acc3CautionMM || rec.Acc6MM >= th.Acc6CautionMM:
		return Result{Verdict: Caution, Reason: "akumulasi hujan tinggi"}, nil
	case rec.WindKmh >= th.WindCautionKmh:
		return Result{Verdict: Caution, Reason: fmt.Sprintf("angin %.0f km/j", rec.WindKmh)}, nil
	case rec.GustKmh >= th.GustCautionKmh:
		return Result{Verdict: Caution, Reason: fmt.Sprintf("gust %.0f km/j", rec.GustKmh)}, nil
	}

	return Result{Verdict: Safe, Reason: "tidak ada pemicu"}, nil
}
