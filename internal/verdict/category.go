package verdict

import "math"

// RainCategory buckets an hourly rain amount into the rider-facing intensity
// labels. Bounds follow BMKG intensity conventions (mm/hour).
type RainCategory string

const (
	RainNone    RainCategory = ""
	RainGerimis RainCategory = "gerimis"
	RainRingan  RainCategory = "ringan"
	RainSedang  RainCategory = "sedang"
	RainDeras   RainCategory = "deras"
)

// CategorizeRain maps a millimetre amount to a RainCategory.
func CategorizeRain(mm float64) RainCategory {
	switch {
	case math.IsNaN(mm) || mm <= 0.0001:
		return RainNone
	case mm < 1.0:
		return RainGerimis
	case mm < 2.5:
		return RainRingan
	case mm < 7.6:
		return RainSedang
	default:
		return RainDeras
	}
}

// Sky-label calibration. Separate from the verdict thresholds because these
// only affect display, never classification.
const (
	skyRainProbPct  = 60
	skyHumidLowPct  = 60
	skyHumidHighPct = 85
	skyClearUVMin   = 7
	skyMendungHum   = 75
)

// SkyLabel derives a one-word sky description for one hour. The reference
// rain amount prefers the hour itself, then the 3h and 6h accumulations, so a
// dry hour inside a wet block still reads as rain.
func SkyLabel(probPct, rainMM, acc3MM, acc6MM, humidityPct, uvIndex float64, hour int) string {
	ref := 0.0
	switch {
	case rainMM >= 0.3:
		ref = rainMM
	case acc3MM >= 0.3:
		ref = acc3MM
	case acc6MM >= 0.6:
		ref = acc6MM
	}

	if ref > 0.0001 {
		switch {
		case ref >= 7.6:
			return "hujan deras"
		case ref >= 2.5:
			return "hujan sedang"
		case ref >= 1.0:
			return "hujan ringan"
		default:
			return "hujan gerimis"
		}
	}
	if probPct >= skyRainProbPct {
		return "hujan potensial"
	}

	isDay := hour >= 6 && hour <= 16
	if isDay && uvIndex >= skyClearUVMin && humidityPct < skyMendungHum {
		return "cerah"
	}
	if humidityPct >= skyHumidLowPct && humidityPct <= skyHumidHighPct && probPct < 30 {
		return "berawan"
	}
	if humidityPct > skyMendungHum || (probPct >= 30 && probPct < skyRainProbPct) {
		return "mendung"
	}
	return "berawan"
}
