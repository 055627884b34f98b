package verdict

import "math"

// DevLevel flags how unstable an hour's rain forecast is. It is advisory
// only: deviation hours are surfaced in summaries and the narrative but never
// change the hour's verdict.
type DevLevel int

const (
	DevNone DevLevel = iota
	DevWarn
	DevDanger
)

// ClassifyDeviation grades the worse of the deterministic window deviation
// and the ensemble spread. NaN inputs are ignored.
func ClassifyDeviation(devMM, devEnsMM float64, th Thresholds) DevLevel {
	worst := maxKnown(devMM, devEnsMM)
	switch {
	case worst >= th.DevDangerMM:
		return DevDanger
	case worst >= th.DevWarnMM:
		return DevWarn
	default:
		return DevNone
	}
}

func maxKnown(a, b float64) float64 {
	if math.IsNaN(a) {
		a = 0
	}
	if math.IsNaN(b) {
		b = 0
	}
	return math.Max(a, b)
}
