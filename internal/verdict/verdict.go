package verdict

// Verdict is the three-tier safety classification assigned to one forecast
// hour. Values are ordered by severity so the worst of a window is simply the
// maximum.
type Verdict int

const (
	Safe Verdict = iota
	Caution
	Risky
)

// String returns the rider-facing Indonesian label.
func (v Verdict) String() string {
	switch v {
	case Caution:
		return "Waspada"
	case Risky:
		return "Rawan"
	default:
		return "Aman"
	}
}

// Worse returns the more severe of two verdicts.
func Worse(a, b Verdict) Verdict {
	if b > a {
		return b
	}
	return a
}

// Result pairs a verdict with the short reason that drove it.
type Result struct {
	Verdict Verdict
	Reason  string
}
