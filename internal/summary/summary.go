package summary

import (
	"time"

	"radar-cuaca/internal/verdict"
)

// Hour is one classified forecast hour as consumed by the summarizer.
// Missing marks an hour the classifier rejected for lack of data; such hours
// never contribute a verdict.
type Hour struct {
	Time    time.Time
	Verdict verdict.Verdict
	Reason  string
	Missing bool
}

// WindowSummary aggregates the verdicts over a fixed look-ahead window for
// one location. It is always derivable by replaying its window's hours; it is
// a cache of the records, never a source of truth.
type WindowSummary struct {
	Location string
	Hours    int // requested window length
	Covered  int // hours actually summarized
	Partial  bool
	NoData   bool
	Worst    verdict.Verdict
	Counts   map[verdict.Verdict]int
	Missing  int
	// DominantFactor is the most frequent reason among the hours at the
	// worst verdict level, ties broken by the earliest hour.
	DominantFactor string
}

// Summarize aggregates the first `window` entries of a chronological hour
// sequence. Fewer hours than requested yields a Partial summary over what is
// available; an empty sequence yields an explicit NoData summary. Absence of
// data is never equated with safety.
func Summarize(location string, hours []Hour, window int) WindowSummary {
	s := WindowSummary{
		Location: location,
		Hours:    window,
		Counts:   make(map[verdict.Verdict]int),
	}
	if len(hours) == 0 || window <= 0 {
		s.NoData = true
		return s
	}

	if window > len(hours) {
		s.Partial = true
		window = len(hours)
	}
	s.Covered = window

	type reasonStat struct {
		count int
		first int // index of earliest occurrence, for tie-breaking
	}
	reasons := make(map[string]*reasonStat)

	classified := 0
	for i := 0; i < window; i++ {
		h := hours[i]
		if h.Missing {
			s.Missing++
			continue
		}
		classified++
		s.Counts[h.Verdict]++
		if h.Verdict > s.Worst {
			s.Worst = h.Verdict
		}
	}

	if classified == 0 {
		s.NoData = true
		return s
	}

	for i := 0; i < window; i++ {
		h := hours[i]
		if h.Missing || h.Verdict != s.Worst {
			continue
		}
		st, ok := reasons[h.Reason]
		if !ok {
			reasons[h.Reason] = &reasonStat{count: 1, first: i}
			continue
		}
		st.count++
	}

	best := ""
	for reason, st := range reasons {
		if best == "" {
			best = reason
			continue
		}
		b := reasons[best]
		if st.count > b.count || (st.count == b.count && st.first < b.first) {
			best = reason
		}
	}
	s.DominantFactor = best
	return s
}

// Windows produces the standard 6/12/24-hour rolling summaries for one
// location, all anchored at the first hour.
func Windows(location string, hours []Hour) []WindowSummary {
	out := make([]WindowSummary, 0, 3)
	for _, w := range []int{6, 12, 24} {
		out = append(out, Summarize(location, hours, w))
	}
	return out
}
