package narrative

import (
	"radar-cuaca/internal/summary"
	"radar-cuaca/internal/verdict"
)

// LocationDigest is the compact per-location view sent to the summarization
// service. It deliberately carries derived fields only, never the raw
// per-hour table.
type LocationDigest struct {
	Name       string   `json:"name"`
	TempC      float64  `json:"temp_c"`
	Sky        string   `json:"sky"`
	Now        string   `json:"status_sekarang"`
	NowReason  string   `json:"alasan"`
	Worst3h    string   `json:"status_3jam"`
	Worst6h    string   `json:"status_6jam"`
	RiskyHours []string `json:"jam_rawan,omitempty"`
	DevHours   []string `json:"jam_deviasi,omitempty"`
	Warning    string   `json:"peringatan_bmkg,omitempty"`
}

// Digest is the structured input for narrative generation across all
// locations in one pass.
type Digest struct {
	UpdatedAt string           `json:"update"`
	Locations []LocationDigest `json:"lokasi"`
}

// BuildLocationDigest derives a LocationDigest from one location's classified
// hours. hours must be chronological with the current hour first; devHours
// lists the hours whose rain forecast spread crossed the warn band.
func BuildLocationDigest(name string, tempC float64, sky string, hours []summary.Hour, devHours []string, warning string) LocationDigest {
	d := LocationDigest{
		Name:     name,
		TempC:    tempC,
		Sky:      sky,
		DevHours: devHours,
		Warning:  warning,
	}

	if len(hours) > 0 && !hours[0].Missing {
		d.Now = hours[0].Verdict.String()
		d.NowReason = hours[0].Reason
	} else {
		d.Now = "data kurang"
	}

	d.Worst3h = worstLabel(name, hours, 3)
	d.Worst6h = worstLabel(name, hours, 6)

	for _, h := range hours {
		if !h.Missing && h.Verdict == verdict.Risky {
			d.RiskyHours = append(d.RiskyHours, h.Time.Format("15:04"))
		}
	}
	return d
}

func worstLabel(name string, hours []summary.Hour, window int) string {
	s := summary.Summarize(name, hours, window)
	if s.NoData {
		return "data kurang"
	}
	return s.Worst.String()
}
