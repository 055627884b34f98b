package render

import (
	"fmt"
	"math"
	"strings"

	"radar-cuaca/internal/forecast"
	"radar-cuaca/internal/narrative"
	"radar-cuaca/internal/summary"
	"radar-cuaca/internal/verdict"
)

// Options are the two independently toggle-able presentation modes plus the
// compact table switch. Toggling presentation changes how data is shown,
// never which data is shown.
type Options struct {
	Color   bool
	Unicode bool
	Compact bool
}

// ANSI escape sequences, emitted only when Options.Color is set.
const (
	ansiGreen  = "\033[1;32m"
	ansiYellow = "\033[1;33m"
	ansiRed    = "\033[1;31m"
	ansiCyan   = "\033[1;36m"
	ansiBold   = "\033[1m"
	ansiReset  = "\033[0m"
)

// Renderer formats a Report for terminal display or notification delivery.
type Renderer struct {
	opts Options
}

// New creates a Renderer with the given presentation options.
func New(opts Options) *Renderer {
	return &Renderer{opts: opts}
}

func (r *Renderer) paint(color, s string) string {
	if !r.opts.Color {
		return s
	}
	return color + s + ansiReset
}

// Render produces the full pass report: header, per-location tables, window
// summaries, combined recommendation lines, and the narrative paragraph.
func (r *Renderer) Render(rep Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n", r.paint(ansiBold, "Prakiraan cuaca ojol (24 jam)"))
	fmt.Fprintf(&b, "Update: %s | run %s\n\n",
		rep.GeneratedAt.In(forecast.WIB).Format("2006-01-02 15:04:05 WIB"), rep.RunID)

	for _, lr := range rep.Locations {
		r.renderLocation(&b, lr)
	}

	r.renderCombined(&b, rep)
	r.renderNarrative(&b, rep.Narrative)
	return b.String()
}

func (r *Renderer) renderLocation(b *strings.Builder, lr LocationReport) {
	fmt.Fprintf(b, "%s\n", r.paint(ansiCyan+ansiBold, lr.Location.Name))

	if lr.Err != nil {
		fmt.Fprintf(b, "%s %s\n\n", r.mark(verdict.Risky), r.paint(ansiRed, "GAGAL: "+lr.Err.Error()))
		return
	}
	if lr.Warning != nil {
		fmt.Fprintf(b, "%s\n", r.paint(ansiRed, "Peringatan BMKG: "+lr.Warning.Summary()))
	}

	r.renderTable(b, lr)

	for _, s := range lr.Summaries {
		fmt.Fprintf(b, "  %s\n", r.summaryLine(s))
	}
	b.WriteString("\n")
}

func (r *Renderer) renderTable(b *strings.Builder, lr LocationReport) {
	if r.opts.Compact {
		fmt.Fprintf(b, "%-12s | %-6s | %-8s | %-9s | %-7s | %-12s | %-15s | %s\n",
			"Jam", "Suhu", "Hujan(%)", "Hujan(mm)", "Dev(mm)", "Angin", "Langit", "Status")
	} else {
		fmt.Fprintf(b, "%-16s | %-6s | %-8s | %-9s | %-7s | %-7s | %-7s | %-7s | %-12s | %-5s | %-15s | %s\n",
			"Tanggal-Jam", "Suhu", "Hujan(%)", "Hujan(mm)", "Acc3mm", "Acc6mm", "Lembap", "Dev(mm)", "Angin", "UV", "Langit", "Status")
	}

	for i, h := range lr.Hours {
		rec := lr.Records[i]
		r.renderHour(b, rec, h)
	}
}

func (r *Renderer) renderHour(b *strings.Builder, rec forecast.HourlyRecord, h summary.Hour) {
	status := fmt.Sprintf("%s %s", r.mark(h.Verdict), h.Verdict)
	reason := h.Reason
	if h.Missing {
		status = r.paint(ansiYellow, "data kurang")
		reason = "kolom wajib kosong"
	}

	sky := verdict.SkyLabel(rec.PrecipProbPct, rec.PrecipMM, rec.Acc3MM, rec.Acc6MM,
		rec.HumidityPct, rec.UVIndex, rec.Time.Hour())
	wind := r.formatWind(rec)

	if r.opts.Compact {
		fmt.Fprintf(b, "%-12s | %-6s | %7s  | %9s | %7s | %-12s | %-15s | %s\n",
			rec.Time.Format("02-01 15:04"), r.formatTemp(rec.TempC),
			formatPct(rec.PrecipProbPct), formatMM(rec.PrecipMM),
			r.formatDev(rec.DevMM), wind, sky, status)
		return
	}

	fmt.Fprintf(b, "%-16s | %-6s | %7s  | %9s | %7s | %7s | %6s%% | %7s | %-12s | %-5s | %-15s | %s (%s)",
		rec.Time.Format("2006-01-02 15:04"), r.formatTemp(rec.TempC),
		formatPct(rec.PrecipProbPct), formatMM(rec.PrecipMM),
		formatMM(rec.Acc3MM), formatMM(rec.Acc6MM), formatPct(rec.HumidityPct),
		r.formatDev(rec.DevMM), wind, r.formatUV(rec.UVIndex), sky, status, reason)
	if !math.IsNaN(rec.DevEnsMM) {
		fmt.Fprintf(b, " | DevEns:%.2f", rec.DevEnsMM)
	}
	b.WriteString("\n")
}

func (r *Renderer) summaryLine(s summary.WindowSummary) string {
	if s.NoData {
		return fmt.Sprintf("%2dj: %s", s.Hours, r.paint(ansiYellow, "tidak ada data"))
	}

	label := r.paint(verdictColor(s.Worst), s.Worst.String())
	line := fmt.Sprintf("%2dj: terburuk %s (aman %d, waspada %d, rawan %d",
		s.Hours, label,
		s.Counts[verdict.Safe], s.Counts[verdict.Caution], s.Counts[verdict.Risky])
	if s.Missing > 0 {
		line += fmt.Sprintf(", tanpa data %d", s.Missing)
	}
	line += ")"
	if s.DominantFactor != "" && s.Worst != verdict.Safe {
		line += " — faktor: " + s.DominantFactor
	}
	if s.Partial {
		line += fmt.Sprintf(" [parsial %d/%d jam]", s.Covered, s.Hours)
	}
	return line
}

// renderCombined emits the cross-location recommendation: hours where every
// classified location is Safe, and hours where at least one is Risky.
func (r *Renderer) renderCombined(b *strings.Builder, rep Report) {
	type hourAgg struct {
		total, safe, risky int
		label              string
	}
	var hours []*hourAgg
	index := map[string]*hourAgg{}

	for _, lr := range rep.Locations {
		if lr.Err != nil {
			continue
		}
		for _, h := range lr.Hours {
			if h.Missing {
				continue
			}
			key := h.Time.Format("2006-01-02T15")
			agg, ok := index[key]
			if !ok {
				agg = &hourAgg{label: h.Time.Format("15:04")}
				index[key] = agg
				hours = append(hours, agg)
			}
			agg.total++
			if h.Verdict == verdict.Safe {
				agg.safe++
			}
			if h.Verdict == verdict.Risky {
				agg.risky++
			}
		}
	}

	var safest, risky []string
	for _, agg := range hours {
		if agg.safe == agg.total {
			safest = append(safest, agg.label)
		}
		if agg.risky > 0 {
			risky = append(risky, agg.label)
		}
	}

	fmt.Fprintf(b, "%s\n", r.paint(ansiBold, "Rekomendasi gabungan:"))
	fmt.Fprintf(b, "Jam paling aman narik: %s\n", r.paint(ansiGreen, joinOrDash(safest)))
	fmt.Fprintf(b, "Jam berisiko: %s\n\n", r.paint(ansiRed, joinOrDash(risky)))
}

func (r *Renderer) renderNarrative(b *strings.Builder, n narrative.Result) {
	if n.Text == "" {
		return
	}
	tag := "ringkasan lokal"
	if n.Provenance == narrative.ProvenanceAI {
		tag = "ringkasan AI"
	}
	fmt.Fprintf(b, "%s\n%s\n", r.paint(ansiBold, "Kesimpulan ("+tag+"):"), n.Text)
}

// mark returns the status icon: unicode when enabled, ASCII otherwise.
func (r *Renderer) mark(v verdict.Verdict) string {
	if r.opts.Unicode {
		switch v {
		case verdict.Risky:
			return "❌"
		case verdict.Caution:
			return "⚠️"
		default:
			return "✅"
		}
	}
	switch v {
	case verdict.Risky:
		return "[X]"
	case verdict.Caution:
		return "[!]"
	default:
		return "[OK]"
	}
}

func verdictColor(v verdict.Verdict) string {
	switch v {
	case verdict.Risky:
		return ansiRed
	case verdict.Caution:
		return ansiYellow
	default:
		return ansiGreen
	}
}

func (r *Renderer) formatTemp(t float64) string {
	if math.IsNaN(t) {
		return "-"
	}
	s := fmt.Sprintf("%.1f°C", t)
	switch {
	case t >= 33:
		return r.paint(ansiRed, s)
	case t < 23:
		return r.paint(ansiCyan, s)
	default:
		return r.paint(ansiGreen, s)
	}
}

func (r *Renderer) formatUV(u float64) string {
	if math.IsNaN(u) {
		return "-"
	}
	s := fmt.Sprintf("%.1f", u)
	switch {
	case u >= 7:
		return r.paint(ansiRed, s)
	case u >= 5:
		return r.paint(ansiYellow, s)
	default:
		return r.paint(ansiGreen, s)
	}
}

// formatWind renders "<compass><arrow> <speed>/<gust>"; the arrow appears
// only in unicode mode.
func (r *Renderer) formatWind(rec forecast.HourlyRecord) string {
	if math.IsNaN(rec.WindKmh) {
		return "-"
	}
	dir := compassID(rec.WindDirDeg)
	if r.opts.Unicode {
		dir += windArrow(rec.WindDirDeg)
	}
	out := fmt.Sprintf("%s %.0f", dir, rec.WindKmh)
	if !math.IsNaN(rec.GustKmh) {
		out += fmt.Sprintf("/%.0f", rec.GustKmh)
	}
	return out
}

// compassID maps degrees to the Indonesian compass abbreviation.
func compassID(deg float64) string {
	if math.IsNaN(deg) {
		return "?"
	}
	d := int(math.Round(deg)) % 360
	if d < 0 {
		d += 360
	}
	switch {
	case d >= 337 || d < 23:
		return "U"
	case d < 68:
		return "TL"
	case d < 113:
		return "T"
	case d < 158:
		return "TG"
	case d < 203:
		return "S"
	case d < 248:
		return "BD"
	case d < 293:
		return "B"
	default:
		return "BL"
	}
}

func windArrow(deg float64) string {
	if math.IsNaN(deg) {
		return ""
	}
	d := int(math.Round(deg)) % 360
	if d < 0 {
		d += 360
	}
	switch {
	case d >= 337 || d < 23:
		return "↑"
	case d < 68:
		return "↗"
	case d < 113:
		return "→"
	case d < 158:
		return "↘"
	case d < 203:
		return "↓"
	case d < 248:
		return "↙"
	case d < 293:
		return "←"
	default:
		return "↖"
	}
}

func formatPct(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	return fmt.Sprintf("%.0f", v)
}

func formatMM(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	return fmt.Sprintf("%.1f", v)
}

// formatDev colors the deviation against the warn/danger bands.
func (r *Renderer) formatDev(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	s := fmt.Sprintf("%.2f", v)
	switch {
	case v >= 1.0:
		return r.paint(ansiRed, s)
	case v >= 0.7:
		return r.paint(ansiYellow, s)
	default:
		return s
	}
}

func joinOrDash(items []string) string {
	if len(items) == 0 {
		return "tidak terdeteksi"
	}
	return strings.Join(items, ", ")
}
