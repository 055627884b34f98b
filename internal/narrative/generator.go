package narrative

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"unicode/utf8"
)

// Provenance tags where a narrative paragraph came from.
const (
	ProvenanceAI    = "ai"
	ProvenanceLocal = "local"
)

// Result is one paragraph of rider-facing text plus its provenance.
type Result struct {
	Text       string
	Provenance string
}

// maxParagraphRunes bounds any narrative to a sane paragraph length; overlong
// model output is truncated on a word boundary rather than passed through.
const maxParagraphRunes = 900

const systemInstruction = "Kamu bikin ringkasan cuaca untuk driver ojek online di Jabodetabek. " +
	"Nada santai tapi sopan, kayak abang ojol senior ngasih info. " +
	"Jawab dalam SATU paragraf saja, tanpa emoji, tanpa simbol hiasan, tanpa daftar. " +
	"Wajib sebutkan kondisi sekarang, 3 jam ke depan, dan 6 jam ke depan: aman, waspada, atau rawan. " +
	"Sebut lokasi yang berpotensi hujan beserta jamnya. " +
	"Kalau ada jam deviasi (prakiraan hujan tidak stabil), sebut 'deviasi' singkat pada kota yang terkena. " +
	"Singkat, padat, jelas."

// Generator produces the narrative paragraph for a pass. A nil service means
// no credential is configured and only the local template path runs.
type Generator struct {
	service Service
	logger  *log.Logger
}

// NewGenerator wires a Generator. service may be nil.
func NewGenerator(service Service, logger *log.Logger) *Generator {
	if logger == nil {
		logger = log.Default()
	}
	return &Generator{service: service, logger: logger}
}

// Generate returns exactly one paragraph. The external path is tried only
// when a service is configured; any failure there degrades transparently to
// the deterministic local composition. Generate never returns an error to the
// caller.
func (g *Generator) Generate(ctx context.Context, digest Digest) Result {
	if g.service == nil {
		return Result{Text: g.localParagraph(digest), Provenance: ProvenanceLocal}
	}

	payload, err := json.Marshal(digest)
	if err != nil {
		g.logger.Printf("narrative: digest marshal failed: %v", err)
		return Result{Text: g.localParagraph(digest), Provenance: ProvenanceLocal}
	}

	user := "Ini data ringkas per lokasi dalam JSON. Rangkum jadi satu paragraf sesuai instruksi.\n\n" + string(payload)
	text, err := g.service.Summarize(ctx, systemInstruction, user)
	if err != nil {
		g.logger.Printf("narrative: external summarizer failed, falling back: %v", err)
		return Result{Text: g.localParagraph(digest), Provenance: ProvenanceLocal}
	}

	text = flatten(text)
	if text == "" {
		g.logger.Printf("narrative: external summarizer returned empty text, falling back")
		return Result{Text: g.localParagraph(digest), Provenance: ProvenanceLocal}
	}
	return Result{Text: clamp(text), Provenance: ProvenanceAI}
}

// phrase templates keyed by the verdict label; used by the local path only.
var localPhrases = map[string]string{
	"Aman":        "%s masih aman, gas terus",
	"Waspada":     "%s waspada, siapin jas hujan",
	"Rawan":       "%s rawan, mending tunda order jauh",
	"data kurang": "%s datanya kurang, cek langsung di jalan",
}

// localParagraph deterministically composes one paragraph from the digest,
// keyed by the worst verdict of each location's 3h and 6h windows. It never
// returns an empty string.
func (g *Generator) localParagraph(digest Digest) string {
	if len(digest.Locations) == 0 {
		return "Belum ada data cuaca yang bisa dirangkum sekarang, coba lagi beberapa saat lagi dan tetap hati-hati di jalan."
	}

	var b strings.Builder
	b.WriteString("Kondisi sekarang: ")
	for i, loc := range digest.Locations {
		if i > 0 {
			b.WriteString("; ")
		}
		tmpl, ok := localPhrases[loc.Now]
		if !ok {
			tmpl = localPhrases["data kurang"]
		}
		fmt.Fprintf(&b, tmpl, loc.Name)
	}
	b.WriteString(". ")

	for _, loc := range digest.Locations {
		if loc.Worst3h == "Rawan" || loc.Worst6h == "Rawan" {
			fmt.Fprintf(&b, "%s berpotensi hujan dalam 6 jam ke depan", loc.Name)
			if len(loc.RiskyHours) > 0 {
				fmt.Fprintf(&b, " (sekitar jam %s)", strings.Join(loc.RiskyHours, ", "))
			}
			b.WriteString(". ")
		} else if loc.Worst3h == "Waspada" || loc.Worst6h == "Waspada" {
			fmt.Fprintf(&b, "%s perlu waspada sampai 6 jam ke depan. ", loc.Name)
		}
		if len(loc.DevHours) > 0 {
			fmt.Fprintf(&b, "Prakiraan hujan %s kurang stabil (deviasi) sekitar jam %s. ",
				loc.Name, strings.Join(loc.DevHours, ", "))
		}
	}

	b.WriteString("Pantau terus sebelum ambil order jauh.")
	return clamp(strings.TrimSpace(b.String()))
}

// flatten collapses a multi-line reply into a single paragraph.
func flatten(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// clamp truncates overlong text on a word boundary.
func clamp(s string) string {
	if utf8.RuneCountInString(s) <= maxParagraphRunes {
		return s
	}
	runes := []rune(s)
	cut := string(runes[:maxParagraphRunes])
	if i := strings.LastIndex(cut, " "); i > 0 {
		cut = cut[:i]
	}
	return cut + "…"
}
