package narrative

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"radar-cuaca/internal/summary"
	"radar-cuaca/internal/verdict"
)

type fakeService struct {
	reply string
	err   error
	calls int
}

func (f *fakeService) Summarize(_ context.Context, _, user string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func sampleDigest() Digest {
	return Digest{
		UpdatedAt: "2026-08-29 14:00:00 WIB",
		Locations: []LocationDigest{
			{Name: "Jakarta", TempC: 31, Sky: "berawan", Now: "Aman", Worst3h: "Aman", Worst6h: "Waspada"},
			{Name: "Bogor", TempC: 27, Sky: "hujan sedang", Now: "Rawan", NowReason: "hujan 6.5 mm/jam",
				Worst3h: "Rawan", Worst6h: "Rawan", RiskyHours: []string{"14:00", "15:00"}},
		},
	}
}

func TestGenerateWithoutServiceUsesLocalPath(t *testing.T) {
	g := NewGenerator(nil, testLogger())
	res := g.Generate(context.Background(), sampleDigest())

	assert.Equal(t, ProvenanceLocal, res.Provenance)
	assert.NotEmpty(t, res.Text)
	assert.NotContains(t, res.Text, "\n")
	assert.Contains(t, res.Text, "Jakarta")
	assert.Contains(t, res.Text, "Bogor")
	assert.Contains(t, res.Text, "14:00")
	assert.LessOrEqual(t, utf8.RuneCountInString(res.Text), maxParagraphRunes+1)
}

func TestGenerateLocalPathIsDeterministic(t *testing.T) {
	g := NewGenerator(nil, testLogger())
	first := g.Generate(context.Background(), sampleDigest())
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, g.Generate(context.Background(), sampleDigest()))
	}
}

func TestGenerateEmptyDigest(t *testing.T) {
	g := NewGenerator(nil, testLogger())
	res := g.Generate(context.Background(), Digest{UpdatedAt: "2026-08-29 14:00:00 WIB"})

	assert.Equal(t, ProvenanceLocal, res.Provenance)
	assert.NotEmpty(t, res.Text)
}

func TestGenerateServiceSuccess(t *testing.T) {
	svc := &fakeService{reply: "Jakarta aman sekarang, tiga jam ke depan waspada, enam jam ke depan rawan di Bogor."}
	g := NewGenerator(svc, testLogger())
	res := g.Generate(context.Background(), sampleDigest())

	assert.Equal(t, ProvenanceAI, res.Provenance)
	assert.Equal(t, svc.reply, res.Text)
	assert.Equal(t, 1, svc.calls)
}

func TestGenerateServiceFailureFallsBack(t *testing.T) {
	svc := &fakeService{err: errors.New("rate limit")}
	g := NewGenerator(svc, testLogger())
	res := g.Generate(context.Background(), sampleDigest())

	assert.Equal(t, ProvenanceLocal, res.Provenance)
	assert.NotEmpty(t, res.Text)
}

func TestGenerateServiceEmptyReplyFallsBack(t *testing.T) {
	svc := &fakeService{reply: "   \n  "}
	g := NewGenerator(svc, testLogger())
	res := g.Generate(context.Background(), sampleDigest())

	assert.Equal(t, ProvenanceLocal, res.Provenance)
	assert.NotEmpty(t, res.Text)
}

func TestGenerateFlattensMultilineReply(t *testing.T) {
	svc := &fakeService{reply: "Jakarta aman.\nBogor rawan.\n\nHati-hati."}
	g := NewGenerator(svc, testLogger())
	res := g.Generate(context.Background(), sampleDigest())

	assert.Equal(t, ProvenanceAI, res.Provenance)
	assert.Equal(t, "Jakarta aman. Bogor rawan. Hati-hati.", res.Text)
}

func TestGenerateClampsOverlongReply(t *testing.T) {
	svc := &fakeService{reply: strings.Repeat("hujan deras di mana-mana ", 200)}
	g := NewGenerator(svc, testLogger())
	res := g.Generate(context.Background(), sampleDigest())

	assert.LessOrEqual(t, utf8.RuneCountInString(res.Text), maxParagraphRunes+1)
	assert.True(t, strings.HasSuffix(res.Text, "…"))
}

func TestGenerateLocalPathMentionsDeviation(t *testing.T) {
	d := sampleDigest()
	d.Locations[1].DevHours = []string{"15:00", "16:00"}

	g := NewGenerator(nil, testLogger())
	res := g.Generate(context.Background(), d)

	assert.Equal(t, ProvenanceLocal, res.Provenance)
	assert.Contains(t, res.Text, "deviasi")
	assert.Contains(t, res.Text, "15:00, 16:00")
}

func TestBuildLocationDigest(t *testing.T) {
	base := time.Date(2026, 8, 29, 13, 0, 0, 0, time.FixedZone("WIB", 7*3600))
	hours := []summary.Hour{
		{Time: base, Verdict: verdict.Safe, Reason: "tidak ada pemicu"},
		{Time: base.Add(time.Hour), Verdict: verdict.Risky, Reason: "hujan 7.0 mm/jam"},
		{Time: base.Add(2 * time.Hour), Verdict: verdict.Caution, Reason: "peluang hujan 45%"},
	}

	d := BuildLocationDigest("Depok", 29.5, "mendung", hours, nil, "")
	assert.Equal(t, "Depok", d.Name)
	assert.Equal(t, "Aman", d.Now)
	assert.Equal(t, "Rawan", d.Worst3h)
	assert.Equal(t, "Rawan", d.Worst6h)
	assert.Equal(t, []string{"14:00"}, d.RiskyHours)
}

func TestBuildLocationDigestMissingNow(t *testing.T) {
	base := time.Date(2026, 8, 29, 13, 0, 0, 0, time.FixedZone("WIB", 7*3600))
	hours := []summary.Hour{{Time: base, Missing: true}}

	d := BuildLocationDigest("Depok", 29.5, "mendung", hours, nil, "")
	require.Equal(t, "data kurang", d.Now)
	assert.Equal(t, "data kurang", d.Worst3h)
}
