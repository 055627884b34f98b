package nowcast

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/sony/gobreaker"

	"radar-cuaca/internal/fetch"
)

// Warning is an active short-range hazard notice for a region. A nil Warning
// means no override; the hourly forecast stands on its own.
type Warning struct {
	Event string
	Area  string
	Text  string
}

// Summary is the combined free text used as the classifier override reason.
func (w *Warning) Summary() string {
	parts := make([]string, 0, 3)
	for _, s := range []string{w.Event, w.Area, w.Text} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}

// Source retrieves the active nowcast warning covering a named region, if any.
// Implementations return (nil, nil) when no warning is active; malformed or
// empty feed content is treated as "no warning", never as an error.
type Source interface {
	ActiveWarning(ctx context.Context, region string) (*Warning, error)
}

// BMKGSource reads the BMKG nowcast alert index and per-region alert XML.
type BMKGSource struct {
	indexURL string
	alertURL string // format string taking a region code and a language
	httpCfg  fetch.ClientConfig
	circuit  *gobreaker.CircuitBreaker
}

// NewBMKGSource creates a client for the public BMKG nowcast feed.
func NewBMKGSource(client *http.Client) *BMKGSource {
	return &BMKGSource{
		indexURL: "https://www.bmkg.go.id/alerts/nowcast/id",
		alertURL: "https://www.bmkg.go.id/alerts/nowcast/%s/%s_alert.xml",
		httpCfg: fetch.ClientConfig{
			Client:  client,
			Backoff: fetch.DefaultBackoff(),
		},
		circuit: fetch.NewBreaker("bmkg"),
	}
}

// SetURLs overrides the feed endpoints. Used by tests.
func (s *BMKGSource) SetURLs(index, alert string) {
	s.indexURL = index
	s.alertURL = alert
}

var alertHrefRe = regexp.MustCompile(`href="([^"]*/alerts/nowcast/id/[^"]*_alert\.xml)"`)

// ActiveWarning resolves the region's alert code from the index page and
// fetches its alert document. Any failure along the way degrades to
// (nil, nil): nowcast data is an enhancement, never a blocker.
func (s *BMKGSource) ActiveWarning(ctx context.Context, region string) (*Warning, error) {
	code := s.regionCode(ctx, region)
	if code == "" {
		return nil, nil
	}

	for _, lang := range []string{"id", "en"} {
		w := s.fetchAlert(ctx, code, lang)
		if w != nil {
			return w, nil
		}
	}
	return nil, nil
}

// regionCode scans the index page for an alert file whose name contains the
// region, e.g. "Bogor" matching "KotaBogor_alert.xml".
func (s *BMKGSource) regionCode(ctx context.Context, region string) string {
	buildRequest := func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, s.indexURL, nil)
	}
	resp, err := fetch.Do(ctx, s.httpCfg, s.circuit, buildRequest)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return ""
	}

	needle := strings.ToLower(region)
	for _, m := range alertHrefRe.FindAllStringSubmatch(string(body), -1) {
		name := m[1][strings.LastIndex(m[1], "/")+1:]
		if strings.Contains(strings.ToLower(name), needle) {
			return strings.TrimSuffix(name, "_alert.xml")
		}
	}
	return ""
}

// alertDocument mirrors the CAP-style alert XML's fields of interest.
type alertDocument struct {
	Info struct {
		Event       string `xml:"event"`
		Description string `xml:"description"`
		Area        struct {
			AreaDesc string `xml:"areaDesc"`
		} `xml:"area"`
	} `xml:"info"`
}

func (s *BMKGSource) fetchAlert(ctx context.Context, code, lang string) *Warning {
	url := fmt.Sprintf(s.alertURL, lang, code)

	buildRequest := func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, url, nil)
	}
	resp, err := fetch.Do(ctx, s.httpCfg, s.circuit, buildRequest)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil || len(strings.TrimSpace(string(body))) == 0 {
		return nil
	}

	var doc alertDocument
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil
	}

	w := &Warning{
		Event: doc.Info.Event,
		Area:  doc.Info.Area.AreaDesc,
		Text:  doc.Info.Description,
	}
	if w.Summary() == "" {
		return nil
	}
	return w
}
