package forecast

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"radar-cuaca/internal/fetch"
	"radar-cuaca/internal/geo"
)

// EnsembleSource retrieves per-hour ensemble rain deviations for a location:
// for each hour, the spread (population standard deviation) of the 3h
// accumulated rain across forecast members. A wide spread means the members
// disagree and the deterministic forecast deserves less trust.
type EnsembleSource interface {
	FetchDeviation(ctx context.Context, loc geo.Location, from time.Time, hours int) ([]float64, error)
}

// OpenMeteoEnsembleSource implements EnsembleSource against the Open-Meteo
// ensemble API (gfs_seamless members).
type OpenMeteoEnsembleSource struct {
	baseURL string
	httpCfg fetch.ClientConfig
	circuit *gobreaker.CircuitBreaker
}

// NewEnsembleSource creates an ensemble client sharing the HTTP client with
// the deterministic fetcher.
func NewEnsembleSource(client *http.Client) *OpenMeteoEnsembleSource {
	return &OpenMeteoEnsembleSource{
		baseURL: "https://ensemble-api.open-meteo.com/v1/ensemble",
		httpCfg: fetch.ClientConfig{
			Client:  client,
			Backoff: fetch.DefaultBackoff(),
		},
		circuit: fetch.NewBreaker("openmeteo-ensemble"),
	}
}

// SetBaseURL overrides the API endpoint. Used by tests.
func (s *OpenMeteoEnsembleSource) SetBaseURL(u string) { s.baseURL = u }

const memberPrefix = "rain_member"

// FetchDeviation returns one deviation value per requested hour. Hours whose
// 3h window runs past the payload still get a value over the clipped window;
// fewer than two members makes the whole fetch an error, since a spread needs
// something to spread over.
func (s *OpenMeteoEnsembleSource) FetchDeviation(ctx context.Context, loc geo.Location, from time.Time, hours int) ([]float64, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", fmt.Sprintf("%f", loc.Lat))
		values.Set("longitude", fmt.Sprintf("%f", loc.Lon))
		values.Set("models", "gfs_seamless")
		values.Set("hourly", "rain")
		values.Set("forecast_days", "2")
		values.Set("timezone", "Asia/Jakarta")

		u := fmt.Sprintf("%s?%s", s.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := fetch.Do(ctx, s.httpCfg, s.circuit, buildRequest)
	if err != nil {
		return nil, &FetchError{Source: "open-meteo-ensemble", Loc: loc.Key(), Err: err}
	}
	defer resp.Body.Close()

	// Member count varies by model, so the hourly block is decoded as a map
	// and the rain_memberNN keys are picked out of it.
	var payload struct {
		Hourly map[string]json.RawMessage `json:"hourly"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &FetchError{Source: "open-meteo-ensemble", Loc: loc.Key(), Err: err}
	}

	var times []string
	if raw, ok := payload.Hourly["time"]; ok {
		if err := json.Unmarshal(raw, &times); err != nil {
			return nil, &FetchError{Source: "open-meteo-ensemble", Loc: loc.Key(), Err: fmt.Errorf("bad time axis: %w", err)}
		}
	}
	if len(times) == 0 {
		return nil, &FetchError{Source: "open-meteo-ensemble", Loc: loc.Key(), Err: errors.New("empty ensemble payload")}
	}

	var members [][]*float64
	for key, raw := range payload.Hourly {
		if !strings.HasPrefix(key, memberPrefix) {
			continue
		}
		var arr []*float64
		if err := json.Unmarshal(raw, &arr); err != nil {
			return nil, &FetchError{Source: "open-meteo-ensemble", Loc: loc.Key(), Err: fmt.Errorf("bad member %s: %w", key, err)}
		}
		members = append(members, arr)
	}
	if len(members) < 2 {
		return nil, &FetchError{Source: "open-meteo-ensemble", Loc: loc.Key(),
			Err: fmt.Errorf("%d ensemble members in payload", len(members))}
	}

	from = from.In(WIB).Truncate(time.Hour)
	start := -1
	for i, ts := range times {
		t, err := time.ParseInLocation("2006-01-02T15:04", ts, WIB)
		if err != nil {
			return nil, &FetchError{Source: "open-meteo-ensemble", Loc: loc.Key(), Err: fmt.Errorf("bad timestamp %q: %w", ts, err)}
		}
		if t.Equal(from) {
			start = i
			break
		}
	}
	if start < 0 {
		return nil, &FetchError{Source: "open-meteo-ensemble", Loc: loc.Key(),
			Err: fmt.Errorf("hour %s not in payload", from.Format("2006-01-02T15:04"))}
	}

	devs := make([]float64, hours)
	sums := make([]float64, len(members))
	for h := 0; h < hours; h++ {
		if start+h >= len(times) {
			devs[h] = math.NaN()
			continue
		}
		for m, mem := range members {
			sums[m] = memberSum(mem, start+h, 3)
		}
		devs[h] = pstdev(sums)
	}
	return devs, nil
}

// memberSum accumulates up to n hourly values starting at i; a null entry
// counts as zero, matching how members report dry hours.
func memberSum(arr []*float64, i, n int) float64 {
	var sum float64
	for j := 0; j < n && i+j < len(arr); j++ {
		if arr[i+j] != nil {
			sum += *arr[i+j]
		}
	}
	return sum
}
