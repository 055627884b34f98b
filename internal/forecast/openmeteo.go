package forecast

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"radar-cuaca/internal/fetch"
	"radar-cuaca/internal/geo"
)

// Source retrieves a chronological, gap-free sequence of hourly records for a
// location, starting at the given hour.
type Source interface {
	FetchHourly(ctx context.Context, loc geo.Location, from time.Time, hours int) ([]HourlyRecord, error)
}

// OpenMeteoSource implements Source against the Open-Meteo forecast API.
type OpenMeteoSource struct {
	baseURL string
	httpCfg fetch.ClientConfig
	circuit *gobreaker.CircuitBreaker
}

// NewOpenMeteoSource creates an Open-Meteo client. Open-Meteo requires no API key.
func NewOpenMeteoSource(client *http.Client) *OpenMeteoSource {
	return &OpenMeteoSource{
		baseURL: "https://api.open-meteo.com/v1/forecast",
		httpCfg: fetch.ClientConfig{
			Client:  client,
			Backoff: fetch.DefaultBackoff(),
		},
		circuit: fetch.NewBreaker("openmeteo"),
	}
}

// SetBaseURL overrides the API endpoint. Used by tests.
func (s *OpenMeteoSource) SetBaseURL(u string) { s.baseURL = u }

const hourlyFields = "temperature_2m,precipitation,precipitation_probability," +
	"relative_humidity_2m,windspeed_10m,winddirection_10m,windgusts_10m,uv_index,weathercode"

// FetchHourly retrieves the hourly forecast and returns exactly `hours`
// contiguous records beginning at `from` (truncated to the hour, WIB). A hole
// in the upstream time axis is a FetchError: a gap must surface, not be
// silently skipped.
func (s *OpenMeteoSource) FetchHourly(ctx context.Context, loc geo.Location, from time.Time, hours int) ([]HourlyRecord, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", fmt.Sprintf("%f", loc.Lat))
		values.Set("longitude", fmt.Sprintf("%f", loc.Lon))
		values.Set("hourly", hourlyFields)
		values.Set("timezone", "Asia/Jakarta")
		values.Set("windspeed_unit", "kmh")
		values.Set("forecast_days", "2")

		u := fmt.Sprintf("%s?%s", s.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := fetch.Do(ctx, s.httpCfg, s.circuit, buildRequest)
	if err != nil {
		return nil, &FetchError{Source: "open-meteo", Loc: loc.Key(), Err: err}
	}
	defer resp.Body.Close()

	var payload struct {
		Hourly struct {
			Time          []string   `json:"time"`
			Temperature   []*float64 `json:"temperature_2m"`
			Precipitation []*float64 `json:"precipitation"`
			PrecipProb    []*float64 `json:"precipitation_probability"`
			Humidity      []*float64 `json:"relative_humidity_2m"`
			WindSpeed     []*float64 `json:"windspeed_10m"`
			WindDir       []*float64 `json:"winddirection_10m"`
			WindGusts     []*float64 `json:"windgusts_10m"`
			UVIndex       []*float64 `json:"uv_index"`
			WeatherCode   []*int     `json:"weathercode"`
		} `json:"hourly"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &FetchError{Source: "open-meteo", Loc: loc.Key(), Err: err}
	}
	if len(payload.Hourly.Time) == 0 {
		return nil, &FetchError{Source: "open-meteo", Loc: loc.Key(), Err: errors.New("empty hourly payload")}
	}

	from = from.In(WIB).Truncate(time.Hour)
	start := -1
	times := make([]time.Time, len(payload.Hourly.Time))
	for i, ts := range payload.Hourly.Time {
		t, err := time.ParseInLocation("2006-01-02T15:04", ts, WIB)
		if err != nil {
			return nil, &FetchError{Source: "open-meteo", Loc: loc.Key(), Err: fmt.Errorf("bad timestamp %q: %w", ts, err)}
		}
		times[i] = t
		if start < 0 && t.Equal(from) {
			start = i
		}
	}
	if start < 0 {
		return nil, &FetchError{Source: "open-meteo", Loc: loc.Key(), Err: fmt.Errorf("hour %s not in payload", from.Format("2006-01-02T15:04"))}
	}
	if start+hours > len(times) {
		return nil, &FetchError{Source: "open-meteo", Loc: loc.Key(),
			Err: fmt.Errorf("payload covers %d of %d requested hours", len(times)-start, hours)}
	}

	records := make([]HourlyRecord, 0, hours)
	for i := start; i < start+hours; i++ {
		if !times[i].Equal(from.Add(time.Duration(i-start) * time.Hour)) {
			return nil, &FetchError{Source: "open-meteo", Loc: loc.Key(),
				Err: fmt.Errorf("gap in hourly time axis at %s", times[i].Format("2006-01-02T15:04"))}
		}
		rec := HourlyRecord{
			Time:          times[i],
			TempC:         deref(payload.Hourly.Temperature, i),
			HumidityPct:   deref(payload.Hourly.Humidity, i),
			PrecipProbPct: deref(payload.Hourly.PrecipProb, i),
			PrecipMM:      deref(payload.Hourly.Precipitation, i),
			WindKmh:       deref(payload.Hourly.WindSpeed, i),
			WindDirDeg:    deref(payload.Hourly.WindDir, i),
			GustKmh:       deref(payload.Hourly.WindGusts, i),
			UVIndex:       deref(payload.Hourly.UVIndex, i),
		}
		if i < len(payload.Hourly.WeatherCode) && payload.Hourly.WeatherCode[i] != nil {
			rec.WeatherCode = *payload.Hourly.WeatherCode[i]
		}
		rec.Acc3MM = accumulate(payload.Hourly.Precipitation, i, 3)
		rec.Acc6MM = accumulate(payload.Hourly.Precipitation, i, 6)
		rec.DevMM = windowDeviation(payload.Hourly.Precipitation, i, 3)
		rec.DevEnsMM = math.NaN()
		records = append(records, rec)
	}
	return records, nil
}

// deref returns the value at index i, or NaN when the slice is short or the
// entry is null. NaN marks the field as missing for the classifier.
func deref(arr []*float64, i int) float64 {
	if i >= len(arr) || arr[i] == nil {
		return math.NaN()
	}
	return *arr[i]
}

// accumulate sums up to n hourly precipitation values starting at i, skipping
// nulls. The window is clipped at the end of the payload.
func accumulate(arr []*float64, i, n int) float64 {
	var sum float64
	for j := 0; j < n && i+j < len(arr); j++ {
		if arr[i+j] != nil {
			sum += *arr[i+j]
		}
	}
	return sum
}

// windowDeviation returns the population standard deviation of the known
// precipitation values in the n-hour window at i, or zero when fewer than two
// values exist. Population form keeps the scale stable across short windows.
func windowDeviation(arr []*float64, i, n int) float64 {
	var vals []float64
	for j := 0; j < n && i+j < len(arr); j++ {
		if arr[i+j] != nil {
			vals = append(vals, *arr[i+j])
		}
	}
	return pstdev(vals)
}

// pstdev is the population standard deviation; zero for fewer than two values.
func pstdev(vals []float64) float64 {
	if len(vals) < 2 {
		return 0
	}
	var mean float64
	for _, v := range vals {
		mean += v
	}
	mean /= float64(len(vals))

	var ss float64
	for _, v := range vals {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(vals)))
}
