package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"radar-cuaca/internal/forecast"
	"radar-cuaca/internal/geo"
	"radar-cuaca/internal/narrative"
	"radar-cuaca/internal/notify"
	"radar-cuaca/internal/nowcast"
	"radar-cuaca/internal/render"
	"radar-cuaca/internal/summary"
	"radar-cuaca/internal/verdict"
)

// ErrNoLocationClassified is returned when every configured location failed;
// one-shot mode maps it to a non-zero exit status. Partial failures are not
// errors: the pass report carries their error lines instead.
var ErrNoLocationClassified = errors.New("no location could be classified")

const (
	forecastHours = 24
	passTimeout   = 2 * time.Minute
)

// Runner executes one pass of the pipeline: fetch, classify, summarize,
// narrate, render, notify. Each pass starts from a clean state; nothing is
// shared across ticks except the last rendered report kept for the status
// endpoint.
type Runner struct {
	locations  []geo.Location
	forecasts  forecast.Source
	ensembles  forecast.EnsembleSource
	nowcasts   nowcast.Source
	generator  *narrative.Generator
	renderer   *render.Renderer
	notifier   notify.Notifier
	thresholds verdict.Thresholds
	clock      clockwork.Clock
	logger     *log.Logger
	output     io.Writer

	mu         sync.RWMutex
	lastText   string
	lastReport *render.Report
	passes     int
	failures   int
}

// Config bundles the runner's collaborators.
type Config struct {
	Locations  []geo.Location
	Forecasts  forecast.Source
	Ensembles  forecast.EnsembleSource
	Nowcasts   nowcast.Source
	Generator  *narrative.Generator
	Renderer   *render.Renderer
	Notifier   notify.Notifier
	Thresholds verdict.Thresholds
	Clock      clockwork.Clock
	Logger     *log.Logger
	Output     io.Writer
}

// New creates a Runner. A nil Clock defaults to the real clock.
func New(cfg Config) *Runner {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}
	return &Runner{
		locations:  cfg.Locations,
		forecasts:  cfg.Forecasts,
		ensembles:  cfg.Ensembles,
		nowcasts:   cfg.Nowcasts,
		generator:  cfg.Generator,
		renderer:   cfg.Renderer,
		notifier:   cfg.Notifier,
		thresholds: cfg.Thresholds,
		clock:      cfg.Clock,
		logger:     cfg.Logger,
		output:     cfg.Output,
	}
}

// RunPass executes one full pipeline pass and returns the rendered report.
// Locations are processed in input order; a failed location contributes an
// error line and never blocks the rest.
func (r *Runner) RunPass(ctx context.Context) (string, error) {
	runID := uuid.NewString()[:8]
	now := r.clock.Now()
	r.logger.Printf("pass %s: prakiraan %d lokasi", runID, len(r.locations))

	rep := render.Report{
		RunID:       runID,
		GeneratedAt: now,
	}

	var digests []narrative.LocationDigest
	for _, loc := range r.locations {
		lr := r.processLocation(ctx, loc, now)
		rep.Locations = append(rep.Locations, lr)
		if lr.Err != nil {
			r.logger.Printf("pass %s: %s dilewati: %v", runID, loc.Name, lr.Err)
			continue
		}
		digests = append(digests, r.buildDigest(loc, lr))
	}

	digest := narrative.Digest{
		UpdatedAt: now.In(forecast.WIB).Format("2006-01-02 15:04:05 WIB"),
		Locations: digests,
	}
	rep.Narrative = r.generator.Generate(ctx, digest)

	text := r.renderer.Render(rep)
	fmt.Fprintln(r.output, text)

	r.mu.Lock()
	r.passes++
	classified := rep.ClassifiedCount()
	if classified == 0 {
		r.failures++
	}
	r.lastText = text
	r.lastReport = &rep
	r.mu.Unlock()

	if classified == 0 {
		return text, ErrNoLocationClassified
	}

	if r.notifier != nil {
		if err := r.notifier.Deliver(ctx, text); err != nil {
			// Delivery failures are logged, never fatal to the run.
			r.logger.Printf("pass %s: %v", runID, err)
		}
	}

	r.logger.Printf("pass %s selesai: %d/%d lokasi", runID, classified, len(r.locations))
	return text, nil
}

func (r *Runner) processLocation(ctx context.Context, loc geo.Location, now time.Time) render.LocationReport {
	lr := render.LocationReport{Location: loc}

	records, err := r.forecasts.FetchHourly(ctx, loc, now, forecastHours)
	if err != nil {
		lr.Err = err
		return lr
	}
	lr.Records = records

	if r.ensembles != nil {
		// Ensemble spread is an enrichment; a failed fetch leaves the
		// DevEns fields NaN and the pass moves on.
		devs, derr := r.ensembles.FetchDeviation(ctx, loc, now, forecastHours)
		if derr != nil {
			r.logger.Printf("%s: deviasi ensemble dilewati: %v", loc.Name, derr)
		} else {
			for i := range records {
				if i < len(devs) {
					records[i].DevEnsMM = devs[i]
				}
			}
		}
	}

	if r.nowcasts != nil {
		// ActiveWarning degrades to nil on any feed problem.
		lr.Warning, _ = r.nowcasts.ActiveWarning(ctx, loc.Name)
	}

	for _, rec := range records {
		res, cerr := verdict.Classify(rec, lr.Warning, r.thresholds)
		h := summary.Hour{Time: rec.Time}
		if cerr != nil {
			h.Missing = true
		} else {
			h.Verdict = res.Verdict
			h.Reason = res.Reason
		}
		lr.Hours = append(lr.Hours, h)
	}

	lr.Summaries = summary.Windows(loc.Name, lr.Hours)
	return lr
}

func (r *Runner) buildDigest(loc geo.Location, lr render.LocationReport) narrative.LocationDigest {
	first := lr.Records[0]
	sky := verdict.SkyLabel(first.PrecipProbPct, first.PrecipMM, first.Acc3MM, first.Acc6MM,
		first.HumidityPct, first.UVIndex, first.Time.Hour())

	var devHours []string
	for _, rec := range lr.Records {
		if verdict.ClassifyDeviation(rec.DevMM, rec.DevEnsMM, r.thresholds) != verdict.DevNone {
			devHours = append(devHours, rec.Time.Format("15:04"))
		}
	}

	warning := ""
	if lr.Warning != nil {
		warning = lr.Warning.Summary()
	}
	return narrative.BuildLocationDigest(loc.Name, first.TempC, sky, lr.Hours, devHours, warning)
}

// LastReport returns the most recent rendered report text, if any pass has
// completed.
func (r *Runner) LastReport() (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastText, r.lastText != ""
}

// Stats reports pass counters for the status endpoint.
func (r *Runner) Stats() (passes, failures int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.passes, r.failures
}
