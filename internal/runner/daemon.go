package runner

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
)

// Daemon repeats passes at a fixed interval until stopped. A failed pass is
// logged and the loop continues: the availability guarantee is "keep trying".
type Daemon struct {
	scheduler *gocron.Scheduler
	runner    *Runner
	interval  time.Duration
}

// NewDaemon creates a Daemon around the runner.
func NewDaemon(r *Runner, interval time.Duration) *Daemon {
	return &Daemon{
		scheduler: gocron.NewScheduler(time.UTC),
		runner:    r,
		interval:  interval,
	}
}

// Start schedules the periodic pass and starts the scheduler. ctx bounds
// every individual pass; cancelling it abandons the in-flight pass without
// touching the one after. Callers stop the loop itself via Stop.
func (d *Daemon) Start(ctx context.Context) error {
	interval := d.interval
	if interval <= 0 {
		interval = time.Hour
	}

	_, err := d.scheduler.Every(interval).StartImmediately().Do(func() {
		passCtx, cancel := context.WithTimeout(ctx, passTimeout)
		defer cancel()

		if _, err := d.runner.RunPass(passCtx); err != nil {
			d.runner.logger.Printf("daemon: pass gagal: %v", err)
		}
	})
	if err != nil {
		return err
	}

	d.scheduler.StartAsync()
	return nil
}

// Stop halts the scheduler and cancels future passes.
func (d *Daemon) Stop() {
	if d.scheduler != nil {
		d.scheduler.Stop()
	}
}
