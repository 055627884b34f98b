package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "radar-cuaca/internal/api/http"
	"radar-cuaca/internal/config"
	"radar-cuaca/internal/forecast"
	"radar-cuaca/internal/narrative"
	"radar-cuaca/internal/notify"
	"radar-cuaca/internal/nowcast"
	"radar-cuaca/internal/render"
	"radar-cuaca/internal/runlog"
	"radar-cuaca/internal/runner"
	"radar-cuaca/internal/verdict"
)

func parseFlags() config.Flags {
	var flags config.Flags
	flag.BoolVar(&flags.Daemon, "daemon", false, "jalan terus dengan interval tetap")
	flag.BoolVar(&flags.Once, "once", false, "satu kali jalan lalu keluar (mengalahkan --daemon)")
	flag.IntVar(&flags.IntervalSec, "interval", 0, "interval daemon dalam detik (default FETCH_INTERVAL)")
	flag.BoolVar(&flags.Compact, "compact", false, "tabel ringkas")
	flag.BoolVar(&flags.NoColor, "no-color", false, "tanpa warna ANSI")
	flag.BoolVar(&flags.NoUnicode, "no-unicode", false, "tanpa simbol unicode")
	flag.StringVar(&flags.Names, "names", "", "daftar nama lokasi dipisah koma, atau @file")
	flag.StringVar(&flags.Koordinat, "koordinat", "", "label:lat,lon dipisah titik koma")
	flag.StringVar(&flags.Level, "level", "", "level administrasi target (provinsi..kelurahan)")
	flag.StringVar(&flags.OpenAIModel, "openai-model", "", "model untuk narasi (default OPENAI_MODEL)")
	flag.StringVar(&flags.ListenAddr, "listen", "", "alamat endpoint status daemon, mis. :8080")
	flag.Parse()
	return flags
}

func main() {
	os.Exit(run(parseFlags()))
}

// run carries the real program body so deferred cleanups always execute
// before the process exits.
func run(flags config.Flags) int {
	cfg, err := config.Load(flags)
	if err != nil {
		log.Printf("failed to load config: %v", err)
		return 1
	}

	logDir := cfg.LogDir
	if logDir == "" {
		logDir = runlog.DefaultDir()
	}
	runLogger, closeLog := runlog.NewLogger(logDir)
	defer func() {
		if err := closeLog(); err != nil {
			log.Printf("close run log: %v", err)
		}
	}()

	// Shared HTTP client for outbound calls.
	httpClient := &http.Client{
		Timeout: 15 * time.Second,
	}

	var tgRespLog io.Writer
	if f, err := runlog.OpenAppend(logDir, "tg_resp.log"); err != nil {
		runLogger.Printf("tg_resp.log tidak bisa dibuka: %v", err)
	} else {
		tgRespLog = f
		defer f.Close()
	}

	var svc narrative.Service
	if cfg.OpenAIAPIKey != "" {
		svc = narrative.NewOpenAIService(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	}

	passRunner := runner.New(runner.Config{
		Locations: cfg.Locations,
		Forecasts: forecast.NewOpenMeteoSource(httpClient),
		Ensembles: forecast.NewEnsembleSource(httpClient),
		Nowcasts:  nowcast.NewBMKGSource(httpClient),
		Generator: narrative.NewGenerator(svc, runLogger),
		Renderer: render.New(render.Options{
			Color:   !cfg.NoColor,
			Unicode: !cfg.NoUnicode,
			Compact: cfg.Compact,
		}),
		Notifier:   notify.NewTelegram(cfg.TelegramToken, cfg.TelegramChatID, httpClient, tgRespLog, runLogger),
		Thresholds: verdict.DefaultThresholds(),
		Logger:     runLogger,
	})

	if !cfg.Daemon {
		return runOnce(passRunner, runLogger)
	}

	daemon := runner.NewDaemon(passRunner, cfg.Interval)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := daemon.Start(ctx); err != nil {
		runLogger.Printf("failed to start daemon: %v", err)
		return 1
	}
	defer daemon.Stop()

	var app *fiber.App
	if cfg.ListenAddr != "" {
		app = newStatusApp(passRunner)
		go func() {
			if err := app.Listen(cfg.ListenAddr); err != nil {
				runLogger.Printf("fiber server stopped: %v", err)
			}
		}()
	}

	<-ctx.Done()
	runLogger.Printf("sinyal berhenti diterima")

	if app != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			runLogger.Printf("error during shutdown: %v", err)
		}
	}
	return 0
}

func runOnce(passRunner *runner.Runner, runLogger *log.Logger) int {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if _, err := passRunner.RunPass(ctx); err != nil {
		if errors.Is(err, runner.ErrNoLocationClassified) {
			runLogger.Printf("semua lokasi gagal: %v", err)
			return 1
		}
		runLogger.Printf("pass failed: %v", err)
		return 1
	}
	return 0
}

// newStatusApp builds the read-only status server exposed in daemon mode.
func newStatusApp(run *runner.Runner) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "radar-cuaca",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	app.Use(logger.New())
	app.Use(recover.New())

	httpapi.RegisterRoutes(app, run)
	return app
}
