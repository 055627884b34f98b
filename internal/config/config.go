package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"radar-cuaca/internal/geo"
)

var validate = validator.New()

// Flags holds the parsed CLI arguments. Flags override environment values.
type Flags struct {
	Daemon      bool
	Once        bool
	IntervalSec int
	Compact     bool
	NoColor     bool
	NoUnicode   bool
	Names       string
	Koordinat   string
	Level       string
	OpenAIModel string
	ListenAddr  string
}

// AppConfig is the resolved configuration for one invocation. Credentials are
// passed explicitly into the components that need them; nothing reads the
// environment after Load returns.
type AppConfig struct {
	OpenAIAPIKey string
	OpenAIModel  string

	TelegramToken  string
	TelegramChatID string

	LogDir string

	Daemon   bool
	Interval time.Duration `validate:"gte=0"`

	Compact   bool
	NoColor   bool
	NoUnicode bool

	ListenAddr string

	Locations []geo.Location `validate:"required,min=1,dive"`
}

// Load reads configuration from the environment and merges the CLI flags.
// Presence or absence of each credential toggles the matching optional
// behaviour; it never alters classification.
func Load(flags Flags) (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	cfg := &AppConfig{}

	cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	cfg.OpenAIModel = getenvDefault("OPENAI_MODEL", "gpt-4o-mini")
	if flags.OpenAIModel != "" {
		cfg.OpenAIModel = flags.OpenAIModel
	}

	// The original deployment used both naming schemes; accept either.
	cfg.TelegramToken = firstEnv("TG_BOT_TOKEN", "BOT_TOKEN")
	cfg.TelegramChatID = firstEnv("TG_CHAT_ID", "CHAT_ID")

	cfg.LogDir = getenvDefault("RADAR_LOG_DIR", "")

	intervalStr := getenvDefault("FETCH_INTERVAL", "1h")
	interval, err := time.ParseDuration(intervalStr)
	if err != nil {
		return nil, fmt.Errorf("invalid FETCH_INTERVAL: %w", err)
	}
	cfg.Interval = interval
	if flags.IntervalSec > 0 {
		cfg.Interval = time.Duration(flags.IntervalSec) * time.Second
	}

	cfg.Daemon = flags.Daemon && !flags.Once
	cfg.Compact = flags.Compact
	cfg.NoColor = flags.NoColor
	cfg.NoUnicode = flags.NoUnicode
	cfg.ListenAddr = flags.ListenAddr

	if !geo.ValidLevel(flags.Level) {
		return nil, fmt.Errorf("invalid --level %q", flags.Level)
	}

	locs, err := resolveLocations(flags)
	if err != nil {
		return nil, err
	}
	cfg.Locations = locs

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// resolveLocations picks targets in precedence order: explicit coordinates,
// then names, then the default Jabodetabek set. Individual bad targets are
// logged and skipped; only an empty final set is fatal.
func resolveLocations(flags Flags) ([]geo.Location, error) {
	if flags.Koordinat != "" {
		locs, errs := geo.ParseCoordinateList(flags.Koordinat)
		logParseErrors(errs)
		if len(locs) == 0 {
			return nil, fmt.Errorf("no valid targets in --koordinat")
		}
		return applyLevel(locs, flags.Level), nil
	}

	if flags.Names != "" {
		locs, errs := geo.ParseNames(flags.Names)
		logParseErrors(errs)
		if len(locs) == 0 {
			log.Printf("no valid targets in --names; falling back to defaults")
			return geo.DefaultLocations(), nil
		}
		return applyLevel(locs, flags.Level), nil
	}

	return geo.DefaultLocations(), nil
}

func applyLevel(locs []geo.Location, level string) []geo.Location {
	if level == "" {
		return locs
	}
	out := make([]geo.Location, len(locs))
	for i, loc := range locs {
		if loc.Level == "" {
			loc.Level = geo.AdminLevel(level)
		}
		out[i] = loc
	}
	return out
}

func logParseErrors(errs []error) {
	for _, err := range errs {
		log.Printf("target skipped: %v", err)
	}
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}
