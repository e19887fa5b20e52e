package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Delivery configuration
	WebhookURL  string `long:"webhook-url" env:"DISCORD_WEBHOOK_URL" description:"Discord webhook URL notifications are delivered to (required)"`
	ForceResend bool   `long:"force-resend" env:"FORCE_RESEND" description:"Resend the entire current feed window once, ignoring the stored cursor"`

	// Polling configuration
	Once         bool   `long:"once" env:"RUN_ONCE" description:"Run a single poll cycle and exit"`
	PollInterval int    `long:"interval" env:"POLL_INTERVAL" default:"600" description:"Seconds between poll cycles"`
	ConfigFile   string `long:"config" env:"CONFIG_FILE" default:"./relay.yml" description:"Path to the source profile file (optional)"`

	// Cursor storage configuration
	StateDriver string `long:"state-driver" env:"STATE_DRIVER" default:"file" description:"Cursor storage driver (file or sqlite)"`
	StatePath   string `long:"state-path" env:"STATE_PATH" default:"./last_disclosed_id.txt" description:"Cursor storage location"`

	// Application configuration
	Port string `long:"port" env:"PORT" default:"8080" description:"HTTP status server port"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		WebhookURL:   raw.WebhookURL,
		ForceResend:  raw.ForceResend,
		Once:         raw.Once,
		PollInterval: raw.PollInterval,
		ConfigFile:   raw.ConfigFile,
		StateDriver:  raw.StateDriver,
		StatePath:    raw.StatePath,
		Port:         raw.Port,
		UserAgent:    raw.UserAgent,
		Timezone:     raw.Timezone,
		Debug:        raw.Debug,
		Version:      GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
			fmt.Printf("Timezone configured: %s\n", timezone)
		}
	}
	return nil
}
