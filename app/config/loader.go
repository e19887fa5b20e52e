package config

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// Supported source kinds
const (
	KindHacktivity = "hacktivity"
	KindRSS        = "rss"
)

// Load reads the source profile from path. A missing file is not an
// error: the built-in defaults describe the public HackerOne feed.
func Load(path string) (*Profile, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		slog.Debug("No profile file found, using defaults", "path", path)
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var profile Profile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	setDefaults(&profile)

	if err := validate(&profile); err != nil {
		return nil, fmt.Errorf("invalid profile %s: %w", path, err)
	}

	slog.Debug("Loaded profile", "path", path, "kind", profile.Source.Kind)

	return &profile, nil
}

// Default returns the profile used when no file is present
func Default() *Profile {
	var profile Profile
	setDefaults(&profile)
	return &profile
}

// setDefaults applies default values to the profile
func setDefaults(profile *Profile) {
	if profile.Source.Kind == "" {
		profile.Source.Kind = KindHacktivity
	}
	if profile.Source.WindowSize == 0 {
		profile.Source.WindowSize = 10
	}
	if profile.Source.Timeout == 0 {
		profile.Source.Timeout = 10 // seconds
	}
	if profile.Notify.Color == 0 {
		profile.Notify.Color = 3447003 // 0x3498db
	}
	if profile.Notify.Footer == "" {
		profile.Notify.Footer = "HackerOne Monitor"
	}
	if profile.Notify.Timeout == 0 {
		profile.Notify.Timeout = 10 // seconds
	}
	if profile.Notify.RatePerMinute == 0 {
		profile.Notify.RatePerMinute = 30
	}
	if profile.Notify.PreviewMaxChars == 0 {
		profile.Notify.PreviewMaxChars = 280
	}
}

// validate validates the profile
func validate(profile *Profile) error {
	switch profile.Source.Kind {
	case KindHacktivity:
		// URL is optional, the adapter falls back to the public endpoint
	case KindRSS:
		if profile.Source.URL == "" {
			return fmt.Errorf("source URL is required for kind %q", KindRSS)
		}
	default:
		return fmt.Errorf("unknown source kind: %s", profile.Source.Kind)
	}

	if profile.Source.WindowSize < 1 || profile.Source.WindowSize > 100 {
		return fmt.Errorf("window size must be between 1 and 100")
	}
	if profile.Source.Timeout < 0 {
		return fmt.Errorf("source timeout must be non-negative")
	}
	if profile.Notify.Color < 0 {
		return fmt.Errorf("color must be non-negative")
	}
	if profile.Notify.Timeout < 0 {
		return fmt.Errorf("notify timeout must be non-negative")
	}
	if profile.Notify.RatePerMinute < 1 {
		return fmt.Errorf("rate per minute must be positive")
	}
	if profile.Notify.PreviewMaxChars < 1 {
		return fmt.Errorf("preview max chars must be positive")
	}

	return nil
}
