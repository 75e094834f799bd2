// Package config holds the optional YAML settings file for playback
// defaults. Command-line flags always win over file values; merging
// happens in the command layer, not here.
package config

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tweetown/tweetown/internal/util"
)

// Settings are the tunables a user can pin in a config file instead of
// repeating flags. Zero values are filled from Default before validation.
type Settings struct {
	// Speed is the initial playback multiplier.
	Speed float64 `yaml:"speed,omitempty"`
	// MaxEventGapMS caps the scaled wait between consecutive events.
	MaxEventGapMS int64 `yaml:"max_event_gap_ms,omitempty"`
	// LeaderboardSize is how many authors the ranking panel shows.
	LeaderboardSize int `yaml:"leaderboard_size,omitempty"`
	// RefreshHz is the dashboard redraw rate.
	RefreshHz int `yaml:"refresh_hz,omitempty"`
	// Accent names the highlight color used for headers and the
	// progress bar. See AccentCode for the accepted names.
	Accent string `yaml:"accent,omitempty"`
}

// Default returns the settings used when no file and no flags are given.
func Default() Settings {
	return Settings{
		Speed:           1.0,
		MaxEventGapMS:   3000,
		LeaderboardSize: 5,
		RefreshHz:       20,
		Accent:          "cyan",
	}
}

var accentCodes = map[string]string{
	"cyan":    util.ColorCyan,
	"blue":    util.ColorBlue,
	"green":   util.ColorGreen,
	"yellow":  util.ColorYellow,
	"magenta": util.ColorMagenta,
	"red":     util.ColorRed,
	"white":   util.ColorWhite,
}

// Load reads path, layers it over the defaults, and validates the result.
// A missing file is an error; callers only pass paths the user asked for.
func Load(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("read config: %w", err)
	}

	s := Default()
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, fmt.Errorf("config %s: %w", path, err)
	}
	return s, nil
}

// Validate rejects values playback cannot honor.
func (s Settings) Validate() error {
	if s.Speed <= 0 {
		return fmt.Errorf("speed must be positive, got %g", s.Speed)
	}
	if s.MaxEventGapMS < 0 {
		return fmt.Errorf("max_event_gap_ms cannot be negative, got %d", s.MaxEventGapMS)
	}
	if s.LeaderboardSize < 1 {
		return fmt.Errorf("leaderboard_size must be at least 1, got %d", s.LeaderboardSize)
	}
	if s.RefreshHz < 1 || s.RefreshHz > 120 {
		return fmt.Errorf("refresh_hz must be within 1..120, got %d", s.RefreshHz)
	}
	if _, ok := accentCodes[s.Accent]; !ok {
		return fmt.Errorf("unknown accent %q, valid values: %s", s.Accent, strings.Join(accentNames(), ", "))
	}
	return nil
}

// MaxGap returns the gap cap as a duration.
func (s Settings) MaxGap() time.Duration {
	return time.Duration(s.MaxEventGapMS) * time.Millisecond
}

// AccentCode resolves the accent name to its ANSI code, falling back to
// the default accent for names validation never saw.
func (s Settings) AccentCode() string {
	if code, ok := accentCodes[s.Accent]; ok {
		return code
	}
	return accentCodes[Default().Accent]
}

func accentNames() []string {
	names := make([]string, 0, len(accentCodes))
	for name := range accentCodes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
