// Package config persists the user's metronome settings between runs. Only
// plain scalars live here; everything is clamped again by the engine setters
// on the way in, so a hand-edited file can never wedge the app.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/robmorgan/pulse/rhythm"
)

// Settings are the knobs worth remembering between sessions.
type Settings struct {
	Tempo       int     `mapstructure:"tempo" yaml:"tempo"`
	BeatsPerBar int     `mapstructure:"beats_per_bar" yaml:"beats_per_bar"`
	Subdivision int     `mapstructure:"subdivision" yaml:"subdivision"`
	Volume      float64 `mapstructure:"volume" yaml:"volume"`
}

// Default returns the settings a fresh install starts with.
func Default() Settings {
	return Settings{
		Tempo:       rhythm.DefaultTempo,
		BeatsPerBar: rhythm.DefaultBeatsPerBar,
		Subdivision: rhythm.DefaultSubdivision,
		Volume:      rhythm.DefaultVolume,
	}
}

// DefaultPath returns the per-user settings file location.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locating user config dir: %w", err)
	}
	return filepath.Join(dir, "pulse", "settings.yaml"), nil
}

// Load reads settings from path. A missing file is not an error: first runs
// get the defaults. Keys absent from the file keep their default value.
func Load(path string) (Settings, error) {
	d := Default()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return d, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetDefault("tempo", d.Tempo)
	v.SetDefault("beats_per_bar", d.BeatsPerBar)
	v.SetDefault("subdivision", d.Subdivision)
	v.SetDefault("volume", d.Volume)

	if err := v.ReadInConfig(); err != nil {
		return d, fmt.Errorf("reading settings file %s: %w", path, err)
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return d, fmt.Errorf("unmarshaling settings: %w", err)
	}
	return s, nil
}

// Save writes settings to path, creating parent directories as needed.
func Save(path string, s Settings) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating settings dir: %w", err)
	}

	v := viper.New()
	v.Set("tempo", s.Tempo)
	v.Set("beats_per_bar", s.BeatsPerBar)
	v.Set("subdivision", s.Subdivision)
	v.Set("volume", s.Volume)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing settings file %s: %w", path, err)
	}
	return nil
}
