// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Game    GameConfig    `toml:"game"`
	Typing  TypingConfig  `toml:"typing"`
	Victims VictimsConfig `toml:"victims"`
	Tools   ToolsConfig   `toml:"tools"`
	Log     LogConfig     `toml:"log"`
}

// GameConfig maps round-level settings.
type GameConfig struct {
	Ruleset    *string `toml:"ruleset"`
	Lanes      *int    `toml:"lanes"`
	RoundSecs  *int    `toml:"round-secs"`
	ScoreTick  *int    `toml:"score-tick-secs"`
	WordBank   *string `toml:"word-bank"`
	Sound      *bool   `toml:"sound"`
	Difficulty *string `toml:"difficulty"`
}

// TypingConfig maps falling-word and scoring settings.
type TypingConfig struct {
	MinFallMs   *int     `toml:"min-fall-ms"`
	MaxFallMs   *int     `toml:"max-fall-ms"`
	WordHeal    *int     `toml:"word-heal"`
	ErrorDamage *int     `toml:"error-damage"`
	MissDamage  *int     `toml:"miss-damage"`
	WordScore   *int     `toml:"word-score"`
	FocusWeak   *bool    `toml:"focus-weak"`
	WeakTop     *int     `toml:"weak-top"`
	WeakFactor  *float64 `toml:"weak-factor"`
	WeakWindow  *int     `toml:"weak-window"`
}

// VictimsConfig maps victim manager settings.
type VictimsConfig struct {
	Slots     *int `toml:"slots"`
	MaxHealth *int `toml:"max-health"`
	SpawnSecs *int `toml:"spawn-secs"`
}

// ToolsConfig maps tool gating settings.
type ToolsConfig struct {
	Mode        *string `toml:"mode"`
	QueueLength *int    `toml:"queue-length"`
}

// LogConfig maps logging settings.
type LogConfig struct {
	File  *string `toml:"file"`
	Level *string `toml:"level"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}
