// Package config handles engine configuration loading and management.
package config

import (
	"fmt"

	"go.uber.org/multierr"
)

// Config holds all engine settings.
type Config struct {
	Window   WindowConfig   `yaml:"window"`
	Audio    AudioConfig    `yaml:"audio"`
	Scene    SceneConfig    `yaml:"scene"`
	Controls ControlsConfig `yaml:"controls"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// WindowConfig holds display settings.
type WindowConfig struct {
	Title      string `yaml:"title"`
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	Fullscreen bool   `yaml:"fullscreen"`
	VSync      bool   `yaml:"vsync"`
	Samples    int    `yaml:"samples"` // MSAA samples, 0 disables
}

// AudioConfig holds audio settings.
type AudioConfig struct {
	MasterVolume float64 `yaml:"master_volume"`
	MusicVolume  float64 `yaml:"music_volume"`
	SFXVolume    float64 `yaml:"sfx_volume"`
	Muted        bool    `yaml:"muted"`
}

// SceneConfig locates the scene manifest and its assets.
type SceneConfig struct {
	Path        string   `yaml:"path"`         // Scene manifest (YAML)
	SearchPaths []string `yaml:"search_paths"` // Asset directories, last = highest priority
}

// ControlsConfig holds the default control script settings. A scene's own
// control script overrides them.
type ControlsConfig struct {
	Mode       string  `yaml:"mode"` // none, first or third
	MoveStep   float32 `yaml:"move_step"`
	StrafeStep float32 `yaml:"strafe_step"`
	PitchStep  float32 `yaml:"pitch_step"`
	YawStep    float32 `yaml:"yaw_step"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Window: WindowConfig{
			Title:      "EngineBase",
			Width:      1280,
			Height:     720,
			Fullscreen: false,
			VSync:      true,
			Samples:    4,
		},
		Audio: AudioConfig{
			MasterVolume: 0.8,
			MusicVolume:  0.7,
			SFXVolume:    0.8,
			Muted:        false,
		},
		Scene: SceneConfig{
			Path:        "scene.yaml",
			SearchPaths: []string{"."},
		},
		Controls: ControlsConfig{
			Mode:       "none",
			MoveStep:   1,
			StrafeStep: 0.2,
			PitchStep:  0.01,
			YawStep:    0.01,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate reports every out-of-range setting.
func (c *Config) Validate() error {
	var err error
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		err = multierr.Append(err, fmt.Errorf("window size %dx%d must be positive", c.Window.Width, c.Window.Height))
	}
	if c.Window.Samples < 0 {
		err = multierr.Append(err, fmt.Errorf("window samples %d must not be negative", c.Window.Samples))
	}
	for name, v := range map[string]float64{
		"master_volume": c.Audio.MasterVolume,
		"music_volume":  c.Audio.MusicVolume,
		"sfx_volume":    c.Audio.SFXVolume,
	} {
		if v < 0 || v > 1 {
			err = multierr.Append(err, fmt.Errorf("audio %s %v outside [0, 1]", name, v))
		}
	}
	switch c.Controls.Mode {
	case "", "none", "first", "third":
	default:
		err = multierr.Append(err, fmt.Errorf("controls mode %q: want none, first or third", c.Controls.Mode))
	}
	if c.Scene.Path == "" {
		err = multierr.Append(err, fmt.Errorf("scene path is empty"))
	}
	return err
}
