// Package config provides configuration loading from YAML files.
package config

import (
	"os"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Game     GameConfig     `yaml:"game"`
	Playback PlaybackConfig `yaml:"playback"`
	Spotify  SpotifyConfig  `yaml:"spotify"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig represents HTTP server configuration.
type ServerConfig struct {
	Addr string `yaml:"addr" default:":8080"`
}

// GameConfig represents quiz session configuration.
type GameConfig struct {
	QuestionCount int `yaml:"question_count" default:"10" validate:"gte=1,lte=50"`
}

// PlaybackConfig selects and configures the playback backend.
type PlaybackConfig struct {
	// Type is "preview" (client-side 30s previews) or "device"
	// (Spotify Connect streaming with a 15s listen window).
	Type     string         `yaml:"type" default:"preview" validate:"oneof=preview device"`
	Settings map[string]any `yaml:"settings,omitempty"`
}

// DeviceSettings are the settings for the "device" backend type.
type DeviceSettings struct {
	DeviceID        string `yaml:"device_id" mapstructure:"device_id"`
	ListenWindowSec int    `yaml:"listen_window_sec" mapstructure:"listen_window_sec" default:"15" validate:"gte=5,lte=60"`
}

// PreviewSettings are the settings for the "preview" backend type.
type PreviewSettings struct {
	ListenWindowSec int `yaml:"listen_window_sec" mapstructure:"listen_window_sec" default:"30" validate:"gte=5,lte=60"`
}

// SpotifyConfig represents Spotify API configuration.
type SpotifyConfig struct {
	ClientID     string `yaml:"client_id" validate:"required"`
	ClientSecret string `yaml:"client_secret" validate:"required"`
	RefreshToken string `yaml:"refresh_token" validate:"required"`
}

// LogConfig represents logging configuration.
type LogConfig struct {
	Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
	Output string `yaml:"output" default:"stdout"`
}

// Load loads configuration from a YAML file.
// Environment variables take precedence over file values for credentials.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	cfg.overrideFromEnv()

	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("SPOTIFY_CLIENT_ID"); v != "" {
		c.Spotify.ClientID = v
	}
	if v := os.Getenv("SPOTIFY_CLIENT_SECRET"); v != "" {
		c.Spotify.ClientSecret = v
	}
	if v := os.Getenv("SPOTIFY_REFRESH_TOKEN"); v != "" {
		c.Spotify.RefreshToken = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}
	// Backend settings are validated on decode so a typo fails at startup,
	// not on first playback.
	switch c.Playback.Type {
	case "device":
		if _, err := c.DeviceSettings(); err != nil {
			return err
		}
	case "preview":
		if _, err := c.PreviewSettings(); err != nil {
			return err
		}
	}
	return nil
}

// DeviceSettings decodes the playback settings for the "device" backend.
func (c *Config) DeviceSettings() (*DeviceSettings, error) {
	var s DeviceSettings
	if err := mapstructure.Decode(c.Playback.Settings, &s); err != nil {
		return nil, errors.Wrap(err, "failed to decode device playback settings")
	}
	if err := defaults.Set(&s); err != nil {
		return nil, errors.Wrap(err, "failed to set device settings defaults")
	}
	if err := validator.New().Struct(&s); err != nil {
		return nil, errors.Wrap(err, "device settings validation failed")
	}
	return &s, nil
}

// PreviewSettings decodes the playback settings for the "preview" backend.
func (c *Config) PreviewSettings() (*PreviewSettings, error) {
	var s PreviewSettings
	if err := mapstructure.Decode(c.Playback.Settings, &s); err != nil {
		return nil, errors.Wrap(err, "failed to decode preview playback settings")
	}
	if err := defaults.Set(&s); err != nil {
		return nil, errors.Wrap(err, "failed to set preview settings defaults")
	}
	if err := validator.New().Struct(&s); err != nil {
		return nil, errors.Wrap(err, "preview settings validation failed")
	}
	return &s, nil
}
