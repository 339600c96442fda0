// Package config loads handtrack settings from a YAML file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ayusman/handtrack/internal/detector"
	"github.com/ayusman/handtrack/internal/tracker"
)

// Config is the top-level configuration.
type Config struct {
	Detector detector.Config `yaml:"detector"`
	Tracker  tracker.Config  `yaml:"tracker"`
	Server   ServerConfig    `yaml:"server"`
	Store    StoreConfig     `yaml:"store"`
	Log      LogConfig       `yaml:"log"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	// Addr is the listen address for handtrack -serve unless -addr is given.
	Addr string `yaml:"addr"`
	// MaxImageBytes limits the size of uploaded images.
	MaxImageBytes int64 `yaml:"max_image_bytes"`
}

// StoreConfig configures snapshot persistence. An empty Path disables it.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// LogConfig selects the logger flavour.
type LogConfig struct {
	Development bool `yaml:"development"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Detector: detector.DefaultConfig(),
		Tracker:  tracker.DefaultConfig(),
		Server: ServerConfig{
			Addr:          ":8080",
			MaxImageBytes: 10 << 20,
		},
		Store: StoreConfig{
			Path: "~/.handtrack/handtrack.db",
		},
	}
}

// Load reads path on top of Default. An empty path returns the defaults.
// Unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	storePath, err := expandHome(cfg.Store.Path)
	if err != nil {
		return Config{}, err
	}
	cfg.Store.Path = storePath

	return cfg, nil
}

// Validate checks the settings handtrack itself interprets. Model thresholds
// are passed to the model untouched.
func (c Config) Validate() error {
	var errs []error

	switch c.Tracker.ColorOrder {
	case tracker.ColorBGR, tracker.ColorBGRA, tracker.ColorRGB, tracker.ColorRGBA, tracker.ColorGray:
	default:
		errs = append(errs, fmt.Errorf("tracker.color_order: %w: %q", tracker.ErrUnknownColorOrder, string(c.Tracker.ColorOrder)))
	}
	if c.Tracker.BoxMargin < 0 {
		errs = append(errs, fmt.Errorf("tracker.box_margin must not be negative, got %d", c.Tracker.BoxMargin))
	}
	if c.Server.MaxImageBytes <= 0 {
		errs = append(errs, fmt.Errorf("server.max_image_bytes must be positive, got %d", c.Server.MaxImageBytes))
	}

	return errors.Join(errs...)
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("expand %s: %w", path, err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
