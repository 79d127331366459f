// Package config loads the flake command's settings from a file and the
// environment and turns them into codec options.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/paraglidehq/flake"
	"github.com/paraglidehq/flake/clock"
)

// Config is the top-level configuration loaded from file/env.
type Config struct {
	MachineID     int64  `json:"machineId" yaml:"machineId"`
	Epoch         int64  `json:"epoch" yaml:"epoch"`
	MachineIDBits int    `json:"machineIdBits" yaml:"machineIdBits"`
	SequenceBits  int    `json:"sequenceBits" yaml:"sequenceBits"`
	Strict        bool   `json:"strict" yaml:"strict"`
	Format        string `json:"format" yaml:"format"`
	LogLevel      string `json:"logLevel" yaml:"logLevel"`
	NTP           NTP    `json:"ntp" yaml:"ntp"`
	DSN           string `json:"dsn" yaml:"dsn"`
}

// NTP configures clock correction. An empty Server disables it.
type NTP struct {
	Server   string   `json:"server" yaml:"server"`
	Interval Duration `json:"interval" yaml:"interval"`
	Timeout  Duration `json:"timeout" yaml:"timeout"`
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		MachineIDBits: flake.DefaultMachineIDBits,
		SequenceBits:  flake.DefaultSequenceBits,
		Format:        string(flake.FormatDecimal),
		LogLevel:      "info",
		NTP: NTP{
			Interval: Duration(10 * time.Minute),
			Timeout:  Duration(5 * time.Second),
		},
	}
}

// Load reads configuration from a JSON or YAML file (by extension) on top of
// the defaults. If path is empty, returns defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	return cfg, nil
}

// Validate checks the fields the codec itself does not police.
func (c Config) Validate() error {
	if _, err := flake.ParseFormat(c.Format); err != nil {
		return err
	}
	if c.NTP.Server != "" && c.NTP.Interval <= 0 {
		return errors.New("config: ntp interval must be positive")
	}
	return nil
}

// IDFormat returns the configured format, falling back to decimal when it is
// not valid.
func (c Config) IDFormat() flake.Format {
	f, err := flake.ParseFormat(c.Format)
	if err != nil {
		return flake.FormatDecimal
	}
	return f
}

// Options converts the configuration into codec options using src as the
// time source.
func (c Config) Options(src clock.Source) []flake.Option {
	return []flake.Option{
		flake.WithEpoch(c.Epoch),
		flake.WithBits(c.MachineIDBits, c.SequenceBits),
		flake.WithStrict(c.Strict),
		flake.WithClock(src),
	}
}

// Duration is a time.Duration that reads "30s"-style strings from files.
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return fmt.Errorf("config: invalid duration %q: %w", b, err)
	}
	*d = Duration(v)
	return nil
}
