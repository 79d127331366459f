package config

import (
	"os"
	"strconv"
	"time"
)

// FromEnv overlays FLAKE_* environment variables onto cfg.
// Unparseable values are ignored.
func FromEnv(cfg *Config) {
	if v := os.Getenv("FLAKE_MACHINE_ID"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.MachineID = n
		}
	}
	if v := os.Getenv("FLAKE_EPOCH"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Epoch = n
		}
	}
	if v := os.Getenv("FLAKE_MACHINE_ID_BITS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MachineIDBits = n
		}
	}
	if v := os.Getenv("FLAKE_SEQUENCE_BITS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.SequenceBits = n
		}
	}
	if v := os.Getenv("FLAKE_STRICT"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Strict = b
		}
	}
	if v := os.Getenv("FLAKE_FORMAT"); v != "" {
		cfg.Format = v
	}
	if v := os.Getenv("FLAKE_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("FLAKE_NTP_SERVER"); v != "" {
		cfg.NTP.Server = v
	}
	if v := os.Getenv("FLAKE_NTP_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.NTP.Interval = Duration(d)
		}
	}
	if v := os.Getenv("FLAKE_DSN"); v != "" {
		cfg.DSN = v
	}
}
