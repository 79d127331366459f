package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paraglidehq/flake"
	"github.com/paraglidehq/flake/clock"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 10, cfg.MachineIDBits)
	assert.Equal(t, 12, cfg.SequenceBits)
	assert.NoError(t, cfg.Validate())
}

func TestLoadYAML(t *testing.T) {
	p := writeFile(t, "flake.yaml", `
machineId: 42
epoch: 1288834974657
machineIdBits: 8
strict: true
format: crockford
ntp:
  server: time.example
  interval: 30s
`)
	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, int64(42), cfg.MachineID)
	assert.Equal(t, int64(1288834974657), cfg.Epoch)
	assert.Equal(t, 8, cfg.MachineIDBits)
	assert.Equal(t, 12, cfg.SequenceBits, "unset fields keep their defaults")
	assert.True(t, cfg.Strict)
	assert.Equal(t, "crockford", cfg.Format)
	assert.Equal(t, "time.example", cfg.NTP.Server)
	assert.Equal(t, 30*time.Second, cfg.NTP.Interval.Std())
	assert.Equal(t, 5*time.Second, cfg.NTP.Timeout.Std())
}

func TestLoadJSON(t *testing.T) {
	p := writeFile(t, "flake.json", `{"machineId": 7, "sequenceBits": 6, "ntp": {"timeout": "2s"}}`)
	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, int64(7), cfg.MachineID)
	assert.Equal(t, 6, cfg.SequenceBits)
	assert.Equal(t, 2*time.Second, cfg.NTP.Timeout.Std())
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, errors.Is(err, os.ErrNotExist))

	_, err = Load(writeFile(t, "bad.json", `{"machineId": "seven"}`))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "bad.yml", "ntp:\n  interval: soon\n"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Format = "roman"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.NTP.Server = "time.example"
	cfg.NTP.Interval = 0
	assert.Error(t, cfg.Validate())
}

func TestIDFormat(t *testing.T) {
	cfg := Default()
	assert.Equal(t, flake.FormatDecimal, cfg.IDFormat())
	cfg.Format = "hex"
	assert.Equal(t, flake.FormatHash, cfg.IDFormat())
	cfg.Format = "roman"
	assert.Equal(t, flake.FormatDecimal, cfg.IDFormat())
}

func TestFromEnv(t *testing.T) {
	t.Setenv("FLAKE_MACHINE_ID", "9")
	t.Setenv("FLAKE_EPOCH", "1000")
	t.Setenv("FLAKE_MACHINE_ID_BITS", "5")
	t.Setenv("FLAKE_SEQUENCE_BITS", "not-a-number")
	t.Setenv("FLAKE_STRICT", "true")
	t.Setenv("FLAKE_FORMAT", "hash")
	t.Setenv("FLAKE_LOG_LEVEL", "debug")
	t.Setenv("FLAKE_NTP_SERVER", "time.example")
	t.Setenv("FLAKE_NTP_INTERVAL", "1m")
	t.Setenv("FLAKE_DSN", "postgres://localhost/ids")

	cfg := Default()
	FromEnv(&cfg)

	assert.Equal(t, int64(9), cfg.MachineID)
	assert.Equal(t, int64(1000), cfg.Epoch)
	assert.Equal(t, 5, cfg.MachineIDBits)
	assert.Equal(t, 12, cfg.SequenceBits, "invalid values are ignored")
	assert.True(t, cfg.Strict)
	assert.Equal(t, "hash", cfg.Format)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "time.example", cfg.NTP.Server)
	assert.Equal(t, time.Minute, cfg.NTP.Interval.Std())
	assert.Equal(t, "postgres://localhost/ids", cfg.DSN)
}

func TestOptions(t *testing.T) {
	cfg := Default()
	cfg.MachineID = 3
	cfg.Epoch = 1_000
	cfg.MachineIDBits = 6
	cfg.SequenceBits = 4

	m := clock.NewManual(2_000)
	c, err := flake.NewCodec(cfg.MachineID, cfg.Options(m)...)
	require.NoError(t, err)
	assert.Equal(t, flake.Layout{Epoch: 1_000, MachineIDBits: 6, SequenceBits: 4}, c.Layout())

	p := c.Extract(c.Generate())
	assert.Equal(t, flake.Parts{Timestamp: 2_000, MachineID: 3, Sequence: 0}, p)

	cfg.Strict = true
	cfg.SequenceBits = 20
	_, err = flake.NewCodec(cfg.MachineID, cfg.Options(m)...)
	assert.ErrorIs(t, err, flake.ErrInvalidConfiguration)
}

func TestDurationText(t *testing.T) {
	b, err := Duration(90 * time.Second).MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "1m30s", string(b))

	var d Duration
	require.NoError(t, d.UnmarshalText(b))
	assert.Equal(t, 90*time.Second, d.Std())
}
