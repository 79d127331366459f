// Package cli implements the flake command.
package cli

import (
	"context"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/paraglidehq/flake"
	"github.com/paraglidehq/flake/clock"
	"github.com/paraglidehq/flake/clock/ntp"
	"github.com/paraglidehq/flake/internal/config"
)

type app struct {
	out io.Writer
	log *logrus.Logger

	// newClock builds the time source; replaced in tests.
	newClock func(ctx context.Context, cfg config.Config) clock.Source
}

// NewRoot constructs the root command writing results to out and logs to log.
func NewRoot(out io.Writer, log *logrus.Logger) *cobra.Command {
	a := &app{out: out, log: log}
	a.newClock = a.systemClock
	return a.root()
}

func (a *app) root() *cobra.Command {
	root := &cobra.Command{
		Use:           "flake",
		Short:         "Generate and inspect time-ordered 64-bit identifiers",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.String("config", "", "path to a JSON or YAML config file")
	pf.String("log-level", "", "log level (debug, info, warn, error)")
	pf.String("format", "", "identifier format (base58, crockford, base64, hash, decimal)")
	pf.Int64("machine-id", 0, "machine identifier")
	pf.Int64("epoch", 0, "custom epoch in milliseconds since the Unix epoch")
	pf.Int("machine-bits", flake.DefaultMachineIDBits, "machine id field width")
	pf.Int("sequence-bits", flake.DefaultSequenceBits, "sequence field width")
	pf.Bool("strict", false, "reject an invalid epoch or bit budget instead of using defaults")
	pf.String("ntp-server", "", "correct the clock against this NTP server")

	root.AddCommand(a.generateCommand())
	root.AddCommand(a.extractCommand())
	root.AddCommand(a.migrateCommand())
	return root
}

// loadConfig resolves file, then environment, then explicitly set flags.
func (a *app) loadConfig(cmd *cobra.Command) (config.Config, error) {
	flags := cmd.Flags()
	path, _ := flags.GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	config.FromEnv(&cfg)

	if flags.Changed("log-level") {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}
	if flags.Changed("format") {
		cfg.Format, _ = flags.GetString("format")
	}
	if flags.Changed("machine-id") {
		cfg.MachineID, _ = flags.GetInt64("machine-id")
	}
	if flags.Changed("epoch") {
		cfg.Epoch, _ = flags.GetInt64("epoch")
	}
	if flags.Changed("machine-bits") {
		cfg.MachineIDBits, _ = flags.GetInt("machine-bits")
	}
	if flags.Changed("sequence-bits") {
		cfg.SequenceBits, _ = flags.GetInt("sequence-bits")
	}
	if flags.Changed("strict") {
		cfg.Strict, _ = flags.GetBool("strict")
	}
	if flags.Changed("ntp-server") {
		cfg.NTP.Server, _ = flags.GetString("ntp-server")
	}

	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		a.log.SetLevel(lvl)
	} else {
		a.log.WithField("level", cfg.LogLevel).Warn("unknown log level, keeping current")
	}
	return cfg, cfg.Validate()
}

func (a *app) newCodec(ctx context.Context, cfg config.Config) (*flake.Codec, error) {
	c, err := flake.NewCodec(cfg.MachineID, cfg.Options(a.newClock(ctx, cfg))...)
	if err != nil {
		return nil, err
	}
	l := c.Layout()
	a.log.WithFields(logrus.Fields{
		"machine_id":    c.MachineID(),
		"epoch":         l.Epoch,
		"machine_bits":  l.MachineIDBits,
		"sequence_bits": l.SequenceBits,
	}).Debug("codec ready")
	if int(l.MachineIDBits) != cfg.MachineIDBits || int(l.SequenceBits) != cfg.SequenceBits || l.Epoch != cfg.Epoch {
		a.log.Warn("layout configuration was corrected; use --strict to fail instead")
	}
	return c, nil
}

// systemClock is the wall clock, corrected once through NTP when a server is
// configured. A failed sync falls back to the uncorrected clock.
func (a *app) systemClock(ctx context.Context, cfg config.Config) clock.Source {
	if cfg.NTP.Server == "" {
		return clock.System
	}
	c := clock.NewOffset(clock.System)
	s := ntp.NewSyncer(c,
		ntp.WithServer(cfg.NTP.Server),
		ntp.WithTimeout(cfg.NTP.Timeout.Std()),
		ntp.WithInterval(cfg.NTP.Interval.Std()),
		ntp.WithLogger(a.log),
	)
	if err := s.SyncOnce(ctx); err != nil {
		a.log.WithError(err).Warn("ntp sync failed, using local clock")
	}
	return c
}
