package cli

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"github.com/paraglidehq/flake"
	"github.com/paraglidehq/flake/postgres"
)

func (a *app) generateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate identifiers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd)
			if err != nil {
				return err
			}
			n, _ := cmd.Flags().GetInt("count")
			if n < 1 {
				return fmt.Errorf("count must be positive, got %d", n)
			}
			codec, err := a.newCodec(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			format := cfg.IDFormat()
			for i := 0; i < n; i++ {
				fmt.Fprintln(a.out, codec.Generate().Format(format))
			}
			a.log.WithField("count", n).Debug("generated identifiers")
			return nil
		},
	}
	cmd.Flags().IntP("count", "n", 1, "number of identifiers to generate")
	return cmd
}

type extracted struct {
	ID        string    `json:"id"`
	Value     uint64    `json:"value"`
	Timestamp int64     `json:"timestamp"`
	Date      time.Time `json:"date"`
	MachineID uint64    `json:"machineId"`
	Sequence  uint64    `json:"sequence"`
}

func (a *app) extractCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "extract <id>...",
		Short: "Decompose identifiers into timestamp, machine id and sequence",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd)
			if err != nil {
				return err
			}
			codec, err := a.newCodec(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			format := cfg.IDFormat()
			enc := json.NewEncoder(a.out)
			for _, s := range args {
				id, err := flake.ParseAs(s, format)
				if err != nil {
					return fmt.Errorf("parse %q as %s: %w", s, format, err)
				}
				p := codec.Extract(id)
				err = enc.Encode(extracted{
					ID:        s,
					Value:     id.Uint64(),
					Timestamp: p.Timestamp,
					Date:      codec.ExtractDate(id).UTC(),
					MachineID: p.MachineID,
					Sequence:  p.Sequence,
				})
				if err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func (a *app) migrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Record the layout in Postgres and install the SQL helper functions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("dsn") {
				cfg.DSN, _ = cmd.Flags().GetString("dsn")
			}
			if cfg.DSN == "" {
				return errors.New("migrate: a dsn is required (--dsn or FLAKE_DSN)")
			}
			codec, err := a.newCodec(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			db, err := sql.Open("postgres", cfg.DSN)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := postgres.Migrate(cmd.Context(), db, codec.Layout()); err != nil {
				return err
			}
			a.log.WithField("layout", fmt.Sprintf("%+v", codec.Layout())).Info("migration complete")
			return nil
		},
	}
	cmd.Flags().String("dsn", "", "Postgres connection string")
	return cmd
}
