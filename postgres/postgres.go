// Package postgres records a flake layout in Postgres and installs SQL
// functions that decode identifiers the same way Layout.Extract does.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/paraglidehq/flake"
)

var ErrLayoutMismatch = errors.New("flake: database layout does not match application layout")

// Migrate runs the idempotent migration for layout.
// If the database already has a different layout, returns ErrLayoutMismatch.
func Migrate(ctx context.Context, db *sql.DB, layout flake.Layout) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS _flake_layout (
			id int PRIMARY KEY DEFAULT 1 CHECK (id = 1),
			epoch bigint NOT NULL,
			machine_id_bits int NOT NULL,
			sequence_bits int NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("flake: create layout table: %w", err)
	}

	stored, err := GetLayout(ctx, db)
	switch {
	case err == nil:
		if stored != layout {
			return fmt.Errorf("%w: db has epoch=%d machine_id_bits=%d sequence_bits=%d, app has epoch=%d machine_id_bits=%d sequence_bits=%d",
				ErrLayoutMismatch, stored.Epoch, stored.MachineIDBits, stored.SequenceBits,
				layout.Epoch, layout.MachineIDBits, layout.SequenceBits)
		}
	case errors.Is(err, sql.ErrNoRows):
		_, err = db.ExecContext(ctx, `INSERT INTO _flake_layout (epoch, machine_id_bits, sequence_bits) VALUES ($1, $2, $3)`,
			layout.Epoch, int(layout.MachineIDBits), int(layout.SequenceBits))
		if err != nil {
			return fmt.Errorf("flake: insert layout: %w", err)
		}
	default:
		return fmt.Errorf("flake: read layout: %w", err)
	}

	if _, err := db.ExecContext(ctx, generateSQL(layout)); err != nil {
		return fmt.Errorf("flake: run migrations: %w", err)
	}
	return nil
}

// GetLayout reads the layout recorded by Migrate.
func GetLayout(ctx context.Context, db *sql.DB) (flake.Layout, error) {
	var layout flake.Layout
	var machineIDBits, sequenceBits int
	err := db.QueryRowContext(ctx, `SELECT epoch, machine_id_bits, sequence_bits FROM _flake_layout`).
		Scan(&layout.Epoch, &machineIDBits, &sequenceBits)
	if err != nil {
		return layout, err
	}
	layout.MachineIDBits = uint8(machineIDBits)
	layout.SequenceBits = uint8(sequenceBits)
	return layout, nil
}

// generateSQL renders the helper functions. Identifiers are stored as bigint
// holding the raw 64 bits, so the timestamp is read with a logical shift.
func generateSQL(l flake.Layout) string {
	return fmt.Sprintf(`
-- Constants
CREATE OR REPLACE FUNCTION nil_flake() RETURNS bigint LANGUAGE sql IMMUTABLE AS $$ SELECT 0::bigint; $$;
CREATE OR REPLACE FUNCTION is_nil_flake(id bigint) RETURNS boolean LANGUAGE sql IMMUTABLE AS $$ SELECT id = 0; $$;

-- Extract components
CREATE OR REPLACE FUNCTION flake_timestamp(id bigint)
  RETURNS bigint
  LANGUAGE sql
  IMMUTABLE PARALLEL SAFE STRICT LEAKPROOF
  AS $$
  SELECT (((id::bit(64)) >> %d)::bigint) + %d;
$$;

CREATE OR REPLACE FUNCTION flake_date(id bigint)
  RETURNS timestamptz
  LANGUAGE sql
  IMMUTABLE PARALLEL SAFE STRICT LEAKPROOF
  AS $$
  SELECT to_timestamp(flake_timestamp(id)::numeric / 1000);
$$;

CREATE OR REPLACE FUNCTION flake_machine_id(id bigint)
  RETURNS bigint
  LANGUAGE sql
  IMMUTABLE PARALLEL SAFE STRICT LEAKPROOF
  AS $$
  SELECT (id >> %d) & %d;
$$;

CREATE OR REPLACE FUNCTION flake_sequence(id bigint)
  RETURNS bigint
  LANGUAGE sql
  IMMUTABLE PARALLEL SAFE STRICT LEAKPROOF
  AS $$
  SELECT id & %d;
$$;

-- Base58 encoding/decoding (non-negative ids)
CREATE OR REPLACE FUNCTION b58_to_flake(encoded_id varchar(11))
  RETURNS bigint
  LANGUAGE plpgsql
  IMMUTABLE PARALLEL SAFE STRICT LEAKPROOF
  AS $$
DECLARE
  alphabet char(58) := '123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz';
  c char(1);
  p int;
  result bigint := 0;
BEGIN
  FOR i IN 1..char_length(encoded_id) LOOP
    c := substring(encoded_id FROM i FOR 1);
    p := position(c IN alphabet);
    IF p = 0 THEN
      RAISE EXCEPTION 'Invalid base58 character: %%', c;
    END IF;
    result := (result * 58) + (p - 1);
  END LOOP;
  RETURN result;
END;
$$;

CREATE OR REPLACE FUNCTION flake_to_b58(id bigint)
  RETURNS varchar(11)
  LANGUAGE plpgsql
  IMMUTABLE PARALLEL SAFE STRICT LEAKPROOF
  AS $$
DECLARE
  alphabet char(58) := '123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz';
  result varchar(11) := '';
  remainder int;
BEGIN
  IF id = 0 THEN
    RETURN '1';
  END IF;
  WHILE id > 0 LOOP
    remainder := (id %% 58)::int;
    result := substring(alphabet FROM remainder + 1 FOR 1) || result;
    id := id / 58;
  END LOOP;
  RETURN result;
END;
$$;

-- Base64 encoding/decoding
CREATE OR REPLACE FUNCTION b64_to_flake(encoded_id varchar(12))
  RETURNS bigint
  LANGUAGE sql
  IMMUTABLE PARALLEL SAFE STRICT LEAKPROOF
  AS $$
  SELECT ('x' || encode(decode(encoded_id, 'base64'), 'hex'))::bit(64)::bigint;
$$;

CREATE OR REPLACE FUNCTION flake_to_b64(id bigint)
  RETURNS varchar(12)
  LANGUAGE sql
  IMMUTABLE PARALLEL SAFE STRICT LEAKPROOF
  AS $$
  SELECT encode(decode(lpad(to_hex(id), 16, '0'), 'hex'), 'base64');
$$;

-- Hex encoding/decoding
CREATE OR REPLACE FUNCTION hex_to_flake(encoded_id text)
  RETURNS bigint
  LANGUAGE sql
  IMMUTABLE PARALLEL SAFE STRICT LEAKPROOF
  AS $$
  SELECT ('x' || lpad(encoded_id, 16, '0'))::bit(64)::bigint;
$$;

CREATE OR REPLACE FUNCTION flake_to_hex(id bigint)
  RETURNS text
  LANGUAGE sql
  IMMUTABLE PARALLEL SAFE STRICT LEAKPROOF
  AS $$
  SELECT to_hex(id);
$$;
`,
		l.TimeShift(),    // time shift in flake_timestamp
		l.Epoch,          // epoch in flake_timestamp
		l.SequenceBits,   // machine id shift in flake_machine_id
		l.MaxMachineID(), // machine id mask in flake_machine_id
		l.MaxSequence(),  // sequence mask in flake_sequence
	)
}

