package store

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ehdc-llpg/addrparse/internal/address"
)

const schema = `
CREATE TABLE IF NOT EXISTS parse_run (
	run_id      UUID PRIMARY KEY,
	source      TEXT NOT NULL,
	kind        TEXT NOT NULL,
	locale      TEXT NOT NULL,
	started_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	finished_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS parsed_address (
	id          BIGSERIAL PRIMARY KEY,
	run_id      UUID NOT NULL REFERENCES parse_run(run_id) ON DELETE CASCADE,
	line_no     INTEGER NOT NULL,
	raw_address TEXT NOT NULL,
	locale      TEXT NOT NULL,
	matched     BOOLEAN NOT NULL,
	fields      JSONB,
	error       TEXT,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_parsed_address_run ON parsed_address(run_id);
`

// Run is one batch of parsed addresses
type Run struct {
	ID         uuid.UUID  `db:"run_id"`
	Source     string     `db:"source"`
	Kind       string     `db:"kind"`
	Locale     string     `db:"locale"`
	StartedAt  time.Time  `db:"started_at"`
	FinishedAt *time.Time `db:"finished_at"`
}

// Result is the outcome for one input line
type Result struct {
	RunID   uuid.UUID  `db:"run_id"`
	LineNo  int        `db:"line_no"`
	Raw     string     `db:"raw_address"`
	Locale  string     `db:"locale"`
	Matched bool       `db:"matched"`
	Fields  JSONRecord `db:"fields"`
	Error   string     `db:"error"`
}

// RunStats counts the results of a run
type RunStats struct {
	Total     int `db:"total"`
	Matched   int `db:"matched"`
	Unmatched int `db:"unmatched"`
	Errors    int `db:"errors"`
}

// JSONRecord stores a record in a JSONB column; nil is SQL NULL
type JSONRecord address.Record

// Value implements driver.Valuer
func (r JSONRecord) Value() (driver.Value, error) {
	if r == nil {
		return nil, nil
	}
	b, err := json.Marshal(map[string]string(r))
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Scan implements sql.Scanner
func (r *JSONRecord) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*r = nil
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into JSONRecord", src)
	}

	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("invalid record json: %w", err)
	}
	*r = JSONRecord(m)
	return nil
}

// Store persists parse runs in Postgres
type Store struct {
	db *sqlx.DB
}

// New wraps an open connection
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// EnsureSchema creates the tables if they are missing
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// CreateRun starts a run with a fresh id
func (s *Store) CreateRun(ctx context.Context, source, kind, locale string) (*Run, error) {
	run := &Run{
		ID:        uuid.New(),
		Source:    source,
		Kind:      kind,
		Locale:    locale,
		StartedAt: time.Now().UTC(),
	}

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO parse_run (run_id, source, kind, locale, started_at)
		VALUES (:run_id, :source, :kind, :locale, :started_at)
	`, run)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	return run, nil
}

// FinishRun stamps the run as complete
func (s *Store) FinishRun(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `UPDATE parse_run SET finished_at = now() WHERE run_id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to finish run %s: %w", id, err)
	}
	return nil
}

// SaveResult records one parsed line
func (s *Store) SaveResult(ctx context.Context, res Result) error {
	res.Matched = res.Fields != nil
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO parsed_address (run_id, line_no, raw_address, locale, matched, fields, error)
		VALUES (:run_id, :line_no, :raw_address, :locale, :matched, :fields, NULLIF(:error, ''))
	`, res)
	if err != nil {
		return fmt.Errorf("failed to save line %d: %w", res.LineNo, err)
	}
	return nil
}

// Results lists the stored lines of a run in input order
func (s *Store) Results(ctx context.Context, id uuid.UUID) ([]Result, error) {
	var out []Result
	err := s.db.SelectContext(ctx, &out, `
		SELECT run_id, line_no, raw_address, locale, matched, fields, COALESCE(error, '') AS error
		FROM parsed_address
		WHERE run_id = $1
		ORDER BY line_no
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list results for %s: %w", id, err)
	}
	return out, nil
}

// RunStats counts matched, unmatched and failed lines of a run
func (s *Store) RunStats(ctx context.Context, id uuid.UUID) (*RunStats, error) {
	var stats RunStats
	err := s.db.GetContext(ctx, &stats, `
		SELECT
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE matched) AS matched,
			COUNT(*) FILTER (WHERE NOT matched AND error IS NULL) AS unmatched,
			COUNT(*) FILTER (WHERE error IS NOT NULL) AS errors
		FROM parsed_address
		WHERE run_id = $1
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to count results for %s: %w", id, err)
	}
	return &stats, nil
}
