package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hamed0406/httpprobe/internal/domain"
)

// Store persists records to a local SQLite file.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the database at path and makes sure the schema exists.
func New(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("unable to open sqlite database: %w", err)
	}
	// Single connection prevents concurrent write contention in SQLite.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS probe_results (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id         TEXT NOT NULL,
	iter_number    INTEGER NOT NULL,
	transaction_id TEXT NOT NULL,
	started_at     TEXT NOT NULL,
	server         TEXT NOT NULL,
	http_request   TEXT NOT NULL,
	tcp_success    BOOLEAN NOT NULL,
	tcp_time_ms    REAL NOT NULL,
	http_time_ms   REAL NOT NULL,
	total_time_ms  REAL NOT NULL,
	pagesize       INTEGER NOT NULL,
	is_success     BOOLEAN NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_probe_results_server ON probe_results (server, id DESC);
CREATE INDEX IF NOT EXISTS idx_probe_results_run ON probe_results (run_id, iter_number);
`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

func (s *Store) Append(ctx context.Context, r *domain.Record) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO probe_results
	(run_id, iter_number, transaction_id, started_at, server, http_request,
	 tcp_success, tcp_time_ms, http_time_ms, total_time_ms, pagesize, is_success)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Iteration, r.TransactionID, r.StartedAt.UTC().Format(time.RFC3339Nano),
		r.Server, r.HTTPRequest, r.TCPSuccess, r.TCPTimeMS, r.HTTPTimeMS, r.TotalTimeMS,
		r.PageSize, r.IsSuccess,
	)
	if err != nil {
		return fmt.Errorf("insert probe result: %w", err)
	}
	return nil
}

// Latest returns the newest row per server across all runs in the file.
func (s *Store) Latest(ctx context.Context) ([]domain.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT run_id, iter_number, transaction_id, started_at, server, http_request,
       tcp_success, tcp_time_ms, http_time_ms, total_time_ms, pagesize, is_success
  FROM probe_results
 WHERE id IN (SELECT MAX(id) FROM probe_results GROUP BY server)
 ORDER BY server`)
	if err != nil {
		return nil, fmt.Errorf("latest: %w", err)
	}
	defer rows.Close()

	var out []domain.Record
	for rows.Next() {
		var (
			r         domain.Record
			startedAt string
		)
		if err := rows.Scan(&r.RunID, &r.Iteration, &r.TransactionID, &startedAt, &r.Server,
			&r.HTTPRequest, &r.TCPSuccess, &r.TCPTimeMS, &r.HTTPTimeMS, &r.TotalTimeMS,
			&r.PageSize, &r.IsSuccess); err != nil {
			return nil, fmt.Errorf("scan latest: %w", err)
		}
		if r.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
			return nil, fmt.Errorf("parse started_at: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
