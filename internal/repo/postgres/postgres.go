package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/hamed0406/httpprobe/internal/domain"
	"github.com/hamed0406/httpprobe/internal/repo"
)

var _ repo.RecordStore = (*Store)(nil)
var _ repo.LatestReader = (*Store)(nil)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS probe_results (
  id             BIGSERIAL PRIMARY KEY,
  run_id         TEXT NOT NULL,
  iter_number    INTEGER NOT NULL,
  transaction_id TEXT NOT NULL,
  started_at     TIMESTAMPTZ NOT NULL,
  server         TEXT NOT NULL,
  http_request   TEXT NOT NULL,
  tcp_success    BOOLEAN NOT NULL,
  tcp_time_ms    DOUBLE PRECISION NOT NULL,
  http_time_ms   DOUBLE PRECISION NOT NULL,
  total_time_ms  DOUBLE PRECISION NOT NULL,
  pagesize       INTEGER NOT NULL,
  is_success     BOOLEAN NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_probe_results_server_id ON probe_results (server, id DESC);
CREATE INDEX IF NOT EXISTS idx_probe_results_run       ON probe_results (run_id, iter_number);
`

type Store struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

func New(ctx context.Context, dsn string, log *zap.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctxPing); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	log.Info("postgres_ready")
	return &Store{pool: pool, log: log}, nil
}

func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

func (s *Store) Append(ctx context.Context, r *domain.Record) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO probe_results
		   (run_id, iter_number, transaction_id, started_at, server, http_request,
		    tcp_success, tcp_time_ms, http_time_ms, total_time_ms, pagesize, is_success)
		 VALUES
		   ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		r.RunID, r.Iteration, r.TransactionID, r.StartedAt, r.Server, r.HTTPRequest,
		r.TCPSuccess, r.TCPTimeMS, r.HTTPTimeMS, r.TotalTimeMS, r.PageSize, r.IsSuccess,
	)
	if err != nil {
		return fmt.Errorf("insert probe result: %w", err)
	}
	return nil
}

func (s *Store) Latest(ctx context.Context) ([]domain.Record, error) {
	rows, err := s.pool.Query(ctx, `
SELECT DISTINCT ON (server)
       run_id, iter_number, transaction_id, started_at, server, http_request,
       tcp_success, tcp_time_ms, http_time_ms, total_time_ms, pagesize, is_success
  FROM probe_results
 ORDER BY server, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("latest: %w", err)
	}
	defer rows.Close()

	var out []domain.Record
	for rows.Next() {
		var r domain.Record
		if err := rows.Scan(&r.RunID, &r.Iteration, &r.TransactionID, &r.StartedAt, &r.Server,
			&r.HTTPRequest, &r.TCPSuccess, &r.TCPTimeMS, &r.HTTPTimeMS, &r.TotalTimeMS,
			&r.PageSize, &r.IsSuccess); err != nil {
			return nil, fmt.Errorf("scan latest: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
