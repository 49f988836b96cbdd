package csvfile

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"sync"

	"go.uber.org/multierr"

	"github.com/hamed0406/httpprobe/internal/domain"
)

const Delimiter = ';'

var Header = []string{
	"iter_number", "transaction_id", "datetime", "server", "http_request",
	"tcp_success", "tcp_time (msec)", "http_time (msec)", "total_time (msec)",
	"pagesize", "is_success",
}

// Store appends records to a ';'-delimited CSV file. Every row is flushed
// as soon as it is written so a crashed run keeps what it measured.
type Store struct {
	mu sync.Mutex
	f  *os.File
	w  *csv.Writer
}

// Open truncates path and writes the header row.
func Open(path string) (*Store, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	w := csv.NewWriter(f)
	w.Comma = Delimiter
	s := &Store{f: f, w: w}
	if err := s.writeRow(Header); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	return s, nil
}

func (s *Store) Append(ctx context.Context, r *domain.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.writeRow(Row(r)); err != nil {
		return fmt.Errorf("write csv row: %w", err)
	}
	return nil
}

func (s *Store) writeRow(row []string) error {
	if err := s.w.Write(row); err != nil {
		return err
	}
	s.w.Flush()
	return s.w.Error()
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.w.Flush()
	return multierr.Append(s.w.Error(), s.f.Close())
}

// Row renders r in Header order.
func Row(r *domain.Record) []string {
	return []string{
		strconv.Itoa(r.Iteration),
		r.TransactionID,
		r.Datetime(),
		r.Server,
		r.HTTPRequest,
		boolInt(r.TCPSuccess),
		millis(r.TCPTimeMS),
		millis(r.HTTPTimeMS),
		millis(r.TotalTimeMS),
		strconv.Itoa(r.PageSize),
		boolInt(r.IsSuccess),
	}
}

func millis(ms float64) string { return strconv.FormatFloat(ms, 'f', 3, 64) }

func boolInt(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
