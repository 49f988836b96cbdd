package repo

import (
	"context"

	"go.uber.org/multierr"

	"github.com/hamed0406/httpprobe/internal/domain"
)

// RecordStore is implemented by every output the coordinator writes to.
type RecordStore interface {
	Append(ctx context.Context, r *domain.Record) error
	Close() error
}

// LatestReader returns the most recent record per server.
type LatestReader interface {
	Latest(ctx context.Context) ([]domain.Record, error)
}

// Multi fans one record out to every store. A failing store does not stop
// the others; all errors are combined.
type Multi []RecordStore

func (m Multi) Append(ctx context.Context, r *domain.Record) error {
	var err error
	for _, s := range m {
		if s == nil {
			continue
		}
		err = multierr.Append(err, s.Append(ctx, r))
	}
	return err
}

func (m Multi) Close() error {
	var err error
	for _, s := range m {
		if s == nil {
			continue
		}
		err = multierr.Append(err, s.Close())
	}
	return err
}
