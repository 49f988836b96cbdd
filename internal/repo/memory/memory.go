package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/hamed0406/httpprobe/internal/domain"
)

// Store keeps every record of the run in memory; the status API reads from it.
type Store struct {
	mu      sync.RWMutex
	records []domain.Record
}

func New() *Store {
	return &Store{records: make([]domain.Record, 0, 128)}
}

func (m *Store) Append(ctx context.Context, r *domain.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, *r)
	return nil
}

// Records returns a copy of everything appended so far, in append order.
func (m *Store) Records() []domain.Record {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Record, len(m.records))
	copy(out, m.records)
	return out
}

// Latest returns the newest record per server, sorted by server.
func (m *Store) Latest(ctx context.Context) ([]domain.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	latest := make(map[string]domain.Record)
	for _, r := range m.records {
		cur, ok := latest[r.Server]
		if !ok || r.Iteration > cur.Iteration ||
			(r.Iteration == cur.Iteration && !r.StartedAt.Before(cur.StartedAt)) {
			latest[r.Server] = r
		}
	}

	out := make([]domain.Record, 0, len(latest))
	for _, r := range latest {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Server < out[j].Server })
	return out, nil
}

func (m *Store) Close() error { return nil }
