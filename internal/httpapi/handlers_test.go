package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/httpprobe/internal/domain"
	"github.com/hamed0406/httpprobe/internal/repo/memory"
)

// ---- test helpers ----

type failingReader struct{}

func (failingReader) Latest(context.Context) ([]domain.Record, error) {
	return nil, errors.New("db down")
}

func get(t *testing.T, h http.Handler, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func seeded(t *testing.T) *memory.Store {
	t.Helper()
	store := memory.New()
	started := time.Date(2025, 8, 18, 12, 0, 0, 0, time.UTC)
	for i, srv := range []string{"a.com", "b.com", "a.com"} {
		rec := &domain.Record{
			RunID:         "run-1",
			Iteration:     i / 2,
			StartedAt:     started,
			TransactionID: strconv.Itoa(i),
			Server:        srv,
			TCPSuccess:    true,
			IsSuccess:     i != 2,
		}
		if err := store.Append(context.Background(), rec); err != nil {
			t.Fatal(err)
		}
	}
	return store
}

// ---- tests ----

func TestHealthz_NoAuth(t *testing.T) {
	h := NewServer(zap.NewNop(), memory.New(), nil, "run").Router("tok", 10_000, 10_000)
	rec := get(t, h, "/healthz", "")
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("healthz: %d %q", rec.Code, rec.Body.String())
	}
}

func TestListTargets(t *testing.T) {
	h := NewServer(zap.NewNop(), memory.New(), []string{"a.com", "b.com/x"}, "run-1").Router("tok", 10_000, 10_000)

	if rec := get(t, h, "/api/targets", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("want 401 without token, got %d", rec.Code)
	}

	rec := get(t, h, "/api/targets", "tok")
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}
	var body struct {
		RunID   string   `json:"run_id"`
		Targets []string `json:"targets"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.RunID != "run-1" || len(body.Targets) != 2 || body.Targets[1] != "b.com/x" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestLatestResults_OnePerServer(t *testing.T) {
	h := NewServer(zap.NewNop(), seeded(t), nil, "run-1").Router("", 10_000, 10_000)

	rec := get(t, h, "/api/results/latest", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}
	var recs []domain.Record
	if err := json.NewDecoder(rec.Body).Decode(&recs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("want 2 servers, got %d", len(recs))
	}
	for _, r := range recs {
		if r.Server == "a.com" && (r.Iteration != 1 || r.IsSuccess) {
			t.Fatalf("a.com should report its latest (failed) record: %+v", r)
		}
	}
}

func TestLatestResults_StoreError(t *testing.T) {
	h := NewServer(zap.NewNop(), failingReader{}, nil, "run").Router("", 10_000, 10_000)
	if rec := get(t, h, "/api/results/latest", ""); rec.Code != http.StatusInternalServerError {
		t.Fatalf("want 500, got %d", rec.Code)
	}
}

func TestRateLimited(t *testing.T) {
	h := NewServer(zap.NewNop(), memory.New(), nil, "run").Router("", 60, 1)
	if rec := get(t, h, "/api/targets", ""); rec.Code != http.StatusOK {
		t.Fatalf("first: %d", rec.Code)
	}
	if rec := get(t, h, "/api/targets", ""); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second: want 429, got %d", rec.Code)
	}
	// healthz sits outside the limiter
	if rec := get(t, h, "/healthz", ""); rec.Code != http.StatusOK {
		t.Fatalf("healthz: %d", rec.Code)
	}
}
