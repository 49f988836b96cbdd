package probe

import (
	"sync"
	"testing"
)

func TestTxnIDs_UniqueUnderConcurrency(t *testing.T) {
	var ids TxnIDs
	const n = 200

	var mu sync.Mutex
	seen := make(map[string]bool, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := ids.Next()
			mu.Lock()
			defer mu.Unlock()
			if seen[id] {
				t.Errorf("duplicate id %s", id)
			}
			seen[id] = true
		}()
	}
	wg.Wait()
	if len(seen) != n {
		t.Fatalf("want %d ids, got %d", n, len(seen))
	}
}
