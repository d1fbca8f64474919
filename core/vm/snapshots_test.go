package vm

import (
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/state"
)

// TestSnapshotRegistry verifies that register returns unique ids and take
// removes the entry.
func TestSnapshotRegistry(t *testing.T) {
	var r snapshotRegistry

	s, err := state.New(common.Hash{}, state.NewDatabaseForTesting())
	if err != nil {
		t.Fatalf("failed to create StateDB: %v", err)
	}
	if id := r.register(nil); id != 0 {
		t.Fatalf("nil snapshot must not be registered, got id %d", id)
	}
	id := r.register(&engineSnapshot{state: s})
	if id == 0 {
		t.Fatalf("id must be non-zero")
	}
	if _, ok := r.take(id); !ok {
		t.Fatalf("take failed for valid id")
	}
	if _, ok := r.take(id); ok {
		t.Fatalf("id should have been removed by the first take")
	}
}

// TestSnapshotRegistryRace ensures that concurrent registrations are race-free
// and never collide.
func TestSnapshotRegistryRace(t *testing.T) {
	const n = 100
	var r snapshotRegistry

	wg := sync.WaitGroup{}
	wg.Add(n)

	ids := make(chan SnapshotID, n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			ids <- r.register(&engineSnapshot{headers: 1})
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[SnapshotID]bool, n)
	for id := range ids {
		if seen[id] {
			t.Fatalf("duplicate id %d", id)
		}
		seen[id] = true
		if _, ok := r.take(id); !ok {
			t.Fatalf("take failed for id %d", id)
		}
	}
}
