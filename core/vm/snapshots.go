package vm

import (
	"sync"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/core/state"
)

// engineSnapshot is everything Restore needs to rewind a GethEngine.
type engineSnapshot struct {
	state   *state.StateDB
	headers int
	txIndex int
}

// snapshotRegistry hands out unique, non-zero ids for saved engine states.
// Ids start from 1 so the zero value can mean "none".
type snapshotRegistry struct {
	entries sync.Map // map[SnapshotID]*engineSnapshot
	seq     atomic.Uint64
}

func (r *snapshotRegistry) register(s *engineSnapshot) SnapshotID {
	if s == nil {
		return 0
	}
	id := SnapshotID(r.seq.Add(1))
	r.entries.Store(id, s)
	return id
}

// take removes the entry and returns it. A snapshot can only be restored once.
func (r *snapshotRegistry) take(id SnapshotID) (*engineSnapshot, bool) {
	if v, ok := r.entries.LoadAndDelete(id); ok {
		return v.(*engineSnapshot), true
	}
	return nil, false
}
