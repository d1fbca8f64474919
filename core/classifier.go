package core

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rpc"
)

// latest is the identifier used when a request names no block.
var latest = rpc.BlockNumberOrHashWithNumber(rpc.LatestBlockNumber)

// isLatest decides whether id refers to the engine's most recently produced
// block. head is the engine's head counter and lastHash the hash of block
// head-1. Pending is treated as latest; other tags are never local.
func isLatest(id rpc.BlockNumberOrHash, head uint64, lastHash common.Hash) bool {
	if hash, ok := id.Hash(); ok {
		return lastHash != (common.Hash{}) && hash == lastHash
	}
	num, ok := id.Number()
	if !ok {
		return false
	}
	switch {
	case num == rpc.LatestBlockNumber, num == rpc.PendingBlockNumber:
		return true
	case num < 0:
		return false
	default:
		return head > 0 && uint64(num) == head-1
	}
}

func blockOrLatest(block *rpc.BlockNumberOrHash) rpc.BlockNumberOrHash {
	if block == nil {
		return latest
	}
	return *block
}

// IsLatest reports whether a request for block would be served locally.
func (f *Forge) IsLatest(ctx context.Context, block *rpc.BlockNumberOrHash) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.routeLocked("isLatest", block)
}

// routeLocked classifies block for op and records the decision. The caller
// holds f.mu, shared or exclusive, and keeps holding it while it serves a
// local decision so that a concurrent Mine cannot make the decision stale.
func (f *Forge) routeLocked(op string, block *rpc.BlockNumberOrHash) bool {
	id := blockOrLatest(block)

	head := f.engine.BlockNumber()
	var lastHash common.Hash
	if head > 0 {
		lastHash = f.engine.BlockHash(head - 1)
	}
	local := isLatest(id, head, lastHash)
	markRoute(local)
	log.Debug("Routed request", "op", op, "block", id.String(), "local", local)
	return local
}
