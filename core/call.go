package core

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rpc"
)

// Call executes tx without committing anything and returns its output. For a
// creation the output is the code that would be deployed. Reverts are
// reported through the returned data, not as an error.
func (f *Forge) Call(ctx context.Context, tx *TxRequest, block *rpc.BlockNumberOrHash) ([]byte, error) {
	tx, to, err := f.withResolvedTo(ctx, tx)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	if !f.routeLocked("call", block) {
		f.mu.Unlock()
		out, err := f.remote().Call(ctx, tx, blockOrLatest(block))
		return out, delegationErr("call", err)
	}
	defer f.mu.Unlock()
	return f.simulateLocked(tx, to)
}

// simulateLocked runs tx between a snapshot and its restore. The caller
// holds f.mu exclusively for the whole run.
func (f *Forge) simulateLocked(tx *TxRequest, to *common.Address) ([]byte, error) {
	snap := f.engine.Snapshot()
	res, applyErr := f.applyLocked(tx, to)

	var out []byte
	if applyErr == nil {
		if addr, ok := res.Output.Address(); ok {
			out = f.engine.Code(addr)
		} else {
			out, _ = res.Output.Bytes()
		}
		if !f.engine.IsSuccess(res.Exit) {
			log.Warn("Simulated call did not succeed", "exit", res.Exit, "gas", res.Gas)
		}
	}
	if err := f.engine.Restore(snap); err != nil {
		return nil, executionErr("call", errors.Join(applyErr, err))
	}
	if applyErr != nil {
		return nil, applyErr
	}
	return out, nil
}
