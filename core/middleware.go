package core

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rpc"
)

func (f *Forge) resolveAccount(ctx context.Context, who NameOrAddress) (common.Address, error) {
	if !who.IsName() {
		return who.Address, nil
	}
	return f.ResolveName(ctx, who.Name)
}

// Balance returns the balance of who at block. Names are resolved before the
// request is routed, so the remote node only ever sees addresses.
func (f *Forge) Balance(ctx context.Context, who NameOrAddress, block *rpc.BlockNumberOrHash) (*big.Int, error) {
	addr, err := f.resolveAccount(ctx, who)
	if err != nil {
		return nil, err
	}
	f.mu.RLock()
	if f.routeLocked("balance", block) {
		defer f.mu.RUnlock()
		return f.engine.Balance(addr), nil
	}
	f.mu.RUnlock()

	bal, err := f.remote().BalanceAt(ctx, *Addr(addr), blockOrLatest(block))
	return bal, delegationErr("balance", err)
}

// Nonce returns the transaction count of who at block.
func (f *Forge) Nonce(ctx context.Context, who NameOrAddress, block *rpc.BlockNumberOrHash) (uint64, error) {
	addr, err := f.resolveAccount(ctx, who)
	if err != nil {
		return 0, err
	}
	f.mu.RLock()
	if f.routeLocked("nonce", block) {
		defer f.mu.RUnlock()
		return f.engine.Nonce(addr), nil
	}
	f.mu.RUnlock()

	nonce, err := f.remote().NonceAt(ctx, *Addr(addr), blockOrLatest(block))
	return nonce, delegationErr("nonce", err)
}

// Code returns the code deployed at who at block.
func (f *Forge) Code(ctx context.Context, who NameOrAddress, block *rpc.BlockNumberOrHash) ([]byte, error) {
	addr, err := f.resolveAccount(ctx, who)
	if err != nil {
		return nil, err
	}
	f.mu.RLock()
	if f.routeLocked("code", block) {
		defer f.mu.RUnlock()
		return f.engine.Code(addr), nil
	}
	f.mu.RUnlock()

	code, err := f.remote().CodeAt(ctx, *Addr(addr), blockOrLatest(block))
	return code, delegationErr("code", err)
}

// GasPrice returns the gas price for a transaction built against block.
func (f *Forge) GasPrice(ctx context.Context, block *rpc.BlockNumberOrHash) (*big.Int, error) {
	f.mu.RLock()
	if f.routeLocked("gasPrice", block) {
		defer f.mu.RUnlock()
		return f.engine.GasPrice(), nil
	}
	f.mu.RUnlock()

	price, err := f.remote().GasPrice(ctx)
	return price, delegationErr("gasPrice", err)
}

// ChainID is always answered by the engine.
func (f *Forge) ChainID(ctx context.Context) (*big.Int, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.engine.ChainID(), nil
}

// BlockNumber returns the number of the most recently produced block, one
// less than the engine's head counter. Unlike a raw head counter, the number
// returned here is always classified as local.
func (f *Forge) BlockNumber(ctx context.Context) (uint64, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.engine.BlockNumber() - 1, nil
}

// Block returns the block identified by id. The engine's own head is
// reported with its number, hash and parent hash only.
func (f *Forge) Block(ctx context.Context, id rpc.BlockNumberOrHash) (*Block, error) {
	f.mu.RLock()
	if !f.routeLocked("block", &id) {
		f.mu.RUnlock()
		b, err := f.remote().BlockByID(ctx, id)
		return b, delegationErr("block", err)
	}
	defer f.mu.RUnlock()

	num := f.engine.BlockNumber() - 1
	b := &Block{
		Number: (*hexutil.Big)(new(big.Int).SetUint64(num)),
		Hash:   f.engine.BlockHash(num),
	}
	if num > 0 {
		b.ParentHash = f.engine.BlockHash(num - 1)
	}
	return b, nil
}

// EstimateGas returns the gas limit to use for tx. Locally every execution
// is given the engine's full gas limit, so that is the estimate.
func (f *Forge) EstimateGas(ctx context.Context, tx *TxRequest, block *rpc.BlockNumberOrHash) (uint64, error) {
	tx, _, err := f.withResolvedTo(ctx, tx)
	if err != nil {
		return 0, err
	}
	f.mu.RLock()
	if f.routeLocked("estimateGas", block) {
		defer f.mu.RUnlock()
		return f.engine.GasLimit(), nil
	}
	f.mu.RUnlock()

	gas, err := f.remote().EstimateGas(ctx, tx, blockOrLatest(block))
	return gas, delegationErr("estimateGas", err)
}

// CreateAccessList returns the access list of tx and the gas it uses with
// that list.
func (f *Forge) CreateAccessList(ctx context.Context, tx *TxRequest, block *rpc.BlockNumberOrHash) (*AccessListResult, error) {
	tx, to, err := f.withResolvedTo(ctx, tx)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	if !f.routeLocked("createAccessList", block) {
		f.mu.Unlock()
		res, err := f.remote().CreateAccessList(ctx, tx, blockOrLatest(block))
		return res, delegationErr("createAccessList", err)
	}
	defer f.mu.Unlock()

	acl, gas, exit, err := f.engine.AccessList(f.senderOf(tx), to, tx.data(), tx.value())
	if err != nil {
		return nil, executionErr("createAccessList", err)
	}
	res := &AccessListResult{AccessList: acl, GasUsed: hexutil.Uint64(gas)}
	if !f.engine.IsSuccess(exit) {
		res.Error = exit.String()
	}
	return res, nil
}

// EstimateFees returns EIP-1559 fee caps. The engine has no fee market, so
// this is always answered by the remote node.
func (f *Forge) EstimateFees(ctx context.Context) (maxFee *big.Int, maxPriorityFee *big.Int, err error) {
	maxFee, maxPriorityFee, err = f.remote().EstimateFees(ctx)
	return maxFee, maxPriorityFee, delegationErr("estimateFees", err)
}

// SendTransaction fills tx, executes it against the engine and returns an
// already confirmed handle. The caller's request is not modified.
func (f *Forge) SendTransaction(ctx context.Context, tx *TxRequest, block *rpc.BlockNumberOrHash) (*PendingTransaction, error) {
	tx = tx.Copy()
	if err := f.FillTransaction(ctx, tx, block); err != nil {
		return nil, err
	}
	var to *common.Address
	if tx.To != nil {
		addr := tx.To.Address
		to = &addr
	}

	f.mu.Lock()
	if tx.Nonce == nil {
		tx.SetNonce(f.engine.Nonce(f.senderOf(tx)))
	}
	chainID := f.engine.ChainID()
	res, err := f.applyLocked(tx, to)
	success := err == nil && f.engine.IsSuccess(res.Exit)
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}

	receipt := makeReceipt(res, tx.SigHash(chainID), success)
	log.Debug("Sent transaction", "hash", receipt.TxHash, "status", receipt.Status, "gas", receipt.GasUsed)
	return newConfirmed(receipt), nil
}
