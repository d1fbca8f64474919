package core

import (
	"context"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rpc"
)

// FillTransaction completes tx in place so it can be executed at block:
// sender, resolved destination, gas limit, access list and fees. Each value
// that has to be looked up goes through the same routing as a direct query.
func (f *Forge) FillTransaction(ctx context.Context, tx *TxRequest, block *rpc.BlockNumberOrHash) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	if tx.From == nil && f.defaultSender != nil {
		from := *f.defaultSender
		tx.From = &from
	}
	if tx.To != nil && tx.To.IsName() {
		addr, err := f.ResolveName(ctx, tx.To.Name)
		if err != nil {
			return err
		}
		tx.To = Addr(addr)
	}

	var gas uint64
	if tx.Gas != nil {
		gas = uint64(*tx.Gas)
	} else {
		estimate, err := f.EstimateGas(ctx, tx, block)
		if err != nil {
			return err
		}
		gas = estimate
	}

	if tx.SupportsAccessList() && !tx.HasAccessList() {
		res, err := f.CreateAccessList(ctx, tx, block)
		if err != nil {
			return err
		}
		// Adopt the list only when it strictly lowers the gas.
		if uint64(res.GasUsed) < gas {
			log.Debug("Adopted access list", "entries", len(res.AccessList), "gas", uint64(res.GasUsed), "plain", gas)
			gas = uint64(res.GasUsed)
			tx.SetAccessList(res.AccessList)
		}
	}
	tx.SetGas(gas)

	switch tx.TxType() {
	case types.DynamicFeeTxType:
		if tx.MaxFeePerGas == nil || tx.MaxPriorityFeePerGas == nil {
			maxFee, maxTip, err := f.EstimateFees(ctx)
			if err != nil {
				return err
			}
			tx.MaxFeePerGas = (*hexutil.Big)(maxFee)
			tx.MaxPriorityFeePerGas = (*hexutil.Big)(maxTip)
		}
	default:
		if tx.GasPrice == nil {
			price, err := f.GasPrice(ctx, block)
			if err != nil {
				return err
			}
			tx.SetGasPrice(price)
		}
	}
	return nil
}
