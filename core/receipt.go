package core

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// makeReceipt builds the receipt of a locally executed transaction. Only the
// status, gas used, transaction hash and (for creations) contract address are
// known; all other fields stay zero.
func makeReceipt(res *TxResult, txHash common.Hash, success bool) *types.Receipt {
	receipt := &types.Receipt{TxHash: txHash, GasUsed: res.Gas}
	if success {
		receipt.Status = types.ReceiptStatusSuccessful
	} else {
		receipt.Status = types.ReceiptStatusFailed
	}
	if addr, ok := res.Output.Address(); ok {
		receipt.ContractAddress = addr
	}
	return receipt
}

// PendingTransaction is the handle returned by SendTransaction. Local
// executions are final as soon as they return, so the handle is created
// already holding its receipt.
type PendingTransaction struct {
	hash    common.Hash
	receipt *types.Receipt
}

func newConfirmed(receipt *types.Receipt) *PendingTransaction {
	return &PendingTransaction{hash: receipt.TxHash, receipt: receipt}
}

func (p *PendingTransaction) Hash() common.Hash { return p.hash }

func (p *PendingTransaction) Receipt() *types.Receipt { return p.receipt }

// Confirmations is always one.
func (p *PendingTransaction) Confirmations() uint64 { return 1 }

// Wait returns the receipt without querying anything.
func (p *PendingTransaction) Wait(context.Context) (*types.Receipt, error) {
	return p.receipt, nil
}
