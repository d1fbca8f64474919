package core

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
)

// Block is the subset of a block header Forge reports. Blocks synthesized
// from the local engine only carry Number, Hash and ParentHash.
type Block struct {
	Number       *hexutil.Big   `json:"number"`
	Hash         common.Hash    `json:"hash"`
	ParentHash   common.Hash    `json:"parentHash"`
	Root         common.Hash    `json:"stateRoot,omitempty"`
	Miner        common.Address `json:"miner,omitempty"`
	Timestamp    hexutil.Uint64 `json:"timestamp,omitempty"`
	GasLimit     hexutil.Uint64 `json:"gasLimit,omitempty"`
	GasUsed      hexutil.Uint64 `json:"gasUsed,omitempty"`
	BaseFee      *hexutil.Big   `json:"baseFeePerGas,omitempty"`
	Transactions []common.Hash  `json:"transactions,omitempty"`
}

// AccessListResult is an access list together with the gas an execution
// uses when that list is applied.
type AccessListResult struct {
	AccessList types.AccessList `json:"accessList"`
	GasUsed    hexutil.Uint64   `json:"gasUsed"`
	Error      string           `json:"error,omitempty"`
}

// Provider is the remote node Forge delegates to for any state other than
// its own head. Every method sends the request on unchanged.
type Provider interface {
	BalanceAt(ctx context.Context, who NameOrAddress, block rpc.BlockNumberOrHash) (*big.Int, error)
	NonceAt(ctx context.Context, who NameOrAddress, block rpc.BlockNumberOrHash) (uint64, error)
	CodeAt(ctx context.Context, who NameOrAddress, block rpc.BlockNumberOrHash) ([]byte, error)
	BlockByID(ctx context.Context, block rpc.BlockNumberOrHash) (*Block, error)
	GasPrice(ctx context.Context) (*big.Int, error)
	Call(ctx context.Context, tx *TxRequest, block rpc.BlockNumberOrHash) ([]byte, error)
	EstimateGas(ctx context.Context, tx *TxRequest, block rpc.BlockNumberOrHash) (uint64, error)
	CreateAccessList(ctx context.Context, tx *TxRequest, block rpc.BlockNumberOrHash) (*AccessListResult, error)
	EstimateFees(ctx context.Context) (maxFee *big.Int, maxPriorityFee *big.Int, err error)
}

// Inner is the optional remote reference held by Forge. The zero value is
// disabled.
type Inner struct {
	p Provider
}

// Use enables delegation to p.
func Use(p Provider) Inner { return Inner{p: p} }

// Not disables delegation.
func Not() Inner { return Inner{} }

func (i Inner) Enabled() bool { return i.p != nil }

// Provider returns the remote provider, or a placeholder that panics on any
// request when delegation is disabled.
func (i Inner) Provider() Provider {
	if i.p == nil {
		return noClient{}
	}
	return i.p
}

const noClientMsg = "forge: request needs a remote node but no provider is configured"

// noClient stands in for a missing remote. Reaching it is a configuration
// error on the caller's side.
type noClient struct{}

func (noClient) BalanceAt(context.Context, NameOrAddress, rpc.BlockNumberOrHash) (*big.Int, error) {
	panic(noClientMsg)
}

func (noClient) NonceAt(context.Context, NameOrAddress, rpc.BlockNumberOrHash) (uint64, error) {
	panic(noClientMsg)
}

func (noClient) CodeAt(context.Context, NameOrAddress, rpc.BlockNumberOrHash) ([]byte, error) {
	panic(noClientMsg)
}

func (noClient) BlockByID(context.Context, rpc.BlockNumberOrHash) (*Block, error) {
	panic(noClientMsg)
}

func (noClient) GasPrice(context.Context) (*big.Int, error) { panic(noClientMsg) }

func (noClient) Call(context.Context, *TxRequest, rpc.BlockNumberOrHash) ([]byte, error) {
	panic(noClientMsg)
}

func (noClient) EstimateGas(context.Context, *TxRequest, rpc.BlockNumberOrHash) (uint64, error) {
	panic(noClientMsg)
}

func (noClient) CreateAccessList(context.Context, *TxRequest, rpc.BlockNumberOrHash) (*AccessListResult, error) {
	panic(noClientMsg)
}

func (noClient) EstimateFees(context.Context) (*big.Int, *big.Int, error) { panic(noClientMsg) }
