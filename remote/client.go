// Package remote implements the Forge provider contract on top of a
// go-ethereum JSON-RPC client.
package remote

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/clydemeng/evmforge/core"
)

// basefeeWiggleMultiplier is how many base fees a dynamic-fee transaction
// is allowed to pay on top of its tip.
const basefeeWiggleMultiplier = 2

// Client forwards requests to a remote node.
type Client struct {
	c  *rpc.Client
	ec *ethclient.Client
}

var _ core.Provider = (*Client)(nil)

// Dial connects to the node at rawurl.
func Dial(ctx context.Context, rawurl string) (*Client, error) {
	c, err := rpc.DialContext(ctx, rawurl)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", rawurl, err)
	}
	log.Info("Connected to remote node", "url", rawurl)
	return NewClient(c), nil
}

// NewClient wraps an existing RPC client.
func NewClient(c *rpc.Client) *Client {
	return &Client{c: c, ec: ethclient.NewClient(c)}
}

// Close closes the underlying connection.
func (c *Client) Close() { c.c.Close() }

func (c *Client) BalanceAt(ctx context.Context, who core.NameOrAddress, block rpc.BlockNumberOrHash) (*big.Int, error) {
	var result hexutil.Big
	if err := c.c.CallContext(ctx, &result, "eth_getBalance", who, block); err != nil {
		return nil, err
	}
	return (*big.Int)(&result), nil
}

func (c *Client) NonceAt(ctx context.Context, who core.NameOrAddress, block rpc.BlockNumberOrHash) (uint64, error) {
	var result hexutil.Uint64
	err := c.c.CallContext(ctx, &result, "eth_getTransactionCount", who, block)
	return uint64(result), err
}

func (c *Client) CodeAt(ctx context.Context, who core.NameOrAddress, block rpc.BlockNumberOrHash) ([]byte, error) {
	var result hexutil.Bytes
	err := c.c.CallContext(ctx, &result, "eth_getCode", who, block)
	return result, err
}

func (c *Client) BlockByID(ctx context.Context, block rpc.BlockNumberOrHash) (*core.Block, error) {
	var (
		result *core.Block
		err    error
	)
	if hash, ok := block.Hash(); ok {
		err = c.c.CallContext(ctx, &result, "eth_getBlockByHash", hash, false)
	} else {
		num, _ := block.Number()
		err = c.c.CallContext(ctx, &result, "eth_getBlockByNumber", num, false)
	}
	if err == nil && result == nil {
		return nil, ethereum.NotFound
	}
	return result, err
}

func (c *Client) GasPrice(ctx context.Context) (*big.Int, error) {
	return c.ec.SuggestGasPrice(ctx)
}

func (c *Client) Call(ctx context.Context, tx *core.TxRequest, block rpc.BlockNumberOrHash) ([]byte, error) {
	var result hexutil.Bytes
	err := c.c.CallContext(ctx, &result, "eth_call", tx, block)
	return result, err
}

func (c *Client) EstimateGas(ctx context.Context, tx *core.TxRequest, block rpc.BlockNumberOrHash) (uint64, error) {
	var result hexutil.Uint64
	err := c.c.CallContext(ctx, &result, "eth_estimateGas", tx, block)
	return uint64(result), err
}

func (c *Client) CreateAccessList(ctx context.Context, tx *core.TxRequest, block rpc.BlockNumberOrHash) (*core.AccessListResult, error) {
	var result core.AccessListResult
	if err := c.c.CallContext(ctx, &result, "eth_createAccessList", tx, block); err != nil {
		return nil, err
	}
	return &result, nil
}

// EstimateFees suggests a tip and a fee cap leaving room for the base fee to
// grow.
func (c *Client) EstimateFees(ctx context.Context) (*big.Int, *big.Int, error) {
	tip, err := c.ec.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, nil, err
	}
	head, err := c.ec.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	if head.BaseFee == nil {
		return nil, nil, fmt.Errorf("%w: block %v", core.ErrNoBaseFee, head.Number)
	}
	maxFee := new(big.Int).Add(
		tip,
		new(big.Int).Mul(head.BaseFee, big.NewInt(basefeeWiggleMultiplier)),
	)
	return maxFee, tip, nil
}
