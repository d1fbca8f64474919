package remote_test

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/require"

	"github.com/clydemeng/evmforge/core"
	"github.com/clydemeng/evmforge/remote"
	"github.com/clydemeng/evmforge/remote/remotetest"
)

var account = common.HexToAddress("0xEA674fdDe714fd979de3EdF0F56AA9716B898ec8")

func newClient(t *testing.T) (*remote.Client, *remotetest.Node) {
	t.Helper()
	node := remotetest.NewNode()
	c, err := node.Client()
	require.NoError(t, err)
	client := remote.NewClient(c)
	t.Cleanup(func() {
		client.Close()
		node.Stop()
	})
	return client, node
}

func TestClientAccountQueries(t *testing.T) {
	client, node := newClient(t)
	node.Balances[account] = big.NewInt(1234)
	node.Nonces[account] = 7
	node.Codes[account] = []byte{0x60, 0x00}

	ctx := context.Background()
	block := rpc.BlockNumberOrHashWithNumber(42)

	bal, err := client.BalanceAt(ctx, *core.Addr(account), block)
	require.NoError(t, err)
	require.Equal(t, int64(1234), bal.Int64())

	nonce, err := client.NonceAt(ctx, *core.Addr(account), block)
	require.NoError(t, err)
	require.Equal(t, uint64(7), nonce)

	code, err := client.CodeAt(ctx, *core.Addr(account), block)
	require.NoError(t, err)
	require.Equal(t, []byte{0x60, 0x00}, code)

	require.Equal(t, []string{"eth_getBalance", "eth_getTransactionCount", "eth_getCode"}, node.Calls())
	for _, got := range node.Blocks() {
		num, ok := got.Number()
		require.True(t, ok)
		require.Equal(t, rpc.BlockNumber(42), num)
	}
}

func TestClientBlockByID(t *testing.T) {
	client, node := newClient(t)
	first := node.AddBlock()
	ctx := context.Background()

	b, err := client.BlockByID(ctx, rpc.BlockNumberOrHashWithNumber(1))
	require.NoError(t, err)
	require.Equal(t, first.Hash(), b.Hash)
	require.Equal(t, first.ParentHash, b.ParentHash)
	require.Equal(t, uint64(1), b.Number.ToInt().Uint64())
	require.Equal(t, first.BaseFee, b.BaseFee.ToInt())

	b, err = client.BlockByID(ctx, rpc.BlockNumberOrHashWithHash(first.ParentHash, false))
	require.NoError(t, err)
	require.Equal(t, uint64(0), b.Number.ToInt().Uint64())

	_, err = client.BlockByID(ctx, rpc.BlockNumberOrHashWithNumber(99))
	require.True(t, errors.Is(err, ethereum.NotFound))
}

func TestClientTransactionQueries(t *testing.T) {
	client, node := newClient(t)
	node.CallOutput = []byte{0xca, 0xfe}
	node.GasEstimate = 53_000
	node.AccessList = &core.AccessListResult{
		AccessList: types.AccessList{{Address: account, StorageKeys: []common.Hash{{0x01}}}},
		GasUsed:    hexutil.Uint64(40_000),
	}

	ctx := context.Background()
	block := rpc.BlockNumberOrHashWithNumber(rpc.LatestBlockNumber)
	tx := &core.TxRequest{From: &account, To: core.Addr(common.HexToAddress("0x01"))}

	out, err := client.Call(ctx, tx, block)
	require.NoError(t, err)
	require.Equal(t, []byte{0xca, 0xfe}, out)

	gas, err := client.EstimateGas(ctx, tx, block)
	require.NoError(t, err)
	require.Equal(t, uint64(53_000), gas)

	acl, err := client.CreateAccessList(ctx, tx, block)
	require.NoError(t, err)
	require.Equal(t, hexutil.Uint64(40_000), acl.GasUsed)
	require.Len(t, acl.AccessList, 1)
	require.Equal(t, account, acl.AccessList[0].Address)
}

func TestClientFees(t *testing.T) {
	client, node := newClient(t)
	ctx := context.Background()

	price, err := client.GasPrice(ctx)
	require.NoError(t, err)
	require.Equal(t, node.GasPrice, price)

	maxFee, tip, err := client.EstimateFees(ctx)
	require.NoError(t, err)
	require.Equal(t, node.Tip, tip)
	// tip + 2 * base fee
	require.Equal(t, big.NewInt(3_000_000_000), maxFee)
}

func TestClientNoBaseFee(t *testing.T) {
	client, node := newClient(t)
	node.Headers[0].BaseFee = nil

	_, _, err := client.EstimateFees(context.Background())
	require.True(t, errors.Is(err, core.ErrNoBaseFee))
}

func TestClientFailure(t *testing.T) {
	client, node := newClient(t)
	node.Fail = errors.New("node is syncing")

	_, err := client.BalanceAt(context.Background(), *core.Addr(account), rpc.BlockNumberOrHashWithNumber(1))
	require.ErrorContains(t, err, "node is syncing")
}
