package integration_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/require"

	"github.com/clydemeng/evmforge/core"
	"github.com/clydemeng/evmforge/core/vm"
	"github.com/clydemeng/evmforge/remote"
	"github.com/clydemeng/evmforge/remote/remotetest"
)

// TestMineMovesHead seals blocks and checks that only the newest sealed block
// is served locally afterwards while older ones go to the remote node.
func TestMineMovesHead(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.node.Balances[senderAddr] = big.NewInt(5)

	// 1. Commit a transfer and seal it
	_, err := e.forge.SendTransaction(ctx, (&core.TxRequest{From: &senderAddr, To: core.Addr(recipient)}).SetValue(big.NewInt(9)), nil)
	require.NoError(t, err)
	sealed, err := e.forge.Mine(ctx)
	require.NoError(t, err)

	num, err := e.forge.BlockNumber(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(1), num)

	// 2. The sealed block by number and by hash is the local head
	byNumber := rpc.BlockNumberOrHashWithNumber(1)
	byHash := rpc.BlockNumberOrHashWithHash(sealed, false)
	require.True(t, e.forge.IsLatest(ctx, &byNumber))
	require.True(t, e.forge.IsLatest(ctx, &byHash))

	head, err := e.forge.Block(ctx, byHash)
	require.NoError(t, err)
	require.Equal(t, sealed, head.Hash)
	require.Equal(t, e.engine.BlockHash(0), head.ParentHash)

	bal, err := e.forge.Balance(ctx, *core.Addr(recipient), &byNumber)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(9), bal)
	require.Empty(t, e.node.Calls())

	// 3. Genesis is now history and is answered remotely
	genesis := rpc.BlockNumberOrHashWithNumber(0)
	require.False(t, e.forge.IsLatest(ctx, &genesis))
	bal, err = e.forge.Balance(ctx, *core.Addr(senderAddr), &genesis)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(5), bal)
	require.Equal(t, []string{"eth_getBalance"}, e.node.Calls())
}

// TestSnapshotAcrossBlocks reverts past a sealed block.
func TestSnapshotAcrossBlocks(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	id, err := e.forge.Snapshot(ctx)
	require.NoError(t, err)

	_, err = e.forge.SendTransaction(ctx, (&core.TxRequest{From: &senderAddr, To: core.Addr(recipient)}).SetValue(big.NewInt(3)), nil)
	require.NoError(t, err)
	_, err = e.forge.Mine(ctx)
	require.NoError(t, err)

	require.NoError(t, e.forge.Revert(ctx, id))

	num, err := e.forge.BlockNumber(ctx)
	require.NoError(t, err)
	require.Zero(t, num)
	bal, err := e.forge.Balance(ctx, *core.Addr(recipient), nil)
	require.NoError(t, err)
	require.Zero(t, bal.Sign())

	// A snapshot is consumed by reverting to it.
	require.Error(t, e.forge.Revert(ctx, id))
}

type nameTable map[string]common.Address

func (n nameTable) ResolveName(_ context.Context, name string) (common.Address, error) {
	if addr, ok := n[name]; ok {
		return addr, nil
	}
	return common.Address{}, core.ErrNameNotFound
}

// TestHistoricalQueryByName asks the remote node about a named account after
// the local head has moved past genesis.
func TestHistoricalQueryByName(t *testing.T) {
	engine, err := vm.NewGethEngine(vm.Config{Alloc: types.GenesisAlloc{senderAddr: {Balance: senderFunds}}})
	require.NoError(t, err)
	node := remotetest.NewNode()
	rpcClient, err := node.Client()
	require.NoError(t, err)
	client := remote.NewClient(rpcClient)
	t.Cleanup(func() {
		client.Close()
		node.Stop()
	})
	node.Balances[recipient] = big.NewInt(44)
	node.Codes[recipient] = []byte{0x60, 0x00}

	forge := core.NewWithProvider(engine, client, core.WithResolver(nameTable{"bob.eth": recipient}))
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_, err := forge.Mine(ctx)
		require.NoError(t, err)
	}

	genesis := rpc.BlockNumberOrHashWithNumber(0)
	bal, err := forge.Balance(ctx, *core.Name("bob.eth"), &genesis)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(44), bal)

	code, err := forge.Code(ctx, *core.Name("bob.eth"), &genesis)
	require.NoError(t, err)
	require.Equal(t, []byte{0x60, 0x00}, code)

	node.CallOutput = []byte{0x01}
	out, err := forge.Call(ctx, &core.TxRequest{From: &senderAddr, To: core.Name("bob.eth")}, &genesis)
	require.NoError(t, err)
	require.Equal(t, []byte{0x01}, out)
	require.Equal(t, []string{"eth_getBalance", "eth_getCode", "eth_call"}, node.Calls())

	// The same name at the local head is answered by the engine.
	bal, err = forge.Balance(ctx, *core.Name("bob.eth"), nil)
	require.NoError(t, err)
	require.Zero(t, bal.Sign())
}
