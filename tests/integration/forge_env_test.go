package integration_test

import (
	"math/big"
	"os"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/params"
	"github.com/stretchr/testify/require"

	"github.com/clydemeng/evmforge/core"
	"github.com/clydemeng/evmforge/core/vm"
	"github.com/clydemeng/evmforge/remote"
	"github.com/clydemeng/evmforge/remote/remotetest"
)

func init() {
	log.SetDefault(log.NewLogger(log.NewTerminalHandler(os.Stderr, true)))
}

var (
	// Deterministic sender so transaction hashes are stable across runs.
	senderKey, _ = crypto.HexToECDSA("8a1f9a8f95be41cd7ccb6168179afb4504aefe388d1e14474d32c45c72ce7b7a")
	senderAddr   = crypto.PubkeyToAddress(senderKey.PublicKey)
	recipient    = common.HexToAddress("0x0D3ab14BBaD3D99F4203bd7a11aCB94882050E7e")

	// Tiny init code that returns a 1-byte runtime [0x00] (STOP).
	stopCreationCode = common.FromHex("0x6001600c60003960016000f300")

	// Init code for a runtime that stores calldata word 0 in slot 0 when
	// called with data, and returns slot 0 otherwise.
	storageCreationCode = common.FromHex("0x6018600c60003960186000f3" + "3615600c57600035600055005b60005460005260206000f3")

	senderFunds = new(big.Int).Mul(big.NewInt(10), big.NewInt(params.Ether))
)

// env is a forge wired to a local engine and to an in-process remote node.
type env struct {
	forge  *core.Forge
	engine *vm.GethEngine
	node   *remotetest.Node
}

func newEnv(t *testing.T) *env {
	t.Helper()

	engine, err := vm.NewGethEngine(vm.Config{
		Alloc: types.GenesisAlloc{
			senderAddr: {Balance: senderFunds},
		},
	})
	require.NoError(t, err)

	node := remotetest.NewNode()
	rpcClient, err := node.Client()
	require.NoError(t, err)
	client := remote.NewClient(rpcClient)
	t.Cleanup(func() {
		client.Close()
		node.Stop()
	})
	return &env{
		forge:  core.NewWithProvider(engine, client),
		engine: engine,
		node:   node,
	}
}

func word(n int64) []byte {
	return common.LeftPadBytes(big.NewInt(n).Bytes(), 32)
}
