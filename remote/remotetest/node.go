// Package remotetest provides an in-process JSON-RPC node for exercising the
// remote provider without a network.
package remotetest

import (
	"errors"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/clydemeng/evmforge/core"
)

// Node answers the eth_ methods the provider uses from canned values and
// records every request it serves.
type Node struct {
	mu sync.Mutex

	Balances    map[common.Address]*big.Int
	Nonces      map[common.Address]uint64
	Codes       map[common.Address][]byte
	Headers     []*types.Header // Headers[i] is block i; the last one is the head
	GasPrice    *big.Int
	Tip         *big.Int
	CallOutput  []byte
	GasEstimate uint64
	AccessList  *core.AccessListResult
	// Fail makes every request return this error.
	Fail error

	calls  []string
	blocks []rpc.BlockNumberOrHash
	server *rpc.Server
}

// NewNode returns a node with one genesis block carrying a base fee.
func NewNode() *Node {
	genesis := &types.Header{
		Number:     new(big.Int),
		Difficulty: new(big.Int),
		GasLimit:   30_000_000,
		BaseFee:    big.NewInt(1_000_000_000),
	}
	return &Node{
		Balances: make(map[common.Address]*big.Int),
		Nonces:   make(map[common.Address]uint64),
		Codes:    make(map[common.Address][]byte),
		Headers:  []*types.Header{genesis},
		GasPrice: big.NewInt(2_000_000_000),
		Tip:      big.NewInt(1_000_000_000),
	}
}

// AddBlock appends a child of the current head and returns it.
func (n *Node) AddBlock() *types.Header {
	n.mu.Lock()
	defer n.mu.Unlock()

	parent := n.Headers[len(n.Headers)-1]
	h := &types.Header{
		ParentHash: parent.Hash(),
		Number:     new(big.Int).Add(parent.Number, common.Big1),
		Difficulty: new(big.Int),
		GasLimit:   parent.GasLimit,
		Time:       parent.Time + 12,
		BaseFee:    parent.BaseFee,
	}
	n.Headers = append(n.Headers, h)
	return h
}

// Client starts serving and returns an in-process client for it.
func (n *Node) Client() (*rpc.Client, error) {
	srv := rpc.NewServer()
	if err := srv.RegisterName("eth", &ethAPI{n}); err != nil {
		return nil, err
	}
	n.mu.Lock()
	n.server = srv
	n.mu.Unlock()
	return rpc.DialInProc(srv), nil
}

// Stop shuts the server down.
func (n *Node) Stop() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.server != nil {
		n.server.Stop()
	}
}

// Calls returns the served method names in order.
func (n *Node) Calls() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.calls...)
}

// Blocks returns the block identifiers received by block-scoped methods.
func (n *Node) Blocks() []rpc.BlockNumberOrHash {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]rpc.BlockNumberOrHash(nil), n.blocks...)
}

// record logs a request and returns the configured failure.
func (n *Node) record(method string, block *rpc.BlockNumberOrHash) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, method)
	if block != nil {
		n.blocks = append(n.blocks, *block)
	}
	return n.Fail
}

var errUnknownBlock = errors.New("unknown block")

type ethAPI struct {
	n *Node
}

func (api *ethAPI) GetBalance(addr common.Address, block rpc.BlockNumberOrHash) (*hexutil.Big, error) {
	if err := api.n.record("eth_getBalance", &block); err != nil {
		return nil, err
	}
	api.n.mu.Lock()
	defer api.n.mu.Unlock()
	bal := new(big.Int)
	if b, ok := api.n.Balances[addr]; ok {
		bal.Set(b)
	}
	return (*hexutil.Big)(bal), nil
}

func (api *ethAPI) GetTransactionCount(addr common.Address, block rpc.BlockNumberOrHash) (hexutil.Uint64, error) {
	if err := api.n.record("eth_getTransactionCount", &block); err != nil {
		return 0, err
	}
	api.n.mu.Lock()
	defer api.n.mu.Unlock()
	return hexutil.Uint64(api.n.Nonces[addr]), nil
}

func (api *ethAPI) GetCode(addr common.Address, block rpc.BlockNumberOrHash) (hexutil.Bytes, error) {
	if err := api.n.record("eth_getCode", &block); err != nil {
		return nil, err
	}
	api.n.mu.Lock()
	defer api.n.mu.Unlock()
	return api.n.Codes[addr], nil
}

func (api *ethAPI) GetBlockByNumber(number rpc.BlockNumber, fullTx bool) (*types.Header, error) {
	id := rpc.BlockNumberOrHashWithNumber(number)
	if err := api.n.record("eth_getBlockByNumber", &id); err != nil {
		return nil, err
	}
	api.n.mu.Lock()
	defer api.n.mu.Unlock()
	switch {
	case number == rpc.LatestBlockNumber || number == rpc.PendingBlockNumber:
		return api.n.Headers[len(api.n.Headers)-1], nil
	case number < 0:
		return api.n.Headers[0], nil
	case int64(number) < int64(len(api.n.Headers)):
		return api.n.Headers[number], nil
	}
	return nil, nil
}

func (api *ethAPI) GetBlockByHash(hash common.Hash, fullTx bool) (*types.Header, error) {
	id := rpc.BlockNumberOrHashWithHash(hash, false)
	if err := api.n.record("eth_getBlockByHash", &id); err != nil {
		return nil, err
	}
	api.n.mu.Lock()
	defer api.n.mu.Unlock()
	for _, h := range api.n.Headers {
		if h.Hash() == hash {
			return h, nil
		}
	}
	return nil, errUnknownBlock
}

func (api *ethAPI) GasPrice() (*hexutil.Big, error) {
	if err := api.n.record("eth_gasPrice", nil); err != nil {
		return nil, err
	}
	api.n.mu.Lock()
	defer api.n.mu.Unlock()
	return (*hexutil.Big)(new(big.Int).Set(api.n.GasPrice)), nil
}

func (api *ethAPI) MaxPriorityFeePerGas() (*hexutil.Big, error) {
	if err := api.n.record("eth_maxPriorityFeePerGas", nil); err != nil {
		return nil, err
	}
	api.n.mu.Lock()
	defer api.n.mu.Unlock()
	return (*hexutil.Big)(new(big.Int).Set(api.n.Tip)), nil
}

func (api *ethAPI) Call(args core.TxRequest, block rpc.BlockNumberOrHash) (hexutil.Bytes, error) {
	if err := api.n.record("eth_call", &block); err != nil {
		return nil, err
	}
	api.n.mu.Lock()
	defer api.n.mu.Unlock()
	return api.n.CallOutput, nil
}

func (api *ethAPI) EstimateGas(args core.TxRequest, block rpc.BlockNumberOrHash) (hexutil.Uint64, error) {
	if err := api.n.record("eth_estimateGas", &block); err != nil {
		return 0, err
	}
	api.n.mu.Lock()
	defer api.n.mu.Unlock()
	return hexutil.Uint64(api.n.GasEstimate), nil
}

func (api *ethAPI) CreateAccessList(args core.TxRequest, block rpc.BlockNumberOrHash) (*core.AccessListResult, error) {
	if err := api.n.record("eth_createAccessList", &block); err != nil {
		return nil, err
	}
	api.n.mu.Lock()
	defer api.n.mu.Unlock()
	if api.n.AccessList == nil {
		return &core.AccessListResult{AccessList: types.AccessList{}}, nil
	}
	return api.n.AccessList, nil
}
