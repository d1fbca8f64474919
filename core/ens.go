package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rpc"
)

// ENSRegistry is the address of the ENS registry.
var ENSRegistry = common.HexToAddress("0x00000000000C2E074eC69A0dFb2997BA6C7d2e1e")

// NameResolver turns a symbolic name into an address.
type NameResolver interface {
	ResolveName(ctx context.Context, name string) (common.Address, error)
}

const ensABIJSON = `[
	{"type":"function","name":"resolver","stateMutability":"view","inputs":[{"name":"node","type":"bytes32"}],"outputs":[{"name":"","type":"address"}]},
	{"type":"function","name":"addr","stateMutability":"view","inputs":[{"name":"node","type":"bytes32"}],"outputs":[{"name":"","type":"address"}]}
]`

var ensABI = mustParseABI(ensABIJSON)

func mustParseABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(err)
	}
	return parsed
}

// NameHash computes the ENS node of name.
func NameHash(name string) common.Hash {
	var node common.Hash
	if name == "" {
		return node
	}
	labels := strings.Split(name, ".")
	for i := len(labels) - 1; i >= 0; i-- {
		label := crypto.Keccak256Hash([]byte(labels[i]))
		node = crypto.Keccak256Hash(node[:], label[:])
	}
	return node
}

type contractCaller interface {
	Call(ctx context.Context, tx *TxRequest, block *rpc.BlockNumberOrHash) ([]byte, error)
}

// ensResolver looks names up through the registry and the resolver it
// points to. The lookups are plain calls, so they run wherever the caller
// routes a call against the latest block.
type ensResolver struct {
	caller   contractCaller
	registry common.Address
}

func (r *ensResolver) ResolveName(ctx context.Context, name string) (common.Address, error) {
	node := NameHash(name)
	resolver, err := r.query(ctx, r.registry, "resolver", node)
	if err != nil {
		return common.Address{}, err
	}
	if resolver == (common.Address{}) {
		return common.Address{}, fmt.Errorf("%w: %s has no resolver", ErrNameNotFound, name)
	}
	addr, err := r.query(ctx, resolver, "addr", node)
	if err != nil {
		return common.Address{}, err
	}
	if addr == (common.Address{}) {
		return common.Address{}, fmt.Errorf("%w: %s", ErrNameNotFound, name)
	}
	return addr, nil
}

func (r *ensResolver) query(ctx context.Context, contract common.Address, method string, node common.Hash) (common.Address, error) {
	input, err := ensABI.Pack(method, [32]byte(node))
	if err != nil {
		return common.Address{}, err
	}
	data := hexutil.Bytes(input)
	out, err := r.caller.Call(ctx, &TxRequest{To: Addr(contract), Data: &data}, nil)
	if err != nil {
		return common.Address{}, err
	}
	if len(out) == 0 {
		return common.Address{}, fmt.Errorf("%w: no contract at %s", ErrNameNotFound, contract)
	}
	res, err := ensABI.Unpack(method, out)
	if err != nil {
		return common.Address{}, err
	}
	return *abi.ConvertType(res[0], new(common.Address)).(*common.Address), nil
}

// ResolveName resolves name with the configured resolver.
func (f *Forge) ResolveName(ctx context.Context, name string) (common.Address, error) {
	addr, err := f.resolver.ResolveName(ctx, name)
	if err != nil {
		return common.Address{}, transportErr("resolveName", err)
	}
	return addr, nil
}
