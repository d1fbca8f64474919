package vm

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ErrUnknownSnapshot is returned when restoring a snapshot id that was never
// issued or has already been consumed.
var ErrUnknownSnapshot = errors.New("unknown snapshot")

// ExitReason is the engine-specific outcome of an execution. Callers only
// compare it through Engine.IsSuccess and print it.
type ExitReason interface {
	String() string
}

// SnapshotID identifies a saved engine state. The zero value is never issued.
type SnapshotID uint64

// Engine is the capability set the dispatch layer requires from a local
// execution backend. Implementations are not required to be safe for
// concurrent use; callers serialise access.
type Engine interface {
	// Name returns a short human identifier ("go-evm", ...).
	Name() string

	// CallRaw executes data against the code at to. A static call must not
	// leave any state change behind.
	CallRaw(from, to common.Address, data []byte, value *big.Int, static bool) ([]byte, ExitReason, uint64, []string, error)

	// Deploy runs code as init code and reports the address of the new
	// contract together with the outcome.
	Deploy(from common.Address, code []byte, value *big.Int) (common.Address, ExitReason, uint64, []string, error)

	// AccessList computes the storage access list of the given execution and
	// the gas it uses with that list applied. State is left untouched.
	AccessList(from common.Address, to *common.Address, data []byte, value *big.Int) (types.AccessList, uint64, ExitReason, error)

	Snapshot() SnapshotID
	Restore(id SnapshotID) error

	// Seal closes the block under construction and returns its hash.
	Seal() common.Hash

	GasPrice() *big.Int
	// BlockNumber is the head counter: the number of the block currently
	// under construction. The most recently produced block is one below it.
	BlockNumber() uint64
	ChainID() *big.Int
	Balance(addr common.Address) *big.Int
	Nonce(addr common.Address) uint64
	Code(addr common.Address) []byte
	GasLimit() uint64
	// BlockHash returns the hash of block num, or the zero hash when the
	// engine has no such block.
	BlockHash(num uint64) common.Hash

	IsSuccess(reason ExitReason) bool
}
