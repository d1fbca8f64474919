package vm

import (
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core"
	"github.com/ethereum/go-ethereum/core/rawdb"
	"github.com/ethereum/go-ethereum/core/state"
	"github.com/ethereum/go-ethereum/core/tracing"
	"github.com/ethereum/go-ethereum/core/types"
	gethvm "github.com/ethereum/go-ethereum/core/vm"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/eth/tracers/logger"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/params"
	"github.com/ethereum/go-ethereum/triedb"

	forgetracing "github.com/clydemeng/evmforge/tracing"
)

const (
	// DefaultGasLimit is the gas every execution is given.
	DefaultGasLimit uint64 = 30_000_000

	engineName = "go-evm"
)

// DefaultGasPrice is the gas price reported by an engine configured without one.
var DefaultGasPrice = big.NewInt(params.GWei)

// Config describes the simulated chain a GethEngine starts from.
type Config struct {
	ChainConfig *params.ChainConfig
	GasLimit    uint64
	GasPrice    *big.Int
	Coinbase    common.Address
	Time        uint64 // genesis timestamp
	Alloc       types.GenesisAlloc
}

func (c *Config) sanitize() {
	if c.ChainConfig == nil {
		c.ChainConfig = params.AllDevChainProtocolChanges
	}
	if c.GasLimit == 0 {
		c.GasLimit = DefaultGasLimit
	}
	if c.GasPrice == nil {
		c.GasPrice = new(big.Int).Set(DefaultGasPrice)
	}
}

// GethEngine is an in-memory chain simulator running the go-ethereum EVM
// over a single mutable StateDB. Executions never charge fees and always run
// with the configured gas limit.
type GethEngine struct {
	cfg Config

	// mu protects state and headers because StateDB is not safe for
	// concurrent readers either.
	mu      sync.Mutex
	state   *state.StateDB
	headers []*types.Header // headers[i] is block i; len(headers) is the head counter
	txIndex int

	snapshots snapshotRegistry
}

// NewGethEngine commits the genesis allocation and returns an engine whose
// head counter is 1.
func NewGethEngine(cfg Config) (*GethEngine, error) {
	cfg.sanitize()

	db := rawdb.NewMemoryDatabase()
	tdb := triedb.NewDatabase(db, nil)
	genesis := &core.Genesis{
		Config:    cfg.ChainConfig,
		GasLimit:  cfg.GasLimit,
		Timestamp: cfg.Time,
		Coinbase:  cfg.Coinbase,
		Alloc:     cfg.Alloc,
	}
	block, err := genesis.Commit(db, tdb)
	if err != nil {
		return nil, fmt.Errorf("commit genesis: %w", err)
	}
	statedb, err := state.New(block.Root(), state.NewDatabase(tdb, nil))
	if err != nil {
		return nil, fmt.Errorf("open genesis state: %w", err)
	}
	e := &GethEngine{
		cfg:     cfg,
		state:   statedb,
		headers: []*types.Header{block.Header()},
	}
	log.Info("Initialised execution engine", "engine", engineName, "chainid", cfg.ChainConfig.ChainID,
		"fork", ActiveFork(cfg.ChainConfig, 1, e.pendingTime()), "gaslimit", cfg.GasLimit, "accounts", len(cfg.Alloc))
	return e, nil
}

func (e *GethEngine) Name() string { return engineName }

func (e *GethEngine) pendingTime() uint64 {
	return e.headers[len(e.headers)-1].Time + 1
}

func (e *GethEngine) blockHashLocked(num uint64) common.Hash {
	if num < uint64(len(e.headers)) {
		return e.headers[num].Hash()
	}
	return common.Hash{}
}

func (e *GethEngine) blockContext() gethvm.BlockContext {
	return gethvm.BlockContext{
		CanTransfer: core.CanTransfer,
		Transfer:    core.Transfer,
		GetHash:     e.blockHashLocked,
		Coinbase:    e.cfg.Coinbase,
		GasLimit:    e.cfg.GasLimit,
		BlockNumber: new(big.Int).SetUint64(uint64(len(e.headers))),
		Time:        e.pendingTime(),
		Difficulty:  new(big.Int),
		BaseFee:     new(big.Int),
		BlobBaseFee: new(big.Int),
		Random:      &common.Hash{},
	}
}

// execute applies m to st. The caller holds e.mu.
func (e *GethEngine) execute(st *state.StateDB, m *CallMetadata, hooks *tracing.Hooks) (*core.ExecutionResult, []string, error) {
	if err := m.validate(); err != nil {
		return nil, nil, err
	}
	nonce := st.GetNonce(m.From)
	msg := m.toMessage(nonce)
	key := m.logKey(nonce)
	st.SetTxContext(key, e.txIndex)

	blockCtx := e.blockContext()
	evm := gethvm.NewEVM(blockCtx, st, e.cfg.ChainConfig, gethvm.Config{NoBaseFee: true, Tracer: hooks})
	evm.SetTxContext(core.NewEVMTxContext(msg))

	gp := new(core.GasPool).AddGas(e.cfg.GasLimit)
	res, err := core.ApplyMessage(evm, msg, gp)
	if err != nil {
		return nil, nil, err
	}
	st.Finalise(true)
	logs := st.GetLogs(key, blockCtx.BlockNumber.Uint64(), common.Hash{})
	return res, forgetracing.FormatLogs(logs), nil
}

func (e *GethEngine) CallRaw(from, to common.Address, data []byte, value *big.Int, static bool) ([]byte, ExitReason, uint64, []string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := e.state
	if static {
		st = e.state.Copy()
	}
	res, logs, err := e.execute(st, &CallMetadata{From: from, To: &to, Data: data, Value: value, GasLimit: e.cfg.GasLimit}, nil)
	if err != nil {
		return nil, nil, 0, nil, err
	}
	if !static {
		e.txIndex++
	}
	reason := forgetracing.ReasonFromError(res.Err)
	log.Debug("Executed call", "from", from, "to", to, "static", static, "gas", res.UsedGas, "exit", reason)
	return res.ReturnData, reason, res.UsedGas, logs, nil
}

func (e *GethEngine) Deploy(from common.Address, code []byte, value *big.Int) (common.Address, ExitReason, uint64, []string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	addr := crypto.CreateAddress(from, e.state.GetNonce(from))
	res, logs, err := e.execute(e.state, &CallMetadata{From: from, Data: code, Value: value, GasLimit: e.cfg.GasLimit}, nil)
	if err != nil {
		return common.Address{}, nil, 0, nil, err
	}
	e.txIndex++
	reason := forgetracing.ReasonFromError(res.Err)
	log.Debug("Executed deployment", "from", from, "address", addr, "gas", res.UsedGas, "exit", reason)
	return addr, reason, res.UsedGas, logs, nil
}

// AccessList reruns the execution on copies of state until the recorded
// access list no longer changes.
func (e *GethEngine) AccessList(from common.Address, to *common.Address, data []byte, value *big.Int) (types.AccessList, uint64, ExitReason, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	target := crypto.CreateAddress(from, e.state.GetNonce(from))
	if to != nil {
		target = *to
	}
	rules := e.cfg.ChainConfig.Rules(new(big.Int).SetUint64(uint64(len(e.headers))), true, e.pendingTime())
	exclude := map[common.Address]struct{}{from: {}, target: {}}
	for _, addr := range gethvm.ActivePrecompiles(rules) {
		exclude[addr] = struct{}{}
	}

	prev := logger.NewAccessListTracer(nil, exclude)
	for {
		acl := prev.AccessList()
		tracer := logger.NewAccessListTracer(acl, exclude)
		m := &CallMetadata{From: from, To: to, Data: data, Value: value, GasLimit: e.cfg.GasLimit, AccessList: acl}
		res, _, err := e.execute(e.state.Copy(), m, tracer.Hooks())
		if err != nil {
			return nil, 0, nil, err
		}
		if tracer.Equal(prev) {
			return acl, res.UsedGas, forgetracing.ReasonFromError(res.Err), nil
		}
		prev = tracer
	}
}

func (e *GethEngine) Snapshot() SnapshotID {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.snapshots.register(&engineSnapshot{
		state:   e.state.Copy(),
		headers: len(e.headers),
		txIndex: e.txIndex,
	})
}

func (e *GethEngine) Restore(id SnapshotID) error {
	snap, ok := e.snapshots.take(id)
	if !ok {
		return fmt.Errorf("restore %d: %w", id, ErrUnknownSnapshot)
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if snap.headers > len(e.headers) {
		return errors.New("snapshot is ahead of the current head")
	}
	e.state = snap.state
	e.headers = e.headers[:snap.headers]
	e.txIndex = snap.txIndex
	return nil
}

func (e *GethEngine) Seal() common.Hash {
	e.mu.Lock()
	defer e.mu.Unlock()

	parent := e.headers[len(e.headers)-1]
	header := &types.Header{
		ParentHash: parent.Hash(),
		Coinbase:   e.cfg.Coinbase,
		Root:       e.state.IntermediateRoot(true),
		Difficulty: new(big.Int),
		Number:     new(big.Int).SetUint64(uint64(len(e.headers))),
		GasLimit:   e.cfg.GasLimit,
		Time:       e.pendingTime(),
		BaseFee:    parent.BaseFee,
	}
	e.headers = append(e.headers, header)
	e.txIndex = 0

	hash := header.Hash()
	log.Info("Sealed block", "number", header.Number, "hash", hash, "root", header.Root)
	return hash
}

func (e *GethEngine) GasPrice() *big.Int { return new(big.Int).Set(e.cfg.GasPrice) }

func (e *GethEngine) GasLimit() uint64 { return e.cfg.GasLimit }

func (e *GethEngine) ChainID() *big.Int { return new(big.Int).Set(e.cfg.ChainConfig.ChainID) }

func (e *GethEngine) BlockNumber() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return uint64(len(e.headers))
}

func (e *GethEngine) BlockHash(num uint64) common.Hash {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.blockHashLocked(num)
}

func (e *GethEngine) Balance(addr common.Address) *big.Int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.GetBalance(addr).ToBig()
}

func (e *GethEngine) Nonce(addr common.Address) uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.GetNonce(addr)
}

func (e *GethEngine) Code(addr common.Address) []byte {
	e.mu.Lock()
	defer e.mu.Unlock()
	return common.CopyBytes(e.state.GetCode(addr))
}

func (e *GethEngine) IsSuccess(reason ExitReason) bool {
	r, ok := reason.(forgetracing.ExitReason)
	return ok && r.Succeeded()
}
