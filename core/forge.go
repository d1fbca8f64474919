package core

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"

	"github.com/clydemeng/evmforge/core/vm"
)

// DefaultSender is the sender used for requests that name none.
var DefaultSender = common.HexToAddress("0xD3D13a578a53685B4ac36A1Bab31912D2B2A2F36")

// Forge answers client requests either from a local execution engine or by
// delegating them to a remote node. Requests that target the engine's own
// head are served locally; everything else goes to the remote.
//
// The engine is guarded by mu: executions, snapshots and sealing take it
// exclusively, state queries share it. An operation classifies its block and
// serves a local answer within a single hold of mu. No lock is held while a
// request is in flight to the remote node. FillTransaction routes each of its
// lookups separately, so a concurrent Mine may move the head between them.
type Forge struct {
	mu     sync.RWMutex
	engine vm.Engine

	inner         Inner
	defaultSender *common.Address
	resolver      NameResolver
}

// Option configures a Forge.
type Option func(*Forge)

// WithDefaultSender makes the filler fill in addr when a request has no sender.
func WithDefaultSender(addr common.Address) Option {
	return func(f *Forge) { f.defaultSender = &addr }
}

// WithResolver replaces the ENS registry lookup used for symbolic names.
func WithResolver(r NameResolver) Option {
	return func(f *Forge) { f.resolver = r }
}

// New returns a Forge without a remote node. Any request that would have to
// be delegated panics.
func New(engine vm.Engine, opts ...Option) *Forge {
	return newForge(engine, Not(), opts...)
}

// NewWithProvider returns a Forge that delegates non-head requests to p.
func NewWithProvider(engine vm.Engine, p Provider, opts ...Option) *Forge {
	return newForge(engine, Use(p), opts...)
}

func newForge(engine vm.Engine, inner Inner, opts ...Option) *Forge {
	f := &Forge{engine: engine, inner: inner}
	f.resolver = &ensResolver{caller: f, registry: ENSRegistry}
	for _, opt := range opts {
		opt(f)
	}
	log.Info("Created forge", "engine", engine.Name(), "remote", inner.Enabled())
	return f
}

// Inner returns the remote reference.
func (f *Forge) Inner() Inner { return f.inner }

func (f *Forge) remote() Provider { return f.inner.Provider() }

// Mine seals the block under construction and returns its hash.
func (f *Forge) Mine(ctx context.Context) (common.Hash, error) {
	if err := ctx.Err(); err != nil {
		return common.Hash{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.engine.Seal(), nil
}

// Snapshot saves the engine state.
func (f *Forge) Snapshot(ctx context.Context) (vm.SnapshotID, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.engine.Snapshot(), nil
}

// Revert rewinds the engine to a snapshot taken earlier. Each snapshot can be
// reverted to once.
func (f *Forge) Revert(ctx context.Context, id vm.SnapshotID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return executionErr("revert", f.engine.Restore(id))
}
