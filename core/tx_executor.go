package core

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"

	"github.com/clydemeng/evmforge/core/vm"
)

// TxOutput is the output of a locally executed request: return data for a
// call, the new contract's address for a creation.
type TxOutput struct {
	ret     []byte
	created *common.Address
}

func CallOutput(ret []byte) TxOutput { return TxOutput{ret: ret} }

func CreateOutput(addr common.Address) TxOutput { return TxOutput{created: &addr} }

// Bytes returns the call return data. ok is false for a creation.
func (o TxOutput) Bytes() (ret []byte, ok bool) {
	if o.created != nil {
		return nil, false
	}
	return o.ret, true
}

// Address returns the created contract. ok is false for a call.
func (o TxOutput) Address() (addr common.Address, ok bool) {
	if o.created == nil {
		return common.Address{}, false
	}
	return *o.created, true
}

func (o TxOutput) IsCreate() bool { return o.created != nil }

// TxResult is the outcome of one engine execution. A revert is a result,
// not an error.
type TxResult struct {
	Output TxOutput
	Exit   vm.ExitReason
	Gas    uint64
	Logs   []string
}

// ApplyTx executes tx against the engine and commits its effects. Symbolic
// destinations are resolved first.
func (f *Forge) ApplyTx(ctx context.Context, tx *TxRequest) (*TxResult, error) {
	to, err := f.resolveTo(ctx, tx)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.applyLocked(tx, to)
}

// resolveTo returns the concrete destination of tx, nil for a creation.
func (f *Forge) resolveTo(ctx context.Context, tx *TxRequest) (*common.Address, error) {
	if tx.To == nil {
		return nil, nil
	}
	if !tx.To.IsName() {
		addr := tx.To.Address
		return &addr, nil
	}
	addr, err := f.ResolveName(ctx, tx.To.Name)
	if err != nil {
		return nil, err
	}
	return &addr, nil
}

// withResolvedTo returns tx with a concrete destination along with that
// destination. tx is copied when a name had to be replaced.
func (f *Forge) withResolvedTo(ctx context.Context, tx *TxRequest) (*TxRequest, *common.Address, error) {
	to, err := f.resolveTo(ctx, tx)
	if err != nil {
		return nil, nil, err
	}
	if tx.To != nil && tx.To.IsName() {
		tx = tx.Copy()
		tx.To = Addr(*to)
	}
	return tx, to, nil
}

func (f *Forge) senderOf(tx *TxRequest) common.Address {
	if tx.From != nil {
		return *tx.From
	}
	return DefaultSender
}

// applyLocked runs tx with to already resolved. The caller holds f.mu
// exclusively.
func (f *Forge) applyLocked(tx *TxRequest, to *common.Address) (*TxResult, error) {
	var (
		from  = f.senderOf(tx)
		value = tx.value()
		data  = tx.data()
		start = time.Now()
		res   = new(TxResult)
		err   error
	)
	defer executionTimer.UpdateSince(start)

	if to != nil {
		var ret []byte
		ret, res.Exit, res.Gas, res.Logs, err = f.engine.CallRaw(from, *to, data, value, false)
		res.Output = CallOutput(ret)
	} else {
		var addr common.Address
		addr, res.Exit, res.Gas, res.Logs, err = f.engine.Deploy(from, data, value)
		res.Output = CreateOutput(addr)
	}
	if err != nil {
		return nil, executionErr("apply", err)
	}
	if !f.engine.IsSuccess(res.Exit) {
		revertedCounter.Inc(1)
	}
	log.Debug("Applied transaction", "from", from, "to", to, "value", value, "gas", res.Gas, "exit", res.Exit)
	return res, nil
}
