package tracing

import (
	"errors"

	"github.com/ethereum/go-ethereum/core/vm"
)

// ExitReason describes how an execution inside the engine terminated.
type ExitReason int

const (
	ExitSucceeded ExitReason = iota
	ExitReverted
	ExitOutOfGas
	ExitInvalidOpcode
	ExitInvalidJump
	ExitStackFailure
	ExitInsufficientBalance
	ExitCodeStoreFailure
	ExitDepthExceeded
	ExitWriteProtection
	ExitAddressCollision
	ExitOther
)

// String returns a human-readable string for the reason.
func (r ExitReason) String() string {
	switch r {
	case ExitSucceeded:
		return "succeeded"
	case ExitReverted:
		return "reverted"
	case ExitOutOfGas:
		return "out_of_gas"
	case ExitInvalidOpcode:
		return "invalid_opcode"
	case ExitInvalidJump:
		return "invalid_jump"
	case ExitStackFailure:
		return "stack_failure"
	case ExitInsufficientBalance:
		return "insufficient_balance"
	case ExitCodeStoreFailure:
		return "code_store_failure"
	case ExitDepthExceeded:
		return "depth_exceeded"
	case ExitWriteProtection:
		return "write_protection"
	case ExitAddressCollision:
		return "address_collision"
	case ExitOther:
		return "other"
	}
	return "unknown"
}

// Succeeded reports whether the reason denotes a successful halt.
func (r ExitReason) Succeeded() bool { return r == ExitSucceeded }

// ReasonFromError maps the error reported by the EVM for a single execution
// onto an ExitReason. A nil error is a success.
func ReasonFromError(err error) ExitReason {
	if err == nil {
		return ExitSucceeded
	}
	var (
		invalidOp *vm.ErrInvalidOpCode
		underflow *vm.ErrStackUnderflow
		overflow  *vm.ErrStackOverflow
	)
	switch {
	case errors.Is(err, vm.ErrExecutionReverted):
		return ExitReverted
	case errors.Is(err, vm.ErrOutOfGas), errors.Is(err, vm.ErrGasUintOverflow):
		return ExitOutOfGas
	case errors.Is(err, vm.ErrCodeStoreOutOfGas), errors.Is(err, vm.ErrMaxCodeSizeExceeded),
		errors.Is(err, vm.ErrInvalidCode), errors.Is(err, vm.ErrMaxInitCodeSizeExceeded):
		return ExitCodeStoreFailure
	case errors.Is(err, vm.ErrDepth):
		return ExitDepthExceeded
	case errors.Is(err, vm.ErrInsufficientBalance):
		return ExitInsufficientBalance
	case errors.Is(err, vm.ErrWriteProtection):
		return ExitWriteProtection
	case errors.Is(err, vm.ErrContractAddressCollision):
		return ExitAddressCollision
	case errors.Is(err, vm.ErrInvalidJump):
		return ExitInvalidJump
	case errors.As(err, &invalidOp):
		return ExitInvalidOpcode
	case errors.As(err, &underflow), errors.As(err, &overflow):
		return ExitStackFailure
	}
	return ExitOther
}
