package core

import (
	"errors"
	"fmt"
)

// Kind classifies the origin of a failure.
type Kind int

const (
	// KindDelegation marks failures reported by the remote client while
	// serving a delegated request.
	KindDelegation Kind = iota + 1
	// KindTransport marks provider-level failures that happen outside a
	// delegated client call, such as name resolution.
	KindTransport
	// KindExecution marks failures of the local engine.
	KindExecution
)

func (k Kind) String() string {
	switch k {
	case KindDelegation:
		return "delegation"
	case KindTransport:
		return "transport"
	case KindExecution:
		return "execution"
	}
	return "unknown"
}

var (
	ErrNameNotFound = errors.New("name not found")
	ErrNoBaseFee    = errors.New("remote head has no base fee")

	ErrUnsupportedTxType = errors.New("unsupported transaction type")
)

// Error is the single error type surfaced by Forge.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("forge %s: %s error: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err carries a forge error of the given kind.
func IsKind(err error, kind Kind) bool {
	var fe *Error
	return errors.As(err, &fe) && fe.Kind == kind
}

func wrapErr(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	var fe *Error
	if errors.As(err, &fe) {
		return err
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

func delegationErr(op string, err error) error { return wrapErr(KindDelegation, op, err) }
func transportErr(op string, err error) error  { return wrapErr(KindTransport, op, err) }
func executionErr(op string, err error) error  { return wrapErr(KindExecution, op, err) }
