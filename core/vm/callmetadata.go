package vm

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

var (
	ErrNegativeValue = errors.New("negative value")
	ErrValueOverflow = errors.New("value exceeds 256 bits")
)

// CallMetadata carries the fields GethEngine needs to turn a raw call or
// deployment into a go-ethereum message. To is nil for contract creation.
type CallMetadata struct {
	From       common.Address
	To         *common.Address
	Data       []byte
	Value      *big.Int
	GasLimit   uint64
	AccessList types.AccessList
}

// validate rejects values the EVM cannot represent.
func (m *CallMetadata) validate() error {
	if m.Value == nil {
		return nil
	}
	if m.Value.Sign() < 0 {
		return fmt.Errorf("%w: %v", ErrNegativeValue, m.Value)
	}
	if _, overflow := uint256.FromBig(m.Value); overflow {
		return fmt.Errorf("%w: %v", ErrValueOverflow, m.Value)
	}
	return nil
}

// toMessage builds a fee-less message. Gas price and fee caps stay zero so the
// sender only needs to cover the transferred value.
func (m *CallMetadata) toMessage(nonce uint64) *core.Message {
	value := m.Value
	if value == nil {
		value = new(big.Int)
	}
	return &core.Message{
		From:       m.From,
		To:         m.To,
		Nonce:      nonce,
		Value:      value,
		GasLimit:   m.GasLimit,
		GasPrice:   new(big.Int),
		GasFeeCap:  new(big.Int),
		GasTipCap:  new(big.Int),
		Data:       m.Data,
		AccessList: m.AccessList,
	}
}

// logKey derives the key under which the state records the logs of this
// execution. It only has to be unique per sender and nonce.
func (m *CallMetadata) logKey(nonce uint64) common.Hash {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], nonce)
	return crypto.Keccak256Hash(m.From.Bytes(), buf[:])
}
