package core

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
)

// NameOrAddress is either a concrete account address or a symbolic name
// that must be resolved before local use.
type NameOrAddress struct {
	Name    string
	Address common.Address
}

// Addr wraps a concrete address.
func Addr(a common.Address) *NameOrAddress { return &NameOrAddress{Address: a} }

// Name wraps a symbolic name such as "vitalik.eth".
func Name(name string) *NameOrAddress { return &NameOrAddress{Name: name} }

// IsName reports whether the value still needs resolution.
func (n NameOrAddress) IsName() bool { return n.Name != "" }

func (n NameOrAddress) String() string {
	if n.IsName() {
		return n.Name
	}
	return n.Address.Hex()
}

func (n NameOrAddress) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.String())
}

func (n *NameOrAddress) UnmarshalJSON(input []byte) error {
	var s string
	if err := json.Unmarshal(input, &s); err != nil {
		return err
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		var a common.Address
		if err := a.UnmarshalText([]byte(s)); err != nil {
			return err
		}
		*n = NameOrAddress{Address: a}
		return nil
	}
	*n = NameOrAddress{Name: s}
	return nil
}

// TxRequest is an unsigned, possibly partially filled transaction. Its JSON
// form matches the argument object of eth_call.
type TxRequest struct {
	Type                 *hexutil.Uint64   `json:"type,omitempty"`
	From                 *common.Address   `json:"from,omitempty"`
	To                   *NameOrAddress    `json:"to,omitempty"`
	Gas                  *hexutil.Uint64   `json:"gas,omitempty"`
	GasPrice             *hexutil.Big      `json:"gasPrice,omitempty"`
	MaxFeePerGas         *hexutil.Big      `json:"maxFeePerGas,omitempty"`
	MaxPriorityFeePerGas *hexutil.Big      `json:"maxPriorityFeePerGas,omitempty"`
	Value                *hexutil.Big      `json:"value,omitempty"`
	Nonce                *hexutil.Uint64   `json:"nonce,omitempty"`
	Data                 *hexutil.Bytes    `json:"data,omitempty"`
	AccessList           *types.AccessList `json:"accessList,omitempty"`
	ChainID              *hexutil.Big      `json:"chainId,omitempty"`
}

// Copy returns a shallow copy whose pointer fields can be replaced without
// affecting the receiver.
func (tx *TxRequest) Copy() *TxRequest {
	cpy := *tx
	return &cpy
}

// Validate rejects schemes other than legacy, access-list and dynamic-fee.
func (tx *TxRequest) Validate() error {
	if tx.Type != nil && uint64(*tx.Type) > types.DynamicFeeTxType {
		return fmt.Errorf("%w: %#x", ErrUnsupportedTxType, uint64(*tx.Type))
	}
	return nil
}

// TxType returns the transaction scheme, legacy when unset. The request must
// have passed Validate.
func (tx *TxRequest) TxType() uint8 {
	if tx.Type == nil {
		return types.LegacyTxType
	}
	return uint8(*tx.Type)
}

// SetType selects the transaction scheme.
func (tx *TxRequest) SetType(t uint8) *TxRequest {
	v := hexutil.Uint64(t)
	tx.Type = &v
	return tx
}

// SupportsAccessList reports whether the scheme carries an access list.
func (tx *TxRequest) SupportsAccessList() bool {
	t := tx.TxType()
	return t == types.AccessListTxType || t == types.DynamicFeeTxType
}

func (tx *TxRequest) HasAccessList() bool {
	return tx.AccessList != nil && len(*tx.AccessList) > 0
}

func (tx *TxRequest) value() *big.Int {
	if tx.Value == nil {
		return new(big.Int)
	}
	return tx.Value.ToInt()
}

func (tx *TxRequest) data() []byte {
	if tx.Data == nil {
		return nil
	}
	return *tx.Data
}

func (tx *TxRequest) SetGas(gas uint64) *TxRequest {
	v := hexutil.Uint64(gas)
	tx.Gas = &v
	return tx
}

func (tx *TxRequest) SetNonce(nonce uint64) *TxRequest {
	v := hexutil.Uint64(nonce)
	tx.Nonce = &v
	return tx
}

func (tx *TxRequest) SetValue(v *big.Int) *TxRequest {
	tx.Value = (*hexutil.Big)(new(big.Int).Set(v))
	return tx
}

func (tx *TxRequest) SetData(data []byte) *TxRequest {
	b := hexutil.Bytes(common.CopyBytes(data))
	tx.Data = &b
	return tx
}

func (tx *TxRequest) SetGasPrice(p *big.Int) *TxRequest {
	tx.GasPrice = (*hexutil.Big)(new(big.Int).Set(p))
	return tx
}

func (tx *TxRequest) SetAccessList(acl types.AccessList) *TxRequest {
	tx.AccessList = &acl
	return tx
}

// toTransaction builds the unsigned transaction whose signing hash stands in
// for the identity of a locally executed request. To must be resolved.
func (tx *TxRequest) toTransaction(chainID *big.Int) *types.Transaction {
	var (
		to       *common.Address
		nonce    uint64
		gas      uint64
		acl      types.AccessList
		gasPrice = new(big.Int)
		feeCap   = new(big.Int)
		tipCap   = new(big.Int)
	)
	if tx.To != nil {
		addr := tx.To.Address
		to = &addr
	}
	if tx.Nonce != nil {
		nonce = uint64(*tx.Nonce)
	}
	if tx.Gas != nil {
		gas = uint64(*tx.Gas)
	}
	if tx.AccessList != nil {
		acl = *tx.AccessList
	}
	if tx.GasPrice != nil {
		gasPrice = tx.GasPrice.ToInt()
	}
	if tx.MaxFeePerGas != nil {
		feeCap = tx.MaxFeePerGas.ToInt()
	}
	if tx.MaxPriorityFeePerGas != nil {
		tipCap = tx.MaxPriorityFeePerGas.ToInt()
	}
	switch tx.TxType() {
	case types.DynamicFeeTxType:
		return types.NewTx(&types.DynamicFeeTx{
			ChainID:    chainID,
			Nonce:      nonce,
			GasTipCap:  tipCap,
			GasFeeCap:  feeCap,
			Gas:        gas,
			To:         to,
			Value:      tx.value(),
			Data:       tx.data(),
			AccessList: acl,
		})
	case types.AccessListTxType:
		return types.NewTx(&types.AccessListTx{
			ChainID:    chainID,
			Nonce:      nonce,
			GasPrice:   gasPrice,
			Gas:        gas,
			To:         to,
			Value:      tx.value(),
			Data:       tx.data(),
			AccessList: acl,
		})
	default:
		return types.NewTx(&types.LegacyTx{
			Nonce:    nonce,
			GasPrice: gasPrice,
			Gas:      gas,
			To:       to,
			Value:    tx.value(),
			Data:     tx.data(),
		})
	}
}

// SigHash returns the signing hash of the request for the given chain.
func (tx *TxRequest) SigHash(chainID *big.Int) common.Hash {
	return types.LatestSignerForChainID(chainID).Hash(tx.toTransaction(chainID))
}
