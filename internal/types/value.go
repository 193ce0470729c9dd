package types

import (
	"io"
	"math/big"

	"github.com/dytallix/go-dytallix/common/check"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
)

// Value is a 256-bit unsigned integer used for balances and fees. It wraps
// uint256.Int so fee arithmetic (gas_limit * gas_price) can be checked for
// overflow instead of silently wrapping at 64 bits.
type Value struct{ inner *uint256.Int }

func NewValue(val *uint256.Int) Value {
	return Value{new(uint256.Int).Set(val)}
}

func NewValueFromUint64(val uint64) Value {
	return Value{uint256.NewInt(val)}
}

func NewValueFromBig(val *big.Int) (Value, bool) {
	res, overflow := uint256.FromBig(val)
	if overflow {
		return Value{}, true
	}
	return Value{res}, false
}

func NewValueFromBigMust(val *big.Int) Value {
	res, overflow := NewValueFromBig(val)
	check.PanicIfNot(!overflow)
	return res
}

func (v Value) safeInt() *uint256.Int {
	if v.inner == nil {
		return &uint256.Int{}
	}
	return v.inner
}

func (v Value) IsZero() bool {
	return v.inner == nil || v.inner.IsZero()
}

func (v Value) Add(other Value) Value {
	return Value{new(uint256.Int).Add(v.safeInt(), other.safeInt())}
}

func (v Value) Sub(other Value) Value {
	return Value{new(uint256.Int).Sub(v.safeInt(), other.safeInt())}
}

func (v Value) Add64(other uint64) Value {
	return v.Add(NewValueFromUint64(other))
}

func (v Value) Sub64(other uint64) Value {
	return v.Sub(NewValueFromUint64(other))
}

func (v Value) Cmp(other Value) int {
	return v.safeInt().Cmp(other.safeInt())
}

func (v Value) Lt(other Value) bool {
	return v.Cmp(other) < 0
}

func (v Value) mulOverflow64(other uint64) (*uint256.Int, bool) {
	return new(uint256.Int).MulOverflow(v.safeInt(), uint256.NewInt(other))
}

func (v Value) Uint64() uint64 {
	return v.safeInt().Uint64()
}

func (v Value) ToBig() *big.Int {
	return v.safeInt().ToBig()
}

func (v Value) Bytes32() [32]byte {
	return v.safeInt().Bytes32()
}

func (v Value) EncodeRLP(w io.Writer) error {
	return rlp.Encode(w, v.safeInt())
}

func (v *Value) DecodeRLP(s *rlp.Stream) error {
	var inner uint256.Int
	if err := s.Decode(&inner); err != nil {
		return err
	}
	v.inner = &inner
	return nil
}

func (v Value) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

func (v *Value) UnmarshalText(input []byte) error {
	inner := new(uint256.Int)
	if err := inner.SetFromDecimal(string(input)); err != nil {
		return err
	}
	v.inner = inner
	return nil
}

func (v *Value) Set(value string) error {
	return v.UnmarshalText([]byte(value))
}

func (v Value) String() string {
	return v.safeInt().Dec()
}

func (Value) Type() string {
	return "Value"
}
