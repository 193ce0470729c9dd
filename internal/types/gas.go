package types

import (
	"strconv"

	"github.com/dytallix/go-dytallix/common/check"
)

type Gas uint64

func (g Gas) Uint64() uint64 {
	return uint64(g)
}

func (g Gas) Add(other Gas) Gas {
	return Gas(g.Uint64() + other.Uint64())
}

// AddOverflow is the checked variant of Add, used in intrinsic gas
// computation where inputs are attacker-controlled.
func (g Gas) AddOverflow(other Gas) (Gas, bool) {
	res := g.Uint64() + other.Uint64()
	return Gas(res), res < g.Uint64()
}

func (g Gas) Sub(other Gas) Gas {
	return Gas(g.Uint64() - other.Uint64())
}

func (g Gas) Lt(other Gas) bool {
	return g.Uint64() < other.Uint64()
}

func (g Gas) ToValue(price Value) Value {
	res, overflow := g.ToValueOverflow(price)
	check.PanicIfNot(!overflow)
	return res
}

func (g Gas) ToValueOverflow(price Value) (Value, bool) {
	res, overflow := price.mulOverflow64(g.Uint64())
	return Value{res}, overflow
}

func (g Gas) String() string {
	return strconv.FormatUint(g.Uint64(), 10)
}

func (g *Gas) Set(value string) error {
	res, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return err
	}
	*g = Gas(res)
	return nil
}

func (Gas) Type() string {
	return "Gas"
}
