package gas

import (
	"github.com/dytallix/go-dytallix/internal/types"
)

// Op labels a meter charge for the per-operation breakdown in traces.
type Op string

const (
	OpIntrinsic     Op = "intrinsic"
	OpKvRead        Op = "kv_read"
	OpKvWrite       Op = "kv_write"
	OpStorageGet    Op = "storage_get"
	OpStorageSet    Op = "storage_set"
	OpStorageDelete Op = "storage_delete"
	OpCryptoHash    Op = "crypto_hash"
	OpCryptoVerify  Op = "crypto_verify"
	OpEnvRead       Op = "env_read"
	OpDebugLog      Op = "debug_log"
	OpEmitEvent     Op = "emit_event"
	OpExternalCall  Op = "external_call"
	OpTimeout       Op = "timeout"
)

// Meter tracks gas consumption against a fixed limit. A charge either fits
// entirely or fails without consuming anything; there is no refund path.
type Meter struct {
	limit    types.Gas
	consumed types.Gas
	byOp     map[Op]types.Gas
}

func NewMeter(limit types.Gas) *Meter {
	return &Meter{
		limit: limit,
		byOp:  make(map[Op]types.Gas),
	}
}

func (m *Meter) Charge(op Op, amount types.Gas) error {
	if m.Remaining().Lt(amount) {
		return types.NewVmVerboseError(types.ErrorOutOfGas, string(op))
	}
	m.consumed = m.consumed.Add(amount)
	m.byOp[op] = m.byOp[op].Add(amount)
	return nil
}

// ConsumeAll drains the remaining budget. Used when execution is aborted in
// a way that cannot be attributed to a specific charge (runaway loops).
func (m *Meter) ConsumeAll(op Op) {
	rest := m.Remaining()
	m.byOp[op] = m.byOp[op].Add(rest)
	m.consumed = m.limit
}

func (m *Meter) Limit() types.Gas {
	return m.limit
}

func (m *Meter) Consumed() types.Gas {
	return m.consumed
}

func (m *Meter) Remaining() types.Gas {
	return m.limit.Sub(m.consumed)
}

// Breakdown returns per-operation consumption. The returned map is a copy.
func (m *Meter) Breakdown() map[Op]types.Gas {
	out := make(map[Op]types.Gas, len(m.byOp))
	for op, g := range m.byOp {
		out[op] = g
	}
	return out
}
