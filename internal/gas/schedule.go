package gas

import (
	"fmt"

	"github.com/dytallix/go-dytallix/internal/types"
)

// CurrentRevision is the schedule revision new blocks execute under.
// Revisions are append-only: re-executing a historical block looks up the
// table by the revision recorded in its receipts.
const CurrentRevision uint32 = 1

// CallGasCeiling caps the metered budget of a single contract call,
// independently of the transaction gas limit.
const CallGasCeiling types.Gas = 10_000_000

// Schedule is one immutable revision of the gas cost table.
type Schedule struct {
	Revision uint32

	// Intrinsic costs, charged before execution starts.
	TransferBase    types.Gas
	DeployBase      types.Gas
	InstantiateBase types.Gas
	CallBase        types.Gas
	PerPayloadByte  types.Gas
	// PerExtraSignature prices each co-signature beyond the first.
	PerExtraSignature types.Gas

	// Host call costs.
	StorageGet        types.Gas
	StorageSetBase    types.Gas
	StorageSetPerWord types.Gas // per started 32-byte word of the value
	StorageDelete     types.Gas
	CryptoHashBase    types.Gas
	CryptoHashPerWord types.Gas // per started 32-byte word of the input
	CryptoVerify      types.Gas // flat, algorithm-independent
	EnvRead           types.Gas
	DebugLogBase      types.Gas
	DebugLogPerChunk  types.Gas // per started 64-byte chunk
	EmitEvent         types.Gas
	ExternalCall      types.Gas // reserved for cross-contract calls

	// Fixed KV touches of a native transfer (sender+recipient accounts).
	KvRead  types.Gas
	KvWrite types.Gas

	// PerVmInstruction stays zero until bytecode instrumentation lands;
	// metering is driven by host call charges.
	PerVmInstruction types.Gas
}

var v1 = Schedule{
	Revision: 1,

	TransferBase:      500,
	DeployBase:        50_000,
	InstantiateBase:   15_000,
	CallBase:          8_000,
	PerPayloadByte:    2,
	PerExtraSignature: 700,

	StorageGet:        40,
	StorageSetBase:    80,
	StorageSetPerWord: 5,
	StorageDelete:     50,
	CryptoHashBase:    15,
	CryptoHashPerWord: 15,
	CryptoVerify:      5_000,
	EnvRead:           5,
	DebugLogBase:      30,
	DebugLogPerChunk:  5,
	EmitEvent:         80,
	ExternalCall:      700,

	KvRead:  40,
	KvWrite: 120,

	PerVmInstruction: 0,
}

func CurrentSchedule() *Schedule {
	s, err := ScheduleForRevision(CurrentRevision)
	if err != nil {
		panic(err)
	}
	return s
}

func ScheduleForRevision(revision uint32) (*Schedule, error) {
	switch revision {
	case 1:
		s := v1
		return &s, nil
	default:
		return nil, fmt.Errorf("unknown gas schedule revision %d", revision)
	}
}

func wordsOf(length, wordSize int) uint64 {
	if length <= 0 {
		return 0
	}
	return uint64((length + wordSize - 1) / wordSize)
}

func (s *Schedule) baseFor(kind types.TxKind) (types.Gas, error) {
	switch kind {
	case types.TxTransfer:
		return s.TransferBase, nil
	case types.TxDeploy:
		return s.DeployBase, nil
	case types.TxInstantiate:
		return s.InstantiateBase, nil
	case types.TxCall:
		return s.CallBase, nil
	default:
		return 0, types.NewVerboseError(types.ErrorInvalidInput, "unknown transaction kind")
	}
}

// IntrinsicGas computes the unmetered part of a transaction's cost:
// kind base, per-payload-byte and per-extra-signature components. All
// additions are overflow-checked because the inputs are caller-controlled.
func (s *Schedule) IntrinsicGas(txn *types.Transaction) (types.Gas, error) {
	total, err := s.baseFor(txn.Kind)
	if err != nil {
		return 0, err
	}

	payloadGas := types.Gas(uint64(len(txn.Payload())) * s.PerPayloadByte.Uint64())
	total, overflow := total.AddOverflow(payloadGas)
	if overflow {
		return 0, types.NewVerboseError(types.ErrorInvalidInput, "intrinsic gas overflow")
	}

	sigGas := types.Gas(uint64(txn.ExtraSignatures) * s.PerExtraSignature.Uint64())
	total, overflow = total.AddOverflow(sigGas)
	if overflow {
		return 0, types.NewVerboseError(types.ErrorInvalidInput, "intrinsic gas overflow")
	}
	return total, nil
}

// StorageSetCost prices a storage write by value size.
func (s *Schedule) StorageSetCost(valueLen int) types.Gas {
	return s.StorageSetBase.Add(types.Gas(wordsOf(valueLen, 32) * s.StorageSetPerWord.Uint64()))
}

// CryptoHashCost prices hashing by input size.
func (s *Schedule) CryptoHashCost(inputLen int) types.Gas {
	return s.CryptoHashBase.Add(types.Gas(wordsOf(inputLen, 32) * s.CryptoHashPerWord.Uint64()))
}

// DebugLogCost prices a debug message by length.
func (s *Schedule) DebugLogCost(messageLen int) types.Gas {
	return s.DebugLogBase.Add(types.Gas(wordsOf(messageLen, 64) * s.DebugLogPerChunk.Uint64()))
}
