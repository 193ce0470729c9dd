package vm

import (
	"context"
	"crypto/ed25519"

	"github.com/dytallix/go-dytallix/common"
	"github.com/dytallix/go-dytallix/internal/gas"
	"github.com/dytallix/go-dytallix/internal/types"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

// hostModule is the only module contracts may import from.
const hostModule = "env"

// Result codes host functions return to the guest. Fatal conditions
// (out of gas, memory violations) never surface as codes: they abort the
// call instead.
const (
	hostOK            int32 = 0
	hostErrNotFound   int32 = -1
	hostErrInput      int32 = -2
	hostErrState      int32 = -3
	hostErrForbidden  int32 = -4
	hostSigValid      int32 = 1
	hostSigInvalid    int32 = 0
	hostDeleteExisted int32 = 1
	hostDeleteAbsent  int32 = 0
)

// Signature algorithm identifiers for crypto_verify_signature.
const sigAlgoEd25519 uint32 = 1

func env(ctx context.Context) *CallEnv {
	e := callEnvFrom(ctx)
	if e == nil {
		panic("host function called outside a contract call")
	}
	return e
}

// charge aborts the call on gas exhaustion: a contract that ran out of gas
// must not keep executing.
func charge(e *CallEnv, op gas.Op, amount types.Gas) {
	if err := e.Meter.Charge(op, amount); err != nil {
		e.abort(err)
	}
}

func readMem(e *CallEnv, mod api.Module, ptr, length uint32) []byte {
	buf, ok := mod.Memory().Read(ptr, length)
	if !ok {
		e.abort(types.NewVmVerboseError(types.ErrorExecutionFailed, "host read out of bounds"))
	}
	return append([]byte(nil), buf...)
}

func writeMem(e *CallEnv, mod api.Module, ptr uint32, data []byte) {
	if !mod.Memory().Write(ptr, data) {
		e.abort(types.NewVmVerboseError(types.ErrorExecutionFailed, "host write out of bounds"))
	}
}

// mapHostErr translates a typed host-side failure into a guest result code.
// Out-of-gas and unexpected state errors abort instead, since the guest must
// not be able to swallow them.
func mapHostErr(e *CallEnv, err error) int32 {
	switch types.GetErrorCode(err) {
	case types.ErrorInvalidInput:
		return hostErrInput
	case types.ErrorStateError:
		if types.IsVmError(err) {
			return hostErrState
		}
		e.abort(err)
	case types.ErrorPermissionDenied:
		return hostErrForbidden
	case types.ErrorOutOfGas:
		e.abort(err)
	}
	e.abort(types.KeepOrWrapError(types.ErrorStateError, err))
	return hostErrState // unreachable
}

func hostStorageGet(ctx context.Context, mod api.Module, keyPtr, keyLen, valPtr, maxLen uint32) int32 {
	e := env(ctx)
	charge(e, gas.OpStorageGet, e.Schedule.StorageGet)
	key := readMem(e, mod, keyPtr, keyLen)

	value, exists, err := e.State.StorageGet(e.Instance, key)
	if err != nil {
		return mapHostErr(e, err)
	}
	if !exists {
		return hostErrNotFound
	}
	n := uint32(len(value))
	if n > maxLen {
		n = maxLen
	}
	if n > 0 {
		writeMem(e, mod, valPtr, value[:n])
	}
	// The full length is returned even when truncated, so the guest can
	// retry with a larger buffer.
	return int32(len(value))
}

func hostStorageSet(ctx context.Context, mod api.Module, keyPtr, keyLen, valPtr, valLen uint32) int32 {
	e := env(ctx)
	charge(e, gas.OpStorageSet, e.Schedule.StorageSetCost(int(valLen)))
	key := readMem(e, mod, keyPtr, keyLen)
	value := readMem(e, mod, valPtr, valLen)

	if err := e.State.StorageSet(e.Instance, key, value); err != nil {
		return mapHostErr(e, err)
	}
	return hostOK
}

func hostStorageDelete(ctx context.Context, mod api.Module, keyPtr, keyLen uint32) int32 {
	e := env(ctx)
	charge(e, gas.OpStorageDelete, e.Schedule.StorageDelete)
	key := readMem(e, mod, keyPtr, keyLen)

	existed, err := e.State.StorageDelete(e.Instance, key)
	if err != nil {
		return mapHostErr(e, err)
	}
	if existed {
		return hostDeleteExisted
	}
	return hostDeleteAbsent
}

func hostCryptoHash(ctx context.Context, mod api.Module, ptr, length, outPtr uint32) int32 {
	e := env(ctx)
	charge(e, gas.OpCryptoHash, e.Schedule.CryptoHashCost(int(length)))
	input := readMem(e, mod, ptr, length)

	digest := common.Sha3(input)
	writeMem(e, mod, outPtr, digest.Bytes())
	return hostOK
}

func hostCryptoVerify(
	ctx context.Context, mod api.Module,
	sigPtr, sigLen, msgPtr, msgLen, pkPtr, pkLen, algo uint32,
) int32 {
	e := env(ctx)
	// Flat rate regardless of algorithm, so pricing never depends on which
	// schemes a node happens to support.
	charge(e, gas.OpCryptoVerify, e.Schedule.CryptoVerify)

	sig := readMem(e, mod, sigPtr, sigLen)
	msg := readMem(e, mod, msgPtr, msgLen)
	pk := readMem(e, mod, pkPtr, pkLen)

	if algo != sigAlgoEd25519 {
		return hostSigInvalid
	}
	if len(pk) != ed25519.PublicKeySize || len(sig) != ed25519.SignatureSize {
		return hostSigInvalid
	}
	if ed25519.Verify(ed25519.PublicKey(pk), msg, sig) {
		return hostSigValid
	}
	return hostSigInvalid
}

func hostEmitEvent(ctx context.Context, mod api.Module, topicPtr, topicLen, dataPtr, dataLen uint32) int32 {
	e := env(ctx)
	charge(e, gas.OpEmitEvent, e.Schedule.EmitEvent)
	topic := readMem(e, mod, topicPtr, topicLen)
	data := readMem(e, mod, dataPtr, dataLen)

	err := e.Events.Append(&types.Event{
		Instance: e.Instance,
		Topic:    topic,
		Data:     data,
	})
	if err != nil {
		return mapHostErr(e, err)
	}
	return hostOK
}

func hostGetBlockHeight(ctx context.Context) int64 {
	e := env(ctx)
	charge(e, gas.OpEnvRead, e.Schedule.EnvRead)
	return int64(e.Block.Height)
}

func hostGetBlockTime(ctx context.Context) int64 {
	e := env(ctx)
	charge(e, gas.OpEnvRead, e.Schedule.EnvRead)
	return int64(e.Block.Time)
}

func hostGetCallerAddress(ctx context.Context, mod api.Module, outPtr uint32) int32 {
	e := env(ctx)
	charge(e, gas.OpEnvRead, e.Schedule.EnvRead)
	writeMem(e, mod, outPtr, e.Caller.Bytes())
	return hostOK
}

func hostDebugLog(ctx context.Context, mod api.Module, ptr, length uint32) {
	e := env(ctx)
	charge(e, gas.OpDebugLog, e.Schedule.DebugLogCost(int(length)))
	msg := readMem(e, mod, ptr, length)

	// Observability only; the message never reaches state or receipts.
	e.Logger.Debug().
		Stringer("instance", e.Instance).
		Msg(string(msg))
}

func instantiateHostModule(ctx context.Context, runtime wazero.Runtime) (api.Closer, error) {
	return runtime.NewHostModuleBuilder(hostModule).
		NewFunctionBuilder().WithFunc(hostStorageGet).Export("storage_get").
		NewFunctionBuilder().WithFunc(hostStorageSet).Export("storage_set").
		NewFunctionBuilder().WithFunc(hostStorageDelete).Export("storage_delete").
		NewFunctionBuilder().WithFunc(hostCryptoHash).Export("crypto_hash").
		NewFunctionBuilder().WithFunc(hostCryptoVerify).Export("crypto_verify_signature").
		NewFunctionBuilder().WithFunc(hostEmitEvent).Export("emit_event").
		NewFunctionBuilder().WithFunc(hostGetBlockHeight).Export("get_block_height").
		NewFunctionBuilder().WithFunc(hostGetBlockTime).Export("get_block_time").
		NewFunctionBuilder().WithFunc(hostGetCallerAddress).Export("get_caller_address").
		NewFunctionBuilder().WithFunc(hostDebugLog).Export("debug_log").
		Instantiate(ctx)
}
