package vm

import (
	"context"

	"github.com/dytallix/go-dytallix/internal/gas"
	"github.com/dytallix/go-dytallix/internal/types"
	"github.com/rs/zerolog"
)

// HostState is what a contract call sees of the execution state. The
// implementation journals every mutation so the call can be reverted.
type HostState interface {
	StorageGet(instance types.Address, key []byte) ([]byte, bool, error)
	StorageSet(instance types.Address, key, value []byte) error
	StorageDelete(instance types.Address, key []byte) (bool, error)
}

// BlockInfo is the deterministic block environment exposed to contracts.
type BlockInfo struct {
	Height uint64
	Time   uint64
}

// CallEnv carries the per-call context host functions operate on. It travels
// through the wasm invocation via context, so one runtime instance can serve
// consecutive calls with different environments.
type CallEnv struct {
	State    HostState
	Meter    *gas.Meter
	Schedule *gas.Schedule
	Block    BlockInfo
	Caller   types.Address
	Instance types.Address
	Events   *EventLog
	Logger   zerolog.Logger

	// termErr is the first fatal host-side error; it aborts the call and
	// takes precedence over whatever the interpreter reports.
	termErr error
}

func (e *CallEnv) fail(err error) {
	if e.termErr == nil {
		e.termErr = err
	}
}

// hostAbort unwinds the interpreter stack after a fatal host-side failure.
type hostAbort struct {
	err error
}

func (e *CallEnv) abort(err error) {
	e.fail(err)
	panic(hostAbort{err})
}

type callEnvKey struct{}

func withCallEnv(ctx context.Context, env *CallEnv) context.Context {
	return context.WithValue(ctx, callEnvKey{}, env)
}

func callEnvFrom(ctx context.Context) *CallEnv {
	env, _ := ctx.Value(callEnvKey{}).(*CallEnv)
	return env
}
