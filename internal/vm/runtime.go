package vm

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dytallix/go-dytallix/common"
	"github.com/dytallix/go-dytallix/common/logging"
	"github.com/dytallix/go-dytallix/internal/gas"
	"github.com/dytallix/go-dytallix/internal/telemetry"
	"github.com/dytallix/go-dytallix/internal/types"
	"github.com/rs/zerolog"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/sys"
)

const (
	// MaxMemoryPages caps guest linear memory at 256 wasm pages (16 MiB).
	MaxMemoryPages = 256

	// MaxResultSize bounds the result buffer a call may return.
	MaxResultSize = 1024

	// compiledCacheSize is the number of compiled modules kept hot,
	// keyed by code hash.
	compiledCacheSize = 128

	// defaultCallDeadline bounds wall clock per call. Metering is driven by
	// host call charges, so a loop that makes no host calls would otherwise
	// spin forever.
	defaultCallDeadline = 2 * time.Second

	// instantiateExport runs once when an instance is created; it is optional.
	instantiateExport = "instantiate"
	// methodExportPrefix + method is the export a call invokes.
	methodExportPrefix = "contract_"
	// allocateExport is how the host obtains guest memory for call arguments.
	allocateExport = "allocate"
)

// CallResult is the successful outcome of a contract invocation.
type CallResult struct {
	ReturnData []byte
	Events     []*types.Event
}

// Runtime executes contract bytecode in a deterministic wasm sandbox: pure
// interpreter, fixed memory ceiling, no WASI, and only the host bridge
// importable. One Runtime serves many sequential calls.
type Runtime struct {
	runtime      wazero.Runtime
	hostModule   api.Closer
	compiled     *lru.Cache[common.Hash, wazero.CompiledModule]
	callDeadline time.Duration
	calls        *telemetry.Measurer
	logger       zerolog.Logger
}

func NewRuntime(ctx context.Context) (*Runtime, error) {
	cfg := wazero.NewRuntimeConfigInterpreter().
		WithMemoryLimitPages(MaxMemoryPages).
		WithCloseOnContextDone(true)
	runtime := wazero.NewRuntimeWithConfig(ctx, cfg)

	host, err := instantiateHostModule(ctx, runtime)
	if err != nil {
		_ = runtime.Close(ctx)
		return nil, fmt.Errorf("host module setup failed: %w", err)
	}

	cache, err := lru.NewWithEvict(compiledCacheSize,
		func(_ common.Hash, mod wazero.CompiledModule) {
			_ = mod.Close(context.Background())
		})
	if err != nil {
		_ = runtime.Close(ctx)
		return nil, err
	}

	calls, err := telemetry.NewMeasurer(telemetry.NewMeter("dytallix.vm"), "contract_calls")
	if err != nil {
		_ = runtime.Close(ctx)
		return nil, err
	}

	return &Runtime{
		runtime:      runtime,
		hostModule:   host,
		compiled:     cache,
		callDeadline: defaultCallDeadline,
		calls:        calls,
		logger:       logging.NewLogger("vm"),
	}, nil
}

func (r *Runtime) Close(ctx context.Context) error {
	r.compiled.Purge()
	return r.runtime.Close(ctx)
}

// ValidateCode checks bytecode the way deploy needs it: structural limits
// plus a full compile under the interpreter.
func (r *Runtime) ValidateCode(ctx context.Context, code types.Code) error {
	if err := code.Validate(); err != nil {
		return err
	}
	if _, err := r.compile(ctx, code); err != nil {
		return err
	}
	return nil
}

func (r *Runtime) compile(ctx context.Context, code types.Code) (wazero.CompiledModule, error) {
	hash := code.Hash()
	if mod, ok := r.compiled.Get(hash); ok {
		return mod, nil
	}
	mod, err := r.runtime.CompileModule(ctx, code)
	if err != nil {
		return nil, types.NewVerboseError(types.ErrorInvalidContract, err.Error())
	}
	r.compiled.Add(hash, mod)
	return mod, nil
}

// Instantiate runs the optional instantiate export of freshly deployed code.
func (r *Runtime) Instantiate(ctx context.Context, env *CallEnv, code types.Code, initArgs []byte) (*CallResult, error) {
	return r.run(ctx, env, code, instantiateExport, initArgs, true)
}

// Call invokes an exported contract method.
func (r *Runtime) Call(ctx context.Context, env *CallEnv, code types.Code, method string, args []byte) (*CallResult, error) {
	return r.run(ctx, env, code, methodExportPrefix+method, args, false)
}

func (r *Runtime) run(
	ctx context.Context, env *CallEnv, code types.Code, export string, args []byte, optional bool,
) (*CallResult, error) {
	compiled, err := r.compile(ctx, code)
	if err != nil {
		return nil, err
	}
	r.calls.Restart()
	defer r.calls.Measure(ctx)

	ctx = withCallEnv(ctx, env)
	ctx, cancel := context.WithTimeout(ctx, r.callDeadline)
	defer cancel()

	mod, err := r.runtime.InstantiateModule(ctx, compiled,
		wazero.NewModuleConfig().WithName("").WithStartFunctions())
	if err != nil {
		return nil, r.mapRunError(env, err)
	}
	defer mod.Close(context.WithoutCancel(ctx))

	fn := mod.ExportedFunction(export)
	if fn == nil {
		if optional {
			return &CallResult{Events: env.Events.Events()}, nil
		}
		return nil, types.NewVmVerboseError(types.ErrorInvalidContract,
			fmt.Sprintf("missing export %q", export))
	}

	argPtr := uint32(0)
	if len(args) > 0 {
		argPtr, err = r.placeArgs(ctx, env, mod, args)
		if err != nil {
			return nil, err
		}
	}

	res, err := r.invoke(ctx, fn, uint64(argPtr), uint64(len(args)))
	if env.termErr != nil {
		return nil, env.termErr
	}
	if err != nil {
		return nil, r.mapRunError(env, err)
	}
	if len(res) != 1 {
		return nil, types.NewVmVerboseError(types.ErrorInvalidContract,
			fmt.Sprintf("export %q has wrong signature", export))
	}

	status := int32(res[0])
	if status < 0 {
		return nil, types.NewVmVerboseError(types.ErrorExecutionFailed,
			fmt.Sprintf("contract returned %d", status))
	}

	result := &CallResult{Events: env.Events.Events()}
	if status > 0 {
		result.ReturnData, err = readResult(mod, uint32(status))
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

// placeArgs copies call arguments into guest memory via the allocate export.
func (r *Runtime) placeArgs(ctx context.Context, env *CallEnv, mod api.Module, args []byte) (uint32, error) {
	alloc := mod.ExportedFunction(allocateExport)
	if alloc == nil {
		return 0, types.NewVmVerboseError(types.ErrorInvalidContract,
			"missing allocate export for call arguments")
	}
	res, err := r.invoke(ctx, alloc, uint64(len(args)))
	if env.termErr != nil {
		return 0, env.termErr
	}
	if err != nil {
		return 0, r.mapRunError(env, err)
	}
	if len(res) != 1 {
		return 0, types.NewVmVerboseError(types.ErrorInvalidContract,
			"allocate export has wrong signature")
	}
	ptr := uint32(res[0])
	if !mod.Memory().Write(ptr, args) {
		return 0, types.NewVmVerboseError(types.ErrorExecutionFailed,
			"allocate returned an out-of-bounds pointer")
	}
	return ptr, nil
}

// invoke wraps a guest call, converting host aborts back into errors.
func (r *Runtime) invoke(ctx context.Context, fn api.Function, params ...uint64) (res []uint64, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			if abort, ok := rec.(hostAbort); ok {
				err = abort.err
				return
			}
			err = fmt.Errorf("guest invocation panicked: %v", rec)
		}
	}()
	return fn.Call(ctx, params...)
}

// mapRunError folds interpreter failures into the execution error taxonomy.
// Deadline hits become OutOfGas with the whole metered budget reported spent,
// so a loop that avoids host calls yields the same receipt on every node.
func (r *Runtime) mapRunError(env *CallEnv, err error) error {
	if env.termErr != nil {
		return env.termErr
	}

	var exitErr *sys.ExitError
	deadline := errors.Is(err, context.DeadlineExceeded)
	if errors.As(err, &exitErr) && exitErr.ExitCode() == sys.ExitCodeDeadlineExceeded {
		deadline = true
	}
	if deadline {
		env.Meter.ConsumeAll(gas.OpTimeout)
		r.logger.Warn().
			Stringer(logging.FieldInstance, env.Instance).
			Msg("contract call hit the wall clock deadline")
		return types.NewVmVerboseError(types.ErrorOutOfGas, "call deadline exceeded")
	}

	return types.NewVmVerboseError(types.ErrorExecutionFailed, err.Error())
}

// readResult decodes the length-prefixed result buffer a call returned.
func readResult(mod api.Module, ptr uint32) ([]byte, error) {
	header, ok := mod.Memory().Read(ptr, 4)
	if !ok {
		return nil, types.NewVmVerboseError(types.ErrorExecutionFailed, "result pointer out of bounds")
	}
	n := binary.LittleEndian.Uint32(header)
	if n > MaxResultSize {
		return nil, types.NewVmVerboseError(types.ErrorExecutionFailed,
			fmt.Sprintf("result size %d exceeds limit %d", n, MaxResultSize))
	}
	if n == 0 {
		return nil, nil
	}
	data, ok := mod.Memory().Read(ptr+4, n)
	if !ok {
		return nil, types.NewVmVerboseError(types.ErrorExecutionFailed, "result buffer out of bounds")
	}
	return append([]byte(nil), data...), nil
}
