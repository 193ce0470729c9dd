package execution

import (
	"context"

	"github.com/dytallix/go-dytallix/common"
	"github.com/dytallix/go-dytallix/common/logging"
	"github.com/dytallix/go-dytallix/internal/gas"
	"github.com/dytallix/go-dytallix/internal/types"
	"github.com/dytallix/go-dytallix/internal/vm"
	"github.com/rs/zerolog"
)

// BlockContext is the deterministic environment a block executes under.
type BlockContext struct {
	Height uint64
	Time   uint64
}

// ContractEngine is the sandbox the pipeline hands contract work to.
type ContractEngine interface {
	ValidateCode(ctx context.Context, code types.Code) error
	Instantiate(ctx context.Context, env *vm.CallEnv, code types.Code, initArgs []byte) (*vm.CallResult, error)
	Call(ctx context.Context, env *vm.CallEnv, code types.Code, method string, args []byte) (*vm.CallResult, error)
}

var _ ContractEngine = new(vm.Runtime)

// Executor drives transactions through the pipeline: validate, charge the
// fee, execute under a meter, then commit or revert. It is deterministic by
// construction; two executors given the same state and transactions produce
// identical receipts.
type Executor struct {
	schedule *gas.Schedule
	engine   ContractEngine
	metrics  *MetricsHandler
	logger   zerolog.Logger
}

func NewExecutor(engine ContractEngine) (*Executor, error) {
	metrics, err := NewMetricsHandler("dytallix.execution")
	if err != nil {
		return nil, err
	}
	return &Executor{
		schedule: gas.CurrentSchedule(),
		engine:   engine,
		metrics:  metrics,
		logger:   logging.NewLogger("executor"),
	}, nil
}

func (e *Executor) Schedule() *gas.Schedule {
	return e.schedule
}

// ExecuteTransaction runs one transaction against the state. Validation
// failures (bad nonce, unpayable fee, malformed shape) produce a failed
// receipt with zero state change. Once the fee is charged and the nonce
// bumped, those two effects survive any later failure; everything else is
// rolled back to the pre-execution snapshot.
//
// A non-nil error return means the engine itself failed (database trouble);
// the block cannot be produced and no receipt exists.
func (e *Executor) ExecuteTransaction(
	ctx context.Context, state *ExecutionState, block BlockContext, txn *types.Transaction,
) (*types.Receipt, error) {
	txHash := txn.Hash()

	if err := txn.ValidateShape(); err != nil {
		return e.finish(ctx, rejectedReceipt(txHash, err)), nil
	}

	intrinsic, err := e.schedule.IntrinsicGas(txn)
	if err != nil {
		return e.finish(ctx, rejectedReceipt(txHash, err)), nil
	}
	if txn.GasLimit.Lt(intrinsic) {
		err := types.NewVerboseError(types.ErrorInvalidInput, "gas limit below intrinsic gas")
		return e.finish(ctx, rejectedReceipt(txHash, err)), nil
	}

	sender, err := state.GetAccount(txn.From)
	if err != nil {
		return nil, err
	}
	if sender == nil || sender.Nonce != txn.Nonce {
		err := types.NewError(types.ErrorInvalidNonce)
		return e.finish(ctx, rejectedReceipt(txHash, err)), nil
	}

	fee, err := ChargeUpfrontFee(state, txn)
	if err != nil {
		if !types.IsValidError(err) {
			return nil, err
		}
		return e.finish(ctx, rejectedReceipt(txHash, err)), nil
	}
	if err := state.SetNonce(txn.From, txn.Nonce+1); err != nil {
		return nil, err
	}

	// Everything from here on is revertible; fee and nonce stay.
	snapshot := state.Snapshot()
	meter := gas.NewMeter(meterBudget(txn, intrinsic))

	contractAddr, events, returnData, execErr := e.executeKind(ctx, state, meter, block, txn)
	if execErr != nil && !types.IsValidError(execErr) {
		return nil, execErr
	}

	receipt := &types.Receipt{
		FormatVersion:    types.ReceiptFormatVersion,
		TxHash:           txHash,
		FeePaid:          fee,
		FeeDenom:         types.FeeDenom,
		ScheduleRevision: e.schedule.Revision,
	}

	if execErr != nil {
		state.RevertToSnapshot(snapshot)
		code := types.GetErrorCode(execErr)
		receipt.Success = false
		receipt.ErrCode = code
		receipt.GasUsed = intrinsic.Add(meter.Consumed())
		if code == types.ErrorOutOfGas {
			// Exhaustion forfeits the whole metered budget.
			receipt.GasUsed = intrinsic.Add(meter.Limit())
		}
		e.logger.Debug().
			Stringer(logging.FieldTxHash, txHash).
			Stringer(logging.FieldErrorCode, code).
			Stringer(logging.FieldGasUsed, receipt.GasUsed).
			Msg("transaction failed")
		return e.finish(ctx, receipt), nil
	}

	receipt.Success = true
	receipt.ErrCode = types.ErrorSuccess
	receipt.GasUsed = intrinsic.Add(meter.Consumed())
	receipt.ContractAddress = contractAddr
	receipt.ReturnData = returnData
	for _, event := range events {
		event.BlockHeight = block.Height
		event.TxHash = txHash
	}
	receipt.Events = events
	e.logger.Debug().
		Stringer(logging.FieldTxHash, txHash).
		Stringer(logging.FieldGasUsed, receipt.GasUsed).
		Msg("transaction executed")
	return e.finish(ctx, receipt), nil
}

// meterBudget is the revertible gas available after intrinsic costs. Calls
// into the sandbox are additionally capped by the per-call ceiling.
func meterBudget(txn *types.Transaction, intrinsic types.Gas) types.Gas {
	budget := txn.GasLimit.Sub(intrinsic)
	if txn.Kind == types.TxInstantiate || txn.Kind == types.TxCall {
		if gas.CallGasCeiling.Lt(budget) {
			budget = gas.CallGasCeiling
		}
	}
	return budget
}

// rejectedReceipt is the outcome of a transaction that failed before any
// state change: no fee, no gas, no effects.
func rejectedReceipt(txHash common.Hash, err error) *types.Receipt {
	return &types.Receipt{
		FormatVersion:    types.ReceiptFormatVersion,
		TxHash:           txHash,
		Success:          false,
		ErrCode:          types.GetErrorCode(err),
		FeePaid:          types.NewValueFromUint64(0),
		FeeDenom:         types.FeeDenom,
		ScheduleRevision: gas.CurrentRevision,
	}
}

func (e *Executor) finish(ctx context.Context, receipt *types.Receipt) *types.Receipt {
	e.metrics.TxProcessed(ctx, receipt)
	return receipt
}

func (e *Executor) executeKind(
	ctx context.Context, state *ExecutionState, meter *gas.Meter, block BlockContext, txn *types.Transaction,
) (*types.Address, []*types.Event, []byte, error) {
	switch txn.Kind {
	case types.TxTransfer:
		return nil, nil, nil, e.executeTransfer(state, meter, txn)
	case types.TxDeploy:
		return nil, nil, nil, e.executeDeploy(ctx, state, txn)
	case types.TxInstantiate:
		return e.executeInstantiate(ctx, state, meter, block, txn)
	case types.TxCall:
		events, ret, err := e.executeCall(ctx, state, meter, block, txn)
		return nil, events, ret, err
	default:
		return nil, nil, nil, types.NewVerboseError(types.ErrorInvalidInput, "unknown transaction kind")
	}
}

// executeTransfer moves value between accounts. The fixed KV touches of the
// two account records are metered so transfers compete for block gas fairly.
func (e *Executor) executeTransfer(state *ExecutionState, meter *gas.Meter, txn *types.Transaction) error {
	if err := meter.Charge(gas.OpKvRead, e.schedule.KvRead.Add(e.schedule.KvRead)); err != nil {
		return err
	}
	if err := meter.Charge(gas.OpKvWrite, e.schedule.KvWrite.Add(e.schedule.KvWrite)); err != nil {
		return err
	}
	if err := state.SubBalance(txn.From, txn.Amount); err != nil {
		return err
	}
	return state.AddBalance(txn.To, txn.Amount)
}

// executeDeploy stores validated bytecode under its content hash.
func (e *Executor) executeDeploy(ctx context.Context, state *ExecutionState, txn *types.Transaction) error {
	if err := e.engine.ValidateCode(ctx, txn.Code); err != nil {
		return err
	}
	_, err := state.DeployCode(txn.Code)
	return err
}

func (e *Executor) executeInstantiate(
	ctx context.Context, state *ExecutionState, meter *gas.Meter, block BlockContext, txn *types.Transaction,
) (*types.Address, []*types.Event, []byte, error) {
	code, err := state.GetCode(txn.CodeHash)
	if err != nil {
		return nil, nil, nil, err
	}
	instance, err := state.CreateInstance(txn.CodeHash, txn.From, txn.Salt, block.Height)
	if err != nil {
		return nil, nil, nil, err
	}

	env := e.callEnv(state, meter, block, txn.From, instance.Address)
	result, err := e.engine.Instantiate(ctx, env, code, txn.InitArgs)
	if err != nil {
		return nil, nil, nil, err
	}
	addr := instance.Address
	return &addr, result.Events, result.ReturnData, nil
}

func (e *Executor) executeCall(
	ctx context.Context, state *ExecutionState, meter *gas.Meter, block BlockContext, txn *types.Transaction,
) ([]*types.Event, []byte, error) {
	instance, err := state.GetInstance(txn.Instance)
	if err != nil {
		return nil, nil, err
	}
	if instance == nil {
		return nil, nil, types.NewVerboseError(types.ErrorInvalidContract, "unknown instance")
	}
	code, err := state.GetCode(instance.CodeHash)
	if err != nil {
		return nil, nil, err
	}

	env := e.callEnv(state, meter, block, txn.From, txn.Instance)
	result, err := e.engine.Call(ctx, env, code, txn.Method, txn.Args)
	if err != nil {
		return nil, nil, err
	}
	if len(result.ReturnData) > 0 {
		e.logger.Debug().
			Stringer(logging.FieldInstance, txn.Instance).
			Str(logging.FieldMethod, txn.Method).
			Int("returnBytes", len(result.ReturnData)).
			Msg("contract call returned data")
	}
	return result.Events, result.ReturnData, nil
}

func (e *Executor) callEnv(
	state *ExecutionState, meter *gas.Meter, block BlockContext, caller, instance types.Address,
) *vm.CallEnv {
	return &vm.CallEnv{
		State:    state,
		Meter:    meter,
		Schedule: e.schedule,
		Block:    vm.BlockInfo{Height: block.Height, Time: block.Time},
		Caller:   caller,
		Instance: instance,
		Events:   vm.NewEventLog(),
		Logger:   e.logger,
	}
}

