package execution

import (
	"context"

	"github.com/dytallix/go-dytallix/internal/db"
	"github.com/dytallix/go-dytallix/internal/types"
)

// BlockResult carries the receipts of an executed block in transaction order.
type BlockResult struct {
	Block    BlockContext
	Receipts []*types.Receipt
}

// ExecuteBlock runs an ordered list of transactions in a single database
// transaction and commits the post-state together with the receipts. Any
// engine-level failure aborts the whole block without persisting anything.
func (e *Executor) ExecuteBlock(
	ctx context.Context, database db.DB, block BlockContext, txns []*types.Transaction,
) (*BlockResult, error) {
	tx, err := database.CreateRwTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	state := NewExecutionState(tx)
	result := &BlockResult{Block: block, Receipts: make([]*types.Receipt, 0, len(txns))}

	for _, txn := range txns {
		receipt, err := e.ExecuteTransaction(ctx, state, block, txn)
		if err != nil {
			return nil, err
		}
		result.Receipts = append(result.Receipts, receipt)
	}

	if err := state.Commit(); err != nil {
		return nil, err
	}
	for _, receipt := range result.Receipts {
		if err := db.WriteReceipt(tx, receipt); err != nil {
			return nil, err
		}
	}
	if err := db.WriteLastHeight(tx, block.Height); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	e.metrics.BlockExecuted(ctx, block.Height)
	return result, nil
}
