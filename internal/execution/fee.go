package execution

import (
	"github.com/dytallix/go-dytallix/internal/types"
)

// UpfrontFee is gas_limit * gas_price, computed in 256-bit arithmetic so the
// product cannot wrap.
func UpfrontFee(txn *types.Transaction) (types.Value, error) {
	fee, overflow := txn.GasLimit.ToValueOverflow(txn.GasPrice)
	if overflow {
		return types.Value{}, types.NewVerboseError(types.ErrorInvalidInput, "fee overflow")
	}
	return fee, nil
}

// ChargeUpfrontFee debits the whole fee before execution starts. The fee is
// never refunded: a transaction that validated and paid keeps its debit even
// if execution later fails. For transfers the full debit is known in advance,
// so a sender whose balance does not cover fee plus amount is rejected here,
// before the fee is charged or the nonce advances.
func ChargeUpfrontFee(state *ExecutionState, txn *types.Transaction) (types.Value, error) {
	fee, err := UpfrontFee(txn)
	if err != nil {
		return types.Value{}, err
	}
	if txn.Kind == types.TxTransfer {
		sender, err := state.GetAccount(txn.From)
		if err != nil {
			return types.Value{}, err
		}
		// balance >= fee+amount, phrased so fee+amount cannot wrap at 256 bits.
		if sender == nil || sender.Balance.Lt(fee) || sender.Balance.Sub(fee).Lt(txn.Amount) {
			return types.Value{}, types.NewError(types.ErrorInsufficientFunds)
		}
	}
	if err := state.SubBalance(txn.From, fee); err != nil {
		return types.Value{}, err
	}
	return fee, nil
}
