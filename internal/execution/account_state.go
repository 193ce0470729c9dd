package execution

import (
	"github.com/dytallix/go-dytallix/common"
	"github.com/dytallix/go-dytallix/internal/types"
)

// AccountState is the in-memory working copy of one account for the duration
// of a block. Mutations go through ExecutionState so they get journaled.
type AccountState struct {
	address types.Address

	Balance  types.Value
	Nonce    uint64
	CodeHash common.Hash
}

func newAccountState(addr types.Address, persisted *types.Account) *AccountState {
	as := &AccountState{
		address: addr,
		Balance: types.NewValueFromUint64(0),
	}
	if persisted != nil {
		as.Balance = persisted.Balance
		as.Nonce = persisted.Nonce
		as.CodeHash = persisted.CodeHash
	}
	return as
}

func (as *AccountState) Address() types.Address {
	return as.address
}

func (as *AccountState) persisted() *types.Account {
	return &types.Account{
		Balance:  as.Balance,
		Nonce:    as.Nonce,
		CodeHash: as.CodeHash,
	}
}
