package execution

import (
	"github.com/dytallix/go-dytallix/common"
	"github.com/dytallix/go-dytallix/common/check"
	"github.com/dytallix/go-dytallix/internal/types"
)

// journalEntry is a modification entry in the state change journal that can be
// reverted on demand.
type journalEntry interface {
	// revert undoes the changes introduced by this journal entry.
	revert(*ExecutionState)
}

// journal contains the list of state modifications applied since the last
// commit. They are tracked so execution failures can roll the state back to
// the snapshot taken before the failing operation.
type journal struct {
	entries []journalEntry
}

func newJournal() *journal {
	return &journal{}
}

// append inserts a new modification entry to the end of the change journal.
func (j *journal) append(entry journalEntry) {
	j.entries = append(j.entries, entry)
}

// revert undoes a batch of journalled modifications in reverse order.
func (j *journal) revert(state *ExecutionState, snapshot int) {
	for i := len(j.entries) - 1; i >= snapshot; i-- {
		j.entries[i].revert(state)
	}
	j.entries = j.entries[:snapshot]
}

// length returns the current number of entries in the journal.
func (j *journal) length() int {
	return len(j.entries)
}

type (
	// createAccountChange is recorded when a transfer or instantiation
	// touches an address with no prior account.
	createAccountChange struct {
		account types.Address
	}

	balanceChange struct {
		account types.Address
		prev    types.Value
	}

	nonceChange struct {
		account types.Address
		prev    uint64
	}

	// storageChange carries the previous slot state and namespace usage, so
	// reverting restores both in one step.
	storageChange struct {
		instance    types.Address
		key         []byte
		prevValue   []byte
		prevExisted bool
		prevUsage   uint64
	}

	// codeStoreChange is recorded when deploy buffers new bytecode.
	codeStoreChange struct {
		hash common.Hash
	}

	// instanceCreateChange is recorded when instantiation registers a new
	// contract instance.
	instanceCreateChange struct {
		instance types.Address
	}
)

func (ch createAccountChange) revert(s *ExecutionState) {
	delete(s.Accounts, ch.account)
}

func (ch balanceChange) revert(s *ExecutionState) {
	account, err := s.GetAccount(ch.account)
	check.PanicIfErr(err)
	if account != nil {
		account.Balance = ch.prev
	}
}

func (ch nonceChange) revert(s *ExecutionState) {
	account, err := s.GetAccount(ch.account)
	check.PanicIfErr(err)
	if account != nil {
		account.Nonce = ch.prev
	}
}

func (ch storageChange) revert(s *ExecutionState) {
	ns, err := s.namespaceFor(ch.instance)
	check.PanicIfErr(err)
	ns.Restore(ch.key, ch.prevValue, ch.prevExisted, ch.prevUsage)
}

func (ch codeStoreChange) revert(s *ExecutionState) {
	delete(s.newCode, ch.hash)
}

func (ch instanceCreateChange) revert(s *ExecutionState) {
	delete(s.instances, ch.instance)
	delete(s.newInstances, ch.instance)
	delete(s.namespaces, ch.instance)
}
