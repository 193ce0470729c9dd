package execution

import (
	"github.com/dytallix/go-dytallix/common"
	"github.com/dytallix/go-dytallix/common/logging"
	"github.com/dytallix/go-dytallix/internal/contracts"
	"github.com/dytallix/go-dytallix/internal/db"
	"github.com/dytallix/go-dytallix/internal/types"
	"github.com/dytallix/go-dytallix/internal/vm"
	"github.com/rs/zerolog"
)

// ExecutionState is the mutable working state of a block: cached accounts,
// contract instances and storage namespaces layered over one database
// transaction, with an undo journal on top. All writes stay in memory until
// Commit flushes them through the typed accessors.
type ExecutionState struct {
	tx    db.RwTx
	store *contracts.Store

	Accounts     map[types.Address]*AccountState
	instances    map[types.Address]*types.ContractInstance
	newInstances map[types.Address]bool
	namespaces   map[types.Address]*contracts.StorageNamespace
	newCode      map[common.Hash]types.Code

	journal *journal
	logger  zerolog.Logger
}

// ExecutionState implements the host-facing state surface and the storage
// read-through of namespaces.
var (
	_ vm.HostState          = new(ExecutionState)
	_ contracts.EntryReader = new(ExecutionState)
)

func NewExecutionState(tx db.RwTx) *ExecutionState {
	return &ExecutionState{
		tx:           tx,
		store:        contracts.NewStore(tx),
		Accounts:     make(map[types.Address]*AccountState),
		instances:    make(map[types.Address]*types.ContractInstance),
		newInstances: make(map[types.Address]bool),
		namespaces:   make(map[types.Address]*contracts.StorageNamespace),
		newCode:      make(map[common.Hash]types.Code),
		journal:      newJournal(),
		logger:       logging.NewLogger("execution"),
	}
}

// Snapshot returns an identifier for the current state, to be passed to
// RevertToSnapshot.
func (s *ExecutionState) Snapshot() int {
	return s.journal.length()
}

// RevertToSnapshot undoes every journaled change made after the snapshot.
func (s *ExecutionState) RevertToSnapshot(snapshot int) {
	s.journal.revert(s, snapshot)
}

// GetAccount returns the cached account, loading it from the database on
// first touch. Unknown addresses yield nil without error.
func (s *ExecutionState) GetAccount(addr types.Address) (*AccountState, error) {
	if as, ok := s.Accounts[addr]; ok {
		return as, nil
	}
	persisted, err := db.ReadAccount(s.tx, addr)
	if err != nil {
		return nil, err
	}
	if persisted == nil {
		return nil, nil
	}
	as := newAccountState(addr, persisted)
	s.Accounts[addr] = as
	return as, nil
}

// getOrCreateAccount materializes an account, journaling the creation if the
// address was previously untouched.
func (s *ExecutionState) getOrCreateAccount(addr types.Address) (*AccountState, error) {
	as, err := s.GetAccount(addr)
	if err != nil {
		return nil, err
	}
	if as != nil {
		return as, nil
	}
	as = newAccountState(addr, nil)
	s.Accounts[addr] = as
	s.journal.append(createAccountChange{account: addr})
	return as, nil
}

func (s *ExecutionState) SetBalance(addr types.Address, balance types.Value) error {
	as, err := s.getOrCreateAccount(addr)
	if err != nil {
		return err
	}
	s.journal.append(balanceChange{account: addr, prev: as.Balance})
	as.Balance = balance
	return nil
}

func (s *ExecutionState) AddBalance(addr types.Address, delta types.Value) error {
	as, err := s.getOrCreateAccount(addr)
	if err != nil {
		return err
	}
	return s.SetBalance(addr, as.Balance.Add(delta))
}

// SubBalance debits an account, failing without a state change when the
// balance does not cover the delta.
func (s *ExecutionState) SubBalance(addr types.Address, delta types.Value) error {
	as, err := s.GetAccount(addr)
	if err != nil {
		return err
	}
	if as == nil || as.Balance.Lt(delta) {
		return types.NewError(types.ErrorInsufficientFunds)
	}
	return s.SetBalance(addr, as.Balance.Sub(delta))
}

func (s *ExecutionState) SetNonce(addr types.Address, nonce uint64) error {
	as, err := s.getOrCreateAccount(addr)
	if err != nil {
		return err
	}
	s.journal.append(nonceChange{account: addr, prev: as.Nonce})
	as.Nonce = nonce
	return nil
}

// DeployCode buffers new bytecode under its content hash. Re-deploying
// existing code is a no-op yielding the same hash.
func (s *ExecutionState) DeployCode(code types.Code) (common.Hash, error) {
	if err := code.Validate(); err != nil {
		return common.EmptyHash, err
	}
	hash := code.Hash()
	if _, ok := s.newCode[hash]; ok {
		return hash, nil
	}
	exists, err := s.store.HasCode(hash)
	if err != nil {
		return common.EmptyHash, err
	}
	if exists {
		return hash, nil
	}
	s.newCode[hash] = code.Clone()
	s.journal.append(codeStoreChange{hash: hash})
	return hash, nil
}

func (s *ExecutionState) GetCode(hash common.Hash) (types.Code, error) {
	if code, ok := s.newCode[hash]; ok {
		return code, nil
	}
	return s.store.GetCode(hash)
}

// CreateInstance registers a new contract instance at its derived address.
func (s *ExecutionState) CreateInstance(
	codeHash common.Hash, deployer types.Address, salt uint64, height uint64,
) (*types.ContractInstance, error) {
	addr := types.CreateContractAddress(codeHash, deployer, salt)
	existing, err := s.GetInstance(addr)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, types.NewVerboseError(types.ErrorStateError, "instance address collision")
	}

	instance := &types.ContractInstance{
		Address:         addr,
		CodeHash:        codeHash,
		Deployer:        deployer,
		CreatedAtHeight: height,
	}
	s.instances[addr] = instance
	s.newInstances[addr] = true
	s.journal.append(instanceCreateChange{instance: addr})
	return instance, nil
}

// GetInstance returns nil without error for an unknown instance address.
func (s *ExecutionState) GetInstance(addr types.Address) (*types.ContractInstance, error) {
	if instance, ok := s.instances[addr]; ok {
		return instance, nil
	}
	instance, err := s.store.GetInstance(addr)
	if err != nil {
		return nil, err
	}
	if instance == nil {
		return nil, nil
	}
	s.instances[addr] = instance
	return instance, nil
}

func (s *ExecutionState) namespaceFor(instance types.Address) (*contracts.StorageNamespace, error) {
	if ns, ok := s.namespaces[instance]; ok {
		return ns, nil
	}
	meta, err := s.GetInstance(instance)
	if err != nil {
		return nil, err
	}
	if meta == nil {
		return nil, types.NewVerboseError(types.ErrorInvalidContract, "unknown instance")
	}
	ns := contracts.NewStorageNamespace(instance, s, meta.StorageUsage)
	s.namespaces[instance] = ns
	return ns, nil
}

// ReadEntry is the namespace read-through to committed storage.
func (s *ExecutionState) ReadEntry(instance types.Address, key []byte) ([]byte, bool, error) {
	return db.ReadStorageEntry(s.tx, instance, key)
}

func (s *ExecutionState) StorageGet(instance types.Address, key []byte) ([]byte, bool, error) {
	ns, err := s.namespaceFor(instance)
	if err != nil {
		return nil, false, err
	}
	return ns.Get(key)
}

func (s *ExecutionState) StorageSet(instance types.Address, key, value []byte) error {
	ns, err := s.namespaceFor(instance)
	if err != nil {
		return err
	}
	prevUsage := ns.Usage()
	prev, existed, err := ns.Set(key, value)
	if err != nil {
		return err
	}
	s.journal.append(storageChange{
		instance:    instance,
		key:         append([]byte(nil), key...),
		prevValue:   prev,
		prevExisted: existed,
		prevUsage:   prevUsage,
	})
	return nil
}

func (s *ExecutionState) StorageDelete(instance types.Address, key []byte) (bool, error) {
	ns, err := s.namespaceFor(instance)
	if err != nil {
		return false, err
	}
	prevUsage := ns.Usage()
	prev, existed, err := ns.Delete(key)
	if err != nil {
		return false, err
	}
	if existed {
		s.journal.append(storageChange{
			instance:    instance,
			key:         append([]byte(nil), key...),
			prevValue:   prev,
			prevExisted: true,
			prevUsage:   prevUsage,
		})
	}
	return existed, nil
}

// Commit flushes every cached mutation through the typed accessors. The
// database transaction itself stays open; the caller decides when the block
// is final.
func (s *ExecutionState) Commit() error {
	for hash, code := range s.newCode {
		if err := db.WriteCode(s.tx, hash, code); err != nil {
			return err
		}
	}

	for addr, ns := range s.namespaces {
		err := ns.ForEachDirty(func(key, value []byte, exists bool) error {
			if exists {
				return db.WriteStorageEntry(s.tx, addr, key, value)
			}
			return db.DeleteStorageEntry(s.tx, addr, key)
		})
		if err != nil {
			return err
		}
		if instance, ok := s.instances[addr]; ok {
			instance.StorageUsage = ns.Usage()
		}
	}

	for addr, instance := range s.instances {
		_, touched := s.namespaces[addr]
		if !touched && !s.newInstances[addr] {
			continue
		}
		if err := db.WriteInstance(s.tx, instance); err != nil {
			return err
		}
	}

	for addr, as := range s.Accounts {
		if err := db.WriteAccount(s.tx, addr, as.persisted()); err != nil {
			return err
		}
	}

	s.journal = newJournal()
	return nil
}
