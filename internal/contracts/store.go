package contracts

import (
	"errors"

	"github.com/dytallix/go-dytallix/common"
	"github.com/dytallix/go-dytallix/internal/db"
	"github.com/dytallix/go-dytallix/internal/types"
)

// Store is the content-addressed contract repository: bytecode keyed by its
// hash, instance metadata keyed by address. Code is immutable once stored;
// many instances may share one code blob.
type Store struct {
	ro db.RoTx
	rw db.RwTx
}

func NewStore(tx db.RwTx) *Store {
	return &Store{ro: tx, rw: tx}
}

func NewReadOnlyStore(tx db.RoTx) *Store {
	return &Store{ro: tx}
}

// PutCode validates and stores bytecode, returning its content hash.
// Storing the same code twice is a no-op yielding the same hash.
func (s *Store) PutCode(code types.Code) (common.Hash, error) {
	if s.rw == nil {
		return common.EmptyHash, errors.New("read-only contract store")
	}
	if err := code.Validate(); err != nil {
		return common.EmptyHash, err
	}
	hash := code.Hash()
	exists, err := db.HasCode(s.ro, hash)
	if err != nil {
		return common.EmptyHash, err
	}
	if exists {
		return hash, nil
	}
	if err := db.WriteCode(s.rw, hash, code); err != nil {
		return common.EmptyHash, err
	}
	return hash, nil
}

func (s *Store) GetCode(hash common.Hash) (types.Code, error) {
	code, err := db.ReadCode(s.ro, hash)
	if errors.Is(err, db.ErrKeyNotFound) {
		return nil, types.NewVerboseError(types.ErrorInvalidContract, "unknown code hash")
	}
	if err != nil {
		return nil, err
	}
	return code, nil
}

func (s *Store) HasCode(hash common.Hash) (bool, error) {
	return db.HasCode(s.ro, hash)
}

func (s *Store) PutInstance(instance *types.ContractInstance) error {
	if s.rw == nil {
		return errors.New("read-only contract store")
	}
	return db.WriteInstance(s.rw, instance)
}

// GetInstance returns nil without error for an unknown address.
func (s *Store) GetInstance(addr types.Address) (*types.ContractInstance, error) {
	return db.ReadInstance(s.ro, addr)
}

func (s *Store) HasInstance(addr types.Address) (bool, error) {
	instance, err := db.ReadInstance(s.ro, addr)
	if err != nil {
		return false, err
	}
	return instance != nil, nil
}
