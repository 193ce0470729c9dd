package types

import "github.com/dytallix/go-dytallix/common"

// Account is the persisted form of an account record. A contract instance
// has a non-empty CodeHash; plain accounts keep it zero.
type Account struct {
	Balance  Value
	Nonce    uint64
	CodeHash common.Hash
}

// ContractInstance is the persisted metadata of an instantiated contract.
// StorageUsage tracks the total key+value bytes in the instance namespace
// and enforces the per-namespace ceiling.
type ContractInstance struct {
	Address         Address
	CodeHash        common.Hash
	Deployer        Address
	CreatedAtHeight uint64
	StorageUsage    uint64
}
