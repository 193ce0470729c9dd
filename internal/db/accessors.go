package db

import (
	"encoding/binary"
	"errors"

	"github.com/dytallix/go-dytallix/common"
	"github.com/dytallix/go-dytallix/internal/types"
	"github.com/ethereum/go-ethereum/rlp"
)

// Typed accessors over the raw tables. They own the encoding so the rest of
// the code never touches rlp or key layout directly.

func ReadAccount(tx RoTx, addr types.Address) (*types.Account, error) {
	raw, err := tx.Get(AccountTable, addr.Bytes())
	if errors.Is(err, ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	account := new(types.Account)
	if err := rlp.DecodeBytes(raw, account); err != nil {
		return nil, err
	}
	return account, nil
}

func WriteAccount(tx RwTx, addr types.Address, account *types.Account) error {
	raw, err := rlp.EncodeToBytes(account)
	if err != nil {
		return err
	}
	return tx.Put(AccountTable, addr.Bytes(), raw)
}

func ReadCode(tx RoTx, hash common.Hash) (types.Code, error) {
	raw, err := tx.Get(CodeTable, hash.Bytes())
	if err != nil {
		return nil, err
	}
	return types.Code(raw), nil
}

func HasCode(tx RoTx, hash common.Hash) (bool, error) {
	return tx.Exists(CodeTable, hash.Bytes())
}

func WriteCode(tx RwTx, hash common.Hash, code types.Code) error {
	return tx.Put(CodeTable, hash.Bytes(), code)
}

func ReadInstance(tx RoTx, addr types.Address) (*types.ContractInstance, error) {
	raw, err := tx.Get(InstanceTable, addr.Bytes())
	if errors.Is(err, ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	instance := new(types.ContractInstance)
	if err := rlp.DecodeBytes(raw, instance); err != nil {
		return nil, err
	}
	return instance, nil
}

func WriteInstance(tx RwTx, instance *types.ContractInstance) error {
	raw, err := rlp.EncodeToBytes(instance)
	if err != nil {
		return err
	}
	return tx.Put(InstanceTable, instance.Address.Bytes(), raw)
}

func storageKey(instance types.Address, key []byte) []byte {
	return append(instance.Bytes(), key...)
}

func ReadStorageEntry(tx RoTx, instance types.Address, key []byte) ([]byte, bool, error) {
	raw, err := tx.Get(StorageTable, storageKey(instance, key))
	if errors.Is(err, ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return raw, true, nil
}

func WriteStorageEntry(tx RwTx, instance types.Address, key, value []byte) error {
	return tx.Put(StorageTable, storageKey(instance, key), value)
}

func DeleteStorageEntry(tx RwTx, instance types.Address, key []byte) error {
	return tx.Delete(StorageTable, storageKey(instance, key))
}

func ReadReceipt(tx RoTx, txHash common.Hash) (*types.Receipt, error) {
	raw, err := tx.Get(ReceiptTable, txHash.Bytes())
	if err != nil {
		return nil, err
	}
	return types.DecodeReceipt(raw)
}

func WriteReceipt(tx RwTx, receipt *types.Receipt) error {
	raw, err := receipt.CanonicalBytes()
	if err != nil {
		return err
	}
	return tx.Put(ReceiptTable, receipt.TxHash.Bytes(), raw)
}

func ReadLastHeight(tx RoTx) (uint64, error) {
	raw, err := tx.Get(MetaTable, LastHeightKey)
	if errors.Is(err, ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(raw), nil
}

func WriteLastHeight(tx RwTx, height uint64) error {
	var raw [8]byte
	binary.BigEndian.PutUint64(raw[:], height)
	return tx.Put(MetaTable, LastHeightKey, raw[:])
}
