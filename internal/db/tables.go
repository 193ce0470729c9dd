package db

const (
	// AccountTable maps address -> rlp(Account).
	AccountTable TableName = "acc"
	// CodeTable maps code hash -> bytecode.
	CodeTable TableName = "code"
	// InstanceTable maps instance address -> rlp(ContractInstance).
	InstanceTable TableName = "inst"
	// StorageTable maps instance address || storage key -> value.
	StorageTable TableName = "stor"
	// ReceiptTable maps tx hash -> canonical receipt bytes.
	ReceiptTable TableName = "rcpt"
	// MetaTable holds singleton records (last height, schedule revision).
	MetaTable TableName = "meta"
)

var (
	LastHeightKey = []byte("last_height")
)
