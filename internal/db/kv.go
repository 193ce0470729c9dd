package db

import (
	"context"
	"errors"
)

type TableName string

var (
	ErrKeyNotFound    = errors.New("key not found")
	ErrIteratorCreate = errors.New("iterator creation failed")
)

type RoTx interface {
	Exists(table TableName, key []byte) (bool, error)
	Get(table TableName, key []byte) ([]byte, error)
	Range(table TableName, from, to []byte) (Iter, error)

	// Rollback can't really fail, because it's not clear how to proceed.
	// It's better to just panic in this case and restart.
	Rollback()
}

type RwTx interface {
	RoTx

	Put(table TableName, key, value []byte) error
	Delete(table TableName, key []byte) error
	Commit() error
}

type DB interface {
	CreateRoTx(ctx context.Context) (RoTx, error)
	CreateRwTx(ctx context.Context) (RwTx, error)
	DropAll() error
	Close()
}

type Iter interface {
	HasNext() bool
	Next() ([]byte, []byte, error)
	Close()
}
