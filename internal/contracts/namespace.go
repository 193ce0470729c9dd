package contracts

import (
	"fmt"

	"github.com/dytallix/go-dytallix/internal/types"
)

const (
	// MaxKeySize bounds a single storage key.
	MaxKeySize = 128
	// MaxValueSize bounds a single storage value.
	MaxValueSize = 16 * 1024
	// MaxNamespaceSize bounds the total key+value bytes of one instance.
	MaxNamespaceSize = 1 << 20
)

// EntryReader is the read-through to committed storage.
type EntryReader interface {
	ReadEntry(instance types.Address, key []byte) ([]byte, bool, error)
}

type slot struct {
	value  []byte
	exists bool
}

// StorageNamespace is the mutable overlay over one contract instance's
// key space. Each instance gets its own namespace, so contracts can never
// observe each other's keys. Writes stay in the overlay until the owning
// state commits them.
type StorageNamespace struct {
	instance types.Address
	reader   EntryReader
	dirty    map[string]slot
	usage    uint64
}

func NewStorageNamespace(instance types.Address, reader EntryReader, usage uint64) *StorageNamespace {
	return &StorageNamespace{
		instance: instance,
		reader:   reader,
		dirty:    make(map[string]slot),
		usage:    usage,
	}
}

func (ns *StorageNamespace) Instance() types.Address {
	return ns.instance
}

// Usage is the current total of key+value bytes in the namespace.
func (ns *StorageNamespace) Usage() uint64 {
	return ns.usage
}

func validateKey(key []byte) error {
	if len(key) == 0 || len(key) > MaxKeySize {
		return types.NewVmVerboseError(types.ErrorInvalidInput,
			fmt.Sprintf("storage key length %d out of bounds", len(key)))
	}
	return nil
}

func (ns *StorageNamespace) load(key []byte) (slot, error) {
	if s, ok := ns.dirty[string(key)]; ok {
		return s, nil
	}
	value, exists, err := ns.reader.ReadEntry(ns.instance, key)
	if err != nil {
		return slot{}, types.NewWrapError(types.ErrorStateError, err)
	}
	return slot{value: value, exists: exists}, nil
}

func (ns *StorageNamespace) Get(key []byte) ([]byte, bool, error) {
	if err := validateKey(key); err != nil {
		return nil, false, err
	}
	s, err := ns.load(key)
	if err != nil {
		return nil, false, err
	}
	if !s.exists {
		return nil, false, nil
	}
	return append([]byte(nil), s.value...), true, nil
}

// Set writes a value and returns the previous slot state for journaling.
func (ns *StorageNamespace) Set(key, value []byte) (prev []byte, existed bool, err error) {
	if err := validateKey(key); err != nil {
		return nil, false, err
	}
	if len(value) > MaxValueSize {
		return nil, false, types.NewVmVerboseError(types.ErrorInvalidInput,
			fmt.Sprintf("storage value length %d exceeds limit %d", len(value), MaxValueSize))
	}

	s, err := ns.load(key)
	if err != nil {
		return nil, false, err
	}

	newUsage := ns.usage + uint64(len(key)) + uint64(len(value))
	if s.exists {
		newUsage -= uint64(len(key)) + uint64(len(s.value))
	}
	if newUsage > MaxNamespaceSize {
		return nil, false, types.NewVmVerboseError(types.ErrorStateError,
			"storage namespace limit exceeded")
	}

	prev, existed = s.value, s.exists
	ns.dirty[string(key)] = slot{value: append([]byte(nil), value...), exists: true}
	ns.usage = newUsage
	return prev, existed, nil
}

// Delete removes a key and returns the previous slot state for journaling.
// Deleting an absent key is not an error.
func (ns *StorageNamespace) Delete(key []byte) (prev []byte, existed bool, err error) {
	if err := validateKey(key); err != nil {
		return nil, false, err
	}
	s, err := ns.load(key)
	if err != nil {
		return nil, false, err
	}
	if !s.exists {
		return nil, false, nil
	}
	ns.dirty[string(key)] = slot{exists: false}
	ns.usage -= uint64(len(key)) + uint64(len(s.value))
	return s.value, true, nil
}

// Restore puts a slot back to a previous state. Only the journal calls this.
func (ns *StorageNamespace) Restore(key []byte, value []byte, existed bool, usage uint64) {
	ns.dirty[string(key)] = slot{value: value, exists: existed}
	ns.usage = usage
}

// ForEachDirty visits the overlay for commit. Deleted slots are reported
// with exists=false.
func (ns *StorageNamespace) ForEachDirty(fn func(key []byte, value []byte, exists bool) error) error {
	for key, s := range ns.dirty {
		if err := fn([]byte(key), s.value, s.exists); err != nil {
			return err
		}
	}
	return nil
}
