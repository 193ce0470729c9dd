package contracts

import (
	"bytes"
	"testing"

	"github.com/dytallix/go-dytallix/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mapReader is an in-memory committed-storage stand-in.
type mapReader map[string][]byte

func (r mapReader) ReadEntry(_ types.Address, key []byte) ([]byte, bool, error) {
	v, ok := r[string(key)]
	return v, ok, nil
}

func testNamespace(t *testing.T, committed mapReader, usage uint64) *StorageNamespace {
	t.Helper()
	if committed == nil {
		committed = mapReader{}
	}
	return NewStorageNamespace(types.BytesToAddress([]byte{1}), committed, usage)
}

func TestNamespaceSetGetDelete(t *testing.T) {
	t.Parallel()

	ns := testNamespace(t, nil, 0)

	_, _, err := ns.Set([]byte("counter"), []byte{0, 0, 0, 1})
	require.NoError(t, err)
	assert.Equal(t, uint64(7+4), ns.Usage())

	val, exists, err := ns.Get([]byte("counter"))
	require.NoError(t, err)
	require.True(t, exists)
	assert.Equal(t, []byte{0, 0, 0, 1}, val)

	prev, existed, err := ns.Delete([]byte("counter"))
	require.NoError(t, err)
	assert.True(t, existed)
	assert.Equal(t, []byte{0, 0, 0, 1}, prev)
	assert.Equal(t, uint64(0), ns.Usage())

	_, exists, err = ns.Get([]byte("counter"))
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestNamespaceReadsThroughToCommitted(t *testing.T) {
	t.Parallel()

	ns := testNamespace(t, mapReader{"stored": []byte("yes")}, 8)

	val, exists, err := ns.Get([]byte("stored"))
	require.NoError(t, err)
	require.True(t, exists)
	assert.Equal(t, []byte("yes"), val)

	// Overwrite shadows the committed value and adjusts usage by the delta.
	_, existed, err := ns.Set([]byte("stored"), []byte("no"))
	require.NoError(t, err)
	assert.True(t, existed)
	assert.Equal(t, uint64(8-1), ns.Usage())
}

func TestNamespaceKeyLimits(t *testing.T) {
	t.Parallel()

	ns := testNamespace(t, nil, 0)

	_, _, err := ns.Set(nil, []byte("v"))
	require.Error(t, err)
	assert.Equal(t, types.ErrorInvalidInput, types.GetErrorCode(err))

	_, _, err = ns.Set(bytes.Repeat([]byte{1}, MaxKeySize+1), []byte("v"))
	require.Error(t, err)
	assert.Equal(t, types.ErrorInvalidInput, types.GetErrorCode(err))

	// Exactly at the limit is fine.
	_, _, err = ns.Set(bytes.Repeat([]byte{1}, MaxKeySize), []byte("v"))
	require.NoError(t, err)
}

func TestNamespaceValueLimit(t *testing.T) {
	t.Parallel()

	ns := testNamespace(t, nil, 0)

	_, _, err := ns.Set([]byte("k"), bytes.Repeat([]byte{1}, MaxValueSize+1))
	require.Error(t, err)
	assert.Equal(t, types.ErrorInvalidInput, types.GetErrorCode(err))

	_, _, err = ns.Set([]byte("k"), bytes.Repeat([]byte{1}, MaxValueSize))
	require.NoError(t, err)
}

func TestNamespaceTotalLimit(t *testing.T) {
	t.Parallel()

	// One byte below the ceiling; the two-byte entry must not fit.
	ns := testNamespace(t, nil, MaxNamespaceSize-1)

	_, _, err := ns.Set([]byte("k"), []byte("v"))
	require.Error(t, err)
	assert.Equal(t, types.ErrorStateError, types.GetErrorCode(err))
	assert.True(t, types.IsVmError(err))
	assert.Equal(t, uint64(MaxNamespaceSize-1), ns.Usage())

	// Landing exactly on the ceiling is allowed.
	exact := testNamespace(t, nil, MaxNamespaceSize-2)
	_, _, err = exact.Set([]byte("k"), []byte("v"))
	require.NoError(t, err)
	assert.Equal(t, uint64(MaxNamespaceSize), exact.Usage())

	// A delete frees room.
	nsWithData := testNamespace(t, mapReader{"big": bytes.Repeat([]byte{1}, 100)}, MaxNamespaceSize-1)
	_, existed, err := nsWithData.Delete([]byte("big"))
	require.NoError(t, err)
	require.True(t, existed)
	_, _, err = nsWithData.Set([]byte("k"), []byte("v"))
	require.NoError(t, err)
}

func TestNamespaceRestore(t *testing.T) {
	t.Parallel()

	ns := testNamespace(t, mapReader{"slot": []byte("old")}, 7)

	prevUsage := ns.Usage()
	prev, existed, err := ns.Set([]byte("slot"), []byte("newer"))
	require.NoError(t, err)
	assert.Equal(t, []byte("old"), prev)
	assert.True(t, existed)

	ns.Restore([]byte("slot"), prev, existed, prevUsage)
	val, exists, err := ns.Get([]byte("slot"))
	require.NoError(t, err)
	require.True(t, exists)
	assert.Equal(t, []byte("old"), val)
	assert.Equal(t, prevUsage, ns.Usage())
}
