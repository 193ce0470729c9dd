package gas

import (
	"testing"

	"github.com/dytallix/go-dytallix/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduleLookup(t *testing.T) {
	t.Parallel()

	s, err := ScheduleForRevision(1)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), s.Revision)
	assert.Equal(t, types.Gas(500), s.TransferBase)

	_, err = ScheduleForRevision(42)
	require.Error(t, err)
}

func TestIntrinsicGasTransfer(t *testing.T) {
	t.Parallel()

	s := CurrentSchedule()
	txn := &types.Transaction{
		Kind:     types.TxTransfer,
		GasLimit: 100_000,
		GasPrice: types.NewValueFromUint64(1),
	}

	intrinsic, err := s.IntrinsicGas(txn)
	require.NoError(t, err)
	assert.Equal(t, types.Gas(500), intrinsic)
}

func TestIntrinsicGasPerByte(t *testing.T) {
	t.Parallel()

	s := CurrentSchedule()
	txn := &types.Transaction{
		Kind:     types.TxCall,
		Instance: types.BytesToAddress([]byte{1}),
		Method:   "get",
		Args:     make([]byte, 97),
	}

	intrinsic, err := s.IntrinsicGas(txn)
	require.NoError(t, err)
	// call base + 2 per payload byte (method name counts as payload)
	assert.Equal(t, types.Gas(8_000+2*(3+97)), intrinsic)
}

func TestIntrinsicGasExtraSignatures(t *testing.T) {
	t.Parallel()

	s := CurrentSchedule()
	txn := &types.Transaction{
		Kind:            types.TxTransfer,
		ExtraSignatures: 3,
	}

	intrinsic, err := s.IntrinsicGas(txn)
	require.NoError(t, err)
	assert.Equal(t, types.Gas(500+3*700), intrinsic)
}

func TestIntrinsicGasUnknownKind(t *testing.T) {
	t.Parallel()

	s := CurrentSchedule()
	_, err := s.IntrinsicGas(&types.Transaction{Kind: types.TxKind(99)})
	require.Error(t, err)
	assert.Equal(t, types.ErrorInvalidInput, types.GetErrorCode(err))
}

func TestHostCosts(t *testing.T) {
	t.Parallel()

	s := CurrentSchedule()

	// Per-word components round up to the next started word.
	assert.Equal(t, types.Gas(80), s.StorageSetCost(0))
	assert.Equal(t, types.Gas(85), s.StorageSetCost(1))
	assert.Equal(t, types.Gas(85), s.StorageSetCost(32))
	assert.Equal(t, types.Gas(90), s.StorageSetCost(33))

	assert.Equal(t, types.Gas(15), s.CryptoHashCost(0))
	assert.Equal(t, types.Gas(30), s.CryptoHashCost(32))
	assert.Equal(t, types.Gas(45), s.CryptoHashCost(64))

	assert.Equal(t, types.Gas(30), s.DebugLogCost(0))
	assert.Equal(t, types.Gas(35), s.DebugLogCost(64))
	assert.Equal(t, types.Gas(40), s.DebugLogCost(65))
}
