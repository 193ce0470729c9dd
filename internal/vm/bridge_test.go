package vm

import (
	"context"
	"testing"

	"github.com/dytallix/go-dytallix/internal/gas"
	"github.com/dytallix/go-dytallix/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// counterModule imports env.storage_set, env.storage_get and env.emit_event.
// Its data segment holds the key "cnt" at offset 0, the value "one" at offset
// 8 and the topic "tick" at offset 16. contract_touch stores the value under
// the key and emits one event; contract_check reads the key back and returns
// zero only if the stored value is exactly three bytes long.
var counterModule = types.Code{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00, // preamble
	0x01, 0x0f, 0x02, // type section
	0x60, 0x04, 0x7f, 0x7f, 0x7f, 0x7f, 0x01, 0x7f, // (i32,i32,i32,i32)->i32
	0x60, 0x02, 0x7f, 0x7f, 0x01, 0x7f, // (i32,i32)->i32
	0x02, 0x36, 0x03, // import section
	0x03, 'e', 'n', 'v', 0x0b, 's', 't', 'o', 'r', 'a', 'g', 'e', '_', 's', 'e', 't', 0x00, 0x00,
	0x03, 'e', 'n', 'v', 0x0b, 's', 't', 'o', 'r', 'a', 'g', 'e', '_', 'g', 'e', 't', 0x00, 0x00,
	0x03, 'e', 'n', 'v', 0x0a, 'e', 'm', 'i', 't', '_', 'e', 'v', 'e', 'n', 't', 0x00, 0x00,
	0x03, 0x03, 0x02, 0x01, 0x01, // two local functions of entry type
	0x05, 0x03, 0x01, 0x00, 0x01, // one memory page
	0x07, 0x2c, 0x03, // export section
	0x0e, 'c', 'o', 'n', 't', 'r', 'a', 'c', 't', '_', 't', 'o', 'u', 'c', 'h', 0x00, 0x03,
	0x0e, 'c', 'o', 'n', 't', 'r', 'a', 'c', 't', '_', 'c', 'h', 'e', 'c', 'k', 0x00, 0x04,
	0x06, 'm', 'e', 'm', 'o', 'r', 'y', 0x02, 0x00,
	0x0a, 0x2c, 0x02, // code section
	0x1a, 0x00, // contract_touch
	0x41, 0x00, 0x41, 0x03, 0x41, 0x08, 0x41, 0x03, 0x10, 0x00, 0x1a, // storage_set(0,3,8,3)
	0x41, 0x10, 0x41, 0x04, 0x41, 0x00, 0x41, 0x00, 0x10, 0x02, 0x1a, // emit_event(16,4,0,0)
	0x41, 0x00, 0x0b,
	0x0f, 0x00, // contract_check
	0x41, 0x00, 0x41, 0x03, 0x41, 0x20, 0x41, 0x10, 0x10, 0x01, // storage_get(0,3,32,16)
	0x41, 0x03, 0x6b, 0x0b, // minus the expected length
	0x0b, 0x1a, 0x01, 0x00, 0x41, 0x00, 0x0b, 0x14, // data section
	'c', 'n', 't', 0x00, 0x00, 0x00, 0x00, 0x00,
	'o', 'n', 'e', 0x00, 0x00, 0x00, 0x00, 0x00,
	't', 'i', 'c', 'k',
}

// memState is a map-backed HostState keyed by instance and key, so tests can
// observe exactly what the bridge wrote and for whom.
type memState struct {
	data map[string][]byte
}

func newMemState() *memState {
	return &memState{data: make(map[string][]byte)}
}

func (s *memState) nsKey(instance types.Address, key []byte) string {
	return string(instance.Bytes()) + string(key)
}

func (s *memState) StorageGet(instance types.Address, key []byte) ([]byte, bool, error) {
	value, ok := s.data[s.nsKey(instance, key)]
	return value, ok, nil
}

func (s *memState) StorageSet(instance types.Address, key, value []byte) error {
	s.data[s.nsKey(instance, key)] = append([]byte(nil), value...)
	return nil
}

func (s *memState) StorageDelete(instance types.Address, key []byte) (bool, error) {
	k := s.nsKey(instance, key)
	_, ok := s.data[k]
	delete(s.data, k)
	return ok, nil
}

func bridgeEnv(state HostState, instance byte, limit types.Gas) *CallEnv {
	env := testEnv(limit)
	env.State = state
	env.Instance = types.BytesToAddress([]byte{instance})
	return env
}

func TestBridgeStorageAndEventsEndToEnd(t *testing.T) {
	t.Parallel()

	runtime := testRuntime(t)
	state := newMemState()
	schedule := gas.CurrentSchedule()

	env := bridgeEnv(state, 0xa1, 100_000)
	result, err := runtime.Call(context.Background(), env, counterModule, "touch", nil)
	require.NoError(t, err)
	require.NotNil(t, result)

	value, exists, err := state.StorageGet(env.Instance, []byte("cnt"))
	require.NoError(t, err)
	require.True(t, exists)
	assert.Equal(t, []byte("one"), value)

	require.Len(t, result.Events, 1)
	assert.Equal(t, env.Instance, result.Events[0].Instance)
	assert.Equal(t, []byte("tick"), result.Events[0].Topic)
	assert.Empty(t, result.Events[0].Data)

	breakdown := env.Meter.Breakdown()
	assert.Equal(t, schedule.StorageSetCost(3), breakdown[gas.OpStorageSet])
	assert.Equal(t, schedule.EmitEvent, breakdown[gas.OpEmitEvent])
	assert.Equal(t, schedule.StorageSetCost(3).Add(schedule.EmitEvent), env.Meter.Consumed())

	// A fresh call under the same instance sees the stored value.
	readback := bridgeEnv(state, 0xa1, 100_000)
	_, err = runtime.Call(context.Background(), readback, counterModule, "check", nil)
	require.NoError(t, err)
	assert.Equal(t, schedule.StorageGet, readback.Meter.Breakdown()[gas.OpStorageGet])
}

func TestBridgeNamespaceIsolation(t *testing.T) {
	t.Parallel()

	runtime := testRuntime(t)
	state := newMemState()

	writer := bridgeEnv(state, 0xa1, 100_000)
	_, err := runtime.Call(context.Background(), writer, counterModule, "touch", nil)
	require.NoError(t, err)

	// Another instance over the same state must not see the key: its
	// storage_get misses and contract_check reports failure.
	reader := bridgeEnv(state, 0xb2, 100_000)
	_, err = runtime.Call(context.Background(), reader, counterModule, "check", nil)
	require.Error(t, err)
	assert.Equal(t, types.ErrorExecutionFailed, types.GetErrorCode(err))

	_, exists, err := state.StorageGet(reader.Instance, []byte("cnt"))
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestBridgeChargesBeforeActing(t *testing.T) {
	t.Parallel()

	runtime := testRuntime(t)
	state := newMemState()

	// Enough for the storage write (85) but not the event (80) after it.
	env := bridgeEnv(state, 0xa1, 100)
	_, err := runtime.Call(context.Background(), env, counterModule, "touch", nil)
	require.Error(t, err)
	assert.Equal(t, types.ErrorOutOfGas, types.GetErrorCode(err))
	assert.True(t, types.IsVmError(err))

	// The paid-for write landed; the unpaid event did not, and the failed
	// charge consumed nothing.
	_, exists, err := state.StorageGet(env.Instance, []byte("cnt"))
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, 0, env.Events.Len())
	assert.Equal(t, types.Gas(85), env.Meter.Consumed())
	assert.Equal(t, types.Gas(0), env.Meter.Breakdown()[gas.OpEmitEvent])
}
