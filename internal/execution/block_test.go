package execution

import (
	"bytes"
	"context"
	"testing"

	"github.com/dytallix/go-dytallix/internal/db"
	"github.com/dytallix/go-dytallix/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func seedDb(t *testing.T, balances map[byte]uint64) *db.BadgerDB {
	t.Helper()
	database, err := db.NewBadgerDbInMemory()
	require.NoError(t, err)
	t.Cleanup(database.Close)

	tx, err := database.CreateRwTx(context.Background())
	require.NoError(t, err)
	defer tx.Rollback()
	for b, balance := range balances {
		err := db.WriteAccount(tx, types.BytesToAddress([]byte{b}), &types.Account{
			Balance: types.NewValueFromUint64(balance),
		})
		require.NoError(t, err)
	}
	require.NoError(t, tx.Commit())
	return database
}

func TestExecuteBlockPersistsReceiptsAndHeight(t *testing.T) {
	t.Parallel()

	database := seedDb(t, map[byte]uint64{1: 1_000_000})
	executor, err := NewExecutor(&stubEngine{})
	require.NoError(t, err)

	from := types.BytesToAddress([]byte{1})
	to := types.BytesToAddress([]byte{2})
	txns := []*types.Transaction{
		transferTx(from, to, 1000, 2000, 2),
	}
	second := transferTx(from, to, 500, 2000, 2)
	second.Nonce = 1
	txns = append(txns, second)

	block := BlockContext{Height: 7, Time: 1_700_000_000}
	result, err := executor.ExecuteBlock(context.Background(), database, block, txns)
	require.NoError(t, err)
	require.Len(t, result.Receipts, 2)
	assert.True(t, result.Receipts[0].Success)
	assert.True(t, result.Receipts[1].Success)

	ro, err := database.CreateRoTx(context.Background())
	require.NoError(t, err)
	defer ro.Rollback()

	height, err := db.ReadLastHeight(ro)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), height)

	for _, want := range result.Receipts {
		got, err := db.ReadReceipt(ro, want.TxHash)
		require.NoError(t, err)
		wantEnc, err := want.CanonicalBytes()
		require.NoError(t, err)
		gotEnc, err := got.CanonicalBytes()
		require.NoError(t, err)
		assert.Equal(t, wantEnc, gotEnc)
	}

	account, err := db.ReadAccount(ro, to)
	require.NoError(t, err)
	require.NotNil(t, account)
	assert.Equal(t, 0, account.Balance.Cmp(types.NewValueFromUint64(1500)))
}

func TestExecuteBlockRejectedTransferCommitsNoStateChange(t *testing.T) {
	t.Parallel()

	// 4500 covers the 4000 fee but not fee plus the 1000 amount, so the
	// transfer is rejected before any debit or nonce advance.
	database := seedDb(t, map[byte]uint64{1: 4500})
	executor, err := NewExecutor(&stubEngine{})
	require.NoError(t, err)

	from := types.BytesToAddress([]byte{1})
	to := types.BytesToAddress([]byte{2})

	block := BlockContext{Height: 1}
	result, err := executor.ExecuteBlock(context.Background(), database, block,
		[]*types.Transaction{transferTx(from, to, 1000, 2000, 2)})
	require.NoError(t, err)
	require.Len(t, result.Receipts, 1)
	assert.False(t, result.Receipts[0].Success)
	assert.Equal(t, types.ErrorInsufficientFunds, result.Receipts[0].ErrCode)
	assert.True(t, result.Receipts[0].FeePaid.IsZero())

	ro, err := database.CreateRoTx(context.Background())
	require.NoError(t, err)
	defer ro.Rollback()

	account, err := db.ReadAccount(ro, from)
	require.NoError(t, err)
	require.NotNil(t, account)
	assert.Equal(t, 0, account.Balance.Cmp(types.NewValueFromUint64(4500)))
	assert.Equal(t, uint64(0), account.Nonce)
}

// Two engines fed the same genesis and transactions must produce bit-identical
// receipts, whatever the workload.
func TestExecutionIsDeterministic(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		senders := rapid.SliceOfN(rapid.Byte(), 1, 4).Draw(t, "senders")
		balances := make(map[byte]uint64)
		for _, b := range senders {
			balances[b] = rapid.Uint64Range(0, 1_000_000).Draw(t, "balance")
		}

		count := rapid.IntRange(1, 8).Draw(t, "count")
		txns := make([]*types.Transaction, 0, count)
		nonces := make(map[byte]uint64)
		for i := 0; i < count; i++ {
			from := rapid.SampledFrom(senders).Draw(t, "from")
			txn := transferTx(
				types.BytesToAddress([]byte{from}),
				types.BytesToAddress([]byte{rapid.Byte().Draw(t, "to"), 0xff}),
				rapid.Uint64Range(0, 10_000).Draw(t, "amount"),
				rapid.Uint64Range(400, 5_000).Draw(t, "gasLimit"),
				rapid.Uint64Range(1, 3).Draw(t, "gasPrice"),
			)
			txn.Nonce = nonces[from]
			nonces[from]++
			txns = append(txns, txn)
		}
		block := BlockContext{Height: 1, Time: 1_700_000_000}

		run := func() [][]byte {
			database, err := db.NewBadgerDbInMemory()
			require.NoError(t, err)
			defer database.Close()

			tx, err := database.CreateRwTx(context.Background())
			require.NoError(t, err)
			for b, balance := range balances {
				account := &types.Account{Balance: types.NewValueFromUint64(balance)}
				require.NoError(t, db.WriteAccount(tx, types.BytesToAddress([]byte{b}), account))
			}
			require.NoError(t, tx.Commit())

			executor, err := NewExecutor(&stubEngine{})
			require.NoError(t, err)
			result, err := executor.ExecuteBlock(context.Background(), database, block, txns)
			require.NoError(t, err)
			encoded := make([][]byte, len(result.Receipts))
			for i, receipt := range result.Receipts {
				enc, err := receipt.CanonicalBytes()
				require.NoError(t, err)
				encoded[i] = enc
			}
			return encoded
		}

		first, second := run(), run()
		require.Len(t, second, len(first))
		for i := range first {
			if !bytes.Equal(first[i], second[i]) {
				t.Fatalf("receipt %d differs between runs", i)
			}
		}
	})
}
