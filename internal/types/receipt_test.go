package types

import (
	"testing"

	"github.com/dytallix/go-dytallix/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReceipt() *Receipt {
	addr := BytesToAddress([]byte{7})
	return &Receipt{
		FormatVersion:    ReceiptFormatVersion,
		TxHash:           common.Sha3([]byte("tx")),
		Success:          true,
		ErrCode:          ErrorSuccess,
		GasUsed:          820,
		FeePaid:          NewValueFromUint64(100_000),
		FeeDenom:         FeeDenom,
		ScheduleRevision: 1,
		ContractAddress:  &addr,
		ReturnData:       []byte{0xca, 0xfe},
		Events: []*Event{
			{
				Instance:    addr,
				Topic:       []byte("transfer"),
				Data:        []byte{1, 2, 3},
				BlockHeight: 42,
				TxHash:      common.Sha3([]byte("tx")),
			},
		},
	}
}

func TestReceiptCanonicalBytesAreStable(t *testing.T) {
	t.Parallel()

	a, err := sampleReceipt().CanonicalBytes()
	require.NoError(t, err)
	b, err := sampleReceipt().CanonicalBytes()
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, sampleReceipt().Hash(), sampleReceipt().Hash())
}

func TestReceiptRoundtrip(t *testing.T) {
	t.Parallel()

	original := sampleReceipt()
	enc, err := original.CanonicalBytes()
	require.NoError(t, err)

	decoded, err := DecodeReceipt(enc)
	require.NoError(t, err)
	assert.Equal(t, original.TxHash, decoded.TxHash)
	assert.Equal(t, original.GasUsed, decoded.GasUsed)
	assert.Equal(t, 0, original.FeePaid.Cmp(decoded.FeePaid))
	assert.Equal(t, original.FeeDenom, decoded.FeeDenom)
	require.NotNil(t, decoded.ContractAddress)
	assert.Equal(t, *original.ContractAddress, *decoded.ContractAddress)
	assert.Equal(t, original.ReturnData, decoded.ReturnData)
	require.Len(t, decoded.Events, 1)
	assert.Equal(t, original.Events[0].Topic, decoded.Events[0].Topic)
	assert.Equal(t, original.Events[0].BlockHeight, decoded.Events[0].BlockHeight)
	assert.Equal(t, original.Events[0].TxHash, decoded.Events[0].TxHash)
}

func TestFailedReceiptWithoutContractAddress(t *testing.T) {
	t.Parallel()

	receipt := &Receipt{
		FormatVersion:    ReceiptFormatVersion,
		TxHash:           common.Sha3([]byte("tx")),
		Success:          false,
		ErrCode:          ErrorOutOfGas,
		GasUsed:          100_000,
		FeePaid:          NewValueFromUint64(1),
		FeeDenom:         FeeDenom,
		ScheduleRevision: 1,
	}
	enc, err := receipt.CanonicalBytes()
	require.NoError(t, err)

	decoded, err := DecodeReceipt(enc)
	require.NoError(t, err)
	assert.Nil(t, decoded.ContractAddress)
	assert.Equal(t, ErrorOutOfGas, decoded.ErrCode)
	assert.False(t, decoded.Success)
}

func TestTransactionHashDependsOnContent(t *testing.T) {
	t.Parallel()

	txn := &Transaction{
		Kind:     TxTransfer,
		From:     BytesToAddress([]byte{1}),
		To:       BytesToAddress([]byte{2}),
		Nonce:    1,
		GasLimit: 10_000,
		GasPrice: NewValueFromUint64(1),
		Amount:   NewValueFromUint64(5),
	}
	h1 := txn.Hash()

	txn.Nonce = 2
	assert.NotEqual(t, h1, txn.Hash())
}
