package types

import (
	"github.com/dytallix/go-dytallix/common"
	"github.com/ethereum/go-ethereum/rlp"
)

// ReceiptFormatVersion is bumped whenever the canonical encoding of receipts
// changes. It is embedded in every receipt so historical receipts stay
// decodable.
const ReceiptFormatVersion uint32 = 1

// FeeDenom is the denomination fees are charged in.
const FeeDenom = "udgt"

// Receipt is the externally visible outcome of a transaction. Its canonical
// bytes are part of consensus: two nodes executing the same transaction must
// produce byte-identical receipts.
type Receipt struct {
	FormatVersion uint32
	TxHash        common.Hash
	Success       bool
	ErrCode       ErrorCode
	GasUsed       Gas
	// GasRefund is carried for forward compatibility; the current schedule
	// never refunds.
	GasRefund        Gas
	FeePaid          Value
	FeeDenom         string
	ScheduleRevision uint32
	ContractAddress  *Address `rlp:"nil"`
	// ReturnData is the contract's result buffer; empty for transfers,
	// deploys and calls that return nothing.
	ReturnData []byte
	Events     []*Event
}

// CanonicalBytes returns the rlp encoding receipts are hashed and stored by.
func (r *Receipt) CanonicalBytes() ([]byte, error) {
	return rlp.EncodeToBytes(r)
}

func DecodeReceipt(data []byte) (*Receipt, error) {
	receipt := new(Receipt)
	if err := rlp.DecodeBytes(data, receipt); err != nil {
		return nil, err
	}
	return receipt, nil
}

func (r *Receipt) Hash() common.Hash {
	enc, err := r.CanonicalBytes()
	if err != nil {
		return common.EmptyHash
	}
	return common.Sha3(enc)
}
