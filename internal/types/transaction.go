package types

import (
	"github.com/dytallix/go-dytallix/common"
	"github.com/dytallix/go-dytallix/common/check"
	"github.com/ethereum/go-ethereum/rlp"
)

type TxKind uint8

const (
	TxTransfer TxKind = iota + 1
	TxDeploy
	TxInstantiate
	TxCall
)

func (k TxKind) String() string {
	switch k {
	case TxTransfer:
		return "Transfer"
	case TxDeploy:
		return "Deploy"
	case TxInstantiate:
		return "Instantiate"
	case TxCall:
		return "Call"
	default:
		return "Invalid"
	}
}

// Transaction is the unit of execution. Fields beyond the common header are
// meaningful only for the matching kind and stay zero otherwise, which keeps
// the canonical encoding stable across kinds.
type Transaction struct {
	Kind     TxKind
	From     Address
	Nonce    uint64
	GasLimit Gas
	GasPrice Value
	// ExtraSignatures is the number of co-signatures beyond the first.
	// Signature verification itself happens before the pipeline; only the
	// count matters here, for intrinsic gas.
	ExtraSignatures uint32

	// Transfer
	To     Address
	Amount Value

	// Deploy
	Code Code

	// Instantiate
	CodeHash common.Hash
	Salt     uint64
	InitArgs []byte

	// Call
	Instance Address
	Method   string
	Args     []byte
}

// Payload returns the kind-specific bytes that intrinsic gas charges per byte.
func (t *Transaction) Payload() []byte {
	switch t.Kind {
	case TxTransfer:
		return nil
	case TxDeploy:
		return t.Code
	case TxInstantiate:
		return t.InitArgs
	case TxCall:
		return append([]byte(t.Method), t.Args...)
	default:
		return nil
	}
}

func (t *Transaction) Hash() common.Hash {
	enc, err := rlp.EncodeToBytes(t)
	check.PanicIfErr(err)
	return common.Sha3(enc)
}

// ValidateShape rejects transactions that are malformed independently of
// state: unknown kind, zero gas price, or kind-specific nonsense.
func (t *Transaction) ValidateShape() error {
	switch t.Kind {
	case TxTransfer:
		if t.To.Empty() {
			return NewVerboseError(ErrorInvalidInput, "transfer to empty address")
		}
	case TxDeploy:
		if len(t.Code) == 0 {
			return NewVerboseError(ErrorInvalidInput, "deploy without code")
		}
	case TxInstantiate:
		if t.CodeHash.Empty() {
			return NewVerboseError(ErrorInvalidInput, "instantiate without code hash")
		}
	case TxCall:
		if t.Instance.Empty() {
			return NewVerboseError(ErrorInvalidInput, "call to empty instance")
		}
		if t.Method == "" {
			return NewVerboseError(ErrorInvalidInput, "call without method")
		}
	default:
		return NewVerboseError(ErrorInvalidInput, "unknown transaction kind")
	}
	if t.GasPrice.IsZero() {
		return NewVerboseError(ErrorInvalidInput, "zero gas price")
	}
	return nil
}
