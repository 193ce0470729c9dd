package types

import (
	"bytes"
	"fmt"

	"github.com/dytallix/go-dytallix/common"
)

// MaxCodeSize bounds contract bytecode accepted at deploy time.
const MaxCodeSize = 1 << 20 // 1 MiB

// wasmHeader is the required module preamble: magic plus version 1.
var wasmHeader = []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

type Code []byte

func (c Code) Hash() common.Hash {
	return common.Sha3(c)
}

func (c Code) Clone() Code {
	return append(Code(nil), c...)
}

// Validate performs the structural checks that do not require a compiler:
// size bound and module preamble. Full validation happens when the runtime
// compiles the module.
func (c Code) Validate() error {
	if len(c) == 0 {
		return NewVerboseError(ErrorInvalidContract, "empty bytecode")
	}
	if len(c) > MaxCodeSize {
		return NewVerboseError(ErrorInvalidContract,
			fmt.Sprintf("bytecode size %d exceeds limit %d", len(c), MaxCodeSize))
	}
	if len(c) < len(wasmHeader) || !bytes.Equal(c[:len(wasmHeader)], wasmHeader) {
		return NewVerboseError(ErrorInvalidContract, "missing wasm preamble")
	}
	return nil
}
