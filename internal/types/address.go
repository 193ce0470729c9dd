package types

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/dytallix/go-dytallix/common"
)

const AddrSize = 20

// addressPrefix is the human-readable prefix of the text form.
const addressPrefix = "dyt1"

// Address identifies an account or a contract instance.
type Address [AddrSize]byte

var EmptyAddress = Address{}

func BytesToAddress(b []byte) Address {
	var a Address
	if len(b) > AddrSize {
		b = b[len(b)-AddrSize:]
	}
	copy(a[AddrSize-len(b):], b)
	return a
}

func HexToAddress(s string) (Address, error) {
	s = strings.TrimPrefix(s, addressPrefix)
	s = strings.TrimPrefix(s, "0x")
	raw, err := hex.DecodeString(s)
	if err != nil {
		return EmptyAddress, err
	}
	if len(raw) != AddrSize {
		return EmptyAddress, fmt.Errorf("invalid address length: %d", len(raw))
	}
	return BytesToAddress(raw), nil
}

// CreateContractAddress derives a contract instance address from the code
// hash, the deployer and a caller-chosen salt. The derivation is pure, so
// every node computes the same instance address for the same inputs.
func CreateContractAddress(codeHash common.Hash, deployer Address, salt uint64) Address {
	var saltBytes [8]byte
	binary.LittleEndian.PutUint64(saltBytes[:], salt)
	h := common.Sha3(codeHash.Bytes(), deployer.Bytes(), []byte("contract"), saltBytes[:])
	return BytesToAddress(h.Bytes()[:AddrSize])
}

func (a Address) Bytes() []byte {
	return a[:]
}

func (a Address) Empty() bool {
	return a == EmptyAddress
}

func (a Address) Hex() string {
	return addressPrefix + hex.EncodeToString(a[:])
}

func (a Address) String() string {
	return a.Hex()
}

func (a Address) Cmp(other Address) int {
	return bytes.Compare(a[:], other[:])
}

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.Hex()), nil
}

func (a *Address) UnmarshalText(input []byte) error {
	addr, err := HexToAddress(string(input))
	if err != nil {
		return err
	}
	*a = addr
	return nil
}

func (a *Address) Set(value string) error {
	return a.UnmarshalText([]byte(value))
}

func (Address) Type() string {
	return "Address"
}
