package common

import (
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/sha3"
)

const HashSize = 32

// Hash is a 32-byte sha3-256 digest used for content addressing
// (transaction hashes, contract code hashes, receipt hashes).
type Hash [HashSize]byte

var EmptyHash = Hash{}

func BytesToHash(b []byte) Hash {
	var h Hash
	if len(b) > HashSize {
		b = b[len(b)-HashSize:]
	}
	copy(h[HashSize-len(b):], b)
	return h
}

// Sha3 hashes the concatenation of the given byte slices with sha3-256.
func Sha3(data ...[]byte) Hash {
	d := sha3.New256()
	for _, b := range data {
		d.Write(b)
	}
	var h Hash
	d.Sum(h[:0])
	return h
}

func (h Hash) Bytes() []byte {
	return h[:]
}

func (h Hash) Empty() bool {
	return h == EmptyHash
}

func (h Hash) Hex() string {
	return "0x" + hex.EncodeToString(h[:])
}

func (h Hash) String() string {
	return h.Hex()
}

func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.Hex()), nil
}

func (h *Hash) UnmarshalText(input []byte) error {
	s := string(input)
	if len(s) >= 2 && s[:2] == "0x" {
		s = s[2:]
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return err
	}
	if len(raw) != HashSize {
		return fmt.Errorf("invalid hash length: %d", len(raw))
	}
	copy(h[:], raw)
	return nil
}
