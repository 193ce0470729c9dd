package types

import (
	"testing"

	"github.com/dytallix/go-dytallix/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddressText(t *testing.T) {
	t.Parallel()

	addr := BytesToAddress([]byte{0xde, 0xad, 0xbe, 0xef})
	text, err := addr.MarshalText()
	require.NoError(t, err)

	var decoded Address
	require.NoError(t, decoded.UnmarshalText(text))
	assert.Equal(t, addr, decoded)
	assert.Contains(t, addr.Hex(), "dyt1")
}

func TestAddressInvalidText(t *testing.T) {
	t.Parallel()

	var addr Address
	require.Error(t, addr.UnmarshalText([]byte("dyt1zzzz")))
	require.Error(t, addr.UnmarshalText([]byte("dyt1abcd")))
}

func TestCreateContractAddressIsDeterministic(t *testing.T) {
	t.Parallel()

	codeHash := common.Sha3([]byte("code"))
	deployer := BytesToAddress([]byte{1, 2, 3})

	a := CreateContractAddress(codeHash, deployer, 7)
	b := CreateContractAddress(codeHash, deployer, 7)
	assert.Equal(t, a, b)

	// Any input change moves the address.
	assert.NotEqual(t, a, CreateContractAddress(codeHash, deployer, 8))
	assert.NotEqual(t, a, CreateContractAddress(common.Sha3([]byte("other")), deployer, 7))
	assert.NotEqual(t, a, CreateContractAddress(codeHash, BytesToAddress([]byte{9}), 7))
}
