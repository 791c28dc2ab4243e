package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddressKindPredicates(t *testing.T) {
	user := NewAddress(KindUser, []byte("alice"))
	sys := SystemAddress("gas")
	interop := NewAddress(KindInterop, []byte("eth-bridge"))

	assert.True(t, user.IsUser())
	assert.False(t, user.IsSystem())
	assert.False(t, user.IsInterop())

	assert.True(t, sys.IsSystem())
	assert.False(t, sys.IsUser())

	assert.True(t, interop.IsInterop())
	assert.False(t, interop.IsNull())

	assert.True(t, ZeroAddress.IsNull())
}

func TestAddressRoundTrip(t *testing.T) {
	addr := SystemAddress("token")
	s := addr.String()

	parsed, err := AddressFromString(s)
	require.NoError(t, err)
	assert.Equal(t, addr, parsed)

	parsed0x, err := AddressFromString("0x" + s)
	require.NoError(t, err)
	assert.Equal(t, addr, parsed0x)
}

func TestAddressFromStringInvalid(t *testing.T) {
	_, err := AddressFromString("deadbeef")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestSystemAddressDeterministic(t *testing.T) {
	a := SystemAddress("gas")
	b := SystemAddress("gas")
	c := SystemAddress("block")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}
