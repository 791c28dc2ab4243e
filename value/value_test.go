package value

import (
	"math/big"
	"testing"

	"github.com/govm-net/corevm/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntegerBytesCoercion(t *testing.T) {
	v := Int64(-42)
	b, err := v.AsBytes()
	require.NoError(t, err)

	back := Bytes(b)
	i, err := back.AsInteger()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(-42), i)
}

func TestIntegerBytesCoercionLarge(t *testing.T) {
	big1, _ := new(big.Int).SetString("123456789012345678901234567890", 10)
	v := Int(big1)
	b, err := v.AsBytes()
	require.NoError(t, err)
	back, err := Bytes(b).AsInteger()
	require.NoError(t, err)
	assert.Equal(t, 0, big1.Cmp(back))
}

func TestEqualityStructural(t *testing.T) {
	assert.True(t, Equal(Int64(5), Int64(5)))
	assert.False(t, Equal(Int64(5), Int64(6)))
	assert.True(t, Equal(String("a"), String("a")))
	assert.False(t, Equal(Int64(5), String("5")))
}

func TestCompareOrdering(t *testing.T) {
	cmp, err := Compare(Int64(1), Int64(2))
	require.NoError(t, err)
	assert.Equal(t, -1, cmp)

	_, err = Compare(Bool(true), Bool(false))
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestStructCanonicalEncodingOrderSensitive(t *testing.T) {
	s1 := NewStruct()
	s1.Set("a", Int64(1))
	s1.Set("b", Int64(2))

	s2 := NewStruct()
	s2.Set("b", Int64(2))
	s2.Set("a", Int64(1))

	assert.NotEqual(t, Encode(StructVal(s1)), Encode(StructVal(s2)))
}

func TestAddressValueRoundTrip(t *testing.T) {
	addr := core.SystemAddress("gas")
	v := AddressVal(addr)
	got, err := v.AsAddress()
	require.NoError(t, err)
	assert.Equal(t, addr, got)
}

func TestTypeMismatchOnBadCoercion(t *testing.T) {
	_, err := Bool(true).AsInteger()
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestEncodeDecodeRoundTripScalars(t *testing.T) {
	cases := []Value{
		Int64(-7),
		Bytes([]byte("payload")),
		String("hello"),
		Bool(true),
		Timestamp(12345),
		AddressVal(core.SystemAddress("gas")),
	}
	for _, v := range cases {
		encoded := Encode(v)
		decoded, n, err := Decode(encoded)
		require.NoError(t, err)
		assert.Equal(t, len(encoded), n)
		assert.True(t, Equal(v, decoded))
	}
}

func TestEncodeDecodeRoundTripStruct(t *testing.T) {
	s := NewStruct()
	s.Set("a", Int64(1))
	s.Set("b", String("two"))
	v := StructVal(s)

	encoded := Encode(v)
	decoded, n, err := Decode(encoded)
	require.NoError(t, err)
	assert.Equal(t, len(encoded), n)

	got, err := decoded.AsStruct()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got.Names())
	field, ok := got.Get("a")
	require.True(t, ok)
	assert.True(t, Equal(Int64(1), field))
}

func TestDecodeTruncatedInputErrors(t *testing.T) {
	_, _, err := Decode([]byte{byte(KindBool)})
	assert.Error(t, err)
}
