package runtime

import (
	"testing"

	"github.com/govm-net/corevm/value"
	"github.com/stretchr/testify/require"
)

func TestGetRandomNumberAdvancesDeterministically(t *testing.T) {
	f := newFixture(t, true, nil)
	first := f.rt.GetRandomNumber()
	second := f.rt.GetRandomNumber()
	require.NotEqual(t, first, second)

	expectedSecond := int64((lcgMultiplier * uint64(first)) % lcgModulus)
	require.Equal(t, expectedSecond, second)
}

func TestGetRandomNumberSequenceRepeatsForIdenticalInputs(t *testing.T) {
	f1 := newFixture(t, true, nil)
	f2 := newFixture(t, true, nil)

	for i := 0; i < 5; i++ {
		require.Equal(t, f1.rt.GetRandomNumber(), f2.rt.GetRandomNumber())
	}
}

func TestGetRandomNumberDependsOnEntryScript(t *testing.T) {
	natives := map[string]NativeHandler{
		"alpha": func(rt *Runtime, method string, args []value.Value) (value.Value, error) {
			return value.Int64(rt.GetRandomNumber()), nil
		},
		"beta": func(rt *Runtime, method string, args []value.Value) (value.Value, error) {
			return value.Int64(rt.GetRandomNumber()), nil
		},
	}
	f1 := newFixture(t, true, natives)
	f2 := newFixture(t, true, natives)

	r1, err := f1.rt.CallContext("alpha", "run", nil)
	require.NoError(t, err)
	r2, err := f2.rt.CallContext("beta", "run", nil)
	require.NoError(t, err)

	v1, _ := r1.AsInteger()
	v2, _ := r2.AsInteger()
	require.NotEqual(t, v1.Int64(), v2.Int64())
}
