package runtime

import (
	"fmt"
	"testing"

	"github.com/govm-net/corevm/eventlog"
	"github.com/govm-net/corevm/value"
	"github.com/stretchr/testify/require"
)

func TestInvokeTriggerPropagatesGasAndMergesEvents(t *testing.T) {
	natives := map[string]NativeHandler{
		"onwitness": func(rt *Runtime, method string, args []value.Value) (value.Value, error) {
			rt.Meter.UsedGas += 10
			return value.Empty(), rt.Notify(eventlog.Custom(1), rt.EntryAddress, nil)
		},
	}
	f := newFixture(t, true, natives)
	before := f.rt.Meter.UsedGas
	beforeEvents := f.rt.Events.Len()

	ok := f.rt.InvokeTrigger("onwitness", "OnWitness", nil)
	require.True(t, ok)
	require.Equal(t, before+10, f.rt.Meter.UsedGas)
	require.Equal(t, beforeEvents+1, f.rt.Events.Len())
}

func TestInvokeTriggerFaultReturnsFalseWithoutPropagatingEvents(t *testing.T) {
	f := newFixture(t, true, nil)
	before := f.rt.Meter.UsedGas
	beforeEvents := f.rt.Events.Len()

	ok := f.rt.InvokeTrigger("missing", "OnWitness", nil)
	require.False(t, ok)
	require.Equal(t, before, f.rt.Meter.UsedGas)
	require.Equal(t, beforeEvents, f.rt.Events.Len())
}

func TestInvokeTriggerPropagatesGasEvenOnFault(t *testing.T) {
	natives := map[string]NativeHandler{
		"onwitness": func(rt *Runtime, method string, args []value.Value) (value.Value, error) {
			rt.Meter.UsedGas += 10
			return value.Empty(), rt.Notify(eventlog.Custom(1), rt.EntryAddress, nil)
		},
		"other": func(rt *Runtime, method string, args []value.Value) (value.Value, error) {
			rt.Meter.UsedGas += 7
			return value.Empty(), fmt.Errorf("boom")
		},
	}
	f := newFixture(t, true, natives)
	before := f.rt.Meter.UsedGas
	beforeEvents := f.rt.Events.Len()

	ok := f.rt.InvokeTrigger("other", "Run", nil)
	require.False(t, ok)
	require.Equal(t, before+7, f.rt.Meter.UsedGas)
	require.Equal(t, beforeEvents, f.rt.Events.Len())
}
