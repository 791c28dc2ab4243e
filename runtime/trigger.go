package runtime

import (
	"github.com/govm-net/corevm/gas"
	"github.com/govm-net/corevm/value"
)

// InvokeTrigger implements §4.E InvokeTrigger: it constructs a child
// Runtime sharing the Change Set, Oracle, Chain, Time, and
// Transaction, with DelayPayment set, executes name(args) against the
// named context, and propagates the child's gas cost into the parent
// whether the child halts or faults (§4.D: trigger cost propagates on
// return, unconditionally). Only on Halt does it also merge the
// child's event log into the parent's, in the child's program order
// (§9 "Nested runtime instances for triggers"). On fault it returns
// false without faulting the parent or merging its events.
func (rt *Runtime) InvokeTrigger(script, name string, args []value.Value) bool {
	childMeter := gas.NewMeter()
	childMeter.MaxGas = rt.Meter.MaxGas
	childMeter.GasPrice = rt.Meter.GasPrice
	childMeter.MinimumFee = rt.Meter.MinimumFee
	childMeter.DelayPayment = true
	childMeter.SetBootstrapExempt(!rt.genesisEstablished)

	child := New(rt.cfg, rt.ChangeSet, rt.Oracle, rt.Chain, rt.Nexus, rt.Interop, rt.Witnesses, rt.Transaction, rt.Now, childMeter, rt.genesisEstablished)
	child.tracer = rt.tracer

	_, err := child.CallContext(script, name, args)
	rt.Meter.PropagateFromChild(childMeter)
	if err != nil {
		return false
	}
	rt.Events.AppendFrom(child.Events)
	return true
}

func (rt *Runtime) extcallInvokeTrigger(args []value.Value) (value.Value, error) {
	if len(args) < 2 {
		return value.Value{}, fault("invoketrigger", "expected at least 2 arguments")
	}
	script, err := args[0].AsString()
	if err != nil {
		return value.Value{}, err
	}
	name, err := args[1].AsString()
	if err != nil {
		return value.Value{}, err
	}
	ok := rt.InvokeTrigger(script, name, args[2:])
	return value.Bool(ok), nil
}
