package runtime

import (
	"github.com/govm-net/corevm/core"
	"github.com/govm-net/corevm/value"
)

// IsWitness implements §4.E IsWitness: an address witnesses the
// current transaction when it is the entry address, the hash-derived
// address of the current context (System addresses only), a
// User address with an on-chain account whose OnWitness trigger
// halts successfully, or a member of the attached signature set. Interop
// addresses never witness, and System-caller checks never fall back
// to the chain address.
func (rt *Runtime) IsWitness(address core.Address) bool {
	if address.IsInterop() {
		return false
	}
	if address == rt.EntryAddress {
		return true
	}
	if address.IsSystem() && address == core.SystemAddress(rt.currentContractName()) {
		return true
	}
	if address.IsUser() && rt.Nexus.HasScript(address) {
		if name, err := rt.Nexus.AllocContractByAddress(address); err == nil {
			ok := rt.InvokeTrigger(name, "OnWitness", nil)
			if ok {
				return true
			}
		}
	}
	return rt.Witnesses.Has(address)
}

func (rt *Runtime) extcallIsWitness(args []value.Value) (value.Value, error) {
	if len(args) < 1 {
		return value.Value{}, fault("iswitness", "expected 1 argument")
	}
	addr, err := args[0].AsAddress()
	if err != nil {
		return value.Value{}, err
	}
	return value.Bool(rt.IsWitness(addr)), nil
}
