package runtime

import (
	"github.com/govm-net/corevm/core"
	"github.com/govm-net/corevm/value"
)

// TransferTokens implements §4.E TransferTokens: transfers between two
// on-chain addresses go through the Nexus balance ledger; a transfer
// whose destination is an Interop address instead raises a withdrawal
// through the InteropResolver, per §6's split between Nexus.transferTokens
// and InteropResolver.WithdrawTokens.
func (rt *Runtime) TransferTokens(symbol string, source, destination core.Address, amount uint64) bool {
	if destination.IsInterop() {
		if rt.Interop == nil {
			return false
		}
		return rt.Interop.WithdrawTokens(source, destination, symbol, amount) == nil
	}
	return rt.Nexus.TransferTokens(symbol, source, destination, amount) == nil
}

func (rt *Runtime) extcallTransferTokens(args []value.Value) (value.Value, error) {
	if len(args) < 4 {
		return value.Value{}, fault("transfertokens", "expected 4 arguments")
	}
	symbol, err := args[0].AsString()
	if err != nil {
		return value.Value{}, err
	}
	source, err := args[1].AsAddress()
	if err != nil {
		return value.Value{}, err
	}
	destination, err := args[2].AsAddress()
	if err != nil {
		return value.Value{}, err
	}
	amountInt, err := args[3].AsInteger()
	if err != nil {
		return value.Value{}, err
	}
	ok := rt.TransferTokens(symbol, source, destination, amountInt.Uint64())
	return value.Bool(ok), nil
}
