// Package runtime implements the Runtime façade (component E): the
// contract-facing surface that glues the Execution Stack/Interpreter
// (vm) to state (changeset), events (eventlog), triggers, oracles
// (oracle), and witnesses (host), the way vm/engine.go glues the
// teacher's wasm engine to its BlockchainContext — generalized to the
// spec's bytecode opcode set instead of a wasm call.
package runtime

import (
	"fmt"
	"time"

	"github.com/govm-net/corevm/changeset"
	"github.com/govm-net/corevm/core"
	"github.com/govm-net/corevm/eventlog"
	"github.com/govm-net/corevm/gas"
	"github.com/govm-net/corevm/host"
	"github.com/govm-net/corevm/oracle"
	"github.com/govm-net/corevm/security"
	"github.com/govm-net/corevm/value"
	"github.com/govm-net/corevm/vm"
)

// FaultError reports a terminal Runtime-level invariant violation
// (unauthorized event emission, unresolved context, read-only write,
// unpaid gas at halt) — §7 "VM fault".
type FaultError struct {
	Op      string
	Message string
	// Err is the first error among the fault's format arguments, if
	// any, so errors.Is/errors.As can see the underlying cause.
	Err error
}

func (e *FaultError) Error() string {
	return fmt.Sprintf("runtime fault in %s: %s", e.Op, e.Message)
}

func (e *FaultError) Unwrap() error { return e.Err }

func fault(op, format string, args ...any) error {
	fe := &FaultError{Op: op, Message: fmt.Sprintf(format, args...)}
	for _, a := range args {
		if err, ok := a.(error); ok {
			fe.Err = err
			break
		}
	}
	return fe
}

// NativeHandler is the Go implementation backing one built-in contract.
type NativeHandler func(rt *Runtime, method string, args []value.Value) (value.Value, error)

// Config carries the fixed, per-chain parameters a Runtime needs that
// are not part of any single transaction (fiat decimals, chain
// address, native contract registrations).
type Config struct {
	FiatDecimals uint8
	ChainAddress core.Address
	Natives      map[string]NativeHandler
}

// Runtime is one transaction's (or trigger's) execution surface. A
// child Runtime is constructed for InvokeTrigger, borrowing the
// parent's Change Set, Oracle, Chain, Time, and Transaction (§9
// "Nested runtime instances for triggers").
type Runtime struct {
	cfg Config

	ChangeSet   *changeset.ChangeSet
	Oracle      *oracle.Reader
	Chain       host.ChainStore
	Nexus       host.Nexus
	Interop     host.InteropResolver
	Witnesses   host.WitnessSet
	Transaction host.Transaction
	Now         time.Time

	Meter  *gas.Meter
	Events *eventlog.Log

	genesisEstablished bool
	blockOperationMode bool

	EntryAddress   core.Address
	CurrentContext *vm.ExecutionContext

	interp *vm.Interpreter
	tracer *security.CallTracer

	entryScript    []byte
	entryScriptSet bool

	randState  uint32
	randInited bool
}

// New builds a top-level Runtime for one transaction.
func New(cfg Config, cs *changeset.ChangeSet, or *oracle.Reader, chain host.ChainStore, nexus host.Nexus, interop host.InteropResolver, witnesses host.WitnessSet, tx host.Transaction, now time.Time, meter *gas.Meter, genesisEstablished bool) *Runtime {
	if cfg.Natives == nil {
		cfg.Natives = make(map[string]NativeHandler)
	}
	rt := &Runtime{
		cfg:                cfg,
		ChangeSet:          cs,
		Oracle:             or,
		Chain:              chain,
		Nexus:              nexus,
		Interop:            interop,
		Witnesses:          witnesses,
		Transaction:        tx,
		Now:                now,
		Meter:              meter,
		Events:             &eventlog.Log{},
		genesisEstablished: genesisEstablished,
		EntryAddress:       tx.From,
	}
	rt.Meter.SetBootstrapExempt(!genesisEstablished)
	rt.interp = vm.New(rt, rt.Meter)
	rt.tracer = security.NewCallTracer(security.DefaultMaxCallDepth)
	return rt
}

// Execute runs entryContext.method(args) to completion, applying the
// full halt/fault contract of §7: on Halt with paid gas, the caller
// merges the Change Set; on Fault, or on unpaid gas at halt, the
// caller must discard it. Execute never merges or discards itself —
// that decision belongs to the node layer holding the RootStore.
func (rt *Runtime) Execute(entryContext, method string, args []value.Value) (vm.State, value.Value, error) {
	result, err := rt.CallContext(entryContext, method, args)
	if err != nil {
		return vm.Fault, value.Value{}, err
	}
	if err := rt.Meter.SettleHalt(rt.genesisEstablished); err != nil {
		return vm.Fault, value.Value{}, fault("Execute", "%v", err)
	}
	return vm.Halt, result, nil
}

// CallContext implements §4.E CallContext: it loads contextName, runs
// methodName(args) to Halt, and restores the caller's identity. The
// bomb contract is exempt from gas accounting for the duration of the
// call (UsedGas is rewound around it).
func (rt *Runtime) CallContext(contextName, methodName string, args []value.Value) (value.Value, error) {
	ctx, err := rt.ResolveContext(contextName)
	if err != nil {
		return value.Value{}, err
	}

	if err := rt.tracer.BeginCall(rt.EntryAddress, contextName, methodName); err != nil {
		return value.Value{}, fault("CallContext", "%v", err)
	}
	defer rt.tracer.EndCall()

	if !rt.entryScriptSet {
		rt.entryScriptSet = true
		if ctx.Script != nil {
			rt.entryScript = ctx.Script
		} else {
			rt.entryScript = []byte(contextName)
		}
	}

	prevEntry := rt.EntryAddress
	prevContext := rt.CurrentContext
	rt.EntryAddress = core.SystemAddress(contextName)
	rt.CurrentContext = ctx
	defer func() {
		rt.EntryAddress = prevEntry
		rt.CurrentContext = prevContext
	}()

	bomb := contextName == "bomb"
	var savedUsedGas int64
	if bomb {
		savedUsedGas = rt.Meter.UsedGas
	}

	locals := append([]value.Value{value.String(methodName)}, args...)
	state, result, err := rt.interp.Run(rt.EntryAddress, ctx, locals)

	if bomb {
		rt.Meter.UsedGas = savedUsedGas
	}

	if err != nil {
		return value.Value{}, err
	}
	if state == vm.Fault {
		return value.Value{}, fault("CallContext", "context %q faulted", contextName)
	}
	return result, nil
}

// ResolveContext implements vm.Host: it loads a named contract,
// enforcing the block-operation-mode restriction of §4.E.
func (rt *Runtime) ResolveContext(name string) (*vm.ExecutionContext, error) {
	if rt.blockOperationMode && name != "token" {
		return nil, fault("ResolveContext", "context not available in block operations")
	}

	if handler, ok := rt.cfg.Natives[name]; ok {
		return &vm.ExecutionContext{
			Name: name,
			Native: func(i *vm.Interpreter, method string, args []value.Value) (value.Value, error) {
				return handler(rt, method, args)
			},
		}, nil
	}

	addr, err := rt.Nexus.AllocContractByName(name)
	if err != nil {
		return nil, fault("ResolveContext", "%v", err)
	}
	script, err := rt.Nexus.LookUpAddressScript(addr)
	if err != nil {
		return nil, fault("ResolveContext", "%v", err)
	}
	return &vm.ExecutionContext{Name: name, Script: script}, nil
}

// Extcall implements vm.Host: EXTCALL invokes one of the Runtime's own
// operations by name, exposing Notify/IsWitness/InvokeTrigger/
// GetRandomNumber/GetTokenPrice/GetTokenQuote/TransferTokens/
// ReadOracle to contract bytecode.
func (rt *Runtime) Extcall(i *vm.Interpreter, method string, args []value.Value) (value.Value, error) {
	switch method {
	case "notify":
		return rt.extcallNotify(args)
	case "iswitness":
		return rt.extcallIsWitness(args)
	case "invoketrigger":
		return rt.extcallInvokeTrigger(args)
	case "getrandomnumber":
		return value.Int64(rt.GetRandomNumber()), nil
	case "gettokenprice":
		return rt.extcallGetTokenPrice(args)
	case "gettokenquote":
		return rt.extcallGetTokenQuote(args)
	case "transfertokens":
		return rt.extcallTransferTokens(args)
	case "readoracle":
		return rt.extcallReadOracle(args)
	default:
		return value.Value{}, fault("Extcall", "no such handler %q", method)
	}
}

func (rt *Runtime) currentContractName() string {
	if rt.CurrentContext == nil {
		return ""
	}
	return rt.CurrentContext.Name
}

// Notify implements §4.E Notify: it appends an event authored by the
// current context, enforcing the emission authorization table, and on
// BlockCreate enters block-operation mode — restricting ResolveContext
// to the token contract and making every further opcode free — until a
// matching BlockClose.
func (rt *Runtime) Notify(kind eventlog.Kind, address core.Address, data []byte) error {
	contract := rt.currentContractName()
	if err := eventlog.Authorize(kind, contract); err != nil {
		return fault("Notify", "%v", err)
	}
	rt.Events.Append(eventlog.Event{Kind: kind, Address: address, Contract: contract, Data: data})

	switch kind {
	case eventlog.GasEscrow:
		price, amount := decodeEscrowPayload(data)
		if err := rt.Meter.ApplyGasEscrow(price, amount, address); err != nil {
			return fault("Notify", "%v", err)
		}
	case eventlog.GasPayment:
		amount := decodeAmountPayload(data)
		rt.Meter.ApplyGasPayment(amount, address, rt.cfg.ChainAddress)
	case eventlog.BlockCreate:
		rt.blockOperationMode = true
		rt.Meter.SetBlockOperationExempt(true)
	case eventlog.BlockClose:
		rt.blockOperationMode = false
		rt.Meter.SetBlockOperationExempt(false)
	}
	return nil
}

func (rt *Runtime) extcallNotify(args []value.Value) (value.Value, error) {
	if len(args) < 3 {
		return value.Value{}, fault("notify", "expected 3 arguments")
	}
	kindInt, err := args[0].AsInteger()
	if err != nil {
		return value.Value{}, err
	}
	addr, err := args[1].AsAddress()
	if err != nil {
		return value.Value{}, err
	}
	data, err := args[2].AsBytes()
	if err != nil {
		return value.Value{}, err
	}
	if err := rt.Notify(eventlog.Kind(kindInt.Int64()), addr, data); err != nil {
		return value.Value{}, err
	}
	return value.Empty(), nil
}
