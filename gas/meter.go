// Package gas implements per-transaction gas accounting: the
// consensus-critical opcode cost table and the budget-enforcement
// policy of spec §4.D.
//
// Unlike the teacher's mock.ConsumeGas, which kept gas as package-level
// mutable state shared by every caller, a Meter here is a plain value
// owned by exactly one runtime.Runtime instance — spec.md §9 calls out
// global mutable gas state as a defect to fix, not replicate.
package gas

import (
	"fmt"

	"github.com/govm-net/corevm/core"
	"github.com/govm-net/corevm/opcode"
)

// costTable is binding: these exact values are consensus-critical
// (spec.md §4.C) and must never be changed casually.
var costTable = map[opcode.Opcode]int64{
	opcode.SWITCH:  10,
	opcode.CTX:     5,
	opcode.EXTCALL: 3,
	opcode.GET:     2,
	opcode.PUT:     2,
	opcode.CALL:    2,
	opcode.LOAD:    2,
	opcode.NOP:     0,
	opcode.RET:     0,
}

// CostOf returns the consensus-critical gas cost of an opcode. Every
// opcode not listed explicitly in costTable costs 1.
func CostOf(op opcode.Opcode) int64 {
	if c, ok := costTable[op]; ok {
		return c
	}
	return 1
}

// Meter tracks the gas state of a single Runtime for the duration of
// one transaction.
type Meter struct {
	UsedGas   int64
	PaidGas   int64
	MaxGas    int64
	GasPrice  int64

	MinimumFee int64
	GasTarget  core.Address

	// DelayPayment, when set, exempts the transaction from the
	// UsedGas<=MaxGas and PaidGas>=UsedGas checks (triggers run with
	// this set, per §4.D).
	DelayPayment bool

	// FeeTargetAddress receives GasPayment proceeds that are not paid
	// to the chain address.
	FeeTargetAddress core.Address

	// bootstrapExempt mirrors "genesis not yet established" or
	// read-only mode: gas is free while either is true.
	bootstrapExempt bool

	// blockOperationExempt mirrors block-operation mode (§4.E
	// BlockCreate..BlockClose): every opcode is free while it is set.
	blockOperationExempt bool
}

// NewMeter returns a zeroed Meter. SetBootstrapExempt/SetDelayPayment
// configure the bootstrap and trigger exemptions before execution.
func NewMeter() *Meter {
	return &Meter{}
}

// SetBootstrapExempt marks the meter as exempt from charges, per the
// "genesis not yet established OR readOnlyMode" bootstrap rule.
func (m *Meter) SetBootstrapExempt(exempt bool) { m.bootstrapExempt = exempt }

// SetBlockOperationExempt marks the meter as exempt from charges for
// the duration of block-operation mode (BlockCreate..BlockClose),
// during which §4.E requires every further opcode to be free.
func (m *Meter) SetBlockOperationExempt(exempt bool) { m.blockOperationExempt = exempt }

// FaultError reports a gas-related invariant violation; the caller
// must discard the change set.
type FaultError struct {
	Op      opcode.Opcode
	Message string
}

func (e *FaultError) Error() string {
	return fmt.Sprintf("gas fault at %s: %s", e.Op, e.Message)
}

// ValidateOpcode debits the cost of op into UsedGas. If genesis has not
// been established or the transaction is read-only, the charge is free
// (bootstrap exemption). Over-budget without DelayPayment faults.
func (m *Meter) ValidateOpcode(op opcode.Opcode) error {
	if m.bootstrapExempt || m.blockOperationExempt {
		return nil
	}
	m.UsedGas += CostOf(op)
	if m.UsedGas > m.MaxGas && !m.DelayPayment {
		return &FaultError{Op: op, Message: fmt.Sprintf("out of gas: used=%d max=%d", m.UsedGas, m.MaxGas)}
	}
	return nil
}

// ApplyGasEscrow handles a GasEscrow event: price must meet the
// minimum fee; sets MaxGas/GasPrice/GasTarget.
func (m *Meter) ApplyGasEscrow(price, amount int64, target core.Address) error {
	if price < m.MinimumFee {
		return fmt.Errorf("gas escrow price %d below minimum fee %d", price, m.MinimumFee)
	}
	m.MaxGas = amount
	m.GasPrice = price
	m.GasTarget = target
	return nil
}

// ApplyGasPayment handles a GasPayment event: accumulates PaidGas and
// records FeeTargetAddress when the payment address is not the chain
// address.
func (m *Meter) ApplyGasPayment(amount int64, address, chainAddress core.Address) {
	m.PaidGas += amount
	if address != chainAddress {
		m.FeeTargetAddress = address
	}
}

// SettleHalt checks the §4.D halt invariant: PaidGas must cover
// UsedGas once genesis is established and the transaction is not in
// DelayPayment mode.
func (m *Meter) SettleHalt(genesisEstablished bool) error {
	if genesisEstablished && !m.DelayPayment && m.PaidGas < m.UsedGas {
		return fmt.Errorf("unpaid gas: paid=%d used=%d", m.PaidGas, m.UsedGas)
	}
	return nil
}

// PropagateFromChild adds a child trigger's UsedGas into this meter,
// per §4.D's trigger cost propagation.
func (m *Meter) PropagateFromChild(child *Meter) {
	m.UsedGas += child.UsedGas
}
