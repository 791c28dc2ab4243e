// Package security bounds the nested-call chain a transaction can
// build through CallContext and InvokeTrigger. Gas is the only other
// resource bound the core enforces: there is no wall-clock or memory
// limit at the VM level.
package security

import (
	"fmt"

	"github.com/govm-net/corevm/core"
)

// DefaultMaxCallDepth is the nested-call depth ceiling applied when a
// CallTracer is not given an explicit one.
const DefaultMaxCallDepth = 16

// CallFrame records one entry in the nested-call chain.
type CallFrame struct {
	Sender   core.Address
	Contract string
	Function string
}

// CallTracer tracks the chain of CallContext/InvokeTrigger calls a
// transaction has made, rejecting recursion past maxDepth.
type CallTracer struct {
	maxDepth int
	stack    []CallFrame
}

// NewCallTracer returns a CallTracer bounded at maxDepth, or
// DefaultMaxCallDepth when maxDepth <= 0.
func NewCallTracer(maxDepth int) *CallTracer {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxCallDepth
	}
	return &CallTracer{maxDepth: maxDepth}
}

// BeginCall pushes a new frame, failing once the chain reaches maxDepth.
func (t *CallTracer) BeginCall(sender core.Address, contract, function string) error {
	if len(t.stack) >= t.maxDepth {
		return fmt.Errorf("security: call depth exceeds limit %d", t.maxDepth)
	}
	t.stack = append(t.stack, CallFrame{Sender: sender, Contract: contract, Function: function})
	return nil
}

// EndCall pops the most recently pushed frame.
func (t *CallTracer) EndCall() {
	if len(t.stack) > 0 {
		t.stack = t.stack[:len(t.stack)-1]
	}
}

// Depth reports the current nested-call chain length.
func (t *CallTracer) Depth() int { return len(t.stack) }

// Frames returns a copy of the current call chain, outermost first.
func (t *CallTracer) Frames() []CallFrame {
	out := make([]CallFrame, len(t.stack))
	copy(out, t.stack)
	return out
}
